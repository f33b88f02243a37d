// internal/workers/matching/notify-daily-match/templates.go
package notifydailymatch

import (
	"bytes"
	htmltemplate "html/template"
	"strings"
	"text/template"

	"diner-matching/internal/matching"
	"diner-matching/internal/models"
)

// messageData feeds every template.
type messageData struct {
	Name        string
	PartnerName string
	City        string
	Reasons     []matching.MatchReason
}

const subjectTemplate = `Your table for today: meet {{.PartnerName}}`

const textTemplate = `Hi {{.Name}},

Today's most compatible dining partner is {{.PartnerName}}{{if .City}} in {{.City}}{{end}}.
{{range .Reasons}}
- {{.Description}}{{end}}

Enjoy your meal!
`

const htmlTemplate = `<html><body>
<p>Hi {{.Name}},</p>
<p>Today's most compatible dining partner is <strong>{{.PartnerName}}</strong>{{if .City}} in {{.City}}{{end}}.</p>
{{if .Reasons}}<ul>{{range .Reasons}}<li>{{.Description}}</li>{{end}}</ul>{{end}}
<p>Enjoy your meal!</p>
</body></html>`

const smsTemplate = `{{.Name}}, you're matched with {{.PartnerName}} today.{{if .Reasons}}{{with index .Reasons 0}} {{.Description}}{{end}}{{end}}`

var (
	subjectTmpl = template.Must(template.New("subject").Parse(subjectTemplate))
	textTmpl    = template.Must(template.New("text").Parse(textTemplate))
	htmlTmpl    = htmltemplate.Must(htmltemplate.New("html").Parse(htmlTemplate))
	smsTmpl     = template.Must(template.New("sms").Parse(smsTemplate))
)

type renderedEmail struct {
	Subject string
	Text    string
	HTML    string
}

func newMessageData(self, partner *models.DinerProfile, reasons []matching.MatchReason) messageData {
	city, _, _ := strings.Cut(partner.Location, ",")
	return messageData{
		Name:        displayName(self),
		PartnerName: displayName(partner),
		City:        strings.TrimSpace(city),
		Reasons:     reasons,
	}
}

func displayName(p *models.DinerProfile) string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

func renderEmail(data messageData) (renderedEmail, error) {
	var subject, text, html bytes.Buffer
	if err := subjectTmpl.Execute(&subject, data); err != nil {
		return renderedEmail{}, err
	}
	if err := textTmpl.Execute(&text, data); err != nil {
		return renderedEmail{}, err
	}
	if err := htmlTmpl.Execute(&html, data); err != nil {
		return renderedEmail{}, err
	}
	return renderedEmail{Subject: subject.String(), Text: text.String(), HTML: html.String()}, nil
}

func renderSMS(data messageData) (string, error) {
	var buf bytes.Buffer
	if err := smsTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
