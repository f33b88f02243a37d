// internal/workers/matching/notify-daily-match/models.go
package notifydailymatch

import "diner-matching/internal/matching"

type Input struct {
	RunID    string             `json:"runId,omitempty"`
	Pairings []matching.Pairing `json:"pairings"`
}

type Output struct {
	NotificationID string     `json:"notificationId"`
	RunID          string     `json:"runId,omitempty"`
	Status         string     `json:"status"`
	Sent           int        `json:"sent"`
	Failed         int        `json:"failed"`
	Skipped        int        `json:"skipped"`
	Deliveries     []Delivery `json:"deliveries"`
}

// Delivery is one message to one diner over one channel.
type Delivery struct {
	DinerID   string `json:"dinerId"`
	Channel   string `json:"channel"`
	Status    string `json:"status"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Channels
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// Statuses
const (
	StatusSent     = "sent"
	StatusPartial  = "partial"
	StatusFailed   = "failed"
	StatusSkipped  = "skipped"
	StatusDisabled = "disabled"
)
