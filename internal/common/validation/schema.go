// internal/common/validation/schema.go
package validation

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

// Schema names for job inputs.
const (
	SchemaDinerProfile        = "diner-profile"
	SchemaScoreDinerPair      = "score-diner-pair"
	SchemaRankDinerCandidates = "rank-diner-candidates"
	SchemaPairDailyMatches    = "pair-daily-matches"
	SchemaNotifyDailyMatch    = "notify-daily-match"
)

//go:embed schemas/diner_profile.json
var dinerProfileSchema []byte

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// GetErrorMessages flattens errors as "field: message".
func (vr *ValidationResult) GetErrorMessages() []string {
	out := make([]string, 0, len(vr.Errors))
	for _, e := range vr.Errors {
		out = append(out, fmt.Sprintf("%s: %s", e.Field, e.Message))
	}
	return out
}

// Err returns nil for a valid result, otherwise an error listing every
// violation.
func (vr *ValidationResult) Err() error {
	if vr.Valid {
		return nil
	}
	return fmt.Errorf("schema validation failed: %v", vr.GetErrorMessages())
}

var (
	compileOnce sync.Once
	compiled    map[string]*gojsonschema.Schema
	compileErr  error
)

func profileRef() map[string]interface{} {
	return map[string]interface{}{"$ref": "#/definitions/dinerProfile"}
}

func profileArray() map[string]interface{} {
	return map[string]interface{}{"type": "array", "items": profileRef()}
}

func idArray() map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"items":       map[string]interface{}{"type": "string", "minLength": 1},
		"uniqueItems": true,
	}
}

func oneOfRequired(a, b string) map[string]interface{} {
	return map[string]interface{}{
		"anyOf": []interface{}{
			map[string]interface{}{"required": []interface{}{a}},
			map[string]interface{}{"required": []interface{}{b}},
		},
	}
}

func nonEmptyString() map[string]interface{} {
	return map[string]interface{}{"type": "string", "minLength": 1}
}

// definitions returns the job input schemas. Each embeds the profile schema
// under definitions so $refs resolve locally.
func definitions(profile map[string]interface{}) map[string]map[string]interface{} {
	withProfile := func(s map[string]interface{}) map[string]interface{} {
		s["definitions"] = map[string]interface{}{"dinerProfile": profile}
		return s
	}

	return map[string]map[string]interface{}{
		SchemaDinerProfile: profile,
		SchemaScoreDinerPair: withProfile(map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"diner":       profileRef(),
				"candidate":   profileRef(),
				"dinerId":     nonEmptyString(),
				"candidateId": nonEmptyString(),
			},
			"allOf": []interface{}{
				oneOfRequired("diner", "dinerId"),
				oneOfRequired("candidate", "candidateId"),
			},
		}),
		SchemaRankDinerCandidates: withProfile(map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"diner":   profileRef(),
				"dinerId": nonEmptyString(),
				"k":       map[string]interface{}{"type": "integer"},
				"city":    map[string]interface{}{"type": "string"},
				"pool":    profileArray(),
			},
			"allOf": []interface{}{oneOfRequired("diner", "dinerId")},
		}),
		SchemaPairDailyMatches: withProfile(map[string]interface{}{
			"type": "object",
			"properties": map[string]interface{}{
				"setA":    profileArray(),
				"setB":    profileArray(),
				"setAIds": idArray(),
				"setBIds": idArray(),
			},
			"allOf": []interface{}{
				oneOfRequired("setA", "setAIds"),
				oneOfRequired("setB", "setBIds"),
			},
		}),
		SchemaNotifyDailyMatch: {
			"type":     "object",
			"required": []interface{}{"pairings"},
			"properties": map[string]interface{}{
				"runId": map[string]interface{}{"type": "string"},
				"pairings": map[string]interface{}{
					"type": "array",
					"items": map[string]interface{}{
						"type":     "object",
						"required": []interface{}{"aId", "bId"},
						"properties": map[string]interface{}{
							"aId": nonEmptyString(),
							"bId": nonEmptyString(),
						},
					},
				},
			},
		},
	}
}

func compileAll() {
	var profile map[string]interface{}
	if err := json.Unmarshal(dinerProfileSchema, &profile); err != nil {
		compileErr = fmt.Errorf("parse diner profile schema: %w", err)
		return
	}

	compiled = make(map[string]*gojsonschema.Schema)
	for name, def := range definitions(profile) {
		s, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(def))
		if err != nil {
			compileErr = fmt.Errorf("compile schema %s: %w", name, err)
			return
		}
		compiled[name] = s
	}
}

func schemaFor(name string) (*gojsonschema.Schema, error) {
	compileOnce.Do(compileAll)
	if compileErr != nil {
		return nil, compileErr
	}
	s, ok := compiled[name]
	if !ok {
		return nil, fmt.Errorf("unknown schema %q", name)
	}
	return s, nil
}

// ValidateJSON checks a raw JSON document against the named schema.
func ValidateJSON(name string, document []byte) (*ValidationResult, error) {
	return validate(name, gojsonschema.NewBytesLoader(document))
}

// ValidateValue checks an in-memory value against the named schema.
func ValidateValue(name string, value interface{}) (*ValidationResult, error) {
	return validate(name, gojsonschema.NewGoLoader(value))
}

func validate(name string, doc gojsonschema.JSONLoader) (*ValidationResult, error) {
	s, err := schemaFor(name)
	if err != nil {
		return nil, err
	}

	result, err := s.Validate(doc)
	if err != nil {
		return nil, fmt.Errorf("validate against %s: %w", name, err)
	}

	vr := &ValidationResult{Valid: result.Valid()}
	for _, e := range result.Errors() {
		vr.Errors = append(vr.Errors, ValidationError{
			Field:   e.Field(),
			Message: e.Description(),
			Code:    e.Type(),
		})
	}
	sort.SliceStable(vr.Errors, func(i, j int) bool {
		return vr.Errors[i].Field < vr.Errors[j].Field
	})
	return vr, nil
}
