// internal/models/diner.go
package models

import (
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
)

// DefaultRating is used when a diner has no rating yet.
const DefaultRating = 7.5

var validate = validator.New()

// DinerProfile is a solo diner as supplied by the profile store. The matching
// core treats it as read-only.
type DinerProfile struct {
	ID           string   `json:"id" validate:"required"`
	Name         string   `json:"name,omitempty"`
	Cuisines     []string `json:"cuisines"`
	Availability []string `json:"availability"`
	SoloStyle    []string `json:"soloStyle"`
	Location     string   `json:"location"`
	Budget       string   `json:"budget"`
	Rating       *float64 `json:"rating,omitempty" validate:"omitempty,min=0,max=10"`

	// Contact fields, only read by the notification worker.
	Email string `json:"email,omitempty" validate:"omitempty,email"`
	Phone string `json:"phone,omitempty"`
}

// Validate rejects profiles the matching core should never see.
func (d *DinerProfile) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("invalid diner profile %q: %w", d.ID, err)
	}
	// min/max tags compare false against NaN and let it through.
	if d.Rating != nil && (math.IsNaN(*d.Rating) || math.IsInf(*d.Rating, 0)) {
		return fmt.Errorf("invalid diner profile %q: rating %v is not a finite number", d.ID, *d.Rating)
	}
	return nil
}

// EffectiveRating returns the rating, falling back to DefaultRating when it is
// missing or zero.
func (d *DinerProfile) EffectiveRating() float64 {
	if d.Rating == nil || *d.Rating == 0 {
		return DefaultRating
	}
	return *d.Rating
}

// Float64 returns a pointer to v, handy for building profiles with a rating.
func Float64(v float64) *float64 {
	return &v
}
