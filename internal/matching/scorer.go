// internal/matching/scorer.go
package matching

import (
	"fmt"
	"math"

	"diner-matching/internal/models"
)

// Weights are the coefficients of the linear compatibility model.
type Weights struct {
	Cuisine      float64 `mapstructure:"cuisine" json:"cuisine"`
	Availability float64 `mapstructure:"availability" json:"availability"`
	Style        float64 `mapstructure:"style" json:"style"`
	Locality     float64 `mapstructure:"locality" json:"locality"`
	Budget       float64 `mapstructure:"budget" json:"budget"`
	Reputation   float64 `mapstructure:"reputation" json:"reputation"`
	Bias         float64 `mapstructure:"bias" json:"bias"`
}

// DefaultWeights returns the production weight set.
func DefaultWeights() Weights {
	return Weights{
		Cuisine:      1.2,
		Availability: 1.0,
		Style:        1.3,
		Locality:     0.8,
		Budget:       0.5,
		Reputation:   0.9,
		Bias:         -0.5,
	}
}

// Validate rejects weights that would poison every score.
func (w Weights) Validate() error {
	fields := map[string]float64{
		"cuisine":      w.Cuisine,
		"availability": w.Availability,
		"style":        w.Style,
		"locality":     w.Locality,
		"budget":       w.Budget,
		"reputation":   w.Reputation,
		"bias":         w.Bias,
	}
	for name, v := range fields {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("weight %s must be finite, got %v", name, v)
		}
	}
	return nil
}

// Linear returns bias + Σ weight_i * feature_i.
func (w Weights) Linear(f Features) float64 {
	return w.Bias +
		w.Cuisine*f.Cuisine +
		w.Availability*f.Availability +
		w.Style*f.Style +
		w.Locality*f.Locality +
		w.Budget*f.Budget +
		w.Reputation*f.Reputation
}

// Scorer computes directed like probabilities and reciprocal scores. It holds
// no mutable state and is safe for concurrent use.
type Scorer struct {
	weights Weights
}

// NewScorer builds a Scorer over an explicit weight set.
func NewScorer(w Weights) *Scorer {
	return &Scorer{weights: w}
}

// DefaultScorer builds a Scorer over DefaultWeights.
func DefaultScorer() *Scorer {
	return NewScorer(DefaultWeights())
}

// Weights returns the scorer's weight set.
func (s *Scorer) Weights() Weights {
	return s.weights
}

// LikeProbability is the probability that u would like v. Not symmetric.
func (s *Scorer) LikeProbability(u, v *models.DinerProfile) float64 {
	return Sigmoid(s.weights.Linear(ExtractFeatures(u, v)))
}

// ReciprocalScore is P(u->v) * P(v->u). Symmetric in u and v.
func (s *Scorer) ReciprocalScore(u, v *models.DinerProfile) float64 {
	return s.LikeProbability(u, v) * s.LikeProbability(v, u)
}

var defaultScorer = DefaultScorer()

// LikeProbability scores with the default weights.
func LikeProbability(u, v *models.DinerProfile) float64 {
	return defaultScorer.LikeProbability(u, v)
}

// ReciprocalScore scores with the default weights.
func ReciprocalScore(u, v *models.DinerProfile) float64 {
	return defaultScorer.ReciprocalScore(u, v)
}

// Sigmoid is the logistic function.
func Sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
