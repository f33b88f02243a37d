// internal/workers/matching/score-diner-pair/models.go
package scoredinerpair

import (
	"diner-matching/internal/matching"
	"diner-matching/internal/models"
)

type Input struct {
	Diner       *models.DinerProfile `json:"diner,omitempty"`
	DinerID     string               `json:"dinerId,omitempty"`
	Candidate   *models.DinerProfile `json:"candidate,omitempty"`
	CandidateID string               `json:"candidateId,omitempty"`
}

type Output struct {
	DinerID     string                 `json:"dinerId"`
	CandidateID string                 `json:"candidateId"`
	PUV         float64                `json:"p_uv"`
	PVU         float64                `json:"p_vu"`
	Recip       float64                `json:"recip"`
	Features    matching.Features      `json:"features"`
	Reasons     []matching.MatchReason `json:"reasons"`
}
