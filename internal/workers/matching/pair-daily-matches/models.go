// internal/workers/matching/pair-daily-matches/models.go
package pairdailymatches

import (
	"diner-matching/internal/matching"
	"diner-matching/internal/models"
)

// Input carries each side either as profiles or as IDs. Profiles win when
// both are given.
type Input struct {
	SetA    []models.DinerProfile `json:"setA,omitempty"`
	SetB    []models.DinerProfile `json:"setB,omitempty"`
	SetAIDs []string              `json:"setAIds,omitempty"`
	SetBIDs []string              `json:"setBIds,omitempty"`
}

type Output struct {
	RunID     string             `json:"runId"`
	Pairings  []matching.Pairing `json:"pairings"`
	Matches   []Match            `json:"matches"`
	Unmatched []string           `json:"unmatched"`
	Proposals int                `json:"proposals"`
}

// Match is a pairing with its score, for downstream notification.
type Match struct {
	AID   string  `json:"aId"`
	BID   string  `json:"bId"`
	Recip float64 `json:"recip"`
}
