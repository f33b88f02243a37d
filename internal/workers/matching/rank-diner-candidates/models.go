// internal/workers/matching/rank-diner-candidates/models.go
package rankdinercandidates

import (
	"diner-matching/internal/matching"
	"diner-matching/internal/models"
)

type Input struct {
	Diner   *models.DinerProfile `json:"diner,omitempty"`
	DinerID string               `json:"dinerId,omitempty"`
	K       *int                 `json:"k,omitempty"`
	// City overrides the seeker's own city when searching for candidates.
	City string `json:"city,omitempty"`
	// Pool, when present, is ranked as-is and no search happens.
	Pool []models.DinerProfile `json:"pool,omitempty"`
}

type Output struct {
	DinerID    string                     `json:"dinerId"`
	K          int                        `json:"k"`
	PoolSize   int                        `json:"poolSize"`
	PoolSource string                     `json:"poolSource"`
	Candidates []matching.ScoredCandidate `json:"candidates"`
	BestMatch  *matching.ScoredCandidate  `json:"bestMatch"`
	Reasons    []matching.MatchReason     `json:"reasons"`
}

// Pool sources reported in Output.PoolSource.
const (
	SourceInput    = "input"
	SourceSearch   = "search"
	SourceDatabase = "database"
)
