// internal/matching/ranker.go
package matching

import (
	"sort"

	"diner-matching/internal/models"
)

// DefaultTopK is the number of candidates returned when the caller has no
// preference.
const DefaultTopK = 5

// ScoredCandidate is one ranked entry for a seeker.
type ScoredCandidate struct {
	Diner models.DinerProfile `json:"diner"`
	PUV   float64             `json:"p_uv"`
	PVU   float64             `json:"p_vu"`
	Recip float64             `json:"recip"`
}

// RankCandidates returns up to k diners from pool ordered by reciprocal score,
// highest first. Entries sharing u's ID are skipped. Equal scores are ordered
// by ID ascending.
func (s *Scorer) RankCandidates(u *models.DinerProfile, pool []models.DinerProfile, k int) []ScoredCandidate {
	scored := make([]ScoredCandidate, 0, len(pool))
	if k <= 0 {
		return scored
	}

	for i := range pool {
		v := &pool[i]
		if v.ID == u.ID {
			continue
		}
		puv := s.LikeProbability(u, v)
		pvu := s.LikeProbability(v, u)
		scored = append(scored, ScoredCandidate{
			Diner: *v,
			PUV:   puv,
			PVU:   pvu,
			Recip: puv * pvu,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Recip != scored[j].Recip {
			return scored[i].Recip > scored[j].Recip
		}
		return scored[i].Diner.ID < scored[j].Diner.ID
	})

	if len(scored) > k {
		scored = scored[:k]
	}
	return scored
}

// RankCandidates ranks with the default weights.
func RankCandidates(u *models.DinerProfile, pool []models.DinerProfile, k int) []ScoredCandidate {
	return defaultScorer.RankCandidates(u, pool, k)
}
