// internal/matching/pairing.go
package matching

import (
	"sort"

	"diner-matching/internal/models"
)

// Pairing is one matched pair from a stable pairing run.
type Pairing struct {
	AID string `json:"aId"`
	BID string `json:"bId"`
}

// PairingStats describes a pairing run.
type PairingStats struct {
	Proposals int      `json:"proposals"`
	Unmatched []string `json:"unmatched"`
}

// DailyMostCompatible pairs setA with setB using A-proposing deferred
// acceptance, both sides ranking by reciprocal score. The result is a stable
// one-to-one matching ordered by A's input order.
func (s *Scorer) DailyMostCompatible(setA, setB []models.DinerProfile) []Pairing {
	pairs, _ := s.DailyMostCompatibleWithStats(setA, setB)
	return pairs
}

// DailyMostCompatibleWithStats is DailyMostCompatible plus run statistics.
func (s *Scorer) DailyMostCompatibleWithStats(setA, setB []models.DinerProfile) ([]Pairing, PairingStats) {
	stats := PairingStats{Unmatched: []string{}}
	if len(setA) == 0 || len(setB) == 0 {
		for _, a := range setA {
			stats.Unmatched = append(stats.Unmatched, a.ID)
		}
		return []Pairing{}, stats
	}

	// Scores are symmetric, so one table serves both sides.
	scores := make([][]float64, len(setA))
	for i := range setA {
		scores[i] = make([]float64, len(setB))
		for j := range setB {
			if setA[i].ID == setB[j].ID {
				continue
			}
			scores[i][j] = s.ReciprocalScore(&setA[i], &setB[j])
		}
	}

	prefA := make([][]int, len(setA))
	for i := range setA {
		list := make([]int, 0, len(setB))
		for j := range setB {
			if setA[i].ID != setB[j].ID {
				list = append(list, j)
			}
		}
		sort.SliceStable(list, func(x, y int) bool {
			sx, sy := scores[i][list[x]], scores[i][list[y]]
			if sx != sy {
				return sx > sy
			}
			return setB[list[x]].ID < setB[list[y]].ID
		})
		prefA[i] = list
	}

	// rankB[j][i] is a's position in b's list; -1 when b never ranks a.
	rankB := make([][]int, len(setB))
	for j := range setB {
		list := make([]int, 0, len(setA))
		for i := range setA {
			if setA[i].ID != setB[j].ID {
				list = append(list, i)
			}
		}
		sort.SliceStable(list, func(x, y int) bool {
			sx, sy := scores[list[x]][j], scores[list[y]][j]
			if sx != sy {
				return sx > sy
			}
			return setA[list[x]].ID < setA[list[y]].ID
		})
		ranks := make([]int, len(setA))
		for i := range ranks {
			ranks[i] = -1
		}
		for pos, i := range list {
			ranks[i] = pos
		}
		rankB[j] = ranks
	}

	next := make([]int, len(setA))
	engagedTo := make([]int, len(setB)) // b index -> a index
	for j := range engagedTo {
		engagedTo[j] = -1
	}
	free := make([]int, len(setA))
	for i := range free {
		free[i] = i
	}

	for len(free) > 0 {
		a := free[0]
		free = free[1:]

		if next[a] >= len(prefA[a]) {
			continue
		}
		b := prefA[a][next[a]]
		next[a]++
		stats.Proposals++

		current := engagedTo[b]
		switch {
		case current < 0:
			engagedTo[b] = a
		case rankB[b][a] < rankB[b][current]:
			engagedTo[b] = a
			free = append(free, current)
		default:
			free = append(free, a)
		}
	}

	partner := make([]int, len(setA))
	for i := range partner {
		partner[i] = -1
	}
	for b, a := range engagedTo {
		if a >= 0 {
			partner[a] = b
		}
	}

	pairs := make([]Pairing, 0, min(len(setA), len(setB)))
	for a, b := range partner {
		if b < 0 {
			stats.Unmatched = append(stats.Unmatched, setA[a].ID)
			continue
		}
		pairs = append(pairs, Pairing{AID: setA[a].ID, BID: setB[b].ID})
	}
	return pairs, stats
}

// DailyMostCompatible pairs with the default weights.
func DailyMostCompatible(setA, setB []models.DinerProfile) []Pairing {
	return defaultScorer.DailyMostCompatible(setA, setB)
}
