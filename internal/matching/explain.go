// internal/matching/explain.go
package matching

import (
	"fmt"
	"strings"

	"diner-matching/internal/models"
)

// Factor names used in MatchReason.
const (
	FactorCuisine      = "cuisine"
	FactorAvailability = "availability"
	FactorStyle        = "style"
	FactorLocality     = "locality"
	FactorBudget       = "budget"
	FactorMutual       = "mutual"
)

// strongMutualThreshold is the like probability both sides must exceed for
// the mutual-comfort reason.
const strongMutualThreshold = 0.9

// MatchReason is one human readable reason why two diners match.
type MatchReason struct {
	Factor      string `json:"factor"`
	Description string `json:"description"`
}

// Explain lists the reasons u and v match, in a fixed factor order.
func Explain(u, v *models.DinerProfile, pUV, pVU float64) []MatchReason {
	reasons := []MatchReason{}

	if shared := shared(u.Cuisines, v.Cuisines); len(shared) > 0 {
		reasons = append(reasons, MatchReason{
			Factor:      FactorCuisine,
			Description: fmt.Sprintf("You both enjoy %s cuisine.", strings.Join(shared, ", ")),
		})
	}
	if shared := shared(u.Availability, v.Availability); len(shared) > 0 {
		reasons = append(reasons, MatchReason{
			Factor:      FactorAvailability,
			Description: fmt.Sprintf("You are both free on %s.", strings.Join(shared, ", ")),
		})
	}
	if shared := shared(u.SoloStyle, v.SoloStyle); len(shared) > 0 {
		reasons = append(reasons, MatchReason{
			Factor:      FactorStyle,
			Description: fmt.Sprintf("You share a similar dining vibe: %s.", strings.Join(shared, ", ")),
		})
	}
	if LocalityMatch(u, v) == 1 {
		city, _, _ := strings.Cut(u.Location, ",")
		reasons = append(reasons, MatchReason{
			Factor:      FactorLocality,
			Description: fmt.Sprintf("You are both based in %s.", strings.TrimSpace(city)),
		})
	}
	if BudgetMatch(u, v) == 1 {
		reasons = append(reasons, MatchReason{
			Factor:      FactorBudget,
			Description: "You have similar budget preferences.",
		})
	}
	if pUV > strongMutualThreshold && pVU > strongMutualThreshold {
		reasons = append(reasons, MatchReason{
			Factor:      FactorMutual,
			Description: "Strong mutual comfort in dining preferences.",
		})
	}
	return reasons
}

// shared returns the items of a also present in b, in a's order, without
// duplicates.
func shared(a, b []string) []string {
	in := toSet(b)
	seen := make(map[string]struct{}, len(a))
	var out []string
	for _, x := range a {
		if _, ok := in[x]; !ok {
			continue
		}
		if _, dup := seen[x]; dup {
			continue
		}
		seen[x] = struct{}{}
		out = append(out, x)
	}
	return out
}
