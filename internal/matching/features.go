// internal/matching/features.go

// Package matching scores solo diners against each other and pairs them.
// Everything here is pure: no I/O, no shared mutable state.
package matching

import (
	"math"
	"strings"

	"diner-matching/internal/models"
)

// Features holds the six compatibility signals for an ordered pair (u, v).
// Every field lies in [0,1].
type Features struct {
	Cuisine      float64 `json:"cuisine"`
	Availability float64 `json:"availability"`
	Style        float64 `json:"style"`
	Locality     float64 `json:"locality"`
	Budget       float64 `json:"budget"`
	Reputation   float64 `json:"reputation"`
}

// ExtractFeatures computes all signals for the ordered pair (u, v).
func ExtractFeatures(u, v *models.DinerProfile) Features {
	return Features{
		Cuisine:      CuisineOverlap(u, v),
		Availability: AvailabilityOverlap(u, v),
		Style:        StyleSimilarity(u, v),
		Locality:     LocalityMatch(u, v),
		Budget:       BudgetMatch(u, v),
		Reputation:   ReputationProxy(v),
	}
}

// CuisineOverlap is the Jaccard index of the two cuisine sets. Two empty sets
// yield 0.
func CuisineOverlap(u, v *models.DinerProfile) float64 {
	a := toSet(u.Cuisines)
	b := toSet(v.Cuisines)

	union := len(a)
	inter := 0
	for c := range b {
		if _, ok := a[c]; ok {
			inter++
		} else {
			union++
		}
	}
	if union == 0 {
		union = 1
	}
	return float64(inter) / float64(union)
}

// AvailabilityOverlap is 1 when any of v's slots appears in u's availability.
// Callers wanting symmetry must evaluate both directions.
func AvailabilityOverlap(u, v *models.DinerProfile) float64 {
	slots := toSet(u.Availability)
	for _, s := range v.Availability {
		if _, ok := slots[s]; ok {
			return 1
		}
	}
	return 0
}

// StyleSimilarity is the cosine similarity of the binary tag bags, after
// trimming and case folding.
func StyleSimilarity(u, v *models.DinerProfile) float64 {
	a := tagBag(u.SoloStyle)
	b := tagBag(v.SoloStyle)

	inter := 0
	for t := range b {
		if _, ok := a[t]; ok {
			inter++
		}
	}
	denom := math.Sqrt(float64(max(len(a), 1))) * math.Sqrt(float64(max(len(b), 1)))
	return float64(inter) / denom
}

// LocalityMatch compares the city part of both locations.
func LocalityMatch(u, v *models.DinerProfile) float64 {
	cu := City(u.Location)
	if cu != "" && cu == City(v.Location) {
		return 1
	}
	return 0
}

// BudgetMatch is 1 on exact budget equality.
func BudgetMatch(u, v *models.DinerProfile) float64 {
	if u.Budget == v.Budget {
		return 1
	}
	return 0
}

// ReputationProxy scales v's rating into [0,1]. It ignores who is looking.
func ReputationProxy(v *models.DinerProfile) float64 {
	return v.EffectiveRating() / 10
}

// City returns the normalized text before the first comma of a location.
func City(location string) string {
	city, _, _ := strings.Cut(location, ",")
	return strings.ToLower(strings.TrimSpace(city))
}

func toSet(items []string) map[string]struct{} {
	set := make(map[string]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}

func tagBag(tags []string) map[string]struct{} {
	bag := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		bag[t] = struct{}{}
	}
	return bag
}
