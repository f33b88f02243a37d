package matching

import (
	"fmt"
	"math/rand"

	"diner-matching/internal/models"
)

func newDiner(id string, cuisines, availability, style []string, location, budget string, rating *float64) models.DinerProfile {
	return models.DinerProfile{
		ID:           id,
		Cuisines:     cuisines,
		Availability: availability,
		SoloStyle:    style,
		Location:     location,
		Budget:       budget,
		Rating:       rating,
	}
}

// samplePool returns a fixed, varied pool including empty profiles.
func samplePool() []models.DinerProfile {
	return []models.DinerProfile{
		newDiner("ana", []string{"italian", "thai"}, []string{"fri-evening"}, []string{"quiet", "foodie"}, "Austin, TX", "$$", models.Float64(9)),
		newDiner("ben", []string{"thai"}, []string{"sat-lunch", "fri-evening"}, []string{"Chatty"}, "Austin, TX", "$", nil),
		newDiner("cai", []string{"mexican"}, []string{"sun-brunch"}, []string{"quiet"}, "Boston, MA", "$$$", models.Float64(6.5)),
		newDiner("dee", nil, nil, nil, "", "", nil),
		newDiner("eli", []string{"italian"}, []string{"fri-evening"}, []string{" QUIET "}, "austin", "$$", models.Float64(8)),
		newDiner("fay", []string{"sushi", "thai"}, []string{"sat-lunch"}, []string{"adventurous"}, "Denver, CO", "$$", models.Float64(10)),
	}
}

// randomPool builds n pseudo-random profiles from a fixed seed.
func randomPool(prefix string, n int, seed int64) []models.DinerProfile {
	r := rand.New(rand.NewSource(seed))
	cuisines := []string{"italian", "thai", "mexican", "sushi", "indian", "bbq"}
	slots := []string{"fri-evening", "sat-lunch", "sun-brunch", "wed-dinner"}
	styles := []string{"quiet", "chatty", "foodie", "adventurous", "casual"}
	cities := []string{"Austin, TX", "Boston, MA", "Denver, CO", ""}
	budgets := []string{"$", "$$", "$$$"}

	pick := func(from []string) []string {
		var out []string
		for _, x := range from {
			if r.Intn(3) == 0 {
				out = append(out, x)
			}
		}
		return out
	}

	pool := make([]models.DinerProfile, n)
	for i := range pool {
		var rating *float64
		if r.Intn(4) > 0 {
			rating = models.Float64(float64(r.Intn(101)) / 10)
		}
		pool[i] = newDiner(
			fmt.Sprintf("%s%02d", prefix, i),
			pick(cuisines),
			pick(slots),
			pick(styles),
			cities[r.Intn(len(cities))],
			budgets[r.Intn(len(budgets))],
			rating,
		)
	}
	return pool
}
