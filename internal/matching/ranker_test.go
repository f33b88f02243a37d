package matching

import (
	"testing"

	"diner-matching/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankCandidates_EmptyPool(t *testing.T) {
	u := samplePool()[0]
	for _, k := range []int{0, 1, 5, 100} {
		got := RankCandidates(&u, nil, k)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	}
}

func TestRankCandidates_OnlySelf(t *testing.T) {
	u := samplePool()[0]
	got := RankCandidates(&u, []models.DinerProfile{u}, 5)
	assert.Empty(t, got)
}

func TestRankCandidates_ExcludesSeekerAndSorts(t *testing.T) {
	pool := append(samplePool(), randomPool("r", 25, 7)...)

	for i := range pool {
		u := pool[i]
		got := RankCandidates(&u, pool, 10)

		require.Len(t, got, 10)
		for n, c := range got {
			assert.NotEqual(t, u.ID, c.Diner.ID)
			assert.InDelta(t, c.PUV*c.PVU, c.Recip, 1e-15)
			assert.Equal(t, LikeProbability(&u, &c.Diner), c.PUV)
			assert.Equal(t, LikeProbability(&c.Diner, &u), c.PVU)
			if n > 0 {
				assert.GreaterOrEqual(t, got[n-1].Recip, c.Recip)
			}
		}
	}
}

func TestRankCandidates_TopKIsPrefixOfFullRanking(t *testing.T) {
	pool := randomPool("r", 20, 99)
	u := pool[3]

	full := RankCandidates(&u, pool, len(pool))
	top := RankCandidates(&u, pool, 4)

	require.Len(t, full, len(pool)-1)
	assert.Equal(t, full[:4], top)
}

func TestRankCandidates_FewerThanK(t *testing.T) {
	pool := samplePool()
	u := pool[0]
	got := RankCandidates(&u, pool, 50)
	assert.Len(t, got, len(pool)-1)
}

func TestRankCandidates_NonPositiveK(t *testing.T) {
	pool := samplePool()
	u := pool[0]
	assert.Empty(t, RankCandidates(&u, pool, 0))
	assert.Empty(t, RankCandidates(&u, pool, -3))
}

func TestRankCandidates_TieBreakByID(t *testing.T) {
	u := newDiner("me", []string{"thai"}, nil, nil, "", "", nil)
	twin := func(id string) models.DinerProfile {
		return newDiner(id, []string{"thai"}, nil, nil, "", "", nil)
	}
	pool := []models.DinerProfile{twin("c"), twin("a"), u, twin("b")}

	got := RankCandidates(&u, pool, 3)

	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].Diner.ID)
	assert.Equal(t, "b", got[1].Diner.ID)
	assert.Equal(t, "c", got[2].Diner.ID)
}

func TestRankCandidates_BestMatchFirst(t *testing.T) {
	u := newDiner("me", []string{"italian"}, []string{"fri-evening"}, []string{"quiet"}, "Austin, TX", "$$", models.Float64(9))
	pool := []models.DinerProfile{
		newDiner("far", []string{"bbq"}, []string{"sun-brunch"}, []string{"loud"}, "Boston, MA", "$", nil),
		newDiner("close", []string{"italian"}, []string{"fri-evening"}, []string{"quiet"}, "Austin, TX", "$$", models.Float64(9)),
		newDiner("mid", []string{"italian"}, nil, nil, "Austin, TX", "$", nil),
	}

	got := RankCandidates(&u, pool, 2)

	require.Len(t, got, 2)
	assert.Equal(t, "close", got[0].Diner.ID)
	assert.Equal(t, "mid", got[1].Diner.ID)
}

func TestRankCandidates_DoesNotMutatePool(t *testing.T) {
	pool := samplePool()
	before := samplePool()
	u := pool[1]

	_ = RankCandidates(&u, pool, 3)

	assert.Equal(t, before, pool)
}
