package e2e

import (
	"context"
	"database/sql"
	"encoding/json"
	"os"
	"testing"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diner-matching/internal/common/config"
	"diner-matching/internal/common/database"
	"diner-matching/internal/common/logger"
	"diner-matching/internal/models"
	"diner-matching/internal/store"
	pair "diner-matching/internal/workers/matching/pair-daily-matches"
	rank "diner-matching/internal/workers/matching/rank-diner-candidates"
	score "diner-matching/internal/workers/matching/score-diner-pair"
)

// The suite talks to real services and only runs with DINER_E2E=1, e.g.
// against the docker-compose stack on localhost.

var testDiners = []models.DinerProfile{
	{ID: "e2e-ana", Name: "Ana", Cuisines: []string{"thai", "ramen"}, Availability: []string{"fri-dinner"}, SoloStyle: []string{"chatty"}, Location: "Austin, TX", Budget: "$$", Rating: models.Float64(9)},
	{ID: "e2e-bo", Name: "Bo", Cuisines: []string{"thai"}, Availability: []string{"fri-dinner"}, SoloStyle: []string{"chatty"}, Location: "Austin", Budget: "$$", Rating: models.Float64(8)},
	{ID: "e2e-cy", Name: "Cy", Cuisines: []string{"bbq"}, Availability: []string{"sat-lunch"}, SoloStyle: []string{"quiet"}, Location: "Austin, TX", Budget: "$$$"},
	{ID: "e2e-dee", Name: "Dee", Cuisines: []string{"ramen"}, Availability: []string{"fri-dinner"}, SoloStyle: []string{"quiet"}, Location: "austin", Budget: "$$", Rating: models.Float64(7)},
}

func TestFullE2E(t *testing.T) {
	if os.Getenv("DINER_E2E") != "1" {
		t.Skip("set DINER_E2E=1 to run against live services")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Database.Postgres.Host = "localhost"
	cfg.Database.Redis.Address = "localhost:6379"

	log := logger.NewTestLogger(t)

	// 1. Service connectivity
	pg, err := database.NewPostgres(cfg.Database.Postgres)
	require.NoError(t, err)
	defer pg.Close()
	require.NoError(t, pg.Ping(ctx), "postgres unreachable")

	rdb, err := database.NewRedis(cfg.Database.Redis)
	require.NoError(t, err)
	defer rdb.Close()
	require.NoError(t, rdb.Ping(ctx), "redis unreachable")

	t.Run("zeebe topology", func(t *testing.T) {
		zc, err := zbc.NewClient(&zbc.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
		})
		require.NoError(t, err)
		defer zc.Close()
		_, err = zc.NewTopologyCommand().Send(ctx)
		assert.NoError(t, err)
	})

	// 2. Schema and fixtures
	seedDiners(t, ctx, pg.DB)

	profiles := store.NewCachedStore(store.NewPostgresStore(pg.DB, log), rdb.Client, store.CacheOptions{TTL: time.Minute}, log)
	for _, d := range testDiners {
		require.NoError(t, profiles.Invalidate(ctx, d.ID))
	}

	// 3. Workers against the live stores
	t.Run("score-diner-pair", func(t *testing.T) {
		h := score.NewHandler(score.LoadConfig(cfg), profiles, nil, log)
		out, err := h.Execute(ctx, &score.Input{DinerID: "e2e-ana", CandidateID: "e2e-bo"})
		require.NoError(t, err)
		assert.InDelta(t, out.PUV*out.PVU, out.Recip, 1e-12)
		assert.NotEmpty(t, out.Reasons)

		cached, err := rdb.Client.Exists(ctx, "diner:profile:e2e-ana").Result()
		require.NoError(t, err)
		assert.Equal(t, int64(1), cached, "profile should be written through to redis")
	})

	t.Run("rank-diner-candidates", func(t *testing.T) {
		h := rank.NewHandler(rank.HandlerOptions{Config: rank.LoadConfig(cfg), Profiles: profiles, Logger: log})
		k := 2
		out, err := h.Execute(ctx, &rank.Input{DinerID: "e2e-ana", K: &k})
		require.NoError(t, err)
		assert.Equal(t, rank.SourceDatabase, out.PoolSource)
		require.Len(t, out.Candidates, 2)
		assert.Equal(t, "e2e-bo", out.Candidates[0].Diner.ID)
	})

	t.Run("pair-daily-matches", func(t *testing.T) {
		h := pair.NewHandler(pair.LoadConfig(cfg), profiles, nil, log)
		out, err := h.Execute(ctx, &pair.Input{
			SetAIDs: []string{"e2e-ana", "e2e-cy"},
			SetBIDs: []string{"e2e-bo", "e2e-dee"},
		})
		require.NoError(t, err)
		assert.Len(t, out.Pairings, 2)
		assert.Empty(t, out.Unmatched)
		assert.NotEmpty(t, out.RunID)
	})
}

func seedDiners(t *testing.T, ctx context.Context, db *sql.DB) {
	t.Helper()

	_, err := db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS diners (
		id           TEXT PRIMARY KEY,
		name         TEXT,
		cuisines     JSONB,
		availability JSONB,
		solo_style   JSONB,
		location     TEXT,
		budget       TEXT,
		rating       DOUBLE PRECISION,
		email        TEXT,
		phone        TEXT
	)`)
	require.NoError(t, err)

	for _, d := range testDiners {
		cuisines, _ := json.Marshal(d.Cuisines)
		availability, _ := json.Marshal(d.Availability)
		style, _ := json.Marshal(d.SoloStyle)

		var rating sql.NullFloat64
		if d.Rating != nil {
			rating = sql.NullFloat64{Float64: *d.Rating, Valid: true}
		}

		_, err := db.ExecContext(ctx, `INSERT INTO diners (id, name, cuisines, availability, solo_style, location, budget, rating)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (id) DO UPDATE SET name = EXCLUDED.name, cuisines = EXCLUDED.cuisines,
				availability = EXCLUDED.availability, solo_style = EXCLUDED.solo_style,
				location = EXCLUDED.location, budget = EXCLUDED.budget, rating = EXCLUDED.rating`,
			d.ID, d.Name, cuisines, availability, style, d.Location, d.Budget, rating)
		require.NoError(t, err)
	}

	t.Cleanup(func() {
		for _, d := range testDiners {
			_, _ = db.Exec(`DELETE FROM diners WHERE id = $1`, d.ID)
		}
	})
}
