// internal/workers/matching/pair-daily-matches/handler_test.go
package pairdailymatches

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diner-matching/internal/common/errors"
	"diner-matching/internal/common/logger"
	"diner-matching/internal/matching"
	"diner-matching/internal/models"
	"diner-matching/internal/store"
)

// ==========================
// Test Helper Functions
// ==========================

type testLogger struct {
	t *testing.T
}

func (tl *testLogger) Debug(msg string, fields map[string]interface{}) {
	tl.t.Logf("DEBUG: %s %v", msg, fields)
}

func (tl *testLogger) Info(msg string, fields map[string]interface{}) {
	tl.t.Logf("INFO: %s %v", msg, fields)
}

func (tl *testLogger) Warn(msg string, fields map[string]interface{}) {
	tl.t.Logf("WARN: %s %v", msg, fields)
}

func (tl *testLogger) Error(msg string, fields map[string]interface{}) {
	tl.t.Logf("ERROR: %s %v", msg, fields)
}

func (tl *testLogger) WithFields(map[string]interface{}) logger.Logger { return tl }
func (tl *testLogger) WithError(error) logger.Logger { return tl }
func (tl *testLogger) With(map[string]interface{}) logger.Logger { return tl }
func (tl *testLogger) Named(string) logger.Logger { return tl }
func (tl *testLogger) Sync() error { return nil }

type idStore map[string]models.DinerProfile

func (s idStore) Get(_ context.Context, id string) (*models.DinerProfile, error) {
	p, ok := s[id]
	if !ok {
		return nil, store.ErrProfileNotFound
	}
	return &p, nil
}

func (s idStore) ListByCity(context.Context, string, int) ([]models.DinerProfile, error) {
	return nil, nil
}

func (s idStore) ListByIDs(_ context.Context, ids []string) ([]models.DinerProfile, error) {
	out := []models.DinerProfile{}
	var missing []string
	for _, id := range ids {
		if p, ok := s[id]; ok {
			out = append(out, p)
		} else {
			missing = append(missing, id)
		}
	}
	if len(missing) > 0 {
		return out, &store.MissingProfilesError{IDs: missing}
	}
	return out, nil
}

func thaiFan(id string) models.DinerProfile {
	return models.DinerProfile{ID: id, Cuisines: []string{"thai"}, Availability: []string{"fri"}, SoloStyle: []string{"chatty"}, Location: "Austin", Budget: "$$", Rating: models.Float64(8)}
}

func bbqFan(id string) models.DinerProfile {
	return models.DinerProfile{ID: id, Cuisines: []string{"bbq"}, Availability: []string{"sun"}, SoloStyle: []string{"quiet"}, Location: "Dallas", Budget: "$", Rating: models.Float64(8)}
}

func newTestHandler(t *testing.T, s store.ProfileStore) *Handler {
	h := NewHandler(LoadConfig(nil), s, nil, &testLogger{t: t})
	h.newRunID = func() string { return "run-1" }
	return h
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_InlineSets(t *testing.T) {
	h := newTestHandler(t, nil)
	setA := []models.DinerProfile{thaiFan("a1"), bbqFan("a2")}
	setB := []models.DinerProfile{bbqFan("b1"), thaiFan("b2")}

	out, err := h.Execute(context.Background(), &Input{SetA: setA, SetB: setB})
	require.NoError(t, err)

	assert.Equal(t, "run-1", out.RunID)
	assert.Equal(t, []matching.Pairing{{AID: "a1", BID: "b2"}, {AID: "a2", BID: "b1"}}, out.Pairings)
	assert.Empty(t, out.Unmatched)
	assert.Equal(t, 2, out.Proposals)

	require.Len(t, out.Matches, 2)
	assert.InDelta(t, matching.ReciprocalScore(&setA[0], &setB[1]), out.Matches[0].Recip, 1e-12)
	assert.Equal(t, "a2", out.Matches[1].AID)
}

func TestHandler_Execute_MatchesCorePairing(t *testing.T) {
	h := newTestHandler(t, nil)
	setA := []models.DinerProfile{thaiFan("a1"), thaiFan("a2"), bbqFan("a3")}
	setB := []models.DinerProfile{thaiFan("b1"), bbqFan("b2")}

	out, err := h.Execute(context.Background(), &Input{SetA: setA, SetB: setB})
	require.NoError(t, err)

	want, stats := matching.DefaultScorer().DailyMostCompatibleWithStats(setA, setB)
	assert.Equal(t, want, out.Pairings)
	assert.Equal(t, stats.Unmatched, out.Unmatched)
	assert.Len(t, out.Unmatched, 1)
}

func TestHandler_Execute_ByIDs(t *testing.T) {
	s := idStore{"a1": thaiFan("a1"), "b1": thaiFan("b1")}
	h := newTestHandler(t, s)

	out, err := h.Execute(context.Background(), &Input{SetAIDs: []string{"a1"}, SetBIDs: []string{"b1"}})
	require.NoError(t, err)
	assert.Equal(t, []matching.Pairing{{AID: "a1", BID: "b1"}}, out.Pairings)
}

func TestHandler_Execute_EmptySide(t *testing.T) {
	h := newTestHandler(t, nil)

	out, err := h.Execute(context.Background(), &Input{SetA: []models.DinerProfile{thaiFan("a1")}, SetB: []models.DinerProfile{}})
	require.NoError(t, err)
	assert.Empty(t, out.Pairings)
	assert.NotNil(t, out.Pairings)
	assert.Equal(t, []string{"a1"}, out.Unmatched)
	assert.Equal(t, 0, out.Proposals)
}

func TestHandler_Execute_RealRunIDs(t *testing.T) {
	h := NewHandler(LoadConfig(nil), nil, nil, &testLogger{t: t})
	in := &Input{SetA: []models.DinerProfile{}, SetB: []models.DinerProfile{}}

	first, err := h.Execute(context.Background(), in)
	require.NoError(t, err)
	second, err := h.Execute(context.Background(), in)
	require.NoError(t, err)

	_, err = uuid.Parse(first.RunID)
	assert.NoError(t, err)
	assert.NotEqual(t, first.RunID, second.RunID)
}

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name     string
		store    store.ProfileStore
		input    *Input
		wantCode errors.ErrorCode
	}{
		{"nil input", nil, nil, errors.ErrCodeInvalidInput},
		{"missing id", idStore{"a1": thaiFan("a1")}, &Input{SetAIDs: []string{"a1"}, SetBIDs: []string{"nope"}}, errors.ErrCodeProfileNotFound},
		{"invalid profile", nil, &Input{SetA: []models.DinerProfile{{ID: "x", Email: "not-an-email"}}, SetB: []models.DinerProfile{}}, errors.ErrCodeInvalidProfile},
		{"ids without store", nil, &Input{SetAIDs: []string{"a1"}, SetB: []models.DinerProfile{}}, errors.ErrCodeInvalidInput},
		{"repeated id in A", idStore{"a1": thaiFan("a1"), "b1": thaiFan("b1"), "b2": bbqFan("b2")}, &Input{SetAIDs: []string{"a1", "a1"}, SetBIDs: []string{"b1", "b2"}}, errors.ErrCodeInvalidInput},
		{"repeated profile in B", nil, &Input{SetA: []models.DinerProfile{thaiFan("a1")}, SetB: []models.DinerProfile{thaiFan("b1"), bbqFan("b1")}}, errors.ErrCodeInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(t, tt.store)
			_, err := h.Execute(context.Background(), tt.input)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.AsStandardError(err).Code)
		})
	}
}

func TestParseInput(t *testing.T) {
	input, err := ParseInput(`{"setA":[{"id":"a1","cuisines":["thai"]}],"setBIds":["b1","b2"]}`)
	require.NoError(t, err)
	assert.Len(t, input.SetA, 1)
	assert.Equal(t, []string{"b1", "b2"}, input.SetBIDs)

	_, err = ParseInput(`{"setA":[]}`)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInput))

	_, err = ParseInput(`{"setAIds":["a1","a1"],"setBIds":["b1","b2"]}`)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInput))
}

func TestHandler_Execute_PairingsAreOneToOne(t *testing.T) {
	h := newTestHandler(t, nil)
	out, err := h.Execute(context.Background(), &Input{
		SetA: []models.DinerProfile{thaiFan("a1"), bbqFan("a2"), thaiFan("a3")},
		SetB: []models.DinerProfile{bbqFan("b1"), thaiFan("b2")},
	})
	require.NoError(t, err)

	seenA, seenB := map[string]bool{}, map[string]bool{}
	for _, p := range out.Pairings {
		assert.False(t, seenA[p.AID], "aId %s paired twice", p.AID)
		assert.False(t, seenB[p.BID], "bId %s paired twice", p.BID)
		seenA[p.AID], seenB[p.BID] = true, true
	}
	assert.Len(t, out.Pairings, 2)
	assert.Len(t, out.Unmatched, 1)
}
