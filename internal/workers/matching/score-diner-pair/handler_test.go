// internal/workers/matching/score-diner-pair/handler_test.go
package scoredinerpair

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diner-matching/internal/common/config"
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

type stubStore struct {
	profiles map[string]models.DinerProfile
	err      error
}

func (s *stubStore) Get(_ context.Context, id string) (*models.DinerProfile, error) {
	if s.err != nil {
		return nil, s.err
	}
	p, ok := s.profiles[id]
	if !ok {
		return nil, store.ErrProfileNotFound
	}
	return &p, nil
}

func (s *stubStore) ListByCity(context.Context, string, int) ([]models.DinerProfile, error) {
	return nil, nil
}

func (s *stubStore) ListByIDs(context.Context, []string) ([]models.DinerProfile, error) {
	return nil, nil
}

func ana() models.DinerProfile {
	return models.DinerProfile{
		ID:           "ana",
		Cuisines:     []string{"thai", "ramen"},
		Availability: []string{"fri", "sat"},
		SoloStyle:    []string{"chatty"},
		Location:     "Austin, TX",
		Budget:       "$$",
		Rating:       models.Float64(9),
	}
}

func bo() models.DinerProfile {
	return models.DinerProfile{
		ID:           "bo",
		Cuisines:     []string{"thai"},
		Availability: []string{"fri"},
		SoloStyle:    []string{"Chatty "},
		Location:     "austin",
		Budget:       "$$",
	}
}

func newTestHandler(t *testing.T, s store.ProfileStore) *Handler {
	return NewHandler(LoadConfig(nil), s, nil, &testLogger{t: t})
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_InlineProfiles(t *testing.T) {
	h := newTestHandler(t, nil)
	u, v := ana(), bo()

	out, err := h.Execute(context.Background(), &Input{Diner: &u, Candidate: &v})
	require.NoError(t, err)

	assert.Equal(t, "ana", out.DinerID)
	assert.Equal(t, "bo", out.CandidateID)
	assert.InDelta(t, matching.LikeProbability(&u, &v), out.PUV, 1e-12)
	assert.InDelta(t, matching.LikeProbability(&v, &u), out.PVU, 1e-12)
	assert.InDelta(t, out.PUV*out.PVU, out.Recip, 1e-12)
	assert.InDelta(t, 0.5, out.Features.Cuisine, 1e-12)
	assert.Equal(t, 1.0, out.Features.Locality)
	assert.Equal(t, 0.75, out.Features.Reputation)

	factors := make([]string, 0, len(out.Reasons))
	for _, r := range out.Reasons {
		factors = append(factors, r.Factor)
	}
	assert.Equal(t, []string{
		matching.FactorCuisine,
		matching.FactorAvailability,
		matching.FactorLocality,
		matching.FactorBudget,
		matching.FactorMutual,
	}, factors)
}

func TestHandler_Execute_ByID(t *testing.T) {
	s := &stubStore{profiles: map[string]models.DinerProfile{"ana": ana(), "bo": bo()}}
	h := newTestHandler(t, s)

	out, err := h.Execute(context.Background(), &Input{DinerID: "ana", CandidateID: "bo"})
	require.NoError(t, err)

	u, v := ana(), bo()
	assert.InDelta(t, matching.ReciprocalScore(&u, &v), out.Recip, 1e-12)
}

func TestHandler_Execute_Symmetric(t *testing.T) {
	h := newTestHandler(t, nil)
	u, v := ana(), bo()

	forward, err := h.Execute(context.Background(), &Input{Diner: &u, Candidate: &v})
	require.NoError(t, err)
	backward, err := h.Execute(context.Background(), &Input{Diner: &v, Candidate: &u})
	require.NoError(t, err)

	assert.InDelta(t, forward.Recip, backward.Recip, 1e-12)
	assert.InDelta(t, forward.PUV, backward.PVU, 1e-12)
}

func TestHandler_Execute_CustomWeights(t *testing.T) {
	app := &config.Config{}
	app.Matching.Weights = matching.Weights{}
	h := NewHandler(LoadConfig(app), nil, nil, &testLogger{t: t})
	u, v := ana(), bo()

	out, err := h.Execute(context.Background(), &Input{Diner: &u, Candidate: &v})
	require.NoError(t, err)
	assert.Equal(t, 0.5, out.PUV)
	assert.Equal(t, 0.25, out.Recip)
}

func TestHandler_Execute_Errors(t *testing.T) {
	u := ana()
	bad := models.DinerProfile{ID: "bad", Rating: models.Float64(42)}

	tests := []struct {
		name     string
		store    store.ProfileStore
		input    *Input
		wantCode errors.ErrorCode
	}{
		{"nil input", nil, nil, errors.ErrCodeInvalidInput},
		{"invalid inline profile", nil, &Input{Diner: &u, Candidate: &bad}, errors.ErrCodeInvalidProfile},
		{"ids without store", nil, &Input{DinerID: "ana", CandidateID: "bo"}, errors.ErrCodeInvalidInput},
		{"unknown candidate", &stubStore{profiles: map[string]models.DinerProfile{"ana": ana()}}, &Input{DinerID: "ana", CandidateID: "ghost"}, errors.ErrCodeProfileNotFound},
		{"store down", &stubStore{err: stderrors.New("connection refused")}, &Input{DinerID: "ana", CandidateID: "bo"}, errors.ErrCodeProfileLookupFailed},
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

// ==========================
// Input Parsing Tests
// ==========================

func TestParseInput(t *testing.T) {
	input, err := ParseInput(`{"dinerId":"ana","candidate":{"id":"bo","cuisines":["thai"]}}`)
	require.NoError(t, err)
	assert.Equal(t, "ana", input.DinerID)
	require.NotNil(t, input.Candidate)
	assert.Equal(t, []string{"thai"}, input.Candidate.Cuisines)

	_, err = ParseInput(`{"dinerId":"ana"}`)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInput))

	_, err = ParseInput(`not json`)
	assert.True(t, errors.IsCode(err, errors.ErrCodeInvalidInput))
}

func TestLoadConfig(t *testing.T) {
	cfg := LoadConfig(nil)
	assert.Equal(t, matching.DefaultWeights(), cfg.Weights)

	app := &config.Config{Workers: map[string]config.WorkerConfig{TaskType: {Enabled: true, Timeout: 1500}}}
	app.Matching.Weights = matching.DefaultWeights()
	assert.Equal(t, int64(1500), LoadConfig(app).Timeout.Milliseconds())
}
