package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diner-matching/internal/common/database"
	"diner-matching/internal/common/logger"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type staticTasks []string

func (s staticTasks) TaskTypes() []string { return append([]string(nil), s...) }

func TestHealthMux(t *testing.T) {
	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })
	tasks := staticTasks{"score-diner-pair", "pair-daily-matches"}

	tests := []struct {
		name       string
		path       string
		deps       map[string]database.Pinger
		wantStatus int
		check      func(t *testing.T, body map[string]interface{})
	}{
		{
			name:       "health",
			path:       "/health",
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "healthy", body["status"])
			},
		},
		{
			name:       "ready",
			path:       "/ready",
			deps:       map[string]database.Pinger{"postgres": ok, "redis": ok},
			wantStatus: http.StatusOK,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "ready", body["status"])
				assert.Equal(t, []interface{}{"pair-daily-matches", "score-diner-pair"}, body["workers"])
			},
		},
		{
			name:       "not ready",
			path:       "/ready",
			deps:       map[string]database.Pinger{"postgres": ok, "elasticsearch": down},
			wantStatus: http.StatusServiceUnavailable,
			check: func(t *testing.T, body map[string]interface{}) {
				assert.Equal(t, "not_ready", body["status"])
				deps := body["dependencies"].(map[string]interface{})
				assert.Equal(t, "ok", deps["postgres"])
				assert.Equal(t, "connection refused", deps["elasticsearch"])
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newHealthMux(tt.deps, tasks, time.Second)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			tt.check(t, body)
		})
	}
}

func TestHealthMux_Metrics(t *testing.T) {
	mux := newHealthMux(nil, staticTasks{}, time.Second)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestConnectWithRetry(t *testing.T) {
	fast := backoff{Attempts: 3, Delay: time.Millisecond, MaxDelay: 2 * time.Millisecond}
	log := logger.NewTestLogger(t)

	calls := 0
	err := connectWithRetry(context.Background(), log, "flaky", fast, func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("not yet")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)

	calls = 0
	err = connectWithRetry(context.Background(), log, "broken", fast, func(context.Context) error {
		calls++
		return errors.New("refused")
	})
	assert.ErrorContains(t, err, "broken failed after 3 attempts")
	assert.ErrorContains(t, err, "refused")
	assert.Equal(t, 3, calls)
}

func TestConnectWithRetry_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := connectWithRetry(ctx, logger.NewTestLogger(t), "zeebe", defaultBackoff, func(context.Context) error {
		return errors.New("refused")
	})
	assert.Error(t, err)
}
