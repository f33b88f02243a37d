// internal/store/cached.go
package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/maypok86/otter/v2"
	"github.com/redis/go-redis/v9"

	"diner-matching/internal/common/logger"
	"diner-matching/internal/common/metrics"
	"diner-matching/internal/models"
)

const profileKeyPrefix = "diner:profile:"

// CacheOptions configures NewCachedStore.
type CacheOptions struct {
	TTL       time.Duration
	LocalSize int
	DisableL1 bool
	DisableL2 bool
}

// CachedStore fronts a ProfileStore with an in-process otter cache and a
// shared redis cache. Cache failures are logged and bypassed.
type CachedStore struct {
	next   ProfileStore
	redis  redis.Cmdable
	local  *otter.Cache[string, models.DinerProfile]
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedStore(next ProfileStore, rdb redis.Cmdable, opts CacheOptions, log logger.Logger) *CachedStore {
	if opts.TTL <= 0 {
		opts.TTL = 5 * time.Minute
	}
	if opts.LocalSize <= 0 {
		opts.LocalSize = 10_000
	}

	s := &CachedStore{
		next:   next,
		ttl:    opts.TTL,
		logger: log.WithFields(map[string]interface{}{"store": "cached"}),
	}
	if !opts.DisableL2 {
		s.redis = rdb
	}
	if !opts.DisableL1 {
		s.local = otter.Must(&otter.Options[string, models.DinerProfile]{
			MaximumSize:      opts.LocalSize,
			InitialCapacity:  min(opts.LocalSize, 1024),
			ExpiryCalculator: otter.ExpiryWriting[string, models.DinerProfile](opts.TTL),
		})
	}
	return s
}

func profileKey(id string) string {
	return profileKeyPrefix + id
}

func (s *CachedStore) Get(ctx context.Context, id string) (*models.DinerProfile, error) {
	if p, ok := s.getLocal(id); ok {
		return &p, nil
	}

	if s.redis != nil {
		raw, err := s.redis.Get(ctx, profileKey(id)).Bytes()
		switch {
		case err == nil:
			var p models.DinerProfile
			jerr := json.Unmarshal(raw, &p)
			if jerr == nil {
				metrics.ProfileCacheRequests.WithLabelValues("redis", "hit").Inc()
				s.setLocal(p)
				return &p, nil
			}
			metrics.ProfileCacheRequests.WithLabelValues("redis", "miss").Inc()
			s.logger.Warn("discarding undecodable cached profile", map[string]interface{}{
				"diner_id": id,
				"error":    jerr.Error(),
			})
		case errors.Is(err, redis.Nil):
			metrics.ProfileCacheRequests.WithLabelValues("redis", "miss").Inc()
		default:
			metrics.ProfileCacheRequests.WithLabelValues("redis", "error").Inc()
			s.logger.Warn("redis profile lookup failed", map[string]interface{}{
				"diner_id": id,
				"error":    err.Error(),
			})
		}
	}

	p, err := s.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.store(ctx, []models.DinerProfile{*p})
	return p, nil
}

// ListByCity is not cached; candidate pools change as diners join.
func (s *CachedStore) ListByCity(ctx context.Context, city string, limit int) ([]models.DinerProfile, error) {
	return s.next.ListByCity(ctx, city, limit)
}

func (s *CachedStore) ListByIDs(ctx context.Context, ids []string) ([]models.DinerProfile, error) {
	unique := uniqueIDs(ids)
	found := make(map[string]models.DinerProfile, len(unique))

	pending := make([]string, 0, len(unique))
	for _, id := range unique {
		if p, ok := s.getLocal(id); ok {
			found[id] = p
			continue
		}
		pending = append(pending, id)
	}

	if len(pending) > 0 && s.redis != nil {
		pending = s.fillFromRedis(ctx, pending, found)
	}

	if len(pending) > 0 {
		loaded, err := s.next.ListByIDs(ctx, pending)
		var missing *MissingProfilesError
		if err != nil && !errors.As(err, &missing) {
			return nil, err
		}
		for _, p := range loaded {
			found[p.ID] = p
		}
		s.store(ctx, loaded)
	}

	return orderByIDs(ids, found)
}

// fillFromRedis resolves ids with one MGET and returns the ones still missing.
func (s *CachedStore) fillFromRedis(ctx context.Context, ids []string, found map[string]models.DinerProfile) []string {
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = profileKey(id)
	}

	vals, err := s.redis.MGet(ctx, keys...).Result()
	if err != nil {
		metrics.ProfileCacheRequests.WithLabelValues("redis", "error").Add(float64(len(ids)))
		s.logger.Warn("redis batch profile lookup failed", map[string]interface{}{
			"count": len(ids),
			"error": err.Error(),
		})
		return ids
	}

	rest := make([]string, 0, len(ids))
	for i, v := range vals {
		str, ok := v.(string)
		if !ok {
			metrics.ProfileCacheRequests.WithLabelValues("redis", "miss").Inc()
			rest = append(rest, ids[i])
			continue
		}
		var p models.DinerProfile
		if err := json.Unmarshal([]byte(str), &p); err != nil {
			metrics.ProfileCacheRequests.WithLabelValues("redis", "miss").Inc()
			rest = append(rest, ids[i])
			continue
		}
		metrics.ProfileCacheRequests.WithLabelValues("redis", "hit").Inc()
		found[ids[i]] = p
		s.setLocal(p)
	}
	return rest
}

// Invalidate drops a profile from both cache layers.
func (s *CachedStore) Invalidate(ctx context.Context, id string) error {
	if s.local != nil {
		s.local.Invalidate(id)
	}
	if s.redis != nil {
		return s.redis.Del(ctx, profileKey(id)).Err()
	}
	return nil
}

func (s *CachedStore) getLocal(id string) (models.DinerProfile, bool) {
	if s.local == nil {
		return models.DinerProfile{}, false
	}
	p, ok := s.local.GetIfPresent(id)
	if ok {
		metrics.ProfileCacheRequests.WithLabelValues("local", "hit").Inc()
	} else {
		metrics.ProfileCacheRequests.WithLabelValues("local", "miss").Inc()
	}
	return p, ok
}

func (s *CachedStore) setLocal(p models.DinerProfile) {
	if s.local != nil {
		s.local.Set(p.ID, p)
	}
}

func (s *CachedStore) store(ctx context.Context, profiles []models.DinerProfile) {
	if len(profiles) == 0 {
		return
	}
	for _, p := range profiles {
		s.setLocal(p)
	}
	if s.redis == nil {
		return
	}

	pipe := s.redis.Pipeline()
	for _, p := range profiles {
		raw, err := json.Marshal(p)
		if err != nil {
			continue
		}
		pipe.Set(ctx, profileKey(p.ID), raw, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		s.logger.Warn("failed to cache profiles in redis", map[string]interface{}{
			"count": len(profiles),
			"error": err.Error(),
		})
	}
}
