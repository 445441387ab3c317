package lesson

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/Roshan0411/medlearn-ai/internal/platform/cache"
)

// SessionCache is the byte cache CachedStore reads through. It must
// return cache.ErrMiss for absent keys.
type SessionCache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	HealthCheck(ctx context.Context) error
}

// CachedStore serves Get from the cache when possible. Sessions are
// immutable so cached copies never go stale. Cache errors are logged and
// the backing store is used instead.
type CachedStore struct {
	next  Store
	cache SessionCache
	ttl   time.Duration
}

// NewCachedStore wraps next with a read-through cache.
func NewCachedStore(next Store, c SessionCache, ttl time.Duration) *CachedStore {
	return &CachedStore{next: next, cache: c, ttl: ttl}
}

func cacheKey(id string) string {
	return "medlearn:session:" + id
}

func (s *CachedStore) Save(ctx context.Context, sess Session) error {
	if err := s.next.Save(ctx, sess); err != nil {
		return err
	}
	s.fill(ctx, &sess)
	return nil
}

func (s *CachedStore) Get(ctx context.Context, id string) (*Session, error) {
	data, err := s.cache.Get(ctx, cacheKey(id))
	switch {
	case err == nil:
		var sess Session
		if jerr := json.Unmarshal(data, &sess); jerr == nil {
			return &sess, nil
		}
		slog.Warn("discarding corrupt cached session", "session_id", id)
	case !errors.Is(err, cache.ErrMiss):
		slog.Warn("session cache read failed", "session_id", id, "error", err)
	}

	sess, err := s.next.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.fill(ctx, sess)
	return sess, nil
}

func (s *CachedStore) HealthCheck(ctx context.Context) error {
	if err := s.next.HealthCheck(ctx); err != nil {
		return err
	}
	return s.cache.HealthCheck(ctx)
}

func (s *CachedStore) fill(ctx context.Context, sess *Session) {
	data, err := json.Marshal(sess)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, cacheKey(sess.ID), data, s.ttl); err != nil {
		slog.Warn("session cache write failed", "session_id", sess.ID, "error", err)
	}
}
