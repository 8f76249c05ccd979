package service

import (
	"context"
	"encoding/json"
	"path"
	"sync"
	"time"

	appErrors "github.com/noah-isme/course-compass-api/pkg/errors"
)

// stubCacheRepo is an in-memory CacheRepository that round-trips through JSON like redis does.
type stubCacheRepo struct {
	mu      sync.Mutex
	entries map[string][]byte
	ttls    map[string]time.Duration
	sets    int
	deleted []string
}

func newStubCacheRepo() *stubCacheRepo {
	return &stubCacheRepo{entries: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (s *stubCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *stubCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = raw
	s.ttls[key] = ttl
	s.sets++
	return nil
}

func (s *stubCacheRepo) Delete(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.entries, key)
		s.deleted = append(s.deleted, key)
	}
	return nil
}

func (s *stubCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key := range s.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(s.entries, key)
			s.deleted = append(s.deleted, key)
		}
	}
	return nil
}

func (s *stubCacheRepo) has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	return ok
}

func newTestCache(repo *stubCacheRepo) *CacheService {
	return NewCacheService(repo, NewMetricsService(), time.Minute, nil, true)
}
