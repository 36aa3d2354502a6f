package service

import (
	"context"
	"sync"
	"time"
)

// NegativeLookupCacheStore remembers keys that are known to resolve to nothing,
// so repeated lookups can skip storage. Entries must only be written for
// outcomes that can never turn positive again.
type NegativeLookupCacheStore interface {
	Get(ctx context.Context, namespace, key string) (bool, error)
	Set(ctx context.Context, namespace, key string, ttl time.Duration) error
}

type NoopNegativeLookupCacheStore struct{}

func NewNoopNegativeLookupCacheStore() *NoopNegativeLookupCacheStore {
	return &NoopNegativeLookupCacheStore{}
}

func (s *NoopNegativeLookupCacheStore) Get(context.Context, string, string) (bool, error) {
	return false, nil
}

func (s *NoopNegativeLookupCacheStore) Set(context.Context, string, string, time.Duration) error {
	return nil
}

const defaultInMemoryNegativeLookupEntries = 10_000

type InMemoryNegativeLookupCacheStore struct {
	mu         sync.Mutex
	store      map[string]time.Time
	maxEntries int
	now        func() time.Time
}

func NewInMemoryNegativeLookupCacheStore() *InMemoryNegativeLookupCacheStore {
	return &InMemoryNegativeLookupCacheStore{
		store:      make(map[string]time.Time),
		maxEntries: defaultInMemoryNegativeLookupEntries,
		now:        time.Now,
	}
}

func (s *InMemoryNegativeLookupCacheStore) Get(_ context.Context, namespace, key string) (bool, error) {
	k := namespace + "\x00" + key
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	expiresAt, ok := s.store[k]
	if !ok {
		return false, nil
	}
	if !now.Before(expiresAt) {
		delete(s.store, k)
		return false, nil
	}
	return true, nil
}

func (s *InMemoryNegativeLookupCacheStore) Set(_ context.Context, namespace, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.store) >= s.maxEntries {
		s.sweepLocked(now)
	}
	if len(s.store) >= s.maxEntries {
		// still full of live entries; dropping the write only costs a storage lookup later
		return nil
	}
	s.store[namespace+"\x00"+key] = now.Add(ttl)
	return nil
}

func (s *InMemoryNegativeLookupCacheStore) sweepLocked(now time.Time) {
	for k, expiresAt := range s.store {
		if !now.Before(expiresAt) {
			delete(s.store, k)
		}
	}
}
