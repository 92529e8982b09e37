package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore keeps at most one record per (identity, endpoint). Starting a
// new window replaces the expired one. Suited to single-process deployments
// and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]*RateLimitRecord
	byID map[string]*RateLimitRecord
}

func NewMemoryStore() *MemoryStore {
	store := &MemoryStore{
		data: make(map[string]*RateLimitRecord),
		byID: make(map[string]*RateLimitRecord),
	}

	go store.cleanup()

	return store
}

func scopeKey(identity, endpoint string) string {
	return identity + "|" + endpoint
}

func (s *MemoryStore) FindLive(_ context.Context, identity, endpoint string, now time.Time) (*RateLimitRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.data[scopeKey(identity, endpoint)]
	if !exists || now.After(record.WindowEnd) {
		return nil, nil
	}

	copied := *record
	return &copied, nil
}

func (s *MemoryStore) Create(_ context.Context, record *RateLimitRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := scopeKey(record.Identity, record.Endpoint)
	if record.ID == "" {
		record.ID = key
	}

	if old, exists := s.data[key]; exists {
		delete(s.byID, old.ID)
	}

	stored := *record
	s.data[key] = &stored
	s.byID[stored.ID] = &stored

	return nil
}

func (s *MemoryStore) Increment(_ context.Context, id string, block bool, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, exists := s.byID[id]
	if !exists {
		return nil
	}

	record.Attempts++
	if block {
		record.Blocked = true
		blockedAt := now
		record.BlockedAt = &blockedAt
	}

	return nil
}

func (s *MemoryStore) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.Lock()
		now := time.Now()

		for key, record := range s.data {
			if now.After(record.WindowEnd) {
				delete(s.data, key)
				delete(s.byID, record.ID)
			}
		}

		s.mu.Unlock()
	}
}
