package otp

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Store holds pending one-time passcodes keyed by email. Codes expire
// after the TTL given at Put time.
type Store interface {
	Put(ctx context.Context, email string, code string, ttl time.Duration) error
	Get(ctx context.Context, email string) (string, bool, error)
	Delete(ctx context.Context, email string) error
}

type memoryEntry struct {
	code      string
	expiresAt time.Time
}

// MemoryStore is the dev fallback when Redis is not configured.
// Expired entries are dropped on read, there is no background sweeper.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]memoryEntry)}
}

func (s *MemoryStore) Put(_ context.Context, email string, code string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[normalizeKey(email)] = memoryEntry{
		code:      code,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, email string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := normalizeKey(email)
	entry, ok := s.entries[key]
	if !ok {
		return "", false, nil
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.entries, key)
		return "", false, nil
	}
	return entry.code, true, nil
}

func (s *MemoryStore) Delete(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, normalizeKey(email))
	return nil
}

func normalizeKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
