package repositories

import (
	"sync"
	"time"

	"github.com/tuanvn/tourbook/internal/models"
)

// MemoryAttemptStore holds login-attempt records in a mutex-guarded map.
// Every read-modify-write happens under the lock so concurrent failed-login
// bursts cannot under-count attempts.
type MemoryAttemptStore struct {
	mu      sync.Mutex
	records map[string]models.LoginAttempt
}

// NewMemoryAttemptStore creates an empty attempt store.
func NewMemoryAttemptStore() *MemoryAttemptStore {
	return &MemoryAttemptStore{
		records: make(map[string]models.LoginAttempt),
	}
}

// Get returns the record for a client identifier, if one exists.
func (s *MemoryAttemptStore) Get(clientID string) (models.LoginAttempt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[clientID]
	return record, ok
}

// Increment bumps the failure count and refreshes the attempt timestamp,
// creating the record on first failure.
func (s *MemoryAttemptStore) Increment(clientID string, now time.Time) models.LoginAttempt {
	s.mu.Lock()
	defer s.mu.Unlock()

	record := s.records[clientID]
	record.Count++
	record.LastAttemptAt = now
	s.records[clientID] = record
	return record
}

// Delete removes the record for a client identifier (full reset).
func (s *MemoryAttemptStore) Delete(clientID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, clientID)
}

// DeleteIdleSince evicts records whose last attempt is older than the
// cutoff and returns how many were removed.
func (s *MemoryAttemptStore) DeleteIdleSince(cutoff time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for clientID, record := range s.records {
		if record.LastAttemptAt.Before(cutoff) {
			delete(s.records, clientID)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked client identifiers.
func (s *MemoryAttemptStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.records)
}
