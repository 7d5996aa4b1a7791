package certificate

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local Store for development and tests.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// Create stores rec, replacing any record with the same code.
func (s *MemoryStore) Create(ctx context.Context, rec Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Code] = rec
	return nil
}

// Get returns the record for code.
func (s *MemoryStore) Get(ctx context.Context, code string) (Record, error) {
	if err := ctx.Err(); err != nil {
		return Record{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[code]
	if !ok {
		return Record{}, ErrNotFound
	}
	return rec, nil
}

// MarkVerified flags the record verified at the given time. Unknown codes
// get a bare record, the same way a partial update lands on a document store.
func (s *MemoryStore) MarkVerified(ctx context.Context, code string, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[code]
	if !ok {
		rec = Record{Code: code}
	}
	at = at.UTC()
	rec.Verified = true
	rec.VerifiedDate = &at
	s.records[code] = rec
	return nil
}

// Ping always succeeds.
func (s *MemoryStore) Ping(ctx context.Context) error { return nil }

// Len reports the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
