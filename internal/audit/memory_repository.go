package audit

import (
	"context"
	"sync"
)

const memoryCapacity = 500

type memoryRepository struct {
	mu       sync.RWMutex
	attempts []Attempt
}

// NewMemoryRepository keeps the most recent attempts in memory. Used when no
// database is configured and in tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{}
}

func (r *memoryRepository) Record(_ context.Context, attempt Attempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.attempts = append(r.attempts, attempt)
	if len(r.attempts) > memoryCapacity {
		r.attempts = r.attempts[len(r.attempts)-memoryCapacity:]
	}
	return nil
}

func (r *memoryRepository) Recent(_ context.Context, limit int) ([]Attempt, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if limit <= 0 || limit > len(r.attempts) {
		limit = len(r.attempts)
	}
	out := make([]Attempt, 0, limit)
	for i := len(r.attempts) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.attempts[i])
	}
	return out, nil
}
