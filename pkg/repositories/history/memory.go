package history

import (
	"context"
	"sync"
)

// MemoryRepository implements Repository with in-memory storage
type MemoryRepository struct {
	mu sync.RWMutex
	// Map of playerID to rounds, oldest first
	rounds map[string][]*RoundRecord
}

// NewMemoryRepository creates a new in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		rounds: make(map[string][]*RoundRecord),
	}
}

// RecordRound appends the round to the player's history
func (r *MemoryRepository) RecordRound(ctx context.Context, record *RoundRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.rounds[record.PlayerID] = append(r.rounds[record.PlayerID], record)
	return nil
}

// PlayerRounds returns the player's rounds, newest first
func (r *MemoryRepository) PlayerRounds(ctx context.Context, playerID string, limit int) ([]*RoundRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.rounds[playerID]
	out := make([]*RoundRecord, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		out = append(out, stored[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Close is a no-op for the in-memory repository
func (r *MemoryRepository) Close() error {
	return nil
}
