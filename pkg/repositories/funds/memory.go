package funds

import (
	"context"
	"sync"

	"github.com/genchadt/damnsimple-blackjack/pkg/entities"
)

// MemoryRepository implements Repository with in-memory storage
type MemoryRepository struct {
	mu           sync.RWMutex
	funds        map[string]*entities.Funds
	transactions map[string][]*entities.Transaction
}

// NewMemoryRepository creates a new in-memory repository
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		funds:        make(map[string]*entities.Funds),
		transactions: make(map[string][]*entities.Transaction),
	}
}

// GetFunds retrieves a player's funds record
func (r *MemoryRepository) GetFunds(ctx context.Context, playerID string) (*entities.Funds, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	funds, exists := r.funds[playerID]
	if !exists {
		return nil, ErrFundsNotFound
	}
	copied := *funds
	return &copied, nil
}

// SaveFunds creates or updates a funds record
func (r *MemoryRepository) SaveFunds(ctx context.Context, funds *entities.Funds) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *funds
	r.funds[funds.PlayerID] = &copied
	return nil
}

// AddTransaction records a ledger entry
func (r *MemoryRepository) AddTransaction(ctx context.Context, transaction *entities.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.transactions[transaction.PlayerID] = append(r.transactions[transaction.PlayerID], transaction)
	return nil
}

// GetTransactions retrieves recent transactions, newest first
func (r *MemoryRepository) GetTransactions(ctx context.Context, playerID string, limit int) ([]*entities.Transaction, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.transactions[playerID]
	out := make([]*entities.Transaction, 0, len(stored))
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
