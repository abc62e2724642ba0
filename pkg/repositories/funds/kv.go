package funds

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/genchadt/damnsimple-blackjack/pkg/entities"
	"github.com/genchadt/damnsimple-blackjack/pkg/storage"
)

// balanceKey is shared with the round snapshot layout so both views of
// the bankroll read the same cell.
const balanceKey = "blackjack_funds"

// KVRepository keeps the balance in a key-value store, matching the
// single-seat storage layout. The transaction ledger is per-session
// only; it is not persisted.
type KVRepository struct {
	mu           sync.RWMutex
	store        storage.Store
	transactions map[string][]*entities.Transaction
}

// NewKVRepository creates a repository over a key-value store
func NewKVRepository(store storage.Store) *KVRepository {
	return &KVRepository{
		store:        store,
		transactions: make(map[string][]*entities.Transaction),
	}
}

// GetFunds reads the stored balance
func (r *KVRepository) GetFunds(ctx context.Context, playerID string) (*entities.Funds, error) {
	raw, err := r.store.Get(balanceKey)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, ErrFundsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("error reading funds: %w", err)
	}

	balance, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || balance < 0 {
		return nil, fmt.Errorf("stored funds %q are invalid: %w", raw, ErrFundsNotFound)
	}

	return &entities.Funds{
		PlayerID:    playerID,
		Balance:     balance,
		LastUpdated: time.Now(),
	}, nil
}

// SaveFunds writes the balance
func (r *KVRepository) SaveFunds(ctx context.Context, funds *entities.Funds) error {
	return r.store.Set(balanceKey, strconv.FormatInt(funds.Balance, 10))
}

// AddTransaction records a session-local ledger entry
func (r *KVRepository) AddTransaction(ctx context.Context, transaction *entities.Transaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.transactions[transaction.PlayerID] = append(r.transactions[transaction.PlayerID], transaction)
	return nil
}

// GetTransactions retrieves this session's transactions, newest first
func (r *KVRepository) GetTransactions(ctx context.Context, playerID string, limit int) ([]*entities.Transaction, error) {
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

// Close is a no-op; the underlying store is owned by the caller
func (r *KVRepository) Close() error {
	return nil
}
