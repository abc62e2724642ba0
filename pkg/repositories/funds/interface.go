package funds

import (
	"context"
	"errors"

	"github.com/genchadt/damnsimple-blackjack/pkg/entities"
)

var ErrFundsNotFound = errors.New("funds not found")

//go:generate mockgen -source=$GOFILE -destination=mock/mock.go -package=mock_funds

// Repository defines the interface for bankroll data operations
type Repository interface {
	// GetFunds retrieves a player's funds record
	GetFunds(ctx context.Context, playerID string) (*entities.Funds, error)

	// SaveFunds creates or updates a funds record
	SaveFunds(ctx context.Context, funds *entities.Funds) error

	// AddTransaction records a ledger entry
	AddTransaction(ctx context.Context, transaction *entities.Transaction) error

	// GetTransactions retrieves recent transactions for a player,
	// newest first, up to limit
	GetTransactions(ctx context.Context, playerID string, limit int) ([]*entities.Transaction, error)

	// Close releases any resources used by the repository
	Close() error
}
