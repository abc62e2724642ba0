package funds

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/genchadt/damnsimple-blackjack/pkg/entities"
	fundsRepo "github.com/genchadt/damnsimple-blackjack/pkg/repositories/funds"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrInvalidAmount     = errors.New("amount must be positive")
)

// Service handles bankroll business logic
type Service struct {
	repo           fundsRepo.Repository
	defaultBalance int64
}

// NewService creates a new funds service
func NewService(repo fundsRepo.Repository, defaultBalance int64) *Service {
	return &Service{
		repo:           repo,
		defaultBalance: defaultBalance,
	}
}

// GetOrCreate retrieves a player's funds, seeding a new record with the
// default balance when none exists
func (s *Service) GetOrCreate(ctx context.Context, playerID string) (*entities.Funds, error) {
	funds, err := s.repo.GetFunds(ctx, playerID)
	if err == nil {
		return funds, nil
	}
	if !errors.Is(err, fundsRepo.ErrFundsNotFound) {
		return nil, err
	}

	funds = &entities.Funds{
		PlayerID:    playerID,
		Balance:     s.defaultBalance,
		LastUpdated: time.Now(),
	}
	if err := s.repo.SaveFunds(ctx, funds); err != nil {
		return nil, fmt.Errorf("error creating funds record: %w", err)
	}
	return funds, nil
}

// Deduct removes funds from the bankroll and records the transaction
func (s *Service) Deduct(ctx context.Context, playerID string, amount int64, txType entities.TransactionType, referenceID, description string) (*entities.Funds, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	funds, err := s.GetOrCreate(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if funds.Balance < amount {
		return nil, ErrInsufficientFunds
	}

	funds.Balance -= amount
	funds.LastUpdated = time.Now()
	if err := s.repo.SaveFunds(ctx, funds); err != nil {
		return nil, fmt.Errorf("error saving funds: %w", err)
	}

	s.record(ctx, playerID, -amount, txType, referenceID, description, funds.Balance)
	return funds, nil
}

// Credit adds funds to the bankroll and records the transaction
func (s *Service) Credit(ctx context.Context, playerID string, amount int64, txType entities.TransactionType, referenceID, description string) (*entities.Funds, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	funds, err := s.GetOrCreate(ctx, playerID)
	if err != nil {
		return nil, err
	}

	funds.Balance += amount
	funds.LastUpdated = time.Now()
	if err := s.repo.SaveFunds(ctx, funds); err != nil {
		return nil, fmt.Errorf("error saving funds: %w", err)
	}

	s.record(ctx, playerID, amount, txType, referenceID, description, funds.Balance)
	return funds, nil
}

// Reset sets the bankroll back to the given balance
func (s *Service) Reset(ctx context.Context, playerID string, balance int64) (*entities.Funds, error) {
	if balance < 0 {
		return nil, ErrInvalidAmount
	}

	funds := &entities.Funds{
		PlayerID:    playerID,
		Balance:     balance,
		LastUpdated: time.Now(),
	}
	if err := s.repo.SaveFunds(ctx, funds); err != nil {
		return nil, fmt.Errorf("error saving funds: %w", err)
	}

	s.record(ctx, playerID, balance, entities.TransactionTypeReset, "", "bankroll reset", balance)
	return funds, nil
}

// Balance returns the current balance for a player
func (s *Service) Balance(ctx context.Context, playerID string) (int64, error) {
	funds, err := s.GetOrCreate(ctx, playerID)
	if err != nil {
		return 0, err
	}
	return funds.Balance, nil
}

// Transactions returns recent ledger entries, newest first
func (s *Service) Transactions(ctx context.Context, playerID string, limit int) ([]*entities.Transaction, error) {
	return s.repo.GetTransactions(ctx, playerID, limit)
}

// record writes a ledger entry. The balance is already saved; a failed
// ledger write is not worth failing the action for.
func (s *Service) record(ctx context.Context, playerID string, amount int64, txType entities.TransactionType, referenceID, description string, balanceAfter int64) {
	tx := &entities.Transaction{
		ID:           uuid.New().String(),
		PlayerID:     playerID,
		Amount:       amount,
		Type:         txType,
		ReferenceID:  referenceID,
		Description:  description,
		BalanceAfter: balanceAfter,
		Timestamp:    time.Now(),
	}
	_ = s.repo.AddTransaction(ctx, tx)
}
