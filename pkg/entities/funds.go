package entities

import (
	"time"
)

// Funds represents the player's bankroll
type Funds struct {
	PlayerID    string    // Owner of the bankroll
	Balance     int64     // Current balance, never negative
	LastUpdated time.Time // When the balance last changed
}

// TransactionType represents the type of bankroll transaction
type TransactionType string

const (
	TransactionTypeBet       TransactionType = "BET"
	TransactionTypePayout    TransactionType = "PAYOUT"
	TransactionTypeInsurance TransactionType = "INSURANCE"
	TransactionTypeReset     TransactionType = "RESET"
)

// Transaction represents a single bankroll transaction
type Transaction struct {
	ID           string          // Unique identifier
	PlayerID     string          // Player associated with the transaction
	Amount       int64           // Amount (positive for credits, negative for deductions)
	Type         TransactionType // Type of transaction
	ReferenceID  string          // Optional reference (e.g., hand ID for bets)
	Description  string          // Human-readable description
	Timestamp    time.Time       // When the transaction occurred
	BalanceAfter int64           // Balance after this transaction
}
