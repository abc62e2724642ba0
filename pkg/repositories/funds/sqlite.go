package funds

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/genchadt/damnsimple-blackjack/pkg/entities"
)

// SQLite table schemas
const (
	createFundsTableSQL = `
	CREATE TABLE IF NOT EXISTS funds (
		player_id TEXT PRIMARY KEY,
		balance INTEGER NOT NULL,
		last_updated TIMESTAMP NOT NULL
	)`

	createTransactionsTableSQL = `
	CREATE TABLE IF NOT EXISTS funds_transactions (
		id TEXT PRIMARY KEY,
		player_id TEXT NOT NULL,
		amount INTEGER NOT NULL,
		type TEXT NOT NULL,
		reference_id TEXT,
		description TEXT,
		balance_after INTEGER NOT NULL,
		timestamp TIMESTAMP NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_funds_tx_player ON funds_transactions(player_id)`
)

// SQLiteRepository implements the Repository interface using SQLite
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite repository
func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("error creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}

	for _, schema := range []string{createFundsTableSQL, createTransactionsTableSQL} {
		if _, err := db.Exec(schema); err != nil {
			db.Close()
			return nil, fmt.Errorf("error initializing schema: %w", err)
		}
	}

	return &SQLiteRepository{db: db}, nil
}

// GetFunds retrieves a player's funds record
func (r *SQLiteRepository) GetFunds(ctx context.Context, playerID string) (*entities.Funds, error) {
	funds := &entities.Funds{PlayerID: playerID}
	query := `SELECT balance, last_updated FROM funds WHERE player_id = ?`

	err := r.db.QueryRowContext(ctx, query, playerID).Scan(&funds.Balance, &funds.LastUpdated)
	if err == sql.ErrNoRows {
		return nil, ErrFundsNotFound
	}
	if err != nil {
		return nil, err
	}
	return funds, nil
}

// SaveFunds creates or updates a funds record
func (r *SQLiteRepository) SaveFunds(ctx context.Context, funds *entities.Funds) error {
	query := `
		INSERT INTO funds (player_id, balance, last_updated)
		VALUES (?, ?, ?)
		ON CONFLICT(player_id)
		DO UPDATE SET balance = ?, last_updated = ?`

	_, err := r.db.ExecContext(ctx, query,
		funds.PlayerID, funds.Balance, funds.LastUpdated,
		funds.Balance, funds.LastUpdated)
	return err
}

// AddTransaction records a ledger entry
func (r *SQLiteRepository) AddTransaction(ctx context.Context, transaction *entities.Transaction) error {
	query := `
		INSERT INTO funds_transactions (
			id, player_id, amount, type, reference_id,
			description, balance_after, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		transaction.ID, transaction.PlayerID, transaction.Amount,
		string(transaction.Type), transaction.ReferenceID,
		transaction.Description, transaction.BalanceAfter,
		transaction.Timestamp)
	return err
}

// GetTransactions retrieves recent transactions, newest first
func (r *SQLiteRepository) GetTransactions(ctx context.Context, playerID string, limit int) ([]*entities.Transaction, error) {
	query := `
		SELECT id, amount, type, reference_id, description, balance_after, timestamp
		FROM funds_transactions
		WHERE player_id = ?
		ORDER BY timestamp DESC`
	args := []interface{}{playerID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []*entities.Transaction
	for rows.Next() {
		tx := &entities.Transaction{PlayerID: playerID}
		var txType string
		err := rows.Scan(&tx.ID, &tx.Amount, &txType, &tx.ReferenceID,
			&tx.Description, &tx.BalanceAfter, &tx.Timestamp)
		if err != nil {
			return nil, err
		}
		tx.Type = entities.TransactionType(txType)
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
