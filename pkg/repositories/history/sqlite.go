package history

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
	createRoundsTableSQL = `
	CREATE TABLE IF NOT EXISTS rounds (
		id TEXT PRIMARY KEY,
		player_id TEXT NOT NULL,
		bet INTEGER NOT NULL,
		result INTEGER NOT NULL,
		dealer_score INTEGER NOT NULL,
		insurance_bet INTEGER NOT NULL,
		funds_after INTEGER NOT NULL,
		completed_at TIMESTAMP NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_rounds_player ON rounds(player_id)`

	createHandsTableSQL = `
	CREATE TABLE IF NOT EXISTS round_hands (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		round_id TEXT NOT NULL,
		hand_id TEXT NOT NULL,
		bet INTEGER NOT NULL,
		score INTEGER NOT NULL,
		result INTEGER NOT NULL,
		is_blackjack BOOLEAN NOT NULL,
		is_bust BOOLEAN NOT NULL,
		is_split BOOLEAN NOT NULL,
		doubled_down BOOLEAN NOT NULL,
		FOREIGN KEY (round_id) REFERENCES rounds(id) ON DELETE CASCADE
	);
	CREATE INDEX IF NOT EXISTS idx_round_hands_round ON round_hands(round_id)`
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

	for _, schema := range []string{createRoundsTableSQL, createHandsTableSQL} {
		if _, err := db.Exec(schema); err != nil {
			db.Close()
			return nil, fmt.Errorf("error initializing schema: %w", err)
		}
	}

	return &SQLiteRepository{db: db}, nil
}

// RecordRound stores a round and its hands in one transaction
func (r *SQLiteRepository) RecordRound(ctx context.Context, record *RoundRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO rounds (
			id, player_id, bet, result, dealer_score,
			insurance_bet, funds_after, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = tx.ExecContext(ctx, query,
		record.ID, record.PlayerID, record.Bet, int(record.Result),
		record.DealerScore, record.InsuranceBet, record.FundsAfter,
		record.CompletedAt)
	if err != nil {
		return err
	}

	for _, hand := range record.Hands {
		query := `
			INSERT INTO round_hands (
				round_id, hand_id, bet, score, result,
				is_blackjack, is_bust, is_split, doubled_down
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

		_, err = tx.ExecContext(ctx, query,
			record.ID, hand.ID, hand.Bet, hand.Score, int(hand.Result),
			hand.IsBlackjack, hand.IsBust, hand.IsSplit, hand.DoubledDown)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// PlayerRounds retrieves a player's rounds, newest first
func (r *SQLiteRepository) PlayerRounds(ctx context.Context, playerID string, limit int) ([]*RoundRecord, error) {
	query := `
		SELECT id, player_id, bet, result, dealer_score,
		       insurance_bet, funds_after, completed_at
		FROM rounds
		WHERE player_id = ?
		ORDER BY completed_at DESC`
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

	var rounds []*RoundRecord
	for rows.Next() {
		record := &RoundRecord{}
		var result int
		err := rows.Scan(&record.ID, &record.PlayerID, &record.Bet, &result,
			&record.DealerScore, &record.InsuranceBet, &record.FundsAfter,
			&record.CompletedAt)
		if err != nil {
			return nil, err
		}
		record.Result = entities.GameResult(result)
		rounds = append(rounds, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, record := range rounds {
		if err := r.loadHands(ctx, record); err != nil {
			return nil, err
		}
	}
	return rounds, nil
}

func (r *SQLiteRepository) loadHands(ctx context.Context, record *RoundRecord) error {
	query := `
		SELECT hand_id, bet, score, result,
		       is_blackjack, is_bust, is_split, doubled_down
		FROM round_hands
		WHERE round_id = ?
		ORDER BY id`

	rows, err := r.db.QueryContext(ctx, query, record.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var hand HandRecord
		var result int
		err := rows.Scan(&hand.ID, &hand.Bet, &hand.Score, &result,
			&hand.IsBlackjack, &hand.IsBust, &hand.IsSplit, &hand.DoubledDown)
		if err != nil {
			return err
		}
		hand.Result = entities.GameResult(result)
		record.Hands = append(record.Hands, hand)
	}
	return rows.Err()
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}
