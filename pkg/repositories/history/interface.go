package history

import "context"

//go:generate mockgen -source=$GOFILE -destination=mock/mock.go -package=mock_history

// Repository stores completed rounds for statistics and review.
type Repository interface {
	// RecordRound persists a completed round with all of its hands.
	RecordRound(ctx context.Context, record *RoundRecord) error

	// PlayerRounds returns the most recent rounds for a player, newest
	// first, up to limit. A limit <= 0 returns everything.
	PlayerRounds(ctx context.Context, playerID string, limit int) ([]*RoundRecord, error)

	// Close releases any resources held by the repository.
	Close() error
}
