package history

import (
	"time"

	"github.com/genchadt/damnsimple-blackjack/pkg/entities"
)

// RoundRecord captures one completed round for the history store.
type RoundRecord struct {
	ID           string
	PlayerID     string
	Bet          int64
	Result       entities.GameResult
	DealerScore  int
	InsuranceBet int64
	FundsAfter   int64
	CompletedAt  time.Time
	Hands        []HandRecord
}

// HandRecord captures one player hand inside a round.
type HandRecord struct {
	ID          string
	Bet         int64
	Score       int
	Result      entities.GameResult
	IsBlackjack bool
	IsBust      bool
	IsSplit     bool
	DoubledDown bool
}
