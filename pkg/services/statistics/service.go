package statistics

import (
	"context"

	"github.com/genchadt/damnsimple-blackjack/pkg/entities"
	"github.com/genchadt/damnsimple-blackjack/pkg/repositories/history"
	"github.com/genchadt/damnsimple-blackjack/pkg/services/blackjack"
)

// Service aggregates round history into player statistics
type Service struct {
	repository history.Repository
}

// NewService creates a new statistics service
func NewService(repository history.Repository) *Service {
	return &Service{
		repository: repository,
	}
}

// PlayerStatistics computes lifetime statistics for a player from
// their recorded rounds
func (s *Service) PlayerStatistics(ctx context.Context, playerID string) (*entities.PlayerStatistics, error) {
	rounds, err := s.repository.PlayerRounds(ctx, playerID, 0)
	if err != nil {
		return nil, err
	}

	stats := &entities.PlayerStatistics{PlayerID: playerID}
	for _, round := range rounds {
		stats.RoundsPlayed++
		if round.InsuranceBet > 0 {
			stats.Insurances++
		}

		split := len(round.Hands) > 1
		for _, hand := range round.Hands {
			stats.HandsPlayed++
			stats.TotalBet += hand.Bet

			switch hand.Result {
			case entities.ResultPlayerBlackjack:
				stats.Wins++
				stats.Blackjacks++
				stats.TotalWinnings += blackjack.BlackjackPayout(hand.Bet)
			case entities.ResultPlayerWins:
				stats.Wins++
				stats.TotalWinnings += blackjack.WinPayout(hand.Bet)
			case entities.ResultPush:
				stats.Pushes++
				stats.TotalWinnings += hand.Bet
			case entities.ResultDealerWins:
				stats.Losses++
			}

			if hand.IsBust {
				stats.Busts++
			}
			if split {
				stats.Splits++
			}
			if hand.DoubledDown {
				stats.DoubleDowns++
			}
		}
	}
	return stats, nil
}

// RecentRounds returns the player's latest rounds, newest first
func (s *Service) RecentRounds(ctx context.Context, playerID string, limit int) ([]*history.RoundRecord, error) {
	return s.repository.PlayerRounds(ctx, playerID, limit)
}
