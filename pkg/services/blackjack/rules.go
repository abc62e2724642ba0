package blackjack

import (
	"strconv"

	"github.com/genchadt/damnsimple-blackjack/pkg/entities"
)

const (
	MinBet                = 10   // Smallest bet accepted at the table
	DefaultFunds          = 1000 // Starting bankroll for a fresh player
	DefaultNumDecks       = 1    // Shoe size when nothing is configured
	MaxNumDecks           = 8    // Upper bound on the configurable shoe size
	MinCardsBeforeShuffle = 15   // Rebuild the shoe when this few cards remain
	DealerStandScore      = 17   // Dealer draws to 16, stands on 17
	MaxHandValue          = 21
)

// Insurance costs half the original bet and pays 2:1 on a dealer
// blackjack, so a winning insurance bet returns 3x its stake.
const (
	InsuranceBetDivisor   = 2
	InsurancePayoutFactor = 3
)

// CardValue returns the blackjack value of a single card. Aces count
// as 11 here; HandValue handles the downgrade to 1.
func CardValue(card *entities.Card) int {
	switch card.Rank {
	case entities.Ace:
		return 11
	case entities.Jack, entities.Queen, entities.King:
		return 10
	default:
		val, _ := strconv.Atoi(string(card.Rank))
		return val
	}
}

func IsAce(card *entities.Card) bool {
	return card.Rank == entities.Ace
}

// HandValue computes the best total for a hand: aces count 11 until
// the total exceeds 21, then downgrade to 1 one at a time. An empty
// hand is worth 0.
func HandValue(cards []*entities.Card) int {
	total := 0
	softAces := 0

	for _, card := range cards {
		total += CardValue(card)
		if IsAce(card) {
			softAces++
		}
	}

	for total > MaxHandValue && softAces > 0 {
		total -= 10
		softAces--
	}

	return total
}

// IsBlackjack reports whether cards form a natural: exactly two cards
// totaling 21.
func IsBlackjack(cards []*entities.Card) bool {
	return len(cards) == 2 && HandValue(cards) == MaxHandValue
}

// IsBust checks if a hand exceeds 21
func IsBust(cards []*entities.Card) bool {
	return HandValue(cards) > MaxHandValue
}

// CanSplit reports whether a two-card hand may be split: both cards
// carry the same value (a ten and a king split fine) and the player
// can cover the second hand's bet.
func CanSplit(cards []*entities.Card, funds int64, bet int64) bool {
	if len(cards) != 2 {
		return false
	}
	if CardValue(cards[0]) != CardValue(cards[1]) {
		return false
	}
	return funds >= bet
}

// BlackjackPayout returns the full amount credited for a natural: the
// original stake plus winnings at 3:2.
func BlackjackPayout(bet int64) int64 {
	return bet + (bet * 3 / 2)
}

// WinPayout returns the full amount credited for a regular win: the
// original stake plus even-money winnings.
func WinPayout(bet int64) int64 {
	return bet * 2
}

// InsuranceCost returns the stake required to insure the given bet.
func InsuranceCost(bet int64) int64 {
	return bet / InsuranceBetDivisor
}

// InsurancePayout returns the full amount credited when insurance wins.
func InsurancePayout(stake int64) int64 {
	return stake * InsurancePayoutFactor
}
