package blackjack

import (
	"github.com/google/uuid"

	"github.com/genchadt/damnsimple-blackjack/pkg/entities"
)

// PlayerHand is one of the player's hands in a round. A round starts
// with a single hand; splits append further hands to the round's
// ordered list. The ID is stable for the life of the round so split
// bookkeeping and history records can refer to a specific hand.
type PlayerHand struct {
	ID          string              `json:"id"`
	Cards       []*entities.Card    `json:"cards"`
	Bet         int64               `json:"bet"`
	Result      entities.GameResult `json:"result"`
	IsResolved  bool                `json:"isResolved"`
	CanHit      bool                `json:"canHit"`
	IsBlackjack bool                `json:"isBlackjack"`
	IsSplitAces bool                `json:"isSplitAces"`
	IsDoubled   bool                `json:"isDoubled,omitempty"`
}

// NewPlayerHand creates an empty hand carrying the given bet
func NewPlayerHand(bet int64) *PlayerHand {
	return &PlayerHand{
		ID:     uuid.New().String(),
		Cards:  make([]*entities.Card, 0, 4),
		Bet:    bet,
		Result: entities.ResultInProgress,
		CanHit: true,
	}
}

// AddCard appends a card to the hand
func (h *PlayerHand) AddCard(card *entities.Card) {
	h.Cards = append(h.Cards, card)
}

// Value returns the best blackjack total for the hand
func (h *PlayerHand) Value() int {
	return HandValue(h.Cards)
}

// Stand marks the hand as done acting. The hand is not resolved yet;
// its result is decided after the dealer plays.
func (h *PlayerHand) Stand() {
	h.CanHit = false
}

// Resolve records the hand's final result. Resolved hands take no
// further actions.
func (h *PlayerHand) Resolve(result entities.GameResult) {
	h.Result = result
	h.IsResolved = true
	h.CanHit = false
}

// IsActionable reports whether the hand can still take player actions.
func (h *PlayerHand) IsActionable() bool {
	return !h.IsResolved && h.CanHit
}

// Clone returns an independent copy of the hand. Presentation layers
// read hands from their own goroutines, so the engine hands out clones
// rather than sharing mutable state across the lock boundary.
func (h *PlayerHand) Clone() *PlayerHand {
	copied := *h
	copied.Cards = cloneCards(h.Cards)
	return &copied
}

func cloneCards(cards []*entities.Card) []*entities.Card {
	out := make([]*entities.Card, len(cards))
	for i, card := range cards {
		copied := *card
		out[i] = &copied
	}
	return out
}
