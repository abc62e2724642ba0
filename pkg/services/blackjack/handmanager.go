package blackjack

import (
	"log"

	"github.com/genchadt/damnsimple-blackjack/pkg/entities"
)

// HandManager owns the shoe and the dealer's hand. It is the only
// component that draws cards, so it can keep the conservation
// invariant: shoe + live hands + discard == 52 x numDecks.
type HandManager struct {
	deck      *entities.Deck
	dealer    []*entities.Card
	numDecks  int
	discarded int
	events    *EventBus
}

// NewHandManager builds a freshly shuffled shoe of numDecks decks.
// Values outside [1, MaxNumDecks] are clamped.
func NewHandManager(numDecks int) *HandManager {
	numDecks = clampNumDecks(numDecks)

	deck := entities.NewDeck(numDecks)
	deck.Shuffle()

	return &HandManager{
		deck:     deck,
		dealer:   make([]*entities.Card, 0, 4),
		numDecks: numDecks,
		events:   NewEventBus(),
	}
}

func clampNumDecks(n int) int {
	if n < 1 {
		return DefaultNumDecks
	}
	if n > MaxNumDecks {
		return MaxNumDecks
	}
	return n
}

// Events returns the bus carrying card flip events
func (hm *HandManager) Events() *EventBus {
	return hm.events
}

// NumDecks returns the configured shoe size
func (hm *HandManager) NumDecks() int {
	return hm.numDecks
}

// DealTo draws the top card, sets its face state and appends it to the
// player hand. A face-up deal publishes a flip event.
func (hm *HandManager) DealTo(hand *PlayerHand, faceUp bool) (*entities.Card, error) {
	card, err := hm.draw(faceUp)
	if err != nil {
		return nil, err
	}
	hand.AddCard(card)
	return card, nil
}

// DealToDealer draws the top card into the dealer's hand
func (hm *HandManager) DealToDealer(faceUp bool) (*entities.Card, error) {
	card, err := hm.draw(faceUp)
	if err != nil {
		return nil, err
	}
	hm.dealer = append(hm.dealer, card)
	return card, nil
}

// draw takes one card from the shoe. An empty shoe is a logic fault:
// ReshuffleIfNeeded keeps enough cards around under any legal round,
// so the forced rebuild here is a loud recovery, not normal operation.
func (hm *HandManager) draw(faceUp bool) (*entities.Card, error) {
	card, err := hm.deck.Draw()
	if err != nil {
		log.Printf("[HAND] ERROR: shoe exhausted mid-round, forcing rebuild: %v", err)
		hm.rebuildShoe()
		card, err = hm.deck.Draw()
		if err != nil {
			return nil, err
		}
	}

	if faceUp {
		card.FaceUp = true
		hm.events.Publish(card)
	} else {
		card.FaceUp = false
	}
	return card, nil
}

// RevealHoleCard flips the dealer's second card face up and publishes
// the flip. Scoring logic may only read the full dealer hand after
// this has happened.
func (hm *HandManager) RevealHoleCard() {
	if len(hm.dealer) < 2 {
		return
	}
	hole := hm.dealer[1]
	if hole.FaceUp {
		return
	}
	hole.Flip()
	hm.events.Publish(hole)
}

// HoleCardRevealed reports whether the dealer's hole card is face up.
func (hm *HandManager) HoleCardRevealed() bool {
	return len(hm.dealer) >= 2 && hm.dealer[1].FaceUp
}

// DealerHand returns the dealer's cards in deal order. The slice is a
// copy; the cards are shared, so callers must treat them as read-only.
func (hm *HandManager) DealerHand() []*entities.Card {
	out := make([]*entities.Card, len(hm.dealer))
	copy(out, hm.dealer)
	return out
}

// DealerUpCard returns the dealer's first (face-up) card, or nil
// before the deal.
func (hm *HandManager) DealerUpCard() *entities.Card {
	if len(hm.dealer) == 0 {
		return nil
	}
	return hm.dealer[0]
}

// DeckCards returns a snapshot of the remaining shoe for inspection.
// Mutating the returned slice does not affect the shoe.
func (hm *HandManager) DeckCards() []*entities.Card {
	out := make([]*entities.Card, len(hm.deck.Cards))
	copy(out, hm.deck.Cards)
	return out
}

// Remaining returns the number of cards left in the shoe
func (hm *HandManager) Remaining() int {
	return hm.deck.Remaining()
}

// Discarded returns the number of cards in the discard pile
func (hm *HandManager) Discarded() int {
	return hm.discarded
}

// DiscardRound moves the dealer's cards and every player hand's cards
// to the discard pile. Called when a new round starts.
func (hm *HandManager) DiscardRound(hands []*PlayerHand) {
	hm.discarded += len(hm.dealer)
	hm.dealer = hm.dealer[:0]

	for _, hand := range hands {
		hm.discarded += len(hand.Cards)
	}
}

// ReshuffleIfNeeded rebuilds and shuffles a fresh shoe when the
// remaining count is at or below the threshold. Only legal between
// rounds: callers must never invoke this between cards of one logical
// deal step, so a single deal never spans two shuffles.
func (hm *HandManager) ReshuffleIfNeeded() bool {
	if hm.deck.Remaining() > MinCardsBeforeShuffle {
		return false
	}
	log.Printf("[HAND] %d cards remain (threshold %d), rebuilding %d-deck shoe",
		hm.deck.Remaining(), MinCardsBeforeShuffle, hm.numDecks)
	hm.rebuildShoe()
	return true
}

func (hm *HandManager) rebuildShoe() {
	hm.deck = entities.NewDeck(hm.numDecks)
	hm.deck.Shuffle()
	hm.discarded = 0
}

// Restore rebuilds the manager from a snapshot: a fresh shuffled shoe
// with one copy of each live card (dealer + player hands) removed so
// the shoe composition stays exact. The original shoe order is not
// persisted, so a restored round continues with a new shuffle.
func (hm *HandManager) Restore(numDecks int, dealer []*entities.Card, hands []*PlayerHand) {
	hm.numDecks = clampNumDecks(numDecks)
	hm.rebuildShoe()

	hm.dealer = make([]*entities.Card, len(dealer))
	copy(hm.dealer, dealer)

	live := make([]*entities.Card, 0, len(dealer)+len(hands)*4)
	live = append(live, dealer...)
	for _, hand := range hands {
		live = append(live, hand.Cards...)
	}

	for _, card := range live {
		hm.removeFromShoe(card.Suit, card.Rank)
	}
}

// removeFromShoe pulls the first card matching suit/rank out of the
// shoe. Snapshots are validated before Restore runs, so a miss can
// only mean more copies of a card in play than the shoe holds.
func (hm *HandManager) removeFromShoe(suit entities.Suit, rank entities.Rank) {
	for i, card := range hm.deck.Cards {
		if card.Suit == suit && card.Rank == rank {
			hm.deck.Cards = append(hm.deck.Cards[:i], hm.deck.Cards[i+1:]...)
			return
		}
	}
	log.Printf("[HAND] WARN: restored card %s %s not found in rebuilt shoe", rank, suit)
}
