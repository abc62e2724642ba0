package entities

import (
	"errors"
	"math/rand"
	"time"
)

// ErrEmptyDeck is returned when drawing from an exhausted deck. The
// caller is expected to reshuffle before this can happen; seeing it
// means the reshuffle threshold is misconfigured.
var ErrEmptyDeck = errors.New("deck is empty")

// Deck is an ordered shoe of cards built from one or more standard
// 52-card sets. Cards are drawn from the front.
type Deck struct {
	Cards    []*Card
	NumDecks int
}

// NewDeck creates an unshuffled shoe of numDecks standard decks in
// suit-major, rank-minor order. numDecks values below 1 are treated
// as 1.
func NewDeck(numDecks int) *Deck {
	if numDecks < 1 {
		numDecks = 1
	}

	cards := make([]*Card, 0, 52*numDecks)
	for i := 0; i < numDecks; i++ {
		for _, suit := range Suits {
			for _, rank := range Ranks {
				cards = append(cards, NewCard(suit, rank))
			}
		}
	}

	return &Deck{Cards: cards, NumDecks: numDecks}
}

// Shuffle permutes the deck with a uniform Fisher-Yates shuffle.
func (d *Deck) Shuffle() {
	r := rand.New(rand.NewSource(time.Now().UnixNano()))

	r.Shuffle(len(d.Cards), func(i, j int) {
		d.Cards[i], d.Cards[j] = d.Cards[j], d.Cards[i]
	})
}

// Draw removes and returns the top card from the deck
func (d *Deck) Draw() (*Card, error) {
	if len(d.Cards) == 0 {
		return nil, ErrEmptyDeck
	}
	card := d.Cards[0]
	d.Cards = d.Cards[1:]
	return card, nil
}

// Remaining returns the number of cards left in the shoe.
func (d *Deck) Remaining() int {
	return len(d.Cards)
}
