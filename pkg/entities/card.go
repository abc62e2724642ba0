package entities

import (
	"fmt"

	"github.com/google/uuid"
)

// Suit represents a card suit
type Suit string

const (
	Hearts   Suit = "HEARTS"
	Diamonds Suit = "DIAMONDS"
	Clubs    Suit = "CLUBS"
	Spades   Suit = "SPADES"
)

// Suits lists all suits in deterministic deck-build order.
var Suits = []Suit{Clubs, Diamonds, Hearts, Spades}

// Rank represents a card rank
type Rank string

const (
	Ace   Rank = "A"
	Two   Rank = "2"
	Three Rank = "3"
	Four  Rank = "4"
	Five  Rank = "5"
	Six   Rank = "6"
	Seven Rank = "7"
	Eight Rank = "8"
	Nine  Rank = "9"
	Ten   Rank = "10"
	Jack  Rank = "J"
	Queen Rank = "Q"
	King  Rank = "K"
)

// Ranks lists all ranks in deterministic deck-build order.
var Ranks = []Rank{Ace, Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King}

// Card represents a single physical playing card. Suit and Rank never
// change after creation; FaceUp is mutable. ID identifies the card
// instance for its whole life, across flips and serialization.

type Card struct {
	Suit   Suit   `json:"suit"`
	Rank   Rank   `json:"rank"`
	FaceUp bool   `json:"faceUp"`
	ID     string `json:"-"`
}

// NewCard creates a new face-down card with a fresh identity
func NewCard(suit Suit, rank Rank) *Card {
	return &Card{
		Suit: suit,
		Rank: rank,
		ID:   uuid.New().String(),
	}
}

// Flip toggles the card's face-up state
func (c *Card) Flip() {
	c.FaceUp = !c.FaceUp
}

// IsValidSuit reports whether s is one of the four suits.
func IsValidSuit(s Suit) bool {
	switch s {
	case Hearts, Diamonds, Clubs, Spades:
		return true
	}
	return false
}

// IsValidRank reports whether r is one of the thirteen ranks.
func IsValidRank(r Rank) bool {
	for _, rank := range Ranks {
		if r == rank {
			return true
		}
	}
	return false
}

// String returns the string representation of the card

func (c *Card) String() string {
	return fmt.Sprintf("%s of %s", c.Rank, c.Suit)
}
