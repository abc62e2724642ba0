package entities

import (
	"testing"

	"github.com/stretchr/testify/suite"
)

type DeckTestSuite struct {
	suite.Suite
}

func TestDeckSuite(t *testing.T) {
	suite.Run(t, new(DeckTestSuite))
}

func (s *DeckTestSuite) TestNewDeckSize() {
	testCases := []struct {
		name     string
		numDecks int
		expected int
	}{
		{name: "single deck", numDecks: 1, expected: 52},
		{name: "two decks", numDecks: 2, expected: 104},
		{name: "eight decks", numDecks: 8, expected: 416},
		{name: "zero clamps to one", numDecks: 0, expected: 52},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			deck := NewDeck(tc.numDecks)
			s.Len(deck.Cards, tc.expected)
		})
	}
}

func (s *DeckTestSuite) TestNewDeckComposition() {
	deck := NewDeck(2)

	// Each suit/rank combination appears once per deck set
	counts := make(map[string]int)
	for _, card := range deck.Cards {
		counts[string(card.Suit)+string(card.Rank)]++
	}

	s.Len(counts, 52)
	for combo, count := range counts {
		s.Equal(2, count, "combination %s should appear twice", combo)
	}
}

func (s *DeckTestSuite) TestNewDeckDeterministicOrder() {
	a := NewDeck(1)
	b := NewDeck(1)

	for i := range a.Cards {
		s.Equal(a.Cards[i].Suit, b.Cards[i].Suit)
		s.Equal(a.Cards[i].Rank, b.Cards[i].Rank)
	}

	// Suit-major order: first thirteen cards share a suit
	first := a.Cards[0].Suit
	for i := 0; i < 13; i++ {
		s.Equal(first, a.Cards[i].Suit)
	}
}

func (s *DeckTestSuite) TestCardIdentityUnique() {
	deck := NewDeck(2)

	seen := make(map[string]bool)
	for _, card := range deck.Cards {
		s.False(seen[card.ID], "card identity %s duplicated", card.ID)
		seen[card.ID] = true
	}
}

func (s *DeckTestSuite) TestShufflePreservesCards() {
	deck := NewDeck(1)
	before := make(map[string]bool, len(deck.Cards))
	for _, card := range deck.Cards {
		before[card.ID] = true
	}

	deck.Shuffle()

	s.Len(deck.Cards, 52)
	for _, card := range deck.Cards {
		s.True(before[card.ID])
	}
}

func (s *DeckTestSuite) TestDraw() {
	deck := NewDeck(1)
	top := deck.Cards[0]

	card, err := deck.Draw()
	s.NoError(err)
	s.Equal(top.ID, card.ID)
	s.Equal(51, deck.Remaining())
}

func (s *DeckTestSuite) TestDrawEmpty() {
	deck := &Deck{NumDecks: 1}

	card, err := deck.Draw()
	s.Nil(card)
	s.ErrorIs(err, ErrEmptyDeck)
}

func (s *DeckTestSuite) TestDrawExhaustsDeck() {
	deck := NewDeck(1)

	for i := 0; i < 52; i++ {
		_, err := deck.Draw()
		s.NoError(err)
	}

	_, err := deck.Draw()
	s.ErrorIs(err, ErrEmptyDeck)
}
