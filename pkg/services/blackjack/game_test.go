package blackjack

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genchadt/damnsimple-blackjack/pkg/entities"
	fundsRepo "github.com/genchadt/damnsimple-blackjack/pkg/repositories/funds"
	"github.com/genchadt/damnsimple-blackjack/pkg/repositories/history"
	fundsSvc "github.com/genchadt/damnsimple-blackjack/pkg/services/funds"
	"github.com/genchadt/damnsimple-blackjack/pkg/storage"
)

func newTestGame(t *testing.T) (*Game, storage.Store) {
	t.Helper()

	store := storage.NewMemoryStore()
	svc := fundsSvc.NewService(fundsRepo.NewKVRepository(store), DefaultFunds)

	game, err := NewGame(context.Background(), GameConfig{
		Funds:     svc,
		Snapshots: NewSnapshotStore(store),
		History:   history.NewMemoryRepository(),
	})
	require.NoError(t, err)
	return game, store
}

func card(rank entities.Rank, suit entities.Suit) *entities.Card {
	return entities.NewCard(suit, rank)
}

// stackShoe puts the given cards on top of the shoe so the next draws
// are deterministic. Deal order is player, player, dealer up, dealer
// hole, then any further draws.
func stackShoe(g *Game, cards ...*entities.Card) {
	g.manager.deck.Cards = append(cards, g.manager.deck.Cards...)
}

func TestNewGameStartsInInitial(t *testing.T) {
	g, _ := newTestGame(t)

	assert.Equal(t, entities.StateInitial, g.State())
	assert.Equal(t, int64(DefaultFunds), g.Funds())
	assert.Empty(t, g.Hands())
}

func TestStartNewGameDeductsBetAndDeals(t *testing.T) {
	g, _ := newTestGame(t)
	stackShoe(g,
		card(entities.Five, entities.Hearts),
		card(entities.Nine, entities.Clubs),
		card(entities.Seven, entities.Spades),
		card(entities.Ten, entities.Diamonds),
	)

	require.True(t, g.StartNewGame(context.Background(), 100))

	assert.Equal(t, entities.StatePlayerTurn, g.State())
	assert.Equal(t, int64(DefaultFunds-100), g.Funds())

	hands := g.Hands()
	require.Len(t, hands, 1)
	assert.Equal(t, 14, hands[0].Value())
	assert.Equal(t, int64(100), hands[0].Bet)

	dealer := g.DealerHand()
	require.Len(t, dealer, 2)
	assert.True(t, dealer[0].FaceUp)
	assert.False(t, dealer[1].FaceUp)
}

func TestStartNewGameRejectsBadBets(t *testing.T) {
	g, _ := newTestGame(t)

	tests := []struct {
		name string
		bet  int64
	}{
		{"below minimum", MinBet - 1},
		{"zero", 0},
		{"negative", -50},
		{"above funds", DefaultFunds + 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.False(t, g.StartNewGame(context.Background(), tc.bet))
			assert.Equal(t, entities.StateInitial, g.State())
			assert.Equal(t, int64(DefaultFunds), g.Funds())
			assert.Empty(t, g.Hands())
		})
	}
}

func TestStartNewGameRejectedMidRound(t *testing.T) {
	g, _ := newTestGame(t)
	stackShoe(g,
		card(entities.Five, entities.Hearts),
		card(entities.Nine, entities.Clubs),
		card(entities.Seven, entities.Spades),
		card(entities.Ten, entities.Diamonds),
	)
	require.True(t, g.StartNewGame(context.Background(), 100))

	assert.False(t, g.StartNewGame(context.Background(), 100))
	assert.Equal(t, int64(DefaultFunds-100), g.Funds())
}

func TestHitUntilBustLosesRound(t *testing.T) {
	g, _ := newTestGame(t)
	stackShoe(g,
		card(entities.Ten, entities.Hearts),
		card(entities.Six, entities.Clubs),
		card(entities.Seven, entities.Spades),
		card(entities.Ten, entities.Diamonds),
		card(entities.King, entities.Clubs), // busts the player
	)
	require.True(t, g.StartNewGame(context.Background(), 100))

	require.True(t, g.Hit(context.Background()))

	assert.Equal(t, entities.StateGameOver, g.State())
	assert.Equal(t, entities.ResultDealerWins, g.Result())
	assert.True(t, g.Hands()[0].IsResolved)
	assert.Equal(t, int64(DefaultFunds-100), g.Funds())
}

func TestStandDealerDrawsToSeventeen(t *testing.T) {
	g, _ := newTestGame(t)
	stackShoe(g,
		card(entities.Ten, entities.Hearts),
		card(entities.Nine, entities.Clubs), // player 19
		card(entities.Seven, entities.Spades),
		card(entities.Five, entities.Diamonds), // dealer 12
		card(entities.Six, entities.Clubs),     // dealer 18, stands
	)
	require.True(t, g.StartNewGame(context.Background(), 100))
	require.True(t, g.Stand(context.Background()))

	assert.Equal(t, entities.StateGameOver, g.State())
	assert.Equal(t, entities.ResultPlayerWins, g.Result())
	assert.Equal(t, 18, HandValue(g.DealerHand()))
	// bet already deducted, win pays 2x bet
	assert.Equal(t, int64(DefaultFunds+100), g.Funds())
}

func TestStandDealerBusts(t *testing.T) {
	g, _ := newTestGame(t)
	stackShoe(g,
		card(entities.Ten, entities.Hearts),
		card(entities.Eight, entities.Clubs), // player 18
		card(entities.Ten, entities.Spades),
		card(entities.Six, entities.Diamonds), // dealer 16
		card(entities.King, entities.Clubs),   // dealer 26, bust
	)
	require.True(t, g.StartNewGame(context.Background(), 100))
	require.True(t, g.Stand(context.Background()))

	assert.Equal(t, entities.ResultPlayerWins, g.Result())
	assert.Equal(t, int64(DefaultFunds+100), g.Funds())
}

func TestPushReturnsBet(t *testing.T) {
	g, _ := newTestGame(t)
	stackShoe(g,
		card(entities.Ten, entities.Hearts),
		card(entities.Eight, entities.Clubs), // player 18
		card(entities.Ten, entities.Spades),
		card(entities.Eight, entities.Diamonds), // dealer 18
	)
	require.True(t, g.StartNewGame(context.Background(), 100))
	require.True(t, g.Stand(context.Background()))

	assert.Equal(t, entities.ResultPush, g.Result())
	assert.Equal(t, int64(DefaultFunds), g.Funds())
}

func TestPlayerBlackjackPaysThreeToTwo(t *testing.T) {
	g, _ := newTestGame(t)
	stackShoe(g,
		card(entities.Ace, entities.Hearts),
		card(entities.King, entities.Clubs), // natural 21
		card(entities.Seven, entities.Spades),
		card(entities.Ten, entities.Diamonds),
	)
	require.True(t, g.StartNewGame(context.Background(), 100))

	// No insurance offer without a dealer Ace, so the round settles
	// immediately.
	assert.Equal(t, entities.StateGameOver, g.State())
	assert.Equal(t, entities.ResultPlayerBlackjack, g.Result())
	assert.Equal(t, int64(DefaultFunds+150), g.Funds())
	assert.True(t, g.manager.HoleCardRevealed())
}

func TestBothBlackjacksPush(t *testing.T) {
	g, _ := newTestGame(t)
	stackShoe(g,
		card(entities.Ace, entities.Hearts),
		card(entities.King, entities.Clubs),
		card(entities.King, entities.Spades),
		card(entities.Ace, entities.Diamonds), // dealer natural, Ace hidden
	)
	require.True(t, g.StartNewGame(context.Background(), 100))

	// Dealer shows a King, so no insurance gate; settles at once.
	assert.Equal(t, entities.StateGameOver, g.State())
	assert.Equal(t, entities.ResultPush, g.Result())
	assert.Equal(t, int64(DefaultFunds), g.Funds())
}

func TestDoubleDown(t *testing.T) {
	g, _ := newTestGame(t)
	stackShoe(g,
		card(entities.Six, entities.Hearts),
		card(entities.Five, entities.Clubs), // player 11
		card(entities.Ten, entities.Spades),
		card(entities.Seven, entities.Diamonds), // dealer 17, stands
		card(entities.Ten, entities.Clubs),      // player 21
	)
	require.True(t, g.StartNewGame(context.Background(), 100))
	require.True(t, g.DoubleDown(context.Background()))

	assert.Equal(t, entities.StateGameOver, g.State())
	assert.Equal(t, entities.ResultPlayerWins, g.Result())

	hand := g.Hands()[0]
	assert.Equal(t, int64(200), hand.Bet)
	assert.Len(t, hand.Cards, 3)
	// 1000 - 100 - 100 + 400
	assert.Equal(t, int64(DefaultFunds+200), g.Funds())
}

func TestDoubleDownRejectedAfterHit(t *testing.T) {
	g, _ := newTestGame(t)
	stackShoe(g,
		card(entities.Three, entities.Hearts),
		card(entities.Five, entities.Clubs),
		card(entities.Ten, entities.Spades),
		card(entities.Seven, entities.Diamonds),
		card(entities.Four, entities.Clubs), // player 12 after hit
	)
	require.True(t, g.StartNewGame(context.Background(), 100))
	require.True(t, g.Hit(context.Background()))

	fundsBefore := g.Funds()
	assert.False(t, g.DoubleDown(context.Background()))
	assert.Equal(t, fundsBefore, g.Funds())
	assert.Equal(t, entities.StatePlayerTurn, g.State())
}

func TestSplitPlaysBothHands(t *testing.T) {
	g, _ := newTestGame(t)
	stackShoe(g,
		card(entities.Eight, entities.Hearts),
		card(entities.Eight, entities.Clubs), // pair
		card(entities.Ten, entities.Spades),
		card(entities.Seven, entities.Diamonds), // dealer 17
		card(entities.Ten, entities.Clubs),      // first hand 18
		card(entities.Three, entities.Hearts),   // second hand 11
		card(entities.Ten, entities.Hearts),     // second hand 21 after hit
	)
	require.True(t, g.StartNewGame(context.Background(), 100))
	require.True(t, g.Split(context.Background()))

	hands := g.Hands()
	require.Len(t, hands, 2)
	assert.Equal(t, 18, hands[0].Value())
	assert.Equal(t, 11, hands[1].Value())
	assert.Equal(t, 0, g.ActiveHandIndex())

	require.True(t, g.Stand(context.Background()))
	assert.Equal(t, 1, g.ActiveHandIndex())

	require.True(t, g.Hit(context.Background())) // 21, auto-stand
	assert.Equal(t, entities.StateGameOver, g.State())

	hands = g.Hands()
	assert.Equal(t, entities.ResultPlayerWins, hands[0].Result)
	assert.Equal(t, entities.ResultPlayerWins, hands[1].Result)
	// 1000 - 200 staked + 400 back
	assert.Equal(t, int64(DefaultFunds+200), g.Funds())
}

func TestSplitAcesGetOneCardEach(t *testing.T) {
	g, _ := newTestGame(t)
	stackShoe(g,
		card(entities.Ace, entities.Hearts),
		card(entities.Ace, entities.Clubs),
		card(entities.Ten, entities.Spades),
		card(entities.Seven, entities.Diamonds), // dealer 17
		card(entities.King, entities.Clubs),     // first hand 21
		card(entities.Nine, entities.Hearts),    // second hand 20
	)
	require.True(t, g.StartNewGame(context.Background(), 100))
	require.True(t, g.Split(context.Background()))

	// Both hands are done immediately, so the dealer has played.
	assert.Equal(t, entities.StateGameOver, g.State())

	hands := g.Hands()
	require.Len(t, hands, 2)
	assert.True(t, hands[0].IsSplitAces)
	assert.True(t, hands[1].IsSplitAces)
	assert.Len(t, hands[0].Cards, 2)
	assert.Len(t, hands[1].Cards, 2)

	// A split-ace 21 is not a natural, pays even money.
	assert.False(t, hands[0].IsBlackjack)
	assert.Equal(t, entities.ResultPlayerWins, hands[0].Result)
	assert.Equal(t, entities.ResultPlayerWins, hands[1].Result)
	assert.Equal(t, int64(DefaultFunds+200), g.Funds())
}

func TestSplitRejectedOnUnequalRanks(t *testing.T) {
	g, _ := newTestGame(t)
	stackShoe(g,
		card(entities.Eight, entities.Hearts),
		card(entities.Nine, entities.Clubs),
		card(entities.Ten, entities.Spades),
		card(entities.Seven, entities.Diamonds),
	)
	require.True(t, g.StartNewGame(context.Background(), 100))

	fundsBefore := g.Funds()
	assert.False(t, g.Split(context.Background()))
	assert.Equal(t, fundsBefore, g.Funds())
	assert.Len(t, g.Hands(), 1)
}

func TestSplitTenValueCourtCards(t *testing.T) {
	g, _ := newTestGame(t)
	stackShoe(g,
		card(entities.King, entities.Hearts),
		card(entities.Queen, entities.Clubs), // equal value, different rank
		card(entities.Ten, entities.Spades),
		card(entities.Seven, entities.Diamonds),
		card(entities.Five, entities.Clubs),
		card(entities.Six, entities.Hearts),
	)
	require.True(t, g.StartNewGame(context.Background(), 100))

	assert.True(t, g.Split(context.Background()))
	assert.Len(t, g.Hands(), 2)
}

func TestInsurancePaysWhenDealerHasBlackjack(t *testing.T) {
	g, _ := newTestGame(t)
	stackShoe(g,
		card(entities.Ten, entities.Hearts),
		card(entities.Nine, entities.Clubs),
		card(entities.Ace, entities.Spades), // dealer shows Ace
		card(entities.King, entities.Diamonds),
	)
	require.True(t, g.StartNewGame(context.Background(), 100))
	require.True(t, g.IsInsuranceAvailable())

	require.True(t, g.TakeInsurance(context.Background()))
	assert.False(t, g.IsInsuranceAvailable())

	require.True(t, g.Stand(context.Background()))

	assert.Equal(t, entities.StateGameOver, g.State())
	assert.Equal(t, entities.ResultDealerWins, g.Result())
	// -100 bet, -50 insurance, +150 insurance payout
	assert.Equal(t, int64(DefaultFunds-100-50+150), g.Funds())
}

func TestInsuranceForfeitedWithoutDealerBlackjack(t *testing.T) {
	g, _ := newTestGame(t)
	stackShoe(g,
		card(entities.Ten, entities.Hearts),
		card(entities.Nine, entities.Clubs), // player 19
		card(entities.Ace, entities.Spades),
		card(entities.Seven, entities.Diamonds), // dealer 18
	)
	require.True(t, g.StartNewGame(context.Background(), 100))
	require.True(t, g.TakeInsurance(context.Background()))
	require.True(t, g.Stand(context.Background()))

	assert.Equal(t, entities.ResultPlayerWins, g.Result())
	// -100 bet, -50 insurance lost, +200 win
	assert.Equal(t, int64(DefaultFunds-100-50+200), g.Funds())
}

func TestInsuranceUnavailableWithoutAce(t *testing.T) {
	g, _ := newTestGame(t)
	stackShoe(g,
		card(entities.Ten, entities.Hearts),
		card(entities.Nine, entities.Clubs),
		card(entities.King, entities.Spades),
		card(entities.Seven, entities.Diamonds),
	)
	require.True(t, g.StartNewGame(context.Background(), 100))

	assert.False(t, g.IsInsuranceAvailable())
	assert.False(t, g.TakeInsurance(context.Background()))
}

func TestInsuranceCannotBeTakenTwice(t *testing.T) {
	g, _ := newTestGame(t)
	stackShoe(g,
		card(entities.Ten, entities.Hearts),
		card(entities.Nine, entities.Clubs),
		card(entities.Ace, entities.Spades),
		card(entities.Seven, entities.Diamonds),
	)
	require.True(t, g.StartNewGame(context.Background(), 100))
	require.True(t, g.TakeInsurance(context.Background()))

	fundsBefore := g.Funds()
	assert.False(t, g.TakeInsurance(context.Background()))
	assert.Equal(t, fundsBefore, g.Funds())
}

func TestNaturalWaitsForInsuranceDecision(t *testing.T) {
	g, _ := newTestGame(t)
	stackShoe(g,
		card(entities.Ace, entities.Hearts),
		card(entities.King, entities.Clubs), // natural
		card(entities.Ace, entities.Spades), // dealer shows Ace
		card(entities.Seven, entities.Diamonds),
	)
	require.True(t, g.StartNewGame(context.Background(), 100))

	// The round holds for the insurance decision even though the hand
	// cannot act.
	assert.Equal(t, entities.StatePlayerTurn, g.State())
	assert.False(t, g.CanAct())
	assert.True(t, g.IsInsuranceAvailable())

	require.True(t, g.DeclineInsurance(context.Background()))
	assert.Equal(t, entities.StateGameOver, g.State())
	assert.Equal(t, entities.ResultPlayerBlackjack, g.Result())
	assert.Equal(t, int64(DefaultFunds+150), g.Funds())
}

func TestEnterBettingAfterGameOver(t *testing.T) {
	g, _ := newTestGame(t)
	stackShoe(g,
		card(entities.Ten, entities.Hearts),
		card(entities.Nine, entities.Clubs),
		card(entities.Ten, entities.Spades),
		card(entities.Eight, entities.Diamonds),
	)
	require.True(t, g.StartNewGame(context.Background(), 100))
	require.True(t, g.Stand(context.Background()))
	require.Equal(t, entities.StateGameOver, g.State())

	assert.True(t, g.EnterBetting())
	assert.Equal(t, entities.StateBetting, g.State())

	// Same-bet shortcut: deal again straight from GameOver works too.
	assert.True(t, g.StartNewGame(context.Background(), 100))
	assert.Len(t, g.Hands(), 1)
}

func TestEnterBettingRejectedMidRound(t *testing.T) {
	g, _ := newTestGame(t)
	stackShoe(g,
		card(entities.Ten, entities.Hearts),
		card(entities.Five, entities.Clubs),
		card(entities.Ten, entities.Spades),
		card(entities.Eight, entities.Diamonds),
	)
	require.True(t, g.StartNewGame(context.Background(), 100))

	assert.False(t, g.EnterBetting())
	assert.Equal(t, entities.StatePlayerTurn, g.State())
}

func TestResetFunds(t *testing.T) {
	g, _ := newTestGame(t)
	stackShoe(g,
		card(entities.Ten, entities.Hearts),
		card(entities.Six, entities.Clubs),
		card(entities.Ten, entities.Spades),
		card(entities.Nine, entities.Diamonds),
	)
	require.True(t, g.StartNewGame(context.Background(), 100))
	require.True(t, g.Stand(context.Background()))
	require.NotEqual(t, int64(DefaultFunds), g.Funds())

	assert.True(t, g.ResetFunds(context.Background()))
	assert.Equal(t, int64(DefaultFunds), g.Funds())
}

func TestActionsRejectedOutsidePlayerTurn(t *testing.T) {
	g, _ := newTestGame(t)

	ctx := context.Background()
	assert.False(t, g.Hit(ctx))
	assert.False(t, g.Stand(ctx))
	assert.False(t, g.DoubleDown(ctx))
	assert.False(t, g.Split(ctx))
	assert.False(t, g.TakeInsurance(ctx))
	assert.Equal(t, entities.StateInitial, g.State())
	assert.Equal(t, int64(DefaultFunds), g.Funds())
}

func TestRoundSurvivesRestart(t *testing.T) {
	g, store := newTestGame(t)
	stackShoe(g,
		card(entities.Eight, entities.Hearts),
		card(entities.Eight, entities.Clubs),
		card(entities.Ten, entities.Spades),
		card(entities.Seven, entities.Diamonds),
		card(entities.Ten, entities.Clubs),
		card(entities.Three, entities.Hearts),
	)
	require.True(t, g.StartNewGame(context.Background(), 100))
	require.True(t, g.Split(context.Background()))
	fundsBefore := g.Funds()

	// Rebuild the engine from the same store, as after a process
	// restart.
	svc := fundsSvc.NewService(fundsRepo.NewKVRepository(store), DefaultFunds)
	restored, err := NewGame(context.Background(), GameConfig{
		Funds:     svc,
		Snapshots: NewSnapshotStore(store),
	})
	require.NoError(t, err)

	assert.Equal(t, entities.StatePlayerTurn, restored.State())
	assert.Equal(t, fundsBefore, restored.Funds())
	assert.Equal(t, g.ActiveHandIndex(), restored.ActiveHandIndex())

	hands := restored.Hands()
	require.Len(t, hands, 2)
	assert.Equal(t, 18, hands[0].Value())
	assert.Equal(t, 11, hands[1].Value())

	// The restored round is playable to completion.
	require.True(t, restored.Stand(context.Background()))
	require.True(t, restored.Stand(context.Background()))
	assert.Equal(t, entities.StateGameOver, restored.State())
}

func TestCorruptSnapshotFallsBackToFreshGame(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.Set("blackjack_gameState", "not a number"))
	require.NoError(t, store.Set("blackjack_funds", "500"))

	svc := fundsSvc.NewService(fundsRepo.NewKVRepository(store), DefaultFunds)
	g, err := NewGame(context.Background(), GameConfig{
		Funds:     svc,
		Snapshots: NewSnapshotStore(store),
	})
	require.NoError(t, err)

	assert.Equal(t, entities.StateInitial, g.State())
	assert.Empty(t, g.Hands())

	// The corrupt keys were cleared and a clean Initial snapshot was
	// written in their place.
	raw, err := store.Get("blackjack_gameState")
	require.NoError(t, err)
	assert.Equal(t, "0", raw)
}

func TestCardFlipCallbackFiresOnHoleReveal(t *testing.T) {
	g, _ := newTestGame(t)
	stackShoe(g,
		card(entities.Ten, entities.Hearts),
		card(entities.Nine, entities.Clubs),
		card(entities.Ten, entities.Spades),
		card(entities.Eight, entities.Diamonds),
	)

	var flipped []*entities.Card
	g.RegisterCardFlipCallback(func(ev CardFlipEvent) {
		flipped = append(flipped, ev.Card)
	})

	require.True(t, g.StartNewGame(context.Background(), 100))
	dealsBefore := len(flipped)

	require.True(t, g.Stand(context.Background()))

	require.Greater(t, len(flipped), dealsBefore)
	hole := flipped[dealsBefore]
	assert.Equal(t, entities.Eight, hole.Rank)
	assert.True(t, hole.FaceUp)
}

func TestRoundRecordedInHistory(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := fundsSvc.NewService(fundsRepo.NewKVRepository(store), DefaultFunds)
	repo := history.NewMemoryRepository()

	g, err := NewGame(context.Background(), GameConfig{
		PlayerID:  "tester",
		Funds:     svc,
		Snapshots: NewSnapshotStore(store),
		History:   repo,
	})
	require.NoError(t, err)

	stackShoe(g,
		card(entities.Ten, entities.Hearts),
		card(entities.Nine, entities.Clubs),
		card(entities.Ten, entities.Spades),
		card(entities.Eight, entities.Diamonds),
	)
	require.True(t, g.StartNewGame(context.Background(), 100))
	require.True(t, g.Stand(context.Background()))

	rounds, err := repo.PlayerRounds(context.Background(), "tester", 10)
	require.NoError(t, err)
	require.Len(t, rounds, 1)
	assert.Equal(t, entities.ResultPlayerWins, rounds[0].Result)
	assert.Equal(t, int64(100), rounds[0].Bet)
	require.Len(t, rounds[0].Hands, 1)
	assert.Equal(t, 19, rounds[0].Hands[0].Score)
}

func TestDoubledDownRecordedInHistory(t *testing.T) {
	store := storage.NewMemoryStore()
	svc := fundsSvc.NewService(fundsRepo.NewKVRepository(store), DefaultFunds)
	repo := history.NewMemoryRepository()

	g, err := NewGame(context.Background(), GameConfig{
		PlayerID:  "tester",
		Funds:     svc,
		Snapshots: NewSnapshotStore(store),
		History:   repo,
	})
	require.NoError(t, err)

	stackShoe(g,
		card(entities.Six, entities.Hearts),
		card(entities.Five, entities.Clubs), // player 11
		card(entities.Ten, entities.Spades),
		card(entities.Seven, entities.Diamonds), // dealer 17, stands
		card(entities.Ten, entities.Clubs),      // player 21
	)
	require.True(t, g.StartNewGame(context.Background(), 100))
	require.True(t, g.DoubleDown(context.Background()))
	assert.True(t, g.Hands()[0].IsDoubled)

	// A hit to three cards is not a double down, even though the hand
	// counts are alike.
	stackShoe(g,
		card(entities.Three, entities.Hearts),
		card(entities.Five, entities.Clubs),
		card(entities.Ten, entities.Spades),
		card(entities.Seven, entities.Diamonds),
		card(entities.King, entities.Clubs), // player 18 after hit
	)
	require.True(t, g.StartNewGame(context.Background(), 100))
	require.True(t, g.Hit(context.Background()))
	require.True(t, g.Stand(context.Background()))

	rounds, err := repo.PlayerRounds(context.Background(), "tester", 10)
	require.NoError(t, err)
	require.Len(t, rounds, 2)
	assert.False(t, rounds[0].Hands[0].DoubledDown)
	assert.True(t, rounds[1].Hands[0].DoubledDown)
}

func TestSetCurrentBetRejectsNegative(t *testing.T) {
	g, _ := newTestGame(t)

	g.SetCurrentBet(150)
	assert.Equal(t, int64(150), g.CurrentBet())

	g.SetCurrentBet(-5)
	assert.Equal(t, int64(150), g.CurrentBet())
}

func TestNegativeBetCannotWipeSavedRound(t *testing.T) {
	g, store := newTestGame(t)
	stackShoe(g,
		card(entities.Ten, entities.Hearts),
		card(entities.Nine, entities.Clubs),
		card(entities.Ten, entities.Spades),
		card(entities.Eight, entities.Diamonds),
	)
	require.True(t, g.StartNewGame(context.Background(), 100))
	require.True(t, g.Stand(context.Background()))
	require.Equal(t, entities.StateGameOver, g.State())

	g.SetCurrentBet(-5)

	// A restart on the same store still loads the finished round.
	svc := fundsSvc.NewService(fundsRepo.NewKVRepository(store), DefaultFunds)
	restored, err := NewGame(context.Background(), GameConfig{
		Funds:     svc,
		Snapshots: NewSnapshotStore(store),
	})
	require.NoError(t, err)

	assert.Equal(t, entities.StateGameOver, restored.State())
	assert.Equal(t, entities.ResultPlayerWins, restored.Result())
	assert.Equal(t, int64(100), restored.CurrentBet())
	require.Len(t, restored.Hands(), 1)
	assert.Len(t, restored.DealerHand(), 2)
}

func TestConcurrentReadsDuringPlay(t *testing.T) {
	g, _ := newTestGame(t)
	ctx := context.Background()

	done := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g.RegisterCardFlipCallback(func(CardFlipEvent) {})
			for {
				select {
				case <-done:
					return
				default:
				}
				for _, hand := range g.Hands() {
					_ = hand.Value()
				}
				for _, c := range g.DealerHand() {
					_ = c.FaceUp
				}
				_ = g.NumDecks()
				_ = g.State()
				_ = g.Funds()
			}
		}()
	}

	for i := 0; i < 25; i++ {
		require.True(t, g.StartNewGame(ctx, MinBet))
		if g.State() == entities.StatePlayerTurn {
			// A natural against a dealer ace waits on the insurance
			// decision instead of standing.
			if !g.Stand(ctx) {
				require.True(t, g.DeclineInsurance(ctx))
			}
		}
		require.Equal(t, entities.StateGameOver, g.State())
		require.True(t, g.EnterBetting())
	}
	close(done)
	wg.Wait()
}
