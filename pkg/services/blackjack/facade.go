package blackjack

import (
	"context"

	"github.com/genchadt/damnsimple-blackjack/pkg/entities"
)

// Facade is the surface presentation layers talk to. It adds nothing on
// top of the engine beyond a stable, read-mostly API so UI code never
// touches engine internals.
type Facade struct {
	game *Game
}

// NewFacade wraps an engine
func NewFacade(game *Game) *Facade {
	return &Facade{game: game}
}

func (f *Facade) StartNewGame(ctx context.Context, bet int64) bool {
	return f.game.StartNewGame(ctx, bet)
}

func (f *Facade) Hit(ctx context.Context) bool { return f.game.Hit(ctx) }
func (f *Facade) Stand(ctx context.Context) bool { return f.game.Stand(ctx) }

func (f *Facade) DoubleDown(ctx context.Context) bool { return f.game.DoubleDown(ctx) }
func (f *Facade) Split(ctx context.Context) bool { return f.game.Split(ctx) }

func (f *Facade) TakeInsurance(ctx context.Context) bool { return f.game.TakeInsurance(ctx) }
func (f *Facade) DeclineInsurance(ctx context.Context) bool { return f.game.DeclineInsurance(ctx) }

func (f *Facade) EnterBetting() bool { return f.game.EnterBetting() }
func (f *Facade) ResetFunds(ctx context.Context) bool { return f.game.ResetFunds(ctx) }

func (f *Facade) GameState() entities.GameState { return f.game.State() }
func (f *Facade) GameResult() entities.GameResult { return f.game.Result() }

func (f *Facade) PlayerHands() []*PlayerHand { return f.game.Hands() }
func (f *Facade) ActivePlayerHandIndex() int { return f.game.ActiveHandIndex() }

func (f *Facade) DealerHand() []*entities.Card { return f.game.DealerHand() }

func (f *Facade) PlayerFunds() int64 { return f.game.Funds() }
func (f *Facade) CurrentBet() int64 { return f.game.CurrentBet() }
func (f *Facade) SetCurrentBet(b int64) { f.game.SetCurrentBet(b) }

func (f *Facade) IsInsuranceAvailable() bool { return f.game.IsInsuranceAvailable() }
func (f *Facade) CanAct() bool { return f.game.CanAct() }

func (f *Facade) RegisterCardFlipCallback(cb CardFlipCallback) {
	f.game.RegisterCardFlipCallback(cb)
}
