package blackjack

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/genchadt/damnsimple-blackjack/pkg/entities"
	"github.com/genchadt/damnsimple-blackjack/pkg/repositories/history"
)

var (
	ErrInvalidBet   = errors.New("bet is outside the allowed range")
	ErrWrongState   = errors.New("action not allowed in current game state")
	ErrNilSnapshots = errors.New("snapshot store is required")
	ErrNilFunds     = errors.New("funds service is required")
)

// FundsService is the bankroll ledger the engine settles against.
type FundsService interface {
	GetOrCreate(ctx context.Context, playerID string) (*entities.Funds, error)
	Deduct(ctx context.Context, playerID string, amount int64, txType entities.TransactionType, referenceID, description string) (*entities.Funds, error)
	Credit(ctx context.Context, playerID string, amount int64, txType entities.TransactionType, referenceID, description string) (*entities.Funds, error)
	Reset(ctx context.Context, playerID string, balance int64) (*entities.Funds, error)
}

// GameConfig carries the engine's dependencies and table settings.
type GameConfig struct {
	PlayerID     string
	NumDecks     int
	MinBet       int64
	DefaultFunds int64
	Funds        FundsService
	Snapshots    SnapshotStore
	History      history.Repository
	Logger       *log.Logger
}

// Game is the round state machine. Every player action is a synchronous
// call that either completes atomically or is rejected by a precondition
// check before any mutation. State is written through to the snapshot
// store after each mutation; the in-memory state stays authoritative when
// a write fails.
type Game struct {
	mu sync.Mutex

	playerID string
	roundID  string
	minBet   int64

	state          entities.GameState
	result         entities.GameResult
	currentBet     int64
	hands          []*PlayerHand
	activeHand     int
	insuranceTaken bool
	insuranceBet   int64
	funds          int64

	manager   *HandManager
	snapshots SnapshotStore
	fundsSvc  FundsService
	history   history.Repository
	logger    *log.Logger
}

// NewGame builds the engine, restoring any persisted round. A corrupt
// snapshot is logged, cleared, and replaced with a fresh Initial state.
func NewGame(ctx context.Context, cfg GameConfig) (*Game, error) {
	if cfg.Snapshots == nil {
		return nil, ErrNilSnapshots
	}
	if cfg.Funds == nil {
		return nil, ErrNilFunds
	}
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.PlayerID == "" {
		cfg.PlayerID = "local"
	}
	if cfg.MinBet <= 0 {
		cfg.MinBet = MinBet
	}
	if cfg.DefaultFunds <= 0 {
		cfg.DefaultFunds = DefaultFunds
	}
	numDecks := clampNumDecks(cfg.NumDecks)

	g := &Game{
		playerID:  cfg.PlayerID,
		minBet:    cfg.MinBet,
		state:     entities.StateInitial,
		result:    entities.ResultInProgress,
		snapshots: cfg.Snapshots,
		fundsSvc:  cfg.Funds,
		history:   cfg.History,
		logger:    cfg.Logger.With("component", "blackjack"),
	}

	funds, err := cfg.Funds.GetOrCreate(ctx, cfg.PlayerID)
	if err != nil {
		return nil, fmt.Errorf("error loading player funds: %w", err)
	}
	g.funds = funds.Balance

	snap, err := cfg.Snapshots.Load()
	switch {
	case errors.Is(err, ErrCorruptSnapshot):
		g.logger.Warn("discarding corrupt snapshot", "err", err)
		if clearErr := cfg.Snapshots.Clear(); clearErr != nil {
			g.logger.Error("failed to clear corrupt snapshot", "err", clearErr)
		}
		snap = nil
	case err != nil:
		return nil, fmt.Errorf("error loading snapshot: %w", err)
	}

	if snap == nil {
		g.manager = NewHandManager(numDecks)
		g.persist()
		return g, nil
	}

	g.state = snap.State
	g.result = snap.Result
	g.currentBet = snap.CurrentBet
	g.hands = snap.Hands
	g.activeHand = snap.ActiveHandIndex
	g.insuranceTaken = snap.InsuranceTaken
	g.insuranceBet = snap.InsuranceBet
	g.manager = NewHandManager(snap.NumDecks)
	g.manager.Restore(snap.NumDecks, snap.DealerHand, snap.Hands)

	if snap.Funds != g.funds {
		// The snapshot and the ledger drifted apart; the ledger wins.
		g.logger.Warn("snapshot funds differ from ledger",
			"snapshot", snap.Funds, "ledger", g.funds)
	}

	g.logger.Info("restored saved round",
		"state", g.state, "hands", len(g.hands), "funds", g.funds)
	return g, nil
}

// State returns the current machine state.
func (g *Game) State() entities.GameState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Result returns the overall round result.
func (g *Game) Result() entities.GameResult {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.result
}

// Funds returns the player's current bankroll.
func (g *Game) Funds() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.funds
}

// CurrentBet returns the per-hand base bet for the round.
func (g *Game) CurrentBet() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.currentBet
}

// SetCurrentBet stores the bet the next deal will use. Only meaningful
// outside an active round. Negative bets are ignored so the engine
// never persists a snapshot its own loader would reject.
func (g *Game) SetCurrentBet(bet int64) {
	if bet < 0 {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == entities.StatePlayerTurn || g.state == entities.StateDealerTurn {
		return
	}
	g.currentBet = bet
	g.persist()
}

// Hands returns independent copies of the player's hands.
func (g *Game) Hands() []*PlayerHand {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]*PlayerHand, len(g.hands))
	for i, hand := range g.hands {
		out[i] = hand.Clone()
	}
	return out
}

// ActiveHandIndex returns the index of the hand currently acting.
func (g *Game) ActiveHandIndex() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.activeHand
}

// DealerHand returns an independent copy of the dealer's cards.
func (g *Game) DealerHand() []*entities.Card {
	g.mu.Lock()
	defer g.mu.Unlock()
	return cloneCards(g.manager.DealerHand())
}

// NumDecks returns the configured shoe size.
func (g *Game) NumDecks() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.manager.NumDecks()
}

// RegisterCardFlipCallback subscribes to hole-card reveal events.
func (g *Game) RegisterCardFlipCallback(cb CardFlipCallback) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.manager.Events().Subscribe(cb)
}

// CanAct reports whether the player may take a hand action right now.
// Presentation layers poll this before invoking the next action.
func (g *Game) CanAct() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.canActLocked()
}

func (g *Game) canActLocked() bool {
	if g.state != entities.StatePlayerTurn {
		return false
	}
	if g.activeHand >= len(g.hands) {
		return false
	}
	return g.hands[g.activeHand].IsActionable()
}

// EnterBetting moves the table from Initial or GameOver into Betting.
// Hands from the previous round stay visible until the next deal.
func (g *Game) EnterBetting() bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state != entities.StateInitial && g.state != entities.StateGameOver {
		return false
	}
	g.state = entities.StateBetting
	g.persist()
	return true
}

// StartNewGame begins a round with the given bet. Returns false without
// any state change when the bet is outside [minBet, funds] or the table
// is mid-round.
func (g *Game) StartNewGame(ctx context.Context, bet int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch g.state {
	case entities.StateInitial, entities.StateBetting, entities.StateGameOver:
	default:
		g.logger.Debug("deal rejected", "state", g.state)
		return false
	}
	if bet < g.minBet || bet > g.funds {
		g.logger.Debug("deal rejected", "bet", bet, "funds", g.funds)
		return false
	}

	g.roundID = uuid.New().String()
	if !g.deduct(ctx, bet, entities.TransactionTypeBet, "initial bet") {
		return false
	}

	g.manager.DiscardRound(g.hands)
	g.manager.ReshuffleIfNeeded()

	g.state = entities.StateDealing
	g.currentBet = bet
	g.result = entities.ResultInProgress
	g.insuranceTaken = false
	g.insuranceBet = 0
	g.activeHand = 0

	hand := NewPlayerHand(bet)
	g.hands = []*PlayerHand{hand}

	g.manager.DealTo(hand, true)
	g.manager.DealTo(hand, true)
	g.manager.DealToDealer(true)
	g.manager.DealToDealer(false)

	if IsBlackjack(hand.Cards) {
		hand.IsBlackjack = true
		hand.CanHit = false
	}

	dealerShowsAce := false
	if up := g.manager.DealerUpCard(); up != nil {
		dealerShowsAce = IsAce(up)
	}

	if hand.IsBlackjack && !dealerShowsAce {
		// Nothing left for the player to decide; settle immediately.
		g.playDealerTurn(ctx)
		return true
	}

	g.state = entities.StatePlayerTurn
	g.persist()
	return true
}

// Hit deals one face-up card to the active hand. A bust resolves the
// hand and advances the turn.
func (g *Game) Hit(ctx context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.canActLocked() {
		return false
	}
	hand := g.hands[g.activeHand]
	if !hand.CanHit {
		return false
	}

	g.manager.DealTo(hand, true)
	if IsBust(hand.Cards) {
		hand.Resolve(entities.ResultDealerWins)
		g.advanceTurn(ctx)
		return true
	}
	if hand.Value() == MaxHandValue {
		hand.Stand()
		g.advanceTurn(ctx)
		return true
	}
	g.persist()
	return true
}

// Stand ends the active hand's acting and advances the turn.
func (g *Game) Stand(ctx context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.canActLocked() {
		return false
	}
	g.hands[g.activeHand].Stand()
	g.advanceTurn(ctx)
	return true
}

// DoubleDown doubles the active hand's bet, deals exactly one card, and
// forces a stand. Returns false when the hand has more than two cards or
// funds cannot cover the extra bet.
func (g *Game) DoubleDown(ctx context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.canActLocked() {
		return false
	}
	hand := g.hands[g.activeHand]
	if len(hand.Cards) != 2 || !hand.CanHit {
		return false
	}
	if g.funds < hand.Bet {
		return false
	}
	if !g.deduct(ctx, hand.Bet, entities.TransactionTypeBet, "double down") {
		return false
	}

	hand.Bet *= 2
	hand.IsDoubled = true
	g.manager.DealTo(hand, true)
	if IsBust(hand.Cards) {
		hand.Resolve(entities.ResultDealerWins)
	} else {
		hand.Stand()
	}
	g.advanceTurn(ctx)
	return true
}

// Split divides the active pair into two hands, each with its own bet
// and one fresh card. Split aces receive exactly one card and cannot be
// hit again.
func (g *Game) Split(ctx context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.canActLocked() {
		return false
	}
	hand := g.hands[g.activeHand]
	if !CanSplit(hand.Cards, g.funds, hand.Bet) {
		return false
	}
	if !g.deduct(ctx, hand.Bet, entities.TransactionTypeBet, "split") {
		return false
	}

	splitAces := IsAce(hand.Cards[0]) && IsAce(hand.Cards[1])

	second := NewPlayerHand(hand.Bet)
	second.Cards = []*entities.Card{hand.Cards[1]}
	hand.Cards = hand.Cards[:1]

	hand.IsSplitAces = splitAces
	second.IsSplitAces = splitAces
	hand.IsBlackjack = false
	second.IsBlackjack = false

	// Insert the new hand right after the current one so play order
	// follows table position.
	g.hands = append(g.hands, nil)
	copy(g.hands[g.activeHand+2:], g.hands[g.activeHand+1:])
	g.hands[g.activeHand+1] = second

	g.manager.DealTo(hand, true)
	g.manager.DealTo(second, true)

	if splitAces {
		hand.Stand()
		second.Stand()
		g.advanceTurn(ctx)
		return true
	}

	g.persist()
	return true
}

// TakeInsurance places the insurance side bet. Available only while the
// dealer shows an Ace with the hole card still hidden.
func (g *Game) TakeInsurance(ctx context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.insuranceAvailableLocked() {
		return false
	}
	cost := InsuranceCost(g.currentBet)
	if g.funds < cost {
		return false
	}
	if !g.deduct(ctx, cost, entities.TransactionTypeInsurance, "insurance") {
		return false
	}

	g.insuranceTaken = true
	g.insuranceBet = cost

	if g.allHandsDone() {
		g.playDealerTurn(ctx)
		return true
	}
	g.persist()
	return true
}

// DeclineInsurance waives the insurance offer for the round.
func (g *Game) DeclineInsurance(ctx context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.insuranceAvailableLocked() {
		return false
	}
	g.insuranceTaken = true
	g.insuranceBet = 0

	if g.allHandsDone() {
		g.playDealerTurn(ctx)
		return true
	}
	g.persist()
	return true
}

// IsInsuranceAvailable reports whether the insurance side bet can still
// be placed this round.
func (g *Game) IsInsuranceAvailable() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.insuranceAvailableLocked()
}

func (g *Game) insuranceAvailableLocked() bool {
	if g.state != entities.StatePlayerTurn || g.insuranceTaken {
		return false
	}
	if g.manager.HoleCardRevealed() {
		return false
	}
	up := g.manager.DealerUpCard()
	return up != nil && IsAce(up)
}

// advanceTurn moves to the next hand that can still act, or plays the
// dealer when none remains. Caller holds the lock.
func (g *Game) advanceTurn(ctx context.Context) {
	for i := g.activeHand + 1; i < len(g.hands); i++ {
		if g.hands[i].IsActionable() {
			g.activeHand = i
			g.persist()
			return
		}
	}
	g.playDealerTurn(ctx)
}

func (g *Game) allHandsDone() bool {
	for _, hand := range g.hands {
		if hand.IsActionable() {
			return false
		}
	}
	return true
}

// playDealerTurn reveals the hole card, settles insurance, draws the
// dealer to 17 when any live hand remains, and settles every hand.
// Caller holds the lock.
func (g *Game) playDealerTurn(ctx context.Context) {
	g.state = entities.StateDealerTurn
	g.manager.RevealHoleCard()

	dealer := g.manager.DealerHand()
	dealerNatural := IsBlackjack(dealer)

	if g.insuranceTaken && g.insuranceBet > 0 && dealerNatural {
		g.credit(ctx, InsurancePayout(g.insuranceBet), entities.TransactionTypePayout, "insurance payout")
	}

	if dealerNatural {
		for _, hand := range g.hands {
			if hand.IsResolved {
				continue
			}
			if hand.IsBlackjack {
				hand.Resolve(entities.ResultPush)
			} else {
				hand.Resolve(entities.ResultDealerWins)
			}
		}
	} else {
		if g.anyLiveHand() {
			for HandValue(g.manager.DealerHand()) < DealerStandScore {
				g.manager.DealToDealer(true)
			}
		}
		dealerValue := HandValue(g.manager.DealerHand())
		dealerBust := dealerValue > MaxHandValue

		for _, hand := range g.hands {
			if hand.IsResolved {
				continue
			}
			switch {
			case hand.IsBlackjack:
				hand.Resolve(entities.ResultPlayerBlackjack)
			case dealerBust:
				hand.Resolve(entities.ResultPlayerWins)
			case dealerValue > hand.Value():
				hand.Resolve(entities.ResultDealerWins)
			case dealerValue < hand.Value():
				hand.Resolve(entities.ResultPlayerWins)
			default:
				hand.Resolve(entities.ResultPush)
			}
		}
	}

	g.settle(ctx)
	g.result = g.overallResult()
	g.state = entities.StateGameOver
	g.recordRound(ctx)
	g.persist()
}

// anyLiveHand reports whether at least one hand still needs the dealer
// to finish drawing. Busted hands are already settled and a natural wins
// against any non-natural dealer total, so neither counts.
func (g *Game) anyLiveHand() bool {
	for _, hand := range g.hands {
		if !hand.IsResolved && !hand.IsBlackjack {
			return true
		}
	}
	return false
}

func (g *Game) settle(ctx context.Context) {
	for _, hand := range g.hands {
		var payout int64
		switch hand.Result {
		case entities.ResultPlayerBlackjack:
			payout = BlackjackPayout(hand.Bet)
		case entities.ResultPlayerWins:
			payout = WinPayout(hand.Bet)
		case entities.ResultPush:
			payout = hand.Bet
		}
		if payout > 0 {
			g.credit(ctx, payout, entities.TransactionTypePayout,
				fmt.Sprintf("hand %s %s", hand.ID, hand.Result))
		}
	}
}

// overallResult collapses per-hand outcomes into a single round result.
// Any win outranks a push, which outranks a loss.
func (g *Game) overallResult() entities.GameResult {
	result := entities.ResultDealerWins
	for _, hand := range g.hands {
		switch hand.Result {
		case entities.ResultPlayerBlackjack:
			return entities.ResultPlayerBlackjack
		case entities.ResultPlayerWins:
			result = entities.ResultPlayerWins
		case entities.ResultPush:
			if result == entities.ResultDealerWins {
				result = entities.ResultPush
			}
		}
	}
	return result
}

// ResetFunds restores the bankroll to its default. Only allowed outside
// an active round.
func (g *Game) ResetFunds(ctx context.Context) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == entities.StatePlayerTurn || g.state == entities.StateDealerTurn {
		return false
	}
	funds, err := g.fundsSvc.Reset(ctx, g.playerID, DefaultFunds)
	if err != nil {
		g.logger.Error("funds reset failed", "err", err)
		return false
	}
	g.funds = funds.Balance
	g.persist()
	return true
}

func (g *Game) deduct(ctx context.Context, amount int64, txType entities.TransactionType, desc string) bool {
	funds, err := g.fundsSvc.Deduct(ctx, g.playerID, amount, txType, g.roundID, desc)
	if err != nil {
		g.logger.Error("funds deduction failed", "amount", amount, "err", err)
		return false
	}
	g.funds = funds.Balance
	return true
}

func (g *Game) credit(ctx context.Context, amount int64, txType entities.TransactionType, desc string) {
	funds, err := g.fundsSvc.Credit(ctx, g.playerID, amount, txType, g.roundID, desc)
	if err != nil {
		// The ledger write failed; keep the in-memory balance honest so
		// the session can continue.
		g.logger.Error("funds credit failed", "amount", amount, "err", err)
		g.funds += amount
		return
	}
	g.funds = funds.Balance
}

func (g *Game) recordRound(ctx context.Context) {
	if g.history == nil {
		return
	}
	record := &history.RoundRecord{
		ID:           g.roundID,
		PlayerID:     g.playerID,
		Bet:          g.currentBet,
		Result:       g.result,
		DealerScore:  HandValue(g.manager.DealerHand()),
		InsuranceBet: g.insuranceBet,
		FundsAfter:   g.funds,
		CompletedAt:  time.Now().UTC(),
	}
	for _, hand := range g.hands {
		record.Hands = append(record.Hands, history.HandRecord{
			ID:          hand.ID,
			Bet:         hand.Bet,
			Score:       hand.Value(),
			Result:      hand.Result,
			IsBlackjack: hand.IsBlackjack,
			IsBust:      IsBust(hand.Cards),
			IsSplit:     len(g.hands) > 1,
			DoubledDown: hand.IsDoubled,
		})
	}
	if err := g.history.RecordRound(ctx, record); err != nil {
		g.logger.Warn("round history write failed", "err", err)
	}
}

// persist writes the current state through to storage. Failures are
// logged and otherwise ignored; memory stays authoritative.
func (g *Game) persist() {
	snap := &Snapshot{
		State:           g.state,
		CurrentBet:      g.currentBet,
		Result:          g.result,
		Hands:           g.hands,
		ActiveHandIndex: g.activeHand,
		DealerHand:      g.manager.DealerHand(),
		InsuranceTaken:  g.insuranceTaken,
		InsuranceBet:    g.insuranceBet,
		Funds:           g.funds,
		NumDecks:        g.manager.NumDecks(),
	}
	if err := g.snapshots.Save(snap); err != nil {
		g.logger.Error("snapshot write failed", "err", err)
	}
}
