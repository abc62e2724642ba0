package blackjack

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/genchadt/damnsimple-blackjack/pkg/entities"
	"github.com/genchadt/damnsimple-blackjack/pkg/storage"
)

// KeyPrefix namespaces every persisted key. The individual key names
// are the saved-game format and must stay stable across releases.
const KeyPrefix = "blackjack_"

const (
	keyGameState       = KeyPrefix + "gameState"
	keyCurrentBet      = KeyPrefix + "currentBet"
	keyGameResult      = KeyPrefix + "gameResult"
	keyPlayerHands     = KeyPrefix + "playerHands"
	keyActiveHandIndex = KeyPrefix + "activePlayerHandIndex"
	keyDealerHand      = KeyPrefix + "dealerHand"
	keyInsuranceTaken  = KeyPrefix + "insuranceTaken"
	keyInsuranceBet    = KeyPrefix + "insuranceBet"
	keyFunds           = KeyPrefix + "funds"
	keyNumDecks        = KeyPrefix + "numDecks"

	// Written by versions that predate split support: a single hand's
	// cards as a bare JSON array. Read once for migration, never
	// written again.
	keyLegacyPlayerHand = KeyPrefix + "playerHand"
)

// ErrCorruptSnapshot wraps any structural problem found while loading
// a saved round. The caller discards the whole snapshot on this error;
// a half-applied snapshot is never acceptable.
var ErrCorruptSnapshot = errors.New("corrupt game snapshot")

// Snapshot is the full persisted round state
type Snapshot struct {
	State           entities.GameState
	CurrentBet      int64
	Result          entities.GameResult
	Hands           []*PlayerHand
	ActiveHandIndex int
	DealerHand      []*entities.Card
	InsuranceTaken  bool
	InsuranceBet    int64
	Funds           int64
	NumDecks        int
}

// SnapshotStore persists round snapshots. The engine writes through
// after every mutation and reads once at construction.
type SnapshotStore interface {
	// Save writes the full snapshot.
	Save(snap *Snapshot) error

	// Load reads the stored snapshot. Returns (nil, nil) when nothing
	// is stored, and an error wrapping ErrCorruptSnapshot when the
	// stored data fails validation.
	Load() (*Snapshot, error)

	// Clear removes all stored keys, including any legacy ones.
	Clear() error
}

// kvSnapshotStore maps a Snapshot onto fixed string keys of a
// storage.Store, mirroring the browser localStorage layout.
type kvSnapshotStore struct {
	store storage.Store
}

// NewSnapshotStore creates a SnapshotStore on top of a KV store
func NewSnapshotStore(store storage.Store) SnapshotStore {
	return &kvSnapshotStore{store: store}
}

func (s *kvSnapshotStore) Save(snap *Snapshot) error {
	handsJSON, err := json.Marshal(snap.Hands)
	if err != nil {
		return fmt.Errorf("error marshaling player hands: %w", err)
	}
	dealerJSON, err := json.Marshal(snap.DealerHand)
	if err != nil {
		return fmt.Errorf("error marshaling dealer hand: %w", err)
	}

	values := map[string]string{
		keyGameState:       strconv.Itoa(int(snap.State)),
		keyCurrentBet:      strconv.FormatInt(snap.CurrentBet, 10),
		keyGameResult:      strconv.Itoa(int(snap.Result)),
		keyPlayerHands:     string(handsJSON),
		keyActiveHandIndex: strconv.Itoa(snap.ActiveHandIndex),
		keyDealerHand:      string(dealerJSON),
		keyInsuranceTaken:  marshalBool(snap.InsuranceTaken),
		keyInsuranceBet:    strconv.FormatInt(snap.InsuranceBet, 10),
		keyFunds:           strconv.FormatInt(snap.Funds, 10),
		keyNumDecks:        strconv.Itoa(snap.NumDecks),
	}

	for key, value := range values {
		if err := s.store.Set(key, value); err != nil {
			return fmt.Errorf("error writing %s: %w", key, err)
		}
	}
	return nil
}

func (s *kvSnapshotStore) Load() (*Snapshot, error) {
	stateRaw, err := s.store.Get(keyGameState)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return s.loadLegacy()
	}
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", keyGameState, err)
	}

	snap := &Snapshot{}

	state, err := s.intField(stateRaw, keyGameState)
	if err != nil {
		return nil, err
	}
	snap.State = entities.GameState(state)
	if !entities.IsValidGameState(snap.State) {
		return nil, corrupt("game state %d out of range", state)
	}

	if snap.CurrentBet, err = s.int64Key(keyCurrentBet); err != nil {
		return nil, err
	}
	if snap.CurrentBet < 0 {
		return nil, corrupt("negative bet %d", snap.CurrentBet)
	}

	result, err := s.intKey(keyGameResult)
	if err != nil {
		return nil, err
	}
	snap.Result = entities.GameResult(result)
	if !entities.IsValidGameResult(snap.Result) {
		return nil, corrupt("game result %d out of range", result)
	}

	if snap.Hands, err = s.loadHands(); err != nil {
		return nil, err
	}

	if snap.ActiveHandIndex, err = s.intKey(keyActiveHandIndex); err != nil {
		return nil, err
	}
	if snap.ActiveHandIndex < 0 || (len(snap.Hands) > 0 && snap.ActiveHandIndex >= len(snap.Hands)) {
		return nil, corrupt("active hand index %d out of range for %d hands", snap.ActiveHandIndex, len(snap.Hands))
	}

	if snap.DealerHand, err = s.loadDealerHand(); err != nil {
		return nil, err
	}

	insuranceRaw, err := s.stringKey(keyInsuranceTaken)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(insuranceRaw), &snap.InsuranceTaken); err != nil {
		return nil, corrupt("insuranceTaken %q is not a boolean", insuranceRaw)
	}

	if snap.InsuranceBet, err = s.int64Key(keyInsuranceBet); err != nil {
		return nil, err
	}
	if snap.InsuranceBet < 0 {
		return nil, corrupt("negative insurance bet %d", snap.InsuranceBet)
	}

	if snap.Funds, err = s.int64Key(keyFunds); err != nil {
		return nil, err
	}
	if snap.Funds < 0 {
		return nil, corrupt("negative funds %d", snap.Funds)
	}

	if snap.NumDecks, err = s.intKey(keyNumDecks); err != nil {
		return nil, err
	}
	if snap.NumDecks < 1 || snap.NumDecks > MaxNumDecks {
		return nil, corrupt("numDecks %d out of range", snap.NumDecks)
	}

	// A mid-round snapshot must have hands to point at
	if snap.State == entities.StatePlayerTurn && len(snap.Hands) == 0 {
		return nil, corrupt("player turn with no hands")
	}

	return snap, nil
}

func (s *kvSnapshotStore) Clear() error {
	return s.store.Clear(KeyPrefix)
}

// loadLegacy migrates a pre-split save: a single hand stored as a bare
// card array under the old key. The hand is wrapped into the current
// multi-hand shape; the legacy key is deleted and never written again.
func (s *kvSnapshotStore) loadLegacy() (*Snapshot, error) {
	raw, err := s.store.Get(keyLegacyPlayerHand)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", keyLegacyPlayerHand, err)
	}

	cards, err := unmarshalCards(raw, keyLegacyPlayerHand)
	if err != nil {
		return nil, err
	}

	bet := int64(MinBet)
	if raw, err := s.store.Get(keyCurrentBet); err == nil {
		if parsed, perr := strconv.ParseInt(raw, 10, 64); perr == nil && parsed > 0 {
			bet = parsed
		}
	}

	funds := int64(DefaultFunds)
	if raw, err := s.store.Get(keyFunds); err == nil {
		if parsed, perr := strconv.ParseInt(raw, 10, 64); perr == nil && parsed >= 0 {
			funds = parsed
		}
	}

	hand := NewPlayerHand(bet)
	hand.Cards = cards
	hand.IsBlackjack = IsBlackjack(cards)
	hand.CanHit = !IsBust(cards) && !hand.IsBlackjack

	snap := &Snapshot{
		State:      entities.StatePlayerTurn,
		CurrentBet: bet,
		Result:     entities.ResultInProgress,
		Hands:      []*PlayerHand{hand},
		Funds:      funds,
		NumDecks:   DefaultNumDecks,
	}

	// Drop the old key so the next save is purely new-format
	if err := s.store.Delete(keyLegacyPlayerHand); err != nil {
		return nil, fmt.Errorf("error removing legacy key: %w", err)
	}

	return snap, nil
}

func (s *kvSnapshotStore) loadHands() ([]*PlayerHand, error) {
	raw, err := s.stringKey(keyPlayerHands)
	if err != nil {
		return nil, err
	}

	var hands []*PlayerHand
	if err := json.Unmarshal([]byte(raw), &hands); err != nil {
		return nil, corrupt("playerHands is not a hand array: %v", err)
	}

	for i, hand := range hands {
		if hand == nil {
			return nil, corrupt("hand %d is null", i)
		}
		if hand.ID == "" {
			return nil, corrupt("hand %d has no id", i)
		}
		if hand.Bet <= 0 {
			return nil, corrupt("hand %d has bet %d", i, hand.Bet)
		}
		if !entities.IsValidGameResult(hand.Result) {
			return nil, corrupt("hand %d has result %d out of range", i, hand.Result)
		}
		if err := validateCards(hand.Cards, fmt.Sprintf("hand %d", i)); err != nil {
			return nil, err
		}
		ensureCardIdentity(hand.Cards)
	}
	return hands, nil
}

func (s *kvSnapshotStore) loadDealerHand() ([]*entities.Card, error) {
	raw, err := s.stringKey(keyDealerHand)
	if err != nil {
		return nil, err
	}
	return unmarshalCards(raw, keyDealerHand)
}

func (s *kvSnapshotStore) stringKey(key string) (string, error) {
	raw, err := s.store.Get(key)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return "", corrupt("missing key %s", key)
	}
	if err != nil {
		return "", fmt.Errorf("error reading %s: %w", key, err)
	}
	return raw, nil
}

func (s *kvSnapshotStore) intKey(key string) (int, error) {
	raw, err := s.stringKey(key)
	if err != nil {
		return 0, err
	}
	return s.intField(raw, key)
}

func (s *kvSnapshotStore) intField(raw, key string) (int, error) {
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, corrupt("%s value %q is not an integer", key, raw)
	}
	return value, nil
}

func (s *kvSnapshotStore) int64Key(key string) (int64, error) {
	raw, err := s.stringKey(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, corrupt("%s value %q is not an integer", key, raw)
	}
	return value, nil
}

func unmarshalCards(raw, context string) ([]*entities.Card, error) {
	var cards []*entities.Card
	if err := json.Unmarshal([]byte(raw), &cards); err != nil {
		return nil, corrupt("%s is not a card array: %v", context, err)
	}
	if err := validateCards(cards, context); err != nil {
		return nil, err
	}
	ensureCardIdentity(cards)
	return cards, nil
}

func validateCards(cards []*entities.Card, context string) error {
	for i, card := range cards {
		if card == nil {
			return corrupt("%s card %d is null", context, i)
		}
		if !entities.IsValidSuit(card.Suit) {
			return corrupt("%s card %d has suit %q", context, i, card.Suit)
		}
		if !entities.IsValidRank(card.Rank) {
			return corrupt("%s card %d has rank %q", context, i, card.Rank)
		}
	}
	return nil
}

// ensureCardIdentity assigns fresh identities to deserialized cards;
// identities are per-process and never persisted.
func ensureCardIdentity(cards []*entities.Card) {
	for _, card := range cards {
		if card.ID == "" {
			card.ID = uuid.New().String()
		}
	}
}

func marshalBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func corrupt(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrCorruptSnapshot}, args...)...)
}
