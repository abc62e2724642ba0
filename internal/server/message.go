package server

import (
	"encoding/json"
	"time"

	"github.com/genchadt/damnsimple-blackjack/pkg/entities"
	"github.com/genchadt/damnsimple-blackjack/pkg/services/blackjack"
)

// MessageType represents a WebSocket message type
type MessageType string

const (
	// Client to server messages
	MessageTypeSetBet           MessageType = "set_bet"
	MessageTypeDeal             MessageType = "deal"
	MessageTypeHit              MessageType = "hit"
	MessageTypeStand            MessageType = "stand"
	MessageTypeDoubleDown       MessageType = "double_down"
	MessageTypeSplit            MessageType = "split"
	MessageTypeTakeInsurance    MessageType = "take_insurance"
	MessageTypeDeclineInsurance MessageType = "decline_insurance"
	MessageTypeEnterBetting     MessageType = "enter_betting"
	MessageTypeResetFunds       MessageType = "reset_funds"
	MessageTypeGetState         MessageType = "get_state"

	// Server to client messages
	MessageTypeState        MessageType = "state"
	MessageTypeCardFlip     MessageType = "card_flip"
	MessageTypeActionResult MessageType = "action_result"
	MessageTypeError        MessageType = "error"
)

// Message is the wire envelope for both directions
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a new message with the current timestamp
func NewMessage(messageType MessageType, data interface{}) (*Message, error) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		return nil, err
	}
	return &Message{
		Type:      messageType,
		Data:      dataBytes,
		Timestamp: time.Now(),
	}, nil
}

// Client → Server payloads

type SetBetData struct {
	Amount int64 `json:"amount"`
}

type DealData struct {
	Bet int64 `json:"bet"`
}

// Server → Client payloads

type ActionResultData struct {
	Action  MessageType `json:"action"`
	Success bool        `json:"success"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// CardView is a card as shown to the client. Face-down cards carry no
// suit or rank: the hole card stays unknowable until the engine
// reveals it.
type CardView struct {
	Suit   string `json:"suit,omitempty"`
	Rank   string `json:"rank,omitempty"`
	FaceUp bool   `json:"faceUp"`
}

type HandView struct {
	ID          string     `json:"id"`
	Cards       []CardView `json:"cards"`
	Value       int        `json:"value"`
	Bet         int64      `json:"bet"`
	Result      string     `json:"result"`
	IsResolved  bool       `json:"isResolved"`
	CanHit      bool       `json:"canHit"`
	IsBlackjack bool       `json:"isBlackjack"`
	IsSplitAces bool       `json:"isSplitAces"`
}

// StateView is the full table state pushed after every action
type StateView struct {
	GameState          string     `json:"gameState"`
	GameResult         string     `json:"gameResult"`
	Funds              int64      `json:"funds"`
	CurrentBet         int64      `json:"currentBet"`
	Hands              []HandView `json:"hands"`
	ActiveHandIndex    int        `json:"activeHandIndex"`
	DealerHand         []CardView `json:"dealerHand"`
	DealerValue        int        `json:"dealerValue"`
	InsuranceAvailable bool       `json:"insuranceAvailable"`
	CanAct             bool       `json:"canAct"`
}

type CardFlipData struct {
	Card CardView `json:"card"`
}

func toCardView(card *entities.Card) CardView {
	if !card.FaceUp {
		return CardView{FaceUp: false}
	}
	return CardView{
		Suit:   string(card.Suit),
		Rank:   string(card.Rank),
		FaceUp: true,
	}
}

func toHandView(hand *blackjack.PlayerHand) HandView {
	view := HandView{
		ID:          hand.ID,
		Cards:       make([]CardView, 0, len(hand.Cards)),
		Value:       hand.Value(),
		Bet:         hand.Bet,
		Result:      hand.Result.String(),
		IsResolved:  hand.IsResolved,
		CanHit:      hand.CanHit,
		IsBlackjack: hand.IsBlackjack,
		IsSplitAces: hand.IsSplitAces,
	}
	for _, card := range hand.Cards {
		view.Cards = append(view.Cards, toCardView(card))
	}
	return view
}

// buildStateView projects the facade into the client view. The dealer
// value only counts face-up cards so the hidden hole card never leaks.
func buildStateView(game *blackjack.Facade) StateView {
	view := StateView{
		GameState:          game.GameState().String(),
		GameResult:         game.GameResult().String(),
		Funds:              game.PlayerFunds(),
		CurrentBet:         game.CurrentBet(),
		ActiveHandIndex:    game.ActivePlayerHandIndex(),
		InsuranceAvailable: game.IsInsuranceAvailable(),
		CanAct:             game.CanAct(),
	}

	for _, hand := range game.PlayerHands() {
		view.Hands = append(view.Hands, toHandView(hand))
	}

	visible := make([]*entities.Card, 0, 2)
	for _, card := range game.DealerHand() {
		view.DealerHand = append(view.DealerHand, toCardView(card))
		if card.FaceUp {
			visible = append(visible, card)
		}
	}
	view.DealerValue = blackjack.HandValue(visible)

	return view
}
