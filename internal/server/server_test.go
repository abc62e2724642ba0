package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genchadt/damnsimple-blackjack/pkg/entities"
	fundsRepo "github.com/genchadt/damnsimple-blackjack/pkg/repositories/funds"
	"github.com/genchadt/damnsimple-blackjack/pkg/services/blackjack"
	fundsSvc "github.com/genchadt/damnsimple-blackjack/pkg/services/funds"
	"github.com/genchadt/damnsimple-blackjack/pkg/storage"
)

func testFacade(t *testing.T) *blackjack.Facade {
	t.Helper()

	store := storage.NewMemoryStore()
	svc := fundsSvc.NewService(fundsRepo.NewKVRepository(store), blackjack.DefaultFunds)

	game, err := blackjack.NewGame(context.Background(), blackjack.GameConfig{
		Funds:     svc,
		Snapshots: blackjack.NewSnapshotStore(store),
	})
	require.NoError(t, err)
	return blackjack.NewFacade(game)
}

func testServer(t *testing.T) (*Server, *websocket.Conn) {
	t.Helper()

	logger := log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
	s := NewServer("127.0.0.1:0", testFacade(t), logger)

	httpSrv := httptest.NewServer(http.HandlerFunc(s.handleWebSocket))
	t.Cleanup(httpSrv.Close)
	t.Cleanup(func() { _ = s.Stop() })

	url := "ws" + strings.TrimPrefix(httpSrv.URL, "http") + "/ws"
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })

	return s, ws
}

func readMessage(t *testing.T, ws *websocket.Conn) *Message {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	var msg Message
	require.NoError(t, ws.ReadJSON(&msg))
	return &msg
}

// readUntil skips intermediate pushes (card flips, action results)
// until a message of the wanted type arrives.
func readUntil(t *testing.T, ws *websocket.Conn, want MessageType) *Message {
	t.Helper()
	for i := 0; i < 20; i++ {
		msg := readMessage(t, ws)
		if msg.Type == want {
			return msg
		}
	}
	t.Fatalf("no %s message received", want)
	return nil
}

func decodeState(t *testing.T, msg *Message) *StateView {
	t.Helper()
	var view StateView
	require.NoError(t, json.Unmarshal(msg.Data, &view))
	return &view
}

func TestConnectReceivesInitialState(t *testing.T) {
	_, ws := testServer(t)

	view := decodeState(t, readUntil(t, ws, MessageTypeState))
	assert.Equal(t, "INITIAL", view.GameState)
	assert.Equal(t, int64(blackjack.DefaultFunds), view.Funds)
	assert.Empty(t, view.Hands)
}

func TestDealBroadcastsNewState(t *testing.T) {
	_, ws := testServer(t)
	readUntil(t, ws, MessageTypeState)

	require.NoError(t, ws.WriteJSON(mustMessage(t, MessageTypeDeal, DealData{Bet: 100})))

	result := readUntil(t, ws, MessageTypeActionResult)
	var ar ActionResultData
	require.NoError(t, json.Unmarshal(result.Data, &ar))
	assert.True(t, ar.Success)

	view := decodeState(t, readUntil(t, ws, MessageTypeState))
	require.Len(t, view.Hands, 1)
	assert.Len(t, view.Hands[0].Cards, 2)
	assert.Len(t, view.DealerHand, 2)
}

func TestHoleCardIsMaskedUntilRevealed(t *testing.T) {
	_, ws := testServer(t)
	readUntil(t, ws, MessageTypeState)

	require.NoError(t, ws.WriteJSON(mustMessage(t, MessageTypeDeal, DealData{Bet: 100})))
	view := decodeState(t, readUntil(t, ws, MessageTypeState))

	hole := view.DealerHand[1]
	if view.GameState == "PLAYER_TURN" {
		assert.False(t, hole.FaceUp)
		assert.Empty(t, hole.Suit)
		assert.Empty(t, hole.Rank)

		// Only the up-card may count toward the visible dealer value.
		assert.LessOrEqual(t, view.DealerValue, 11)
	} else {
		// Natural blackjack ended the round; everything is open.
		assert.Equal(t, "GAME_OVER", view.GameState)
		assert.True(t, hole.FaceUp)
	}
}

func TestInvalidBetReportsFailure(t *testing.T) {
	_, ws := testServer(t)
	readUntil(t, ws, MessageTypeState)

	require.NoError(t, ws.WriteJSON(mustMessage(t, MessageTypeDeal, DealData{Bet: 5})))

	result := readUntil(t, ws, MessageTypeActionResult)
	var ar ActionResultData
	require.NoError(t, json.Unmarshal(result.Data, &ar))
	assert.False(t, ar.Success)

	view := decodeState(t, readUntil(t, ws, MessageTypeState))
	assert.Equal(t, "INITIAL", view.GameState)
}

func TestUnknownMessageTypeReturnsError(t *testing.T) {
	_, ws := testServer(t)
	readUntil(t, ws, MessageTypeState)

	require.NoError(t, ws.WriteJSON(mustMessage(t, MessageType("juggle"), nil)))

	errMsg := readUntil(t, ws, MessageTypeError)
	var data ErrorData
	require.NoError(t, json.Unmarshal(errMsg.Data, &data))
	assert.Equal(t, "INVALID_ACTION", data.Code)
}

func TestCardViewMasksFaceDownCard(t *testing.T) {
	hidden := entities.NewCard(entities.Spades, entities.Ace)
	view := toCardView(hidden)
	assert.False(t, view.FaceUp)
	assert.Empty(t, view.Suit)
	assert.Empty(t, view.Rank)

	hidden.Flip()
	view = toCardView(hidden)
	assert.True(t, view.FaceUp)
	assert.Equal(t, "SPADES", view.Suit)
	assert.Equal(t, "A", view.Rank)
}

func mustMessage(t *testing.T, messageType MessageType, data interface{}) *Message {
	t.Helper()
	msg, err := NewMessage(messageType, data)
	require.NoError(t, err)
	return msg
}
