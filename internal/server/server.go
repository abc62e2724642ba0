package server

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/genchadt/damnsimple-blackjack/internal/types"
	"github.com/genchadt/damnsimple-blackjack/pkg/services/blackjack"
)

// Server bridges the blackjack engine to WebSocket clients. The table
// serves one player but accepts any number of viewing connections;
// every connection receives the full state after each action.
type Server struct {
	addr        string
	upgrader    websocket.Upgrader
	game        *blackjack.Facade
	connections map[*Connection]bool
	logger      *log.Logger
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
	httpServer  *http.Server
}

// NewServer creates a new WebSocket server around a game facade
func NewServer(addr string, game *blackjack.Facade, logger *log.Logger) *Server {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Server{
		addr: addr,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// Local single-player server, all origins allowed
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		game:        game,
		connections: make(map[*Connection]bool),
		logger:      logger.WithPrefix("server"),
		ctx:         ctx,
		cancel:      cancel,
	}

	// Relay engine card flips to every client as they happen.
	game.RegisterCardFlipCallback(func(ev blackjack.CardFlipEvent) {
		s.broadcast(MessageTypeCardFlip, CardFlipData{Card: toCardView(ev.Card)})
	})

	return s
}

// Start runs the HTTP listener until Stop or a listener error
func (s *Server) Start() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)

	s.httpServer = &http.Server{Addr: s.addr, Handler: mux}

	s.logger.Info("Starting WebSocket server", "addr", s.addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

// Stop closes all connections and shuts the listener down
func (s *Server) Stop() error {
	s.cancel()

	s.mu.Lock()
	for conn := range s.connections {
		_ = conn.Close()
	}
	s.connections = make(map[*Connection]bool)
	s.mu.Unlock()

	if s.httpServer != nil {
		return s.httpServer.Shutdown(context.Background())
	}
	return nil
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection", "error", err)
		return
	}

	conn := newConnection(ws, s)

	s.mu.Lock()
	s.connections[conn] = true
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Client connected", "total", total)

	// New clients get the current table state immediately.
	conn.send(MessageTypeState, buildStateView(s.game))

	go conn.readLoop(s.ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) removeConnection(conn *Connection) {
	s.mu.Lock()
	if _, ok := s.connections[conn]; ok {
		delete(s.connections, conn)
		_ = conn.Close()
	}
	total := len(s.connections)
	s.mu.Unlock()
	s.logger.Info("Client disconnected", "total", total)
}

// broadcast sends a message to every connected client
func (s *Server) broadcast(messageType MessageType, data interface{}) {
	msg, err := NewMessage(messageType, data)
	if err != nil {
		s.logger.Error("Failed to build broadcast message", "type", messageType, "error", err)
		return
	}

	s.mu.RLock()
	conns := make([]*Connection, 0, len(s.connections))
	for conn := range s.connections {
		conns = append(conns, conn)
	}
	s.mu.RUnlock()

	for _, conn := range conns {
		conn.write(msg)
	}
}

// Connection is one WebSocket client
type Connection struct {
	ws      *websocket.Conn
	server  *Server
	writeMu sync.Mutex
}

func newConnection(ws *websocket.Conn, server *Server) *Connection {
	return &Connection{ws: ws, server: server}
}

// Close closes the underlying socket
func (c *Connection) Close() error {
	return c.ws.Close()
}

func (c *Connection) send(messageType MessageType, data interface{}) {
	msg, err := NewMessage(messageType, data)
	if err != nil {
		c.server.logger.Error("Failed to build message", "type", messageType, "error", err)
		return
	}
	c.write(msg)
}

func (c *Connection) write(msg *Message) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.ws.WriteJSON(msg); err != nil {
		c.server.logger.Debug("Write failed", "error", err)
	}
}

func (c *Connection) sendError(code types.ErrorCode, message string) {
	c.send(MessageTypeError, ErrorData{Code: string(code), Message: message})
}

// readLoop dispatches client messages until the connection drops
func (c *Connection) readLoop(ctx context.Context) {
	defer c.server.removeConnection(c)

	for {
		var msg Message
		if err := c.ws.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.server.logger.Debug("Read failed", "error", err)
			}
			return
		}

		select {
		case <-ctx.Done():
			return
		default:
		}

		c.handleMessage(ctx, &msg)
	}
}

func (c *Connection) handleMessage(ctx context.Context, msg *Message) {
	game := c.server.game

	switch msg.Type {
	case MessageTypeGetState:
		c.send(MessageTypeState, buildStateView(game))
		return

	case MessageTypeSetBet:
		var data SetBetData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError(types.ErrInvalidBet, "set_bet requires an amount")
			return
		}
		game.SetCurrentBet(data.Amount)
		c.server.broadcast(MessageTypeState, buildStateView(game))
		return

	case MessageTypeDeal:
		var data DealData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError(types.ErrInvalidBet, "deal requires a bet")
			return
		}
		bet := data.Bet
		if bet == 0 {
			bet = game.CurrentBet()
		}
		c.finishAction(msg.Type, game.StartNewGame(ctx, bet))
		return

	case MessageTypeHit:
		c.finishAction(msg.Type, game.Hit(ctx))
	case MessageTypeStand:
		c.finishAction(msg.Type, game.Stand(ctx))
	case MessageTypeDoubleDown:
		c.finishAction(msg.Type, game.DoubleDown(ctx))
	case MessageTypeSplit:
		c.finishAction(msg.Type, game.Split(ctx))
	case MessageTypeTakeInsurance:
		c.finishAction(msg.Type, game.TakeInsurance(ctx))
	case MessageTypeDeclineInsurance:
		c.finishAction(msg.Type, game.DeclineInsurance(ctx))
	case MessageTypeEnterBetting:
		c.finishAction(msg.Type, game.EnterBetting())
	case MessageTypeResetFunds:
		c.finishAction(msg.Type, game.ResetFunds(ctx))

	default:
		c.sendError(types.ErrInvalidAction, "unknown message type "+string(msg.Type))
	}
}

// finishAction reports the action outcome to the caller and pushes the
// new state to everyone
func (c *Connection) finishAction(action MessageType, ok bool) {
	c.send(MessageTypeActionResult, ActionResultData{Action: action, Success: ok})
	c.server.broadcast(MessageTypeState, buildStateView(c.server.game))
}
