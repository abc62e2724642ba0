package entities

// GameState identifies where a round is in its lifecycle. Values are
// persisted as integers, so the order of the constants is part of the
// saved-game format and must not change.
type GameState int

const (
	StateInitial GameState = iota
	StateBetting
	StateDealing
	StatePlayerTurn
	StateDealerTurn
	StateGameOver
)

var stateNames = map[GameState]string{
	StateInitial:    "INITIAL",
	StateBetting:    "BETTING",
	StateDealing:    "DEALING",
	StatePlayerTurn: "PLAYER_TURN",
	StateDealerTurn: "DEALER_TURN",
	StateGameOver:   "GAME_OVER",
}

// String returns the string representation of the game state
func (s GameState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsValidGameState reports whether s is a defined state value.
func IsValidGameState(s GameState) bool {
	_, ok := stateNames[s]
	return ok
}

// GameResult is the outcome of a single hand. Persisted as an integer,
// same ordering caveat as GameState.
type GameResult int

const (
	ResultInProgress GameResult = iota
	ResultPlayerWins
	ResultDealerWins
	ResultPush
	ResultPlayerBlackjack
)

var resultNames = map[GameResult]string{
	ResultInProgress:      "IN_PROGRESS",
	ResultPlayerWins:      "PLAYER_WINS",
	ResultDealerWins:      "DEALER_WINS",
	ResultPush:            "PUSH",
	ResultPlayerBlackjack: "PLAYER_BLACKJACK",
}

// String returns the string representation of the result
func (r GameResult) String() string {
	if name, ok := resultNames[r]; ok {
		return name
	}
	return "UNKNOWN"
}

// IsValidGameResult reports whether r is a defined result value.
func IsValidGameResult(r GameResult) bool {
	_, ok := resultNames[r]
	return ok
}

// IsWin returns true if this result represents a win for the player
func (r GameResult) IsWin() bool {
	return r == ResultPlayerWins || r == ResultPlayerBlackjack
}
