package blackjack

import (
	"sync"
	"time"

	"github.com/genchadt/damnsimple-blackjack/pkg/entities"
)

// CardFlipEvent is published whenever a card's face-up state changes:
// on every face-up deal and when the dealer's hole card is revealed.
// Presentation layers subscribe to keep card visuals in sync; the
// engine itself never consumes these events.
type CardFlipEvent struct {
	Card      *entities.Card
	Timestamp time.Time
}

// CardFlipCallback receives flip events. Callbacks run synchronously
// on the game's goroutine and must not call back into the engine.
type CardFlipCallback func(CardFlipEvent)

// EventBus fans flip events out to registered callbacks, delivering
// each event at most once per callback.
type EventBus struct {
	mu        sync.RWMutex
	callbacks []CardFlipCallback
}

// NewEventBus creates a new event bus
func NewEventBus() *EventBus {
	return &EventBus{
		callbacks: make([]CardFlipCallback, 0),
	}
}

// Subscribe registers a callback for future flip events
func (b *EventBus) Subscribe(cb CardFlipCallback) {
	if cb == nil {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.callbacks = append(b.callbacks, cb)
}

// Publish sends a flip event for card to all subscribers
func (b *EventBus) Publish(card *entities.Card) {
	b.mu.RLock()
	callbacks := make([]CardFlipCallback, len(b.callbacks))
	copy(callbacks, b.callbacks)
	b.mu.RUnlock()

	event := CardFlipEvent{
		Card:      card,
		Timestamp: time.Now(),
	}
	for _, cb := range callbacks {
		cb(event)
	}
}
