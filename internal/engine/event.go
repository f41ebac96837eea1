package engine

import (
	"encoding/json"
	"time"
)

// Push event names.
const (
	EventBotStatus        = "bot_status"
	EventAccountUpdate    = "account_update"
	EventTradesUpdate     = "trades_update"
	EventScreenerUpdate   = "screener_update"
	EventConsoleLog       = "console_log"
	EventConsoleCleared   = "console_cleared"
	EventError            = "error"
	EventSuccess          = "success"
	EventConnectionStatus = "connection_status"

	// EventStatus carries the backend status document used to seed the
	// stores on startup.
	EventStatus = "status"
)

// Event is anything the engine loop processes.
type Event interface {
	isEvent()
}

// Push is one named event from the producer. At is the receipt time.
type Push struct {
	Name string
	Data json.RawMessage
	At   time.Time
}

// Tick refreshes countdowns in the last view.
type Tick struct {
	At time.Time
}

// call runs fn on the engine goroutine and closes done afterwards.
type call struct {
	fn   func()
	done chan struct{}
}

func (Push) isEvent() {}
func (Tick) isEvent() {}
func (call) isEvent() {}
