package dispatch

import "time"

// EventType identifies a request lifecycle event reported to observers.
type EventType uint8

const (
	EventCreated EventType = iota + 1
	EventCoalesced
	EventSent
	EventData
	EventEnd
	EventTerminal
	EventDropped
	EventDisconnect
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventCoalesced:
		return "coalesced"
	case EventSent:
		return "sent"
	case EventData:
		return "data"
	case EventEnd:
		return "end"
	case EventTerminal:
		return "terminal"
	case EventDropped:
		return "dropped"
	case EventDisconnect:
		return "disconnect"
	default:
		return "unknown"
	}
}

// Event is a snapshot of a request at a lifecycle transition.
type Event struct {
	Type      EventType
	Key       Key
	Signature string
	Kind      Kind
	State     State
	// Signal names what was dropped for EventDropped ("data", "end", "error").
	Signal   string
	Payloads int
	TimedOut bool
	Err      error
	Created  time.Time
	Sent     time.Time
	First    time.Time
	At       time.Time
	// Swept is the number of requests failed by EventDisconnect.
	Swept int
}

// Observer receives lifecycle events. Observe is called outside the dispatch
// lock and must not block.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

func (f ObserverFunc) Observe(e Event) {
	f(e)
}
