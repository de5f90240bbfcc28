package dispatch

// State tracks the lifecycle of a request.
type State uint8

const (
	StateCreated State = iota
	StateSent
	StateActive
	StateCompleted
	StateCancelled
	StateFailed
)

// IsTerminal reports whether no further transition can happen.
func (s State) IsTerminal() bool {
	switch s {
	case StateCompleted, StateCancelled, StateFailed:
		return true
	default:
		return false
	}
}

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateSent:
		return "sent"
	case StateActive:
		return "active"
	case StateCompleted:
		return "completed"
	case StateCancelled:
		return "cancelled"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Kind tells how a request was allocated.
type Kind uint8

const (
	// KindSingleton requests share one transmission per signature.
	KindSingleton Kind = iota + 1
	// KindInstance requests get a fresh correlation id per call.
	KindInstance
)

func (k Kind) String() string {
	switch k {
	case KindSingleton:
		return "singleton"
	case KindInstance:
		return "instance"
	default:
		return "unknown"
	}
}
