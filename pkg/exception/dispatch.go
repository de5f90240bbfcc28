package exception

import "errors"

// Dispatch errors
var (
	// ErrDisconnected is delivered to every live request when the gateway connection drops.
	ErrDisconnected = errors.New("dispatch: gateway disconnected")
	// ErrNotConnected is returned by Send while the dispatch waits for a connected event.
	ErrNotConnected = errors.New("dispatch: not connected")
	// ErrRequestClosed is returned by Send on a request that already reached a terminal state.
	ErrRequestClosed = errors.New("dispatch: request closed")
	// ErrRequestCancelled is delivered to the other subscribers of a request cancelled by one of them.
	ErrRequestCancelled = errors.New("dispatch: request cancelled")
	// ErrKeySuperseded is delivered to a singleton whose addressing key was taken by a newer call.
	ErrKeySuperseded = errors.New("dispatch: addressing key superseded")
	// ErrDuplicateSignature marks a broken registry invariant. It is logged, never returned.
	ErrDuplicateSignature = errors.New("dispatch: duplicate signature")
	// ErrInvalidCall is returned for a call without a send action or a usable key.
	ErrInvalidCall = errors.New("dispatch: invalid call")
	// ErrTransport is the cause of every id-scoped error reported by the gateway.
	ErrTransport = errors.New("dispatch: transport error")
)
