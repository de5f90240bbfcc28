package gateway

import (
	"ibgw/internal/dispatch"
)

// Signal is what an inbound event means for its request.
type Signal uint8

const (
	SignalNone Signal = iota
	SignalData
	SignalEnd
	SignalError
	SignalConnected
	SignalDisconnected
)

func (s Signal) String() string {
	switch s {
	case SignalData:
		return "data"
	case SignalEnd:
		return "end"
	case SignalError:
		return "error"
	case SignalConnected:
		return "connected"
	case SignalDisconnected:
		return "disconnected"
	default:
		return "none"
	}
}

// Route is the classification of one inbound event.
type Route struct {
	Key     dispatch.Key
	Signal  Signal
	Payload any
	Err     error
	// SeedID raises the correlation id allocator before the payload is routed.
	SeedID uint64
}

// Streams with a fixed name instead of a correlation id.
const (
	StreamSystem            = "system"
	StreamCurrentTime       = "currentTime"
	StreamScannerParameters = "scannerParameters"
	StreamManagedAccounts   = "managedAccounts"
	StreamReceiveFA         = "receiveFA"
	StreamAccountUpdates    = "accountUpdates"
	StreamPositions         = "positions"
	StreamOrders            = "orders"
	StreamOrderID           = "orderId"
	StreamCommissions       = "commissions"
	StreamNews              = "news"
)

func idKey(id int64) dispatch.Key {
	if id <= 0 {
		return dispatch.Numeric(0)
	}
	return dispatch.Numeric(uint64(id))
}

func data(key dispatch.Key, payload any) Route {
	return Route{Key: key, Signal: SignalData, Payload: payload}
}

func end(key dispatch.Key) Route {
	return Route{Key: key, Signal: SignalEnd}
}

func stream(name string) dispatch.Key {
	return dispatch.Symbolic(name)
}
