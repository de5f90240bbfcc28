package exception

import "errors"

// WS errors
var (
	ErrWebSocketProtocol = errors.New("websocket: frame without event")
)
