package exception

import "errors"

// Gateway connection errors
var (
	ErrUnknownEvent    = errors.New("gateway: unknown event")
	ErrConnectionClose = errors.New("gateway: connection closed")
	ErrInvalidArgument = errors.New("gateway: invalid argument")
)
