package eventbus

import "errors"

var (
	ErrEventBusNotStarted       = errors.New("event bus not started")
	ErrEventBusShutdownTimedOut = errors.New("event bus shutdown timed out")
	ErrEventHandlerNil          = errors.New("event handler cannot be nil")
	ErrInvalidSubscriptionType  = errors.New("invalid subscription type")
)
