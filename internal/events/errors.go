package events

import "errors"

var (
	// ErrInvalidType indicates an event type outside the known set.
	ErrInvalidType = errors.New("invalid event type")
)
