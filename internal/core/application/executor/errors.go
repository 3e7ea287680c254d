package executor

import "errors"

var (
	// ErrEmptySerial is returned when a serial node has no items.
	ErrEmptySerial = errors.New("serial node must have at least one item")
	// ErrMissingInput is returned when a command is not given any input.
	ErrMissingInput = errors.New("command requires an input")
	// ErrUnknownNode is returned for nodes of unknown kind.
	ErrUnknownNode = errors.New("unknown plan node")
)
