package command

import "errors"

var (
	// ErrUnknownCommand is returned by the factory for names not in the
	// registry.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrInvalidInput is returned if a command is given an input it can't
	// process.
	ErrInvalidInput = errors.New("invalid command input")
	// ErrMissingIntent is returned if a command requiring an intent is
	// built without.
	ErrMissingIntent = errors.New("command requires an intent")
	// ErrAmountTooLow is returned if the input amount doesn't cover the
	// fees, or the intent amount plus fees.
	ErrAmountTooLow = errors.New("input amount too low")
	// ErrMissingNotes is returned if an operation expected to create notes
	// terminated without.
	ErrMissingNotes = errors.New("operation did not return the expected notes")
)
