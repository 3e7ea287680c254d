package planner

import "errors"

var (
	// ErrInvalidReductionRoot is returned if the aggregation tree doesn't end
	// with an aggregation command. It's a defect, not a user error.
	ErrInvalidReductionRoot = errors.New(
		"aggregation tree root does not end with an aggregation command",
	)
	// ErrNetworkMismatch is returned if the intent is not meant to be
	// satisfied on the given network.
	ErrNetworkMismatch = errors.New("intent network does not match")
	// ErrNoEntries is returned if the plan is requested with no entries.
	ErrNoEntries = errors.New("no balance entries to plan with")
)
