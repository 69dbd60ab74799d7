package engine

import (
	"errors"
	"fmt"
)

// LimitError explains why an exploration stopped before its queue drained.
//
// The explorer never returns it to callers as a failure: it becomes
// Result.Status and is logged. It is exported so the budget and deadline
// checks can be tested directly.
type LimitError struct {
	// Status is the truncated status the run ends with.
	Status Status

	// Message is a human-readable description.
	Message string

	// Used and Limit quantify the exhausted resource: nodes for the node
	// budget, milliseconds for the deadline. Both are zero for
	// cancellation.
	Used  int
	Limit int

	// Err is the context error for cancellation.
	Err error
}

// Error implements the error interface.
func (e *LimitError) Error() string {
	if e.Limit > 0 {
		return fmt.Sprintf("%s: %s (%d >= %d)", e.Status, e.Message, e.Used, e.Limit)
	}
	return fmt.Sprintf("%s: %s", e.Status, e.Message)
}

func (e *LimitError) Unwrap() error {
	return e.Err
}

// IsLimitError reports whether err is a *LimitError.
// Uses errors.As to handle wrapped errors.
func IsLimitError(err error) bool {
	var le *LimitError
	return errors.As(err, &le)
}
