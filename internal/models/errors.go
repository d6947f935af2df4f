package models

import (
	"errors"
	"fmt"
)

// Record-level failures. These are recovered locally: the offending record is
// dropped and counted, the cycle keeps going.
var (
	// ErrInvalidPrice marks a malformed American odds value (zero).
	ErrInvalidPrice = errors.New("invalid price")

	// ErrUnresolved marks a source label with no canonical match.
	ErrUnresolved = errors.New("unresolved identity")

	// ErrAmbiguous marks a source label matching more than one canonical
	// entity. Resolution fails instead of guessing.
	ErrAmbiguous = errors.New("ambiguous identity")
)

// AdapterError wraps a source adapter failure (network, timeout, parse).
// It is isolated to one source for one cycle and never aborts the cycle.
type AdapterError struct {
	SourceID string
	Err      error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("adapter %s: %v", e.SourceID, e.Err)
}

func (e *AdapterError) Unwrap() error { return e.Err }

// StoreWriteError wraps a snapshot append failure. Fatal for the cycle that
// produced the snapshot, but prior history stays intact and the cycle is
// retried on the next tick.
type StoreWriteError struct {
	Err error
}

func (e *StoreWriteError) Error() string {
	return fmt.Sprintf("snapshot write: %v", e.Err)
}

func (e *StoreWriteError) Unwrap() error { return e.Err }
