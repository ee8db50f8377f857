package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized             = errors.New("unauthorized")
	ErrOrderNotFound            = errors.New("order not found")
	ErrNoValidItems             = errors.New("no valid items in order payload")
	ErrRepositoryNotImplemented = errors.New("order repository does not implement this operation yet")
)

// InvalidTransitionError carries the from/to pair so the boundary layer
// can surface it in the response details.
type InvalidTransitionError struct {
	From Status
	To   Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid order transition: %s -> %s", e.From, e.To)
}

// InvalidCommissionConfigError rejects a configured platform commission
// percent outside [0,100] or not parseable as a number.
type InvalidCommissionConfigError struct {
	Raw string
}

func (e *InvalidCommissionConfigError) Error() string {
	return fmt.Sprintf("platform commission percent must be a number between 0 and 100, got %q", e.Raw)
}

// StorageCorruptedError tags an unreadable or malformed store file. The
// file store handles it by backing up the bad file and resetting to an
// empty collection; it never reaches callers directly.
type StorageCorruptedError struct {
	Reason string
}

func (e *StorageCorruptedError) Error() string {
	return fmt.Sprintf("order storage corrupted: %s", e.Reason)
}
