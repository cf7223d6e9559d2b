package domain

import "errors"

var (
	ErrAlreadyActive   = errors.New("a timer is already running")
	ErrNoActiveEntry   = errors.New("no running timer")
	ErrNoEntryFound    = errors.New("no time entry found")
	ErrInvalidDuration = errors.New("duration must be a positive number of minutes")
	ErrProjectNotOwned = errors.New("project does not belong to user")

	// ErrStoreQuery matches every *StoreError via errors.Is.
	ErrStoreQuery = errors.New("store query failed")
)

// StoreError wraps a failure reported by the entry store.
// Its message is the underlying error text, unchanged.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string { return e.Err.Error() }

func (e *StoreError) Unwrap() error { return e.Err }

func (e *StoreError) Is(target error) bool { return target == ErrStoreQuery }
