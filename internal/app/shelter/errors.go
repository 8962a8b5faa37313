package shelter

import (
	"errors"
	"fmt"
)

// ErrInvalidArgument marks a call rejected before reaching the store because a
// required input was empty or absent. Test with errors.Is.
var ErrInvalidArgument = errors.New("invalid argument")

func invalidArgument(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, msg)
}

// ConnectionError is returned by Connect when the store cannot be reached or
// fails its liveness check. It is fatal; the client is never returned.
type ConnectionError struct {
	Target string // redacted connection target (host:port/db)
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("could not connect to MongoDB at %s: %v", e.Target, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// StoreError is returned when a store call fails after validation passed.
type StoreError struct {
	Op  string // create, read, update, delete, register, authenticate
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("shelter %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsConnectionError reports whether err is or wraps a *ConnectionError.
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// IsStoreError reports whether err is or wraps a *StoreError.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
