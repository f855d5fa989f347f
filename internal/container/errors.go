package container

import (
	"errors"
	"fmt"

	"kdvd/internal/catalog"
)

var (
	// ErrManifestUnreadable reports a disc whose manifest is missing or
	// cannot be read. No catalog is produced.
	ErrManifestUnreadable = errors.New("manifest unreadable")
	// ErrInvalidState reports an operation attempted outside the Opened state.
	ErrInvalidState = errors.New("invalid container state")
	// ErrNoAvailableStream reports that the requested tier has no available
	// stream. Callers may retry with another tier.
	ErrNoAvailableStream = catalog.ErrNoAvailableStream
)

// Error kinds reported through ErrorKind.
const (
	KindManifest    = "manifest"
	KindState       = "state"
	KindUnavailable = "unavailable"
)

// Error tags a container failure with its operation and kind.
type Error struct {
	Op   string
	Kind string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("container %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// ErrorKind classifies the failure for status mapping.
func (e *Error) ErrorKind() string { return e.Kind }

// ErrorClassifier is implemented by errors that declare their kind.
type ErrorClassifier interface {
	ErrorKind() string
}

// KindOf returns the kind of err, or "" when err is not classified.
func KindOf(err error) string {
	var classifier ErrorClassifier
	if errors.As(err, &classifier) {
		return classifier.ErrorKind()
	}
	return ""
}

func stateError(op string, state State) error {
	return &Error{Op: op, Kind: KindState, Err: fmt.Errorf("%w: %s", ErrInvalidState, state)}
}
