package listing

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the listing id does not exist.
	ErrNotFound = errors.New("listing not found")
	// ErrNotOwner is returned when the requester does not own the listing.
	// The HTTP layer answers it with the same body as ErrNotFound so that
	// probing ids of other users' listings reveals nothing.
	ErrNotOwner = errors.New("requester does not own listing")
	// ErrProfileMissing is returned by Create when the user has not set up
	// a seller profile yet.
	ErrProfileMissing = errors.New("seller profile missing")
)

// ValidationError reports the field that caused a write to be rejected.
// The attempted mutation is never applied.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}
