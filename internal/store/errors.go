package store

import "errors"

// Common errors returned by store operations.
//
// These can be checked with errors.Is():
//
//	if errors.Is(err, store.ErrNotFound) {
//	    // record absent, not a failure
//	}
var (
	// ErrUnsupportedProtocol is returned when a datastore URL uses a
	// scheme no registered engine can handle.
	ErrUnsupportedProtocol = errors.New("unsupported database protocol")

	// ErrNotFound is returned by single-record lookups when no row
	// matches.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateEmail is returned when creating a user whose email
	// already exists.
	ErrDuplicateEmail = errors.New("email already exists")
)
