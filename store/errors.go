package store

import "errors"

var (
	// ErrNotFound indicates that the requested record was not found.
	// For freshly created records this may be a read-after-write visibility
	// gap rather than true absence; see the tagging recovery controller.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey indicates a duplicate key violation.
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrStorageClosed indicates that the storage backend is closed.
	ErrStorageClosed = errors.New("storage is closed")

	// ErrSerializationFailed indicates a serialization/deserialization failure.
	ErrSerializationFailed = errors.New("serialization failed")
)
