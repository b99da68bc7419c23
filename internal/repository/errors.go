package repository

import "errors"

// ErrNotFound is returned when a requested record is not found in the
// repository. This abstracts away the underlying storage implementation
// from the service layer.
var ErrNotFound = errors.New("record not found")

// ErrDuplicate is returned when an insert violates a uniqueness invariant,
// e.g. a second evaluation from the same judge for the same sample.
var ErrDuplicate = errors.New("duplicate record")
