package coursetest

import "errors"

var (
	// ErrNotFound is returned when a part, test or user does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned for duplicate titles within a part and for
	// uniqueness violations detected by the store at write or commit time.
	ErrConflict = errors.New("conflict")
)
