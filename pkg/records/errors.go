package records

import "errors"

var (
	// ErrRecordNotFound is returned when no record carries the requested id.
	ErrRecordNotFound = errors.New("record not found")

	// ErrRecordExists is returned when inserting a record whose id is taken.
	ErrRecordExists = errors.New("record already exists")

	// ErrAlreadyNotified is returned by a single-send notification on a record that was already notified.
	ErrAlreadyNotified = errors.New("email already sent once")

	// ErrInvalidRecord is returned when a record is missing required fields.
	ErrInvalidRecord = errors.New("invalid record")

	// ErrDatabaseError is returned when a database operation fails.
	ErrDatabaseError = errors.New("database error")
)
