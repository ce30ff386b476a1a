package store

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when a requested resource does not exist in the store.
var ErrNotFound = errors.New("not found")

// ErrDuplicateHash is returned when an insert collides on the unique
// key_hash constraint. Two distinct random secrets producing the same
// bcrypt hash indicates a generation bug, so callers treat this as fatal.
var ErrDuplicateHash = errors.New("duplicate key hash")

// isUniqueViolation reports whether err is a unique-constraint violation,
// covering both the SQLite and Postgres error texts.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key")
}
