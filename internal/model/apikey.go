package model

import "time"

// KeyStatus collapses the active flag and the soft-delete timestamp into a
// single exhaustive state. Deletion always overrides deactivation.
type KeyStatus string

const (
	KeyStatusActive      KeyStatus = "active"
	KeyStatusDeactivated KeyStatus = "deactivated"
	KeyStatusDeleted     KeyStatus = "deleted"
)

// APIKey represents a long-lived credential used to obtain session tokens.
// The raw key is never stored; only a bcrypt hash and a short cleartext
// prefix (used to narrow candidate lookup) are persisted.
type APIKey struct {
	ID          int64      `json:"id" db:"id"`
	Name        string     `json:"name" db:"name"`
	Description string     `json:"description" db:"description"`
	KeyHash     string     `json:"-" db:"key_hash"`            // bcrypt hash, never expose
	KeyPrefix   string     `json:"key_prefix" db:"key_prefix"` // First 8 chars for candidate lookup
	IsActive    bool       `json:"is_active" db:"is_active"`
	DeletedAt   *time.Time `json:"deleted_at,omitempty" db:"deleted_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`
	LastUsed    *time.Time `json:"last_used,omitempty" db:"last_used"`
}

// IsDeleted reports whether the key has been soft-deleted.
func (k *APIKey) IsDeleted() bool {
	return k.DeletedAt != nil
}

// Usable reports whether the key may authenticate requests: it must be
// active and not soft-deleted.
func (k *APIKey) Usable() bool {
	return k.IsActive && k.DeletedAt == nil
}

// Status returns the collapsed lifecycle state of the key.
func (k *APIKey) Status() KeyStatus {
	switch {
	case k.DeletedAt != nil:
		return KeyStatusDeleted
	case !k.IsActive:
		return KeyStatusDeactivated
	default:
		return KeyStatusActive
	}
}
