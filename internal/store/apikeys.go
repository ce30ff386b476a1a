package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hearthml/hearth/internal/model"
)

// CreateAPIKey inserts a new API key record. The key_hash and key_prefix
// must already be set by the issuer. The ID, CreatedAt, and UpdatedAt fields
// on key are populated after a successful insert. A collision on the unique
// key_hash constraint returns ErrDuplicateHash.
func (s *Store) CreateAPIKey(ctx context.Context, key *model.APIKey) error {
	now := time.Now().UTC()
	key.CreatedAt = now
	key.UpdatedAt = now

	const q = `INSERT INTO api_keys
		(name, description, key_hash, key_prefix, is_active, deleted_at, created_at, updated_at, last_used)
		VALUES
		(:name, :description, :key_hash, :key_prefix, :is_active, :deleted_at, :created_at, :updated_at, :last_used)`

	id, err := s.namedInsert(ctx, q, key)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateHash
		}
		return fmt.Errorf("insert api key: %w", err)
	}
	key.ID = id
	return nil
}

// GetAPIKey returns an API key by ID, including soft-deleted rows. Callers
// that authenticate must check Usable() themselves.
func (s *Store) GetAPIKey(ctx context.Context, id int64) (*model.APIKey, error) {
	var key model.APIKey
	q := s.rebind("SELECT * FROM api_keys WHERE id = ?")
	if err := s.db.GetContext(ctx, &key, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get api key: %w", err)
	}
	return &key, nil
}

// ListAPIKeys returns API keys ordered by ID. Soft-deleted rows are excluded
// unless includeDeleted is set.
func (s *Store) ListAPIKeys(ctx context.Context, offset, limit int, includeDeleted bool) ([]model.APIKey, error) {
	q := "SELECT * FROM api_keys"
	if !includeDeleted {
		q += " WHERE deleted_at IS NULL"
	}
	q += " ORDER BY id LIMIT ? OFFSET ?"

	var keys []model.APIKey
	if err := s.db.SelectContext(ctx, &keys, s.rebind(q), limit, offset); err != nil {
		return nil, fmt.Errorf("list api keys: %w", err)
	}
	return keys, nil
}

// FindUsableKeysByPrefix returns the candidate set for key validation: all
// active, non-deleted keys whose cleartext prefix matches. Ordered by ID for
// determinism; order affects only which candidate is hashed first, never the
// validation outcome.
func (s *Store) FindUsableKeysByPrefix(ctx context.Context, prefix string) ([]model.APIKey, error) {
	const q = `SELECT * FROM api_keys
		WHERE key_prefix = ? AND is_active = ? AND deleted_at IS NULL
		ORDER BY id`

	var keys []model.APIKey
	if err := s.db.SelectContext(ctx, &keys, s.rebind(q), prefix, true); err != nil {
		return nil, fmt.Errorf("find keys by prefix: %w", err)
	}
	return keys, nil
}

// DeactivateAPIKey sets is_active to false. Deactivating an already-inactive
// key succeeds (the operation is idempotent); an unknown ID returns
// ErrNotFound.
func (s *Store) DeactivateAPIKey(ctx context.Context, id int64) error {
	q := s.rebind("UPDATE api_keys SET is_active = ?, updated_at = ? WHERE id = ?")
	result, err := s.db.ExecContext(ctx, q, false, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("deactivate api key: %w", err)
	}
	return checkAffected(result)
}

// DeleteAPIKey removes an API key. Soft deletion (hard=false) stamps
// deleted_at and keeps the row; hard deletion removes it physically, which
// nullifies api_key_id on dependent prediction_logs rows via the SET NULL
// foreign key, so the audit trail survives.
func (s *Store) DeleteAPIKey(ctx context.Context, id int64, hard bool) error {
	if hard {
		result, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM api_keys WHERE id = ?"), id)
		if err != nil {
			return fmt.Errorf("delete api key: %w", err)
		}
		return checkAffected(result)
	}

	now := time.Now().UTC()
	q := s.rebind("UPDATE api_keys SET deleted_at = ?, updated_at = ? WHERE id = ?")
	result, err := s.db.ExecContext(ctx, q, now, now, id)
	if err != nil {
		return fmt.Errorf("soft delete api key: %w", err)
	}
	return checkAffected(result)
}

// RestoreAPIKey clears deleted_at on a soft-deleted key. Returns ErrNotFound
// if the key does not exist or is not currently soft-deleted.
func (s *Store) RestoreAPIKey(ctx context.Context, id int64) error {
	q := s.rebind("UPDATE api_keys SET deleted_at = NULL, updated_at = ? WHERE id = ? AND deleted_at IS NOT NULL")
	result, err := s.db.ExecContext(ctx, q, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("restore api key: %w", err)
	}
	return checkAffected(result)
}

// TouchAPIKeyLastUsed updates the last_used timestamp after a successful
// validation. Best-effort; callers typically fire and forget.
func (s *Store) TouchAPIKeyLastUsed(ctx context.Context, id int64) error {
	q := s.rebind("UPDATE api_keys SET last_used = ? WHERE id = ?")
	if _, err := s.db.ExecContext(ctx, q, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("touch api key last used: %w", err)
	}
	return nil
}

func checkAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
