package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hearthml/hearth/internal/model"
)

// logRow adapts model.PredictionLog for sqlx named queries: the JSON input
// snapshot is bound as a string so both drivers store it as text.
type logRow struct {
	ID             int64     `db:"id"`
	APIKeyID       *int64    `db:"api_key_id"`
	InputFeatures  string    `db:"input_features"`
	PredictedPrice float64   `db:"predicted_price"`
	ResponseTimeMs int64     `db:"response_time_ms"`
	RequestType    string    `db:"request_type"`
	BatchID        *string   `db:"batch_id"`
	CreatedAt      time.Time `db:"created_at"`
}

func logRowFromModel(l *model.PredictionLog) logRow {
	return logRow{
		ID:             l.ID,
		APIKeyID:       l.APIKeyID,
		InputFeatures:  string(l.InputFeatures),
		PredictedPrice: l.PredictedPrice,
		ResponseTimeMs: l.ResponseTimeMs,
		RequestType:    l.RequestType,
		BatchID:        l.BatchID,
		CreatedAt:      l.CreatedAt,
	}
}

func (r logRow) toModel() model.PredictionLog {
	return model.PredictionLog{
		ID:             r.ID,
		APIKeyID:       r.APIKeyID,
		InputFeatures:  []byte(r.InputFeatures),
		PredictedPrice: r.PredictedPrice,
		ResponseTimeMs: r.ResponseTimeMs,
		RequestType:    r.RequestType,
		BatchID:        r.BatchID,
		CreatedAt:      r.CreatedAt,
	}
}

const insertLogQuery = `INSERT INTO prediction_logs
	(api_key_id, input_features, predicted_price, response_time_ms, request_type, batch_id, created_at)
	VALUES
	(:api_key_id, :input_features, :predicted_price, :response_time_ms, :request_type, :batch_id, :created_at)`

// CreatePredictionLog inserts a single audit log entry. The ID and CreatedAt
// fields on log are populated after a successful insert.
func (s *Store) CreatePredictionLog(ctx context.Context, log *model.PredictionLog) error {
	log.CreatedAt = time.Now().UTC()

	row := logRowFromModel(log)
	id, err := s.namedInsert(ctx, insertLogQuery, row)
	if err != nil {
		return fmt.Errorf("insert prediction log: %w", err)
	}
	log.ID = id
	return nil
}

// CreatePredictionLogBatch inserts a set of audit log entries in one
// transaction. Callers set a shared batch_id on every entry beforehand.
func (s *Store) CreatePredictionLogBatch(ctx context.Context, logs []*model.PredictionLog) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	for _, log := range logs {
		log.CreatedAt = now
		row := logRowFromModel(log)
		if _, err := tx.NamedExecContext(ctx, insertLogQuery, row); err != nil {
			return fmt.Errorf("insert prediction log: %w", err)
		}
	}

	return tx.Commit()
}

// GetPredictionLog returns a single log entry by ID.
func (s *Store) GetPredictionLog(ctx context.Context, id int64) (*model.PredictionLog, error) {
	var row logRow
	q := s.rebind("SELECT * FROM prediction_logs WHERE id = ?")
	if err := s.db.GetContext(ctx, &row, q, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get prediction log: %w", err)
	}
	log := row.toModel()
	return &log, nil
}

// ListPredictionLogsByKey returns the log entries for one API key, newest
// first.
func (s *Store) ListPredictionLogsByKey(ctx context.Context, keyID int64, offset, limit int) ([]model.PredictionLog, error) {
	const q = `SELECT * FROM prediction_logs
		WHERE api_key_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`

	var rows []logRow
	if err := s.db.SelectContext(ctx, &rows, s.rebind(q), keyID, limit, offset); err != nil {
		return nil, fmt.Errorf("list prediction logs: %w", err)
	}

	logs := make([]model.PredictionLog, len(rows))
	for i, r := range rows {
		logs[i] = r.toModel()
	}
	return logs, nil
}

// CountPredictionLogsByKey returns the number of log entries for one API key.
func (s *Store) CountPredictionLogsByKey(ctx context.Context, keyID int64) (int64, error) {
	var count int64
	q := s.rebind("SELECT COUNT(*) FROM prediction_logs WHERE api_key_id = ?")
	if err := s.db.GetContext(ctx, &count, q, keyID); err != nil {
		return 0, fmt.Errorf("count prediction logs: %w", err)
	}
	return count, nil
}

// CountPredictionLogs returns the total number of log entries.
func (s *Store) CountPredictionLogs(ctx context.Context) (int64, error) {
	var count int64
	if err := s.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM prediction_logs"); err != nil {
		return 0, fmt.Errorf("count prediction logs: %w", err)
	}
	return count, nil
}
