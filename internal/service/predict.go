package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/hearthml/hearth/internal/ml"
	"github.com/hearthml/hearth/internal/model"
	"github.com/hearthml/hearth/internal/store"
)

// MaxBatchSize caps the number of houses accepted in one batch prediction.
const MaxBatchSize = 100

// PredictionService runs model inference and records every prediction in
// the audit trail.
type PredictionService struct {
	model *ml.Model
	store *store.Store
}

// NewPredictionService creates a PredictionService. The model is loaded once
// at startup and injected here; it is never reloaded at runtime.
func NewPredictionService(m *ml.Model, st *store.Store) *PredictionService {
	return &PredictionService{model: m, store: st}
}

// round8 matches the 8-decimal rounding of the published price estimates.
func round8(v float64) float64 {
	return math.Round(v*1e8) / 1e8
}

// Predict estimates the price for a single validated feature set and writes
// one audit log entry attributed to keyID.
func (s *PredictionService) Predict(ctx context.Context, f ml.HouseFeatures, keyID int64) (float64, error) {
	start := time.Now()
	price := round8(s.model.Predict(f))
	elapsed := time.Since(start).Milliseconds()

	snapshot, err := json.Marshal(f)
	if err != nil {
		return 0, fmt.Errorf("marshal input snapshot: %w", err)
	}

	entry := &model.PredictionLog{
		APIKeyID:       &keyID,
		InputFeatures:  snapshot,
		PredictedPrice: price,
		ResponseTimeMs: elapsed,
		RequestType:    model.RequestTypeSingle,
	}
	if err := s.store.CreatePredictionLog(ctx, entry); err != nil {
		return 0, fmt.Errorf("record prediction: %w", err)
	}
	return price, nil
}

// PredictBatch estimates prices for up to MaxBatchSize houses and writes the
// audit entries in one transaction, all sharing a generated batch ID.
func (s *PredictionService) PredictBatch(ctx context.Context, fs []ml.HouseFeatures, keyID int64) ([]float64, string, error) {
	if len(fs) == 0 {
		return nil, "", fmt.Errorf("empty batch")
	}
	if len(fs) > MaxBatchSize {
		return nil, "", fmt.Errorf("batch size %d exceeds maximum %d", len(fs), MaxBatchSize)
	}

	start := time.Now()
	prices := make([]float64, len(fs))
	for i, f := range fs {
		prices[i] = round8(s.model.Predict(f))
	}
	elapsed := time.Since(start).Milliseconds()

	batchID := uuid.NewString()
	entries := make([]*model.PredictionLog, len(fs))
	for i, f := range fs {
		snapshot, err := json.Marshal(f)
		if err != nil {
			return nil, "", fmt.Errorf("marshal input snapshot: %w", err)
		}
		entries[i] = &model.PredictionLog{
			APIKeyID:       &keyID,
			InputFeatures:  snapshot,
			PredictedPrice: prices[i],
			ResponseTimeMs: elapsed,
			RequestType:    model.RequestTypeBatch,
			BatchID:        &batchID,
		}
	}
	if err := s.store.CreatePredictionLogBatch(ctx, entries); err != nil {
		return nil, "", fmt.Errorf("record batch predictions: %w", err)
	}
	return prices, batchID, nil
}
