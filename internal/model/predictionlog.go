package model

import (
	"encoding/json"
	"time"
)

// Request types recorded on prediction log entries.
const (
	RequestTypeSingle = "single"
	RequestTypeBatch  = "batch"
)

// PredictionLog records a single prediction for the audit trail. The key
// reference is nullable: hard-deleting a key nullifies api_key_id instead of
// cascading, so audit history outlives the credential.
type PredictionLog struct {
	ID             int64           `json:"id" db:"id"`
	APIKeyID       *int64          `json:"api_key_id" db:"api_key_id"`
	InputFeatures  json.RawMessage `json:"input_features" db:"input_features"`
	PredictedPrice float64         `json:"predicted_price" db:"predicted_price"`
	ResponseTimeMs int64           `json:"response_time_ms" db:"response_time_ms"`
	RequestType    string          `json:"request_type" db:"request_type"`
	BatchID        *string         `json:"batch_id,omitempty" db:"batch_id"`
	CreatedAt      time.Time       `json:"created_at" db:"created_at"`
}
