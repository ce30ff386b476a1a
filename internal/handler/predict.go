package handler

import (
	"fmt"
	"net/http"

	"github.com/hearthml/hearth/internal/ml"
	"github.com/hearthml/hearth/internal/server/middleware"
	"github.com/hearthml/hearth/internal/service"
	"github.com/hearthml/hearth/internal/telemetry"
)

// PredictHandler serves the price prediction endpoints.
type PredictHandler struct {
	predictions *service.PredictionService
	metrics     *telemetry.Metrics
}

// NewPredictHandler creates a new PredictHandler.
func NewPredictHandler(predictions *service.PredictionService, metrics *telemetry.Metrics) *PredictHandler {
	return &PredictHandler{predictions: predictions, metrics: metrics}
}

type predictResponse struct {
	PredictedPrice float64 `json:"predicted_price"`
	Currency       string  `json:"currency"`
}

// Predict scores a single house and returns the predicted price in USD.
// POST /api/v1/predict
func (h *PredictHandler) Predict(w http.ResponseWriter, r *http.Request) {
	var features ml.HouseFeatures
	if err := readJSON(r, &features); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := features.Validate(); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		writeError(w, r, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	price, err := h.predictions.Predict(r.Context(), features, principal.ID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Prediction failed")
		return
	}
	h.metrics.ObservePredictions("single", 1)

	writeJSON(w, http.StatusOK, predictResponse{
		PredictedPrice: price,
		Currency:       "USD",
	})
}

type batchPredictRequest struct {
	Houses []ml.HouseFeatures `json:"houses"`
}

type batchPredictResponse struct {
	Predictions []float64 `json:"predictions"`
	Count       int       `json:"count"`
	BatchID     string    `json:"batch_id"`
}

// PredictBatch scores up to MaxBatchSize houses in one call. All rows are
// validated before any scoring happens, so a bad row rejects the whole batch.
// POST /api/v1/predict/batch
func (h *PredictHandler) PredictBatch(w http.ResponseWriter, r *http.Request) {
	var req batchPredictRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(req.Houses) == 0 {
		writeError(w, r, http.StatusBadRequest, "Batch must contain at least one house")
		return
	}
	if len(req.Houses) > service.MaxBatchSize {
		writeError(w, r, http.StatusBadRequest, "Batch size exceeds the maximum of 100 houses")
		return
	}
	for i, features := range req.Houses {
		if err := features.Validate(); err != nil {
			writeError(w, r, http.StatusBadRequest, fmt.Sprintf("House %d: %v", i, err))
			return
		}
	}

	principal := middleware.GetPrincipal(r.Context())
	if principal == nil {
		writeError(w, r, http.StatusUnauthorized, "Could not validate credentials")
		return
	}

	prices, batchID, err := h.predictions.PredictBatch(r.Context(), req.Houses, principal.ID)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Batch prediction failed")
		return
	}
	h.metrics.ObservePredictions("batch", len(prices))

	writeJSON(w, http.StatusOK, batchPredictResponse{
		Predictions: prices,
		Count:       len(prices),
		BatchID:     batchID,
	})
}
