package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"github.com/hearthml/hearth/internal/model"
	"github.com/hearthml/hearth/internal/service"
	"github.com/hearthml/hearth/internal/store"
)

// AuthHandler serves the credential lifecycle endpoints: key issuance,
// key-for-token exchange, key listing, and deactivation.
type AuthHandler struct {
	store   *store.Store
	authSvc *service.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(st *store.Store, authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{store: st, authSvc: authSvc}
}

// createKeyRequest is the expected payload for CreateKey.
type createKeyRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// createKeyResponse includes the plaintext key (shown once only).
type createKeyResponse struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Key       string    `json:"key"` // Plaintext, shown ONCE.
	CreatedAt time.Time `json:"created_at"`
	IsActive  bool      `json:"is_active"`
}

// CreateKey issues a new API key and returns the plaintext exactly once.
// POST /api/v1/auth/keys
func (h *AuthHandler) CreateKey(w http.ResponseWriter, r *http.Request) {
	var req createKeyRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeError(w, r, http.StatusBadRequest, "Name is required")
		return
	}
	if utf8.RuneCountInString(name) > 100 {
		writeError(w, r, http.StatusBadRequest, "Name must be at most 100 characters")
		return
	}
	if utf8.RuneCountInString(req.Description) > 500 {
		writeError(w, r, http.StatusBadRequest, "Description must be at most 500 characters")
		return
	}

	key, plaintext, err := h.authSvc.IssueKey(r.Context(), name, req.Description)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to create API key")
		return
	}

	writeJSON(w, http.StatusCreated, createKeyResponse{
		ID:        key.ID,
		Name:      key.Name,
		Key:       plaintext,
		CreatedAt: key.CreatedAt,
		IsActive:  key.IsActive,
	})
}

// tokenRequest is the expected payload for Token.
type tokenRequest struct {
	APIKey string `json:"api_key"`
}

// tokenResponse is the payload for a successful key-for-token exchange.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// Token exchanges a valid API key for a time-boxed session token.
// POST /api/v1/auth/token
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := readJSON(r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.APIKey == "" {
		writeError(w, r, http.StatusBadRequest, "api_key is required")
		return
	}

	key, err := h.authSvc.ValidateKey(r.Context(), req.APIKey)
	if err != nil {
		// A store failure and an unknown key produce the same response;
		// callers learn nothing about which prefixes exist.
		writeError(w, r, http.StatusUnauthorized, "Invalid API key")
		return
	}

	token, expiresIn, err := h.authSvc.IssueToken(key)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   expiresIn,
	})
}

// keyInfo is the metadata view of an API key. It never carries the hash or
// the plaintext.
type keyInfo struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	IsActive    bool            `json:"is_active"`
	IsDeleted   bool            `json:"is_deleted"`
	Status      model.KeyStatus `json:"status"`
}

// ListKeys returns metadata for all non-deleted keys.
// GET /api/v1/auth/keys
func (h *AuthHandler) ListKeys(w http.ResponseWriter, r *http.Request) {
	skip := queryInt(r, "skip", 0)
	if skip < 0 {
		skip = 0
	}
	limit := clampInt(queryInt(r, "limit", 100), 1, 100)

	keys, err := h.store.ListAPIKeys(r.Context(), skip, limit, false)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "Failed to list API keys")
		return
	}

	infos := make([]keyInfo, len(keys))
	for i, k := range keys {
		infos[i] = keyInfo{
			ID:          k.ID,
			Name:        k.Name,
			Description: k.Description,
			CreatedAt:   k.CreatedAt,
			UpdatedAt:   k.UpdatedAt,
			IsActive:    k.IsActive,
			IsDeleted:   k.IsDeleted(),
			Status:      k.Status(),
		}
	}
	writeJSON(w, http.StatusOK, infos)
}

// DeactivateKey revokes an API key. The operation is idempotent for known
// keys; an unknown ID is a 404, not a silent success.
// DELETE /api/v1/auth/keys/{keyID}
func (h *AuthHandler) DeactivateKey(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "keyID")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "Invalid key ID: "+idStr)
		return
	}

	if err := h.store.DeactivateAPIKey(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, r, http.StatusNotFound, "API key not found")
			return
		}
		writeError(w, r, http.StatusInternalServerError, "Failed to deactivate API key")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "API key deactivated",
	})
}
