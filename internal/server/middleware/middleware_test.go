package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hearthml/hearth/internal/service"
	"github.com/hearthml/hearth/internal/store"
)

// ---------------------------------------------------------------------------
// Request ID
// ---------------------------------------------------------------------------

func TestRequestID_FreshPerRequest(t *testing.T) {
	var captured string
	handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetRequestID(r.Context())
	}))

	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	header := rr.Header().Get("X-Request-ID")
	if header == "" {
		t.Fatal("expected X-Request-ID header")
	}
	if captured != header {
		t.Errorf("context ID %q != header ID %q", captured, header)
	}
	if _, err := uuid.Parse(header); err != nil {
		t.Errorf("request ID %q is not a valid UUID: %v", header, err)
	}

	// A client-supplied ID is never echoed back.
	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "client-chosen-id")
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if got := rr.Header().Get("X-Request-ID"); got == "client-chosen-id" {
		t.Error("client-supplied request ID must not be trusted")
	}
}

func TestGetRequestID_Missing(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if id := GetRequestID(req.Context()); id != "" {
		t.Errorf("GetRequestID = %q, want empty", id)
	}
}

// ---------------------------------------------------------------------------
// Rate limiting
// ---------------------------------------------------------------------------

func TestLimitByIP(t *testing.T) {
	handler := LimitByIP(3, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d, want 200", i, rr.Code)
		}
	}

	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}
}

func TestLimitByIP_SeparateClients(t *testing.T) {
	handler := LimitByIP(1, time.Minute)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("first client: status = %d, want 200", rr.Code)
	}

	// A different IP has its own budget.
	req = httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rr = httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("second client: status = %d, want 200", rr.Code)
	}
}

// ---------------------------------------------------------------------------
// Authentication
// ---------------------------------------------------------------------------

func newAuthMiddleware(t *testing.T) (func(http.Handler) http.Handler, *service.AuthService, *store.Store) {
	t.Helper()
	st, err := store.Open(store.DriverSQLite, "")
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	authSvc := service.NewAuthService(st, service.AuthConfig{JWTSecret: "mw-test-secret"})
	return Authenticate(authSvc), authSvc, st
}

func TestAuthenticate_AttachesPrincipal(t *testing.T) {
	mw, authSvc, _ := newAuthMiddleware(t)

	key, _, err := authSvc.IssueKey(context.Background(), "mw-key", "")
	if err != nil {
		t.Fatalf("IssueKey: %v", err)
	}
	token, _, err := authSvc.IssueToken(key)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	var principal *service.Principal
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal = GetPrincipal(r.Context())
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body = %s", rr.Code, rr.Body.String())
	}
	if principal == nil {
		t.Fatal("expected principal in context")
	}
	if principal.ID != key.ID || principal.Name != "mw-key" {
		t.Errorf("principal = %+v, want ID %d Name mw-key", principal, key.ID)
	}
}

func TestAuthenticate_Rejections(t *testing.T) {
	mw, _, _ := newAuthMiddleware(t)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run for rejected requests")
	}))

	tests := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"not bearer", "Basic dXNlcjpwYXNz"},
		{"garbage token", "Bearer not.a.jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)
			if rr.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rr.Code)
			}
		})
	}
}

func TestGetPrincipal_Missing(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	if p := GetPrincipal(req.Context()); p != nil {
		t.Errorf("GetPrincipal = %+v, want nil", p)
	}
}
