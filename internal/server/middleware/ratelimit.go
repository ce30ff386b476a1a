package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"
)

// LimitByIP returns an HTTP middleware that limits requests per client IP
// over the given window. Used on the anonymous endpoints (key issuance,
// token exchange); best-effort throttling, not a security boundary.
func LimitByIP(requests int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		requests,
		window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(limitExceeded),
	)
}

// LimitByPrincipal returns an HTTP middleware that limits requests per
// authenticated key over the given window. It must run after Authenticate;
// requests without a principal fall back to the client IP.
func LimitByPrincipal(requests int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		requests,
		window,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			if p := GetPrincipal(r.Context()); p != nil {
				return "key:" + strconv.FormatInt(p.ID, 10), nil
			}
			return httprate.KeyByIP(r)
		}),
		httprate.WithLimitHandler(limitExceeded),
	)
}

func limitExceeded(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusTooManyRequests)
	body := `{"error":{"code":429,"message":"Rate limit exceeded"`
	if id := GetRequestID(r.Context()); id != "" {
		body += `,"request_id":"` + id + `"`
	}
	body += `}}`
	w.Write([]byte(body))
}
