package middleware

import (
	"log/slog"
	"net"
	"net/http"

	"github.com/kevinaaaquil/shelf/backend/errs"
	"github.com/kevinaaaquil/shelf/backend/ratelimit"
	"github.com/kevinaaaquil/shelf/backend/render"
)

// KeyFunc picks the bucket a request is charged to.
type KeyFunc func(r *http.Request) string

// ByIP keys on the client address; run chi's RealIP first behind a proxy.
func ByIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// ByUser keys on the authenticated user, falling back to the client address.
func ByUser(r *http.Request) string {
	if id, ok := UserIDFromContext(r.Context()); ok {
		return "user:" + id.Hex()
	}
	return "ip:" + ByIP(r)
}

func RateLimit(l *ratelimit.KeyedLimiter, key KeyFunc, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !l.Allow(key(r)) {
				w.Header().Set("Retry-After", "60")
				render.Error(w, r, logger, errs.ErrRateLimited)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
