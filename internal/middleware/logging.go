package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestIdentity is filled in by RequireAuth once the bearer token is
// verified. RequestLogger sits outside the auth middleware, so the ids
// travel back out through this shared carrier instead of the request
// context, which does not propagate upstream.
type requestIdentity struct {
	userID   int64
	coupleID int64
}

type identityKey struct{}

func setIdentity(ctx context.Context, userID, coupleID int64) {
	if id, ok := ctx.Value(identityKey{}).(*requestIdentity); ok {
		id.userID = userID
		id.coupleID = coupleID
	}
}

// RequestLogger logs one line per request: method, path, status, duration,
// client IP, and the authenticated user and couple when known. The level
// follows the response class.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			identity := &requestIdentity{}
			r = r.WithContext(context.WithValue(r.Context(), identityKey{}, identity))

			next.ServeHTTP(rec, r)

			l := logger.With(
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration", time.Since(start),
				"remote", RealIP(r),
			)
			if identity.userID != 0 {
				l = l.With("user_id", identity.userID)
			}
			if identity.coupleID != 0 {
				l = l.With("couple_id", identity.coupleID)
			}

			switch {
			case rec.status >= 500:
				l.Error("request")
			case rec.status >= 400:
				l.Warn("request")
			default:
				l.Info("request")
			}
		})
	}
}
