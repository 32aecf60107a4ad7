package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/plateshare/plateshare/internal/identity"
	"github.com/plateshare/plateshare/internal/metrics"
	"github.com/plateshare/plateshare/internal/model"
)

// bearerToken returns the token of an "Authorization: Bearer" header, or
// "" when there is none.
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// IdentityMiddleware resolves the bearer token into a session and stores
// it in the request context. Requests without a token continue as
// anonymous. An invalid or revoked token is rejected outright.
func IdentityMiddleware(provider identity.Provider, log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session, err := provider.Resolve(r.Context(), bearerToken(r))
			if err != nil {
				log.WithError(err).WithField("remote", r.RemoteAddr).Debug("rejected credential")
				jsonError(w, http.StatusUnauthorized, codeUnauthenticated, "invalid token")
				return
			}
			next.ServeHTTP(w, r.WithContext(identity.WithSession(r.Context(), session)))
		})
	}
}

// RequireIdentity rejects requests whose session has no identity.
func RequireIdentity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := identity.FromContext(r.Context()).Require(); err != nil {
			jsonError(w, http.StatusUnauthorized, codeUnauthenticated, "not authenticated")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// caller returns the identity of an authenticated request. Handlers
// behind RequireIdentity can rely on it.
func caller(r *http.Request) model.Identity {
	who, _ := identity.FromContext(r.Context()).Identity()
	return who
}

// statusRecorder wraps http.ResponseWriter to capture the status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// LoggingMiddleware logs HTTP requests with method, path, status, and duration.
func LoggingMiddleware(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			log.WithFields(logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.RequestURI(),
				"status":      rec.status,
				"duration_ms": time.Since(start).Milliseconds(),
			}).Info("http request")
		})
	}
}

// instrument records request count and latency under a route pattern, so
// ids in the path do not explode label cardinality.
func instrument(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)

		metrics.HTTPRequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(rec.status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	}
}
