// Package middleware implements the request-entry pipeline as net/http
// middleware: credential check, workspace resolution, and a
// per-credential rate limit, in the style of a token-bucket pkg/auth rate
// limiter shape but backed by the real golang.org/x/time/rate token
// bucket instead of a hand-rolled one.
package middleware

import (
	"context"
	"net/http"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"memento/internal/apperr"
	"memento/internal/auth"
	"memento/internal/model"
	"memento/internal/workspacemgr"
)

type contextKey string

const (
	userKey       contextKey = "memento_user"
	credentialKey contextKey = "memento_credential"
	handleKey     contextKey = "memento_handle"
	peeksKey      contextKey = "memento_peek_names"
)

// UserFromContext returns the authenticated user attached by Authenticate.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	u, ok := ctx.Value(userKey).(*model.User)
	return u, ok
}

// HandleFromContext returns the resolved workspace handle for this request.
func HandleFromContext(ctx context.Context) (*workspacemgr.Handle, bool) {
	h, ok := ctx.Value(handleKey).(*workspacemgr.Handle)
	return h, ok
}

// PeekNamesFromContext returns the peek workspace names parsed from the
// request header, for handlers (like /context) that also accept a body
// field and need to merge the two sources.
func PeekNamesFromContext(ctx context.Context) []string {
	names, _ := ctx.Value(peeksKey).([]string)
	return names
}

// limiterSet hands out one token bucket per credential, lazily created.
// Each credential gets 100 requests/minute with a burst of 20.
type limiterSet struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func newLimiterSet() *limiterSet {
	return &limiterSet{limiters: make(map[string]*rate.Limiter)}
}

func (s *limiterSet) allow(key string) bool {
	s.mu.Lock()
	l, ok := s.limiters[key]
	if !ok {
		l = rate.NewLimiter(rate.Limit(100.0/60.0), 20)
		s.limiters[key] = l
	}
	s.mu.Unlock()
	return l.Allow()
}

// Authenticate builds the middleware that runs the full auth pipeline for
// every request: credential check, workspace resolve-or-create, and peek
// resolution (parsed here, actually opened lazily by handlers that need
// it, since not every route fans out to peers).
func Authenticate(resolver *auth.Resolver, wsmgr *workspacemgr.Manager, logger *zap.Logger) func(http.Handler) http.Handler {
	limiters := newLimiterSet()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := bearerToken(r)
			if raw == "" {
				writeUnauthorized(w, "missing or malformed Authorization header")
				return
			}
			if !limiters.allow(raw) {
				writeJSONErr(w, http.StatusTooManyRequests, apperr.TypeRateLimit, "rate limit exceeded")
				return
			}

			_, user, err := resolver.Authenticate(r.Context(), raw)
			if err != nil {
				writeAppErr(w, logger, err)
				return
			}

			ws, err := resolver.ResolveWorkspace(r.Context(), user, r.Header.Get("X-Memento-Workspace"))
			if err != nil {
				writeAppErr(w, logger, err)
				return
			}

			handle, err := wsmgr.Open(r.Context(), ws)
			if err != nil {
				writeAppErr(w, logger, err)
				return
			}

			peekNames := auth.ParsePeekHeader(r.Header.Get("X-Memento-Peek-Workspaces"))

			ctx := context.WithValue(r.Context(), userKey, user)
			ctx = context.WithValue(ctx, handleKey, handle)
			ctx = context.WithValue(ctx, peeksKey, peekNames)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if h == "" {
		return ""
	}
	parts := strings.SplitN(h, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	writeJSONErr(w, http.StatusUnauthorized, apperr.TypeUnauthorized, message)
}

func writeAppErr(w http.ResponseWriter, logger *zap.Logger, err error) {
	ae, ok := apperr.As(err)
	if !ok {
		logger.Error("unhandled auth error", zap.Error(err))
		writeJSONErr(w, http.StatusInternalServerError, apperr.TypeInternal, "internal error")
		return
	}
	writeJSONErr(w, ae.HTTPStatus, ae.Type, ae.Message)
}

func writeJSONErr(w http.ResponseWriter, status int, t apperr.Type, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":"` + string(t) + `","message":"` + escapeQuotes(message) + `"}`))
}

func escapeQuotes(s string) string {
	return strings.ReplaceAll(s, `"`, `'`)
}
