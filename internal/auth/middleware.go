package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/growthlab/growthlab-web/internal/metrics"
	"github.com/growthlab/growthlab-web/internal/platform"
)

type contextKey string

const authContextKey contextKey = "auth"

// ProfileFetcher looks up the platform user a token belongs to.
type ProfileFetcher interface {
	ProfileForToken(ctx context.Context, token string) (*platform.User, error)
}

// HandlerFunc is an http.HandlerFunc that also receives the resolved caller.
type HandlerFunc func(w http.ResponseWriter, r *http.Request, ac *Context)

// Resolver builds a Context for each inbound request.
type Resolver struct {
	profiles ProfileFetcher
	logger   *slog.Logger
}

// NewResolver creates a Resolver. A nil logger uses slog.Default.
func NewResolver(pf ProfileFetcher, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{profiles: pf, logger: logger}
}

// Resolve inspects r and, when it carries a token, verifies it with exactly one
// profile lookup. A failed lookup leaves the caller anonymous but keeps the token.
func (res *Resolver) Resolve(r *http.Request) *Context {
	ac := &Context{
		Token:      ExtractToken(r),
		IsEmbedded: IsEmbedded(r),
		Platform:   PlatformContextFrom(r),
	}
	if ac.Token == "" {
		metrics.AuthResolutionsTotal.WithLabelValues("anonymous").Inc()
		return ac
	}

	user, err := res.profiles.ProfileForToken(r.Context(), ac.Token)
	if err != nil {
		outcome := "error"
		if errors.Is(err, platform.ErrUnauthorized) {
			outcome = "rejected"
		} else {
			res.logger.Warn("token verification failed", "path", r.URL.Path, "error", err)
		}
		metrics.AuthResolutionsTotal.WithLabelValues(outcome).Inc()
		return ac
	}

	ac.User = user
	ac.IsAuthenticated = user != nil
	metrics.AuthResolutionsTotal.WithLabelValues("authenticated").Inc()
	return ac
}

// RequireAuth responds 401 to callers that are not signed in, whatever the
// method, and otherwise calls h.
func (res *Resolver) RequireAuth(h HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac := res.Resolve(r)
		if !ac.IsAuthenticated {
			writeUnauthorized(w)
			return
		}
		h(w, r.WithContext(NewContext(r.Context(), ac)), ac)
	})
}

// OptionalAuth always calls h, with whatever caller could be resolved.
func (res *Resolver) OptionalAuth(h HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac := res.Resolve(r)
		h(w, r.WithContext(NewContext(r.Context(), ac)), ac)
	})
}

// NewContext returns a copy of ctx carrying ac.
func NewContext(ctx context.Context, ac *Context) context.Context {
	return context.WithValue(ctx, authContextKey, ac)
}

// FromContext returns the caller stored by RequireAuth or OptionalAuth, or nil.
func FromContext(ctx context.Context) *Context {
	ac, _ := ctx.Value(authContextKey).(*Context)
	return ac
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   "Unauthorized",
		"message": "Authentication required",
	})
}
