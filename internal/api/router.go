package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/growthlab/growthlab-web/internal/auth"
	"github.com/growthlab/growthlab-web/internal/platform"
)

// Deps holds all dependencies required to build the API router.
type Deps struct {
	Resolver *auth.Resolver
	Platform *platform.Client
	Logger   *slog.Logger
}

// NewAPIRouter creates a chi sub-router for /api. User routes require a
// platform token; catalog and community routes work anonymously.
func NewAPIRouter(deps Deps) chi.Router {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}

	r := chi.NewRouter()
	r.Use(jsonContentType)

	registerUserRoutes(r, deps)
	registerCatalogRoutes(r, deps)

	return r
}

// jsonContentType is a middleware that sets Content-Type: application/json on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
