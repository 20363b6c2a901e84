package handler

import (
	"io/fs"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/growthlab/growthlab-web/docs/swagger"
	"github.com/growthlab/growthlab-web/internal/api"
	"github.com/growthlab/growthlab-web/internal/auth"
	"github.com/growthlab/growthlab-web/internal/platform"
	"github.com/growthlab/growthlab-web/web"
)

// Deps holds all dependencies required to build the HTTP router.
type Deps struct {
	Resolver *auth.Resolver
	Platform *platform.Client
	Bridge   http.Handler
	Logger   *slog.Logger
}

// NewRouter assembles the full chi router with all middleware and routes.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	// fs.Sub so the file server sees js/widget.js rather than static/js/....
	staticSub, err := fs.Sub(web.StaticFS, "static")
	if err != nil {
		panic("failed to sub static FS: " + err.Error())
	}
	r.Handle("/static/*", http.StripPrefix("/static", http.FileServer(http.FS(staticSub))))

	r.Get("/healthz", healthz(deps.Platform.DegradedMode()))
	r.Handle("/metrics", promhttp.Handler())

	widget := NewWidgetHandler()
	r.Method(http.MethodGet, "/widget", deps.Resolver.OptionalAuth(widget.Show))
	if deps.Bridge != nil {
		r.Handle("/widget/bridge", deps.Bridge)
	}

	// Swagger UI must be registered before the /api mount.
	r.Get("/api/docs/*", httpSwagger.WrapHandler)

	r.Mount("/api", api.NewAPIRouter(api.Deps{
		Resolver: deps.Resolver,
		Platform: deps.Platform,
		Logger:   deps.Logger,
	}))

	return r
}
