package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/growthlab/growthlab-web/internal/auth"
	"github.com/growthlab/growthlab-web/internal/platform"
)

// DataSourceHeader tells the caller whether a read came from the platform,
// the response cache or the degraded-mode fixtures.
const DataSourceHeader = "X-Data-Source"

// catalogAPIHandler serves the public catalog and community reads through
// the cached client. Signed-in callers get their token forwarded.
type catalogAPIHandler struct {
	platform *platform.Client
	logger   *slog.Logger
}

func registerCatalogRoutes(r chi.Router, deps Deps) {
	h := &catalogAPIHandler{platform: deps.Platform, logger: deps.Logger}
	oa := deps.Resolver.OptionalAuth

	r.Method(http.MethodGet, "/startup-resources/resources", oa(h.ListResources))
	r.Method(http.MethodGet, "/startup-resources/resources/{id}", oa(h.GetResource))
	r.Method(http.MethodGet, "/startup-resources/tools", oa(h.ListTools))
	r.Method(http.MethodGet, "/startup-resources/tools/{id}", oa(h.GetTool))
	r.Method(http.MethodGet, "/search", oa(h.Search))
	r.Method(http.MethodGet, "/stats", oa(h.Stats))
	r.Method(http.MethodGet, "/community/forums/categories", oa(h.ForumCategories))
	r.Method(http.MethodGet, "/community/events", oa(h.Events))
	r.Method(http.MethodGet, "/community/mentors", oa(h.Mentors))
}

func (h *catalogAPIHandler) client(ac *auth.Context) *platform.Client {
	if ac.IsAuthenticated {
		return h.platform.WithToken(ac.Token)
	}
	return h.platform
}

// respond writes a cached-read result, or relays the failure.
func respond[T any](h *catalogAPIHandler, w http.ResponseWriter, r *http.Request, res platform.Result[T], err error) {
	if err != nil {
		writeUpstreamError(w, r, h.logger, err)
		return
	}
	w.Header().Set(DataSourceHeader, string(res.Source))
	writeJSON(w, http.StatusOK, res.Data)
}

func listParams(q url.Values) platform.ListParams {
	featured, _ := strconv.ParseBool(q.Get("featured"))
	return platform.ListParams{
		Category: q.Get("category"),
		Vertical: platform.Vertical(q.Get("vertical")),
		Search:   q.Get("search"),
		Featured: featured,
		Limit:    intParam(q, "limit"),
		Offset:   intParam(q, "offset"),
	}
}

// intParam returns a non-negative integer query parameter, or 0.
func intParam(q url.Values, key string) int {
	n, err := strconv.Atoi(q.Get(key))
	if err != nil || n < 0 {
		return 0
	}
	return n
}

// ListResources lists startup resources.
// GET /api/startup-resources/resources
//
// @Summary      List resources
// @Tags         Catalog
// @Produce      json
// @Param        category  query     string  false  "Category"
// @Param        vertical  query     string  false  "Vertical (edtech, foodtech, proptech)"
// @Param        search    query     string  false  "Free-text filter"
// @Param        featured  query     bool    false  "Only featured resources"
// @Param        limit     query     int     false  "Page size"
// @Param        offset    query     int     false  "Page offset"
// @Success      200       {array}   platform.Resource
// @Header       200       {string}  X-Data-Source  "live, cache or fallback"
// @Failure      500       {object}  ErrorResponse
// @Router       /startup-resources/resources [get]
func (h *catalogAPIHandler) ListResources(w http.ResponseWriter, r *http.Request, ac *auth.Context) {
	if v := platform.Vertical(r.URL.Query().Get("vertical")); v != "" && !v.Valid() {
		writeError(w, http.StatusBadRequest, "Bad Request", "unknown vertical")
		return
	}
	res, err := h.client(ac).Resources(r.Context(), listParams(r.URL.Query()))
	respond(h, w, r, res, err)
}

// GetResource returns one startup resource.
// GET /api/startup-resources/resources/{id}
//
// @Summary      Get a resource
// @Tags         Catalog
// @Produce      json
// @Param        id   path      string  true  "Resource ID"
// @Success      200  {object}  platform.Resource
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /startup-resources/resources/{id} [get]
func (h *catalogAPIHandler) GetResource(w http.ResponseWriter, r *http.Request, ac *auth.Context) {
	res, err := h.client(ac).Resource(r.Context(), chi.URLParam(r, "id"))
	respond(h, w, r, res, err)
}

// ListTools lists startup tools.
// GET /api/startup-resources/tools
//
// @Summary      List tools
// @Tags         Catalog
// @Produce      json
// @Param        category  query     string  false  "Category"
// @Param        vertical  query     string  false  "Vertical (edtech, foodtech, proptech)"
// @Param        search    query     string  false  "Free-text filter"
// @Param        featured  query     bool    false  "Only featured tools"
// @Param        limit     query     int     false  "Page size"
// @Param        offset    query     int     false  "Page offset"
// @Success      200       {array}   platform.Tool
// @Failure      500       {object}  ErrorResponse
// @Router       /startup-resources/tools [get]
func (h *catalogAPIHandler) ListTools(w http.ResponseWriter, r *http.Request, ac *auth.Context) {
	if v := platform.Vertical(r.URL.Query().Get("vertical")); v != "" && !v.Valid() {
		writeError(w, http.StatusBadRequest, "Bad Request", "unknown vertical")
		return
	}
	res, err := h.client(ac).Tools(r.Context(), listParams(r.URL.Query()))
	respond(h, w, r, res, err)
}

// GetTool returns one startup tool.
// GET /api/startup-resources/tools/{id}
//
// @Summary      Get a tool
// @Tags         Catalog
// @Produce      json
// @Param        id   path      string  true  "Tool ID"
// @Success      200  {object}  platform.Tool
// @Failure      404  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /startup-resources/tools/{id} [get]
func (h *catalogAPIHandler) GetTool(w http.ResponseWriter, r *http.Request, ac *auth.Context) {
	res, err := h.client(ac).Tool(r.Context(), chi.URLParam(r, "id"))
	respond(h, w, r, res, err)
}

// Search runs a platform-wide search.
// GET /api/search
//
// @Summary      Search
// @Tags         Catalog
// @Produce      json
// @Param        q      query     string  true   "Query"
// @Param        type   query     string  false  "Result type"
// @Param        limit  query     int     false  "Maximum results"
// @Success      200    {object}  platform.SearchResponse
// @Failure      400    {object}  ErrorResponse
// @Failure      500    {object}  ErrorResponse
// @Router       /search [get]
func (h *catalogAPIHandler) Search(w http.ResponseWriter, r *http.Request, ac *auth.Context) {
	q := r.URL.Query()
	if q.Get("q") == "" {
		writeError(w, http.StatusBadRequest, "Bad Request", "q is required")
		return
	}
	res, err := h.client(ac).Search(r.Context(), platform.SearchParams{
		Query: q.Get("q"),
		Type:  q.Get("type"),
		Limit: intParam(q, "limit"),
	})
	respond(h, w, r, res, err)
}

// Stats returns the community counters.
// GET /api/stats
//
// @Summary      Community stats
// @Tags         Community
// @Produce      json
// @Success      200  {object}  platform.Stats
// @Failure      500  {object}  ErrorResponse
// @Router       /stats [get]
func (h *catalogAPIHandler) Stats(w http.ResponseWriter, r *http.Request, ac *auth.Context) {
	res, err := h.client(ac).Stats(r.Context())
	respond(h, w, r, res, err)
}

// ForumCategories lists forum sections.
// GET /api/community/forums/categories
//
// @Summary      Forum categories
// @Tags         Community
// @Produce      json
// @Success      200  {array}   platform.ForumCategory
// @Failure      500  {object}  ErrorResponse
// @Router       /community/forums/categories [get]
func (h *catalogAPIHandler) ForumCategories(w http.ResponseWriter, r *http.Request, ac *auth.Context) {
	res, err := h.client(ac).ForumCategories(r.Context())
	respond(h, w, r, res, err)
}

// Events lists community events.
// GET /api/community/events
//
// @Summary      Community events
// @Tags         Community
// @Produce      json
// @Param        type      query     string  false  "Event type"
// @Param        upcoming  query     bool    false  "Only upcoming events"
// @Param        limit     query     int     false  "Maximum results"
// @Success      200       {array}   platform.Event
// @Failure      500       {object}  ErrorResponse
// @Router       /community/events [get]
func (h *catalogAPIHandler) Events(w http.ResponseWriter, r *http.Request, ac *auth.Context) {
	q := r.URL.Query()
	upcoming, _ := strconv.ParseBool(q.Get("upcoming"))
	res, err := h.client(ac).Events(r.Context(), platform.EventParams{
		Type:     q.Get("type"),
		Upcoming: upcoming,
		Limit:    intParam(q, "limit"),
	})
	respond(h, w, r, res, err)
}

// Mentors lists the mentor directory.
// GET /api/community/mentors
//
// @Summary      Mentors
// @Tags         Community
// @Produce      json
// @Param        expertise  query     string  false  "Expertise tag"
// @Param        available  query     bool    false  "Availability filter"
// @Param        limit      query     int     false  "Maximum results"
// @Success      200        {array}   platform.Mentor
// @Failure      500        {object}  ErrorResponse
// @Router       /community/mentors [get]
func (h *catalogAPIHandler) Mentors(w http.ResponseWriter, r *http.Request, ac *auth.Context) {
	q := r.URL.Query()
	p := platform.MentorParams{
		Expertise: q.Get("expertise"),
		Limit:     intParam(q, "limit"),
	}
	if v, err := strconv.ParseBool(q.Get("available")); err == nil {
		p.Available = &v
	}
	res, err := h.client(ac).Mentors(r.Context(), p)
	respond(h, w, r, res, err)
}
