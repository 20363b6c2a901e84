package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/growthlab/growthlab-web/internal/auth"
	"github.com/growthlab/growthlab-web/internal/build"
	"github.com/growthlab/growthlab-web/internal/platform"
)

// newTestRouter builds the full router against a stub platform that knows
// one token ("good-token") and serves community stats.
func newTestRouter(t *testing.T, opts ...platform.Option) http.Handler {
	t.Helper()
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case platform.EndpointProfile:
			if r.Header.Get("Authorization") != "Bearer good-token" {
				w.WriteHeader(http.StatusUnauthorized)
				io.WriteString(w, `{"error":"invalid token"}`)
				return
			}
			io.WriteString(w, `{"id":"u1","email":"a@b.com","name":"Ada Founder","role":"founder"}`)
		case platform.EndpointStats:
			io.WriteString(w, `{"totalMembers":12,"activeMentors":3,"upcomingEvents":1,"forumPosts":40,"resourcesShared":9}`)
		default:
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{"error":"not found"}`)
		}
	}))
	t.Cleanup(upstream.Close)

	client := platform.New(platform.Config{BaseURL: upstream.URL}, opts...)
	return NewRouter(Deps{
		Resolver: auth.NewResolver(client, nil),
		Platform: client,
	})
}

func get(t *testing.T, h http.Handler, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthz(t *testing.T) {
	rr := get(t, newTestRouter(t, platform.WithDegradedMode(true)), "/healthz", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	var body HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.Version != build.Version {
		t.Errorf("body = %+v", body)
	}
	if !body.Degraded {
		t.Error("Degraded = false, want true")
	}
}

func TestWidgetPage_Anonymous(t *testing.T) {
	h := http.Header{}
	h.Set("X-Theme", "dark")
	h.Set("X-Locale", "de")
	rr := get(t, newTestRouter(t), "/widget?embedded=true", h)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
	body := rr.Body.String()
	for _, want := range []string{`data-theme="dark"`, `lang="de"`, `data-embedded="true"`, `data-state="loading"`, "/static/js/widget.js"} {
		if !strings.Contains(body, want) {
			t.Errorf("page is missing %s", want)
		}
	}
	if strings.Contains(body, "Ada Founder") {
		t.Error("anonymous page must not render a user")
	}
}

func TestWidgetPage_Authenticated(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "Bearer good-token")
	rr := get(t, newTestRouter(t), "/widget", h)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	body := rr.Body.String()
	if !strings.Contains(body, "Ada Founder") {
		t.Error("page should render the resolved user")
	}
	if !strings.Contains(body, `data-theme="light"`) {
		t.Error("theme should default to light")
	}
}

func TestWidgetPage_RejectedTokenRendersAnonymous(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "Bearer stale")
	rr := get(t, newTestRouter(t), "/widget", h)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "Ada Founder") {
		t.Error("a rejected token must not render a user")
	}
}

func TestAPIMounted(t *testing.T) {
	r := newTestRouter(t)

	rr := get(t, r, "/api/stats", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("GET /api/stats status = %d, want 200", rr.Code)
	}
	var stats platform.Stats
	if err := json.NewDecoder(rr.Body).Decode(&stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.TotalMembers != 12 {
		t.Errorf("TotalMembers = %d, want 12", stats.TotalMembers)
	}

	rr = get(t, r, "/api/user/profile", nil)
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("GET /api/user/profile status = %d, want 401", rr.Code)
	}
}

func TestSwaggerDocs(t *testing.T) {
	rr := get(t, newTestRouter(t), "/api/docs/doc.json", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "/user/bookmarks") {
		t.Error("doc.json should describe the bookmark routes")
	}
}

func TestStaticAssets(t *testing.T) {
	rr := get(t, newTestRouter(t), "/static/js/widget.js", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "REQUEST_TOKEN") {
		t.Error("widget script should relay REQUEST_TOKEN")
	}
}

// A top-level page opened with ?embedded=true must still open the bridge in
// embedded mode: the page marks itself and the script honours the mark.
func TestWidgetPage_EmbeddedQueryWithoutFrame(t *testing.T) {
	r := newTestRouter(t)

	page := get(t, r, "/widget?embedded=true", nil).Body.String()
	if !strings.Contains(page, `data-embedded="true"`) {
		t.Fatal("page should mark itself embedded from the query")
	}

	script := get(t, r, "/static/js/widget.js", nil).Body.String()
	for _, want := range []string{`root.dataset.embedded === "true"`, `get("embedded") === "true"`, `"?embedded=true"`} {
		if !strings.Contains(script, want) {
			t.Errorf("widget script is missing %s", want)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	rr := get(t, newTestRouter(t), "/metrics", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "go_goroutines") {
		t.Error("metrics output should include the default Go collectors")
	}
}
