package api_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/growthlab/growthlab-web/internal/api"
	"github.com/growthlab/growthlab-web/internal/auth"
	"github.com/growthlab/growthlab-web/internal/platform"
)

const validToken = "good-token"

// recordedCall is one request the fake platform received.
type recordedCall struct {
	Method string
	Path   string
	Query  string
	Auth   string
	APIKey string
	Body   string
}

// fakePlatform stands in for the remote GrowthLab API. Profile lookups accept
// validToken; every other route is answered by the configured routes map.
type fakePlatform struct {
	srv *httptest.Server

	mu     sync.Mutex
	calls  []recordedCall
	routes map[string]http.HandlerFunc
}

func newFakePlatform(t *testing.T) *fakePlatform {
	t.Helper()
	fp := &fakePlatform{routes: map[string]http.HandlerFunc{}}
	fp.srv = httptest.NewServer(http.HandlerFunc(fp.serve))
	t.Cleanup(fp.srv.Close)
	return fp
}

func (fp *fakePlatform) serve(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	fp.mu.Lock()
	fp.calls = append(fp.calls, recordedCall{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.RawQuery,
		Auth:   r.Header.Get("Authorization"),
		APIKey: r.Header.Get(platform.APIKeyHeader),
		Body:   string(body),
	})
	h, ok := fp.routes[r.Method+" "+r.URL.Path]
	fp.mu.Unlock()

	if r.URL.Path == platform.EndpointProfile && r.Method == http.MethodGet {
		if r.Header.Get("Authorization") != "Bearer "+validToken {
			respondJSON(http.StatusUnauthorized, `{"error":"invalid token"}`)(w, r)
			return
		}
		respondJSON(http.StatusOK, `{"id":"u1","email":"a@b.com","name":"A","role":"founder"}`)(w, r)
		return
	}
	if !ok {
		respondJSON(http.StatusNotFound, `{"error":"not found"}`)(w, r)
		return
	}
	h(w, r)
}

// handle registers a response for "METHOD /path".
func (fp *fakePlatform) handle(route string, h http.HandlerFunc) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.routes[route] = h
}

// callsTo returns the recorded requests whose path starts with prefix.
func (fp *fakePlatform) callsTo(prefix string) []recordedCall {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	var out []recordedCall
	for _, c := range fp.calls {
		if strings.HasPrefix(c.Path, prefix) {
			out = append(out, c)
		}
	}
	return out
}

func respondJSON(status int, body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}
}

type testEnv struct {
	Router   http.Handler
	Platform *fakePlatform
	Cache    *platform.MemoryCache
}

// newTestEnv wires the API router against a fake platform.
func newTestEnv(t *testing.T, opts ...platform.Option) *testEnv {
	t.Helper()
	fp := newFakePlatform(t)
	cache := platform.NewMemoryCache(nil)
	opts = append([]platform.Option{platform.WithCache(cache, 0)}, opts...)
	client := platform.New(platform.Config{BaseURL: fp.srv.URL, APIKey: "test-key"}, opts...)

	router := api.NewAPIRouter(api.Deps{
		Resolver: auth.NewResolver(client, nil),
		Platform: client,
	})
	return &testEnv{Router: router, Platform: fp, Cache: cache}
}

// do performs a request against the API router; a non-empty token is sent as a bearer.
func (e *testEnv) do(method, target, token, body string) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rdr)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.Router.ServeHTTP(rr, req)
	return rr
}
