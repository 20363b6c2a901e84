package api_test

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/growthlab/growthlab-web/internal/platform"
)

func TestBookmarks_RequireAuth(t *testing.T) {
	env := newTestEnv(t)

	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodDelete} {
		rr := env.do(method, "/user/bookmarks?resourceId=r1", "", "")
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%s without token: status = %d, want %d", method, rr.Code, http.StatusUnauthorized)
		}
		rr = env.do(method, "/user/bookmarks?resourceId=r1", "expired", "")
		if rr.Code != http.StatusUnauthorized {
			t.Errorf("%s with bad token: status = %d, want %d", method, rr.Code, http.StatusUnauthorized)
		}
	}
	if n := len(env.Platform.callsTo(platform.EndpointBookmarks)); n != 0 {
		t.Errorf("bookmark calls = %d, want 0", n)
	}
}

func TestListBookmarks_RelaysStatusAndBody(t *testing.T) {
	env := newTestEnv(t)
	env.Platform.handle("GET "+platform.EndpointBookmarks,
		respondJSON(http.StatusOK, `[{"id":"b1","resourceId":"r1","resourceType":"tool"}]`))

	rr := env.do(http.MethodGet, "/user/bookmarks?type=tool", validToken, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	var got []platform.Bookmark
	if err := json.NewDecoder(rr.Body).Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got) != 1 || got[0].ID != "b1" {
		t.Errorf("bookmarks = %+v", got)
	}

	calls := env.Platform.callsTo(platform.EndpointBookmarks)
	if len(calls) != 1 {
		t.Fatalf("bookmark calls = %d, want 1", len(calls))
	}
	if calls[0].Query != "type=tool" {
		t.Errorf("query = %q, want %q", calls[0].Query, "type=tool")
	}
	if calls[0].Auth != "Bearer "+validToken || calls[0].APIKey != "test-key" {
		t.Errorf("credentials = %q / %q", calls[0].Auth, calls[0].APIKey)
	}
}

func TestListBookmarks_RelaysUpstreamFailureStatus(t *testing.T) {
	env := newTestEnv(t)
	env.Platform.handle("GET "+platform.EndpointBookmarks,
		respondJSON(http.StatusServiceUnavailable, `{"error":"maintenance"}`))

	rr := env.do(http.MethodGet, "/user/bookmarks", validToken, "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusServiceUnavailable)
	}
}

func TestListBookmarks_InvalidUpstreamJSON(t *testing.T) {
	env := newTestEnv(t)
	env.Platform.handle("GET "+platform.EndpointBookmarks, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("<html>oops</html>"))
	})

	rr := env.do(http.MethodGet, "/user/bookmarks", validToken, "")
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
	var body map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "Internal server error" {
		t.Errorf("error = %q", body["error"])
	}
	if _, leaked := body["message"]; leaked {
		t.Error("upstream detail must not be returned to the caller")
	}
}

func TestCreateBookmark_ForwardsBody(t *testing.T) {
	env := newTestEnv(t)
	env.Platform.handle("POST "+platform.EndpointBookmarks,
		respondJSON(http.StatusCreated, `{"id":"b2","resourceId":"r2","resourceType":"resource"}`))

	rr := env.do(http.MethodPost, "/user/bookmarks", validToken, `{"resourceId":"r2","resourceType":"resource"}`)
	if rr.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusCreated)
	}
	calls := env.Platform.callsTo(platform.EndpointBookmarks)
	if len(calls) != 1 || calls[0].Body != `{"resourceId":"r2","resourceType":"resource"}` {
		t.Errorf("forwarded = %+v", calls)
	}
}

func TestCreateBookmark_MalformedBody(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodPost, "/user/bookmarks", validToken, `{not json`)
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
	if n := len(env.Platform.callsTo(platform.EndpointBookmarks)); n != 0 {
		t.Errorf("bookmark calls = %d, want 0", n)
	}
}

func TestDeleteBookmark_MissingResourceID(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodDelete, "/user/bookmarks", validToken, "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	var body map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != "Bad Request" || body["message"] != "resourceId is required" {
		t.Errorf("body = %v", body)
	}
	if n := len(env.Platform.callsTo(platform.EndpointBookmarks)); n != 0 {
		t.Errorf("bookmark calls = %d, want 0", n)
	}
}

func TestDeleteBookmark_MirrorsStatus(t *testing.T) {
	env := newTestEnv(t)
	env.Platform.handle("DELETE "+platform.EndpointBookmarks+"/r1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rr := env.do(http.MethodDelete, "/user/bookmarks?resourceId=r1", validToken, "")
	if rr.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusNoContent)
	}

	rr = env.do(http.MethodDelete, "/user/bookmarks?resourceId=missing", validToken, "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusNotFound)
	}
	var body map[string]bool
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["success"] {
		t.Error("success = true for a 404")
	}
}

func TestDeleteBookmark_Success(t *testing.T) {
	env := newTestEnv(t)
	env.Platform.handle("DELETE "+platform.EndpointBookmarks+"/r1", respondJSON(http.StatusOK, `{}`))

	rr := env.do(http.MethodDelete, "/user/bookmarks?resourceId=r1", validToken, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	var body map[string]bool
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body["success"] {
		t.Error("success = false for a 200")
	}
}

func TestDeleteBookmark_PlatformDown(t *testing.T) {
	env := newTestEnv(t, platform.WithHTTPClient(&http.Client{Timeout: time.Second}))
	env.Platform.handle("DELETE "+platform.EndpointBookmarks+"/r1", func(w http.ResponseWriter, r *http.Request) {
		// Drop the connection without a response.
		hj, ok := w.(http.Hijacker)
		if !ok {
			t.Error("response writer cannot hijack")
			return
		}
		conn, _, err := hj.Hijack()
		if err == nil {
			conn.Close()
		}
	})

	rr := env.do(http.MethodDelete, "/user/bookmarks?resourceId=r1", validToken, "")
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
}

func TestProfile_ReturnsResolvedUser(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(http.MethodGet, "/user/profile", validToken, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	var body struct {
		User *platform.User `json:"user"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.User == nil || body.User.ID != "u1" {
		t.Errorf("user = %+v", body.User)
	}
	if n := len(env.Platform.callsTo(platform.EndpointProfile)); n != 1 {
		t.Errorf("profile calls = %d, want 1", n)
	}
}

func TestUpdatePreferences_Validation(t *testing.T) {
	env := newTestEnv(t)
	env.Platform.handle("PUT "+platform.EndpointPreferences, respondJSON(http.StatusOK, `{"theme":"dark"}`))

	rr := env.do(http.MethodPut, "/user/preferences", validToken, `{"theme":"neon"}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("invalid theme: status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	rr = env.do(http.MethodPut, "/user/preferences", validToken, `{"favoriteVerticals":["fintech"]}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("invalid vertical: status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
	if n := len(env.Platform.callsTo(platform.EndpointPreferences)); n != 0 {
		t.Fatalf("preference calls = %d, want 0", n)
	}

	rr = env.do(http.MethodPut, "/user/preferences", validToken, `{"theme":"dark","favoriteVerticals":["edtech"]}`)
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusOK)
	}
	if n := len(env.Platform.callsTo(platform.EndpointPreferences)); n != 1 {
		t.Errorf("preference calls = %d, want 1", n)
	}
}

func TestUpdateProgress_RequiresItemID(t *testing.T) {
	env := newTestEnv(t)
	env.Platform.handle("POST "+platform.EndpointProgress,
		respondJSON(http.StatusOK, `{"itemId":"course-1","status":"started","percent":10}`))

	rr := env.do(http.MethodPost, "/user/progress", validToken, `{"status":"started"}`)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusBadRequest)
	}

	rr = env.do(http.MethodPost, "/user/progress", validToken, `{"itemId":"course-1","status":"started","percent":10}`)
	if rr.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusOK)
	}
}
