package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/growthlab/growthlab-web/internal/auth"
	"github.com/growthlab/growthlab-web/internal/platform"
)

// userAPIHandler proxies the caller's own platform data. Every route runs
// behind RequireAuth and forwards the caller's token.
type userAPIHandler struct {
	platform *platform.Client
	logger   *slog.Logger
}

// ProfileResponse wraps the signed-in user.
type ProfileResponse struct {
	User *platform.User `json:"user"`
}

// DeleteBookmarkResponse reports whether the platform removed the bookmark.
type DeleteBookmarkResponse struct {
	Success bool `json:"success"`
}

func registerUserRoutes(r chi.Router, deps Deps) {
	h := &userAPIHandler{platform: deps.Platform, logger: deps.Logger}
	ra := deps.Resolver.RequireAuth

	r.Method(http.MethodGet, "/user/profile", ra(h.Profile))
	r.Method(http.MethodGet, "/user/bookmarks", ra(h.ListBookmarks))
	r.Method(http.MethodPost, "/user/bookmarks", ra(h.CreateBookmark))
	r.Method(http.MethodDelete, "/user/bookmarks", ra(h.DeleteBookmark))
	r.Method(http.MethodGet, "/user/preferences", ra(h.GetPreferences))
	r.Method(http.MethodPut, "/user/preferences", ra(h.UpdatePreferences))
	r.Method(http.MethodGet, "/user/progress", ra(h.GetProgress))
	r.Method(http.MethodPost, "/user/progress", ra(h.UpdateProgress))
}

// relay forwards one call with the caller's token and copies the platform's
// status and body. A non-empty body that is not JSON is treated as a failure.
func (h *userAPIHandler) relay(w http.ResponseWriter, r *http.Request, ac *auth.Context, req platform.Request) {
	resp, err := h.platform.WithToken(ac.Token).Do(r.Context(), req)
	if err != nil {
		writeInternal(w, r, h.logger, err)
		return
	}
	if len(bytes.TrimSpace(resp.Body)) > 0 && !json.Valid(resp.Body) {
		writeInternal(w, r, h.logger, &platform.APIError{
			Method: req.Method, Endpoint: req.Endpoint, StatusCode: resp.StatusCode, Body: resp.Body,
		})
		return
	}
	if req.Method != http.MethodGet && resp.OK() {
		if err := h.platform.ClearCache(r.Context()); err != nil {
			h.logger.Warn("platform cache clear failed", "path", r.URL.Path, "error", err)
		}
	}
	writeRaw(w, resp.StatusCode, resp.Body)
}

var errInvalidBody = errors.New("request body is not valid JSON")

// readJSONBody returns the request body when it is well-formed JSON.
func readJSONBody(r *http.Request) ([]byte, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if !json.Valid(body) {
		return nil, errInvalidBody
	}
	return body, nil
}

// Profile returns the signed-in user.
// GET /api/user/profile
//
// @Summary      Current user
// @Description  Returns the platform profile the caller's token belongs to.
// @Tags         User
// @Produce      json
// @Success      200  {object}  ProfileResponse
// @Failure      401  {object}  ErrorResponse
// @Security     BearerToken
// @Router       /user/profile [get]
func (h *userAPIHandler) Profile(w http.ResponseWriter, r *http.Request, ac *auth.Context) {
	writeJSON(w, http.StatusOK, ProfileResponse{User: ac.User})
}

// ListBookmarks relays the caller's bookmarks.
// GET /api/user/bookmarks
//
// @Summary      List bookmarks
// @Description  Relays the platform's bookmark list, optionally filtered by resource type.
// @Tags         Bookmarks
// @Produce      json
// @Param        type  query     string  false  "Resource type"
// @Success      200   {array}   platform.Bookmark
// @Failure      401   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Security     BearerToken
// @Router       /user/bookmarks [get]
func (h *userAPIHandler) ListBookmarks(w http.ResponseWriter, r *http.Request, ac *auth.Context) {
	q := url.Values{}
	if t := r.URL.Query().Get("type"); t != "" {
		q.Set("type", t)
	}
	h.relay(w, r, ac, platform.Request{Method: http.MethodGet, Endpoint: platform.EndpointBookmarks, Query: q})
}

// CreateBookmark relays a new bookmark to the platform.
// POST /api/user/bookmarks
//
// @Summary      Create a bookmark
// @Tags         Bookmarks
// @Accept       json
// @Produce      json
// @Param        body  body      platform.NewBookmark  true  "Bookmark to create"
// @Success      201   {object}  platform.Bookmark
// @Failure      401   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Security     BearerToken
// @Router       /user/bookmarks [post]
func (h *userAPIHandler) CreateBookmark(w http.ResponseWriter, r *http.Request, ac *auth.Context) {
	body, err := readJSONBody(r)
	if err != nil {
		writeInternal(w, r, h.logger, err)
		return
	}
	h.relay(w, r, ac, platform.Request{Method: http.MethodPost, Endpoint: platform.EndpointBookmarks, Body: body})
}

// DeleteBookmark removes the bookmark for ?resourceId=.
// DELETE /api/user/bookmarks
//
// @Summary      Delete a bookmark
// @Description  The response status mirrors the platform's; success is true for any 2xx.
// @Tags         Bookmarks
// @Produce      json
// @Param        resourceId  query     string  true  "Bookmarked resource ID"
// @Success      200         {object}  DeleteBookmarkResponse
// @Failure      400         {object}  ErrorResponse
// @Failure      401         {object}  ErrorResponse
// @Failure      500         {object}  ErrorResponse
// @Security     BearerToken
// @Router       /user/bookmarks [delete]
func (h *userAPIHandler) DeleteBookmark(w http.ResponseWriter, r *http.Request, ac *auth.Context) {
	resourceID := r.URL.Query().Get("resourceId")
	if resourceID == "" {
		writeError(w, http.StatusBadRequest, "Bad Request", "resourceId is required")
		return
	}

	resp, err := h.platform.WithToken(ac.Token).Do(r.Context(), platform.Request{
		Method:   http.MethodDelete,
		Endpoint: platform.EndpointBookmarks + "/" + url.PathEscape(resourceID),
	})
	if err != nil {
		writeInternal(w, r, h.logger, err)
		return
	}
	if resp.OK() {
		if err := h.platform.ClearCache(r.Context()); err != nil {
			h.logger.Warn("platform cache clear failed", "path", r.URL.Path, "error", err)
		}
	}
	writeJSON(w, resp.StatusCode, DeleteBookmarkResponse{Success: resp.OK()})
}

// GetPreferences relays the caller's preferences.
// GET /api/user/preferences
//
// @Summary      Get preferences
// @Tags         User
// @Produce      json
// @Success      200  {object}  platform.Preferences
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Security     BearerToken
// @Router       /user/preferences [get]
func (h *userAPIHandler) GetPreferences(w http.ResponseWriter, r *http.Request, ac *auth.Context) {
	h.relay(w, r, ac, platform.Request{Method: http.MethodGet, Endpoint: platform.EndpointPreferences})
}

// UpdatePreferences validates and relays new preferences.
// PUT /api/user/preferences
//
// @Summary      Update preferences
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        body  body      platform.Preferences  true  "New preferences"
// @Success      200   {object}  platform.Preferences
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Security     BearerToken
// @Router       /user/preferences [put]
func (h *userAPIHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request, ac *auth.Context) {
	var prefs platform.Preferences
	if err := json.NewDecoder(r.Body).Decode(&prefs); err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	if err := prefs.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request", err.Error())
		return
	}
	body, err := json.Marshal(prefs)
	if err != nil {
		writeInternal(w, r, h.logger, err)
		return
	}
	h.relay(w, r, ac, platform.Request{Method: http.MethodPut, Endpoint: platform.EndpointPreferences, Body: body})
}

// GetProgress relays the caller's progress records.
// GET /api/user/progress
//
// @Summary      List progress
// @Tags         User
// @Produce      json
// @Success      200  {array}   platform.Progress
// @Failure      401  {object}  ErrorResponse
// @Failure      500  {object}  ErrorResponse
// @Security     BearerToken
// @Router       /user/progress [get]
func (h *userAPIHandler) GetProgress(w http.ResponseWriter, r *http.Request, ac *auth.Context) {
	h.relay(w, r, ac, platform.Request{Method: http.MethodGet, Endpoint: platform.EndpointProgress})
}

// UpdateProgress relays a progress update.
// POST /api/user/progress
//
// @Summary      Record progress
// @Tags         User
// @Accept       json
// @Produce      json
// @Param        body  body      platform.ProgressUpdate  true  "Progress update"
// @Success      200   {object}  platform.Progress
// @Failure      400   {object}  ErrorResponse
// @Failure      401   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Security     BearerToken
// @Router       /user/progress [post]
func (h *userAPIHandler) UpdateProgress(w http.ResponseWriter, r *http.Request, ac *auth.Context) {
	var u platform.ProgressUpdate
	if err := json.NewDecoder(r.Body).Decode(&u); err != nil {
		writeError(w, http.StatusBadRequest, "Bad Request", "invalid request body")
		return
	}
	if u.ItemID == "" {
		writeError(w, http.StatusBadRequest, "Bad Request", "itemId is required")
		return
	}
	body, err := json.Marshal(u)
	if err != nil {
		writeInternal(w, r, h.logger, err)
		return
	}
	h.relay(w, r, ac, platform.Request{Method: http.MethodPost, Endpoint: platform.EndpointProgress, Body: body})
}
