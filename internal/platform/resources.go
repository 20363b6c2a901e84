package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Platform endpoints consumed by this service.
const (
	EndpointVerify          = "/api/auth/verify"
	EndpointProfile         = "/api/user/profile"
	EndpointPreferences     = "/api/user/preferences"
	EndpointBookmarks       = "/api/user/bookmarks"
	EndpointProgress        = "/api/user/progress"
	EndpointResources       = "/api/startup-resources/resources"
	EndpointTools           = "/api/startup-resources/tools"
	EndpointSearch          = "/api/search"
	EndpointStats           = "/api/stats"
	EndpointForumCategories = "/api/community/forums/categories"
	EndpointEvents          = "/api/community/events"
	EndpointMentors         = "/api/community/mentors"
)

// ListParams filters the resource and tool catalogs.
type ListParams struct {
	Category string
	Vertical Vertical
	Search   string
	Featured bool
	Limit    int
	Offset   int
}

func (p ListParams) values() url.Values {
	q := url.Values{}
	setString(q, "category", p.Category)
	setString(q, "vertical", string(p.Vertical))
	setString(q, "search", p.Search)
	if p.Featured {
		q.Set("featured", "true")
	}
	setInt(q, "limit", p.Limit)
	setInt(q, "offset", p.Offset)
	return q
}

// EventParams filters community events.
type EventParams struct {
	Type     string
	Upcoming bool
	Limit    int
}

func (p EventParams) values() url.Values {
	q := url.Values{}
	setString(q, "type", p.Type)
	if p.Upcoming {
		q.Set("upcoming", "true")
	}
	setInt(q, "limit", p.Limit)
	return q
}

// MentorParams filters the mentor directory. A nil Available means "any".
type MentorParams struct {
	Expertise string
	Available *bool
	Limit     int
}

func (p MentorParams) values() url.Values {
	q := url.Values{}
	setString(q, "expertise", p.Expertise)
	if p.Available != nil {
		q.Set("available", strconv.FormatBool(*p.Available))
	}
	setInt(q, "limit", p.Limit)
	return q
}

// SearchParams is a platform-wide search query.
type SearchParams struct {
	Query string
	Type  string
	Limit int
}

func (p SearchParams) values() url.Values {
	q := url.Values{}
	setString(q, "q", p.Query)
	setString(q, "type", p.Type)
	setInt(q, "limit", p.Limit)
	return q
}

func setString(q url.Values, key, v string) {
	if v != "" {
		q.Set(key, v)
	}
}

func setInt(q url.Values, key string, v int) {
	if v > 0 {
		q.Set(key, strconv.Itoa(v))
	}
}

// Profile returns the user the client's token belongs to.
func (c *Client) Profile(ctx context.Context) (*User, error) {
	var raw json.RawMessage
	if err := c.call(ctx, http.MethodGet, EndpointProfile, nil, &raw); err != nil {
		return nil, err
	}
	return decodeUser(raw)
}

// ProfileForToken is Profile for an explicit token.
func (c *Client) ProfileForToken(ctx context.Context, token string) (*User, error) {
	return c.WithToken(token).Profile(ctx)
}

// VerifyToken asks the platform whether the client's token is valid.
func (c *Client) VerifyToken(ctx context.Context) (*User, error) {
	var resp struct {
		Valid bool            `json:"valid"`
		User  json.RawMessage `json:"user"`
	}
	if err := c.call(ctx, http.MethodGet, EndpointVerify, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.Valid {
		return nil, ErrUnauthorized
	}
	if len(resp.User) == 0 {
		return nil, nil
	}
	return decodeUser(resp.User)
}

// decodeUser accepts a bare user object or one wrapped as {"user": ...}.
func decodeUser(raw json.RawMessage) (*User, error) {
	var env struct {
		User *User `json:"user"`
	}
	if err := json.Unmarshal(raw, &env); err == nil && env.User != nil {
		if err := env.User.Validate(); err != nil {
			return nil, fmt.Errorf("platform: profile: %w", err)
		}
		return env.User, nil
	}

	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("platform: decode profile: %w", err)
	}
	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("platform: profile: %w", err)
	}
	return &u, nil
}

// Preferences returns the caller's stored preferences.
func (c *Client) Preferences(ctx context.Context) (*Preferences, error) {
	var p Preferences
	if err := c.call(ctx, http.MethodGet, EndpointPreferences, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdatePreferences validates and stores p.
func (c *Client) UpdatePreferences(ctx context.Context, p Preferences) (*Preferences, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	var out Preferences
	if err := c.call(ctx, http.MethodPut, EndpointPreferences, p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Bookmarks lists the caller's bookmarks, optionally filtered by resource type.
func (c *Client) Bookmarks(ctx context.Context, resourceType string) (Result[[]Bookmark], error) {
	q := url.Values{}
	setString(q, "type", resourceType)
	return fetchAs[[]Bookmark](ctx, c, EndpointBookmarks, q)
}

// AddBookmark creates a bookmark.
func (c *Client) AddBookmark(ctx context.Context, b NewBookmark) (*Bookmark, error) {
	var out Bookmark
	if err := c.call(ctx, http.MethodPost, EndpointBookmarks, b, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RemoveBookmark deletes the bookmark for resourceID.
func (c *Client) RemoveBookmark(ctx context.Context, resourceID string) error {
	return c.call(ctx, http.MethodDelete, EndpointBookmarks+"/"+url.PathEscape(resourceID), nil, nil)
}

// Resources lists the startup resource catalog.
func (c *Client) Resources(ctx context.Context, p ListParams) (Result[[]Resource], error) {
	return fetchAs[[]Resource](ctx, c, EndpointResources, p.values())
}

// Resource returns one catalog resource.
func (c *Client) Resource(ctx context.Context, id string) (Result[Resource], error) {
	return fetchAs[Resource](ctx, c, EndpointResources+"/"+url.PathEscape(id), nil)
}

// Tools lists the startup tool catalog.
func (c *Client) Tools(ctx context.Context, p ListParams) (Result[[]Tool], error) {
	return fetchAs[[]Tool](ctx, c, EndpointTools, p.values())
}

// Tool returns one catalog tool.
func (c *Client) Tool(ctx context.Context, id string) (Result[Tool], error) {
	return fetchAs[Tool](ctx, c, EndpointTools+"/"+url.PathEscape(id), nil)
}

// Progress lists the caller's progress records.
func (c *Client) Progress(ctx context.Context) ([]Progress, error) {
	var out []Progress
	if err := c.call(ctx, http.MethodGet, EndpointProgress, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateProgress records progress for an item.
func (c *Client) UpdateProgress(ctx context.Context, u ProgressUpdate) (*Progress, error) {
	var out Progress
	if err := c.call(ctx, http.MethodPost, EndpointProgress, u, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Search runs a platform-wide search.
func (c *Client) Search(ctx context.Context, p SearchParams) (Result[SearchResponse], error) {
	return fetchAs[SearchResponse](ctx, c, EndpointSearch, p.values())
}

// Stats returns the community counters.
func (c *Client) Stats(ctx context.Context) (Result[Stats], error) {
	return fetchAs[Stats](ctx, c, EndpointStats, nil)
}

// ForumCategories lists the community forum sections.
func (c *Client) ForumCategories(ctx context.Context) (Result[[]ForumCategory], error) {
	return fetchAs[[]ForumCategory](ctx, c, EndpointForumCategories, nil)
}

// Events lists community events.
func (c *Client) Events(ctx context.Context, p EventParams) (Result[[]Event], error) {
	return fetchAs[[]Event](ctx, c, EndpointEvents, p.values())
}

// Mentors lists the mentor directory.
func (c *Client) Mentors(ctx context.Context, p MentorParams) (Result[[]Mentor], error) {
	return fetchAs[[]Mentor](ctx, c, EndpointMentors, p.values())
}
