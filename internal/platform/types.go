package platform

import (
	"encoding/json"
	"fmt"
	"time"
)

// Role is the platform-assigned role of a user.
type Role string

const (
	RoleFounder    Role = "founder"
	RoleMentor     Role = "mentor"
	RoleInvestor   Role = "investor"
	RoleAdmin      Role = "admin"
	RoleTeamMember Role = "team_member"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleFounder, RoleMentor, RoleInvestor, RoleAdmin, RoleTeamMember:
		return true
	}
	return false
}

// Stage is the funding stage of a user's company.
type Stage string

const (
	StageIdea    Stage = "idea"
	StagePreSeed Stage = "pre-seed"
	StageSeed    Stage = "seed"
	StageSeriesA Stage = "series-a"
	StageSeriesB Stage = "series-b"
	StageGrowth  Stage = "growth"
	StageScale   Stage = "scale"
)

func (s Stage) Valid() bool {
	switch s {
	case StageIdea, StagePreSeed, StageSeed, StageSeriesA, StageSeriesB, StageGrowth, StageScale:
		return true
	}
	return false
}

// Subscription is the user's plan on the platform.
type Subscription string

const (
	SubscriptionFree       Subscription = "free"
	SubscriptionPro        Subscription = "pro"
	SubscriptionEnterprise Subscription = "enterprise"
)

func (s Subscription) Valid() bool {
	switch s {
	case SubscriptionFree, SubscriptionPro, SubscriptionEnterprise:
		return true
	}
	return false
}

// Vertical is one of the startup verticals the resource catalogs are grouped by.
type Vertical string

const (
	VerticalEdTech   Vertical = "edtech"
	VerticalFoodTech Vertical = "foodtech"
	VerticalPropTech Vertical = "proptech"
)

func (v Vertical) Valid() bool {
	switch v {
	case VerticalEdTech, VerticalFoodTech, VerticalPropTech:
		return true
	}
	return false
}

// Metadata is an open map of platform-defined attributes. Values are kept as
// raw JSON; use the typed accessors to read them.
type Metadata map[string]json.RawMessage

// String returns the value stored under key when it is a JSON string.
func (m Metadata) String(key string) (string, bool) {
	raw, ok := m[key]
	if !ok {
		return "", false
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// Bool returns the value stored under key when it is a JSON boolean.
func (m Metadata) Bool(key string) (bool, bool) {
	raw, ok := m[key]
	if !ok {
		return false, false
	}
	var b bool
	if err := json.Unmarshal(raw, &b); err != nil {
		return false, false
	}
	return b, true
}

// User is the platform's view of an authenticated person. It is owned by the
// platform; this service only deserializes it.
type User struct {
	ID           string       `json:"id"`
	Email        string       `json:"email"`
	Name         string       `json:"name"`
	Avatar       string       `json:"avatar,omitempty"`
	Role         Role         `json:"role"`
	Company      string       `json:"company,omitempty"`
	Industry     string       `json:"industry,omitempty"`
	Stage        Stage        `json:"stage,omitempty"`
	Subscription Subscription `json:"subscription,omitempty"`
	Permissions  []string     `json:"permissions,omitempty"`
	Metadata     Metadata     `json:"metadata,omitempty"`
}

// Validate checks the enumerated fields of a decoded user.
func (u *User) Validate() error {
	if u.ID == "" {
		return fmt.Errorf("user: id is required")
	}
	if !u.Role.Valid() {
		return fmt.Errorf("user: unknown role %q", u.Role)
	}
	if u.Stage != "" && !u.Stage.Valid() {
		return fmt.Errorf("user: unknown stage %q", u.Stage)
	}
	if u.Subscription != "" && !u.Subscription.Valid() {
		return fmt.Errorf("user: unknown subscription %q", u.Subscription)
	}
	return nil
}

// HasPermission reports whether the user was granted perm.
func (u *User) HasPermission(perm string) bool {
	for _, p := range u.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}

// Notifications holds the user's notification switches.
type Notifications struct {
	Email  bool `json:"email"`
	Digest bool `json:"digest"`
	Events bool `json:"events"`
}

// Preferences is the user's settings document stored on the platform.
type Preferences struct {
	Theme             string        `json:"theme,omitempty"`
	Locale            string        `json:"locale,omitempty"`
	Notifications     Notifications `json:"notifications"`
	FavoriteVerticals []Vertical    `json:"favoriteVerticals,omitempty"`
}

// Validate rejects values the platform would not accept.
func (p *Preferences) Validate() error {
	if p.Theme != "" && p.Theme != "light" && p.Theme != "dark" {
		return fmt.Errorf("preferences: theme must be light or dark")
	}
	if len(p.Locale) > 16 {
		return fmt.Errorf("preferences: locale is too long")
	}
	for _, v := range p.FavoriteVerticals {
		if !v.Valid() {
			return fmt.Errorf("preferences: unknown vertical %q", v)
		}
	}
	return nil
}

// Bookmark is a saved reference from a user to a resource or tool.
type Bookmark struct {
	ID           string    `json:"id"`
	ResourceID   string    `json:"resourceId"`
	ResourceType string    `json:"resourceType"`
	Title        string    `json:"title,omitempty"`
	URL          string    `json:"url,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// NewBookmark is the body of a bookmark creation call.
type NewBookmark struct {
	ResourceID   string `json:"resourceId"`
	ResourceType string `json:"resourceType"`
	Title        string `json:"title,omitempty"`
	URL          string `json:"url,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

// Resource is an entry of the startup resource catalog.
type Resource struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Vertical    Vertical `json:"vertical,omitempty"`
	URL         string   `json:"url,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Featured    bool     `json:"featured,omitempty"`
}

// Tool is an entry of the startup tool catalog.
type Tool struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Vertical    Vertical `json:"vertical,omitempty"`
	URL         string   `json:"url,omitempty"`
	Pricing     string   `json:"pricing,omitempty"`
	Rating      float64  `json:"rating,omitempty"`
	Featured    bool     `json:"featured,omitempty"`
}

// Progress records how far a user got through a resource or program module.
type Progress struct {
	ItemID    string    `json:"itemId"`
	ItemType  string    `json:"itemType"`
	Status    string    `json:"status"`
	Percent   int       `json:"percent"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ProgressUpdate is the body of a progress write.
type ProgressUpdate struct {
	ItemID   string `json:"itemId"`
	ItemType string `json:"itemType"`
	Status   string `json:"status"`
	Percent  int    `json:"percent"`
}

// ForumCategory is a community forum section.
type ForumCategory struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
	TopicCount  int    `json:"topicCount"`
	PostCount   int    `json:"postCount"`
	Color       string `json:"color,omitempty"`
}

// Event is a community event (webinar, workshop, meetup).
type Event struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Description  string `json:"description"`
	Type         string `json:"type"`
	Date         string `json:"date"`
	Time         string `json:"time,omitempty"`
	Location     string `json:"location,omitempty"`
	Host         string `json:"host,omitempty"`
	Attendees    int    `json:"attendees"`
	MaxAttendees int    `json:"maxAttendees,omitempty"`
}

// Mentor is an entry of the mentor directory.
type Mentor struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Title     string   `json:"title"`
	Company   string   `json:"company,omitempty"`
	Expertise []string `json:"expertise"`
	Bio       string   `json:"bio,omitempty"`
	Avatar    string   `json:"avatar,omitempty"`
	Rating    float64  `json:"rating"`
	Sessions  int      `json:"sessions"`
	Available bool     `json:"available"`
}

// Stats are the community-wide counters shown on the landing surfaces.
type Stats struct {
	TotalMembers    int `json:"totalMembers"`
	ActiveMentors   int `json:"activeMentors"`
	UpcomingEvents  int `json:"upcomingEvents"`
	ForumPosts      int `json:"forumPosts"`
	ResourcesShared int `json:"resourcesShared"`
}

// SearchResult is one hit of a platform-wide search.
type SearchResult struct {
	ID      string `json:"id"`
	Type    string `json:"type"`
	Title   string `json:"title"`
	Snippet string `json:"snippet,omitempty"`
	URL     string `json:"url,omitempty"`
}

// SearchResponse is the envelope returned by the search endpoint.
type SearchResponse struct {
	Results []SearchResult `json:"results"`
	Total   int            `json:"total"`
}
