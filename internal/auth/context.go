// Package auth resolves who is calling from an inbound request and guards
// routes that need a signed-in platform user.
package auth

import (
	"net/http"
	"strings"

	"github.com/growthlab/growthlab-web/internal/platform"
)

const (
	// TokenCookie holds the platform token set by the host site.
	TokenCookie = "growthlab_token"
	// TokenQueryParam carries the token on iframe URLs.
	TokenQueryParam = "token"
	// IframeTokenHeader is set by widget hosts that proxy requests.
	IframeTokenHeader = "X-Iframe-Token"

	embeddedHeader    = "X-Embedded"
	embeddedParam     = "embedded"
	containerIDHeader = "X-Container-Id"
	themeHeader       = "X-Theme"
	localeHeader      = "X-Locale"

	defaultLocale = "en"
)

// PlatformContext describes the host page a widget is embedded in.
type PlatformContext struct {
	ContainerID string
	Theme       string
	Locale      string
}

// Context is the per-request view of the caller.
type Context struct {
	User            *platform.User
	Token           string
	IsAuthenticated bool
	IsEmbedded      bool
	Platform        PlatformContext
}

// ExtractToken returns the first non-empty token from, in order: the bearer
// Authorization header, the growthlab_token cookie, the token query parameter
// and the X-Iframe-Token header.
func ExtractToken(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		if t := strings.TrimSpace(strings.TrimPrefix(h, "Bearer ")); t != "" {
			return t
		}
	}
	if c, err := r.Cookie(TokenCookie); err == nil && c.Value != "" {
		return c.Value
	}
	if t := r.URL.Query().Get(TokenQueryParam); t != "" {
		return t
	}
	return r.Header.Get(IframeTokenHeader)
}

// IsEmbedded reports whether the request comes from inside the widget iframe.
func IsEmbedded(r *http.Request) bool {
	return r.Header.Get(embeddedHeader) == "true" || r.URL.Query().Get(embeddedParam) == "true"
}

// PlatformContextFrom reads the host page hints. Unknown themes fall back to light.
func PlatformContextFrom(r *http.Request) PlatformContext {
	pc := PlatformContext{
		ContainerID: r.Header.Get(containerIDHeader),
		Theme:       "light",
		Locale:      defaultLocale,
	}
	if r.Header.Get(themeHeader) == "dark" {
		pc.Theme = "dark"
	}
	if l := r.Header.Get(localeHeader); l != "" {
		pc.Locale = l
	}
	return pc
}
