package handler

import (
	"net/http"

	"github.com/growthlab/growthlab-web/internal/auth"
	"github.com/growthlab/growthlab-web/internal/platform"
)

// WidgetPage is the data for the embeddable widget host page.
type WidgetPage struct {
	BasePage
	User        *platform.User
	Embedded    bool
	ContainerID string
	BridgePath  string
}

// WidgetHandler serves the page partner sites load in an iframe.
type WidgetHandler struct{}

// NewWidgetHandler creates a new WidgetHandler.
func NewWidgetHandler() *WidgetHandler { return &WidgetHandler{} }

// Show serves GET /widget. The server-side user is only a first paint; the
// page script takes over once the bridge reports a state.
func (h *WidgetHandler) Show(w http.ResponseWriter, r *http.Request, ac *auth.Context) {
	page := WidgetPage{
		BasePage:    newBasePage(ac.Platform),
		Embedded:    ac.IsEmbedded,
		ContainerID: ac.Platform.ContainerID,
		BridgePath:  "/widget/bridge",
	}
	if ac.IsAuthenticated {
		page.User = ac.User
	}
	// Partner pages frame this document.
	w.Header().Set("Content-Security-Policy", "frame-ancestors *")
	render(w, "widget.html", page)
}
