package handler

import (
	"encoding/json"
	"net/http"

	"github.com/growthlab/growthlab-web/internal/build"
)

// HealthResponse is the body of GET /healthz.
type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	Commit   string `json:"commit"`
	Branch   string `json:"branch"`
	Degraded bool   `json:"degraded"`
}

func healthz(degraded bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(HealthResponse{
			Status:   "ok",
			Version:  build.Version,
			Commit:   build.Commit,
			Branch:   build.Branch,
			Degraded: degraded,
		})
	}
}
