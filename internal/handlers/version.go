package handlers

import (
	"net/http"

	"hlsgateway/internal/apierr"
	"hlsgateway/internal/startup"
)

// GetVersion serves GET /version.
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	apierr.WriteJSON(w, startup.GetBuildInfo())
}
