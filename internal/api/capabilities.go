package api

import "net/http"

func (h *handler) listCapabilities(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]any{"capabilities": h.capabilities.List()})
}
