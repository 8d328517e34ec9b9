package api

import "net/http"

func (h *handler) listActivity(w http.ResponseWriter, r *http.Request) {
	userToken := callerToken(r)
	if userToken == "" {
		jsonError(w, http.StatusUnauthorized, "user token is required")
		return
	}
	records, err := h.activityRepo.ListByUser(r.Context(), userToken, queryLimit(r, 50))
	if err != nil {
		jsonError(w, http.StatusInternalServerError, err.Error())
		return
	}
	jsonResponse(w, http.StatusOK, map[string]any{"activity": records})
}
