package api

import (
	"net/http"

	"github.com/user/seometrics/internal/registry"
)

func (h *handler) listModels(w http.ResponseWriter, r *http.Request) {
	jsonResponse(w, http.StatusOK, map[string]any{"models": h.models.List()})
}

func (h *handler) getModel(w http.ResponseWriter, r *http.Request) {
	variant := h.models.Get(r.PathValue("id"))
	if variant == nil {
		jsonError(w, http.StatusNotFound, "model variant not found")
		return
	}
	jsonResponse(w, http.StatusOK, variant)
}

func (h *handler) putModel(w http.ResponseWriter, r *http.Request) {
	var cfg registry.VariantConfig
	if err := decodeJSON(r, &cfg); err != nil {
		jsonError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	cfg.ID = r.PathValue("id")
	if err := h.models.Save(&cfg); err != nil {
		jsonError(w, http.StatusBadRequest, err.Error())
		return
	}
	jsonResponse(w, http.StatusOK, h.models.Get(cfg.ID))
}

func (h *handler) deleteModel(w http.ResponseWriter, r *http.Request) {
	if err := h.models.Delete(r.PathValue("id")); err != nil {
		jsonError(w, http.StatusNotFound, err.Error())
		return
	}
	jsonResponse(w, http.StatusNoContent, nil)
}
