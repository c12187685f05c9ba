package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/burnout-monitor/internal/classifier"
	"github.com/ignite/burnout-monitor/internal/pkg/httputil"
)

// ListModels returns the classifier's model catalog.
//
//	GET /api/models
func (h *Handlers) ListModels(w http.ResponseWriter, r *http.Request) {
	models, err := h.models.ListModels(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if models == nil {
		models = []classifier.ModelInfo{}
	}
	httputil.OK(w, map[string]interface{}{"models": models})
}

// GetModel returns one model version; "latest" resolves to the newest.
//
//	GET /api/models/{version}
func (h *Handlers) GetModel(w http.ResponseWriter, r *http.Request) {
	info, err := h.models.ModelInfo(r.Context(), chi.URLParam(r, "version"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	httputil.OK(w, info)
}
