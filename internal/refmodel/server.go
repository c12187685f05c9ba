package refmodel

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ignite/burnout-monitor/internal/classifier"
	"github.com/ignite/burnout-monitor/internal/pkg/httputil"
	"github.com/ignite/burnout-monitor/internal/pkg/logger"
)

var serveLog = logger.Component("refmodel")

// Handler serves the model over HTTP:
//
//	POST /predict
//	GET  /models
//	GET  /models/{version}
//	GET  /health
func Handler(m *Model) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		httputil.OK(w, map[string]string{"status": "healthy", "model_version": Version})
	})

	r.Post("/predict", func(w http.ResponseWriter, req *http.Request) {
		var body classifier.PredictRequest
		if !httputil.Decode(w, req, &body) {
			return
		}
		if body.UserID == "" {
			httputil.BadRequest(w, "user_id is required")
			return
		}
		resp, err := m.Predict(body)
		if err != nil {
			writeModelError(w, err)
			return
		}
		serveLog.Info("prediction served", "user_id", body.UserID, "risk_level", resp.RiskLevel)
		httputil.OK(w, resp)
	})

	r.Get("/models", func(w http.ResponseWriter, _ *http.Request) {
		httputil.OK(w, m.Models())
	})

	r.Get("/models/{version}", func(w http.ResponseWriter, req *http.Request) {
		info, err := m.Info(chi.URLParam(req, "version"))
		if err != nil {
			writeModelError(w, err)
			return
		}
		httputil.OK(w, info)
	})

	return r
}

func writeModelError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrUnknownVersion) {
		httputil.NotFound(w, err.Error())
		return
	}
	httputil.InternalError(w, err)
}
