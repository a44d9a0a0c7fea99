// Package api implements the HTTP surface of §6: a chi router exposing
// the session/step endpoints as JSON, with every failure rendered as a
// 404 plus a `{detail: string}` body per the error-handling design of §7.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/io-sea/wfm-engine/internal/orchestrator"
	"github.com/io-sea/wfm-engine/internal/reconciler"
	"github.com/io-sea/wfm-engine/internal/store"
	"github.com/io-sea/wfm-engine/internal/wfmerr"
	"github.com/io-sea/wfm-engine/pkg/logging"
)

// Server bundles the router with the collaborators its handlers call into.
type Server struct {
	router       chi.Router
	orchestrator *orchestrator.Engine
	reconciler   *reconciler.Reconciler
	store        *store.Store
}

// New builds the routed HTTP server.
func New(eng *orchestrator.Engine, recon *reconciler.Reconciler, st *store.Store) *Server {
	s := &Server{orchestrator: eng, reconciler: recon, store: st}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/session", func(r chi.Router) {
		r.Post("/startup", s.handleSessionStartup)
		r.Post("/stop", s.handleSessionStop)
		r.Post("/forcedstop", s.handleSessionForcedStop)
		r.Post("/access", s.handleSessionAccess)
		r.Get("/all", s.handleSessionAll)
		r.Get("/alldetailed", s.handleSessionAllDetailed)
		r.Get("/{name}", s.handleSessionByName)
	})

	r.Route("/step", func(r chi.Router) {
		r.Post("/startup", s.handleStepStartup)
		r.Post("/progress/job", s.handleStepProgress)
		r.Get("/status/{session}", s.handleStepStatus)
		r.Get("/status/{session}/{step}", s.handleStepStatus)
		r.Get("/description/all", s.handleStepDescriptionAll)
		r.Get("/description/{name}", s.handleStepDescriptionByName)
	})

	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.router.ServeHTTP(w, r) }

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logging.Debug("api", "%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		logging.Error("api", err, "failed to encode response body")
	}
}

type detailBody struct {
	Detail string `json:"detail"`
}

// writeError renders err as the engine's uniform 404-with-detail
// convention (§7), regardless of the underlying wfmerr.Kind.
func writeError(w http.ResponseWriter, err error) {
	status := wfmerr.HTTPStatus(err)
	detail := err.Error()
	if werr, ok := wfmerr.As(err); ok {
		detail = werr.DetailString()
	}
	writeJSON(w, status, detailBody{Detail: detail})
}

func decodeJSON(r *http.Request, out interface{}) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return wfmerr.Validation("request", "invalid request body: %s", err)
	}
	return nil
}
