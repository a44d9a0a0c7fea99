package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/io-sea/wfm-engine/internal/orchestrator"
	"github.com/io-sea/wfm-engine/internal/store"
	"github.com/io-sea/wfm-engine/internal/wfmerr"
)

type stepStartupRequest struct {
	SessionName  string            `json:"session_name"`
	StepName     string            `json:"step_name"`
	Replacements map[string]string `json:"replacements"`
}

type stepStartupResponse struct {
	ID           int64  `json:"id"`
	InstanceName string `json:"instance_name"`
}

func (s *Server) handleStepStartup(w http.ResponseWriter, r *http.Request) {
	var req stepStartupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	instance, err := s.orchestrator.StartStep(r.Context(), orchestrator.StartStepInput{
		SessionName: req.SessionName,
		StepName:    req.StepName,
		CmdlineVars: req.Replacements,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stepStartupResponse{ID: instance.ID, InstanceName: instance.InstanceName})
}

type stepProgressRequest struct {
	JobID    int64  `json:"jobid"`
	Progress string `json:"progress"`
}

func (s *Server) handleStepProgress(w http.ResponseWriter, r *http.Request) {
	var req stepProgressRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	name, err := s.orchestrator.StepProgress(r.Context(), req.JobID, req.Progress)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, name)
}

type stepInstanceStatus struct {
	ID           int64  `json:"id"`
	InstanceName string `json:"instance_name"`
	StepName     string `json:"step_name"`
	JobID        int64  `json:"jobid"`
	Progress     string `json:"progress"`
	Status       string `json:"status"`
}

func (s *Server) handleStepStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessionName := chi.URLParam(r, "session")
	stepName := chi.URLParam(r, "step")

	sessions, err := s.store.GetSessionByName(ctx, sessionName, "")
	if err != nil {
		writeError(w, err)
		return
	}
	if len(sessions) != 1 {
		writeError(w, wfmerr.State(sessionName, "expected exactly one session named %q, found %d", sessionName, len(sessions)))
		return
	}
	session := sessions[0]

	stepDescs, err := s.store.GetStepDescriptionsBySession(ctx, session.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	if stepName != "" {
		filtered := stepDescs[:0]
		for _, sd := range stepDescs {
			if sd.Name == stepName {
				filtered = append(filtered, sd)
			}
		}
		stepDescs = filtered
		if len(stepDescs) == 0 {
			writeError(w, wfmerr.State(stepName, "step %q not found in session %q", stepName, sessionName))
			return
		}
	}

	var out []stepInstanceStatus
	for _, sd := range stepDescs {
		statuses, err := s.reconciler.RefreshStepInstances(ctx, sd.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		for _, st := range statuses {
			out = append(out, stepInstanceStatus{
				ID:           st.Instance.ID,
				InstanceName: st.Instance.InstanceName,
				StepName:     sd.Name,
				JobID:        st.Instance.JobID,
				Progress:     st.Instance.Progress,
				Status:       st.Display,
			})
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleStepDescriptionAll(w http.ResponseWriter, r *http.Request) {
	descs, err := s.store.GetAllStepDescriptions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStepDescriptionSummaries(descs))
}

func (s *Server) handleStepDescriptionByName(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	descs, err := s.store.GetStepDescriptionsByName(r.Context(), name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toStepDescriptionSummaries(descs))
}

func toStepDescriptionSummaries(descs []*store.StepDescription) []stepDescriptionSummary {
	out := make([]stepDescriptionSummary, 0, len(descs))
	for _, sd := range descs {
		out = append(out, toStepDescriptionSummary(sd))
	}
	return out
}
