package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/io-sea/wfm-engine/internal/metrics"
	"github.com/io-sea/wfm-engine/internal/orchestrator"
	"github.com/io-sea/wfm-engine/internal/store"
	"github.com/io-sea/wfm-engine/internal/wfmerr"
)

// sessionSummary is the JSON rendering of a Session row (§6).
type sessionSummary struct {
	ID           int64      `json:"id"`
	Name         string     `json:"session_name"`
	WorkflowName string     `json:"workflow_name"`
	User         string     `json:"user_name"`
	StartTS      time.Time  `json:"start_ts"`
	EndTS        *time.Time `json:"end_ts,omitempty"`
	Status       string     `json:"status"`
}

func toSessionSummary(s *store.Session) sessionSummary {
	return sessionSummary{
		ID:           s.ID,
		Name:         s.Name,
		WorkflowName: s.WorkflowName,
		User:         s.User,
		StartTS:      s.StartTS,
		EndTS:        s.EndTS,
		Status:       string(s.Status),
	}
}

type serviceSummary struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Location   string `json:"location"`
	Status     string `json:"status"`
	Namespace  string `json:"namespace,omitempty"`
	Mountpoint string `json:"mountpoint,omitempty"`
}

func toServiceSummary(s *store.Service) serviceSummary {
	return serviceSummary{
		ID: s.ID, Name: s.Name, Kind: string(s.Kind), Location: s.Location,
		Status: string(s.Status), Namespace: s.Namespace, Mountpoint: s.Mountpoint,
	}
}

type stepDescriptionSummary struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Command string `json:"command"`
}

func toStepDescriptionSummary(sd *store.StepDescription) stepDescriptionSummary {
	return stepDescriptionSummary{ID: sd.ID, Name: sd.Name, Command: sd.Command}
}

type sessionDetailed struct {
	sessionSummary
	Services []serviceSummary         `json:"services"`
	Steps    []stepDescriptionSummary `json:"steps"`
}

type sessionStartupRequest struct {
	WorkflowDescriptionFile string            `json:"workflow_description_file"`
	WorkflowDescription     string            `json:"workflow_description"`
	SyncStart               bool              `json:"sync_start"`
	SessionName             string            `json:"session_name"`
	UserName                string            `json:"user_name"`
	Replacements            map[string]string `json:"replacements"`
}

func (s *Server) handleSessionStartup(w http.ResponseWriter, r *http.Request) {
	var req sessionStartupRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	session, err := s.orchestrator.StartSession(r.Context(), orchestrator.StartSessionInput{
		WorkflowFile: req.WorkflowDescriptionFile,
		WorkflowText: req.WorkflowDescription,
		SessionName:  req.SessionName,
		User:         req.UserName,
		SyncStart:    req.SyncStart,
		CmdlineVars:  req.Replacements,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, []sessionSummary{toSessionSummary(session)})
}

type sessionStopRequest struct {
	SyncStop    bool   `json:"sync_stop"`
	SessionName string `json:"session_name"`
}

func (s *Server) handleSessionStop(w http.ResponseWriter, r *http.Request) {
	s.stopSession(w, r, false)
}

func (s *Server) handleSessionForcedStop(w http.ResponseWriter, r *http.Request) {
	s.stopSession(w, r, true)
}

func (s *Server) stopSession(w http.ResponseWriter, r *http.Request, force bool) {
	var req sessionStopRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	err := s.orchestrator.StopSession(r.Context(), orchestrator.StopSessionInput{
		SessionName: req.SessionName,
		Force:       force,
		SyncStop:    req.SyncStop,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, 0)
}

type sessionAccessRequest struct {
	SessionName string   `json:"session_name"`
	Services    []string `json:"services"`
}

func (s *Server) handleSessionAccess(w http.ResponseWriter, r *http.Request) {
	var req sessionAccessRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if len(req.Services) > 1 {
		writeError(w, wfmerr.Validation(req.SessionName, "at most one service may be named for access"))
		return
	}
	command, err := s.orchestrator.AccessSession(r.Context(), req.SessionName, req.Services)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, command)
}

func (s *Server) handleSessionAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessions, err := s.store.GetAllSessions(ctx, "")
	if err != nil {
		writeError(w, err)
		return
	}
	summaries := make([]sessionSummary, 0, len(sessions))
	active := 0
	for _, sess := range sessions {
		cleaned, err := s.reconciler.Converge(ctx, sess)
		if err != nil {
			writeError(w, err)
			return
		}
		if cleaned {
			continue
		}
		if sess.Status == store.SessionActive {
			active++
		}
		summaries = append(summaries, toSessionSummary(sess))
	}
	metrics.SessionsActive.Set(float64(active))
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleSessionAllDetailed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sessions, err := s.store.GetAllSessions(ctx, "")
	if err != nil {
		writeError(w, err)
		return
	}
	out := make([]sessionDetailed, 0, len(sessions))
	for _, sess := range sessions {
		cleaned, err := s.reconciler.Converge(ctx, sess)
		if err != nil {
			writeError(w, err)
			return
		}
		if cleaned {
			continue
		}
		detail, err := s.buildSessionDetail(ctx, sess)
		if err != nil {
			writeError(w, err)
			return
		}
		out = append(out, detail)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleSessionByName(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")
	sessions, err := s.store.GetSessionByName(ctx, name, "")
	if err != nil {
		writeError(w, err)
		return
	}
	if len(sessions) != 1 {
		writeError(w, wfmerr.State(name, "expected exactly one session named %q, found %d", name, len(sessions)))
		return
	}
	sess := sessions[0]
	cleaned, err := s.reconciler.Converge(ctx, sess)
	if err != nil {
		writeError(w, err)
		return
	}
	if cleaned {
		writeError(w, wfmerr.State(name, "session not found"))
		return
	}
	writeJSON(w, http.StatusOK, []sessionSummary{toSessionSummary(sess)})
}

func (s *Server) buildSessionDetail(ctx context.Context, sess *store.Session) (sessionDetailed, error) {
	services, err := s.store.GetServicesBySession(ctx, sess.ID)
	if err != nil {
		return sessionDetailed{}, err
	}
	stepDescs, err := s.store.GetStepDescriptionsBySession(ctx, sess.ID)
	if err != nil {
		return sessionDetailed{}, err
	}

	serviceSummaries := make([]serviceSummary, 0, len(services))
	for _, svc := range services {
		serviceSummaries = append(serviceSummaries, toServiceSummary(svc))
	}
	stepSummaries := make([]stepDescriptionSummary, 0, len(stepDescs))
	for _, sd := range stepDescs {
		stepSummaries = append(stepSummaries, toStepDescriptionSummary(sd))
	}

	return sessionDetailed{
		sessionSummary: toSessionSummary(sess),
		Services:       serviceSummaries,
		Steps:          stepSummaries,
	}, nil
}
