package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/io-sea/wfm-engine/internal/ephemeral"
	"github.com/io-sea/wfm-engine/internal/jobmanager"
	"github.com/io-sea/wfm-engine/internal/orchestrator"
	"github.com/io-sea/wfm-engine/internal/reconciler"
	"github.com/io-sea/wfm-engine/internal/store"
)

type fakeJobManager struct{ states map[int64]string }

func (f *fakeJobManager) SubmitBatch(context.Context, string, jobmanager.SubmitOptions) (int64, error) {
	return 1, nil
}
func (f *fakeJobManager) SubmitLine(context.Context, string, jobmanager.SubmitOptions) (int64, error) {
	return 2, nil
}
func (f *fakeJobManager) Cancel(context.Context, int64) error { return nil }
func (f *fakeJobManager) GetJobState(ctx context.Context, jobid int64) (string, error) {
	return "RUNNING", nil
}
func (f *fakeJobManager) ListPartitions(context.Context) ([]jobmanager.Partition, error) { return nil, nil }
func (f *fakeJobManager) CombineForDisplay(s string) string                              { return s }
func (f *fakeJobManager) CombineForStopping(s string) string                             { return s }
func (f *fakeJobManager) IsStopped(s string) bool                                        { return s == "COMPLETED" }

type fakeResourceManager struct{}

func (fakeResourceManager) Reserve(context.Context, ephemeral.ReservationRequest) (bool, string, error) {
	return true, "", nil
}
func (fakeResourceManager) ListLocations(context.Context) ([]string, error) { return nil, nil }
func (fakeResourceManager) ListFlavors(context.Context) ([]string, error)   { return nil, nil }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	st, err := store.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	jm := &fakeJobManager{states: map[int64]string{}}
	registry := ephemeral.NewRegistry(jm)
	recon := reconciler.New(st, jm, registry)
	eng := orchestrator.New(st, jm, registry, fakeResourceManager{}, recon)
	return New(eng, recon, st)
}

const noServiceWorkflow = `
workflow:
  name: demo
services: []
steps:
  - name: step1
    command: "echo {{ SESSION }}"
    services: []
`

func doRequest(srv *Server, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestSessionStartupAndList(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/session/startup", sessionStartupRequest{
		WorkflowDescription: noServiceWorkflow,
		SessionName:         "s1",
		UserName:            "alice",
		SyncStart:           true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var sessions []sessionSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sessions))
	require.Len(t, sessions, 1)
	require.Equal(t, "ACTIVE", sessions[0].Status)

	rec = doRequest(srv, http.MethodGet, "/session/all", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var all []sessionSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &all))
	require.Len(t, all, 1)
}

func TestSessionStartupInvalidBodyRejected(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(srv, http.MethodPost, "/session/startup", map[string]string{"bogus_field": "x"})
	require.Equal(t, 404, rec.Code)
	var detail detailBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &detail))
	require.NotEmpty(t, detail.Detail)
}

func TestStepStartupAndStatus(t *testing.T) {
	srv := newTestServer(t)

	rec := doRequest(srv, http.MethodPost, "/session/startup", sessionStartupRequest{
		WorkflowDescription: noServiceWorkflow,
		SessionName:         "s2",
		UserName:            "alice",
		SyncStart:           true,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(srv, http.MethodPost, "/step/startup", stepStartupRequest{
		SessionName: "s2",
		StepName:    "step1",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp stepStartupResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.InstanceName)

	rec = doRequest(srv, http.MethodGet, "/step/status/s2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var statuses []stepInstanceStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &statuses))
	require.Len(t, statuses, 1)
	require.Equal(t, resp.InstanceName, statuses[0].InstanceName)
}

func TestSessionByNameNotFound(t *testing.T) {
	srv := newTestServer(t)
	rec := doRequest(srv, http.MethodGet, "/session/doesnotexist", nil)
	require.Equal(t, 404, rec.Code)
}
