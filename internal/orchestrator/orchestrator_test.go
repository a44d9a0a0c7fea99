package orchestrator

import (
	"context"
	"testing"

	"github.com/io-sea/wfm-engine/internal/ephemeral"
	"github.com/io-sea/wfm-engine/internal/jobmanager"
	"github.com/io-sea/wfm-engine/internal/reconciler"
	"github.com/io-sea/wfm-engine/internal/store"
	"github.com/stretchr/testify/require"
)

type fakeJobManager struct {
	nextJobID int64
	states    map[int64]string
}

func newFakeJobManager() *fakeJobManager {
	return &fakeJobManager{nextJobID: 100, states: map[int64]string{}}
}

func (f *fakeJobManager) SubmitBatch(context.Context, string, jobmanager.SubmitOptions) (int64, error) {
	f.nextJobID++
	return f.nextJobID, nil
}
func (f *fakeJobManager) SubmitLine(context.Context, string, jobmanager.SubmitOptions) (int64, error) {
	f.nextJobID++
	f.states[f.nextJobID] = "COMPLETED"
	return f.nextJobID, nil
}
func (f *fakeJobManager) Cancel(context.Context, int64) error { return nil }
func (f *fakeJobManager) GetJobState(ctx context.Context, jobid int64) (string, error) {
	if s, ok := f.states[jobid]; ok {
		return s, nil
	}
	return "RUNNING", nil
}
func (f *fakeJobManager) ListPartitions(context.Context) ([]jobmanager.Partition, error) { return nil, nil }
func (f *fakeJobManager) CombineForDisplay(s string) string                              { return s }
func (f *fakeJobManager) CombineForStopping(s string) string                             { return s }
func (f *fakeJobManager) IsStopped(s string) bool                                        { return s == "COMPLETED" || s == "STOPPED" }

type fakeResourceManager struct{}

func (fakeResourceManager) Reserve(context.Context, ephemeral.ReservationRequest) (bool, string, error) {
	return true, "", nil
}
func (fakeResourceManager) ListLocations(context.Context) ([]string, error) { return nil, nil }
func (fakeResourceManager) ListFlavors(context.Context) ([]string, error)   { return nil, nil }

func newTestEngine(t *testing.T) (*Engine, *store.Store) {
	t.Helper()
	st, err := store.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	jm := newFakeJobManager()
	registry := ephemeral.NewRegistry(jm)
	recon := reconciler.New(st, jm, registry)
	eng := New(st, jm, registry, fakeResourceManager{}, recon)
	return eng, st
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

func TestStartSession_NoServicesSyncGoesActive(t *testing.T) {
	eng, _ := newTestEngine(t)
	session, err := eng.StartSession(context.Background(), StartSessionInput{
		WorkflowText: noServiceWorkflow,
		SessionName:  "mysession",
		User:         "alice",
		SyncStart:    true,
	})
	require.NoError(t, err)
	require.Equal(t, store.SessionActive, session.Status)
}

func TestStartSession_DuplicateActiveRejected(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	_, err := eng.StartSession(ctx, StartSessionInput{WorkflowText: noServiceWorkflow, SessionName: "s1", User: "alice", SyncStart: true})
	require.NoError(t, err)

	_, err = eng.StartSession(ctx, StartSessionInput{WorkflowText: noServiceWorkflow, SessionName: "s1", User: "alice", SyncStart: true})
	require.Error(t, err)
}

func TestStartSession_InvalidSessionName(t *testing.T) {
	eng, _ := newTestEngine(t)
	_, err := eng.StartSession(context.Background(), StartSessionInput{WorkflowText: noServiceWorkflow, SessionName: "a/b", User: "alice"})
	require.Error(t, err)
}

func TestStartStepAndProgress(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	session, err := eng.StartSession(ctx, StartSessionInput{WorkflowText: noServiceWorkflow, SessionName: "s2", User: "alice", SyncStart: true})
	require.NoError(t, err)
	require.Equal(t, store.SessionActive, session.Status)

	instance, err := eng.StartStep(ctx, StartStepInput{SessionName: "s2", StepName: "step1"})
	require.NoError(t, err)
	require.Equal(t, store.StepRunning, instance.Status)

	name, err := eng.StepProgress(ctx, instance.JobID, "50%")
	require.NoError(t, err)
	require.Equal(t, instance.InstanceName, name)
}

func TestStopSession_GracefulCleansUp(t *testing.T) {
	eng, st := newTestEngine(t)
	ctx := context.Background()
	session, err := eng.StartSession(ctx, StartSessionInput{WorkflowText: noServiceWorkflow, SessionName: "s3", User: "alice", SyncStart: true})
	require.NoError(t, err)

	err = eng.StopSession(ctx, StopSessionInput{SessionName: "s3", SyncStop: true})
	require.NoError(t, err)

	_, err = st.GetSessionByID(ctx, session.ID)
	require.Error(t, err)
}

func TestAccessSession_NoCandidatesFails(t *testing.T) {
	eng, _ := newTestEngine(t)
	ctx := context.Background()
	_, err := eng.StartSession(ctx, StartSessionInput{WorkflowText: noServiceWorkflow, SessionName: "s4", User: "alice", SyncStart: true})
	require.NoError(t, err)

	_, err = eng.AccessSession(ctx, "s4", nil)
	require.Error(t, err)
}
