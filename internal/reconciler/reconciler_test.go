package reconciler

import (
	"context"
	"testing"
	"time"

	"github.com/io-sea/wfm-engine/internal/ephemeral"
	"github.com/io-sea/wfm-engine/internal/jobmanager"
	"github.com/io-sea/wfm-engine/internal/store"
	"github.com/stretchr/testify/require"
)

func TestDeriveSessionStatus_NoServicesStartingGoesActive(t *testing.T) {
	require.Equal(t, store.SessionActive, DeriveSessionStatus(store.SessionStarting, nil))
}

func TestDeriveSessionStatus_NoServicesStoppingGoesStopped(t *testing.T) {
	require.Equal(t, store.SessionStopped, DeriveSessionStatus(store.SessionStopping, nil))
}

func TestDeriveSessionStatus_AllAllocatedGoesActive(t *testing.T) {
	services := []*store.Service{{Status: store.ServiceAllocated}, {Status: store.ServiceStagedIn}}
	require.Equal(t, store.SessionActive, DeriveSessionStatus(store.SessionStarting, services))
}

func TestDeriveSessionStatus_AllStoppedGoesStopped(t *testing.T) {
	services := []*store.Service{{Status: store.ServiceStopped}, {Status: store.ServiceStagedOut}}
	require.Equal(t, store.SessionStopped, DeriveSessionStatus(store.SessionStopping, services))
}

func TestDeriveSessionStatus_AnyTeardownWins(t *testing.T) {
	services := []*store.Service{{Status: store.ServiceAllocated}, {Status: store.ServiceTeardown}}
	require.Equal(t, store.SessionTeardown, DeriveSessionStatus(store.SessionStarting, services))
}

func TestDeriveSessionStatus_PartialLeavesCurrent(t *testing.T) {
	services := []*store.Service{{Status: store.ServiceAllocated}, {Status: store.ServiceWaiting}}
	require.Equal(t, store.SessionStarting, DeriveSessionStatus(store.SessionStarting, services))
}

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestConverge_CleansUpStoppedSession(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	registry := ephemeral.NewRegistry(nil)
	r := New(st, nil, registry)

	sessID, err := st.CreateSession(ctx, &store.Session{
		Name: "s0", WorkflowName: "wf", User: "alice", StartTS: time.Now(), Status: store.SessionStopping,
	})
	require.NoError(t, err)
	session, err := st.GetSessionByID(ctx, sessID)
	require.NoError(t, err)

	cleaned, err := r.Converge(ctx, session)
	require.NoError(t, err)
	require.True(t, cleaned)

	_, err = st.GetSessionByID(ctx, sessID)
	require.Error(t, err)
}

type noopJobManager struct{}

func (noopJobManager) SubmitBatch(context.Context, string, jobmanager.SubmitOptions) (int64, error) {
	return 0, nil
}
func (noopJobManager) SubmitLine(context.Context, string, jobmanager.SubmitOptions) (int64, error) {
	return 0, nil
}
func (noopJobManager) Cancel(context.Context, int64) error { return nil }
func (noopJobManager) GetJobState(context.Context, int64) (string, error) {
	return "RUNNING", nil
}
func (noopJobManager) ListPartitions(context.Context) ([]jobmanager.Partition, error) { return nil, nil }
func (noopJobManager) CombineForDisplay(s string) string                              { return s }
func (noopJobManager) CombineForStopping(s string) string                             { return s }
func (noopJobManager) IsStopped(string) bool                                          { return false }

func TestRefreshStepInstances_PersistsRawStatus(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	registry := ephemeral.NewRegistry(nil)
	r := New(st, noopJobManager{}, registry)

	sessID, err := st.CreateSession(ctx, &store.Session{
		Name: "s0", WorkflowName: "wf", User: "alice", StartTS: time.Now(), Status: store.SessionActive,
	})
	require.NoError(t, err)
	sdID, err := st.CreateStepDescription(ctx, &store.StepDescription{SessionID: sessID, Name: "step1", Command: "echo hi"})
	require.NoError(t, err)
	_, _, _, err = st.CreateStepInstance(ctx, sdID, "echo hi", func(i int) string { return "step1.1" })
	require.NoError(t, err)

	instances, err := r.store.GetStepInstancesByStepDescription(ctx, sdID)
	require.NoError(t, err)
	require.NoError(t, st.UpdateStepInstanceJobID(ctx, instances[0].ID, 42, store.StepStarting))

	statuses, err := r.RefreshStepInstances(ctx, sdID)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	require.Equal(t, "RUNNING", statuses[0].Raw)
}
