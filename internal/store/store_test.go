package store

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCreateSession_UniquenessAmongNonStopped(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sess := &Session{Name: "session0", WorkflowName: "wf", User: "alice", StartTS: time.Now(), Status: SessionStarting}
	id, err := s.CreateSession(ctx, sess)
	require.NoError(t, err)
	require.NotZero(t, id)

	_, err = s.CreateSession(ctx, sess)
	require.Error(t, err)
}

func TestCreateSession_AllowsReuseAfterStopped(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sess := &Session{Name: "session0", WorkflowName: "wf", User: "alice", StartTS: time.Now(), Status: SessionStarting}
	id, err := s.CreateSession(ctx, sess)
	require.NoError(t, err)
	require.NoError(t, s.UpdateSessionStatus(ctx, id, SessionStopped))
	require.NoError(t, s.DeleteSession(ctx, id))

	id2, err := s.CreateSession(ctx, sess)
	require.NoError(t, err)
	require.NotEqual(t, id, id2)
}

func TestGetSessionByName_Unknown(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetSessionByName(context.Background(), "missing", "")
	require.ErrorIs(t, err, ErrUnknownSession)
}

func TestNamespaceLock_CollisionAndRelease(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	_, err := s.AcquireNamespaceLock(ctx, "/shared/ns", "user-S1-g")
	require.NoError(t, err)

	_, err = s.AcquireNamespaceLock(ctx, "/shared/ns", "user-S2-g")
	require.Error(t, err)
	require.Contains(t, err.Error(), "user-S1-g")

	require.NoError(t, s.ReleaseNamespaceLock(ctx, "/shared/ns"))
	_, err = s.AcquireNamespaceLock(ctx, "/shared/ns", "user-S2-g")
	require.NoError(t, err)
}

func TestCreateStepInstance_MonotonicIndex(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	sessID, err := s.CreateSession(ctx, &Session{Name: "s0", WorkflowName: "wf", User: "u", StartTS: time.Now(), Status: SessionActive})
	require.NoError(t, err)
	sdID, err := s.CreateStepDescription(ctx, &StepDescription{SessionID: sessID, ServiceID: 0, Name: "run", Command: "sbatch job.sh"})
	require.NoError(t, err)

	_, idx1, name1, err := s.CreateStepInstance(ctx, sdID, "sbatch job.sh", func(i int) string {
		return "u-s0-run_" + strconv.Itoa(i)
	})
	require.NoError(t, err)
	require.Equal(t, 1, idx1)
	require.Equal(t, "u-s0-run_1", name1)

	_, idx2, name2, err := s.CreateStepInstance(ctx, sdID, "sbatch job.sh", func(i int) string {
		return "u-s0-run_" + strconv.Itoa(i)
	})
	require.NoError(t, err)
	require.Equal(t, 2, idx2)
	require.Equal(t, "u-s0-run_2", name2)
}

func TestActivityLog_RecordsEveryMutation(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id, err := s.CreateSession(ctx, &Session{Name: "s0", WorkflowName: "wf", User: "u", StartTS: time.Now(), Status: SessionStarting})
	require.NoError(t, err)
	require.NoError(t, s.DeleteSession(ctx, id))

	log, err := s.GetActivityLog(ctx)
	require.NoError(t, err)
	require.Len(t, log, 2)
	require.Equal(t, ActivityCreation, log[0].Activity)
	require.Equal(t, ActivityRemoval, log[1].Activity)
}
