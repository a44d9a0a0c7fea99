package orchestrator

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/io-sea/wfm-engine/internal/store"
	"github.com/io-sea/wfm-engine/internal/wfmerr"
	"github.com/io-sea/wfm-engine/pkg/logging"
)

// StopSessionInput is the §4.G.2 request shape. Force implies the forced
// (job-cancelling) variant of the protocol.
type StopSessionInput struct {
	SessionName string
	Force       bool
	SyncStop    bool
}

var allocatedOrWaiting = map[store.ServiceStatus]bool{
	store.ServiceAllocated: true,
	store.ServiceStagedIn:  true,
	store.ServiceWaiting:   true,
}

// StopSession runs the graceful/forced stop protocol of §4.G.2.
func (e *Engine) StopSession(ctx context.Context, in StopSessionInput) error {
	// 1. Look up the session; there must be exactly one.
	sessions, err := e.store.GetSessionByName(ctx, in.SessionName, "")
	if err != nil {
		return err
	}
	if len(sessions) != 1 {
		return wfmerr.State(in.SessionName, "expected exactly one session named %q, found %d", in.SessionName, len(sessions))
	}
	session := sessions[0]

	// 2. Refuse a repeat stop unless forced.
	if (session.Status == store.SessionStopped || session.Status == store.SessionStopping) && !in.Force {
		return wfmerr.State(in.SessionName, "session is already %s", session.Status)
	}

	// 3. Mark STOPPING.
	if err := e.store.UpdateSessionStatus(ctx, session.ID, store.SessionStopping); err != nil {
		return err
	}
	session.Status = store.SessionStopping

	// 4-5. Refresh step status; cancel (only if forced) anything not
	// stopped; count what remains.
	stepDescs, err := e.store.GetStepDescriptionsBySession(ctx, session.ID)
	if err != nil {
		return err
	}
	notStopped := 0
	for _, sd := range stepDescs {
		statuses, err := e.reconciler.RefreshStepInstances(ctx, sd.ID)
		if err != nil {
			return err
		}
		for _, st := range statuses {
			if e.jm.IsStopped(st.Stopping) {
				continue
			}
			if in.Force {
				if err := e.jm.Cancel(ctx, st.Instance.JobID); err != nil {
					logging.Error("orchestrator", err, "cancel job %d for forced stop", st.Instance.JobID)
				}
				continue
			}
			notStopped++
		}
	}
	if !in.Force && notStopped > 0 {
		e.store.UpdateSessionStatus(ctx, session.ID, store.SessionTeardown)
		return wfmerr.State(in.SessionName, "%d steps not yet completed", notStopped)
	}

	// 6. Refresh and stop used services. Stop order carries no rollback
	// obligation (unlike start), so independent services are torn down
	// concurrently; a shared mutex guards the allStopped verdict.
	services, err := e.reconciler.RefreshServices(ctx, session.ID)
	if err != nil {
		return err
	}
	var (
		mu         sync.Mutex
		allStopped = true
	)
	markIncomplete := func() {
		mu.Lock()
		allStopped = false
		mu.Unlock()
	}
	g, gctx := errgroup.WithContext(ctx)
	for _, svc := range services {
		svc := svc
		if !allocatedOrWaiting[svc.Status] {
			continue
		}
		impl, err := e.registry.Get(svc.Kind)
		if err != nil {
			markIncomplete()
			continue
		}
		if err := e.store.UpdateServiceStatus(ctx, svc.ID, store.ServiceStopping); err != nil {
			return err
		}
		g.Go(func() error {
			startJobID := svc.JobID
			if in.SyncStop {
				if err := impl.StopSync(gctx, svc.Name, startJobID, svc.Location, session.WorkflowName, ""); err != nil {
					logging.Error("orchestrator", err, "stop_sync failed for %s", svc.Name)
					markIncomplete()
					return nil
				}
				e.store.UpdateServiceStatus(gctx, svc.ID, store.ServiceStopped)
				if svc.Namespace != "" {
					e.store.ReleaseNamespaceLock(gctx, svc.Namespace)
				}
			} else {
				if _, err := impl.StopAsync(gctx, svc.Name, startJobID, svc.Location, session.WorkflowName, ""); err != nil {
					logging.Error("orchestrator", err, "stop_async failed for %s", svc.Name)
				}
				markIncomplete() // async: not yet stopped, not an error
			}
			return nil
		})
	}
	g.Wait()

	// 7. Sync stop with a failure is a retry-expected TEARDOWN.
	if in.SyncStop && !allStopped {
		e.store.UpdateSessionStatus(ctx, session.ID, store.SessionTeardown)
		return wfmerr.External(in.SessionName, fmt.Errorf("one or more services failed to stop"), "stop incomplete, retry expected")
	}

	// 8. sync_stop with everything stopped: run cleanup now. Otherwise,
	// the reconciler finishes the job on the next read path.
	if in.SyncStop && allStopped {
		return e.reconciler.Cleanup(ctx, session)
	}
	return nil
}
