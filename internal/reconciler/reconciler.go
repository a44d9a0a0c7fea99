// Package reconciler implements the Convergence / Status Reconciler
// (component H). There is no background goroutine: every read path (list
// sessions, get session, get step status) pulls freshness by calling
// Converge before it renders a response (§4.H).
package reconciler

import (
	"context"
	"time"

	"github.com/io-sea/wfm-engine/internal/ephemeral"
	"github.com/io-sea/wfm-engine/internal/jobmanager"
	"github.com/io-sea/wfm-engine/internal/metrics"
	"github.com/io-sea/wfm-engine/internal/store"
	"github.com/io-sea/wfm-engine/pkg/logging"
)

// Reconciler pulls live status from the job manager and ephemeral
// services and folds it back into the Store.
type Reconciler struct {
	store    *store.Store
	jm       jobmanager.JobManager
	registry *ephemeral.Registry
}

func New(st *store.Store, jm jobmanager.JobManager, registry *ephemeral.Registry) *Reconciler {
	return &Reconciler{store: st, jm: jm, registry: registry}
}

var allocatedLike = map[store.ServiceStatus]bool{
	store.ServiceAllocated: true,
	store.ServiceStagedIn:  true,
}

var stoppedLike = map[store.ServiceStatus]bool{
	store.ServiceStopped:    true,
	store.ServiceStagedOut:  true,
}

// RefreshServices calls ProbeStatus on every service of sessionID and
// writes back any status it returns other than UNKNOWN (§4.H.1). Services
// whose kind the registry no longer recognizes are left untouched.
func (r *Reconciler) RefreshServices(ctx context.Context, sessionID int64) ([]*store.Service, error) {
	services, err := r.store.GetServicesBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	for _, svc := range services {
		impl, err := r.registry.Get(svc.Kind)
		if err != nil {
			continue
		}
		status := impl.ProbeStatus(ctx, svc.Name)
		if status == store.ServiceUnknown {
			continue
		}
		if status != svc.Status {
			if err := r.store.UpdateServiceStatus(ctx, svc.ID, status); err != nil {
				return nil, err
			}
			svc.Status = status
		}
	}
	return services, nil
}

// DeriveSessionStatus implements §4.H.2's status-derivation rules.
func DeriveSessionStatus(current store.SessionStatus, services []*store.Service) store.SessionStatus {
	if len(services) == 0 {
		switch current {
		case store.SessionStarting:
			return store.SessionActive
		case store.SessionStopping:
			return store.SessionStopped
		}
		return current
	}

	allAllocated := true
	allStopped := true
	anyTeardown := false
	for _, svc := range services {
		if !allocatedLike[svc.Status] {
			allAllocated = false
		}
		if !stoppedLike[svc.Status] {
			allStopped = false
		}
		if svc.Status == store.ServiceTeardown {
			anyTeardown = true
		}
	}

	if anyTeardown {
		return store.SessionTeardown
	}
	if allAllocated && current == store.SessionStarting {
		return store.SessionActive
	}
	if allStopped && current == store.SessionStopping {
		return store.SessionStopped
	}
	return current
}

// Converge refreshes a session's services, derives its new status, persists
// the transition, and — on a STOPPED observation — runs the cleanup of
// §4.G.2 step 8 and reports cleaned=true so the caller can omit the session
// from a listing (§4.H.3).
func (r *Reconciler) Converge(ctx context.Context, session *store.Session) (cleaned bool, err error) {
	start := time.Now()
	defer func() {
		metrics.ReconciliationDuration.Observe(time.Since(start).Seconds())
		result := "ok"
		if err != nil {
			result = "error"
		}
		metrics.Reconciliations.WithLabelValues(result).Inc()
	}()

	services, err := r.RefreshServices(ctx, session.ID)
	if err != nil {
		return false, err
	}
	newStatus := DeriveSessionStatus(session.Status, services)
	if newStatus != session.Status {
		if err := r.store.UpdateSessionStatus(ctx, session.ID, newStatus); err != nil {
			return false, err
		}
		session.Status = newStatus
	}
	if session.Status != store.SessionStopped {
		return false, nil
	}
	if err := r.Cleanup(ctx, session); err != nil {
		logging.Error("reconciler", err, "cleanup failed for session %s", session.Name)
		return false, err
	}
	return true, nil
}

// Cleanup implements §4.G.2 step 8 / §4.H.3: delete every service (with
// temp-file removal), every step-instance, every step-description, then
// the session row itself. It is also called directly by the stop protocol
// once every service is confirmed stopped.
func (r *Reconciler) Cleanup(ctx context.Context, session *store.Session) error {
	services, err := r.store.GetServicesBySession(ctx, session.ID)
	if err != nil {
		return err
	}
	for _, svc := range services {
		if impl, err := r.registry.Get(svc.Kind); err == nil {
			impl.CleanupTempFiles(svc.Name)
		}
		if svc.Namespace != "" {
			if err := r.store.ReleaseNamespaceLock(ctx, svc.Namespace); err != nil {
				return err
			}
		}
		if err := r.store.DeleteService(ctx, svc.ID); err != nil {
			return err
		}
	}

	stepDescs, err := r.store.GetStepDescriptionsBySession(ctx, session.ID)
	if err != nil {
		return err
	}
	for _, sd := range stepDescs {
		instances, err := r.store.GetStepInstancesByStepDescription(ctx, sd.ID)
		if err != nil {
			return err
		}
		for _, inst := range instances {
			if err := r.store.DeleteStepInstance(ctx, inst.ID); err != nil {
				return err
			}
		}
		if err := r.store.DeleteStepDescription(ctx, sd.ID); err != nil {
			return err
		}
	}

	return r.store.DeleteSession(ctx, session.ID)
}

// InstanceStatus is one entry of RefreshStepInstances' result, which
// implements §4.H.4: for every step instance of stepDescriptionID, query the
// job manager's raw status, persist it verbatim, and return it alongside its
// display-combined and stopping-combined forms.
type InstanceStatus struct {
	Instance *store.StepInstance
	Raw      string
	Display  string
	Stopping string
}

func (r *Reconciler) RefreshStepInstances(ctx context.Context, stepDescriptionID int64) ([]InstanceStatus, error) {
	instances, err := r.store.GetStepInstancesByStepDescription(ctx, stepDescriptionID)
	if err != nil {
		return nil, err
	}
	out := make([]InstanceStatus, 0, len(instances))
	for _, inst := range instances {
		raw := string(inst.Status)
		if inst.JobID >= 0 {
			if s, err := r.jm.GetJobState(ctx, inst.JobID); err == nil {
				raw = s
			} else {
				logging.Error("reconciler", err, "get_job_state failed for jobid %d", inst.JobID)
			}
			if raw != string(inst.Status) {
				if err := r.store.UpdateStepInstanceStatus(ctx, inst.ID, store.StepInstanceStatus(raw)); err != nil {
					return nil, err
				}
				inst.Status = store.StepInstanceStatus(raw)
			}
		}
		out = append(out, InstanceStatus{
			Instance: inst,
			Raw:      raw,
			Display:  r.jm.CombineForDisplay(raw),
			Stopping: r.jm.CombineForStopping(raw),
		})
	}
	return out, nil
}
