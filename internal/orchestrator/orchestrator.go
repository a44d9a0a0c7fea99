// Package orchestrator implements the Session Orchestrator (component G):
// the start-session, stop-session, start-step, access-session and
// step-progress protocols of §4.G, coordinating the Store, JobManager,
// ephemeral service registry, ResourceManager, Validator and Resolver.
package orchestrator

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/io-sea/wfm-engine/internal/ephemeral"
	"github.com/io-sea/wfm-engine/internal/jobmanager"
	"github.com/io-sea/wfm-engine/internal/reconciler"
	"github.com/io-sea/wfm-engine/internal/resolver"
	"github.com/io-sea/wfm-engine/internal/resourcemanager"
	"github.com/io-sea/wfm-engine/internal/store"
	"github.com/io-sea/wfm-engine/internal/validator"
	"github.com/io-sea/wfm-engine/internal/wfmerr"
	"github.com/io-sea/wfm-engine/pkg/logging"
)

// Engine wires the orchestration protocols to their collaborators.
type Engine struct {
	store      *store.Store
	jm         jobmanager.JobManager
	registry   *ephemeral.Registry
	rm         resourcemanager.ResourceManager
	reconciler *reconciler.Reconciler
}

func New(st *store.Store, jm jobmanager.JobManager, registry *ephemeral.Registry, rm resourcemanager.ResourceManager, recon *reconciler.Reconciler) *Engine {
	return &Engine{store: st, jm: jm, registry: registry, rm: rm, reconciler: recon}
}

// resolvedService carries one declared service through start-session: its
// workflow-level declaration plus the concrete identity it resolves to.
type resolvedService struct {
	declaredName string
	resolvedName string
	kind         store.ServiceKind
	attrs        ephemeral.Attrs
	usedByStep   bool
}

// StartSessionInput is the §4.G.1 request shape.
type StartSessionInput struct {
	WorkflowFile string
	WorkflowText string
	SessionName  string
	User         string
	SyncStart    bool
	CmdlineVars  map[string]string
}

// StartSession runs the twelve-step protocol of §4.G.1.
func (e *Engine) StartSession(ctx context.Context, in StartSessionInput) (*store.Session, error) {
	// 1. Validate session name.
	if err := validateName("session_name", in.SessionName); err != nil {
		return nil, err
	}

	// 2. Substitute predefined + cmdline variables; ensure no undefined
	// variables remain in the session-level (non-command) portion.
	predefined := validator.PredefinedVariables(in.SessionName)
	text, err := validator.Substitute(in.WorkflowText, predefined, in.CmdlineVars)
	if err != nil {
		return nil, annotateFile(err, in.WorkflowFile)
	}
	if err := validator.CheckNoResidual(text); err != nil {
		return nil, annotateFile(err, in.WorkflowFile)
	}

	// 3. Parse + validate; rewrite DASI attributes.
	doc, err := validator.Parse(text, e.registry)
	if err != nil {
		return nil, annotateFile(err, in.WorkflowFile)
	}
	for i := range doc.Services {
		if strings.EqualFold(doc.Services[i].Type, "DASI") {
			attrs := ephemeral.Attrs(doc.Services[i].Attributes)
			if err := resolver.RewriteDASIAttributes(attrs); err != nil {
				return nil, wfmerr.Validation(doc.Services[i].Name, "%s", err)
			}
		}
	}

	// 4. Rewrite service references through §4.F.
	resolved := make(map[string]*resolvedService, len(doc.Services))
	order := make([]string, 0, len(doc.Services))
	for _, svc := range doc.Services {
		name := resolver.ServiceName(in.User, in.SessionName, svc.Name)
		resolved[svc.Name] = &resolvedService{
			declaredName: svc.Name,
			resolvedName: name,
			kind:         store.ServiceKind(strings.ToUpper(svc.Type)),
			attrs:        ephemeral.Attrs(svc.Attributes),
		}
		order = append(order, svc.Name)
	}
	for _, step := range doc.Steps {
		for _, ref := range step.Services {
			if rs, ok := resolved[ref.Name]; ok {
				rs.usedByStep = true
			}
		}
	}

	// 5. Refuse if a non-STOPPED session already exists. Uniqueness is
	// scoped to (name, workflow, user) (§3), so a same-named session
	// owned by someone else must not block this one.
	existing, err := e.store.GetSessionByName(ctx, in.SessionName, doc.Workflow.Name)
	if err != nil && err != store.ErrUnknownSession {
		return nil, err
	}
	for _, s := range existing {
		if s.User == in.User && s.Status != store.SessionStopped {
			return nil, wfmerr.State(in.SessionName, "session already exists and is not STOPPED")
		}
	}

	// 6. Acquire namespace locks, all-or-nothing.
	var lockedNamespaces []string
	for _, declared := range order {
		rs := resolved[declared]
		ns := rs.attrs["namespace"]
		if ns == "" {
			continue
		}
		if _, err := e.store.AcquireNamespaceLock(ctx, ns, rs.resolvedName); err != nil {
			for i := len(lockedNamespaces) - 1; i >= 0; i-- {
				e.store.ReleaseNamespaceLock(ctx, lockedNamespaces[i])
			}
			return nil, err
		}
		lockedNamespaces = append(lockedNamespaces, ns)
	}
	releaseLocks := func() {
		for i := len(lockedNamespaces) - 1; i >= 0; i-- {
			e.store.ReleaseNamespaceLock(ctx, lockedNamespaces[i])
		}
	}

	// 7. Build run_id.
	runID := fmt.Sprintf("%s-%s", in.SessionName, time.Now().Format("2006-01-02_15:04:05"))

	// 8-9. Reserve + start each used service, in declaration order;
	// persist as we go so rollback can walk back through what succeeded.
	type started struct {
		rs      *resolvedService
		storeID int64
		jobid   int64
	}
	var startedServices []started

	// sessionID is set once step 10 creates the Session row, so rollback
	// can delete it along with everything it reaches via its id.
	var sessionID int64
	rollback := func() {
		for i := len(startedServices) - 1; i >= 0; i-- {
			st := startedServices[i]
			impl, err := e.registry.Get(st.rs.kind)
			if err != nil {
				continue
			}
			if in.SyncStart {
				if err := impl.StopSync(ctx, st.rs.resolvedName, st.jobid, st.rs.attrs["location"], doc.Workflow.Name, runID); err != nil {
					logging.Error("orchestrator", err, "rollback stop_sync for %s", st.rs.resolvedName)
				}
			} else {
				if _, err := impl.StopAsync(ctx, st.rs.resolvedName, st.jobid, st.rs.attrs["location"], doc.Workflow.Name, runID); err != nil {
					logging.Error("orchestrator", err, "rollback stop_async for %s", st.rs.resolvedName)
				}
			}
			if err := e.store.DeleteService(ctx, st.storeID); err != nil {
				logging.Error("orchestrator", err, "rollback delete service %s", st.rs.resolvedName)
			}
		}
		releaseLocks()
		if sessionID != 0 {
			if err := e.store.DeleteSession(ctx, sessionID); err != nil {
				logging.Error("orchestrator", err, "rollback delete session %s", in.SessionName)
			}
		}
	}

	for _, declared := range order {
		rs := resolved[declared]
		if !rs.usedByStep {
			continue
		}
		impl, err := e.registry.Get(rs.kind)
		if err != nil {
			rollback()
			return nil, err
		}

		req := impl.FillReservation(rs.attrs, in.User)
		req.Name = rs.resolvedName
		ok, reason, err := e.rm.Reserve(ctx, req)
		if err != nil {
			rollback()
			return nil, err
		}
		if !ok {
			rollback()
			return nil, wfmerr.Resource(rs.resolvedName, "reservation refused: %s", reason)
		}

		var jobid int64
		var status store.ServiceStatus
		if in.SyncStart {
			err = impl.StartSync(ctx, rs.resolvedName, rs.attrs, doc.Workflow.Name, runID)
			jobid = store.NoDependencySentinel
			status = store.ServiceAllocated
		} else {
			jobid, err = impl.StartAsync(ctx, rs.resolvedName, rs.attrs, doc.Workflow.Name, runID)
			status = store.ServiceWaiting
		}
		if err != nil {
			rollback()
			return nil, wfmerr.External(rs.resolvedName, err, "service start failed")
		}

		datanodes := 1
		if n, err := strconv.Atoi(rs.attrs["datanodes"]); err == nil {
			datanodes = n
		}
		storeID, err := e.store.CreateService(ctx, &store.Service{
			Name:        rs.resolvedName,
			Kind:        rs.kind,
			Location:    rs.attrs["location"],
			Targets:     rs.attrs["targets"],
			Flavor:      rs.attrs["flavor"],
			Namespace:   rs.attrs["namespace"],
			Mountpoint:  rs.attrs["mountpoint"],
			StorageSize: rs.attrs["storagesize"],
			DataNodes:   datanodes,
			StartTS:     timeNowPtr(),
			Status:      status,
			JobID:       jobid,
		})
		if err != nil {
			rollback()
			return nil, err
		}
		startedServices = append(startedServices, started{rs: rs, storeID: storeID, jobid: jobid})
	}

	// 10. Insert Session row, patch services with its id.
	sessionID, err = e.store.CreateSession(ctx, &store.Session{
		Name:         in.SessionName,
		WorkflowName: doc.Workflow.Name,
		User:         in.User,
		StartTS:      time.Now(),
		Status:       store.SessionStarting,
	})
	if err != nil {
		rollback()
		return nil, err
	}
	for _, st := range startedServices {
		if err := e.store.SetServiceSession(ctx, st.storeID, sessionID); err != nil {
			rollback()
			return nil, err
		}
	}

	// 11. Insert StepDescription rows.
	serviceStoreID := make(map[string]int64)
	for _, st := range startedServices {
		serviceStoreID[st.rs.declaredName] = st.storeID
	}
	for _, step := range doc.Steps {
		serviceID := int64(store.NoServiceSentinel)
		if len(step.Services) == 1 {
			if id, ok := serviceStoreID[step.Services[0].Name]; ok {
				serviceID = id
			}
		}
		if _, err := e.store.CreateStepDescription(ctx, &store.StepDescription{
			SessionID: sessionID,
			ServiceID: serviceID,
			Name:      step.Name,
			Command:   step.Command,
		}); err != nil {
			rollback()
			return nil, err
		}
	}

	// 12. Mark ACTIVE if sync, else leave STARTING for the reconciler.
	finalStatus := store.SessionStarting
	if in.SyncStart {
		finalStatus = store.SessionActive
		if err := e.store.UpdateSessionStatus(ctx, sessionID, finalStatus); err != nil {
			return nil, err
		}
	}

	return e.store.GetSessionByID(ctx, sessionID)
}

func validateName(field, name string) error {
	if name == "" || strings.Contains(name, "/") {
		return wfmerr.Validation(field, "%q is not a valid name (non-empty, no '/')", name)
	}
	return nil
}

func annotateFile(err error, file string) error {
	if werr, ok := wfmerr.As(err); ok && file != "" {
		werr.Detail = fmt.Sprintf("%s: %s", file, werr.Detail)
	}
	return err
}

func timeNowPtr() *time.Time {
	t := time.Now()
	return &t
}
