package orchestrator

import (
	"context"

	"github.com/io-sea/wfm-engine/internal/jobmanager"
	"github.com/io-sea/wfm-engine/internal/resolver"
	"github.com/io-sea/wfm-engine/internal/store"
	"github.com/io-sea/wfm-engine/internal/validator"
	"github.com/io-sea/wfm-engine/internal/wfmerr"
)

// StartStepInput is the §4.G.3 request shape.
type StartStepInput struct {
	SessionName string
	StepName    string
	CmdlineVars map[string]string
}

var allocatedForStep = map[store.ServiceStatus]bool{
	store.ServiceAllocated: true,
	store.ServiceStagedIn:  true,
}

// StartStep runs the start-step protocol of §4.G.3.
func (e *Engine) StartStep(ctx context.Context, in StartStepInput) (*store.StepInstance, error) {
	// 1-2. Resolve the session; require ACTIVE, trying one convergence
	// pass first.
	sessions, err := e.store.GetSessionByName(ctx, in.SessionName, "")
	if err != nil {
		return nil, err
	}
	if len(sessions) != 1 {
		return nil, wfmerr.State(in.SessionName, "expected exactly one session named %q, found %d", in.SessionName, len(sessions))
	}
	session := sessions[0]
	if session.Status != store.SessionActive {
		if _, err := e.reconciler.Converge(ctx, session); err != nil {
			return nil, err
		}
		refreshed, err := e.store.GetSessionByID(ctx, session.ID)
		if err != nil {
			return nil, err
		}
		session = refreshed
	}
	if session.Status != store.SessionActive {
		return nil, wfmerr.State(in.SessionName, "session is not ACTIVE (status %s)", session.Status)
	}

	// 3. Every service of the session must be ALLOCATED/STAGEDIN.
	services, err := e.store.GetServicesBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	for _, svc := range services {
		if !allocatedForStep[svc.Status] {
			return nil, wfmerr.State(in.SessionName, "some services are not allocated")
		}
	}

	// 4. Resolve the step-description.
	stepDesc, err := e.store.GetStepDescription(ctx, session.ID, in.StepName)
	if err != nil {
		return nil, err
	}
	if stepDesc == nil {
		return nil, wfmerr.State(in.StepName, "step %q not found in session %q", in.StepName, in.SessionName)
	}

	// 5. Substitute predefined STEP + cmdline vars into the command.
	predefined := map[string]string{"STEP": in.StepName}
	command, err := validator.Substitute(stepDesc.Command, predefined, in.CmdlineVars)
	if err != nil {
		return nil, err
	}
	if err := validator.CheckNoResidual(command); err != nil {
		return nil, err
	}

	// 6. Allocate a StepInstance row.
	id, _, instanceName, err := e.store.CreateStepInstance(ctx, stepDesc.ID, command, resolver.StepInstanceName(session.User, session.Name, stepDesc.Name))
	if err != nil {
		return nil, err
	}

	// 7. Dispatch through the service kind's `use` path, if any.
	var svc *store.Service
	if stepDesc.ServiceID != store.NoServiceSentinel {
		for _, s := range services {
			if s.ID == stepDesc.ServiceID {
				svc = s
				break
			}
		}
	}

	var jobid int64
	if svc != nil {
		impl, err := e.registry.Get(svc.Kind)
		if err != nil {
			e.store.DeleteStepInstance(ctx, id)
			return nil, err
		}
		useCommand := impl.BuildUseCommand(svc.Name, command, svc.JobID, session.WorkflowName, "")
		jobid, err = e.jm.SubmitLine(ctx, useCommand, submitOptsFor(svc, session.WorkflowName))
		if err != nil {
			e.store.DeleteStepInstance(ctx, id)
			return nil, wfmerr.External(instanceName, err, "step submission failed")
		}
	} else {
		jobid, err = e.jm.SubmitLine(ctx, command, jobmanagerSubmitOptsNoService(session.WorkflowName))
		if err != nil {
			e.store.DeleteStepInstance(ctx, id)
			return nil, wfmerr.External(instanceName, err, "step submission failed")
		}
	}

	// 8. Update the row with the jobid and mark it RUNNING.
	if err := e.store.UpdateStepInstanceJobID(ctx, id, jobid, store.StepRunning); err != nil {
		return nil, err
	}

	return e.lookupStepInstanceByJobID(ctx, jobid)
}

func (e *Engine) lookupStepInstanceByJobID(ctx context.Context, jobid int64) (*store.StepInstance, error) {
	instances, err := e.store.GetStepInstancesByJobID(ctx, jobid)
	if err != nil {
		return nil, err
	}
	if len(instances) != 1 {
		return nil, wfmerr.State("jobid", "expected exactly one step instance for jobid %d, found %d", jobid, len(instances))
	}
	return instances[0], nil
}

func submitOptsFor(svc *store.Service, workflow string) jobmanager.SubmitOptions {
	return jobmanager.SubmitOptions{
		WorkflowName:  workflow,
		Partition:     svc.Location,
		DependencyJob: store.NoDependencySentinel,
	}
}

func jobmanagerSubmitOptsNoService(workflow string) jobmanager.SubmitOptions {
	return jobmanager.SubmitOptions{WorkflowName: workflow, DependencyJob: store.NoDependencySentinel}
}

// AccessSession returns a single shell command to interactively enter a
// candidate ALLOCATED/STAGEDIN service (§4.G.4). services restricts the
// candidate set to those names; an empty slice means "use all".
func (e *Engine) AccessSession(ctx context.Context, sessionName string, services []string) (string, error) {
	sessions, err := e.store.GetSessionByName(ctx, sessionName, "")
	if err != nil {
		return "", err
	}
	if len(sessions) != 1 {
		return "", wfmerr.State(sessionName, "expected exactly one session named %q, found %d", sessionName, len(sessions))
	}
	session := sessions[0]

	allServices, err := e.store.GetServicesBySession(ctx, session.ID)
	if err != nil {
		return "", err
	}

	wanted := make(map[string]bool, len(services))
	for _, name := range services {
		wanted[name] = true
	}

	var candidates []*store.Service
	for _, svc := range allServices {
		if len(wanted) > 0 && !wanted[svc.Name] {
			continue
		}
		if allocatedForStep[svc.Status] {
			candidates = append(candidates, svc)
		}
	}
	if len(candidates) != 1 {
		return "", wfmerr.State(sessionName, "expected exactly one ALLOCATED/STAGEDIN candidate service, found %d", len(candidates))
	}

	impl, err := e.registry.Get(candidates[0].Kind)
	if err != nil {
		return "", err
	}
	return impl.BuildInteractiveCommand(candidates[0].Name, candidates[0].Location), nil
}

// StepProgress resolves the unique StepInstance by jobid and persists
// progress verbatim (§4.G.5).
func (e *Engine) StepProgress(ctx context.Context, jobid int64, progress string) (string, error) {
	instance, err := e.lookupStepInstanceByJobID(ctx, jobid)
	if err != nil {
		return "", err
	}
	if err := e.store.UpdateStepInstanceProgress(ctx, instance.ID, progress); err != nil {
		return "", err
	}
	return instance.InstanceName, nil
}
