package ephemeral

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/io-sea/wfm-engine/internal/jobmanager"
	"github.com/io-sea/wfm-engine/internal/store"
	"github.com/io-sea/wfm-engine/pkg/logging"
)

// sbbService implements the SBB (Smart Burst Buffer) kind: a Slurm
// persistent burst-buffer, created/destroyed/used through the job
// manager's burst-buffer plugin options.
type sbbService struct {
	jm jobmanager.JobManager
}

func newSBBService(jm jobmanager.JobManager) Service { return &sbbService{jm: jm} }

func (s *sbbService) Kind() store.ServiceKind { return store.ServiceKindSBB }
func (s *sbbService) MandatoryKeys() []string { return []string{"targets", "flavor"} }
func (s *sbbService) OptionalKeys() []string { return []string{"location", "datanodes"} }

func (s *sbbService) ValidateAttributes(attrs Attrs) error {
	if msg := datanodesOK(attrs, "SBB"); msg != "" {
		return fmt.Errorf("%s", msg)
	}
	return nil
}

func (s *sbbService) ValidateSet([]Attrs) error { return nil }

func (s *sbbService) bbSpec(name string, attrs Attrs) string {
	parts := []string{
		"Name=" + name,
		"Flavor=" + attrs["flavor"],
		"Targets=" + attrs["targets"],
	}
	if dn, ok := attrs["datanodes"]; ok {
		parts = append(parts, "Datanodes="+dn)
	}
	return strings.Join(parts, " ")
}

func (s *sbbService) submitOpts(attrs Attrs, workflow, runID string) jobmanager.SubmitOptions {
	return jobmanager.SubmitOptions{
		WorkflowName:  workflow,
		RunID:         runID,
		Partition:     attrs["location"],
		DependencyJob: -1,
	}
}

func (s *sbbService) StartSync(ctx context.Context, name string, attrs Attrs, workflow, runID string) error {
	cmd := "create_persistent " + s.bbSpec(name, attrs) + " hostname"
	_, err := s.jm.SubmitLine(ctx, cmd, s.submitOpts(attrs, workflow, runID))
	return err
}

func (s *sbbService) StartAsync(ctx context.Context, name string, attrs Attrs, workflow, runID string) (int64, error) {
	cmd := "create_persistent " + s.bbSpec(name, attrs) + " hostname"
	jobid, err := s.jm.SubmitLine(ctx, cmd, s.submitOpts(attrs, workflow, runID))
	if err != nil {
		logging.Error("ephemeral", err, "SBB async start for %s", name)
		return 0, err
	}
	return jobid, nil
}

func (s *sbbService) StopSync(ctx context.Context, name string, startJobID int64, partition, workflow, runID string) error {
	cmd := fmt.Sprintf("destroy_persistent Name=%s hostname", name)
	_, err := s.jm.SubmitLine(ctx, cmd, jobmanager.SubmitOptions{
		WorkflowName: workflow, RunID: runID, Partition: partition, DependencyJob: startJobID,
	})
	return err
}

func (s *sbbService) StopAsync(ctx context.Context, name string, startJobID int64, partition, workflow, runID string) (int64, error) {
	cmd := fmt.Sprintf("destroy_persistent Name=%s hostname", name)
	return s.jm.SubmitLine(ctx, cmd, jobmanager.SubmitOptions{
		WorkflowName: workflow, RunID: runID, Partition: partition, DependencyJob: startJobID,
	})
}

func (s *sbbService) ProbeStatus(ctx context.Context, name string) store.ServiceStatus {
	out, err := runCommand(ctx, "scontrol", "show", "burstbuffer", name)
	if err != nil {
		return store.ServiceUnknown
	}
	return translateBBStatus(parseBBStatusLine(out))
}

func (s *sbbService) CleanupTempFiles(string) {}

func (s *sbbService) BuildUseCommand(name string, command string, startJobID int64, workflow, runID string) string {
	flags := []string{"--bbf", "use." + name}
	if dep := dependencyFlag(startJobID); dep != "" {
		flags = append(flags, dep)
	}
	return rewriteForUse(command, flags...)
}

func (s *sbbService) BuildInteractiveCommand(name, partition string) string {
	opt := ""
	if partition != "" {
		opt = "-p " + partition + " "
	}
	return fmt.Sprintf(`srun -J interactive %s-N 1 -n 1 --bb "SBB use_persistent Name=%s" --pty bash`, opt, name)
}

func (s *sbbService) FillReservation(attrs Attrs, user string) ReservationRequest {
	req := baseReservation(store.ServiceKindSBB, attrs, user)
	req.Attributes["flavor"] = attrs["flavor"]
	req.Attributes["targets"] = strings.Split(attrs["targets"], ":")
	return req
}

// parseBBStatusLine extracts the "State=<token>" field scontrol reports
// for a persistent burst-buffer instance.
func parseBBStatusLine(out string) string {
	for _, field := range strings.Fields(out) {
		if strings.HasPrefix(field, "State=") {
			return strings.TrimPrefix(field, "State=")
		}
	}
	return ""
}

func baseReservation(kind store.ServiceKind, attrs Attrs, user string) ReservationRequest {
	req := ReservationRequest{
		Type:       string(kind),
		User:       user,
		Servers:    1,
		Attributes: map[string]interface{}{},
	}
	if dn, ok := attrs["datanodes"]; ok {
		if n, err := strconv.Atoi(dn); err == nil {
			req.Servers = n
		}
	}
	if loc, ok := attrs["location"]; ok && loc != "" {
		req.Location = strings.Split(loc, ",")
	}
	return req
}
