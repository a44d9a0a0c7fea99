package jobmanager

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/io-sea/wfm-engine/internal/config"
	"github.com/io-sea/wfm-engine/internal/wfmerr"
	"github.com/io-sea/wfm-engine/pkg/logging"
)

const subsystem = "jobmanager"

// execCommandContext is a package variable so tests can substitute a fake
// batch system without touching a real cluster.
var execCommandContext = exec.CommandContext

// SlurmJobManager drives a Slurm-shaped batch system through its CLI
// (sbatch/scancel/squeue/scontrol), as configured by JobManagerSettings.
// Tests exercise it by swapping execCommandContext for a fake batch
// system; it is the one concrete type this engine ships.
type SlurmJobManager struct {
	settings config.JobManagerSettings
}

// New builds a JobManager from settings. Only "slurm" is implemented; any
// other configured kind is a configuration error at startup, not a runtime
// one, since the kind never changes after boot.
func New(settings config.JobManagerSettings) (JobManager, error) {
	switch settings.Kind {
	case "", "slurm":
		return &SlurmJobManager{settings: settings}, nil
	default:
		return nil, wfmerr.NotSupported("jobmanager.kind", "unsupported job manager kind %q", settings.Kind)
	}
}

func (m *SlurmJobManager) run(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, m.commandTimeout())
	defer cancel()

	name := args[0]
	cmd := execCommandContext(ctx, name, args[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s failed: %w: %s", name, err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

func (m *SlurmJobManager) commandTimeout() time.Duration {
	if m.settings.CommandTimeout > 0 {
		return m.settings.CommandTimeout
	}
	return 60 * time.Second
}

func (m *SlurmJobManager) command(key string) string {
	switch key {
	case "submit":
		if m.settings.SubmitCmd != "" {
			return m.settings.SubmitCmd
		}
		return "sbatch"
	case "cancel":
		if m.settings.CancelCmd != "" {
			return m.settings.CancelCmd
		}
		return "scancel"
	case "state":
		if m.settings.JobStateCmd != "" {
			return m.settings.JobStateCmd
		}
		return "squeue"
	case "partitions":
		if m.settings.PartitionsCmd != "" {
			return m.settings.PartitionsCmd
		}
		return "scontrol"
	}
	return key
}

// SubmitBatch submits a pre-written batch script via sbatch and returns the
// allocated job id, parsed from "Submitted batch job <id>".
func (m *SlurmJobManager) SubmitBatch(ctx context.Context, specFile string, opts SubmitOptions) (int64, error) {
	args := []string{m.command("submit")}
	args = append(args, m.submitFlags(opts)...)
	args = append(args, specFile)

	out, err := m.run(ctx, args...)
	if err != nil {
		return 0, wfmerr.External("jobmanager", err, "submit batch script %s", specFile)
	}
	return parseSubmittedJobID(out)
}

// SubmitLine wraps a shell command line in a one-line batch submission.
// Ephemeral services and steps alike submit through this path since both
// are expressed as a single command in the store (§3, §4.F).
func (m *SlurmJobManager) SubmitLine(ctx context.Context, command string, opts SubmitOptions) (int64, error) {
	args := []string{m.command("submit")}
	args = append(args, m.submitFlags(opts)...)
	args = append(args, "--wrap", command)

	out, err := m.run(ctx, args...)
	if err != nil {
		return 0, wfmerr.External("jobmanager", err, "submit command %q", command)
	}
	return parseSubmittedJobID(out)
}

func (m *SlurmJobManager) submitFlags(opts SubmitOptions) []string {
	var flags []string
	if opts.Partition != "" {
		flags = append(flags, "--partition", opts.Partition)
	}
	if opts.RunID != "" {
		flags = append(flags, "--comment", opts.WorkflowName+":"+opts.RunID)
	}
	if opts.DependencyJob > 0 {
		// afterany, not afterok: teardown must run even if the start job
		// failed or was cancelled, or the ephemeral resource leaks.
		flags = append(flags, "--dependency", fmt.Sprintf("afterany:%d", opts.DependencyJob))
	}
	for k, v := range opts.Env {
		flags = append(flags, "--export", fmt.Sprintf("%s=%s", k, v))
	}
	return flags
}

func parseSubmittedJobID(out string) (int64, error) {
	fields := strings.Fields(out)
	for i, f := range fields {
		if f == "job" && i+1 < len(fields) {
			return strconv.ParseInt(fields[i+1], 10, 64)
		}
	}
	// Fallback: a bare job id, useful against --wrap and fake test binaries.
	if id, err := strconv.ParseInt(strings.TrimSpace(out), 10, 64); err == nil {
		return id, nil
	}
	return 0, fmt.Errorf("could not parse job id from submission output %q", out)
}

// Cancel sends scancel for jobid. Cancelling an already-gone job is not an
// error: Slurm itself treats it as a no-op, and the stop protocol (§4.G.2)
// relies on cancel being safe to retry.
func (m *SlurmJobManager) Cancel(ctx context.Context, jobid int64) error {
	_, err := m.run(ctx, m.command("cancel"), strconv.FormatInt(jobid, 10))
	if err != nil {
		logging.Warn(subsystem, "cancel jobid=%d: %v", jobid, err)
	}
	return nil
}

// GetJobState returns the raw, blank-separated status string for jobid, one
// token per heterogeneous sub-job (§4.B). squeue's -h -o %T with -j
// restricted to the job id naturally yields that shape for job arrays and
// heterogeneous jobs alike.
func (m *SlurmJobManager) GetJobState(ctx context.Context, jobid int64) (string, error) {
	out, err := m.run(ctx, m.command("state"), "-h", "-j", strconv.FormatInt(jobid, 10), "-o", "%T")
	if err != nil {
		logging.Debug(subsystem, "state query failed for jobid=%d, treating as stopped: %v", jobid, err)
		return stopped, nil
	}
	if out == "" {
		return stopped, nil
	}
	return strings.Join(strings.Fields(out), " "), nil
}

// ListPartitions enumerates the cluster's partitions via `scontrol show
// partition`, used as the NONE resource manager's fallback (§4.D).
func (m *SlurmJobManager) ListPartitions(ctx context.Context) ([]Partition, error) {
	out, err := m.run(ctx, m.command("partitions"), "show", "partition")
	if err != nil {
		return nil, wfmerr.External("jobmanager", err, "list partitions")
	}
	var parts []Partition
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "PartitionName=") {
			continue
		}
		name := strings.TrimPrefix(line, "PartitionName=")
		if idx := strings.IndexAny(name, " \t"); idx >= 0 {
			name = name[:idx]
		}
		parts = append(parts, Partition{Name: name})
	}
	return parts, nil
}
