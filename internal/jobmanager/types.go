// Package jobmanager implements the abstract JobManager capability
// (component B): job submission/cancellation/state-query/partition-listing
// and the heterogeneous-job status combination rules of §4.B.
package jobmanager

import "context"

// Partition names a subset of cluster nodes services and steps may pin to.
type Partition struct {
	Name string
}

// SubmitOptions carries the batch-system options a submission needs:
// workflow/run-id correlation tags, the target partition, environment
// exports, and an optional dependency on a previously-submitted job.
type SubmitOptions struct {
	WorkflowName   string
	RunID          string
	Partition      string
	Env            map[string]string
	DependencyJob  int64 // <=0 means no dependency (§4.G.3, §9)
}

// JobManager is the abstract contract the orchestrator and the ephemeral
// service implementations depend on. A concrete implementation talks to a
// real batch system (Slurm, ...); this engine ships one reference
// implementation (Slurm-shaped, in slurm.go) that runs its CLI commands
// through the replaceable execCommandContext package variable, so it can be
// exercised without a real cluster.
type JobManager interface {
	SubmitBatch(ctx context.Context, specFile string, opts SubmitOptions) (jobid int64, err error)
	SubmitLine(ctx context.Context, command string, opts SubmitOptions) (jobid int64, err error)
	Cancel(ctx context.Context, jobid int64) error
	GetJobState(ctx context.Context, jobid int64) (rawStatus string, err error)
	ListPartitions(ctx context.Context) ([]Partition, error)

	// CombineForDisplay and CombineForStopping implement §4.B's
	// heterogeneous-job combination rules over a blank-separated raw
	// status string.
	CombineForDisplay(rawStatus string) string
	CombineForStopping(rawStatus string) string

	// IsStopped reports whether a combine-for-stopping result denotes a
	// fully stopped job.
	IsStopped(combinedStoppingStatus string) bool
}
