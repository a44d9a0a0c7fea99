package jobmanager

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"testing"

	"github.com/io-sea/wfm-engine/internal/config"
)

// fakeCommand builds an exec.Cmd that re-invokes this test binary as a
// subprocess landing in TestHelperProcess, the standard trick for stubbing
// exec.CommandContext (muster's containerizer tests substitute
// execCommandContext the same way, against a real docker binary instead).
func fakeCommand(stdout string, exitErr bool) func(ctx context.Context, name string, args ...string) *exec.Cmd {
	return func(ctx context.Context, name string, args ...string) *exec.Cmd {
		cs := []string{"-test.run=TestHelperProcess", "--", stdout}
		if exitErr {
			cs[2] = "FAIL"
		}
		cmd := exec.CommandContext(ctx, os.Args[0], cs...)
		cmd.Env = []string{"GO_WANT_HELPER_PROCESS=1"}
		return cmd
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	defer os.Exit(0)

	args := os.Args
	for i, a := range args {
		if a == "--" && i+1 < len(args) {
			payload := args[i+1]
			if payload == "FAIL" {
				os.Exit(1)
			}
			fmt.Fprint(os.Stdout, payload)
			return
		}
	}
}

func TestSlurmSubmitBatch(t *testing.T) {
	m := &SlurmJobManager{settings: config.JobManagerSettings{}}
	execCommandContext = fakeCommand("Submitted batch job 99", false)
	defer func() { execCommandContext = exec.CommandContext }()

	id, err := m.SubmitBatch(context.Background(), "job.sh", SubmitOptions{DependencyJob: -1})
	if err != nil || id != 99 {
		t.Fatalf("got (%d, %v), want (99, nil)", id, err)
	}
}

func TestSlurmGetJobState_FailureYieldsStopped(t *testing.T) {
	m := &SlurmJobManager{settings: config.JobManagerSettings{}}
	execCommandContext = fakeCommand("", true)
	defer func() { execCommandContext = exec.CommandContext }()

	status, err := m.GetJobState(context.Background(), 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != stopped {
		t.Fatalf("got %q, want %q", status, stopped)
	}
}

func TestSlurmListPartitions(t *testing.T) {
	m := &SlurmJobManager{settings: config.JobManagerSettings{}}
	execCommandContext = fakeCommand("PartitionName=compute AllowGroups=ALL\nPartitionName=gpu AllowGroups=ALL", false)
	defer func() { execCommandContext = exec.CommandContext }()

	parts, err := m.ListPartitions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(parts) != 2 || parts[0].Name != "compute" || parts[1].Name != "gpu" {
		t.Fatalf("got %+v", parts)
	}
}
