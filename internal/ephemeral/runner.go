package ephemeral

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	"github.com/io-sea/wfm-engine/internal/store"
)

// execCommandContext is a package variable so tests can substitute a fake
// status-query binary, the same pattern jobmanager.execCommandContext and
// muster's containerizer execCommandContext use.
var execCommandContext = exec.CommandContext

// runCommand runs name with args and returns trimmed stdout. Any failure
// (non-zero exit, missing binary) is reported as an error; callers
// generally fold that into store.ServiceUnknown rather than propagating it.
func runCommand(ctx context.Context, name string, args ...string) (string, error) {
	cmd := execCommandContext(ctx, name, args...)
	var out bytes.Buffer
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return strings.TrimSpace(out.String()), nil
}

// translateBBStatus maps the single-word status a burst-buffer/NFS status
// query reports for a named persistent instance onto ServiceStatus.
func translateBBStatus(token string) store.ServiceStatus {
	switch strings.ToUpper(strings.TrimSpace(token)) {
	case "SETUP", "STAGE-IN", "STAGING-IN":
		return store.ServiceStagingIn
	case "STAGED", "ALLOCATED":
		return store.ServiceAllocated
	case "TEARDOWN", "STAGE-OUT", "STAGING-OUT":
		return store.ServiceStagingOut
	case "STAGED-OUT":
		return store.ServiceStagedOut
	case "REMOVED", "DELETED", "NONE", "":
		return store.ServiceStopped
	default:
		return store.ServiceUnknown
	}
}
