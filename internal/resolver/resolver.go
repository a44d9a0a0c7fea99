// Package resolver implements the Name Resolver (component F): the
// deterministic service-name and step-instance-name derivation rules of
// §4.F, plus the DASI attribute rewrite that turns a declared `dasiconfig`
// into a concrete `mountpoint`/`namespace` pair.
package resolver

import (
	"fmt"

	"github.com/io-sea/wfm-engine/internal/ephemeral"
)

// ServiceName returns the deterministic name a declared service resolves
// to: `{user}-{session}-{declared}` (§4.F).
func ServiceName(user, session, declared string) string {
	return fmt.Sprintf("%s-%s-%s", user, session, declared)
}

// StepInstanceName builds the naming callback store.Store.CreateStepInstance
// expects: `{user}-{session}-{step}_{index}`, the step-description name
// suffixed by its 1-based monotonic index (§4.F), e.g. "user-session0-run_1"
// for the first instance of "run" in session "session0" owned by "user".
func StepInstanceName(user, session, stepDescriptionName string) func(index int) string {
	return func(index int) string {
		return fmt.Sprintf("%s-%s-%s_%d", user, session, stepDescriptionName, index)
	}
}

// RewriteDASIAttributes mutates attrs in place so that a DASI service
// declaration (`dasiconfig`, `namespace`, `storagesize`) carries the
// `mountpoint` and per-session `namespace` a GBF-shaped start actually
// needs, per §4.F/§8 scenario 6:
//   - `mountpoint` is resolved from the DASI config file's root path.
//   - `namespace` is rewritten to a file under the declared namespace
//     directory, named by the sha256 hex digest of the resolved
//     mountpoint.
func RewriteDASIAttributes(attrs ephemeral.Attrs) error {
	configPath := attrs["dasiconfig"]
	root, err := ephemeral.ResolveRoot(configPath)
	if err != nil {
		return err
	}
	namespaceDir := attrs["namespace"]
	attrs["mountpoint"] = root
	attrs["namespace"] = ephemeral.DerivedNamespaceFile(namespaceDir, root)
	return nil
}
