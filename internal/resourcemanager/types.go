// Package resourcemanager implements the ResourceManager capability
// (component D): reservation admission ahead of ephemeral-service start,
// and the location/flavor catalog (ListLocations/ListFlavors).
package resourcemanager

import (
	"context"

	"github.com/io-sea/wfm-engine/internal/ephemeral"
)

// ResourceManager is the abstract capability the orchestrator drives
// before starting any ephemeral service (§4.D).
type ResourceManager interface {
	// Reserve admits or refuses a reservation request. A refusal is not
	// an error in the Go sense; it is reported through ok=false so the
	// orchestrator can apply §4.G.1's rollback policy without treating
	// it as an ExternalError.
	Reserve(ctx context.Context, req ephemeral.ReservationRequest) (ok bool, reason string, err error)

	// ListLocations returns the resource manager's location catalog.
	ListLocations(ctx context.Context) ([]string, error)

	// ListFlavors returns the resource manager's flavor catalog.
	ListFlavors(ctx context.Context) ([]string, error)
}
