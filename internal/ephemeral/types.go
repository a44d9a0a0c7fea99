// Package ephemeral implements the EphemeralService capability (component
// C): one implementation per ServiceKind (SBB, GBF, DASI, NONE), each
// declaring its mandatory/optional attribute keys and the kind-specific
// validation, start/stop, status-probing and reservation-filling behavior
// of §4.C.
package ephemeral

import (
	"context"

	"github.com/io-sea/wfm-engine/internal/store"
)

// Attrs is a service's attribute map as declared in the workflow
// description (string-valued; numeric attributes like storagesize and
// datanodes are parsed by the kind implementation that needs them).
type Attrs map[string]string

// ReservationRequest is the body sent to the resource manager's reserve
// operation (§4.D, §6), built by FillReservation from a service's
// attributes.
type ReservationRequest struct {
	Name       string
	User       string
	Type       string
	Servers    int
	Attributes map[string]interface{}
	Location   []string
}

// Service is the per-kind capability the orchestrator drives. Kinds that
// do not support an operation (NONE's synchronous-only semantics) still
// implement every method; they just no-op or report failure the way the
// reference ephemeral-service plugins do.
type Service interface {
	Kind() store.ServiceKind

	MandatoryKeys() []string
	OptionalKeys() []string

	// ValidateAttributes checks one service's attributes in isolation.
	// Mandatory/optional key presence has already been checked by the
	// validator; this only performs kind-specific format/semantic checks.
	ValidateAttributes(attrs Attrs) error

	// ValidateSet checks cross-service constraints among every declared
	// service of this kind in one workflow description (distinct
	// mountpoints, distinct namespaces, distinct DASI config files, ...).
	ValidateSet(services []Attrs) error

	// StartSync runs the service's start command to completion; on
	// success the service is considered ALLOCATED.
	StartSync(ctx context.Context, name string, attrs Attrs, workflow, runID string) error

	// StartAsync submits the service's start command as a batch job and
	// returns its jobid; the service is WAITING until probe_status
	// reports otherwise.
	StartAsync(ctx context.Context, name string, attrs Attrs, workflow, runID string) (jobid int64, err error)

	// StopSync/StopAsync mirror start, with startJobID<=0 meaning "no
	// dependency" (the service was started synchronously).
	StopSync(ctx context.Context, name string, startJobID int64, partition, workflow, runID string) error
	StopAsync(ctx context.Context, name string, startJobID int64, partition, workflow, runID string) (jobid int64, err error)

	// ProbeStatus queries the live service status. Returns
	// store.ServiceUnknown on any query failure.
	ProbeStatus(ctx context.Context, name string) store.ServiceStatus

	// CleanupTempFiles removes any spec/batch files the kind created for
	// this service's start/use/stop commands.
	CleanupTempFiles(name string)

	// BuildUseCommand rewrites a step's command to route through this
	// service (attaching the service's batch options and a dependency on
	// startJobID, if any).
	BuildUseCommand(name, command string, startJobID int64, workflow, runID string) string

	// BuildInteractiveCommand builds the shell command an operator runs
	// to interactively access the service (§6 `use`).
	BuildInteractiveCommand(name, partition string) string

	// FillReservation builds the resource-manager reservation request for
	// one declared service.
	FillReservation(attrs Attrs, user string) ReservationRequest
}
