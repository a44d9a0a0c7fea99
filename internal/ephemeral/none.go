package ephemeral

import (
	"context"

	"github.com/io-sea/wfm-engine/internal/store"
	"github.com/io-sea/wfm-engine/pkg/logging"
)

// noneService implements the NONE kind: no ephemeral service is
// provisioned, synchronous operations are no-ops, asynchronous ones are
// never expected to be called, and use() only widens the step command
// with job-manager correlation options (handled by the caller's
// SubmitOptions, not here).
type noneService struct{}

func newNoneService() Service { return noneService{} }

func (noneService) Kind() store.ServiceKind { return store.ServiceKindNone }
func (noneService) MandatoryKeys() []string { return nil }
func (noneService) OptionalKeys() []string  { return nil }

func (noneService) ValidateAttributes(Attrs) error  { return nil }
func (noneService) ValidateSet([]Attrs) error       { return nil }

func (noneService) StartSync(context.Context, string, Attrs, string, string) error {
	return nil
}

func (noneService) StartAsync(context.Context, string, Attrs, string, string) (int64, error) {
	logging.Warn("ephemeral", "async start called for NONE service, this should not happen")
	return 0, nil
}

func (noneService) StopSync(context.Context, string, int64, string, string, string) error {
	return nil
}

func (noneService) StopAsync(context.Context, string, int64, string, string, string) (int64, error) {
	logging.Warn("ephemeral", "async stop called for NONE service, this should not happen")
	return 0, nil
}

func (noneService) ProbeStatus(context.Context, string) store.ServiceStatus {
	return store.ServiceUnknown
}

func (noneService) CleanupTempFiles(string) {}

func (noneService) BuildUseCommand(_ string, command string, _ int64, _, _ string) string {
	return command
}

func (noneService) BuildInteractiveCommand(string, string) string { return "" }

func (noneService) FillReservation(Attrs, string) ReservationRequest {
	return ReservationRequest{}
}
