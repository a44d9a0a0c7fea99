package resourcemanager

import (
	"context"

	"github.com/io-sea/wfm-engine/internal/ephemeral"
	"github.com/io-sea/wfm-engine/internal/jobmanager"
)

// noneResourceManager implements the "none" kind: every reservation is
// admitted unconditionally, and the location/flavor catalog is whatever
// the job manager's partitions report (§4.D).
type noneResourceManager struct {
	jm jobmanager.JobManager
}

func newNoneResourceManager(jm jobmanager.JobManager) ResourceManager {
	return &noneResourceManager{jm: jm}
}

func (n *noneResourceManager) Reserve(context.Context, ephemeral.ReservationRequest) (bool, string, error) {
	return true, "", nil
}

func (n *noneResourceManager) ListLocations(ctx context.Context) ([]string, error) {
	partitions, err := n.jm.ListPartitions(ctx)
	if err != nil {
		return nil, err
	}
	names := make([]string, len(partitions))
	for i, p := range partitions {
		names[i] = p.Name
	}
	return names, nil
}

// ListFlavors has no equivalent concept in the job manager; the "none"
// resource manager reports the same partition names for both catalogs,
// which is what a deployment with no dedicated resource manager service
// actually has to offer a client asking "what can I request".
func (n *noneResourceManager) ListFlavors(ctx context.Context) ([]string, error) {
	return n.ListLocations(ctx)
}
