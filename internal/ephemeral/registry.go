package ephemeral

import (
	"github.com/io-sea/wfm-engine/internal/jobmanager"
	"github.com/io-sea/wfm-engine/internal/store"
	"github.com/io-sea/wfm-engine/internal/wfmerr"
)

// Registry dispatches a ServiceKind to its Service implementation, the Go
// stand-in for the source's runtime service-class registry (§9 REDESIGN
// FLAGS: "model this as a tagged variant with an interface-object table
// keyed by kind").
type Registry struct {
	services map[store.ServiceKind]Service
}

// NewRegistry builds the fixed SBB/GBF/DASI/NONE dispatch table.
func NewRegistry(jm jobmanager.JobManager) *Registry {
	return &Registry{services: map[store.ServiceKind]Service{
		store.ServiceKindSBB:  newSBBService(jm),
		store.ServiceKindGBF:  newGBFService(jm),
		store.ServiceKindDASI: newDASIService(jm),
		store.ServiceKindNone: newNoneService(),
	}}
}

// Get returns the Service implementing kind, or a KindNotSupported error
// for any kind outside the fixed set above.
func (r *Registry) Get(kind store.ServiceKind) (Service, error) {
	svc, ok := r.services[kind]
	if !ok {
		return nil, wfmerr.NotSupported("service.kind", "unsupported ephemeral service kind %q", kind)
	}
	return svc, nil
}
