package resourcemanager

import (
	"github.com/io-sea/wfm-engine/internal/config"
	"github.com/io-sea/wfm-engine/internal/jobmanager"
	"github.com/io-sea/wfm-engine/internal/wfmerr"
)

// New builds the ResourceManager configured by settings. "none" (or an
// empty kind) falls back to the job manager's partitions per §4.D; "http"
// reaches a REST collaborator at settings.Endpoint.
func New(settings config.ResourceManagerSettings, jm jobmanager.JobManager) (ResourceManager, error) {
	switch settings.Kind {
	case "", "none":
		return newNoneResourceManager(jm), nil
	case "http":
		if settings.Endpoint == "" {
			return nil, wfmerr.Validation("resourceManager.endpoint", "endpoint is required for the http resource manager")
		}
		return newHTTPResourceManager(settings.Endpoint, settings.Timeout), nil
	default:
		return nil, wfmerr.NotSupported("resourceManager.kind", "unsupported resource manager kind %q", settings.Kind)
	}
}
