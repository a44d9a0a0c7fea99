package config

import "time"

// Settings is the top-level configuration structure for the WFM engine.
// It is loaded once at process startup and treated as immutable afterward —
// per the engine's design, there is no in-memory singleton beyond this.
type Settings struct {
	Server          ServerSettings          `yaml:"server"`
	Store           StoreSettings           `yaml:"store"`
	JobManager      JobManagerSettings      `yaml:"jobManager"`
	ResourceManager ResourceManagerSettings `yaml:"resourceManager"`
	Logging         LoggingSettings         `yaml:"logging"`
}

// ServerSettings configures the HTTP API surface (component I).
type ServerSettings struct {
	ListenAddress string        `yaml:"listenAddress,omitempty"`
	ReadTimeout   time.Duration `yaml:"readTimeout,omitempty"`
	WriteTimeout  time.Duration `yaml:"writeTimeout,omitempty"`
}

// StoreSettings configures the embedded relational store (component A).
type StoreSettings struct {
	// DriverName is always "sqlite" in this engine; kept as a field so
	// tests can point at an in-memory DSN without touching the disk.
	DriverName string `yaml:"driver,omitempty"`
	Path       string `yaml:"path,omitempty"`
}

// JobManagerSettings configures the abstract JobManager capability
// (component B) when backed by a Slurm-like CLI.
type JobManagerSettings struct {
	Kind           string        `yaml:"kind,omitempty"` // "slurm" (empty also means slurm)
	SubmitCmd      string        `yaml:"submitCmd,omitempty"`
	CancelCmd      string        `yaml:"cancelCmd,omitempty"`
	JobStateCmd    string        `yaml:"jobStateCmd,omitempty"`
	PartitionsCmd  string        `yaml:"partitionsCmd,omitempty"`
	CommandTimeout time.Duration `yaml:"commandTimeout,omitempty"`
}

// ResourceManagerSettings configures the ResourceManager capability
// (component D).
type ResourceManagerSettings struct {
	Kind     string        `yaml:"kind,omitempty"` // "http" or "none"
	Endpoint string        `yaml:"endpoint,omitempty"`
	Timeout  time.Duration `yaml:"timeout,omitempty"`
}

// LoggingSettings configures pkg/logging.
type LoggingSettings struct {
	Level string `yaml:"level,omitempty"` // debug, info, warn, error
	Debug bool   `yaml:"debug,omitempty"`
}
