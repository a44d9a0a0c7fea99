package config

import "time"

// Default returns the settings used when no file and no environment
// overrides are present: a local SQLite store, a Slurm-like job manager
// command set, and no resource manager (falls back to JobManager.list_partitions
// per §4.D).
func Default() Settings {
	return Settings{
		Server: ServerSettings{
			ListenAddress: ":8080",
			ReadTimeout:   30 * time.Second,
			WriteTimeout:  30 * time.Second,
		},
		Store: StoreSettings{
			DriverName: "sqlite",
			Path:       "./wfm.db",
		},
		JobManager: JobManagerSettings{
			Kind:           "slurm",
			SubmitCmd:      "sbatch",
			CancelCmd:      "scancel",
			JobStateCmd:    "squeue",
			PartitionsCmd:  "scontrol",
			CommandTimeout: 60 * time.Second,
		},
		ResourceManager: ResourceManagerSettings{
			Kind:    "none",
			Timeout: 60 * time.Second,
		},
		Logging: LoggingSettings{
			Level: "info",
		},
	}
}
