package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// Load reads settings from path, layering them over Default() and applying
// WFM_* environment overrides afterward. A missing file is not an error —
// it simply leaves the defaults (plus any environment overrides) in place,
// the way the teacher's layered config loader tolerates an absent project
// config directory.
func Load(path string) (Settings, error) {
	settings := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				return applyEnvOverrides(settings), nil
			}
			return settings, NewConfigurationError(path, fileName(path), "user", "server", "io", err.Error())
		}

		if err := yaml.Unmarshal(data, &settings); err != nil {
			return settings, NewConfigurationErrorWithDetails(
				path, fileName(path), "user", "server", "parse",
				"failed to parse settings file", err.Error(), nil)
		}
	}

	return applyEnvOverrides(settings), nil
}

func fileName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}

func applyEnvOverrides(s Settings) Settings {
	if v := os.Getenv("WFM_SERVER_LISTEN_ADDRESS"); v != "" {
		s.Server.ListenAddress = v
	}
	if v := os.Getenv("WFM_STORE_PATH"); v != "" {
		s.Store.Path = v
	}
	if v := os.Getenv("WFM_JOBMANAGER_KIND"); v != "" {
		s.JobManager.Kind = v
	}
	if v := os.Getenv("WFM_RESOURCEMANAGER_ENDPOINT"); v != "" {
		s.ResourceManager.Endpoint = v
		s.ResourceManager.Kind = "http"
	}
	if v := os.Getenv("WFM_LOG_LEVEL"); v != "" {
		s.Logging.Level = v
	}
	if v := os.Getenv("WFM_LOG_DEBUG"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			s.Logging.Debug = b
		}
	}
	return s
}

// Watch watches path for changes and invokes onChange with the freshly
// reloaded settings whenever it is written. Reload errors are passed to
// onChange as a non-nil error and the previous settings are left in place
// by the caller. The returned function stops the watch.
func Watch(path string, onChange func(Settings, error)) (stop func() error, err error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create settings watcher: %w", err)
	}

	if err := watcher.Add(path); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}

	done := make(chan struct{})
	go func() {
		debounce := time.NewTimer(0)
		if !debounce.Stop() {
			<-debounce.C
		}
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
					debounce.Reset(100 * time.Millisecond)
				}
			case <-debounce.C:
				settings, loadErr := Load(path)
				onChange(settings, loadErr)
			case <-watcher.Errors:
				// ignore transient watcher errors; the next successful
				// event still triggers a reload.
			case <-done:
				return
			}
		}
	}()

	return func() error {
		close(done)
		return watcher.Close()
	}, nil
}
