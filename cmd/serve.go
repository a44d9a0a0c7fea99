package cmd

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/io-sea/wfm-engine/internal/api"
	"github.com/io-sea/wfm-engine/internal/config"
	"github.com/io-sea/wfm-engine/internal/ephemeral"
	"github.com/io-sea/wfm-engine/internal/jobmanager"
	"github.com/io-sea/wfm-engine/internal/orchestrator"
	"github.com/io-sea/wfm-engine/internal/reconciler"
	"github.com/io-sea/wfm-engine/internal/resourcemanager"
	"github.com/io-sea/wfm-engine/internal/store"
	"github.com/io-sea/wfm-engine/pkg/logging"
)

var serveConfigPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the workflow manager engine and its HTTP API",
	Long: `Starts the engine: opens the embedded store, wires the configured job
manager and resource manager, and serves the session/step HTTP surface of
§6 until interrupted.

Configuration is loaded from --config-path (YAML), layered over built-in
defaults and WFM_* environment overrides.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveConfigPath, "config-path", "", "path to a YAML settings file")
}

func runServe(cmd *cobra.Command, args []string) error {
	settings, err := config.Load(serveConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(parseLevel(settings.Logging.Level, settings.Logging.Debug), os.Stderr)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := store.Open(ctx, settings.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	jm, err := jobmanager.New(settings.JobManager)
	if err != nil {
		return fmt.Errorf("build job manager: %w", err)
	}

	rm, err := resourcemanager.New(settings.ResourceManager, jm)
	if err != nil {
		return fmt.Errorf("build resource manager: %w", err)
	}

	registry := ephemeral.NewRegistry(jm)
	recon := reconciler.New(st, jm, registry)
	engine := orchestrator.New(st, jm, registry, rm, recon)
	server := api.New(engine, recon, st)

	httpServer := &http.Server{
		Addr:         settings.Server.ListenAddress,
		Handler:      server,
		ReadTimeout:  settings.Server.ReadTimeout,
		WriteTimeout: settings.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("serve", "listening on %s", settings.Server.ListenAddress)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case <-sigCh:
		logging.Info("serve", "shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func parseLevel(level string, debug bool) logging.Level {
	if debug {
		return logging.LevelDebug
	}
	switch level {
	case "debug":
		return logging.LevelDebug
	case "warn":
		return logging.LevelWarn
	case "error":
		return logging.LevelError
	default:
		return logging.LevelInfo
	}
}
