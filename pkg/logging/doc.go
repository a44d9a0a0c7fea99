// Package logging provides a structured logging system for the WFM engine.
//
// # Architecture
//
// Every call site tags its message with a subsystem string matching the
// component it belongs to ("store", "jobmanager", "ephemeral",
// "resourcemanager", "orchestrator", "reconciler", "api"). This keeps grep-
// and log-pipeline filtering cheap without requiring per-package loggers.
//
// ## Log Levels
//   - Debug: detailed information for debugging and development.
//   - Info: general informational messages about engine operation.
//   - Warn: warning messages that indicate potential issues but no failure.
//   - Error: failures and exceptional conditions, always carrying the error.
//
// Init must be called once at process startup before any subsystem logs;
// calling any of Debug/Info/Warn/Error before Init lazily falls back to an
// Info-level stderr logger so tests and early-init code paths never panic.
package logging
