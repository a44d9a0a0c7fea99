// Package wfmerr defines the error kinds the session orchestration engine
// raises, as structured values rather than ad hoc strings so the API layer
// can map any of them onto the same 404-with-detail HTTP convention without
// string matching.
package wfmerr

import "fmt"

// Kind classifies an engine error for propagation-policy decisions
// (rollback, retry-expected, log-and-continue, ...).
type Kind string

const (
	// KindValidation covers workflow-description schema violations,
	// session/service name format, undefined variables, and forbidden
	// predefined-variable redefinition.
	KindValidation Kind = "ValidationError"
	// KindState covers session-already-exists, not-yet-started,
	// not-unique, step-not-found, step-defined-twice.
	KindState Kind = "StateError"
	// KindResource covers namespace-already-locked, reservation refused,
	// partition unavailable.
	KindResource Kind = "ResourceError"
	// KindExternal covers job-manager/resource-manager call failures and
	// ephemeral-service start/stop commands exiting non-zero.
	KindExternal Kind = "ExternalError"
	// KindNotSupported covers unknown service kind, job manager, or
	// resource manager.
	KindNotSupported Kind = "NotSupported"
)

// Error is the single error type the engine raises for all five kinds.
// Entity names the failing object (session name, service name, namespace,
// ...); Detail is the human-readable condition. Both are combined into the
// HTTP `detail` string by the API layer.
type Error struct {
	Kind   Kind
	Entity string
	Detail string
	Err    error // underlying cause, if any (e.g. a Store or subprocess error)
}

func (e *Error) Error() string {
	if e.Entity != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Entity, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error { return e.Err }

// DetailString renders the user-visible `detail` string per §7: the failing
// entity name(s) and the underlying condition.
func (e *Error) DetailString() string {
	if e.Entity == "" {
		return e.Detail
	}
	return fmt.Sprintf("%s: %s", e.Entity, e.Detail)
}

func newf(kind Kind, entity, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Entity: entity, Detail: fmt.Sprintf(format, args...)}
}

// Validation builds a KindValidation error.
func Validation(entity, format string, args ...interface{}) *Error {
	return newf(KindValidation, entity, format, args...)
}

// State builds a KindState error.
func State(entity, format string, args ...interface{}) *Error {
	return newf(KindState, entity, format, args...)
}

// Resource builds a KindResource error.
func Resource(entity, format string, args ...interface{}) *Error {
	return newf(KindResource, entity, format, args...)
}

// External wraps an underlying error as KindExternal.
func External(entity string, cause error, format string, args ...interface{}) *Error {
	e := newf(KindExternal, entity, format, args...)
	e.Err = cause
	return e
}

// NotSupported builds a KindNotSupported error.
func NotSupported(entity, format string, args ...interface{}) *Error {
	return newf(KindNotSupported, entity, format, args...)
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	e, ok := err.(*Error)
	return ok && e.Kind == kind
}

// As extracts a *Error from err, if any.
func As(err error) (*Error, bool) {
	e, ok := err.(*Error)
	return e, ok
}

// HTTPStatus returns the status code the API layer should use. Every kind
// in this engine maps to the same 404-with-detail convention described in
// §6/§7; the helper exists so call sites read their intent rather than a
// bare literal.
func HTTPStatus(err error) int {
	return 404
}
