// Package store is the engine's persistent, transactional record of
// Sessions, Services, StepDescriptions, StepInstances, NamespaceLocks and
// ActivityLog entries (component A). It is backed by an embedded SQLite
// database reached through database/sql, following the repository pattern
// used elsewhere in the corpus for relational persistence: one exported
// struct per table, raw parameterized SQL, sql.ErrNoRows mapped to a typed
// not-found result rather than leaking the driver error.
package store

import "time"

// SessionStatus is the lifecycle state of a Session.
type SessionStatus string

const (
	SessionStarting SessionStatus = "STARTING"
	SessionActive   SessionStatus = "ACTIVE"
	SessionStopping SessionStatus = "STOPPING"
	SessionStopped  SessionStatus = "STOPPED"
	SessionTeardown SessionStatus = "TEARDOWN"
	SessionUnknown  SessionStatus = "UNKNOWN"
)

// ServiceKind identifies which EphemeralService implementation backs a
// Service row.
type ServiceKind string

const (
	ServiceKindSBB  ServiceKind = "SBB"
	ServiceKindGBF  ServiceKind = "GBF"
	ServiceKindDASI ServiceKind = "DASI"
	ServiceKindNone ServiceKind = "NONE"
)

// ServiceStatus is the lifecycle state of a Service.
type ServiceStatus string

const (
	ServiceWaiting    ServiceStatus = "WAITING"
	ServiceStagingIn  ServiceStatus = "STAGINGIN"
	ServiceStagedIn   ServiceStatus = "STAGEDIN"
	ServiceAllocated  ServiceStatus = "ALLOCATED"
	ServiceStagingOut ServiceStatus = "STAGINGOUT"
	ServiceStagedOut  ServiceStatus = "STAGEDOUT"
	ServiceStopping   ServiceStatus = "STOPPING"
	ServiceStopped    ServiceStatus = "STOPPED"
	ServiceTeardown   ServiceStatus = "TEARDOWN"
	ServiceUnknown    ServiceStatus = "UNKNOWN"
)

// StepInstanceStatus is the lifecycle state of a StepInstance.
type StepInstanceStatus string

const (
	StepStarting  StepInstanceStatus = "STARTING"
	StepRunning   StepInstanceStatus = "RUNNING"
	StepStopping  StepInstanceStatus = "STOPPING"
	StepStopped   StepInstanceStatus = "STOPPED"
	StepSuspended StepInstanceStatus = "SUSPENDED"
)

// NoServiceSentinel is the service_id value meaning "this step description
// uses no service".
const NoServiceSentinel = 0

// NoDependencySentinel is the jobid value meaning "started synchronously,
// no batch dependency to carry over to step submission".
const NoDependencySentinel = -1

// Session mirrors the Session table of §3.
type Session struct {
	ID           int64
	Name         string
	WorkflowName string
	User         string
	StartTS      time.Time
	EndTS        *time.Time
	Status       SessionStatus
}

// Service mirrors the Service table of §3.
type Service struct {
	ID           int64
	SessionID    int64
	Name         string
	Kind         ServiceKind
	Location     string
	Targets      string
	Flavor       string
	Namespace    string
	Mountpoint   string
	StorageSize  string
	DataNodes    int
	StartTS      *time.Time
	EndTS        *time.Time
	Status       ServiceStatus
	JobID        int64
}

// StepDescription mirrors the StepDescription table of §3.
type StepDescription struct {
	ID        int64
	SessionID int64
	ServiceID int64 // NoServiceSentinel (0) when the step uses no service
	Name      string
	Command   string
}

// StepInstance mirrors the StepInstance table of §3.
type StepInstance struct {
	ID                int64
	StepDescriptionID int64
	InstanceName      string
	StartTS           time.Time
	StopTS            *time.Time
	Status            StepInstanceStatus
	Progress          string
	JobID             int64
	Command           string
}

// NamespaceLock mirrors the NamespaceLock table of §3.
type NamespaceLock struct {
	ID          int64
	Namespace   string
	ServiceName string
}

// ActivityKind is the activity recorded in an ActivityLog row.
type ActivityKind string

const (
	ActivityCreation ActivityKind = "creation"
	ActivityRemoval  ActivityKind = "removal"
)

// ActivityLogEntry mirrors the ActivityLog table of §3.
type ActivityLogEntry struct {
	ID         int64
	ObjectType string
	ObjectID   int64
	Activity   ActivityKind
	TS         time.Time
}
