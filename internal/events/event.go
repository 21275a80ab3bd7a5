// Package events provides domain event definitions for decoupled,
// event-driven communication between modules.
// Infrastructure (Bus, Handler) is in platform/events.
package events

import (
	"time"

	"practice_portal_backend/platform/events"

	"github.com/google/uuid"
)

// Re-export platform types for convenience
type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

// Re-export platform functions
var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Project Domain Events
// =============================================================================

// ProjectCreated is published when a new project enters its pipeline,
// whether created manually or by the scheduler.
type ProjectCreated struct {
	BaseEvent
	ProjectID     uuid.UUID  `json:"projectId"`
	ProjectTypeID uuid.UUID  `json:"projectTypeId"`
	ClientID      *uuid.UUID `json:"clientId,omitempty"`
	PersonID      *uuid.UUID `json:"personId,omitempty"`
	CurrentStatus string     `json:"currentStatus"`
	DueDate       *time.Time `json:"dueDate,omitempty"`
	Scheduled     bool       `json:"scheduled"`
}

func (e ProjectCreated) EventName() string { return "projects.project.created" }

// ProjectStageChanged is published after a stage transition commits.
type ProjectStageChanged struct {
	BaseEvent
	ProjectID      uuid.UUID  `json:"projectId"`
	ProjectTypeID  uuid.UUID  `json:"projectTypeId"`
	FromStatus     string     `json:"fromStatus"`
	ToStatus       string     `json:"toStatus"`
	ChangeReasonID *uuid.UUID `json:"changeReasonId,omitempty"`
	BusinessHours  float64    `json:"businessHoursInPreviousStage"`
	Completed      bool       `json:"completed"`
}

func (e ProjectStageChanged) EventName() string { return "projects.project.stage_changed" }

// ProjectCompleted is published when a project reaches a final stage.
type ProjectCompleted struct {
	BaseEvent
	ProjectID     uuid.UUID `json:"projectId"`
	ProjectTypeID uuid.UUID `json:"projectTypeId"`
	FinalStatus   string    `json:"finalStatus"`
}

func (e ProjectCompleted) EventName() string { return "projects.project.completed" }

// =============================================================================
// Scheduling Domain Events
// =============================================================================

// SchedulingRunCompleted is published when a scheduling pass finishes,
// whatever its final state.
type SchedulingRunCompleted struct {
	BaseEvent
	RunID           uuid.UUID `json:"runId"`
	Status          string    `json:"status"`
	ServicesChecked int       `json:"servicesChecked"`
	ServicesDue     int       `json:"servicesDue"`
	ProjectsCreated int       `json:"projectsCreated"`
	Errors          int       `json:"errors"`
	ExecutionMs     int64     `json:"executionTimeMs"`
}

func (e SchedulingRunCompleted) EventName() string { return "scheduling.run.completed" }

// SchedulingExceptionRaised is published for each per-service failure
// recorded during a scheduling pass.
type SchedulingExceptionRaised struct {
	BaseEvent
	RunID     uuid.UUID `json:"runId"`
	ServiceID uuid.UUID `json:"serviceId"`
	ErrorType string    `json:"errorType"`
	Message   string    `json:"message"`
}

func (e SchedulingExceptionRaised) EventName() string { return "scheduling.exception.raised" }
