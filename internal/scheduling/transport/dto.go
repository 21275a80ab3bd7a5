package transport

import (
	"time"

	"github.com/google/uuid"
)

// TriggerRunRequest starts a scheduling pass. RunDate defaults to today
// when omitted.
type TriggerRunRequest struct {
	RunDate *time.Time `json:"runDate"`
}

// ListRunsRequest pages the run log listing.
type ListRunsRequest struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

// ListExceptionsRequest filters the exception queue.
type ListExceptionsRequest struct {
	IncludeResolved bool `form:"includeResolved"`
}

// CountersResponse is the aggregate outcome of one pass.
type CountersResponse struct {
	TotalServicesChecked int `json:"totalServicesChecked"`
	ServicesFoundDue     int `json:"servicesFoundDue"`
	ProjectsCreated      int `json:"projectsCreated"`
	ServicesRescheduled  int `json:"servicesRescheduled"`
	CHServicesSkipped    int `json:"chServicesSkipped"`
	ErrorsEncountered    int `json:"errorsEncountered"`
}

// RunResponse is the API shape of one scheduling run log.
type RunResponse struct {
	ID              uuid.UUID        `json:"id"`
	RunDate         string           `json:"runDate"`
	Status          string           `json:"status"`
	Counters        CountersResponse `json:"counters"`
	ExecutionTimeMs int64            `json:"executionTimeMs"`
	Summary         string           `json:"summary"`
	ErrorDetails    *string          `json:"errorDetails,omitempty"`
	StartedAt       string           `json:"startedAt"`
	FinishedAt      *string          `json:"finishedAt,omitempty"`
}

// RunListResponse pages run logs.
type RunListResponse struct {
	Runs   []RunResponse `json:"runs"`
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// ExceptionResponse is the API shape of one per-service failure.
type ExceptionResponse struct {
	ID               uuid.UUID  `json:"id"`
	RunID            uuid.UUID  `json:"runId"`
	ServiceID        uuid.UUID  `json:"serviceId"`
	OwnerKind        string     `json:"ownerKind"`
	ErrorType        string     `json:"errorType"`
	Message          string     `json:"message"`
	Resolved         bool       `json:"resolved"`
	ResolvedAt       *string    `json:"resolvedAt,omitempty"`
	ResolvedByUserID *uuid.UUID `json:"resolvedByUserId,omitempty"`
	CreatedAt        string     `json:"createdAt"`
}

// ScheduleSnapshotResponse is one side of a history row.
type ScheduleSnapshotResponse struct {
	NextStartDate      *string `json:"nextStartDate,omitempty"`
	NextDueDate        *string `json:"nextDueDate,omitempty"`
	TargetDeliveryDate *string `json:"targetDeliveryDate,omitempty"`
}

// HistoryResponse is the API shape of one reschedule record.
type HistoryResponse struct {
	ID          uuid.UUID                `json:"id"`
	ServiceID   uuid.UUID                `json:"serviceId"`
	RunID       *uuid.UUID               `json:"runId,omitempty"`
	ProjectID   *uuid.UUID               `json:"projectId,omitempty"`
	OwnerKind   string                   `json:"ownerKind"`
	TriggeredBy string                   `json:"triggeredBy"`
	Before      ScheduleSnapshotResponse `json:"before"`
	After       ScheduleSnapshotResponse `json:"after"`
	CreatedAt   string                   `json:"createdAt"`
}

// RescheduleRequest overrides a service's next cycle dates by hand.
type RescheduleRequest struct {
	OwnerKind          string     `json:"ownerKind" validate:"required,oneof=client person"`
	NextStartDate      *time.Time `json:"nextStartDate" validate:"required"`
	NextDueDate        *time.Time `json:"nextDueDate"`
	TargetDeliveryDate *time.Time `json:"targetDeliveryDate"`
}
