package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"practice_portal_backend/internal/scheduling/domain"
)

// AdvanceParams carries one service's reschedule: the new schedule fields
// plus the history snapshots recorded with them.
type AdvanceParams struct {
	Service     domain.RecurringService
	RunID       *uuid.UUID
	ProjectID   *uuid.UUID
	TriggeredBy string
	Next        domain.Occurrence
}

// RunFinalization carries the closing state of a completed pass.
type RunFinalization struct {
	RunID           uuid.UUID
	Counters        domain.Counters
	ExecutionTimeMs int64
	Summary         string
}

// ListRunsParams pages the run log listing.
type ListRunsParams struct {
	Limit  int
	Offset int
}

// ServiceReader enumerates schedulable subscriptions.
type ServiceReader interface {
	// ListActiveServices returns every active client and people service
	// whose parent client/person is not NLAC-inactive.
	ListActiveServices(ctx context.Context) ([]domain.RecurringService, error)
	GetService(ctx context.Context, id uuid.UUID, kind domain.OwnerKind) (domain.RecurringService, error)
}

// ScheduleWriter advances service schedules with history.
type ScheduleWriter interface {
	// AdvanceSchedule updates the service's schedule fields and inserts
	// the before/after history row in one transaction.
	AdvanceSchedule(ctx context.Context, params AdvanceParams) error
}

// RunLogStore owns SchedulingRunLog rows.
type RunLogStore interface {
	// CreateRun inserts a run in running status. It fails with a conflict
	// when another run is still running: overlapping passes are not a
	// supported configuration.
	CreateRun(ctx context.Context, runDate time.Time) (domain.RunLog, error)
	FinalizeRun(ctx context.Context, params RunFinalization) error
	FailRun(ctx context.Context, runID uuid.UUID, errorDetails string) error
	GetRun(ctx context.Context, runID uuid.UUID) (domain.RunLog, error)
	ListRuns(ctx context.Context, params ListRunsParams) ([]domain.RunLog, int, error)
}

// ExceptionStore owns SchedulingException rows.
type ExceptionStore interface {
	InsertException(ctx context.Context, exc domain.Exception) error
	ListExceptions(ctx context.Context, includeResolved bool) ([]domain.Exception, error)
	ResolveException(ctx context.Context, id uuid.UUID, resolvedBy uuid.UUID) error
}

// HistoryStore reads scheduling history.
type HistoryStore interface {
	ListHistory(ctx context.Context, serviceID uuid.UUID) ([]domain.History, error)
}

// Repository combines all scheduling persistence.
type Repository interface {
	ServiceReader
	ScheduleWriter
	RunLogStore
	ExceptionStore
	HistoryStore
}
