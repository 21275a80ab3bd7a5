package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RunStatus is the lifecycle state of a scheduling pass.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Counters are the aggregate totals of one scheduling pass. Workers
// compute partial counts; merging is a plain sum so ordering never
// matters.
type Counters struct {
	TotalServicesChecked int
	ServicesFoundDue     int
	ProjectsCreated      int
	ServicesRescheduled  int
	CHServicesSkipped    int
	ErrorsEncountered    int
}

// Add merges another set of partial counts.
func (c *Counters) Add(other Counters) {
	c.TotalServicesChecked += other.TotalServicesChecked
	c.ServicesFoundDue += other.ServicesFoundDue
	c.ProjectsCreated += other.ProjectsCreated
	c.ServicesRescheduled += other.ServicesRescheduled
	c.CHServicesSkipped += other.CHServicesSkipped
	c.ErrorsEncountered += other.ErrorsEncountered
}

// Summary renders the operator-facing one-line description of a pass.
func (c Counters) Summary() string {
	return fmt.Sprintf(
		"checked %d services: %d due, %d projects created, %d rescheduled, %d CH skipped, %d errors",
		c.TotalServicesChecked, c.ServicesFoundDue, c.ProjectsCreated,
		c.ServicesRescheduled, c.CHServicesSkipped, c.ErrorsEncountered,
	)
}

// RunLog is the audit record of one scheduling pass.
type RunLog struct {
	ID              uuid.UUID
	RunDate         time.Time
	Status          RunStatus
	Counters        Counters
	ExecutionTimeMs int64
	Summary         string
	ErrorDetails    *string
	StartedAt       time.Time
	FinishedAt      *time.Time
}

// Exception is a per-service failure recorded for operator triage. A run
// with exceptions still completes.
type Exception struct {
	ID               uuid.UUID
	RunID            uuid.UUID
	ServiceID        uuid.UUID
	OwnerKind        OwnerKind
	ErrorType        string
	Message          string
	Resolved         bool
	ResolvedAt       *time.Time
	ResolvedByUserID *uuid.UUID
	CreatedAt        time.Time
}

// ScheduleSnapshot captures a service's schedule fields at a point in
// time, for before/after history rows.
type ScheduleSnapshot struct {
	NextStartDate      *time.Time `json:"nextStartDate,omitempty"`
	NextDueDate        *time.Time `json:"nextDueDate,omitempty"`
	TargetDeliveryDate *time.Time `json:"targetDeliveryDate,omitempty"`
}

// Snapshot captures the service's current schedule fields.
func (s RecurringService) Snapshot() ScheduleSnapshot {
	return ScheduleSnapshot{
		NextStartDate:      s.NextStartDate,
		NextDueDate:        s.NextDueDate,
		TargetDeliveryDate: s.TargetDeliveryDate,
	}
}

// SnapshotOf captures an occurrence as a schedule snapshot.
func SnapshotOf(next Occurrence) ScheduleSnapshot {
	start := next.NextStartDate
	return ScheduleSnapshot{
		NextStartDate:      &start,
		NextDueDate:        next.NextDueDate,
		TargetDeliveryDate: next.TargetDeliveryDate,
	}
}

// Reschedule triggers.
const (
	TriggerScheduler = "scheduler"
	TriggerManual    = "manual"
)

// History is one before/after record of a reschedule. RunID is nil for
// manual reschedules.
type History struct {
	ID          uuid.UUID
	ServiceID   uuid.UUID
	RunID       *uuid.UUID
	ProjectID   *uuid.UUID
	OwnerKind   OwnerKind
	TriggeredBy string
	Before      ScheduleSnapshot
	After       ScheduleSnapshot
	CreatedAt   time.Time
}
