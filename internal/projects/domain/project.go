// Package domain provides the project lifecycle rules: the kanban state
// machine's pure checks, stage-timer arithmetic, and the typed rejection
// errors a transition can produce.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Project is the mutable unit driven through a pipeline. CurrentStatus is
// a stage NAME, not a foreign key: stage sets can be edited per project
// type over time, so the name is resolved against the current stage set
// at evaluation time and a dangling name fails loudly.
type Project struct {
	ID                 uuid.UUID
	ProjectTypeID      uuid.UUID
	ClientID           *uuid.UUID
	PersonID           *uuid.UUID
	Description        string
	CurrentStatus      string
	CurrentAssigneeID  *uuid.UUID
	DueDate            *time.Time
	TargetDeliveryDate *time.Time
	Inactive           bool
	InactiveReason     *string
	IsBenched          bool
	BenchReason        *string
	IsCompleted        bool
	CompletedAt        *time.Time
	// SourceServiceID is set when the scheduler created the project from
	// a recurring service subscription.
	SourceServiceID *uuid.UUID
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ChronologyEntry is one immutable row of a project's transition log.
// BusinessHours is computed once at transition time and never recomputed.
type ChronologyEntry struct {
	ID             uuid.UUID
	ProjectID      uuid.UUID
	FromStatus     string
	ToStatus       string
	ChangeReasonID *uuid.UUID
	// OccurredAt may be absent on imported legacy rows; timer arithmetic
	// skips such entries.
	OccurredAt    *time.Time
	BusinessHours float64
	CreatedAt     time.Time
}

// StageEntryTime returns the instant the project entered its current
// stage: the newest chronology timestamp, falling back across entries
// with missing timestamps, and finally to the project's creation time.
func StageEntryTime(chronology []ChronologyEntry, createdAt time.Time) time.Time {
	for i := len(chronology) - 1; i >= 0; i-- {
		if chronology[i].OccurredAt != nil {
			return *chronology[i].OccurredAt
		}
	}
	return createdAt
}

// TotalHoursInStatus sums the recorded business hours of every completed
// visit to the given stage, plus liveHours for the visit currently in
// progress.
func TotalHoursInStatus(chronology []ChronologyEntry, status string, liveHours float64) float64 {
	total := liveHours
	for _, entry := range chronology {
		if entry.FromStatus == status {
			total += entry.BusinessHours
		}
	}
	return total
}

// StageTimer is the live timing picture of a project's current stage.
type StageTimer struct {
	Status            string
	EnteredAt         time.Time
	HoursInStage      float64
	TotalHoursInStage float64
	MaxInstanceTime   *float64
	MaxTotalTime      *float64
	InstanceOverdue   bool
	TotalOverdue      bool
}
