package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"practice_portal_backend/internal/projects/domain"
)

// CreateProjectParams contains parameters for creating a project.
type CreateProjectParams struct {
	ProjectTypeID      uuid.UUID
	ClientID           *uuid.UUID
	PersonID           *uuid.UUID
	Description        string
	CurrentStatus      string
	CurrentAssigneeID  *uuid.UUID
	DueDate            *time.Time
	TargetDeliveryDate *time.Time
	SourceServiceID    *uuid.UUID
}

// ListParams filters the project list.
type ListParams struct {
	ProjectTypeID   *uuid.UUID
	Status          string
	IncludeInactive bool
	Limit           int
	Offset          int
}

// ApprovalResponseRow is one stored answer to a stage approval field.
type ApprovalResponseRow struct {
	ApprovalID uuid.UUID
	FieldID    uuid.UUID
	Value      json.RawMessage
}

// StoredApprovalResponse is a persisted answer read back for a project.
type StoredApprovalResponse struct {
	ID         uuid.UUID
	ApprovalID uuid.UUID
	FieldID    uuid.UUID
	Value      json.RawMessage
	AnsweredAt time.Time
}

// ApplyTransitionParams carries everything a validated transition writes.
// ExpectedStatus guards the optimistic concurrency check: the update only
// applies if the project is still in the stage the caller evaluated
// against.
type ApplyTransitionParams struct {
	ProjectID      uuid.UUID
	ExpectedStatus string
	NewStatus      string
	ChangeReasonID uuid.UUID
	OccurredAt     time.Time
	BusinessHours  float64
	CustomAnswers  json.RawMessage
	Responses      []ApprovalResponseRow
	MarkCompleted  bool
}

// Repository provides persistence for projects and their chronology.
type Repository interface {
	Create(ctx context.Context, params CreateProjectParams) (domain.Project, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Project, error)
	List(ctx context.Context, params ListParams) ([]domain.Project, int, error)
	Chronology(ctx context.Context, projectID uuid.UUID) ([]domain.ChronologyEntry, error)
	ApprovalResponses(ctx context.Context, projectID uuid.UUID) ([]StoredApprovalResponse, error)

	// ApplyTransition performs the project update, chronology append, and
	// approval response writes in one transaction. It returns
	// domain.StaleProjectError (wrapped) when the optimistic check fails.
	ApplyTransition(ctx context.Context, params ApplyTransitionParams) error

	// StatusCounts returns active project counts per currentStatus for a
	// project type.
	StatusCounts(ctx context.Context, projectTypeID uuid.UUID) (map[string]int, error)
}
