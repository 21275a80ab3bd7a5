package repository

import (
	"context"

	"practice_portal_backend/internal/pipelines/domain"

	"github.com/google/uuid"
)

// CreateStageParams contains parameters for one stage of a new project type.
type CreateStageParams struct {
	Name            string
	SortOrder       int
	MaxInstanceTime *float64
	MaxTotalTime    *float64
	StageApprovalID *uuid.UUID
	CanBeFinalStage bool
}

// CreateProjectTypeParams contains parameters for creating a project type
// together with its ordered stage set.
type CreateProjectTypeParams struct {
	Name   string
	Stages []CreateStageParams
}

// CreateReasonParams contains parameters for creating a change reason.
type CreateReasonParams struct {
	ProjectTypeID   uuid.UUID
	Label           string
	StageApprovalID *uuid.UUID
	FromStageIDs    []uuid.UUID
	CustomFields    []domain.ReasonCustomField
}

// CreateApprovalParams contains parameters for creating a stage approval
// checklist.
type CreateApprovalParams struct {
	ProjectTypeID uuid.UUID
	Name          string
	Fields        []domain.StageApprovalField
}

// ConfigReader provides read access to pipeline configuration. The
// transition engine and the scheduler consume configuration exclusively
// through this interface and never mutate it.
type ConfigReader interface {
	GetProjectType(ctx context.Context, id uuid.UUID) (domain.ProjectType, error)
	ListProjectTypes(ctx context.Context) ([]domain.ProjectType, error)
	GetStageApproval(ctx context.Context, id uuid.UUID) (domain.StageApproval, error)
}

// ConfigWriter provides the admin-side write operations.
type ConfigWriter interface {
	CreateProjectType(ctx context.Context, params CreateProjectTypeParams) (domain.ProjectType, error)
	CreateChangeReason(ctx context.Context, params CreateReasonParams) (domain.ChangeReason, error)
	CreateStageApproval(ctx context.Context, params CreateApprovalParams) (domain.StageApproval, error)
}

// Repository combines all pipeline configuration operations.
type Repository interface {
	ConfigReader
	ConfigWriter
}
