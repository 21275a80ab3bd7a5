package transport

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"practice_portal_backend/internal/pipelines/domain"
)

// StageRequest describes one stage of a new project type.
type StageRequest struct {
	Name            string     `json:"name" validate:"required,min=1,max=100"`
	SortOrder       int        `json:"sortOrder" validate:"min=0"`
	MaxInstanceTime *float64   `json:"maxInstanceTime,omitempty" validate:"omitempty,gt=0"`
	MaxTotalTime    *float64   `json:"maxTotalTime,omitempty" validate:"omitempty,gt=0"`
	StageApprovalID *uuid.UUID `json:"stageApprovalId,omitempty"`
	CanBeFinalStage bool       `json:"canBeFinalStage"`
}

// CreateProjectTypeRequest contains data for creating a project type.
type CreateProjectTypeRequest struct {
	Name   string         `json:"name" validate:"required,min=1,max=100"`
	Stages []StageRequest `json:"stages" validate:"required,min=1,dive"`
}

// ExpectedValueRequest is the flat wire form of an expected-value
// contract. Which members are read depends on the field type.
type ExpectedValueRequest struct {
	Boolean        *bool      `json:"boolean,omitempty"`
	Comparison     *string    `json:"comparison,omitempty"`
	Number         *float64   `json:"number,omitempty"`
	Values         []string   `json:"values,omitempty"`
	DateComparison *string    `json:"dateComparison,omitempty"`
	Date           *time.Time `json:"date,omitempty"`
	DateEnd        *time.Time `json:"dateEnd,omitempty"`
}

// ApprovalFieldRequest describes one field of a new stage approval.
type ApprovalFieldRequest struct {
	Label     string                   `json:"label" validate:"required,min=1,max=200"`
	Type      string                   `json:"type" validate:"required"`
	Required  bool                     `json:"required"`
	Options   []string                 `json:"options,omitempty"`
	Expected  *ExpectedValueRequest    `json:"expectedValue,omitempty"`
	Logic     *domain.ConditionalLogic `json:"conditionalLogic,omitempty"`
	SortOrder int                      `json:"sortOrder" validate:"min=0"`
}

// CreateStageApprovalRequest contains data for creating a stage approval.
type CreateStageApprovalRequest struct {
	ProjectTypeID uuid.UUID              `json:"projectTypeId" validate:"required"`
	Name          string                 `json:"name" validate:"required,min=1,max=100"`
	Fields        []ApprovalFieldRequest `json:"fields" validate:"required,min=1,dive"`
}

// CustomFieldRequest describes one custom field of a new change reason.
type CustomFieldRequest struct {
	Label     string                   `json:"label" validate:"required,min=1,max=200"`
	Type      string                   `json:"type" validate:"required"`
	Required  bool                     `json:"required"`
	Options   []string                 `json:"options,omitempty"`
	Logic     *domain.ConditionalLogic `json:"conditionalLogic,omitempty"`
	SortOrder int                      `json:"sortOrder" validate:"min=0"`
}

// CreateChangeReasonRequest contains data for creating a change reason.
type CreateChangeReasonRequest struct {
	ProjectTypeID   uuid.UUID            `json:"projectTypeId" validate:"required"`
	Label           string               `json:"label" validate:"required,min=1,max=200"`
	StageApprovalID *uuid.UUID           `json:"stageApprovalId,omitempty"`
	FromStageIDs    []uuid.UUID          `json:"fromStageIds" validate:"required,min=1"`
	CustomFields    []CustomFieldRequest `json:"customFields,omitempty" validate:"omitempty,dive"`
}

// FieldResponseRequest is one submitted answer in an evaluation request.
type FieldResponseRequest struct {
	FieldID    uuid.UUID  `json:"fieldId" validate:"required"`
	Boolean    *bool      `json:"boolean,omitempty"`
	Number     *float64   `json:"number,omitempty"`
	Text       *string    `json:"text,omitempty"`
	Selections []string   `json:"selections,omitempty"`
	Date       *time.Time `json:"date,omitempty"`
}

// EvaluateApprovalRequest contains submitted responses for a dry-run
// evaluation of a stage approval.
type EvaluateApprovalRequest struct {
	Responses []FieldResponseRequest `json:"responses" validate:"dive"`
}

// StageResponse represents a kanban stage in API responses.
type StageResponse struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	SortOrder       int        `json:"sortOrder"`
	MaxInstanceTime *float64   `json:"maxInstanceTime,omitempty"`
	MaxTotalTime    *float64   `json:"maxTotalTime,omitempty"`
	StageApprovalID *uuid.UUID `json:"stageApprovalId,omitempty"`
	CanBeFinalStage bool       `json:"canBeFinalStage"`
}

// CustomFieldResponse represents a reason custom field in API responses.
type CustomFieldResponse struct {
	ID        uuid.UUID                `json:"id"`
	Label     string                   `json:"label"`
	Type      string                   `json:"type"`
	Required  bool                     `json:"required"`
	Options   []string                 `json:"options,omitempty"`
	Logic     *domain.ConditionalLogic `json:"conditionalLogic,omitempty"`
	SortOrder int                      `json:"sortOrder"`
}

// ChangeReasonResponse represents a change reason in API responses.
type ChangeReasonResponse struct {
	ID              uuid.UUID             `json:"id"`
	Label           string                `json:"label"`
	StageApprovalID *uuid.UUID            `json:"stageApprovalId,omitempty"`
	FromStageIDs    []uuid.UUID           `json:"fromStageIds"`
	CustomFields    []CustomFieldResponse `json:"customFields,omitempty"`
}

// ConnectedServiceResponse represents the service attached to a project
// type.
type ConnectedServiceResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// ProjectTypeResponse represents a project type in API responses.
type ProjectTypeResponse struct {
	ID        uuid.UUID                 `json:"id"`
	Name      string                    `json:"name"`
	Stages    []StageResponse           `json:"stages"`
	Reasons   []ChangeReasonResponse    `json:"reasons,omitempty"`
	Service   *ConnectedServiceResponse `json:"service,omitempty"`
	CreatedAt string                    `json:"createdAt"`
}

// ProjectTypeListResponse wraps a list of project types.
type ProjectTypeListResponse struct {
	Items []ProjectTypeResponse `json:"items"`
	Total int                   `json:"total"`
}

// ApprovalFieldResponse represents a stage approval field in API
// responses. ExpectedValue is the stored contract envelope.
type ApprovalFieldResponse struct {
	ID            uuid.UUID                `json:"id"`
	Label         string                   `json:"label"`
	Type          string                   `json:"type"`
	Required      bool                     `json:"required"`
	Options       []string                 `json:"options,omitempty"`
	ExpectedValue json.RawMessage          `json:"expectedValue,omitempty"`
	Logic         *domain.ConditionalLogic `json:"conditionalLogic,omitempty"`
	SortOrder     int                      `json:"sortOrder"`
}

// StageApprovalResponse represents a stage approval in API responses.
type StageApprovalResponse struct {
	ID            uuid.UUID               `json:"id"`
	ProjectTypeID uuid.UUID               `json:"projectTypeId"`
	Name          string                  `json:"name"`
	Fields        []ApprovalFieldResponse `json:"fields"`
}

// EvaluationResponse is the outcome of a dry-run approval evaluation.
type EvaluationResponse struct {
	Passed bool                `json:"passed"`
	Unmet  []domain.UnmetField `json:"unmetFields,omitempty"`
}
