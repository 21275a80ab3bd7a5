package transport

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	pipelines "practice_portal_backend/internal/pipelines/domain"
)

// CreateProjectRequest contains data for creating a project manually. The
// project always enters its type's first-order stage.
type CreateProjectRequest struct {
	ProjectTypeID      uuid.UUID  `json:"projectTypeId" validate:"required"`
	ClientID           *uuid.UUID `json:"clientId,omitempty"`
	PersonID           *uuid.UUID `json:"personId,omitempty"`
	Description        string     `json:"description" validate:"required,min=1,max=500"`
	CurrentAssigneeID  *uuid.UUID `json:"currentAssigneeId,omitempty"`
	DueDate            *time.Time `json:"dueDate,omitempty"`
	TargetDeliveryDate *time.Time `json:"targetDeliveryDate,omitempty"`
}

// ListProjectsRequest filters the project list.
type ListProjectsRequest struct {
	ProjectTypeID   *uuid.UUID `form:"projectTypeId"`
	Status          string     `form:"status"`
	IncludeInactive bool       `form:"includeInactive"`
	Page            int        `form:"page"`
	PageSize        int        `form:"pageSize"`
}

// FieldAnswer is one submitted answer, for approval fields and change
// reason custom fields alike.
type FieldAnswer struct {
	FieldID    uuid.UUID  `json:"fieldId" validate:"required"`
	Boolean    *bool      `json:"boolean,omitempty"`
	Number     *float64   `json:"number,omitempty"`
	Text       *string    `json:"text,omitempty"`
	Selections []string   `json:"selections,omitempty"`
	Date       *time.Time `json:"date,omitempty"`
}

// TransitionRequest asks to move a project to another stage.
type TransitionRequest struct {
	TargetStageID      uuid.UUID     `json:"targetStageId" validate:"required"`
	ChangeReasonID     uuid.UUID     `json:"changeReasonId" validate:"required"`
	CustomFieldAnswers []FieldAnswer `json:"customFieldAnswers,omitempty" validate:"omitempty,dive"`
	ApprovalAnswers    []FieldAnswer `json:"approvalAnswers,omitempty" validate:"omitempty,dive"`
	// Complete requests archival when the target stage can be final; it is
	// ignored otherwise.
	Complete bool `json:"complete"`
}

// ProjectResponse represents a project in API responses.
type ProjectResponse struct {
	ID                 uuid.UUID  `json:"id"`
	ProjectTypeID      uuid.UUID  `json:"projectTypeId"`
	ClientID           *uuid.UUID `json:"clientId,omitempty"`
	PersonID           *uuid.UUID `json:"personId,omitempty"`
	Description        string     `json:"description"`
	CurrentStatus      string     `json:"currentStatus"`
	CurrentAssigneeID  *uuid.UUID `json:"currentAssigneeId,omitempty"`
	DueDate            *time.Time `json:"dueDate,omitempty"`
	TargetDeliveryDate *time.Time `json:"targetDeliveryDate,omitempty"`
	Inactive           bool       `json:"inactive"`
	InactiveReason     *string    `json:"inactiveReason,omitempty"`
	IsBenched          bool       `json:"isBenched"`
	BenchReason        *string    `json:"benchReason,omitempty"`
	IsCompleted        bool       `json:"isCompleted"`
	CompletedAt        *time.Time `json:"completedAt,omitempty"`
	SourceServiceID    *uuid.UUID `json:"sourceServiceId,omitempty"`
	CreatedAt          string     `json:"createdAt"`
	UpdatedAt          string     `json:"updatedAt"`
}

// ProjectListResponse wraps a list of projects.
type ProjectListResponse struct {
	Items []ProjectResponse `json:"items"`
	Total int               `json:"total"`
}

// ChronologyEntryResponse represents one transition log row.
type ChronologyEntryResponse struct {
	ID             uuid.UUID  `json:"id"`
	FromStatus     string     `json:"fromStatus"`
	ToStatus       string     `json:"toStatus"`
	ChangeReasonID *uuid.UUID `json:"changeReasonId,omitempty"`
	OccurredAt     *time.Time `json:"occurredAt,omitempty"`
	BusinessHours  float64    `json:"businessHoursInPreviousStage"`
}

// ChronologyResponse wraps a project's transition log.
type ChronologyResponse struct {
	Items []ChronologyEntryResponse `json:"items"`
}

// ApprovalResponseItem is one stored approval answer.
type ApprovalResponseItem struct {
	ID         uuid.UUID       `json:"id"`
	ApprovalID uuid.UUID       `json:"approvalId"`
	FieldID    uuid.UUID       `json:"fieldId"`
	Value      json.RawMessage `json:"value"`
	AnsweredAt time.Time       `json:"answeredAt"`
}

// ApprovalResponsesResponse wraps a project's stored approval answers.
type ApprovalResponsesResponse struct {
	Items []ApprovalResponseItem `json:"items"`
}

// TransitionResponse reports a committed transition.
type TransitionResponse struct {
	Project       ProjectResponse `json:"project"`
	FromStatus    string          `json:"fromStatus"`
	ToStatus      string          `json:"toStatus"`
	BusinessHours float64         `json:"businessHoursInPreviousStage"`
}

// TransitionRejection is the error detail payload for a blocked
// transition.
type TransitionRejection struct {
	Code        string                 `json:"code"`
	UnmetFields []pipelines.UnmetField `json:"unmetFields,omitempty"`
	Field       string                 `json:"field,omitempty"`
}

// StageTimerResponse is the live timing picture of a project's current
// stage.
type StageTimerResponse struct {
	Status            string   `json:"status"`
	EnteredAt         string   `json:"enteredAt"`
	HoursInStage      float64  `json:"hoursInStage"`
	TotalHoursInStage float64  `json:"totalHoursInStage"`
	MaxInstanceTime   *float64 `json:"maxInstanceTime,omitempty"`
	MaxTotalTime      *float64 `json:"maxTotalTime,omitempty"`
	InstanceOverdue   bool     `json:"instanceOverdue"`
	TotalOverdue      bool     `json:"totalOverdue"`
}

// StageCountsResponse maps stage names to active project counts.
type StageCountsResponse struct {
	ProjectTypeID uuid.UUID      `json:"projectTypeId"`
	Counts        map[string]int `json:"counts"`
	FromCache     bool           `json:"fromCache"`
}
