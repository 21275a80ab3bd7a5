// Package domain provides core business rules for pipeline configuration:
// stage approvals, change reasons, and the conditional visibility logic
// attached to their fields. Everything here is pure; persistence lives in
// the repository layer and deserializes stored JSON into these strict
// types exactly once, at the boundary.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// FieldType is the answer type of an approval or custom field.
type FieldType string

const (
	FieldBoolean      FieldType = "boolean"
	FieldNumber       FieldType = "number"
	FieldShortText    FieldType = "short_text"
	FieldLongText     FieldType = "long_text"
	FieldSingleSelect FieldType = "single_select"
	FieldMultiSelect  FieldType = "multi_select"
	FieldDate         FieldType = "date"
)

// KnownFieldType reports whether the given type is one of the supported
// field types.
func KnownFieldType(t FieldType) bool {
	switch t {
	case FieldBoolean, FieldNumber, FieldShortText, FieldLongText,
		FieldSingleSelect, FieldMultiSelect, FieldDate:
		return true
	}
	return false
}

// ComparisonType is the numeric comparison applied to number fields.
type ComparisonType string

const (
	CompareEqualTo     ComparisonType = "equal_to"
	CompareLessThan    ComparisonType = "less_than"
	CompareGreaterThan ComparisonType = "greater_than"
)

// DateComparisonType is the comparison applied to date fields.
type DateComparisonType string

const (
	DateOn      DateComparisonType = "on"
	DateBefore  DateComparisonType = "before"
	DateAfter   DateComparisonType = "after"
	DateBetween DateComparisonType = "between"
)

// ExpectedValue is the tagged union of a field's expected-value contract.
// Exactly one concrete kind is legal per field, determined by the field
// type; long_text fields carry none.
type ExpectedValue interface {
	expectedValueKind() string
}

// ExpectedBoolean is the contract for boolean fields.
type ExpectedBoolean struct {
	Value bool `json:"value"`
}

func (ExpectedBoolean) expectedValueKind() string { return "boolean" }

// ExpectedNumber is the contract for number fields.
type ExpectedNumber struct {
	Comparison ComparisonType `json:"comparison"`
	Value      float64        `json:"value"`
}

func (ExpectedNumber) expectedValueKind() string { return "number" }

// ExpectedSelection is the contract for single/multi select fields: the
// set of option values the response must match.
type ExpectedSelection struct {
	Values []string `json:"values"`
}

func (ExpectedSelection) expectedValueKind() string { return "selection" }

// ExpectedDate is the contract for date fields. DateEnd is only set for
// the between comparison.
type ExpectedDate struct {
	Comparison DateComparisonType `json:"comparison"`
	Date       time.Time          `json:"date"`
	DateEnd    *time.Time         `json:"dateEnd,omitempty"`
}

func (ExpectedDate) expectedValueKind() string { return "date" }

// StageApprovalField is one typed entry of a stage approval checklist.
type StageApprovalField struct {
	ID         uuid.UUID
	ApprovalID uuid.UUID
	Label      string
	Type       FieldType
	Required   bool
	// Options is the configured option list for select fields.
	Options []string
	// Expected is the field's expected-value contract; nil means
	// presence of any non-empty response is sufficient.
	Expected ExpectedValue
	// Logic controls conditional visibility; nil means always visible.
	Logic *ConditionalLogic
	SortOrder int
}

// StageApproval is a named checklist gating a stage transition.
type StageApproval struct {
	ID            uuid.UUID
	ProjectTypeID uuid.UUID
	Name          string
	Fields        []StageApprovalField
}

// FieldResponse is one answer to an approval or custom field. Exactly one
// value member is populated, matching the field's type.
type FieldResponse struct {
	FieldID    uuid.UUID
	Boolean    *bool
	Number     *float64
	Text       *string
	Selections []string
	Date       *time.Time
}

// IsEmpty reports whether the response carries no value at all.
func (r FieldResponse) IsEmpty() bool {
	return r.Boolean == nil &&
		r.Number == nil &&
		(r.Text == nil || *r.Text == "") &&
		len(r.Selections) == 0 &&
		r.Date == nil
}

// KanbanStage is one node in a project type's pipeline.
type KanbanStage struct {
	ID              uuid.UUID
	ProjectTypeID   uuid.UUID
	Name            string
	SortOrder       int
	MaxInstanceTime *float64 // business hours before one visit to the stage is overdue
	MaxTotalTime    *float64 // business hours before cumulative time in the stage is overdue
	StageApprovalID *uuid.UUID
	CanBeFinalStage bool
}

// ReasonCustomField is a typed field that must be answered when its
// change reason is selected.
type ReasonCustomField struct {
	ID        uuid.UUID
	ReasonID  uuid.UUID
	Label     string
	Type      FieldType
	Required  bool
	Options   []string
	Logic     *ConditionalLogic
	SortOrder int
}

// ChangeReason is a labeled cause for a stage transition, valid only as
// an exit from the stages it has been mapped to.
type ChangeReason struct {
	ID              uuid.UUID
	ProjectTypeID   uuid.UUID
	Label           string
	StageApprovalID *uuid.UUID
	// FromStageIDs lists the stages this reason may be used to leave.
	FromStageIDs []uuid.UUID
	CustomFields []ReasonCustomField
}

// AllowedFrom reports whether the reason is mapped to the given stage.
func (r ChangeReason) AllowedFrom(stageID uuid.UUID) bool {
	for _, id := range r.FromStageIDs {
		if id == stageID {
			return true
		}
	}
	return false
}

// Service is the recurring service definition optionally attached to a
// project type; its subscriptions drive the scheduler.
type Service struct {
	ID            uuid.UUID
	ProjectTypeID uuid.UUID
	Name          string
}

// ProjectType is a pipeline definition: an ordered stage set plus the
// change reasons and approvals scoped to it.
type ProjectType struct {
	ID        uuid.UUID
	Name      string
	Stages    []KanbanStage
	Reasons   []ChangeReason
	Service   *Service
	CreatedAt time.Time
}

// StageByName resolves a stage by its name. Stage identity on projects is
// the stage NAME, not an ID, so a dangling name must surface loudly at
// the call site rather than flow on as a zero value.
func (pt ProjectType) StageByName(name string) (KanbanStage, bool) {
	for _, stage := range pt.Stages {
		if stage.Name == name {
			return stage, true
		}
	}
	return KanbanStage{}, false
}

// StageByID resolves a stage by ID.
func (pt ProjectType) StageByID(id uuid.UUID) (KanbanStage, bool) {
	for _, stage := range pt.Stages {
		if stage.ID == id {
			return stage, true
		}
	}
	return KanbanStage{}, false
}

// FirstStage returns the stage with the lowest sort order. New projects
// start here.
func (pt ProjectType) FirstStage() (KanbanStage, bool) {
	if len(pt.Stages) == 0 {
		return KanbanStage{}, false
	}
	first := pt.Stages[0]
	for _, stage := range pt.Stages[1:] {
		if stage.SortOrder < first.SortOrder {
			first = stage
		}
	}
	return first, true
}

// ReasonByID resolves a change reason by ID.
func (pt ProjectType) ReasonByID(id uuid.UUID) (ChangeReason, bool) {
	for _, reason := range pt.Reasons {
		if reason.ID == id {
			return reason, true
		}
	}
	return ChangeReason{}, false
}
