package domain

import (
	"fmt"

	"github.com/google/uuid"

	pipelines "practice_portal_backend/internal/pipelines/domain"
)

// InvalidStageError reports a stage reference that does not resolve
// against the project type's current stage set, either a target stage
// outside the type or a project status whose name no longer exists.
type InvalidStageError struct {
	ProjectTypeID uuid.UUID
	Stage         string
}

func (e *InvalidStageError) Error() string {
	return fmt.Sprintf("stage %q does not belong to project type %s", e.Stage, e.ProjectTypeID)
}

// ReasonNotAllowedError reports a change reason that is not mapped to the
// project's current stage, including an unknown reason and a reason being
// reused after the stage already moved.
type ReasonNotAllowedError struct {
	ReasonID   uuid.UUID
	FromStatus string
}

func (e *ReasonNotAllowedError) Error() string {
	return fmt.Sprintf("change reason %s is not allowed from stage %q", e.ReasonID, e.FromStatus)
}

// ApprovalIncompleteError reports a failed approval gate with the fields
// that blocked it.
type ApprovalIncompleteError struct {
	ApprovalID uuid.UUID
	Unmet      []pipelines.UnmetField
}

func (e *ApprovalIncompleteError) Error() string {
	return fmt.Sprintf("stage approval %s incomplete: %d unmet field(s)", e.ApprovalID, len(e.Unmet))
}

// RequiredFieldMissingError reports a required change-reason custom field
// without a usable answer.
type RequiredFieldMissingError struct {
	Label string
}

func (e *RequiredFieldMissingError) Error() string {
	return fmt.Sprintf("required field %q has no answer", e.Label)
}

// StaleProjectError reports a transition that lost an optimistic
// concurrency race: the project's status changed between the read the
// caller evaluated against and the write.
type StaleProjectError struct {
	ProjectID      uuid.UUID
	ExpectedStatus string
}

func (e *StaleProjectError) Error() string {
	return fmt.Sprintf("project %s no longer in stage %q", e.ProjectID, e.ExpectedStatus)
}
