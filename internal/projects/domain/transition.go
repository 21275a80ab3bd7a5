package domain

import (
	"fmt"

	"github.com/google/uuid"

	pipelines "practice_portal_backend/internal/pipelines/domain"
)

// TransitionPlan is the resolved, validated shape of a requested stage
// transition. Building a plan performs the pure checks of the state
// machine; persistence and approval evaluation happen afterwards.
type TransitionPlan struct {
	From          pipelines.KanbanStage
	To            pipelines.KanbanStage
	Reason        pipelines.ChangeReason
	MarkCompleted bool
}

// PlanTransition resolves and validates a requested move against the
// project type's current configuration.
//
// The project's current status is a stage name; if it no longer resolves
// the configuration has drifted under the project and the caller gets an
// InvalidStageError rather than a silently empty stage.
func PlanTransition(pt pipelines.ProjectType, project Project, targetStageID, reasonID uuid.UUID, complete bool) (TransitionPlan, error) {
	current, ok := pt.StageByName(project.CurrentStatus)
	if !ok {
		return TransitionPlan{}, &InvalidStageError{ProjectTypeID: pt.ID, Stage: project.CurrentStatus}
	}

	target, ok := pt.StageByID(targetStageID)
	if !ok {
		return TransitionPlan{}, &InvalidStageError{ProjectTypeID: pt.ID, Stage: targetStageID.String()}
	}

	reason, ok := pt.ReasonByID(reasonID)
	if !ok || !reason.AllowedFrom(current.ID) {
		return TransitionPlan{}, &ReasonNotAllowedError{ReasonID: reasonID, FromStatus: current.Name}
	}

	return TransitionPlan{
		From:          current,
		To:            target,
		Reason:        reason,
		MarkCompleted: complete && target.CanBeFinalStage,
	}, nil
}

// ValidateCustomAnswers checks that every required, visible custom field
// of the change reason has an answer of the matching type. Answers are
// keyed by field ID.
func ValidateCustomAnswers(reason pipelines.ChangeReason, answers map[string]pipelines.FieldResponse) error {
	visibility := pipelines.AnswersFromResponses(answers)
	for _, field := range reason.CustomFields {
		if !field.Logic.Visible(visibility) {
			continue
		}
		if !field.Required {
			continue
		}
		answer, ok := answers[field.ID.String()]
		if !ok || answer.IsEmpty() || !answerMatchesType(field.Type, answer) {
			return &RequiredFieldMissingError{Label: field.Label}
		}
	}
	return nil
}

func answerMatchesType(fieldType pipelines.FieldType, answer pipelines.FieldResponse) bool {
	switch fieldType {
	case pipelines.FieldBoolean:
		return answer.Boolean != nil
	case pipelines.FieldNumber:
		return answer.Number != nil
	case pipelines.FieldShortText, pipelines.FieldLongText:
		return answer.Text != nil && *answer.Text != ""
	case pipelines.FieldSingleSelect:
		return len(answer.Selections) == 1
	case pipelines.FieldMultiSelect:
		return len(answer.Selections) > 0
	case pipelines.FieldDate:
		return answer.Date != nil
	}
	return false
}

// CheckApproval runs the approval gate for a transition and converts a
// failed evaluation into the typed rejection the caller reports.
func CheckApproval(approval pipelines.StageApproval, responses map[string]pipelines.FieldResponse) error {
	result, err := pipelines.EvaluateApproval(approval, responses, pipelines.AnswersFromResponses(responses))
	if err != nil {
		return fmt.Errorf("evaluate approval %s: %w", approval.ID, err)
	}
	if !result.Passed {
		return &ApprovalIncompleteError{ApprovalID: approval.ID, Unmet: result.Unmet}
	}
	return nil
}
