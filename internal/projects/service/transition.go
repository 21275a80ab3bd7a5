package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"practice_portal_backend/internal/events"
	pipelines "practice_portal_backend/internal/pipelines/domain"
	"practice_portal_backend/internal/projects/domain"
	"practice_portal_backend/internal/projects/repository"
	"practice_portal_backend/internal/projects/transport"
	"practice_portal_backend/platform/apperr"
)

// AttemptTransition validates and executes a project's move to another
// stage. Rejections are synchronous and nothing is partially applied: the
// status update, chronology append, and approval response writes commit
// together or not at all.
func (s *Service) AttemptTransition(ctx context.Context, projectID uuid.UUID, req transport.TransitionRequest) (transport.TransitionResponse, error) {
	project, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return transport.TransitionResponse{}, err
	}
	pt, err := s.config.GetProjectType(ctx, project.ProjectTypeID)
	if err != nil {
		return transport.TransitionResponse{}, err
	}

	plan, err := domain.PlanTransition(pt, project, req.TargetStageID, req.ChangeReasonID, req.Complete)
	if err != nil {
		return transport.TransitionResponse{}, rejectionError(err)
	}

	customAnswers := answersMap(req.CustomFieldAnswers)
	if err := domain.ValidateCustomAnswers(plan.Reason, customAnswers); err != nil {
		return transport.TransitionResponse{}, rejectionError(err)
	}

	approvalAnswers := answersMap(req.ApprovalAnswers)
	responses, err := s.runApprovalGates(ctx, plan, approvalAnswers)
	if err != nil {
		return transport.TransitionResponse{}, rejectionError(err)
	}

	chronology, err := s.repo.Chronology(ctx, projectID)
	if err != nil {
		return transport.TransitionResponse{}, err
	}
	now := time.Now().UTC()
	enteredAt := domain.StageEntryTime(chronology, project.CreatedAt)
	businessHours := s.calendar.Hours(enteredAt, now)

	customJSON, err := json.Marshal(req.CustomFieldAnswers)
	if err != nil {
		return transport.TransitionResponse{}, fmt.Errorf("encode custom field answers: %w", err)
	}

	err = s.repo.ApplyTransition(ctx, repository.ApplyTransitionParams{
		ProjectID:      projectID,
		ExpectedStatus: plan.From.Name,
		NewStatus:      plan.To.Name,
		ChangeReasonID: plan.Reason.ID,
		OccurredAt:     now,
		BusinessHours:  businessHours,
		CustomAnswers:  customJSON,
		Responses:      responses,
		MarkCompleted:  plan.MarkCompleted,
	})
	if err != nil {
		return transport.TransitionResponse{}, err
	}

	s.cache.Invalidate(ctx, project.ProjectTypeID)
	s.log.StageTransition(projectID.String(), plan.From.Name, plan.To.Name, plan.Reason.Label, businessHours)

	s.bus.Publish(ctx, events.ProjectStageChanged{
		BaseEvent:      events.NewBaseEvent(),
		ProjectID:      projectID,
		ProjectTypeID:  project.ProjectTypeID,
		FromStatus:     plan.From.Name,
		ToStatus:       plan.To.Name,
		ChangeReasonID: &plan.Reason.ID,
		BusinessHours:  businessHours,
		Completed:      plan.MarkCompleted,
	})
	if plan.MarkCompleted {
		s.bus.Publish(ctx, events.ProjectCompleted{
			BaseEvent:     events.NewBaseEvent(),
			ProjectID:     projectID,
			ProjectTypeID: project.ProjectTypeID,
			FinalStatus:   plan.To.Name,
		})
	}

	updated, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return transport.TransitionResponse{}, err
	}
	return transport.TransitionResponse{
		Project:       toProjectResponse(updated),
		FromStatus:    plan.From.Name,
		ToStatus:      plan.To.Name,
		BusinessHours: businessHours,
	}, nil
}

// runApprovalGates evaluates the approval attached to the stage being
// left and, when different, the one attached to the selected change
// reason. On success it returns the response rows to persist with the
// transition.
func (s *Service) runApprovalGates(ctx context.Context, plan domain.TransitionPlan, answers map[string]pipelines.FieldResponse) ([]repository.ApprovalResponseRow, error) {
	var approvalIDs []uuid.UUID
	if plan.From.StageApprovalID != nil {
		approvalIDs = append(approvalIDs, *plan.From.StageApprovalID)
	}
	if plan.Reason.StageApprovalID != nil && (plan.From.StageApprovalID == nil || *plan.Reason.StageApprovalID != *plan.From.StageApprovalID) {
		approvalIDs = append(approvalIDs, *plan.Reason.StageApprovalID)
	}

	var responses []repository.ApprovalResponseRow
	for _, approvalID := range approvalIDs {
		approval, err := s.config.GetStageApproval(ctx, approvalID)
		if err != nil {
			return nil, err
		}
		if err := domain.CheckApproval(approval, answers); err != nil {
			return nil, err
		}
		for _, field := range approval.Fields {
			answer, ok := answers[field.ID.String()]
			if !ok || answer.IsEmpty() {
				continue
			}
			value, err := json.Marshal(answerValue{
				Boolean:    answer.Boolean,
				Number:     answer.Number,
				Text:       answer.Text,
				Selections: answer.Selections,
				Date:       answer.Date,
			})
			if err != nil {
				return nil, fmt.Errorf("encode approval answer: %w", err)
			}
			responses = append(responses, repository.ApprovalResponseRow{
				ApprovalID: approvalID,
				FieldID:    field.ID,
				Value:      value,
			})
		}
	}
	return responses, nil
}

// answerValue is the stored JSON shape of one approval answer.
type answerValue struct {
	Boolean    *bool      `json:"boolean,omitempty"`
	Number     *float64   `json:"number,omitempty"`
	Text       *string    `json:"text,omitempty"`
	Selections []string   `json:"selections,omitempty"`
	Date       *time.Time `json:"date,omitempty"`
}

func answersMap(items []transport.FieldAnswer) map[string]pipelines.FieldResponse {
	answers := make(map[string]pipelines.FieldResponse, len(items))
	for _, item := range items {
		answers[item.FieldID.String()] = pipelines.FieldResponse{
			FieldID:    item.FieldID,
			Boolean:    item.Boolean,
			Number:     item.Number,
			Text:       item.Text,
			Selections: item.Selections,
			Date:       item.Date,
		}
	}
	return answers
}

// rejectionError maps the state machine's typed rejections onto HTTP-safe
// application errors with a machine-readable detail payload.
func rejectionError(err error) error {
	var invalid *domain.InvalidStageError
	if errors.As(err, &invalid) {
		return apperr.Wrap(apperr.KindValidation, invalid.Error(), err).
			WithDetails(transport.TransitionRejection{Code: "invalid_stage", Field: invalid.Stage})
	}
	var notAllowed *domain.ReasonNotAllowedError
	if errors.As(err, &notAllowed) {
		return apperr.Wrap(apperr.KindValidation, notAllowed.Error(), err).
			WithDetails(transport.TransitionRejection{Code: "reason_not_allowed"})
	}
	var incomplete *domain.ApprovalIncompleteError
	if errors.As(err, &incomplete) {
		return apperr.Wrap(apperr.KindValidation, incomplete.Error(), err).
			WithDetails(transport.TransitionRejection{Code: "approval_incomplete", UnmetFields: incomplete.Unmet})
	}
	var missing *domain.RequiredFieldMissingError
	if errors.As(err, &missing) {
		return apperr.Wrap(apperr.KindValidation, missing.Error(), err).
			WithDetails(transport.TransitionRejection{Code: "required_field_missing", Field: missing.Label})
	}
	return err
}
