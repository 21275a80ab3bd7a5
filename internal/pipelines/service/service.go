package service

import (
	"context"

	"github.com/google/uuid"

	"practice_portal_backend/internal/pipelines/domain"
	"practice_portal_backend/internal/pipelines/repository"
	"practice_portal_backend/internal/pipelines/transport"
	"practice_portal_backend/platform/apperr"
	"practice_portal_backend/platform/logger"
)

// Service provides business logic for pipeline configuration: project
// types, stage approvals, and change reasons.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates a new pipelines service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// GetProjectType retrieves a project type by ID.
func (s *Service) GetProjectType(ctx context.Context, id uuid.UUID) (transport.ProjectTypeResponse, error) {
	pt, err := s.repo.GetProjectType(ctx, id)
	if err != nil {
		return transport.ProjectTypeResponse{}, err
	}
	return toProjectTypeResponse(pt), nil
}

// ListProjectTypes retrieves all project types.
func (s *Service) ListProjectTypes(ctx context.Context) (transport.ProjectTypeListResponse, error) {
	types, err := s.repo.ListProjectTypes(ctx)
	if err != nil {
		return transport.ProjectTypeListResponse{}, err
	}
	items := make([]transport.ProjectTypeResponse, 0, len(types))
	for _, pt := range types {
		items = append(items, toProjectTypeResponse(pt))
	}
	return transport.ProjectTypeListResponse{Items: items, Total: len(items)}, nil
}

// CreateProjectType creates a project type with its stage set. The stage
// order must be dense and unique before anything is written.
func (s *Service) CreateProjectType(ctx context.Context, req transport.CreateProjectTypeRequest) (transport.ProjectTypeResponse, error) {
	stages := make([]domain.KanbanStage, 0, len(req.Stages))
	params := repository.CreateProjectTypeParams{Name: req.Name}
	for _, st := range req.Stages {
		stages = append(stages, domain.KanbanStage{Name: st.Name, SortOrder: st.SortOrder})
		params.Stages = append(params.Stages, repository.CreateStageParams{
			Name:            st.Name,
			SortOrder:       st.SortOrder,
			MaxInstanceTime: st.MaxInstanceTime,
			MaxTotalTime:    st.MaxTotalTime,
			StageApprovalID: st.StageApprovalID,
			CanBeFinalStage: st.CanBeFinalStage,
		})
	}
	if err := domain.ValidateStageOrder(stages); err != nil {
		return transport.ProjectTypeResponse{}, apperr.Validation(err.Error())
	}

	pt, err := s.repo.CreateProjectType(ctx, params)
	if err != nil {
		return transport.ProjectTypeResponse{}, err
	}

	s.log.Info("project type created", "projectTypeId", pt.ID, "stages", len(pt.Stages))
	return toProjectTypeResponse(pt), nil
}

// GetStageApproval retrieves a stage approval by ID.
func (s *Service) GetStageApproval(ctx context.Context, id uuid.UUID) (transport.StageApprovalResponse, error) {
	sa, err := s.repo.GetStageApproval(ctx, id)
	if err != nil {
		return transport.StageApprovalResponse{}, err
	}
	return toStageApprovalResponse(sa)
}

// CreateStageApproval creates a stage approval checklist. Every field's
// expected-value contract is validated against its type before anything
// is written.
func (s *Service) CreateStageApproval(ctx context.Context, req transport.CreateStageApprovalRequest) (transport.StageApprovalResponse, error) {
	if _, err := s.repo.GetProjectType(ctx, req.ProjectTypeID); err != nil {
		return transport.StageApprovalResponse{}, err
	}

	fields := make([]domain.StageApprovalField, 0, len(req.Fields))
	for _, fr := range req.Fields {
		field, err := fieldFromRequest(fr)
		if err != nil {
			return transport.StageApprovalResponse{}, err
		}
		if err := domain.ValidateField(field); err != nil {
			return transport.StageApprovalResponse{}, apperr.Validation(err.Error())
		}
		fields = append(fields, field)
	}

	sa, err := s.repo.CreateStageApproval(ctx, repository.CreateApprovalParams{
		ProjectTypeID: req.ProjectTypeID,
		Name:          req.Name,
		Fields:        fields,
	})
	if err != nil {
		return transport.StageApprovalResponse{}, err
	}

	s.log.Info("stage approval created", "approvalId", sa.ID, "fields", len(sa.Fields))
	return toStageApprovalResponse(sa)
}

// CreateChangeReason creates a change reason scoped to a project type.
// Every fromStageId must belong to the project type.
func (s *Service) CreateChangeReason(ctx context.Context, req transport.CreateChangeReasonRequest) (transport.ChangeReasonResponse, error) {
	pt, err := s.repo.GetProjectType(ctx, req.ProjectTypeID)
	if err != nil {
		return transport.ChangeReasonResponse{}, err
	}
	for _, stageID := range req.FromStageIDs {
		if _, ok := pt.StageByID(stageID); !ok {
			return transport.ChangeReasonResponse{}, apperr.Validation("fromStageIds contains a stage outside the project type")
		}
	}

	fields := make([]domain.ReasonCustomField, 0, len(req.CustomFields))
	for _, fr := range req.CustomFields {
		field := domain.ReasonCustomField{
			Label:     fr.Label,
			Type:      domain.FieldType(fr.Type),
			Required:  fr.Required,
			Options:   fr.Options,
			Logic:     fr.Logic,
			SortOrder: fr.SortOrder,
		}
		if err := domain.ValidateCustomField(field); err != nil {
			return transport.ChangeReasonResponse{}, apperr.Validation(err.Error())
		}
		fields = append(fields, field)
	}

	cr, err := s.repo.CreateChangeReason(ctx, repository.CreateReasonParams{
		ProjectTypeID:   req.ProjectTypeID,
		Label:           req.Label,
		StageApprovalID: req.StageApprovalID,
		FromStageIDs:    req.FromStageIDs,
		CustomFields:    fields,
	})
	if err != nil {
		return transport.ChangeReasonResponse{}, err
	}

	s.log.Info("change reason created", "reasonId", cr.ID, "label", cr.Label)
	return toChangeReasonResponse(cr), nil
}

// EvaluateApproval runs a dry evaluation of submitted responses against a
// stage approval. Nothing is persisted; the caller gets the same verdict
// the transition engine would reach.
func (s *Service) EvaluateApproval(ctx context.Context, approvalID uuid.UUID, req transport.EvaluateApprovalRequest) (transport.EvaluationResponse, error) {
	sa, err := s.repo.GetStageApproval(ctx, approvalID)
	if err != nil {
		return transport.EvaluationResponse{}, err
	}

	responses := responsesFromRequest(req.Responses)
	result, err := domain.EvaluateApproval(sa, responses, domain.AnswersFromResponses(responses))
	if err != nil {
		return transport.EvaluationResponse{}, apperr.Wrap(apperr.KindInternal, "approval evaluation failed", err)
	}

	return transport.EvaluationResponse{Passed: result.Passed, Unmet: result.Unmet}, nil
}
