package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"practice_portal_backend/internal/businesstime"
	"practice_portal_backend/internal/events"
	pipelinerepo "practice_portal_backend/internal/pipelines/repository"
	"practice_portal_backend/internal/projects/domain"
	"practice_portal_backend/internal/projects/repository"
	"practice_portal_backend/internal/projects/transport"
	"practice_portal_backend/platform/apperr"
	"practice_portal_backend/platform/logger"
)

// StageCountsCache caches per-stage project counts for kanban board
// headers. Implementations absorb and log their own backend failures; a
// miss is always a safe answer.
type StageCountsCache interface {
	Get(ctx context.Context, projectTypeID uuid.UUID) (map[string]int, bool)
	Set(ctx context.Context, projectTypeID uuid.UUID, counts map[string]int)
	Invalidate(ctx context.Context, projectTypeID uuid.UUID)
}

// Service provides business logic for the project lifecycle.
type Service struct {
	repo     repository.Repository
	config   pipelinerepo.ConfigReader
	calendar *businesstime.Calendar
	cache    StageCountsCache
	bus      events.Bus
	log      *logger.Logger
}

// New creates a new projects service.
func New(repo repository.Repository, config pipelinerepo.ConfigReader, calendar *businesstime.Calendar, cache StageCountsCache, bus events.Bus, log *logger.Logger) *Service {
	return &Service{
		repo:     repo,
		config:   config,
		calendar: calendar,
		cache:    cache,
		bus:      bus,
		log:      log,
	}
}

// Create creates a project in its type's first-order stage.
func (s *Service) Create(ctx context.Context, req transport.CreateProjectRequest) (transport.ProjectResponse, error) {
	pt, err := s.config.GetProjectType(ctx, req.ProjectTypeID)
	if err != nil {
		return transport.ProjectResponse{}, err
	}
	first, ok := pt.FirstStage()
	if !ok {
		return transport.ProjectResponse{}, apperr.Validation("project type has no stages")
	}

	project, err := s.repo.Create(ctx, repository.CreateProjectParams{
		ProjectTypeID:      req.ProjectTypeID,
		ClientID:           req.ClientID,
		PersonID:           req.PersonID,
		Description:        req.Description,
		CurrentStatus:      first.Name,
		CurrentAssigneeID:  req.CurrentAssigneeID,
		DueDate:            req.DueDate,
		TargetDeliveryDate: req.TargetDeliveryDate,
	})
	if err != nil {
		return transport.ProjectResponse{}, err
	}

	s.cache.Invalidate(ctx, project.ProjectTypeID)
	s.bus.Publish(ctx, events.ProjectCreated{
		BaseEvent:     events.NewBaseEvent(),
		ProjectID:     project.ID,
		ProjectTypeID: project.ProjectTypeID,
		ClientID:      project.ClientID,
		PersonID:      project.PersonID,
		CurrentStatus: project.CurrentStatus,
		DueDate:       project.DueDate,
	})

	return toProjectResponse(project), nil
}

// GetByID retrieves a project.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.ProjectResponse, error) {
	project, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return transport.ProjectResponse{}, err
	}
	return toProjectResponse(project), nil
}

// List retrieves projects with optional filters.
func (s *Service) List(ctx context.Context, req transport.ListProjectsRequest) (transport.ProjectListResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize < 1 || pageSize > 200 {
		pageSize = 50
	}

	projects, total, err := s.repo.List(ctx, repository.ListParams{
		ProjectTypeID:   req.ProjectTypeID,
		Status:          req.Status,
		IncludeInactive: req.IncludeInactive,
		Limit:           pageSize,
		Offset:          (page - 1) * pageSize,
	})
	if err != nil {
		return transport.ProjectListResponse{}, err
	}

	items := make([]transport.ProjectResponse, 0, len(projects))
	for _, p := range projects {
		items = append(items, toProjectResponse(p))
	}
	return transport.ProjectListResponse{Items: items, Total: total}, nil
}

// Chronology retrieves a project's transition log.
func (s *Service) Chronology(ctx context.Context, projectID uuid.UUID) (transport.ChronologyResponse, error) {
	if _, err := s.repo.GetByID(ctx, projectID); err != nil {
		return transport.ChronologyResponse{}, err
	}
	entries, err := s.repo.Chronology(ctx, projectID)
	if err != nil {
		return transport.ChronologyResponse{}, err
	}

	resp := transport.ChronologyResponse{Items: make([]transport.ChronologyEntryResponse, 0, len(entries))}
	for _, e := range entries {
		resp.Items = append(resp.Items, transport.ChronologyEntryResponse{
			ID:             e.ID,
			FromStatus:     e.FromStatus,
			ToStatus:       e.ToStatus,
			ChangeReasonID: e.ChangeReasonID,
			OccurredAt:     e.OccurredAt,
			BusinessHours:  e.BusinessHours,
		})
	}
	return resp, nil
}

// ApprovalResponses retrieves a project's stored approval answers.
func (s *Service) ApprovalResponses(ctx context.Context, projectID uuid.UUID) (transport.ApprovalResponsesResponse, error) {
	if _, err := s.repo.GetByID(ctx, projectID); err != nil {
		return transport.ApprovalResponsesResponse{}, err
	}
	stored, err := s.repo.ApprovalResponses(ctx, projectID)
	if err != nil {
		return transport.ApprovalResponsesResponse{}, err
	}

	resp := transport.ApprovalResponsesResponse{Items: make([]transport.ApprovalResponseItem, 0, len(stored))}
	for _, r := range stored {
		resp.Items = append(resp.Items, transport.ApprovalResponseItem{
			ID:         r.ID,
			ApprovalID: r.ApprovalID,
			FieldID:    r.FieldID,
			Value:      r.Value,
			AnsweredAt: r.AnsweredAt,
		})
	}
	return resp, nil
}

// StageTimer computes the live timing picture of a project's current
// stage against the stage's configured limits.
func (s *Service) StageTimer(ctx context.Context, projectID uuid.UUID) (transport.StageTimerResponse, error) {
	project, err := s.repo.GetByID(ctx, projectID)
	if err != nil {
		return transport.StageTimerResponse{}, err
	}
	pt, err := s.config.GetProjectType(ctx, project.ProjectTypeID)
	if err != nil {
		return transport.StageTimerResponse{}, err
	}
	stage, ok := pt.StageByName(project.CurrentStatus)
	if !ok {
		err := &domain.InvalidStageError{ProjectTypeID: pt.ID, Stage: project.CurrentStatus}
		return transport.StageTimerResponse{}, apperr.Wrap(apperr.KindInternal, "project status no longer matches a configured stage", err)
	}
	chronology, err := s.repo.Chronology(ctx, projectID)
	if err != nil {
		return transport.StageTimerResponse{}, err
	}

	enteredAt := domain.StageEntryTime(chronology, project.CreatedAt)
	live := s.calendar.Hours(enteredAt, time.Now())
	total := domain.TotalHoursInStatus(chronology, project.CurrentStatus, live)

	timer := transport.StageTimerResponse{
		Status:            project.CurrentStatus,
		EnteredAt:         enteredAt.Format(time.RFC3339),
		HoursInStage:      live,
		TotalHoursInStage: total,
		MaxInstanceTime:   stage.MaxInstanceTime,
		MaxTotalTime:      stage.MaxTotalTime,
	}
	timer.InstanceOverdue = stage.MaxInstanceTime != nil && live > *stage.MaxInstanceTime
	timer.TotalOverdue = stage.MaxTotalTime != nil && total > *stage.MaxTotalTime
	return timer, nil
}

// StageCounts returns active project counts per stage, served from cache
// when possible.
func (s *Service) StageCounts(ctx context.Context, projectTypeID uuid.UUID) (transport.StageCountsResponse, error) {
	if counts, ok := s.cache.Get(ctx, projectTypeID); ok {
		return transport.StageCountsResponse{ProjectTypeID: projectTypeID, Counts: counts, FromCache: true}, nil
	}

	counts, err := s.repo.StatusCounts(ctx, projectTypeID)
	if err != nil {
		return transport.StageCountsResponse{}, err
	}
	s.cache.Set(ctx, projectTypeID, counts)
	return transport.StageCountsResponse{ProjectTypeID: projectTypeID, Counts: counts}, nil
}
