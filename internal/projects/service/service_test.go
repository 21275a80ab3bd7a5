package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"practice_portal_backend/internal/businesstime"
	"practice_portal_backend/internal/events"
	pipelines "practice_portal_backend/internal/pipelines/domain"
	"practice_portal_backend/internal/projects/domain"
	"practice_portal_backend/internal/projects/repository"
	"practice_portal_backend/internal/projects/transport"
	"practice_portal_backend/platform/apperr"
	"practice_portal_backend/platform/logger"
)

// fakeRepo is an in-memory Repository for exercising the transition
// engine. ApplyTransition enforces the same optimistic status guard and
// per-field response uniqueness as the real schema.
type fakeRepo struct {
	mu         sync.Mutex
	projects   map[uuid.UUID]domain.Project
	chronology map[uuid.UUID][]domain.ChronologyEntry
	responses  map[uuid.UUID]map[uuid.UUID]repository.StoredApprovalResponse
	// applyStatus, when set, overrides the stored status during the
	// optimistic check to simulate a concurrent move.
	applyStatus string
}

func newFakeRepo(projects ...domain.Project) *fakeRepo {
	f := &fakeRepo{
		projects:   make(map[uuid.UUID]domain.Project),
		chronology: make(map[uuid.UUID][]domain.ChronologyEntry),
		responses:  make(map[uuid.UUID]map[uuid.UUID]repository.StoredApprovalResponse),
	}
	for _, p := range projects {
		f.projects[p.ID] = p
	}
	return f
}

func (f *fakeRepo) Create(ctx context.Context, params repository.CreateProjectParams) (domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	p := domain.Project{
		ID:                 uuid.New(),
		ProjectTypeID:      params.ProjectTypeID,
		ClientID:           params.ClientID,
		PersonID:           params.PersonID,
		Description:        params.Description,
		CurrentStatus:      params.CurrentStatus,
		CurrentAssigneeID:  params.CurrentAssigneeID,
		DueDate:            params.DueDate,
		TargetDeliveryDate: params.TargetDeliveryDate,
		SourceServiceID:    params.SourceServiceID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	f.projects[p.ID] = p
	return p, nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[id]
	if !ok {
		return domain.Project{}, apperr.NotFound("project not found")
	}
	return p, nil
}

func (f *fakeRepo) List(ctx context.Context, params repository.ListParams) ([]domain.Project, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]domain.Project, 0, len(f.projects))
	for _, p := range f.projects {
		out = append(out, p)
	}
	return out, len(out), nil
}

func (f *fakeRepo) Chronology(ctx context.Context, projectID uuid.UUID) ([]domain.ChronologyEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.ChronologyEntry(nil), f.chronology[projectID]...), nil
}

func (f *fakeRepo) ApprovalResponses(ctx context.Context, projectID uuid.UUID) ([]repository.StoredApprovalResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.StoredApprovalResponse
	for _, resp := range f.responses[projectID] {
		out = append(out, resp)
	}
	return out, nil
}

func (f *fakeRepo) ApplyTransition(ctx context.Context, params repository.ApplyTransitionParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.projects[params.ProjectID]
	if !ok {
		return apperr.NotFound("project not found")
	}
	current := p.CurrentStatus
	if f.applyStatus != "" {
		current = f.applyStatus
	}
	if current != params.ExpectedStatus {
		return apperr.Wrap(apperr.KindConflict, "project moved since it was read",
			&domain.StaleProjectError{ProjectID: params.ProjectID, ExpectedStatus: params.ExpectedStatus})
	}

	from := p.CurrentStatus
	p.CurrentStatus = params.NewStatus
	if params.MarkCompleted {
		p.IsCompleted = true
		p.CompletedAt = &params.OccurredAt
	}
	p.UpdatedAt = params.OccurredAt
	f.projects[params.ProjectID] = p

	occurred := params.OccurredAt
	f.chronology[params.ProjectID] = append(f.chronology[params.ProjectID], domain.ChronologyEntry{
		ID:             uuid.New(),
		ProjectID:      params.ProjectID,
		FromStatus:     from,
		ToStatus:       params.NewStatus,
		ChangeReasonID: &params.ChangeReasonID,
		OccurredAt:     &occurred,
		BusinessHours:  params.BusinessHours,
		CreatedAt:      params.OccurredAt,
	})

	if f.responses[params.ProjectID] == nil {
		f.responses[params.ProjectID] = make(map[uuid.UUID]repository.StoredApprovalResponse)
	}
	for _, resp := range params.Responses {
		f.responses[params.ProjectID][resp.FieldID] = repository.StoredApprovalResponse{
			ID:         uuid.New(),
			ApprovalID: resp.ApprovalID,
			FieldID:    resp.FieldID,
			Value:      resp.Value,
			AnsweredAt: params.OccurredAt,
		}
	}
	return nil
}

func (f *fakeRepo) StatusCounts(ctx context.Context, projectTypeID uuid.UUID) (map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[string]int)
	for _, p := range f.projects {
		if p.ProjectTypeID == projectTypeID && !p.Inactive && !p.IsCompleted {
			counts[p.CurrentStatus]++
		}
	}
	return counts, nil
}

var _ repository.Repository = (*fakeRepo)(nil)

// fakeConfig serves one project type and its approvals.
type fakeConfig struct {
	projectType pipelines.ProjectType
	approvals   map[uuid.UUID]pipelines.StageApproval
}

func (f *fakeConfig) GetProjectType(ctx context.Context, id uuid.UUID) (pipelines.ProjectType, error) {
	if f.projectType.ID != id {
		return pipelines.ProjectType{}, apperr.NotFound("project type not found")
	}
	return f.projectType, nil
}

func (f *fakeConfig) ListProjectTypes(ctx context.Context) ([]pipelines.ProjectType, error) {
	return []pipelines.ProjectType{f.projectType}, nil
}

func (f *fakeConfig) GetStageApproval(ctx context.Context, id uuid.UUID) (pipelines.StageApproval, error) {
	approval, ok := f.approvals[id]
	if !ok {
		return pipelines.StageApproval{}, apperr.NotFound("stage approval not found")
	}
	return approval, nil
}

// noopCache counts invalidations and never hits.
type noopCache struct {
	mu            sync.Mutex
	invalidations int
}

func (n *noopCache) Get(ctx context.Context, projectTypeID uuid.UUID) (map[string]int, bool) {
	return nil, false
}

func (n *noopCache) Set(ctx context.Context, projectTypeID uuid.UUID, counts map[string]int) {}

func (n *noopCache) Invalidate(ctx context.Context, projectTypeID uuid.UUID) {
	n.mu.Lock()
	n.invalidations++
	n.mu.Unlock()
}

// transitionFixture wires a two-stage pipeline: Preparation (guarded by
// a boolean approval) and Review, with a reason out of each stage.
type transitionFixture struct {
	repo       *fakeRepo
	cache      *noopCache
	svc        *Service
	project    domain.Project
	prep       pipelines.KanbanStage
	review     pipelines.KanbanStage
	done       pipelines.ChangeReason
	rework     pipelines.ChangeReason
	approvalID uuid.UUID
	fieldID    uuid.UUID
}

func newTransitionFixture(t *testing.T) *transitionFixture {
	t.Helper()

	projectTypeID := uuid.New()
	approvalID := uuid.New()
	fieldID := uuid.New()

	prep := pipelines.KanbanStage{
		ID:              uuid.New(),
		ProjectTypeID:   projectTypeID,
		Name:            "Preparation",
		SortOrder:       1,
		StageApprovalID: &approvalID,
	}
	review := pipelines.KanbanStage{
		ID:              uuid.New(),
		ProjectTypeID:   projectTypeID,
		Name:            "Review",
		SortOrder:       2,
		CanBeFinalStage: true,
	}
	done := pipelines.ChangeReason{
		ID:            uuid.New(),
		ProjectTypeID: projectTypeID,
		Label:         "Work complete",
		FromStageIDs:  []uuid.UUID{prep.ID},
	}
	rework := pipelines.ChangeReason{
		ID:            uuid.New(),
		ProjectTypeID: projectTypeID,
		Label:         "Needs rework",
		FromStageIDs:  []uuid.UUID{review.ID},
	}

	config := &fakeConfig{
		projectType: pipelines.ProjectType{
			ID:      projectTypeID,
			Name:    "Annual Accounts",
			Stages:  []pipelines.KanbanStage{prep, review},
			Reasons: []pipelines.ChangeReason{done, rework},
		},
		approvals: map[uuid.UUID]pipelines.StageApproval{
			approvalID: {
				ID:            approvalID,
				ProjectTypeID: projectTypeID,
				Name:          "Preparation checklist",
				Fields: []pipelines.StageApprovalField{{
					ID:         fieldID,
					ApprovalID: approvalID,
					Label:      "Workings reviewed",
					Type:       pipelines.FieldBoolean,
					Required:   true,
					Expected:   pipelines.ExpectedBoolean{Value: true},
				}},
			},
		},
	}

	project := domain.Project{
		ID:            uuid.New(),
		ProjectTypeID: projectTypeID,
		Description:   "Acme Ltd - Annual Accounts",
		CurrentStatus: prep.Name,
		CreatedAt:     time.Now().Add(-time.Hour),
		UpdatedAt:     time.Now().Add(-time.Hour),
	}

	repo := newFakeRepo(project)
	cache := &noopCache{}
	log := logger.New("development")
	svc := New(repo, config, businesstime.Default(), cache, events.NewInMemoryBus(log), log)

	return &transitionFixture{
		repo:       repo,
		cache:      cache,
		svc:        svc,
		project:    project,
		prep:       prep,
		review:     review,
		done:       done,
		rework:     rework,
		approvalID: approvalID,
		fieldID:    fieldID,
	}
}

func boolPtr(v bool) *bool { return &v }

func (fx *transitionFixture) approvedAnswer() []transport.FieldAnswer {
	return []transport.FieldAnswer{{FieldID: fx.fieldID, Boolean: boolPtr(true)}}
}

func TestAttemptTransitionHappyPath(t *testing.T) {
	fx := newTransitionFixture(t)

	resp, err := fx.svc.AttemptTransition(context.Background(), fx.project.ID, transport.TransitionRequest{
		TargetStageID:   fx.review.ID,
		ChangeReasonID:  fx.done.ID,
		ApprovalAnswers: fx.approvedAnswer(),
	})
	if err != nil {
		t.Fatalf("AttemptTransition() error = %v", err)
	}

	if resp.FromStatus != fx.prep.Name || resp.ToStatus != fx.review.Name {
		t.Errorf("transition = %q -> %q, want %q -> %q", resp.FromStatus, resp.ToStatus, fx.prep.Name, fx.review.Name)
	}
	if resp.Project.CurrentStatus != fx.review.Name {
		t.Errorf("currentStatus = %q, want %q", resp.Project.CurrentStatus, fx.review.Name)
	}

	entries := fx.repo.chronology[fx.project.ID]
	if len(entries) != 1 {
		t.Fatalf("chronology rows = %d, want 1", len(entries))
	}
	if entries[0].FromStatus != fx.prep.Name || entries[0].ToStatus != fx.review.Name {
		t.Errorf("chronology = %q -> %q, want %q -> %q",
			entries[0].FromStatus, entries[0].ToStatus, fx.prep.Name, fx.review.Name)
	}
	if len(fx.repo.responses[fx.project.ID]) != 1 {
		t.Errorf("stored responses = %d, want 1", len(fx.repo.responses[fx.project.ID]))
	}
	if fx.cache.invalidations != 1 {
		t.Errorf("cache invalidations = %d, want 1", fx.cache.invalidations)
	}
}

func TestAttemptTransitionUnmetApprovalLeavesNoWrites(t *testing.T) {
	fx := newTransitionFixture(t)

	_, err := fx.svc.AttemptTransition(context.Background(), fx.project.ID, transport.TransitionRequest{
		TargetStageID:  fx.review.ID,
		ChangeReasonID: fx.done.ID,
		ApprovalAnswers: []transport.FieldAnswer{
			{FieldID: fx.fieldID, Boolean: boolPtr(false)},
		},
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("AttemptTransition() = %v, want a validation rejection", err)
	}
	var incomplete *domain.ApprovalIncompleteError
	if !errors.As(err, &incomplete) {
		t.Fatalf("error = %v, want ApprovalIncompleteError", err)
	}
	if len(incomplete.Unmet) != 1 || incomplete.Unmet[0].Label != "Workings reviewed" {
		t.Errorf("unmet = %+v, want the boolean field", incomplete.Unmet)
	}

	stored := fx.repo.projects[fx.project.ID]
	if stored.CurrentStatus != fx.prep.Name {
		t.Errorf("currentStatus = %q, want unchanged %q", stored.CurrentStatus, fx.prep.Name)
	}
	if len(fx.repo.chronology[fx.project.ID]) != 0 {
		t.Error("rejected transition must not write chronology")
	}
	if len(fx.repo.responses[fx.project.ID]) != 0 {
		t.Error("rejected transition must not store approval responses")
	}
	if fx.cache.invalidations != 0 {
		t.Error("rejected transition must not invalidate the cache")
	}
}

func TestAttemptTransitionStaleStatusConflict(t *testing.T) {
	fx := newTransitionFixture(t)
	// Another worker moved the project between the read and the write.
	fx.repo.applyStatus = fx.review.Name

	_, err := fx.svc.AttemptTransition(context.Background(), fx.project.ID, transport.TransitionRequest{
		TargetStageID:   fx.review.ID,
		ChangeReasonID:  fx.done.ID,
		ApprovalAnswers: fx.approvedAnswer(),
	})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("AttemptTransition() = %v, want a conflict", err)
	}
	var stale *domain.StaleProjectError
	if !errors.As(err, &stale) {
		t.Fatalf("error = %v, want StaleProjectError", err)
	}
	if stale.ExpectedStatus != fx.prep.Name {
		t.Errorf("ExpectedStatus = %q, want %q", stale.ExpectedStatus, fx.prep.Name)
	}
	if len(fx.repo.chronology[fx.project.ID]) != 0 {
		t.Error("lost race must not write chronology")
	}
}

func TestAttemptTransitionReanswerKeepsOneResponsePerField(t *testing.T) {
	fx := newTransitionFixture(t)
	ctx := context.Background()

	forward := transport.TransitionRequest{
		TargetStageID:   fx.review.ID,
		ChangeReasonID:  fx.done.ID,
		ApprovalAnswers: fx.approvedAnswer(),
	}
	if _, err := fx.svc.AttemptTransition(ctx, fx.project.ID, forward); err != nil {
		t.Fatalf("first transition: %v", err)
	}
	if _, err := fx.svc.AttemptTransition(ctx, fx.project.ID, transport.TransitionRequest{
		TargetStageID:  fx.prep.ID,
		ChangeReasonID: fx.rework.ID,
	}); err != nil {
		t.Fatalf("rework transition: %v", err)
	}
	if _, err := fx.svc.AttemptTransition(ctx, fx.project.ID, forward); err != nil {
		t.Fatalf("second transition: %v", err)
	}

	if got := len(fx.repo.responses[fx.project.ID]); got != 1 {
		t.Fatalf("stored responses = %d, want one row per answered field", got)
	}
	if entries := fx.repo.chronology[fx.project.ID]; len(entries) != 3 {
		t.Errorf("chronology rows = %d, want 3", len(entries))
	}
}

func TestAttemptTransitionCompletesOnFinalStage(t *testing.T) {
	fx := newTransitionFixture(t)

	resp, err := fx.svc.AttemptTransition(context.Background(), fx.project.ID, transport.TransitionRequest{
		TargetStageID:   fx.review.ID,
		ChangeReasonID:  fx.done.ID,
		ApprovalAnswers: fx.approvedAnswer(),
		Complete:        true,
	})
	if err != nil {
		t.Fatalf("AttemptTransition() error = %v", err)
	}
	if !resp.Project.IsCompleted {
		t.Error("project must complete when the final stage accepts it")
	}
	if resp.Project.CompletedAt == nil {
		t.Error("completedAt must be set on completion")
	}
}
