package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"practice_portal_backend/internal/events"
	"practice_portal_backend/internal/scheduling/domain"
	"practice_portal_backend/internal/scheduling/repository"
	"practice_portal_backend/internal/scheduling/transport"
	"practice_portal_backend/platform/apperr"
	"practice_portal_backend/platform/logger"
)

// fakeRepo is an in-memory Repository for exercising the run controller.
type fakeRepo struct {
	mu         sync.Mutex
	services   []domain.RecurringService
	runs       map[uuid.UUID]domain.RunLog
	exceptions []domain.Exception
	history    []domain.History
	advanced   map[uuid.UUID]domain.Occurrence
}

func newFakeRepo(services ...domain.RecurringService) *fakeRepo {
	return &fakeRepo{
		services: services,
		runs:     make(map[uuid.UUID]domain.RunLog),
		advanced: make(map[uuid.UUID]domain.Occurrence),
	}
}

func (f *fakeRepo) ListActiveServices(ctx context.Context) ([]domain.RecurringService, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.RecurringService(nil), f.services...), nil
}

func (f *fakeRepo) GetService(ctx context.Context, id uuid.UUID, kind domain.OwnerKind) (domain.RecurringService, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, svc := range f.services {
		if svc.ID == id {
			return svc, nil
		}
	}
	return domain.RecurringService{}, apperr.NotFound("recurring service not found")
}

func (f *fakeRepo) AdvanceSchedule(ctx context.Context, params repository.AdvanceParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.advanced[params.Service.ID] = params.Next
	f.history = append(f.history, domain.History{
		ID:          uuid.New(),
		ServiceID:   params.Service.ID,
		RunID:       params.RunID,
		ProjectID:   params.ProjectID,
		OwnerKind:   params.Service.OwnerKind,
		TriggeredBy: params.TriggeredBy,
		Before:      params.Service.Snapshot(),
		After:       domain.SnapshotOf(params.Next),
		CreatedAt:   time.Now(),
	})
	return nil
}

func (f *fakeRepo) CreateRun(ctx context.Context, runDate time.Time) (domain.RunLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, run := range f.runs {
		if run.Status == domain.RunStatusRunning {
			return domain.RunLog{}, apperr.Conflict("a scheduling run is already in progress")
		}
	}
	run := domain.RunLog{
		ID:        uuid.New(),
		RunDate:   runDate,
		Status:    domain.RunStatusRunning,
		StartedAt: time.Now(),
	}
	f.runs[run.ID] = run
	return run, nil
}

func (f *fakeRepo) FinalizeRun(ctx context.Context, params repository.RunFinalization) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	run := f.runs[params.RunID]
	run.Status = domain.RunStatusCompleted
	run.Counters = params.Counters
	run.ExecutionTimeMs = params.ExecutionTimeMs
	run.Summary = params.Summary
	now := time.Now()
	run.FinishedAt = &now
	f.runs[params.RunID] = run
	return nil
}

func (f *fakeRepo) FailRun(ctx context.Context, runID uuid.UUID, errorDetails string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	run := f.runs[runID]
	run.Status = domain.RunStatusFailed
	run.ErrorDetails = &errorDetails
	f.runs[runID] = run
	return nil
}

func (f *fakeRepo) GetRun(ctx context.Context, runID uuid.UUID) (domain.RunLog, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.runs[runID]
	if !ok {
		return domain.RunLog{}, apperr.NotFound("scheduling run not found")
	}
	return run, nil
}

func (f *fakeRepo) ListRuns(ctx context.Context, params repository.ListRunsParams) ([]domain.RunLog, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var runs []domain.RunLog
	for _, run := range f.runs {
		runs = append(runs, run)
	}
	return runs, len(runs), nil
}

func (f *fakeRepo) InsertException(ctx context.Context, exc domain.Exception) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	exc.CreatedAt = time.Now()
	f.exceptions = append(f.exceptions, exc)
	return nil
}

func (f *fakeRepo) ListExceptions(ctx context.Context, includeResolved bool) ([]domain.Exception, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]domain.Exception(nil), f.exceptions...), nil
}

func (f *fakeRepo) ResolveException(ctx context.Context, id uuid.UUID, resolvedBy uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.exceptions {
		if f.exceptions[i].ID == id && !f.exceptions[i].Resolved {
			now := time.Now()
			f.exceptions[i].Resolved = true
			f.exceptions[i].ResolvedAt = &now
			f.exceptions[i].ResolvedByUserID = &resolvedBy
			return nil
		}
	}
	return apperr.NotFound("unresolved scheduling exception not found")
}

func (f *fakeRepo) ListHistory(ctx context.Context, serviceID uuid.UUID) ([]domain.History, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.History
	for _, h := range f.history {
		if h.ServiceID == serviceID {
			out = append(out, h)
		}
	}
	return out, nil
}

// fakeCreator records created projects and can fail or panic for chosen
// services.
type fakeCreator struct {
	mu       sync.Mutex
	created  []uuid.UUID
	failFor  map[uuid.UUID]bool
	panicFor map[uuid.UUID]bool
}

func (f *fakeCreator) CreateScheduledProject(ctx context.Context, svc domain.RecurringService) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.panicFor[svc.ID] {
		panic("unexpected nil stage")
	}
	if f.failFor[svc.ID] {
		return uuid.Nil, fmt.Errorf("create project for service %s: boom", svc.ID)
	}
	id := uuid.New()
	f.created = append(f.created, id)
	return id, nil
}

func testDate(value string) time.Time {
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		panic(err)
	}
	return t
}

func testDatePtr(value string) *time.Time {
	t := testDate(value)
	return &t
}

func dueService(name string) domain.RecurringService {
	start := testDate("2026-01-01")
	return domain.RecurringService{
		ID:                 uuid.New(),
		ServiceID:          uuid.New(),
		ProjectTypeID:      uuid.New(),
		OwnerKind:          domain.OwnerClient,
		OwnerName:          "Acme Ltd",
		ServiceName:        name,
		Frequency:          domain.FrequencyMonthly,
		NextStartDate:      &start,
		NextDueDate:        testDatePtr("2026-01-31"),
		TargetDeliveryDate: testDatePtr("2026-01-20"),
		IsActive:           true,
	}
}

func newTestService(repo repository.Repository, creator ProjectCreator, workers int) *Service {
	log := logger.New("development")
	bus := events.NewInMemoryBus(log)
	return New(repo, creator, bus, log, workers)
}

func TestExecutePassMixedOutcomes(t *testing.T) {
	due := dueService("VAT Return")

	notDue := dueService("Bookkeeping")
	notDue.NextStartDate = testDatePtr("2026-06-01")

	chSkipped := dueService("Annual Accounts")
	chSkipped.IsCompaniesHouseConnected = true
	chSkipped.NextDueDate = nil

	broken := dueService("Payroll")
	broken.TargetDeliveryDate = nil

	repo := newFakeRepo(due, notDue, chSkipped, broken)
	creator := &fakeCreator{}
	svc := newTestService(repo, creator, 2)

	resp, err := svc.ExecutePass(context.Background(), testDate("2026-01-15"))
	if err != nil {
		t.Fatalf("ExecutePass() error = %v", err)
	}

	if resp.Status != string(domain.RunStatusCompleted) {
		t.Errorf("status = %q, want %q", resp.Status, domain.RunStatusCompleted)
	}
	c := resp.Counters
	if c.TotalServicesChecked != 4 {
		t.Errorf("totalServicesChecked = %d, want 4", c.TotalServicesChecked)
	}
	if c.ServicesFoundDue != 1 {
		t.Errorf("servicesFoundDue = %d, want 1", c.ServicesFoundDue)
	}
	if c.ProjectsCreated != 1 {
		t.Errorf("projectsCreated = %d, want 1", c.ProjectsCreated)
	}
	if c.ServicesRescheduled != 1 {
		t.Errorf("servicesRescheduled = %d, want 1", c.ServicesRescheduled)
	}
	if c.CHServicesSkipped != 1 {
		t.Errorf("chServicesSkipped = %d, want 1", c.CHServicesSkipped)
	}
	if c.ErrorsEncountered != 1 {
		t.Errorf("errorsEncountered = %d, want 1", c.ErrorsEncountered)
	}

	if len(repo.exceptions) != 1 {
		t.Fatalf("exceptions = %d, want 1", len(repo.exceptions))
	}
	exc := repo.exceptions[0]
	if exc.ServiceID != broken.ID {
		t.Errorf("exception serviceID = %s, want %s", exc.ServiceID, broken.ID)
	}
	if exc.ErrorType != domain.ErrTypeMissingTargetDelivery {
		t.Errorf("exception errorType = %q, want %q", exc.ErrorType, domain.ErrTypeMissingTargetDelivery)
	}

	next, ok := repo.advanced[due.ID]
	if !ok {
		t.Fatal("due service was not rescheduled")
	}
	if got, want := next.NextStartDate, testDate("2026-02-01"); !got.Equal(want) {
		t.Errorf("advanced nextStartDate = %v, want %v", got, want)
	}
	if _, ok := repo.advanced[broken.ID]; ok {
		t.Error("failed service must keep its schedule untouched")
	}
	if _, ok := repo.advanced[chSkipped.ID]; ok {
		t.Error("CH-skipped service must keep its schedule untouched")
	}
}

func TestExecutePassOneFailureAmongMany(t *testing.T) {
	services := make([]domain.RecurringService, 0, 50)
	for i := 0; i < 50; i++ {
		services = append(services, dueService(fmt.Sprintf("Service %02d", i)))
	}
	creator := &fakeCreator{failFor: map[uuid.UUID]bool{services[17].ID: true}}
	repo := newFakeRepo(services...)
	svc := newTestService(repo, creator, 4)

	resp, err := svc.ExecutePass(context.Background(), testDate("2026-01-15"))
	if err != nil {
		t.Fatalf("ExecutePass() error = %v", err)
	}

	if resp.Status != string(domain.RunStatusCompleted) {
		t.Errorf("status = %q, want completed even with exceptions", resp.Status)
	}
	c := resp.Counters
	if c.TotalServicesChecked != 50 {
		t.Errorf("totalServicesChecked = %d, want 50", c.TotalServicesChecked)
	}
	if c.ServicesFoundDue != 50 {
		t.Errorf("servicesFoundDue = %d, want 50", c.ServicesFoundDue)
	}
	if c.ProjectsCreated != 49 {
		t.Errorf("projectsCreated = %d, want 49", c.ProjectsCreated)
	}
	if c.ServicesRescheduled != 49 {
		t.Errorf("servicesRescheduled = %d, want 49", c.ServicesRescheduled)
	}
	if c.ErrorsEncountered != 1 {
		t.Errorf("errorsEncountered = %d, want 1", c.ErrorsEncountered)
	}
	if _, ok := repo.advanced[services[17].ID]; ok {
		t.Error("failed service must keep its schedule untouched")
	}
}

func TestExecutePassCountsPanickedService(t *testing.T) {
	healthy := dueService("VAT Return")
	doomed := dueService("Payroll")

	creator := &fakeCreator{panicFor: map[uuid.UUID]bool{doomed.ID: true}}
	repo := newFakeRepo(healthy, doomed)
	svc := newTestService(repo, creator, 2)

	resp, err := svc.ExecutePass(context.Background(), testDate("2026-01-15"))
	if err != nil {
		t.Fatalf("ExecutePass() error = %v", err)
	}

	if resp.Status != string(domain.RunStatusCompleted) {
		t.Errorf("status = %q, want completed even after a panic", resp.Status)
	}
	c := resp.Counters
	if c.TotalServicesChecked != 2 {
		t.Errorf("totalServicesChecked = %d, want 2", c.TotalServicesChecked)
	}
	if c.ServicesFoundDue != 2 {
		t.Errorf("servicesFoundDue = %d, want 2", c.ServicesFoundDue)
	}
	if c.ProjectsCreated != 1 {
		t.Errorf("projectsCreated = %d, want 1", c.ProjectsCreated)
	}
	if c.ErrorsEncountered != 1 {
		t.Errorf("errorsEncountered = %d, want 1", c.ErrorsEncountered)
	}
	if len(repo.exceptions) != 1 {
		t.Fatalf("exceptions = %d, want 1", len(repo.exceptions))
	}
	if exc := repo.exceptions[0]; !strings.Contains(exc.Message, "panic while scheduling") {
		t.Errorf("exception message = %q, want a recovered panic", exc.Message)
	}
	if _, ok := repo.advanced[doomed.ID]; ok {
		t.Error("panicked service must keep its schedule untouched")
	}
}

func TestExecutePassRejectsOverlappingRun(t *testing.T) {
	repo := newFakeRepo(dueService("VAT Return"))
	stuck, err := repo.CreateRun(context.Background(), testDate("2026-01-14"))
	if err != nil {
		t.Fatalf("CreateRun() error = %v", err)
	}

	svc := newTestService(repo, &fakeCreator{}, 2)
	_, err = svc.ExecutePass(context.Background(), testDate("2026-01-15"))
	if !apperr.Is(err, apperr.KindConflict) {
		t.Fatalf("ExecutePass() error = %v, want conflict", err)
	}

	run, err := repo.GetRun(context.Background(), stuck.ID)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if run.Status != domain.RunStatusRunning {
		t.Errorf("existing run status = %q, want unchanged", run.Status)
	}
}

func TestExecutePassRecordsHistory(t *testing.T) {
	due := dueService("VAT Return")
	repo := newFakeRepo(due)
	svc := newTestService(repo, &fakeCreator{}, 1)

	if _, err := svc.ExecutePass(context.Background(), testDate("2026-01-15")); err != nil {
		t.Fatalf("ExecutePass() error = %v", err)
	}

	history, err := repo.ListHistory(context.Background(), due.ID)
	if err != nil {
		t.Fatalf("ListHistory() error = %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history rows = %d, want 1", len(history))
	}
	h := history[0]
	if h.ProjectID == nil {
		t.Error("history row must reference the created project")
	}
	if h.Before.NextStartDate == nil || !h.Before.NextStartDate.Equal(testDate("2026-01-01")) {
		t.Errorf("before snapshot start = %v, want 2026-01-01", h.Before.NextStartDate)
	}
	if h.After.NextStartDate == nil || !h.After.NextStartDate.Equal(testDate("2026-02-01")) {
		t.Errorf("after snapshot start = %v, want 2026-02-01", h.After.NextStartDate)
	}
}

func TestManualReschedule(t *testing.T) {
	due := dueService("VAT Return")
	repo := newFakeRepo(due)
	svc := newTestService(repo, &fakeCreator{}, 1)

	history, err := svc.Reschedule(context.Background(), due.ID, transport.RescheduleRequest{
		OwnerKind:          string(domain.OwnerClient),
		NextStartDate:      testDatePtr("2026-04-01"),
		NextDueDate:        testDatePtr("2026-04-30"),
		TargetDeliveryDate: testDatePtr("2026-04-20"),
	})
	if err != nil {
		t.Fatalf("Reschedule() error = %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("history rows = %d, want 1", len(history))
	}
	h := history[0]
	if h.TriggeredBy != domain.TriggerManual {
		t.Errorf("triggeredBy = %q, want %q", h.TriggeredBy, domain.TriggerManual)
	}
	if h.RunID != nil {
		t.Error("manual reschedule must not reference a run")
	}
	next, ok := repo.advanced[due.ID]
	if !ok {
		t.Fatal("service schedule was not updated")
	}
	if !next.NextStartDate.Equal(testDate("2026-04-01")) {
		t.Errorf("nextStartDate = %v, want 2026-04-01", next.NextStartDate)
	}
}

func TestResolveException(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo, &fakeCreator{}, 1)

	exc := domain.Exception{ID: uuid.New(), RunID: uuid.New(), ServiceID: uuid.New(), OwnerKind: domain.OwnerClient, ErrorType: domain.ErrTypeMissingFrequency, Message: "no frequency"}
	if err := repo.InsertException(context.Background(), exc); err != nil {
		t.Fatalf("InsertException() error = %v", err)
	}

	operator := uuid.New()
	if err := svc.ResolveException(context.Background(), exc.ID, operator); err != nil {
		t.Fatalf("ResolveException() error = %v", err)
	}
	if got := repo.exceptions[0].ResolvedByUserID; got == nil || *got != operator {
		t.Errorf("resolvedByUserID = %v, want %s", got, operator)
	}
	if err := svc.ResolveException(context.Background(), exc.ID, operator); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("second resolve error = %v, want not found", err)
	}
}
