package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"practice_portal_backend/internal/events"
	"practice_portal_backend/internal/scheduling/domain"
	"practice_portal_backend/internal/scheduling/repository"
	"practice_portal_backend/internal/scheduling/transport"
	"practice_portal_backend/platform/logger"
)

// Service runs scheduling passes and serves the run log, exception queue
// and reschedule history.
type Service struct {
	repo    repository.Repository
	creator ProjectCreator
	bus     events.Bus
	log     *logger.Logger
	workers int
}

// New creates the scheduling service.
func New(repo repository.Repository, creator ProjectCreator, bus events.Bus, log *logger.Logger, workers int) *Service {
	if workers < 1 {
		workers = 1
	}
	return &Service{repo: repo, creator: creator, bus: bus, log: log, workers: workers}
}

// passState accumulates the outcome of one pass across workers.
type passState struct {
	mu       sync.Mutex
	counters domain.Counters
}

func (p *passState) add(delta domain.Counters) {
	p.mu.Lock()
	p.counters.Add(delta)
	p.mu.Unlock()
}

// ExecutePass runs one scheduling pass over every active service. A
// per-service failure is recorded as an exception and the pass carries
// on; the run only fails when the pass itself cannot proceed. Cancelling
// the context stops dispatching new services and finalizes the run with
// the work already done.
func (s *Service) ExecutePass(ctx context.Context, asOf time.Time) (transport.RunResponse, error) {
	asOf = asOf.UTC().Truncate(24 * time.Hour)
	run, err := s.repo.CreateRun(ctx, asOf)
	if err != nil {
		return transport.RunResponse{}, err
	}
	started := time.Now()

	services, err := s.repo.ListActiveServices(ctx)
	if err != nil {
		details := err.Error()
		if failErr := s.repo.FailRun(context.WithoutCancel(ctx), run.ID, details); failErr != nil {
			s.log.Error("failed to mark scheduling run failed", "run_id", run.ID, "error", failErr)
		}
		return transport.RunResponse{}, fmt.Errorf("list active services: %w", err)
	}

	state := &passState{}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for _, svc := range services {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			s.processService(gctx, run.ID, svc, asOf, state)
			return nil
		})
	}
	_ = g.Wait()

	executionMs := time.Since(started).Milliseconds()
	finalCtx := context.WithoutCancel(ctx)
	final := state.counters
	err = s.repo.FinalizeRun(finalCtx, repository.RunFinalization{
		RunID:           run.ID,
		Counters:        final,
		ExecutionTimeMs: executionMs,
		Summary:         final.Summary(),
	})
	if err != nil {
		return transport.RunResponse{}, err
	}

	s.log.SchedulingRun(run.ID.String(), final.TotalServicesChecked, final.ServicesFoundDue,
		final.ProjectsCreated, final.ErrorsEncountered, executionMs)
	s.bus.Publish(finalCtx, events.SchedulingRunCompleted{
		BaseEvent:       events.NewBaseEvent(),
		RunID:           run.ID,
		Status:          string(domain.RunStatusCompleted),
		ServicesChecked: final.TotalServicesChecked,
		ServicesDue:     final.ServicesFoundDue,
		ProjectsCreated: final.ProjectsCreated,
		Errors:          final.ErrorsEncountered,
		ExecutionMs:     executionMs,
	})

	return s.GetRun(finalCtx, run.ID)
}

// processService evaluates one subscription and, when due, opens its
// project and advances the schedule. All failures stay inside this
// method as recorded exceptions.
func (s *Service) processService(ctx context.Context, runID uuid.UUID, svc domain.RecurringService, asOf time.Time, state *passState) {
	delta := domain.Counters{TotalServicesChecked: 1}
	defer func() {
		if r := recover(); r != nil {
			state.add(delta)
			s.recordException(ctx, runID, svc, state,
				domain.ErrTypeComputation, fmt.Sprintf("panic while scheduling: %v", r))
		}
	}()

	decision, err := domain.ComputeNextOccurrence(svc, asOf)
	if err != nil {
		state.add(delta)
		errType := domain.ErrTypeComputation
		var schedErr *domain.SchedulingError
		if errors.As(err, &schedErr) {
			errType = schedErr.Type
		}
		s.recordException(ctx, runID, svc, state, errType, err.Error())
		return
	}

	switch decision.Kind {
	case domain.DecisionNotDue:
		state.add(delta)
		return
	case domain.DecisionCHSkipped:
		delta.CHServicesSkipped = 1
		state.add(delta)
		return
	}

	delta.ServicesFoundDue = 1

	projectID, err := s.creator.CreateScheduledProject(ctx, svc)
	if err != nil {
		state.add(delta)
		s.recordException(ctx, runID, svc, state, domain.ErrTypeComputation, err.Error())
		return
	}
	delta.ProjectsCreated = 1

	err = s.repo.AdvanceSchedule(ctx, repository.AdvanceParams{
		Service:     svc,
		RunID:       &runID,
		ProjectID:   &projectID,
		TriggeredBy: domain.TriggerScheduler,
		Next:        decision.Next,
	})
	if err != nil {
		state.add(delta)
		s.recordException(ctx, runID, svc, state, domain.ErrTypeComputation, err.Error())
		return
	}
	delta.ServicesRescheduled = 1
	state.add(delta)
}

// recordException persists one per-service failure and counts it.
func (s *Service) recordException(ctx context.Context, runID uuid.UUID, svc domain.RecurringService, state *passState, errType, message string) {
	state.add(domain.Counters{ErrorsEncountered: 1})

	exc := domain.Exception{
		ID:        uuid.New(),
		RunID:     runID,
		ServiceID: svc.ID,
		OwnerKind: svc.OwnerKind,
		ErrorType: errType,
		Message:   message,
	}
	writeCtx := context.WithoutCancel(ctx)
	if err := s.repo.InsertException(writeCtx, exc); err != nil {
		s.log.Error("failed to record scheduling exception", "run_id", runID, "service_id", svc.ID, "error", err)
	}
	s.log.SchedulingException(runID.String(), svc.ID.String(), errType, errors.New(message))
	s.bus.Publish(writeCtx, events.SchedulingExceptionRaised{
		BaseEvent: events.NewBaseEvent(),
		RunID:     runID,
		ServiceID: svc.ID,
		ErrorType: errType,
		Message:   message,
	})
}
