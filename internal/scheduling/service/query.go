package service

import (
	"context"

	"github.com/google/uuid"

	"practice_portal_backend/internal/scheduling/domain"
	"practice_portal_backend/internal/scheduling/repository"
	"practice_portal_backend/internal/scheduling/transport"
)

// GetRun returns one run log.
func (s *Service) GetRun(ctx context.Context, runID uuid.UUID) (transport.RunResponse, error) {
	run, err := s.repo.GetRun(ctx, runID)
	if err != nil {
		return transport.RunResponse{}, err
	}
	return toRunResponse(run), nil
}

// ListRuns returns run logs newest first.
func (s *Service) ListRuns(ctx context.Context, req transport.ListRunsRequest) (transport.RunListResponse, error) {
	limit := req.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}
	offset := req.Offset
	if offset < 0 {
		offset = 0
	}

	runs, total, err := s.repo.ListRuns(ctx, repository.ListRunsParams{Limit: limit, Offset: offset})
	if err != nil {
		return transport.RunListResponse{}, err
	}

	resp := transport.RunListResponse{
		Runs:   make([]transport.RunResponse, 0, len(runs)),
		Total:  total,
		Limit:  limit,
		Offset: offset,
	}
	for _, run := range runs {
		resp.Runs = append(resp.Runs, toRunResponse(run))
	}
	return resp, nil
}

// ListExceptions returns the exception queue.
func (s *Service) ListExceptions(ctx context.Context, includeResolved bool) ([]transport.ExceptionResponse, error) {
	exceptions, err := s.repo.ListExceptions(ctx, includeResolved)
	if err != nil {
		return nil, err
	}
	resp := make([]transport.ExceptionResponse, 0, len(exceptions))
	for _, exc := range exceptions {
		resp = append(resp, toExceptionResponse(exc))
	}
	return resp, nil
}

// ResolveException marks an exception handled by the given operator.
func (s *Service) ResolveException(ctx context.Context, id, resolvedBy uuid.UUID) error {
	return s.repo.ResolveException(ctx, id, resolvedBy)
}

// Reschedule overrides a service's next cycle dates by hand. The change
// is recorded in history as a manual reschedule with no run attached.
func (s *Service) Reschedule(ctx context.Context, serviceID uuid.UUID, req transport.RescheduleRequest) ([]transport.HistoryResponse, error) {
	svc, err := s.repo.GetService(ctx, serviceID, domain.OwnerKind(req.OwnerKind))
	if err != nil {
		return nil, err
	}

	err = s.repo.AdvanceSchedule(ctx, repository.AdvanceParams{
		Service:     svc,
		TriggeredBy: domain.TriggerManual,
		Next: domain.Occurrence{
			NextStartDate:      *req.NextStartDate,
			NextDueDate:        req.NextDueDate,
			TargetDeliveryDate: req.TargetDeliveryDate,
		},
	})
	if err != nil {
		return nil, err
	}
	return s.ListHistory(ctx, serviceID)
}

// ListHistory returns a service's reschedule history.
func (s *Service) ListHistory(ctx context.Context, serviceID uuid.UUID) ([]transport.HistoryResponse, error) {
	history, err := s.repo.ListHistory(ctx, serviceID)
	if err != nil {
		return nil, err
	}
	resp := make([]transport.HistoryResponse, 0, len(history))
	for _, h := range history {
		resp = append(resp, toHistoryResponse(h))
	}
	return resp, nil
}
