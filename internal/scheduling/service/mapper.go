package service

import (
	"time"

	"practice_portal_backend/internal/scheduling/domain"
	"practice_portal_backend/internal/scheduling/transport"
)

func toRunResponse(run domain.RunLog) transport.RunResponse {
	resp := transport.RunResponse{
		ID:      run.ID,
		RunDate: run.RunDate.Format(time.DateOnly),
		Status:  string(run.Status),
		Counters: transport.CountersResponse{
			TotalServicesChecked: run.Counters.TotalServicesChecked,
			ServicesFoundDue:     run.Counters.ServicesFoundDue,
			ProjectsCreated:      run.Counters.ProjectsCreated,
			ServicesRescheduled:  run.Counters.ServicesRescheduled,
			CHServicesSkipped:    run.Counters.CHServicesSkipped,
			ErrorsEncountered:    run.Counters.ErrorsEncountered,
		},
		ExecutionTimeMs: run.ExecutionTimeMs,
		Summary:         run.Summary,
		ErrorDetails:    run.ErrorDetails,
		StartedAt:       run.StartedAt.Format(time.RFC3339),
	}
	if run.FinishedAt != nil {
		finished := run.FinishedAt.Format(time.RFC3339)
		resp.FinishedAt = &finished
	}
	return resp
}

func toExceptionResponse(exc domain.Exception) transport.ExceptionResponse {
	resp := transport.ExceptionResponse{
		ID:               exc.ID,
		RunID:            exc.RunID,
		ServiceID:        exc.ServiceID,
		OwnerKind:        string(exc.OwnerKind),
		ErrorType:        exc.ErrorType,
		Message:          exc.Message,
		Resolved:         exc.Resolved,
		ResolvedByUserID: exc.ResolvedByUserID,
		CreatedAt:        exc.CreatedAt.Format(time.RFC3339),
	}
	if exc.ResolvedAt != nil {
		resolved := exc.ResolvedAt.Format(time.RFC3339)
		resp.ResolvedAt = &resolved
	}
	return resp
}

func toHistoryResponse(h domain.History) transport.HistoryResponse {
	return transport.HistoryResponse{
		ID:          h.ID,
		ServiceID:   h.ServiceID,
		RunID:       h.RunID,
		ProjectID:   h.ProjectID,
		OwnerKind:   string(h.OwnerKind),
		TriggeredBy: h.TriggeredBy,
		Before:      toSnapshotResponse(h.Before),
		After:       toSnapshotResponse(h.After),
		CreatedAt:   h.CreatedAt.Format(time.RFC3339),
	}
}

func toSnapshotResponse(snap domain.ScheduleSnapshot) transport.ScheduleSnapshotResponse {
	return transport.ScheduleSnapshotResponse{
		NextStartDate:      dateString(snap.NextStartDate),
		NextDueDate:        dateString(snap.NextDueDate),
		TargetDeliveryDate: dateString(snap.TargetDeliveryDate),
	}
}

func dateString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.DateOnly)
	return &s
}
