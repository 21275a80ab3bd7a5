package service

import (
	"time"

	"practice_portal_backend/internal/projects/domain"
	"practice_portal_backend/internal/projects/transport"
)

func toProjectResponse(p domain.Project) transport.ProjectResponse {
	return transport.ProjectResponse{
		ID:                 p.ID,
		ProjectTypeID:      p.ProjectTypeID,
		ClientID:           p.ClientID,
		PersonID:           p.PersonID,
		Description:        p.Description,
		CurrentStatus:      p.CurrentStatus,
		CurrentAssigneeID:  p.CurrentAssigneeID,
		DueDate:            p.DueDate,
		TargetDeliveryDate: p.TargetDeliveryDate,
		Inactive:           p.Inactive,
		InactiveReason:     p.InactiveReason,
		IsBenched:          p.IsBenched,
		BenchReason:        p.BenchReason,
		IsCompleted:        p.IsCompleted,
		CompletedAt:        p.CompletedAt,
		SourceServiceID:    p.SourceServiceID,
		CreatedAt:          p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:          p.UpdatedAt.Format(time.RFC3339),
	}
}
