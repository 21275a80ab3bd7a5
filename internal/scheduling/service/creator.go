package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	pipelinerepo "practice_portal_backend/internal/pipelines/repository"
	projectrepo "practice_portal_backend/internal/projects/repository"
	"practice_portal_backend/internal/scheduling/domain"
)

// ProjectCreator opens the project for a due service's current cycle.
type ProjectCreator interface {
	CreateScheduledProject(ctx context.Context, svc domain.RecurringService) (uuid.UUID, error)
}

// projectCreator creates projects through the projects store, resolving
// the entry stage from the pipeline configuration.
type projectCreator struct {
	projects projectrepo.Repository
	config   pipelinerepo.ConfigReader
}

// NewProjectCreator wires the scheduler to the project store.
func NewProjectCreator(projects projectrepo.Repository, config pipelinerepo.ConfigReader) ProjectCreator {
	return &projectCreator{projects: projects, config: config}
}

func (c *projectCreator) CreateScheduledProject(ctx context.Context, svc domain.RecurringService) (uuid.UUID, error) {
	pt, err := c.config.GetProjectType(ctx, svc.ProjectTypeID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("load project type %s: %w", svc.ProjectTypeID, err)
	}
	first, ok := pt.FirstStage()
	if !ok {
		return uuid.Nil, fmt.Errorf("project type %s has no stages", svc.ProjectTypeID)
	}

	serviceID := svc.ID
	project, err := c.projects.Create(ctx, projectrepo.CreateProjectParams{
		ProjectTypeID:      svc.ProjectTypeID,
		ClientID:           svc.ClientID,
		PersonID:           svc.PersonID,
		Description:        svc.Description(),
		CurrentStatus:      first.Name,
		CurrentAssigneeID:  svc.AssigneeID,
		DueDate:            svc.NextDueDate,
		TargetDeliveryDate: svc.TargetDeliveryDate,
		SourceServiceID:    &serviceID,
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("create project for service %s: %w", svc.ID, err)
	}
	return project.ID, nil
}
