package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"practice_portal_backend/internal/projects/domain"
	"practice_portal_backend/platform/apperr"
)

const projectNotFoundMessage = "project not found"

const projectColumns = `id, project_type_id, client_id, person_id, description, current_status,
	current_assignee_id, due_date, target_delivery_date, inactive, inactive_reason,
	is_benched, bench_reason, is_completed, completed_at, source_service_id, created_at, updated_at`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new projects repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// Create inserts a project in its starting stage.
func (r *Repo) Create(ctx context.Context, params CreateProjectParams) (domain.Project, error) {
	id := uuid.New()
	query := `
		INSERT INTO projects (id, project_type_id, client_id, person_id, description, current_status,
			current_assignee_id, due_date, target_delivery_date, source_service_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.pool.Exec(ctx, query,
		id, params.ProjectTypeID, params.ClientID, params.PersonID, params.Description,
		params.CurrentStatus, params.CurrentAssigneeID, params.DueDate, params.TargetDeliveryDate,
		params.SourceServiceID)
	if err != nil {
		return domain.Project{}, fmt.Errorf("insert project: %w", err)
	}

	return r.GetByID(ctx, id)
}

// GetByID retrieves a project by its ID.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects WHERE id = $1`

	row := r.pool.QueryRow(ctx, query, id)
	project, err := scanProject(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Project{}, apperr.NotFound(projectNotFoundMessage)
		}
		return domain.Project{}, fmt.Errorf("get project: %w", err)
	}
	return project, nil
}

// List retrieves projects with optional type and status filters.
func (r *Repo) List(ctx context.Context, params ListParams) ([]domain.Project, int, error) {
	limit := params.Limit
	if limit < 1 || limit > 200 {
		limit = 50
	}

	query := `SELECT ` + projectColumns + `, COUNT(*) OVER() AS total
		FROM projects
		WHERE ($1::uuid IS NULL OR project_type_id = $1)
		  AND ($2 = '' OR current_status = $2)
		  AND ($3 OR NOT inactive)
		ORDER BY created_at DESC
		LIMIT $4 OFFSET $5`

	rows, err := r.pool.Query(ctx, query, params.ProjectTypeID, params.Status, params.IncludeInactive, limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	var projects []domain.Project
	var total int
	for rows.Next() {
		var p domain.Project
		if err := rows.Scan(
			&p.ID, &p.ProjectTypeID, &p.ClientID, &p.PersonID, &p.Description, &p.CurrentStatus,
			&p.CurrentAssigneeID, &p.DueDate, &p.TargetDeliveryDate, &p.Inactive, &p.InactiveReason,
			&p.IsBenched, &p.BenchReason, &p.IsCompleted, &p.CompletedAt, &p.SourceServiceID,
			&p.CreatedAt, &p.UpdatedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, total, rows.Err()
}

// Chronology retrieves a project's transition log, oldest first.
func (r *Repo) Chronology(ctx context.Context, projectID uuid.UUID) ([]domain.ChronologyEntry, error) {
	query := `
		SELECT id, project_id, from_status, to_status, change_reason_id, occurred_at, business_hours, created_at
		FROM project_chronology
		WHERE project_id = $1
		ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("load chronology: %w", err)
	}
	defer rows.Close()

	var entries []domain.ChronologyEntry
	for rows.Next() {
		var e domain.ChronologyEntry
		if err := rows.Scan(&e.ID, &e.ProjectID, &e.FromStatus, &e.ToStatus, &e.ChangeReasonID, &e.OccurredAt, &e.BusinessHours, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan chronology entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ApprovalResponses retrieves a project's stored approval answers,
// oldest first.
func (r *Repo) ApprovalResponses(ctx context.Context, projectID uuid.UUID) ([]StoredApprovalResponse, error) {
	query := `
		SELECT id, approval_id, field_id, value, answered_at
		FROM stage_approval_responses
		WHERE project_id = $1
		ORDER BY answered_at ASC`

	rows, err := r.pool.Query(ctx, query, projectID)
	if err != nil {
		return nil, fmt.Errorf("load approval responses: %w", err)
	}
	defer rows.Close()

	var responses []StoredApprovalResponse
	for rows.Next() {
		var resp StoredApprovalResponse
		if err := rows.Scan(&resp.ID, &resp.ApprovalID, &resp.FieldID, &resp.Value, &resp.AnsweredAt); err != nil {
			return nil, fmt.Errorf("scan approval response: %w", err)
		}
		responses = append(responses, resp)
	}
	return responses, rows.Err()
}

// ApplyTransition commits a validated transition. The status update,
// chronology append, and approval response writes succeed or fail
// together; a lost optimistic race rolls everything back.
func (r *Repo) ApplyTransition(ctx context.Context, params ApplyTransitionParams) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transition: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE projects
		SET current_status = $1,
			is_completed = is_completed OR $2,
			completed_at = CASE WHEN $2 AND completed_at IS NULL THEN $3 ELSE completed_at END,
			updated_at = $3
		WHERE id = $4 AND current_status = $5`,
		params.NewStatus, params.MarkCompleted, params.OccurredAt, params.ProjectID, params.ExpectedStatus)
	if err != nil {
		return fmt.Errorf("update project status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, params.ProjectID); err != nil {
			return err
		}
		return apperr.Wrap(apperr.KindConflict, "project moved since it was read",
			&domain.StaleProjectError{ProjectID: params.ProjectID, ExpectedStatus: params.ExpectedStatus})
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO project_chronology (id, project_id, from_status, to_status, change_reason_id, occurred_at, business_hours, custom_answers)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.New(), params.ProjectID, params.ExpectedStatus, params.NewStatus, params.ChangeReasonID,
		params.OccurredAt, params.BusinessHours, params.CustomAnswers)
	if err != nil {
		return fmt.Errorf("insert chronology entry: %w", err)
	}

	for _, resp := range params.Responses {
		_, err = tx.Exec(ctx, `
			INSERT INTO stage_approval_responses (id, project_id, approval_id, field_id, value, answered_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (project_id, field_id) DO UPDATE
			SET approval_id = EXCLUDED.approval_id,
				value = EXCLUDED.value,
				answered_at = EXCLUDED.answered_at`,
			uuid.New(), params.ProjectID, resp.ApprovalID, resp.FieldID, resp.Value, params.OccurredAt)
		if err != nil {
			return fmt.Errorf("insert approval response: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transition: %w", err)
	}
	return nil
}

// StatusCounts returns active project counts keyed by currentStatus.
func (r *Repo) StatusCounts(ctx context.Context, projectTypeID uuid.UUID) (map[string]int, error) {
	query := `
		SELECT current_status, COUNT(*)
		FROM projects
		WHERE project_type_id = $1 AND NOT inactive AND NOT is_completed
		GROUP BY current_status`

	rows, err := r.pool.Query(ctx, query, projectTypeID)
	if err != nil {
		return nil, fmt.Errorf("count projects by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

func scanProject(row pgx.Row) (domain.Project, error) {
	var p domain.Project
	err := row.Scan(
		&p.ID, &p.ProjectTypeID, &p.ClientID, &p.PersonID, &p.Description, &p.CurrentStatus,
		&p.CurrentAssigneeID, &p.DueDate, &p.TargetDeliveryDate, &p.Inactive, &p.InactiveReason,
		&p.IsBenched, &p.BenchReason, &p.IsCompleted, &p.CompletedAt, &p.SourceServiceID,
		&p.CreatedAt, &p.UpdatedAt,
	)
	return p, err
}
