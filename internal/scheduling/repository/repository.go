package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"practice_portal_backend/internal/scheduling/domain"
	"practice_portal_backend/platform/apperr"
)

const (
	serviceNotFoundMessage = "recurring service not found"
	runNotFoundMessage     = "scheduling run not found"
)

// serviceColumns is shared by the client and people service queries; the
// owner column is aliased so both shapes scan identically.
const clientServiceQuery = `
	SELECT cs.id, cs.service_id, s.project_type_id, 'client', cs.client_id, NULL::uuid,
		c.name, cs.assignee_id, s.name, cs.frequency, cs.next_start_date, cs.next_due_date,
		cs.target_delivery_date, cs.is_companies_house_connected, cs.is_active
	FROM client_services cs
	JOIN services s ON s.id = cs.service_id
	JOIN clients c ON c.id = cs.client_id`

const peopleServiceQuery = `
	SELECT ps.id, ps.service_id, s.project_type_id, 'person', NULL::uuid, ps.person_id,
		p.name, ps.assignee_id, s.name, ps.frequency, ps.next_start_date, ps.next_due_date,
		ps.target_delivery_date, ps.is_companies_house_connected, ps.is_active
	FROM people_services ps
	JOIN services s ON s.id = ps.service_id
	JOIN people p ON p.id = ps.person_id`

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new scheduling repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// ListActiveServices returns every active subscription whose parent
// client or person is not NLAC-inactive.
func (r *Repo) ListActiveServices(ctx context.Context) ([]domain.RecurringService, error) {
	query := clientServiceQuery + `
	WHERE cs.is_active AND NOT c.nlac_inactive
	UNION ALL` + peopleServiceQuery + `
	WHERE ps.is_active AND NOT p.nlac_inactive
	ORDER BY 1`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active services: %w", err)
	}
	defer rows.Close()

	var services []domain.RecurringService
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, svc)
	}
	return services, rows.Err()
}

// GetService retrieves one subscription by ID and kind.
func (r *Repo) GetService(ctx context.Context, id uuid.UUID, kind domain.OwnerKind) (domain.RecurringService, error) {
	query := clientServiceQuery + ` WHERE cs.id = $1`
	if kind == domain.OwnerPerson {
		query = peopleServiceQuery + ` WHERE ps.id = $1`
	}

	rows, err := r.pool.Query(ctx, query, id)
	if err != nil {
		return domain.RecurringService{}, fmt.Errorf("get service: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return domain.RecurringService{}, fmt.Errorf("get service: %w", err)
		}
		return domain.RecurringService{}, apperr.NotFound(serviceNotFoundMessage)
	}
	return scanService(rows)
}

func scanService(rows pgx.Rows) (domain.RecurringService, error) {
	var svc domain.RecurringService
	var kind string
	err := rows.Scan(
		&svc.ID, &svc.ServiceID, &svc.ProjectTypeID, &kind, &svc.ClientID, &svc.PersonID,
		&svc.OwnerName, &svc.AssigneeID, &svc.ServiceName, &svc.Frequency, &svc.NextStartDate,
		&svc.NextDueDate, &svc.TargetDeliveryDate, &svc.IsCompaniesHouseConnected, &svc.IsActive,
	)
	if err != nil {
		return domain.RecurringService{}, fmt.Errorf("scan service: %w", err)
	}
	svc.OwnerKind = domain.OwnerKind(kind)
	return svc, nil
}

// AdvanceSchedule writes the next cycle's dates and the history row in
// one transaction, keyed on the service row so no two workers can
// advance the same subscription concurrently.
func (r *Repo) AdvanceSchedule(ctx context.Context, params AdvanceParams) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin advance schedule: %w", err)
	}
	defer tx.Rollback(ctx)

	table := "client_services"
	if params.Service.OwnerKind == domain.OwnerPerson {
		table = "people_services"
	}

	next := params.Next
	tag, err := tx.Exec(ctx, `
		UPDATE `+table+`
		SET next_start_date = $1, next_due_date = $2, target_delivery_date = $3, updated_at = now()
		WHERE id = $4`,
		next.NextStartDate, next.NextDueDate, next.TargetDeliveryDate, params.Service.ID)
	if err != nil {
		return fmt.Errorf("advance %s schedule: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(serviceNotFoundMessage)
	}

	before, err := json.Marshal(params.Service.Snapshot())
	if err != nil {
		return fmt.Errorf("encode before snapshot: %w", err)
	}
	after, err := json.Marshal(domain.SnapshotOf(next))
	if err != nil {
		return fmt.Errorf("encode after snapshot: %w", err)
	}

	triggeredBy := params.TriggeredBy
	if triggeredBy == "" {
		triggeredBy = domain.TriggerScheduler
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO project_scheduling_history (id, service_id, run_id, project_id, owner_kind, triggered_by, before_schedule, after_schedule)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		uuid.New(), params.Service.ID, params.RunID, params.ProjectID, string(params.Service.OwnerKind), triggeredBy, before, after)
	if err != nil {
		return fmt.Errorf("insert scheduling history: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit advance schedule: %w", err)
	}
	return nil
}

// CreateRun inserts a run in running status. The partial unique index on
// running runs turns an overlapping pass into a conflict.
func (r *Repo) CreateRun(ctx context.Context, runDate time.Time) (domain.RunLog, error) {
	id := uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO scheduling_run_logs (id, run_date, status)
		VALUES ($1, $2, 'running')`, id, runDate)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.RunLog{}, apperr.Conflict("a scheduling run is already in progress")
		}
		return domain.RunLog{}, fmt.Errorf("insert run log: %w", err)
	}
	return r.GetRun(ctx, id)
}

// FinalizeRun closes a run as completed with its aggregate counts.
func (r *Repo) FinalizeRun(ctx context.Context, params RunFinalization) error {
	c := params.Counters
	_, err := r.pool.Exec(ctx, `
		UPDATE scheduling_run_logs
		SET status = 'completed',
			total_services_checked = $1, services_found_due = $2, projects_created = $3,
			services_rescheduled = $4, ch_services_skipped = $5, errors_encountered = $6,
			execution_time_ms = $7, summary = $8, finished_at = now()
		WHERE id = $9`,
		c.TotalServicesChecked, c.ServicesFoundDue, c.ProjectsCreated,
		c.ServicesRescheduled, c.CHServicesSkipped, c.ErrorsEncountered,
		params.ExecutionTimeMs, params.Summary, params.RunID)
	if err != nil {
		return fmt.Errorf("finalize run: %w", err)
	}
	return nil
}

// FailRun closes a run as failed with the fatal error details.
func (r *Repo) FailRun(ctx context.Context, runID uuid.UUID, errorDetails string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE scheduling_run_logs
		SET status = 'failed', error_details = $1, finished_at = now()
		WHERE id = $2`, errorDetails, runID)
	if err != nil {
		return fmt.Errorf("fail run: %w", err)
	}
	return nil
}

// GetRun retrieves one run log.
func (r *Repo) GetRun(ctx context.Context, runID uuid.UUID) (domain.RunLog, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, run_date, status, total_services_checked, services_found_due, projects_created,
			services_rescheduled, ch_services_skipped, errors_encountered, execution_time_ms,
			summary, error_details, started_at, finished_at
		FROM scheduling_run_logs
		WHERE id = $1`, runID)

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.RunLog{}, apperr.NotFound(runNotFoundMessage)
		}
		return domain.RunLog{}, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves run logs newest first.
func (r *Repo) ListRuns(ctx context.Context, params ListRunsParams) ([]domain.RunLog, int, error) {
	limit := params.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, run_date, status, total_services_checked, services_found_due, projects_created,
			services_rescheduled, ch_services_skipped, errors_encountered, execution_time_ms,
			summary, error_details, started_at, finished_at, COUNT(*) OVER() AS total
		FROM scheduling_run_logs
		ORDER BY started_at DESC
		LIMIT $1 OFFSET $2`, limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.RunLog
	var total int
	for rows.Next() {
		var run domain.RunLog
		c := &run.Counters
		if err := rows.Scan(
			&run.ID, &run.RunDate, &run.Status, &c.TotalServicesChecked, &c.ServicesFoundDue,
			&c.ProjectsCreated, &c.ServicesRescheduled, &c.CHServicesSkipped, &c.ErrorsEncountered,
			&run.ExecutionTimeMs, &run.Summary, &run.ErrorDetails, &run.StartedAt, &run.FinishedAt, &total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, total, rows.Err()
}

func scanRun(row pgx.Row) (domain.RunLog, error) {
	var run domain.RunLog
	c := &run.Counters
	err := row.Scan(
		&run.ID, &run.RunDate, &run.Status, &c.TotalServicesChecked, &c.ServicesFoundDue,
		&c.ProjectsCreated, &c.ServicesRescheduled, &c.CHServicesSkipped, &c.ErrorsEncountered,
		&run.ExecutionTimeMs, &run.Summary, &run.ErrorDetails, &run.StartedAt, &run.FinishedAt,
	)
	return run, err
}

// InsertException records one per-service failure.
func (r *Repo) InsertException(ctx context.Context, exc domain.Exception) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO scheduling_exceptions (id, run_id, service_id, owner_kind, error_type, message)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		exc.ID, exc.RunID, exc.ServiceID, string(exc.OwnerKind), exc.ErrorType, exc.Message)
	if err != nil {
		return fmt.Errorf("insert scheduling exception: %w", err)
	}
	return nil
}

// ListExceptions retrieves the exception queue, newest first.
func (r *Repo) ListExceptions(ctx context.Context, includeResolved bool) ([]domain.Exception, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, run_id, service_id, owner_kind, error_type, message, resolved, resolved_at, resolved_by_user_id, created_at
		FROM scheduling_exceptions
		WHERE $1 OR NOT resolved
		ORDER BY created_at DESC`, includeResolved)
	if err != nil {
		return nil, fmt.Errorf("list scheduling exceptions: %w", err)
	}
	defer rows.Close()

	var exceptions []domain.Exception
	for rows.Next() {
		var exc domain.Exception
		var kind string
		if err := rows.Scan(&exc.ID, &exc.RunID, &exc.ServiceID, &kind, &exc.ErrorType, &exc.Message, &exc.Resolved, &exc.ResolvedAt, &exc.ResolvedByUserID, &exc.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan scheduling exception: %w", err)
		}
		exc.OwnerKind = domain.OwnerKind(kind)
		exceptions = append(exceptions, exc)
	}
	return exceptions, rows.Err()
}

// ResolveException marks an exception handled.
func (r *Repo) ResolveException(ctx context.Context, id uuid.UUID, resolvedBy uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE scheduling_exceptions
		SET resolved = true, resolved_at = now(), resolved_by_user_id = $2
		WHERE id = $1 AND NOT resolved`, id, resolvedBy)
	if err != nil {
		return fmt.Errorf("resolve scheduling exception: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("unresolved scheduling exception not found")
	}
	return nil
}

// ListHistory retrieves a service's reschedule history, newest first.
func (r *Repo) ListHistory(ctx context.Context, serviceID uuid.UUID) ([]domain.History, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, service_id, run_id, project_id, owner_kind, triggered_by, before_schedule, after_schedule, created_at
		FROM project_scheduling_history
		WHERE service_id = $1
		ORDER BY created_at DESC`, serviceID)
	if err != nil {
		return nil, fmt.Errorf("list scheduling history: %w", err)
	}
	defer rows.Close()

	var history []domain.History
	for rows.Next() {
		var h domain.History
		var kind string
		var before, after []byte
		if err := rows.Scan(&h.ID, &h.ServiceID, &h.RunID, &h.ProjectID, &kind, &h.TriggeredBy, &before, &after, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan scheduling history: %w", err)
		}
		h.OwnerKind = domain.OwnerKind(kind)
		if err := json.Unmarshal(before, &h.Before); err != nil {
			return nil, fmt.Errorf("decode before snapshot: %w", err)
		}
		if err := json.Unmarshal(after, &h.After); err != nil {
			return nil, fmt.Errorf("decode after snapshot: %w", err)
		}
		history = append(history, h)
	}
	return history, rows.Err()
}
