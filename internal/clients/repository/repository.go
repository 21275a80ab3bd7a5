package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"practice_portal_backend/internal/clients/domain"
	"practice_portal_backend/platform/apperr"
)

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new clients repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

func (r *Repo) CreateClient(ctx context.Context, name string) (domain.Client, error) {
	id := uuid.New()
	_, err := r.pool.Exec(ctx, `INSERT INTO clients (id, name) VALUES ($1, $2)`, id, name)
	if err != nil {
		return domain.Client{}, fmt.Errorf("insert client: %w", err)
	}
	return r.GetClient(ctx, id)
}

func (r *Repo) GetClient(ctx context.Context, id uuid.UUID) (domain.Client, error) {
	var c domain.Client
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, nlac_inactive, created_at
		FROM clients
		WHERE id = $1`, id).Scan(&c.ID, &c.Name, &c.NLACInactive, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Client{}, apperr.NotFound("client not found")
		}
		return domain.Client{}, fmt.Errorf("get client: %w", err)
	}
	return c, nil
}

func (r *Repo) ListClients(ctx context.Context, includeInactive bool) ([]domain.Client, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, nlac_inactive, created_at
		FROM clients
		WHERE $1 OR NOT nlac_inactive
		ORDER BY name`, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	var clients []domain.Client
	for rows.Next() {
		var c domain.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.NLACInactive, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

func (r *Repo) CreatePerson(ctx context.Context, name string) (domain.Person, error) {
	id := uuid.New()
	_, err := r.pool.Exec(ctx, `INSERT INTO people (id, name) VALUES ($1, $2)`, id, name)
	if err != nil {
		return domain.Person{}, fmt.Errorf("insert person: %w", err)
	}
	return r.GetPerson(ctx, id)
}

func (r *Repo) GetPerson(ctx context.Context, id uuid.UUID) (domain.Person, error) {
	var p domain.Person
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, nlac_inactive, created_at
		FROM people
		WHERE id = $1`, id).Scan(&p.ID, &p.Name, &p.NLACInactive, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Person{}, apperr.NotFound("person not found")
		}
		return domain.Person{}, fmt.Errorf("get person: %w", err)
	}
	return p, nil
}

func (r *Repo) ListPeople(ctx context.Context, includeInactive bool) ([]domain.Person, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, nlac_inactive, created_at
		FROM people
		WHERE $1 OR NOT nlac_inactive
		ORDER BY name`, includeInactive)
	if err != nil {
		return nil, fmt.Errorf("list people: %w", err)
	}
	defer rows.Close()

	var people []domain.Person
	for rows.Next() {
		var p domain.Person
		if err := rows.Scan(&p.ID, &p.Name, &p.NLACInactive, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		people = append(people, p)
	}
	return people, rows.Err()
}

func (r *Repo) SubscribeClientService(ctx context.Context, params SubscribeParams) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO client_services (id, client_id, service_id, assignee_id, frequency,
			next_start_date, next_due_date, target_delivery_date, is_companies_house_connected)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id, params.OwnerID, params.ServiceID, params.AssigneeID, params.Frequency,
		params.NextStartDate, params.NextDueDate, params.TargetDeliveryDate, params.IsCompaniesHouseConnected)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert client service: %w", err)
	}
	return id, nil
}

func (r *Repo) SubscribePersonService(ctx context.Context, params SubscribeParams) (uuid.UUID, error) {
	id := uuid.New()
	_, err := r.pool.Exec(ctx, `
		INSERT INTO people_services (id, person_id, service_id, assignee_id, frequency,
			next_start_date, next_due_date, target_delivery_date, is_companies_house_connected)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		id, params.OwnerID, params.ServiceID, params.AssigneeID, params.Frequency,
		params.NextStartDate, params.NextDueDate, params.TargetDeliveryDate, params.IsCompaniesHouseConnected)
	if err != nil {
		return uuid.Nil, fmt.Errorf("insert person service: %w", err)
	}
	return id, nil
}

func (r *Repo) MarkClientNLAC(ctx context.Context, id uuid.UUID, benchReason string) (domain.NLACResult, error) {
	return r.markNLAC(ctx, id, benchReason, "clients", "client_services", "client_id")
}

func (r *Repo) MarkPersonNLAC(ctx context.Context, id uuid.UUID, benchReason string) (domain.NLACResult, error) {
	return r.markNLAC(ctx, id, benchReason, "people", "people_services", "person_id")
}

func (r *Repo) markNLAC(ctx context.Context, id uuid.UUID, benchReason, ownerTable, serviceTable, ownerColumn string) (domain.NLACResult, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.NLACResult{}, fmt.Errorf("begin nlac cascade: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE `+ownerTable+`
		SET nlac_inactive = true
		WHERE id = $1 AND NOT nlac_inactive`, id)
	if err != nil {
		return domain.NLACResult{}, fmt.Errorf("flag %s nlac: %w", ownerTable, err)
	}
	if tag.RowsAffected() == 0 {
		var alreadyInactive bool
		err := tx.QueryRow(ctx, `SELECT nlac_inactive FROM `+ownerTable+` WHERE id = $1`, id).Scan(&alreadyInactive)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.NLACResult{}, apperr.NotFound("owner not found")
		}
		if err != nil {
			return domain.NLACResult{}, fmt.Errorf("check %s exists: %w", ownerTable, err)
		}
		return domain.NLACResult{}, apperr.Conflict("owner is already NLAC")
	}

	var result domain.NLACResult

	tag, err = tx.Exec(ctx, `
		UPDATE `+serviceTable+`
		SET is_active = false, updated_at = now()
		WHERE `+ownerColumn+` = $1 AND is_active`, id)
	if err != nil {
		return domain.NLACResult{}, fmt.Errorf("deactivate %s: %w", serviceTable, err)
	}
	result.ServicesDeactivated = int(tag.RowsAffected())

	tag, err = tx.Exec(ctx, `
		UPDATE projects
		SET is_benched = true, bench_reason = $2, updated_at = now()
		WHERE `+ownerColumn+` = $1 AND NOT is_completed AND NOT inactive AND NOT is_benched`, id, benchReason)
	if err != nil {
		return domain.NLACResult{}, fmt.Errorf("bench projects: %w", err)
	}
	result.ProjectsBenched = int(tag.RowsAffected())

	if err := tx.Commit(ctx); err != nil {
		return domain.NLACResult{}, fmt.Errorf("commit nlac cascade: %w", err)
	}
	return result, nil
}
