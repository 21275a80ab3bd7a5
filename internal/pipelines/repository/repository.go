package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"practice_portal_backend/internal/pipelines/domain"
	"practice_portal_backend/platform/apperr"
)

const (
	projectTypeNotFoundMessage   = "project type not found"
	stageApprovalNotFoundMessage = "stage approval not found"
)

// Repo implements the Repository interface with PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new pipeline configuration repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

// Compile-time check that Repo implements Repository.
var _ Repository = (*Repo)(nil)

// GetProjectType retrieves a project type with its stages, change reasons
// and connected service.
func (r *Repo) GetProjectType(ctx context.Context, id uuid.UUID) (domain.ProjectType, error) {
	query := `
		SELECT id, name, created_at
		FROM project_types
		WHERE id = $1`

	var pt domain.ProjectType
	err := r.pool.QueryRow(ctx, query, id).Scan(&pt.ID, &pt.Name, &pt.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ProjectType{}, apperr.NotFound(projectTypeNotFoundMessage)
		}
		return domain.ProjectType{}, fmt.Errorf("get project type: %w", err)
	}

	if pt.Stages, err = r.loadStages(ctx, id); err != nil {
		return domain.ProjectType{}, err
	}
	if pt.Reasons, err = r.loadReasons(ctx, id); err != nil {
		return domain.ProjectType{}, err
	}
	if pt.Service, err = r.loadService(ctx, id); err != nil {
		return domain.ProjectType{}, err
	}

	return pt, nil
}

// ListProjectTypes retrieves all project types with their stages.
func (r *Repo) ListProjectTypes(ctx context.Context) ([]domain.ProjectType, error) {
	query := `
		SELECT id, name, created_at
		FROM project_types
		ORDER BY name ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list project types: %w", err)
	}
	defer rows.Close()

	var types []domain.ProjectType
	for rows.Next() {
		var pt domain.ProjectType
		if err := rows.Scan(&pt.ID, &pt.Name, &pt.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan project type: %w", err)
		}
		types = append(types, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate project types: %w", err)
	}

	for i := range types {
		if types[i].Stages, err = r.loadStages(ctx, types[i].ID); err != nil {
			return nil, err
		}
	}

	return types, nil
}

func (r *Repo) loadStages(ctx context.Context, projectTypeID uuid.UUID) ([]domain.KanbanStage, error) {
	query := `
		SELECT id, project_type_id, name, sort_order, max_instance_time, max_total_time, stage_approval_id, can_be_final_stage
		FROM kanban_stages
		WHERE project_type_id = $1
		ORDER BY sort_order ASC`

	rows, err := r.pool.Query(ctx, query, projectTypeID)
	if err != nil {
		return nil, fmt.Errorf("load stages: %w", err)
	}
	defer rows.Close()

	var stages []domain.KanbanStage
	for rows.Next() {
		var s domain.KanbanStage
		if err := rows.Scan(&s.ID, &s.ProjectTypeID, &s.Name, &s.SortOrder, &s.MaxInstanceTime, &s.MaxTotalTime, &s.StageApprovalID, &s.CanBeFinalStage); err != nil {
			return nil, fmt.Errorf("scan stage: %w", err)
		}
		stages = append(stages, s)
	}
	return stages, rows.Err()
}

func (r *Repo) loadReasons(ctx context.Context, projectTypeID uuid.UUID) ([]domain.ChangeReason, error) {
	query := `
		SELECT id, project_type_id, label, stage_approval_id
		FROM change_reasons
		WHERE project_type_id = $1
		ORDER BY label ASC`

	rows, err := r.pool.Query(ctx, query, projectTypeID)
	if err != nil {
		return nil, fmt.Errorf("load change reasons: %w", err)
	}
	defer rows.Close()

	var reasons []domain.ChangeReason
	for rows.Next() {
		var cr domain.ChangeReason
		if err := rows.Scan(&cr.ID, &cr.ProjectTypeID, &cr.Label, &cr.StageApprovalID); err != nil {
			return nil, fmt.Errorf("scan change reason: %w", err)
		}
		reasons = append(reasons, cr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate change reasons: %w", err)
	}

	for i := range reasons {
		if reasons[i].FromStageIDs, err = r.loadReasonStages(ctx, reasons[i].ID); err != nil {
			return nil, err
		}
		if reasons[i].CustomFields, err = r.loadReasonFields(ctx, reasons[i].ID); err != nil {
			return nil, err
		}
	}

	return reasons, nil
}

func (r *Repo) loadReasonStages(ctx context.Context, reasonID uuid.UUID) ([]uuid.UUID, error) {
	query := `
		SELECT stage_id
		FROM stage_reason_maps
		WHERE reason_id = $1`

	rows, err := r.pool.Query(ctx, query, reasonID)
	if err != nil {
		return nil, fmt.Errorf("load reason stage map: %w", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan reason stage: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *Repo) loadReasonFields(ctx context.Context, reasonID uuid.UUID) ([]domain.ReasonCustomField, error) {
	query := `
		SELECT id, reason_id, label, field_type, is_required, options, logic, sort_order
		FROM reason_custom_fields
		WHERE reason_id = $1
		ORDER BY sort_order ASC`

	rows, err := r.pool.Query(ctx, query, reasonID)
	if err != nil {
		return nil, fmt.Errorf("load reason custom fields: %w", err)
	}
	defer rows.Close()

	var fields []domain.ReasonCustomField
	for rows.Next() {
		var f domain.ReasonCustomField
		var logicRaw []byte
		if err := rows.Scan(&f.ID, &f.ReasonID, &f.Label, &f.Type, &f.Required, &f.Options, &logicRaw, &f.SortOrder); err != nil {
			return nil, fmt.Errorf("scan reason custom field: %w", err)
		}
		if f.Logic, err = domain.UnmarshalLogic(logicRaw); err != nil {
			return nil, fmt.Errorf("decode custom field logic %s: %w", f.ID, err)
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

func (r *Repo) loadService(ctx context.Context, projectTypeID uuid.UUID) (*domain.Service, error) {
	query := `
		SELECT id, project_type_id, name
		FROM services
		WHERE project_type_id = $1`

	var svc domain.Service
	err := r.pool.QueryRow(ctx, query, projectTypeID).Scan(&svc.ID, &svc.ProjectTypeID, &svc.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("load connected service: %w", err)
	}
	return &svc, nil
}

// GetStageApproval retrieves a stage approval with its ordered field set.
// Expected value contracts and conditional logic are decoded and checked
// here so the evaluator only ever sees valid configuration.
func (r *Repo) GetStageApproval(ctx context.Context, id uuid.UUID) (domain.StageApproval, error) {
	query := `
		SELECT id, project_type_id, name
		FROM stage_approvals
		WHERE id = $1`

	var sa domain.StageApproval
	err := r.pool.QueryRow(ctx, query, id).Scan(&sa.ID, &sa.ProjectTypeID, &sa.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.StageApproval{}, apperr.NotFound(stageApprovalNotFoundMessage)
		}
		return domain.StageApproval{}, fmt.Errorf("get stage approval: %w", err)
	}

	if sa.Fields, err = r.loadApprovalFields(ctx, id); err != nil {
		return domain.StageApproval{}, err
	}

	return sa, nil
}

func (r *Repo) loadApprovalFields(ctx context.Context, approvalID uuid.UUID) ([]domain.StageApprovalField, error) {
	query := `
		SELECT id, approval_id, label, field_type, is_required, options, expected_value, logic, sort_order
		FROM stage_approval_fields
		WHERE approval_id = $1
		ORDER BY sort_order ASC`

	rows, err := r.pool.Query(ctx, query, approvalID)
	if err != nil {
		return nil, fmt.Errorf("load approval fields: %w", err)
	}
	defer rows.Close()

	var fields []domain.StageApprovalField
	for rows.Next() {
		var f domain.StageApprovalField
		var expectedRaw, logicRaw []byte
		if err := rows.Scan(&f.ID, &f.ApprovalID, &f.Label, &f.Type, &f.Required, &f.Options, &expectedRaw, &logicRaw, &f.SortOrder); err != nil {
			return nil, fmt.Errorf("scan approval field: %w", err)
		}
		if f.Expected, err = domain.UnmarshalExpected(expectedRaw); err != nil {
			return nil, fmt.Errorf("decode expected value for field %s: %w", f.ID, err)
		}
		if f.Logic, err = domain.UnmarshalLogic(logicRaw); err != nil {
			return nil, fmt.Errorf("decode conditional logic for field %s: %w", f.ID, err)
		}
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

// CreateProjectType inserts a project type and its stage set in one
// transaction.
func (r *Repo) CreateProjectType(ctx context.Context, params CreateProjectTypeParams) (domain.ProjectType, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.ProjectType{}, fmt.Errorf("begin create project type: %w", err)
	}
	defer tx.Rollback(ctx)

	typeID := uuid.New()
	_, err = tx.Exec(ctx, `
		INSERT INTO project_types (id, name)
		VALUES ($1, $2)`, typeID, params.Name)
	if err != nil {
		return domain.ProjectType{}, fmt.Errorf("insert project type: %w", err)
	}

	for _, st := range params.Stages {
		_, err = tx.Exec(ctx, `
			INSERT INTO kanban_stages (id, project_type_id, name, sort_order, max_instance_time, max_total_time, stage_approval_id, can_be_final_stage)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			uuid.New(), typeID, st.Name, st.SortOrder, st.MaxInstanceTime, st.MaxTotalTime, st.StageApprovalID, st.CanBeFinalStage)
		if err != nil {
			return domain.ProjectType{}, fmt.Errorf("insert stage %q: %w", st.Name, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.ProjectType{}, fmt.Errorf("commit create project type: %w", err)
	}

	return r.GetProjectType(ctx, typeID)
}

// CreateChangeReason inserts a change reason with its stage visibility map
// and custom fields.
func (r *Repo) CreateChangeReason(ctx context.Context, params CreateReasonParams) (domain.ChangeReason, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.ChangeReason{}, fmt.Errorf("begin create change reason: %w", err)
	}
	defer tx.Rollback(ctx)

	reasonID := uuid.New()
	_, err = tx.Exec(ctx, `
		INSERT INTO change_reasons (id, project_type_id, label, stage_approval_id)
		VALUES ($1, $2, $3, $4)`,
		reasonID, params.ProjectTypeID, params.Label, params.StageApprovalID)
	if err != nil {
		return domain.ChangeReason{}, fmt.Errorf("insert change reason: %w", err)
	}

	for _, stageID := range params.FromStageIDs {
		_, err = tx.Exec(ctx, `
			INSERT INTO stage_reason_maps (reason_id, stage_id)
			VALUES ($1, $2)`, reasonID, stageID)
		if err != nil {
			return domain.ChangeReason{}, fmt.Errorf("insert stage reason map: %w", err)
		}
	}

	for _, f := range params.CustomFields {
		logicRaw, err := domain.MarshalLogic(f.Logic)
		if err != nil {
			return domain.ChangeReason{}, fmt.Errorf("encode custom field logic: %w", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO reason_custom_fields (id, reason_id, label, field_type, is_required, options, logic, sort_order)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			uuid.New(), reasonID, f.Label, f.Type, f.Required, f.Options, logicRaw, f.SortOrder)
		if err != nil {
			return domain.ChangeReason{}, fmt.Errorf("insert custom field %q: %w", f.Label, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.ChangeReason{}, fmt.Errorf("commit create change reason: %w", err)
	}

	reasons, err := r.loadReasons(ctx, params.ProjectTypeID)
	if err != nil {
		return domain.ChangeReason{}, err
	}
	for _, cr := range reasons {
		if cr.ID == reasonID {
			return cr, nil
		}
	}
	return domain.ChangeReason{}, apperr.NotFound("change reason not found after insert")
}

// CreateStageApproval inserts a stage approval with its field set.
func (r *Repo) CreateStageApproval(ctx context.Context, params CreateApprovalParams) (domain.StageApproval, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.StageApproval{}, fmt.Errorf("begin create stage approval: %w", err)
	}
	defer tx.Rollback(ctx)

	approvalID := uuid.New()
	_, err = tx.Exec(ctx, `
		INSERT INTO stage_approvals (id, project_type_id, name)
		VALUES ($1, $2, $3)`, approvalID, params.ProjectTypeID, params.Name)
	if err != nil {
		return domain.StageApproval{}, fmt.Errorf("insert stage approval: %w", err)
	}

	for _, f := range params.Fields {
		expectedRaw, err := domain.MarshalExpected(f.Expected)
		if err != nil {
			return domain.StageApproval{}, fmt.Errorf("encode expected value: %w", err)
		}
		logicRaw, err := domain.MarshalLogic(f.Logic)
		if err != nil {
			return domain.StageApproval{}, fmt.Errorf("encode conditional logic: %w", err)
		}
		_, err = tx.Exec(ctx, `
			INSERT INTO stage_approval_fields (id, approval_id, label, field_type, is_required, options, expected_value, logic, sort_order)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			uuid.New(), approvalID, f.Label, f.Type, f.Required, f.Options, expectedRaw, logicRaw, f.SortOrder)
		if err != nil {
			return domain.StageApproval{}, fmt.Errorf("insert approval field %q: %w", f.Label, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.StageApproval{}, fmt.Errorf("commit create stage approval: %w", err)
	}

	return r.GetStageApproval(ctx, approvalID)
}
