package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	pipelines "practice_portal_backend/internal/pipelines/domain"
)

func boolPtr(v bool) *bool    { return &v }
func strPtr(v string) *string { return &v }

func fixtureProjectType() pipelines.ProjectType {
	typeID := uuid.New()
	intake := pipelines.KanbanStage{ID: uuid.New(), ProjectTypeID: typeID, Name: "Intake", SortOrder: 0}
	work := pipelines.KanbanStage{ID: uuid.New(), ProjectTypeID: typeID, Name: "In Progress", SortOrder: 1}
	done := pipelines.KanbanStage{ID: uuid.New(), ProjectTypeID: typeID, Name: "Done", SortOrder: 2, CanBeFinalStage: true}

	startWork := pipelines.ChangeReason{
		ID:            uuid.New(),
		ProjectTypeID: typeID,
		Label:         "Work started",
		FromStageIDs:  []uuid.UUID{intake.ID},
	}
	finish := pipelines.ChangeReason{
		ID:            uuid.New(),
		ProjectTypeID: typeID,
		Label:         "Work delivered",
		FromStageIDs:  []uuid.UUID{work.ID},
	}

	return pipelines.ProjectType{
		ID:      typeID,
		Name:    "Year End Accounts",
		Stages:  []pipelines.KanbanStage{intake, work, done},
		Reasons: []pipelines.ChangeReason{startWork, finish},
	}
}

func TestPlanTransition_HappyPath(t *testing.T) {
	pt := fixtureProjectType()
	project := Project{ID: uuid.New(), ProjectTypeID: pt.ID, CurrentStatus: "Intake"}

	plan, err := PlanTransition(pt, project, pt.Stages[1].ID, pt.Reasons[0].ID, false)
	if err != nil {
		t.Fatalf("PlanTransition: %v", err)
	}
	if plan.From.Name != "Intake" || plan.To.Name != "In Progress" {
		t.Fatalf("unexpected plan: from %q to %q", plan.From.Name, plan.To.Name)
	}
	if plan.MarkCompleted {
		t.Fatal("non-final transition must not mark completed")
	}
}

func TestPlanTransition_TargetOutsideType(t *testing.T) {
	pt := fixtureProjectType()
	project := Project{CurrentStatus: "Intake"}

	_, err := PlanTransition(pt, project, uuid.New(), pt.Reasons[0].ID, false)
	var invalid *InvalidStageError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidStageError, got %v", err)
	}
}

func TestPlanTransition_DanglingCurrentStatus(t *testing.T) {
	pt := fixtureProjectType()
	project := Project{CurrentStatus: "Renamed Stage"}

	_, err := PlanTransition(pt, project, pt.Stages[1].ID, pt.Reasons[0].ID, false)
	var invalid *InvalidStageError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidStageError for dangling status, got %v", err)
	}
	if invalid.Stage != "Renamed Stage" {
		t.Fatalf("error should name the dangling stage, got %q", invalid.Stage)
	}
}

func TestPlanTransition_ReasonNotMappedToCurrentStage(t *testing.T) {
	pt := fixtureProjectType()
	project := Project{CurrentStatus: "In Progress"}

	// startWork exits Intake only; the project already moved on.
	_, err := PlanTransition(pt, project, pt.Stages[2].ID, pt.Reasons[0].ID, false)
	var notAllowed *ReasonNotAllowedError
	if !errors.As(err, &notAllowed) {
		t.Fatalf("expected ReasonNotAllowedError, got %v", err)
	}
	if notAllowed.FromStatus != "In Progress" {
		t.Fatalf("error should name the current stage, got %q", notAllowed.FromStatus)
	}
}

func TestPlanTransition_RepeatAfterMoveRejected(t *testing.T) {
	pt := fixtureProjectType()
	project := Project{CurrentStatus: "Intake"}

	plan, err := PlanTransition(pt, project, pt.Stages[1].ID, pt.Reasons[0].ID, false)
	if err != nil {
		t.Fatalf("first transition: %v", err)
	}
	project.CurrentStatus = plan.To.Name

	// Replaying the identical request against the moved project must be
	// rejected, never applied a second time.
	_, err = PlanTransition(pt, project, pt.Stages[1].ID, pt.Reasons[0].ID, false)
	var notAllowed *ReasonNotAllowedError
	if !errors.As(err, &notAllowed) {
		t.Fatalf("expected ReasonNotAllowedError on replay, got %v", err)
	}
}

func TestPlanTransition_CompletionOnlyOnFinalStage(t *testing.T) {
	pt := fixtureProjectType()

	plan, err := PlanTransition(pt, Project{CurrentStatus: "In Progress"}, pt.Stages[2].ID, pt.Reasons[1].ID, true)
	if err != nil {
		t.Fatalf("PlanTransition: %v", err)
	}
	if !plan.MarkCompleted {
		t.Fatal("final stage with complete flag must mark completed")
	}

	plan, err = PlanTransition(pt, Project{CurrentStatus: "Intake"}, pt.Stages[1].ID, pt.Reasons[0].ID, true)
	if err != nil {
		t.Fatalf("PlanTransition: %v", err)
	}
	if plan.MarkCompleted {
		t.Fatal("complete flag must be ignored for non-final stages")
	}
}

func TestValidateCustomAnswers(t *testing.T) {
	noteField := pipelines.ReasonCustomField{
		ID:       uuid.New(),
		Label:    "Handover notes",
		Type:     pipelines.FieldShortText,
		Required: true,
	}
	optionalField := pipelines.ReasonCustomField{
		ID:    uuid.New(),
		Label: "Reference",
		Type:  pipelines.FieldShortText,
	}
	reason := pipelines.ChangeReason{
		ID:           uuid.New(),
		CustomFields: []pipelines.ReasonCustomField{noteField, optionalField},
	}

	err := ValidateCustomAnswers(reason, map[string]pipelines.FieldResponse{
		noteField.ID.String(): {Text: strPtr("client informed")},
	})
	if err != nil {
		t.Fatalf("answered required field should pass: %v", err)
	}

	err = ValidateCustomAnswers(reason, nil)
	var missing *RequiredFieldMissingError
	if !errors.As(err, &missing) {
		t.Fatalf("expected RequiredFieldMissingError, got %v", err)
	}
	if missing.Label != "Handover notes" {
		t.Fatalf("error should name the field, got %q", missing.Label)
	}
}

func TestValidateCustomAnswers_TypeMismatch(t *testing.T) {
	numberField := pipelines.ReasonCustomField{
		ID:       uuid.New(),
		Label:    "Fee adjustment",
		Type:     pipelines.FieldNumber,
		Required: true,
	}
	reason := pipelines.ChangeReason{CustomFields: []pipelines.ReasonCustomField{numberField}}

	err := ValidateCustomAnswers(reason, map[string]pipelines.FieldResponse{
		numberField.ID.String(): {Text: strPtr("not a number")},
	})
	var missing *RequiredFieldMissingError
	if !errors.As(err, &missing) {
		t.Fatalf("expected RequiredFieldMissingError for mismatched type, got %v", err)
	}
}

func TestValidateCustomAnswers_HiddenFieldSkipped(t *testing.T) {
	trigger := pipelines.ReasonCustomField{
		ID:    uuid.New(),
		Label: "Escalate",
		Type:  pipelines.FieldBoolean,
	}
	detail := pipelines.ReasonCustomField{
		ID:       uuid.New(),
		Label:    "Escalation detail",
		Type:     pipelines.FieldShortText,
		Required: true,
		Logic: &pipelines.ConditionalLogic{
			ShowIf: &pipelines.Condition{
				QuestionID: trigger.ID.String(),
				Operator:   pipelines.OpEquals,
				Value:      "true",
			},
		},
	}
	reason := pipelines.ChangeReason{CustomFields: []pipelines.ReasonCustomField{trigger, detail}}

	err := ValidateCustomAnswers(reason, map[string]pipelines.FieldResponse{
		trigger.ID.String(): {Boolean: boolPtr(false)},
	})
	if err != nil {
		t.Fatalf("hidden required field must be skipped: %v", err)
	}
}

func TestCheckApproval_UnmetBooleanBlocks(t *testing.T) {
	field := pipelines.StageApprovalField{
		ID:       uuid.New(),
		Label:    "Client signed engagement letter",
		Type:     pipelines.FieldBoolean,
		Required: true,
		Expected: pipelines.ExpectedBoolean{Value: true},
	}
	approval := pipelines.StageApproval{ID: uuid.New(), Fields: []pipelines.StageApprovalField{field}}

	err := CheckApproval(approval, map[string]pipelines.FieldResponse{
		field.ID.String(): {Boolean: boolPtr(false)},
	})
	var incomplete *ApprovalIncompleteError
	if !errors.As(err, &incomplete) {
		t.Fatalf("expected ApprovalIncompleteError, got %v", err)
	}
	if len(incomplete.Unmet) != 1 || incomplete.Unmet[0].Label != field.Label {
		t.Fatalf("error should name the unmet field: %+v", incomplete.Unmet)
	}

	err = CheckApproval(approval, map[string]pipelines.FieldResponse{
		field.ID.String(): {Boolean: boolPtr(true)},
	})
	if err != nil {
		t.Fatalf("met approval should pass: %v", err)
	}
}

func TestStageEntryTime(t *testing.T) {
	created := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	first := time.Date(2026, 3, 3, 10, 0, 0, 0, time.UTC)
	second := time.Date(2026, 3, 4, 11, 0, 0, 0, time.UTC)

	if got := StageEntryTime(nil, created); !got.Equal(created) {
		t.Fatalf("empty chronology should fall back to createdAt, got %v", got)
	}

	chronology := []ChronologyEntry{
		{FromStatus: "Intake", ToStatus: "In Progress", OccurredAt: &first},
		{FromStatus: "In Progress", ToStatus: "Review", OccurredAt: &second},
	}
	if got := StageEntryTime(chronology, created); !got.Equal(second) {
		t.Fatalf("expected newest timestamp %v, got %v", second, got)
	}

	chronology[1].OccurredAt = nil
	if got := StageEntryTime(chronology, created); !got.Equal(first) {
		t.Fatalf("entries without timestamps must be skipped, got %v", got)
	}

	chronology[0].OccurredAt = nil
	if got := StageEntryTime(chronology, created); !got.Equal(created) {
		t.Fatalf("all-null timestamps should fall back to createdAt, got %v", got)
	}
}

func TestTotalHoursInStatus(t *testing.T) {
	chronology := []ChronologyEntry{
		{FromStatus: "Review", ToStatus: "In Progress", BusinessHours: 4},
		{FromStatus: "In Progress", ToStatus: "Review", BusinessHours: 12},
		{FromStatus: "Review", ToStatus: "Done", BusinessHours: 3.5},
	}

	if got := TotalHoursInStatus(chronology, "Review", 2); got != 9.5 {
		t.Fatalf("expected 9.5 total hours, got %v", got)
	}
	if got := TotalHoursInStatus(chronology, "Intake", 0); got != 0 {
		t.Fatalf("expected 0 hours for unvisited stage, got %v", got)
	}
}
