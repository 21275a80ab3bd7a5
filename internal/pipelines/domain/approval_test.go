package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func boolPtr(v bool) *bool          { return &v }
func floatPtr(v float64) *float64   { return &v }
func strPtr(v string) *string       { return &v }
func timePtr(v time.Time) *time.Time { return &v }

func approvalWith(fields ...StageApprovalField) StageApproval {
	return StageApproval{
		ID:     uuid.New(),
		Name:   "exit check",
		Fields: fields,
	}
}

func booleanField(expected bool, required bool) StageApprovalField {
	return StageApprovalField{
		ID:       uuid.New(),
		Label:    "signed off",
		Type:     FieldBoolean,
		Required: required,
		Expected: ExpectedBoolean{Value: expected},
	}
}

func TestEvaluateApproval_BooleanTruthTable(t *testing.T) {
	tests := []struct {
		name     string
		expected bool
		response *bool
		pass     bool
	}{
		{"expect true, answered true", true, boolPtr(true), true},
		{"expect true, answered false", true, boolPtr(false), false},
		{"expect false, answered false", false, boolPtr(false), true},
		{"expect false, answered true", false, boolPtr(true), false},
		{"expect true, no answer", true, nil, false},
		{"expect false, no answer", false, nil, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			field := booleanField(tc.expected, true)
			approval := approvalWith(field)

			responses := map[string]FieldResponse{}
			if tc.response != nil {
				responses[field.ID.String()] = FieldResponse{FieldID: field.ID, Boolean: tc.response}
			}

			result, err := EvaluateApproval(approval, responses, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Passed != tc.pass {
				t.Fatalf("expected pass=%t, got %t (unmet: %v)", tc.pass, result.Passed, result.Unmet)
			}
			if !tc.pass {
				if len(result.Unmet) != 1 || result.Unmet[0].Label != "signed off" {
					t.Fatalf("expected unmet field 'signed off', got %v", result.Unmet)
				}
			}
		})
	}
}

func TestEvaluateApproval_NumberGreaterThan(t *testing.T) {
	field := StageApprovalField{
		ID:       uuid.New(),
		Label:    "hours billed",
		Type:     FieldNumber,
		Required: true,
		Expected: ExpectedNumber{Comparison: CompareGreaterThan, Value: 10},
	}
	approval := approvalWith(field)

	tests := []struct {
		name   string
		answer *float64
		pass   bool
	}{
		{"above threshold", floatPtr(11), true},
		{"at threshold", floatPtr(10), false},
		{"below threshold", floatPtr(9), false},
		{"no answer", nil, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			responses := map[string]FieldResponse{}
			if tc.answer != nil {
				responses[field.ID.String()] = FieldResponse{FieldID: field.ID, Number: tc.answer}
			}

			result, err := EvaluateApproval(approval, responses, nil)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.Passed != tc.pass {
				t.Fatalf("expected pass=%t, got %t", tc.pass, result.Passed)
			}
		})
	}
}

func TestEvaluateApproval_UnknownComparisonIsFatal(t *testing.T) {
	field := StageApprovalField{
		ID:       uuid.New(),
		Label:    "hours billed",
		Type:     FieldNumber,
		Required: true,
		Expected: ExpectedNumber{Comparison: "approximately", Value: 10},
	}
	approval := approvalWith(field)
	responses := map[string]FieldResponse{
		field.ID.String(): {FieldID: field.ID, Number: floatPtr(10)},
	}

	if _, err := EvaluateApproval(approval, responses, nil); err == nil {
		t.Fatal("expected an error for an unknown comparison type")
	}
}

func TestEvaluateApproval_LongTextPresenceOnly(t *testing.T) {
	field := StageApprovalField{
		ID:       uuid.New(),
		Label:    "review notes",
		Type:     FieldLongText,
		Required: true,
	}
	approval := approvalWith(field)

	result, err := EvaluateApproval(approval, map[string]FieldResponse{
		field.ID.String(): {FieldID: field.ID, Text: strPtr("reviewed the accounts")},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Passed {
		t.Fatalf("expected non-empty text to pass, got unmet %v", result.Unmet)
	}

	result, err = EvaluateApproval(approval, map[string]FieldResponse{
		field.ID.String(): {FieldID: field.ID, Text: strPtr("")},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Passed {
		t.Fatal("expected empty text to be unmet")
	}
}

func TestEvaluateApproval_MultiSelectExpectedSubset(t *testing.T) {
	field := StageApprovalField{
		ID:       uuid.New(),
		Label:    "checks performed",
		Type:     FieldMultiSelect,
		Required: true,
		Options:  []string{"vat", "paye", "accounts"},
		Expected: ExpectedSelection{Values: []string{"vat", "accounts"}},
	}
	approval := approvalWith(field)

	result, err := EvaluateApproval(approval, map[string]FieldResponse{
		field.ID.String(): {FieldID: field.ID, Selections: []string{"accounts", "vat", "paye"}},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Passed {
		t.Fatalf("expected superset selection to pass, got %v", result.Unmet)
	}

	result, err = EvaluateApproval(approval, map[string]FieldResponse{
		field.ID.String(): {FieldID: field.ID, Selections: []string{"vat"}},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Passed {
		t.Fatal("expected missing expected option to be unmet")
	}
}

func TestEvaluateApproval_SelectWithoutContractPassesOnPresence(t *testing.T) {
	field := StageApprovalField{
		ID:       uuid.New(),
		Label:    "handled by",
		Type:     FieldSingleSelect,
		Required: true,
		Options:  []string{"partner", "manager"},
	}
	approval := approvalWith(field)

	result, err := EvaluateApproval(approval, map[string]FieldResponse{
		field.ID.String(): {FieldID: field.ID, Selections: []string{"manager"}},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Passed {
		t.Fatalf("expected any selection to pass without a contract, got %v", result.Unmet)
	}
}

func TestEvaluateApproval_DateBetween(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC)
	field := StageApprovalField{
		ID:       uuid.New(),
		Label:    "filing date",
		Type:     FieldDate,
		Required: true,
		Expected: ExpectedDate{Comparison: DateBetween, Date: start, DateEnd: &end},
	}
	approval := approvalWith(field)

	inside := time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)
	result, err := EvaluateApproval(approval, map[string]FieldResponse{
		field.ID.String(): {FieldID: field.ID, Date: timePtr(inside)},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Passed {
		t.Fatalf("expected in-range date to pass, got %v", result.Unmet)
	}

	outside := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	result, err = EvaluateApproval(approval, map[string]FieldResponse{
		field.ID.String(): {FieldID: field.ID, Date: timePtr(outside)},
	}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Passed {
		t.Fatal("expected out-of-range date to be unmet")
	}
}

func TestEvaluateApproval_HiddenFieldSkipped(t *testing.T) {
	hidden := booleanField(true, true)
	hidden.Logic = &ConditionalLogic{
		ShowIf: &Condition{QuestionID: "needs-review", Operator: OpEquals, Value: "yes"},
	}
	approval := approvalWith(hidden)

	// The controlling question was answered "no", so the field is hidden
	// and its missing answer must not block the approval.
	result, err := EvaluateApproval(approval, map[string]FieldResponse{}, AnswerSet{
		"needs-review": {Text: "no"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Passed {
		t.Fatalf("expected hidden field to be skipped, got %v", result.Unmet)
	}
}

func TestEvaluateApproval_OptionalFieldMayBeUnanswered(t *testing.T) {
	field := booleanField(true, false)
	approval := approvalWith(field)

	result, err := EvaluateApproval(approval, map[string]FieldResponse{}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.Passed {
		t.Fatalf("expected optional unanswered field to pass, got %v", result.Unmet)
	}
}
