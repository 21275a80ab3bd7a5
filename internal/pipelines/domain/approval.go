package domain

import (
	"fmt"
)

// UnmetField describes one approval field that failed evaluation.
type UnmetField struct {
	FieldID string `json:"fieldId"`
	Label   string `json:"label"`
	Reason  string `json:"reason"`
}

// ApprovalResult is the outcome of evaluating a stage approval.
type ApprovalResult struct {
	Passed bool
	Unmet  []UnmetField
}

// EvaluateApproval checks whether the given responses satisfy every
// visible field of the approval. It is pure: it never writes, and a
// missing response for a required field is always unmet regardless of
// type. Fields hidden by conditional logic are skipped, not unmet.
//
// The returned error is reserved for configuration that should have been
// rejected at the boundary (e.g. an unknown comparison type); it is an
// implementation fault, not a soft evaluation failure.
func EvaluateApproval(approval StageApproval, responses map[string]FieldResponse, priorAnswers AnswerSet) (ApprovalResult, error) {
	result := ApprovalResult{Passed: true}

	for _, field := range approval.Fields {
		if !field.Logic.Visible(priorAnswers) {
			continue
		}

		response, answered := responses[field.ID.String()]
		if !answered || response.IsEmpty() {
			if field.Required {
				result.fail(field, "no answer provided")
			}
			continue
		}

		met, reason, err := fieldSatisfied(field, response)
		if err != nil {
			return ApprovalResult{}, err
		}
		if !met {
			result.fail(field, reason)
		}
	}

	return result, nil
}

func (r *ApprovalResult) fail(field StageApprovalField, reason string) {
	r.Passed = false
	r.Unmet = append(r.Unmet, UnmetField{
		FieldID: field.ID.String(),
		Label:   field.Label,
		Reason:  reason,
	})
}

func fieldSatisfied(field StageApprovalField, response FieldResponse) (bool, string, error) {
	switch field.Type {
	case FieldBoolean:
		return booleanSatisfied(field, response)
	case FieldNumber:
		return numberSatisfied(field, response)
	case FieldShortText, FieldLongText:
		// Presence-only: any non-empty text passes. Long-text fields may
		// not carry a value contract at all.
		if response.Text == nil || *response.Text == "" {
			return false, "no text provided", nil
		}
		return true, "", nil
	case FieldSingleSelect:
		return singleSelectSatisfied(field, response)
	case FieldMultiSelect:
		return multiSelectSatisfied(field, response)
	case FieldDate:
		return dateSatisfied(field, response)
	default:
		return false, "", fmt.Errorf("unknown approval field type %q", field.Type)
	}
}

func booleanSatisfied(field StageApprovalField, response FieldResponse) (bool, string, error) {
	expected, ok := field.Expected.(ExpectedBoolean)
	if !ok {
		return false, "", fmt.Errorf("boolean field %s has no expected value", field.ID)
	}
	if response.Boolean == nil {
		return false, "no answer provided", nil
	}
	if *response.Boolean != expected.Value {
		return false, fmt.Sprintf("expected %t", expected.Value), nil
	}
	return true, "", nil
}

func numberSatisfied(field StageApprovalField, response FieldResponse) (bool, string, error) {
	expected, ok := field.Expected.(ExpectedNumber)
	if !ok {
		return false, "", fmt.Errorf("number field %s has no expected value", field.ID)
	}
	if response.Number == nil {
		return false, "no answer provided", nil
	}

	value := *response.Number
	switch expected.Comparison {
	case CompareEqualTo:
		if value == expected.Value {
			return true, "", nil
		}
		return false, fmt.Sprintf("expected a value equal to %v", expected.Value), nil
	case CompareLessThan:
		if value < expected.Value {
			return true, "", nil
		}
		return false, fmt.Sprintf("expected a value less than %v", expected.Value), nil
	case CompareGreaterThan:
		if value > expected.Value {
			return true, "", nil
		}
		return false, fmt.Sprintf("expected a value greater than %v", expected.Value), nil
	default:
		return false, "", fmt.Errorf("unknown comparison type %q on field %s", expected.Comparison, field.ID)
	}
}

func singleSelectSatisfied(field StageApprovalField, response FieldResponse) (bool, string, error) {
	if len(response.Selections) == 0 {
		return false, "no option selected", nil
	}

	expected, ok := field.Expected.(ExpectedSelection)
	if !ok {
		// No contract configured: any selection satisfies the field.
		return true, "", nil
	}
	if len(response.Selections) != 1 {
		return false, "exactly one option expected", nil
	}
	for _, want := range expected.Values {
		if response.Selections[0] == want {
			return true, "", nil
		}
	}
	return false, "selected option does not match the expected option", nil
}

func multiSelectSatisfied(field StageApprovalField, response FieldResponse) (bool, string, error) {
	if len(response.Selections) == 0 {
		return false, "no option selected", nil
	}

	expected, ok := field.Expected.(ExpectedSelection)
	if !ok {
		return true, "", nil
	}

	selected := make(map[string]bool, len(response.Selections))
	for _, item := range response.Selections {
		selected[item] = true
	}
	for _, want := range expected.Values {
		if !selected[want] {
			return false, fmt.Sprintf("option %q not selected", want), nil
		}
	}
	return true, "", nil
}

func dateSatisfied(field StageApprovalField, response FieldResponse) (bool, string, error) {
	if response.Date == nil {
		return false, "no date provided", nil
	}

	expected, ok := field.Expected.(ExpectedDate)
	if !ok {
		return true, "", nil
	}

	// Date fields compare on the calendar day, not the instant.
	value := dateOnly(*response.Date)
	target := dateOnly(expected.Date)

	switch expected.Comparison {
	case DateOn:
		if value.Equal(target) {
			return true, "", nil
		}
		return false, "date does not match the expected date", nil
	case DateBefore:
		if value.Before(target) {
			return true, "", nil
		}
		return false, "date is not before the expected date", nil
	case DateAfter:
		if value.After(target) {
			return true, "", nil
		}
		return false, "date is not after the expected date", nil
	case DateBetween:
		if expected.DateEnd == nil {
			return false, "", fmt.Errorf("between comparison on field %s has no end date", field.ID)
		}
		end := dateOnly(*expected.DateEnd)
		if !value.Before(target) && !value.After(end) {
			return true, "", nil
		}
		return false, "date is outside the expected range", nil
	default:
		return false, "", fmt.Errorf("unknown date comparison type %q on field %s", expected.Comparison, field.ID)
	}
}
