package domain

import (
	"fmt"
	"time"
)

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ValidateField enforces the expected-value exclusivity contract at the
// configuration boundary: exactly one value-kind is legal per field type,
// and long_text fields may carry none. Stored configuration is validated
// through here once when deserialized; the evaluator may then trust it.
func ValidateField(field StageApprovalField) error {
	if !KnownFieldType(field.Type) {
		return fmt.Errorf("field %q: unknown type %q", field.Label, field.Type)
	}

	switch field.Type {
	case FieldBoolean:
		if _, ok := field.Expected.(ExpectedBoolean); !ok {
			return fmt.Errorf("field %q: boolean fields require an expected boolean", field.Label)
		}
	case FieldNumber:
		expected, ok := field.Expected.(ExpectedNumber)
		if !ok {
			return fmt.Errorf("field %q: number fields require a comparison and expected number", field.Label)
		}
		switch expected.Comparison {
		case CompareEqualTo, CompareLessThan, CompareGreaterThan:
		default:
			return fmt.Errorf("field %q: unknown comparison type %q", field.Label, expected.Comparison)
		}
	case FieldSingleSelect, FieldMultiSelect:
		if len(field.Options) == 0 {
			return fmt.Errorf("field %q: select fields require a non-empty options list", field.Label)
		}
		if field.Expected != nil {
			expected, ok := field.Expected.(ExpectedSelection)
			if !ok {
				return fmt.Errorf("field %q: select fields may only carry expected options", field.Label)
			}
			if len(expected.Values) == 0 {
				return fmt.Errorf("field %q: expected option set must not be empty", field.Label)
			}
			configured := make(map[string]bool, len(field.Options))
			for _, opt := range field.Options {
				configured[opt] = true
			}
			for _, want := range expected.Values {
				if !configured[want] {
					return fmt.Errorf("field %q: expected option %q is not a configured option", field.Label, want)
				}
			}
			if field.Type == FieldSingleSelect && len(expected.Values) != 1 {
				return fmt.Errorf("field %q: single select fields expect exactly one option", field.Label)
			}
		}
	case FieldDate:
		if field.Expected != nil {
			expected, ok := field.Expected.(ExpectedDate)
			if !ok {
				return fmt.Errorf("field %q: date fields may only carry a date contract", field.Label)
			}
			switch expected.Comparison {
			case DateOn, DateBefore, DateAfter:
				if expected.DateEnd != nil {
					return fmt.Errorf("field %q: end date is only valid for the between comparison", field.Label)
				}
			case DateBetween:
				if expected.DateEnd == nil {
					return fmt.Errorf("field %q: between comparison requires an end date", field.Label)
				}
				if expected.DateEnd.Before(expected.Date) {
					return fmt.Errorf("field %q: end date precedes start date", field.Label)
				}
			default:
				return fmt.Errorf("field %q: unknown date comparison type %q", field.Label, expected.Comparison)
			}
		}
	case FieldShortText, FieldLongText:
		if field.Expected != nil {
			return fmt.Errorf("field %q: text fields must not carry an expected value", field.Label)
		}
	}

	if field.Logic != nil {
		if err := validateLogic(field.Label, field.Logic); err != nil {
			return err
		}
	}

	return nil
}

// ValidateCustomField checks a change-reason custom field definition.
func ValidateCustomField(field ReasonCustomField) error {
	if !KnownFieldType(field.Type) {
		return fmt.Errorf("custom field %q: unknown type %q", field.Label, field.Type)
	}
	if (field.Type == FieldSingleSelect || field.Type == FieldMultiSelect) && len(field.Options) == 0 {
		return fmt.Errorf("custom field %q: select fields require a non-empty options list", field.Label)
	}
	if field.Logic != nil {
		if err := validateLogic(field.Label, field.Logic); err != nil {
			return err
		}
	}
	return nil
}

// ValidateStageOrder checks that stage sort orders are unique and dense
// (0..n-1 or 1..n) within a project type.
func ValidateStageOrder(stages []KanbanStage) error {
	if len(stages) == 0 {
		return fmt.Errorf("project type requires at least one stage")
	}

	seen := make(map[int]bool, len(stages))
	lowest := stages[0].SortOrder
	for _, stage := range stages {
		if seen[stage.SortOrder] {
			return fmt.Errorf("duplicate stage order %d", stage.SortOrder)
		}
		seen[stage.SortOrder] = true
		if stage.SortOrder < lowest {
			lowest = stage.SortOrder
		}
	}
	if lowest != 0 && lowest != 1 {
		return fmt.Errorf("stage order must start at 0 or 1, got %d", lowest)
	}
	for i := 0; i < len(stages); i++ {
		if !seen[lowest+i] {
			return fmt.Errorf("stage order is not dense: missing %d", lowest+i)
		}
	}
	return nil
}

func validateLogic(label string, logic *ConditionalLogic) error {
	if logic.ShowIf != nil {
		if err := validateCondition(label, *logic.ShowIf); err != nil {
			return err
		}
	}
	for _, cond := range logic.Conditions {
		if err := validateCondition(label, cond); err != nil {
			return err
		}
	}
	if logic.Logic != "" && logic.Logic != LogicAnd && logic.Logic != LogicOr {
		return fmt.Errorf("field %q: unknown logic mode %q", label, logic.Logic)
	}
	return nil
}

func validateCondition(label string, cond Condition) error {
	if cond.QuestionID == "" {
		return fmt.Errorf("field %q: condition requires a question id", label)
	}
	if !KnownOperator(cond.Operator) {
		return fmt.Errorf("field %q: unknown operator %q", label, cond.Operator)
	}
	return nil
}
