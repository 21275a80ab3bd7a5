package domain

import "strings"

// Operator is a conditional-visibility comparison.
type Operator string

const (
	OpEquals     Operator = "equals"
	OpNotEquals  Operator = "not_equals"
	OpContains   Operator = "contains"
	OpIsEmpty    Operator = "is_empty"
	OpIsNotEmpty Operator = "is_not_empty"
)

// KnownOperator reports whether the operator is supported.
func KnownOperator(op Operator) bool {
	switch op {
	case OpEquals, OpNotEquals, OpContains, OpIsEmpty, OpIsNotEmpty:
		return true
	}
	return false
}

// LogicMode combines multiple conditions.
type LogicMode string

const (
	LogicAnd LogicMode = "and"
	LogicOr  LogicMode = "or"
)

// Condition is a single show-if predicate against a prior answer.
// Value is ignored by the is_empty/is_not_empty operators.
type Condition struct {
	QuestionID string   `json:"questionId"`
	Operator   Operator `json:"operator"`
	Value      string   `json:"value,omitempty"`
}

// ConditionalLogic controls whether a field is shown. ShowIf is the
// single-condition contract; Conditions/Logic is the multi-condition
// extension, reduced with AND unless Logic says otherwise.
type ConditionalLogic struct {
	ShowIf     *Condition  `json:"showIf,omitempty"`
	Conditions []Condition `json:"conditions,omitempty"`
	Logic      LogicMode   `json:"logic,omitempty"`
}

// Answer is a prior answer consulted by conditional logic. Scalar answers
// populate Text; multi-select answers populate Values.
type Answer struct {
	Text   string
	Values []string
}

// IsEmpty reports whether the answer carries no value.
func (a Answer) IsEmpty() bool {
	if len(a.Values) > 0 {
		return false
	}
	return strings.TrimSpace(a.Text) == ""
}

// AnswerSet maps question identifiers to their answers.
type AnswerSet map[string]Answer

// Visible evaluates the conditional logic against prior answers. A nil
// logic means always visible. A condition referencing an unanswered or
// unknown question is not satisfied, so the field stays hidden.
func (l *ConditionalLogic) Visible(answers AnswerSet) bool {
	if l == nil {
		return true
	}

	if l.ShowIf != nil {
		return evalCondition(*l.ShowIf, answers)
	}

	if len(l.Conditions) == 0 {
		return true
	}

	mode := l.Logic
	if mode != LogicOr {
		mode = LogicAnd
	}

	for _, cond := range l.Conditions {
		satisfied := evalCondition(cond, answers)
		if mode == LogicAnd && !satisfied {
			return false
		}
		if mode == LogicOr && satisfied {
			return true
		}
	}

	return mode == LogicAnd
}

func evalCondition(cond Condition, answers AnswerSet) bool {
	answer, answered := answers[cond.QuestionID]
	if !answered {
		return false
	}

	switch cond.Operator {
	case OpEquals:
		return answerEquals(answer, cond.Value)
	case OpNotEquals:
		return !answerEquals(answer, cond.Value)
	case OpContains:
		return answerContains(answer, cond.Value)
	case OpIsEmpty:
		return answer.IsEmpty()
	case OpIsNotEmpty:
		return !answer.IsEmpty()
	default:
		return false
	}
}

func answerEquals(answer Answer, value string) bool {
	if len(answer.Values) == 1 {
		return answer.Values[0] == value
	}
	if len(answer.Values) > 1 {
		return false
	}
	return answer.Text == value
}

func answerContains(answer Answer, value string) bool {
	for _, item := range answer.Values {
		if item == value {
			return true
		}
	}
	if len(answer.Values) > 0 {
		return false
	}
	return answer.Text != "" && strings.Contains(answer.Text, value)
}
