package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// expectedValueEnvelope is the stored JSON shape of an ExpectedValue.
// Deserialization happens once at the persistence boundary; the rest of
// the engine only ever sees the strict tagged union.
type expectedValueEnvelope struct {
	Kind       string     `json:"kind"`
	Boolean    *bool      `json:"boolean,omitempty"`
	Number     *float64   `json:"number,omitempty"`
	Comparison string     `json:"comparison,omitempty"`
	Values     []string   `json:"values,omitempty"`
	Date       *time.Time `json:"date,omitempty"`
	DateEnd    *time.Time `json:"dateEnd,omitempty"`
}

// MarshalExpected encodes an ExpectedValue for storage. A nil value
// encodes as nil (SQL NULL).
func MarshalExpected(expected ExpectedValue) ([]byte, error) {
	if expected == nil {
		return nil, nil
	}

	var env expectedValueEnvelope
	switch v := expected.(type) {
	case ExpectedBoolean:
		env = expectedValueEnvelope{Kind: "boolean", Boolean: &v.Value}
	case ExpectedNumber:
		env = expectedValueEnvelope{Kind: "number", Number: &v.Value, Comparison: string(v.Comparison)}
	case ExpectedSelection:
		env = expectedValueEnvelope{Kind: "selection", Values: v.Values}
	case ExpectedDate:
		env = expectedValueEnvelope{Kind: "date", Date: &v.Date, DateEnd: v.DateEnd, Comparison: string(v.Comparison)}
	default:
		return nil, fmt.Errorf("unknown expected value kind %T", expected)
	}

	return json.Marshal(env)
}

// UnmarshalExpected decodes a stored expected value. Empty input yields
// nil (no contract).
func UnmarshalExpected(data []byte) (ExpectedValue, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var env expectedValueEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("decode expected value: %w", err)
	}

	switch env.Kind {
	case "boolean":
		if env.Boolean == nil {
			return nil, fmt.Errorf("boolean expected value missing boolean member")
		}
		return ExpectedBoolean{Value: *env.Boolean}, nil
	case "number":
		if env.Number == nil {
			return nil, fmt.Errorf("number expected value missing number member")
		}
		return ExpectedNumber{Comparison: ComparisonType(env.Comparison), Value: *env.Number}, nil
	case "selection":
		if len(env.Values) == 0 {
			return nil, fmt.Errorf("selection expected value missing values")
		}
		return ExpectedSelection{Values: env.Values}, nil
	case "date":
		if env.Date == nil {
			return nil, fmt.Errorf("date expected value missing date member")
		}
		return ExpectedDate{Comparison: DateComparisonType(env.Comparison), Date: *env.Date, DateEnd: env.DateEnd}, nil
	default:
		return nil, fmt.Errorf("unknown expected value kind %q", env.Kind)
	}
}

// MarshalLogic encodes conditional logic for storage; nil encodes as nil.
func MarshalLogic(logic *ConditionalLogic) ([]byte, error) {
	if logic == nil {
		return nil, nil
	}
	return json.Marshal(logic)
}

// UnmarshalLogic decodes stored conditional logic and validates its
// operators. Empty input yields nil (always visible).
func UnmarshalLogic(data []byte) (*ConditionalLogic, error) {
	if len(data) == 0 {
		return nil, nil
	}

	var logic ConditionalLogic
	if err := json.Unmarshal(data, &logic); err != nil {
		return nil, fmt.Errorf("decode conditional logic: %w", err)
	}
	if err := validateLogic("conditional logic", &logic); err != nil {
		return nil, err
	}
	return &logic, nil
}
