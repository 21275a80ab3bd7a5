package domain

import (
	"fmt"
	"time"
)

// Error types recorded on scheduling exceptions.
const (
	ErrTypeMissingTargetDelivery = "missing target delivery date"
	ErrTypeMissingFrequency      = "missing frequency"
	ErrTypeInvalidFrequency      = "invalid frequency"
	ErrTypeMissingStartDate      = "missing next start date"
	ErrTypeComputation           = "computation failure"
)

// SchedulingError is a per-service configuration or computation failure.
// The run controller converts it into an exception row; it never aborts
// the pass.
type SchedulingError struct {
	Type string
	Err  error
}

func (e *SchedulingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Type, e.Err)
	}
	return e.Type
}

func (e *SchedulingError) Unwrap() error { return e.Err }

func schedulingErr(errType, format string, args ...any) *SchedulingError {
	return &SchedulingError{Type: errType, Err: fmt.Errorf(format, args...)}
}

// DecisionKind classifies the outcome of a per-service evaluation.
type DecisionKind string

const (
	// DecisionDue means a project must be created and the schedule
	// advanced by one cycle.
	DecisionDue DecisionKind = "due"
	// DecisionNotDue means the service needs nothing this pass.
	DecisionNotDue DecisionKind = "not_due"
	// DecisionCHSkipped means a Companies-House service whose
	// authoritative due date is absent was left alone. Not an error.
	DecisionCHSkipped DecisionKind = "ch_skipped"
)

// Occurrence is the next cycle's schedule for a due service.
type Occurrence struct {
	NextStartDate      time.Time
	NextDueDate        *time.Time
	TargetDeliveryDate *time.Time
}

// Decision is the full outcome of computeNextOccurrence for one service.
type Decision struct {
	Kind DecisionKind
	Next Occurrence
}

// ComputeNextOccurrence evaluates one service against the run date.
//
// A service is due when nextStartDate <= runDate. For due services the
// next cycle's dates are produced by frequency arithmetic, with one
// carve-out: a CH-connected service's due date is externally
// authoritative and is returned unchanged, and a CH service without that
// date is classified as skipped rather than failed. A non-CH service
// without a targetDeliveryDate is a configuration fault surfaced as a
// SchedulingError.
func ComputeNextOccurrence(svc RecurringService, runDate time.Time) (Decision, error) {
	if svc.IsCompaniesHouseConnected && svc.NextDueDate == nil {
		return Decision{Kind: DecisionCHSkipped}, nil
	}
	if !svc.IsCompaniesHouseConnected && svc.TargetDeliveryDate == nil {
		return Decision{}, schedulingErr(ErrTypeMissingTargetDelivery,
			"service %s has no target delivery date", svc.ID)
	}
	if svc.Frequency == "" {
		return Decision{}, schedulingErr(ErrTypeMissingFrequency, "service %s has no frequency", svc.ID)
	}
	if svc.NextStartDate == nil {
		return Decision{}, schedulingErr(ErrTypeMissingStartDate, "service %s has no next start date", svc.ID)
	}

	if svc.NextStartDate.After(runDate) {
		return Decision{Kind: DecisionNotDue}, nil
	}

	nextStart, err := svc.Frequency.Advance(*svc.NextStartDate)
	if err != nil {
		return Decision{}, &SchedulingError{Type: ErrTypeInvalidFrequency, Err: err}
	}

	next := Occurrence{NextStartDate: nextStart}

	if svc.IsCompaniesHouseConnected {
		// Externally authoritative; frequency arithmetic must not touch it.
		next.NextDueDate = svc.NextDueDate
	} else if svc.NextDueDate != nil {
		due, err := svc.Frequency.Advance(*svc.NextDueDate)
		if err != nil {
			return Decision{}, &SchedulingError{Type: ErrTypeInvalidFrequency, Err: err}
		}
		next.NextDueDate = &due
	}

	if svc.TargetDeliveryDate != nil {
		target, err := svc.Frequency.Advance(*svc.TargetDeliveryDate)
		if err != nil {
			return Decision{}, &SchedulingError{Type: ErrTypeInvalidFrequency, Err: err}
		}
		next.TargetDeliveryDate = &target
	}

	return Decision{Kind: DecisionDue, Next: next}, nil
}
