package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func datePtr(year int, month time.Month, day int) *time.Time {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return &t
}

func selfScheduled(freq Frequency) RecurringService {
	return RecurringService{
		ID:                 uuid.New(),
		ServiceName:        "VAT Return",
		OwnerName:          "Acme Ltd",
		Frequency:          freq,
		NextStartDate:      datePtr(2024, 1, 1),
		NextDueDate:        datePtr(2024, 1, 31),
		TargetDeliveryDate: datePtr(2024, 1, 20),
		IsActive:           true,
	}
}

func TestFrequencyAdvance(t *testing.T) {
	base := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		freq Frequency
		want time.Time
	}{
		{FrequencyWeekly, time.Date(2024, 1, 22, 0, 0, 0, 0, time.UTC)},
		{FrequencyMonthly, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC)},
		{FrequencyQuarterly, time.Date(2024, 4, 15, 0, 0, 0, 0, time.UTC)},
		{FrequencySixMonthly, time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC)},
		{FrequencyAnnual, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		got, err := tt.freq.Advance(base)
		if err != nil {
			t.Fatalf("%s: %v", tt.freq, err)
		}
		if !got.Equal(tt.want) {
			t.Errorf("%s: got %v, want %v", tt.freq, got, tt.want)
		}
	}

	if _, err := Frequency("fortnightly").Advance(base); err == nil {
		t.Fatal("unknown frequency must error")
	}
}

func TestComputeNextOccurrence_MonthlyCycle(t *testing.T) {
	svc := selfScheduled(FrequencyMonthly)
	runDate := time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)

	decision, err := ComputeNextOccurrence(svc, runDate)
	if err != nil {
		t.Fatalf("ComputeNextOccurrence: %v", err)
	}
	if decision.Kind != DecisionDue {
		t.Fatalf("start date on run date must be due, got %s", decision.Kind)
	}
	wantStart := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	if !decision.Next.NextStartDate.Equal(wantStart) {
		t.Errorf("next start: got %v, want %v", decision.Next.NextStartDate, wantStart)
	}
	if decision.Next.NextDueDate == nil || !decision.Next.NextDueDate.Equal(time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("next due: got %v", decision.Next.NextDueDate)
	}
	if decision.Next.TargetDeliveryDate == nil || !decision.Next.TargetDeliveryDate.Equal(time.Date(2024, 2, 20, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("next target: got %v", decision.Next.TargetDeliveryDate)
	}
}

func TestComputeNextOccurrence_NotDue(t *testing.T) {
	svc := selfScheduled(FrequencyMonthly)
	runDate := time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC)

	decision, err := ComputeNextOccurrence(svc, runDate)
	if err != nil {
		t.Fatalf("ComputeNextOccurrence: %v", err)
	}
	if decision.Kind != DecisionNotDue {
		t.Fatalf("future start date must not be due, got %s", decision.Kind)
	}
}

func TestComputeNextOccurrence_CHDueDateNeverAdvanced(t *testing.T) {
	chDue := datePtr(2024, 9, 30)
	svc := selfScheduled(FrequencyAnnual)
	svc.IsCompaniesHouseConnected = true
	svc.NextDueDate = chDue
	svc.TargetDeliveryDate = nil

	decision, err := ComputeNextOccurrence(svc, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("ComputeNextOccurrence: %v", err)
	}
	if decision.Kind != DecisionDue {
		t.Fatalf("expected due, got %s", decision.Kind)
	}
	if decision.Next.NextDueDate == nil || !decision.Next.NextDueDate.Equal(*chDue) {
		t.Fatalf("CH due date must pass through untouched, got %v", decision.Next.NextDueDate)
	}
	wantStart := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	if !decision.Next.NextStartDate.Equal(wantStart) {
		t.Errorf("self-scheduled start must still advance: got %v, want %v", decision.Next.NextStartDate, wantStart)
	}
}

func TestComputeNextOccurrence_CHMissingDateSkipped(t *testing.T) {
	svc := selfScheduled(FrequencyAnnual)
	svc.IsCompaniesHouseConnected = true
	svc.NextDueDate = nil
	svc.TargetDeliveryDate = nil

	decision, err := ComputeNextOccurrence(svc, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("CH service without authoritative date must not error: %v", err)
	}
	if decision.Kind != DecisionCHSkipped {
		t.Fatalf("expected ch_skipped, got %s", decision.Kind)
	}
}

func TestComputeNextOccurrence_NonCHMissingTargetIsException(t *testing.T) {
	svc := selfScheduled(FrequencyMonthly)
	svc.TargetDeliveryDate = nil

	_, err := ComputeNextOccurrence(svc, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC))
	var schedErr *SchedulingError
	if !errors.As(err, &schedErr) {
		t.Fatalf("expected SchedulingError, got %v", err)
	}
	if schedErr.Type != ErrTypeMissingTargetDelivery {
		t.Fatalf("expected %q, got %q", ErrTypeMissingTargetDelivery, schedErr.Type)
	}
}

func TestComputeNextOccurrence_ConfigFaults(t *testing.T) {
	runDate := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	noFreq := selfScheduled("")
	if _, err := ComputeNextOccurrence(noFreq, runDate); err == nil {
		t.Fatal("missing frequency must error")
	}

	badFreq := selfScheduled("biweekly")
	if _, err := ComputeNextOccurrence(badFreq, runDate); err == nil {
		t.Fatal("invalid frequency must error")
	}

	noStart := selfScheduled(FrequencyMonthly)
	noStart.NextStartDate = nil
	var schedErr *SchedulingError
	if _, err := ComputeNextOccurrence(noStart, runDate); !errors.As(err, &schedErr) || schedErr.Type != ErrTypeMissingStartDate {
		t.Fatalf("missing start date must produce typed error, got %v", err)
	}
}

func TestDescription(t *testing.T) {
	svc := selfScheduled(FrequencyMonthly)
	if got := svc.Description(); got != "VAT Return - Acme Ltd" {
		t.Fatalf("unexpected description %q", got)
	}
	svc.OwnerName = ""
	if got := svc.Description(); got != "VAT Return" {
		t.Fatalf("unexpected description %q", got)
	}
}
