package businesstime

import (
	"testing"
	"time"
)

func date(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse("2006-01-02 15:04", value)
	if err != nil {
		t.Fatalf("bad test date %q: %v", value, err)
	}
	return parsed
}

func TestHours_WithinSingleBusinessDay(t *testing.T) {
	cal := Default()

	// Tuesday 09:00 - 13:00 sits entirely inside the working window, so
	// business hours equal the wall-clock difference.
	from := date(t, "2024-01-02 09:00")
	to := date(t, "2024-01-02 13:00")

	if got := cal.Hours(from, to); got != 4 {
		t.Fatalf("expected 4 business hours, got %v", got)
	}
}

func TestHours_ZeroInterval(t *testing.T) {
	cal := Default()
	at := date(t, "2024-01-02 11:00")

	if got := cal.Hours(at, at); got != 0 {
		t.Fatalf("expected 0 for zero interval, got %v", got)
	}
}

func TestHours_EndBeforeStart(t *testing.T) {
	cal := Default()
	from := date(t, "2024-01-02 13:00")
	to := date(t, "2024-01-02 09:00")

	if got := cal.Hours(from, to); got != 0 {
		t.Fatalf("expected 0 for inverted interval, got %v", got)
	}
}

func TestHours_SpansWeekend(t *testing.T) {
	cal := Default()

	// Friday 17:00 -> Monday 09:00. Only Friday 17:00-17:30 counts; the
	// weekend is excluded entirely and Monday has not started yet.
	from := date(t, "2024-01-05 17:00")
	to := date(t, "2024-01-08 09:00")

	if got := cal.Hours(from, to); got != 0.5 {
		t.Fatalf("expected 0.5 business hours across weekend, got %v", got)
	}
}

func TestHours_SpansMultipleFullDays(t *testing.T) {
	cal := Default()

	// Monday 09:00 -> Wednesday 17:30 = 3 full 8.5h days.
	from := date(t, "2024-01-08 09:00")
	to := date(t, "2024-01-10 17:30")

	if got := cal.Hours(from, to); got != 25.5 {
		t.Fatalf("expected 25.5 business hours, got %v", got)
	}
}

func TestHours_OutsideWorkingWindow(t *testing.T) {
	cal := Default()

	// Tuesday 18:00 -> Wednesday 08:00 touches no working time.
	from := date(t, "2024-01-02 18:00")
	to := date(t, "2024-01-03 08:00")

	if got := cal.Hours(from, to); got != 0 {
		t.Fatalf("expected 0 business hours overnight, got %v", got)
	}
}

func TestHours_HolidayExcluded(t *testing.T) {
	cal := Default()
	cal.holidays["2024-01-03"] = true

	// Tuesday 09:00 -> Thursday 09:00 with Wednesday as a holiday leaves
	// exactly one full working day.
	from := date(t, "2024-01-02 09:00")
	to := date(t, "2024-01-04 09:00")

	if got := cal.Hours(from, to); got != 8.5 {
		t.Fatalf("expected 8.5 business hours with holiday excluded, got %v", got)
	}
}

func TestIsWorkingDay(t *testing.T) {
	cal := Default()

	if !cal.IsWorkingDay(date(t, "2024-01-02 12:00")) {
		t.Error("expected Tuesday to be a working day")
	}
	if cal.IsWorkingDay(date(t, "2024-01-06 12:00")) {
		t.Error("expected Saturday to be a non-working day")
	}
}
