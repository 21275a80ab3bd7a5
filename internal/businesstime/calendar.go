// Package businesstime converts wall-clock intervals into elapsed business
// hours against a configurable working calendar. The calculator is pure and
// stateless so it serves both live stage timers and audit-time historical
// computation.
package businesstime

import (
	"fmt"
	"time"

	"practice_portal_backend/platform/config"
)

// Calendar describes the working week used for business-hours arithmetic.
type Calendar struct {
	workingDays map[time.Weekday]bool
	dayStart    time.Duration // offset from midnight
	dayEnd      time.Duration
	holidays    map[string]bool // keyed by "2006-01-02"
}

// NewCalendar builds a calendar from configuration.
func NewCalendar(cfg config.BusinessCalendarConfig) (*Calendar, error) {
	start, err := parseClock(cfg.GetWorkDayStart())
	if err != nil {
		return nil, fmt.Errorf("work day start: %w", err)
	}
	end, err := parseClock(cfg.GetWorkDayEnd())
	if err != nil {
		return nil, fmt.Errorf("work day end: %w", err)
	}
	if end <= start {
		return nil, fmt.Errorf("work day end %q must be after start %q", cfg.GetWorkDayEnd(), cfg.GetWorkDayStart())
	}

	days := make(map[time.Weekday]bool, len(cfg.GetWorkingDays()))
	for _, day := range cfg.GetWorkingDays() {
		days[day] = true
	}
	if len(days) == 0 {
		return nil, fmt.Errorf("calendar requires at least one working day")
	}

	holidays := make(map[string]bool, len(cfg.GetHolidays()))
	for _, day := range cfg.GetHolidays() {
		if _, err := time.Parse("2006-01-02", day); err != nil {
			return nil, fmt.Errorf("holiday %q: %w", day, err)
		}
		holidays[day] = true
	}

	return &Calendar{
		workingDays: days,
		dayStart:    start,
		dayEnd:      end,
		holidays:    holidays,
	}, nil
}

// Default returns the standard Mon-Fri 09:00-17:30 calendar with no holidays.
func Default() *Calendar {
	return &Calendar{
		workingDays: map[time.Weekday]bool{
			time.Monday:    true,
			time.Tuesday:   true,
			time.Wednesday: true,
			time.Thursday:  true,
			time.Friday:    true,
		},
		dayStart: 9 * time.Hour,
		dayEnd:   17*time.Hour + 30*time.Minute,
		holidays: map[string]bool{},
	}
}

// IsWorkingDay reports whether the given instant falls on a working day
// that is not a holiday.
func (c *Calendar) IsWorkingDay(t time.Time) bool {
	return c.workingDays[t.Weekday()] && !c.holidays[t.Format("2006-01-02")]
}

// Hours returns the business hours elapsed between from and to. A zero or
// negative interval yields 0. Time outside the working window, weekends,
// and holidays are excluded.
func (c *Calendar) Hours(from, to time.Time) float64 {
	if !to.After(from) {
		return 0
	}

	to = to.In(from.Location())

	var total time.Duration
	for day := startOfDay(from); day.Before(to); day = day.AddDate(0, 0, 1) {
		if !c.IsWorkingDay(day) {
			continue
		}

		windowStart := day.Add(c.dayStart)
		windowEnd := day.Add(c.dayEnd)

		start := windowStart
		if from.After(start) {
			start = from
		}
		end := windowEnd
		if to.Before(end) {
			end = to
		}

		if end.After(start) {
			total += end.Sub(start)
		}
	}

	return total.Hours()
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func parseClock(value string) (time.Duration, error) {
	parsed, err := time.Parse("15:04", value)
	if err != nil {
		return 0, err
	}
	return time.Duration(parsed.Hour())*time.Hour + time.Duration(parsed.Minute())*time.Minute, nil
}
