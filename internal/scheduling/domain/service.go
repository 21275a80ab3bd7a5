// Package domain provides the pure recurrence rules: frequency
// arithmetic, the due test, and the per-service outcome classification a
// scheduling pass aggregates.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Frequency enumerates the supported recurrence cycles.
type Frequency string

const (
	FrequencyWeekly     Frequency = "weekly"
	FrequencyMonthly    Frequency = "monthly"
	FrequencyQuarterly  Frequency = "quarterly"
	FrequencySixMonthly Frequency = "six_monthly"
	FrequencyAnnual     Frequency = "annual"
)

// Advance moves a date forward by one cycle.
func (f Frequency) Advance(t time.Time) (time.Time, error) {
	switch f {
	case FrequencyWeekly:
		return t.AddDate(0, 0, 7), nil
	case FrequencyMonthly:
		return t.AddDate(0, 1, 0), nil
	case FrequencyQuarterly:
		return t.AddDate(0, 3, 0), nil
	case FrequencySixMonthly:
		return t.AddDate(0, 6, 0), nil
	case FrequencyAnnual:
		return t.AddDate(1, 0, 0), nil
	}
	return time.Time{}, fmt.Errorf("unknown frequency %q", f)
}

// OwnerKind distinguishes client subscriptions from people subscriptions.
type OwnerKind string

const (
	OwnerClient OwnerKind = "client"
	OwnerPerson OwnerKind = "person"
)

// RecurringService is a client's or person's subscription to a recurring
// service. For Companies-House-connected services NextDueDate is
// externally authoritative and never advanced by frequency arithmetic.
type RecurringService struct {
	ID            uuid.UUID
	ServiceID     uuid.UUID
	ProjectTypeID uuid.UUID
	OwnerKind     OwnerKind
	// ClientID or PersonID is set according to OwnerKind.
	ClientID  *uuid.UUID
	PersonID  *uuid.UUID
	OwnerName string
	// AssigneeID is the configured service owner who receives created
	// projects.
	AssigneeID                *uuid.UUID
	ServiceName               string
	Frequency                 Frequency
	NextStartDate             *time.Time
	NextDueDate               *time.Time
	TargetDeliveryDate        *time.Time
	IsCompaniesHouseConnected bool
	IsActive                  bool
}

// Description derives the created project's description from the service
// and owner naming.
func (s RecurringService) Description() string {
	if s.OwnerName == "" {
		return s.ServiceName
	}
	return fmt.Sprintf("%s - %s", s.ServiceName, s.OwnerName)
}
