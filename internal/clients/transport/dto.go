package transport

import (
	"time"

	"github.com/google/uuid"
)

// CreateOwnerRequest creates a client or a person.
type CreateOwnerRequest struct {
	Name string `json:"name" validate:"required,min=1,max=255"`
}

// ListOwnersRequest filters the owner listing.
type ListOwnersRequest struct {
	IncludeInactive bool `form:"includeInactive"`
}

// SubscribeServiceRequest attaches a recurring service to an owner.
type SubscribeServiceRequest struct {
	ServiceID                 uuid.UUID  `json:"serviceId" validate:"required"`
	AssigneeID                *uuid.UUID `json:"assigneeId"`
	Frequency                 string     `json:"frequency" validate:"required,oneof=weekly monthly quarterly six_monthly annual"`
	NextStartDate             *time.Time `json:"nextStartDate" validate:"required"`
	NextDueDate               *time.Time `json:"nextDueDate"`
	TargetDeliveryDate        *time.Time `json:"targetDeliveryDate"`
	IsCompaniesHouseConnected bool       `json:"isCompaniesHouseConnected"`
}

// MarkNLACRequest takes an owner out of the practice.
type MarkNLACRequest struct {
	BenchReason string `json:"benchReason" validate:"max=500"`
}

// OwnerResponse is the API shape of a client or person.
type OwnerResponse struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	NLACInactive bool      `json:"nlacInactive"`
	CreatedAt    string    `json:"createdAt"`
}

// SubscriptionResponse acknowledges a new subscription.
type SubscriptionResponse struct {
	ID uuid.UUID `json:"id"`
}

// NLACResponse reports what the NLAC cascade touched.
type NLACResponse struct {
	ServicesDeactivated int `json:"servicesDeactivated"`
	ProjectsBenched     int `json:"projectsBenched"`
}
