package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"practice_portal_backend/internal/clients/domain"
)

// SubscribeParams creates one recurring service subscription for a
// client or person.
type SubscribeParams struct {
	OwnerID                   uuid.UUID
	ServiceID                 uuid.UUID
	AssigneeID                *uuid.UUID
	Frequency                 string
	NextStartDate             *time.Time
	NextDueDate               *time.Time
	TargetDeliveryDate        *time.Time
	IsCompaniesHouseConnected bool
}

// Repository persists the client registry.
type Repository interface {
	CreateClient(ctx context.Context, name string) (domain.Client, error)
	GetClient(ctx context.Context, id uuid.UUID) (domain.Client, error)
	ListClients(ctx context.Context, includeInactive bool) ([]domain.Client, error)
	CreatePerson(ctx context.Context, name string) (domain.Person, error)
	GetPerson(ctx context.Context, id uuid.UUID) (domain.Person, error)
	ListPeople(ctx context.Context, includeInactive bool) ([]domain.Person, error)

	SubscribeClientService(ctx context.Context, params SubscribeParams) (uuid.UUID, error)
	SubscribePersonService(ctx context.Context, params SubscribeParams) (uuid.UUID, error)

	// MarkClientNLAC flags the client, deactivates its subscriptions and
	// benches its open projects in one transaction.
	MarkClientNLAC(ctx context.Context, id uuid.UUID, benchReason string) (domain.NLACResult, error)
	MarkPersonNLAC(ctx context.Context, id uuid.UUID, benchReason string) (domain.NLACResult, error)
}
