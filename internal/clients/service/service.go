package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"practice_portal_backend/internal/clients/domain"
	"practice_portal_backend/internal/clients/repository"
	"practice_portal_backend/internal/clients/transport"
	"practice_portal_backend/platform/apperr"
	"practice_portal_backend/platform/logger"
)

const defaultBenchReason = "client no longer acts with the practice"

func nlacConflict() error {
	return apperr.Conflict("owner is NLAC and cannot take new subscriptions")
}

// Service implements client registry operations.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
}

// New creates the clients service.
func New(repo repository.Repository, log *logger.Logger) *Service {
	return &Service{repo: repo, log: log}
}

func (s *Service) CreateClient(ctx context.Context, req transport.CreateOwnerRequest) (transport.OwnerResponse, error) {
	client, err := s.repo.CreateClient(ctx, req.Name)
	if err != nil {
		return transport.OwnerResponse{}, err
	}
	return toClientResponse(client), nil
}

func (s *Service) GetClient(ctx context.Context, id uuid.UUID) (transport.OwnerResponse, error) {
	client, err := s.repo.GetClient(ctx, id)
	if err != nil {
		return transport.OwnerResponse{}, err
	}
	return toClientResponse(client), nil
}

func (s *Service) ListClients(ctx context.Context, includeInactive bool) ([]transport.OwnerResponse, error) {
	clients, err := s.repo.ListClients(ctx, includeInactive)
	if err != nil {
		return nil, err
	}
	resp := make([]transport.OwnerResponse, 0, len(clients))
	for _, c := range clients {
		resp = append(resp, toClientResponse(c))
	}
	return resp, nil
}

func (s *Service) CreatePerson(ctx context.Context, req transport.CreateOwnerRequest) (transport.OwnerResponse, error) {
	person, err := s.repo.CreatePerson(ctx, req.Name)
	if err != nil {
		return transport.OwnerResponse{}, err
	}
	return toPersonResponse(person), nil
}

func (s *Service) GetPerson(ctx context.Context, id uuid.UUID) (transport.OwnerResponse, error) {
	person, err := s.repo.GetPerson(ctx, id)
	if err != nil {
		return transport.OwnerResponse{}, err
	}
	return toPersonResponse(person), nil
}

func (s *Service) ListPeople(ctx context.Context, includeInactive bool) ([]transport.OwnerResponse, error) {
	people, err := s.repo.ListPeople(ctx, includeInactive)
	if err != nil {
		return nil, err
	}
	resp := make([]transport.OwnerResponse, 0, len(people))
	for _, p := range people {
		resp = append(resp, toPersonResponse(p))
	}
	return resp, nil
}

// SubscribeClient attaches a recurring service to a client. An NLAC
// client cannot take new subscriptions.
func (s *Service) SubscribeClient(ctx context.Context, clientID uuid.UUID, req transport.SubscribeServiceRequest) (transport.SubscriptionResponse, error) {
	client, err := s.repo.GetClient(ctx, clientID)
	if err != nil {
		return transport.SubscriptionResponse{}, err
	}
	if client.NLACInactive {
		return transport.SubscriptionResponse{}, nlacConflict()
	}

	id, err := s.repo.SubscribeClientService(ctx, subscribeParams(clientID, req))
	if err != nil {
		return transport.SubscriptionResponse{}, err
	}
	return transport.SubscriptionResponse{ID: id}, nil
}

// SubscribePerson attaches a recurring service to a person.
func (s *Service) SubscribePerson(ctx context.Context, personID uuid.UUID, req transport.SubscribeServiceRequest) (transport.SubscriptionResponse, error) {
	person, err := s.repo.GetPerson(ctx, personID)
	if err != nil {
		return transport.SubscriptionResponse{}, err
	}
	if person.NLACInactive {
		return transport.SubscriptionResponse{}, nlacConflict()
	}

	id, err := s.repo.SubscribePersonService(ctx, subscribeParams(personID, req))
	if err != nil {
		return transport.SubscriptionResponse{}, err
	}
	return transport.SubscriptionResponse{ID: id}, nil
}

// MarkClientNLAC takes a client out of the practice: its subscriptions
// leave scheduling and its open projects are benched.
func (s *Service) MarkClientNLAC(ctx context.Context, id uuid.UUID, req transport.MarkNLACRequest) (transport.NLACResponse, error) {
	result, err := s.repo.MarkClientNLAC(ctx, id, benchReason(req))
	if err != nil {
		return transport.NLACResponse{}, err
	}
	s.log.Info("client marked NLAC",
		"client_id", id,
		"services_deactivated", result.ServicesDeactivated,
		"projects_benched", result.ProjectsBenched,
	)
	return toNLACResponse(result), nil
}

// MarkPersonNLAC takes a person out of the practice.
func (s *Service) MarkPersonNLAC(ctx context.Context, id uuid.UUID, req transport.MarkNLACRequest) (transport.NLACResponse, error) {
	result, err := s.repo.MarkPersonNLAC(ctx, id, benchReason(req))
	if err != nil {
		return transport.NLACResponse{}, err
	}
	s.log.Info("person marked NLAC",
		"person_id", id,
		"services_deactivated", result.ServicesDeactivated,
		"projects_benched", result.ProjectsBenched,
	)
	return toNLACResponse(result), nil
}

func subscribeParams(ownerID uuid.UUID, req transport.SubscribeServiceRequest) repository.SubscribeParams {
	return repository.SubscribeParams{
		OwnerID:                   ownerID,
		ServiceID:                 req.ServiceID,
		AssigneeID:                req.AssigneeID,
		Frequency:                 req.Frequency,
		NextStartDate:             req.NextStartDate,
		NextDueDate:               req.NextDueDate,
		TargetDeliveryDate:        req.TargetDeliveryDate,
		IsCompaniesHouseConnected: req.IsCompaniesHouseConnected,
	}
}

func benchReason(req transport.MarkNLACRequest) string {
	if req.BenchReason != "" {
		return req.BenchReason
	}
	return defaultBenchReason
}

func toClientResponse(c domain.Client) transport.OwnerResponse {
	return transport.OwnerResponse{
		ID:           c.ID,
		Name:         c.Name,
		NLACInactive: c.NLACInactive,
		CreatedAt:    c.CreatedAt.Format(time.RFC3339),
	}
}

func toPersonResponse(p domain.Person) transport.OwnerResponse {
	return transport.OwnerResponse{
		ID:           p.ID,
		Name:         p.Name,
		NLACInactive: p.NLACInactive,
		CreatedAt:    p.CreatedAt.Format(time.RFC3339),
	}
}

func toNLACResponse(r domain.NLACResult) transport.NLACResponse {
	return transport.NLACResponse{
		ServicesDeactivated: r.ServicesDeactivated,
		ProjectsBenched:     r.ProjectsBenched,
	}
}
