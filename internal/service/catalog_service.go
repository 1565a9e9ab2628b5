package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/MohammedMashal/smart-booking-system/internal/calendar"
	"github.com/MohammedMashal/smart-booking-system/internal/model"
	"github.com/MohammedMashal/smart-booking-system/internal/repository"
)

// ServiceInput lists the fields a provider may set on a service. Owner,
// id and activity flag are never taken from input.
type ServiceInput struct {
	Name        string
	Description string
	PriceCents  int64
	Capacity    int
}

type CatalogService struct {
	services repository.ServiceRepository
}

func NewCatalogService(services repository.ServiceRepository) *CatalogService {
	return &CatalogService{services: services}
}

func (s *CatalogService) Create(ctx context.Context, ownerID string, in ServiceInput) (*model.Service, error) {
	name := strings.TrimSpace(in.Name)
	switch {
	case ownerID == "":
		return nil, fmt.Errorf("%w: owner id is required", ErrInvalidArgument)
	case name == "":
		return nil, fmt.Errorf("%w: name is required", ErrInvalidArgument)
	case in.PriceCents < 0:
		return nil, fmt.Errorf("%w: price must not be negative", ErrInvalidArgument)
	}

	capacity := in.Capacity
	if capacity <= 0 {
		capacity = 1
	}

	svc := &model.Service{
		OwnerID:     ownerID,
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		PriceCents:  in.PriceCents,
		Capacity:    capacity,
		IsActive:    true,
	}
	if err := s.services.Create(ctx, svc); err != nil {
		return nil, classify(fmt.Errorf("create service: %w", err))
	}
	return svc, nil
}

func (s *CatalogService) Get(ctx context.Context, id uuid.UUID) (*model.Service, error) {
	svc, err := s.services.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, fmt.Errorf("service %s: %w", id, ErrNotFound)
		}
		return nil, classify(fmt.Errorf("get service: %w", err))
	}
	return svc, nil
}

func (s *CatalogService) List(ctx context.Context, page, pageSize int) (calendar.Page[model.Service], error) {
	page, pageSize = calendar.NormalizePage(page, pageSize)

	services, total, err := s.services.List(ctx, true, pageSize, calendar.Offset(page, pageSize))
	if err != nil {
		return calendar.Page[model.Service]{}, classify(fmt.Errorf("list services: %w", err))
	}
	return calendar.NewPage(services, page, pageSize, total), nil
}

// owned loads a service and checks that principal published it.
func (s *CatalogService) owned(ctx context.Context, id uuid.UUID, principal string) (*model.Service, error) {
	svc, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if svc.OwnerID != principal {
		return nil, fmt.Errorf("service %s is owned by another user: %w", id, ErrForbidden)
	}
	return svc, nil
}
