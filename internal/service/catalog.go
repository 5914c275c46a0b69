package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/bookline/bookline/internal/domain"
	"github.com/bookline/bookline/internal/domain/catalog"
	"github.com/bookline/bookline/internal/port/database"
)

// CatalogService manages the bookable service offerings and their resource
// pools.
type CatalogService struct {
	store database.Store
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(store database.Store) *CatalogService {
	return &CatalogService{store: store}
}

// Create validates and creates a new service offering. Every resource in
// the pool must exist under the calling tenant.
func (s *CatalogService) Create(ctx context.Context, req catalog.CreateRequest) (*catalog.Service, error) {
	svc := catalog.Service{
		Name:           req.Name,
		DurationMin:    req.DurationMin,
		GranularityMin: req.GranularityMin,
		ResourceIDs:    req.ResourceIDs,
	}
	if err := svc.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkPool(ctx, req.ResourceIDs); err != nil {
		return nil, err
	}
	return s.store.CreateService(ctx, req)
}

// Get returns a service offering by ID.
func (s *CatalogService) Get(ctx context.Context, id string) (*catalog.Service, error) {
	return s.store.GetService(ctx, id)
}

// List returns all service offerings for the tenant.
func (s *CatalogService) List(ctx context.Context) ([]catalog.Service, error) {
	return s.store.ListServices(ctx)
}

// Update modifies an existing service offering. Pool changes apply only to
// future slot queries; existing bookings keep their resource.
func (s *CatalogService) Update(ctx context.Context, id string, req catalog.UpdateRequest) (*catalog.Service, error) {
	svc, err := s.store.GetService(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != "" {
		svc.Name = req.Name
	}
	if req.DurationMin > 0 {
		svc.DurationMin = req.DurationMin
	}
	if req.GranularityMin != nil {
		svc.GranularityMin = *req.GranularityMin
	}
	if req.ResourceIDs != nil {
		if err := s.checkPool(ctx, *req.ResourceIDs); err != nil {
			return nil, err
		}
		svc.ResourceIDs = *req.ResourceIDs
	}
	if err := svc.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.UpdateService(ctx, svc); err != nil {
		return nil, err
	}
	return svc, nil
}

// checkPool verifies every resource ID resolves under the calling tenant.
func (s *CatalogService) checkPool(ctx context.Context, resourceIDs []string) error {
	for _, id := range resourceIDs {
		if _, err := s.store.GetResource(ctx, id); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return fmt.Errorf("pool resource %s does not exist: %w", id, domain.ErrValidation)
			}
			return err
		}
	}
	return nil
}
