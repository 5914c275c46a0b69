// Package service implements the application layer orchestrating domain
// logic over the storage, queue, cache and broadcast ports.
package service

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/bookline/bookline/internal/domain"
	"github.com/bookline/bookline/internal/domain/tenant"
	"github.com/bookline/bookline/internal/port/database"
)

// TenantService manages tenant lifecycle.
type TenantService struct {
	store database.Store

	// defaultGranularityMin seeds tenants that do not choose a slot grid.
	defaultGranularityMin int
}

// NewTenantService creates a new TenantService.
func NewTenantService(store database.Store, defaultGranularityMin int) *TenantService {
	return &TenantService{store: store, defaultGranularityMin: defaultGranularityMin}
}

var slugRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]{1,62}[a-z0-9]$`)

// Create validates and creates a new tenant.
func (s *TenantService) Create(ctx context.Context, req tenant.CreateRequest) (*tenant.Tenant, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("tenant name is required: %w", domain.ErrValidation)
	}
	if !slugRegex.MatchString(req.Slug) {
		return nil, fmt.Errorf("invalid slug %q: must be 3-64 lowercase alphanumeric characters or hyphens: %w", req.Slug, domain.ErrValidation)
	}
	if _, err := time.LoadLocation(req.Timezone); err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", req.Timezone, domain.ErrValidation)
	}
	switch req.ConfirmationPolicy {
	case "":
		req.ConfirmationPolicy = tenant.ConfirmAuto
	case tenant.ConfirmAuto, tenant.ConfirmManual:
	default:
		return nil, fmt.Errorf("unknown confirmation policy %q: %w", req.ConfirmationPolicy, domain.ErrValidation)
	}
	if req.SlotGranularityMin < 0 {
		return nil, fmt.Errorf("slot granularity must not be negative: %w", domain.ErrValidation)
	}
	if req.SlotGranularityMin == 0 {
		req.SlotGranularityMin = s.defaultGranularityMin
	}
	return s.store.CreateTenant(ctx, req)
}

// Get returns a tenant by ID.
func (s *TenantService) Get(ctx context.Context, id string) (*tenant.Tenant, error) {
	return s.store.GetTenant(ctx, id)
}

// List returns all tenants.
func (s *TenantService) List(ctx context.Context) ([]tenant.Tenant, error) {
	return s.store.ListTenants(ctx)
}

// Update modifies an existing tenant.
func (s *TenantService) Update(ctx context.Context, id string, req tenant.UpdateRequest) (*tenant.Tenant, error) {
	t, err := s.store.GetTenant(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != "" {
		t.Name = req.Name
	}
	if req.Timezone != "" {
		if _, err := time.LoadLocation(req.Timezone); err != nil {
			return nil, fmt.Errorf("invalid timezone %q: %w", req.Timezone, domain.ErrValidation)
		}
		t.Timezone = req.Timezone
	}
	if req.ConfirmationPolicy != "" {
		if req.ConfirmationPolicy != tenant.ConfirmAuto && req.ConfirmationPolicy != tenant.ConfirmManual {
			return nil, fmt.Errorf("unknown confirmation policy %q: %w", req.ConfirmationPolicy, domain.ErrValidation)
		}
		t.ConfirmationPolicy = req.ConfirmationPolicy
	}
	if req.SlotGranularityMin > 0 {
		t.SlotGranularityMin = req.SlotGranularityMin
	}
	if req.Enabled != nil {
		t.Enabled = *req.Enabled
	}
	if err := s.store.UpdateTenant(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}
