// Package catalog defines the bookable service offering and its resource pool.
package catalog

import (
	"fmt"
	"time"

	"github.com/bookline/bookline/internal/domain"
)

// Service defines a bookable offering: a fixed duration plus the pool of
// resources eligible to fulfill it. A service is immutable during a single
// slot query; pool changes take effect only for future queries.
type Service struct {
	ID             string    `json:"id"`
	TenantID       string    `json:"tenant_id,omitempty"`
	Name           string    `json:"name"`
	DurationMin    int       `json:"duration_minutes"`
	GranularityMin int       `json:"granularity_minutes,omitempty"` // 0 = tenant default
	ResourceIDs    []string  `json:"resource_ids"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Duration returns the service duration.
func (s *Service) Duration() time.Duration {
	return time.Duration(s.DurationMin) * time.Minute
}

// Granularity returns the slot grid step, falling back to the tenant default
// when the service does not override it.
func (s *Service) Granularity(tenantDefaultMin int) time.Duration {
	min := s.GranularityMin
	if min <= 0 {
		min = tenantDefaultMin
	}
	return time.Duration(min) * time.Minute
}

// Validate checks the service invariants.
func (s *Service) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("service name is required: %w", domain.ErrValidation)
	}
	if s.DurationMin <= 0 {
		return fmt.Errorf("service duration must be positive, got %d: %w", s.DurationMin, domain.ErrValidation)
	}
	if s.GranularityMin < 0 {
		return fmt.Errorf("granularity must not be negative: %w", domain.ErrValidation)
	}
	return nil
}

// CreateRequest holds the fields required to create a service.
type CreateRequest struct {
	Name           string   `json:"name"`
	DurationMin    int      `json:"duration_minutes"`
	GranularityMin int      `json:"granularity_minutes,omitempty"`
	ResourceIDs    []string `json:"resource_ids,omitempty"`
}

// UpdateRequest holds the fields that can be updated on a service.
type UpdateRequest struct {
	Name           string    `json:"name,omitempty"`
	DurationMin    int       `json:"duration_minutes,omitempty"`
	GranularityMin *int      `json:"granularity_minutes,omitempty"`
	ResourceIDs    *[]string `json:"resource_ids,omitempty"`
}
