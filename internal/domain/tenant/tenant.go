// Package tenant defines the tenant domain model for multi-tenancy.
package tenant

import (
	"fmt"
	"time"

	"github.com/bookline/bookline/internal/domain"
)

// ConfirmationPolicy controls the initial status of a newly created booking.
type ConfirmationPolicy string

const (
	// ConfirmAuto creates bookings directly in the confirmed state.
	ConfirmAuto ConfirmationPolicy = "auto"
	// ConfirmManual creates bookings as pending until staff confirms them.
	ConfirmManual ConfirmationPolicy = "manual"
)

// Tenant represents an isolated company account. Its timezone governs how
// weekly availability templates are resolved to absolute instants.
type Tenant struct {
	ID                 string             `json:"id"`
	Name               string             `json:"name"`
	Slug               string             `json:"slug"`
	Timezone           string             `json:"timezone"` // IANA name, e.g. "Europe/Zurich"
	ConfirmationPolicy ConfirmationPolicy `json:"confirmation_policy"`
	SlotGranularityMin int                `json:"slot_granularity_minutes"`
	Enabled            bool               `json:"enabled"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// Location resolves the tenant's IANA timezone.
func (t *Tenant) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(t.Timezone)
	if err != nil {
		return nil, fmt.Errorf("tenant %s timezone %q: %w", t.ID, t.Timezone, domain.ErrValidation)
	}
	return loc, nil
}

// CreateRequest holds the fields required to create a new tenant.
type CreateRequest struct {
	Name               string             `json:"name"`
	Slug               string             `json:"slug"`
	Timezone           string             `json:"timezone"`
	ConfirmationPolicy ConfirmationPolicy `json:"confirmation_policy,omitempty"`
	SlotGranularityMin int                `json:"slot_granularity_minutes,omitempty"`
}

// UpdateRequest holds the fields that can be updated on a tenant.
type UpdateRequest struct {
	Name               string             `json:"name,omitempty"`
	Timezone           string             `json:"timezone,omitempty"`
	ConfirmationPolicy ConfirmationPolicy `json:"confirmation_policy,omitempty"`
	SlotGranularityMin int                `json:"slot_granularity_minutes,omitempty"`
	Enabled            *bool              `json:"enabled,omitempty"`
}
