// Package database defines the persistence port for the scheduling engine.
package database

import (
	"context"
	"time"

	"github.com/bookline/bookline/internal/domain/booking"
	"github.com/bookline/bookline/internal/domain/catalog"
	"github.com/bookline/bookline/internal/domain/resource"
	"github.com/bookline/bookline/internal/domain/tenant"
)

// Store is the port interface for persistent storage. All methods are scoped
// to the tenant carried in ctx; entities belonging to other tenants behave
// as if they do not exist.
type Store interface {
	// --- Tenants ---

	ListTenants(ctx context.Context) ([]tenant.Tenant, error)
	GetTenant(ctx context.Context, id string) (*tenant.Tenant, error)
	CreateTenant(ctx context.Context, req tenant.CreateRequest) (*tenant.Tenant, error)
	UpdateTenant(ctx context.Context, t *tenant.Tenant) error

	// --- Resources ---

	ListResources(ctx context.Context) ([]resource.Resource, error)
	GetResource(ctx context.Context, id string) (*resource.Resource, error)
	CreateResource(ctx context.Context, req resource.CreateRequest) (*resource.Resource, error)
	UpdateResource(ctx context.Context, r *resource.Resource) error

	// --- Availability windows ---

	// ListWindows returns the weekly template for a resource, at most one
	// window per weekday.
	ListWindows(ctx context.Context, resourceID string) ([]resource.AvailabilityWindow, error)
	// PutWindow creates or replaces the window for (resource, weekday).
	PutWindow(ctx context.Context, w *resource.AvailabilityWindow) error
	DeleteWindow(ctx context.Context, resourceID string, day resource.Weekday) error

	// --- Blockouts ---

	// ListBlockouts returns blockouts for a resource overlapping [from, to).
	ListBlockouts(ctx context.Context, resourceID string, from, to time.Time) ([]resource.Blockout, error)
	CreateBlockout(ctx context.Context, b *resource.Blockout) error
	DeleteBlockout(ctx context.Context, id string) error

	// --- Services ---

	ListServices(ctx context.Context) ([]catalog.Service, error)
	GetService(ctx context.Context, id string) (*catalog.Service, error)
	CreateService(ctx context.Context, req catalog.CreateRequest) (*catalog.Service, error)
	UpdateService(ctx context.Context, s *catalog.Service) error

	// --- Bookings ---

	GetBooking(ctx context.Context, id string) (*booking.Booking, error)
	// ListBookings returns bookings for a resource overlapping [from, to),
	// in all statuses, ordered by start.
	ListBookings(ctx context.Context, resourceID string, from, to time.Time) ([]booking.Booking, error)
	// CountActiveBookings returns the number of non-cancelled bookings for a
	// resource overlapping [from, to). Used by the pool selector tie-break.
	CountActiveBookings(ctx context.Context, resourceID string, from, to time.Time) (int, error)
	// CreateBookingIfFree atomically verifies that no non-cancelled booking
	// for b.ResourceID overlaps [b.Start, b.End) and inserts b. Returns
	// domain.ErrSlotConflict when the interval is already occupied; two
	// concurrent calls for overlapping intervals never both succeed.
	CreateBookingIfFree(ctx context.Context, b *booking.Booking) error
	// UpdateBookingStatus transitions a booking from its current status to
	// next, guarded so that a concurrent transition cannot be overwritten.
	UpdateBookingStatus(ctx context.Context, id string, current, next booking.Status) (*booking.Booking, error)
}
