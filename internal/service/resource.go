package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bookline/bookline/internal/domain"
	"github.com/bookline/bookline/internal/domain/resource"
	"github.com/bookline/bookline/internal/middleware"
	"github.com/bookline/bookline/internal/port/broadcast"
	"github.com/bookline/bookline/internal/port/database"
)

// ResourceService manages resources, their weekly availability templates and
// one-off blockouts. Template and blockout changes are announced over the
// broadcaster so clients re-query slot lists.
type ResourceService struct {
	store       database.Store
	broadcaster broadcast.Broadcaster
}

// NewResourceService creates a new ResourceService.
func NewResourceService(store database.Store, broadcaster broadcast.Broadcaster) *ResourceService {
	return &ResourceService{store: store, broadcaster: broadcaster}
}

// Create validates and creates a new resource.
func (s *ResourceService) Create(ctx context.Context, req resource.CreateRequest) (*resource.Resource, error) {
	if req.Name == "" {
		return nil, fmt.Errorf("resource name is required: %w", domain.ErrValidation)
	}
	return s.store.CreateResource(ctx, req)
}

// Get returns a resource by ID.
func (s *ResourceService) Get(ctx context.Context, id string) (*resource.Resource, error) {
	return s.store.GetResource(ctx, id)
}

// List returns all resources for the tenant.
func (s *ResourceService) List(ctx context.Context) ([]resource.Resource, error) {
	return s.store.ListResources(ctx)
}

// Update modifies an existing resource. Deactivation removes the resource
// from future slot queries without touching existing bookings.
func (s *ResourceService) Update(ctx context.Context, id string, req resource.UpdateRequest) (*resource.Resource, error) {
	r, err := s.store.GetResource(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != "" {
		r.Name = req.Name
	}
	if req.Active != nil {
		r.Active = *req.Active
	}
	if err := s.store.UpdateResource(ctx, r); err != nil {
		return nil, err
	}
	s.announce(ctx, id, time.Time{})
	return r, nil
}

// ListWindows returns the weekly availability template for a resource.
func (s *ResourceService) ListWindows(ctx context.Context, resourceID string) ([]resource.AvailabilityWindow, error) {
	if _, err := s.store.GetResource(ctx, resourceID); err != nil {
		return nil, err
	}
	return s.store.ListWindows(ctx, resourceID)
}

// PutWindow creates or replaces the availability window for one weekday.
func (s *ResourceService) PutWindow(ctx context.Context, resourceID string, req resource.WindowRequest) (*resource.AvailabilityWindow, error) {
	if _, err := s.store.GetResource(ctx, resourceID); err != nil {
		return nil, err
	}

	day, err := resource.ParseWeekday(req.Weekday)
	if err != nil {
		return nil, err
	}
	w := &resource.AvailabilityWindow{
		ResourceID: resourceID,
		Weekday:    day,
		Available:  req.Available,
	}
	if req.Available {
		if w.Start, err = resource.ParseTimeOfDay(req.Start); err != nil {
			return nil, err
		}
		if w.End, err = resource.ParseTimeOfDay(req.End); err != nil {
			return nil, err
		}
	}
	if err := w.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.PutWindow(ctx, w); err != nil {
		return nil, err
	}
	s.announce(ctx, resourceID, time.Time{})
	return w, nil
}

// DeleteWindow removes the window for one weekday, making the resource
// unavailable on that day.
func (s *ResourceService) DeleteWindow(ctx context.Context, resourceID, weekday string) error {
	day, err := resource.ParseWeekday(weekday)
	if err != nil {
		return err
	}
	if err := s.store.DeleteWindow(ctx, resourceID, day); err != nil {
		return err
	}
	s.announce(ctx, resourceID, time.Time{})
	return nil
}

// ListBlockouts returns blockouts for a resource overlapping [from, to).
func (s *ResourceService) ListBlockouts(ctx context.Context, resourceID string, from, to time.Time) ([]resource.Blockout, error) {
	if _, err := s.store.GetResource(ctx, resourceID); err != nil {
		return nil, err
	}
	return s.store.ListBlockouts(ctx, resourceID, from, to)
}

// CreateBlockout adds a one-off blocked range to a resource.
func (s *ResourceService) CreateBlockout(ctx context.Context, resourceID string, req resource.BlockoutRequest) (*resource.Blockout, error) {
	if _, err := s.store.GetResource(ctx, resourceID); err != nil {
		return nil, err
	}

	b := &resource.Blockout{
		ResourceID:  resourceID,
		Start:       req.Start,
		End:         req.End,
		Description: req.Description,
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if err := s.store.CreateBlockout(ctx, b); err != nil {
		return nil, err
	}
	s.announce(ctx, resourceID, b.Start)
	return b, nil
}

// DeleteBlockout removes a blockout, restoring the underlying availability.
func (s *ResourceService) DeleteBlockout(ctx context.Context, resourceID, id string) error {
	if err := s.store.DeleteBlockout(ctx, id); err != nil {
		return err
	}
	s.announce(ctx, resourceID, time.Time{})
	return nil
}

// announce pushes an availability.changed event for the resource. A zero
// date means the whole template changed rather than a single day.
func (s *ResourceService) announce(ctx context.Context, resourceID string, day time.Time) {
	if s.broadcaster == nil {
		return
	}
	date := ""
	if !day.IsZero() {
		date = day.Format("2006-01-02")
	}
	s.broadcaster.BroadcastEvent(ctx, broadcast.EventAvailabilityChanged, broadcast.AvailabilityChangedEvent{
		TenantID:   middleware.TenantIDFromContext(ctx),
		ResourceID: resourceID,
		Date:       date,
	})
}
