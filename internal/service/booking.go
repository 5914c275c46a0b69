package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bookline/bookline/internal/adapter/otel"
	"github.com/bookline/bookline/internal/domain"
	"github.com/bookline/bookline/internal/domain/booking"
	"github.com/bookline/bookline/internal/domain/tenant"
	"github.com/bookline/bookline/internal/middleware"
	"github.com/bookline/bookline/internal/port/broadcast"
	"github.com/bookline/bookline/internal/port/database"
	"github.com/bookline/bookline/internal/port/messagequeue"
	"github.com/bookline/bookline/internal/resilience"
)

// BookingService creates bookings atomically and drives the status state
// machine. Side effects (queue events, websocket broadcasts, metrics) happen
// only after the store commit; a failed commit leaves no trace.
type BookingService struct {
	store       database.Store
	queue       messagequeue.Queue
	breaker     *resilience.Breaker
	broadcaster broadcast.Broadcaster
	metrics     *otel.Metrics
	avail       *AvailabilityService
}

// NewBookingService creates a new BookingService. queue, broadcaster and
// metrics may be nil.
func NewBookingService(store database.Store, queue messagequeue.Queue, broadcaster broadcast.Broadcaster, metrics *otel.Metrics, avail *AvailabilityService) *BookingService {
	return &BookingService{
		store:       store,
		queue:       queue,
		breaker:     resilience.NewBreaker(5, 30*time.Second),
		broadcaster: broadcaster,
		metrics:     metrics,
		avail:       avail,
	}
}

// Create reserves a slot. The end instant is always recomputed from the
// service duration, never taken from the client. Exactly one of two
// concurrent calls for overlapping intervals on the same resource succeeds;
// the other receives domain.ErrSlotConflict.
func (s *BookingService) Create(ctx context.Context, req booking.CreateRequest) (*booking.Booking, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	t, err := s.store.GetTenant(ctx, middleware.TenantIDFromContext(ctx))
	if err != nil {
		return nil, err
	}
	if !t.Enabled {
		return nil, fmt.Errorf("tenant %s is disabled: %w", t.ID, domain.ErrValidation)
	}
	svc, err := s.store.GetService(ctx, req.ServiceID)
	if err != nil {
		return nil, err
	}

	resourceID, err := s.avail.SelectResource(ctx, svc, t, req.Start, req.ResourceID)
	if err != nil {
		if errors.Is(err, domain.ErrSlotConflict) && s.metrics != nil {
			s.metrics.BookingConflicts.Add(ctx, 1)
		}
		return nil, err
	}

	status := booking.StatusPending
	if t.ConfirmationPolicy == tenant.ConfirmAuto {
		status = booking.StatusConfirmed
	}

	b := &booking.Booking{
		ServiceID:  svc.ID,
		ResourceID: resourceID,
		Customer:   req.Customer,
		Start:      req.Start,
		End:        req.Start.Add(svc.Duration()),
		Status:     status,
	}

	ctx, span := otel.StartReserveSpan(ctx, t.ID, resourceID)
	defer span.End()

	if err := s.store.CreateBookingIfFree(ctx, b); err != nil {
		if errors.Is(err, domain.ErrSlotConflict) && s.metrics != nil {
			s.metrics.BookingConflicts.Add(ctx, 1)
		}
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.BookingsCreated.Add(ctx, 1)
	}
	s.publish(ctx, messagequeue.SubjectBookingCreated, b)
	s.announceSlotChange(ctx, t.ID, b, t.Timezone)

	slog.Info("booking created",
		"booking_id", b.ID, "tenant_id", t.ID, "resource_id", resourceID,
		"service_id", svc.ID, "status", string(b.Status))
	return b, nil
}

// Get returns a booking by ID.
func (s *BookingService) Get(ctx context.Context, id string) (*booking.Booking, error) {
	return s.store.GetBooking(ctx, id)
}

// List returns bookings for a resource overlapping [from, to).
func (s *BookingService) List(ctx context.Context, resourceID string, from, to time.Time) ([]booking.Booking, error) {
	if !from.Before(to) {
		return nil, fmt.Errorf("from must be before to: %w", domain.ErrValidation)
	}
	return s.store.ListBookings(ctx, resourceID, from, to)
}

// UpdateStatus transitions a booking to the requested status. Disallowed
// transitions return domain.ErrInvalidTransition. Cancelling frees the
// interval for new bookings.
func (s *BookingService) UpdateStatus(ctx context.Context, id, nextRaw string) (*booking.Booking, error) {
	next, err := booking.ParseStatus(nextRaw)
	if err != nil {
		return nil, err
	}

	current, err := s.store.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}
	if !current.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("cannot transition booking %s from %s to %s: %w",
			id, current.Status, next, domain.ErrInvalidTransition)
	}

	// The store re-checks the current status inside the UPDATE, so a racing
	// transition loses cleanly instead of being overwritten.
	updated, err := s.store.UpdateBookingStatus(ctx, id, current.Status, next)
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.BookingTransitions.Add(ctx, 1)
	}
	s.publish(ctx, messagequeue.SubjectBookingStatus, updated)

	tenantID := middleware.TenantIDFromContext(ctx)
	if s.broadcaster != nil {
		s.broadcaster.BroadcastEvent(ctx, broadcast.EventBookingStatus, broadcast.BookingStatusEvent{
			TenantID:  tenantID,
			BookingID: updated.ID,
			Status:    string(updated.Status),
		})
	}
	if next == booking.StatusCancelled {
		if t, terr := s.store.GetTenant(ctx, tenantID); terr == nil {
			s.announceSlotChange(ctx, tenantID, updated, t.Timezone)
		}
	}

	slog.Info("booking status changed",
		"booking_id", updated.ID, "from", string(current.Status), "to", string(updated.Status))
	return updated, nil
}

// publish emits a booking event on the queue. Delivery is best effort; the
// committed booking is the source of truth. A circuit breaker keeps a down
// queue from adding publish timeouts to every booking.
func (s *BookingService) publish(ctx context.Context, subject string, b *booking.Booking) {
	if s.queue == nil {
		return
	}
	data, err := json.Marshal(b)
	if err != nil {
		slog.Error("marshal booking event", "subject", subject, "error", err)
		return
	}
	err = s.breaker.Execute(func() error {
		return s.queue.Publish(ctx, subject, data)
	})
	if err != nil {
		slog.Error("publish booking event", "subject", subject, "booking_id", b.ID, "error", err)
	}
}

// announceSlotChange broadcasts availability.changed for the booking's
// resource on its local calendar day.
func (s *BookingService) announceSlotChange(ctx context.Context, tenantID string, b *booking.Booking, tz string) {
	if s.broadcaster == nil {
		return
	}
	date := ""
	if loc, err := time.LoadLocation(tz); err == nil {
		date = b.Start.In(loc).Format("2006-01-02")
	}
	s.broadcaster.BroadcastEvent(ctx, broadcast.EventAvailabilityChanged, broadcast.AvailabilityChangedEvent{
		TenantID:   tenantID,
		ResourceID: b.ResourceID,
		ServiceID:  b.ServiceID,
		Date:       date,
	})
}
