package service

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/bookline/bookline/internal/domain"
	"github.com/bookline/bookline/internal/domain/booking"
	"github.com/bookline/bookline/internal/domain/tenant"
	"github.com/bookline/bookline/internal/port/broadcast"
	"github.com/bookline/bookline/internal/port/messagequeue"
)

func newBookingFixture(store *mockStore) (*BookingService, *mockQueue, *mockBroadcaster) {
	queue := &mockQueue{}
	bc := &mockBroadcaster{}
	avail := newAvailability(store)
	return NewBookingService(store, queue, bc, nil, avail), queue, bc
}

func validRequest() booking.CreateRequest {
	return booking.CreateRequest{
		ServiceID: "svc-1",
		Start:     time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC),
		Customer:  booking.Customer{Name: "Anna Muster", Email: "anna@example.com"},
	}
}

func TestCreateBookingAutoConfirm(t *testing.T) {
	store := fixtureStore()
	svc, queue, bc := newBookingFixture(store)

	b, err := svc.Create(testCtx(), validRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if b.Status != booking.StatusConfirmed {
		t.Errorf("status = %s, want confirmed under auto policy", b.Status)
	}
	if b.ResourceID != "res-1" {
		t.Errorf("resource = %s, want res-1", b.ResourceID)
	}
	if want := b.Start.Add(time.Hour); !b.End.Equal(want) {
		t.Errorf("end = %v, want start plus service duration %v", b.End, want)
	}

	if !slices.Contains(queue.subjects(), messagequeue.SubjectBookingCreated) {
		t.Error("expected bookings.created on the queue")
	}
	if !slices.Contains(bc.eventTypes(), broadcast.EventAvailabilityChanged) {
		t.Error("expected availability.changed broadcast")
	}
}

func TestCreateBookingManualStaysPending(t *testing.T) {
	store := fixtureStore()
	store.tenants[0].ConfirmationPolicy = tenant.ConfirmManual
	svc, _, _ := newBookingFixture(store)

	b, err := svc.Create(testCtx(), validRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if b.Status != booking.StatusPending {
		t.Errorf("status = %s, want pending under manual policy", b.Status)
	}
}

func TestCreateBookingIgnoresClientEnd(t *testing.T) {
	store := fixtureStore()
	store.services[0].DurationMin = 90
	svc, _, _ := newBookingFixture(store)

	b, err := svc.Create(testCtx(), validRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if want := b.Start.Add(90 * time.Minute); !b.End.Equal(want) {
		t.Errorf("end = %v, want %v", b.End, want)
	}
}

func TestCreateBookingConflict(t *testing.T) {
	store := fixtureStore()
	svc, _, _ := newBookingFixture(store)

	if _, err := svc.Create(testCtx(), validRequest()); err != nil {
		t.Fatalf("first Create: %v", err)
	}
	_, err := svc.Create(testCtx(), validRequest())
	if !errors.Is(err, domain.ErrSlotConflict) {
		t.Fatalf("expected ErrSlotConflict on double booking, got %v", err)
	}
}

func TestCreateBookingOutsideAvailability(t *testing.T) {
	store := fixtureStore()
	svc, _, _ := newBookingFixture(store)

	req := validRequest()
	req.Start = time.Date(2026, time.March, 2, 22, 0, 0, 0, time.UTC)
	_, err := svc.Create(testCtx(), req)
	if !errors.Is(err, domain.ErrSlotConflict) {
		t.Fatalf("expected ErrSlotConflict outside the window, got %v", err)
	}
}

func TestCreateBookingValidation(t *testing.T) {
	svc, _, _ := newBookingFixture(fixtureStore())

	cases := []struct {
		name   string
		mutate func(*booking.CreateRequest)
	}{
		{"missing service", func(r *booking.CreateRequest) { r.ServiceID = "" }},
		{"missing start", func(r *booking.CreateRequest) { r.Start = time.Time{} }},
		{"missing customer name", func(r *booking.CreateRequest) { r.Customer.Name = "" }},
		{"missing customer email", func(r *booking.CreateRequest) { r.Customer.Email = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validRequest()
			tc.mutate(&req)
			if _, err := svc.Create(testCtx(), req); !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestCreateBookingUnknownTenant(t *testing.T) {
	store := fixtureStore()
	store.tenants = nil
	svc, _, _ := newBookingFixture(store)

	_, err := svc.Create(testCtx(), validRequest())
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCreateBookingDisabledTenant(t *testing.T) {
	store := fixtureStore()
	store.tenants[0].Enabled = false
	svc, _, _ := newBookingFixture(store)

	_, err := svc.Create(testCtx(), validRequest())
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for disabled tenant, got %v", err)
	}
}

func TestUpdateStatusConfirm(t *testing.T) {
	store := fixtureStore()
	store.tenants[0].ConfirmationPolicy = tenant.ConfirmManual
	svc, queue, bc := newBookingFixture(store)

	b, err := svc.Create(testCtx(), validRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.UpdateStatus(testCtx(), b.ID, "confirmed")
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if updated.Status != booking.StatusConfirmed {
		t.Errorf("status = %s, want confirmed", updated.Status)
	}
	if !slices.Contains(queue.subjects(), messagequeue.SubjectBookingStatus) {
		t.Error("expected bookings.status on the queue")
	}
	if !slices.Contains(bc.eventTypes(), broadcast.EventBookingStatus) {
		t.Error("expected booking.status broadcast")
	}
}

func TestUpdateStatusInvalidTransition(t *testing.T) {
	store := fixtureStore()
	svc, _, _ := newBookingFixture(store)

	b, err := svc.Create(testCtx(), validRequest()) // auto-confirmed
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	// confirmed may not go back to pending.
	if _, err := svc.UpdateStatus(testCtx(), b.ID, "pending"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}

	if _, err := svc.UpdateStatus(testCtx(), b.ID, "completed"); err != nil {
		t.Fatalf("complete: %v", err)
	}
	// Terminal states reject everything.
	if _, err := svc.UpdateStatus(testCtx(), b.ID, "cancelled"); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition from terminal, got %v", err)
	}
}

func TestUpdateStatusUnknownStatus(t *testing.T) {
	svc, _, _ := newBookingFixture(fixtureStore())

	_, err := svc.UpdateStatus(testCtx(), "bk-1", "postponed")
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestUpdateStatusNotFound(t *testing.T) {
	svc, _, _ := newBookingFixture(fixtureStore())

	_, err := svc.UpdateStatus(testCtx(), "bk-missing", "cancelled")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCancelFreesSlotForRebooking(t *testing.T) {
	store := fixtureStore()
	svc, _, bc := newBookingFixture(store)

	b, err := svc.Create(testCtx(), validRequest())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(testCtx(), validRequest()); !errors.Is(err, domain.ErrSlotConflict) {
		t.Fatalf("expected conflict while booked, got %v", err)
	}

	if _, err := svc.UpdateStatus(testCtx(), b.ID, "cancelled"); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	// Cancellation frees the interval and re-announces availability.
	if _, err := svc.Create(testCtx(), validRequest()); err != nil {
		t.Fatalf("rebook after cancel: %v", err)
	}
	if n := len(bc.eventTypes()); n < 3 {
		t.Errorf("expected availability broadcasts for create, cancel and rebook, got %d events", n)
	}
}
