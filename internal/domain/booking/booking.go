// Package booking defines the Booking entity and its status state machine.
package booking

import (
	"fmt"
	"time"

	"github.com/bookline/bookline/internal/domain"
)

// Status represents the current state of a booking.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
	StatusNoShow    Status = "no_show"
)

// ParseStatus validates a string against the status enum.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted, StatusNoShow:
		return Status(s), nil
	}
	return "", fmt.Errorf("unknown booking status %q: %w", s, domain.ErrValidation)
}

// IsTerminal reports whether no further transition may leave this status.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCancelled, StatusCompleted, StatusNoShow:
		return true
	}
	return false
}

// Blocks reports whether a booking in this status occupies its interval.
// A pending hold blocks exactly like a confirmed booking; only cancellation
// frees the interval.
func (s Status) Blocks() bool {
	return s != StatusCancelled
}

// CanTransitionTo reports whether the state machine permits moving from s to
// next. pending → confirmed → {completed | no_show}; anything non-terminal
// → cancelled. No transition re-enters pending.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return false
	}
	switch next {
	case StatusConfirmed:
		return s == StatusPending
	case StatusCompleted, StatusNoShow:
		return s == StatusConfirmed
	case StatusCancelled:
		return !s.IsTerminal()
	}
	return false
}

// Customer identifies who the booking is for.
type Customer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

// Booking ties a customer to one resource and one service for a fixed
// [Start, End) interval. Bookings are never time-shifted in place; a
// reschedule is modeled as cancel + recreate.
type Booking struct {
	ID         string    `json:"id"`
	TenantID   string    `json:"tenant_id,omitempty"`
	ServiceID  string    `json:"service_id"`
	ResourceID string    `json:"resource_id"`
	Customer   Customer  `json:"customer"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CreateRequest holds the fields needed to create a booking. ResourceID may
// be empty, in which case the pool selector pins a resource offering the
// requested start.
type CreateRequest struct {
	ServiceID  string    `json:"service_id"`
	ResourceID string    `json:"resource_id,omitempty"`
	Start      time.Time `json:"start"`
	Customer   Customer  `json:"customer"`
}

// Validate checks the request fields that do not require store access.
func (r *CreateRequest) Validate() error {
	if r.ServiceID == "" {
		return fmt.Errorf("service_id is required: %w", domain.ErrValidation)
	}
	if r.Start.IsZero() {
		return fmt.Errorf("start is required: %w", domain.ErrValidation)
	}
	if r.Customer.Name == "" || r.Customer.Email == "" {
		return fmt.Errorf("customer name and email are required: %w", domain.ErrValidation)
	}
	return nil
}
