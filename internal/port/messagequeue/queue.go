// Package messagequeue defines the message queue port (interface).
package messagequeue

import "context"

// Handler processes a message received from the queue.
type Handler func(ctx context.Context, subject string, data []byte) error

// Queue is the port interface for publishing and subscribing to messages.
// Notification delivery and analytics consume these events; they are
// external collaborators of the scheduling core.
type Queue interface {
	// Publish sends a message to the given subject.
	Publish(ctx context.Context, subject string, data []byte) error

	// Subscribe registers a handler for messages on the given subject.
	// The returned function cancels the subscription.
	Subscribe(ctx context.Context, subject string, handler Handler) (cancel func(), err error)

	// Drain gracefully drains all subscriptions before closing.
	Drain() error

	// Close shuts down the queue connection immediately.
	Close() error

	// IsConnected reports whether the queue is currently connected.
	IsConnected() bool
}

// Subject constants for booking lifecycle events.
const (
	// SubjectBookingCreated carries a booking.Booking after a successful
	// reservation commit.
	SubjectBookingCreated = "bookings.created"
	// SubjectBookingStatus carries a booking.Booking after every status
	// transition (confirm, cancel, complete, no-show).
	SubjectBookingStatus = "bookings.status"
)
