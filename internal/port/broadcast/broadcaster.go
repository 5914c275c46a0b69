// Package broadcast defines the port for pushing real-time events to
// connected clients, so booking UIs can refresh stale slot lists.
package broadcast

import "context"

// Broadcaster sends real-time events to all connected clients.
type Broadcaster interface {
	// BroadcastEvent sends a typed event to all connected clients.
	BroadcastEvent(ctx context.Context, eventType string, payload any)
}

// Event types emitted by the booking engine.
const (
	// EventAvailabilityChanged signals that a resource's availability
	// changed and cached slot lists for it should be re-queried.
	EventAvailabilityChanged = "availability.changed"
	// EventBookingStatus signals a booking status transition.
	EventBookingStatus = "booking.status"
)

// AvailabilityChangedEvent is the payload for availability.changed. A zero
// Date means the whole weekly template changed rather than a single day.
type AvailabilityChangedEvent struct {
	TenantID   string `json:"tenant_id"`
	ResourceID string `json:"resource_id"`
	ServiceID  string `json:"service_id,omitempty"`
	Date       string `json:"date,omitempty"` // local calendar day, YYYY-MM-DD
}

// EventTenant scopes delivery to a single tenant's connections.
func (e AvailabilityChangedEvent) EventTenant() string { return e.TenantID }

// BookingStatusEvent is the payload for booking.status.
type BookingStatusEvent struct {
	TenantID  string `json:"tenant_id"`
	BookingID string `json:"booking_id"`
	Status    string `json:"status"`
}

// EventTenant scopes delivery to a single tenant's connections.
func (e BookingStatusEvent) EventTenant() string { return e.TenantID }
