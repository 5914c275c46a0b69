package ws

import (
	"context"
	"encoding/json"
	"log/slog"
)

// tenantScoped is implemented by events that belong to a single tenant.
// Such events are delivered only to that tenant's connections. The payload
// types in the broadcast port satisfy this.
type tenantScoped interface {
	EventTenant() string
}

// BroadcastEvent marshals a typed event and broadcasts it. Tenant-scoped
// events go only to that tenant's connections; everything else goes to all.
func (h *Hub) BroadcastEvent(ctx context.Context, eventType string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal ws event payload", "type", eventType, "error", err)
		return
	}

	msg := Message{
		Type:    eventType,
		Payload: json.RawMessage(data),
	}

	if scoped, ok := payload.(tenantScoped); ok {
		h.BroadcastToTenant(ctx, scoped.EventTenant(), msg)
		return
	}
	h.Broadcast(ctx, msg)
}
