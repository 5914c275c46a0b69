// Package http provides the HTTP handler adapters for the booking API.
package http

import (
	"context"
	"net/http"
	"time"

	"github.com/bookline/bookline/internal/domain/booking"
	"github.com/bookline/bookline/internal/domain/resource"
	"github.com/bookline/bookline/internal/domain/schedule"
	"github.com/bookline/bookline/internal/port/messagequeue"
	"github.com/bookline/bookline/internal/service"
)

// Pinger reports storage liveness, satisfied by pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handlers holds the HTTP handler dependencies.
type Handlers struct {
	Tenants      *service.TenantService
	Resources    *service.ResourceService
	Catalog      *service.CatalogService
	Availability *service.AvailabilityService
	Bookings     *service.BookingService

	DB    Pinger
	Queue messagequeue.Queue
}

// ---------------------------------------------------------------------------
// Health
// ---------------------------------------------------------------------------

// Health reports liveness of the process and its dependencies.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	type health struct {
		Status   string `json:"status"`
		Database string `json:"database"`
		Queue    string `json:"queue"`
	}
	resp := health{Status: "ok", Database: "ok", Queue: "ok"}

	if h.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.DB.Ping(ctx); err != nil {
			resp.Status, resp.Database = "degraded", "unreachable"
		}
	}
	if h.Queue != nil && !h.Queue.IsConnected() {
		resp.Status, resp.Queue = "degraded", "disconnected"
	}

	status := http.StatusOK
	if resp.Status != "ok" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// ---------------------------------------------------------------------------
// Availability
// ---------------------------------------------------------------------------

// ListSlots returns bookable slots for a service over the requested range,
// optionally narrowed to a single pool resource.
// GET /api/v1/services/{id}/slots?from=...&to=...&resource_id=...
func (h *Handlers) ListSlots(w http.ResponseWriter, r *http.Request) {
	from, ok := queryTime(w, r, "from")
	if !ok {
		return
	}
	to, ok := queryTime(w, r, "to")
	if !ok {
		return
	}
	if from.IsZero() || to.IsZero() {
		writeError(w, http.StatusBadRequest, "from and to query parameters are required")
		return
	}

	slots, err := h.Availability.Slots(r.Context(), urlParam(r, "id"), r.URL.Query().Get("resource_id"), from, to)
	if err != nil {
		writeDomainError(w, err, "service not found")
		return
	}
	if slots == nil {
		slots = []schedule.Slot{}
	}
	writeJSON(w, http.StatusOK, slots)
}

// ---------------------------------------------------------------------------
// Bookings
// ---------------------------------------------------------------------------

// CreateBooking reserves a slot.
// POST /api/v1/bookings
func (h *Handlers) CreateBooking(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[booking.CreateRequest](w, r)
	if !ok {
		return
	}
	b, err := h.Bookings.Create(r.Context(), req)
	if err != nil {
		writeDomainError(w, err, "service not found")
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// UpdateBookingStatus drives the booking state machine.
// PATCH /api/v1/bookings/{id}/status
func (h *Handlers) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	type statusRequest struct {
		Status string `json:"status"`
	}
	req, ok := readJSON[statusRequest](w, r)
	if !ok {
		return
	}
	b, err := h.Bookings.UpdateStatus(r.Context(), urlParam(r, "id"), req.Status)
	if err != nil {
		writeDomainError(w, err, "booking not found")
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// ListResourceBookings returns a resource's bookings overlapping a range.
// GET /api/v1/resources/{id}/bookings?from=...&to=...
func (h *Handlers) ListResourceBookings(w http.ResponseWriter, r *http.Request) {
	from, ok := queryTime(w, r, "from")
	if !ok {
		return
	}
	to, ok := queryTime(w, r, "to")
	if !ok {
		return
	}
	if from.IsZero() || to.IsZero() {
		writeError(w, http.StatusBadRequest, "from and to query parameters are required")
		return
	}

	bookings, err := h.Bookings.List(r.Context(), urlParam(r, "id"), from, to)
	if err != nil {
		writeDomainError(w, err, "resource not found")
		return
	}
	if bookings == nil {
		bookings = []booking.Booking{}
	}
	writeJSON(w, http.StatusOK, bookings)
}

// ---------------------------------------------------------------------------
// Availability windows and blockouts
// ---------------------------------------------------------------------------

// ListWindows returns a resource's weekly availability template.
// GET /api/v1/resources/{id}/windows
func (h *Handlers) ListWindows(w http.ResponseWriter, r *http.Request) {
	windows, err := h.Resources.ListWindows(r.Context(), urlParam(r, "id"))
	if err != nil {
		writeDomainError(w, err, "resource not found")
		return
	}
	if windows == nil {
		windows = []resource.AvailabilityWindow{}
	}
	writeJSON(w, http.StatusOK, windows)
}

// PutWindow creates or replaces the window for one weekday.
// PUT /api/v1/resources/{id}/windows
func (h *Handlers) PutWindow(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[resource.WindowRequest](w, r)
	if !ok {
		return
	}
	win, err := h.Resources.PutWindow(r.Context(), urlParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err, "resource not found")
		return
	}
	writeJSON(w, http.StatusOK, win)
}

// DeleteWindow removes the window for one weekday.
// DELETE /api/v1/resources/{id}/windows/{weekday}
func (h *Handlers) DeleteWindow(w http.ResponseWriter, r *http.Request) {
	err := h.Resources.DeleteWindow(r.Context(), urlParam(r, "id"), urlParam(r, "weekday"))
	if err != nil {
		writeDomainError(w, err, "window not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListBlockouts returns a resource's blockouts overlapping a range.
// GET /api/v1/resources/{id}/blockouts?from=...&to=...
func (h *Handlers) ListBlockouts(w http.ResponseWriter, r *http.Request) {
	from, ok := queryTime(w, r, "from")
	if !ok {
		return
	}
	to, ok := queryTime(w, r, "to")
	if !ok {
		return
	}
	if from.IsZero() {
		from = time.Now().UTC()
	}
	if to.IsZero() {
		to = from.AddDate(0, 0, 31)
	}

	blockouts, err := h.Resources.ListBlockouts(r.Context(), urlParam(r, "id"), from, to)
	if err != nil {
		writeDomainError(w, err, "resource not found")
		return
	}
	if blockouts == nil {
		blockouts = []resource.Blockout{}
	}
	writeJSON(w, http.StatusOK, blockouts)
}

// CreateBlockout adds a one-off blocked range to a resource.
// POST /api/v1/resources/{id}/blockouts
func (h *Handlers) CreateBlockout(w http.ResponseWriter, r *http.Request) {
	req, ok := readJSON[resource.BlockoutRequest](w, r)
	if !ok {
		return
	}
	b, err := h.Resources.CreateBlockout(r.Context(), urlParam(r, "id"), req)
	if err != nil {
		writeDomainError(w, err, "resource not found")
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// DeleteBlockout removes a blockout.
// DELETE /api/v1/resources/{id}/blockouts/{blockoutID}
func (h *Handlers) DeleteBlockout(w http.ResponseWriter, r *http.Request) {
	err := h.Resources.DeleteBlockout(r.Context(), urlParam(r, "id"), urlParam(r, "blockoutID"))
	if err != nil {
		writeDomainError(w, err, "blockout not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
