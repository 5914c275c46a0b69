package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// MountRoutes registers all API routes on the given chi router.
func MountRoutes(r chi.Router, h *Handlers) {
	r.Get("/health", h.Health)

	r.Route("/api/v1", func(r chi.Router) {
		// Version
		r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"version":"0.1.0"}`))
		})

		// Tenants
		r.Get("/tenants", handleList(h.Tenants.List))
		r.Post("/tenants", handleCreate(h.Tenants.Create))
		r.Get("/tenants/{id}", handleGet(h.Tenants.Get, "tenant not found"))
		r.Put("/tenants/{id}", handleUpdate(h.Tenants.Update, "tenant not found"))

		// Resources
		r.Get("/resources", handleList(h.Resources.List))
		r.Post("/resources", handleCreate(h.Resources.Create))
		r.Get("/resources/{id}", handleGet(h.Resources.Get, "resource not found"))
		r.Put("/resources/{id}", handleUpdate(h.Resources.Update, "resource not found"))

		// Weekly availability templates
		r.Get("/resources/{id}/windows", h.ListWindows)
		r.Put("/resources/{id}/windows", h.PutWindow)
		r.Delete("/resources/{id}/windows/{weekday}", h.DeleteWindow)

		// Blockouts
		r.Get("/resources/{id}/blockouts", h.ListBlockouts)
		r.Post("/resources/{id}/blockouts", h.CreateBlockout)
		r.Delete("/resources/{id}/blockouts/{blockoutID}", h.DeleteBlockout)

		// Service offerings
		r.Get("/services", handleList(h.Catalog.List))
		r.Post("/services", handleCreate(h.Catalog.Create))
		r.Get("/services/{id}", handleGet(h.Catalog.Get, "service not found"))
		r.Put("/services/{id}", handleUpdate(h.Catalog.Update, "service not found"))

		// Availability
		r.Get("/services/{id}/slots", h.ListSlots)

		// Bookings
		r.Post("/bookings", h.CreateBooking)
		r.Get("/bookings/{id}", handleGet(h.Bookings.Get, "booking not found"))
		r.Patch("/bookings/{id}/status", h.UpdateBookingStatus)
		r.Get("/resources/{id}/bookings", h.ListResourceBookings)
	})
}
