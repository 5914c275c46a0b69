package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bookline/bookline/internal/domain"
	"github.com/bookline/bookline/internal/domain/booking"
	"github.com/bookline/bookline/internal/domain/catalog"
	"github.com/bookline/bookline/internal/domain/resource"
	"github.com/bookline/bookline/internal/domain/tenant"
	"github.com/bookline/bookline/internal/port/broadcast"
	"github.com/bookline/bookline/internal/port/cache"
	"github.com/bookline/bookline/internal/port/database"
	"github.com/bookline/bookline/internal/port/messagequeue"
)

// Ensure the mocks implement their ports at compile time.
var (
	_ database.Store        = (*mockStore)(nil)
	_ cache.Cache           = (*mockCache)(nil)
	_ messagequeue.Queue    = (*mockQueue)(nil)
	_ broadcast.Broadcaster = (*mockBroadcaster)(nil)
)

// mockStore is a minimal in-memory implementation of database.Store for testing.
type mockStore struct {
	mu sync.Mutex

	tenants   []tenant.Tenant
	resources []resource.Resource
	windows   []resource.AvailabilityWindow
	blockouts []resource.Blockout
	services  []catalog.Service
	bookings  []booking.Booking

	// Error hooks. Set these to inject failures.
	getTenantErr     error
	createBookingErr error
	listWindowsErr   error
}

func (m *mockStore) ListTenants(_ context.Context) ([]tenant.Tenant, error) {
	return m.tenants, nil
}

func (m *mockStore) GetTenant(_ context.Context, id string) (*tenant.Tenant, error) {
	if m.getTenantErr != nil {
		return nil, m.getTenantErr
	}
	for i := range m.tenants {
		if m.tenants[i].ID == id {
			return &m.tenants[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) CreateTenant(_ context.Context, req tenant.CreateRequest) (*tenant.Tenant, error) {
	t := tenant.Tenant{
		ID:                 fmt.Sprintf("tenant-%d", len(m.tenants)+1),
		Name:               req.Name,
		Slug:               req.Slug,
		Timezone:           req.Timezone,
		ConfirmationPolicy: req.ConfirmationPolicy,
		SlotGranularityMin: req.SlotGranularityMin,
		Enabled:            true,
	}
	m.tenants = append(m.tenants, t)
	return &t, nil
}

func (m *mockStore) UpdateTenant(_ context.Context, t *tenant.Tenant) error {
	for i := range m.tenants {
		if m.tenants[i].ID == t.ID {
			m.tenants[i] = *t
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) ListResources(_ context.Context) ([]resource.Resource, error) {
	return m.resources, nil
}

func (m *mockStore) GetResource(_ context.Context, id string) (*resource.Resource, error) {
	for i := range m.resources {
		if m.resources[i].ID == id {
			return &m.resources[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) CreateResource(_ context.Context, req resource.CreateRequest) (*resource.Resource, error) {
	r := resource.Resource{
		ID:     fmt.Sprintf("res-%d", len(m.resources)+1),
		Name:   req.Name,
		Active: true,
	}
	m.resources = append(m.resources, r)
	return &r, nil
}

func (m *mockStore) UpdateResource(_ context.Context, r *resource.Resource) error {
	for i := range m.resources {
		if m.resources[i].ID == r.ID {
			m.resources[i] = *r
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) ListWindows(_ context.Context, resourceID string) ([]resource.AvailabilityWindow, error) {
	if m.listWindowsErr != nil {
		return nil, m.listWindowsErr
	}
	var out []resource.AvailabilityWindow
	for _, w := range m.windows {
		if w.ResourceID == resourceID {
			out = append(out, w)
		}
	}
	return out, nil
}

func (m *mockStore) PutWindow(_ context.Context, w *resource.AvailabilityWindow) error {
	for i := range m.windows {
		if m.windows[i].ResourceID == w.ResourceID && m.windows[i].Weekday == w.Weekday {
			m.windows[i] = *w
			return nil
		}
	}
	m.windows = append(m.windows, *w)
	return nil
}

func (m *mockStore) DeleteWindow(_ context.Context, resourceID string, day resource.Weekday) error {
	for i := range m.windows {
		if m.windows[i].ResourceID == resourceID && m.windows[i].Weekday == day {
			m.windows = append(m.windows[:i], m.windows[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) ListBlockouts(_ context.Context, resourceID string, from, to time.Time) ([]resource.Blockout, error) {
	var out []resource.Blockout
	for _, b := range m.blockouts {
		if b.ResourceID == resourceID && b.Start.Before(to) && b.End.After(from) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockStore) CreateBlockout(_ context.Context, b *resource.Blockout) error {
	b.ID = fmt.Sprintf("blk-%d", len(m.blockouts)+1)
	m.blockouts = append(m.blockouts, *b)
	return nil
}

func (m *mockStore) DeleteBlockout(_ context.Context, id string) error {
	for i := range m.blockouts {
		if m.blockouts[i].ID == id {
			m.blockouts = append(m.blockouts[:i], m.blockouts[i+1:]...)
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) ListServices(_ context.Context) ([]catalog.Service, error) {
	return m.services, nil
}

func (m *mockStore) GetService(_ context.Context, id string) (*catalog.Service, error) {
	for i := range m.services {
		if m.services[i].ID == id {
			return &m.services[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) CreateService(_ context.Context, req catalog.CreateRequest) (*catalog.Service, error) {
	s := catalog.Service{
		ID:             fmt.Sprintf("svc-%d", len(m.services)+1),
		Name:           req.Name,
		DurationMin:    req.DurationMin,
		GranularityMin: req.GranularityMin,
		ResourceIDs:    req.ResourceIDs,
	}
	m.services = append(m.services, s)
	return &s, nil
}

func (m *mockStore) UpdateService(_ context.Context, s *catalog.Service) error {
	for i := range m.services {
		if m.services[i].ID == s.ID {
			m.services[i] = *s
			return nil
		}
	}
	return domain.ErrNotFound
}

func (m *mockStore) GetBooking(_ context.Context, id string) (*booking.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.bookings {
		if m.bookings[i].ID == id {
			b := m.bookings[i]
			return &b, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockStore) ListBookings(_ context.Context, resourceID string, from, to time.Time) ([]booking.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []booking.Booking
	for _, b := range m.bookings {
		if b.ResourceID == resourceID && b.Start.Before(to) && b.End.After(from) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (m *mockStore) CountActiveBookings(_ context.Context, resourceID string, from, to time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, b := range m.bookings {
		if b.ResourceID == resourceID && b.Status.Blocks() && b.Start.Before(to) && b.End.After(from) {
			n++
		}
	}
	return n, nil
}

func (m *mockStore) CreateBookingIfFree(_ context.Context, b *booking.Booking) error {
	if m.createBookingErr != nil {
		return m.createBookingErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, other := range m.bookings {
		if other.ResourceID == b.ResourceID && other.Status.Blocks() &&
			other.Start.Before(b.End) && other.End.After(b.Start) {
			return domain.ErrSlotConflict
		}
	}
	b.ID = fmt.Sprintf("bk-%d", len(m.bookings)+1)
	m.bookings = append(m.bookings, *b)
	return nil
}

func (m *mockStore) UpdateBookingStatus(_ context.Context, id string, current, next booking.Status) (*booking.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.bookings {
		if m.bookings[i].ID == id {
			if m.bookings[i].Status != current {
				return nil, domain.ErrInvalidTransition
			}
			m.bookings[i].Status = next
			b := m.bookings[i]
			return &b, nil
		}
	}
	return nil, domain.ErrNotFound
}

// mockCache is a TTL-less in-memory cache for testing.
type mockCache struct {
	mu      sync.Mutex
	entries map[string][]byte
}

func newMockCache() *mockCache {
	return &mockCache{entries: make(map[string][]byte)}
}

func (c *mockCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	data, ok := c.entries[key]
	return data, ok, nil
}

func (c *mockCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = value
	return nil
}

func (c *mockCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// mockQueue records published messages.
type mockQueue struct {
	mu        sync.Mutex
	published []publishedMsg
}

type publishedMsg struct {
	subject string
	data    []byte
}

func (q *mockQueue) Publish(_ context.Context, subject string, data []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.published = append(q.published, publishedMsg{subject: subject, data: data})
	return nil
}

func (q *mockQueue) Subscribe(_ context.Context, _ string, _ messagequeue.Handler) (func(), error) {
	return func() {}, nil
}

func (q *mockQueue) Drain() error      { return nil }
func (q *mockQueue) Close() error      { return nil }
func (q *mockQueue) IsConnected() bool { return true }

func (q *mockQueue) subjects() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]string, len(q.published))
	for i, p := range q.published {
		out[i] = p.subject
	}
	return out
}

// mockBroadcaster records broadcast events.
type mockBroadcaster struct {
	mu     sync.Mutex
	events []broadcastEvent
}

type broadcastEvent struct {
	eventType string
	payload   any
}

func (b *mockBroadcaster) BroadcastEvent(_ context.Context, eventType string, payload any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, broadcastEvent{eventType: eventType, payload: payload})
}

func (b *mockBroadcaster) eventTypes() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.events))
	for i, e := range b.events {
		out[i] = e.eventType
	}
	return out
}
