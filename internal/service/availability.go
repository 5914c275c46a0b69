package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/bookline/bookline/internal/adapter/otel"
	"github.com/bookline/bookline/internal/config"
	"github.com/bookline/bookline/internal/domain"
	"github.com/bookline/bookline/internal/domain/catalog"
	"github.com/bookline/bookline/internal/domain/schedule"
	"github.com/bookline/bookline/internal/domain/tenant"
	"github.com/bookline/bookline/internal/middleware"
	"github.com/bookline/bookline/internal/port/cache"
	"github.com/bookline/bookline/internal/port/database"
)

// AvailabilityService resolves bookable slots for a service offering by
// expanding weekly templates in the tenant's timezone, subtracting blockouts
// and blocking bookings, and walking the slot grid per resource.
type AvailabilityService struct {
	store   database.Store
	cache   cache.Cache
	metrics *otel.Metrics
	pool    *resolvePool

	maxRangeDays int
	slotTTL      time.Duration
}

// NewAvailabilityService creates a new AvailabilityService. cache and
// metrics may be nil; resolution then runs uncached and unmeasured.
func NewAvailabilityService(store database.Store, c cache.Cache, metrics *otel.Metrics, sched config.Scheduling, slotTTL time.Duration) *AvailabilityService {
	return &AvailabilityService{
		store:        store,
		cache:        c,
		metrics:      metrics,
		pool:         newResolvePool(sched.MaxParallelResources),
		maxRangeDays: sched.MaxRangeDays,
		slotTTL:      slotTTL,
	}
}

// Slots returns every bookable slot for the service over [from, to), merged
// across the resource pool and sorted by start time. A non-empty resourceID
// restricts resolution to that pool member. Results reflect the store at
// some instant within the call; a concurrent booking can invalidate a
// returned slot, which the reservation path then rejects.
func (s *AvailabilityService) Slots(ctx context.Context, serviceID, resourceID string, from, to time.Time) ([]schedule.Slot, error) {
	if !from.Before(to) {
		return nil, fmt.Errorf("from must be before to: %w", domain.ErrValidation)
	}
	if s.maxRangeDays > 0 && to.Sub(from) > time.Duration(s.maxRangeDays)*24*time.Hour {
		return nil, fmt.Errorf("range exceeds %d days: %w", s.maxRangeDays, domain.ErrValidation)
	}

	t, err := s.store.GetTenant(ctx, middleware.TenantIDFromContext(ctx))
	if err != nil {
		return nil, err
	}
	if !t.Enabled {
		return nil, fmt.Errorf("tenant %s is disabled: %w", t.ID, domain.ErrValidation)
	}

	ctx, span := otel.StartResolveSpan(ctx, t.ID, serviceID)
	defer span.End()

	loc, err := t.Location()
	if err != nil {
		return nil, err
	}
	svc, err := s.store.GetService(ctx, serviceID)
	if err != nil {
		return nil, err
	}

	pool := svc.ResourceIDs
	if resourceID != "" {
		if !slices.Contains(svc.ResourceIDs, resourceID) {
			return nil, fmt.Errorf("resource %s is not in the pool of service %s: %w", resourceID, serviceID, domain.ErrValidation)
		}
		pool = []string{resourceID}
	}

	key := slotCacheKey(t.ID, serviceID, resourceID, from, to)
	if s.cache != nil {
		if data, ok, cerr := s.cache.Get(ctx, key); cerr == nil && ok {
			var cached []schedule.Slot
			if json.Unmarshal(data, &cached) == nil {
				if s.metrics != nil {
					s.metrics.CacheHits.Add(ctx, 1)
				}
				return cached, nil
			}
		}
		if s.metrics != nil {
			s.metrics.CacheMisses.Add(ctx, 1)
		}
	}

	started := time.Now()
	duration := svc.Duration()
	step := svc.Granularity(t.SlotGranularityMin)

	results := make([][]schedule.Slot, len(pool))
	g, gctx := errgroup.WithContext(ctx)
	for i, rid := range pool {
		g.Go(func() error {
			return s.pool.run(gctx, func() error {
				slots, rerr := s.resolveResource(gctx, rid, from, to, loc, duration, step)
				if rerr != nil {
					return rerr
				}
				results[i] = slots
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := mergeSlots(results)

	if s.metrics != nil {
		s.metrics.SlotQueries.Add(ctx, 1)
		s.metrics.SlotQueryDuration.Record(ctx, time.Since(started).Seconds())
	}
	if s.cache != nil {
		if data, merr := json.Marshal(merged); merr == nil {
			_ = s.cache.Set(ctx, key, data, s.slotTTL)
		}
	}
	return merged, nil
}

// SelectResource verifies that a slot starting at start is actually offered
// and picks the resource to pin the booking to. It re-derives the slot grid
// over the start's local day; window-anchored grids guarantee this agrees
// with whatever range Slots was queried over. With an explicit requested
// resource only that resource is considered; otherwise the pool member with
// the fewest active bookings on the slot's local day wins, resource ID
// breaking ties. Returns domain.ErrSlotConflict when nothing offers the slot.
func (s *AvailabilityService) SelectResource(ctx context.Context, svc *catalog.Service, t *tenant.Tenant, start time.Time, requested string) (string, error) {
	loc, err := t.Location()
	if err != nil {
		return "", err
	}

	candidates := svc.ResourceIDs
	if requested != "" {
		if !slices.Contains(svc.ResourceIDs, requested) {
			return "", fmt.Errorf("resource %s is not in the pool of service %s: %w", requested, svc.ID, domain.ErrValidation)
		}
		candidates = []string{requested}
	}

	duration := svc.Duration()
	step := svc.Granularity(t.SlotGranularityMin)

	local := start.In(loc)
	y, m, d := local.Date()
	dayStart := time.Date(y, m, d, 0, 0, 0, 0, loc)
	dayEnd := time.Date(y, m, d+1, 0, 0, 0, 0, loc)

	type candidate struct {
		id   string
		load int
	}
	var offered []candidate

	for _, rid := range candidates {
		r, rerr := s.store.GetResource(ctx, rid)
		if rerr != nil {
			if errors.Is(rerr, domain.ErrNotFound) {
				continue // stale pool entry
			}
			return "", rerr
		}
		if !r.Active {
			continue
		}
		days, ferr := s.freeSet(ctx, rid, dayStart, dayEnd, loc)
		if ferr != nil {
			return "", ferr
		}
		if !offersStart(schedule.Slots(days, rid, duration, step), start) {
			continue
		}
		load, lerr := s.store.CountActiveBookings(ctx, rid, dayStart, dayEnd)
		if lerr != nil {
			return "", lerr
		}
		offered = append(offered, candidate{id: rid, load: load})
	}

	if len(offered) == 0 {
		return "", fmt.Errorf("no resource offers a slot at %s: %w", start.Format(time.RFC3339), domain.ErrSlotConflict)
	}

	sort.Slice(offered, func(i, j int) bool {
		if offered[i].load != offered[j].load {
			return offered[i].load < offered[j].load
		}
		return offered[i].id < offered[j].id
	})
	return offered[0].id, nil
}

// resolveResource computes the slot list for one resource. Inactive and
// vanished resources contribute nothing rather than failing the query.
func (s *AvailabilityService) resolveResource(ctx context.Context, resourceID string, from, to time.Time, loc *time.Location, duration, step time.Duration) ([]schedule.Slot, error) {
	r, err := s.store.GetResource(ctx, resourceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !r.Active {
		return nil, nil
	}

	days, err := s.freeSet(ctx, resourceID, from, to, loc)
	if err != nil {
		return nil, err
	}
	return schedule.Slots(days, resourceID, duration, step), nil
}

// freeSet resolves a resource's free intervals over [from, to): weekly
// template expanded in loc, minus blockouts, minus blocking bookings. The
// per-day grid anchors come out of schedule.Resolve so that slot grids are
// identical no matter which range was queried.
func (s *AvailabilityService) freeSet(ctx context.Context, resourceID string, from, to time.Time, loc *time.Location) ([]schedule.Day, error) {
	windows, err := s.store.ListWindows(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	blockouts, err := s.store.ListBlockouts(ctx, resourceID, from, to)
	if err != nil {
		return nil, err
	}
	days := schedule.Resolve(windows, blockouts, from, to, loc)

	bookings, err := s.store.ListBookings(ctx, resourceID, from, to)
	if err != nil {
		return nil, err
	}
	return schedule.SubtractBookings(days, bookings), nil
}

// mergeSlots flattens per-resource slot lists into one list sorted by start
// time, resource ID breaking ties.
func mergeSlots(results [][]schedule.Slot) []schedule.Slot {
	merged := make([]schedule.Slot, 0)
	for _, r := range results {
		merged = append(merged, r...)
	}
	sort.Slice(merged, func(i, j int) bool {
		if !merged[i].Start.Equal(merged[j].Start) {
			return merged[i].Start.Before(merged[j].Start)
		}
		return merged[i].ResourceID < merged[j].ResourceID
	})
	return merged
}

func slotCacheKey(tenantID, serviceID, resourceID string, from, to time.Time) string {
	return fmt.Sprintf("slots:%s:%s:%s:%d:%d", tenantID, serviceID, resourceID, from.Unix(), to.Unix())
}

func offersStart(slots []schedule.Slot, start time.Time) bool {
	for _, sl := range slots {
		if sl.Start.Equal(start) {
			return true
		}
	}
	return false
}
