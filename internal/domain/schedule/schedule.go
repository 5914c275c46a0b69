// Package schedule implements the read path of the booking engine: resolving
// a resource's weekly template and blockouts into free intervals, removing
// occupied bookings, and discretizing what remains into offerable slots.
// Everything here is pure computation; concurrent callers never interfere.
package schedule

import (
	"time"

	"github.com/bookline/bookline/internal/domain/booking"
	"github.com/bookline/bookline/internal/domain/interval"
	"github.com/bookline/bookline/internal/domain/resource"
)

// Slot is a candidate [Start, Start+duration) interval offered for booking,
// tagged with the resource that would fulfill it.
type Slot struct {
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
	ResourceID string    `json:"resource_id"`
}

// Day is one resolved calendar day of a resource's availability: the grid
// anchor, which is the availability window's start instant in UTC, and the
// free intervals remaining inside the query range. The anchor is never
// clipped to the range, so candidate starts stay aligned to the window no
// matter where the query range begins. Two computations over different
// ranges that both cover a given start therefore agree on whether it is a
// grid point.
type Day struct {
	Anchor time.Time
	Free   interval.Set
}

// Resolve expands a resource's weekly availability windows over the query
// range [from, to) into per-day free intervals, subtracting its blockouts.
// Wall-clock window times are anchored on each calendar day in loc, so the
// same template yields different UTC instants across DST transitions.
// Blockouts spanning midnight or multiple days are clipped to the range.
// Days whose window falls outside the range or is fully blocked out are
// omitted.
func Resolve(windows []resource.AvailabilityWindow, blockouts []resource.Blockout, from, to time.Time, loc *time.Location) []Day {
	if !from.Before(to) {
		return nil
	}

	byDay := make(map[resource.Weekday]resource.AvailabilityWindow, len(windows))
	for _, w := range windows {
		if w.Available {
			byDay[w.Weekday] = w
		}
	}

	bounds := interval.Interval{Start: from.UTC(), End: to.UTC()}

	var holes []interval.Interval
	for _, b := range blockouts {
		iv := interval.Interval{Start: b.Start.UTC(), End: b.End.UTC()}.Clip(bounds)
		if !iv.IsEmpty() {
			holes = append(holes, iv)
		}
	}

	var days []Day
	local := from.In(loc)
	year, month, day := local.Date()
	for {
		dayStart := time.Date(year, month, day, 0, 0, 0, 0, loc)
		if !dayStart.Before(to) {
			break
		}
		if w, ok := byDay[resource.WeekdayOf(dayStart.Weekday())]; ok {
			ws := w.Start.On(year, month, day, loc).UTC()
			we := w.End.On(year, month, day, loc).UTC()
			// A start==end window is empty; DST normalization can also
			// collapse a window, in which case it contributes nothing.
			iv := interval.Interval{Start: ws, End: we}.Clip(bounds)
			if !iv.IsEmpty() {
				free := interval.Subtract([]interval.Interval{iv}, holes)
				if len(free) > 0 {
					days = append(days, Day{Anchor: ws, Free: free})
				}
			}
		}
		day++ // time.Date normalizes day overflow into the next month
	}
	return days
}

// SubtractBookings removes the intervals occupied by non-cancelled bookings
// from each day's free set. Pending holds occupy their interval exactly like
// confirmed bookings. Anchors are preserved.
func SubtractBookings(days []Day, bookings []booking.Booking) []Day {
	var occupied []interval.Interval
	for _, b := range bookings {
		if b.Status.Blocks() {
			occupied = append(occupied, interval.Interval{Start: b.Start.UTC(), End: b.End.UTC()})
		}
	}
	if len(occupied) == 0 {
		return days
	}
	out := make([]Day, len(days))
	for i, d := range days {
		out[i] = Day{Anchor: d.Anchor, Free: interval.Subtract(d.Free, occupied)}
	}
	return out
}

// Slots discretizes the free intervals into candidate starts for the given
// resource: a fixed-step walk from each day's anchor, emitting every start
// whose [start, start+duration) lies fully inside the day's free set. The
// walk always starts at the window anchor, not at a free interval's clipped
// edge, so an offered start can be re-derived later from any range covering
// it. Slots may overlap each other; only one of them can ultimately be
// booked.
func Slots(days []Day, resourceID string, duration, step time.Duration) []Slot {
	if duration <= 0 || step <= 0 {
		return nil
	}
	var out []Slot
	for _, d := range days {
		if len(d.Free) == 0 {
			continue
		}
		limit := d.Free[len(d.Free)-1].End
		for s := d.Anchor; !s.Add(duration).After(limit); s = s.Add(step) {
			iv := interval.Interval{Start: s, End: s.Add(duration)}
			if d.Free.Covers(iv) {
				out = append(out, Slot{Start: iv.Start, End: iv.End, ResourceID: resourceID})
			}
		}
	}
	return out
}
