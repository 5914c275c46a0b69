// Package interval implements set operations on half-open [start, end) time
// intervals. A Set is always kept sorted ascending, non-overlapping and
// minimal (no two adjacent or overlapping members). Every layer of the
// availability pipeline builds on these operations.
package interval

import (
	"sort"
	"time"
)

// Interval is a half-open time range [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// IsEmpty reports whether the interval covers no time at all.
func (iv Interval) IsEmpty() bool {
	return !iv.Start.Before(iv.End)
}

// Duration returns End - Start, or zero for empty intervals.
func (iv Interval) Duration() time.Duration {
	if iv.IsEmpty() {
		return 0
	}
	return iv.End.Sub(iv.Start)
}

// Overlaps reports whether two half-open intervals share any instant.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && other.Start.Before(iv.End)
}

// Contains reports whether t falls inside [Start, End).
func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.Start) && t.Before(iv.End)
}

// Clip returns the part of iv that lies within bounds. The result may be empty.
func (iv Interval) Clip(bounds Interval) Interval {
	out := iv
	if out.Start.Before(bounds.Start) {
		out.Start = bounds.Start
	}
	if out.End.After(bounds.End) {
		out.End = bounds.End
	}
	return out
}

// Set is an ordered, non-overlapping sequence of intervals. The zero value
// is an empty set. Construct from arbitrary input with Normalize.
type Set []Interval

// Normalize sorts the given intervals, drops empty ones and merges any that
// overlap or touch. The input slice is not modified.
func Normalize(ivs []Interval) Set {
	tmp := make([]Interval, 0, len(ivs))
	for _, iv := range ivs {
		if !iv.IsEmpty() {
			tmp = append(tmp, iv)
		}
	}
	sort.Slice(tmp, func(i, j int) bool { return tmp[i].Start.Before(tmp[j].Start) })

	var out Set
	for _, iv := range tmp {
		last := len(out) - 1
		// Merge adjacent or overlapping intervals.
		if last >= 0 && !iv.Start.After(out[last].End) {
			if iv.End.After(out[last].End) {
				out[last].End = iv.End
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}

// Subtract returns a with every sub-interval overlapping any member of b
// removed, splitting members of a as needed. Neither argument needs to be
// normalized; the result always is.
func Subtract(a, b []Interval) Set {
	na := Normalize(a)
	nb := Normalize(b)
	if len(na) == 0 || len(nb) == 0 {
		return na
	}

	var out Set
	j := 0
	for _, iv := range na {
		cur := iv
		// Skip subtrahends that end before the current interval starts.
		for j < len(nb) && !nb[j].End.After(cur.Start) {
			j++
		}
		for k := j; k < len(nb) && nb[k].Start.Before(cur.End); k++ {
			hole := nb[k]
			if hole.Start.After(cur.Start) {
				out = append(out, Interval{Start: cur.Start, End: hole.Start})
			}
			if hole.End.After(cur.Start) {
				cur.Start = hole.End
			}
			if cur.IsEmpty() {
				break
			}
		}
		if !cur.IsEmpty() {
			out = append(out, cur)
		}
	}
	return out
}

// Intersect returns the set of instants present in both a and b.
func Intersect(a, b []Interval) Set {
	na := Normalize(a)
	nb := Normalize(b)

	var out Set
	i, j := 0, 0
	for i < len(na) && j < len(nb) {
		if na[i].Overlaps(nb[j]) {
			iv := na[i].Clip(nb[j])
			if !iv.IsEmpty() {
				out = append(out, iv)
			}
		}
		// Advance whichever interval ends first.
		if na[i].End.Before(nb[j].End) {
			i++
		} else {
			j++
		}
	}
	return out
}

// Covers reports whether iv lies entirely within a single member of s.
// Empty intervals are trivially covered.
func (s Set) Covers(iv Interval) bool {
	if iv.IsEmpty() {
		return true
	}
	for _, m := range s {
		if m.Start.After(iv.Start) {
			return false
		}
		if !iv.End.After(m.End) {
			return true
		}
	}
	return false
}

// TotalDuration returns the summed duration of all members.
func (s Set) TotalDuration() time.Duration {
	var d time.Duration
	for _, iv := range s {
		d += iv.Duration()
	}
	return d
}
