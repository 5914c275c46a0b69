// Package resource defines bookable resources, their recurring weekly
// availability windows and one-off blockouts.
package resource

import (
	"fmt"
	"time"

	"github.com/bookline/bookline/internal/domain"
)

// Resource is a bookable entity: a professional or a physical asset.
// Resources are deactivated, never hard-deleted.
type Resource struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id,omitempty"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateRequest holds the fields required to create a resource.
type CreateRequest struct {
	Name string `json:"name"`
}

// UpdateRequest holds the fields that can be updated on a resource.
type UpdateRequest struct {
	Name   string `json:"name,omitempty"`
	Active *bool  `json:"active,omitempty"`
}

// Weekday is a fixed enumeration of the seven weekdays. Using a closed enum
// instead of an open map removes a class of "missing day" bugs.
type Weekday string

const (
	Monday    Weekday = "monday"
	Tuesday   Weekday = "tuesday"
	Wednesday Weekday = "wednesday"
	Thursday  Weekday = "thursday"
	Friday    Weekday = "friday"
	Saturday  Weekday = "saturday"
	Sunday    Weekday = "sunday"
)

// Weekdays lists all seven variants in calendar order.
var Weekdays = []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}

var fromTime = map[time.Weekday]Weekday{
	time.Monday:    Monday,
	time.Tuesday:   Tuesday,
	time.Wednesday: Wednesday,
	time.Thursday:  Thursday,
	time.Friday:    Friday,
	time.Saturday:  Saturday,
	time.Sunday:    Sunday,
}

// WeekdayOf converts a time.Weekday into the domain enum.
func WeekdayOf(d time.Weekday) Weekday {
	return fromTime[d]
}

// ParseWeekday validates a string against the enum.
func ParseWeekday(s string) (Weekday, error) {
	for _, d := range Weekdays {
		if s == string(d) {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown weekday %q: %w", s, domain.ErrValidation)
}

// TimeOfDay is a wall-clock time within a day, interpreted in the tenant's
// timezone on the resolution date.
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// ParseTimeOfDay parses "HH:MM" (leading portion of longer strings such as
// "09:00:00" is accepted).
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	if len(s) > 5 {
		s = s[:5]
	}
	t, err := time.Parse("15:04", s)
	if err != nil {
		return TimeOfDay{}, fmt.Errorf("time of day %q: %w", s, domain.ErrValidation)
	}
	return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
}

// String renders the wall time as "HH:MM".
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Before reports whether t is strictly earlier in the day than other.
func (t TimeOfDay) Before(other TimeOfDay) bool {
	if t.Hour != other.Hour {
		return t.Hour < other.Hour
	}
	return t.Minute < other.Minute
}

// On anchors the wall time on the given calendar date in loc. DST gaps are
// normalized by the time package (a 02:30 start on a spring-forward day
// resolves to the instant the clock actually reaches).
func (t TimeOfDay) On(year int, month time.Month, day int, loc *time.Location) time.Time {
	return time.Date(year, month, day, t.Hour, t.Minute, 0, 0, loc)
}

// AvailabilityWindow is one entry of a resource's recurring weekly working
// hours template. At most one window per (resource, weekday) is active.
// A window with Start == End is empty, not all-day.
type AvailabilityWindow struct {
	ID         string    `json:"id"`
	ResourceID string    `json:"resource_id"`
	Weekday    Weekday   `json:"weekday"`
	Start      TimeOfDay `json:"start"`
	End        TimeOfDay `json:"end"`
	Available  bool      `json:"available"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Validate checks the window invariants.
func (w *AvailabilityWindow) Validate() error {
	if _, err := ParseWeekday(string(w.Weekday)); err != nil {
		return err
	}
	if w.Available && !w.Start.Before(w.End) {
		return fmt.Errorf("window start %s must be before end %s: %w", w.Start, w.End, domain.ErrValidation)
	}
	return nil
}

// WindowRequest holds the fields to create or replace an availability window.
type WindowRequest struct {
	Weekday   string `json:"weekday"`
	Start     string `json:"start"` // "HH:MM"
	End       string `json:"end"`   // "HH:MM"
	Available bool   `json:"available"`
}

// Blockout is a one-off absolute time range removed from a resource's
// availability regardless of the weekly template.
type Blockout struct {
	ID          string    `json:"id"`
	ResourceID  string    `json:"resource_id"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Validate checks the blockout invariants.
func (b *Blockout) Validate() error {
	if !b.Start.Before(b.End) {
		return fmt.Errorf("blockout start must be before end: %w", domain.ErrValidation)
	}
	return nil
}

// BlockoutRequest holds the fields to create a blockout.
type BlockoutRequest struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Description string    `json:"description,omitempty"`
}
