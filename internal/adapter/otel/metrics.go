package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "bookline"

// Metrics holds all bookline metric instruments.
type Metrics struct {
	SlotQueries        metric.Int64Counter
	SlotQueryDuration  metric.Float64Histogram
	BookingsCreated    metric.Int64Counter
	BookingConflicts   metric.Int64Counter
	BookingTransitions metric.Int64Counter
	CacheHits          metric.Int64Counter
	CacheMisses        metric.Int64Counter
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.SlotQueries, err = meter.Int64Counter("bookline.slots.queries",
		metric.WithDescription("Number of slot availability queries"))
	if err != nil {
		return nil, err
	}

	m.SlotQueryDuration, err = meter.Float64Histogram("bookline.slots.query_duration_seconds",
		metric.WithDescription("Slot query duration in seconds"))
	if err != nil {
		return nil, err
	}

	m.BookingsCreated, err = meter.Int64Counter("bookline.bookings.created",
		metric.WithDescription("Number of bookings created"))
	if err != nil {
		return nil, err
	}

	m.BookingConflicts, err = meter.Int64Counter("bookline.bookings.conflicts",
		metric.WithDescription("Number of booking attempts rejected due to slot conflicts"))
	if err != nil {
		return nil, err
	}

	m.BookingTransitions, err = meter.Int64Counter("bookline.bookings.transitions",
		metric.WithDescription("Number of booking status transitions"))
	if err != nil {
		return nil, err
	}

	m.CacheHits, err = meter.Int64Counter("bookline.cache.hits",
		metric.WithDescription("Slot cache hits"))
	if err != nil {
		return nil, err
	}

	m.CacheMisses, err = meter.Int64Counter("bookline.cache.misses",
		metric.WithDescription("Slot cache misses"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
