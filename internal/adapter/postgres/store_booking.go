package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/bookline/bookline/internal/domain"
	"github.com/bookline/bookline/internal/domain/booking"
)

const bookingCols = `id, tenant_id, service_id, resource_id, customer_name, customer_email,
	customer_phone, start_at, end_at, status, created_at, updated_at`

func scanBooking(row scannable) (booking.Booking, error) {
	var b booking.Booking
	err := row.Scan(&b.ID, &b.TenantID, &b.ServiceID, &b.ResourceID,
		&b.Customer.Name, &b.Customer.Email, &b.Customer.Phone,
		&b.Start, &b.End, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	return b, err
}

func (s *Store) GetBooking(ctx context.Context, id string) (*booking.Booking, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+bookingCols+` FROM bookings WHERE id = $1 AND tenant_id = $2`,
		id, tenantFromCtx(ctx))
	b, err := scanBooking(row)
	if err != nil {
		return nil, notFoundWrap(err, "get booking %s", id)
	}
	return &b, nil
}

func (s *Store) ListBookings(ctx context.Context, resourceID string, from, to time.Time) ([]booking.Booking, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+bookingCols+` FROM bookings
		 WHERE resource_id = $1 AND tenant_id = $2
		   AND start_at < $4 AND end_at > $3
		 ORDER BY start_at`,
		resourceID, tenantFromCtx(ctx), from, to)
	if err != nil {
		return nil, fmt.Errorf("list bookings for %s: %w", resourceID, err)
	}
	defer rows.Close()

	var bookings []booking.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

func (s *Store) CountActiveBookings(ctx context.Context, resourceID string, from, to time.Time) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM bookings
		 WHERE resource_id = $1 AND tenant_id = $2
		   AND status <> 'cancelled'
		   AND start_at < $4 AND end_at > $3`,
		resourceID, tenantFromCtx(ctx), from, to).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count bookings for %s: %w", resourceID, err)
	}
	return n, nil
}

// CreateBookingIfFree runs the atomic check-and-insert. A per-resource
// transaction-scoped advisory lock serializes concurrent writers for the
// same resource, so the overlap re-check and the insert form one unit; the
// bookings_no_overlap exclusion constraint backstops the invariant even if
// a writer bypasses this method. Exactly one of two racing calls commits;
// the other gets domain.ErrSlotConflict.
func (s *Store) CreateBookingIfFree(ctx context.Context, b *booking.Booking) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("create booking: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`, b.ResourceID); err != nil {
		return fmt.Errorf("lock resource %s: %w", b.ResourceID, err)
	}

	var occupied bool
	err = tx.QueryRow(ctx,
		`SELECT EXISTS(
		    SELECT 1 FROM bookings
		    WHERE resource_id = $1
		      AND status <> 'cancelled'
		      AND start_at < $3 AND end_at > $2)`,
		b.ResourceID, b.Start, b.End).Scan(&occupied)
	if err != nil {
		return fmt.Errorf("overlap check for %s: %w", b.ResourceID, err)
	}
	if occupied {
		return fmt.Errorf("resource %s at %s: %w", b.ResourceID, b.Start.Format(time.RFC3339), domain.ErrSlotConflict)
	}

	err = tx.QueryRow(ctx,
		`INSERT INTO bookings
		    (tenant_id, service_id, resource_id, customer_name, customer_email,
		     customer_phone, start_at, end_at, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING id, created_at, updated_at`,
		tenantFromCtx(ctx), b.ServiceID, b.ResourceID,
		b.Customer.Name, b.Customer.Email, b.Customer.Phone,
		b.Start, b.End, b.Status,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if isExclusionViolation(err) {
			return fmt.Errorf("resource %s at %s: %w", b.ResourceID, b.Start.Format(time.RFC3339), domain.ErrSlotConflict)
		}
		return fmt.Errorf("insert booking: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		if isExclusionViolation(err) {
			return fmt.Errorf("resource %s at %s: %w", b.ResourceID, b.Start.Format(time.RFC3339), domain.ErrSlotConflict)
		}
		return fmt.Errorf("create booking: %w", err)
	}
	b.TenantID = tenantFromCtx(ctx)
	return nil
}

// UpdateBookingStatus applies a transition guarded by the expected current
// status, so a concurrent transition cannot be silently overwritten.
func (s *Store) UpdateBookingStatus(ctx context.Context, id string, current, next booking.Status) (*booking.Booking, error) {
	row := s.pool.QueryRow(ctx,
		`UPDATE bookings SET status = $3, updated_at = now()
		 WHERE id = $1 AND tenant_id = $2 AND status = $4
		 RETURNING `+bookingCols,
		id, tenantFromCtx(ctx), next, current)
	b, err := scanBooking(row)
	if err == nil {
		return &b, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("update booking %s: %w", id, err)
	}

	// Distinguish a missing booking from one whose status moved underneath us.
	if _, getErr := s.GetBooking(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, fmt.Errorf("booking %s no longer in status %s: %w", id, current, domain.ErrInvalidTransition)
}
