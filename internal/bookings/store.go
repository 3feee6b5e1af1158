// Package bookings implements the booking lifecycle: availability checks,
// creation with date-conflict detection, listing, and cancellation.
package bookings

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	apperrors "vanrental/pkg/errors"
)

// DateFormat is the wire format for booking dates.
const DateFormat = "2006-01-02"

// Booking is one row of the bookings table.
type Booking struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	VanID     int64     `json:"van_id"`
	StartDate string    `json:"start_date"`
	EndDate   string    `json:"end_date"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// UserBooking is a booking joined with the essentials of its van, as shown
// on the "my bookings" page.
type UserBooking struct {
	Booking
	VanName     string  `json:"van_name"`
	VanType     string  `json:"van_type"`
	PricePerDay float64 `json:"price_per_day"`
	ImageURL    string  `json:"image_url,omitempty"`
}

// Store persists bookings in PostgreSQL.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// CountConflicts returns how many non-cancelled bookings of the van overlap
// the [start, end] date range.
func (s *Store) CountConflicts(ctx context.Context, vanID int64, start, end string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings
		 WHERE van_id = $1
		   AND status != 'cancelled'
		   AND start_date <= $2::date
		   AND end_date >= $3::date`,
		vanID, end, start,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting conflicting bookings: %w", err)
	}
	return count, nil
}

// Create inserts a confirmed booking after re-checking availability inside a
// transaction. An overlapping booking maps to ErrDatesUnavailable.
func (s *Store) Create(ctx context.Context, userID, vanID int64, start, end string) (*Booking, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning booking transaction: %w", err)
	}
	defer tx.Rollback()

	var conflicts int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings
		 WHERE van_id = $1
		   AND status != 'cancelled'
		   AND start_date <= $2::date
		   AND end_date >= $3::date`,
		vanID, end, start,
	).Scan(&conflicts)
	if err != nil {
		return nil, fmt.Errorf("checking availability: %w", err)
	}
	if conflicts > 0 {
		return nil, apperrors.ErrDatesUnavailable
	}

	var b Booking
	err = tx.QueryRowContext(ctx,
		`INSERT INTO bookings (user_id, van_id, start_date, end_date, status)
		 VALUES ($1, $2, $3::date, $4::date, 'confirmed')
		 RETURNING id, user_id, van_id, to_char(start_date, 'YYYY-MM-DD'), to_char(end_date, 'YYYY-MM-DD'), status, created_at`,
		userID, vanID, start, end,
	).Scan(&b.ID, &b.UserID, &b.VanID, &b.StartDate, &b.EndDate, &b.Status, &b.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing booking: %w", err)
	}
	return &b, nil
}

// ListByUser returns the user's bookings, newest first, joined with van
// details.
func (s *Store) ListByUser(ctx context.Context, userID int64) ([]UserBooking, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT b.id, b.user_id, b.van_id,
		        to_char(b.start_date, 'YYYY-MM-DD'), to_char(b.end_date, 'YYYY-MM-DD'),
		        b.status, b.created_at,
		        v.name, v.type, v.price_per_day, COALESCE(v.image_url, '')
		 FROM bookings b
		 JOIN vans v ON v.id = b.van_id
		 WHERE b.user_id = $1
		 ORDER BY b.created_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]UserBooking, 0)
	for rows.Next() {
		var ub UserBooking
		if err := rows.Scan(
			&ub.ID, &ub.UserID, &ub.VanID,
			&ub.StartDate, &ub.EndDate,
			&ub.Status, &ub.CreatedAt,
			&ub.VanName, &ub.VanType, &ub.PricePerDay, &ub.ImageURL,
		); err != nil {
			return nil, fmt.Errorf("scanning booking row: %w", err)
		}
		bookings = append(bookings, ub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating booking rows: %w", err)
	}
	return bookings, nil
}

// Cancel marks a booking cancelled. Only the owner may cancel, and only
// once.
func (s *Store) Cancel(ctx context.Context, bookingID, userID int64) (*Booking, error) {
	var ownerID int64
	var status string
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, status FROM bookings WHERE id = $1`, bookingID,
	).Scan(&ownerID, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("querying booking %d: %w", bookingID, err)
	}
	if ownerID != userID {
		return nil, apperrors.ErrForbidden
	}
	if status == "cancelled" {
		return nil, apperrors.ErrAlreadyCancelled
	}

	var b Booking
	err = s.db.QueryRowContext(ctx,
		`UPDATE bookings SET status = 'cancelled'
		 WHERE id = $1
		 RETURNING id, user_id, van_id, to_char(start_date, 'YYYY-MM-DD'), to_char(end_date, 'YYYY-MM-DD'), status, created_at`,
		bookingID,
	).Scan(&b.ID, &b.UserID, &b.VanID, &b.StartDate, &b.EndDate, &b.Status, &b.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("cancelling booking %d: %w", bookingID, err)
	}
	return &b, nil
}
