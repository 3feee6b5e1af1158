// Package admin exposes the management surface: dashboard stats, user and
// van administration, and booking oversight. Every route requires the admin
// role.
package admin

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	apperrors "vanrental/pkg/errors"
)

// Stats is the dashboard summary. Revenue counts confirmed bookings only,
// charging every day in the inclusive date range.
type Stats struct {
	Users          int             `json:"users"`
	Vans           int             `json:"vans"`
	Bookings       int             `json:"bookings"`
	Revenue        float64         `json:"revenue"`
	RecentBookings []RecentBooking `json:"recentBookings"`
}

// RecentBooking is one row of the dashboard's latest-bookings panel.
type RecentBooking struct {
	ID          int64     `json:"id"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UserName    string    `json:"user_name"`
	UserEmail   string    `json:"user_email"`
	VanName     string    `json:"van_name"`
	VanType     string    `json:"van_type"`
	PricePerDay float64   `json:"price_per_day"`
}

// User is the admin view of an account.
type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// Van is the admin view of a catalog row.
type Van struct {
	ID          int64          `json:"id"`
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Capacity    int            `json:"capacity"`
	Specs       map[string]any `json:"specs_json,omitempty"`
	Description string         `json:"description"`
	PricePerDay float64        `json:"price_per_day"`
	ImageURL    string         `json:"image_url,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// Booking is the admin view of a booking, joined with user and van details.
type Booking struct {
	ID          int64     `json:"id"`
	UserID      int64     `json:"user_id"`
	VanID       int64     `json:"van_id"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UserName    string    `json:"user_name"`
	UserEmail   string    `json:"user_email"`
	VanName     string    `json:"van_name"`
	VanType     string    `json:"van_type"`
	PricePerDay float64   `json:"price_per_day"`
	ImageURL    string    `json:"image_url,omitempty"`
}

// Page wraps a paged listing.
type Page[T any] struct {
	Items      []T `json:"-"`
	Total      int `json:"total"`
	PageNumber int `json:"page"`
	TotalPages int `json:"totalPages"`
}

// VanUpdate carries the PATCHable van fields. Nil means "leave unchanged".
type VanUpdate struct {
	Name        *string         `json:"name"`
	Type        *string         `json:"type"`
	Capacity    *int            `json:"capacity"`
	PricePerDay *float64        `json:"price_per_day"`
	Description *string         `json:"description"`
	ImageURL    *string         `json:"image_url"`
	Specs       *map[string]any `json:"specs_json"`
}

// UserUpdate carries the PATCHable user fields.
type UserUpdate struct {
	Name  *string `json:"name"`
	Email *string `json:"email"`
	Role  *string `json:"role"`
}

// Store runs the admin queries.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// IsAdmin reports whether the user holds the admin role.
func (s *Store) IsAdmin(ctx context.Context, userID int64) (bool, error) {
	var role string
	err := s.db.QueryRowContext(ctx, `SELECT role FROM users WHERE id = $1`, userID).Scan(&role)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("querying user role: %w", err)
	}
	return role == "admin", nil
}

// DashboardStats aggregates the dashboard counters and the five most recent
// bookings.
func (s *Store) DashboardStats(ctx context.Context) (*Stats, error) {
	var stats Stats
	err := s.db.QueryRowContext(ctx, `
		SELECT
		  (SELECT COUNT(*) FROM users),
		  (SELECT COUNT(*) FROM vans),
		  (SELECT COUNT(*) FROM bookings),
		  (SELECT COALESCE(SUM((end_date - start_date + 1) * v.price_per_day), 0)
		     FROM bookings b JOIN vans v ON v.id = b.van_id
		     WHERE b.status = 'confirmed')`,
	).Scan(&stats.Users, &stats.Vans, &stats.Bookings, &stats.Revenue)
	if err != nil {
		return nil, fmt.Errorf("aggregating dashboard stats: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, to_char(b.start_date, 'YYYY-MM-DD'), to_char(b.end_date, 'YYYY-MM-DD'),
		       b.status, b.created_at,
		       COALESCE(u.name, ''), u.email,
		       v.name, v.type, v.price_per_day
		FROM bookings b
		JOIN users u ON u.id = b.user_id
		JOIN vans v ON v.id = b.van_id
		ORDER BY b.created_at DESC
		LIMIT 5`)
	if err != nil {
		return nil, fmt.Errorf("querying recent bookings: %w", err)
	}
	defer rows.Close()

	stats.RecentBookings = make([]RecentBooking, 0, 5)
	for rows.Next() {
		var rb RecentBooking
		if err := rows.Scan(&rb.ID, &rb.StartDate, &rb.EndDate, &rb.Status, &rb.CreatedAt,
			&rb.UserName, &rb.UserEmail, &rb.VanName, &rb.VanType, &rb.PricePerDay); err != nil {
			return nil, fmt.Errorf("scanning recent booking: %w", err)
		}
		stats.RecentBookings = append(stats.RecentBookings, rb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating recent bookings: %w", err)
	}
	return &stats, nil
}

// ListUsers returns a page of users, optionally filtered by a name/email
// substring.
func (s *Store) ListUsers(ctx context.Context, page, limit int, search string) (*Page[User], error) {
	offset := (page - 1) * limit

	query := `SELECT id, COALESCE(name, ''), email, role, created_at FROM users`
	countQuery := `SELECT COUNT(*) FROM users`
	params := []any{}
	countParams := []any{}
	if search != "" {
		query += ` WHERE name ILIKE $1 OR email ILIKE $1`
		countQuery += ` WHERE name ILIKE $1 OR email ILIKE $1`
		params = append(params, "%"+search+"%")
		countParams = append(countParams, "%"+search+"%")
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(params)+1, len(params)+2)
	params = append(params, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating user rows: %w", err)
	}

	total, err := s.count(ctx, countQuery, countParams...)
	if err != nil {
		return nil, err
	}
	return &Page[User]{Items: users, Total: total, PageNumber: page, TotalPages: totalPages(total, limit)}, nil
}

// UpdateUser applies the non-nil fields. A role outside user/admin is
// ignored.
func (s *Store) UpdateUser(ctx context.Context, id int64, upd UserUpdate) (*User, error) {
	sets := []string{}
	params := []any{}
	i := 1
	if upd.Name != nil && *upd.Name != "" {
		sets = append(sets, fmt.Sprintf("name = $%d", i))
		params = append(params, *upd.Name)
		i++
	}
	if upd.Email != nil && *upd.Email != "" {
		sets = append(sets, fmt.Sprintf("email = $%d", i))
		params = append(params, *upd.Email)
		i++
	}
	if upd.Role != nil && (*upd.Role == "user" || *upd.Role == "admin") {
		sets = append(sets, fmt.Sprintf("role = $%d", i))
		params = append(params, *upd.Role)
		i++
	}
	if len(sets) == 0 {
		return nil, apperrors.ErrInvalidInput
	}
	params = append(params, id)

	var u User
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`UPDATE users SET %s WHERE id = $%d RETURNING id, COALESCE(name, ''), email, role, created_at`,
			strings.Join(sets, ", "), i),
		params...,
	).Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("updating user %d: %w", id, err)
	}
	return &u, nil
}

// DeleteUser removes an account.
func (s *Store) DeleteUser(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting user %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ListVans returns a page of vans, optionally filtered by exact type.
func (s *Store) ListVans(ctx context.Context, page, limit int, vanType string) (*Page[Van], error) {
	offset := (page - 1) * limit

	query := `SELECT id, type, name, capacity, specs_json, COALESCE(description, ''), price_per_day, COALESCE(image_url, ''), created_at FROM vans`
	countQuery := `SELECT COUNT(*) FROM vans`
	params := []any{}
	countParams := []any{}
	if vanType != "" {
		query += ` WHERE type = $1`
		countQuery += ` WHERE type = $1`
		params = append(params, vanType)
		countParams = append(countParams, vanType)
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(params)+1, len(params)+2)
	params = append(params, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("listing vans: %w", err)
	}
	defer rows.Close()

	vans := make([]Van, 0)
	for rows.Next() {
		van, err := scanVan(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning van row: %w", err)
		}
		vans = append(vans, *van)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating van rows: %w", err)
	}

	total, err := s.count(ctx, countQuery, countParams...)
	if err != nil {
		return nil, err
	}
	return &Page[Van]{Items: vans, Total: total, PageNumber: page, TotalPages: totalPages(total, limit)}, nil
}

// CreateVan inserts a new catalog row.
func (s *Store) CreateVan(ctx context.Context, van Van) (*Van, error) {
	specs, err := marshalSpecs(van.Specs)
	if err != nil {
		return nil, err
	}
	row := s.db.QueryRowContext(ctx,
		`INSERT INTO vans (name, type, capacity, price_per_day, description, image_url, specs_json)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, type, name, capacity, specs_json, COALESCE(description, ''), price_per_day, COALESCE(image_url, ''), created_at`,
		van.Name, van.Type, van.Capacity, van.PricePerDay, van.Description, van.ImageURL, specs,
	)
	created, err := scanVan(row.Scan)
	if err != nil {
		return nil, fmt.Errorf("inserting van: %w", err)
	}
	return created, nil
}

// UpdateVan applies the non-nil fields.
func (s *Store) UpdateVan(ctx context.Context, id int64, upd VanUpdate) (*Van, error) {
	sets := []string{}
	params := []any{}
	i := 1
	add := func(col string, val any) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i))
		params = append(params, val)
		i++
	}
	if upd.Name != nil && *upd.Name != "" {
		add("name", *upd.Name)
	}
	if upd.Type != nil && *upd.Type != "" {
		add("type", *upd.Type)
	}
	if upd.Capacity != nil && *upd.Capacity > 0 {
		add("capacity", *upd.Capacity)
	}
	if upd.PricePerDay != nil && *upd.PricePerDay > 0 {
		add("price_per_day", *upd.PricePerDay)
	}
	if upd.Description != nil {
		add("description", *upd.Description)
	}
	if upd.ImageURL != nil {
		add("image_url", *upd.ImageURL)
	}
	if upd.Specs != nil {
		specs, err := marshalSpecs(*upd.Specs)
		if err != nil {
			return nil, err
		}
		add("specs_json", specs)
	}
	if len(sets) == 0 {
		return nil, apperrors.ErrInvalidInput
	}
	params = append(params, id)

	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`UPDATE vans SET %s WHERE id = $%d
		 RETURNING id, type, name, capacity, specs_json, COALESCE(description, ''), price_per_day, COALESCE(image_url, ''), created_at`,
			strings.Join(sets, ", "), i),
		params...,
	)
	van, err := scanVan(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("updating van %d: %w", id, err)
	}
	return van, nil
}

// DeleteVan removes a van unless it still has confirmed bookings.
func (s *Store) DeleteVan(ctx context.Context, id int64) error {
	var active int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM bookings WHERE van_id = $1 AND status = 'confirmed'`, id,
	).Scan(&active)
	if err != nil {
		return fmt.Errorf("checking van bookings: %w", err)
	}
	if active > 0 {
		return apperrors.ErrInvalidInput
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM vans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting van %d: %w", id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ListBookings returns a page of bookings joined with user and van details,
// optionally filtered by status.
func (s *Store) ListBookings(ctx context.Context, page, limit int, status string) (*Page[Booking], error) {
	offset := (page - 1) * limit

	query := `
		SELECT b.id, b.user_id, b.van_id,
		       to_char(b.start_date, 'YYYY-MM-DD'), to_char(b.end_date, 'YYYY-MM-DD'),
		       b.status, b.created_at,
		       COALESCE(u.name, ''), u.email,
		       v.name, v.type, v.price_per_day, COALESCE(v.image_url, '')
		FROM bookings b
		JOIN users u ON u.id = b.user_id
		JOIN vans v ON v.id = b.van_id`
	countQuery := `SELECT COUNT(*) FROM bookings`
	params := []any{}
	countParams := []any{}
	if status != "" {
		query += ` WHERE b.status = $1`
		countQuery += ` WHERE status = $1`
		params = append(params, status)
		countParams = append(countParams, status)
	}
	query += fmt.Sprintf(` ORDER BY b.created_at DESC LIMIT $%d OFFSET $%d`, len(params)+1, len(params)+2)
	params = append(params, limit, offset)

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("listing bookings: %w", err)
	}
	defer rows.Close()

	bookings := make([]Booking, 0)
	for rows.Next() {
		var b Booking
		if err := rows.Scan(&b.ID, &b.UserID, &b.VanID, &b.StartDate, &b.EndDate, &b.Status, &b.CreatedAt,
			&b.UserName, &b.UserEmail, &b.VanName, &b.VanType, &b.PricePerDay, &b.ImageURL); err != nil {
			return nil, fmt.Errorf("scanning booking row: %w", err)
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating booking rows: %w", err)
	}

	total, err := s.count(ctx, countQuery, countParams...)
	if err != nil {
		return nil, err
	}
	return &Page[Booking]{Items: bookings, Total: total, PageNumber: page, TotalPages: totalPages(total, limit)}, nil
}

// UpdateBookingStatus force-sets a booking's status.
func (s *Store) UpdateBookingStatus(ctx context.Context, id int64, status string) (*Booking, error) {
	var b Booking
	err := s.db.QueryRowContext(ctx,
		`UPDATE bookings SET status = $1 WHERE id = $2
		 RETURNING id, user_id, van_id, to_char(start_date, 'YYYY-MM-DD'), to_char(end_date, 'YYYY-MM-DD'), status, created_at`,
		status, id,
	).Scan(&b.ID, &b.UserID, &b.VanID, &b.StartDate, &b.EndDate, &b.Status, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("updating booking %d status: %w", id, err)
	}
	return &b, nil
}

func (s *Store) count(ctx context.Context, query string, params ...any) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, query, params...).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting rows: %w", err)
	}
	return n, nil
}

func totalPages(total, limit int) int {
	if limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

func marshalSpecs(specs map[string]any) ([]byte, error) {
	if specs == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(specs)
	if err != nil {
		return nil, fmt.Errorf("encoding specs_json: %w", err)
	}
	return data, nil
}

func scanVan(scan func(dest ...any) error) (*Van, error) {
	var v Van
	var specs []byte
	if err := scan(&v.ID, &v.Type, &v.Name, &v.Capacity, &specs, &v.Description, &v.PricePerDay, &v.ImageURL, &v.CreatedAt); err != nil {
		return nil, err
	}
	if len(specs) > 0 {
		if err := json.Unmarshal(specs, &v.Specs); err != nil {
			return nil, fmt.Errorf("decoding specs_json: %w", err)
		}
	}
	return &v, nil
}
