// Package vans serves the van catalog and generates marketing descriptions
// from van specs.
package vans

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	apperrors "vanrental/pkg/errors"
)

// Van is one catalog row. Specs carries the free-form specs_json column.
type Van struct {
	ID          int64          `json:"id"`
	Type        string         `json:"type"`
	Name        string         `json:"name"`
	Capacity    int            `json:"capacity"`
	Specs       map[string]any `json:"specs_json,omitempty"`
	Description string         `json:"description"`
	PricePerDay float64        `json:"price_per_day"`
	ImageURL    string         `json:"image_url,omitempty"`
}

// Filter narrows List results. Zero values mean "no constraint".
type Filter struct {
	Type        string
	MinCapacity int
	MaxPrice    float64
	Sort        string
}

// Store reads and writes the vans table.
type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

const vanColumns = `id, type, name, capacity, specs_json, COALESCE(description, ''), price_per_day, COALESCE(image_url, '')`

// List returns vans matching the filter, sorted by a whitelisted column
// (price_per_day unless capacity or name is requested).
func (s *Store) List(ctx context.Context, f Filter) ([]Van, error) {
	query := `SELECT ` + vanColumns + ` FROM vans WHERE 1=1`
	params := []any{}
	i := 1
	if f.Type != "" {
		query += fmt.Sprintf(" AND type ILIKE $%d", i)
		params = append(params, "%"+f.Type+"%")
		i++
	}
	if f.MinCapacity > 0 {
		query += fmt.Sprintf(" AND capacity >= $%d", i)
		params = append(params, f.MinCapacity)
		i++
	}
	if f.MaxPrice > 0 {
		query += fmt.Sprintf(" AND price_per_day <= $%d", i)
		params = append(params, f.MaxPrice)
		i++
	}
	sortCol := "price_per_day"
	switch f.Sort {
	case "capacity":
		sortCol = "capacity"
	case "name":
		sortCol = "name"
	}
	query += " ORDER BY " + sortCol + " ASC"

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("listing vans: %w", err)
	}
	defer rows.Close()
	return scanVans(rows)
}

// Get returns a single van by ID.
func (s *Store) Get(ctx context.Context, id int64) (*Van, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+vanColumns+` FROM vans WHERE id = $1`, id)
	van, err := scanVan(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("querying van %d: %w", id, err)
	}
	return van, nil
}

// ListMissingDescriptions returns vans whose description is empty.
func (s *Store) ListMissingDescriptions(ctx context.Context) ([]Van, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+vanColumns+` FROM vans WHERE description IS NULL OR description = ''`)
	if err != nil {
		return nil, fmt.Errorf("listing vans without descriptions: %w", err)
	}
	defer rows.Close()
	return scanVans(rows)
}

// UpdateDescription stores a generated description on a van.
func (s *Store) UpdateDescription(ctx context.Context, id int64, description string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE vans SET description = $1 WHERE id = $2`, description, id)
	if err != nil {
		return fmt.Errorf("updating van description: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func scanVans(rows *sql.Rows) ([]Van, error) {
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
	return vans, nil
}

func scanVan(scan func(dest ...any) error) (*Van, error) {
	var v Van
	var specs []byte
	if err := scan(&v.ID, &v.Type, &v.Name, &v.Capacity, &specs, &v.Description, &v.PricePerDay, &v.ImageURL); err != nil {
		return nil, err
	}
	if len(specs) > 0 {
		if err := json.Unmarshal(specs, &v.Specs); err != nil {
			return nil, fmt.Errorf("decoding specs_json: %w", err)
		}
	}
	return &v, nil
}
