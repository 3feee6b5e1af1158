package recommend

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Van is a catalog row as returned by recommendation queries.
type Van struct {
	ID          int64   `json:"id"`
	Type        string  `json:"type"`
	Name        string  `json:"name"`
	Capacity    int     `json:"capacity"`
	Description string  `json:"description"`
	PricePerDay float64 `json:"price_per_day"`
	ImageURL    string  `json:"image_url,omitempty"`
}

// Recommendation is the response for a need-text query.
type Recommendation struct {
	Vans         []Van    `json:"vans"`
	MatchedTypes []string `json:"matchedTypes"`
	Reason       string   `json:"reason"`
}

// Personalized is the response for a history-based query.
type Personalized struct {
	Vans          []Van  `json:"vans"`
	Reason        string `json:"reason"`
	PreferredType string `json:"preferredType,omitempty"`
}

// HistoryEntry is one past booking with its van attached.
type HistoryEntry struct {
	ID          int64     `json:"id"`
	VanID       int64     `json:"van_id"`
	StartDate   string    `json:"start_date"`
	EndDate     string    `json:"end_date"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	VanName     string    `json:"van_name"`
	VanType     string    `json:"van_type"`
	PricePerDay float64   `json:"price_per_day"`
	ImageURL    string    `json:"image_url,omitempty"`
}

// Service runs recommendation queries against PostgreSQL.
type Service struct {
	db *sql.DB
}

func NewService(db *sql.DB) *Service {
	return &Service{db: db}
}

const vanColumns = `id, type, name, capacity, COALESCE(description, ''), price_per_day, COALESCE(image_url, '')`

// Recommend matches the need text against the rule set and returns vans of
// the top-scoring types, cheapest first. With no rule match it falls back to
// the cheapest vans overall. A non-zero userID with booking history adds a
// personalization note to the reason.
func (s *Service) Recommend(ctx context.Context, needText string, userID int64, limit int) (*Recommendation, error) {
	analysis := AnalyzeNeed(needText)

	if len(analysis.Recommendations) == 0 {
		vans, err := s.cheapestVans(ctx, limit)
		if err != nil {
			return nil, err
		}
		return &Recommendation{
			Vans:         vans,
			MatchedTypes: []string{},
			Reason:       "Here are some popular vans for you",
		}, nil
	}

	topTypes := make([]string, 0, 2)
	for _, ts := range analysis.Recommendations {
		topTypes = append(topTypes, ts.Type)
		if len(topTypes) == 2 {
			break
		}
	}

	query := `SELECT ` + vanColumns + ` FROM vans WHERE type = ANY($1)`
	params := []any{pq.Array(topTypes)}
	i := 2
	if analysis.CapacityFilter.MinCapacity > 0 {
		query += fmt.Sprintf(" AND capacity >= $%d", i)
		params = append(params, analysis.CapacityFilter.MinCapacity)
		i++
	}
	if analysis.CapacityFilter.MaxCapacity > 0 {
		query += fmt.Sprintf(" AND capacity <= $%d", i)
		params = append(params, analysis.CapacityFilter.MaxCapacity)
		i++
	}
	query += fmt.Sprintf(" ORDER BY price_per_day ASC LIMIT $%d", i)
	params = append(params, limit)

	vans, err := s.queryVans(ctx, query, params...)
	if err != nil {
		return nil, err
	}

	// Capacity hints can over-constrain; retry without them, then give up
	// and show the whole catalog.
	if len(vans) == 0 {
		vans, err = s.queryVans(ctx,
			`SELECT `+vanColumns+` FROM vans WHERE type = ANY($1) ORDER BY price_per_day ASC LIMIT $2`,
			pq.Array(topTypes), limit,
		)
		if err != nil {
			return nil, err
		}
		if len(vans) == 0 {
			vans, err = s.cheapestVans(ctx, limit)
			if err != nil {
				return nil, err
			}
			return &Recommendation{
				Vans:         vans,
				MatchedTypes: []string{},
				Reason:       fmt.Sprintf("We recommend these vans for %q", truncateNeed(needText)),
			}, nil
		}
		return &Recommendation{
			Vans:         vans,
			MatchedTypes: topTypes,
			Reason:       fmt.Sprintf("Perfect %s vans for %q", topTypes[0], truncateNeed(needText)),
		}, nil
	}

	reason := fmt.Sprintf("Perfect %s vans for %q", topTypes[0], truncateNeed(needText))
	if userID > 0 {
		var hasHistory bool
		err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM bookings WHERE user_id = $1)`, userID,
		).Scan(&hasHistory)
		if err != nil {
			return nil, fmt.Errorf("checking booking history: %w", err)
		}
		if hasHistory {
			reason += " based on your preferences"
		}
	}

	return &Recommendation{Vans: vans, MatchedTypes: topTypes, Reason: reason}, nil
}

// PersonalizedRecommendations picks the user's most-booked van type and
// returns the cheapest vans of that type. Users without history get the
// cheapest vans overall.
func (s *Service) PersonalizedRecommendations(ctx context.Context, userID int64, limit int) (*Personalized, error) {
	history, err := s.BookingHistory(ctx, userID, 5)
	if err != nil {
		return nil, err
	}

	if len(history) == 0 {
		vans, err := s.cheapestVans(ctx, limit)
		if err != nil {
			return nil, err
		}
		return &Personalized{Vans: vans, Reason: "Popular vans to get you started"}, nil
	}

	typeCounts := make(map[string]int)
	for _, entry := range history {
		typeCounts[entry.VanType]++
	}
	preferredType := ""
	for vanType, count := range typeCounts {
		if preferredType == "" || count > typeCounts[preferredType] ||
			(count == typeCounts[preferredType] && vanType < preferredType) {
			preferredType = vanType
		}
	}

	vans, err := s.queryVans(ctx,
		`SELECT `+vanColumns+` FROM vans WHERE type = $1 ORDER BY price_per_day ASC LIMIT $2`,
		preferredType, limit,
	)
	if err != nil {
		return nil, err
	}

	return &Personalized{
		Vans:          vans,
		Reason:        fmt.Sprintf("Based on your preference for %s vans", preferredType),
		PreferredType: preferredType,
	}, nil
}

// BookingHistory returns the user's most recent bookings with van details.
func (s *Service) BookingHistory(ctx context.Context, userID int64, limit int) ([]HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT b.id, b.van_id,
		        to_char(b.start_date, 'YYYY-MM-DD'), to_char(b.end_date, 'YYYY-MM-DD'),
		        b.status, b.created_at,
		        v.name, v.type, v.price_per_day, COALESCE(v.image_url, '')
		 FROM bookings b
		 JOIN vans v ON v.id = b.van_id
		 WHERE b.user_id = $1
		 ORDER BY b.created_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying booking history: %w", err)
	}
	defer rows.Close()

	history := make([]HistoryEntry, 0)
	for rows.Next() {
		var e HistoryEntry
		if err := rows.Scan(
			&e.ID, &e.VanID, &e.StartDate, &e.EndDate, &e.Status, &e.CreatedAt,
			&e.VanName, &e.VanType, &e.PricePerDay, &e.ImageURL,
		); err != nil {
			return nil, fmt.Errorf("scanning history row: %w", err)
		}
		history = append(history, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating history rows: %w", err)
	}
	return history, nil
}

func (s *Service) cheapestVans(ctx context.Context, limit int) ([]Van, error) {
	return s.queryVans(ctx,
		`SELECT `+vanColumns+` FROM vans ORDER BY price_per_day ASC LIMIT $1`, limit)
}

func (s *Service) queryVans(ctx context.Context, query string, params ...any) ([]Van, error) {
	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("querying recommended vans: %w", err)
	}
	defer rows.Close()

	vans := make([]Van, 0)
	for rows.Next() {
		var v Van
		if err := rows.Scan(&v.ID, &v.Type, &v.Name, &v.Capacity, &v.Description, &v.PricePerDay, &v.ImageURL); err != nil {
			return nil, fmt.Errorf("scanning van row: %w", err)
		}
		vans = append(vans, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating van rows: %w", err)
	}
	return vans, nil
}

func truncateNeed(need string) string {
	if len(need) > 30 {
		return need[:30] + "..."
	}
	return need
}
