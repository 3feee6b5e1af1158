// Package integration contains tests that drive the rental API over HTTP
// with real handler wiring and a real PostgreSQL database. Kafka and Redis
// are left out; the handlers degrade without them.
//
// Run with:
//
//	go test -v ./test/integration/...
package integration

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"

	"vanrental/internal/admin"
	"vanrental/internal/auth"
	"vanrental/internal/bookings"
	"vanrental/pkg/config"
	"vanrental/pkg/postgres"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// skipIfNoPostgres skips the test when PostgreSQL is unavailable and applies
// the schema migrations otherwise.
func skipIfNoPostgres(t *testing.T) *postgres.Client {
	t.Helper()
	db, err := postgres.New(testPostgresConfig())
	if err != nil {
		t.Skipf("skipping integration test: postgres unavailable: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.Migrate(t.Context(), "../../migrations"); err != nil {
		t.Fatalf("applying migrations: %v", err)
	}
	return db
}

func testPostgresConfig() config.PostgresConfig {
	return config.PostgresConfig{
		Host:            envOrDefault("TEST_POSTGRES_HOST", "localhost"),
		Port:            envOrDefaultInt("TEST_POSTGRES_PORT", 5432),
		Database:        envOrDefault("TEST_POSTGRES_DB", "vanrental_test"),
		User:            envOrDefault("TEST_POSTGRES_USER", "vanrental"),
		Password:        envOrDefault("TEST_POSTGRES_PASSWORD", "localdev"),
		SSLMode:         "disable",
		MaxOpenConns:    5,
		MaxIdleConns:    2,
		ConnMaxLifetime: 5 * time.Minute,
	}
}

// newAPIServer wires the auth, booking, and admin handlers the way the
// server binary does, minus the optional cache and analytics dependencies.
func newAPIServer(t *testing.T, db *postgres.Client) *httptest.Server {
	t.Helper()

	tokens := auth.NewTokenManager(config.AuthConfig{
		JWTSecret: "integration-secret",
		TokenTTL:  time.Hour,
	})
	// Minimum bcrypt cost keeps registration fast in tests.
	authHandler := auth.NewHandler(auth.NewStore(db.DB), tokens, 4)
	bookingsHandler := bookings.NewHandler(bookings.NewStore(db.DB), nil, nil)
	adminHandler := admin.NewHandler(admin.NewStore(db.DB))

	requireAuth := auth.Required(tokens)
	requireAdmin := func(h http.HandlerFunc) http.Handler {
		return requireAuth(adminHandler.RequireAdmin(h))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("GET /api/bookings/availability", bookingsHandler.Availability)
	mux.Handle("POST /api/bookings", requireAuth(http.HandlerFunc(bookingsHandler.Create)))
	mux.Handle("GET /api/bookings", requireAuth(http.HandlerFunc(bookingsHandler.ListMine)))
	mux.Handle("PATCH /api/bookings/{id}/cancel", requireAuth(http.HandlerFunc(bookingsHandler.Cancel)))
	mux.Handle("GET /api/admin/stats", requireAdmin(adminHandler.Stats))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// doRequest issues a JSON request, optionally authenticated.
func doRequest(t *testing.T, method, url, token string, payload any) *http.Response {
	t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshaling payload: %v", err)
		}
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, url, body)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: request failed: %v", method, url, err)
	}
	return resp
}

func uniqueEmail() string {
	return fmt.Sprintf("user-%s@example.com", uuid.NewString()[:8])
}

// registerUser creates an account through the API and returns its token and
// user ID.
func registerUser(t *testing.T, srv *httptest.Server, email string) (string, int64) {
	t.Helper()
	resp := doRequest(t, "POST", srv.URL+"/api/auth/register", "", map[string]string{
		"email":    email,
		"password": "hunter22",
		"name":     "Integration Tester",
	})
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("register: expected 201, got %d: %s", resp.StatusCode, body)
	}
	var out struct {
		User struct {
			ID int64 `json:"id"`
		} `json:"user"`
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decoding register response: %v", err)
	}
	return out.Token, out.User.ID
}

// createTestVan inserts a van directly; the catalog has no unauthenticated
// write path.
func createTestVan(t *testing.T, db *postgres.Client) int64 {
	t.Helper()
	var id int64
	err := db.DB.QueryRowContext(t.Context(),
		`INSERT INTO vans (name, type, capacity, price_per_day)
		 VALUES ($1, 'Cargo', 2, 75) RETURNING id`,
		"Integration Cargo "+uuid.NewString()[:8],
	).Scan(&id)
	if err != nil {
		t.Fatalf("inserting test van: %v", err)
	}
	return id
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

// TestRegisterDuplicateEmailConflict verifies that a taken email answers 409
// and that login checks the password.
func TestRegisterDuplicateEmailConflict(t *testing.T) {
	db := skipIfNoPostgres(t)
	srv := newAPIServer(t, db)

	email := uniqueEmail()
	registerUser(t, srv, email)

	resp := doRequest(t, "POST", srv.URL+"/api/auth/register", "", map[string]string{
		"email":    email,
		"password": "hunter22",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate register: expected 409, got %d", resp.StatusCode)
	}

	resp = doRequest(t, "POST", srv.URL+"/api/auth/login", "", map[string]string{
		"email":    email,
		"password": "hunter22",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("login: expected 200, got %d", resp.StatusCode)
	}

	resp = doRequest(t, "POST", srv.URL+"/api/auth/login", "", map[string]string{
		"email":    email,
		"password": "wrong-password",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad password: expected 401, got %d", resp.StatusCode)
	}
}

// TestBookingOverlapRejected verifies that a second booking overlapping a
// confirmed one answers 409 and that the availability endpoint agrees.
func TestBookingOverlapRejected(t *testing.T) {
	db := skipIfNoPostgres(t)
	srv := newAPIServer(t, db)
	vanID := createTestVan(t, db)

	tokenA, _ := registerUser(t, srv, uniqueEmail())
	tokenB, _ := registerUser(t, srv, uniqueEmail())

	// Anonymous callers cannot book at all.
	resp := doRequest(t, "POST", srv.URL+"/api/bookings", "", map[string]any{
		"van_id": vanID, "start_date": "2030-06-01", "end_date": "2030-06-05",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("anonymous booking: expected 401, got %d", resp.StatusCode)
	}

	resp = doRequest(t, "POST", srv.URL+"/api/bookings", tokenA, map[string]any{
		"van_id": vanID, "start_date": "2030-06-01", "end_date": "2030-06-05",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("first booking: expected 201, got %d", resp.StatusCode)
	}

	resp = doRequest(t, "POST", srv.URL+"/api/bookings", tokenB, map[string]any{
		"van_id": vanID, "start_date": "2030-06-03", "end_date": "2030-06-07",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("overlapping booking: expected 409, got %d", resp.StatusCode)
	}
	var conflictBody map[string]string
	json.NewDecoder(resp.Body).Decode(&conflictBody)
	resp.Body.Close()
	if conflictBody["error"] == "" {
		t.Error("conflict response should carry an error message")
	}

	resp = doRequest(t, "GET", fmt.Sprintf(
		"%s/api/bookings/availability?van_id=%d&start_date=2030-06-03&end_date=2030-06-07",
		srv.URL, vanID), "", nil)
	var avail struct {
		Available bool `json:"available"`
	}
	json.NewDecoder(resp.Body).Decode(&avail)
	resp.Body.Close()
	if avail.Available {
		t.Error("availability should report the overlapping range as taken")
	}

	// A back-to-back range starting the day after checkout is free.
	resp = doRequest(t, "POST", srv.URL+"/api/bookings", tokenB, map[string]any{
		"van_id": vanID, "start_date": "2030-06-06", "end_date": "2030-06-08",
	})
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Errorf("adjacent booking: expected 201, got %d", resp.StatusCode)
	}
}

// TestCancelOwnBookingsOnly verifies that cancellation is owner-only and
// idempotence is rejected.
func TestCancelOwnBookingsOnly(t *testing.T) {
	db := skipIfNoPostgres(t)
	srv := newAPIServer(t, db)
	vanID := createTestVan(t, db)

	tokenA, _ := registerUser(t, srv, uniqueEmail())
	tokenB, _ := registerUser(t, srv, uniqueEmail())

	resp := doRequest(t, "POST", srv.URL+"/api/bookings", tokenA, map[string]any{
		"van_id": vanID, "start_date": "2030-07-01", "end_date": "2030-07-03",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("booking: expected 201, got %d", resp.StatusCode)
	}
	var booking struct {
		ID int64 `json:"id"`
	}
	json.NewDecoder(resp.Body).Decode(&booking)
	resp.Body.Close()

	cancelURL := fmt.Sprintf("%s/api/bookings/%d/cancel", srv.URL, booking.ID)

	resp = doRequest(t, "PATCH", cancelURL, tokenB, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("other user's cancel: expected 403, got %d", resp.StatusCode)
	}

	resp = doRequest(t, "PATCH", cancelURL, tokenA, nil)
	var cancelled struct {
		Status string `json:"status"`
	}
	json.NewDecoder(resp.Body).Decode(&cancelled)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("owner cancel: expected 200, got %d", resp.StatusCode)
	}
	if cancelled.Status != "cancelled" {
		t.Errorf("status = %q, want cancelled", cancelled.Status)
	}

	resp = doRequest(t, "PATCH", cancelURL, tokenA, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("second cancel: expected 400, got %d", resp.StatusCode)
	}
}

// TestAdminStatsRequiresRole verifies that the admin API rejects anonymous
// callers and regular users, and admits an account holding the admin role.
func TestAdminStatsRequiresRole(t *testing.T) {
	db := skipIfNoPostgres(t)
	srv := newAPIServer(t, db)

	resp := doRequest(t, "GET", srv.URL+"/api/admin/stats", "", nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("anonymous: expected 401, got %d", resp.StatusCode)
	}

	token, userID := registerUser(t, srv, uniqueEmail())
	resp = doRequest(t, "GET", srv.URL+"/api/admin/stats", token, nil)
	resp.Body.Close()
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("regular user: expected 403, got %d", resp.StatusCode)
	}

	if _, err := db.DB.ExecContext(t.Context(),
		`UPDATE users SET role = 'admin' WHERE id = $1`, userID); err != nil {
		t.Fatalf("promoting user: %v", err)
	}

	resp = doRequest(t, "GET", srv.URL+"/api/admin/stats", token, nil)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("admin: expected 200, got %d: %s", resp.StatusCode, body)
	}
	var stats map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		t.Fatalf("decoding stats: %v", err)
	}
}

// ---------------------------------------------------------------------------
// Env helpers
// ---------------------------------------------------------------------------

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envOrDefaultInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
