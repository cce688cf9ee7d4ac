// Copyright (c) 2025 Aysel Karaca.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/ayselk/proverbly/auth"
	"github.com/ayselk/proverbly/cliparse"
	"github.com/ayselk/proverbly/db"
)

// SetupTestDB creates a fresh in-memory database with the full schema.
// Each call gets its own database, so tests never share state.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	conn, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	// In-memory sqlite lives and dies with one connection.
	conn.SetMaxOpenConns(1)

	if err := db.CreateSchema(conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:            3419,
		DatabaseURL:     ":memory:",
		DatabaseType:    "sqlite",
		SessionSecret:   "test-session-secret",
		RateLimitSalt:   "test-ratelimit-salt",
		CaptchaProvider: "turnstile",
		CaptchaMode:     cliparse.CaptchaMonitor,
		AuthBaseURL:     "http://localhost:3000",
	}
}

// CreateTestUser inserts a profile and returns its id.
// role should be "user", "moderator", or "admin".
func CreateTestUser(t *testing.T, conn *sql.DB, role string) string {
	t.Helper()

	userID, _ := auth.GenerateID(16)
	_, err := conn.Exec(`
		INSERT INTO profile (id, display_name, email, role, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, userID, "Tester "+userID[:6], userID[:8]+"@example.com", role, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return userID
}

// BanTestUser marks a profile as banned.
func BanTestUser(t *testing.T, conn *sql.DB, userID string) {
	t.Helper()

	if _, err := conn.Exec(`
		UPDATE profile SET banned_at = $1 WHERE id = $2
	`, time.Now(), userID); err != nil {
		t.Fatalf("Failed to ban test user: %v", err)
	}
}

// SessionFor returns a signed session token for the user.
func SessionFor(t *testing.T, cfg cliparse.Config, userID string) string {
	t.Helper()

	token, err := auth.SignSession(userID, userID[:8]+"@example.com", cfg.SessionSecret)
	if err != nil {
		t.Fatalf("Failed to sign test session: %v", err)
	}
	return token
}

// CreateTestProverb inserts a proverb and returns its id.
// status should be "pending", "published", "rejected", "flagged", or "draft".
func CreateTestProverb(t *testing.T, conn *sql.DB, userID, status string) string {
	t.Helper()

	proverbID := uuid.NewString()
	_, err := conn.Exec(`
		INSERT INTO proverb (id, user_id, country_code, region, language_name,
		                     original_text, literal_text, meaning_text, status, created_at)
		VALUES ($1, $2, 'TR', NULL, 'Turkish',
		        'Damlaya damlaya göl olur.', 'Drop by drop, a lake forms.',
		        'Small savings add up.', $3, $4)
	`, proverbID, userID, status, time.Now())
	if err != nil {
		t.Fatalf("Failed to create test proverb: %v", err)
	}

	return proverbID
}

// AddTestOptions inserts the standard four guess options (sort 0 correct)
// and returns their ids in sort order.
func AddTestOptions(t *testing.T, conn *sql.DB, proverbID string) []string {
	t.Helper()

	texts := []string{
		"Small savings add up.",
		"Haste makes waste.",
		"Still waters run deep.",
		"The early bird gets the worm.",
	}
	ids := make([]string, 0, len(texts))
	for i, text := range texts {
		optionID := uuid.NewString()
		_, err := conn.Exec(`
			INSERT INTO guess_option (id, proverb_id, option_text, is_correct, sort_order)
			VALUES ($1, $2, $3, $4, $5)
		`, optionID, proverbID, text, i == 0, i)
		if err != nil {
			t.Fatalf("Failed to create test option: %v", err)
		}
		ids = append(ids, optionID)
	}

	return ids
}

// CreateTestGuess records a stored guess for the user.
func CreateTestGuess(t *testing.T, conn *sql.DB, userID, proverbID, optionID string, isCorrect bool) {
	t.Helper()

	if _, err := conn.Exec(`
		INSERT INTO guess (user_id, proverb_id, selected_option, is_correct, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, userID, proverbID, optionID, isCorrect, time.Now()); err != nil {
		t.Fatalf("Failed to create test guess: %v", err)
	}
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AuthHeader returns the Authorization header map for a session token.
func AuthHeader(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
