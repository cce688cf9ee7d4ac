// Copyright (c) 2025 Aysel Karaca.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"math/rand"
	"net/http"
	"sort"
	"strconv"
	"time"

	"github.com/ayselk/proverbly/auth"
	"github.com/ayselk/proverbly/cliparse"
	"github.com/ayselk/proverbly/middleware"
	"github.com/ayselk/proverbly/models"
	"github.com/ayselk/proverbly/ratelimit"
)

// Every endpoint uses a one-minute fixed window.
const limitWindow = time.Minute

// enforceLimit applies a rate limit and writes the 429 response itself.
// Returns false when the caller should stop. An empty key means the actor
// is anonymous; those buckets are keyed by a salted IP hash, never the raw
// address.
func enforceLimit(l *ratelimit.Limiter, cfg cliparse.Config, w http.ResponseWriter, r *http.Request, name string, max int, key string) bool {
	if key == "" {
		key = auth.HashIP(middleware.GetClientIP(r), cfg.RateLimitSalt)
	}
	err := l.Enforce(r, ratelimit.Options{Name: name, Max: max, Window: limitWindow, Key: key})
	if err == nil {
		return true
	}
	middleware.ErrorResponse(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again shortly.")
	return false
}

// respondAccessError writes an access guard failure.
func respondAccessError(w http.ResponseWriter, err *AccessError) {
	middleware.ErrorResponse(w, err.Status, err.Message)
}

// pageParams reads page/limit query parameters with clamping.
func pageParams(r *http.Request, defaultLimit, maxLimit int) (page, limit int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	if page < 0 {
		page = 0
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit == 0 {
		limit = defaultLimit
	}
	if limit < 1 {
		limit = 1
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	return page, limit
}

// normalizeOptions deduplicates guess options by sort order (first seen
// wins) and returns them sorted. Defends against duplicate rows.
func normalizeOptions(options []models.GuessOption) []models.GuessOption {
	if len(options) == 0 {
		return []models.GuessOption{}
	}

	sorted := make([]models.GuessOption, len(options))
	copy(sorted, options)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].SortOrder < sorted[j].SortOrder
	})

	seen := make(map[int]bool, len(sorted))
	result := make([]models.GuessOption, 0, len(sorted))
	for _, option := range sorted {
		if seen[option.SortOrder] {
			continue
		}
		seen[option.SortOrder] = true
		result = append(result, option)
	}
	return result
}

// shuffleOptions returns a uniformly shuffled copy (Fisher-Yates).
// Correctness flags travel with their option.
func shuffleOptions(options []models.GuessOption) []models.GuessOption {
	shuffled := make([]models.GuessOption, len(options))
	copy(shuffled, options)
	rand.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})
	return shuffled
}

// fetchOptions loads all guess options for a proverb.
func fetchOptions(db *sql.DB, proverbID string) ([]models.GuessOption, error) {
	rows, err := db.Query(`
		SELECT id, proverb_id, option_text, is_correct, sort_order
		FROM guess_option
		WHERE proverb_id = $1
	`, proverbID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var options []models.GuessOption
	for rows.Next() {
		var opt models.GuessOption
		if err := rows.Scan(&opt.ID, &opt.ProverbID, &opt.Text, &opt.IsCorrect, &opt.SortOrder); err != nil {
			return nil, err
		}
		options = append(options, opt)
	}
	return options, rows.Err()
}

// logQueryError logs and writes a 500. For the common tail of handlers.
func logQueryError(w http.ResponseWriter, what string, err error) {
	slog.Error(what, "error", err)
	middleware.ErrorResponse(w, http.StatusInternalServerError, "Database error")
}
