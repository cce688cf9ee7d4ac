// Copyright (c) 2025 Aysel Karaca.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/ayselk/proverbly/cliparse"
	"github.com/ayselk/proverbly/middleware"
	"github.com/ayselk/proverbly/models"
	"github.com/ayselk/proverbly/ratelimit"
)

type LeaderboardHandler struct {
	db      *sql.DB
	cfg     cliparse.Config
	limiter *ratelimit.Limiter
}

func NewLeaderboardHandler(database *sql.DB, cfg cliparse.Config, limiter *ratelimit.Limiter) *LeaderboardHandler {
	return &LeaderboardHandler{db: database, cfg: cfg, limiter: limiter}
}

// List handles GET /api/leaderboard?period=daily|weekly|alltime
// Daily and weekly rank by votes cast inside the window; alltime uses the
// denormalized lifetime counter.
func (h *LeaderboardHandler) List(w http.ResponseWriter, r *http.Request) {
	if !enforceLimit(h.limiter, h.cfg, w, r, "leaderboard", 60, "") {
		return
	}

	period := r.URL.Query().Get("period")
	if period == "" {
		period = "alltime"
	}

	var since time.Time
	switch period {
	case "daily":
		since = time.Now().Add(-24 * time.Hour)
	case "weekly":
		since = time.Now().Add(-7 * 24 * time.Hour)
	case "alltime":
	default:
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid period. Use daily, weekly, or alltime.")
		return
	}

	var rows *sql.Rows
	var err error
	if period == "alltime" {
		rows, err = h.db.Query(`
			SELECT p.id, p.country_code, p.language_name, p.original_text,
			       p.vote_count, pr.display_name
			FROM proverb p
			LEFT JOIN profile pr ON pr.id = p.user_id
			WHERE p.status = 'published' AND p.vote_count > 0
			ORDER BY p.vote_count DESC, p.created_at DESC
			LIMIT 50
		`)
	} else {
		rows, err = h.db.Query(`
			SELECT p.id, p.country_code, p.language_name, p.original_text,
			       COUNT(v.user_id) AS window_votes, pr.display_name
			FROM proverb p
			JOIN vote v ON v.proverb_id = p.id AND v.created_at >= $1
			LEFT JOIN profile pr ON pr.id = p.user_id
			WHERE p.status = 'published'
			GROUP BY p.id, p.country_code, p.language_name, p.original_text,
			         p.created_at, pr.display_name
			ORDER BY window_votes DESC, p.created_at DESC
			LIMIT 50
		`, since)
	}
	if err != nil {
		logQueryError(w, "failed to query leaderboard", err)
		return
	}
	defer rows.Close()

	entries := []models.LeaderboardEntry{}
	for rows.Next() {
		var entry models.LeaderboardEntry
		if err := rows.Scan(&entry.ID, &entry.CountryCode, &entry.LanguageName,
			&entry.OriginalText, &entry.VoteCount, &entry.DisplayName); err != nil {
			logQueryError(w, "failed to scan leaderboard row", err)
			return
		}
		entry.Rank = len(entries) + 1
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		logQueryError(w, "failed to iterate leaderboard rows", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.LeaderboardResponse{Entries: entries})
}
