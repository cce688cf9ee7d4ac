// Copyright (c) 2025 Aysel Karaca.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ayselk/proverbly/cliparse"
	"github.com/ayselk/proverbly/middleware"
	"github.com/ayselk/proverbly/models"
	"github.com/ayselk/proverbly/ratelimit"
)

// One emoji slot per user per proverb. Toggling the same emoji clears it,
// picking a different one replaces it.
type ReactionHandler struct {
	db      *sql.DB
	cfg     cliparse.Config
	limiter *ratelimit.Limiter
}

func NewReactionHandler(database *sql.DB, cfg cliparse.Config, limiter *ratelimit.Limiter) *ReactionHandler {
	return &ReactionHandler{db: database, cfg: cfg, limiter: limiter}
}

// List handles GET /api/proverbs/{id}/reactions
func (h *ReactionHandler) List(w http.ResponseWriter, r *http.Request) {
	proverbID := r.PathValue("id")
	if proverbID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Missing proverb id.")
		return
	}

	if !enforceLimit(h.limiter, h.cfg, w, r, "proverb-reactions-get", 120, "") {
		return
	}

	rows, err := h.db.Query(`
		SELECT emoji, user_id FROM reaction
		WHERE proverb_id = $1
		ORDER BY created_at
	`, proverbID)
	if err != nil {
		logQueryError(w, "failed to query reactions", err)
		return
	}
	defer rows.Close()

	reactions := []models.Reaction{}
	for rows.Next() {
		var reaction models.Reaction
		if err := rows.Scan(&reaction.Emoji, &reaction.UserID); err != nil {
			logQueryError(w, "failed to scan reaction row", err)
			return
		}
		reactions = append(reactions, reaction)
	}
	if err := rows.Err(); err != nil {
		logQueryError(w, "failed to iterate reaction rows", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ReactionsResponse{Reactions: reactions})
}

// Toggle handles POST /api/proverbs/{id}/reactions
func (h *ReactionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	proverbID := r.PathValue("id")
	if proverbID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Missing proverb id.")
		return
	}

	userID, accessErr := RequireActiveUser(h.db, r, h.cfg)
	if accessErr != nil {
		respondAccessError(w, accessErr)
		return
	}

	if !enforceLimit(h.limiter, h.cfg, w, r, "proverb-reactions-post", 60, userID) {
		return
	}

	var req models.ToggleReactionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	emoji := strings.TrimSpace(req.Emoji)
	if emoji == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Missing emoji.")
		return
	}

	var current string
	err := h.db.QueryRow(`
		SELECT emoji FROM reaction
		WHERE proverb_id = $1 AND user_id = $2
	`, proverbID, userID).Scan(&current)
	if err != nil && err != sql.ErrNoRows {
		logQueryError(w, "failed to query current reaction", err)
		return
	}

	if err == nil && current == emoji {
		if _, err := h.db.Exec(`
			DELETE FROM reaction
			WHERE proverb_id = $1 AND user_id = $2
		`, proverbID, userID); err != nil {
			logQueryError(w, "failed to delete reaction", err)
			return
		}
		middleware.JSONResponse(w, http.StatusOK, models.ToggleReactionResponse{Emoji: nil})
		return
	}

	if _, err := h.db.Exec(`
		INSERT INTO reaction (proverb_id, user_id, emoji, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (proverb_id, user_id) DO UPDATE SET emoji = excluded.emoji
	`, proverbID, userID, emoji, time.Now()); err != nil {
		logQueryError(w, "failed to upsert reaction", err)
		return
	}

	slog.Info("reaction set", "proverb_id", proverbID, "user_id", userID, "emoji", emoji)
	middleware.JSONResponse(w, http.StatusOK, models.ToggleReactionResponse{Emoji: &emoji})
}
