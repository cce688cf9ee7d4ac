// Copyright (c) 2025 Aysel Karaca.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/ayselk/proverbly/cliparse"
	"github.com/ayselk/proverbly/middleware"
	"github.com/ayselk/proverbly/models"
	"github.com/ayselk/proverbly/ratelimit"
)

type VoteHandler struct {
	db      *sql.DB
	cfg     cliparse.Config
	limiter *ratelimit.Limiter
}

func NewVoteHandler(database *sql.DB, cfg cliparse.Config, limiter *ratelimit.Limiter) *VoteHandler {
	return &VoteHandler{db: database, cfg: cfg, limiter: limiter}
}

// Toggle handles POST /api/proverbs/{id}/vote
// Adds or removes the caller's vote and keeps the denormalized vote_count
// on the proverb in step, inside one transaction.
func (h *VoteHandler) Toggle(w http.ResponseWriter, r *http.Request) {
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

	if !enforceLimit(h.limiter, h.cfg, w, r, "proverb-vote", 60, userID) {
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		logQueryError(w, "failed to begin vote transaction", err)
		return
	}
	defer tx.Rollback()

	var exists bool
	err = tx.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM vote WHERE proverb_id = $1 AND user_id = $2
		)
	`, proverbID, userID).Scan(&exists)
	if err != nil {
		logQueryError(w, "failed to query vote", err)
		return
	}

	voted := !exists
	if exists {
		if _, err := tx.Exec(`
			DELETE FROM vote WHERE proverb_id = $1 AND user_id = $2
		`, proverbID, userID); err != nil {
			logQueryError(w, "failed to delete vote", err)
			return
		}
		// The vote_count > 0 guard keeps the counter from drifting negative.
		if _, err := tx.Exec(`
			UPDATE proverb SET vote_count = vote_count - 1
			WHERE id = $1 AND vote_count > 0
		`, proverbID); err != nil {
			logQueryError(w, "failed to decrement vote count", err)
			return
		}
	} else {
		if _, err := tx.Exec(`
			INSERT INTO vote (proverb_id, user_id, created_at)
			VALUES ($1, $2, $3)
		`, proverbID, userID, time.Now()); err != nil {
			logQueryError(w, "failed to insert vote", err)
			return
		}
		if _, err := tx.Exec(`
			UPDATE proverb SET vote_count = vote_count + 1 WHERE id = $1
		`, proverbID); err != nil {
			logQueryError(w, "failed to increment vote count", err)
			return
		}
	}

	var voteCount int
	err = tx.QueryRow(`
		SELECT vote_count FROM proverb WHERE id = $1
	`, proverbID).Scan(&voteCount)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Proverb not found.")
		return
	}
	if err != nil {
		logQueryError(w, "failed to query vote count", err)
		return
	}

	if err := tx.Commit(); err != nil {
		logQueryError(w, "failed to commit vote transaction", err)
		return
	}

	slog.Info("vote toggled", "proverb_id", proverbID, "user_id", userID, "voted", voted)
	middleware.JSONResponse(w, http.StatusOK, models.ToggleVoteResponse{Voted: voted, VoteCount: voteCount})
}
