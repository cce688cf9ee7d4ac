// Copyright (c) 2025 Aysel Karaca.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ayselk/proverbly/auth"
	"github.com/ayselk/proverbly/captcha"
	"github.com/ayselk/proverbly/cliparse"
	"github.com/ayselk/proverbly/db"
	"github.com/ayselk/proverbly/middleware"
	"github.com/ayselk/proverbly/models"
	"github.com/ayselk/proverbly/ratelimit"
)

type ReportHandler struct {
	db       *sql.DB
	cfg      cliparse.Config
	limiter  *ratelimit.Limiter
	verifier *captcha.Verifier
}

func NewReportHandler(database *sql.DB, cfg cliparse.Config, limiter *ratelimit.Limiter, verifier *captcha.Verifier) *ReportHandler {
	return &ReportHandler{db: database, cfg: cfg, limiter: limiter, verifier: verifier}
}

// Status handles GET /api/proverbs/{id}/report
// Tells the caller whether they already have a report on file, so the
// client can disable the report button.
func (h *ReportHandler) Status(w http.ResponseWriter, r *http.Request) {
	proverbID := r.PathValue("id")
	if proverbID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Missing proverb id.")
		return
	}

	userID, accessErr := RequireUser(r, h.cfg)
	if accessErr != nil {
		respondAccessError(w, accessErr)
		return
	}

	if !enforceLimit(h.limiter, h.cfg, w, r, "report-status", 60, userID) {
		return
	}

	var exists bool
	err := h.db.QueryRow(`
		SELECT EXISTS (
			SELECT 1 FROM report WHERE proverb_id = $1 AND reporter_id = $2
		)
	`, proverbID, userID).Scan(&exists)
	if err != nil {
		logQueryError(w, "failed to query report status", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ReportStatusResponse{HasReported: exists})
}

// Submit handles POST /api/proverbs/{id}/report
func (h *ReportHandler) Submit(w http.ResponseWriter, r *http.Request) {
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

	if !enforceLimit(h.limiter, h.cfg, w, r, "report-submit", 8, userID) {
		return
	}

	var req models.SubmitReportRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if err := h.verifier.Require(r, req.CaptchaToken, "report_proverb"); err != nil {
		middleware.ErrorResponse(w, err.Status, err.Message)
		return
	}

	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "A reason is required.")
		return
	}
	if len(reason) > 1000 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Reason is too long.")
		return
	}

	var exists bool
	if err := h.db.QueryRow(`
		SELECT EXISTS (SELECT 1 FROM proverb WHERE id = $1)
	`, proverbID).Scan(&exists); err != nil {
		logQueryError(w, "failed to query proverb", err)
		return
	}
	if !exists {
		middleware.ErrorResponse(w, http.StatusNotFound, "Proverb not found.")
		return
	}

	reportID, err := auth.GenerateID(16)
	if err != nil {
		logQueryError(w, "failed to generate report id", err)
		return
	}

	_, err = h.db.Exec(`
		INSERT INTO report (id, proverb_id, reporter_id, reason, status, created_at)
		VALUES ($1, $2, $3, $4, 'open', $5)
	`, reportID, proverbID, userID, reason, time.Now())
	if err != nil {
		if db.IsUniqueViolation(err) {
			middleware.ErrorResponse(w, http.StatusBadRequest, "You have already reported this proverb.")
			return
		}
		logQueryError(w, "failed to insert report", err)
		return
	}

	slog.Info("report filed", "proverb_id", proverbID, "reporter_id", userID)
	middleware.JSONResponse(w, http.StatusOK, models.OKResponse{OK: true})
}
