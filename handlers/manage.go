// Copyright (c) 2025 Aysel Karaca.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/ayselk/proverbly/cliparse"
	"github.com/ayselk/proverbly/middleware"
	"github.com/ayselk/proverbly/models"
	"github.com/ayselk/proverbly/ratelimit"
)

// ManageHandler serves the moderation dashboard. Every mutation here
// writes a mod_action audit row; a mutation whose audit write fails is
// rolled back rather than left unlogged.
type ManageHandler struct {
	db      *sql.DB
	cfg     cliparse.Config
	limiter *ratelimit.Limiter
}

func NewManageHandler(database *sql.DB, cfg cliparse.Config, limiter *ratelimit.Limiter) *ManageHandler {
	return &ManageHandler{db: database, cfg: cfg, limiter: limiter}
}

// Pending handles GET /api/manage/pending
// Oldest submissions first, so the queue drains in arrival order.
func (h *ManageHandler) Pending(w http.ResponseWriter, r *http.Request) {
	modID, _, accessErr := RequireAdminOrMod(h.db, r, h.cfg)
	if accessErr != nil {
		respondAccessError(w, accessErr)
		return
	}

	if !enforceLimit(h.limiter, h.cfg, w, r, "manage-pending", 60, modID) {
		return
	}

	rows, err := h.db.Query(`
		SELECT p.id, p.original_text, p.literal_text, p.meaning_text,
		       p.country_code, p.language_name, p.status, p.created_at,
		       pr.display_name
		FROM proverb p
		LEFT JOIN profile pr ON pr.id = p.user_id
		WHERE p.status = 'pending'
		ORDER BY p.created_at ASC
		LIMIT 100
	`)
	if err != nil {
		logQueryError(w, "failed to query pending proverbs", err)
		return
	}
	defer rows.Close()

	proverbs := []models.PendingProverb{}
	for rows.Next() {
		var p models.PendingProverb
		if err := rows.Scan(&p.ID, &p.OriginalText, &p.LiteralText, &p.MeaningText,
			&p.CountryCode, &p.LanguageName, &p.Status, &p.CreatedAt, &p.DisplayName); err != nil {
			logQueryError(w, "failed to scan pending proverb", err)
			return
		}
		proverbs = append(proverbs, p)
	}
	if err := rows.Err(); err != nil {
		logQueryError(w, "failed to iterate pending proverbs", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.PendingResponse{Proverbs: proverbs})
}

// Approve handles POST /api/manage/proverbs/{id}/approve
func (h *ManageHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, models.StatusPublished, models.ActionApprove)
}

// Reject handles POST /api/manage/proverbs/{id}/reject
func (h *ManageHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.review(w, r, models.StatusRejected, models.ActionReject)
}

func (h *ManageHandler) review(w http.ResponseWriter, r *http.Request, newStatus, action string) {
	proverbID := r.PathValue("id")
	if proverbID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Missing proverb id.")
		return
	}

	modID, _, accessErr := RequireAdminOrMod(h.db, r, h.cfg)
	if accessErr != nil {
		respondAccessError(w, accessErr)
		return
	}

	if !enforceLimit(h.limiter, h.cfg, w, r, "manage-review", 60, modID) {
		return
	}

	var req models.ModerationNoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		logQueryError(w, "failed to begin review transaction", err)
		return
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE proverb SET status = $1 WHERE id = $2 AND status = 'pending'
	`, newStatus, proverbID)
	if err != nil {
		logQueryError(w, "failed to update proverb status", err)
		return
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "No pending proverb with that id.")
		return
	}

	var note *string
	if trimmed := strings.TrimSpace(req.Note); trimmed != "" {
		note = &trimmed
	}
	if err := LogModAction(tx, modID, action, "proverb", proverbID, note); err != nil {
		logQueryError(w, "failed to log moderation action", err)
		return
	}

	if err := tx.Commit(); err != nil {
		logQueryError(w, "failed to commit review transaction", err)
		return
	}

	slog.Info("proverb reviewed", "proverb_id", proverbID, "mod_id", modID, "action", action)
	middleware.JSONResponse(w, http.StatusOK, models.OKResponse{OK: true})
}

// Reports handles GET /api/manage/reports?status=open|resolved|dismissed
func (h *ManageHandler) Reports(w http.ResponseWriter, r *http.Request) {
	modID, _, accessErr := RequireAdminOrMod(h.db, r, h.cfg)
	if accessErr != nil {
		respondAccessError(w, accessErr)
		return
	}

	if !enforceLimit(h.limiter, h.cfg, w, r, "manage-reports", 60, modID) {
		return
	}

	status := r.URL.Query().Get("status")
	if status == "" {
		status = models.ReportOpen
	}
	if status != models.ReportOpen && status != models.ReportResolved && status != models.ReportDismissed {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid status. Use open, resolved, or dismissed.")
		return
	}

	rows, err := h.db.Query(`
		SELECT r.id, r.reason, r.status, r.created_at, pr.display_name,
		       p.id, p.original_text, p.literal_text, p.country_code, p.language_name
		FROM report r
		JOIN proverb p ON p.id = r.proverb_id
		LEFT JOIN profile pr ON pr.id = r.reporter_id
		WHERE r.status = $1
		ORDER BY r.created_at ASC
		LIMIT 100
	`, status)
	if err != nil {
		logQueryError(w, "failed to query reports", err)
		return
	}
	defer rows.Close()

	reports := []models.Report{}
	for rows.Next() {
		var report models.Report
		if err := rows.Scan(&report.ID, &report.Reason, &report.Status, &report.CreatedAt,
			&report.Reporter, &report.Proverb.ID, &report.Proverb.OriginalText,
			&report.Proverb.LiteralText, &report.Proverb.CountryCode,
			&report.Proverb.LanguageName); err != nil {
			logQueryError(w, "failed to scan report", err)
			return
		}
		reports = append(reports, report)
	}
	if err := rows.Err(); err != nil {
		logQueryError(w, "failed to iterate reports", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ReportsResponse{Reports: reports})
}

// Resolve handles POST /api/manage/reports/{id}/resolve
// Resolving a report flags the proverb, pulling it from public view until
// an admin removes or re-edits it.
func (h *ManageHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	reportID := r.PathValue("id")
	if reportID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Missing report id.")
		return
	}

	modID, _, accessErr := RequireAdminOrMod(h.db, r, h.cfg)
	if accessErr != nil {
		respondAccessError(w, accessErr)
		return
	}

	if !enforceLimit(h.limiter, h.cfg, w, r, "manage-reports-update", 60, modID) {
		return
	}

	var req models.ModerationNoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		logQueryError(w, "failed to begin resolve transaction", err)
		return
	}
	defer tx.Rollback()

	var proverbID string
	err = tx.QueryRow(`
		SELECT proverb_id FROM report WHERE id = $1 AND status = 'open'
	`, reportID).Scan(&proverbID)
	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "No open report with that id.")
		return
	}
	if err != nil {
		logQueryError(w, "failed to query report", err)
		return
	}

	if _, err := tx.Exec(`
		UPDATE report SET status = 'resolved', resolved_by = $1 WHERE id = $2
	`, modID, reportID); err != nil {
		logQueryError(w, "failed to resolve report", err)
		return
	}
	if _, err := tx.Exec(`
		UPDATE proverb SET status = 'flagged' WHERE id = $1
	`, proverbID); err != nil {
		logQueryError(w, "failed to flag proverb", err)
		return
	}

	var note *string
	if trimmed := strings.TrimSpace(req.Note); trimmed != "" {
		note = &trimmed
	}
	if err := LogModAction(tx, modID, models.ActionResolveReport, "report", reportID, note); err != nil {
		logQueryError(w, "failed to log moderation action", err)
		return
	}

	if err := tx.Commit(); err != nil {
		logQueryError(w, "failed to commit resolve transaction", err)
		return
	}

	slog.Info("report resolved", "report_id", reportID, "proverb_id", proverbID, "mod_id", modID)
	middleware.JSONResponse(w, http.StatusOK, models.OKResponse{OK: true})
}

// Dismiss handles POST /api/manage/reports/{id}/dismiss
// Dismissal closes the report and leaves the proverb untouched.
func (h *ManageHandler) Dismiss(w http.ResponseWriter, r *http.Request) {
	reportID := r.PathValue("id")
	if reportID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Missing report id.")
		return
	}

	modID, _, accessErr := RequireAdminOrMod(h.db, r, h.cfg)
	if accessErr != nil {
		respondAccessError(w, accessErr)
		return
	}

	if !enforceLimit(h.limiter, h.cfg, w, r, "manage-reports-update", 60, modID) {
		return
	}

	var req models.ModerationNoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		logQueryError(w, "failed to begin dismiss transaction", err)
		return
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE report SET status = 'dismissed', resolved_by = $1
		WHERE id = $2 AND status = 'open'
	`, modID, reportID)
	if err != nil {
		logQueryError(w, "failed to dismiss report", err)
		return
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "No open report with that id.")
		return
	}

	var note *string
	if trimmed := strings.TrimSpace(req.Note); trimmed != "" {
		note = &trimmed
	}
	if err := LogModAction(tx, modID, models.ActionDismissReport, "report", reportID, note); err != nil {
		logQueryError(w, "failed to log moderation action", err)
		return
	}

	if err := tx.Commit(); err != nil {
		logQueryError(w, "failed to commit dismiss transaction", err)
		return
	}

	slog.Info("report dismissed", "report_id", reportID, "mod_id", modID)
	middleware.JSONResponse(w, http.StatusOK, models.OKResponse{OK: true})
}

// Stats handles GET /api/manage/stats
// Each counter degrades to zero on error instead of failing the whole
// dashboard.
func (h *ManageHandler) Stats(w http.ResponseWriter, r *http.Request) {
	modID, _, accessErr := RequireAdminOrMod(h.db, r, h.cfg)
	if accessErr != nil {
		respondAccessError(w, accessErr)
		return
	}

	if !enforceLimit(h.limiter, h.cfg, w, r, "manage-stats", 30, modID) {
		return
	}

	stats := models.Stats{
		TotalUsers:        h.count(`SELECT COUNT(*) FROM profile`),
		TotalProverbs:     h.count(`SELECT COUNT(*) FROM proverb`),
		PublishedProverbs: h.count(`SELECT COUNT(*) FROM proverb WHERE status = 'published'`),
		PendingProverbs:   h.count(`SELECT COUNT(*) FROM proverb WHERE status = 'pending'`),
		RejectedProverbs:  h.count(`SELECT COUNT(*) FROM proverb WHERE status = 'rejected'`),
		TotalReactions:    h.count(`SELECT COUNT(*) FROM reaction`),
		OpenReports:       h.count(`SELECT COUNT(*) FROM report WHERE status = 'open'`),
		EmailOptInUsers:   h.count(`SELECT COUNT(*) FROM profile WHERE marketing_updates_opt_in`),
	}

	actions, err := h.recentActions()
	if err != nil {
		slog.Warn("failed to load recent actions", "error", err)
		actions = []models.ModAction{}
	}

	middleware.JSONResponse(w, http.StatusOK, models.StatsResponse{Stats: stats, RecentActions: actions})
}

func (h *ManageHandler) count(query string) int {
	var n int
	if err := h.db.QueryRow(query).Scan(&n); err != nil {
		slog.Warn("stats counter failed", "query", query, "error", err)
		return 0
	}
	return n
}

func (h *ManageHandler) recentActions() ([]models.ModAction, error) {
	rows, err := h.db.Query(`
		SELECT a.id, a.action, a.target_type, a.target_id, a.note, a.created_at,
		       pr.display_name
		FROM mod_action a
		LEFT JOIN profile pr ON pr.id = a.mod_id
		ORDER BY a.created_at DESC
		LIMIT 10
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	actions := []models.ModAction{}
	for rows.Next() {
		var action models.ModAction
		if err := rows.Scan(&action.ID, &action.Action, &action.TargetType,
			&action.TargetID, &action.Note, &action.CreatedAt, &action.DisplayName); err != nil {
			return nil, err
		}
		action.CreatedAgo = humanize.Time(action.CreatedAt)
		actions = append(actions, action)
	}
	return actions, rows.Err()
}
