// Copyright (c) 2025 Aysel Karaca.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/ayselk/proverbly/middleware"
	"github.com/ayselk/proverbly/models"
)

// Search handles GET /api/manage/proverbs?userId&language&page&limit
func (h *ManageHandler) Search(w http.ResponseWriter, r *http.Request) {
	modID, _, accessErr := RequireAdminOrMod(h.db, r, h.cfg)
	if accessErr != nil {
		respondAccessError(w, accessErr)
		return
	}

	if !enforceLimit(h.limiter, h.cfg, w, r, "manage-proverbs", 60, modID) {
		return
	}

	page, limit := pageParams(r, 20, 100)

	filter := ""
	args := []any{}
	userID := strings.TrimSpace(r.URL.Query().Get("userId"))
	language := strings.TrimSpace(r.URL.Query().Get("language"))
	if userID != "" {
		args = append(args, userID)
		filter += " AND p.user_id = $" + strconv.Itoa(len(args))
	}
	if language != "" {
		args = append(args, language)
		filter += " AND p.language_name = $" + strconv.Itoa(len(args))
	}

	var total int
	err := h.db.QueryRow(`
		SELECT COUNT(*) FROM proverb p WHERE 1=1`+filter, args...).Scan(&total)
	if err != nil {
		logQueryError(w, "failed to count proverbs", err)
		return
	}

	rows, err := h.db.Query(`
		SELECT p.id, p.original_text, p.country_code, p.language_name,
		       p.status, p.vote_count, p.created_at, pr.display_name
		FROM proverb p
		LEFT JOIN profile pr ON pr.id = p.user_id
		WHERE 1=1`+filter+`
		ORDER BY p.created_at DESC
		LIMIT `+strconv.Itoa(limit)+` OFFSET `+strconv.Itoa(page*limit), args...)
	if err != nil {
		logQueryError(w, "failed to query proverbs", err)
		return
	}
	defer rows.Close()

	proverbs := []models.ManagedProverb{}
	for rows.Next() {
		var p models.ManagedProverb
		if err := rows.Scan(&p.ID, &p.OriginalText, &p.CountryCode, &p.LanguageName,
			&p.Status, &p.VoteCount, &p.CreatedAt, &p.DisplayName); err != nil {
			logQueryError(w, "failed to scan proverb row", err)
			return
		}
		proverbs = append(proverbs, p)
	}
	if err := rows.Err(); err != nil {
		logQueryError(w, "failed to iterate proverb rows", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ManageProverbsResponse{Proverbs: proverbs, Total: total})
}

// GetProverb handles GET /api/manage/proverbs/{id}
// Full record regardless of status, with options in stored order for the
// editor.
func (h *ManageHandler) GetProverb(w http.ResponseWriter, r *http.Request) {
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

	if !enforceLimit(h.limiter, h.cfg, w, r, "manage-proverbs", 60, modID) {
		return
	}

	var p models.EditableProverb
	err := h.db.QueryRow(`
		SELECT id, country_code, region, language_name, original_text,
		       literal_text, meaning_text, status
		FROM proverb WHERE id = $1
	`, proverbID).Scan(&p.ID, &p.CountryCode, &p.Region, &p.LanguageName,
		&p.OriginalText, &p.LiteralText, &p.MeaningText, &p.Status)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusNotFound, "Proverb not found.")
		return
	}
	if err != nil {
		logQueryError(w, "failed to query proverb", err)
		return
	}

	options, err := fetchOptions(h.db, proverbID)
	if err != nil {
		logQueryError(w, "failed to query guess options", err)
		return
	}
	p.GuessOptions = normalizeOptions(options)

	middleware.JSONResponse(w, http.StatusOK, models.ManageProverbDetailResponse{Proverb: p})
}

// Edit handles PATCH /api/manage/proverbs/{id}
// Full-record edit. Guess options are replaced wholesale so the stored set
// always matches the submitted meaning plus three distractors.
func (h *ManageHandler) Edit(w http.ResponseWriter, r *http.Request) {
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

	if !enforceLimit(h.limiter, h.cfg, w, r, "manage-proverbs-edit", 30, modID) {
		return
	}

	var req models.EditProverbRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if strings.TrimSpace(req.CountryCode) == "" || strings.TrimSpace(req.LanguageName) == "" ||
		strings.TrimSpace(req.OriginalText) == "" || strings.TrimSpace(req.LiteralText) == "" ||
		strings.TrimSpace(req.MeaningText) == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "All text fields are required.")
		return
	}
	switch req.Status {
	case models.StatusPending, models.StatusPublished, models.StatusRejected,
		models.StatusFlagged, models.StatusDraft:
	default:
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid status.")
		return
	}
	wrongOptions := make([]string, 0, len(req.WrongOptions))
	for _, opt := range req.WrongOptions {
		if trimmed := strings.TrimSpace(opt); trimmed != "" {
			wrongOptions = append(wrongOptions, trimmed)
		}
	}
	if len(wrongOptions) != 3 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Exactly 3 wrong options are required.")
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		logQueryError(w, "failed to begin edit transaction", err)
		return
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE proverb
		SET country_code = $1, region = $2, language_name = $3,
		    original_text = $4, literal_text = $5, meaning_text = $6,
		    status = $7
		WHERE id = $8
	`, req.CountryCode, req.Region, req.LanguageName, req.OriginalText,
		req.LiteralText, req.MeaningText, req.Status, proverbID)
	if err != nil {
		logQueryError(w, "failed to update proverb", err)
		return
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Proverb not found.")
		return
	}

	if _, err := tx.Exec(`
		DELETE FROM guess_option WHERE proverb_id = $1
	`, proverbID); err != nil {
		logQueryError(w, "failed to clear guess options", err)
		return
	}
	if err := insertGuessOptions(tx, proverbID, strings.TrimSpace(req.MeaningText), wrongOptions); err != nil {
		logQueryError(w, "failed to insert guess options", err)
		return
	}

	if err := LogModAction(tx, modID, models.ActionEditProverb, "proverb", proverbID, nil); err != nil {
		logQueryError(w, "failed to log moderation action", err)
		return
	}

	if err := tx.Commit(); err != nil {
		logQueryError(w, "failed to commit edit transaction", err)
		return
	}

	slog.Info("proverb edited", "proverb_id", proverbID, "mod_id", modID)
	middleware.JSONResponse(w, http.StatusOK, models.OKResponse{OK: true})
}

// Languages handles GET /api/manage/proverbs/languages?userId
func (h *ManageHandler) Languages(w http.ResponseWriter, r *http.Request) {
	modID, _, accessErr := RequireAdminOrMod(h.db, r, h.cfg)
	if accessErr != nil {
		respondAccessError(w, accessErr)
		return
	}

	if !enforceLimit(h.limiter, h.cfg, w, r, "manage-proverbs", 60, modID) {
		return
	}

	filter := ""
	args := []any{}
	if userID := strings.TrimSpace(r.URL.Query().Get("userId")); userID != "" {
		args = append(args, userID)
		filter = " WHERE user_id = $1"
	}

	rows, err := h.db.Query(`
		SELECT language_name, COUNT(*) AS n
		FROM proverb`+filter+`
		GROUP BY language_name
		ORDER BY n DESC, language_name ASC
	`, args...)
	if err != nil {
		logQueryError(w, "failed to query languages", err)
		return
	}
	defer rows.Close()

	languages := []models.LanguageCount{}
	for rows.Next() {
		var lc models.LanguageCount
		if err := rows.Scan(&lc.Language, &lc.Count); err != nil {
			logQueryError(w, "failed to scan language row", err)
			return
		}
		languages = append(languages, lc)
	}
	if err := rows.Err(); err != nil {
		logQueryError(w, "failed to iterate language rows", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.LanguagesResponse{Languages: languages})
}

// Remove handles POST /api/proverbs/{id}/remove
// Admin only. Flags the proverb out of public view; rows are never
// deleted, the audit trail needs the target to keep existing.
func (h *ManageHandler) Remove(w http.ResponseWriter, r *http.Request) {
	proverbID := r.PathValue("id")
	if proverbID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Missing proverb id.")
		return
	}

	adminID, accessErr := RequireAdmin(h.db, r, h.cfg)
	if accessErr != nil {
		respondAccessError(w, accessErr)
		return
	}

	if !enforceLimit(h.limiter, h.cfg, w, r, "proverb-remove", 20, adminID) {
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		logQueryError(w, "failed to begin remove transaction", err)
		return
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE proverb SET status = 'flagged' WHERE id = $1
	`, proverbID)
	if err != nil {
		logQueryError(w, "failed to flag proverb", err)
		return
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "Proverb not found.")
		return
	}

	if err := LogModAction(tx, adminID, models.ActionRemoveProverb, "proverb", proverbID, nil); err != nil {
		logQueryError(w, "failed to log moderation action", err)
		return
	}

	if err := tx.Commit(); err != nil {
		logQueryError(w, "failed to commit remove transaction", err)
		return
	}

	slog.Info("proverb removed", "proverb_id", proverbID, "admin_id", adminID)
	middleware.JSONResponse(w, http.StatusOK, models.OKResponse{OK: true})
}
