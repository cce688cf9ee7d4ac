// Copyright (c) 2025 Aysel Karaca.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ayselk/proverbly/captcha"
	"github.com/ayselk/proverbly/cliparse"
	"github.com/ayselk/proverbly/middleware"
	"github.com/ayselk/proverbly/models"
	"github.com/ayselk/proverbly/ratelimit"
)

type ProverbHandler struct {
	db       *sql.DB
	cfg      cliparse.Config
	limiter  *ratelimit.Limiter
	verifier *captcha.Verifier
}

func NewProverbHandler(db *sql.DB, cfg cliparse.Config, limiter *ratelimit.Limiter, verifier *captcha.Verifier) *ProverbHandler {
	return &ProverbHandler{db: db, cfg: cfg, limiter: limiter, verifier: verifier}
}

// Feed handles GET /api/proverbs/feed
// Published proverbs, optional region filter, trending or newest sort.
func (h *ProverbHandler) Feed(w http.ResponseWriter, r *http.Request) {
	if !enforceLimit(h.limiter, h.cfg, w, r, "proverbs-feed", 120, "") {
		return
	}

	query := r.URL.Query()
	region := query.Get("region")
	sortOrder := "trending"
	if query.Get("sort") == "newest" {
		sortOrder = "newest"
	}
	page, limit := pageParams(r, 12, 50)

	sqlQuery := `
		SELECT p.id, p.user_id, p.country_code, p.region, p.language_name,
		       p.original_text, p.literal_text, p.meaning_text, p.vote_count,
		       p.status, p.created_at, pr.display_name
		FROM proverb p
		LEFT JOIN profile pr ON pr.id = p.user_id
		WHERE p.status = 'published'`

	var args []interface{}
	if region != "" && region != "All" {
		sqlQuery += ` AND p.region = $1`
		args = append(args, region)
	}

	if sortOrder == "trending" {
		sqlQuery += ` ORDER BY p.vote_count DESC, p.created_at DESC`
	} else {
		sqlQuery += ` ORDER BY p.created_at DESC`
	}
	sqlQuery += ` LIMIT ` + strconv.Itoa(limit) + ` OFFSET ` + strconv.Itoa(page*limit)

	rows, err := h.db.Query(sqlQuery, args...)
	if err != nil {
		logQueryError(w, "failed to query proverb feed", err)
		return
	}
	defer rows.Close()

	proverbs := []models.FeedProverb{}
	for rows.Next() {
		var p models.FeedProverb
		err := rows.Scan(&p.ID, &p.UserID, &p.CountryCode, &p.Region, &p.LanguageName,
			&p.OriginalText, &p.LiteralText, &p.MeaningText, &p.VoteCount,
			&p.Status, &p.CreatedAt, &p.DisplayName)
		if err != nil {
			logQueryError(w, "failed to scan feed row", err)
			return
		}
		proverbs = append(proverbs, p)
	}
	if err := rows.Err(); err != nil {
		logQueryError(w, "failed to iterate feed rows", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.FeedResponse{Proverbs: proverbs})
}

// Detail handles GET /api/proverbs/{id}
// Returns a published proverb with its guess options. Options are
// deduplicated by sort order and served shuffled so the correct answer's
// position carries no signal.
func (h *ProverbHandler) Detail(w http.ResponseWriter, r *http.Request) {
	proverbID := r.PathValue("id")
	if proverbID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Missing proverb id.")
		return
	}

	if !enforceLimit(h.limiter, h.cfg, w, r, "proverb-detail", 120, "") {
		return
	}

	var detail models.ProverbDetail
	err := h.db.QueryRow(`
		SELECT p.id, p.user_id, p.country_code, p.region, p.language_name,
		       p.original_text, p.literal_text, p.meaning_text, p.vote_count,
		       p.status, p.created_at, pr.display_name
		FROM proverb p
		LEFT JOIN profile pr ON pr.id = p.user_id
		WHERE p.id = $1 AND p.status = 'published'
	`, proverbID).Scan(&detail.ID, &detail.UserID, &detail.CountryCode, &detail.Region,
		&detail.LanguageName, &detail.OriginalText, &detail.LiteralText, &detail.MeaningText,
		&detail.VoteCount, &detail.Status, &detail.CreatedAt, &detail.DisplayName)

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
	detail.GuessOptions = shuffleOptions(normalizeOptions(options))

	middleware.JSONResponse(w, http.StatusOK, models.ProverbDetailResponse{Proverb: detail})
}

// Submit handles POST /api/proverbs/submit
// Creates a pending proverb with one correct and three wrong guess options.
func (h *ProverbHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, accessErr := RequireActiveUser(h.db, r, h.cfg)
	if accessErr != nil {
		respondAccessError(w, accessErr)
		return
	}

	if !enforceLimit(h.limiter, h.cfg, w, r, "submit-proverb", 10, userID) {
		return
	}

	var req models.SubmitProverbRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if capErr := h.verifier.Require(r, req.CaptchaToken, "submit_proverb"); capErr != nil {
		middleware.ErrorResponse(w, capErr.Status, capErr.Message)
		return
	}

	if req.CountryCode == "" || req.LanguageName == "" || req.OriginalText == "" ||
		req.LiteralText == "" || req.MeaningText == "" || len(req.WrongOptions) != 3 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Missing required fields.")
		return
	}
	for _, wrong := range req.WrongOptions {
		if strings.TrimSpace(wrong) == "" {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Missing required fields.")
			return
		}
	}

	var region *string
	if req.Region != "" {
		region = &req.Region
	}

	tx, err := h.db.Begin()
	if err != nil {
		logQueryError(w, "failed to begin transaction", err)
		return
	}
	defer tx.Rollback()

	proverbID := uuid.NewString()
	_, err = tx.Exec(`
		INSERT INTO proverb (id, user_id, country_code, region, language_name,
		                     original_text, literal_text, meaning_text, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'pending', $9)
	`, proverbID, userID, req.CountryCode, region, req.LanguageName,
		req.OriginalText, req.LiteralText, req.MeaningText, time.Now())
	if err != nil {
		logQueryError(w, "failed to insert proverb", err)
		return
	}

	if err := insertGuessOptions(tx, proverbID, req.MeaningText, req.WrongOptions); err != nil {
		logQueryError(w, "failed to insert guess options", err)
		return
	}

	if err := tx.Commit(); err != nil {
		logQueryError(w, "failed to commit submission", err)
		return
	}

	slog.Info("proverb submitted", "proverb_id", proverbID, "user_id", userID)

	middleware.JSONResponse(w, http.StatusCreated, models.SubmitProverbResponse{ID: proverbID})
}

// execer covers *sql.Tx and *sql.DB for option writes
type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

// insertGuessOptions writes the four options: sort 0 is the correct
// meaning, 1-3 the distractors.
func insertGuessOptions(e execer, proverbID, meaningText string, wrongOptions []string) error {
	texts := append([]string{meaningText}, wrongOptions...)
	for i, text := range texts {
		_, err := e.Exec(`
			INSERT INTO guess_option (id, proverb_id, option_text, is_correct, sort_order)
			VALUES ($1, $2, $3, $4, $5)
		`, uuid.NewString(), proverbID, text, i == 0, i)
		if err != nil {
			return err
		}
	}
	return nil
}
