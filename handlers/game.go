// Copyright (c) 2025 Aysel Karaca.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ayselk/proverbly/cliparse"
	"github.com/ayselk/proverbly/db"
	"github.com/ayselk/proverbly/middleware"
	"github.com/ayselk/proverbly/models"
	"github.com/ayselk/proverbly/ratelimit"
)

// Candidate pool bound. Random selection is uniform over this page, not the
// full remaining pool - bounded query cost over true uniformity.
const candidateLimit = 200

// Cap on client-supplied exclusion ids (anonymous players' local
// answered-set travels as a query parameter).
const maxExcludeIDs = 500

type GameHandler struct {
	db      *sql.DB
	cfg     cliparse.Config
	limiter *ratelimit.Limiter
}

func NewGameHandler(database *sql.DB, cfg cliparse.Config, limiter *ratelimit.Limiter) *GameHandler {
	return &GameHandler{db: database, cfg: cfg, limiter: limiter}
}

// PlayRandom handles GET /api/play/random
// Picks a random published proverb the caller has not answered yet.
// Authenticated callers are deduplicated against their stored guesses;
// anonymous callers pass their locally tracked answered ids via ?exclude=.
func (h *GameHandler) PlayRandom(w http.ResponseWriter, r *http.Request) {
	h.pickRandom(w, r, "play-random", 60, "")
}

// RandomNext handles GET /api/proverbs/{id}/random-next
// Same as PlayRandom but never returns the current proverb.
func (h *GameHandler) RandomNext(w http.ResponseWriter, r *http.Request) {
	currentID := r.PathValue("id")
	if currentID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Missing proverb id.")
		return
	}
	h.pickRandom(w, r, "proverb-random-next", 45, currentID)
}

func (h *GameHandler) pickRandom(w http.ResponseWriter, r *http.Request, limitName string, limitMax int, skipID string) {
	userID, accessErr := ResolveUser(r, h.cfg)
	if accessErr != nil {
		respondAccessError(w, accessErr)
		return
	}

	if !enforceLimit(h.limiter, h.cfg, w, r, limitName, limitMax, userID) {
		return
	}

	var exclude []string
	if userID == "" {
		exclude = parseExcludeParam(r)
	}
	if skipID != "" {
		exclude = append(exclude, skipID)
	}

	// Exclusion happens in the query, before the candidate page is cut:
	// an answered proverb only comes back through the exhausted fallback.
	ids, err := h.candidateIDs(userID, exclude)
	if err != nil {
		logQueryError(w, "failed to query candidate proverbs", err)
		return
	}

	// Answered everything: fall back to any published proverb rather than
	// a dead end. Only an empty table is terminal.
	if len(ids) == 0 {
		ids, err = h.candidateIDs("", nil)
		if err != nil {
			logQueryError(w, "failed to query candidate proverbs", err)
			return
		}
		if skipID != "" && len(ids) > 1 {
			withoutCurrent := make([]string, 0, len(ids))
			for _, id := range ids {
				if id != skipID {
					withoutCurrent = append(withoutCurrent, id)
				}
			}
			ids = withoutCurrent
		}
	}

	if len(ids) == 0 {
		middleware.JSONResponse(w, http.StatusOK, models.RandomPickResponse{ID: nil})
		return
	}

	picked := ids[rand.Intn(len(ids))]
	middleware.JSONResponse(w, http.StatusOK, models.RandomPickResponse{ID: &picked})
}

// candidateIDs returns up to candidateLimit playable proverb ids, skipping
// the guesser's answered rows and any explicitly excluded ids. Playable
// means published with at least one guess option. The limit is applied
// after exclusion so a deep answered set cannot mask unanswered proverbs.
func (h *GameHandler) candidateIDs(guesserID string, exclude []string) ([]string, error) {
	query := `
		SELECT p.id
		FROM proverb p
		WHERE p.status = 'published'
		  AND EXISTS (SELECT 1 FROM guess_option o WHERE o.proverb_id = p.id)`
	var args []interface{}

	if guesserID != "" {
		args = append(args, guesserID)
		query += `
		  AND p.id NOT IN (SELECT proverb_id FROM guess WHERE user_id = $` + strconv.Itoa(len(args)) + `)`
	}

	if len(exclude) > 0 {
		placeholders := make([]string, 0, len(exclude))
		for _, id := range exclude {
			args = append(args, id)
			placeholders = append(placeholders, "$"+strconv.Itoa(len(args)))
		}
		query += `
		  AND p.id NOT IN (` + strings.Join(placeholders, ", ") + `)`
	}

	query += `
		LIMIT ` + strconv.Itoa(candidateLimit)

	rows, err := h.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func parseExcludeParam(r *http.Request) []string {
	raw := r.URL.Query().Get("exclude")
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	if len(parts) > maxExcludeIDs {
		parts = parts[:maxExcludeIDs]
	}

	ids := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			ids = append(ids, trimmed)
		}
	}
	return ids
}

// GetGuess handles GET /api/proverbs/{id}/guess
// Returns the caller's stored guess, or null if they have not answered.
func (h *GameHandler) GetGuess(w http.ResponseWriter, r *http.Request) {
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

	if !enforceLimit(h.limiter, h.cfg, w, r, "proverb-guess-get", 120, userID) {
		return
	}

	var stored models.StoredGuess
	err := h.db.QueryRow(`
		SELECT selected_option, is_correct FROM guess
		WHERE proverb_id = $1 AND user_id = $2
	`, proverbID, userID).Scan(&stored.SelectedOption, &stored.IsCorrect)

	if err == sql.ErrNoRows {
		middleware.JSONResponse(w, http.StatusOK, models.StoredGuessResponse{Guess: nil})
		return
	}
	if err != nil {
		logQueryError(w, "failed to query guess", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.StoredGuessResponse{Guess: &stored})
}

// SubmitGuess handles POST /api/proverbs/{id}/guess
// Records the caller's answer exactly once. A concurrent duplicate (e.g.
// two tabs racing) hits the unique constraint; the stored row wins and is
// returned with already_existed so both callers converge on one result.
func (h *GameHandler) SubmitGuess(w http.ResponseWriter, r *http.Request) {
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

	if !enforceLimit(h.limiter, h.cfg, w, r, "proverb-guess-post", 30, userID) {
		return
	}

	var req models.SubmitGuessRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.OptionID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Missing option id.")
		return
	}

	// Correctness comes from the stored option row; the client never
	// decides what gets persisted.
	var isCorrect bool
	err := h.db.QueryRow(`
		SELECT is_correct FROM guess_option
		WHERE id = $1 AND proverb_id = $2
	`, req.OptionID, proverbID).Scan(&isCorrect)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid answer option.")
		return
	}
	if err != nil {
		logQueryError(w, "failed to query guess option", err)
		return
	}

	_, insertErr := h.db.Exec(`
		INSERT INTO guess (user_id, proverb_id, selected_option, is_correct, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, userID, proverbID, req.OptionID, isCorrect, time.Now())

	if insertErr == nil {
		slog.Info("guess recorded", "proverb_id", proverbID, "user_id", userID, "correct", isCorrect)
		middleware.JSONResponse(w, http.StatusOK, models.GuessResponse{
			SelectedOption: req.OptionID,
			IsCorrect:      isCorrect,
			AlreadyExisted: false,
		})
		return
	}

	if !db.IsUniqueViolation(insertErr) {
		logQueryError(w, "failed to insert guess", insertErr)
		return
	}

	// Already answered: reconcile to the stored row, not the attempt.
	var existing models.StoredGuess
	err = h.db.QueryRow(`
		SELECT selected_option, is_correct FROM guess
		WHERE proverb_id = $1 AND user_id = $2
	`, proverbID, userID).Scan(&existing.SelectedOption, &existing.IsCorrect)
	if err != nil {
		logQueryError(w, "failed to reconcile duplicate guess", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.GuessResponse{
		SelectedOption: existing.SelectedOption,
		IsCorrect:      existing.IsCorrect,
		AlreadyExisted: true,
	})
}

// Distribution handles GET /api/proverbs/{id}/distribution
// Aggregated answer counts and percentages per option. Display data only.
func (h *GameHandler) Distribution(w http.ResponseWriter, r *http.Request) {
	proverbID := r.PathValue("id")
	if proverbID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Missing proverb id.")
		return
	}

	if !enforceLimit(h.limiter, h.cfg, w, r, "proverb-distribution", 90, "") {
		return
	}

	rows, err := h.db.Query(`
		SELECT o.id, o.option_text, o.is_correct, COUNT(g.selected_option)
		FROM guess_option o
		LEFT JOIN guess g ON g.selected_option = o.id
		WHERE o.proverb_id = $1
		GROUP BY o.id, o.option_text, o.is_correct, o.sort_order
		ORDER BY o.sort_order
	`, proverbID)
	if err != nil {
		logQueryError(w, "failed to query distribution", err)
		return
	}
	defer rows.Close()

	items := []models.DistributionItem{}
	total := 0
	for rows.Next() {
		var item models.DistributionItem
		if err := rows.Scan(&item.OptionID, &item.OptionText, &item.IsCorrect, &item.PickCount); err != nil {
			logQueryError(w, "failed to scan distribution row", err)
			return
		}
		total += item.PickCount
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		logQueryError(w, "failed to iterate distribution rows", err)
		return
	}

	if total > 0 {
		for i := range items {
			items[i].PickPercentage = math.Round(float64(items[i].PickCount)/float64(total)*1000) / 10
		}
	}

	middleware.JSONResponse(w, http.StatusOK, models.DistributionResponse{Distribution: items})
}
