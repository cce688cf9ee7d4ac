// Copyright (c) 2025 Aysel Karaca.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
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

const loginTokenTTL = 30 * time.Minute

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// AuthFlowHandler implements passwordless sign-in: request a magic link,
// then exchange its token for a session JWT.
type AuthFlowHandler struct {
	db       *sql.DB
	cfg      cliparse.Config
	limiter  *ratelimit.Limiter
	verifier *captcha.Verifier
}

func NewAuthFlowHandler(database *sql.DB, cfg cliparse.Config, limiter *ratelimit.Limiter, verifier *captcha.Verifier) *AuthFlowHandler {
	return &AuthFlowHandler{db: database, cfg: cfg, limiter: limiter, verifier: verifier}
}

// MagicLink handles POST /api/auth/magic-link
// Issues a single-use login token for the address. Delivery is out of
// scope for the API process; the link is written to the log for the
// mailer to pick up.
func (h *AuthFlowHandler) MagicLink(w http.ResponseWriter, r *http.Request) {
	// IP budget first, so a single address cannot cycle through emails.
	if !enforceLimit(h.limiter, h.cfg, w, r, "magic-link-ip", 8, "") {
		return
	}

	var req models.MagicLinkRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !emailPattern.MatchString(email) {
		middleware.ErrorResponse(w, http.StatusBadRequest, "A valid email address is required.")
		return
	}

	if !enforceLimit(h.limiter, h.cfg, w, r, "magic-link-email", 3, email) {
		return
	}

	if err := h.verifier.Require(r, req.CaptchaToken, "request_magic_link"); err != nil {
		middleware.ErrorResponse(w, err.Status, err.Message)
		return
	}

	termsAt, err := time.Parse(time.RFC3339, req.TermsAcceptedAt)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "You must accept the terms of service.")
		return
	}
	privacyAt, err := time.Parse(time.RFC3339, req.PrivacyAcceptedAt)
	if err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "You must accept the privacy policy.")
		return
	}

	token, err := auth.GenerateLoginToken()
	if err != nil {
		logQueryError(w, "failed to generate login token", err)
		return
	}
	now := time.Now()
	_, err = h.db.Exec(`
		INSERT INTO login_token (token, email, marketing_updates_opt_in, terms_accepted_at, privacy_accepted_at, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, token, email, req.MarketingUpdatesOptIn, termsAt, privacyAt, now.Add(loginTokenTTL), now)
	if err != nil {
		logQueryError(w, "failed to insert login token", err)
		return
	}

	slog.Info("magic link issued",
		"email", email,
		"link", fmt.Sprintf("%s/auth/confirm?token=%s", h.cfg.AuthBaseURL, token),
	)
	middleware.JSONResponse(w, http.StatusOK, models.OKResponse{OK: true})
}

// CreateSession handles POST /api/auth/session
// Consumes an unexpired login token, provisions the profile on first
// sign-in, and returns a signed session JWT.
func (h *AuthFlowHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	if !enforceLimit(h.limiter, h.cfg, w, r, "auth-session", 30, "") {
		return
	}

	var req models.CreateSessionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Token == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Missing token.")
		return
	}

	var email string
	var optIn bool
	var termsAt, privacyAt, expiresAt time.Time
	var consumedAt *time.Time
	err := h.db.QueryRow(`
		SELECT email, marketing_updates_opt_in, terms_accepted_at, privacy_accepted_at, consumed_at, expires_at
		FROM login_token WHERE token = $1
	`, req.Token).Scan(&email, &optIn, &termsAt, &privacyAt, &consumedAt, &expiresAt)

	if err == sql.ErrNoRows {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid or expired sign-in link.")
		return
	}
	if err != nil {
		logQueryError(w, "failed to query login token", err)
		return
	}
	if consumedAt != nil || time.Now().After(expiresAt) {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid or expired sign-in link.")
		return
	}

	// Mark consumed before issuing the session. The consumed_at IS NULL
	// guard makes two racing exchanges resolve to a single winner.
	res, err := h.db.Exec(`
		UPDATE login_token SET consumed_at = $1
		WHERE token = $2 AND consumed_at IS NULL
	`, time.Now(), req.Token)
	if err != nil {
		logQueryError(w, "failed to consume login token", err)
		return
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid or expired sign-in link.")
		return
	}

	userID, err := h.upsertProfile(email, optIn, termsAt, privacyAt)
	if err != nil {
		logQueryError(w, "failed to provision profile", err)
		return
	}

	token, err := auth.SignSession(userID, email, h.cfg.SessionSecret)
	if err != nil {
		logQueryError(w, "failed to sign session", err)
		return
	}

	slog.Info("session created", "user_id", userID)
	middleware.JSONResponse(w, http.StatusOK, models.SessionResponse{Token: token, UserID: userID})
}

// upsertProfile finds or creates the profile for email and applies the
// consents recorded at link-request time. A later opt-out from a stale
// sign-in form never downgrades an existing opt-in.
func (h *AuthFlowHandler) upsertProfile(email string, optIn bool, termsAt, privacyAt time.Time) (string, error) {
	var userID string
	err := h.db.QueryRow(`
		SELECT id FROM profile WHERE email = $1
	`, email).Scan(&userID)

	if err == sql.ErrNoRows {
		userID, err = auth.GenerateID(16)
		if err != nil {
			return "", err
		}
		_, err = h.db.Exec(`
			INSERT INTO profile (id, email, marketing_updates_opt_in, terms_accepted_at, privacy_accepted_at, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, userID, email, optIn, termsAt, privacyAt, time.Now())
		if err != nil && db.IsUniqueViolation(err) {
			// Lost a first-sign-in race; the other request's profile wins.
			err = h.db.QueryRow(`
				SELECT id FROM profile WHERE email = $1
			`, email).Scan(&userID)
		}
		return userID, err
	}
	if err != nil {
		return "", err
	}

	_, err = h.db.Exec(`
		UPDATE profile
		SET marketing_updates_opt_in = marketing_updates_opt_in OR $1,
		    terms_accepted_at = $2,
		    privacy_accepted_at = $3
		WHERE id = $4
	`, optIn, termsAt, privacyAt, userID)
	return userID, err
}
