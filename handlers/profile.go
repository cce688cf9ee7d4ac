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

type ProfileHandler struct {
	db      *sql.DB
	cfg     cliparse.Config
	limiter *ratelimit.Limiter
}

func NewProfileHandler(database *sql.DB, cfg cliparse.Config, limiter *ratelimit.Limiter) *ProfileHandler {
	return &ProfileHandler{db: database, cfg: cfg, limiter: limiter}
}

// Role handles GET /api/profile/role
// Anonymous callers get the plain user role rather than an error, so the
// client can render public pages without a sign-in roundtrip.
func (h *ProfileHandler) Role(w http.ResponseWriter, r *http.Request) {
	userID, accessErr := ResolveUser(r, h.cfg)
	if accessErr != nil {
		respondAccessError(w, accessErr)
		return
	}

	if !enforceLimit(h.limiter, h.cfg, w, r, "profile-role", 120, userID) {
		return
	}

	if userID == "" {
		middleware.JSONResponse(w, http.StatusOK, models.RoleResponse{
			Role: models.RoleUser, BannedAt: nil, Authenticated: false,
		})
		return
	}

	var role string
	var bannedAt *time.Time
	err := h.db.QueryRow(`
		SELECT role, banned_at FROM profile WHERE id = $1
	`, userID).Scan(&role, &bannedAt)

	if err == sql.ErrNoRows {
		// Token predates the profile row (or it was deleted). Treat as a
		// plain signed-in user.
		middleware.JSONResponse(w, http.StatusOK, models.RoleResponse{
			Role: models.RoleUser, BannedAt: nil, Authenticated: true,
		})
		return
	}
	if err != nil {
		logQueryError(w, "failed to query role", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.RoleResponse{
		Role: role, BannedAt: bannedAt, Authenticated: true,
	})
}

// UpdatePreferences handles POST /api/profile/preferences
// Partial update: only the fields present in the body change.
func (h *ProfileHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	userID, accessErr := RequireUser(r, h.cfg)
	if accessErr != nil {
		respondAccessError(w, accessErr)
		return
	}

	if !enforceLimit(h.limiter, h.cfg, w, r, "profile-preferences", 30, userID) {
		return
	}

	var req models.UpdatePreferencesRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.MarketingUpdatesOptIn == nil && req.TermsAcceptedAt == nil && req.PrivacyAcceptedAt == nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Nothing to update.")
		return
	}

	if req.MarketingUpdatesOptIn != nil {
		if _, err := h.db.Exec(`
			UPDATE profile SET marketing_updates_opt_in = $1 WHERE id = $2
		`, *req.MarketingUpdatesOptIn, userID); err != nil {
			logQueryError(w, "failed to update marketing opt-in", err)
			return
		}
	}
	if req.TermsAcceptedAt != nil {
		acceptedAt, err := time.Parse(time.RFC3339, *req.TermsAcceptedAt)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid terms_accepted_at timestamp.")
			return
		}
		if _, err := h.db.Exec(`
			UPDATE profile SET terms_accepted_at = $1 WHERE id = $2
		`, acceptedAt, userID); err != nil {
			logQueryError(w, "failed to update terms acceptance", err)
			return
		}
	}
	if req.PrivacyAcceptedAt != nil {
		acceptedAt, err := time.Parse(time.RFC3339, *req.PrivacyAcceptedAt)
		if err != nil {
			middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid privacy_accepted_at timestamp.")
			return
		}
		if _, err := h.db.Exec(`
			UPDATE profile SET privacy_accepted_at = $1 WHERE id = $2
		`, acceptedAt, userID); err != nil {
			logQueryError(w, "failed to update privacy acceptance", err)
			return
		}
	}

	middleware.JSONResponse(w, http.StatusOK, models.OKResponse{OK: true})
}

// ConsumeConsent handles POST /api/profile/preferences/consume
// Applies the consent recorded on a pending login token to the signed-in
// profile. Used when the sign-in completed through a path that skipped
// the session exchange. Missing or already-consumed tokens are not an
// error; the response just reports consumed=false.
func (h *ProfileHandler) ConsumeConsent(w http.ResponseWriter, r *http.Request) {
	userID, accessErr := RequireUser(r, h.cfg)
	if accessErr != nil {
		respondAccessError(w, accessErr)
		return
	}

	if !enforceLimit(h.limiter, h.cfg, w, r, "consume-consent", 30, userID) {
		return
	}

	var req models.ConsumeConsentRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.Token == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Missing token.")
		return
	}

	var optIn bool
	var termsAt, privacyAt time.Time
	var consumedAt *time.Time
	err := h.db.QueryRow(`
		SELECT marketing_updates_opt_in, terms_accepted_at, privacy_accepted_at, consumed_at
		FROM login_token WHERE token = $1
	`, req.Token).Scan(&optIn, &termsAt, &privacyAt, &consumedAt)

	if err == sql.ErrNoRows {
		middleware.JSONResponse(w, http.StatusOK, models.ConsumeConsentResponse{OK: true, Consumed: false})
		return
	}
	if err != nil {
		logQueryError(w, "failed to query consent token", err)
		return
	}
	if consumedAt != nil {
		middleware.JSONResponse(w, http.StatusOK, models.ConsumeConsentResponse{OK: true, Consumed: false})
		return
	}

	if _, err := h.db.Exec(`
		UPDATE login_token SET consumed_at = $1
		WHERE token = $2 AND consumed_at IS NULL
	`, time.Now(), req.Token); err != nil {
		logQueryError(w, "failed to consume consent token", err)
		return
	}

	if _, err := h.db.Exec(`
		UPDATE profile
		SET marketing_updates_opt_in = marketing_updates_opt_in OR $1,
		    terms_accepted_at = $2,
		    privacy_accepted_at = $3
		WHERE id = $4
	`, optIn, termsAt, privacyAt, userID); err != nil {
		logQueryError(w, "failed to apply consent", err)
		return
	}

	slog.Info("consent consumed", "user_id", userID)
	middleware.JSONResponse(w, http.StatusOK, models.ConsumeConsentResponse{OK: true, Consumed: true})
}
