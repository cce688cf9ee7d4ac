// Copyright (c) 2025 Aysel Karaca.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ayselk/proverbly/auth"
	"github.com/ayselk/proverbly/cliparse"
	"github.com/ayselk/proverbly/middleware"
	"github.com/ayselk/proverbly/models"
)

// AccessError carries the HTTP status an access failure maps to.
type AccessError struct {
	Status  int
	Message string
}

func (e *AccessError) Error() string { return e.Message }

func unauthorized() *AccessError {
	return &AccessError{Status: http.StatusUnauthorized, Message: "Authentication required."}
}

// ResolveUser returns the caller's user id, or "" for anonymous requests.
// A present-but-invalid token is an error, not anonymity.
func ResolveUser(r *http.Request, cfg cliparse.Config) (string, *AccessError) {
	token := middleware.BearerToken(r)
	if token == "" {
		return "", nil
	}

	claims, err := auth.ParseSession(token, cfg.SessionSecret)
	if err != nil {
		return "", unauthorized()
	}

	userID, err := auth.ResolveIdentity(claims)
	if err != nil {
		return "", unauthorized()
	}
	return userID, nil
}

// RequireUser resolves the caller's identity or fails with 401.
func RequireUser(r *http.Request, cfg cliparse.Config) (string, *AccessError) {
	userID, accessErr := ResolveUser(r, cfg)
	if accessErr != nil {
		return "", accessErr
	}
	if userID == "" {
		return "", unauthorized()
	}
	return userID, nil
}

// LookupRole reads the caller's profile role and ban state. A missing
// profile row resolves to role "user" (least privilege), never an error.
func LookupRole(db *sql.DB, userID string) (role string, bannedAt *time.Time, err error) {
	err = db.QueryRow(`
		SELECT role, banned_at FROM profile WHERE id = $1
	`, userID).Scan(&role, &bannedAt)
	if err == sql.ErrNoRows {
		return models.RoleUser, nil, nil
	}
	if err != nil {
		return "", nil, err
	}
	return role, bannedAt, nil
}

// RequireAdmin resolves identity and fails with 403 unless the caller's
// profile role is admin.
func RequireAdmin(db *sql.DB, r *http.Request, cfg cliparse.Config) (string, *AccessError) {
	userID, accessErr := RequireUser(r, cfg)
	if accessErr != nil {
		return "", accessErr
	}

	role, _, err := LookupRole(db, userID)
	if err != nil {
		slog.Error("failed to look up role", "error", err, "user_id", userID)
		return "", &AccessError{Status: http.StatusInternalServerError, Message: "Database error"}
	}
	if role != models.RoleAdmin {
		return "", &AccessError{Status: http.StatusForbidden, Message: "Admin access required."}
	}
	return userID, nil
}

// RequireAdminOrMod resolves identity and fails with 403 unless the caller's
// profile role is admin or moderator. Returns the role for callers that
// distinguish the two.
func RequireAdminOrMod(db *sql.DB, r *http.Request, cfg cliparse.Config) (userID, role string, accessErr *AccessError) {
	userID, accessErr = RequireUser(r, cfg)
	if accessErr != nil {
		return "", "", accessErr
	}

	role, _, err := LookupRole(db, userID)
	if err != nil {
		slog.Error("failed to look up role", "error", err, "user_id", userID)
		return "", "", &AccessError{Status: http.StatusInternalServerError, Message: "Database error"}
	}
	if role != models.RoleAdmin && role != models.RoleModerator {
		return "", "", &AccessError{Status: http.StatusForbidden, Message: "Moderator access required."}
	}
	return userID, role, nil
}

// RequireActiveUser is RequireUser plus a ban check, used by write endpoints.
func RequireActiveUser(db *sql.DB, r *http.Request, cfg cliparse.Config) (string, *AccessError) {
	userID, accessErr := RequireUser(r, cfg)
	if accessErr != nil {
		return "", accessErr
	}

	_, bannedAt, err := LookupRole(db, userID)
	if err != nil {
		slog.Error("failed to look up ban state", "error", err, "user_id", userID)
		return "", &AccessError{Status: http.StatusInternalServerError, Message: "Database error"}
	}
	if bannedAt != nil {
		return "", &AccessError{Status: http.StatusForbidden, Message: "Account suspended."}
	}
	return userID, nil
}

// LogModAction appends an audit row. The mutation and its audit record must
// be observably consistent, so a failed append fails the whole operation.
func LogModAction(e execer, modID, action, targetType, targetID string, note *string) error {
	id, err := auth.GenerateID(16)
	if err != nil {
		return fmt.Errorf("failed to generate mod action id: %w", err)
	}

	_, err = e.Exec(`
		INSERT INTO mod_action (id, mod_id, action, target_type, target_id, note, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, id, modID, action, targetType, targetID, note, time.Now())
	if err != nil {
		return fmt.Errorf("failed to log mod action: %w", err)
	}
	return nil
}
