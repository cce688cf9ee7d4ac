// Copyright (c) 2025 Aysel Karaca.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ayselk/proverbly/middleware"
	"github.com/ayselk/proverbly/models"
)

// Users handles GET /api/manage/users?search&status&email
// Admin only. search matches display name or email substring; status is
// active|banned.
func (h *ManageHandler) Users(w http.ResponseWriter, r *http.Request) {
	adminID, accessErr := RequireAdmin(h.db, r, h.cfg)
	if accessErr != nil {
		respondAccessError(w, accessErr)
		return
	}

	if !enforceLimit(h.limiter, h.cfg, w, r, "manage-users", 60, adminID) {
		return
	}

	filter := ""
	args := []any{}
	if search := strings.TrimSpace(r.URL.Query().Get("search")); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		args = append(args, pattern, pattern)
		filter += " AND (LOWER(COALESCE(display_name, '')) LIKE $1 OR LOWER(email) LIKE $2)"
	}
	if email := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("email"))); email != "" {
		args = append(args, email)
		filter += " AND LOWER(email) = $" + strconv.Itoa(len(args))
	}
	switch r.URL.Query().Get("status") {
	case "banned":
		filter += " AND banned_at IS NOT NULL"
	case "active":
		filter += " AND banned_at IS NULL"
	case "":
	default:
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid status. Use active or banned.")
		return
	}

	rows, err := h.db.Query(`
		SELECT id, display_name, role, banned_at, marketing_updates_opt_in, created_at
		FROM profile
		WHERE 1=1`+filter+`
		ORDER BY created_at DESC
		LIMIT 100
	`, args...)
	if err != nil {
		logQueryError(w, "failed to query users", err)
		return
	}
	defer rows.Close()

	users := []models.Profile{}
	for rows.Next() {
		var p models.Profile
		if err := rows.Scan(&p.ID, &p.DisplayName, &p.Role, &p.BannedAt,
			&p.MarketingUpdatesOptIn, &p.CreatedAt); err != nil {
			logQueryError(w, "failed to scan profile row", err)
			return
		}
		users = append(users, p)
	}
	if err := rows.Err(); err != nil {
		logQueryError(w, "failed to iterate profile rows", err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.UsersResponse{Users: users})
}

// Ban handles POST /api/manage/users/{id}/ban
func (h *ManageHandler) Ban(w http.ResponseWriter, r *http.Request) {
	h.setBanned(w, r, true)
}

// Unban handles POST /api/manage/users/{id}/unban
func (h *ManageHandler) Unban(w http.ResponseWriter, r *http.Request) {
	h.setBanned(w, r, false)
}

func (h *ManageHandler) setBanned(w http.ResponseWriter, r *http.Request, banned bool) {
	targetID := r.PathValue("id")
	if targetID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Missing user id.")
		return
	}

	adminID, accessErr := RequireAdmin(h.db, r, h.cfg)
	if accessErr != nil {
		respondAccessError(w, accessErr)
		return
	}

	if !enforceLimit(h.limiter, h.cfg, w, r, "manage-users-update", 30, adminID) {
		return
	}

	if targetID == adminID {
		middleware.ErrorResponse(w, http.StatusBadRequest, "You cannot ban your own account.")
		return
	}

	var bannedAt *time.Time
	action := models.ActionUnban
	if banned {
		now := time.Now()
		bannedAt = &now
		action = models.ActionBan
	}

	tx, err := h.db.Begin()
	if err != nil {
		logQueryError(w, "failed to begin ban transaction", err)
		return
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE profile SET banned_at = $1 WHERE id = $2
	`, bannedAt, targetID)
	if err != nil {
		logQueryError(w, "failed to update ban state", err)
		return
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "User not found.")
		return
	}

	if err := LogModAction(tx, adminID, action, "user", targetID, nil); err != nil {
		logQueryError(w, "failed to log moderation action", err)
		return
	}

	if err := tx.Commit(); err != nil {
		logQueryError(w, "failed to commit ban transaction", err)
		return
	}

	slog.Info("user ban state changed", "user_id", targetID, "admin_id", adminID, "banned", banned)
	middleware.JSONResponse(w, http.StatusOK, models.OKResponse{OK: true})
}

// ChangeRole handles POST /api/manage/users/{id}/role
func (h *ManageHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	targetID := r.PathValue("id")
	if targetID == "" {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Missing user id.")
		return
	}

	adminID, accessErr := RequireAdmin(h.db, r, h.cfg)
	if accessErr != nil {
		respondAccessError(w, accessErr)
		return
	}

	if !enforceLimit(h.limiter, h.cfg, w, r, "manage-users-update", 30, adminID) {
		return
	}

	var req models.ChangeRoleRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	switch req.Role {
	case models.RoleUser, models.RoleModerator, models.RoleAdmin:
	default:
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid role. Use user, moderator, or admin.")
		return
	}

	if targetID == adminID {
		middleware.ErrorResponse(w, http.StatusBadRequest, "You cannot change your own role.")
		return
	}

	tx, err := h.db.Begin()
	if err != nil {
		logQueryError(w, "failed to begin role transaction", err)
		return
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		UPDATE profile SET role = $1 WHERE id = $2
	`, req.Role, targetID)
	if err != nil {
		logQueryError(w, "failed to update role", err)
		return
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		middleware.ErrorResponse(w, http.StatusNotFound, "User not found.")
		return
	}

	note := "Changed to " + req.Role
	if err := LogModAction(tx, adminID, models.ActionRoleChange, "user", targetID, &note); err != nil {
		logQueryError(w, "failed to log moderation action", err)
		return
	}

	if err := tx.Commit(); err != nil {
		logQueryError(w, "failed to commit role transaction", err)
		return
	}

	slog.Info("role changed", "user_id", targetID, "admin_id", adminID, "role", req.Role)
	middleware.JSONResponse(w, http.StatusOK, models.OKResponse{OK: true})
}
