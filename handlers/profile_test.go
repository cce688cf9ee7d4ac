// Copyright (c) 2025 Aysel Karaca.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ayselk/proverbly/models"
	"github.com/ayselk/proverbly/ratelimit"
	"github.com/ayselk/proverbly/testutil"
)

func TestRole(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewProfileHandler(conn, cfg, ratelimit.New(nil))

	role := func(headers map[string]string) models.RoleResponse {
		req := testutil.MakeRequest("GET", "/api/profile/role", nil, headers)
		w := httptest.NewRecorder()
		handler.Role(w, req)
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.RoleResponse
		testutil.AssertJSON(t, w, &resp)
		return resp
	}

	t.Run("anonymous gets plain user", func(t *testing.T) {
		resp := role(nil)
		if resp.Role != models.RoleUser || resp.Authenticated || resp.BannedAt != nil {
			t.Errorf("Unexpected anonymous role response: %+v", resp)
		}
	})

	t.Run("moderator role is reported", func(t *testing.T) {
		modID := testutil.CreateTestUser(t, conn, models.RoleModerator)
		resp := role(testutil.AuthHeader(testutil.SessionFor(t, cfg, modID)))
		if resp.Role != models.RoleModerator || !resp.Authenticated {
			t.Errorf("Unexpected moderator role response: %+v", resp)
		}
	})

	t.Run("banned state is reported", func(t *testing.T) {
		bannedID := testutil.CreateTestUser(t, conn, models.RoleUser)
		testutil.BanTestUser(t, conn, bannedID)
		resp := role(testutil.AuthHeader(testutil.SessionFor(t, cfg, bannedID)))
		if resp.BannedAt == nil {
			t.Error("Expected banned_at to be set")
		}
	})

	t.Run("garbage token is a 401", func(t *testing.T) {
		req := testutil.MakeRequest("GET", "/api/profile/role", nil,
			map[string]string{"Authorization": "Bearer garbage"})
		w := httptest.NewRecorder()
		handler.Role(w, req)
		testutil.AssertStatus(t, w, http.StatusUnauthorized)
	})
}

func TestUpdatePreferences(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewProfileHandler(conn, cfg, ratelimit.New(nil))

	userID := testutil.CreateTestUser(t, conn, models.RoleUser)
	token := testutil.SessionFor(t, cfg, userID)

	update := func(body models.UpdatePreferencesRequest) *httptest.ResponseRecorder {
		req := testutil.MakeRequest("POST", "/api/profile/preferences", body, testutil.AuthHeader(token))
		w := httptest.NewRecorder()
		handler.UpdatePreferences(w, req)
		return w
	}

	t.Run("partial update touches only named fields", func(t *testing.T) {
		optIn := true
		testutil.AssertStatus(t, update(models.UpdatePreferencesRequest{MarketingUpdatesOptIn: &optIn}), http.StatusOK)

		var stored bool
		if err := conn.QueryRow(`
			SELECT marketing_updates_opt_in FROM profile WHERE id = $1
		`, userID).Scan(&stored); err != nil {
			t.Fatalf("Failed to query profile: %v", err)
		}
		if !stored {
			t.Error("Opt-in was not updated")
		}
	})

	t.Run("empty body is a 400", func(t *testing.T) {
		testutil.AssertStatus(t, update(models.UpdatePreferencesRequest{}), http.StatusBadRequest)
	})

	t.Run("invalid timestamp is a 400", func(t *testing.T) {
		bad := "yesterday"
		testutil.AssertStatus(t, update(models.UpdatePreferencesRequest{TermsAcceptedAt: &bad}), http.StatusBadRequest)
	})
}
