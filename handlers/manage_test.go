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

func TestApproveAndReject(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewManageHandler(conn, cfg, ratelimit.New(nil))

	owner := testutil.CreateTestUser(t, conn, models.RoleUser)
	modID := testutil.CreateTestUser(t, conn, models.RoleModerator)
	modToken := testutil.SessionFor(t, cfg, modID)

	review := func(action, proverbID, token, note string) *httptest.ResponseRecorder {
		req := testutil.MakeRequest("POST", "/api/manage/moderation/"+proverbID+"/"+action,
			models.ModerationNoteRequest{Note: note}, testutil.AuthHeader(token))
		req.SetPathValue("id", proverbID)
		w := httptest.NewRecorder()
		if action == "approve" {
			handler.Approve(w, req)
		} else {
			handler.Reject(w, req)
		}
		return w
	}

	t.Run("approve publishes and audits", func(t *testing.T) {
		proverbID := testutil.CreateTestProverb(t, conn, owner, models.StatusPending)
		testutil.AssertStatus(t, review("approve", proverbID, modToken, "looks good"), http.StatusOK)

		var status string
		if err := conn.QueryRow(`SELECT status FROM proverb WHERE id = $1`, proverbID).Scan(&status); err != nil {
			t.Fatalf("Failed to query proverb: %v", err)
		}
		if status != models.StatusPublished {
			t.Errorf("Expected published, got %s", status)
		}

		var action string
		var note *string
		if err := conn.QueryRow(`
			SELECT action, note FROM mod_action WHERE target_id = $1
		`, proverbID).Scan(&action, &note); err != nil {
			t.Fatalf("Audit row missing: %v", err)
		}
		if action != models.ActionApprove || note == nil || *note != "looks good" {
			t.Errorf("Unexpected audit row: %s %v", action, note)
		}
	})

	t.Run("reject", func(t *testing.T) {
		proverbID := testutil.CreateTestProverb(t, conn, owner, models.StatusPending)
		testutil.AssertStatus(t, review("reject", proverbID, modToken, ""), http.StatusOK)

		var status string
		if err := conn.QueryRow(`SELECT status FROM proverb WHERE id = $1`, proverbID).Scan(&status); err != nil {
			t.Fatalf("Failed to query proverb: %v", err)
		}
		if status != models.StatusRejected {
			t.Errorf("Expected rejected, got %s", status)
		}
	})

	t.Run("already-reviewed proverb is a 404", func(t *testing.T) {
		proverbID := testutil.CreateTestProverb(t, conn, owner, models.StatusPublished)
		testutil.AssertStatus(t, review("approve", proverbID, modToken, ""), http.StatusNotFound)
	})

	t.Run("plain users are forbidden", func(t *testing.T) {
		proverbID := testutil.CreateTestProverb(t, conn, owner, models.StatusPending)
		userToken := testutil.SessionFor(t, cfg, owner)
		testutil.AssertStatus(t, review("approve", proverbID, userToken, ""), http.StatusForbidden)
	})
}

func TestResolveReport(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewManageHandler(conn, cfg, ratelimit.New(nil))

	owner := testutil.CreateTestUser(t, conn, models.RoleUser)
	reporter := testutil.CreateTestUser(t, conn, models.RoleUser)
	modID := testutil.CreateTestUser(t, conn, models.RoleModerator)
	modToken := testutil.SessionFor(t, cfg, modID)

	proverbID := testutil.CreateTestProverb(t, conn, owner, models.StatusPublished)
	if _, err := conn.Exec(`
		INSERT INTO report (id, proverb_id, reporter_id, reason) VALUES ('rep1', $1, $2, 'Spam')
	`, proverbID, reporter); err != nil {
		t.Fatalf("Failed to insert report: %v", err)
	}

	req := testutil.MakeRequest("POST", "/api/manage/reports/rep1/resolve",
		models.ModerationNoteRequest{}, testutil.AuthHeader(modToken))
	req.SetPathValue("id", "rep1")
	w := httptest.NewRecorder()
	handler.Resolve(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var reportStatus string
	var resolvedBy *string
	if err := conn.QueryRow(`
		SELECT status, resolved_by FROM report WHERE id = 'rep1'
	`).Scan(&reportStatus, &resolvedBy); err != nil {
		t.Fatalf("Failed to query report: %v", err)
	}
	if reportStatus != models.ReportResolved || resolvedBy == nil || *resolvedBy != modID {
		t.Errorf("Unexpected report state: %s %v", reportStatus, resolvedBy)
	}

	var proverbStatus string
	if err := conn.QueryRow(`SELECT status FROM proverb WHERE id = $1`, proverbID).Scan(&proverbStatus); err != nil {
		t.Fatalf("Failed to query proverb: %v", err)
	}
	if proverbStatus != models.StatusFlagged {
		t.Errorf("Resolving a report should flag the proverb, got %s", proverbStatus)
	}

	// Resolving again is a 404: the report is no longer open
	w = httptest.NewRecorder()
	req = testutil.MakeRequest("POST", "/api/manage/reports/rep1/resolve",
		models.ModerationNoteRequest{}, testutil.AuthHeader(modToken))
	req.SetPathValue("id", "rep1")
	handler.Resolve(w, req)
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestDismissReport(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewManageHandler(conn, cfg, ratelimit.New(nil))

	owner := testutil.CreateTestUser(t, conn, models.RoleUser)
	reporter := testutil.CreateTestUser(t, conn, models.RoleUser)
	modID := testutil.CreateTestUser(t, conn, models.RoleAdmin)
	modToken := testutil.SessionFor(t, cfg, modID)

	proverbID := testutil.CreateTestProverb(t, conn, owner, models.StatusPublished)
	if _, err := conn.Exec(`
		INSERT INTO report (id, proverb_id, reporter_id, reason) VALUES ('rep2', $1, $2, 'Dislike')
	`, proverbID, reporter); err != nil {
		t.Fatalf("Failed to insert report: %v", err)
	}

	req := testutil.MakeRequest("POST", "/api/manage/reports/rep2/dismiss",
		models.ModerationNoteRequest{Note: "not actionable"}, testutil.AuthHeader(modToken))
	req.SetPathValue("id", "rep2")
	w := httptest.NewRecorder()
	handler.Dismiss(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	// Dismissal leaves the proverb alone
	var proverbStatus string
	if err := conn.QueryRow(`SELECT status FROM proverb WHERE id = $1`, proverbID).Scan(&proverbStatus); err != nil {
		t.Fatalf("Failed to query proverb: %v", err)
	}
	if proverbStatus != models.StatusPublished {
		t.Errorf("Dismissing a report must not touch the proverb, got %s", proverbStatus)
	}
}

func TestStats(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewManageHandler(conn, cfg, ratelimit.New(nil))

	owner := testutil.CreateTestUser(t, conn, models.RoleUser)
	modID := testutil.CreateTestUser(t, conn, models.RoleModerator)
	modToken := testutil.SessionFor(t, cfg, modID)

	testutil.CreateTestProverb(t, conn, owner, models.StatusPublished)
	testutil.CreateTestProverb(t, conn, owner, models.StatusPending)
	if err := LogModAction(conn, modID, models.ActionApprove, "proverb", "p-old", nil); err != nil {
		t.Fatalf("Failed to seed mod action: %v", err)
	}

	req := testutil.MakeRequest("GET", "/api/manage/stats", nil, testutil.AuthHeader(modToken))
	w := httptest.NewRecorder()
	handler.Stats(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var resp models.StatsResponse
	testutil.AssertJSON(t, w, &resp)
	if resp.Stats.TotalUsers != 2 || resp.Stats.TotalProverbs != 2 ||
		resp.Stats.PublishedProverbs != 1 || resp.Stats.PendingProverbs != 1 {
		t.Errorf("Unexpected stats: %+v", resp.Stats)
	}
	if len(resp.RecentActions) != 1 || resp.RecentActions[0].CreatedAgo == "" {
		t.Errorf("Expected 1 recent action with humanized age, got %+v", resp.RecentActions)
	}
}

func TestUserManagementIsAdminOnly(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewManageHandler(conn, cfg, ratelimit.New(nil))

	target := testutil.CreateTestUser(t, conn, models.RoleUser)
	modToken := testutil.SessionFor(t, cfg, testutil.CreateTestUser(t, conn, models.RoleModerator))
	adminID := testutil.CreateTestUser(t, conn, models.RoleAdmin)
	adminToken := testutil.SessionFor(t, cfg, adminID)

	ban := func(token string) *httptest.ResponseRecorder {
		req := testutil.MakeRequest("POST", "/api/manage/users/"+target+"/ban", nil, testutil.AuthHeader(token))
		req.SetPathValue("id", target)
		w := httptest.NewRecorder()
		handler.Ban(w, req)
		return w
	}

	t.Run("moderators cannot manage users", func(t *testing.T) {
		testutil.AssertStatus(t, ban(modToken), http.StatusForbidden)
	})

	t.Run("admin ban and unban", func(t *testing.T) {
		testutil.AssertStatus(t, ban(adminToken), http.StatusOK)

		var bannedAt *string
		if err := conn.QueryRow(`SELECT banned_at FROM profile WHERE id = $1`, target).Scan(&bannedAt); err != nil {
			t.Fatalf("Failed to query profile: %v", err)
		}
		if bannedAt == nil {
			t.Error("Expected banned_at to be set")
		}

		req := testutil.MakeRequest("POST", "/api/manage/users/"+target+"/unban", nil, testutil.AuthHeader(adminToken))
		req.SetPathValue("id", target)
		w := httptest.NewRecorder()
		handler.Unban(w, req)
		testutil.AssertStatus(t, w, http.StatusOK)

		if err := conn.QueryRow(`SELECT banned_at FROM profile WHERE id = $1`, target).Scan(&bannedAt); err != nil {
			t.Fatalf("Failed to query profile: %v", err)
		}
		if bannedAt != nil {
			t.Error("Expected banned_at cleared after unban")
		}
	})

	t.Run("role change writes the audit note", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/api/manage/users/"+target+"/role",
			models.ChangeRoleRequest{Role: models.RoleModerator}, testutil.AuthHeader(adminToken))
		req.SetPathValue("id", target)
		w := httptest.NewRecorder()
		handler.ChangeRole(w, req)
		testutil.AssertStatus(t, w, http.StatusOK)

		var note *string
		if err := conn.QueryRow(`
			SELECT note FROM mod_action WHERE target_id = $1 AND action = $2
		`, target, models.ActionRoleChange).Scan(&note); err != nil {
			t.Fatalf("Audit row missing: %v", err)
		}
		if note == nil || *note != "Changed to moderator" {
			t.Errorf("Unexpected audit note: %v", note)
		}
	})

	t.Run("admins cannot change their own role", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/api/manage/users/"+adminID+"/role",
			models.ChangeRoleRequest{Role: models.RoleUser}, testutil.AuthHeader(adminToken))
		req.SetPathValue("id", adminID)
		w := httptest.NewRecorder()
		handler.ChangeRole(w, req)
		testutil.AssertStatus(t, w, http.StatusBadRequest)
	})
}

func TestEditProverbReplacesOptions(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewManageHandler(conn, cfg, ratelimit.New(nil))

	owner := testutil.CreateTestUser(t, conn, models.RoleUser)
	modToken := testutil.SessionFor(t, cfg, testutil.CreateTestUser(t, conn, models.RoleModerator))
	proverbID := testutil.CreateTestProverb(t, conn, owner, models.StatusPending)
	testutil.AddTestOptions(t, conn, proverbID)

	body := models.EditProverbRequest{
		CountryCode:  "TR",
		LanguageName: "Turkish",
		OriginalText: "Damlaya damlaya göl olur.",
		LiteralText:  "Drop by drop, a lake forms.",
		MeaningText:  "Persistence pays off.",
		Status:       models.StatusPublished,
		WrongOptions: []string{"New wrong one.", "New wrong two.", "New wrong three."},
	}
	req := testutil.MakeRequest("PATCH", "/api/manage/proverbs/"+proverbID, body, testutil.AuthHeader(modToken))
	req.SetPathValue("id", proverbID)
	w := httptest.NewRecorder()
	handler.Edit(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var optionCount int
	var correctText string
	if err := conn.QueryRow(`
		SELECT COUNT(*) FROM guess_option WHERE proverb_id = $1
	`, proverbID).Scan(&optionCount); err != nil {
		t.Fatalf("Failed to count options: %v", err)
	}
	if err := conn.QueryRow(`
		SELECT option_text FROM guess_option WHERE proverb_id = $1 AND is_correct
	`, proverbID).Scan(&correctText); err != nil {
		t.Fatalf("Failed to query correct option: %v", err)
	}
	if optionCount != 4 || correctText != "Persistence pays off." {
		t.Errorf("Options not replaced: count=%d correct=%q", optionCount, correctText)
	}
}

func TestRemoveProverb(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewManageHandler(conn, cfg, ratelimit.New(nil))

	owner := testutil.CreateTestUser(t, conn, models.RoleUser)
	modToken := testutil.SessionFor(t, cfg, testutil.CreateTestUser(t, conn, models.RoleModerator))
	adminToken := testutil.SessionFor(t, cfg, testutil.CreateTestUser(t, conn, models.RoleAdmin))
	proverbID := testutil.CreateTestProverb(t, conn, owner, models.StatusPublished)

	remove := func(token string) *httptest.ResponseRecorder {
		req := testutil.MakeRequest("POST", "/api/proverbs/"+proverbID+"/remove", nil, testutil.AuthHeader(token))
		req.SetPathValue("id", proverbID)
		w := httptest.NewRecorder()
		handler.Remove(w, req)
		return w
	}

	t.Run("moderators cannot remove", func(t *testing.T) {
		testutil.AssertStatus(t, remove(modToken), http.StatusForbidden)
	})

	t.Run("admin removal flags the proverb", func(t *testing.T) {
		testutil.AssertStatus(t, remove(adminToken), http.StatusOK)

		var status string
		if err := conn.QueryRow(`SELECT status FROM proverb WHERE id = $1`, proverbID).Scan(&status); err != nil {
			t.Fatalf("Failed to query proverb: %v", err)
		}
		if status != models.StatusFlagged {
			t.Errorf("Expected flagged, got %s", status)
		}
	})
}
