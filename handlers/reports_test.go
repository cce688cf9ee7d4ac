// Copyright (c) 2025 Aysel Karaca.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ayselk/proverbly/captcha"
	"github.com/ayselk/proverbly/models"
	"github.com/ayselk/proverbly/ratelimit"
	"github.com/ayselk/proverbly/testutil"
)

func TestSubmitReport(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewReportHandler(conn, cfg, ratelimit.New(nil), captcha.New(cfg))

	owner := testutil.CreateTestUser(t, conn, models.RoleUser)
	reporter := testutil.CreateTestUser(t, conn, models.RoleUser)
	token := testutil.SessionFor(t, cfg, reporter)
	proverbID := testutil.CreateTestProverb(t, conn, owner, models.StatusPublished)

	submit := func(proverb, reason string) *httptest.ResponseRecorder {
		req := testutil.MakeRequest("POST", "/api/proverbs/"+proverb+"/report",
			models.SubmitReportRequest{Reason: reason}, testutil.AuthHeader(token))
		req.SetPathValue("id", proverb)
		w := httptest.NewRecorder()
		handler.Submit(w, req)
		return w
	}

	t.Run("files a report", func(t *testing.T) {
		testutil.AssertStatus(t, submit(proverbID, "Offensive content"), http.StatusOK)

		var status string
		if err := conn.QueryRow(`
			SELECT status FROM report WHERE proverb_id = $1 AND reporter_id = $2
		`, proverbID, reporter).Scan(&status); err != nil {
			t.Fatalf("Failed to query report: %v", err)
		}
		if status != models.ReportOpen {
			t.Errorf("Expected open report, got %s", status)
		}
	})

	t.Run("duplicate report is a 400", func(t *testing.T) {
		testutil.AssertStatus(t, submit(proverbID, "Still offensive"), http.StatusBadRequest)
	})

	t.Run("blank reason is a 400", func(t *testing.T) {
		other := testutil.CreateTestProverb(t, conn, owner, models.StatusPublished)
		testutil.AssertStatus(t, submit(other, "   "), http.StatusBadRequest)
	})

	t.Run("unknown proverb is a 404", func(t *testing.T) {
		testutil.AssertStatus(t, submit("nope", "Bad"), http.StatusNotFound)
	})
}

func TestReportStatus(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewReportHandler(conn, cfg, ratelimit.New(nil), captcha.New(cfg))

	owner := testutil.CreateTestUser(t, conn, models.RoleUser)
	reporter := testutil.CreateTestUser(t, conn, models.RoleUser)
	token := testutil.SessionFor(t, cfg, reporter)
	proverbID := testutil.CreateTestProverb(t, conn, owner, models.StatusPublished)

	status := func() models.ReportStatusResponse {
		req := testutil.MakeRequest("GET", "/api/proverbs/"+proverbID+"/report", nil, testutil.AuthHeader(token))
		req.SetPathValue("id", proverbID)
		w := httptest.NewRecorder()
		handler.Status(w, req)
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.ReportStatusResponse
		testutil.AssertJSON(t, w, &resp)
		return resp
	}

	if status().HasReported {
		t.Error("Expected hasReported=false before reporting")
	}

	if _, err := conn.Exec(`
		INSERT INTO report (id, proverb_id, reporter_id, reason) VALUES ('r1', $1, $2, 'Spam')
	`, proverbID, reporter); err != nil {
		t.Fatalf("Failed to insert report: %v", err)
	}

	if !status().HasReported {
		t.Error("Expected hasReported=true after reporting")
	}
}
