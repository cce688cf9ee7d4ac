// Copyright (c) 2025 Aysel Karaca.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package captcha

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ayselk/proverbly/cliparse"
)

// fakeTurnstile returns a verifier pointed at a stub verification service
func fakeTurnstile(t *testing.T, cfg cliparse.Config, respond func(r *http.Request) verifyResponse) *Verifier {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Fatalf("Failed to parse verify form: %v", err)
		}
		json.NewEncoder(w).Encode(respond(r))
	}))
	t.Cleanup(server.Close)

	v := New(cfg)
	v.verifyURL = server.URL
	return v
}

func enforceConfig() cliparse.Config {
	return cliparse.Config{
		CaptchaProvider: "turnstile",
		CaptchaSecret:   "test-secret",
		CaptchaMode:     cliparse.CaptchaEnforce,
	}
}

func monitorConfig() cliparse.Config {
	cfg := enforceConfig()
	cfg.CaptchaMode = cliparse.CaptchaMonitor
	return cfg
}

func TestRequire_ValidToken(t *testing.T) {
	v := fakeTurnstile(t, enforceConfig(), func(r *http.Request) verifyResponse {
		if r.FormValue("response") != "good-token" {
			t.Errorf("Expected token forwarded, got %q", r.FormValue("response"))
		}
		return verifyResponse{Success: true, Action: "report_proverb"}
	})

	req := httptest.NewRequest("POST", "/", nil)
	if err := v.Require(req, "good-token", "report_proverb"); err != nil {
		t.Errorf("Valid token should pass: %v", err)
	}
}

func TestRequire_EnforceRejectsFailure(t *testing.T) {
	v := fakeTurnstile(t, enforceConfig(), func(*http.Request) verifyResponse {
		return verifyResponse{Success: false, ErrorCodes: []string{"invalid-input-response"}}
	})

	req := httptest.NewRequest("POST", "/", nil)
	err := v.Require(req, "bad-token", "report_proverb")
	if err == nil {
		t.Fatal("Enforce mode should reject a failed verification")
	}
	if err.Status != http.StatusForbidden {
		t.Errorf("Expected 403, got %d", err.Status)
	}
}

func TestRequire_MonitorNeverBlocks(t *testing.T) {
	v := fakeTurnstile(t, monitorConfig(), func(*http.Request) verifyResponse {
		return verifyResponse{Success: false, ErrorCodes: []string{"invalid-input-response"}}
	})

	req := httptest.NewRequest("POST", "/", nil)
	if err := v.Require(req, "bad-token", "report_proverb"); err != nil {
		t.Errorf("Monitor mode must never block: %v", err)
	}

	// Missing token is also allowed in monitor mode
	if err := v.Require(req, "", "report_proverb"); err != nil {
		t.Errorf("Monitor mode must never block on missing token: %v", err)
	}
}

func TestRequire_EnforceMissingSecretIsServerError(t *testing.T) {
	cfg := enforceConfig()
	cfg.CaptchaSecret = ""
	v := New(cfg)

	req := httptest.NewRequest("POST", "/", nil)
	err := v.Require(req, "any-token", "report_proverb")
	if err == nil {
		t.Fatal("Enforce mode with no secret is a misconfiguration")
	}
	if err.Status != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", err.Status)
	}
}

func TestVerify_ActionMismatch(t *testing.T) {
	v := fakeTurnstile(t, enforceConfig(), func(*http.Request) verifyResponse {
		return verifyResponse{Success: true, Action: "some_other_action"}
	})

	req := httptest.NewRequest("POST", "/", nil)
	result := v.Verify(req, "good-token", "report_proverb")
	if result.OK {
		t.Error("Action mismatch should fail verification")
	}
	if result.Skipped {
		t.Error("Action mismatch is a failure, not a skip")
	}
}

func TestVerify_MissingToken(t *testing.T) {
	v := New(enforceConfig())

	req := httptest.NewRequest("POST", "/", nil)
	result := v.Verify(req, "", "report_proverb")
	if result.OK || result.Skipped {
		t.Errorf("Missing token should fail, got %+v", result)
	}
	if result.Reason != "missing_token" {
		t.Errorf("Expected missing_token, got %q", result.Reason)
	}
}

func TestVerify_UnsupportedProviderSkips(t *testing.T) {
	cfg := enforceConfig()
	cfg.CaptchaProvider = "recaptcha"
	v := New(cfg)

	req := httptest.NewRequest("POST", "/", nil)
	result := v.Verify(req, "token", "report_proverb")
	if !result.Skipped {
		t.Errorf("Unsupported provider should skip, got %+v", result)
	}
}

func TestVerify_ForwardsClientIP(t *testing.T) {
	v := fakeTurnstile(t, enforceConfig(), func(r *http.Request) verifyResponse {
		if r.FormValue("remoteip") != "203.0.113.7" {
			t.Errorf("Expected forwarded client IP, got %q", r.FormValue("remoteip"))
		}
		return verifyResponse{Success: true}
	})

	req := httptest.NewRequest("POST", "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7")
	v.Verify(req, "token", "report_proverb")
}
