// Copyright (c) 2025 Aysel Karaca.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package captcha

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ayselk/proverbly/cliparse"
	"github.com/ayselk/proverbly/middleware"
)

// Cloudflare Turnstile verification endpoint
const turnstileVerifyURL = "https://challenges.cloudflare.com/turnstile/v0/siteverify"

// Bounded timeout so a slow verifier cannot stall the protected endpoint
const verifyTimeout = 7 * time.Second

// Result is one verification outcome: ok, skipped (provider unsupported or
// secret absent), or failed (missing token, rejected, action mismatch).
type Result struct {
	OK      bool
	Skipped bool
	Reason  string
}

// Error carries the HTTP status a blocked request should get.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string { return e.Message }

type verifyResponse struct {
	Success    bool     `json:"success"`
	ErrorCodes []string `json:"error-codes"`
	Action     string   `json:"action"`
}

// Verifier validates client challenge tokens against the configured
// provider. Only Turnstile is supported.
type Verifier struct {
	provider  string
	secret    string
	mode      string
	verifyURL string
	client    *http.Client
}

func New(cfg cliparse.Config) *Verifier {
	return &Verifier{
		provider:  cfg.CaptchaProvider,
		secret:    cfg.CaptchaSecret,
		mode:      cfg.CaptchaMode,
		verifyURL: turnstileVerifyURL,
		client:    &http.Client{Timeout: verifyTimeout},
	}
}

// Verify checks the token with the external service. The caller's IP and
// user agent are forwarded when available.
func (v *Verifier) Verify(r *http.Request, token, action string) Result {
	if v.provider != "turnstile" {
		return Result{OK: true, Skipped: true, Reason: "unsupported_provider"}
	}
	if v.secret == "" {
		return Result{OK: true, Skipped: true, Reason: "missing_secret"}
	}
	if token == "" {
		return Result{Reason: "missing_token"}
	}

	payload := url.Values{}
	payload.Set("secret", v.secret)
	payload.Set("response", token)
	if ip := middleware.GetClientIP(r); ip != "" {
		payload.Set("remoteip", ip)
	}

	req, err := http.NewRequestWithContext(r.Context(), http.MethodPost, v.verifyURL, strings.NewReader(payload.Encode()))
	if err != nil {
		return Result{Reason: "verify_error:" + err.Error()}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if ua := r.UserAgent(); ua != "" {
		req.Header.Set("User-Agent", ua)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return Result{Reason: "verify_error:" + err.Error()}
	}
	defer resp.Body.Close()

	var data verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return Result{Reason: "verify_error:" + err.Error()}
	}

	if !data.Success {
		reason := strings.Join(data.ErrorCodes, ",")
		if reason == "" {
			reason = "unknown"
		}
		return Result{Reason: "verify_failed:" + reason}
	}

	if data.Action != "" && data.Action != action {
		return Result{Reason: "action_mismatch:" + data.Action}
	}

	return Result{OK: true, Reason: "ok"}
}

// Require verifies the token and decides whether the request may proceed.
// Returns nil to allow. In monitor mode failures are logged and allowed;
// in enforce mode a skipped verification is a server misconfiguration (500)
// and a failed one rejects the request (403).
func (v *Verifier) Require(r *http.Request, token, action string) *Error {
	result := v.Verify(r, token, action)

	if result.OK && !result.Skipped {
		return nil
	}

	if result.Skipped {
		if v.mode == cliparse.CaptchaEnforce {
			return &Error{Status: http.StatusInternalServerError, Message: "CAPTCHA is misconfigured on the server."}
		}
		slog.Warn("captcha skipped", "action", action, "reason", result.Reason, "ip", middleware.GetClientIP(r))
		return nil
	}

	if v.mode == cliparse.CaptchaEnforce {
		return &Error{Status: http.StatusForbidden, Message: "CAPTCHA verification failed."}
	}

	slog.Warn("captcha failed", "action", action, "reason", result.Reason, "ip", middleware.GetClientIP(r))
	return nil
}
