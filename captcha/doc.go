// Copyright (c) 2025 Aysel Karaca.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package captcha validates client challenge tokens before sensitive writes
(magic-link requests, report submission, proverb submission).

Only the Turnstile provider is supported. The verification call forwards the
caller's IP and user agent and runs under a bounded timeout so a slow
verifier cannot stall the protected endpoint.

# Modes

The configured mode decides what a non-ok verification does:

  - monitor: log the outcome and allow the request. Used to collect signal
    without affecting users.
  - enforce: a failed verification rejects the request (403); a skipped one
    (missing secret, unsupported provider) is treated as a server
    misconfiguration (500).

# Usage

	verifier := captcha.New(cfg)

	if err := verifier.Require(r, req.CaptchaToken, "submit_proverb"); err != nil {
		middleware.ErrorResponse(w, err.Status, err.Message)
		return
	}
*/
package captcha
