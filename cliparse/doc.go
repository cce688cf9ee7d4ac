// Copyright (c) 2025 Aysel Karaca.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles configuration from CLI flags and environment.

CLI flags take precedence over environment variables; a .env file is loaded
first via godotenv when present. Required settings are the database URL,
SESSION_SECRET, and RATELIMIT_SALT. Captcha settings are optional: with no
secret configured, verification reports "skipped" and the captcha mode
decides whether that blocks the request.
*/
package cliparse
