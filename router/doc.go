// Copyright (c) 2025 Aysel Karaca.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package router defines HTTP routes for the Proverbly API.

# Route Registration

NewRouter creates a configured http.ServeMux with all endpoints:

	mux := router.NewRouter(db, cfg)

# Endpoints

Health:

	GET /health

Public reads (rate-limited per IP):

	GET /api/proverbs/feed              - Published feed (trending/newest)
	GET /api/proverbs/{id}              - Proverb detail with guess options
	GET /api/proverbs/{id}/reactions    - Emoji reactions
	GET /api/proverbs/{id}/distribution - Answer distribution
	GET /api/leaderboard                - Top proverbs by votes

Guess game:

	GET  /api/play/random                 - Random unanswered proverb
	GET  /api/proverbs/{id}/random-next   - Next random, excluding current
	GET  /api/proverbs/{id}/guess         - Caller's stored guess
	POST /api/proverbs/{id}/guess         - Record a guess (once)

Authenticated writes:

	POST /api/proverbs/{id}/reactions - Toggle emoji reaction
	POST /api/proverbs/{id}/vote      - Toggle vote
	GET  /api/proverbs/{id}/report    - Has the caller reported this
	POST /api/proverbs/{id}/report    - File a report (captcha-gated)
	POST /api/proverbs/submit         - Submit a proverb (captcha-gated)

Auth flow (passwordless):

	POST /api/auth/magic-link - Request a sign-in link
	POST /api/auth/session    - Exchange link token for a session JWT

Profile:

	GET  /api/profile/role                - Role and ban state
	POST /api/profile/preferences         - Update consents/opt-in
	POST /api/profile/preferences/consume - Fold pending consent into profile

Moderation (moderator or admin; user management and removal admin-only):

	GET   /api/manage/moderation/pending       - Pending queue
	POST  /api/manage/moderation/{id}/approve  - Publish
	POST  /api/manage/moderation/{id}/reject   - Reject
	GET   /api/manage/reports                  - Reports by status
	POST  /api/manage/reports/{id}/resolve     - Resolve (flags proverb)
	POST  /api/manage/reports/{id}/dismiss     - Dismiss
	GET   /api/manage/stats                    - Dashboard totals
	GET   /api/manage/proverbs                 - Search proverbs
	GET   /api/manage/proverbs/languages       - Language histogram
	GET   /api/manage/proverbs/{id}            - Editor detail
	PATCH /api/manage/proverbs/{id}            - Full edit
	GET   /api/manage/users                    - Search users
	POST  /api/manage/users/{id}/ban           - Ban
	POST  /api/manage/users/{id}/unban         - Unban
	POST  /api/manage/users/{id}/role          - Change role
	POST  /api/proverbs/{id}/remove            - Remove (flag) a proverb

# Handler Initialization

The router builds one shared rate limiter (durable SQL store with an
in-process mirror) and one captcha verifier, then creates handler
instances with dependency injection. All handlers receive the database
connection and configuration.
*/
package router
