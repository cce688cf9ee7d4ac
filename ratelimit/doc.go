// Copyright (c) 2025 Aysel Karaca.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package ratelimit implements a best-effort fixed-window rate limiter.

Buckets are keyed by (operation name, actor key). The actor key is an
explicit key when the caller supplies one (user id, or email for pre-auth
flows), otherwise the client IP, with "unknown-ip" as a shared bucket for
untraceable clients.

	limiter := ratelimit.New(ratelimit.NewSQLStore(db))

	if err := limiter.Enforce(r, ratelimit.Options{
		Name:   "submit-proverb",
		Max:    10,
		Window: time.Minute,
		Key:    userID,
	}); err != nil {
		middleware.ErrorResponse(w, http.StatusTooManyRequests, "Rate limit exceeded. Please try again shortly.")
		return
	}

# Guarantees

The limiter is deliberately approximate:

  - The window is fixed, not sliding.
  - Bucket updates are read-then-write without a transactional guard, so
    concurrent requests from one actor can both pass slightly over the max.
  - The durable store is best-effort. On store errors the limiter falls back
    to an in-process mirror, which means limiting is NOT coordinated across
    server instances while the store is down.

Expired mirror entries are purged opportunistically once the mirror exceeds
a few thousand entries; there is no dedicated cleanup timer.
*/
package ratelimit
