// Copyright (c) 2025 Aysel Karaca.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package main provides the entry point for the Proverbly API server.

Proverbly is a social archive of proverbs from around the world: users
submit proverbs with a meaning plus three distractor options, and other
users play a guessing game, react, vote, and report abuse. Moderators
review submissions and reports through an audited dashboard.

# Starting the Server

The server requires environment variables or CLI flags for configuration:

	DATABASE_URL=proverbly.db SESSION_SECRET=... RATELIMIT_SALT=... go run main.go

Or with flags:

	go run main.go -p 3419 -d "postgres://..." -t postgres

# Configuration

Required settings:

  - DATABASE_URL (-d): SQLite path or PostgreSQL connection string
  - SESSION_SECRET (-session-secret): Secret for session JWT signing
  - RATELIMIT_SALT (-ratelimit-salt): Secret for IP hashing in rate buckets

Optional settings:

  - PORT (-p): Server port (default: 3419)
  - DATABASE_TYPE (-t): sqlite or postgres (default: sqlite)
  - CAPTCHA_PROVIDER, CAPTCHA_SECRET, CAPTCHA_MODE: Turnstile verification
    (monitor logs failures and lets requests through; enforce rejects)
  - AUTH_BASE_URL (-auth-base-url): Base URL used in magic sign-in links

# Architecture

The server uses a handler-based architecture with dependency injection:

  - handlers: HTTP request handlers (feed, game, reactions, moderation)
  - router: Route definitions using Go 1.22+ routing
  - middleware: CORS, logging, JSON helpers
  - models: Request/response types
  - auth: Session JWTs, login tokens, identity resolution
  - captcha: Turnstile verification with monitor/enforce modes
  - ratelimit: Fixed-window limiter with durable store and memory mirror
  - db: Schema creation
  - cliparse: Configuration parsing

See package documentation for each component.
*/
package main
