// Copyright (c) 2025 Aysel Karaca.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package handlers contains the HTTP handlers for the proverbs API:
// the public feed and detail reads, the guess game, reactions, votes,
// reports, submissions, the passwordless auth flow, profile endpoints,
// and the moderation dashboard.
//
// Handlers share a small access layer (access.go) that resolves the
// session JWT into a user id and checks roles and ban state, and a
// common rate-limit gate (common.go) applied per operation.
package handlers
