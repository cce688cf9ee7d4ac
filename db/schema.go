// Copyright (c) 2025 Aysel Karaca.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
// The DDL is restricted to the dialect both SQLite and PostgreSQL accept.
func CreateSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	return nil
}

// IsUniqueViolation reports whether err is a unique-constraint failure.
// Matches both the modernc sqlite and lib/pq error shapes.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

const schema = `
-- Proverbs
CREATE TABLE IF NOT EXISTS proverb (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    country_code TEXT NOT NULL,
    region TEXT,
    language_name TEXT NOT NULL,
    original_text TEXT NOT NULL,
    literal_text TEXT NOT NULL,
    meaning_text TEXT NOT NULL,
    vote_count INTEGER NOT NULL DEFAULT 0,
    status TEXT NOT NULL DEFAULT 'pending' CHECK (status IN ('pending', 'published', 'rejected', 'flagged', 'draft')),
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_proverb_status ON proverb(status);
CREATE INDEX IF NOT EXISTS idx_proverb_user ON proverb(user_id);
CREATE INDEX IF NOT EXISTS idx_proverb_vote_count ON proverb(vote_count);

-- Guess options (sort_order 0 = correct answer, 1-3 = distractors)
CREATE TABLE IF NOT EXISTS guess_option (
    id TEXT PRIMARY KEY,
    proverb_id TEXT NOT NULL REFERENCES proverb(id) ON DELETE CASCADE,
    option_text TEXT NOT NULL,
    is_correct BOOLEAN NOT NULL DEFAULT FALSE,
    sort_order INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_guess_option_proverb ON guess_option(proverb_id);

-- Guesses (at most one per user per proverb)
CREATE TABLE IF NOT EXISTS guess (
    user_id TEXT NOT NULL,
    proverb_id TEXT NOT NULL REFERENCES proverb(id) ON DELETE CASCADE,
    selected_option TEXT NOT NULL,
    is_correct BOOLEAN NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (user_id, proverb_id)
);

CREATE INDEX IF NOT EXISTS idx_guess_proverb ON guess(proverb_id);

-- Reactions (one emoji per user per proverb)
CREATE TABLE IF NOT EXISTS reaction (
    user_id TEXT NOT NULL,
    proverb_id TEXT NOT NULL REFERENCES proverb(id) ON DELETE CASCADE,
    emoji TEXT NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (user_id, proverb_id)
);

CREATE INDEX IF NOT EXISTS idx_reaction_proverb ON reaction(proverb_id);

-- Votes (presence record; proverb.vote_count tracks cardinality)
CREATE TABLE IF NOT EXISTS vote (
    user_id TEXT NOT NULL,
    proverb_id TEXT NOT NULL REFERENCES proverb(id) ON DELETE CASCADE,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    PRIMARY KEY (user_id, proverb_id)
);

CREATE INDEX IF NOT EXISTS idx_vote_proverb ON vote(proverb_id);

-- Abuse reports
CREATE TABLE IF NOT EXISTS report (
    id TEXT PRIMARY KEY,
    reporter_id TEXT NOT NULL,
    proverb_id TEXT NOT NULL REFERENCES proverb(id) ON DELETE CASCADE,
    reason TEXT NOT NULL,
    status TEXT NOT NULL DEFAULT 'open' CHECK (status IN ('open', 'resolved', 'dismissed')),
    resolved_by TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (reporter_id, proverb_id)
);

CREATE INDEX IF NOT EXISTS idx_report_status ON report(status);

-- Profiles (id = auth user id)
CREATE TABLE IF NOT EXISTS profile (
    id TEXT PRIMARY KEY,
    display_name TEXT,
    email TEXT NOT NULL UNIQUE,
    role TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'moderator', 'admin')),
    banned_at TIMESTAMP,
    marketing_updates_opt_in BOOLEAN NOT NULL DEFAULT FALSE,
    terms_accepted_at TIMESTAMP,
    privacy_accepted_at TIMESTAMP,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_profile_role ON profile(role);

-- Moderation audit log (append-only)
CREATE TABLE IF NOT EXISTS mod_action (
    id TEXT PRIMARY KEY,
    mod_id TEXT NOT NULL,
    action TEXT NOT NULL,
    target_type TEXT NOT NULL,
    target_id TEXT NOT NULL,
    note TEXT,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_mod_action_created ON mod_action(created_at);

-- Pending magic-link sign-ins with recorded consent
CREATE TABLE IF NOT EXISTS login_token (
    token TEXT PRIMARY KEY,
    email TEXT NOT NULL,
    marketing_updates_opt_in BOOLEAN NOT NULL DEFAULT FALSE,
    terms_accepted_at TIMESTAMP NOT NULL,
    privacy_accepted_at TIMESTAMP NOT NULL,
    consumed_at TIMESTAMP,
    expires_at TIMESTAMP NOT NULL,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_login_token_email ON login_token(email);

-- Durable rate-limit buckets
CREATE TABLE IF NOT EXISTS rate_bucket (
    bucket_key TEXT PRIMARY KEY,
    count INTEGER NOT NULL,
    reset_at_ms INTEGER NOT NULL
);
`
