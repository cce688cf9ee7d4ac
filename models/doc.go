// Copyright (c) 2025 Aysel Karaca.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package models defines request, response, and domain types for the API.

# Domain Types

Internal data structures mirroring the database tables:

  - Proverb: a submitted saying with original text, literal translation,
    and meaning, plus a denormalized vote count
  - GuessOption: one candidate meaning; sort_order 0 is the correct one
  - StoredGuess: a user's recorded answer for a proverb
  - Reaction: one emoji per (user, proverb)
  - Report: an abuse report with open/resolved/dismissed lifecycle
  - Profile: user record with role and ban state
  - ModAction: append-only moderation audit row

# Constants

Proverb statuses:

	StatusPending, StatusPublished, StatusRejected, StatusFlagged, StatusDraft

Report statuses:

	ReportOpen, ReportResolved, ReportDismissed

Roles:

	RoleUser, RoleModerator, RoleAdmin

Mod action names written to the audit log:

	ActionApprove, ActionReject, ActionResolveReport, ActionDismissReport,
	ActionRemoveProverb, ActionEditProverb, ActionBan, ActionUnban,
	ActionRoleChange

# Request/Response Types

Request types parse incoming JSON (SubmitProverbRequest, SubmitGuessRequest,
ToggleReactionRequest, MagicLinkRequest, ...). Response types serialize
handler output; every mutating endpoint that has nothing else to report
returns OKResponse.
*/
package models
