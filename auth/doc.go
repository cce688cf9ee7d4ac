// Copyright (c) 2025 Aysel Karaca.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package auth provides identity and token utilities.

# Session Tokens

Sessions are HS256 JWTs issued when a magic-link sign-in is consumed:

	token, err := auth.SignSession(userID, email, secret)
	claims, err := auth.ParseSession(token, secret)

Claims carry the user id twice: in an explicit user_id field and in the
registered subject. ResolveIdentity accepts either shape with a fixed
precedence (user_id first, sub second), so tokens from other issuers that
only set sub still resolve:

	userID, err := auth.ResolveIdentity(claims)

# Login Tokens

Magic-link sign-in tokens are random 24-byte (192-bit) secrets:

	token, err := auth.GenerateLoginToken()

They are single-use and expire server-side; see the login_token table.

# ID Generation

Random hex IDs for database records:

	id, err := auth.GenerateID(16)  // 32 hex characters

# IP Hashing

For privacy-preserving rate-limit keys:

	hash := auth.HashIP(ipAddress, salt)

Returns first 8 bytes (16 hex chars) of HMAC-SHA256.
*/
package auth
