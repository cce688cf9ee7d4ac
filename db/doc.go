// Copyright (c) 2025 Aysel Karaca.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package db handles database schema creation.

CreateSchema is idempotent and uses CREATE TABLE IF NOT EXISTS throughout.
The DDL sticks to the subset of SQL that both SQLite (modernc.org/sqlite)
and PostgreSQL (lib/pq) accept, so the same schema serves local development,
tests, and production.

IsUniqueViolation recognizes the unique-constraint error shapes of both
drivers; handlers use it to turn insert conflicts into domain behavior
(duplicate guess, duplicate report) instead of 500s.
*/
package db
