// Copyright (c) 2025 Aysel Karaca.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ratelimit

import (
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ayselk/proverbly/middleware"
)

// ErrLimited is returned when an actor has exhausted its window budget.
var ErrLimited = errors.New("rate limit exceeded")

// memory mirror purge threshold
const purgeThreshold = 5000

// Bucket is a fixed-window counter. ResetAt is a unix-millisecond deadline.
type Bucket struct {
	Count   int
	ResetAt int64
}

// Store is the durable bucket store. Lookups are best-effort: the limiter
// degrades to its in-process mirror when the store errors, so a transient
// store outage weakens limiting to process-local instead of failing open.
type Store interface {
	Get(key string) (Bucket, bool, error)
	Set(key string, b Bucket) error
}

// Options name one protected operation and its window budget. Key overrides
// the actor key (user id, or email for pre-auth flows); when empty the
// client IP is used.
type Options struct {
	Name   string
	Max    int
	Window time.Duration
	Key    string
}

// Limiter enforces fixed-window rate limits keyed by (operation, actor).
//
// The window is fixed, not sliding, and bucket updates are read-then-write
// without a transactional guard: concurrent requests in the same window can
// both observe a stale count and slip slightly past the nominal max. That
// approximation is accepted; this is an abuse brake, not an admission
// controller.
type Limiter struct {
	store Store // may be nil (memory-only)

	mu     sync.Mutex
	memory map[string]Bucket

	now func() time.Time
}

// New creates a limiter backed by the given durable store. A nil store
// yields a process-local limiter.
func New(store Store) *Limiter {
	return &Limiter{
		store:  store,
		memory: make(map[string]Bucket),
		now:    time.Now,
	}
}

// Enforce counts one request against the (Name, actor) bucket and returns
// ErrLimited when the bucket is at or over Max within the current window.
func (l *Limiter) Enforce(r *http.Request, opts Options) error {
	now := l.now().UnixMilli()

	actorKey := opts.Key
	if actorKey == "" {
		actorKey = middleware.GetClientIP(r)
	}
	if actorKey == "" {
		// Shared bucket for all untraceable clients, not a hard failure.
		actorKey = "unknown-ip"
	}

	bucketKey := "ratelimit:" + opts.Name + ":" + actorKey

	l.mu.Lock()
	defer l.mu.Unlock()

	bucket, found := l.load(bucketKey)

	if !found || bucket.ResetAt <= now {
		next := Bucket{Count: 1, ResetAt: now + opts.Window.Milliseconds()}
		l.persist(bucketKey, next)
		return nil
	}

	if bucket.Count >= opts.Max {
		return ErrLimited
	}

	l.persist(bucketKey, Bucket{Count: bucket.Count + 1, ResetAt: bucket.ResetAt})

	if len(l.memory) > purgeThreshold {
		l.purgeLocked(now)
	}

	return nil
}

// load reads the durable store first, falling back to the memory mirror.
// Caller holds l.mu.
func (l *Limiter) load(key string) (Bucket, bool) {
	if l.store != nil {
		bucket, found, err := l.store.Get(key)
		if err != nil {
			slog.Warn("rate-limit store read failed, using memory mirror", "key", key, "error", err)
		} else if found {
			return bucket, true
		}
	}

	bucket, found := l.memory[key]
	return bucket, found
}

// persist writes to both the durable store and the memory mirror.
// Caller holds l.mu.
func (l *Limiter) persist(key string, b Bucket) {
	if l.store != nil {
		if err := l.store.Set(key, b); err != nil {
			slog.Warn("rate-limit store write failed", "key", key, "error", err)
		}
	}
	l.memory[key] = b
}

// purgeLocked drops expired mirror entries. Runs opportunistically during
// normal operation rather than on a timer. Caller holds l.mu.
func (l *Limiter) purgeLocked(now int64) {
	for key, entry := range l.memory {
		if entry.ResetAt <= now {
			delete(l.memory, key)
		}
	}
}

// SQLStore persists buckets in the rate_bucket table.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) Get(key string) (Bucket, bool, error) {
	var b Bucket
	err := s.db.QueryRow(`
		SELECT count, reset_at_ms FROM rate_bucket WHERE bucket_key = $1
	`, key).Scan(&b.Count, &b.ResetAt)
	if err == sql.ErrNoRows {
		return Bucket{}, false, nil
	}
	if err != nil {
		return Bucket{}, false, err
	}
	return b, true, nil
}

func (s *SQLStore) Set(key string, b Bucket) error {
	_, err := s.db.Exec(`
		INSERT INTO rate_bucket (bucket_key, count, reset_at_ms)
		VALUES ($1, $2, $3)
		ON CONFLICT (bucket_key) DO UPDATE SET count = excluded.count, reset_at_ms = excluded.reset_at_ms
	`, key, b.Count, b.ResetAt)
	return err
}
