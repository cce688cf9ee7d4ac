// Copyright (c) 2025 Aysel Karaca.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/ayselk/proverbly/captcha"
	"github.com/ayselk/proverbly/cliparse"
	"github.com/ayselk/proverbly/handlers"
	"github.com/ayselk/proverbly/middleware"
	"github.com/ayselk/proverbly/ratelimit"
)

func NewRouter(db *sql.DB, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	limiter := ratelimit.New(ratelimit.NewSQLStore(db))
	verifier := captcha.New(cfg)

	// Initialize handlers
	proverbHandler := handlers.NewProverbHandler(db, cfg, limiter, verifier)
	gameHandler := handlers.NewGameHandler(db, cfg, limiter)
	reactionHandler := handlers.NewReactionHandler(db, cfg, limiter)
	voteHandler := handlers.NewVoteHandler(db, cfg, limiter)
	reportHandler := handlers.NewReportHandler(db, cfg, limiter, verifier)
	leaderboardHandler := handlers.NewLeaderboardHandler(db, cfg, limiter)
	authFlowHandler := handlers.NewAuthFlowHandler(db, cfg, limiter, verifier)
	profileHandler := handlers.NewProfileHandler(db, cfg, limiter)
	manageHandler := handlers.NewManageHandler(db, cfg, limiter)

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Public reads
	mux.HandleFunc("GET /api/proverbs/feed", middleware.WithLogging(proverbHandler.Feed))
	mux.HandleFunc("GET /api/proverbs/{id}", middleware.WithLogging(proverbHandler.Detail))
	mux.HandleFunc("GET /api/proverbs/{id}/reactions", middleware.WithLogging(reactionHandler.List))
	mux.HandleFunc("GET /api/proverbs/{id}/distribution", middleware.WithLogging(gameHandler.Distribution))
	mux.HandleFunc("GET /api/leaderboard", middleware.WithLogging(leaderboardHandler.List))

	// Guess game
	mux.HandleFunc("GET /api/play/random", middleware.WithLogging(gameHandler.PlayRandom))
	mux.HandleFunc("GET /api/proverbs/{id}/random-next", middleware.WithLogging(gameHandler.RandomNext))
	mux.HandleFunc("GET /api/proverbs/{id}/guess", middleware.WithLogging(gameHandler.GetGuess))
	mux.HandleFunc("POST /api/proverbs/{id}/guess", middleware.WithLogging(gameHandler.SubmitGuess))

	// Authenticated writes
	mux.HandleFunc("POST /api/proverbs/{id}/reactions", middleware.WithLogging(reactionHandler.Toggle))
	mux.HandleFunc("POST /api/proverbs/{id}/vote", middleware.WithLogging(voteHandler.Toggle))
	mux.HandleFunc("GET /api/proverbs/{id}/report", middleware.WithLogging(reportHandler.Status))
	mux.HandleFunc("POST /api/proverbs/{id}/report", middleware.WithLogging(reportHandler.Submit))
	mux.HandleFunc("POST /api/proverbs/submit", middleware.WithLogging(proverbHandler.Submit))

	// Auth flow
	mux.HandleFunc("POST /api/auth/magic-link", middleware.WithLogging(authFlowHandler.MagicLink))
	mux.HandleFunc("POST /api/auth/session", middleware.WithLogging(authFlowHandler.CreateSession))

	// Profile
	mux.HandleFunc("GET /api/profile/role", middleware.WithLogging(profileHandler.Role))
	mux.HandleFunc("POST /api/profile/preferences", middleware.WithLogging(profileHandler.UpdatePreferences))
	mux.HandleFunc("POST /api/profile/preferences/consume", middleware.WithLogging(profileHandler.ConsumeConsent))

	// Moderation dashboard
	mux.HandleFunc("GET /api/manage/moderation/pending", middleware.WithLogging(manageHandler.Pending))
	mux.HandleFunc("POST /api/manage/moderation/{id}/approve", middleware.WithLogging(manageHandler.Approve))
	mux.HandleFunc("POST /api/manage/moderation/{id}/reject", middleware.WithLogging(manageHandler.Reject))
	mux.HandleFunc("GET /api/manage/reports", middleware.WithLogging(manageHandler.Reports))
	mux.HandleFunc("POST /api/manage/reports/{id}/resolve", middleware.WithLogging(manageHandler.Resolve))
	mux.HandleFunc("POST /api/manage/reports/{id}/dismiss", middleware.WithLogging(manageHandler.Dismiss))
	mux.HandleFunc("GET /api/manage/stats", middleware.WithLogging(manageHandler.Stats))
	mux.HandleFunc("GET /api/manage/proverbs", middleware.WithLogging(manageHandler.Search))
	mux.HandleFunc("GET /api/manage/proverbs/languages", middleware.WithLogging(manageHandler.Languages))
	mux.HandleFunc("GET /api/manage/proverbs/{id}", middleware.WithLogging(manageHandler.GetProverb))
	mux.HandleFunc("PATCH /api/manage/proverbs/{id}", middleware.WithLogging(manageHandler.Edit))
	mux.HandleFunc("GET /api/manage/users", middleware.WithLogging(manageHandler.Users))
	mux.HandleFunc("POST /api/manage/users/{id}/ban", middleware.WithLogging(manageHandler.Ban))
	mux.HandleFunc("POST /api/manage/users/{id}/unban", middleware.WithLogging(manageHandler.Unban))
	mux.HandleFunc("POST /api/manage/users/{id}/role", middleware.WithLogging(manageHandler.ChangeRole))
	mux.HandleFunc("POST /api/proverbs/{id}/remove", middleware.WithLogging(manageHandler.Remove))

	// Root endpoint
	mux.HandleFunc("GET /", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("proverbly API v1"))
	})

	return mux
}
