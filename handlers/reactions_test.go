// Copyright (c) 2025 Aysel Karaca.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/ayselk/proverbly/models"
	"github.com/ayselk/proverbly/ratelimit"
	"github.com/ayselk/proverbly/testutil"
)

func TestToggleReaction(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewReactionHandler(conn, cfg, ratelimit.New(nil))

	owner := testutil.CreateTestUser(t, conn, models.RoleUser)
	userID := testutil.CreateTestUser(t, conn, models.RoleUser)
	token := testutil.SessionFor(t, cfg, userID)
	proverbID := testutil.CreateTestProverb(t, conn, owner, models.StatusPublished)

	toggle := func(emoji string) *httptest.ResponseRecorder {
		req := testutil.MakeRequest("POST", "/api/proverbs/"+proverbID+"/reactions",
			models.ToggleReactionRequest{Emoji: emoji}, testutil.AuthHeader(token))
		req.SetPathValue("id", proverbID)
		w := httptest.NewRecorder()
		handler.Toggle(w, req)
		return w
	}

	t.Run("first toggle sets the emoji", func(t *testing.T) {
		w := toggle("😂")
		testutil.AssertStatus(t, w, http.StatusOK)

		var resp models.ToggleReactionResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Emoji == nil || *resp.Emoji != "😂" {
			t.Errorf("Expected 😂, got %v", resp.Emoji)
		}
	})

	t.Run("different emoji replaces", func(t *testing.T) {
		w := toggle("❤️")
		var resp models.ToggleReactionResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Emoji == nil || *resp.Emoji != "❤️" {
			t.Errorf("Expected ❤️, got %v", resp.Emoji)
		}

		var count int
		if err := conn.QueryRow(`
			SELECT COUNT(*) FROM reaction WHERE proverb_id = $1 AND user_id = $2
		`, proverbID, userID).Scan(&count); err != nil {
			t.Fatalf("Failed to count reactions: %v", err)
		}
		if count != 1 {
			t.Errorf("Expected 1 reaction row, got %d", count)
		}
	})

	t.Run("same emoji clears", func(t *testing.T) {
		w := toggle("❤️")
		var resp models.ToggleReactionResponse
		testutil.AssertJSON(t, w, &resp)
		if resp.Emoji != nil {
			t.Errorf("Expected null emoji after clearing, got %v", *resp.Emoji)
		}

		var count int
		if err := conn.QueryRow(`
			SELECT COUNT(*) FROM reaction WHERE proverb_id = $1 AND user_id = $2
		`, proverbID, userID).Scan(&count); err != nil {
			t.Fatalf("Failed to count reactions: %v", err)
		}
		if count != 0 {
			t.Errorf("Expected no reaction rows, got %d", count)
		}
	})

	t.Run("requires auth", func(t *testing.T) {
		req := testutil.MakeRequest("POST", "/api/proverbs/"+proverbID+"/reactions",
			models.ToggleReactionRequest{Emoji: "😂"}, nil)
		req.SetPathValue("id", proverbID)
		w := httptest.NewRecorder()
		handler.Toggle(w, req)
		testutil.AssertStatus(t, w, http.StatusUnauthorized)
	})
}

func TestListReactions(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewReactionHandler(conn, cfg, ratelimit.New(nil))

	owner := testutil.CreateTestUser(t, conn, models.RoleUser)
	proverbID := testutil.CreateTestProverb(t, conn, owner, models.StatusPublished)

	for _, emoji := range []string{"😂", "🤔"} {
		reactor := testutil.CreateTestUser(t, conn, models.RoleUser)
		if _, err := conn.Exec(`
			INSERT INTO reaction (proverb_id, user_id, emoji) VALUES ($1, $2, $3)
		`, proverbID, reactor, emoji); err != nil {
			t.Fatalf("Failed to insert reaction: %v", err)
		}
	}

	req := testutil.MakeRequest("GET", "/api/proverbs/"+proverbID+"/reactions", nil, nil)
	req.SetPathValue("id", proverbID)
	w := httptest.NewRecorder()
	handler.List(w, req)

	testutil.AssertStatus(t, w, http.StatusOK)
	var resp models.ReactionsResponse
	testutil.AssertJSON(t, w, &resp)
	if len(resp.Reactions) != 2 {
		t.Errorf("Expected 2 reactions, got %d", len(resp.Reactions))
	}
}

func TestToggleVote(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	handler := NewVoteHandler(conn, cfg, ratelimit.New(nil))

	owner := testutil.CreateTestUser(t, conn, models.RoleUser)
	userID := testutil.CreateTestUser(t, conn, models.RoleUser)
	token := testutil.SessionFor(t, cfg, userID)
	proverbID := testutil.CreateTestProverb(t, conn, owner, models.StatusPublished)

	toggle := func() *httptest.ResponseRecorder {
		req := testutil.MakeRequest("POST", "/api/proverbs/"+proverbID+"/vote", nil, testutil.AuthHeader(token))
		req.SetPathValue("id", proverbID)
		w := httptest.NewRecorder()
		handler.Toggle(w, req)
		return w
	}

	t.Run("vote on then off", func(t *testing.T) {
		w := toggle()
		testutil.AssertStatus(t, w, http.StatusOK)
		var resp models.ToggleVoteResponse
		testutil.AssertJSON(t, w, &resp)
		if !resp.Voted || resp.VoteCount != 1 {
			t.Errorf("Expected voted with count 1, got %+v", resp)
		}

		w = toggle()
		testutil.AssertJSON(t, w, &resp)
		if resp.Voted || resp.VoteCount != 0 {
			t.Errorf("Expected unvoted with count 0, got %+v", resp)
		}
	})

	t.Run("counter matches vote rows", func(t *testing.T) {
		toggle()

		var voteCount, rows int
		if err := conn.QueryRow(`SELECT vote_count FROM proverb WHERE id = $1`, proverbID).Scan(&voteCount); err != nil {
			t.Fatalf("Failed to query vote count: %v", err)
		}
		if err := conn.QueryRow(`SELECT COUNT(*) FROM vote WHERE proverb_id = $1`, proverbID).Scan(&rows); err != nil {
			t.Fatalf("Failed to count votes: %v", err)
		}
		if voteCount != rows {
			t.Errorf("Counter drift: vote_count=%d rows=%d", voteCount, rows)
		}
	})
}

func TestBannedUserCannotReactOrVote(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()

	owner := testutil.CreateTestUser(t, conn, models.RoleUser)
	proverbID := testutil.CreateTestProverb(t, conn, owner, models.StatusPublished)

	banned := testutil.CreateTestUser(t, conn, models.RoleUser)
	token := testutil.SessionFor(t, cfg, banned)
	testutil.BanTestUser(t, conn, banned)

	t.Run("reaction toggle", func(t *testing.T) {
		handler := NewReactionHandler(conn, cfg, ratelimit.New(nil))
		req := testutil.MakeRequest("POST", "/api/proverbs/"+proverbID+"/reactions",
			models.ToggleReactionRequest{Emoji: "😂"}, testutil.AuthHeader(token))
		req.SetPathValue("id", proverbID)
		w := httptest.NewRecorder()
		handler.Toggle(w, req)

		testutil.AssertStatus(t, w, http.StatusForbidden)

		var count int
		if err := conn.QueryRow(`SELECT COUNT(*) FROM reaction WHERE user_id = $1`, banned).Scan(&count); err != nil {
			t.Fatalf("Failed to count reactions: %v", err)
		}
		if count != 0 {
			t.Error("Banned user's reaction was recorded")
		}
	})

	t.Run("vote toggle", func(t *testing.T) {
		handler := NewVoteHandler(conn, cfg, ratelimit.New(nil))
		req := testutil.MakeRequest("POST", "/api/proverbs/"+proverbID+"/vote", nil, testutil.AuthHeader(token))
		req.SetPathValue("id", proverbID)
		w := httptest.NewRecorder()
		handler.Toggle(w, req)

		testutil.AssertStatus(t, w, http.StatusForbidden)

		var voteCount int
		if err := conn.QueryRow(`SELECT vote_count FROM proverb WHERE id = $1`, proverbID).Scan(&voteCount); err != nil {
			t.Fatalf("Failed to query vote count: %v", err)
		}
		if voteCount != 0 {
			t.Error("Banned user's vote changed the counter")
		}
	})
}
