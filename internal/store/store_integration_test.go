//go:build integration

package store

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/itsjustmithun/ai-council/internal/council"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	s, err := New(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect: %v", err)
	}
	if err := s.Migrate(ctx); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func TestIntegration_ConversationLifecycle(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	conv, err := s.CreateConversation(ctx, "New Conversation")
	if err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}
	if conv.ID == uuid.Nil {
		t.Fatal("expected non-nil conversation ID")
	}

	if err := s.AddUserMessage(ctx, conv.ID, "what is quantum entanglement?"); err != nil {
		t.Fatalf("AddUserMessage failed: %v", err)
	}

	res := &council.Result{
		Stage1: []council.ModelResponse{{Model: "m1", Response: "spooky action"}},
		Labels: council.LabelMap{"Response A": "m1"},
		Stage2: []council.RankingRecord{{Model: "m1", Ranking: "FINAL RANKING:\n1. Response A"}},
		Aggregate: []council.AggregateEntry{
			{Model: "m1", AverageRank: 1, RankingsCount: 1},
		},
		Final: "entanglement is correlation without communication",
	}
	if err := s.AddAssistantMessage(ctx, conv.ID, res); err != nil {
		t.Fatalf("AddAssistantMessage failed: %v", err)
	}

	got, msgs, err := s.GetConversation(ctx, conv.ID)
	if err != nil {
		t.Fatalf("GetConversation failed: %v", err)
	}
	if got.ID != conv.ID {
		t.Errorf("expected conversation %s, got %s", conv.ID, got.ID)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != "user" || msgs[1].Role != "assistant" {
		t.Errorf("unexpected roles: %s, %s", msgs[0].Role, msgs[1].Role)
	}
	if msgs[1].Content != res.Final {
		t.Errorf("assistant content = %q", msgs[1].Content)
	}
	if len(msgs[1].Stage1) != 1 || msgs[1].Stage1[0].Model != "m1" {
		t.Errorf("stage1 payload not round-tripped: %+v", msgs[1].Stage1)
	}
	if msgs[1].Labels["Response A"] != "m1" {
		t.Errorf("label map not round-tripped: %+v", msgs[1].Labels)
	}

	if err := s.UpdateTitle(ctx, conv.ID, "Quantum Basics"); err != nil {
		t.Fatalf("UpdateTitle failed: %v", err)
	}
	got, _, err = s.GetConversation(ctx, conv.ID)
	if err != nil {
		t.Fatalf("GetConversation after title update failed: %v", err)
	}
	if got.Title != "Quantum Basics" {
		t.Errorf("title = %q", got.Title)
	}

	if err := s.DeleteConversation(ctx, conv.ID); err != nil {
		t.Fatalf("DeleteConversation failed: %v", err)
	}
	if _, _, err := s.GetConversation(ctx, conv.ID); err == nil {
		t.Error("expected error fetching deleted conversation")
	}
}

func TestIntegration_Leaderboard(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	model := "integration-test-" + uuid.New().String()[:8]
	entries := []council.AggregateEntry{{Model: model, AverageRank: 1.5, RankingsCount: 2}}

	if err := s.RecordAggregate(ctx, entries); err != nil {
		t.Fatalf("RecordAggregate failed: %v", err)
	}
	if err := s.RecordAggregate(ctx, entries); err != nil {
		t.Fatalf("second RecordAggregate failed: %v", err)
	}

	board, err := s.Leaderboard(ctx)
	if err != nil {
		t.Fatalf("Leaderboard failed: %v", err)
	}
	var found *LeaderboardEntry
	for i := range board {
		if board[i].Model == model {
			found = &board[i]
		}
	}
	if found == nil {
		t.Fatalf("model %s missing from leaderboard", model)
	}
	if found.AverageRank != 1.5 || found.RankingsCount != 4 || found.Deliberations != 2 {
		t.Errorf("unexpected standing: %+v", found)
	}
}
