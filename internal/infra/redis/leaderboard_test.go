package redis

import (
	"context"
	"fmt"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"

	"quizdash/internal/domain"
	"quizdash/internal/infra/memory"
)

func TestLeaderboardStoreIndexesBestScores(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewLeaderboardStore(newClient(mr), memory.NewScoreStore())

	drafts := []domain.ScoreDraft{
		{QuizID: 1, Username: "alice", Score: 30, TotalQuestions: 3},
		{QuizID: 1, Username: "bob", Score: 45, TotalQuestions: 3},
		{QuizID: 1, Username: "alice", Score: 50, TotalQuestions: 3},
	}
	for _, d := range drafts {
		if _, err := store.CreateScore(ctx, d); err != nil {
			t.Fatalf("create score: %v", err)
		}
	}

	entries, err := store.LeaderboardByQuiz(ctx, 1, 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %+v", entries)
	}
	if entries[0].Username != "alice" || entries[0].Score != 50 {
		t.Fatalf("expected alice's best first, got %+v", entries[0])
	}
	if entries[1].Username != "bob" || entries[1].Score != 45 {
		t.Fatalf("expected bob second, got %+v", entries[1])
	}
}

func TestLeaderboardStoreFallsBackWhenIndexCold(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	backing := memory.NewScoreStore()
	if _, err := backing.CreateScore(ctx, domain.ScoreDraft{QuizID: 1, Username: "alice", Score: 30, TotalQuestions: 3}); err != nil {
		t.Fatalf("seed backing store: %v", err)
	}

	// the redis index never saw this score
	store := NewLeaderboardStore(newClient(mr), backing)
	entries, err := store.LeaderboardByQuiz(ctx, 1, 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(entries) != 1 || entries[0].Username != "alice" {
		t.Fatalf("expected fallback to backing store, got %+v", entries)
	}
}

func TestLeaderboardStoreDeleteClearsIndex(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewLeaderboardStore(newClient(mr), memory.NewScoreStore())
	if _, err := store.CreateScore(ctx, domain.ScoreDraft{QuizID: 1, Username: "alice", Score: 30, TotalQuestions: 3}); err != nil {
		t.Fatalf("create score: %v", err)
	}
	if !mr.Exists("leaderboard:quiz:1") {
		t.Fatalf("expected zset created")
	}

	if err := store.DeleteScores(ctx, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if mr.Exists("leaderboard:quiz:1") {
		t.Fatalf("expected zset removed")
	}
}

func TestLeaderboardStoreDeleteAllSweepsEveryIndex(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	ctx := context.Background()
	store := NewLeaderboardStore(newClient(mr), memory.NewScoreStore())
	for quizID := 1; quizID <= 5; quizID++ {
		if _, err := store.CreateScore(ctx, domain.ScoreDraft{
			QuizID: quizID, Username: "alice", Score: 10, TotalQuestions: 2,
		}); err != nil {
			t.Fatalf("create score: %v", err)
		}
	}

	if err := store.DeleteScores(ctx, 0); err != nil {
		t.Fatalf("delete all: %v", err)
	}
	for quizID := 1; quizID <= 5; quizID++ {
		if mr.Exists(fmt.Sprintf("leaderboard:quiz:%d", quizID)) {
			t.Fatalf("expected quiz %d index removed", quizID)
		}
	}
	scores, err := store.ListScores(ctx)
	if err != nil {
		t.Fatalf("list scores: %v", err)
	}
	if len(scores) != 0 {
		t.Fatalf("expected backing store wiped, got %+v", scores)
	}
}
