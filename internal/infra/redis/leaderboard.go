package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"quizdash/internal/app"
	"quizdash/internal/domain"
)

// LeaderboardStore decorates a score store with a Redis sorted set per quiz
// holding the best score per username, so per-quiz leaderboards are served
// without scanning score rows. Index updates are best-effort; the wrapped
// store stays authoritative.
type LeaderboardStore struct {
	app.ScoreStore
	client *redis.Client
}

func NewLeaderboardStore(client *redis.Client, next app.ScoreStore) *LeaderboardStore {
	return &LeaderboardStore{ScoreStore: next, client: client}
}

func (s *LeaderboardStore) CreateScore(ctx context.Context, draft domain.ScoreDraft) (domain.Score, error) {
	score, err := s.ScoreStore.CreateScore(ctx, draft)
	if err != nil {
		return domain.Score{}, err
	}
	_ = s.client.ZAddGT(ctx, s.key(score.QuizID), redis.Z{
		Score:  float64(score.Score),
		Member: score.Username,
	}).Err()
	return score, nil
}

func (s *LeaderboardStore) LeaderboardByQuiz(ctx context.Context, quizID, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.client.ZRevRangeWithScores(ctx, s.key(quizID), 0, int64(limit-1)).Result()
	if err != nil || len(rows) == 0 {
		// cold or unavailable index; answer from the wrapped store
		return s.ScoreStore.LeaderboardByQuiz(ctx, quizID, limit)
	}

	entries := make([]domain.LeaderboardEntry, 0, len(rows))
	for _, row := range rows {
		username, ok := row.Member.(string)
		if !ok {
			continue
		}
		entries = append(entries, domain.LeaderboardEntry{
			Username: username,
			Score:    int(row.Score),
		})
	}
	return entries, nil
}

func (s *LeaderboardStore) DeleteScores(ctx context.Context, quizID int) error {
	if err := s.ScoreStore.DeleteScores(ctx, quizID); err != nil {
		return err
	}
	if quizID != 0 {
		_ = s.client.Del(ctx, s.key(quizID)).Err()
		return nil
	}
	// SCAN rather than KEYS so a full wipe never blocks the server.
	var cursor uint64
	for {
		keys, next, err := s.client.Scan(ctx, cursor, "leaderboard:quiz:*", 100).Result()
		if err != nil {
			return nil
		}
		if len(keys) > 0 {
			_ = s.client.Del(ctx, keys...).Err()
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

func (s *LeaderboardStore) key(quizID int) string {
	return fmt.Sprintf("leaderboard:quiz:%d", quizID)
}
