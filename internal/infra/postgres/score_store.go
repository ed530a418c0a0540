package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizdash/internal/domain"
)

// ScoreStore persists final scores in Postgres.
type ScoreStore struct {
	pool *pgxpool.Pool
}

func NewScoreStore(pool *pgxpool.Pool) *ScoreStore {
	return &ScoreStore{pool: pool}
}

func (s *ScoreStore) CreateScore(ctx context.Context, draft domain.ScoreDraft) (domain.Score, error) {
	score := domain.Score{
		QuizID:         draft.QuizID,
		Username:       draft.Username,
		Score:          draft.Score,
		TotalQuestions: draft.TotalQuestions,
	}
	err := s.pool.QueryRow(ctx,
		`INSERT INTO scores (quiz_id, username, score, total_questions) VALUES ($1, $2, $3, $4) RETURNING id, created_at`,
		draft.QuizID, draft.Username, draft.Score, draft.TotalQuestions,
	).Scan(&score.ID, &score.CreatedAt)
	if err != nil {
		return domain.Score{}, fmt.Errorf("insert score: %w", err)
	}
	return score, nil
}

func (s *ScoreStore) GetScore(ctx context.Context, id int) (domain.Score, error) {
	var score domain.Score
	err := s.pool.QueryRow(ctx,
		`SELECT id, quiz_id, username, score, total_questions, created_at FROM scores WHERE id=$1`,
		id,
	).Scan(&score.ID, &score.QuizID, &score.Username, &score.Score, &score.TotalQuestions, &score.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Score{}, domain.ErrScoreNotFound
	}
	if err != nil {
		return domain.Score{}, fmt.Errorf("load score: %w", err)
	}
	return score, nil
}

func (s *ScoreStore) ListScores(ctx context.Context) ([]domain.Score, error) {
	return s.queryScores(ctx,
		`SELECT id, quiz_id, username, score, total_questions, created_at FROM scores ORDER BY id`)
}

func (s *ScoreStore) ScoresByQuiz(ctx context.Context, quizID int) ([]domain.Score, error) {
	return s.queryScores(ctx,
		`SELECT id, quiz_id, username, score, total_questions, created_at FROM scores WHERE quiz_id=$1 ORDER BY score DESC`,
		quizID)
}

func (s *ScoreStore) Leaderboard(ctx context.Context, limit int) ([]domain.Score, error) {
	if limit <= 0 {
		limit = 10
	}
	return s.queryScores(ctx,
		`SELECT id, quiz_id, username, score, total_questions, created_at FROM scores
		 WHERE total_questions > 0
		 ORDER BY score::float / total_questions DESC
		 LIMIT $1`,
		limit)
}

func (s *ScoreStore) LeaderboardByQuiz(ctx context.Context, quizID, limit int) ([]domain.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx,
		`SELECT username, MAX(score) AS best FROM scores WHERE quiz_id=$1
		 GROUP BY username ORDER BY best DESC, username LIMIT $2`,
		quizID, limit)
	if err != nil {
		return nil, fmt.Errorf("quiz leaderboard: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.LeaderboardEntry, 0)
	for rows.Next() {
		var entry domain.LeaderboardEntry
		if err := rows.Scan(&entry.Username, &entry.Score); err != nil {
			return nil, fmt.Errorf("scan leaderboard entry: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *ScoreStore) DeleteScores(ctx context.Context, quizID int) error {
	var err error
	if quizID == 0 {
		_, err = s.pool.Exec(ctx, `DELETE FROM scores`)
	} else {
		_, err = s.pool.Exec(ctx, `DELETE FROM scores WHERE quiz_id=$1`, quizID)
	}
	if err != nil {
		return fmt.Errorf("delete scores: %w", err)
	}
	return nil
}

func (s *ScoreStore) queryScores(ctx context.Context, sql string, args ...interface{}) ([]domain.Score, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer rows.Close()

	scores := make([]domain.Score, 0)
	for rows.Next() {
		var score domain.Score
		if err := rows.Scan(&score.ID, &score.QuizID, &score.Username, &score.Score, &score.TotalQuestions, &score.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		scores = append(scores, score)
	}
	return scores, rows.Err()
}
