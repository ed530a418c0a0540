package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"quizdash/internal/domain"
)

// ScoreStore is an in-memory score store with serial ids.
type ScoreStore struct {
	mu     sync.RWMutex
	scores map[int]domain.Score
	nextID int
	clock  func() time.Time
}

func NewScoreStore() *ScoreStore {
	return &ScoreStore{
		scores: make(map[int]domain.Score),
		nextID: 1,
		clock:  time.Now,
	}
}

func (s *ScoreStore) CreateScore(_ context.Context, draft domain.ScoreDraft) (domain.Score, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	score := domain.Score{
		ID:             s.nextID,
		QuizID:         draft.QuizID,
		Username:       draft.Username,
		Score:          draft.Score,
		TotalQuestions: draft.TotalQuestions,
		CreatedAt:      s.clock(),
	}
	s.nextID++
	s.scores[score.ID] = score
	return score, nil
}

func (s *ScoreStore) GetScore(_ context.Context, id int) (domain.Score, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	score, ok := s.scores[id]
	if !ok {
		return domain.Score{}, domain.ErrScoreNotFound
	}
	return score, nil
}

func (s *ScoreStore) ListScores(_ context.Context) ([]domain.Score, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Score, 0, len(s.scores))
	for _, score := range s.scores {
		out = append(out, score)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *ScoreStore) ScoresByQuiz(_ context.Context, quizID int) ([]domain.Score, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Score, 0)
	for _, score := range s.scores {
		if score.QuizID == quizID {
			out = append(out, score)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	return out, nil
}

// Leaderboard ranks all scores by percentage of questions answered correctly.
func (s *ScoreStore) Leaderboard(_ context.Context, limit int) ([]domain.Score, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Score, 0, len(s.scores))
	for _, score := range s.scores {
		out = append(out, score)
	}
	sort.Slice(out, func(i, j int) bool {
		return percent(out[i]) > percent(out[j])
	})
	if limit <= 0 {
		limit = 10
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *ScoreStore) LeaderboardByQuiz(_ context.Context, quizID, limit int) ([]domain.LeaderboardEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	best := make(map[string]int)
	for _, score := range s.scores {
		if score.QuizID != quizID {
			continue
		}
		if prev, ok := best[score.Username]; !ok || score.Score > prev {
			best[score.Username] = score.Score
		}
	}

	entries := make([]domain.LeaderboardEntry, 0, len(best))
	for username, score := range best {
		entries = append(entries, domain.LeaderboardEntry{Username: username, Score: score})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Username < entries[j].Username
	})
	if limit <= 0 {
		limit = 10
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func (s *ScoreStore) DeleteScores(_ context.Context, quizID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if quizID == 0 {
		s.scores = make(map[int]domain.Score)
		return nil
	}
	for id, score := range s.scores {
		if score.QuizID == quizID {
			delete(s.scores, id)
		}
	}
	return nil
}

func percent(s domain.Score) float64 {
	if s.TotalQuestions == 0 {
		return 0
	}
	return float64(s.Score) / float64(s.TotalQuestions) * 100
}
