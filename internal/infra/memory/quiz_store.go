package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"quizdash/internal/domain"
)

// QuizStore is an in-memory quiz CRUD store with serial ids.
type QuizStore struct {
	mu      sync.RWMutex
	quizzes map[int]domain.Quiz
	nextID  int
	clock   func() time.Time
}

func NewQuizStore() *QuizStore {
	return &QuizStore{
		quizzes: make(map[int]domain.Quiz),
		nextID:  1,
		clock:   time.Now,
	}
}

func (s *QuizStore) CreateQuiz(_ context.Context, draft domain.QuizDraft) (domain.Quiz, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	quiz := domain.Quiz{
		ID:          s.nextID,
		Title:       draft.Title,
		Description: draft.Description,
		Questions:   append([]domain.Question(nil), draft.Questions...),
		CreatedAt:   s.clock(),
	}
	s.nextID++
	s.quizzes[quiz.ID] = quiz
	return quiz, nil
}

func (s *QuizStore) GetQuiz(_ context.Context, quizID int) (domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	quiz, ok := s.quizzes[quizID]
	if !ok {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

// ListQuizzes returns quizzes newest first, matching the REST contract.
func (s *QuizStore) ListQuizzes(_ context.Context) ([]domain.Quiz, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Quiz, 0, len(s.quizzes))
	for _, quiz := range s.quizzes {
		out = append(out, quiz)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *QuizStore) DeleteQuiz(_ context.Context, quizID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.quizzes[quizID]; !ok {
		return domain.ErrQuizNotFound
	}
	delete(s.quizzes, quizID)
	return nil
}

// Seed inserts quizzes directly, for demo data and tests.
func (s *QuizStore) Seed(quizzes ...domain.Quiz) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, quiz := range quizzes {
		if quiz.ID == 0 {
			quiz.ID = s.nextID
		}
		if quiz.ID >= s.nextID {
			s.nextID = quiz.ID + 1
		}
		if quiz.CreatedAt.IsZero() {
			quiz.CreatedAt = s.clock()
		}
		s.quizzes[quiz.ID] = quiz
	}
}
