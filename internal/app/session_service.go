package app

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"quizdash/internal/domain"
)

// SessionRepository abstracts how live sessions are stored (in-memory, Redis, etc).
type SessionRepository interface {
	// Register adds a new session; it reports false if the id is taken.
	Register(session *Session) bool
	Get(id string) (*Session, bool)
	Delete(id string)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID int) (domain.Quiz, error)
}

// QuizStore is the quiz CRUD surface backing the REST API.
type QuizStore interface {
	QuizRepository
	CreateQuiz(ctx context.Context, draft domain.QuizDraft) (domain.Quiz, error)
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
	DeleteQuiz(ctx context.Context, quizID int) error
}

// ScoreStore persists final scores and serves leaderboards.
type ScoreStore interface {
	CreateScore(ctx context.Context, draft domain.ScoreDraft) (domain.Score, error)
	GetScore(ctx context.Context, id int) (domain.Score, error)
	ListScores(ctx context.Context) ([]domain.Score, error)
	ScoresByQuiz(ctx context.Context, quizID int) ([]domain.Score, error)
	// Leaderboard ranks scores globally by percentage of questions answered correctly.
	Leaderboard(ctx context.Context, limit int) ([]domain.Score, error)
	// LeaderboardByQuiz ranks the best score per username for one quiz.
	LeaderboardByQuiz(ctx context.Context, quizID, limit int) ([]domain.LeaderboardEntry, error)
	// DeleteScores removes scores for a quiz, or all scores when quizID is zero.
	DeleteScores(ctx context.Context, quizID int) error
}

// SessionService owns the session registry: every session command goes
// through it, and every visible mutation is fanned out via the hub.
type SessionService struct {
	sessions        SessionRepository
	quizzes         QuizRepository
	hub             *Hub
	timePerQuestion int
	now             func() time.Time
}

// NewSessionService builds the service with the given default seconds per question.
func NewSessionService(store SessionRepository, quizzes QuizRepository, hub *Hub, timePerQuestion int) *SessionService {
	return NewSessionServiceWithClock(store, quizzes, hub, timePerQuestion, time.Now)
}

// NewSessionServiceWithClock is test-only for deterministic timestamps.
func NewSessionServiceWithClock(store SessionRepository, quizzes QuizRepository, hub *Hub, timePerQuestion int, now func() time.Time) *SessionService {
	if timePerQuestion <= 0 {
		timePerQuestion = 15
	}
	return &SessionService{
		sessions:        store,
		quizzes:         quizzes,
		hub:             hub,
		timePerQuestion: timePerQuestion,
		now:             now,
	}
}

// Hub exposes the broadcast hub for transports that manage subscriptions.
func (s *SessionService) Hub() *Hub { return s.hub }

// newSessionID returns a short random session code. The space is small, so
// Register must still collision-check against the live registry.
func newSessionID() string {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return uuid.NewString()[:8]
	}
	return hex.EncodeToString(buf)
}

// CreateSession registers a fresh session for a quiz with the creator as host.
func (s *SessionService) CreateSession(ctx context.Context, quizID int, hostID, hostName string, timePerQuestion int) (domain.GameSession, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.GameSession{}, err
	}
	// An empty quiz has no current question to play or grade.
	if len(quiz.Questions) == 0 {
		return domain.GameSession{}, domain.ErrEmptyQuiz
	}
	if hostID == "" {
		hostID = uuid.NewString()
	}
	if timePerQuestion <= 0 {
		timePerQuestion = s.timePerQuestion
	}

	for {
		session := newSession(newSessionID(), hostID, hostName, quiz, timePerQuestion, s.hub, s.now)
		if s.sessions.Register(session) {
			return session.Snapshot(), nil
		}
	}
}

// GetSession returns the current snapshot of a session.
func (s *SessionService) GetSession(sessionID string) (domain.GameSession, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.GameSession{}, domain.ErrSessionNotFound
	}
	return session.Snapshot(), nil
}

// JoinSession adds a player to a waiting session. A blank player id gets a
// server-generated one.
func (s *SessionService) JoinSession(sessionID, playerID, name string) (domain.GameSession, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.GameSession{}, domain.ErrSessionNotFound
	}
	if playerID == "" {
		playerID = uuid.NewString()
	}
	return session.join(playerID, name)
}

// LeaveSession removes a player. A departing host ends the game for everyone
// and the session is deleted; deleted reports whether that happened.
func (s *SessionService) LeaveSession(sessionID, playerID string) (domain.GameSession, bool, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.GameSession{}, false, domain.ErrSessionNotFound
	}
	snap, gone, err := session.leave(playerID)
	if err != nil {
		return domain.GameSession{}, false, err
	}
	if gone {
		s.sessions.Delete(sessionID)
		s.hub.CloseSession(sessionID)
	}
	return snap, gone, nil
}

// DisconnectPlayer handles a dropped connection for a bound player.
func (s *SessionService) DisconnectPlayer(sessionID, playerID string) error {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.ErrSessionNotFound
	}
	gone, err := session.disconnect(playerID)
	if err != nil {
		return err
	}
	if gone {
		s.sessions.Delete(sessionID)
		s.hub.CloseSession(sessionID)
	}
	return nil
}

// SetReady flips a player's readiness flag.
func (s *SessionService) SetReady(sessionID, playerID string, ready bool) (domain.GameSession, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.GameSession{}, domain.ErrSessionNotFound
	}
	return session.setReady(playerID, ready)
}

// StartSession begins the game once every player is ready.
func (s *SessionService) StartSession(sessionID string) (domain.GameSession, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.GameSession{}, domain.ErrSessionNotFound
	}
	return session.start()
}

// AdvanceQuestion moves to the next question or finishes the game.
func (s *SessionService) AdvanceQuestion(sessionID string) (domain.GameSession, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.GameSession{}, domain.ErrSessionNotFound
	}
	return session.advance()
}

// SubmitAnswer grades an answer against the current question.
func (s *SessionService) SubmitAnswer(sessionID, playerID string, questionID, answerID int, responseTime int64) (domain.AnswerResult, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return domain.AnswerResult{}, domain.ErrSessionNotFound
	}
	return session.submitAnswer(playerID, questionID, answerID, responseTime)
}

// Subscribe binds a consumer to a session's event stream. The player must
// already have joined; unknown sessions or players are rejected without
// subscribing. The caller must invoke cancel to avoid leaks.
func (s *SessionService) Subscribe(sessionID, playerID string) (<-chan domain.Event, func(), domain.GameSession, error) {
	session, ok := s.sessions.Get(sessionID)
	if !ok {
		return nil, nil, domain.GameSession{}, domain.ErrSessionNotFound
	}
	snap := session.Snapshot()
	found := false
	for _, p := range snap.Players {
		if p.ID == playerID {
			found = true
			break
		}
	}
	if !found {
		return nil, nil, domain.GameSession{}, domain.ErrPlayerNotFound
	}
	ch, cancel := s.hub.Subscribe(sessionID)
	return ch, cancel, snap, nil
}
