package app

import (
	"fmt"
	"sync"
	"time"

	"quizdash/internal/domain"
	"quizdash/internal/scoring"
)

// Session is the live, mutable state of one game. All mutations run under its
// mutex, so commands against the same session never interleave; events are
// published while the lock is held, which keeps per-session delivery in
// commit order.
type Session struct {
	id              string
	hostID          string
	quiz            domain.Quiz
	timePerQuestion int
	createdAt       time.Time
	now             func() time.Time
	hub             *Hub

	mu                sync.Mutex
	status            domain.SessionStatus
	players           []*domain.Player
	currentQuestion   int
	questionStartedAt time.Time
}

func newSession(id, hostID, hostName string, quiz domain.Quiz, timePerQuestion int, hub *Hub, now func() time.Time) *Session {
	host := &domain.Player{
		ID:      hostID,
		Name:    hostName,
		IsHost:  true,
		IsReady: true,
		Answers: []domain.AnswerResponse{},
	}
	return &Session{
		id:              id,
		hostID:          hostID,
		quiz:            quiz,
		timePerQuestion: timePerQuestion,
		createdAt:       now(),
		now:             now,
		hub:             hub,
		status:          domain.StatusWaiting,
		players:         []*domain.Player{host},
	}
}

func (s *Session) ID() string { return s.id }

// Snapshot returns a deep copy of the current session state.
func (s *Session) Snapshot() domain.GameSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() domain.GameSession {
	players := make([]domain.Player, 0, len(s.players))
	for _, p := range s.players {
		cp := *p
		cp.Answers = append([]domain.AnswerResponse(nil), p.Answers...)
		players = append(players, cp)
	}
	var startedAt int64
	if !s.questionStartedAt.IsZero() {
		startedAt = s.questionStartedAt.UnixMilli()
	}
	return domain.GameSession{
		ID:                   s.id,
		HostID:               s.hostID,
		QuizID:               s.quiz.ID,
		Status:               s.status,
		Players:              players,
		CurrentQuestionIndex: s.currentQuestion,
		QuestionStartTime:    startedAt,
		TimePerQuestion:      s.timePerQuestion,
		CreatedAt:            s.createdAt,
	}
}

func (s *Session) findPlayerLocked(playerID string) *domain.Player {
	for _, p := range s.players {
		if p.ID == playerID {
			return p
		}
	}
	return nil
}

func (s *Session) publishLocked(eventType domain.EventType, playerID string) domain.GameSession {
	snap := s.snapshotLocked()
	s.hub.Publish(s.id, domain.Event{Type: eventType, Session: &snap, PlayerID: playerID})
	return snap
}

// join adds a player; only sessions still waiting accept new players.
func (s *Session) join(playerID, name string) (domain.GameSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusWaiting {
		return domain.GameSession{}, fmt.Errorf("%w: game already started", domain.ErrInvalidState)
	}
	if s.findPlayerLocked(playerID) != nil {
		return domain.GameSession{}, domain.ErrDuplicatePlayer
	}
	s.players = append(s.players, &domain.Player{
		ID:      playerID,
		Name:    name,
		Answers: []domain.AnswerResponse{},
	})
	return s.publishLocked(domain.EventPlayerJoined, playerID), nil
}

func (s *Session) removePlayerLocked(playerID string) {
	for i, p := range s.players {
		if p.ID == playerID {
			s.players = append(s.players[:i], s.players[i+1:]...)
			return
		}
	}
}

// leave removes a player after an explicit leave command. A departing host
// finishes the game for everyone; the caller must then drop the session.
func (s *Session) leave(playerID string) (domain.GameSession, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player := s.findPlayerLocked(playerID)
	if player == nil {
		return domain.GameSession{}, false, domain.ErrPlayerNotFound
	}

	if player.IsHost {
		s.status = domain.StatusFinished
		s.questionStartedAt = time.Time{}
		snap := s.publishLocked(domain.EventGameFinished, playerID)
		return snap, true, nil
	}

	s.removePlayerLocked(playerID)
	snap := s.publishLocked(domain.EventPlayerLeft, playerID)
	return snap, len(s.players) == 0, nil
}

// disconnect handles a dropped transport connection. Unlike leave it emits
// player_disconnected (id only, no snapshot) so remaining clients can tell a
// drop from a deliberate exit.
func (s *Session) disconnect(playerID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player := s.findPlayerLocked(playerID)
	if player == nil {
		return false, domain.ErrPlayerNotFound
	}

	s.hub.Publish(s.id, domain.Event{Type: domain.EventPlayerDisconnected, PlayerID: playerID})

	if player.IsHost {
		s.status = domain.StatusFinished
		s.questionStartedAt = time.Time{}
		s.publishLocked(domain.EventGameFinished, playerID)
		return true, nil
	}

	s.removePlayerLocked(playerID)
	return len(s.players) == 0, nil
}

func (s *Session) setReady(playerID string, ready bool) (domain.GameSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	player := s.findPlayerLocked(playerID)
	if player == nil {
		return domain.GameSession{}, domain.ErrPlayerNotFound
	}
	player.IsReady = ready
	return s.publishLocked(domain.EventPlayerReady, playerID), nil
}

// start moves the session from waiting to playing and opens the first question.
func (s *Session) start() (domain.GameSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusWaiting {
		return domain.GameSession{}, fmt.Errorf("%w: session is %s", domain.ErrInvalidState, s.status)
	}
	for _, p := range s.players {
		if !p.IsReady {
			return domain.GameSession{}, fmt.Errorf("%w: player %s is not ready", domain.ErrInvalidState, p.ID)
		}
	}

	s.status = domain.StatusPlaying
	s.currentQuestion = 0
	s.questionStartedAt = s.now()
	return s.publishLocked(domain.EventGameStarted, s.hostID), nil
}

// advance opens the next question, or finishes the game at the last one.
func (s *Session) advance() (domain.GameSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusPlaying {
		return domain.GameSession{}, fmt.Errorf("%w: session is %s", domain.ErrInvalidState, s.status)
	}

	if s.currentQuestion >= len(s.quiz.Questions)-1 {
		s.status = domain.StatusFinished
		s.questionStartedAt = time.Time{}
		return s.publishLocked(domain.EventGameFinished, ""), nil
	}

	s.currentQuestion++
	s.questionStartedAt = s.now()
	return s.publishLocked(domain.EventNextQuestion, ""), nil
}

// submitAnswer grades a submission against the current question and credits
// the player. Response time is client-reported; it is only bounded here, and
// the scoring call site is the single place to harden if that ever changes.
func (s *Session) submitAnswer(playerID string, questionID, answerID int, responseTime int64) (domain.AnswerResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status != domain.StatusPlaying {
		return domain.AnswerResult{}, fmt.Errorf("%w: session is %s", domain.ErrInvalidState, s.status)
	}
	player := s.findPlayerLocked(playerID)
	if player == nil {
		return domain.AnswerResult{}, domain.ErrPlayerNotFound
	}

	question := s.quiz.Questions[s.currentQuestion]
	if question.ID != questionID {
		return domain.AnswerResult{}, domain.ErrQuestionMismatch
	}
	for _, prev := range player.Answers {
		if prev.QuestionID == questionID {
			return domain.AnswerResult{}, domain.ErrAlreadyAnswered
		}
	}

	var selected *domain.Answer
	for i := range question.Answers {
		if question.Answers[i].ID == answerID {
			selected = &question.Answers[i]
			break
		}
	}
	if selected == nil {
		return domain.AnswerResult{}, domain.ErrAnswerNotFound
	}

	if responseTime < 0 {
		responseTime = 0
	}
	awarded := scoring.Score(selected.IsCorrect, responseTime, s.timePerQuestion)
	player.CurrentScore += awarded
	player.Answers = append(player.Answers, domain.AnswerResponse{
		QuestionID:   questionID,
		AnswerID:     answerID,
		IsCorrect:    selected.IsCorrect,
		ResponseTime: responseTime,
	})

	s.publishLocked(domain.EventPlayerAnswered, playerID)
	return domain.AnswerResult{
		QuestionID: questionID,
		IsCorrect:  selected.IsCorrect,
		Awarded:    awarded,
		TotalScore: player.CurrentScore,
	}, nil
}
