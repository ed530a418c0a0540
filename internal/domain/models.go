package domain

import "time"

// SessionStatus drives the session state machine.
type SessionStatus string

const (
	StatusWaiting  SessionStatus = "waiting"
	StatusPlaying  SessionStatus = "playing"
	StatusFinished SessionStatus = "finished"
)

// Answer is one possible answer for a question.
type Answer struct {
	ID        int    `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// Question models an MCQ question; exactly one answer should be correct.
type Question struct {
	ID      int      `json:"id"`
	Text    string   `json:"text"`
	Answers []Answer `json:"answers"`
}

// Quiz is an ordered collection of questions.
type Quiz struct {
	ID          int        `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Questions   []Question `json:"questions"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// QuizDraft is the client-supplied shape for creating a quiz.
type QuizDraft struct {
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Questions   []Question `json:"questions"`
}

// AnswerResponse records one submitted answer, graded server-side.
type AnswerResponse struct {
	QuestionID   int   `json:"questionId"`
	AnswerID     int   `json:"answerId"`
	IsCorrect    bool  `json:"isCorrect"`
	ResponseTime int64 `json:"responseTime,omitempty"` // ms since the question opened
}

// Player is a participant in a single game session.
type Player struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	IsHost       bool             `json:"isHost"`
	IsReady      bool             `json:"isReady"`
	CurrentScore int              `json:"currentScore"`
	Answers      []AnswerResponse `json:"answers"`
}

// GameSession is the wire snapshot of a live session. Players are ordered by
// join time; the host is always index 0.
type GameSession struct {
	ID                   string        `json:"id"`
	HostID               string        `json:"hostId"`
	QuizID               int           `json:"quizId"`
	Status               SessionStatus `json:"status"`
	Players              []Player      `json:"players"`
	CurrentQuestionIndex int           `json:"currentQuestionIndex"`
	QuestionStartTime    int64         `json:"questionStartTime,omitempty"` // ms epoch, zero when not playing
	TimePerQuestion      int           `json:"timePerQuestion"`             // seconds
	CreatedAt            time.Time     `json:"createdAt"`
}

// AnswerResult summarizes the outcome of a submission for a single player.
type AnswerResult struct {
	QuestionID int  `json:"questionId"`
	IsCorrect  bool `json:"isCorrect"`
	Awarded    int  `json:"awarded"`
	TotalScore int  `json:"totalScore"`
}

// Score is a persisted final result for one player on one quiz.
type Score struct {
	ID             int       `json:"id"`
	QuizID         int       `json:"quizId"`
	Username       string    `json:"username"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ScoreDraft is the client-supplied shape for recording a score.
type ScoreDraft struct {
	QuizID         int    `json:"quizId"`
	Username       string `json:"username"`
	Score          int    `json:"score"`
	TotalQuestions int    `json:"totalQuestions"`
}

// LeaderboardEntry is one row of a per-quiz leaderboard (best score per name).
type LeaderboardEntry struct {
	Username string `json:"username"`
	Score    int    `json:"score"`
}
