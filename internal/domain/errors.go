package domain

import "errors"

var (
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrSessionNotFound is returned when no session exists for the given id.
	ErrSessionNotFound = errors.New("session not found")
	// ErrPlayerNotFound is returned when a player acts in a session they never joined.
	ErrPlayerNotFound = errors.New("player not found in session")
	// ErrScoreNotFound indicates the requested score record does not exist.
	ErrScoreNotFound = errors.New("score not found")
	// ErrDuplicatePlayer is returned when a player id is already taken in a session.
	ErrDuplicatePlayer = errors.New("player already in session")
	// ErrAlreadyAnswered is returned on a second submission for the same question.
	ErrAlreadyAnswered = errors.New("question already answered")
	// ErrInvalidState is returned when an operation is illegal for the current status.
	ErrInvalidState = errors.New("operation not allowed in current session state")
	// ErrQuestionMismatch is returned when a submission targets a question that
	// is not the current one (stale or early).
	ErrQuestionMismatch = errors.New("question is not the current question")
	// ErrAnswerNotFound indicates a submitted answer id is not part of the question.
	ErrAnswerNotFound = errors.New("answer not found")
	// ErrEmptyQuiz is returned when a session is created for a quiz with no questions.
	ErrEmptyQuiz = errors.New("quiz has no questions")
)

// ErrorKind buckets domain errors for callers that map them to transport codes.
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindNotFound
	KindConflict
	KindInvalidState
	KindInvalidInput
	KindMismatch
)

// Classify maps a domain error to its kind.
func Classify(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrQuizNotFound),
		errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrPlayerNotFound),
		errors.Is(err, ErrScoreNotFound):
		return KindNotFound
	case errors.Is(err, ErrDuplicatePlayer),
		errors.Is(err, ErrAlreadyAnswered):
		return KindConflict
	case errors.Is(err, ErrInvalidState):
		return KindInvalidState
	case errors.Is(err, ErrQuestionMismatch):
		return KindMismatch
	case errors.Is(err, ErrAnswerNotFound),
		errors.Is(err, ErrEmptyQuiz):
		return KindInvalidInput
	default:
		return KindUnknown
	}
}
