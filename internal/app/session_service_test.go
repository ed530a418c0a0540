package app_test

import (
	"context"
	"errors"
	"testing"

	"quizdash/internal/app"
	"quizdash/internal/domain"
	"quizdash/internal/infra/memory"
)

func newTestService(t *testing.T) *app.SessionService {
	t.Helper()
	store := memory.NewQuizStore()
	store.Seed(domain.Quiz{
		ID:    1,
		Title: "Test Quiz",
		Questions: []domain.Question{
			{ID: 1, Text: "Q1", Answers: []domain.Answer{
				{ID: 1, Text: "wrong", IsCorrect: false},
				{ID: 2, Text: "right", IsCorrect: true},
			}},
			{ID: 2, Text: "Q2", Answers: []domain.Answer{
				{ID: 1, Text: "right", IsCorrect: true},
				{ID: 2, Text: "wrong", IsCorrect: false},
			}},
			{ID: 3, Text: "Q3", Answers: []domain.Answer{
				{ID: 1, Text: "wrong", IsCorrect: false},
				{ID: 2, Text: "right", IsCorrect: true},
			}},
		},
	})
	return app.NewSessionService(memory.NewSessionRegistry(), store, app.NewHub(), 10)
}

func createStartedSession(t *testing.T, service *app.SessionService) domain.GameSession {
	t.Helper()
	session, err := service.CreateSession(context.Background(), 1, "host", "Helen", 10)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if _, err := service.JoinSession(session.ID, "p1", "Pat"); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, err := service.SetReady(session.ID, "p1", true); err != nil {
		t.Fatalf("ready: %v", err)
	}
	started, err := service.StartSession(session.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	return started
}

func TestCreateSession(t *testing.T) {
	service := newTestService(t)

	session, err := service.CreateSession(context.Background(), 1, "host", "Helen", 0)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if session.Status != domain.StatusWaiting {
		t.Fatalf("expected waiting, got %s", session.Status)
	}
	if len(session.Players) != 1 {
		t.Fatalf("expected one player, got %d", len(session.Players))
	}
	host := session.Players[0]
	if !host.IsHost || !host.IsReady || host.CurrentScore != 0 {
		t.Fatalf("unexpected host state: %+v", host)
	}
	if session.TimePerQuestion != 10 {
		t.Fatalf("expected default time per question 10, got %d", session.TimePerQuestion)
	}
	if len(session.ID) != 8 {
		t.Fatalf("expected 8-char session id, got %q", session.ID)
	}
}

func TestCreateSessionEmptyQuiz(t *testing.T) {
	store := memory.NewQuizStore()
	store.Seed(domain.Quiz{ID: 7, Title: "Empty", Questions: []domain.Question{}})
	registry := memory.NewSessionRegistry()
	service := app.NewSessionService(registry, store, app.NewHub(), 10)

	_, err := service.CreateSession(context.Background(), 7, "host", "Helen", 10)
	if !errors.Is(err, domain.ErrEmptyQuiz) {
		t.Fatalf("expected empty quiz rejection, got %v", err)
	}
	if domain.Classify(err) != domain.KindInvalidInput {
		t.Fatalf("expected invalid input kind, got %v", domain.Classify(err))
	}
	if registry.Len() != 0 {
		t.Fatalf("expected no session registered, got %d", registry.Len())
	}
}

func TestCreateSessionUnknownQuiz(t *testing.T) {
	service := newTestService(t)
	_, err := service.CreateSession(context.Background(), 99, "host", "Helen", 0)
	if !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}
}

func TestJoinRules(t *testing.T) {
	service := newTestService(t)
	session, _ := service.CreateSession(context.Background(), 1, "host", "Helen", 10)

	snap, err := service.JoinSession(session.ID, "p1", "Pat")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if len(snap.Players) != 2 {
		t.Fatalf("expected 2 players, got %d", len(snap.Players))
	}
	joined := snap.Players[1]
	if joined.IsReady || joined.IsHost || joined.CurrentScore != 0 || len(joined.Answers) != 0 {
		t.Fatalf("unexpected new player state: %+v", joined)
	}

	if _, err := service.JoinSession(session.ID, "p1", "Imposter"); !errors.Is(err, domain.ErrDuplicatePlayer) {
		t.Fatalf("expected duplicate player, got %v", err)
	}
	if _, err := service.JoinSession("missing", "p2", "Nobody"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
}

func TestJoinAfterStartFails(t *testing.T) {
	service := newTestService(t)
	session := createStartedSession(t, service)

	_, err := service.JoinSession(session.ID, "late", "Larry")
	if !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
	snap, _ := service.GetSession(session.ID)
	if len(snap.Players) != 2 {
		t.Fatalf("failed join must leave the player list unchanged, got %d players", len(snap.Players))
	}
}

func TestStartRequiresEveryoneReady(t *testing.T) {
	service := newTestService(t)
	session, _ := service.CreateSession(context.Background(), 1, "host", "Helen", 10)
	_, _ = service.JoinSession(session.ID, "p1", "Pat")

	if _, err := service.StartSession(session.ID); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state with unready player, got %v", err)
	}

	if _, err := service.SetReady(session.ID, "p1", true); err != nil {
		t.Fatalf("ready: %v", err)
	}
	snap, err := service.StartSession(session.ID)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if snap.Status != domain.StatusPlaying || snap.CurrentQuestionIndex != 0 {
		t.Fatalf("unexpected started state: %+v", snap)
	}
	if snap.QuestionStartTime == 0 {
		t.Fatalf("expected question start time to be set")
	}

	// ready can be toggled back off while waiting, and starting twice is illegal
	if _, err := service.StartSession(session.ID); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state on double start, got %v", err)
	}
}

func TestAdvanceWalksEveryQuestionThenFinishes(t *testing.T) {
	service := newTestService(t)
	session := createStartedSession(t, service)

	snap, err := service.AdvanceQuestion(session.ID)
	if err != nil || snap.CurrentQuestionIndex != 1 || snap.Status != domain.StatusPlaying {
		t.Fatalf("advance 1: snap=%+v err=%v", snap, err)
	}
	snap, err = service.AdvanceQuestion(session.ID)
	if err != nil || snap.CurrentQuestionIndex != 2 || snap.Status != domain.StatusPlaying {
		t.Fatalf("advance 2: snap=%+v err=%v", snap, err)
	}
	snap, err = service.AdvanceQuestion(session.ID)
	if err != nil || snap.Status != domain.StatusFinished {
		t.Fatalf("advance 3: snap=%+v err=%v", snap, err)
	}
	if snap.QuestionStartTime != 0 {
		t.Fatalf("expected question start time cleared when finished")
	}

	if _, err := service.AdvanceQuestion(session.ID); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state advancing a finished session, got %v", err)
	}
}

func TestSubmitAnswerScoring(t *testing.T) {
	service := newTestService(t)
	session := createStartedSession(t, service)

	// correct answer at 500ms of a 10s window: 10 base + round(9.5) bonus
	result, err := service.SubmitAnswer(session.ID, "p1", 1, 2, 500)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !result.IsCorrect || result.Awarded != 20 || result.TotalScore != 20 {
		t.Fatalf("unexpected result: %+v", result)
	}

	// host answers incorrectly, no points
	result, err = service.SubmitAnswer(session.ID, "host", 1, 1, 100)
	if err != nil {
		t.Fatalf("submit host: %v", err)
	}
	if result.IsCorrect || result.Awarded != 0 || result.TotalScore != 0 {
		t.Fatalf("unexpected host result: %+v", result)
	}

	snap, _ := service.GetSession(session.ID)
	for _, p := range snap.Players {
		if p.ID == "p1" && (p.CurrentScore != 20 || len(p.Answers) != 1) {
			t.Fatalf("unexpected p1 state: %+v", p)
		}
	}
}

func TestSubmitAnswerAtAndBeyondTheLimit(t *testing.T) {
	service := newTestService(t)
	session := createStartedSession(t, service)

	result, err := service.SubmitAnswer(session.ID, "p1", 1, 2, 10_000)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if result.Awarded != 10 {
		t.Fatalf("expected base points at the limit, got %d", result.Awarded)
	}

	result, err = service.SubmitAnswer(session.ID, "host", 1, 2, 25_000)
	if err != nil {
		t.Fatalf("submit late: %v", err)
	}
	if result.Awarded != 10 {
		t.Fatalf("expected base points beyond the limit, got %d", result.Awarded)
	}
}

func TestSubmitAnswerValidation(t *testing.T) {
	service := newTestService(t)
	session, _ := service.CreateSession(context.Background(), 1, "host", "Helen", 10)

	// not playing yet
	if _, err := service.SubmitAnswer(session.ID, "host", 1, 2, 0); !errors.Is(err, domain.ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}

	started := createStartedSession(t, service)

	if _, err := service.SubmitAnswer(started.ID, "ghost", 1, 2, 0); !errors.Is(err, domain.ErrPlayerNotFound) {
		t.Fatalf("expected player not found, got %v", err)
	}
	// stale question id
	if _, err := service.SubmitAnswer(started.ID, "p1", 3, 2, 0); !errors.Is(err, domain.ErrQuestionMismatch) {
		t.Fatalf("expected question mismatch, got %v", err)
	}
	// unknown answer id
	if _, err := service.SubmitAnswer(started.ID, "p1", 1, 42, 0); !errors.Is(err, domain.ErrAnswerNotFound) {
		t.Fatalf("expected answer not found, got %v", err)
	}
}

func TestDuplicateSubmissionIsRejected(t *testing.T) {
	service := newTestService(t)
	session := createStartedSession(t, service)

	first, err := service.SubmitAnswer(session.ID, "p1", 1, 2, 0)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := service.SubmitAnswer(session.ID, "p1", 1, 2, 0); !errors.Is(err, domain.ErrAlreadyAnswered) {
		t.Fatalf("expected already answered, got %v", err)
	}

	snap, _ := service.GetSession(session.ID)
	for _, p := range snap.Players {
		if p.ID != "p1" {
			continue
		}
		if p.CurrentScore != first.TotalScore {
			t.Fatalf("second submission must never double-credit: score %d", p.CurrentScore)
		}
		if len(p.Answers) != 1 {
			t.Fatalf("second submission must never append twice: %d answers", len(p.Answers))
		}
	}
}

func TestLeaveSession(t *testing.T) {
	service := newTestService(t)
	session, _ := service.CreateSession(context.Background(), 1, "host", "Helen", 10)
	_, _ = service.JoinSession(session.ID, "p1", "Pat")

	snap, deleted, err := service.LeaveSession(session.ID, "p1")
	if err != nil || deleted {
		t.Fatalf("leave: deleted=%v err=%v", deleted, err)
	}
	if len(snap.Players) != 1 {
		t.Fatalf("expected only host left, got %d players", len(snap.Players))
	}

	if _, _, err := service.LeaveSession(session.ID, "ghost"); !errors.Is(err, domain.ErrPlayerNotFound) {
		t.Fatalf("expected player not found, got %v", err)
	}

	// host leaving kills the session entirely, no host migration
	_, deleted, err = service.LeaveSession(session.ID, "host")
	if err != nil || !deleted {
		t.Fatalf("host leave: deleted=%v err=%v", deleted, err)
	}
	if _, err := service.GetSession(session.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session gone, got %v", err)
	}
}

func TestSubscribeReceivesMutationEvents(t *testing.T) {
	service := newTestService(t)
	session, _ := service.CreateSession(context.Background(), 1, "host", "Helen", 10)
	_, _ = service.JoinSession(session.ID, "p1", "Pat")

	events, cancel, snap, err := service.Subscribe(session.ID, "host")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()
	if len(snap.Players) != 2 {
		t.Fatalf("expected snapshot with 2 players, got %d", len(snap.Players))
	}

	if _, err := service.SetReady(session.ID, "p1", true); err != nil {
		t.Fatalf("ready: %v", err)
	}
	event := <-events
	if event.Type != domain.EventPlayerReady || event.PlayerID != "p1" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.Session == nil || !event.Session.Players[1].IsReady {
		t.Fatalf("event must carry the updated snapshot: %+v", event.Session)
	}

	if _, err := service.StartSession(session.ID); err != nil {
		t.Fatalf("start: %v", err)
	}
	event = <-events
	if event.Type != domain.EventGameStarted || event.Session.Status != domain.StatusPlaying {
		t.Fatalf("unexpected event: %+v", event)
	}

	if _, err := service.SubmitAnswer(session.ID, "p1", 1, 2, 100); err != nil {
		t.Fatalf("submit: %v", err)
	}
	event = <-events
	if event.Type != domain.EventPlayerAnswered || event.PlayerID != "p1" {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestSubscribeValidatesSessionAndPlayer(t *testing.T) {
	service := newTestService(t)
	session, _ := service.CreateSession(context.Background(), 1, "host", "Helen", 10)

	if _, _, _, err := service.Subscribe("missing", "host"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session not found, got %v", err)
	}
	if _, _, _, err := service.Subscribe(session.ID, "ghost"); !errors.Is(err, domain.ErrPlayerNotFound) {
		t.Fatalf("expected player not found, got %v", err)
	}
}

func TestDisconnectPlayer(t *testing.T) {
	service := newTestService(t)
	session := createStartedSession(t, service)

	events, cancel, _, err := service.Subscribe(session.ID, "host")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	if err := service.DisconnectPlayer(session.ID, "p1"); err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	event := <-events
	if event.Type != domain.EventPlayerDisconnected || event.PlayerID != "p1" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.Session != nil {
		t.Fatalf("player_disconnected must not carry a snapshot")
	}

	snap, _ := service.GetSession(session.ID)
	if len(snap.Players) != 1 {
		t.Fatalf("expected disconnected player removed, got %d players", len(snap.Players))
	}
}

func TestHostDisconnectEndsSession(t *testing.T) {
	service := newTestService(t)
	session := createStartedSession(t, service)

	events, cancel, _, err := service.Subscribe(session.ID, "p1")
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	if err := service.DisconnectPlayer(session.ID, "host"); err != nil {
		t.Fatalf("disconnect host: %v", err)
	}

	event := <-events
	if event.Type != domain.EventPlayerDisconnected || event.PlayerID != "host" {
		t.Fatalf("unexpected event: %+v", event)
	}
	event = <-events
	if event.Type != domain.EventGameFinished {
		t.Fatalf("expected game_finished, got %+v", event)
	}
	if event.Session == nil || event.Session.Status != domain.StatusFinished {
		t.Fatalf("expected finished snapshot, got %+v", event.Session)
	}

	// channel is closed once the session is deleted
	if _, ok := <-events; ok {
		t.Fatalf("expected event channel closed after host disconnect")
	}
	if _, err := service.GetSession(session.ID); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected session deleted, got %v", err)
	}
}

func TestConcurrentAnswersAllCredited(t *testing.T) {
	service := newTestService(t)
	session, _ := service.CreateSession(context.Background(), 1, "host", "Helen", 10)
	playerIDs := []string{"p1", "p2", "p3", "p4", "p5"}
	for _, id := range playerIDs {
		if _, err := service.JoinSession(session.ID, id, "Player "+id); err != nil {
			t.Fatalf("join %s: %v", id, err)
		}
		if _, err := service.SetReady(session.ID, id, true); err != nil {
			t.Fatalf("ready %s: %v", id, err)
		}
	}
	if _, err := service.StartSession(session.ID); err != nil {
		t.Fatalf("start: %v", err)
	}

	done := make(chan error, len(playerIDs))
	for _, id := range playerIDs {
		go func(playerID string) {
			_, err := service.SubmitAnswer(session.ID, playerID, 1, 2, 0)
			done <- err
		}(id)
	}
	for range playerIDs {
		if err := <-done; err != nil {
			t.Fatalf("concurrent submit: %v", err)
		}
	}

	snap, _ := service.GetSession(session.ID)
	for _, p := range snap.Players {
		if p.ID == "host" {
			continue
		}
		if p.CurrentScore != 20 {
			t.Fatalf("player %s lost an update: score %d", p.ID, p.CurrentScore)
		}
	}
}

func TestSessionIDsAreCollisionChecked(t *testing.T) {
	service := newTestService(t)
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		session, err := service.CreateSession(context.Background(), 1, "", "Host", 10)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if seen[session.ID] {
			t.Fatalf("duplicate session id issued: %s", session.ID)
		}
		seen[session.ID] = true
		if session.HostID == "" {
			t.Fatalf("expected generated host id")
		}
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	service := newTestService(t)
	session := createStartedSession(t, service)

	snap, _ := service.GetSession(session.ID)
	snap.Players[0].CurrentScore = 999

	fresh, _ := service.GetSession(session.ID)
	if fresh.Players[0].CurrentScore == 999 {
		t.Fatalf("snapshot mutation leaked into live session")
	}
}
