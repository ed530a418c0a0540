package domain

// EventType enumerates the push events a session subscriber can receive.
type EventType string

const (
	EventPlayerJoined       EventType = "player_joined"
	EventPlayerLeft         EventType = "player_left"
	EventPlayerReady        EventType = "player_ready"
	EventGameStarted        EventType = "game_started"
	EventNextQuestion       EventType = "next_question"
	EventPlayerAnswered     EventType = "player_answered"
	EventGameFinished       EventType = "game_finished"
	EventPlayerDisconnected EventType = "player_disconnected"
	EventJoinedSession      EventType = "joined_session"
	EventError              EventType = "error"
)

// Event is a typed push message fanned out to session subscribers. Every kind
// except error and player_disconnected carries the full session snapshot;
// player-scoped kinds also name the acting player.
type Event struct {
	Type     EventType    `json:"type"`
	Session  *GameSession `json:"session,omitempty"`
	PlayerID string       `json:"playerId,omitempty"`
	Message  string       `json:"message,omitempty"`
}
