package http

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"quizdash/internal/app"
	"quizdash/internal/domain"
)

// WSHandler is the event channel: it upgrades connections, runs the
// join_session handshake, and binds each connection to at most one
// (session, player) pair for its lifetime.
type WSHandler struct {
	service  *app.SessionService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.SessionService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type joinSessionPayload struct {
	SessionID string `json:"sessionId"`
	PlayerID  string `json:"playerId"`
}

type answerPayload struct {
	QuestionID   int   `json:"questionId"`
	AnswerID     int   `json:"answerId"`
	ResponseTime int64 `json:"responseTime"`
}

type outboundMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

func errorEvent(message string) domain.Event {
	return domain.Event{Type: domain.EventError, Message: message}
}

// ServeWS upgrades the request and waits for a join_session handshake. The
// player must already have joined over the command API; a connection that
// never completes the handshake binds nothing and its close is a no-op.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	var (
		sessionID string
		playerID  string
		events    <-chan domain.Event
		cancel    func()
	)

	// Handshake: reject malformed or unknown subscribe attempts with an
	// error event, without binding.
	for events == nil {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			return
		}
		if inbound.Type != "join_session" {
			_ = conn.WriteJSON(errorEvent("expected join_session"))
			continue
		}
		var payload joinSessionPayload
		if err := json.Unmarshal(inbound.Payload, &payload); err != nil || payload.SessionID == "" || payload.PlayerID == "" {
			_ = conn.WriteJSON(errorEvent("invalid join_session payload"))
			continue
		}

		ch, cancelFn, snap, err := h.service.Subscribe(payload.SessionID, payload.PlayerID)
		if err != nil {
			_ = conn.WriteJSON(errorEvent(err.Error()))
			continue
		}
		sessionID = payload.SessionID
		playerID = payload.PlayerID
		events = ch
		cancel = cancelFn
		defer cancel()

		if err := conn.WriteJSON(domain.Event{Type: domain.EventJoinedSession, Session: &snap, PlayerID: playerID}); err != nil {
			return
		}
	}

	send := make(chan interface{}, 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	eventsDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(eventsDone)
		for {
			select {
			case event, ok := <-events:
				if !ok {
					// session ended; unblock the read loop
					_ = conn.Close()
					return
				}
				select {
				case send <- event:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	// enqueue must not block once the writer has exited on a write error,
	// or the read loop would stall against a full buffer.
	enqueue := func(msg interface{}) {
		select {
		case send <- msg:
		case <-writerDone:
		}
	}

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				enqueue(errorEvent("invalid answer payload"))
				continue
			}
			result, err := h.service.SubmitAnswer(sessionID, playerID, payload.QuestionID, payload.AnswerID, payload.ResponseTime)
			if err != nil {
				enqueue(errorEvent(err.Error()))
				continue
			}
			enqueue(outboundMessage{Type: "answer_result", Payload: result})
		case "leave":
			if _, _, err := h.service.LeaveSession(sessionID, playerID); err != nil {
				enqueue(errorEvent(err.Error()))
			}
		default:
			enqueue(errorEvent("unsupported message type"))
		}
	}

	// Transport-level termination evicts the bound player; explicit leaves
	// already removed them and the error is then ignored.
	if err := h.service.DisconnectPlayer(sessionID, playerID); err != nil {
		switch domain.Classify(err) {
		case domain.KindNotFound:
		default:
			log.Printf("ws disconnect %s/%s: %v", sessionID, playerID, err)
		}
	}

	close(closeSignals)
	<-eventsDone
	close(send)
	<-writerDone
}
