package app

import (
	"sync"

	"quizdash/internal/domain"
)

// Hub fans session events out to every connection subscribed to a session id.
// Publishing is non-blocking; a slow subscriber loses its oldest buffered
// event rather than stalling the others.
type Hub struct {
	mu          sync.Mutex
	subscribers map[string]map[chan domain.Event]struct{}
}

func NewHub() *Hub {
	return &Hub{
		subscribers: make(map[string]map[chan domain.Event]struct{}),
	}
}

// Subscribe registers a new subscriber for a session and returns its event
// channel plus a cancel function. Cancel is safe to call after the session's
// channels were already closed by CloseSession.
func (h *Hub) Subscribe(sessionID string) (<-chan domain.Event, func()) {
	ch := make(chan domain.Event, 16)

	h.mu.Lock()
	set, ok := h.subscribers[sessionID]
	if !ok {
		set = make(map[chan domain.Event]struct{})
		h.subscribers[sessionID] = set
	}
	set[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subscribers[sessionID]; ok {
			if _, ok := set[ch]; ok {
				delete(set, ch)
				close(ch)
			}
			if len(set) == 0 {
				delete(h.subscribers, sessionID)
			}
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

// Publish delivers an event to every subscriber of the session. Events for
// one session are delivered in publish order; failures to keep up never
// affect other subscribers or the caller.
func (h *Hub) Publish(sessionID string, event domain.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for ch := range h.subscribers[sessionID] {
		select {
		case ch <- event:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- event
		}
	}
}

// CloseSession closes every subscriber channel of a dead session and drops
// the subscriber set.
func (h *Hub) CloseSession(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.subscribers[sessionID]
	if !ok {
		return
	}
	for ch := range set {
		close(ch)
	}
	delete(h.subscribers, sessionID)
}

// SubscriberCount reports the number of live subscribers for a session.
func (h *Hub) SubscriberCount(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers[sessionID])
}
