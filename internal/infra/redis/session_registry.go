package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"quizdash/internal/app"
)

// SessionRegistry is a Redis-aware implementation of app.SessionRepository.
// Notes:
//   - Live sessions stay in a local map so the in-process hub keeps working;
//     Redis only marks session liveness, which lets dashboards and future
//     instances see which codes are taken.
//   - For true distribution you'd pair this with a pub/sub projector that
//     fans events out across instances.
type SessionRegistry struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionRegistry(client *redis.Client, ttl time.Duration) *SessionRegistry {
	return &SessionRegistry{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.Session),
	}
}

func (r *SessionRegistry) Register(session *app.Session) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[session.ID()]; ok {
		return false
	}
	r.sessions[session.ID()] = session
	// best-effort liveness marker
	_ = r.client.Set(context.Background(), r.key(session.ID()), "1", r.ttl).Err()
	return true
}

func (r *SessionRegistry) Get(id string) (*app.Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	session, ok := r.sessions[id]
	return session, ok
}

func (r *SessionRegistry) Delete(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	_ = r.client.Del(context.Background(), r.key(id)).Err()
}

func (r *SessionRegistry) key(id string) string {
	return "session:" + id
}
