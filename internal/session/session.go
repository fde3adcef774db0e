package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Swathi-CG04/collaborative-canvas/internal/model"
)

// Session per-connection context (thread-safe). Room and User are set
// at join time; every event except join itself requires them.
type Session struct {
	ID          string
	ConnectedAt time.Time

	room        string
	user        model.User
	joined      bool
	relayCount  uint64 // pointer + stroke_chunk events relayed
	commitCount uint64 // operations committed

	mu sync.RWMutex
}

// New creates a session with a fresh connection id
func New() *Session {
	return &Session{
		ID:          uuid.New().String(),
		ConnectedAt: time.Now(),
	}
}

// Join binds the session to a room and user record
func (s *Session) Join(room string, user model.User) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.room = room
	s.user = user
	s.joined = true
}

// Room returns the current room name, empty before join
func (s *Session) Room() string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.room
}

// User returns the user record set at join time
func (s *Session) User() model.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.user
}

// Joined reports whether the session has room context
func (s *Session) Joined() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.joined
}

// IncrementRelayCount counts an ephemeral relay event
func (s *Session) IncrementRelayCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.relayCount++
	return s.relayCount
}

// IncrementCommitCount counts a committed operation
func (s *Session) IncrementCommitCount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.commitCount++
	return s.commitCount
}

// Stats returns the relay/commit counters
func (s *Session) Stats() (relays, commits uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.relayCount, s.commitCount
}

// Duration time since the connection was established
func (s *Session) Duration() time.Duration {
	return time.Since(s.ConnectedAt)
}
