package board

import (
	"log"
	"sync"

	"github.com/Swathi-CG04/collaborative-canvas/internal/model"
)

// Store is the authoritative in-memory state for all rooms: membership,
// the committed operation log and the redo buffer. It knows nothing
// about network framing; the coordinator decides what to broadcast.
type Store struct {
	rooms map[string]*room
	mu    sync.RWMutex
}

// room carries its own mutex so mutations on independent rooms never
// contend. Undo/redo are multi-step pop/push sequences; every store
// operation holds the room lock for its full read-modify-write.
type room struct {
	name      string
	members   map[string]model.User // session id -> user
	opLog     []model.Operation
	redoStack []model.Operation
	mu        sync.RWMutex
}

// NewStore creates an empty room store
func NewStore() *Store {
	return &Store{
		rooms: make(map[string]*room),
	}
}

// ensure returns the room, creating it on first reference. Rooms are
// never evicted; history survives an empty room for the process lifetime.
func (s *Store) ensure(name string) *room {
	s.mu.RLock()
	r, ok := s.rooms[name]
	s.mu.RUnlock()
	if ok {
		return r
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[name]; ok {
		return r
	}
	r = &room{
		name:    name,
		members: make(map[string]model.User),
	}
	s.rooms[name] = r
	log.Printf("[Store] Created room: %s", name)
	return r
}

// AddUser inserts or overwrites the membership entry for sessionID
func (s *Store) AddUser(roomName, sessionID string, user model.User) {
	r := s.ensure(roomName)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members[sessionID] = user
}

// RemoveUser deletes the membership entry; no-op if absent
func (s *Store) RemoveUser(roomName, sessionID string) {
	r := s.ensure(roomName)
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.members, sessionID)
}

// Users returns a snapshot of the current members. Iteration order is
// not stable across joins/leaves.
func (s *Store) Users(roomName string) []model.User {
	r := s.ensure(roomName)
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]model.User, 0, len(r.members))
	for _, u := range r.members {
		users = append(users, u)
	}
	return users
}

// MemberCount returns the number of connected members
func (s *Store) MemberCount(roomName string) int {
	r := s.ensure(roomName)
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.members)
}

// State returns a copy of the replay-ready log, used to bootstrap a
// newly joined connection. The copy keeps serialization safe against
// concurrent commits.
func (s *Store) State(roomName string) model.BoardState {
	r := s.ensure(roomName)
	r.mu.RLock()
	defer r.mu.RUnlock()

	opLog := make([]model.Operation, len(r.opLog))
	copy(opLog, r.opLog)
	return model.BoardState{OpLog: opLog}
}

// Commit appends op to the room log. Any new commit invalidates the
// redo buffer: undo history cannot be replayed across a state fork.
func (s *Store) Commit(roomName string, op model.Operation) model.Operation {
	r := s.ensure(roomName)
	r.mu.Lock()
	defer r.mu.Unlock()

	r.opLog = append(r.opLog, op)
	r.redoStack = nil
	return op
}

// Undo pops the most recent committed operation onto the redo buffer
// and returns it. Returns nil and leaves state untouched when the log
// is empty. The history is room-global: any participant's undo removes
// the room's latest operation regardless of author.
func (s *Store) Undo(roomName string) *model.Operation {
	r := s.ensure(roomName)
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.opLog) == 0 {
		return nil
	}
	op := r.opLog[len(r.opLog)-1]
	r.opLog = r.opLog[:len(r.opLog)-1]
	r.redoStack = append(r.redoStack, op)
	return &op
}

// Redo pops the redo buffer back onto the log and returns the restored
// operation, or nil when there is nothing to redo.
func (s *Store) Redo(roomName string) *model.Operation {
	r := s.ensure(roomName)
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.redoStack) == 0 {
		return nil
	}
	op := r.redoStack[len(r.redoStack)-1]
	r.redoStack = r.redoStack[:len(r.redoStack)-1]
	r.opLog = append(r.opLog, op)
	return &op
}

// Clear empties both the log and the redo buffer unconditionally
func (s *Store) Clear(roomName string) {
	r := s.ensure(roomName)
	r.mu.Lock()
	defer r.mu.Unlock()

	r.opLog = nil
	r.redoStack = nil
}

// HistoryDepth reports how many operations can currently be undone and
// redone. Read by the HTTP board API for canUndo/canRedo.
func (s *Store) HistoryDepth(roomName string) (undo, redo int) {
	r := s.ensure(roomName)
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.opLog), len(r.redoStack)
}
