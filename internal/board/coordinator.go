package board

import (
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/Swathi-CG04/collaborative-canvas/internal/model"
	"github.com/Swathi-CG04/collaborative-canvas/internal/session"
)

// Wire event names. Inbound and outbound share the pointer/stroke_chunk
// names because those are pure relays.
const (
	EventJoin         = "join"
	EventInitState    = "init_state"
	EventUserList     = "user_list"
	EventPointer      = "pointer"
	EventStrokeChunk  = "stroke_chunk"
	EventStrokeCommit = "stroke_commit"
	EventUndoRequest  = "undo_request"
	EventRedoRequest  = "redo_request"
	EventClear        = "clear"
	EventOpAdd        = "op_add"
	EventOpRemove     = "op_remove"
	EventOpRejected   = "op_rejected"
)

// Emitter is the coordinator's output channel. The transport layer
// implements it; the coordinator never touches a connection directly.
// Delivery is fire-and-forget: a slow or broken consumer never blocks
// the room.
type Emitter interface {
	SendTo(sessionID, event string, payload any)
	BroadcastRoom(room, event string, payload any)
	BroadcastRoomExcept(room, senderID, event string, payload any)
}

// JoinRequest inbound join payload
type JoinRequest struct {
	Room string     `json:"room"`
	User model.User `json:"user"`
}

// CommitRequest inbound stroke_commit payload
type CommitRequest struct {
	Op model.Operation `json:"op"`
}

// OpRemovePayload outbound op_remove payload
type OpRemovePayload struct {
	OpID string `json:"opId"`
}

// OpRejectedPayload outbound op_rejected payload (sender-only)
type OpRejectedPayload struct {
	Reason string `json:"reason"`
}

// Coordinator maps one inbound protocol event to store mutations plus
// outbound broadcasts. Ephemeral events (pointer, stroke_chunk) are
// relayed to the room excluding the sender; durable state transitions
// (op_add, op_remove, clear, user_list) go to the whole room including
// the sender, so the sender converges on the same log entry as everyone
// else. Events arriving before join are silent no-ops.
type Coordinator struct {
	store *Store
	emit  Emitter
}

// NewCoordinator creates a coordinator over the given store and emitter
func NewCoordinator(store *Store, emit Emitter) *Coordinator {
	return &Coordinator{store: store, emit: emit}
}

// Store exposes the underlying room store for read-only surfaces
func (c *Coordinator) Store() *Store {
	return c.store
}

// HandleJoin binds the session to a room, replies with the replay-ready
// history and broadcasts the updated member list. A join on an already
// joined session is a room switch: the old room sees the session leave
// before the new one sees it arrive.
func (c *Coordinator) HandleJoin(s *session.Session, req JoinRequest) {
	if req.Room == "" {
		return
	}

	if prev := s.Room(); prev != "" && prev != req.Room {
		c.store.RemoveUser(prev, s.ID)
		c.emit.BroadcastRoom(prev, EventUserList, c.store.Users(prev))
	}

	c.store.AddUser(req.Room, s.ID, req.User)
	s.Join(req.Room, req.User)
	log.Printf("[Board %s] Joined: %s (%s), members: %d",
		req.Room, req.User.Name, s.ID, c.store.MemberCount(req.Room))

	c.emit.SendTo(s.ID, EventInitState, c.store.State(req.Room))
	c.emit.BroadcastRoom(req.Room, EventUserList, c.store.Users(req.Room))
}

// HandlePointer relays a cursor position to the room, sender excluded.
// The payload passes through unmodified; a dropped frame only degrades
// a live preview, never the committed record.
func (c *Coordinator) HandlePointer(s *session.Session, payload json.RawMessage) {
	room := s.Room()
	if room == "" {
		return
	}
	s.IncrementRelayCount()
	c.emit.BroadcastRoomExcept(room, s.ID, EventPointer, payload)
}

// HandleStrokeChunk relays an in-progress stroke fragment to the room,
// sender excluded. Chunks are never buffered server-side.
func (c *Coordinator) HandleStrokeChunk(s *session.Session, payload json.RawMessage) {
	room := s.Room()
	if room == "" {
		return
	}
	s.IncrementRelayCount()
	c.emit.BroadcastRoomExcept(room, s.ID, EventStrokeChunk, payload)
}

// HandleStrokeCommit validates and appends the operation to the room
// log, then broadcasts op_add to the whole room. An invalid op is not
// committed; the sender alone gets op_rejected. A commit without an id
// gets a server-assigned one before entering the log.
func (c *Coordinator) HandleStrokeCommit(s *session.Session, req CommitRequest) {
	room := s.Room()
	if room == "" {
		return
	}

	op := req.Op
	if op.ID == "" {
		op.ID = uuid.New().String()
	}
	if err := op.Validate(); err != nil {
		log.Printf("[Board %s] Rejected op %s from %s: %v", room, op.ID, s.ID, err)
		c.emit.SendTo(s.ID, EventOpRejected, OpRejectedPayload{Reason: err.Error()})
		return
	}

	committed := c.store.Commit(room, op)
	s.IncrementCommitCount()
	c.emit.BroadcastRoom(room, EventOpAdd, committed)
}

// HandleUndo pops the room's most recent operation. Empty history is a
// silent no-op, distinguishable only by the absence of any broadcast.
func (c *Coordinator) HandleUndo(s *session.Session) {
	room := s.Room()
	if room == "" {
		return
	}

	removed := c.store.Undo(room)
	if removed == nil {
		return
	}
	c.emit.BroadcastRoom(room, EventOpRemove, OpRemovePayload{OpID: removed.ID})
}

// HandleRedo restores the most recently undone operation, if any
func (c *Coordinator) HandleRedo(s *session.Session) {
	room := s.Room()
	if room == "" {
		return
	}

	restored := c.store.Redo(room)
	if restored == nil {
		return
	}
	c.emit.BroadcastRoom(room, EventOpAdd, *restored)
}

// HandleClear wipes the room history and redo buffer
func (c *Coordinator) HandleClear(s *session.Session) {
	room := s.Room()
	if room == "" {
		return
	}

	c.store.Clear(room)
	log.Printf("[Board %s] Cleared by %s", room, s.ID)
	c.emit.BroadcastRoom(room, EventClear, nil)
}

// HandleDisconnect treats a dropped connection as an implicit leave.
// Cleanup is membership only: an uncommitted in-flight stroke simply
// never produces a stroke_commit.
func (c *Coordinator) HandleDisconnect(s *session.Session) {
	room := s.Room()
	if room == "" {
		return
	}

	c.store.RemoveUser(room, s.ID)
	relays, commits := s.Stats()
	log.Printf("[Board %s] Left: %s (relays=%d commits=%d duration=%s)",
		room, s.ID, relays, commits, s.Duration().Round(time.Millisecond))
	c.emit.BroadcastRoom(room, EventUserList, c.store.Users(room))
}
