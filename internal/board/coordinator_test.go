package board

import (
	"encoding/json"
	"testing"

	"github.com/Swathi-CG04/collaborative-canvas/internal/model"
	"github.com/Swathi-CG04/collaborative-canvas/internal/session"
)

// recordedEmit one captured outbound emission
type recordedEmit struct {
	room     string // empty for SendTo
	target   string // SendTo recipient
	excluded string // BroadcastRoomExcept sender
	event    string
	payload  any
}

// fakeEmitter records emissions instead of writing to connections
type fakeEmitter struct {
	emits []recordedEmit
}

func (f *fakeEmitter) SendTo(sessionID, event string, payload any) {
	f.emits = append(f.emits, recordedEmit{target: sessionID, event: event, payload: payload})
}

func (f *fakeEmitter) BroadcastRoom(room, event string, payload any) {
	f.emits = append(f.emits, recordedEmit{room: room, event: event, payload: payload})
}

func (f *fakeEmitter) BroadcastRoomExcept(room, senderID, event string, payload any) {
	f.emits = append(f.emits, recordedEmit{room: room, excluded: senderID, event: event, payload: payload})
}

func (f *fakeEmitter) reset() {
	f.emits = nil
}

func (f *fakeEmitter) byEvent(event string) []recordedEmit {
	var out []recordedEmit
	for _, e := range f.emits {
		if e.event == event {
			out = append(out, e)
		}
	}
	return out
}

func newTestCoordinator() (*Coordinator, *fakeEmitter) {
	emit := &fakeEmitter{}
	return NewCoordinator(NewStore(), emit), emit
}

func joinedSession(t *testing.T, c *Coordinator, room, userID string) *session.Session {
	t.Helper()
	s := session.New()
	c.HandleJoin(s, JoinRequest{Room: room, User: model.User{ID: userID, Name: userID}})
	return s
}

func validCommit(id string) CommitRequest {
	color := "#000"
	return CommitRequest{Op: model.Operation{
		ID:     id,
		Type:   model.OpTypeStroke,
		UserID: "u1",
		Color:  &color,
		Width:  4,
		Points: []model.Point{{X: 0, Y: 0}, {X: 10, Y: 10}},
	}}
}

func TestCoordinator_JoinRepliesAndBroadcasts(t *testing.T) {
	c, emit := newTestCoordinator()
	c.Store().Commit("main", validCommit("old").Op)

	s := joinedSession(t, c, "main", "alice")

	inits := emit.byEvent(EventInitState)
	if len(inits) != 1 || inits[0].target != s.ID {
		t.Fatalf("init_state emits = %v, want exactly one to the joiner", inits)
	}
	state, ok := inits[0].payload.(model.BoardState)
	if !ok || len(state.OpLog) != 1 || state.OpLog[0].ID != "old" {
		t.Fatalf("init_state payload = %v, want existing history [old]", inits[0].payload)
	}

	lists := emit.byEvent(EventUserList)
	if len(lists) != 1 || lists[0].room != "main" || lists[0].excluded != "" {
		t.Fatalf("user_list emits = %v, want one whole-room broadcast", lists)
	}
}

func TestCoordinator_EventsBeforeJoinAreNoOps(t *testing.T) {
	c, emit := newTestCoordinator()
	s := session.New()

	c.HandlePointer(s, json.RawMessage(`{"x":1,"y":2}`))
	c.HandleStrokeChunk(s, json.RawMessage(`{"opId":"s1"}`))
	c.HandleStrokeCommit(s, validCommit("s1"))
	c.HandleUndo(s)
	c.HandleRedo(s)
	c.HandleClear(s)
	c.HandleDisconnect(s)

	if len(emit.emits) != 0 {
		t.Fatalf("emits before join = %v, want none", emit.emits)
	}
}

func TestCoordinator_EphemeralRelaysExcludeSender(t *testing.T) {
	c, emit := newTestCoordinator()
	s := joinedSession(t, c, "main", "alice")
	emit.reset()

	pointer := json.RawMessage(`{"x":3,"y":4}`)
	c.HandlePointer(s, pointer)
	chunk := json.RawMessage(`{"opId":"s1","points":[{"x":0,"y":0}],"color":"#000","width":4,"eraser":false}`)
	c.HandleStrokeChunk(s, chunk)

	pointers := emit.byEvent(EventPointer)
	if len(pointers) != 1 || pointers[0].excluded != s.ID || pointers[0].room != "main" {
		t.Fatalf("pointer emits = %v, want one sender-excluded broadcast", pointers)
	}
	if string(pointers[0].payload.(json.RawMessage)) != string(pointer) {
		t.Fatalf("pointer payload modified: %s", pointers[0].payload)
	}

	chunks := emit.byEvent(EventStrokeChunk)
	if len(chunks) != 1 || chunks[0].excluded != s.ID {
		t.Fatalf("stroke_chunk emits = %v, want one sender-excluded broadcast", chunks)
	}
	if string(chunks[0].payload.(json.RawMessage)) != string(chunk) {
		t.Fatalf("stroke_chunk payload modified: %s", chunks[0].payload)
	}
}

func TestCoordinator_CommitBroadcastsToWholeRoom(t *testing.T) {
	c, emit := newTestCoordinator()
	s := joinedSession(t, c, "main", "alice")
	emit.reset()

	c.HandleStrokeCommit(s, validCommit("s1"))

	adds := emit.byEvent(EventOpAdd)
	if len(adds) != 1 || adds[0].room != "main" || adds[0].excluded != "" {
		t.Fatalf("op_add emits = %v, want one whole-room broadcast", adds)
	}
	op, ok := adds[0].payload.(model.Operation)
	if !ok || op.ID != "s1" {
		t.Fatalf("op_add payload = %v, want committed op s1", adds[0].payload)
	}

	if state := c.Store().State("main"); len(state.OpLog) != 1 {
		t.Fatalf("log = %v, want [s1]", state.OpLog)
	}
}

func TestCoordinator_CommitAssignsMissingID(t *testing.T) {
	c, emit := newTestCoordinator()
	s := joinedSession(t, c, "main", "alice")
	emit.reset()

	req := validCommit("")
	c.HandleStrokeCommit(s, req)

	adds := emit.byEvent(EventOpAdd)
	if len(adds) != 1 {
		t.Fatalf("op_add emits = %d, want 1", len(adds))
	}
	op := adds[0].payload.(model.Operation)
	if op.ID == "" {
		t.Fatal("committed op has empty id, want server-assigned id")
	}

	state := c.Store().State("main")
	if state.OpLog[0].ID != op.ID {
		t.Fatalf("stored id %q differs from broadcast id %q", state.OpLog[0].ID, op.ID)
	}
}

func TestCoordinator_MalformedCommitRejectedToSenderOnly(t *testing.T) {
	c, emit := newTestCoordinator()
	s := joinedSession(t, c, "main", "alice")
	emit.reset()

	c.HandleStrokeCommit(s, CommitRequest{Op: model.Operation{
		ID:    "bad",
		Type:  "scribble",
		Width: 4,
	}})

	if adds := emit.byEvent(EventOpAdd); len(adds) != 0 {
		t.Fatalf("op_add emits = %v, want none for invalid op", adds)
	}
	rejects := emit.byEvent(EventOpRejected)
	if len(rejects) != 1 || rejects[0].target != s.ID {
		t.Fatalf("op_rejected emits = %v, want one to the sender", rejects)
	}
	if state := c.Store().State("main"); len(state.OpLog) != 0 {
		t.Fatalf("invalid op entered the log: %v", state.OpLog)
	}
}

func TestCoordinator_UndoRedoBroadcasts(t *testing.T) {
	c, emit := newTestCoordinator()
	s := joinedSession(t, c, "main", "alice")
	c.HandleStrokeCommit(s, validCommit("s1"))
	emit.reset()

	c.HandleUndo(s)
	removes := emit.byEvent(EventOpRemove)
	if len(removes) != 1 || removes[0].room != "main" || removes[0].excluded != "" {
		t.Fatalf("op_remove emits = %v, want one whole-room broadcast", removes)
	}
	if p := removes[0].payload.(OpRemovePayload); p.OpID != "s1" {
		t.Fatalf("op_remove payload = %+v, want opId s1", p)
	}

	emit.reset()
	c.HandleRedo(s)
	adds := emit.byEvent(EventOpAdd)
	if len(adds) != 1 {
		t.Fatalf("op_add emits = %v, want one for redo", adds)
	}
	if op := adds[0].payload.(model.Operation); op.ID != "s1" {
		t.Fatalf("redo op_add payload = %+v, want s1", op)
	}
}

func TestCoordinator_EmptyUndoRedoAreSilent(t *testing.T) {
	c, emit := newTestCoordinator()
	s := joinedSession(t, c, "main", "alice")
	emit.reset()

	c.HandleUndo(s)
	c.HandleRedo(s)

	if len(emit.emits) != 0 {
		t.Fatalf("emits for empty undo/redo = %v, want silence", emit.emits)
	}
}

func TestCoordinator_ClearBroadcastsWithoutPayload(t *testing.T) {
	c, emit := newTestCoordinator()
	s := joinedSession(t, c, "main", "alice")
	c.HandleStrokeCommit(s, validCommit("s1"))
	emit.reset()

	c.HandleClear(s)

	clears := emit.byEvent(EventClear)
	if len(clears) != 1 || clears[0].room != "main" || clears[0].payload != nil {
		t.Fatalf("clear emits = %v, want one payloadless whole-room broadcast", clears)
	}
	if undo, redo := c.Store().HistoryDepth("main"); undo != 0 || redo != 0 {
		t.Fatalf("HistoryDepth() after clear = (%d, %d), want (0, 0)", undo, redo)
	}
}

func TestCoordinator_DisconnectUpdatesMembership(t *testing.T) {
	c, emit := newTestCoordinator()
	a := joinedSession(t, c, "main", "alice")
	joinedSession(t, c, "main", "bob")
	emit.reset()

	c.HandleDisconnect(a)

	lists := emit.byEvent(EventUserList)
	if len(lists) != 1 || lists[0].room != "main" {
		t.Fatalf("user_list emits = %v, want one broadcast to main", lists)
	}
	users := lists[0].payload.([]model.User)
	if len(users) != 1 || users[0].ID != "bob" {
		t.Fatalf("user_list payload = %v, want [bob]", users)
	}
}

func TestCoordinator_RejoinSwitchesRoom(t *testing.T) {
	c, emit := newTestCoordinator()
	s := joinedSession(t, c, "alpha", "alice")
	joinedSession(t, c, "alpha", "bob")
	emit.reset()

	c.HandleJoin(s, JoinRequest{Room: "beta", User: model.User{ID: "alice", Name: "alice"}})

	var alphaList, betaList *recordedEmit
	for i := range emit.emits {
		e := &emit.emits[i]
		if e.event != EventUserList {
			continue
		}
		switch e.room {
		case "alpha":
			alphaList = e
		case "beta":
			betaList = e
		}
	}
	if alphaList == nil {
		t.Fatal("no user_list broadcast to the room left behind")
	}
	if users := alphaList.payload.([]model.User); len(users) != 1 || users[0].ID != "bob" {
		t.Fatalf("alpha user_list = %v, want [bob]", users)
	}
	if betaList == nil {
		t.Fatal("no user_list broadcast to the new room")
	}
	if users := betaList.payload.([]model.User); len(users) != 1 || users[0].ID != "alice" {
		t.Fatalf("beta user_list = %v, want [alice]", users)
	}
	if s.Room() != "beta" {
		t.Fatalf("session room = %q, want beta", s.Room())
	}
}
