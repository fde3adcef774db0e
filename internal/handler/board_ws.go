package handler

import (
	"encoding/json"
	"log"

	"github.com/gofiber/contrib/websocket"

	"github.com/Swathi-CG04/collaborative-canvas/internal/board"
	"github.com/Swathi-CG04/collaborative-canvas/internal/session"
)

// BoardWSHandler owns the board websocket endpoint: one read loop per
// connection, decoding the {type, payload} envelope and dispatching to
// the coordinator. Registration with the hub happens at join time since
// the room is not known before then.
type BoardWSHandler struct {
	hub         *BoardHub
	coordinator *board.Coordinator
}

// NewBoardWSHandler wires the hub and the coordinator together
func NewBoardWSHandler(store *board.Store) *BoardWSHandler {
	hub := NewBoardHub()
	return &BoardWSHandler{
		hub:         hub,
		coordinator: board.NewCoordinator(store, hub),
	}
}

// Coordinator exposes the board coordinator (read-only surfaces reuse
// its store)
func (h *BoardWSHandler) Coordinator() *board.Coordinator {
	return h.coordinator
}

// HandleWebSocket runs the connection lifecycle. Frames that fail to
// decode are skipped; events arriving before join are silent no-ops
// inside the coordinator.
func (h *BoardWSHandler) HandleWebSocket(c *websocket.Conn) {
	sess := session.New()
	log.Printf("[BoardWS] Connected: %s", sess.ID)

	defer func() {
		h.coordinator.HandleDisconnect(sess)
		h.hub.Unregister(sess.ID)
		c.Close()
		log.Printf("[BoardWS] Disconnected: %s", sess.ID)
	}()

	for {
		_, data, err := c.ReadMessage()
		if err != nil {
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}

		switch msg.Type {
		case board.EventJoin:
			var req board.JoinRequest
			if err := json.Unmarshal(msg.Payload, &req); err != nil || req.Room == "" {
				continue
			}
			// Register before the coordinator replies so init_state
			// reaches this connection.
			h.hub.Register(req.Room, sess.ID, c)
			h.coordinator.HandleJoin(sess, req)

		case board.EventPointer:
			h.coordinator.HandlePointer(sess, msg.Payload)

		case board.EventStrokeChunk:
			h.coordinator.HandleStrokeChunk(sess, msg.Payload)

		case board.EventStrokeCommit:
			var req board.CommitRequest
			if err := json.Unmarshal(msg.Payload, &req); err != nil {
				continue
			}
			h.coordinator.HandleStrokeCommit(sess, req)

		case board.EventUndoRequest:
			h.coordinator.HandleUndo(sess)

		case board.EventRedoRequest:
			h.coordinator.HandleRedo(sess)

		case board.EventClear:
			h.coordinator.HandleClear(sess)
		}
	}
}
