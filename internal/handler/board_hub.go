package handler

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// WSMessage envelope for every frame on the board socket
type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// outMessage outbound envelope; payload is marshaled as-is
type outMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// boardConn one registered connection. The write mutex serializes
// frames: fiber websocket connections do not tolerate concurrent writes.
type boardConn struct {
	sessionID string
	conn      *websocket.Conn
	writeMu   sync.Mutex
}

// BoardHub tracks which connections belong to which room and fans
// outbound events to them. It implements board.Emitter. Delivery is
// best-effort: a write failure is logged and the read loop of the dead
// connection handles the teardown.
type BoardHub struct {
	rooms map[string]map[string]*boardConn // room -> sessionID -> conn
	byID  map[string]*boardConn            // sessionID -> conn
	mu    sync.RWMutex
}

// NewBoardHub creates an empty hub
func NewBoardHub() *BoardHub {
	return &BoardHub{
		rooms: make(map[string]map[string]*boardConn),
		byID:  make(map[string]*boardConn),
	}
}

// Register adds the connection to a room, moving it if it was already
// registered elsewhere
func (h *BoardHub) Register(room, sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	bc, ok := h.byID[sessionID]
	if !ok {
		bc = &boardConn{sessionID: sessionID, conn: conn}
		h.byID[sessionID] = bc
	}

	for name, conns := range h.rooms {
		if name != room {
			delete(conns, sessionID)
			if len(conns) == 0 {
				delete(h.rooms, name)
			}
		}
	}

	if h.rooms[room] == nil {
		h.rooms[room] = make(map[string]*boardConn)
	}
	h.rooms[room][sessionID] = bc
}

// Unregister removes the connection entirely
func (h *BoardHub) Unregister(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.byID, sessionID)
	for name, conns := range h.rooms {
		delete(conns, sessionID)
		if len(conns) == 0 {
			delete(h.rooms, name)
		}
	}
}

// SendTo emits one event to a single connection
func (h *BoardHub) SendTo(sessionID, event string, payload any) {
	h.mu.RLock()
	bc := h.byID[sessionID]
	h.mu.RUnlock()

	if bc == nil {
		return
	}

	data, err := json.Marshal(outMessage{Type: event, Payload: payload})
	if err != nil {
		log.Printf("[BoardHub] Failed to marshal %s: %v", event, err)
		return
	}
	h.write(bc, event, data)
}

// BroadcastRoom emits to every connection in the room, sender included
func (h *BoardHub) BroadcastRoom(room, event string, payload any) {
	h.broadcast(room, "", event, payload)
}

// BroadcastRoomExcept emits to every connection in the room except the
// sender, so a client never receives its own ephemeral input back
func (h *BoardHub) BroadcastRoomExcept(room, senderID, event string, payload any) {
	h.broadcast(room, senderID, event, payload)
}

func (h *BoardHub) broadcast(room, exclude, event string, payload any) {
	data, err := json.Marshal(outMessage{Type: event, Payload: payload})
	if err != nil {
		log.Printf("[BoardHub] Failed to marshal %s: %v", event, err)
		return
	}

	h.mu.RLock()
	targets := make([]*boardConn, 0, len(h.rooms[room]))
	for id, bc := range h.rooms[room] {
		if id == exclude {
			continue
		}
		targets = append(targets, bc)
	}
	h.mu.RUnlock()

	for _, bc := range targets {
		h.write(bc, event, data)
	}
}

func (h *BoardHub) write(bc *boardConn, event string, data []byte) {
	bc.writeMu.Lock()
	defer bc.writeMu.Unlock()

	if err := bc.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		log.Printf("[BoardHub] Failed to send %s to %s: %v", event, bc.sessionID, err)
	}
}

// ConnectedCount returns the number of connections in a room
func (h *BoardHub) ConnectedCount(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}
