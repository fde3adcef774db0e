package handler

import (
	"github.com/gofiber/fiber/v2"

	"github.com/Swathi-CG04/collaborative-canvas/internal/board"
)

// BoardHTTPHandler read-only HTTP view of a room. All mutation goes
// through the websocket; this exists for tooling and recovery fetches.
type BoardHTTPHandler struct {
	store *board.Store
}

// NewBoardHTTPHandler creates the handler over the shared store
func NewBoardHTTPHandler(store *board.Store) *BoardHTTPHandler {
	return &BoardHTTPHandler{store: store}
}

// GetBoard returns the committed history of a room plus undo/redo
// availability
func (h *BoardHTTPHandler) GetBoard(c *fiber.Ctx) error {
	roomName := c.Query("room")
	if roomName == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Room name is required"})
	}

	state := h.store.State(roomName)
	undo, redo := h.store.HistoryDepth(roomName)

	return c.JSON(fiber.Map{
		"success": true,
		"history": state.OpLog,
		"canUndo": undo > 0,
		"canRedo": redo > 0,
	})
}
