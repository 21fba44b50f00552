package handlers

import (
	"net/http"
	"time"

	"auction-stream/internal/services"
	"auction-stream/pkg/logger"

	"github.com/labstack/echo/v4"
)

// RoomHandler serves pages and the room status endpoint.
type RoomHandler struct {
	room *services.Room
	log  logger.Logger
}

func NewRoomHandler(room *services.Room, log logger.Logger) *RoomHandler {
	return &RoomHandler{
		room: room,
		log:  log,
	}
}

func (h *RoomHandler) Root(c echo.Context) error {
	return c.Redirect(http.StatusFound, "/stream")
}

func (h *RoomHandler) StreamPage(c echo.Context) error {
	return c.File("static/stream.html")
}

func (h *RoomHandler) StartStreamPage(c echo.Context) error {
	return c.File("static/start_stream.html")
}

func (h *RoomHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"service":   "auction-stream",
		"timestamp": time.Now().Format(time.RFC3339),
		"is_live":   h.room.IsLive(),
		"viewers":   h.room.ViewerCount(),
		"price":     h.room.CurrentPrice(),
	})
}
