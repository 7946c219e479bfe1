package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"auction-room/internal/room"
	"auction-room/pkg/logger"
)

const viewTimeout = 3 * time.Second

// AuctionHandler serves read-only views of the live room over HTTP. All
// writes go through the WebSocket endpoint; these exist for dashboards and
// late readers.
type AuctionHandler struct {
	room *room.Room
	log  logger.Logger
}

func NewAuctionHandler(rm *room.Room, log logger.Logger) *AuctionHandler {
	return &AuctionHandler{room: rm, log: log}
}

func (h *AuctionHandler) GetState(c echo.Context) error {
	view, err := h.fetchView()
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "room unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"state":          view.Snapshot,
		"connectedRoles": view.Roles,
	})
}

func (h *AuctionHandler) GetTeams(c echo.Context) error {
	view, err := h.fetchView()
	if err != nil {
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "room unavailable"})
	}
	return c.JSON(http.StatusOK, view.Teams)
}

func (h *AuctionHandler) fetchView() (room.View, error) {
	reply := make(chan room.View, 1)
	select {
	case h.room.Inbox() <- room.GetState{Reply: reply}:
	case <-time.After(viewTimeout):
		return room.View{}, echo.ErrServiceUnavailable
	}
	select {
	case view := <-reply:
		return view, nil
	case <-time.After(viewTimeout):
		return room.View{}, echo.ErrServiceUnavailable
	}
}
