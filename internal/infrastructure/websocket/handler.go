package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"auction-room/internal/domain"
	"auction-room/internal/room"
	"auction-room/pkg/logger"
	"auction-room/pkg/utils"
)

const (
	writeTimeout = 10 * time.Second
	// outboxSize bounds how far a slow client may fall behind before the
	// room drops it.
	outboxSize = 32
)

// Handler upgrades HTTP requests to WebSocket connections and bridges them
// to the room: inbound envelopes go to the room inbox, broadcasts come back
// on a per-connection outbox channel.
type Handler struct {
	room     *room.Room
	upgrader websocket.Upgrader
	log      logger.Logger
}

func NewHandler(rm *room.Room, log logger.Logger) *Handler {
	return &Handler{
		room: rm,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins in development
			},
		},
		log: log,
	}
}

func (h *Handler) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("Failed to upgrade connection", "error", err)
		return
	}

	id := utils.GenerateID("conn")
	outbox := make(chan []byte, outboxSize)
	h.room.Inbox() <- room.Join{ID: id, Outbox: outbox}

	go h.writePump(conn, outbox, id)
	h.readPump(conn, id)

	h.room.Inbox() <- room.Leave{ID: id}
}

// readPump decodes inbound envelopes and hands them to the room. Malformed
// frames are skipped; any read error ends the connection.
func (h *Handler) readPump(conn *websocket.Conn, id string) {
	defer conn.Close()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.log.Debug("Connection read failed", "client_id", id, "error", err)
			}
			return
		}

		var cmd domain.ClientCommand
		if err := json.Unmarshal(data, &cmd); err != nil || cmd.Type == "" {
			continue
		}
		h.room.Inbox() <- room.FromClient{ID: id, Cmd: cmd}
	}
}

// writePump drains the outbox onto the socket. The room closes the outbox
// when the client is dropped or the room shuts down; a write failure here
// only ends this connection.
func (h *Handler) writePump(conn *websocket.Conn, outbox <-chan []byte, id string) {
	defer conn.Close()
	for payload := range outbox {
		conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.log.Debug("Connection write failed", "client_id", id, "error", err)
			return
		}
	}
}
