package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/knmori/lobby/internal/app"
	"github.com/knmori/lobby/internal/config"
	"github.com/knmori/lobby/internal/core"
	"github.com/knmori/lobby/internal/domain"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Controller owns both websocket endpoints: the message channel at
// /ws and the room-scoped subscription at /room-users/:roomId/ws.
// Both resolve to the same Lobby calls.
type Controller struct {
	lobby *app.Lobby
	cfg   *config.Config
}

func NewController(lobby *app.Lobby, cfg *config.Config) *Controller {
	return &Controller{lobby: lobby, cfg: cfg}
}

// HandleChannel serves the persistent message channel. The connection
// starts unbound; createRoom/joinRoom messages bind it to a room.
func (ctl *Controller) HandleChannel(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.ws").Msg("ws upgrade")
		return
	}

	sid := core.SessionID(uuid.NewString())
	conn := newWSConn(ws, ctl.cfg.SendBuffer)
	ctx, cancel := context.WithCancel(ctx)
	ctl.lobby.Attach(sid, conn, cancel)
	log.Info().Str("module", "adapters.ws").Str("sid", string(sid)).Msg("channel connection")

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, sid, conn, cancel, func(data []byte) {
		ctl.dispatch(sid, conn, data)
	})
}

// HandleRoomUsers serves the room-scoped subscription endpoint. The
// server invents a member identity; inbound messages are ignored and
// disconnecting removes the member.
func (ctl *Controller) HandleRoomUsers(ctx context.Context, c *gin.Context) {
	roomID := domain.RoomID(c.Param("roomId"))

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.ws").Msg("ws upgrade")
		return
	}

	sid := core.SessionID(uuid.NewString())
	conn := newWSConn(ws, ctl.cfg.SendBuffer)
	ctx, cancel := context.WithCancel(ctx)

	user, err := ctl.lobby.Subscribe(sid, conn, roomID, cancel)
	if err != nil {
		msg := "internal error"
		if errors.Is(err, core.ErrRoomNotFound) {
			msg = "Room not found"
		}
		data, _ := json.Marshal(map[string]string{"error": msg})
		_ = ws.WriteMessage(websocket.TextMessage, data)
		conn.Close()
		cancel()
		return
	}
	log.Info().Str("module", "adapters.ws").Str("sid", string(sid)).Str("room", string(roomID)).Str("user", string(user.ID)).Msg("room subscription")

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, sid, conn, cancel, nil)
}
