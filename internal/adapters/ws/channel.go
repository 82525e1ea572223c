package ws

import (
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/knmori/lobby/internal/core"
	"github.com/knmori/lobby/internal/domain"
)

const (
	msgCreateRoom        = "createRoom"
	msgCreateRoomSuccess = "createRoomSuccess"
	msgJoinRoom          = "joinRoom"
	msgJoinRoomSuccess   = "joinRoomSuccess"
	msgPing              = "ping"
	msgPong              = "pong"
	msgError             = "error"
)

type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type roomReply struct {
	Type    string       `json:"type"`
	Payload replyPayload `json:"payload"`
}

type replyPayload struct {
	RoomID domain.RoomID `json:"roomId"`
	User   domain.User   `json:"user"`
}

func (ctl *Controller) dispatch(sid core.SessionID, conn *wsConn, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Debug().Err(err).Str("module", "adapters.ws").Msg("bad json")
		ctl.sendError(conn, "bad payload")
		return
	}

	switch env.Type {
	case msgCreateRoom:
		ctl.handleCreateRoom(sid, conn, env.Payload)
	case msgJoinRoom:
		ctl.handleJoinRoom(sid, conn, env.Payload)
	case msgPing:
		ctl.sendJSON(conn, map[string]string{"type": msgPong})
	default:
		log.Warn().Str("module", "adapters.ws").Str("type", env.Type).Msg("unknown message")
		ctl.sendError(conn, "unknown message type")
	}
}

func (ctl *Controller) handleCreateRoom(sid core.SessionID, conn *wsConn, payload json.RawMessage) {
	var p struct {
		UserID   domain.UserID `json:"userId"`
		Username string        `json:"username"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		ctl.sendError(conn, "bad payload")
		return
	}
	owner, err := domain.NewUser(p.UserID, p.Username)
	if err != nil {
		ctl.sendError(conn, err.Error())
		return
	}

	snap, err := ctl.lobby.CreateRoomFor(sid, owner)
	if err != nil {
		ctl.sendError(conn, "internal error")
		return
	}
	ctl.sendJSON(conn, roomReply{
		Type:    msgCreateRoomSuccess,
		Payload: replyPayload{RoomID: snap.RoomID, User: owner},
	})
}

func (ctl *Controller) handleJoinRoom(sid core.SessionID, conn *wsConn, payload json.RawMessage) {
	var p struct {
		RoomID   domain.RoomID `json:"roomId"`
		UserID   domain.UserID `json:"userId"`
		Username string        `json:"username"`
	}
	if err := json.Unmarshal(payload, &p); err != nil || p.RoomID == "" {
		ctl.sendError(conn, "bad payload")
		return
	}
	user, err := domain.NewUser(p.UserID, p.Username)
	if err != nil {
		ctl.sendError(conn, err.Error())
		return
	}

	snap, err := ctl.lobby.JoinRoomFor(sid, p.RoomID, user)
	if err != nil {
		if errors.Is(err, core.ErrRoomNotFound) {
			ctl.sendError(conn, "Room not found")
			return
		}
		ctl.sendError(conn, "internal error")
		return
	}
	ctl.sendJSON(conn, roomReply{
		Type:    msgJoinRoomSuccess,
		Payload: replyPayload{RoomID: snap.RoomID, User: user},
	})
}

func (ctl *Controller) sendError(conn *wsConn, msg string) {
	ctl.sendJSON(conn, errorMessage{Type: msgError, Message: msg})
}
