package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/knmori/lobby/internal/app"
	"github.com/knmori/lobby/internal/core"
	"github.com/knmori/lobby/internal/domain"
)

type createRoomRequest struct {
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

type joinRoomRequest struct {
	RoomID   string `json:"roomId"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
}

func createRoomHandler(lobby *app.Lobby) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createRoomRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
		owner, err := domain.NewUser(domain.UserID(req.UserID), req.Username)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, lobby.CreateRoom(owner))
	}
}

func joinRoomHandler(lobby *app.Lobby) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req joinRoomRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.RoomID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
			return
		}
		user, err := domain.NewUser(domain.UserID(req.UserID), req.Username)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		snap, err := lobby.JoinRoom(domain.RoomID(req.RoomID), user)
		if err != nil {
			if errors.Is(err, core.ErrRoomNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

func listRoomsHandler(lobby *app.Lobby) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"rooms": lobby.Rooms()})
	}
}

func getRoomHandler(lobby *app.Lobby) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, ok := lobby.FindRoom(domain.RoomID(c.Param("roomId")))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Room not found"})
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}
