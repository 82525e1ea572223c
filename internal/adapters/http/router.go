// Package http wires the REST and websocket surfaces. Both are thin:
// every request resolves to the same Lobby calls.
package http

import (
	"context"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/knmori/lobby/internal/adapters/ws"
	"github.com/knmori/lobby/internal/app"
	"github.com/knmori/lobby/internal/config"
	"github.com/knmori/lobby/internal/monitoring"
)

func SetupRouter(ctx context.Context, cfg *config.Config, lobby *app.Lobby) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(cors.Default())

	r.GET("/metrics", gin.WrapH(monitoring.Handler()))

	rest := r.Group("/")
	rest.Use(RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst))
	rest.POST("/create-room", createRoomHandler(lobby))
	rest.POST("/join-room", joinRoomHandler(lobby))
	rest.GET("/rooms", listRoomsHandler(lobby))
	rest.GET("/rooms/:roomId", getRoomHandler(lobby))

	ctrl := ws.NewController(lobby, cfg)
	r.GET("/ws", func(c *gin.Context) {
		ctrl.HandleChannel(ctx, c)
	})
	r.GET("/room-users/:roomId/ws", func(c *gin.Context) {
		ctrl.HandleRoomUsers(ctx, c)
	})

	log.Info().Str("module", "adapters.http").Msg("router setup")
	return r
}
