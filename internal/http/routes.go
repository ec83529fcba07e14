package http

import (
	"time"

	"goldlink/internal/config"
	"goldlink/internal/http/handlers"
	"goldlink/internal/http/middleware"
	"goldlink/internal/link"
	"goldlink/internal/service"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, cfg *config.Config, transport *link.Transport, history *service.History, locks *service.ChoiceLocks, version string) {
	sessions := service.NewSessions(cfg.JWTSecret)
	h := handlers.NewHandler(transport, sessions, history, locks)
	healthHandler := handlers.NewHealthHandler(version)

	r.GET("/health", healthHandler.Health)

	v1 := r.Group("/api/v1")
	v1.Use(middleware.Metrics())
	v1.Use(middleware.RedisRateLimit(cfg.APIRateLimit, time.Duration(cfg.APIRateWindow)*time.Second))

	// Game: every endpoint is stateless, the token carries the session
	v1.POST("/game", h.CreateGame)
	v1.GET("/game", h.GetGame)
	v1.POST("/game/choice", h.Choice)
	v1.POST("/game/rematch", h.Rematch)
	v1.GET("/game/message-budget", h.MessageBudget)
	v1.GET("/game/qr", h.ShareQR)

	// History archive (per browser session, best effort)
	v1.POST("/session", h.CreateSession)
	me := v1.Group("/me")
	me.Use(middleware.Session(sessions))
	{
		me.GET("/games", h.MyGames)
		me.POST("/games", h.ArchiveGame)
	}
}
