package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"goldlink/internal/config"
	"goldlink/internal/db"
	httpServer "goldlink/internal/http"
	"goldlink/internal/http/middleware"
	"goldlink/internal/link"
	"goldlink/internal/logger"
	"goldlink/internal/repository"
	"goldlink/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
)

const version = "1.0.0"

func main() {
	cfg := config.Load()
	logger.Init(os.Getenv("LOG_LEVEL"), os.Getenv("LOG_JSON") == "true")

	codec := link.NewCodec(cfg.LinkSecret)
	transport, err := link.NewTransport(codec, cfg.BaseURL, cfg.MaxURLLen)
	if err != nil {
		logger.Fatal("invalid BASE_URL", "error", err)
	}

	// Optional infra: the game stays fully playable without either of these,
	// the URL token alone is authoritative.
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis unavailable, locks and rate limiting disabled", "error", err)
			rdb = nil
		}
		cancel()
	}
	middleware.SetRedis(rdb)
	locks := service.NewChoiceLocks(rdb)

	var historyRepo *repository.HistoryRepository
	if cfg.DatabaseURL != "" {
		pool, err := db.Connect(cfg.DatabaseURL)
		if err != nil {
			logger.Warn("database unavailable, history disabled", "error", err)
		} else {
			defer pool.Close()
			historyRepo = repository.NewHistoryRepository(pool)
		}
	}
	history := service.NewHistory(historyRepo)

	r := gin.Default()

	// CORS for production (frontend on different domain)
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin != "" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
			c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		}
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	httpServer.RegisterRoutes(r, cfg, transport, history, locks, version)

	srv := &http.Server{
		Addr:    ":" + cfg.AppPort,
		Handler: r,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "base_url", cfg.BaseURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
