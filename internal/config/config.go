package config

import (
	"os"
	"strconv"

	"goldlink/internal/logger"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort    string
	BaseURL    string // public origin the share links point at
	LinkSecret string
	JWTSecret  string

	// Optional infra: empty values disable the feature instead of failing startup
	DatabaseURL   string
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Transport limits
	MaxURLLen int

	// API rate limiting
	APIRateLimit  int
	APIRateWindow int
}

// Загрузка конфига из env
func Load() *Config {
	_ = godotenv.Load()

	linkSecret := os.Getenv("LINK_SECRET")
	if linkSecret == "" {
		logger.Fatal("LINK_SECRET is not set")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Fatal("JWT_SECRET is not set")
	}

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	baseURL := os.Getenv("BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:" + port
	}

	redisDB := 0
	if v := os.Getenv("REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			redisDB = n
		}
	}

	// Бюджет ссылки (по умолчанию консервативный кросс-браузерный лимит)
	maxURLLen := 1900
	if v := os.Getenv("MAX_URL_LEN"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			maxURLLen = n
		}
	}

	apiRateLimit := 60
	if v := os.Getenv("API_RATE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			apiRateLimit = n
		}
	}

	apiRateWindow := 60 // секунд
	if v := os.Getenv("API_RATE_WINDOW_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			apiRateWindow = n
		}
	}

	return &Config{
		AppPort:       port,
		BaseURL:       baseURL,
		LinkSecret:    linkSecret,
		JWTSecret:     jwtSecret,
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       redisDB,
		MaxURLLen:     maxURLLen,
		APIRateLimit:  apiRateLimit,
		APIRateWindow: apiRateWindow,
	}
}
