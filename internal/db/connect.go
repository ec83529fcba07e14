package db

import (
	"context"

	"goldlink/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Connect opens the archive pool. The database is optional infrastructure
// here, so failures are returned to the caller instead of aborting startup.
func Connect(dsn string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, err
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, err
	}

	logger.Info("database connected")
	return pool, nil
}
