package service

import (
	"context"

	"goldlink/internal/domain"
	"goldlink/internal/logger"
	"goldlink/internal/repository"
)

// History archives completed games per browser session. Storage is a
// convenience cache: when it is unavailable the service degrades to no-ops
// so the URL token alone keeps the game playable.
type History struct {
	repo *repository.HistoryRepository
}

// NewHistory accepts a nil repository, which puts the service into no-op
// mode.
func NewHistory(repo *repository.HistoryRepository) *History {
	if repo == nil {
		logger.Warn("history storage unavailable, archive disabled")
	}
	return &History{repo: repo}
}

func (h *History) Enabled() bool {
	return h.repo != nil
}

// Archive stores a completed game for a session.
func (h *History) Archive(ctx context.Context, sessionID string, cg *domain.CompletedGame) error {
	if h.repo == nil {
		return nil
	}
	return h.repo.Create(ctx, sessionID, cg)
}

// List returns a session's archive, newest first.
func (h *History) List(ctx context.Context, sessionID string, limit int) ([]*domain.CompletedGame, error) {
	if h.repo == nil {
		return nil, nil
	}
	return h.repo.ListBySession(ctx, sessionID, limit)
}
