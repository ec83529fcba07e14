package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"goldlink/internal/domain"

	"github.com/jackc/pgx/v5/pgxpool"
)

type HistoryRepository struct {
	db *pgxpool.Pool
}

func NewHistoryRepository(db *pgxpool.Pool) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Create сохраняет завершённую игру в архив сессии. Повторная запись той же
// игры той же сессией молча игнорируется.
func (r *HistoryRepository) Create(ctx context.Context, sessionID string, cg *domain.CompletedGame) error {
	roundsJSON, err := json.Marshal(cg.Rounds)
	if err != nil {
		return fmt.Errorf("marshal rounds: %w", err)
	}

	_, err = r.db.Exec(ctx,
		`INSERT INTO game_archive
			(session_id, game_id, p1_name, p2_name, p1_gold, p2_gold, winner, rounds, started_at, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 ON CONFLICT (session_id, game_id) DO NOTHING`,
		sessionID,
		cg.GameID,
		cg.P1Name,
		cg.P2Name,
		cg.P1Gold,
		cg.P2Gold,
		cg.Winner,
		roundsJSON,
		cg.StartedAt,
		cg.FinishedAt,
	)

	return err
}

// ListBySession возвращает архив сессии, свежие игры первыми
func (r *HistoryRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]*domain.CompletedGame, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(ctx,
		`SELECT game_id, p1_name, p2_name, p1_gold, p2_gold, winner, rounds, started_at, finished_at
		 FROM game_archive
		 WHERE session_id = $1
		 ORDER BY finished_at DESC
		 LIMIT $2`,
		sessionID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []*domain.CompletedGame
	for rows.Next() {
		var (
			cg         domain.CompletedGame
			roundsJSON []byte
		)

		if err := rows.Scan(
			&cg.GameID, &cg.P1Name, &cg.P2Name, &cg.P1Gold, &cg.P2Gold,
			&cg.Winner, &roundsJSON, &cg.StartedAt, &cg.FinishedAt,
		); err != nil {
			return nil, err
		}

		if len(roundsJSON) > 0 {
			if err := json.Unmarshal(roundsJSON, &cg.Rounds); err != nil {
				return nil, fmt.Errorf("unmarshal rounds for game %s: %w", cg.GameID, err)
			}
		}

		result = append(result, &cg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}
