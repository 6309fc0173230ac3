package repository

import (
	"context"
	"fmt"
	"spy-game/internal/domain"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

type ScoreRepository struct {
	db     *sqlx.DB
	logger zerolog.Logger
}

func NewScoreRepository(db *sqlx.DB, logger zerolog.Logger) *ScoreRepository {
	return &ScoreRepository{db: db, logger: logger}
}

func (r *ScoreRepository) List(ctx context.Context) ([]domain.ScoreRecord, error) {
	scores := []domain.ScoreRecord{}
	err := r.db.SelectContext(ctx, &scores, `SELECT player_name, score FROM scores ORDER BY score DESC, player_name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list scores: %w", err)
	}
	return scores, nil
}

func (r *ScoreRepository) Add(ctx context.Context, playerName string, increment int) (int, error) {
	var total int
	err := r.db.QueryRowxContext(ctx, `
		INSERT INTO scores (player_name, score)
		VALUES (?, ?)
		ON CONFLICT(player_name) DO UPDATE SET score = score + excluded.score
		RETURNING score`,
		playerName, increment,
	).Scan(&total)
	if err != nil {
		r.logger.Error().Err(err).Str("player_name", playerName).Msg("failed to upsert score")
		return 0, fmt.Errorf("failed to upsert score for %s: %w", playerName, err)
	}

	r.logger.Debug().
		Str("player_name", playerName).
		Int("increment", increment).
		Int("total", total).
		Msg("score updated")
	return total, nil
}

func (r *ScoreRepository) Reset(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM scores`); err != nil {
		return fmt.Errorf("failed to reset scores: %w", err)
	}
	r.logger.Info().Msg("scores reset")
	return nil
}
