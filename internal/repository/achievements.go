package repository

import (
	"context"
	"fmt"
	"spy-game/internal/domain"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

type AchievementRepository struct {
	db     *sqlx.DB
	logger zerolog.Logger
}

func NewAchievementRepository(db *sqlx.DB, logger zerolog.Logger) *AchievementRepository {
	return &AchievementRepository{db: db, logger: logger}
}

func (r *AchievementRepository) ListByPlayer(ctx context.Context, playerName string) ([]domain.AchievementRecord, error) {
	records := []domain.AchievementRecord{}
	err := r.db.SelectContext(ctx, &records, `
		SELECT player_name, achievement_id, date
		FROM achievements
		WHERE player_name = ?
		ORDER BY date ASC, achievement_id ASC`,
		playerName,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements for %s: %w", playerName, err)
	}
	return records, nil
}

// Grant inserts the pair unless it already exists and reports whether a row
// was written.
func (r *AchievementRepository) Grant(ctx context.Context, playerName string, id domain.AchievementID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO achievements (player_name, achievement_id, date)
		VALUES (?, ?, ?)`,
		playerName, string(id), time.Now().UTC(),
	)
	if err != nil {
		r.logger.Error().Err(err).Str("player_name", playerName).Str("achievement_id", string(id)).Msg("failed to grant achievement")
		return false, fmt.Errorf("failed to grant achievement %s to %s: %w", id, playerName, err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read grant result: %w", err)
	}

	if n > 0 {
		r.logger.Info().Str("player_name", playerName).Str("achievement_id", string(id)).Msg("achievement granted")
	}
	return n > 0, nil
}
