package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"spy-game/internal/domain"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

const historySchemaVersion = 1

// playersColumn and specialRolesColumn are the JSON documents stored in the
// history table's text columns.
type playersColumn struct {
	Version int             `json:"version"`
	Players []domain.Player `json:"players"`
}

type specialRolesColumn struct {
	Version int `json:"version"`
	domain.SpecialRoles
}

type historyRow struct {
	ID           int64     `db:"id"`
	Date         time.Time `db:"date"`
	Players      string    `db:"players"`
	SpyCount     int       `db:"spy_count"`
	Winner       string    `db:"winner"`
	Difficulty   string    `db:"difficulty"`
	Word         string    `db:"word"`
	SpecialRoles string    `db:"special_roles"`
}

type HistoryRepository struct {
	db     *sqlx.DB
	logger zerolog.Logger
}

func NewHistoryRepository(db *sqlx.DB, logger zerolog.Logger) *HistoryRepository {
	return &HistoryRepository{db: db, logger: logger}
}

// List returns every decodable entry, newest first. Rows whose JSON columns
// cannot be decoded are skipped.
func (r *HistoryRepository) List(ctx context.Context) ([]domain.HistoryEntry, error) {
	var rows []historyRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT id, date, players, spy_count, winner, difficulty, word, special_roles
		FROM history
		ORDER BY id DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list history: %w", err)
	}

	entries := make([]domain.HistoryEntry, 0, len(rows))
	for _, row := range rows {
		entry, err := decodeHistoryRow(row)
		if err != nil {
			r.logger.Warn().Err(err).Int64("history_id", row.ID).Msg("skipping corrupt history entry")
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

func decodeHistoryRow(row historyRow) (domain.HistoryEntry, error) {
	var players playersColumn
	if err := json.Unmarshal([]byte(row.Players), &players); err != nil {
		return domain.HistoryEntry{}, fmt.Errorf("failed to decode players: %w", err)
	}
	var roles specialRolesColumn
	if err := json.Unmarshal([]byte(row.SpecialRoles), &roles); err != nil {
		return domain.HistoryEntry{}, fmt.Errorf("failed to decode special roles: %w", err)
	}

	return domain.HistoryEntry{
		ID:           row.ID,
		Date:         row.Date,
		Players:      players.Players,
		SpyCount:     row.SpyCount,
		Winner:       domain.Winner(row.Winner),
		Difficulty:   row.Difficulty,
		Word:         row.Word,
		SpecialRoles: roles.SpecialRoles,
	}, nil
}

func (r *HistoryRepository) Append(ctx context.Context, entry domain.HistoryEntry) (int64, error) {
	players, err := json.Marshal(playersColumn{Version: historySchemaVersion, Players: entry.Players})
	if err != nil {
		return 0, fmt.Errorf("failed to encode players: %w", err)
	}
	roles, err := json.Marshal(specialRolesColumn{Version: historySchemaVersion, SpecialRoles: entry.SpecialRoles})
	if err != nil {
		return 0, fmt.Errorf("failed to encode special roles: %w", err)
	}
	if entry.Date.IsZero() {
		entry.Date = time.Now()
	}

	res, err := r.db.ExecContext(ctx, `
		INSERT INTO history (date, players, spy_count, winner, difficulty, word, special_roles)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.Date.UTC(), string(players), entry.SpyCount, string(entry.Winner), entry.Difficulty, entry.Word, string(roles),
	)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to append history")
		return 0, fmt.Errorf("failed to append history: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read history id: %w", err)
	}

	r.logger.Info().
		Int64("history_id", id).
		Str("winner", string(entry.Winner)).
		Int("players", len(entry.Players)).
		Msg("history entry appended")
	return id, nil
}

func (r *HistoryRepository) Reset(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM history`); err != nil {
		return fmt.Errorf("failed to reset history: %w", err)
	}
	r.logger.Info().Msg("history reset")
	return nil
}
