// Package store defines the persistence capability the game records
// scores, history, achievements and custom categories through. One
// implementation is chosen at startup and used for the whole process.
package store

import (
	"context"
	"errors"
	"spy-game/internal/domain"
)

var ErrNotFound = errors.New("not found")

type Store interface {
	// Scores returns every score record, highest first.
	Scores(ctx context.Context) ([]domain.ScoreRecord, error)
	// AddScore adds increment to a player's score, creating the record on
	// first use, and returns the new total.
	AddScore(ctx context.Context, playerName string, increment int) (int, error)
	ResetScores(ctx context.Context) error

	// History returns every recorded round, newest first.
	History(ctx context.Context) ([]domain.HistoryEntry, error)
	// AppendHistory stores entry and returns its assigned id.
	AppendHistory(ctx context.Context, entry domain.HistoryEntry) (int64, error)
	ResetHistory(ctx context.Context) error

	Achievements(ctx context.Context, playerName string) ([]domain.AchievementRecord, error)
	// GrantAchievement is a no-op when the player already holds id; the
	// returned bool reports whether a new record was written.
	GrantAchievement(ctx context.Context, playerName string, id domain.AchievementID) (bool, error)

	Categories(ctx context.Context) ([]domain.Category, error)
	SaveCategory(ctx context.Context, category domain.Category) error
	DeleteCategory(ctx context.Context, name string) error
}
