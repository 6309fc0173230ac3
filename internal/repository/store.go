package repository

import (
	"context"
	"spy-game/internal/domain"
	"spy-game/internal/store"
)

// Store is the SQLite-backed store.Store.
type Store struct {
	scores       *ScoreRepository
	history      *HistoryRepository
	achievements *AchievementRepository
	categories   *CategoryRepository
}

var _ store.Store = (*Store)(nil)

func NewStore(scores *ScoreRepository, history *HistoryRepository, achievements *AchievementRepository, categories *CategoryRepository) *Store {
	return &Store{scores: scores, history: history, achievements: achievements, categories: categories}
}

func (s *Store) Scores(ctx context.Context) ([]domain.ScoreRecord, error) {
	return s.scores.List(ctx)
}

func (s *Store) AddScore(ctx context.Context, playerName string, increment int) (int, error) {
	return s.scores.Add(ctx, playerName, increment)
}

func (s *Store) ResetScores(ctx context.Context) error {
	return s.scores.Reset(ctx)
}

func (s *Store) History(ctx context.Context) ([]domain.HistoryEntry, error) {
	return s.history.List(ctx)
}

func (s *Store) AppendHistory(ctx context.Context, entry domain.HistoryEntry) (int64, error) {
	return s.history.Append(ctx, entry)
}

func (s *Store) ResetHistory(ctx context.Context) error {
	return s.history.Reset(ctx)
}

func (s *Store) Achievements(ctx context.Context, playerName string) ([]domain.AchievementRecord, error) {
	return s.achievements.ListByPlayer(ctx, playerName)
}

func (s *Store) GrantAchievement(ctx context.Context, playerName string, id domain.AchievementID) (bool, error) {
	return s.achievements.Grant(ctx, playerName, id)
}

func (s *Store) Categories(ctx context.Context) ([]domain.Category, error) {
	return s.categories.List(ctx)
}

func (s *Store) SaveCategory(ctx context.Context, category domain.Category) error {
	return s.categories.Upsert(ctx, category)
}

func (s *Store) DeleteCategory(ctx context.Context, name string) error {
	return s.categories.Delete(ctx, name)
}
