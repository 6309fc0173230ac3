package service

import (
	"context"
	"fmt"
	"spy-game/internal/constants"
	"spy-game/internal/domain"
	"spy-game/internal/stats"
	"spy-game/internal/store"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type Overview struct {
	Scores  []domain.ScoreRecord  `json:"scores"`
	History []domain.HistoryEntry `json:"history"`
	Stats   []stats.PlayerStats   `json:"stats"`
}

type StatsService struct {
	store  store.Store
	logger zerolog.Logger
}

func NewStatsService(st store.Store, logger zerolog.Logger) *StatsService {
	return &StatsService{store: st, logger: logger}
}

func (s *StatsService) Scores(ctx context.Context) ([]domain.ScoreRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	scores, err := s.store.Scores(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load scores")
		return nil, fmt.Errorf("failed to load scores: %w", err)
	}
	return scores, nil
}

func (s *StatsService) History(ctx context.Context) ([]domain.HistoryEntry, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	history, err := s.store.History(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load history")
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	return history, nil
}

// Stats returns per-player aggregates over the whole history log, best
// win rate first.
func (s *StatsService) Stats(ctx context.Context) ([]stats.PlayerStats, error) {
	history, err := s.History(ctx)
	if err != nil {
		return nil, err
	}
	return stats.Ranked(stats.Compute(history)), nil
}

// Overview loads scores and history concurrently.
func (s *StatsService) Overview(ctx context.Context) (*Overview, error) {
	var scores []domain.ScoreRecord
	var history []domain.HistoryEntry

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		scores, err = s.Scores(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		history, err = s.History(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Debug().Int("scores", len(scores)).Int("history", len(history)).Msg("overview loaded")
	return &Overview{
		Scores:  scores,
		History: history,
		Stats:   stats.Ranked(stats.Compute(history)),
	}, nil
}

func (s *StatsService) Achievements(ctx context.Context, playerName string) ([]domain.AchievementRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	records, err := s.store.Achievements(ctx, playerName)
	if err != nil {
		s.logger.Error().Err(err).Str("player_name", playerName).Msg("failed to load achievements")
		return nil, fmt.Errorf("failed to load achievements: %w", err)
	}
	return records, nil
}

func (s *StatsService) ResetScores(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if err := s.store.ResetScores(ctx); err != nil {
		return fmt.Errorf("failed to reset scores: %w", err)
	}
	s.logger.Info().Msg("scores reset")
	return nil
}

func (s *StatsService) ResetHistory(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	if err := s.store.ResetHistory(ctx); err != nil {
		return fmt.Errorf("failed to reset history: %w", err)
	}
	s.logger.Info().Msg("history reset")
	return nil
}
