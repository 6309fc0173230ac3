package service

import (
	"context"
	"fmt"
	"sort"
	"spy-game/internal/constants"
	"spy-game/internal/domain"
	"spy-game/internal/game"
	"spy-game/internal/scoring"
	"spy-game/internal/store"
	"time"

	"github.com/rs/zerolog"
)

// RoundResult is what settling a round wrote to the store.
type RoundResult struct {
	HistoryID       int64                             `json:"history_id"`
	Winner          domain.Winner                     `json:"winner"`
	ScoreDeltas     map[string]int                    `json:"score_deltas"`
	Totals          map[string]int                    `json:"totals"`
	NewAchievements map[string][]domain.AchievementID `json:"new_achievements"`
}

type ResultService struct {
	store  store.Store
	now    func() time.Time
	logger zerolog.Logger
}

func NewResultService(st store.Store, logger zerolog.Logger) *ResultService {
	return &ResultService{store: st, now: time.Now, logger: logger}
}

// Apply settles outcome and persists score increments, achievement grants
// and a history entry, in that order. Every player in the snapshot carries
// the points they earned this round. On failure the partial result is
// returned with the error and can be handed to Resume.
func (s *ResultService) Apply(ctx context.Context, outcome *game.Outcome) (*RoundResult, error) {
	return s.Resume(ctx, outcome, nil)
}

// Resume finishes settling outcome after an earlier attempt stopped at
// prior. Scores already in prior.Totals are not added again and a recorded
// history entry is not written twice. Grants are idempotent in the store.
func (s *ResultService) Resume(ctx context.Context, outcome *game.Outcome, prior *RoundResult) (*RoundResult, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	settlement := scoring.Settle(outcome.Players, outcome.Winner, outcome.SpecialRoles)

	result := &RoundResult{
		Winner:          outcome.Winner,
		ScoreDeltas:     settlement.ScoreDeltas,
		Totals:          make(map[string]int, len(settlement.ScoreDeltas)),
		NewAchievements: make(map[string][]domain.AchievementID),
	}
	if prior != nil {
		result.HistoryID = prior.HistoryID
		for name, total := range prior.Totals {
			result.Totals[name] = total
		}
		for name, ids := range prior.NewAchievements {
			result.NewAchievements[name] = append([]domain.AchievementID(nil), ids...)
		}
	}

	for _, name := range sortedKeys(settlement.ScoreDeltas) {
		if _, done := result.Totals[name]; done {
			continue
		}
		total, err := s.store.AddScore(ctx, name, settlement.ScoreDeltas[name])
		if err != nil {
			s.logger.Error().Err(err).Str("player_name", name).Msg("failed to add score")
			return result, fmt.Errorf("failed to add score for %s: %w", name, err)
		}
		result.Totals[name] = total
	}

	for _, name := range sortedKeys(settlement.Grants) {
		for _, id := range settlement.Grants[name] {
			granted, err := s.store.GrantAchievement(ctx, name, id)
			if err != nil {
				s.logger.Error().Err(err).Str("player_name", name).Str("achievement_id", string(id)).Msg("failed to grant achievement")
				return result, fmt.Errorf("failed to grant %s to %s: %w", id, name, err)
			}
			if granted {
				result.NewAchievements[name] = append(result.NewAchievements[name], id)
			}
		}
	}

	if result.HistoryID != 0 {
		return result, nil
	}

	players := make([]domain.Player, len(outcome.Players))
	for i, p := range outcome.Players {
		p.Score = settlement.ScoreDeltas[p.Name]
		players[i] = p
	}

	id, err := s.store.AppendHistory(ctx, domain.HistoryEntry{
		Date:         s.now(),
		Players:      players,
		SpyCount:     outcome.SpyCount,
		Winner:       outcome.Winner,
		Difficulty:   string(outcome.Difficulty),
		Word:         outcome.Word,
		SpecialRoles: outcome.SpecialRoles,
	})
	if err != nil {
		s.logger.Error().Err(err).Int("round", outcome.Round).Msg("failed to append history")
		return result, fmt.Errorf("failed to append history: %w", err)
	}
	result.HistoryID = id

	s.logger.Info().
		Int64("history_id", id).
		Str("winner", string(outcome.Winner)).
		Int("winners", len(settlement.ScoreDeltas)).
		Msg("round settled")
	return result, nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
