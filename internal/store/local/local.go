// Package local is the on-device store: every collection lives in a single
// JSON file that is read whole, mutated and written back.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"spy-game/internal/domain"
	"spy-game/internal/store"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const formatVersion = 1

// file is the persisted envelope. Collections are decoded independently so
// one corrupt collection does not take the others with it.
type file struct {
	Version      int             `json:"version"`
	Scores       json.RawMessage `json:"scores,omitempty"`
	History      json.RawMessage `json:"history,omitempty"`
	Achievements json.RawMessage `json:"achievements,omitempty"`
	Categories   json.RawMessage `json:"categories,omitempty"`
}

type data struct {
	Scores       []domain.ScoreRecord
	History      []domain.HistoryEntry
	Achievements []domain.AchievementRecord
	Categories   []domain.Category
}

type Store struct {
	path   string
	mu     sync.Mutex
	now    func() time.Time
	logger zerolog.Logger
}

var _ store.Store = (*Store)(nil)

func New(path string, logger zerolog.Logger) *Store {
	return &Store{path: path, now: time.Now, logger: logger}
}

func (s *Store) load() data {
	var d data

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return d
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("failed to read local store, treating as empty")
		return d
	}

	var f file
	if err := json.Unmarshal(raw, &f); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("local store is corrupt, treating as empty")
		return d
	}

	d.Scores = decodeCollection[domain.ScoreRecord](s.logger, "scores", f.Scores)
	d.History = decodeCollection[domain.HistoryEntry](s.logger, "history", f.History)
	d.Achievements = decodeCollection[domain.AchievementRecord](s.logger, "achievements", f.Achievements)
	d.Categories = decodeCollection[domain.Category](s.logger, "categories", f.Categories)

	return d
}

func decodeCollection[T any](logger zerolog.Logger, name string, msg json.RawMessage) []T {
	if len(msg) == 0 {
		return nil
	}
	var out []T
	if err := json.Unmarshal(msg, &out); err != nil {
		logger.Warn().Err(err).Str("collection", name).Msg("corrupt collection, treating as empty")
		return nil
	}
	return out
}

func (s *Store) save(d data) error {
	f := file{Version: formatVersion}
	var err error
	if f.Scores, err = json.Marshal(d.Scores); err != nil {
		return fmt.Errorf("failed to encode scores: %w", err)
	}
	if f.History, err = json.Marshal(d.History); err != nil {
		return fmt.Errorf("failed to encode history: %w", err)
	}
	if f.Achievements, err = json.Marshal(d.Achievements); err != nil {
		return fmt.Errorf("failed to encode achievements: %w", err)
	}
	if f.Categories, err = json.Marshal(d.Categories); err != nil {
		return fmt.Errorf("failed to encode categories: %w", err)
	}

	raw, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode local store: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".spygame-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write local store: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close local store: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("failed to replace local store: %w", err)
	}
	return nil
}

// update runs fn on the current contents and persists the result.
func (s *Store) update(fn func(d *data) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	d := s.load()
	if err := fn(&d); err != nil {
		return err
	}
	return s.save(d)
}

func (s *Store) read() data {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load()
}

func (s *Store) Scores(_ context.Context) ([]domain.ScoreRecord, error) {
	scores := s.read().Scores
	if scores == nil {
		scores = []domain.ScoreRecord{}
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].PlayerName < scores[j].PlayerName
	})
	return scores, nil
}

func (s *Store) AddScore(_ context.Context, playerName string, increment int) (int, error) {
	var total int
	err := s.update(func(d *data) error {
		for i := range d.Scores {
			if d.Scores[i].PlayerName == playerName {
				d.Scores[i].Score += increment
				total = d.Scores[i].Score
				return nil
			}
		}
		d.Scores = append(d.Scores, domain.ScoreRecord{PlayerName: playerName, Score: increment})
		total = increment
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Debug().Str("player_name", playerName).Int("increment", increment).Int("total", total).Msg("score updated")
	return total, nil
}

func (s *Store) ResetScores(_ context.Context) error {
	return s.update(func(d *data) error {
		d.Scores = nil
		return nil
	})
}

func (s *Store) History(_ context.Context) ([]domain.HistoryEntry, error) {
	history := s.read().History
	if history == nil {
		history = []domain.HistoryEntry{}
	}
	sort.SliceStable(history, func(i, j int) bool { return history[i].ID > history[j].ID })
	return history, nil
}

// AppendHistory assigns a millisecond timestamp id, bumped past the newest
// existing id so ids stay monotonic.
func (s *Store) AppendHistory(_ context.Context, entry domain.HistoryEntry) (int64, error) {
	err := s.update(func(d *data) error {
		id := s.now().UnixMilli()
		for _, h := range d.History {
			if h.ID >= id {
				id = h.ID + 1
			}
		}
		entry.ID = id
		if entry.Date.IsZero() {
			entry.Date = s.now()
		}
		d.History = append(d.History, entry)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return entry.ID, nil
}

func (s *Store) ResetHistory(_ context.Context) error {
	return s.update(func(d *data) error {
		d.History = nil
		return nil
	})
}

func (s *Store) Achievements(_ context.Context, playerName string) ([]domain.AchievementRecord, error) {
	out := []domain.AchievementRecord{}
	for _, a := range s.read().Achievements {
		if a.PlayerName == playerName {
			out = append(out, a)
		}
	}
	return out, nil
}

func (s *Store) GrantAchievement(_ context.Context, playerName string, id domain.AchievementID) (bool, error) {
	granted := false
	err := s.update(func(d *data) error {
		for _, a := range d.Achievements {
			if a.PlayerName == playerName && a.AchievementID == id {
				return nil
			}
		}
		d.Achievements = append(d.Achievements, domain.AchievementRecord{
			PlayerName:    playerName,
			AchievementID: id,
			Date:          s.now(),
		})
		granted = true
		return nil
	})
	return granted, err
}

func (s *Store) Categories(_ context.Context) ([]domain.Category, error) {
	categories := s.read().Categories
	if categories == nil {
		categories = []domain.Category{}
	}
	return categories, nil
}

// SaveCategory inserts category or replaces the one with the same name.
func (s *Store) SaveCategory(_ context.Context, category domain.Category) error {
	return s.update(func(d *data) error {
		if category.CreatedAt.IsZero() {
			category.CreatedAt = s.now()
		}
		for i := range d.Categories {
			if d.Categories[i].Name == category.Name {
				d.Categories[i] = category
				return nil
			}
		}
		d.Categories = append(d.Categories, category)
		return nil
	})
}

func (s *Store) DeleteCategory(_ context.Context, name string) error {
	return s.update(func(d *data) error {
		for i := range d.Categories {
			if d.Categories[i].Name == name {
				d.Categories = append(d.Categories[:i], d.Categories[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("category %q: %w", name, store.ErrNotFound)
	})
}
