package service

import (
	"context"
	"errors"
	"fmt"
	"spy-game/internal/api"
	"spy-game/internal/constants"
	"spy-game/internal/domain"
	"spy-game/internal/store"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

var (
	ErrUnknownCategory  = errors.New("unknown category")
	ErrGenerationFailed = errors.New("word generation failed")
)

const (
	CategoryEasy         = "easy"
	CategoryHard         = "hard"
	customCategoryPrefix = "custom:"
)

var builtinCategories = []CategoryInfo{
	{
		Key:        CategoryEasy,
		Name:       "Default - Easy",
		Difficulty: domain.DifficultyEasy,
		BuiltIn:    true,
		Words: []string{
			"Airport", "Hospital", "School", "Bank", "Restaurant", "Beach",
			"Supermarket", "Cinema", "Library", "Park", "Zoo", "Hotel",
			"Police Station", "Bakery", "Train Station", "Swimming Pool",
			"Museum", "Gym", "Pharmacy", "Stadium", "Bus", "Mosque",
			"Hair Salon", "Gas Station", "Post Office",
		},
	},
	{
		Key:        CategoryHard,
		Name:       "Default - Hard",
		Difficulty: domain.DifficultyHard,
		BuiltIn:    true,
		Words: []string{
			"Space Station", "Submarine", "Oil Rig", "Observatory",
			"Nuclear Plant", "Embassy", "Polar Research Base", "Vineyard",
			"Recording Studio", "Courtroom", "Casino", "Lighthouse",
			"Film Set", "Archaeological Dig", "Data Center", "Mint",
			"Air Traffic Control Tower", "Operating Theater", "Monastery",
			"Stock Exchange", "Circus", "Shipyard", "Wind Farm",
			"Auction House", "Crime Lab",
		},
	},
}

// CategoryInfo is a word list selectable in setup.
type CategoryInfo struct {
	Key        string            `json:"key"`
	Name       string            `json:"name"`
	Difficulty domain.Difficulty `json:"difficulty"`
	Words      []string          `json:"words"`
	BuiltIn    bool              `json:"built_in"`
	CreatedAt  time.Time         `json:"created_at,omitempty"`
}

func CustomCategoryKey(name string) string {
	return customCategoryPrefix + name
}

type CategoryService struct {
	store     store.Store
	generator api.Generator
	now       func() time.Time
	logger    zerolog.Logger
}

func NewCategoryService(st store.Store, generator api.Generator, logger zerolog.Logger) *CategoryService {
	return &CategoryService{store: st, generator: generator, now: time.Now, logger: logger}
}

// List returns the built-in categories followed by saved custom ones.
func (s *CategoryService) List(ctx context.Context) ([]CategoryInfo, error) {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	custom, err := s.store.Categories(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load custom categories")
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}

	out := make([]CategoryInfo, 0, len(builtinCategories)+len(custom))
	out = append(out, builtinCategories...)
	for _, c := range custom {
		out = append(out, CategoryInfo{
			Key:        CustomCategoryKey(c.Name),
			Name:       c.Name,
			Difficulty: c.Difficulty,
			Words:      c.Words,
			CreatedAt:  c.CreatedAt,
		})
	}
	return out, nil
}

// Words resolves a category key to its word list.
func (s *CategoryService) Words(ctx context.Context, key string) ([]string, error) {
	info, err := s.Resolve(ctx, key)
	if err != nil {
		return nil, err
	}
	return info.Words, nil
}

// Resolve looks a category up by key. Custom categories saved without a
// difficulty count as EASY.
func (s *CategoryService) Resolve(ctx context.Context, key string) (*CategoryInfo, error) {
	for _, c := range builtinCategories {
		if c.Key == key {
			info := c
			return &info, nil
		}
	}

	name, ok := strings.CutPrefix(key, customCategoryPrefix)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, key)
	}

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	custom, err := s.store.Categories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load categories: %w", err)
	}
	for _, c := range custom {
		if c.Name != name {
			continue
		}
		difficulty := c.Difficulty
		if !difficulty.Valid() {
			difficulty = domain.DifficultyEasy
		}
		return &CategoryInfo{
			Key:        key,
			Name:       c.Name,
			Difficulty: difficulty,
			Words:      c.Words,
			CreatedAt:  c.CreatedAt,
		}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, key)
}

// Generate asks the generator for a fresh word list and saves it as a
// custom category. Nothing is stored when generation fails.
func (s *CategoryService) Generate(ctx context.Context, difficulty domain.Difficulty) (*CategoryInfo, error) {
	if !difficulty.Valid() {
		difficulty = domain.DifficultyEasy
	}

	genCtx, cancel := context.WithTimeout(ctx, constants.GenerationTimeout)
	defer cancel()

	words, err := s.generator.GenerateWords(genCtx, difficulty)
	if err != nil {
		s.logger.Warn().Err(err).Str("difficulty", string(difficulty)).Msg("word generation failed")
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	now := s.now()
	label := "Easy"
	if difficulty == domain.DifficultyHard {
		label = "Hard"
	}
	category := domain.Category{
		Name:       fmt.Sprintf("AI - %s (%s)", label, now.Format("15:04:05")),
		Difficulty: difficulty,
		Words:      words,
		CreatedAt:  now,
	}

	dbCtx, dbCancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer dbCancel()

	if err := s.store.SaveCategory(dbCtx, category); err != nil {
		s.logger.Error().Err(err).Str("category", category.Name).Msg("failed to save category")
		return nil, fmt.Errorf("failed to save category: %w", err)
	}

	s.logger.Info().Str("category", category.Name).Int("words", len(words)).Msg("category generated")
	return &CategoryInfo{
		Key:        CustomCategoryKey(category.Name),
		Name:       category.Name,
		Difficulty: category.Difficulty,
		Words:      category.Words,
		CreatedAt:  category.CreatedAt,
	}, nil
}

func (s *CategoryService) Delete(ctx context.Context, name string) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	name = strings.TrimPrefix(name, customCategoryPrefix)
	if err := s.store.DeleteCategory(ctx, name); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("%w: %q", ErrUnknownCategory, name)
		}
		return fmt.Errorf("failed to delete category: %w", err)
	}
	s.logger.Info().Str("category", name).Msg("category deleted")
	return nil
}
