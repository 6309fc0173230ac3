package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"spy-game/internal/domain"
	"spy-game/internal/store"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
)

type categoryRow struct {
	Name       string    `db:"name"`
	Difficulty string    `db:"difficulty"`
	Words      string    `db:"words"`
	CreatedAt  time.Time `db:"created_at"`
}

type CategoryRepository struct {
	db     *sqlx.DB
	logger zerolog.Logger
}

func NewCategoryRepository(db *sqlx.DB, logger zerolog.Logger) *CategoryRepository {
	return &CategoryRepository{db: db, logger: logger}
}

func (r *CategoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	var rows []categoryRow
	err := r.db.SelectContext(ctx, &rows, `
		SELECT name, difficulty, words, created_at
		FROM custom_categories
		ORDER BY created_at ASC, name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}

	categories := make([]domain.Category, 0, len(rows))
	for _, row := range rows {
		var words []string
		if err := json.Unmarshal([]byte(row.Words), &words); err != nil {
			r.logger.Warn().Err(err).Str("category", row.Name).Msg("skipping corrupt category")
			continue
		}
		categories = append(categories, domain.Category{
			Name:       row.Name,
			Difficulty: domain.Difficulty(row.Difficulty),
			Words:      words,
			CreatedAt:  row.CreatedAt,
		})
	}
	return categories, nil
}

func (r *CategoryRepository) Upsert(ctx context.Context, category domain.Category) error {
	words, err := json.Marshal(category.Words)
	if err != nil {
		return fmt.Errorf("failed to encode words: %w", err)
	}
	if category.CreatedAt.IsZero() {
		category.CreatedAt = time.Now()
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO custom_categories (name, difficulty, words, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET difficulty = excluded.difficulty, words = excluded.words`,
		category.Name, string(category.Difficulty), string(words), category.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to save category %s: %w", category.Name, err)
	}

	r.logger.Info().Str("category", category.Name).Int("words", len(category.Words)).Msg("category saved")
	return nil
}

func (r *CategoryRepository) Delete(ctx context.Context, name string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM custom_categories WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("failed to delete category %s: %w", name, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("category %q: %w", name, store.ErrNotFound)
	}
	return nil
}
