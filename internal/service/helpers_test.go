package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	"github.com/rs/zerolog"

	"spy-game/internal/domain"
	"spy-game/internal/store"
	"spy-game/internal/store/local"
)

var errBoom = errors.New("boom")

func newLocalStore() *local.Store {
	return local.New(filepath.Join(GinkgoT().TempDir(), "spygame.json"), zerolog.Nop())
}

type fakeGenerator struct {
	mu       sync.Mutex
	words    []string
	zones    []domain.MapZone
	wordsErr error
	zonesErr error
	calls    int
}

func (f *fakeGenerator) GenerateWords(_ context.Context, _ domain.Difficulty) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.wordsErr != nil {
		return nil, f.wordsErr
	}
	return f.words, nil
}

func (f *fakeGenerator) GenerateMapZones(_ context.Context, _ string) ([]domain.MapZone, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.zonesErr != nil {
		return nil, f.zonesErr
	}
	return f.zones, nil
}

// brokenHistoryStore fails every history write.
type brokenHistoryStore struct {
	store.Store
}

func (brokenHistoryStore) AppendHistory(context.Context, domain.HistoryEntry) (int64, error) {
	return 0, errBoom
}

// stallingGenerator blocks map generation until its context ends.
type stallingGenerator struct {
	once    sync.Once
	started chan struct{}
}

func (g *stallingGenerator) GenerateWords(context.Context, domain.Difficulty) ([]string, error) {
	return nil, errBoom
}

func (g *stallingGenerator) GenerateMapZones(ctx context.Context, _ string) ([]domain.MapZone, error) {
	g.once.Do(func() { close(g.started) })
	<-ctx.Done()
	return nil, ctx.Err()
}

// flakyHistoryStore fails the next failures history writes.
type flakyHistoryStore struct {
	store.Store
	mu       sync.Mutex
	failures int
}

func (f *flakyHistoryStore) AppendHistory(ctx context.Context, entry domain.HistoryEntry) (int64, error) {
	f.mu.Lock()
	if f.failures > 0 {
		f.failures--
		f.mu.Unlock()
		return 0, errBoom
	}
	f.mu.Unlock()
	return f.Store.AppendHistory(ctx, entry)
}

// brokenScoresStore fails every score read.
type brokenScoresStore struct {
	store.Store
}

func (brokenScoresStore) Scores(context.Context) ([]domain.ScoreRecord, error) {
	return nil, errBoom
}
