package fx

import (
	"context"
	"spy-game/internal/api"
	"spy-game/internal/config"
	"spy-game/internal/database"
	"spy-game/internal/events"
	"spy-game/internal/logger"
	"spy-game/internal/repository"
	"spy-game/internal/server"
	"spy-game/internal/service"
	"spy-game/internal/store"
	"spy-game/internal/store/local"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

// ProvideStore picks the persistence strategy named by STORE_DRIVER. The
// choice holds for the life of the process.
func ProvideStore(lc fx.Lifecycle, cfg *config.Config, logger zerolog.Logger) (store.Store, error) {
	if cfg.StoreDriver == config.StoreDriverLocal {
		logger.Info().Str("path", cfg.LocalStorePath).Msg("using local file store")
		return local.New(cfg.LocalStorePath, logger), nil
	}

	db, err := database.New(cfg.DBPath, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			if err := db.Close(); err != nil {
				logger.Warn().Err(err).Msg("error closing database connection")
				return err
			}
			return nil
		},
	})

	return repository.NewStore(
		repository.NewScoreRepository(db, logger),
		repository.NewHistoryRepository(db, logger),
		repository.NewAchievementRepository(db, logger),
		repository.NewCategoryRepository(db, logger),
	), nil
}

// ProvideGameService stops session timers before the server goes away.
func ProvideGameService(
	lc fx.Lifecycle,
	categories *service.CategoryService,
	results *service.ResultService,
	generator api.Generator,
	hub *events.Hub,
	cfg *config.Config,
	logger zerolog.Logger,
) *service.GameService {
	svc := service.NewGameService(categories, results, generator, hub, cfg, logger)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			svc.Close()
			return nil
		},
	})
	return svc
}

func ProvideEventsHandler(hub *events.Hub, games *service.GameService, logger zerolog.Logger) *events.Handler {
	return events.NewHandler(hub, games, logger)
}

var Module = fx.Options(
	logger.Module,
	config.Module,
	fx.Provide(ProvideStore),
	// generation client
	fx.Provide(api.NewGenerator),
	// events
	fx.Provide(events.NewHub),
	fx.Provide(ProvideEventsHandler),
	// svc
	fx.Provide(service.NewResultService),
	fx.Provide(service.NewStatsService),
	fx.Provide(service.NewCategoryService),
	fx.Provide(ProvideGameService),
	// server
	fx.Provide(server.NewSpyGameServer),
)
