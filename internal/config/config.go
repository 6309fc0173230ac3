package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

const (
	StoreDriverSQLite = "sqlite"
	StoreDriverLocal  = "local"
)

type Config struct {
	ServerPort      string
	LogLevel        string
	StoreDriver     string
	DBPath          string
	LocalStorePath  string
	GeminiAPIKey    string
	GeminiModel     string
	GeminiBaseURL   string
	AdminPassphrase string
}

func Load(logger zerolog.Logger) (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logger.Debug().Msg(".env file not found, using environment variables or defaults")
	}

	cfg := &Config{
		ServerPort:      getEnv("SERVER_PORT", "8080"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		StoreDriver:     getEnv("STORE_DRIVER", StoreDriverSQLite),
		DBPath:          getEnv("DB_PATH", "spygame.db"),
		LocalStorePath:  getEnv("LOCAL_STORE_PATH", "spygame.json"),
		GeminiAPIKey:    getEnv("GEMINI_API_KEY", ""),
		GeminiModel:     getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiBaseURL:   getEnv("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/models"),
		AdminPassphrase: getEnv("ADMIN_PASSPHRASE", "owa12345"),
	}

	if cfg.StoreDriver != StoreDriverSQLite && cfg.StoreDriver != StoreDriverLocal {
		return nil, fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
	}

	if cfg.GeminiAPIKey == "" {
		logger.Warn().Msg("GEMINI_API_KEY not set, content generation disabled")
	}

	logger.Info().
		Str("server_port", cfg.ServerPort).
		Str("log_level", cfg.LogLevel).
		Str("store_driver", cfg.StoreDriver).
		Str("db_path", cfg.DBPath).
		Str("local_store_path", cfg.LocalStorePath).
		Str("gemini_model", cfg.GeminiModel).
		Msg("configuration loaded")

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

var Module = fx.Provide(Load)
