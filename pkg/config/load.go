package config

import (
	"fmt"
	"log/slog"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Load reads the first environment file found among envFilePath (searched
// upwards from the working directory) and then processes the environment.
func Load(envFilePath ...string) (*App, error) {
	logger := slog.Default()
	logger.Info("Loading environment variables")

	if len(envFilePath) == 0 {
		logger.Debug("No environment file specified, trying default .env")
		if err := godotenv.Load(); err != nil {
			logger.Warn("No .env file found in current directory")
		}
		return loadFromEnv()
	}

	for _, path := range envFilePath {
		foundPath, err := FindEnvFile(path)
		if err != nil {
			logger.Debug("Environment file not found", "path", path, "error", err)
			continue
		}

		logger.Info("Loading environment from file", "path", foundPath)
		if err := godotenv.Load(foundPath); err != nil {
			logger.Error("Failed to load environment file", "path", foundPath, "error", err)
			continue
		}
		return loadFromEnv()
	}

	logger.Info("No valid environment files found, using process environment")
	return loadFromEnv()
}

func loadFromEnv() (*App, error) {
	var cfg App
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	slog.Default().Info("App config loaded",
		"env", cfg.Env,
		"db_driver", cfg.DB.Driver,
		"db", maskValue(cfg.DB.Url),
		"redis", maskValue(cfg.Redis.URL),
		"rate_limit_max_requests", cfg.RateLimit.MaxRequests,
		"rate_limit_window", cfg.RateLimit.Window,
		"short_window_days", cfg.Analysis.ShortWindowDays,
		"long_window_days", cfg.Analysis.LongWindowDays,
		"jwt_enabled", cfg.Auth.Jwt.Secret != "",
	)
	return &cfg, nil
}

// Validate rejects configurations the analyzers cannot run with.
func (a *App) Validate() error {
	if a.Analysis == nil {
		return fmt.Errorf("analysis config is missing")
	}
	return a.Analysis.Validate()
}

// Validate rejects non-positive windows and inverted window lengths.
func (a *Analysis) Validate() error {
	if a.ShortWindowDays <= 0 || a.LongWindowDays <= 0 || a.SubscriptionLookbackDays <= 0 {
		return fmt.Errorf("analysis windows must be positive: short=%d long=%d lookback=%d",
			a.ShortWindowDays, a.LongWindowDays, a.SubscriptionLookbackDays)
	}
	if a.ShortWindowDays > a.LongWindowDays {
		return fmt.Errorf("short window (%d) must not exceed long window (%d)",
			a.ShortWindowDays, a.LongWindowDays)
	}
	if a.MinRecurringOccurrences < 2 {
		return fmt.Errorf("min recurring occurrences must be at least 2, got %d", a.MinRecurringOccurrences)
	}
	return nil
}

func maskValue(key string) string {
	if key == "" {
		return ""
	}
	if len(key) <= 6 {
		return "****"
	}
	return key[:2] + "****" + key[len(key)-4:]
}
