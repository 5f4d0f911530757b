package initializer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/amirasaad/spendsense/infra"
	infra_cache "github.com/amirasaad/spendsense/infra/cache"
	infra_repository "github.com/amirasaad/spendsense/infra/repository"
	"github.com/amirasaad/spendsense/infra/repository/memory"
	"github.com/amirasaad/spendsense/internal/fixtures/dataset"
	"github.com/amirasaad/spendsense/pkg/app"
	"github.com/amirasaad/spendsense/pkg/cache"
	"github.com/amirasaad/spendsense/pkg/config"
	"github.com/amirasaad/spendsense/pkg/domain"
	"github.com/amirasaad/spendsense/pkg/repository"
)

// InitializeDependencies builds the logger, store and cache described by cfg.
func InitializeDependencies(cfg *config.App) (
	deps *app.Deps,
	err error,
) {
	logger := setupLogger(cfg.Log)
	deps = &app.Deps{Logger: logger}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	deps.Store, err = initStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize store", "error", err)
		return nil, err
	}

	deps.Cache, err = initCache(ctx, cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize cache", "error", err)
		return nil, err
	}
	return deps, nil
}

func initStore(ctx context.Context, cfg *config.App, logger *slog.Logger) (repository.Store, error) {
	dbCfg := cfg.DB
	if dbCfg == nil {
		dbCfg = &config.DB{Driver: infra.DriverMemory}
	}

	if strings.EqualFold(dbCfg.Driver, infra.DriverMemory) {
		store := memory.New()
		if err := seed(ctx, store, logger); err != nil {
			return nil, err
		}
		return store, nil
	}

	db, err := infra.NewDBConnection(dbCfg, cfg.Env)
	if err != nil {
		return nil, err
	}
	if dbCfg.AutoMigrate {
		logger.Info("Running auto migration", "driver", dbCfg.Driver)
		if err := infra_repository.AutoMigrate(db); err != nil {
			return nil, fmt.Errorf("auto migrate: %w", err)
		}
	}
	store := infra_repository.New(db)
	if dbCfg.Seed {
		if err := seed(ctx, store, logger); err != nil {
			return nil, err
		}
	}
	return store, nil
}

// seed loads the demo dataset in one unit of work. A store that already
// holds it is left untouched.
func seed(ctx context.Context, uow repository.UnitOfWork, logger *slog.Logger) error {
	var sum *dataset.Summary
	err := uow.Do(ctx, func(tx repository.Tx) error {
		var err error
		sum, err = dataset.Load(ctx, tx, time.Now())
		return err
	})
	if errors.Is(err, domain.ErrAlreadyExists) {
		logger.Info("Skipping demo dataset; store already seeded")
		return nil
	}
	if err != nil {
		return fmt.Errorf("seed demo dataset: %w", err)
	}
	logger.Info("Loaded demo dataset",
		"users", sum.Users,
		"accounts", sum.Accounts,
		"transactions", sum.Transactions,
		"liabilities", sum.Liabilities,
	)
	return nil
}

func initCache(ctx context.Context, cfg *config.App, logger *slog.Logger) (cache.Store, error) {
	if cfg.Redis != nil && cfg.Redis.URL != "" {
		c, err := infra_cache.NewRedisCache(ctx, cfg.Redis, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to create Redis cache: %w", err)
		}
		return c, nil
	}
	logger.Info("Using in-memory cache")
	return infra_cache.NewMemoryCache(time.Minute), nil
}
