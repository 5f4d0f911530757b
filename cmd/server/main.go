package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/amirasaad/spendsense/infra/initializer"
	"github.com/amirasaad/spendsense/pkg/app"
	"github.com/amirasaad/spendsense/pkg/config"
	"github.com/amirasaad/spendsense/webapi"
	log "github.com/charmbracelet/log"
)

// @title SpendSense API
// @version 1.0.0
// @description Behavioral personas and guardrailed offer recommendations
// @host localhost:3000
// @BasePath /
//
// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description "Enter your Bearer token in the format: `Bearer {token}`"
func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("failed to load application configuration: %w", err)
	}

	deps, err := initializer.InitializeDependencies(cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize dependencies: %w", err)
	}
	logger := deps.Logger
	defer func() {
		if err := deps.Cache.Close(); err != nil {
			logger.Warn("Failed to close cache", "error", err)
		}
	}()

	fiberApp := webapi.SetupApp(app.New(deps, cfg))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		logger.Info("Shutting down server")
		if err := fiberApp.ShutdownWithTimeout(10 * time.Second); err != nil {
			logger.Error("Server shutdown failed", "error", err)
		}
	}()

	addr := listenAddr(cfg.Server)
	logger.Info("Starting server",
		"env", cfg.Env,
		"address", addr,
		"scheme", schemeOf(cfg.Server),
		"db_driver", cfg.DB.Driver,
		"jwt_enabled", cfg.Auth.Jwt.Secret != "",
	)
	return fiberApp.Listen(addr)
}

func listenAddr(s *config.Server) string {
	if s == nil {
		return "localhost:3000"
	}
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

func schemeOf(s *config.Server) string {
	if s == nil || s.Scheme == "" {
		return "http"
	}
	return s.Scheme
}
