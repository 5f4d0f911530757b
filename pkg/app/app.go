// Package app wires the analyzers, persona resolver, guardrail and trace
// builder into the insight service used by the HTTP and CLI entry points.
package app

import (
	"log/slog"
	"time"

	"github.com/amirasaad/spendsense/pkg/analysis"
	"github.com/amirasaad/spendsense/pkg/cache"
	"github.com/amirasaad/spendsense/pkg/config"
	"github.com/amirasaad/spendsense/pkg/guardrail"
	"github.com/amirasaad/spendsense/pkg/persona"
	"github.com/amirasaad/spendsense/pkg/repository"
	"github.com/amirasaad/spendsense/pkg/service/insight"
	"github.com/amirasaad/spendsense/pkg/trace"
)

// Deps contains the infrastructure the application runs on.
type Deps struct {
	Store  repository.Store
	Cache  cache.Store
	Logger *slog.Logger
	// Clock overrides time.Now for analysis windows and trace timestamps.
	Clock func() time.Time
}

type App struct {
	Deps           *Deps
	Config         *config.App
	Catalog        *persona.Catalog
	InsightService *insight.Service
}

func New(deps *Deps, cfg *config.App) *App {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	analysisCfg := config.DefaultAnalysis()
	var guardrailCfg *config.Guardrail
	if cfg != nil {
		if cfg.Analysis != nil {
			analysisCfg = cfg.Analysis
		}
		guardrailCfg = cfg.Guardrail
	}

	var suiteOpts []analysis.Option
	var traceOpts []trace.Option
	if deps.Clock != nil {
		suiteOpts = append(suiteOpts, analysis.WithClock(deps.Clock))
		traceOpts = append(traceOpts, trace.WithClock(deps.Clock))
	}

	suite := analysis.NewSuite(deps.Store, analysisCfg, logger, suiteOpts...)
	catalog := persona.NewCatalog(analysisCfg)
	checker := guardrail.NewChecker(deps.Store, suite.Credit, suite.Income, guardrailCfg, logger)

	return &App{
		Deps:    deps,
		Config:  cfg,
		Catalog: catalog,
		InsightService: insight.New(
			deps.Store,
			suite,
			persona.NewResolver(catalog, logger),
			checker,
			trace.NewBuilder(traceOpts...),
			logger,
		),
	}
}
