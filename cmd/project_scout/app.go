package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/project-scout/internal/config"
	"github.com/jonathan/project-scout/internal/db"
	"github.com/jonathan/project-scout/internal/dedup"
	"github.com/jonathan/project-scout/internal/fetch"
	"github.com/jonathan/project-scout/internal/llm"
	"github.com/jonathan/project-scout/internal/logger"
	"github.com/jonathan/project-scout/internal/match"
	"github.com/jonathan/project-scout/internal/scan"
	"github.com/jonathan/project-scout/internal/schemas"
	"github.com/jonathan/project-scout/internal/sites"
	"github.com/jonathan/project-scout/internal/tfidf"
)

// app holds the wired application services.
type app struct {
	cfg          *config.Config
	log          *zap.Logger
	db           *db.DB
	orchestrator *scan.Orchestrator
	deduper      *dedup.Engine
	index        *tfidf.Index
	matcher      *match.Engine

	llmClient llm.Client
	embedder  *llm.GeminiEmbedder
}

// dedupCounter narrows the dedup engine to the orchestrator's Deduper
// interface, which only wants the removed-row count.
type dedupCounter struct {
	engine *dedup.Engine
}

func (d dedupCounter) Run(ctx context.Context) (int, error) {
	summary, err := d.engine.Run(ctx)
	if err != nil {
		return 0, err
	}
	return summary.Removed, nil
}

// buildApp wires every service from configuration: database, site
// descriptors, LLM extraction, browser factory, scan orchestrator, dedup,
// relevance index, and the matching engine.
func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	log, err := logger.New(cfg.JSONLogs, cfg.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	database, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.EnsureSchema(ctx); err != nil {
		database.Close()
		return nil, err
	}

	siteList, err := sites.Load(cfg.SitesFile)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to load site descriptors: %w", err)
	}

	llmClient, err := llm.NewClient(ctx, cfg.ExtractionModel, cfg.APIKey)
	if err != nil {
		database.Close()
		return nil, err
	}
	extractor := llm.NewExtractor(llmClient, schemas.NewRegistry(cfg.SchemasDir))

	// The embedder is optional: without it, matching degrades to the
	// exact/synonym cascade.
	var embedder *llm.GeminiEmbedder
	if cfg.APIKey != "" {
		embedder, err = llm.NewGeminiEmbedder(ctx, cfg.APIKey, llm.DefaultEmbeddingModel)
		if err != nil {
			log.Warn("embedder unavailable, matching will run degraded", zap.Error(err))
			embedder = nil
		}
	}

	sourceFactory := func(ctx context.Context) (scan.PageSource, error) {
		return fetch.NewBrowser(ctx, fetch.BrowserOptions{}, log.Named("browser"))
	}

	deduper := dedup.NewEngine(database, log.Named("dedup"))
	index := tfidf.NewIndex(database, log.Named("tfidf"))

	var matchEmbedder match.Embedder
	if embedder != nil {
		matchEmbedder = embedder
	}
	matcher := match.NewEngine(database, matchEmbedder, match.Options{
		Threshold:     cfg.MatchThreshold,
		DistanceModel: cfg.DistanceModel,
		TopMissing:    cfg.TopMissing,
	}, log.Named("match"))

	orchestrator := scan.NewOrchestrator(scan.NewRegistry(), siteList, sourceFactory,
		extractor, database, dedupCounter{deduper}, index, scan.Options{
			TimeRangeDays:      cfg.TimeRangeDays,
			OutsideRangeFactor: cfg.OutsideRangeFactor,
		}, log.Named("scan"))

	return &app{
		cfg:          cfg,
		log:          log,
		db:           database,
		orchestrator: orchestrator,
		deduper:      deduper,
		index:        index,
		matcher:      matcher,
		llmClient:    llmClient,
		embedder:     embedder,
	}, nil
}

// close releases the app's resources.
func (a *app) close() {
	if a.embedder != nil {
		_ = a.embedder.Close()
	}
	if a.llmClient != nil {
		_ = a.llmClient.Close()
	}
	a.db.Close()
	_ = a.log.Sync()
}

// loadConfig reads and validates configuration for a command run.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.SitesFile == "" {
		return nil, fmt.Errorf("config error: 'sites_file' is required (or set SITES_FILE)")
	}
	return cfg, nil
}
