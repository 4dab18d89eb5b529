package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/wonny/quantum/internal/contracts"
	"github.com/wonny/quantum/internal/notify"
	"github.com/wonny/quantum/internal/pipeline"
	"github.com/wonny/quantum/internal/s0_discovery"
	"github.com/wonny/quantum/internal/s1_enrich"
	"github.com/wonny/quantum/internal/s3_decision"
	"github.com/wonny/quantum/internal/scoringconfig"
	"github.com/wonny/quantum/internal/store"
	"github.com/wonny/quantum/pkg/config"
	"github.com/wonny/quantum/pkg/httputil"
	"github.com/wonny/quantum/pkg/logger"
	"github.com/wonny/quantum/pkg/redis"
)

// app holds the wired components shared by every command
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	store    contracts.Store
	redis    *redis.Client
	registry *s0_discovery.Registry
	orch     *pipeline.Orchestrator
	metrics  *prometheus.Registry
}

// loadBase reads config and builds the logger
func loadBase() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, logger.New(cfg), nil
}

// newApp wires store, fetcher, sources, enricher, decision engine, notifier and orchestrator
func newApp(ctx context.Context) (*app, error) {
	cfg, log, err := loadBase()
	if err != nil {
		return nil, err
	}

	// 1. Scoring model
	scoring, err := scoringconfig.FromAppConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("scoring config: %w", err)
	}
	version := scoringconfig.VersionTag(scoring)
	for _, w := range scoringconfig.CheckWarnings(scoring) {
		log.WithFields(map[string]interface{}{
			"code":    w.Code,
			"version": version,
		}).Warn(w.Message)
	}

	// 2. Store
	st, err := store.Open(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	// 3. Redis (optional: shared rate limit + enrichment cache)
	rc, err := redis.New(cfg)
	if err != nil {
		log.WithError(err).Warn("Redis unavailable, continuing without cache")
		rc = redis.Disabled()
	}

	// 4. HTTP fetcher
	httpClient := httputil.New(cfg, log)
	if rc.Enabled() {
		httpClient = httpClient.WithRateLimiter(redis.NewRateLimiter(rc, "quantum:ratelimit"))
	}

	// 5. Pipeline stages
	registry := s0_discovery.NewRegistry(cfg, httpClient, log)
	enricher := s1_enrich.NewFromConfig(cfg, httpClient, redis.NewCache(rc, "quantum:enrich"), log)
	engine := s3_decision.New(scoring)

	telegram := notify.NewTelegram(cfg, log)
	if rc.Enabled() {
		telegram = telegram.WithRateLimiter(redis.NewRateLimiter(rc, "quantum:notify"))
	}
	if !telegram.Configured() {
		log.Warn("Notifier not configured, alerts will be skipped")
	}

	// 6. Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	var metrics *pipeline.Metrics
	if cfg.MetricsEnabled {
		metrics = pipeline.NewMetrics(reg)
	}

	orch := pipeline.NewOrchestrator(
		registry.Sources(),
		enricher,
		engine,
		st,
		telegram,
		pipeline.OptionsFromConfig(cfg, version),
		metrics,
		log,
	)

	return &app{
		cfg:      cfg,
		log:      log,
		store:    st,
		redis:    rc,
		registry: registry,
		orch:     orch,
		metrics:  reg,
	}, nil
}

// Close releases the store and redis connections
func (a *app) Close() error {
	return errors.Join(a.store.Close(), a.redis.Close())
}
