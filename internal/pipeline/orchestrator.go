// Package pipeline runs scan cycles: discovery, enrichment, scoring, persistence and alerting.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/quantum/internal/contracts"
	"github.com/wonny/quantum/internal/notify"
	"github.com/wonny/quantum/internal/s2_ratios"
	"github.com/wonny/quantum/internal/s3_decision"
	"github.com/wonny/quantum/pkg/config"
	"github.com/wonny/quantum/pkg/logger"
)

// Cycle modes
const (
	ModeScan   = "scan"
	ModeRescan = "rescan"
)

// Options bound a cycle
type Options struct {
	SourceDeadline    time.Duration
	CycleTimeout      time.Duration // 0 means unbounded
	EnrichParallelism int
	MaxAlertsPerCycle int // 0 disables alerts
	ScoringVersion    string
}

// OptionsFromConfig reads cycle bounds from the app config
func OptionsFromConfig(cfg *config.Config, scoringVersion string) Options {
	return Options{
		SourceDeadline:    cfg.Scan.SourceDeadline,
		CycleTimeout:      cfg.Scan.CycleTimeout,
		EnrichParallelism: cfg.Scan.EnrichParallelism,
		MaxAlertsPerCycle: cfg.Scan.MaxAlertsPerCycle,
		ScoringVersion:    scoringVersion,
	}
}

// RunConfig holds per-run settings
type RunConfig struct {
	RunID  string // generated when empty
	DryRun bool   // score and persist, never notify
}

// configurable is implemented by notifiers that can report missing wiring up front
type configurable interface {
	Configured() bool
}

// Orchestrator coordinates one scan cycle
// ⭐ SSOT: S0 → S1 → S2 → S3 → persist → notify ordering lives here only
type Orchestrator struct {
	sources  []contracts.Source
	enricher contracts.Enricher
	engine   *s3_decision.Engine
	store    contracts.Store
	notifier contracts.Notifier
	opts     Options
	metrics  *Metrics
	logger   *logger.Logger
	now      func() time.Time

	lastMu sync.RWMutex
	last   *contracts.CycleMetrics
}

// NewOrchestrator creates a new orchestrator; notifier and metrics may be nil
func NewOrchestrator(
	sources []contracts.Source,
	enricher contracts.Enricher,
	engine *s3_decision.Engine,
	store contracts.Store,
	notifier contracts.Notifier,
	opts Options,
	metrics *Metrics,
	log *logger.Logger,
) *Orchestrator {
	if opts.EnrichParallelism <= 0 {
		opts.EnrichParallelism = 1
	}
	if engine == nil {
		engine = s3_decision.New(nil)
	}
	return &Orchestrator{
		sources:  sources,
		enricher: enricher,
		engine:   engine,
		store:    store,
		notifier: notifier,
		opts:     opts,
		metrics:  metrics,
		logger:   log.WithComponent("pipeline"),
		now:      time.Now,
	}
}

// LastCycle returns the summary of the most recent cycle, nil before the first
func (o *Orchestrator) LastCycle() *contracts.CycleMetrics {
	o.lastMu.RLock()
	defer o.lastMu.RUnlock()
	if o.last == nil {
		return nil
	}
	cp := *o.last
	return &cp
}

// RunCycle discovers, scores and stores new projects, then alerts on the best ones
func (o *Orchestrator) RunCycle(ctx context.Context, rc RunConfig) (*contracts.CycleMetrics, error) {
	ctx, cancel := o.cycleContext(ctx)
	defer cancel()

	m, log := o.begin(ModeScan, rc)

	// S0: discovery
	candidates := o.discover(ctx, m, log)
	m.Discovered = len(candidates)
	o.metrics.observeDiscovered(candidates)

	fresh := make([]contracts.Candidate, 0, len(candidates))
	for _, c := range candidates {
		seen, err := o.store.Seen(ctx, c.URL)
		if err != nil {
			return o.abort(m, log, fmt.Errorf("%s: seen %s: %w", contracts.StageDiscovery, c.URL, wrapStore(err)))
		}
		if !seen {
			fresh = append(fresh, c)
		}
	}
	m.New = len(fresh)

	log.WithFields(map[string]interface{}{
		"stage":      contracts.StageDiscovery.String(),
		"discovered": m.Discovered,
		"new":        m.New,
		"sources":    len(o.sources),
		"errors":     len(m.SourceErrors),
	}).Info("Discovery completed")

	// S1-S3
	now := o.now()
	records := o.score(ctx, m, fresh, func(c contracts.Candidate) *contracts.ProjectRecord {
		return &contracts.ProjectRecord{
			Candidate:   c,
			FirstSeenAt: now,
			RunID:       m.RunID,
		}
	})
	if err := ctxErr(ctx); err != nil {
		return o.abort(m, log, fmt.Errorf("%s: %w", contracts.StageDecision, err))
	}

	return o.finish(ctx, m, log, rc, records)
}

// RescanKnown re-enriches and re-scores every stored project.
// Alerts go out only for verdicts a project was never alerted for.
func (o *Orchestrator) RescanKnown(ctx context.Context, rc RunConfig) (*contracts.CycleMetrics, error) {
	ctx, cancel := o.cycleContext(ctx)
	defer cancel()

	m, log := o.begin(ModeRescan, rc)

	known, err := o.store.GetAll(ctx)
	if err != nil {
		return o.abort(m, log, fmt.Errorf("%s: get all: %w", contracts.StageDiscovery, wrapStore(err)))
	}
	m.Discovered = len(known)

	byURL := make(map[string]contracts.ProjectRecord, len(known))
	candidates := make([]contracts.Candidate, 0, len(known))
	for _, rec := range known {
		byURL[rec.URL] = rec
		candidates = append(candidates, rec.Candidate)
	}

	records := o.score(ctx, m, candidates, func(c contracts.Candidate) *contracts.ProjectRecord {
		rec := byURL[c.URL]
		return &rec
	})
	if err := ctxErr(ctx); err != nil {
		return o.abort(m, log, fmt.Errorf("%s: %w", contracts.StageDecision, err))
	}

	return o.finish(ctx, m, log, rc, records)
}

func (o *Orchestrator) cycleContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if o.opts.CycleTimeout > 0 {
		return context.WithTimeout(ctx, o.opts.CycleTimeout)
	}
	return context.WithCancel(ctx)
}

func (o *Orchestrator) begin(mode string, rc RunConfig) (*contracts.CycleMetrics, *logger.Logger) {
	runID := rc.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	m := &contracts.CycleMetrics{
		RunID:          runID,
		Mode:           mode,
		DryRun:         rc.DryRun,
		StartedAt:      o.now(),
		SourceErrors:   []contracts.SourceError{},
		ScoringVersion: o.opts.ScoringVersion,
	}

	log := o.logger.WithFields(map[string]interface{}{
		"run_id": runID,
		"mode":   mode,
	})
	log.WithFields(map[string]interface{}{
		"dry_run":         rc.DryRun,
		"scoring_version": o.opts.ScoringVersion,
	}).Info("Starting cycle")

	return m, log
}

// discover runs every source concurrently under the source deadline.
// Results are merged in registration order; the first occurrence of a url wins.
func (o *Orchestrator) discover(ctx context.Context, m *contracts.CycleMetrics, log *logger.Logger) []contracts.Candidate {
	srcCtx := ctx
	if o.opts.SourceDeadline > 0 {
		var cancel context.CancelFunc
		srcCtx, cancel = context.WithTimeout(ctx, o.opts.SourceDeadline)
		defer cancel()
	}

	results := make([][]contracts.Candidate, len(o.sources))
	errs := make([]error, len(o.sources))

	var wg sync.WaitGroup
	for i, src := range o.sources {
		wg.Add(1)
		go func(i int, src contracts.Source) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					errs[i] = fmt.Errorf("panic: %v", r)
				}
			}()
			results[i], errs[i] = src.Fetch(srcCtx)
		}(i, src)
	}
	wg.Wait()

	seen := make(map[string]bool)
	var unique []contracts.Candidate
	for i, src := range o.sources {
		if errs[i] != nil {
			m.SourceErrors = append(m.SourceErrors, contracts.SourceError{
				Source: src.Name(),
				Error:  errs[i].Error(),
			})
			log.WithFields(map[string]interface{}{
				"stage":  contracts.StageDiscovery.String(),
				"source": src.Name(),
			}).WithError(errs[i]).Warn("Source failed")
		}
		for _, c := range results[i] {
			if c.URL == "" || seen[c.URL] {
				continue
			}
			seen[c.URL] = true
			if c.DiscoveredAt.IsZero() {
				c.DiscoveredAt = o.now()
			}
			unique = append(unique, c)
		}
	}
	return unique
}

// score enriches candidates with bounded parallelism and decides each one.
// A candidate whose enrichment fails or panics is dropped.
func (o *Orchestrator) score(
	ctx context.Context,
	m *contracts.CycleMetrics,
	candidates []contracts.Candidate,
	base func(contracts.Candidate) *contracts.ProjectRecord,
) []*contracts.ProjectRecord {
	enriched := make([]*contracts.EnrichedCandidate, len(candidates))
	failed := make([]bool, len(candidates))

	var g errgroup.Group
	g.SetLimit(o.opts.EnrichParallelism)
	for i, c := range candidates {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			ec, err := o.enrichOne(ctx, c)
			if err != nil {
				failed[i] = ctx.Err() == nil
				if failed[i] {
					o.logger.WithFields(map[string]interface{}{
						"stage": contracts.StageEnrich.String(),
						"url":   c.URL,
					}).WithError(err).Warn("Candidate dropped")
				}
				return nil
			}
			enriched[i] = &ec
			return nil
		})
	}
	_ = g.Wait()

	now := o.now()
	records := make([]*contracts.ProjectRecord, 0, len(candidates))
	for i, ec := range enriched {
		if failed[i] {
			m.EnrichFailures++
		}
		if ec == nil {
			continue
		}

		rec := base(candidates[i])
		rec.Signals = ec.Signals
		rec.Flags = ec.Flags
		rec.Ratios = s2_ratios.Compute(*ec)
		rec.Decision = o.engine.Decide(rec.Ratios, rec.Flags)
		rec.LastScanAt = now
		rec.ScanCount++
		rec.RunID = m.RunID
		records = append(records, rec)

		switch rec.Decision.Verdict {
		case contracts.VerdictAccept:
			m.Accepted++
		case contracts.VerdictReview:
			m.Review++
		default:
			m.Rejected++
		}
	}
	return records
}

func (o *Orchestrator) enrichOne(ctx context.Context, c contracts.Candidate) (ec contracts.EnrichedCandidate, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("enrich panic: %v", r)
		}
	}()
	return o.enricher.Enrich(ctx, c)
}

// finish selects alerts, persists every record once, then notifies serially
func (o *Orchestrator) finish(
	ctx context.Context,
	m *contracts.CycleMetrics,
	log *logger.Logger,
	rc RunConfig,
	records []*contracts.ProjectRecord,
) (*contracts.CycleMetrics, error) {
	alerting := !rc.DryRun && o.notifier != nil && o.opts.MaxAlertsPerCycle > 0
	if c, ok := o.notifier.(configurable); ok && alerting && !c.Configured() {
		log.Warn("Notifier not configured, alerts skipped for this cycle")
		alerting = false
	}
	m.AlertsSkipped = !alerting

	var selected []*contracts.ProjectRecord
	if alerting {
		selected = selectAlerts(records, o.opts.MaxAlertsPerCycle)
		for _, rec := range selected {
			rec.MarkAlerted(rec.Decision.Verdict)
		}
	}

	// persist
	for _, rec := range records {
		if err := o.store.Upsert(ctx, rec); err != nil {
			return o.abort(m, log, fmt.Errorf("%s: %w", contracts.StagePersist, wrapStore(err)))
		}
	}

	// notify
	for _, rec := range selected {
		if ctx.Err() != nil {
			break
		}
		err := o.notifier.Send(ctx, contracts.ChannelFor(rec.Decision.Verdict), notify.Format(rec))
		if err == nil {
			m.AlertsSent++
			continue
		}

		entry := log.WithFields(map[string]interface{}{
			"stage":   contracts.StageNotify.String(),
			"url":     rec.URL,
			"verdict": string(rec.Decision.Verdict),
		}).WithError(err)
		if errors.Is(err, contracts.ErrMissingConfig) {
			entry.Warn("Notifier not configured, stopping alerts for this cycle")
			m.AlertsSkipped = true
			break
		}
		entry.Error("Alert failed")
	}

	m.Duration = o.now().Sub(m.StartedAt).Seconds()
	o.record(m, nil)

	log.WithFields(map[string]interface{}{
		"discovered":      m.Discovered,
		"new":             m.New,
		"accepted":        m.Accepted,
		"review":          m.Review,
		"rejected":        m.Rejected,
		"alerts_sent":     m.AlertsSent,
		"enrich_failures": m.EnrichFailures,
		"source_errors":   len(m.SourceErrors),
		"duration_sec":    m.Duration,
	}).Info("Cycle completed")

	return m, nil
}

func (o *Orchestrator) abort(m *contracts.CycleMetrics, log *logger.Logger, err error) (*contracts.CycleMetrics, error) {
	m.Duration = o.now().Sub(m.StartedAt).Seconds()
	o.record(m, err)
	log.WithError(err).Error("Cycle aborted")
	return m, err
}

func (o *Orchestrator) record(m *contracts.CycleMetrics, err error) {
	o.metrics.observeCycle(m, err)

	cp := *m
	o.lastMu.Lock()
	o.last = &cp
	o.lastMu.Unlock()
}

// selectAlerts picks alertable records not yet alerted for their verdict, best score first
func selectAlerts(records []*contracts.ProjectRecord, limit int) []*contracts.ProjectRecord {
	var out []*contracts.ProjectRecord
	for _, rec := range records {
		v := rec.Decision.Verdict
		if v.Alertable() && !rec.WasAlerted(v) {
			out = append(out, rec)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Decision.Score != out[j].Decision.Score {
			return out[i].Decision.Score > out[j].Decision.Score
		}
		return out[i].URL < out[j].URL
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ctxErr maps a done context to the pipeline kinds
func ctxErr(ctx context.Context) error {
	switch err := ctx.Err(); {
	case err == nil:
		return nil
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("cycle deadline: %w", contracts.ErrTimeout)
	default:
		return fmt.Errorf("cycle: %w", contracts.ErrCancelled)
	}
}

// wrapStore keeps ErrStore on every storage failure
func wrapStore(err error) error {
	if errors.Is(err, contracts.ErrStore) {
		return err
	}
	return fmt.Errorf("%w: %v", contracts.ErrStore, err)
}
