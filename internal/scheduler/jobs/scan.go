package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/quantum/internal/contracts"
	"github.com/wonny/quantum/internal/pipeline"
	"github.com/wonny/quantum/pkg/logger"
)

// Scanner is the part of the orchestrator the jobs drive
type Scanner interface {
	RunCycle(ctx context.Context, rc pipeline.RunConfig) (*contracts.CycleMetrics, error)
	RescanKnown(ctx context.Context, rc pipeline.RunConfig) (*contracts.CycleMetrics, error)
}

// ScanJob runs one discovery cycle per tick
type ScanJob struct {
	scanner  Scanner
	interval time.Duration
	dryRun   bool
	logger   *logger.Logger
}

// NewScanJob creates a new scan job
func NewScanJob(scanner Scanner, interval time.Duration, dryRun bool, log *logger.Logger) *ScanJob {
	return &ScanJob{
		scanner:  scanner,
		interval: interval,
		dryRun:   dryRun,
		logger:   log,
	}
}

// Name returns the job name
func (j *ScanJob) Name() string {
	return "scan"
}

// Schedule returns the cron schedule (SCAN_INTERVAL)
func (j *ScanJob) Schedule() string {
	return every(j.interval)
}

// Run executes one scan cycle
func (j *ScanJob) Run(ctx context.Context) error {
	m, err := j.scanner.RunCycle(ctx, pipeline.RunConfig{DryRun: j.dryRun})
	if err != nil {
		return fmt.Errorf("scan cycle: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":      m.RunID,
		"new":         m.New,
		"alerts_sent": m.AlertsSent,
	}).Debug("Scheduled scan finished")
	return nil
}

// RescanJob re-scores every stored project per tick
type RescanJob struct {
	scanner  Scanner
	interval time.Duration
	dryRun   bool
	logger   *logger.Logger
}

// NewRescanJob creates a new rescan job
func NewRescanJob(scanner Scanner, interval time.Duration, dryRun bool, log *logger.Logger) *RescanJob {
	return &RescanJob{
		scanner:  scanner,
		interval: interval,
		dryRun:   dryRun,
		logger:   log,
	}
}

// Name returns the job name
func (j *RescanJob) Name() string {
	return "rescan"
}

// Schedule returns the cron schedule (RESCAN_INTERVAL)
func (j *RescanJob) Schedule() string {
	return every(j.interval)
}

// Run executes one rescan cycle
func (j *RescanJob) Run(ctx context.Context) error {
	m, err := j.scanner.RescanKnown(ctx, pipeline.RunConfig{DryRun: j.dryRun})
	if err != nil {
		return fmt.Errorf("rescan cycle: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":   m.RunID,
		"projects": m.Discovered,
	}).Debug("Scheduled rescan finished")
	return nil
}

func every(d time.Duration) string {
	return "@every " + d.String()
}
