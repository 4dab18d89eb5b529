package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/quantum/internal/api"
	"github.com/wonny/quantum/internal/api/handlers"
	"github.com/wonny/quantum/internal/scheduler"
	"github.com/wonny/quantum/internal/scheduler/jobs"
)

// serveCmd runs the scheduler (and the status API) until interrupted
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scan scheduler forever",
	Long: `Starts the scheduler, which runs a scan cycle immediately and then every SCAN_INTERVAL.
Cycles never overlap: a slow cycle delays the next tick instead of running beside it.

Registered jobs:
  scan    - every SCAN_INTERVAL (default 6h)
  rescan  - every RESCAN_INTERVAL (disabled when 0)

When API_ENABLED is true the status API listens on PORT:
  GET  /health
  GET  /metrics
  GET  /api/projects
  GET  /api/jobs
  POST /api/jobs/{name}/run
  GET  /api/cycles/last

Stop with Ctrl+C; the active cycle is cancelled and drained.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	// 1. Scheduler
	sched := scheduler.New(a.log)
	if err := sched.AddJob(jobs.NewScanJob(a.orch, a.cfg.Scan.Interval, dryRun, a.log)); err != nil {
		return fmt.Errorf("register scan job: %w", err)
	}
	if a.cfg.Scan.RescanInterval > 0 {
		if err := sched.AddJob(jobs.NewRescanJob(a.orch, a.cfg.Scan.RescanInterval, dryRun, a.log)); err != nil {
			return fmt.Errorf("register rescan job: %w", err)
		}
	}

	a.log.WithFields(map[string]interface{}{
		"jobs":    sched.GetAllJobs(),
		"dry_run": dryRun,
		"sources": a.registry.Names(),
	}).Info("Scheduler starting")

	sched.Start(ctx)
	defer sched.Stop()

	// 2. Status API
	g, gctx := errgroup.WithContext(ctx)
	if a.cfg.APIEnabled {
		router := api.NewRouter(api.Handlers{
			Health:   handlers.NewHealthHandler(a.store),
			Projects: handlers.NewProjectHandler(a.store, a.log),
			Pipeline: handlers.NewPipelineHandler(sched, a.orch, a.log),
			Metrics:  promhttp.HandlerFor(a.metrics, promhttp.HandlerOpts{}),
		}, a.log)
		server := api.New(a.cfg, a.log, router)
		g.Go(func() error { return server.Run(gctx) })
	}

	<-ctx.Done()
	a.log.Info("Shutting down...")

	if err := g.Wait(); err != nil {
		return fmt.Errorf("api server: %w", err)
	}
	return nil
}
