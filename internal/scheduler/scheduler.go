package scheduler

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/wonny/quantum/pkg/logger"
)

type entry struct {
	job     Job
	id      cron.EntryID
	wrapped cron.Job
	running bool
}

// Scheduler manages scheduled jobs
// ⭐ SSOT: periodic execution goes through this scheduler only
// Runs of one job never overlap; a late run is followed immediately by the next.
type Scheduler struct {
	cron    *cron.Cron
	chain   cron.Chain
	logger  *logger.Logger
	jobs    map[string]*entry
	history map[string]*JobHistory
	mu      sync.RWMutex

	ctx     context.Context
	cancel  context.CancelFunc
	started bool
	wg      sync.WaitGroup
}

// New creates a new scheduler
func New(log *logger.Logger) *Scheduler {
	log = log.WithComponent("scheduler")
	cl := cronLogger{log: log}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cron:    cron.New(cron.WithLogger(cl)),
		chain:   cron.NewChain(cron.Recover(cl), cron.DelayIfStillRunning(cl)),
		logger:  log,
		jobs:    make(map[string]*entry),
		history: make(map[string]*JobHistory),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// AddJob adds a job to the scheduler
func (s *Scheduler) AddJob(job Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobName := job.Name()
	if _, exists := s.jobs[jobName]; exists {
		return fmt.Errorf("job %s already exists", jobName)
	}

	schedule, err := cron.ParseStandard(job.Schedule())
	if err != nil {
		return fmt.Errorf("failed to schedule job %s: %w", jobName, err)
	}

	e := &entry{job: job}
	e.wrapped = s.chain.Then(cron.FuncJob(func() { s.runJob(e) }))
	e.id = s.cron.Schedule(schedule, e.wrapped)

	s.jobs[jobName] = e
	s.history[jobName] = &JobHistory{}

	s.logger.WithFields(map[string]interface{}{
		"job":      jobName,
		"schedule": job.Schedule(),
	}).Info("Job added to scheduler")

	return nil
}

// Start starts the scheduler and runs every job once immediately.
// Cancelling ctx has the same effect on running jobs as Stop.
func (s *Scheduler) Start(ctx context.Context) {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	entries := make([]*entry, 0, len(s.jobs))
	for _, e := range s.jobs {
		entries = append(entries, e)
	}
	s.mu.Unlock()

	go func() {
		select {
		case <-ctx.Done():
			s.cancel()
		case <-s.ctx.Done():
		}
	}()

	s.logger.WithField("jobs", len(entries)).Info("Starting scheduler")
	s.cron.Start()

	for _, e := range entries {
		s.wg.Add(1)
		go func(e *entry) {
			defer s.wg.Done()
			e.wrapped.Run()
		}(e)
	}
}

// Stop cancels running jobs and waits for them to return
func (s *Scheduler) Stop() {
	s.logger.Info("Stopping scheduler")
	s.cancel()
	<-s.cron.Stop().Done()
	s.wg.Wait()
	s.logger.Info("Scheduler stopped")
}

// RunJob runs a specific job immediately (outside of schedule).
// The run waits behind an in-flight run of the same job.
func (s *Scheduler) RunJob(jobName string) error {
	s.mu.RLock()
	e, exists := s.jobs[jobName]
	s.mu.RUnlock()

	if !exists {
		return fmt.Errorf("job %s not found", jobName)
	}
	if s.ctx.Err() != nil {
		return fmt.Errorf("scheduler stopped")
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		e.wrapped.Run()
	}()
	return nil
}

// runJob executes a job once and records the result
func (s *Scheduler) runJob(e *entry) {
	if s.ctx.Err() != nil {
		return
	}

	jobName := e.job.Name()
	startTime := time.Now()

	s.setRunning(e, true)
	defer s.setRunning(e, false)

	s.logger.WithField("job", jobName).Info("Job started")

	err := e.job.Run(s.ctx)

	endTime := time.Now()
	duration := endTime.Sub(startTime)

	result := JobResult{
		JobName:   jobName,
		StartTime: startTime,
		EndTime:   endTime,
		Duration:  duration,
		Success:   err == nil,
	}
	if err != nil {
		result.Error = err.Error()
	}

	s.mu.Lock()
	if history, exists := s.history[jobName]; exists {
		history.AddResult(result)
	}
	s.mu.Unlock()

	if err == nil {
		s.logger.WithFields(map[string]interface{}{
			"job":      jobName,
			"duration": duration.String(),
		}).Info("Job completed successfully")
	} else {
		s.logger.WithFields(map[string]interface{}{
			"job":      jobName,
			"duration": duration.String(),
		}).WithError(err).Error("Job failed")
	}
}

func (s *Scheduler) setRunning(e *entry, running bool) {
	s.mu.Lock()
	e.running = running
	s.mu.Unlock()
}

// GetJobHistory returns a copy of the history for a specific job
func (s *Scheduler) GetJobHistory(jobName string) (*JobHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, exists := s.history[jobName]
	if !exists {
		return nil, fmt.Errorf("job %s not found", jobName)
	}

	return &JobHistory{Results: append([]JobResult(nil), history.Results...)}, nil
}

// GetAllJobs returns all registered job names, sorted
func (s *Scheduler) GetAllJobs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]string, 0, len(s.jobs))
	for jobName := range s.jobs {
		jobs = append(jobs, jobName)
	}
	sort.Strings(jobs)

	return jobs
}

// GetJobStats returns statistics for all jobs
func (s *Scheduler) GetJobStats() map[string]JobStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[string]JobStats)

	for jobName, history := range s.history {
		e := s.jobs[jobName]
		latestResults := history.GetLatestResults(10)
		failedResults := history.GetFailedResults()

		var lastRun, lastSuccess, lastFailure, nextRun *time.Time

		if len(latestResults) > 0 {
			lastResult := latestResults[len(latestResults)-1]
			lastRun = &lastResult.StartTime

			if lastResult.Success {
				lastSuccess = &lastResult.StartTime
			} else {
				lastFailure = &lastResult.StartTime
			}
		}
		if next := s.cron.Entry(e.id).Next; !next.IsZero() {
			nextRun = &next
		}

		stats[jobName] = JobStats{
			JobName:      jobName,
			Schedule:     e.job.Schedule(),
			Running:      e.running,
			TotalRuns:    len(history.Results),
			SuccessCount: len(history.Results) - len(failedResults),
			FailureCount: len(failedResults),
			SuccessRate:  history.GetSuccessRate(),
			LastRun:      lastRun,
			LastSuccess:  lastSuccess,
			LastFailure:  lastFailure,
			NextRun:      nextRun,
		}
	}

	return stats
}

// JobStats represents statistics for a job
type JobStats struct {
	JobName      string     `json:"job_name"`
	Schedule     string     `json:"schedule"`
	Running      bool       `json:"running"`
	TotalRuns    int        `json:"total_runs"`
	SuccessCount int        `json:"success_count"`
	FailureCount int        `json:"failure_count"`
	SuccessRate  float64    `json:"success_rate"`
	LastRun      *time.Time `json:"last_run,omitempty"`
	LastSuccess  *time.Time `json:"last_success,omitempty"`
	LastFailure  *time.Time `json:"last_failure,omitempty"`
	NextRun      *time.Time `json:"next_run,omitempty"`
}
