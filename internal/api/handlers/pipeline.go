package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/wonny/quantum/internal/contracts"
	"github.com/wonny/quantum/internal/scheduler"
	"github.com/wonny/quantum/pkg/logger"
)

// JobRunner is the scheduler surface exposed over HTTP
type JobRunner interface {
	GetJobStats() map[string]scheduler.JobStats
	RunJob(name string) error
}

// CycleReporter exposes the last cycle summary
type CycleReporter interface {
	LastCycle() *contracts.CycleMetrics
}

// PipelineHandler handles job and cycle endpoints
type PipelineHandler struct {
	jobs   JobRunner
	cycles CycleReporter
	logger *logger.Logger
}

// NewPipelineHandler creates a new pipeline handler; jobs may be nil outside serve mode
func NewPipelineHandler(jobs JobRunner, cycles CycleReporter, log *logger.Logger) *PipelineHandler {
	return &PipelineHandler{
		jobs:   jobs,
		cycles: cycles,
		logger: log,
	}
}

// GetJobs returns per-job statistics
// GET /api/jobs
func (h *PipelineHandler) GetJobs(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		respondJSON(w, http.StatusOK, map[string]scheduler.JobStats{})
		return
	}
	respondJSON(w, http.StatusOK, h.jobs.GetJobStats())
}

// RunJob triggers a job outside its schedule
// POST /api/jobs/{name}/run
func (h *PipelineHandler) RunJob(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	if h.jobs == nil {
		respondError(w, http.StatusServiceUnavailable, "Scheduler not running")
		return
	}
	if _, ok := h.jobs.GetJobStats()[name]; !ok {
		respondError(w, http.StatusNotFound, "Unknown job")
		return
	}

	if err := h.jobs.RunJob(name); err != nil {
		h.logger.WithError(err).WithField("job", name).Warn("Job trigger refused")
		respondError(w, http.StatusConflict, err.Error())
		return
	}

	h.logger.WithField("job", name).Info("Job triggered via API")
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "triggered", "job": name})
}

// GetLastCycle returns the most recent cycle summary
// GET /api/cycles/last
func (h *PipelineHandler) GetLastCycle(w http.ResponseWriter, r *http.Request) {
	last := h.cycles.LastCycle()
	if last == nil {
		respondError(w, http.StatusNotFound, "No cycle has run yet")
		return
	}
	respondJSON(w, http.StatusOK, last)
}
