// Package metrics exposes Prometheus metrics for jobhunt runs.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/ShayCichocki/jobhunt/internal/orchestrator"
)

// Metrics holds all Prometheus metrics for jobhunt.
type Metrics struct {
	registry *prometheus.Registry

	// Phase metrics
	PhaseRuns     *prometheus.CounterVec
	PhaseDuration *prometheus.HistogramVec

	// Task metrics
	TaskExecutions *prometheus.CounterVec
	TaskDuration   *prometheus.HistogramVec
	Tokens         *prometheus.CounterVec

	// Delegation metrics
	Delegations *prometheus.CounterVec

	// Checkpoint metrics
	CheckpointDefaults *prometheus.CounterVec
}

// NewMetrics creates a Metrics instance registered on its own registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,

		PhaseRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobhunt_phase_runs_total",
				Help: "Total number of phase runs",
			},
			[]string{"phase", "success"},
		),
		PhaseDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jobhunt_phase_duration_seconds",
				Help:    "Phase duration in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"phase"},
		),

		TaskExecutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobhunt_task_executions_total",
				Help: "Total number of task executions",
			},
			[]string{"task", "worker", "success"},
		),
		TaskDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "jobhunt_task_duration_seconds",
				Help:    "Task execution duration in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
			},
			[]string{"task"},
		),
		Tokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobhunt_tokens_total",
				Help: "Total tokens spent by workers",
			},
			[]string{"worker", "direction"},
		),

		Delegations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobhunt_delegations_total",
				Help: "Total number of delegated sub-tasks",
			},
			[]string{"worker"},
		),

		CheckpointDefaults: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "jobhunt_checkpoint_selections_total",
				Help: "Checkpoint selections by field and whether the default was chosen",
			},
			[]string{"field", "defaulted"},
		),
	}
}

// Registry returns the registry holding every metric.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

var _ orchestrator.Observer = (*Metrics)(nil)

// OnEvent implements orchestrator.Observer.
func (m *Metrics) OnEvent(e orchestrator.OrchestratorEvent) {
	switch e.Type {
	case orchestrator.EventPhaseCompleted, orchestrator.EventPhaseFailed:
		ok := e.Type == orchestrator.EventPhaseCompleted
		m.PhaseRuns.WithLabelValues(e.Phase, strconv.FormatBool(ok)).Inc()
		m.PhaseDuration.WithLabelValues(e.Phase).Observe(e.Duration.Seconds())

	case orchestrator.EventTaskCompleted, orchestrator.EventTaskFailed:
		ok := e.Type == orchestrator.EventTaskCompleted
		m.TaskExecutions.WithLabelValues(e.TaskID, e.Worker, strconv.FormatBool(ok)).Inc()
		m.TaskDuration.WithLabelValues(e.TaskID).Observe(e.Duration.Seconds())
		if e.TokensIn > 0 {
			m.Tokens.WithLabelValues(e.Worker, "input").Add(float64(e.TokensIn))
		}
		if e.TokensOut > 0 {
			m.Tokens.WithLabelValues(e.Worker, "output").Add(float64(e.TokensOut))
		}

	case orchestrator.EventDelegated:
		m.Delegations.WithLabelValues(e.Worker).Inc()
	}
}

// RecordCheckpoint counts a checkpoint field, noting whether its default was chosen.
func (m *Metrics) RecordCheckpoint(field string, defaulted bool) {
	m.CheckpointDefaults.WithLabelValues(field, strconv.FormatBool(defaulted)).Inc()
}

// WriteToTextfile writes every metric in the Prometheus text format to path,
// for pickup by a node exporter textfile collector.
func (m *Metrics) WriteToTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
