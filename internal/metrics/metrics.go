// Package metrics exposes the orchestrator's Prometheus instrumentation:
// counters and histograms covering mission, wave, quality-gate, and
// deployer outcomes, plus an http.Handler for scraping them. It never
// starts its own listener — callers mount Handler() on whatever mux
// they run.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	MissionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worldmind_missions_total",
			Help: "Total number of missions by terminal status",
		},
		[]string{"status"},
	)

	MissionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "worldmind_mission_duration_seconds",
			Help:    "Wall-clock time from mission receipt to terminal status",
			Buckets: []float64{5, 15, 30, 60, 180, 600, 1800, 3600},
		},
	)

	TasksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worldmind_tasks_total",
			Help: "Total number of dispatched tasks by agent role and status",
		},
		[]string{"role", "status"},
	)

	TaskDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "worldmind_task_duration_seconds",
			Help:    "Time a dispatched task took to return a result, by agent role",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"role"},
	)

	TaskIterations = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "worldmind_task_iterations",
			Help:    "Retry iterations consumed by a task before it converged or exhausted its budget",
			Buckets: []float64{1, 2, 3, 4, 5, 8},
		},
		[]string{"role"},
	)

	WavesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worldmind_waves_total",
			Help: "Total number of waves evaluated by outcome",
		},
		[]string{"outcome"},
	)

	WaveSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "worldmind_wave_size",
			Help:    "Number of tasks dispatched together in a wave",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
		},
	)

	QualityGateDecisions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worldmind_quality_gate_decisions_total",
			Help: "Quality gate verdicts by agent role and decision (grant/deny)",
		},
		[]string{"role", "decision"},
	)

	QualityGateScore = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "worldmind_quality_gate_score",
			Help:    "Reviewer scores seen by the quality gate, by agent role",
			Buckets: []float64{0, 2, 4, 5, 6, 7, 8, 9, 10},
		},
		[]string{"role"},
	)

	OscillationsDetected = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "worldmind_oscillations_detected_total",
			Help: "Total number of tasks flagged as oscillating between failure signatures",
		},
	)

	DeploymentsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worldmind_deployments_total",
			Help: "Total number of deployment attempts by outcome",
		},
		[]string{"outcome"},
	)

	DeploymentDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "worldmind_deployment_duration_seconds",
			Help:    "Time taken by a build-and-verify deployment attempt",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
		},
	)

	GitMergesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worldmind_git_merges_total",
			Help: "Total number of wave branch merges by outcome",
		},
		[]string{"outcome"},
	)

	EventsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "worldmind_events_dropped_total",
			Help: "Total number of bus events dropped because a subscriber's channel was full",
		},
	)
)

func init() {
	prometheus.MustRegister(
		MissionsTotal,
		MissionDuration,
		TasksTotal,
		TaskDuration,
		TaskIterations,
		WavesTotal,
		WaveSize,
		QualityGateDecisions,
		QualityGateScore,
		OscillationsDetected,
		DeploymentsTotal,
		DeploymentDuration,
		GitMergesTotal,
		EventsDropped,
	)
}

// Handler returns the Prometheus scrape handler. Callers mount it
// themselves (e.g. mux.Handle("/metrics", metrics.Handler())); this
// package never starts a listener.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Timer measures an in-flight operation against a histogram.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer running from now.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveSeconds records the elapsed time in seconds to histogram.
func (t *Timer) ObserveSeconds(histogram prometheus.Observer) {
	histogram.Observe(time.Since(t.start).Seconds())
}
