// Package monitoring exports orchestrator and registry metrics for
// Prometheus scraping.
package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector the system updates
type Metrics struct {
	JobsSubmitted    prometheus.Counter
	JobsCompleted    prometheus.Counter
	JobsFailed       prometheus.Counter
	JobsCancelled    prometheus.Counter
	JobsRejected     *prometheus.CounterVec
	ActiveJobs       prometheus.Gauge
	StageTransitions *prometheus.CounterVec
	StageDuration    *prometheus.HistogramVec
	RegistryOps      *prometheus.CounterVec
	DeployedModels   prometheus.Gauge
}

// New registers all collectors with the given registerer
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		JobsSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "training_jobs_submitted_total",
			Help: "Training jobs accepted by submit",
		}),
		JobsCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "training_jobs_completed_total",
			Help: "Training jobs that reached completed",
		}),
		JobsFailed: factory.NewCounter(prometheus.CounterOpts{
			Name: "training_jobs_failed_total",
			Help: "Training jobs that reached failed",
		}),
		JobsCancelled: factory.NewCounter(prometheus.CounterOpts{
			Name: "training_jobs_cancelled_total",
			Help: "Training jobs cancelled by an actor",
		}),
		JobsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "training_jobs_rejected_total",
			Help: "Submissions rejected before persistence",
		}, []string{"reason"}),
		ActiveJobs: factory.NewGauge(prometheus.GaugeOpts{
			Name: "training_jobs_active",
			Help: "Non-terminal jobs (0 or 1 by invariant)",
		}),
		StageTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "training_stage_transitions_total",
			Help: "Stage transitions applied by the progression loop",
		}, []string{"stage"}),
		StageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "training_stage_duration_seconds",
			Help:    "Wall time per executed stage",
			Buckets: prometheus.ExponentialBuckets(0.1, 4, 8),
		}, []string{"stage"}),
		RegistryOps: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "model_registry_operations_total",
			Help: "Registry mutations by operation",
		}, []string{"operation"}),
		DeployedModels: factory.NewGauge(prometheus.GaugeOpts{
			Name: "model_registry_deployed",
			Help: "Models in deployed status (0 or 1 by invariant)",
		}),
	}
}
