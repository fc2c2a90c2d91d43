// Package metrics expose les métriques Prometheus du service de génération.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusSuccess = "success"
	statusError   = "error"
)

// Recorder regroupe les métriques des jobs, des phases et des appels LLM
type Recorder struct {
	jobsTotal        *prometheus.CounterVec
	jobsActive       prometheus.Gauge
	phaseDuration    *prometheus.HistogramVec
	gatewayRequests  *prometheus.CounterVec
	gatewayDurations *prometheus.HistogramVec
}

// NewRecorder enregistre les métriques sur le registry fourni
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)

	return &Recorder{
		jobsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deckgen_jobs_total",
				Help: "Total number of finished generation jobs by task and final status",
			},
			[]string{"task", "status"},
		),
		jobsActive: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "deckgen_jobs_active",
				Help: "Number of generation jobs currently running",
			},
		),
		phaseDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "deckgen_phase_duration_seconds",
				Help:    "Duration of each generation phase in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
			[]string{"phase"},
		),
		gatewayRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "deckgen_gateway_requests_total",
				Help: "Total number of LLM gateway calls by provider, phase and status",
			},
			[]string{"provider", "phase", "status"},
		),
		gatewayDurations: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "deckgen_gateway_request_duration_seconds",
				Help:    "Duration of LLM gateway calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"provider", "phase"},
		),
	}
}

// ObserveGatewayCall implémente llm.CallRecorder
func (r *Recorder) ObserveGatewayCall(provider, phase string, success bool, duration time.Duration) {
	r.gatewayRequests.WithLabelValues(provider, phase, status(success)).Inc()
	r.gatewayDurations.WithLabelValues(provider, phase).Observe(duration.Seconds())
}

func (r *Recorder) ObservePhase(phase string, duration time.Duration) {
	r.phaseDuration.WithLabelValues(phase).Observe(duration.Seconds())
}

func (r *Recorder) JobStarted() {
	r.jobsActive.Inc()
}

// JobFinished décrémente la jauge et compte le job avec son statut final
func (r *Recorder) JobFinished(task string, success bool) {
	r.jobsActive.Dec()
	if task == "" {
		task = "create"
	}
	r.jobsTotal.WithLabelValues(task, status(success)).Inc()
}

func status(success bool) string {
	if success {
		return statusSuccess
	}
	return statusError
}
