package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Recorder agrupa las metricas del motor de conviccion y consenso.
type Recorder struct {
	convictions   *prometheus.CounterVec
	challenges    *prometheus.CounterVec
	domainErrors  *prometheus.CounterVec
	sweepDuration prometheus.Histogram
	sweepSignals  prometheus.Gauge
}

// New registra las metricas en reg. Con reg nil no se registra nada (tests).
func New(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		convictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "signalnet",
				Name:      "convictions_total",
				Help:      "Convictions written, by outcome (created or updated)",
			},
			[]string{"outcome"},
		),
		challenges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "signalnet",
				Name:      "challenge_transitions_total",
				Help:      "Challenge state transitions, by resulting status",
			},
			[]string{"status"},
		),
		domainErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "signalnet",
				Name:      "domain_errors_total",
				Help:      "Business rule failures, by kind",
			},
			[]string{"kind"},
		),
		sweepDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: "signalnet",
				Subsystem: "momentum",
				Name:      "sweep_duration_seconds",
				Help:      "Duration of momentum recompute sweeps",
				Buckets:   prometheus.DefBuckets,
			},
		),
		sweepSignals: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "signalnet",
				Subsystem: "momentum",
				Name:      "sweep_signals",
				Help:      "Signals recomputed by the last momentum sweep",
			},
		),
	}
	if reg != nil {
		reg.MustRegister(r.convictions, r.challenges, r.domainErrors, r.sweepDuration, r.sweepSignals)
	}
	return r
}

func (r *Recorder) RecordConviction(created bool) {
	if r == nil {
		return
	}
	outcome := "updated"
	if created {
		outcome = "created"
	}
	r.convictions.WithLabelValues(outcome).Inc()
}

func (r *Recorder) RecordChallenge(status string) {
	if r == nil {
		return
	}
	r.challenges.WithLabelValues(status).Inc()
}

func (r *Recorder) RecordDomainError(kind string) {
	if r == nil || kind == "" {
		return
	}
	r.domainErrors.WithLabelValues(kind).Inc()
}

func (r *Recorder) RecordSweep(seconds float64, signals int) {
	if r == nil {
		return
	}
	r.sweepDuration.Observe(seconds)
	r.sweepSignals.Set(float64(signals))
}
