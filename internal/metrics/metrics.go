package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels used with CommandsTotal.
const (
	OutcomeApplied  = "applied"
	OutcomeRejected = "rejected"
	OutcomeDropped  = "dropped"
	OutcomeFailed   = "failed"
)

var (
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "surveysync_commands_total",
			Help: "Host commands handled, by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	EventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "surveysync_events_total",
			Help: "Events emitted towards the host, by kind",
		},
		[]string{"kind"},
	)

	EventSinkFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "surveysync_event_sink_failures_total",
			Help: "Events the sink failed to deliver",
		},
		[]string{"kind"},
	)

	InitializeTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "surveysync_initialize_total",
			Help: "Instance initializations by outcome",
		},
		[]string{"outcome"},
	)

	InstancesActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "surveysync_instances_active",
			Help: "Instances currently present in the registry",
		},
	)

	DispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "surveysync_dispatch_duration_seconds",
			Help:    "Time spent applying a host command on the loop",
			Buckets: prometheus.ExponentialBuckets(0.00005, 4, 8),
		},
		[]string{"kind"},
	)
)
