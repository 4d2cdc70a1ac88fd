package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FormSubmissionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedbackweb_form_submissions_total",
		Help: "Gated form submissions by form and outcome (forwarded, rejected).",
	}, []string{"form", "outcome"})

	FieldFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedbackweb_field_failures_total",
		Help: "Fields that failed validation, by form and field kind.",
	}, []string{"form", "kind"})

	ValidationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "feedbackweb_validation_duration_seconds",
		Help:    "Time spent evaluating and annotating a submitted form.",
		Buckets: []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
	})

	SessionChecksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedbackweb_session_checks_total",
		Help: "Session lookups by result (none, user, rejected).",
	}, []string{"result"})

	FlashMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "feedbackweb_flash_messages_total",
		Help: "Flash notifications queued, by type.",
	}, []string{"type"})

	UpstreamErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "feedbackweb_upstream_errors_total",
		Help: "Requests the reverse proxy could not deliver to the upstream.",
	})
)
