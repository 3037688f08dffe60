// Package metrics exposes the Prometheus instruments the service records.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal counts every HTTP request.
	RequestsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smartlock_requests_total",
		Help: "The total number of HTTP requests",
	})

	// ResponsesTotal counts responses by status code.
	ResponsesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartlock_responses_total",
		Help: "The total number of responses by status code",
	}, []string{"status"})

	// RequestDuration observes request handling time.
	RequestDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "smartlock_request_duration_seconds",
		Help:    "The request duration in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// RequestDurationByPath observes handling time per route.
	RequestDurationByPath = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "smartlock_request_duration_by_path_seconds",
		Help:    "The request duration in seconds by method and path",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path"})

	// LoginAttemptsTotal counts login attempts by outcome.
	LoginAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartlock_login_attempts_total",
		Help: "The total number of login attempts",
	}, []string{"status"})

	// OtpIssuedTotal counts issued one-time codes.
	OtpIssuedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smartlock_otp_issued_total",
		Help: "The total number of issued one-time codes",
	})

	// OtpConsumedTotal counts code redemptions by outcome.
	OtpConsumedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartlock_otp_consumed_total",
		Help: "The total number of one-time code redemptions",
	}, []string{"status"})

	// DevicePollsTotal counts device command queue polls.
	DevicePollsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "smartlock_device_polls_total",
		Help: "The total number of device command polls",
	})

	// CommandsEnqueuedTotal counts enqueued device commands by type.
	CommandsEnqueuedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "smartlock_commands_enqueued_total",
		Help: "The total number of enqueued device commands",
	}, []string{"command"})
)
