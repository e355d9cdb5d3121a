package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "charter", Name: "http_requests_total", Help: "Total HTTP requests handled"},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "charter",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency distribution",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "charter", Name: "notifications_total", Help: "Notification emails by event and outcome"},
		[]string{"event", "recipient", "outcome"},
	)
	NumbersAllocated = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "charter", Name: "numbers_allocated_total", Help: "Record numbers handed out per prefix"},
		[]string{"prefix"},
	)
	OfferTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "charter", Name: "offer_transitions_total", Help: "Offer status changes"},
		[]string{"from", "to"},
	)
	TicketOrders = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "charter", Name: "ticket_orders_total", Help: "Ticket orders by resulting status"},
		[]string{"status"},
	)
	JobRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{Namespace: "charter", Name: "job_runs_total", Help: "Background job runs by outcome"},
		[]string{"job", "outcome"},
	)
)
