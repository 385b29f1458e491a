package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveSessions tracks the number of live realtime connections.
	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "chatline_active_sessions",
			Help: "Number of live realtime connections",
		},
	)

	// Deliveries counts pushes attempted by the delivery router by event and result.
	Deliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatline_deliveries_total",
			Help: "Realtime event pushes by event type and result",
		},
		[]string{"event", "result"},
	)

	// AuthFailures counts rejected tokens by reason.
	AuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatline_auth_failures_total",
			Help: "Rejected tokens by reason",
		},
		[]string{"reason"},
	)

	// StatusAdvances counts message rows moved to a new delivery status.
	StatusAdvances = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chatline_message_status_advances_total",
			Help: "Messages advanced to a delivery status",
		},
		[]string{"status"},
	)
)
