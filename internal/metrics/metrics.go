package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	loads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gymbook",
			Name:      "loads_total",
			Help:      "Count of booking list loads by outcome.",
		},
		[]string{"status"},
	)

	bookingCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gymbook",
			Name:      "bookings_created_total",
			Help:      "Count of booking create attempts by outcome.",
		},
		[]string{"status"},
	)

	validationRejected = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gymbook",
			Name:      "validation_rejected_total",
			Help:      "Count of submissions rejected client-side by reason.",
		},
		[]string{"reason"},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gymbook",
			Name:      "http_requests_total",
			Help:      "Count of handled HTTP requests by handler.",
		},
		[]string{"handler"},
	)
)

// Register registers metrics (idempotent).
func Register() {
	once.Do(func() {
		prometheus.MustRegister(loads, bookingCreated, validationRejected, httpRequests)
	})
}

func IncLoad(status string) {
	loads.WithLabelValues(status).Inc()
}

func IncBookingCreated(status string) {
	bookingCreated.WithLabelValues(status).Inc()
}

func IncValidationRejected(reason string) {
	validationRejected.WithLabelValues(reason).Inc()
}

func IncHTTP(handler string) {
	httpRequests.WithLabelValues(handler).Inc()
}
