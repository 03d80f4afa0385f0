package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fairway",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	reservationsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fairway",
			Name:      "reservations_created_total",
			Help:      "Reservations committed, by lane.",
		},
		[]string{"lane"},
	)

	submitConflicts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fairway",
			Name:      "submit_conflicts_total",
			Help:      "Submissions rejected because re-validation found the slot taken.",
		},
	)

	cancellations = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fairway",
			Name:      "cancellations_total",
			Help:      "Reservations cancelled via self-service lookup.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, reservationsCreated, submitConflicts, cancellations)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

// IncReservationCreated counts one committed reservation.
func IncReservationCreated(lane string) {
	reservationsCreated.WithLabelValues(lane).Inc()
}

// IncSubmitConflict counts one re-validation conflict.
func IncSubmitConflict() {
	submitConflicts.Inc()
}

// IncCancellation counts one completed cancellation.
func IncCancellation() {
	cancellations.Inc()
}
