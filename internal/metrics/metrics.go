package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "machata",
			Name:      "http_requests_total",
			Help:      "HTTP requests by endpoint.",
		},
		[]string{"endpoint"},
	)

	bookingsCreated = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "machata",
			Name:      "bookings_created_total",
			Help:      "Bookings that reached awaiting_payment.",
		},
	)

	bookingsPaid = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "machata",
			Name:      "bookings_paid_total",
			Help:      "Bookings confirmed as paid.",
		},
	)

	holdsExpired = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "machata",
			Name:      "holds_expired_total",
			Help:      "Unpaid bookings cancelled after the hold window.",
		},
	)
)

// Register registers Prometheus metrics. Safe to call multiple times.
func Register() {
	once.Do(func() {
		prometheus.MustRegister(httpRequests, bookingsCreated, bookingsPaid, holdsExpired)
	})
}

// IncHTTP increments the counter for an endpoint label.
func IncHTTP(endpoint string) {
	httpRequests.WithLabelValues(endpoint).Inc()
}

func IncBookingCreated() { bookingsCreated.Inc() }

func IncBookingPaid() { bookingsPaid.Inc() }

func IncHoldExpired() { holdsExpired.Inc() }
