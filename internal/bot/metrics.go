package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics структура для метрик Prometheus
type Metrics struct {
	MessagesProcessed    prometheus.Counter
	CallbacksProcessed   prometheus.Counter
	ErrorsTotal          prometheus.Counter
	UpdateProcessingTime prometheus.Histogram
	BookingsStarted      *prometheus.CounterVec
	BookingsFinalized    *prometheus.CounterVec
}

// NewMetrics создает новые метрики
func NewMetrics() *Metrics {
	return &Metrics{
		MessagesProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_messages_total",
			Help: "Total number of messages processed",
		}),

		CallbacksProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_callbacks_total",
			Help: "Total number of callback queries processed",
		}),

		ErrorsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "telegram_bot_errors_total",
			Help: "Total number of handler errors and panics",
		}),

		UpdateProcessingTime: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "telegram_bot_update_processing_time_seconds",
			Help:    "Time spent processing updates",
			Buckets: prometheus.DefBuckets,
		}),

		BookingsStarted: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "telegram_bot_bookings_started_total",
			Help: "Booking wizards started",
		}, []string{"service"}),

		BookingsFinalized: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "telegram_bot_bookings_finalized_total",
			Help: "Bookings finalized with a payment link",
		}, []string{"service"}),
	}
}
