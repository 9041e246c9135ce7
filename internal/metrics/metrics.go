package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketplace_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	BookingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_bookings_total",
			Help: "Bookings created at checkout",
		},
		[]string{"status", "payment_method"},
	)

	BookingTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_booking_transitions_total",
			Help: "Booking status changes after checkout",
		},
		[]string{"status", "source"},
	)

	WebhooksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_webhooks_total",
			Help: "Gateway webhooks received, by event type and outcome",
		},
		[]string{"type", "outcome"},
	)

	WalletPostingsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "marketplace_wallet_postings_total",
			Help: "Wallet ledger rows written",
		},
		[]string{"type"},
	)

	InvoicesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "marketplace_invoices_total",
			Help: "Invoices generated",
		},
	)

	EscrowHeld = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "marketplace_escrow_held_holds",
			Help: "Escrow holds waiting for release",
		},
	)

	SweepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "marketplace_sweep_duration_seconds",
			Help:    "Scheduled sweep duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"job"},
	)
)

func RecordHTTPRequest(method, path, status string, duration float64) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path).Observe(duration)
}

func RecordBooking(status, paymentMethod string) {
	BookingsTotal.WithLabelValues(status, paymentMethod).Inc()
}

func RecordBookingTransition(status, source string) {
	BookingTransitionsTotal.WithLabelValues(status, source).Inc()
}

func RecordWebhook(eventType, outcome string) {
	WebhooksTotal.WithLabelValues(eventType, outcome).Inc()
}

func RecordWalletPosting(entryType string) {
	WalletPostingsTotal.WithLabelValues(entryType).Inc()
}

func RecordInvoice() {
	InvoicesTotal.Inc()
	EscrowHeld.Inc()
}

func RecordSettlement() {
	EscrowHeld.Dec()
}

func RecordSweep(job string, seconds float64) {
	SweepDuration.WithLabelValues(job).Observe(seconds)
}
