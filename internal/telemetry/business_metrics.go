package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for the checkout, wallet and
// roadmap flows. Labels stay low-cardinality: payment method, result, event.
type BusinessMetrics struct {
	// Checkout funnel
	CheckoutStarted  *prometheus.CounterVec
	CheckoutRejected *prometheus.CounterVec
	CheckoutSettled  *prometheus.CounterVec
	CoursesSold      *prometheus.CounterVec
	RevenueCollected *prometheus.CounterVec
	CouponsApplied   *prometheus.CounterVec

	// Wallet
	WalletCharged *prometheus.CounterVec

	// Commissions
	CommissionCredited *prometheus.CounterVec
	CommissionPaidOut  prometheus.Counter

	// Roadmaps
	RoadmapEvents *prometheus.CounterVec

	// Accounts and marketing
	Signups    prometheus.Counter
	Logins     *prometheus.CounterVec
	LinkClicks prometheus.Counter

	// Background jobs
	JobsProcessed *prometheus.CounterVec
	JobsFailed    *prometheus.CounterVec
	ExpiredRows   *prometheus.CounterVec

	// Email delivery
	EmailSent   *prometheus.CounterVec
	EmailFailed *prometheus.CounterVec

	// External API performance
	GatewayLatency *prometheus.HistogramVec
}

// NewBusinessMetrics creates and registers all business metrics
func NewBusinessMetrics(namespace string) *BusinessMetrics {
	return newBusinessMetrics(promauto.With(prometheus.DefaultRegisterer), namespace)
}

func newBusinessMetrics(f promauto.Factory, namespace string) *BusinessMetrics {
	if namespace == "" {
		namespace = "academy"
	}

	subsystem := "business"

	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      name,
			Help:      help,
		}, labels)
	}

	return &BusinessMetrics{
		CheckoutStarted:  counter("checkout_started_total", "Checkouts that reached the gateway", "method"),
		CheckoutRejected: counter("checkout_rejected_total", "Checkouts rejected before the gateway", "reason"),
		CheckoutSettled:  counter("checkout_settled_total", "Checkout callbacks by outcome", "method", "result"),
		CoursesSold:      counter("courses_sold_total", "Purchase rows claimed as paid", "method"),
		RevenueCollected: counter("revenue_collected_toman", "Total price of settled checkouts", "method"),
		CouponsApplied:   counter("coupons_applied_total", "Coupon lookups by outcome", "result"),

		WalletCharged: counter("wallet_charged_toman", "Wallet top-ups credited", "method"),

		CommissionCredited: counter("commission_credited_toman", "Commission credited to balances", "role"),
		CommissionPaidOut: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "commission_paid_out_toman",
			Help:      "Commission withdrawn through payouts",
		}),

		RoadmapEvents: counter("roadmap_events_total", "Roadmap transitions", "event"),

		Signups: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "signups_total",
			Help:      "Accounts created",
		}),
		Logins: counter("logins_total", "Login attempts", "result"),
		LinkClicks: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "marketing_link_clicks_total",
			Help:      "Marketing link redirects",
		}),

		JobsProcessed: counter("jobs_processed_total", "Scheduled job runs", "job"),
		JobsFailed:    counter("jobs_failed_total", "Scheduled job failures", "job"),
		ExpiredRows:   counter("expired_payments_total", "Pending payments expired by the scheduler", "kind"),

		EmailSent:   counter("emails_sent_total", "Emails sent by type", "email_type"),
		EmailFailed: counter("emails_failed_total", "Email delivery failures", "email_type"),

		GatewayLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "gateway_api_duration_seconds",
				Help:      "Payment gateway call duration",
				Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30},
			},
			[]string{"gateway", "operation"},
		),
	}
}

// Global instance for easy access from services and handlers.
// Nil until InitBusinessMetrics runs, so callers check before use.
var Business *BusinessMetrics

// InitBusinessMetrics initializes the global business metrics instance
func InitBusinessMetrics(namespace string) *BusinessMetrics {
	Business = NewBusinessMetrics(namespace)
	return Business
}
