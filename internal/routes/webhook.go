package routes

import (
	"github.com/dukerupert/academy/internal/router"
)

// RegisterWebhookRoutes registers the gateway callback routes.
//
// These routes have no authentication: the buyer's browser arrives here from
// the gateway, and each settlement is verified with the gateway itself.
func RegisterWebhookRoutes(r *router.Router, deps WebhookDeps) {
	r.Get("/course-payment-callback/{method}", deps.PaymentCallbackHandler.CoursePayment)
	r.Get("/wallet-payment-callback/{method}", deps.PaymentCallbackHandler.WalletPayment)
}

// RegisterSystemRoutes registers health and metrics endpoints.
func RegisterSystemRoutes(r *router.Router, deps SystemDeps) {
	r.Get("/health", deps.HealthHandler)
	if deps.MetricsHandler != nil {
		r.Handle("GET", "/metrics", deps.MetricsHandler)
	}
}
