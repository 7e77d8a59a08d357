package routes

import (
	"net/http"

	"github.com/dukerupert/academy/internal/handler/admin"
	"github.com/dukerupert/academy/internal/handler/storefront"
	"github.com/dukerupert/academy/internal/handler/webhook"
	"github.com/dukerupert/academy/internal/router"
)

// StorefrontDeps contains dependencies for learner-facing routes
type StorefrontDeps struct {
	CatalogHandler *storefront.CatalogHandler
	PaymentHandler *storefront.PaymentHandler
	RoadmapHandler *storefront.RoadmapHandler
	AccountHandler *storefront.AccountHandler

	// StrictLimit guards login, signup and coupon probing.
	StrictLimit router.Middleware
}

// AdminDeps contains dependencies for back-office routes
type AdminDeps struct {
	DiscountHandler   *admin.DiscountHandler
	CommissionHandler *admin.CommissionHandler
	AnalyticsHandler  *admin.AnalyticsHandler
}

// WebhookDeps contains dependencies for gateway callback routes
type WebhookDeps struct {
	PaymentCallbackHandler *webhook.PaymentCallbackHandler
}

// SystemDeps contains the operational endpoints.
type SystemDeps struct {
	HealthHandler  http.HandlerFunc
	MetricsHandler http.Handler
}
