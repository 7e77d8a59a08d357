package routes

import (
	"github.com/dukerupert/academy/internal/domain"
	"github.com/dukerupert/academy/internal/middleware"
	"github.com/dukerupert/academy/internal/router"
)

// RegisterAdminRoutes registers the back-office routes under /admin, plus
// the commission and analytics views teachers and marketers share.
func RegisterAdminRoutes(r *router.Router, deps AdminDeps) {
	admin := r.Group(middleware.RequireAdmin)

	// Discounts
	admin.Post("/admin/discounts", deps.DiscountHandler.Create)
	admin.Get("/admin/discounts", deps.DiscountHandler.List)
	admin.Post("/admin/discounts/{id}/deactivate", deps.DiscountHandler.Deactivate)

	// Settings
	admin.Get("/admin/settings/payments", deps.DiscountHandler.PaymentsSetting)
	admin.Put("/admin/settings/payments", deps.DiscountHandler.SetPaymentsSetting)

	// Commission payouts
	admin.Post("/admin/commission-payments", deps.CommissionHandler.PayOut)
	admin.Get("/admin/commission-payments/{user_id}", deps.CommissionHandler.ListForUser)

	// Analytics across every owner
	admin.Get("/admin/analytics", deps.AnalyticsHandler.List)

	partners := r.Group(middleware.RequireRole(domain.RoleAdmin, domain.RoleTeacher, domain.RoleMarketer))
	partners.Get("/commission-payments", deps.CommissionHandler.ListMine)
	partners.Get("/analytics", deps.AnalyticsHandler.List)
}
