package routes

import (
	"net/http"

	"github.com/dukerupert/academy/internal/middleware"
	"github.com/dukerupert/academy/internal/router"
)

// RegisterStorefrontRoutes registers the catalog, account, payment and
// roadmap routes. Browsing is anonymous; a signed-in viewer only changes
// which personal discounts apply.
func RegisterStorefrontRoutes(r *router.Router, deps StorefrontDeps) {
	strict := deps.StrictLimit
	if strict == nil {
		strict = func(next http.Handler) http.Handler { return next }
	}

	// Catalog and cart
	r.Get("/courses", deps.CatalogHandler.ListCourses)
	r.Get("/courses/{id}", deps.CatalogHandler.GetCourse)
	r.Post("/cart-total", deps.CatalogHandler.CartTotal)
	r.Post("/check-coupon-code", deps.CatalogHandler.CheckCouponCode, strict)

	// Accounts
	r.Post("/signup", deps.AccountHandler.Signup, strict)
	r.Post("/login", deps.AccountHandler.Login, strict)
	r.Post("/logout", deps.AccountHandler.Logout)
	r.Get("/m/{code}", deps.AccountHandler.MarketingLink)

	account := r.Group(middleware.RequireAuth)
	account.Get("/me", deps.AccountHandler.Me)
	account.Get("/my-courses", deps.AccountHandler.MyCourses)

	// Payments
	account.Post("/course-payment", deps.PaymentHandler.CoursePayment)
	account.Post("/wallet-payment", deps.PaymentHandler.WalletPayment)

	// Roadmap
	account.Post("/bundles/activate/{id}", deps.RoadmapHandler.Activate)
	account.Get("/user-roadmap", deps.RoadmapHandler.Current)
	account.Post("/user-roadmap/activate-next-course", deps.RoadmapHandler.Next)
	account.Post("/user-roadmap/finish-roadmap", deps.RoadmapHandler.Finish)
	account.Delete("/user-roadmap", deps.RoadmapHandler.Cancel)
}
