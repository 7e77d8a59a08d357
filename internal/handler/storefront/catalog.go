package storefront

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/academy/internal/domain"
	"github.com/dukerupert/academy/internal/handler"
	"github.com/dukerupert/academy/internal/pricing"
	"github.com/dukerupert/academy/internal/service"
)

// CatalogHandler serves course listings and the cart helpers.
type CatalogHandler struct {
	catalog service.CatalogService
	pricing service.PricingService
}

func NewCatalogHandler(catalog service.CatalogService, pricingService service.PricingService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, pricing: pricingService}
}

// ListCourses handles GET /courses
func (h *CatalogHandler) ListCourses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	courses, err := h.catalog.ListCourses(ctx, domain.UserIDFromContext(ctx))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if courses == nil {
		courses = []service.CourseView{}
	}
	handler.OK(w, map[string]any{"courses": courses})
}

// GetCourse handles GET /courses/{id}
func (h *CatalogHandler) GetCourse(w http.ResponseWriter, r *http.Request) {
	id, err := handler.PathUUID(r, "id")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	ctx := r.Context()
	course, err := h.catalog.GetCourse(ctx, id, domain.UserIDFromContext(ctx))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.OK(w, course)
}

type cartTotalRequest struct {
	Courses    []uuid.UUID `json:"courses" validate:"required,min=1,max=50"`
	CouponCode string      `json:"coupon_code" validate:"max=64"`
}

// CartTotal handles POST /cart-total
func (h *CatalogHandler) CartTotal(w http.ResponseWriter, r *http.Request) {
	var req cartTotalRequest
	if err := handler.Decode(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	ctx := r.Context()
	totals, err := h.pricing.CartTotal(ctx, req.Courses, req.CouponCode, domain.UserIDFromContext(ctx))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.OK(w, totals)
}

type checkCouponRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}

type couponResponse struct {
	Code       string     `json:"code"`
	Amount     int64      `json:"amount"`
	AmountType string     `json:"amount_type"`
	EmmitTo    string     `json:"emmit_to"`
	EmmitToID  *uuid.UUID `json:"emmit_to_id,omitempty"`
	EndDate    time.Time  `json:"end_date"`
}

func newCouponResponse(d *pricing.Discount) couponResponse {
	out := couponResponse{
		Code:       d.Code,
		Amount:     d.Amount,
		AmountType: d.AmountType,
		EmmitTo:    d.EmmitTo,
		EndDate:    d.EndDate,
	}
	if d.EmmitToID != uuid.Nil {
		out.EmmitToID = &d.EmmitToID
	}
	return out
}

// CheckCouponCode handles POST /check-coupon-code
func (h *CatalogHandler) CheckCouponCode(w http.ResponseWriter, r *http.Request) {
	var req checkCouponRequest
	if err := handler.Decode(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	ctx := r.Context()
	coupon, err := h.pricing.CheckCoupon(ctx, req.Code, domain.UserIDFromContext(ctx))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.OK(w, newCouponResponse(coupon))
}
