package storefront

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dukerupert/academy/internal/cookie"
	"github.com/dukerupert/academy/internal/handler"
	"github.com/dukerupert/academy/internal/service"
)

// PaymentHandler starts course purchases and wallet top-ups. Gateway
// callbacks are served by the webhook package.
type PaymentHandler struct {
	checkout service.CheckoutService
	wallet   service.WalletService
}

func NewPaymentHandler(checkout service.CheckoutService, wallet service.WalletService) *PaymentHandler {
	return &PaymentHandler{checkout: checkout, wallet: wallet}
}

type coursePaymentRequest struct {
	Courses    []uuid.UUID `json:"courses" validate:"max=50"`
	BundleID   uuid.UUID   `json:"bundle_id"`
	CouponCode string      `json:"coupon_code" validate:"max=64"`
	Method     string      `json:"method" validate:"required,max=32"`
}

// CoursePayment handles POST /course-payment
func (h *PaymentHandler) CoursePayment(w http.ResponseWriter, r *http.Request) {
	var req coursePaymentRequest
	if err := handler.Decode(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	result, err := h.checkout.Initiate(r.Context(), service.InitiateParams{
		User:          handler.CurrentUser(r),
		CourseIDs:     req.Courses,
		BundleID:      req.BundleID,
		CouponCode:    req.CouponCode,
		Method:        req.Method,
		MarketingCode: cookie.Get(r, cookie.MarketingCookieName),
	})
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.OK(w, result)
}

type walletPaymentRequest struct {
	Amount int64  `json:"amount" validate:"required"`
	Method string `json:"method" validate:"required,max=32"`
}

// WalletPayment handles POST /wallet-payment
func (h *PaymentHandler) WalletPayment(w http.ResponseWriter, r *http.Request) {
	var req walletPaymentRequest
	if err := handler.Decode(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	result, err := h.wallet.Charge(r.Context(), service.ChargeParams{
		User:   handler.CurrentUser(r),
		Amount: req.Amount,
		Method: req.Method,
	})
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.OK(w, result)
}
