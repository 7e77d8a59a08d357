// Package admin serves the back office: discounts, the payments switch,
// commission payouts and analytics.
package admin

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/academy/internal/handler"
	"github.com/dukerupert/academy/internal/service"
)

type DiscountHandler struct {
	admin service.AdminService
}

func NewDiscountHandler(admin service.AdminService) *DiscountHandler {
	return &DiscountHandler{admin: admin}
}

type createDiscountRequest struct {
	Code       string    `json:"code" validate:"max=64"`
	Amount     int64     `json:"amount" validate:"required,gt=0"`
	AmountType string    `json:"amount_type" validate:"required,oneof=percent number"`
	Type       string    `json:"type" validate:"required,oneof=code onCourse"`
	StartDate  time.Time `json:"start_date" validate:"required"`
	EndDate    time.Time `json:"end_date" validate:"required"`
	EmmitTo    string    `json:"emmit_to" validate:"required"`
	EmmitToID  uuid.UUID `json:"emmit_to_id"`
	SingleUse  bool      `json:"single_use"`
}

// Create handles POST /admin/discounts
func (h *DiscountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createDiscountRequest
	if err := handler.Decode(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	d, err := h.admin.CreateDiscount(r.Context(), service.CreateDiscountParams{
		Code:       req.Code,
		Amount:     req.Amount,
		AmountType: req.AmountType,
		Type:       req.Type,
		StartDate:  req.StartDate,
		EndDate:    req.EndDate,
		EmmitTo:    req.EmmitTo,
		EmmitToID:  req.EmmitToID,
		SingleUse:  req.SingleUse,
	})
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, http.StatusCreated, handler.NewDiscountResponse(d))
}

// List handles GET /admin/discounts
func (h *DiscountHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.admin.ListDiscounts(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.OK(w, map[string]any{"discounts": handler.MapSlice(items, handler.NewDiscountResponse)})
}

// Deactivate handles POST /admin/discounts/{id}/deactivate
func (h *DiscountHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id, err := handler.PathUUID(r, "id")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if err := h.admin.DeactivateDiscount(r.Context(), id); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.NoContent(w)
}

type paymentsSwitch struct {
	Disabled *bool `json:"disabled" validate:"required"`
}

// PaymentsSetting handles GET /admin/settings/payments
func (h *DiscountHandler) PaymentsSetting(w http.ResponseWriter, r *http.Request) {
	disabled, err := h.admin.PaymentsDisabled(r.Context())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.OK(w, paymentsSwitch{Disabled: &disabled})
}

// SetPaymentsSetting handles PUT /admin/settings/payments
func (h *DiscountHandler) SetPaymentsSetting(w http.ResponseWriter, r *http.Request) {
	var req paymentsSwitch
	if err := handler.Decode(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if err := h.admin.SetPaymentsDisabled(r.Context(), *req.Disabled); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.OK(w, req)
}
