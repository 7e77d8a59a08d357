package admin

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dukerupert/academy/internal/handler"
	"github.com/dukerupert/academy/internal/service"
)

type CommissionHandler struct {
	commission service.CommissionService
}

func NewCommissionHandler(commission service.CommissionService) *CommissionHandler {
	return &CommissionHandler{commission: commission}
}

type payOutRequest struct {
	UserID      uuid.UUID `json:"user_id" validate:"required"`
	Amount      int64     `json:"amount" validate:"required,gt=0"`
	Description string    `json:"description" validate:"max=500"`
}

// PayOut handles POST /admin/commission-payments
func (h *CommissionHandler) PayOut(w http.ResponseWriter, r *http.Request) {
	var req payOutRequest
	if err := handler.Decode(r, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	payment, err := h.commission.PayOut(r.Context(), service.PayOutParams{
		UserID:      req.UserID,
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.JSON(w, http.StatusCreated, handler.NewCommissionPaymentResponse(payment))
}

// ListForUser handles GET /admin/commission-payments/{user_id}
func (h *CommissionHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	userID, err := handler.PathUUID(r, "user_id")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	h.list(w, r, userID)
}

// ListMine handles GET /commission-payments for teachers and marketers.
func (h *CommissionHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, handler.CurrentUser(r).ID)
}

func (h *CommissionHandler) list(w http.ResponseWriter, r *http.Request, userID uuid.UUID) {
	payments, err := h.commission.ListPayments(r.Context(), userID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.OK(w, map[string]any{"payments": handler.MapSlice(payments, handler.NewCommissionPaymentResponse)})
}
