// Package webhook serves the endpoints payment gateways send the buyer back
// to after checkout.
package webhook

import (
	"context"
	"net/http"

	"github.com/dukerupert/academy/internal/cookie"
	"github.com/dukerupert/academy/internal/domain"
	"github.com/dukerupert/academy/internal/middleware"
	"github.com/dukerupert/academy/internal/service"
	"github.com/dukerupert/academy/internal/telemetry"
)

// Settler is implemented by service.CheckoutService and service.WalletService.
type Settler interface {
	Settle(ctx context.Context, params service.SettleParams) (*service.SettleResult, error)
}

// PaymentCallbackHandler settles a payment and redirects the buyer to the
// front-end result page. The response is always a redirect: the buyer's
// browser is on the other end, not the gateway.
type PaymentCallbackHandler struct {
	checkout  Settler
	wallet    Settler
	resultURL string
}

func NewPaymentCallbackHandler(checkout, wallet Settler, resultURL string) *PaymentCallbackHandler {
	return &PaymentCallbackHandler{checkout: checkout, wallet: wallet, resultURL: resultURL}
}

// CoursePayment handles GET /course-payment-callback/{method}
func (h *PaymentCallbackHandler) CoursePayment(w http.ResponseWriter, r *http.Request) {
	h.settle(w, r, "course", h.checkout)
}

// WalletPayment handles GET /wallet-payment-callback/{method}
func (h *PaymentCallbackHandler) WalletPayment(w http.ResponseWriter, r *http.Request) {
	h.settle(w, r, "wallet", h.wallet)
}

func (h *PaymentCallbackHandler) settle(w http.ResponseWriter, r *http.Request, kind string, settler Settler) {
	ctx := r.Context()
	logger := middleware.GetLogger(ctx)
	method := r.PathValue("method")

	result, err := settler.Settle(ctx, service.SettleParams{
		Method:        method,
		Query:         r.URL.Query(),
		MarketingCode: cookie.Get(r, cookie.MarketingCookieName),
	})
	if result == nil {
		result = &service.SettleResult{Method: method}
	}
	if err != nil {
		if result.Result == "" || result.Result == service.ResultOK {
			result.Result = service.ResultFailed
		}
		logger.Error("payment settlement failed",
			"kind", kind,
			"method", method,
			"authority", result.Authority,
			"op", domain.ErrorOp(err),
			"error", err,
		)
		telemetry.CaptureError(ctx, err, map[string]any{
			"kind":      kind,
			"method":    method,
			"authority": result.Authority,
		})
	} else {
		logger.Info("payment callback",
			"kind", kind,
			"method", method,
			"authority", result.Authority,
			"result", result.Result,
		)
	}

	http.Redirect(w, r, service.PaymentResultURL(h.resultURL, result), http.StatusSeeOther)
}
