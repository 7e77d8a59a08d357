package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/dukerupert/academy/internal/domain"
	"github.com/dukerupert/academy/internal/email"
	"github.com/dukerupert/academy/internal/events"
	"github.com/dukerupert/academy/internal/gateway"
	"github.com/dukerupert/academy/internal/repository"
	"github.com/dukerupert/academy/internal/telemetry"
)

// WalletService handles wallet top-ups through an external gateway.
type WalletService interface {
	// Charge validates the amount before any gateway call and persists one
	// pending wallet transaction.
	Charge(ctx context.Context, params ChargeParams) (*ChargeResult, error)

	// Settle handles the gateway callback. A transaction is credited once.
	Settle(ctx context.Context, params SettleParams) (*SettleResult, error)
}

type ChargeParams struct {
	User   *domain.User
	Amount int64
	Method string
}

type ChargeResult struct {
	URL       string `json:"url"`
	Authority string `json:"authority"`
}

type walletService struct {
	repo     repository.Querier
	gateways *gateway.Registry
	notifier Notifier
	config   CheckoutConfig
	logger   *slog.Logger
	now      func() time.Time
}

func NewWalletService(repo repository.Querier, gateways *gateway.Registry, notifier Notifier, config CheckoutConfig, logger *slog.Logger) WalletService {
	return &walletService{
		repo:     repo,
		gateways: gateways,
		notifier: notifier,
		config:   config,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *walletService) Charge(ctx context.Context, params ChargeParams) (*ChargeResult, error) {
	const op = "wallet.charge"

	if params.User == nil {
		return nil, domain.Unauthorized(op, "Login required")
	}

	var verr error
	if params.Amount < domain.MinWalletCharge {
		verr = domain.AddFieldError(verr, "amount", "must be at least 10000")
	}
	if params.Method == domain.MethodWallet || params.Method == domain.MethodFree {
		verr = domain.AddFieldError(verr, "method", "cannot charge the wallet with this method")
	}
	if verr != nil {
		rejectCheckout("wallet_validation")
		return nil, verr
	}

	if err := checkPaymentsEnabled(ctx, s.repo, params.User, op); err != nil {
		rejectCheckout("payments_disabled")
		return nil, err
	}

	provider, err := s.gateways.Get(params.Method)
	if err != nil {
		return nil, domain.NewValidationError(op, "method", "unknown payment method")
	}

	ident, err := provider.GetIdentifier(ctx, gateway.IdentifierParams{
		Amount:      params.Amount,
		CallbackURL: callbackURL(s.config.CallbackBaseURL, "/wallet-payment-callback/", provider.Name()),
		Description: "Wallet top-up",
		Phone:       params.User.Phone,
		Email:       params.User.Email,
	})
	if err != nil || ident == nil || ident.Value == "" {
		if err == nil {
			err = gateway.ErrEmptyIdentifier
		}
		rejectCheckout("gateway")
		s.logger.Warn("gateway refused wallet charge", "method", provider.Name(), "amount", params.Amount, "error", err)
		telemetry.CaptureError(ctx, err, map[string]any{"method": provider.Name(), "amount": params.Amount})
		return nil, &domain.Error{Code: ErrGatewayIdentifier.Code, Message: ErrGatewayIdentifier.Message, Op: op, Err: err}
	}

	if _, err := s.repo.CreateWalletTransaction(ctx, repository.CreateWalletTransactionParams{
		UserID:       params.User.ID,
		ChargeAmount: params.Amount,
		Authority:    ident.Value,
		Method:       provider.Name(),
	}); err != nil {
		return nil, domain.Internal(err, op, "failed to save wallet transaction")
	}

	s.logger.Info("wallet charge initiated", "user_id", params.User.ID, "authority", ident.Value, "amount", params.Amount)
	return &ChargeResult{URL: ident.URL, Authority: ident.Value}, nil
}

func (s *walletService) Settle(ctx context.Context, params SettleParams) (*SettleResult, error) {
	const op = "wallet.settle"

	result := &SettleResult{Method: params.Method}
	defer func() { recordSettled("wallet_"+params.Method, result.Result) }()

	provider, err := s.gateways.Get(params.Method)
	if err != nil {
		result.Result = ResultNotFound
		return result, nil
	}
	resp, err := provider.ParseCallback(params.Query)
	if err != nil {
		result.Result = ResultInvalidCallback
		return result, nil
	}
	result.Authority = resp.Identifier

	tx, err := s.repo.GetWalletTransactionByAuthority(ctx, resp.Identifier)
	if errors.Is(err, repository.ErrNoRows) {
		result.Result = ResultNotFound
		return result, nil
	}
	if err != nil {
		result.Result = ResultFailed
		return result, domain.Internal(err, op, "failed to load wallet transaction")
	}
	if tx.Method != provider.Name() {
		result.Result = ResultNotFound
		return result, nil
	}
	if tx.Status != domain.PaymentWaiting {
		result.Result = resultForStatus(tx.Status)
		return result, nil
	}

	if !resp.OK() {
		if _, err := s.repo.FailWalletTransaction(ctx, repository.FailPaymentParams{
			Authority: tx.Authority,
			Status:    domain.PaymentCancel,
		}); err != nil {
			return result, domain.Internal(err, op, "failed to cancel wallet transaction")
		}
		result.Result = ResultCanceled
		return result, nil
	}

	verification, err := provider.Verify(ctx, tx.Authority, tx.ChargeAmount)
	if err != nil {
		payload := gateway.ErrorPayload(err)
		if payload == nil {
			payload, _ = json.Marshal(map[string]string{"error": err.Error()})
		}
		if _, ferr := s.repo.FailWalletTransaction(ctx, repository.FailPaymentParams{
			Authority:    tx.Authority,
			Status:       domain.PaymentError,
			GatewayError: payload,
		}); ferr != nil {
			s.logger.Error("failed to mark wallet transaction as failed", "authority", tx.Authority, "error", ferr)
		}
		telemetry.CaptureError(ctx, err, map[string]any{"authority": tx.Authority, "method": provider.Name()})
		result.Result = ResultFailed
		return result, nil
	}

	claimed, err := s.repo.ClaimWalletTransaction(ctx, repository.ClaimWalletTransactionParams{
		ID:              tx.ID,
		PaidAmount:      tx.ChargeAmount,
		TransactionCode: pgText(verification.TransactionCode),
	})
	if errors.Is(err, repository.ErrNoRows) {
		// Settled by a concurrent callback.
		result.Result = ResultOK
		return result, nil
	}
	if err != nil {
		result.Result = ResultFailed
		return result, domain.Internal(err, op, "failed to settle wallet transaction")
	}

	balance, err := s.repo.AddWalletBalance(ctx, repository.BalanceChangeParams{UserID: claimed.UserID, Amount: claimed.ChargeAmount})
	if err != nil {
		telemetry.CaptureError(ctx, err, map[string]any{"authority": tx.Authority, "user_id": claimed.UserID.String()})
		result.Result = ResultFailed
		return result, domain.Internal(err, op, "failed to credit wallet")
	}

	if telemetry.Business != nil {
		telemetry.Business.WalletCharged.WithLabelValues(provider.Name()).Add(float64(claimed.ChargeAmount))
	}
	s.logger.Info("wallet charged", "user_id", claimed.UserID, "authority", tx.Authority, "amount", claimed.ChargeAmount, "balance", balance)

	now := s.now()
	notice := email.WalletChargedEmail{Amount: claimed.ChargeAmount, NewBalance: balance, ChargedAt: now}
	if user, err := s.repo.GetUserByID(ctx, claimed.UserID); err == nil {
		notice.Name, notice.Email = user.Name, user.Email.String
	}
	s.notifier.WalletCharged(ctx, notice, events.WalletCharged{
		Authority:  tx.Authority,
		UserID:     claimed.UserID,
		Amount:     claimed.ChargeAmount,
		NewBalance: balance,
		Method:     provider.Name(),
		ChargedAt:  now,
	})

	result.Result = ResultOK
	return result, nil
}
