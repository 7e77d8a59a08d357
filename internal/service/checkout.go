package service

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/academy/internal/domain"
	"github.com/dukerupert/academy/internal/email"
	"github.com/dukerupert/academy/internal/events"
	"github.com/dukerupert/academy/internal/gateway"
	"github.com/dukerupert/academy/internal/pricing"
	"github.com/dukerupert/academy/internal/repository"
	"github.com/dukerupert/academy/internal/telemetry"
)

// Settlement result codes reported to the payment result page.
const (
	ResultOK                  = "ok"
	ResultCanceled            = "canceled"
	ResultFailed              = "failed"
	ResultInsufficientBalance = "insufficient_balance"
	ResultNotFound            = "not_found"
	ResultInvalidCallback     = "invalid_callback"
)

// CheckoutService drives course purchases: pricing, the gateway round trip and
// settlement of the pending rows that share one authority.
type CheckoutService interface {
	// Initiate prices the request, obtains a gateway identifier and persists one
	// pending row per course. Nothing is persisted when the gateway refuses.
	Initiate(ctx context.Context, params InitiateParams) (*InitiateResult, error)

	// Settle handles the gateway callback. Settling an authority twice credits
	// nothing the second time.
	Settle(ctx context.Context, params SettleParams) (*SettleResult, error)
}

// CheckoutConfig holds the URLs checkout hands to gateways and payers.
type CheckoutConfig struct {
	// CallbackBaseURL is the public base URL of this API.
	CallbackBaseURL string

	// ResultURL is the front-end page settled payments are redirected to.
	ResultURL string
}

type InitiateParams struct {
	User          *domain.User
	CourseIDs     []uuid.UUID
	BundleID      uuid.UUID
	CouponCode    string
	Method        string
	MarketingCode string
}

type InitiateResult struct {
	URL       string         `json:"url"`
	Authority string         `json:"authority"`
	Totals    pricing.Totals `json:"totals"`
}

type SettleParams struct {
	Method        string
	Query         url.Values
	MarketingCode string
}

// SettleResult is the outcome of a callback.
type SettleResult struct {
	Result    string
	Authority string
	Method    string
}

// OK reports whether the payment is settled.
func (r *SettleResult) OK() bool {
	return r != nil && r.Result == ResultOK
}

// PaymentResultURL builds the result page URL for r.
func PaymentResultURL(base string, r *SettleResult) string {
	status := "nok"
	if r.OK() {
		status = "ok"
	}
	q := url.Values{}
	q.Set("status", status)
	q.Set("code", r.Result)
	if r.Authority != "" {
		q.Set("authority", r.Authority)
	}
	sep := "?"
	if strings.Contains(base, "?") {
		sep = "&"
	}
	return base + sep + q.Encode()
}

type checkoutService struct {
	repo       repository.Querier
	gateways   *gateway.Registry
	pricing    PricingService
	commission CommissionService
	analytics  AnalyticsService
	roadmaps   RoadmapService
	notifier   Notifier
	config     CheckoutConfig
	logger     *slog.Logger
	now        func() time.Time
}

func NewCheckoutService(
	repo repository.Querier,
	gateways *gateway.Registry,
	pricingService PricingService,
	commission CommissionService,
	analytics AnalyticsService,
	roadmaps RoadmapService,
	notifier Notifier,
	config CheckoutConfig,
	logger *slog.Logger,
) CheckoutService {
	return &checkoutService{
		repo:       repo,
		gateways:   gateways,
		pricing:    pricingService,
		commission: commission,
		analytics:  analytics,
		roadmaps:   roadmaps,
		notifier:   notifier,
		config:     config,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *checkoutService) Initiate(ctx context.Context, params InitiateParams) (*InitiateResult, error) {
	const op = "checkout.initiate"

	if params.User == nil {
		return nil, domain.Unauthorized(op, "Login required")
	}
	if err := checkPaymentsEnabled(ctx, s.repo, params.User, op); err != nil {
		rejectCheckout("payments_disabled")
		return nil, err
	}

	provider, err := s.gateways.Get(params.Method)
	if err != nil {
		return nil, domain.NewValidationError(op, "method", "unknown payment method")
	}

	var bundle *repository.Bundle
	ids := params.CourseIDs
	if params.BundleID != uuid.Nil {
		b, bundleIDs, err := s.loadBundle(ctx, op, params.BundleID)
		if err != nil {
			return nil, err
		}
		bundle, ids = &b, bundleIDs
	}
	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, domain.NewValidationError(op, "courses", "at least one course is required")
	}

	owned, err := s.repo.ListOwnedCourseIDs(ctx, repository.ListOwnedCourseIDsParams{UserID: params.User.ID, CourseIDs: ids})
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load owned courses")
	}
	ids = excludeIDs(ids, owned)
	if len(ids) == 0 {
		rejectCheckout("already_owned")
		return nil, ErrNothingToBuy.WithOp(op)
	}

	courses, err := s.pricing.LoadCourses(ctx, ids)
	if err != nil {
		return nil, err
	}
	items, err := s.pricing.PriceCourses(ctx, courses, params.User.ID)
	if err != nil {
		return nil, err
	}
	couponCode := strings.TrimSpace(params.CouponCode)
	if couponCode != "" {
		coupon, err := s.pricing.CheckCoupon(ctx, couponCode, params.User.ID)
		if err != nil {
			rejectCheckout("invalid_coupon")
			return nil, err
		}
		items = pricing.ApplyCoupon(items, coupon, params.User.ID, s.now())
	}
	if bundle != nil {
		items = pricing.ApplyPercentOff(items, bundle.DiscountPercent)
	}
	totals := pricing.Total(items)

	if totals.PayablePrice == 0 {
		return s.initiateFree(ctx, params, bundle, items, totals, couponCode)
	}

	user, err := s.repo.GetUserByID(ctx, params.User.ID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load user")
	}
	if provider.Name() == domain.MethodWallet && user.WalletBalance < totals.PayablePrice {
		rejectCheckout("insufficient_balance")
		return nil, ErrInsufficientBalance.WithOp(op)
	}

	ident, err := provider.GetIdentifier(ctx, gateway.IdentifierParams{
		Amount:      totals.PayablePrice,
		CallbackURL: callbackURL(s.config.CallbackBaseURL, "/course-payment-callback/", provider.Name()),
		Description: "Purchase of " + describeCourses(courses),
		Phone:       user.Phone,
		Email:       user.Email.String,
		Reference:   uuid.NewString(),
	})
	if err != nil || ident == nil || ident.Value == "" {
		if err == nil {
			err = gateway.ErrEmptyIdentifier
		}
		rejectCheckout("gateway")
		s.logger.Warn("gateway refused checkout", "method", provider.Name(), "amount", totals.PayablePrice, "error", err)
		telemetry.CaptureError(ctx, err, map[string]any{"method": provider.Name(), "amount": totals.PayablePrice})
		return nil, &domain.Error{Code: ErrGatewayIdentifier.Code, Message: ErrGatewayIdentifier.Message, Op: op, Err: err}
	}

	if _, err := s.repo.CreateUserCourses(ctx, pendingRows(params.User.ID, bundle, items, totals, ident.Value, provider.Name(), couponCode)); err != nil {
		return nil, domain.Internal(err, op, "failed to save pending purchase")
	}

	if telemetry.Business != nil {
		telemetry.Business.CheckoutStarted.WithLabelValues(provider.Name()).Inc()
	}
	s.logger.Info("checkout initiated",
		"user_id", params.User.ID,
		"authority", ident.Value,
		"method", provider.Name(),
		"courses", len(items),
		"payable", totals.PayablePrice,
	)

	return &InitiateResult{URL: ident.URL, Authority: ident.Value, Totals: totals}, nil
}

// initiateFree persists and settles a zero-priced checkout without a gateway.
func (s *checkoutService) initiateFree(ctx context.Context, params InitiateParams, bundle *repository.Bundle, items []pricing.Item, totals pricing.Totals, couponCode string) (*InitiateResult, error) {
	const op = "checkout.initiate_free"

	authority := "F" + uuid.NewString()
	rows, err := s.repo.CreateUserCourses(ctx, pendingRows(params.User.ID, bundle, items, totals, authority, domain.MethodFree, couponCode))
	if err != nil {
		return nil, domain.Internal(err, op, "failed to save free purchase")
	}
	if telemetry.Business != nil {
		telemetry.Business.CheckoutStarted.WithLabelValues(domain.MethodFree).Inc()
	}

	if _, err := s.settleRows(ctx, rows, domain.MethodFree, authority, nil, params.MarketingCode); err != nil {
		return nil, err
	}
	recordSettled(domain.MethodFree, ResultOK)

	result := &SettleResult{Result: ResultOK, Authority: authority, Method: domain.MethodFree}
	return &InitiateResult{
		URL:       PaymentResultURL(s.config.ResultURL, result),
		Authority: authority,
		Totals:    totals,
	}, nil
}

func (s *checkoutService) Settle(ctx context.Context, params SettleParams) (*SettleResult, error) {
	const op = "checkout.settle"

	result := &SettleResult{Method: params.Method}
	defer func() { recordSettled(params.Method, result.Result) }()

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

	rows, err := s.repo.ListUserCoursesByAuthority(ctx, resp.Identifier)
	if err != nil {
		result.Result = ResultFailed
		return result, domain.Internal(err, op, "failed to load purchase")
	}
	if len(rows) == 0 || rows[0].Method != provider.Name() {
		result.Result = ResultNotFound
		return result, nil
	}

	if !hasPending(rows) {
		result.Result = resultForStatus(rows[0].Status)
		return result, nil
	}

	if !resp.OK() {
		if _, err := s.repo.FailUserCourses(ctx, repository.FailPaymentParams{
			Authority: resp.Identifier,
			Status:    domain.PaymentCancel,
		}); err != nil {
			return result, domain.Internal(err, op, "failed to cancel purchase")
		}
		result.Result = ResultCanceled
		return result, nil
	}

	total := rows[0].TotalPrice

	verification, err := provider.Verify(ctx, resp.Identifier, total)
	if err != nil {
		payload := gateway.ErrorPayload(err)
		if payload == nil {
			payload, _ = json.Marshal(map[string]string{"error": err.Error()})
		}
		if _, ferr := s.repo.FailUserCourses(ctx, repository.FailPaymentParams{
			Authority:    resp.Identifier,
			Status:       domain.PaymentError,
			GatewayError: payload,
		}); ferr != nil {
			s.logger.Error("failed to mark purchase as failed", "authority", resp.Identifier, "error", ferr)
		}
		s.logger.Warn("payment verification failed; gateway will auto-reverse", "authority", resp.Identifier, "method", provider.Name(), "error", err)
		telemetry.CaptureError(ctx, err, map[string]any{"authority": resp.Identifier, "method": provider.Name()})
		result.Result = ResultFailed
		return result, nil
	}

	if provider.Name() == domain.MethodWallet {
		debited, err := s.debitWallet(ctx, rows[0])
		if err != nil {
			result.Result = ResultFailed
			return result, err
		}
		if !debited {
			result.Result = ResultInsufficientBalance
			return result, nil
		}
	}

	claimed, err := s.settleRows(ctx, rows, provider.Name(), verification.TransactionCode, verification.Payload, params.MarketingCode)
	if provider.Name() == domain.MethodWallet && !claimed {
		s.refundWallet(ctx, rows[0])
	}
	if err != nil {
		result.Result = ResultFailed
		return result, err
	}

	result.Result = ResultOK
	return result, nil
}

// debitWallet takes the checkout total from the buyer's wallet before any row
// is claimed. The debit only succeeds while the balance covers the total, so
// concurrent wallet checkouts cannot spend the same balance twice. It reports
// false, after failing the rows, when the balance is short.
func (s *checkoutService) debitWallet(ctx context.Context, first repository.UserCourse) (bool, error) {
	const op = "checkout.debit_wallet"

	total := first.TotalPrice
	balance, err := s.repo.DebitWalletBalance(ctx, repository.BalanceChangeParams{UserID: first.UserID, Amount: total})
	if err == nil {
		s.logger.Info("wallet debited", "authority", first.Authority, "user_id", first.UserID, "amount", total, "balance", balance)
		return true, nil
	}
	if !errors.Is(err, repository.ErrNoRows) {
		return false, domain.Internal(err, op, "failed to debit wallet")
	}

	details := map[string]any{"error": "insufficient wallet balance", "required": total}
	if user, uerr := s.repo.GetUserByID(ctx, first.UserID); uerr == nil {
		details["balance"] = user.WalletBalance
	}
	payload, _ := json.Marshal(details)
	if _, err := s.repo.FailUserCourses(ctx, repository.FailPaymentParams{
		Authority:    first.Authority,
		Status:       domain.PaymentError,
		GatewayError: payload,
	}); err != nil {
		return false, domain.Internal(err, op, "failed to mark purchase as failed")
	}
	return false, nil
}

// refundWallet returns a debit when this callback claimed nothing, which
// happens when a concurrent callback for the same authority settled first.
func (s *checkoutService) refundWallet(ctx context.Context, first repository.UserCourse) {
	balance, err := s.repo.AddWalletBalance(ctx, repository.BalanceChangeParams{UserID: first.UserID, Amount: first.TotalPrice})
	if err != nil {
		s.logger.Error("failed to refund wallet debit", "authority", first.Authority, "user_id", first.UserID, "error", err)
		telemetry.CaptureError(ctx, err, map[string]any{"authority": first.Authority, "user_id": first.UserID.String()})
		return
	}
	s.logger.Warn("wallet debit refunded", "authority", first.Authority, "user_id", first.UserID, "amount", first.TotalPrice, "balance", balance)
}

// settleRows claims every pending row and applies its side effects. Cuts are
// computed before the claim; credits only follow a successful claim. The
// once-per-checkout effects run only when the first row was claimed here,
// which is what the returned flag reports.
func (s *checkoutService) settleRows(ctx context.Context, rows []repository.UserCourse, method, transactionCode string, payload []byte, marketingCode string) (bool, error) {
	const op = "checkout.settle_rows"

	user, err := s.repo.GetUserByID(ctx, rows[0].UserID)
	if err != nil {
		return false, domain.Internal(err, op, "failed to load user")
	}

	marketerID, err := s.commission.FindMarketer(ctx, user, marketingCode)
	if err != nil {
		s.logger.Warn("marketer attribution failed", "user_id", user.ID, "error", err)
		marketerID = uuid.Nil
	}

	var (
		firstClaimed bool
		cutsTotal    int64
		lines        []email.ReceiptLine
		soldIDs      []uuid.UUID
	)

	for i, row := range rows {
		if row.Status != domain.PaymentWaiting {
			continue
		}

		course, err := s.repo.GetCourse(ctx, row.CourseID)
		if err != nil {
			return firstClaimed, domain.Internal(err, op, "failed to load course")
		}
		teacherCut, err := s.commission.TeacherCut(ctx, course, row.CoursePayablePrice)
		if err != nil {
			return firstClaimed, err
		}
		marketerCut, err := s.commission.MarketerCut(ctx, course.ID, marketerID, row.CoursePayablePrice)
		if err != nil {
			return firstClaimed, err
		}

		_, err = s.repo.ClaimUserCourse(ctx, repository.ClaimUserCourseParams{
			ID:              row.ID,
			MarketerID:      pgUUID(marketerID),
			TeacherCut:      teacherCut,
			MarketerCut:     marketerCut,
			PaidAmount:      row.CoursePayablePrice,
			TransactionCode: pgText(transactionCode),
		})
		if errors.Is(err, repository.ErrNoRows) {
			continue
		}
		if err != nil {
			return firstClaimed, domain.Internal(err, op, "failed to settle purchase row")
		}

		if i == 0 {
			firstClaimed = true
		}
		cutsTotal += teacherCut + marketerCut
		soldIDs = append(soldIDs, course.ID)
		lines = append(lines, email.ReceiptLine{Title: course.Title, Price: row.CoursePrice, PayablePrice: row.CoursePayablePrice})

		s.applyRowEffects(ctx, user.ID, course, marketerID, teacherCut, marketerCut)
		if telemetry.Business != nil {
			telemetry.Business.CoursesSold.WithLabelValues(method).Inc()
		}
	}

	if !firstClaimed {
		return false, nil
	}

	total := rows[0].TotalPrice
	income := total - cutsTotal
	authority := rows[0].Authority

	if err := s.analytics.Record(ctx, AnalyticEvent{InfoName: domain.InfoIncome, ForGroup: domain.GroupAdmin, Count: income}); err != nil {
		s.logger.Warn("failed to record income", "authority", authority, "error", err)
	}

	if rows[0].CouponCode.Valid {
		s.consumeCoupon(ctx, rows[0].CouponCode.String)
	}

	s.audit(ctx, rows[0], method, cutsTotal, income, transactionCode, payload)

	if telemetry.Business != nil {
		telemetry.Business.RevenueCollected.WithLabelValues(method).Add(float64(total))
	}

	now := s.now()
	s.notifier.PurchaseSettled(ctx,
		email.PurchaseReceiptEmail{
			Name:            user.Name,
			Email:           user.Email.String,
			Authority:       authority,
			TransactionCode: transactionCode,
			PaidAt:          now,
			Courses:         lines,
			TotalPrice:      total,
			Method:          method,
		},
		events.PurchaseSettled{
			Authority:  authority,
			UserID:     user.ID,
			CourseIDs:  soldIDs,
			TotalPrice: total,
			Income:     income,
			Method:     method,
			SettledAt:  now,
		},
	)

	s.logger.Info("checkout settled",
		"authority", authority,
		"method", method,
		"user_id", user.ID,
		"courses", len(soldIDs),
		"total", total,
		"cuts", cutsTotal,
	)
	return true, nil
}

// applyRowEffects runs the per-course side effects of a claimed row. Failures
// are logged; the row stays settled.
func (s *checkoutService) applyRowEffects(ctx context.Context, userID uuid.UUID, course repository.Course, marketerID uuid.UUID, teacherCut, marketerCut int64) {
	log := s.logger.With("user_id", userID, "course_id", course.ID)

	if err := s.repo.IncrementCourseBuyCount(ctx, course.ID); err != nil {
		log.Warn("failed to increment buy count", "error", err)
	}
	if err := s.analytics.Record(ctx, AnalyticEvent{
		InfoName:   domain.InfoBuyCount,
		ForGroup:   domain.GroupAdmin,
		TeacherID:  course.TeacherID,
		MarketerID: marketerID,
		Count:      1,
	}); err != nil {
		log.Warn("failed to record buy count", "error", err)
	}
	if err := s.commission.CreditTeacher(ctx, course.TeacherID, teacherCut); err != nil {
		log.Error("failed to credit teacher", "teacher_id", course.TeacherID, "cut", teacherCut, "error", err)
		telemetry.CaptureError(ctx, err, map[string]any{"teacher_id": course.TeacherID.String(), "cut": teacherCut})
	}
	if err := s.commission.CreditMarketer(ctx, marketerID, marketerCut); err != nil {
		log.Error("failed to credit marketer", "marketer_id", marketerID, "cut", marketerCut, "error", err)
		telemetry.CaptureError(ctx, err, map[string]any{"marketer_id": marketerID.String(), "cut": marketerCut})
	}
	if err := s.roadmaps.ActivateInRoadmap(ctx, userID, course.ID); err != nil {
		log.Warn("failed to start roadmap course", "error", err)
	}
}

// consumeCoupon deactivates a single-use coupon after its first settlement.
func (s *checkoutService) consumeCoupon(ctx context.Context, code string) {
	d, err := s.repo.GetActiveDiscountByCode(ctx, repository.GetActiveDiscountByCodeParams{Code: code, Now: s.now()})
	if err != nil {
		if !errors.Is(err, repository.ErrNoRows) {
			s.logger.Warn("failed to load coupon", "code", code, "error", err)
		}
		return
	}
	if !d.SingleUse {
		return
	}
	if _, err := s.repo.DeactivateDiscount(ctx, d.ID); err != nil {
		s.logger.Warn("failed to deactivate single-use coupon", "code", code, "error", err)
	}
}

func (s *checkoutService) audit(ctx context.Context, row repository.UserCourse, method string, cutsTotal, income int64, transactionCode string, gatewayPayload []byte) {
	payload, err := json.Marshal(map[string]any{
		"transaction_code": transactionCode,
		"user_id":          row.UserID,
		"gateway":          json.RawMessage(orEmptyObject(gatewayPayload)),
	})
	if err == nil {
		err = s.repo.CreateSettlementAudit(ctx, repository.CreateSettlementAuditParams{
			Authority:  row.Authority,
			Method:     method,
			TotalPrice: row.TotalPrice,
			CutsTotal:  cutsTotal,
			Income:     income,
			Payload:    payload,
		})
	}
	if err != nil {
		s.logger.Error("failed to write settlement audit", "authority", row.Authority, "error", err)
		telemetry.CaptureError(ctx, err, map[string]any{"authority": row.Authority, "method": method})
	}
}

func (s *checkoutService) loadBundle(ctx context.Context, op string, bundleID uuid.UUID) (repository.Bundle, []uuid.UUID, error) {
	bundle, err := s.repo.GetBundle(ctx, bundleID)
	if errors.Is(err, repository.ErrNoRows) || (err == nil && bundle.Status != domain.StatusActive) {
		return repository.Bundle{}, nil, ErrBundleNotFound.WithOp(op)
	}
	if err != nil {
		return repository.Bundle{}, nil, domain.Internal(err, op, "failed to load bundle")
	}
	courses, err := s.repo.ListBundleCourses(ctx, bundleID)
	if err != nil {
		return repository.Bundle{}, nil, domain.Internal(err, op, "failed to load bundle courses")
	}
	ids := make([]uuid.UUID, len(courses))
	for i, c := range courses {
		ids[i] = c.CourseID
	}
	return bundle, ids, nil
}

func callbackURL(base, path, method string) string {
	return strings.TrimRight(base, "/") + path + url.PathEscape(method)
}

func pendingRows(userID uuid.UUID, bundle *repository.Bundle, items []pricing.Item, totals pricing.Totals, authority, method, couponCode string) []repository.CreateUserCourseParams {
	var bundleID uuid.UUID
	if bundle != nil {
		bundleID = bundle.ID
	}
	rows := make([]repository.CreateUserCourseParams, len(items))
	for i, it := range items {
		rows[i] = repository.CreateUserCourseParams{
			UserID:             userID,
			CourseID:           it.Course.ID,
			BundleID:           pgUUID(bundleID),
			CoursePrice:        it.Course.Price,
			CoursePayablePrice: it.DiscountedPrice,
			TotalPrice:         totals.PayablePrice,
			Authority:          authority,
			Method:             method,
			CouponCode:         pgText(couponCode),
		}
	}
	return rows
}

// checkPaymentsEnabled rejects non-admins while the payments flag is set.
func checkPaymentsEnabled(ctx context.Context, repo repository.Querier, user *domain.User, op string) error {
	if user.IsAdmin() {
		return nil
	}
	disabled, err := paymentsDisabled(ctx, repo, op)
	if err != nil {
		return err
	}
	if disabled {
		return ErrPaymentsDisabled.WithOp(op)
	}
	return nil
}

// paymentsDisabled reads the payments flag. A missing or unparsable value
// means payments are on.
func paymentsDisabled(ctx context.Context, repo repository.Querier, op string) (bool, error) {
	v, err := repo.GetSetting(ctx, domain.SettingPaymentsDisabled)
	if errors.Is(err, repository.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, domain.Internal(err, op, "failed to load payment settings")
	}
	disabled, err := strconv.ParseBool(v)
	return err == nil && disabled, nil
}

func hasPending(rows []repository.UserCourse) bool {
	for _, r := range rows {
		if r.Status == domain.PaymentWaiting {
			return true
		}
	}
	return false
}

func resultForStatus(status string) string {
	switch status {
	case domain.PaymentOK:
		return ResultOK
	case domain.PaymentCancel:
		return ResultCanceled
	default:
		return ResultFailed
	}
}

func excludeIDs(ids, exclude []uuid.UUID) []uuid.UUID {
	skip := make(map[uuid.UUID]struct{}, len(exclude))
	for _, id := range exclude {
		skip[id] = struct{}{}
	}
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, ok := skip[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}

func orEmptyObject(b []byte) []byte {
	if len(b) == 0 || !json.Valid(b) {
		return []byte("{}")
	}
	return b
}

func rejectCheckout(reason string) {
	if telemetry.Business != nil {
		telemetry.Business.CheckoutRejected.WithLabelValues(reason).Inc()
	}
}

func recordSettled(method, result string) {
	if telemetry.Business != nil {
		telemetry.Business.CheckoutSettled.WithLabelValues(method, result).Inc()
	}
}
