package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/academy/internal/domain"
	"github.com/dukerupert/academy/internal/pricing"
	"github.com/dukerupert/academy/internal/repository"
	"github.com/dukerupert/academy/internal/telemetry"
)

// CommissionService computes and credits teacher and marketer cuts and keeps
// the payout ledger.
type CommissionService interface {
	// TeacherCut uses the course's commission override, else the teacher's
	// default. No commission record means a zero cut.
	TeacherCut(ctx context.Context, course repository.Course, paidPrice int64) (int64, error)

	// MarketerCut requires an active marketer link for the course.
	MarketerCut(ctx context.Context, courseID, marketerID uuid.UUID, paidPrice int64) (int64, error)

	// FindMarketer attributes a purchase to the user's registering marketer
	// while that registration is fresh, else to the marketing cookie code.
	FindMarketer(ctx context.Context, user repository.User, cookieCode string) (uuid.UUID, error)

	CreditTeacher(ctx context.Context, teacherID uuid.UUID, cut int64) error
	CreditMarketer(ctx context.Context, marketerID uuid.UUID, cut int64) error

	// PayOut withdraws amount from the commission balance and appends a ledger row.
	PayOut(ctx context.Context, params PayOutParams) (repository.CommissionPayment, error)
	ListPayments(ctx context.Context, userID uuid.UUID) ([]repository.CommissionPayment, error)
}

type PayOutParams struct {
	UserID      uuid.UUID
	Amount      int64
	Description string
}

type commissionService struct {
	repo      repository.Querier
	analytics AnalyticsService
	logger    *slog.Logger
	now       func() time.Time
}

func NewCommissionService(repo repository.Querier, analytics AnalyticsService, logger *slog.Logger) CommissionService {
	return &commissionService{repo: repo, analytics: analytics, logger: logger, now: time.Now}
}

func (s *commissionService) TeacherCut(ctx context.Context, course repository.Course, paidPrice int64) (int64, error) {
	const op = "commission.teacher_cut"

	commissionID := course.CommissionID
	if !commissionID.Valid {
		teacher, err := s.repo.GetUserByID(ctx, course.TeacherID)
		if errors.Is(err, repository.ErrNoRows) {
			return 0, nil
		}
		if err != nil {
			return 0, domain.Internal(err, op, "failed to load teacher")
		}
		commissionID = teacher.CommissionID
	}
	if !commissionID.Valid {
		return 0, nil
	}

	c, err := s.repo.GetCommission(ctx, commissionID.Bytes)
	if errors.Is(err, repository.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, domain.Internal(err, op, "failed to load commission")
	}
	return pricing.Apply(paidPrice, c.Amount, c.AmountType), nil
}

func (s *commissionService) MarketerCut(ctx context.Context, courseID, marketerID uuid.UUID, paidPrice int64) (int64, error) {
	if marketerID == uuid.Nil {
		return 0, nil
	}
	link, err := s.repo.GetActiveMarketerCourse(ctx, repository.GetActiveMarketerCourseParams{
		MarketerID: marketerID,
		CourseID:   courseID,
	})
	if errors.Is(err, repository.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, domain.Internal(err, "commission.marketer_cut", "failed to load marketer link")
	}
	if link.Status != domain.StatusActive {
		return 0, nil
	}
	return pricing.Apply(paidPrice, link.Amount, link.AmountType), nil
}

func (s *commissionService) FindMarketer(ctx context.Context, user repository.User, cookieCode string) (uuid.UUID, error) {
	const op = "commission.find_marketer"

	if user.RegisteredWith.Valid && user.RegisteredWithExpiresAt.Valid &&
		user.RegisteredWithExpiresAt.Time.After(s.now()) {
		return user.RegisteredWith.Bytes, nil
	}

	code := strings.TrimSpace(cookieCode)
	if code == "" {
		return uuid.Nil, nil
	}

	marketer, err := s.repo.GetActiveMarketerByCode(ctx, code)
	if err == nil {
		return marketer.ID, nil
	}
	if !errors.Is(err, repository.ErrNoRows) {
		return uuid.Nil, domain.Internal(err, op, "failed to load marketer")
	}

	link, err := s.repo.GetActiveMarketerCourseByCode(ctx, code)
	if err == nil {
		return link.MarketerID, nil
	}
	if !errors.Is(err, repository.ErrNoRows) {
		return uuid.Nil, domain.Internal(err, op, "failed to load marketer link")
	}
	return uuid.Nil, nil
}

func (s *commissionService) CreditTeacher(ctx context.Context, teacherID uuid.UUID, cut int64) error {
	return s.credit(ctx, "commission.credit_teacher", domain.GroupTeacher, teacherID, cut)
}

func (s *commissionService) CreditMarketer(ctx context.Context, marketerID uuid.UUID, cut int64) error {
	return s.credit(ctx, "commission.credit_marketer", domain.GroupMarketer, marketerID, cut)
}

func (s *commissionService) credit(ctx context.Context, op, group string, userID uuid.UUID, cut int64) error {
	if cut <= 0 || userID == uuid.Nil {
		return nil
	}

	balance, err := s.repo.AddCommissionBalance(ctx, repository.BalanceChangeParams{UserID: userID, Amount: cut})
	if err != nil {
		return domain.Internal(err, op, "failed to credit commission")
	}
	if telemetry.Business != nil {
		telemetry.Business.CommissionCredited.WithLabelValues(group).Add(float64(cut))
	}
	s.logger.Debug("commission credited", "group", group, "user_id", userID, "cut", cut, "balance", balance)

	ev := AnalyticEvent{ForGroup: group}
	if group == domain.GroupTeacher {
		ev.TeacherID = userID
	} else {
		ev.MarketerID = userID
	}

	income, sells := ev, ev
	income.InfoName, income.Count = domain.InfoIncome, cut
	sells.InfoName, sells.Count = domain.InfoSells, 1
	if err := s.analytics.Record(ctx, income); err != nil {
		s.logger.Warn("failed to record commission income", "user_id", userID, "error", err)
	}
	if err := s.analytics.Record(ctx, sells); err != nil {
		s.logger.Warn("failed to record commission sell", "user_id", userID, "error", err)
	}
	return nil
}

func (s *commissionService) PayOut(ctx context.Context, params PayOutParams) (repository.CommissionPayment, error) {
	const op = "commission.pay_out"

	if params.Amount <= 0 {
		return repository.CommissionPayment{}, domain.NewValidationError(op, "amount", "must be positive")
	}
	if _, err := s.repo.GetUserByID(ctx, params.UserID); err != nil {
		if errors.Is(err, repository.ErrNoRows) {
			return repository.CommissionPayment{}, ErrUserNotFound.WithOp(op)
		}
		return repository.CommissionPayment{}, domain.Internal(err, op, "failed to load user")
	}

	row, err := s.repo.WithdrawCommissionBalance(ctx, repository.BalanceChangeParams{
		UserID: params.UserID,
		Amount: params.Amount,
	})
	if errors.Is(err, repository.ErrNoRows) {
		return repository.CommissionPayment{}, ErrInsufficientCommission.WithOp(op)
	}
	if err != nil {
		return repository.CommissionPayment{}, domain.Internal(err, op, "failed to withdraw commission")
	}

	payment, err := s.repo.CreateCommissionPayment(ctx, repository.CreateCommissionPaymentParams{
		UserID:        params.UserID,
		BalanceBefore: row.BalanceBefore,
		Amount:        params.Amount,
		BalanceAfter:  row.BalanceAfter,
		Description:   params.Description,
	})
	if err != nil {
		// The balance already moved; the ledger row must be repaired by hand.
		telemetry.CaptureError(ctx, err, map[string]any{
			"user_id":        params.UserID.String(),
			"amount":         params.Amount,
			"balance_before": row.BalanceBefore,
		})
		return repository.CommissionPayment{}, domain.Internal(err, op, "failed to record commission payment")
	}

	if telemetry.Business != nil {
		telemetry.Business.CommissionPaidOut.Add(float64(params.Amount))
	}
	s.logger.Info("commission paid out", "user_id", params.UserID, "amount", params.Amount, "balance_after", row.BalanceAfter)
	return payment, nil
}

func (s *commissionService) ListPayments(ctx context.Context, userID uuid.UUID) ([]repository.CommissionPayment, error) {
	payments, err := s.repo.ListCommissionPayments(ctx, userID)
	if err != nil {
		return nil, domain.Internal(err, "commission.list_payments", "failed to load commission payments")
	}
	return payments, nil
}
