package service

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/academy/internal/domain"
	"github.com/dukerupert/academy/internal/repository"
)

// AdminService is the back-office: discount management and the global
// payments switch. Commission payouts live on CommissionService.
type AdminService interface {
	CreateDiscount(ctx context.Context, params CreateDiscountParams) (repository.Discount, error)
	ListDiscounts(ctx context.Context) ([]repository.Discount, error)
	DeactivateDiscount(ctx context.Context, id uuid.UUID) error

	SetPaymentsDisabled(ctx context.Context, disabled bool) error
	PaymentsDisabled(ctx context.Context) (bool, error)
}

type CreateDiscountParams struct {
	Code       string
	Amount     int64
	AmountType string
	Type       string
	StartDate  time.Time
	EndDate    time.Time
	EmmitTo    string
	EmmitToID  uuid.UUID
	SingleUse  bool
}

type adminService struct {
	repo   repository.Querier
	logger *slog.Logger
}

func NewAdminService(repo repository.Querier, logger *slog.Logger) AdminService {
	return &adminService{repo: repo, logger: logger}
}

func (s *adminService) CreateDiscount(ctx context.Context, params CreateDiscountParams) (repository.Discount, error) {
	const op = "admin.create_discount"

	params.Code = strings.TrimSpace(params.Code)
	if err := validateDiscount(params); err != nil {
		return repository.Discount{}, err
	}

	d, err := s.repo.CreateDiscount(ctx, repository.CreateDiscountParams{
		Code:       pgText(params.Code),
		Amount:     params.Amount,
		AmountType: params.AmountType,
		Type:       params.Type,
		StartDate:  params.StartDate,
		EndDate:    params.EndDate,
		EmmitTo:    params.EmmitTo,
		EmmitToID:  pgUUID(params.EmmitToID),
		SingleUse:  params.SingleUse,
	})
	if err != nil {
		return repository.Discount{}, domain.Internal(err, op, "failed to create discount")
	}

	s.logger.Info("discount created", "discount_id", d.ID, "type", d.Type, "emmit_to", d.EmmitTo)
	return d, nil
}

func validateDiscount(p CreateDiscountParams) error {
	var verr error

	switch p.AmountType {
	case domain.AmountPercent:
		if p.Amount <= 0 || p.Amount > 100 {
			verr = domain.AddFieldError(verr, "amount", "must be between 1 and 100")
		}
	case domain.AmountNumber:
		if p.Amount <= 0 {
			verr = domain.AddFieldError(verr, "amount", "must be positive")
		}
	default:
		verr = domain.AddFieldError(verr, "amount_type", "must be percent or number")
	}

	switch p.Type {
	case domain.DiscountTypeCode:
		if p.Code == "" {
			verr = domain.AddFieldError(verr, "code", "is required for code discounts")
		}
	case domain.DiscountTypeOnCourse:
		if p.Code != "" {
			verr = domain.AddFieldError(verr, "code", "must be empty for onCourse discounts")
		}
	default:
		verr = domain.AddFieldError(verr, "type", "must be code or onCourse")
	}

	switch p.EmmitTo {
	case domain.ScopeAllCourses:
		if p.EmmitToID != uuid.Nil {
			verr = domain.AddFieldError(verr, "emmit_to_id", "must be empty for allCourses")
		}
	case domain.ScopeCourse, domain.ScopeCourseGroup, domain.ScopeTeacherCourses, domain.ScopeSingleUser:
		if p.EmmitToID == uuid.Nil {
			verr = domain.AddFieldError(verr, "emmit_to_id", "is required for "+p.EmmitTo)
		}
	default:
		verr = domain.AddFieldError(verr, "emmit_to", "is not a known scope")
	}

	if !p.EndDate.After(p.StartDate) {
		verr = domain.AddFieldError(verr, "end_date", "must be after start_date")
	}
	return verr
}

func (s *adminService) ListDiscounts(ctx context.Context) ([]repository.Discount, error) {
	items, err := s.repo.ListDiscounts(ctx)
	if err != nil {
		return nil, domain.Internal(err, "admin.list_discounts", "failed to load discounts")
	}
	return items, nil
}

func (s *adminService) DeactivateDiscount(ctx context.Context, id uuid.UUID) error {
	const op = "admin.deactivate_discount"

	n, err := s.repo.DeactivateDiscount(ctx, id)
	if err != nil {
		return domain.Internal(err, op, "failed to deactivate discount")
	}
	if n == 0 {
		return ErrDiscountNotFound.WithOp(op)
	}
	return nil
}

func (s *adminService) SetPaymentsDisabled(ctx context.Context, disabled bool) error {
	if err := s.repo.UpsertSetting(ctx, repository.UpsertSettingParams{
		Key:   domain.SettingPaymentsDisabled,
		Value: strconv.FormatBool(disabled),
	}); err != nil {
		return domain.Internal(err, "admin.set_payments_disabled", "failed to save setting")
	}
	s.logger.Warn("payments switch changed", "disabled", disabled)
	return nil
}

func (s *adminService) PaymentsDisabled(ctx context.Context) (bool, error) {
	return paymentsDisabled(ctx, s.repo, "admin.payments_disabled")
}
