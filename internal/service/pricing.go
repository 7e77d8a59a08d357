package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/academy/internal/domain"
	"github.com/dukerupert/academy/internal/pricing"
	"github.com/dukerupert/academy/internal/repository"
	"github.com/dukerupert/academy/internal/telemetry"
)

// PricingService resolves course discounts, coupons and cart totals against
// stored discount records.
type PricingService interface {
	// CourseDiscount resolves the best automatic discount for one course.
	CourseDiscount(ctx context.Context, course repository.Course, viewerID uuid.UUID) (pricing.Resolution, error)

	// PriceCourses resolves every course, keeping the input order.
	PriceCourses(ctx context.Context, courses []repository.Course, viewerID uuid.UUID) ([]pricing.Item, error)

	// LoadCourses fetches active courses in the requested order.
	LoadCourses(ctx context.Context, ids []uuid.UUID) ([]repository.Course, error)

	// CheckCoupon returns the coupon for code, or a validation error on the
	// "code" property when it is unknown, expired or belongs to another user.
	CheckCoupon(ctx context.Context, code string, viewerID uuid.UUID) (*pricing.Discount, error)

	// CartTotal prices a cart with an optional coupon.
	CartTotal(ctx context.Context, courseIDs []uuid.UUID, couponCode string, viewerID uuid.UUID) (*pricing.Totals, error)
}

type pricingService struct {
	repo   repository.Querier
	logger *slog.Logger
	now    func() time.Time
}

func NewPricingService(repo repository.Querier, logger *slog.Logger) PricingService {
	return &pricingService{repo: repo, logger: logger, now: time.Now}
}

// scopeOrder is the candidate order; earlier scopes win ties.
var scopeOrder = []string{
	domain.ScopeAllCourses,
	domain.ScopeCourse,
	domain.ScopeCourseGroup,
	domain.ScopeTeacherCourses,
	domain.ScopeSingleUser,
}

func (s *pricingService) CourseDiscount(ctx context.Context, course repository.Course, viewerID uuid.UUID) (pricing.Resolution, error) {
	now := s.now()
	c := toPricingCourse(course)

	candidates := make([]pricing.ScopedDiscount, 0, len(scopeOrder))
	for _, scope := range scopeOrder {
		var target uuid.UUID
		switch scope {
		case domain.ScopeCourse:
			target = c.ID
		case domain.ScopeCourseGroup:
			target = c.FirstGroup()
		case domain.ScopeTeacherCourses:
			target = c.TeacherID
		case domain.ScopeSingleUser:
			target = viewerID
		}
		if scope != domain.ScopeAllCourses && target == uuid.Nil {
			candidates = append(candidates, pricing.ScopedDiscount{Scope: scope})
			continue
		}

		d, err := s.repo.GetLatestScopedDiscount(ctx, repository.GetLatestScopedDiscountParams{
			Type:      domain.DiscountTypeOnCourse,
			EmmitTo:   scope,
			EmmitToID: pgUUID(target),
			Now:       now,
		})
		if errors.Is(err, repository.ErrNoRows) {
			candidates = append(candidates, pricing.ScopedDiscount{Scope: scope})
			continue
		}
		if err != nil {
			return pricing.Resolution{}, domain.Internal(err, "pricing.course_discount", "failed to load discounts")
		}
		candidates = append(candidates, pricing.ScopedDiscount{Scope: scope, Discount: toPricingDiscount(d)})
	}

	return pricing.Resolve(c, candidates, now), nil
}

func (s *pricingService) PriceCourses(ctx context.Context, courses []repository.Course, viewerID uuid.UUID) ([]pricing.Item, error) {
	items := make([]pricing.Item, 0, len(courses))
	for _, c := range courses {
		res, err := s.CourseDiscount(ctx, c, viewerID)
		if err != nil {
			return nil, err
		}
		items = append(items, pricing.Item{Course: toPricingCourse(c), Resolution: res})
	}
	return items, nil
}

func (s *pricingService) LoadCourses(ctx context.Context, ids []uuid.UUID) ([]repository.Course, error) {
	const op = "pricing.load_courses"

	ids = uniqueIDs(ids)
	if len(ids) == 0 {
		return nil, domain.NewValidationError(op, "courses", "at least one course is required")
	}

	found, err := s.repo.ListCoursesByIDs(ctx, ids)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load courses")
	}
	byID := make(map[uuid.UUID]repository.Course, len(found))
	for _, c := range found {
		byID[c.ID] = c
	}

	out := make([]repository.Course, 0, len(ids))
	for _, id := range ids {
		c, ok := byID[id]
		if !ok || c.Status != domain.StatusActive {
			return nil, domain.NotFound(op, "course", id.String())
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *pricingService) CheckCoupon(ctx context.Context, code string, viewerID uuid.UUID) (*pricing.Discount, error) {
	const op = "pricing.check_coupon"

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, domain.NewValidationError(op, "code", "is required")
	}

	d, err := s.repo.GetActiveDiscountByCode(ctx, repository.GetActiveDiscountByCodeParams{Code: code, Now: s.now()})
	if errors.Is(err, repository.ErrNoRows) {
		recordCoupon("not_found")
		return nil, invalidCoupon(op)
	}
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load coupon")
	}

	coupon := toPricingDiscount(d)
	if coupon.EmmitTo == domain.ScopeSingleUser && (viewerID == uuid.Nil || coupon.EmmitToID != viewerID) {
		recordCoupon("wrong_user")
		return nil, invalidCoupon(op)
	}

	recordCoupon("valid")
	return coupon, nil
}

func (s *pricingService) CartTotal(ctx context.Context, courseIDs []uuid.UUID, couponCode string, viewerID uuid.UUID) (*pricing.Totals, error) {
	courses, err := s.LoadCourses(ctx, courseIDs)
	if err != nil {
		return nil, err
	}
	items, err := s.PriceCourses(ctx, courses, viewerID)
	if err != nil {
		return nil, err
	}

	if couponCode != "" {
		coupon, err := s.CheckCoupon(ctx, couponCode, viewerID)
		if err != nil {
			return nil, err
		}
		items = pricing.ApplyCoupon(items, coupon, viewerID, s.now())
	}

	totals := pricing.Total(items)
	return &totals, nil
}

func recordCoupon(result string) {
	if telemetry.Business != nil {
		telemetry.Business.CouponsApplied.WithLabelValues(result).Inc()
	}
}

// uniqueIDs drops nil and duplicate ids, keeping first occurrences.
func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func describeCourses(courses []repository.Course) string {
	if len(courses) == 1 {
		return courses[0].Title
	}
	return fmt.Sprintf("%s and %d more", courses[0].Title, len(courses)-1)
}
