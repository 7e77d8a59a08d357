package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/dukerupert/academy/internal/domain"
	"github.com/dukerupert/academy/internal/pricing"
	"github.com/dukerupert/academy/internal/repository"
)

// CourseView is a course with its resolved discount for the viewer.
type CourseView struct {
	pricing.Item
	BuyCount  int64 `json:"buy_count"`
	ViewCount int64 `json:"view_count"`
}

// CatalogService lists courses with discount info.
type CatalogService interface {
	ListCourses(ctx context.Context, viewerID uuid.UUID) ([]CourseView, error)

	// GetCourse returns one active course and counts the view.
	GetCourse(ctx context.Context, id, viewerID uuid.UUID) (*CourseView, error)
}

type catalogService struct {
	repo    repository.Querier
	pricing PricingService
	logger  *slog.Logger
}

func NewCatalogService(repo repository.Querier, pricingService PricingService, logger *slog.Logger) CatalogService {
	return &catalogService{repo: repo, pricing: pricingService, logger: logger}
}

func (s *catalogService) ListCourses(ctx context.Context, viewerID uuid.UUID) ([]CourseView, error) {
	courses, err := s.repo.ListActiveCourses(ctx)
	if err != nil {
		return nil, domain.Internal(err, "catalog.list_courses", "failed to load courses")
	}
	items, err := s.pricing.PriceCourses(ctx, courses, viewerID)
	if err != nil {
		return nil, err
	}

	out := make([]CourseView, len(items))
	for i, it := range items {
		out[i] = CourseView{Item: it, BuyCount: courses[i].BuyCount, ViewCount: courses[i].ViewCount}
	}
	return out, nil
}

func (s *catalogService) GetCourse(ctx context.Context, id, viewerID uuid.UUID) (*CourseView, error) {
	const op = "catalog.get_course"

	course, err := s.repo.GetCourse(ctx, id)
	if errors.Is(err, repository.ErrNoRows) || (err == nil && course.Status != domain.StatusActive) {
		return nil, ErrCourseNotFound.WithOp(op)
	}
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load course")
	}

	res, err := s.pricing.CourseDiscount(ctx, course, viewerID)
	if err != nil {
		return nil, err
	}

	if err := s.repo.IncrementCourseViewCount(ctx, course.ID); err != nil {
		s.logger.Warn("failed to count course view", "course_id", course.ID, "error", err)
	}

	return &CourseView{
		Item:      pricing.Item{Course: toPricingCourse(course), Resolution: res},
		BuyCount:  course.BuyCount,
		ViewCount: course.ViewCount + 1,
	}, nil
}
