package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dukerupert/academy/internal/domain"
	"github.com/dukerupert/academy/internal/email"
	"github.com/dukerupert/academy/internal/events"
	"github.com/dukerupert/academy/internal/repository"
	"github.com/dukerupert/academy/internal/telemetry"
)

// RoadmapService steps a user through a bundle's ordered courses. A user has
// at most one active roadmap; the clock for a course starts once it is owned.
type RoadmapService interface {
	Activate(ctx context.Context, userID, bundleID uuid.UUID) (repository.UserRoadmap, error)

	// ActivateInRoadmap starts the clock when courseID is the active roadmap's
	// current course. It is a no-op otherwise.
	ActivateInRoadmap(ctx context.Context, userID, courseID uuid.UUID) error

	ActivateNextCourse(ctx context.Context, userID uuid.UUID) (repository.UserRoadmap, error)
	FinishRoadmap(ctx context.Context, userID uuid.UUID) (*FinishRoadmapResult, error)
	Cancel(ctx context.Context, userID uuid.UUID) error
	Current(ctx context.Context, userID uuid.UUID) (*RoadmapView, error)
}

// FinishRoadmapResult carries the gift code minted on finish, if the bundle has one.
type FinishRoadmapResult struct {
	Roadmap  repository.UserRoadmap
	GiftCode *repository.Discount
}

// RoadmapView is the active roadmap with its bundle's ordered courses.
type RoadmapView struct {
	Roadmap repository.UserRoadmap
	Bundle  repository.Bundle
	Courses []repository.BundleCourse
}

type roadmapService struct {
	repo     repository.Querier
	notifier Notifier
	logger   *slog.Logger
	now      func() time.Time
}

func NewRoadmapService(repo repository.Querier, notifier Notifier, logger *slog.Logger) RoadmapService {
	return &roadmapService{repo: repo, notifier: notifier, logger: logger, now: time.Now}
}

func (s *roadmapService) Activate(ctx context.Context, userID, bundleID uuid.UUID) (repository.UserRoadmap, error) {
	const op = "roadmap.activate"

	bundle, err := s.repo.GetBundle(ctx, bundleID)
	if errors.Is(err, repository.ErrNoRows) || (err == nil && bundle.Status != domain.StatusActive) {
		return repository.UserRoadmap{}, ErrBundleNotFound.WithOp(op)
	}
	if err != nil {
		return repository.UserRoadmap{}, domain.Internal(err, op, "failed to load bundle")
	}

	if _, err := s.repo.GetActiveUserRoadmap(ctx, userID); err == nil {
		return repository.UserRoadmap{}, ErrActiveRoadmapExists.WithOp(op)
	} else if !errors.Is(err, repository.ErrNoRows) {
		return repository.UserRoadmap{}, domain.Internal(err, op, "failed to load roadmap")
	}

	finished, err := s.repo.HasFinishedRoadmap(ctx, repository.UserBundleParams{UserID: userID, BundleID: bundleID})
	if err != nil {
		return repository.UserRoadmap{}, domain.Internal(err, op, "failed to load roadmap history")
	}
	if finished {
		return repository.UserRoadmap{}, ErrRoadmapAlreadyFinished.WithOp(op)
	}

	courses, err := s.repo.ListBundleCourses(ctx, bundleID)
	if err != nil {
		return repository.UserRoadmap{}, domain.Internal(err, op, "failed to load bundle courses")
	}
	if len(courses) == 0 {
		return repository.UserRoadmap{}, ErrEmptyBundle.WithOp(op)
	}

	first := courses[0].CourseID
	start, err := s.startDateIfOwned(ctx, userID, first)
	if err != nil {
		return repository.UserRoadmap{}, domain.Internal(err, op, "failed to check ownership")
	}

	roadmap, err := s.repo.CreateUserRoadmap(ctx, repository.CreateUserRoadmapParams{
		UserID:                 userID,
		BundleID:               bundleID,
		CurrentCourseID:        first,
		CurrentCourseStartDate: start,
	})
	if repository.IsUniqueViolation(err) {
		return repository.UserRoadmap{}, ErrActiveRoadmapExists.WithOp(op)
	}
	if err != nil {
		return repository.UserRoadmap{}, domain.Internal(err, op, "failed to create roadmap")
	}

	recordRoadmap("activated")
	s.logger.Info("roadmap activated", "user_id", userID, "bundle_id", bundleID, "clock_started", start.Valid)
	return roadmap, nil
}

func (s *roadmapService) ActivateInRoadmap(ctx context.Context, userID, courseID uuid.UUID) error {
	n, err := s.repo.StartRoadmapCourse(ctx, repository.StartRoadmapCourseParams{
		UserID:    userID,
		CourseID:  courseID,
		StartedAt: s.now(),
	})
	if err != nil {
		return domain.Internal(err, "roadmap.activate_in_roadmap", "failed to start roadmap course")
	}
	if n > 0 {
		recordRoadmap("course_started")
	}
	return nil
}

func (s *roadmapService) ActivateNextCourse(ctx context.Context, userID uuid.UUID) (repository.UserRoadmap, error) {
	const op = "roadmap.activate_next_course"

	roadmap, courses, idx, err := s.loadActive(ctx, op, userID)
	if err != nil {
		return repository.UserRoadmap{}, err
	}
	if idx == len(courses)-1 {
		return repository.UserRoadmap{}, ErrNoNextCourse.WithOp(op)
	}
	if !s.minimumTimeElapsed(roadmap, courses[idx]) {
		return repository.UserRoadmap{}, ErrMinimumTimeNotElapsed.WithOp(op)
	}

	next := courses[idx+1].CourseID
	start, err := s.startDateIfOwned(ctx, userID, next)
	if err != nil {
		return repository.UserRoadmap{}, domain.Internal(err, op, "failed to check ownership")
	}

	updated, err := s.repo.AdvanceUserRoadmap(ctx, repository.AdvanceUserRoadmapParams{
		ID:            roadmap.ID,
		FromCourseID:  roadmap.CurrentCourseID,
		NextCourseID:  next,
		NextStartDate: start,
	})
	if errors.Is(err, repository.ErrNoRows) {
		return repository.UserRoadmap{}, ErrRoadmapChanged.WithOp(op)
	}
	if err != nil {
		return repository.UserRoadmap{}, domain.Internal(err, op, "failed to advance roadmap")
	}

	recordRoadmap("advanced")
	return updated, nil
}

func (s *roadmapService) FinishRoadmap(ctx context.Context, userID uuid.UUID) (*FinishRoadmapResult, error) {
	const op = "roadmap.finish"

	roadmap, courses, idx, err := s.loadActive(ctx, op, userID)
	if err != nil {
		return nil, err
	}
	if idx != len(courses)-1 {
		return nil, ErrNotLastCourse.WithOp(op)
	}
	if !s.minimumTimeElapsed(roadmap, courses[idx]) {
		return nil, ErrMinimumTimeNotElapsed.WithOp(op)
	}

	finished, err := s.repo.FinishUserRoadmap(ctx, repository.FinishUserRoadmapParams{
		ID:       roadmap.ID,
		CourseID: roadmap.CurrentCourseID,
	})
	if errors.Is(err, repository.ErrNoRows) {
		return nil, ErrRoadmapChanged.WithOp(op)
	}
	if err != nil {
		return nil, domain.Internal(err, op, "failed to finish roadmap")
	}
	recordRoadmap("finished")

	result := &FinishRoadmapResult{Roadmap: finished}

	bundle, err := s.repo.GetBundle(ctx, roadmap.BundleID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load bundle")
	}

	now := s.now()
	var gift *email.RoadmapGiftEmail
	if bundle.GiftCodePercent > 0 {
		code, err := s.repo.CreateDiscount(ctx, repository.CreateDiscountParams{
			Code:       pgText(newGiftCode()),
			Amount:     bundle.GiftCodePercent,
			AmountType: domain.AmountPercent,
			Type:       domain.DiscountTypeCode,
			StartDate:  now,
			EndDate:    now.AddDate(0, 0, int(bundle.GiftCodeDeadline)),
			EmmitTo:    domain.ScopeSingleUser,
			EmmitToID:  pgUUID(userID),
			SingleUse:  true,
		})
		if err != nil {
			return nil, domain.Internal(err, op, "failed to create gift code")
		}
		result.GiftCode = &code
		recordRoadmap("gift_code")

		if user, err := s.repo.GetUserByID(ctx, userID); err == nil {
			gift = &email.RoadmapGiftEmail{
				Name:        user.Name,
				Email:       user.Email.String,
				BundleTitle: bundle.Title,
				Code:        code.Code.String,
				Percent:     code.Amount,
				ExpiresAt:   code.EndDate,
			}
		} else {
			s.logger.Warn("failed to load user for gift email", "user_id", userID, "error", err)
		}
	}

	ev := events.RoadmapFinished{
		RoadmapID:  finished.ID,
		UserID:     userID,
		BundleID:   roadmap.BundleID,
		FinishedAt: now,
	}
	if result.GiftCode != nil {
		ev.GiftCode = result.GiftCode.Code.String
	}
	s.notifier.RoadmapFinished(ctx, gift, ev)

	s.logger.Info("roadmap finished", "user_id", userID, "bundle_id", roadmap.BundleID, "gift_code", result.GiftCode != nil)
	return result, nil
}

func (s *roadmapService) Cancel(ctx context.Context, userID uuid.UUID) error {
	const op = "roadmap.cancel"

	n, err := s.repo.CancelUserRoadmap(ctx, userID)
	if err != nil {
		return domain.Internal(err, op, "failed to cancel roadmap")
	}
	if n == 0 {
		return ErrNoActiveRoadmap.WithOp(op)
	}
	recordRoadmap("canceled")
	return nil
}

func (s *roadmapService) Current(ctx context.Context, userID uuid.UUID) (*RoadmapView, error) {
	const op = "roadmap.current"

	roadmap, courses, _, err := s.loadActive(ctx, op, userID)
	if err != nil {
		return nil, err
	}
	bundle, err := s.repo.GetBundle(ctx, roadmap.BundleID)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load bundle")
	}
	return &RoadmapView{Roadmap: roadmap, Bundle: bundle, Courses: courses}, nil
}

// loadActive returns the active roadmap, its bundle courses and the index of
// the current course.
func (s *roadmapService) loadActive(ctx context.Context, op string, userID uuid.UUID) (repository.UserRoadmap, []repository.BundleCourse, int, error) {
	roadmap, err := s.repo.GetActiveUserRoadmap(ctx, userID)
	if errors.Is(err, repository.ErrNoRows) {
		return repository.UserRoadmap{}, nil, 0, ErrNoActiveRoadmap.WithOp(op)
	}
	if err != nil {
		return repository.UserRoadmap{}, nil, 0, domain.Internal(err, op, "failed to load roadmap")
	}

	courses, err := s.repo.ListBundleCourses(ctx, roadmap.BundleID)
	if err != nil {
		return repository.UserRoadmap{}, nil, 0, domain.Internal(err, op, "failed to load bundle courses")
	}
	for i, c := range courses {
		if c.CourseID == roadmap.CurrentCourseID {
			return roadmap, courses, i, nil
		}
	}
	return repository.UserRoadmap{}, nil, 0, ErrRoadmapChanged.WithOp(op)
}

// minimumTimeElapsed requires a started clock older than the course minimum.
func (s *roadmapService) minimumTimeElapsed(roadmap repository.UserRoadmap, course repository.BundleCourse) bool {
	if !roadmap.CurrentCourseStartDate.Valid {
		return false
	}
	minimum := time.Duration(course.MinimumTimeNeeded) * 24 * time.Hour
	return s.now().Sub(roadmap.CurrentCourseStartDate.Time) >= minimum
}

func (s *roadmapService) startDateIfOwned(ctx context.Context, userID, courseID uuid.UUID) (start pgtype.Timestamptz, err error) {
	owned, err := s.repo.ListOwnedCourseIDs(ctx, repository.ListOwnedCourseIDsParams{
		UserID:    userID,
		CourseIDs: []uuid.UUID{courseID},
	})
	if err != nil {
		return start, err
	}
	if len(owned) > 0 {
		start = pgTime(s.now())
	}
	return start, nil
}

func newGiftCode() string {
	return "RM-" + strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:10])
}

func recordRoadmap(event string) {
	if telemetry.Business != nil {
		telemetry.Business.RoadmapEvents.WithLabelValues(event).Inc()
	}
}
