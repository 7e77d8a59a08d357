package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/academy/internal/domain"
	"github.com/dukerupert/academy/internal/repository"
)

// AnalyticEvent is one counter increment. Absent owners stay uuid.Nil.
type AnalyticEvent struct {
	InfoName   string
	ForGroup   string
	MarketerID uuid.UUID
	TeacherID  uuid.UUID
	Count      int64
}

// AnalyticsQuery filters stored counters. OwnerID restricts the rows to one
// marketer or teacher.
type AnalyticsQuery struct {
	InfoName string
	ForGroup string
	Type     string
	From     time.Time
	To       time.Time
	OwnerID  uuid.UUID
}

// AnalyticsService keeps daily and monthly counters keyed by
// (marketer, teacher, info name, group, bucket, date).
type AnalyticsService interface {
	// Record adds the event to both the day and the month bucket.
	Record(ctx context.Context, ev AnalyticEvent) error

	List(ctx context.Context, q AnalyticsQuery) ([]repository.Analytic, error)
}

type analyticsService struct {
	repo   repository.Querier
	logger *slog.Logger
	now    func() time.Time
}

func NewAnalyticsService(repo repository.Querier, logger *slog.Logger) AnalyticsService {
	return &analyticsService{repo: repo, logger: logger, now: time.Now}
}

func (s *analyticsService) Record(ctx context.Context, ev AnalyticEvent) error {
	if ev.Count == 0 {
		return nil
	}
	now := s.now()
	day, month := dayBucket(now), monthBucket(now)

	var errs []error
	for _, b := range []struct {
		typ  string
		date time.Time
	}{
		{domain.AnalyticDay, day},
		{domain.AnalyticMonth, month},
	} {
		err := s.repo.IncrementAnalytic(ctx, repository.IncrementAnalyticParams{
			MarketerID: ev.MarketerID,
			TeacherID:  ev.TeacherID,
			InfoName:   ev.InfoName,
			ForGroup:   ev.ForGroup,
			Type:       b.typ,
			Date:       b.date,
			Count:      ev.Count,
		})
		if err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return domain.Internal(err, "analytics.record", "failed to record "+ev.InfoName)
	}
	return nil
}

func (s *analyticsService) List(ctx context.Context, q AnalyticsQuery) ([]repository.Analytic, error) {
	const op = "analytics.list"

	var verr error
	if q.InfoName == "" {
		verr = domain.AddFieldError(verr, "info_name", "is required")
	}
	if q.Type != domain.AnalyticDay && q.Type != domain.AnalyticMonth {
		verr = domain.AddFieldError(verr, "type", "must be day or month")
	}
	if !q.To.IsZero() && q.To.Before(q.From) {
		verr = domain.AddFieldError(verr, "to", "must not be before from")
	}
	if verr != nil {
		return nil, verr
	}
	if q.ForGroup == "" {
		q.ForGroup = domain.GroupAdmin
	}
	if q.To.IsZero() {
		q.To = s.now()
	}

	params := repository.ListAnalyticsParams{
		InfoName: q.InfoName,
		ForGroup: q.ForGroup,
		Type:     q.Type,
		From:     q.From,
		To:       q.To,
	}
	if q.OwnerID != uuid.Nil {
		owner := q.OwnerID
		params.OwnerID = &owner
	}

	rows, err := s.repo.ListAnalytics(ctx, params)
	if err != nil {
		return nil, domain.Internal(err, op, "failed to load analytics")
	}
	return rows, nil
}

func dayBucket(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func monthBucket(t time.Time) time.Time {
	y, m, _ := t.Date()
	return time.Date(y, m, 1, 0, 0, 0, 0, t.Location())
}
