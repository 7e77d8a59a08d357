package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/academy/internal/domain"
	"github.com/dukerupert/academy/internal/repository"
)

type roadmapFixture struct {
	*checkoutFixture
	user    uuid.UUID
	bundle  repository.Bundle
	courses []repository.Course
}

// newRoadmapFixture seeds a three-course bundle requiring 7, 3 and 5 days.
func newRoadmapFixture(giftPercent int64) *roadmapFixture {
	f := newCheckoutFixture()
	courses := []repository.Course{
		f.repo.addCourse(repository.Course{Title: "Basics", Price: 1000}),
		f.repo.addCourse(repository.Course{Title: "Services", Price: 1000}),
		f.repo.addCourse(repository.Course{Title: "Scaling", Price: 1000}),
	}
	bundle := f.repo.addBundle(
		repository.Bundle{Title: "Backend", GiftCodePercent: giftPercent, GiftCodeDeadline: 14},
		repository.BundleCourse{CourseID: courses[0].ID, MinimumTimeNeeded: 7},
		repository.BundleCourse{CourseID: courses[1].ID, MinimumTimeNeeded: 3},
		repository.BundleCourse{CourseID: courses[2].ID, MinimumTimeNeeded: 5},
	)
	user := f.repo.addUser(repository.User{Name: "Learner", Email: pgText("learner@example.com")})
	return &roadmapFixture{checkoutFixture: f, user: user.ID, bundle: bundle, courses: courses}
}

// advanceClock moves the roadmap service clock forward by days.
func (f *roadmapFixture) advanceClock(days int) {
	at := f.roadmaps.now().Add(time.Duration(days) * 24 * time.Hour)
	f.roadmaps.now = func() time.Time { return at }
}

func TestRoadmapService_Activate(t *testing.T) {
	ctx := context.Background()

	t.Run("starts on the first course without a clock", func(t *testing.T) {
		f := newRoadmapFixture(0)
		r, err := f.roadmaps.Activate(ctx, f.user, f.bundle.ID)
		require.NoError(t, err)
		assert.Equal(t, f.courses[0].ID, r.CurrentCourseID)
		assert.Equal(t, domain.RoadmapActive, r.Status)
		assert.False(t, r.CurrentCourseStartDate.Valid)
	})

	t.Run("owned first course starts the clock", func(t *testing.T) {
		f := newRoadmapFixture(0)
		f.repo.addOwnedCourse(f.user, f.courses[0].ID)
		r, err := f.roadmaps.Activate(ctx, f.user, f.bundle.ID)
		require.NoError(t, err)
		assert.True(t, r.CurrentCourseStartDate.Valid)
		assert.Equal(t, testNow, r.CurrentCourseStartDate.Time)
	})

	t.Run("second activation is rejected", func(t *testing.T) {
		f := newRoadmapFixture(0)
		_, err := f.roadmaps.Activate(ctx, f.user, f.bundle.ID)
		require.NoError(t, err)

		other := f.repo.addBundle(repository.Bundle{}, repository.BundleCourse{CourseID: f.courses[1].ID})
		_, err = f.roadmaps.Activate(ctx, f.user, other.ID)
		assert.ErrorIs(t, err, ErrActiveRoadmapExists)
		assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))
	})

	t.Run("finished bundle cannot be restarted", func(t *testing.T) {
		f := newRoadmapFixture(0)
		f.repo.roadmaps = append(f.repo.roadmaps, repository.UserRoadmap{
			ID: uuid.New(), UserID: f.user, BundleID: f.bundle.ID, Status: domain.RoadmapFinished,
		})
		_, err := f.roadmaps.Activate(ctx, f.user, f.bundle.ID)
		assert.ErrorIs(t, err, ErrRoadmapAlreadyFinished)
	})

	t.Run("empty bundle", func(t *testing.T) {
		f := newRoadmapFixture(0)
		empty := f.repo.addBundle(repository.Bundle{})
		_, err := f.roadmaps.Activate(ctx, f.user, empty.ID)
		assert.ErrorIs(t, err, ErrEmptyBundle)
	})

	t.Run("unknown bundle", func(t *testing.T) {
		f := newRoadmapFixture(0)
		_, err := f.roadmaps.Activate(ctx, f.user, uuid.New())
		assert.ErrorIs(t, err, ErrBundleNotFound)
	})
}

func TestRoadmapService_ActivateNextCourse(t *testing.T) {
	ctx := context.Background()
	f := newRoadmapFixture(0)
	_, err := f.roadmaps.Activate(ctx, f.user, f.bundle.ID)
	require.NoError(t, err)

	_, err = f.roadmaps.ActivateNextCourse(ctx, f.user)
	assert.ErrorIs(t, err, ErrMinimumTimeNotElapsed, "clock not started")

	require.NoError(t, f.roadmaps.ActivateInRoadmap(ctx, f.user, f.courses[0].ID))

	f.advanceClock(6)
	_, err = f.roadmaps.ActivateNextCourse(ctx, f.user)
	assert.ErrorIs(t, err, ErrMinimumTimeNotElapsed)

	f.advanceClock(1)
	r, err := f.roadmaps.ActivateNextCourse(ctx, f.user)
	require.NoError(t, err)
	assert.Equal(t, f.courses[1].ID, r.CurrentCourseID)
	assert.Equal(t, []uuid.UUID{f.courses[0].ID}, r.FinishedCourses)
	assert.False(t, r.CurrentCourseStartDate.Valid, "next course is not owned yet")

	_, err = f.roadmaps.FinishRoadmap(ctx, f.user)
	assert.ErrorIs(t, err, ErrNotLastCourse)

	f.repo.addOwnedCourse(f.user, f.courses[2].ID)
	require.NoError(t, f.roadmaps.ActivateInRoadmap(ctx, f.user, f.courses[1].ID))
	f.advanceClock(3)
	r, err = f.roadmaps.ActivateNextCourse(ctx, f.user)
	require.NoError(t, err)
	assert.Equal(t, f.courses[2].ID, r.CurrentCourseID)
	assert.True(t, r.CurrentCourseStartDate.Valid, "owned next course starts immediately")

	_, err = f.roadmaps.ActivateNextCourse(ctx, f.user)
	assert.ErrorIs(t, err, ErrNoNextCourse)
}

func TestRoadmapService_ActivateInRoadmapIgnoresOtherCourses(t *testing.T) {
	ctx := context.Background()
	f := newRoadmapFixture(0)
	_, err := f.roadmaps.Activate(ctx, f.user, f.bundle.ID)
	require.NoError(t, err)

	require.NoError(t, f.roadmaps.ActivateInRoadmap(ctx, f.user, f.courses[1].ID))
	r, err := f.repo.GetActiveUserRoadmap(ctx, f.user)
	require.NoError(t, err)
	assert.False(t, r.CurrentCourseStartDate.Valid)

	require.NoError(t, f.roadmaps.ActivateInRoadmap(ctx, uuid.New(), f.courses[0].ID))
}

// walkToLastCourse activates the roadmap and advances it to the last course
// with a running clock.
func walkToLastCourse(t *testing.T, f *roadmapFixture) {
	t.Helper()
	ctx := context.Background()
	for _, c := range f.courses {
		f.repo.addOwnedCourse(f.user, c.ID)
	}
	_, err := f.roadmaps.Activate(ctx, f.user, f.bundle.ID)
	require.NoError(t, err)
	f.advanceClock(7)
	_, err = f.roadmaps.ActivateNextCourse(ctx, f.user)
	require.NoError(t, err)
	f.advanceClock(3)
	_, err = f.roadmaps.ActivateNextCourse(ctx, f.user)
	require.NoError(t, err)
}

func TestRoadmapService_FinishRoadmap(t *testing.T) {
	ctx := context.Background()

	t.Run("mints a single-use gift code", func(t *testing.T) {
		f := newRoadmapFixture(20)
		walkToLastCourse(t, f)

		_, err := f.roadmaps.FinishRoadmap(ctx, f.user)
		assert.ErrorIs(t, err, ErrMinimumTimeNotElapsed)

		f.advanceClock(5)
		res, err := f.roadmaps.FinishRoadmap(ctx, f.user)
		require.NoError(t, err)
		assert.Equal(t, domain.RoadmapFinished, res.Roadmap.Status)
		assert.Len(t, res.Roadmap.FinishedCourses, 3)

		require.NotNil(t, res.GiftCode)
		gift := res.GiftCode
		assert.True(t, strings.HasPrefix(gift.Code.String, "RM-"))
		assert.Len(t, gift.Code.String, 13)
		assert.Equal(t, int64(20), gift.Amount)
		assert.Equal(t, domain.AmountPercent, gift.AmountType)
		assert.Equal(t, domain.DiscountTypeCode, gift.Type)
		assert.Equal(t, domain.ScopeSingleUser, gift.EmmitTo)
		assert.Equal(t, f.user, fromPgUUID(gift.EmmitToID))
		assert.True(t, gift.SingleUse)
		assert.Equal(t, f.roadmaps.now().AddDate(0, 0, 14), gift.EndDate)

		require.Len(t, f.notifier.roadmaps, 1)
		assert.Equal(t, gift.Code.String, f.notifier.roadmaps[0].GiftCode)
		require.NotNil(t, f.notifier.gifts[0])
		assert.Equal(t, "learner@example.com", f.notifier.gifts[0].Email)

		_, err = f.roadmaps.Current(ctx, f.user)
		assert.ErrorIs(t, err, ErrNoActiveRoadmap)

		_, err = f.roadmaps.Activate(ctx, f.user, f.bundle.ID)
		assert.ErrorIs(t, err, ErrRoadmapAlreadyFinished)
	})

	t.Run("no gift code when the bundle has none", func(t *testing.T) {
		f := newRoadmapFixture(0)
		walkToLastCourse(t, f)
		f.advanceClock(5)

		res, err := f.roadmaps.FinishRoadmap(ctx, f.user)
		require.NoError(t, err)
		assert.Nil(t, res.GiftCode)
		assert.Empty(t, f.repo.discounts)
		require.Len(t, f.notifier.roadmaps, 1)
		assert.Nil(t, f.notifier.gifts[0])
	})
}

func TestRoadmapService_CancelAndCurrent(t *testing.T) {
	ctx := context.Background()
	f := newRoadmapFixture(0)

	assert.ErrorIs(t, f.roadmaps.Cancel(ctx, f.user), ErrNoActiveRoadmap)

	_, err := f.roadmaps.Activate(ctx, f.user, f.bundle.ID)
	require.NoError(t, err)

	view, err := f.roadmaps.Current(ctx, f.user)
	require.NoError(t, err)
	assert.Equal(t, f.bundle.ID, view.Bundle.ID)
	assert.Len(t, view.Courses, 3)

	require.NoError(t, f.roadmaps.Cancel(ctx, f.user))
	_, err = f.roadmaps.Current(ctx, f.user)
	assert.ErrorIs(t, err, ErrNoActiveRoadmap)

	_, err = f.roadmaps.Activate(ctx, f.user, f.bundle.ID)
	assert.NoError(t, err, "a canceled roadmap can be restarted")
}
