package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const getBundle = `-- name: GetBundle :one
SELECT id, title, status, discount_percent, gift_code_percent, gift_code_deadline, created_at
FROM bundles WHERE id = $1`

func (q *Queries) GetBundle(ctx context.Context, id uuid.UUID) (Bundle, error) {
	var b Bundle
	err := q.db.QueryRow(ctx, getBundle, id).Scan(
		&b.ID, &b.Title, &b.Status, &b.DiscountPercent, &b.GiftCodePercent, &b.GiftCodeDeadline, &b.CreatedAt,
	)
	return b, err
}

const listBundleCourses = `-- name: ListBundleCourses :many
SELECT bundle_id, course_id, position, minimum_time_needed
FROM bundle_courses WHERE bundle_id = $1
ORDER BY position`

// ListBundleCourses returns the bundle's courses in roadmap order.
func (q *Queries) ListBundleCourses(ctx context.Context, bundleID uuid.UUID) ([]BundleCourse, error) {
	rows, err := q.db.Query(ctx, listBundleCourses, bundleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []BundleCourse
	for rows.Next() {
		var bc BundleCourse
		if err := rows.Scan(&bc.BundleID, &bc.CourseID, &bc.Position, &bc.MinimumTimeNeeded); err != nil {
			return nil, err
		}
		items = append(items, bc)
	}
	return items, rows.Err()
}

const roadmapColumns = `id, user_id, bundle_id, current_course_id, current_course_start_date,
	finished_courses, status, created_at, updated_at`

func scanUserRoadmap(row interface{ Scan(...any) error }) (UserRoadmap, error) {
	var r UserRoadmap
	err := row.Scan(
		&r.ID, &r.UserID, &r.BundleID, &r.CurrentCourseID, &r.CurrentCourseStartDate,
		&r.FinishedCourses, &r.Status, &r.CreatedAt, &r.UpdatedAt,
	)
	return r, err
}

const getActiveUserRoadmap = `-- name: GetActiveUserRoadmap :one
SELECT ` + roadmapColumns + ` FROM user_roadmaps WHERE user_id = $1 AND status = 'active'`

func (q *Queries) GetActiveUserRoadmap(ctx context.Context, userID uuid.UUID) (UserRoadmap, error) {
	return scanUserRoadmap(q.db.QueryRow(ctx, getActiveUserRoadmap, userID))
}

const hasFinishedRoadmap = `-- name: HasFinishedRoadmap :one
SELECT EXISTS (
	SELECT 1 FROM user_roadmaps WHERE user_id = $1 AND bundle_id = $2 AND status = 'finished'
)`

type UserBundleParams struct {
	UserID   uuid.UUID
	BundleID uuid.UUID
}

func (q *Queries) HasFinishedRoadmap(ctx context.Context, arg UserBundleParams) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, hasFinishedRoadmap, arg.UserID, arg.BundleID).Scan(&exists)
	return exists, err
}

const createUserRoadmap = `-- name: CreateUserRoadmap :one
INSERT INTO user_roadmaps (user_id, bundle_id, current_course_id, current_course_start_date)
VALUES ($1, $2, $3, $4)
RETURNING ` + roadmapColumns

type CreateUserRoadmapParams struct {
	UserID                 uuid.UUID
	BundleID               uuid.UUID
	CurrentCourseID        uuid.UUID
	CurrentCourseStartDate pgtype.Timestamptz
}

// CreateUserRoadmap fails with a unique violation when the user already has an
// active roadmap.
func (q *Queries) CreateUserRoadmap(ctx context.Context, arg CreateUserRoadmapParams) (UserRoadmap, error) {
	row := q.db.QueryRow(ctx, createUserRoadmap, arg.UserID, arg.BundleID, arg.CurrentCourseID, arg.CurrentCourseStartDate)
	return scanUserRoadmap(row)
}

const startRoadmapCourse = `-- name: StartRoadmapCourse :execrows
UPDATE user_roadmaps
SET current_course_start_date = $3, updated_at = now()
WHERE user_id = $1 AND current_course_id = $2 AND status = 'active'
  AND current_course_start_date IS NULL`

type StartRoadmapCourseParams struct {
	UserID    uuid.UUID
	CourseID  uuid.UUID
	StartedAt time.Time
}

// StartRoadmapCourse starts the clock on the active roadmap's current course
// once the course is owned. It is a no-op when the clock is already running.
func (q *Queries) StartRoadmapCourse(ctx context.Context, arg StartRoadmapCourseParams) (int64, error) {
	tag, err := q.db.Exec(ctx, startRoadmapCourse, arg.UserID, arg.CourseID, arg.StartedAt)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const advanceUserRoadmap = `-- name: AdvanceUserRoadmap :one
UPDATE user_roadmaps
SET finished_courses = array_append(finished_courses, current_course_id),
	current_course_id = $3,
	current_course_start_date = $4,
	updated_at = now()
WHERE id = $1 AND current_course_id = $2 AND status = 'active'
RETURNING ` + roadmapColumns

type AdvanceUserRoadmapParams struct {
	ID            uuid.UUID
	FromCourseID  uuid.UUID
	NextCourseID  uuid.UUID
	NextStartDate pgtype.Timestamptz
}

// AdvanceUserRoadmap moves the roadmap one course forward. It returns ErrNoRows
// when another request advanced it first.
func (q *Queries) AdvanceUserRoadmap(ctx context.Context, arg AdvanceUserRoadmapParams) (UserRoadmap, error) {
	row := q.db.QueryRow(ctx, advanceUserRoadmap, arg.ID, arg.FromCourseID, arg.NextCourseID, arg.NextStartDate)
	return scanUserRoadmap(row)
}

const finishUserRoadmap = `-- name: FinishUserRoadmap :one
UPDATE user_roadmaps
SET finished_courses = array_append(finished_courses, current_course_id),
	status = 'finished',
	updated_at = now()
WHERE id = $1 AND current_course_id = $2 AND status = 'active'
RETURNING ` + roadmapColumns

type FinishUserRoadmapParams struct {
	ID       uuid.UUID
	CourseID uuid.UUID
}

func (q *Queries) FinishUserRoadmap(ctx context.Context, arg FinishUserRoadmapParams) (UserRoadmap, error) {
	return scanUserRoadmap(q.db.QueryRow(ctx, finishUserRoadmap, arg.ID, arg.CourseID))
}

const cancelUserRoadmap = `-- name: CancelUserRoadmap :execrows
UPDATE user_roadmaps SET status = 'canceled', updated_at = now()
WHERE user_id = $1 AND status = 'active'`

func (q *Queries) CancelUserRoadmap(ctx context.Context, userID uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, cancelUserRoadmap, userID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
