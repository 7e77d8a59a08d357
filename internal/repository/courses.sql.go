package repository

import (
	"context"

	"github.com/google/uuid"
)

const courseColumns = `id, title, price, status, teacher_id, group_ids, commission_id,
	show_in_new, buy_count, view_count, created_at, updated_at`

func scanCourse(row interface{ Scan(...any) error }) (Course, error) {
	var c Course
	err := row.Scan(
		&c.ID, &c.Title, &c.Price, &c.Status, &c.TeacherID, &c.GroupIDs, &c.CommissionID,
		&c.ShowInNew, &c.BuyCount, &c.ViewCount, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

const getCourse = `-- name: GetCourse :one
SELECT ` + courseColumns + ` FROM courses WHERE id = $1`

func (q *Queries) GetCourse(ctx context.Context, id uuid.UUID) (Course, error) {
	return scanCourse(q.db.QueryRow(ctx, getCourse, id))
}

const listCoursesByIDs = `-- name: ListCoursesByIDs :many
SELECT ` + courseColumns + ` FROM courses WHERE id = ANY($1::uuid[])`

// ListCoursesByIDs returns the matching courses in no particular order.
func (q *Queries) ListCoursesByIDs(ctx context.Context, ids []uuid.UUID) ([]Course, error) {
	rows, err := q.db.Query(ctx, listCoursesByIDs, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const listActiveCourses = `-- name: ListActiveCourses :many
SELECT ` + courseColumns + ` FROM courses WHERE status = 'active' ORDER BY created_at DESC`

func (q *Queries) ListActiveCourses(ctx context.Context) ([]Course, error) {
	rows, err := q.db.Query(ctx, listActiveCourses)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Course
	for rows.Next() {
		c, err := scanCourse(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const incrementCourseBuyCount = `-- name: IncrementCourseBuyCount :exec
UPDATE courses SET buy_count = buy_count + 1 WHERE id = $1`

func (q *Queries) IncrementCourseBuyCount(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, incrementCourseBuyCount, id)
	return err
}

const incrementCourseViewCount = `-- name: IncrementCourseViewCount :exec
UPDATE courses SET view_count = view_count + 1 WHERE id = $1`

func (q *Queries) IncrementCourseViewCount(ctx context.Context, id uuid.UUID) error {
	_, err := q.db.Exec(ctx, incrementCourseViewCount, id)
	return err
}

const getCommission = `-- name: GetCommission :one
SELECT id, name, amount, amount_type, created_at FROM commissions WHERE id = $1`

func (q *Queries) GetCommission(ctx context.Context, id uuid.UUID) (Commission, error) {
	var c Commission
	err := q.db.QueryRow(ctx, getCommission, id).Scan(&c.ID, &c.Name, &c.Amount, &c.AmountType, &c.CreatedAt)
	return c, err
}
