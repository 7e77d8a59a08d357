package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const marketerCourseColumns = `id, marketer_id, course_id, amount, amount_type, code, status, created_at`

func scanMarketerCourse(row interface{ Scan(...any) error }) (MarketerCourse, error) {
	var mc MarketerCourse
	err := row.Scan(&mc.ID, &mc.MarketerID, &mc.CourseID, &mc.Amount, &mc.AmountType, &mc.Code, &mc.Status, &mc.CreatedAt)
	return mc, err
}

const getActiveMarketerCourse = `-- name: GetActiveMarketerCourse :one
SELECT ` + marketerCourseColumns + ` FROM marketer_courses
WHERE marketer_id = $1 AND course_id = $2 AND status = 'active'
ORDER BY created_at DESC
LIMIT 1`

type GetActiveMarketerCourseParams struct {
	MarketerID uuid.UUID
	CourseID   uuid.UUID
}

func (q *Queries) GetActiveMarketerCourse(ctx context.Context, arg GetActiveMarketerCourseParams) (MarketerCourse, error) {
	return scanMarketerCourse(q.db.QueryRow(ctx, getActiveMarketerCourse, arg.MarketerID, arg.CourseID))
}

const getActiveMarketerCourseByCode = `-- name: GetActiveMarketerCourseByCode :one
SELECT ` + marketerCourseColumns + ` FROM marketer_courses WHERE code = $1 AND status = 'active'`

func (q *Queries) GetActiveMarketerCourseByCode(ctx context.Context, code string) (MarketerCourse, error) {
	return scanMarketerCourse(q.db.QueryRow(ctx, getActiveMarketerCourseByCode, code))
}

const createCommissionPayment = `-- name: CreateCommissionPayment :one
INSERT INTO commission_payments (user_id, balance_before, amount, balance_after, description)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, user_id, balance_before, amount, balance_after, description, created_at`

type CreateCommissionPaymentParams struct {
	UserID        uuid.UUID
	BalanceBefore int64
	Amount        int64
	BalanceAfter  int64
	Description   string
}

func (q *Queries) CreateCommissionPayment(ctx context.Context, arg CreateCommissionPaymentParams) (CommissionPayment, error) {
	var p CommissionPayment
	err := q.db.QueryRow(ctx, createCommissionPayment,
		arg.UserID, arg.BalanceBefore, arg.Amount, arg.BalanceAfter, arg.Description,
	).Scan(&p.ID, &p.UserID, &p.BalanceBefore, &p.Amount, &p.BalanceAfter, &p.Description, &p.CreatedAt)
	return p, err
}

const listCommissionPayments = `-- name: ListCommissionPayments :many
SELECT id, user_id, balance_before, amount, balance_after, description, created_at
FROM commission_payments WHERE user_id = $1
ORDER BY created_at DESC`

func (q *Queries) ListCommissionPayments(ctx context.Context, userID uuid.UUID) ([]CommissionPayment, error) {
	rows, err := q.db.Query(ctx, listCommissionPayments, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CommissionPayment
	for rows.Next() {
		var p CommissionPayment
		if err := rows.Scan(&p.ID, &p.UserID, &p.BalanceBefore, &p.Amount, &p.BalanceAfter, &p.Description, &p.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

const incrementAnalytic = `-- name: IncrementAnalytic :exec
INSERT INTO analytics (marketer_id, teacher_id, info_name, for_group, type, date, count)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (marketer_id, teacher_id, info_name, for_group, type, date)
DO UPDATE SET count = analytics.count + EXCLUDED.count`

type IncrementAnalyticParams struct {
	MarketerID uuid.UUID
	TeacherID  uuid.UUID
	InfoName   string
	ForGroup   string
	Type       string
	Date       time.Time
	Count      int64
}

// IncrementAnalytic upserts the counter row and adds Count to it.
func (q *Queries) IncrementAnalytic(ctx context.Context, arg IncrementAnalyticParams) error {
	_, err := q.db.Exec(ctx, incrementAnalytic,
		arg.MarketerID, arg.TeacherID, arg.InfoName, arg.ForGroup, arg.Type, arg.Date, arg.Count,
	)
	return err
}

const listAnalytics = `-- name: ListAnalytics :many
SELECT marketer_id, teacher_id, info_name, for_group, type, date, count
FROM analytics
WHERE info_name = $1 AND for_group = $2 AND type = $3 AND date >= $4 AND date <= $5
  AND ($6::uuid IS NULL OR marketer_id = $6 OR teacher_id = $6)
ORDER BY date`

type ListAnalyticsParams struct {
	InfoName string
	ForGroup string
	Type     string
	From     time.Time
	To       time.Time
	OwnerID  *uuid.UUID
}

func (q *Queries) ListAnalytics(ctx context.Context, arg ListAnalyticsParams) ([]Analytic, error) {
	rows, err := q.db.Query(ctx, listAnalytics, arg.InfoName, arg.ForGroup, arg.Type, arg.From, arg.To, arg.OwnerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Analytic
	for rows.Next() {
		var a Analytic
		if err := rows.Scan(&a.MarketerID, &a.TeacherID, &a.InfoName, &a.ForGroup, &a.Type, &a.Date, &a.Count); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
