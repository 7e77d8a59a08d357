package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const userCourseColumns = `id, user_id, course_id, bundle_id, marketer_id, teacher_cut, marketer_cut,
	course_price, course_payable_price, total_price, paid_amount, authority, method,
	coupon_code, status, transaction_code, gateway_error, created_at, updated_at`

func scanUserCourse(row interface{ Scan(...any) error }) (UserCourse, error) {
	var uc UserCourse
	err := row.Scan(
		&uc.ID, &uc.UserID, &uc.CourseID, &uc.BundleID, &uc.MarketerID, &uc.TeacherCut, &uc.MarketerCut,
		&uc.CoursePrice, &uc.CoursePayablePrice, &uc.TotalPrice, &uc.PaidAmount, &uc.Authority, &uc.Method,
		&uc.CouponCode, &uc.Status, &uc.TransactionCode, &uc.GatewayError, &uc.CreatedAt, &uc.UpdatedAt,
	)
	return uc, err
}

func collectUserCourses(rows pgx.Rows) ([]UserCourse, error) {
	defer rows.Close()
	var items []UserCourse
	for rows.Next() {
		uc, err := scanUserCourse(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, uc)
	}
	return items, rows.Err()
}

const listOwnedCourseIDs = `-- name: ListOwnedCourseIDs :many
SELECT DISTINCT course_id FROM user_courses
WHERE user_id = $1 AND status = 'ok' AND course_id = ANY($2::uuid[])`

type ListOwnedCourseIDsParams struct {
	UserID    uuid.UUID
	CourseIDs []uuid.UUID
}

// ListOwnedCourseIDs returns the subset of CourseIDs the user already paid for.
func (q *Queries) ListOwnedCourseIDs(ctx context.Context, arg ListOwnedCourseIDsParams) ([]uuid.UUID, error) {
	rows, err := q.db.Query(ctx, listOwnedCourseIDs, arg.UserID, arg.CourseIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const createUserCourse = `-- name: CreateUserCourse :one
INSERT INTO user_courses (
	user_id, course_id, bundle_id, course_price, course_payable_price,
	total_price, authority, method, coupon_code
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + userCourseColumns

type CreateUserCourseParams struct {
	UserID             uuid.UUID
	CourseID           uuid.UUID
	BundleID           pgtype.UUID
	CoursePrice        int64
	CoursePayablePrice int64
	TotalPrice         int64
	Authority          string
	Method             string
	CouponCode         pgtype.Text
}

// CreateUserCourses inserts one pending purchase row per course in a single
// batch round-trip.
func (q *Queries) CreateUserCourses(ctx context.Context, args []CreateUserCourseParams) ([]UserCourse, error) {
	batch := &pgx.Batch{}
	for _, a := range args {
		batch.Queue(createUserCourse,
			a.UserID, a.CourseID, a.BundleID, a.CoursePrice, a.CoursePayablePrice,
			a.TotalPrice, a.Authority, a.Method, a.CouponCode,
		)
	}
	br := q.db.SendBatch(ctx, batch)
	defer br.Close()

	items := make([]UserCourse, 0, len(args))
	for range args {
		uc, err := scanUserCourse(br.QueryRow())
		if err != nil {
			return nil, err
		}
		items = append(items, uc)
	}
	return items, nil
}

const listUserCoursesByAuthority = `-- name: ListUserCoursesByAuthority :many
SELECT ` + userCourseColumns + ` FROM user_courses WHERE authority = $1 ORDER BY created_at, id`

func (q *Queries) ListUserCoursesByAuthority(ctx context.Context, authority string) ([]UserCourse, error) {
	rows, err := q.db.Query(ctx, listUserCoursesByAuthority, authority)
	if err != nil {
		return nil, err
	}
	return collectUserCourses(rows)
}

const listPaidUserCourses = `-- name: ListPaidUserCourses :many
SELECT ` + userCourseColumns + ` FROM user_courses
WHERE user_id = $1 AND status = 'ok'
ORDER BY updated_at DESC`

func (q *Queries) ListPaidUserCourses(ctx context.Context, userID uuid.UUID) ([]UserCourse, error) {
	rows, err := q.db.Query(ctx, listPaidUserCourses, userID)
	if err != nil {
		return nil, err
	}
	return collectUserCourses(rows)
}

const claimUserCourse = `-- name: ClaimUserCourse :one
UPDATE user_courses
SET status = 'ok',
	marketer_id = $2,
	teacher_cut = $3,
	marketer_cut = $4,
	paid_amount = $5,
	transaction_code = $6,
	updated_at = now()
WHERE id = $1 AND status = 'waiting_for_payment'
RETURNING ` + userCourseColumns

type ClaimUserCourseParams struct {
	ID              uuid.UUID
	MarketerID      pgtype.UUID
	TeacherCut      int64
	MarketerCut     int64
	PaidAmount      int64
	TransactionCode pgtype.Text
}

// ClaimUserCourse moves a pending row to ok. Exactly one caller wins; the rest
// get ErrNoRows.
func (q *Queries) ClaimUserCourse(ctx context.Context, arg ClaimUserCourseParams) (UserCourse, error) {
	row := q.db.QueryRow(ctx, claimUserCourse,
		arg.ID, arg.MarketerID, arg.TeacherCut, arg.MarketerCut, arg.PaidAmount, arg.TransactionCode,
	)
	return scanUserCourse(row)
}

const failUserCourses = `-- name: FailUserCourses :execrows
UPDATE user_courses SET status = $2, gateway_error = $3, updated_at = now()
WHERE authority = $1 AND status = 'waiting_for_payment'`

type FailPaymentParams struct {
	Authority    string
	Status       string
	GatewayError []byte
}

// FailUserCourses moves every pending row of the authority to a terminal
// failure status.
func (q *Queries) FailUserCourses(ctx context.Context, arg FailPaymentParams) (int64, error) {
	tag, err := q.db.Exec(ctx, failUserCourses, arg.Authority, arg.Status, arg.GatewayError)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const expireUserCourses = `-- name: ExpireUserCourses :execrows
UPDATE user_courses SET status = 'cancel', updated_at = now()
WHERE status = 'waiting_for_payment' AND created_at < $1`

func (q *Queries) ExpireUserCourses(ctx context.Context, before time.Time) (int64, error) {
	tag, err := q.db.Exec(ctx, expireUserCourses, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
