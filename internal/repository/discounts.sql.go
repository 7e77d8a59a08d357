package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const discountColumns = `id, code, amount, amount_type, type, status, start_date, end_date,
	emmit_to, emmit_to_id, single_use, created_at`

func scanDiscount(row interface{ Scan(...any) error }) (Discount, error) {
	var d Discount
	err := row.Scan(
		&d.ID, &d.Code, &d.Amount, &d.AmountType, &d.Type, &d.Status, &d.StartDate, &d.EndDate,
		&d.EmmitTo, &d.EmmitToID, &d.SingleUse, &d.CreatedAt,
	)
	return d, err
}

const getLatestScopedDiscount = `-- name: GetLatestScopedDiscount :one
SELECT ` + discountColumns + ` FROM discounts
WHERE type = $1
  AND emmit_to = $2
  AND emmit_to_id IS NOT DISTINCT FROM $3
  AND status = 'active'
  AND start_date <= $4 AND end_date > $4
ORDER BY created_at DESC
LIMIT 1`

type GetLatestScopedDiscountParams struct {
	Type      string
	EmmitTo   string
	EmmitToID pgtype.UUID
	Now       time.Time
}

// GetLatestScopedDiscount returns the most recently created discount of the given
// type that is active for the scope at Now.
func (q *Queries) GetLatestScopedDiscount(ctx context.Context, arg GetLatestScopedDiscountParams) (Discount, error) {
	row := q.db.QueryRow(ctx, getLatestScopedDiscount, arg.Type, arg.EmmitTo, arg.EmmitToID, arg.Now)
	return scanDiscount(row)
}

const getActiveDiscountByCode = `-- name: GetActiveDiscountByCode :one
SELECT ` + discountColumns + ` FROM discounts
WHERE code = $1
  AND type = 'code'
  AND status = 'active'
  AND start_date <= $2 AND end_date > $2
ORDER BY created_at DESC
LIMIT 1`

type GetActiveDiscountByCodeParams struct {
	Code string
	Now  time.Time
}

func (q *Queries) GetActiveDiscountByCode(ctx context.Context, arg GetActiveDiscountByCodeParams) (Discount, error) {
	return scanDiscount(q.db.QueryRow(ctx, getActiveDiscountByCode, arg.Code, arg.Now))
}

const createDiscount = `-- name: CreateDiscount :one
INSERT INTO discounts (code, amount, amount_type, type, start_date, end_date, emmit_to, emmit_to_id, single_use)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING ` + discountColumns

type CreateDiscountParams struct {
	Code       pgtype.Text
	Amount     int64
	AmountType string
	Type       string
	StartDate  time.Time
	EndDate    time.Time
	EmmitTo    string
	EmmitToID  pgtype.UUID
	SingleUse  bool
}

func (q *Queries) CreateDiscount(ctx context.Context, arg CreateDiscountParams) (Discount, error) {
	row := q.db.QueryRow(ctx, createDiscount,
		arg.Code, arg.Amount, arg.AmountType, arg.Type, arg.StartDate, arg.EndDate,
		arg.EmmitTo, arg.EmmitToID, arg.SingleUse,
	)
	return scanDiscount(row)
}

const listDiscounts = `-- name: ListDiscounts :many
SELECT ` + discountColumns + ` FROM discounts ORDER BY created_at DESC`

func (q *Queries) ListDiscounts(ctx context.Context) ([]Discount, error) {
	rows, err := q.db.Query(ctx, listDiscounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Discount
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

const deactivateDiscount = `-- name: DeactivateDiscount :execrows
UPDATE discounts SET status = 'deactive' WHERE id = $1 AND status = 'active'`

func (q *Queries) DeactivateDiscount(ctx context.Context, id uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, deactivateDiscount, id)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
