package repository

import (
	"context"
)

const getSetting = `-- name: GetSetting :one
SELECT value FROM settings WHERE key = $1`

func (q *Queries) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := q.db.QueryRow(ctx, getSetting, key).Scan(&value)
	return value, err
}

const upsertSetting = `-- name: UpsertSetting :exec
INSERT INTO settings (key, value) VALUES ($1, $2)
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`

type UpsertSettingParams struct {
	Key   string
	Value string
}

func (q *Queries) UpsertSetting(ctx context.Context, arg UpsertSettingParams) error {
	_, err := q.db.Exec(ctx, upsertSetting, arg.Key, arg.Value)
	return err
}

const createSettlementAudit = `-- name: CreateSettlementAudit :exec
INSERT INTO settlement_audits (authority, method, total_price, cuts_total, income, payload)
VALUES ($1, $2, $3, $4, $5, $6)`

type CreateSettlementAuditParams struct {
	Authority  string
	Method     string
	TotalPrice int64
	CutsTotal  int64
	Income     int64
	Payload    []byte
}

func (q *Queries) CreateSettlementAudit(ctx context.Context, arg CreateSettlementAuditParams) error {
	_, err := q.db.Exec(ctx, createSettlementAudit,
		arg.Authority, arg.Method, arg.TotalPrice, arg.CutsTotal, arg.Income, arg.Payload,
	)
	return err
}
