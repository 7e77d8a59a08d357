package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const walletTransactionColumns = `id, user_id, charge_amount, paid_amount, authority, method, status,
	transaction_code, gateway_error, created_at, updated_at`

func scanWalletTransaction(row interface{ Scan(...any) error }) (WalletTransaction, error) {
	var wt WalletTransaction
	err := row.Scan(
		&wt.ID, &wt.UserID, &wt.ChargeAmount, &wt.PaidAmount, &wt.Authority, &wt.Method, &wt.Status,
		&wt.TransactionCode, &wt.GatewayError, &wt.CreatedAt, &wt.UpdatedAt,
	)
	return wt, err
}

const createWalletTransaction = `-- name: CreateWalletTransaction :one
INSERT INTO wallet_transactions (user_id, charge_amount, authority, method)
VALUES ($1, $2, $3, $4)
RETURNING ` + walletTransactionColumns

type CreateWalletTransactionParams struct {
	UserID       uuid.UUID
	ChargeAmount int64
	Authority    string
	Method       string
}

func (q *Queries) CreateWalletTransaction(ctx context.Context, arg CreateWalletTransactionParams) (WalletTransaction, error) {
	row := q.db.QueryRow(ctx, createWalletTransaction, arg.UserID, arg.ChargeAmount, arg.Authority, arg.Method)
	return scanWalletTransaction(row)
}

const getWalletTransactionByAuthority = `-- name: GetWalletTransactionByAuthority :one
SELECT ` + walletTransactionColumns + ` FROM wallet_transactions WHERE authority = $1`

func (q *Queries) GetWalletTransactionByAuthority(ctx context.Context, authority string) (WalletTransaction, error) {
	return scanWalletTransaction(q.db.QueryRow(ctx, getWalletTransactionByAuthority, authority))
}

const claimWalletTransaction = `-- name: ClaimWalletTransaction :one
UPDATE wallet_transactions
SET status = 'ok', paid_amount = $2, transaction_code = $3, updated_at = now()
WHERE id = $1 AND status = 'waiting_for_payment'
RETURNING ` + walletTransactionColumns

type ClaimWalletTransactionParams struct {
	ID              uuid.UUID
	PaidAmount      int64
	TransactionCode pgtype.Text
}

// ClaimWalletTransaction returns ErrNoRows when the transaction was already settled.
func (q *Queries) ClaimWalletTransaction(ctx context.Context, arg ClaimWalletTransactionParams) (WalletTransaction, error) {
	row := q.db.QueryRow(ctx, claimWalletTransaction, arg.ID, arg.PaidAmount, arg.TransactionCode)
	return scanWalletTransaction(row)
}

const failWalletTransaction = `-- name: FailWalletTransaction :execrows
UPDATE wallet_transactions SET status = $2, gateway_error = $3, updated_at = now()
WHERE authority = $1 AND status = 'waiting_for_payment'`

func (q *Queries) FailWalletTransaction(ctx context.Context, arg FailPaymentParams) (int64, error) {
	tag, err := q.db.Exec(ctx, failWalletTransaction, arg.Authority, arg.Status, arg.GatewayError)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const expireWalletTransactions = `-- name: ExpireWalletTransactions :execrows
UPDATE wallet_transactions SET status = 'cancel', updated_at = now()
WHERE status = 'waiting_for_payment' AND created_at < $1`

func (q *Queries) ExpireWalletTransactions(ctx context.Context, before time.Time) (int64, error) {
	tag, err := q.db.Exec(ctx, expireWalletTransactions, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
