package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const userColumns = `id, name, phone, email, password_hash, role, status, wallet_balance,
	commission_balance, commission_id, marketing_code, registered_with,
	registered_with_expires_at, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (User, error) {
	var u User
	err := row.Scan(
		&u.ID, &u.Name, &u.Phone, &u.Email, &u.PasswordHash, &u.Role, &u.Status,
		&u.WalletBalance, &u.CommissionBalance, &u.CommissionID, &u.MarketingCode,
		&u.RegisteredWith, &u.RegisteredWithExpiresAt, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

const createUser = `-- name: CreateUser :one
INSERT INTO users (name, phone, email, password_hash, role, registered_with, registered_with_expires_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + userColumns

type CreateUserParams struct {
	Name                    string
	Phone                   string
	Email                   pgtype.Text
	PasswordHash            string
	Role                    string
	RegisteredWith          pgtype.UUID
	RegisteredWithExpiresAt pgtype.Timestamptz
}

func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (User, error) {
	row := q.db.QueryRow(ctx, createUser,
		arg.Name, arg.Phone, arg.Email, arg.PasswordHash, arg.Role,
		arg.RegisteredWith, arg.RegisteredWithExpiresAt,
	)
	return scanUser(row)
}

const getUserByID = `-- name: GetUserByID :one
SELECT ` + userColumns + ` FROM users WHERE id = $1`

func (q *Queries) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByID, id))
}

const getUserByPhone = `-- name: GetUserByPhone :one
SELECT ` + userColumns + ` FROM users WHERE phone = $1`

func (q *Queries) GetUserByPhone(ctx context.Context, phone string) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserByPhone, phone))
}

const getActiveMarketerByCode = `-- name: GetActiveMarketerByCode :one
SELECT ` + userColumns + ` FROM users
WHERE marketing_code = $1 AND role = 'marketer' AND status = 'active'`

func (q *Queries) GetActiveMarketerByCode(ctx context.Context, code string) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getActiveMarketerByCode, code))
}

const createSession = `-- name: CreateSession :one
INSERT INTO sessions (token, user_id, expires_at)
VALUES ($1, $2, $3)
RETURNING token, user_id, expires_at, created_at`

type CreateSessionParams struct {
	Token     string
	UserID    uuid.UUID
	ExpiresAt time.Time
}

func (q *Queries) CreateSession(ctx context.Context, arg CreateSessionParams) (Session, error) {
	row := q.db.QueryRow(ctx, createSession, arg.Token, arg.UserID, arg.ExpiresAt)
	var s Session
	err := row.Scan(&s.Token, &s.UserID, &s.ExpiresAt, &s.CreatedAt)
	return s, err
}

const getUserBySessionToken = `-- name: GetUserBySessionToken :one
SELECT u.id, u.name, u.phone, u.email, u.password_hash, u.role, u.status, u.wallet_balance,
	u.commission_balance, u.commission_id, u.marketing_code, u.registered_with,
	u.registered_with_expires_at, u.created_at, u.updated_at
FROM sessions s
JOIN users u ON u.id = s.user_id
WHERE s.token = $1 AND s.expires_at > now() AND u.status = 'active'`

func (q *Queries) GetUserBySessionToken(ctx context.Context, token string) (User, error) {
	return scanUser(q.db.QueryRow(ctx, getUserBySessionToken, token))
}

const deleteSession = `-- name: DeleteSession :exec
DELETE FROM sessions WHERE token = $1`

func (q *Queries) DeleteSession(ctx context.Context, token string) error {
	_, err := q.db.Exec(ctx, deleteSession, token)
	return err
}

const deleteExpiredSessions = `-- name: DeleteExpiredSessions :execrows
DELETE FROM sessions WHERE expires_at <= $1`

func (q *Queries) DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteExpiredSessions, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

type BalanceChangeParams struct {
	UserID uuid.UUID
	Amount int64
}

const addWalletBalance = `-- name: AddWalletBalance :one
UPDATE users SET wallet_balance = wallet_balance + $2, updated_at = now()
WHERE id = $1
RETURNING wallet_balance`

// AddWalletBalance increments the wallet atomically and returns the new balance.
func (q *Queries) AddWalletBalance(ctx context.Context, arg BalanceChangeParams) (int64, error) {
	var balance int64
	err := q.db.QueryRow(ctx, addWalletBalance, arg.UserID, arg.Amount).Scan(&balance)
	return balance, err
}

const debitWalletBalance = `-- name: DebitWalletBalance :one
UPDATE users SET wallet_balance = wallet_balance - $2, updated_at = now()
WHERE id = $1 AND wallet_balance >= $2
RETURNING wallet_balance`

// DebitWalletBalance subtracts Amount from the wallet and returns the new
// balance. It returns ErrNoRows when the balance is lower than Amount.
func (q *Queries) DebitWalletBalance(ctx context.Context, arg BalanceChangeParams) (int64, error) {
	var balance int64
	err := q.db.QueryRow(ctx, debitWalletBalance, arg.UserID, arg.Amount).Scan(&balance)
	return balance, err
}

const addCommissionBalance = `-- name: AddCommissionBalance :one
UPDATE users SET commission_balance = commission_balance + $2, updated_at = now()
WHERE id = $1
RETURNING commission_balance`

func (q *Queries) AddCommissionBalance(ctx context.Context, arg BalanceChangeParams) (int64, error) {
	var balance int64
	err := q.db.QueryRow(ctx, addCommissionBalance, arg.UserID, arg.Amount).Scan(&balance)
	return balance, err
}

const withdrawCommissionBalance = `-- name: WithdrawCommissionBalance :one
UPDATE users SET commission_balance = commission_balance - $2, updated_at = now()
WHERE id = $1 AND commission_balance >= $2
RETURNING commission_balance + $2, commission_balance`

type WithdrawCommissionBalanceRow struct {
	BalanceBefore int64
	BalanceAfter  int64
}

// WithdrawCommissionBalance returns ErrNoRows when the balance is lower than Amount.
func (q *Queries) WithdrawCommissionBalance(ctx context.Context, arg BalanceChangeParams) (WithdrawCommissionBalanceRow, error) {
	var r WithdrawCommissionBalanceRow
	err := q.db.QueryRow(ctx, withdrawCommissionBalance, arg.UserID, arg.Amount).Scan(&r.BalanceBefore, &r.BalanceAfter)
	return r, err
}
