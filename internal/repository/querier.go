package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type Querier interface {
	// Users and sessions
	CreateUser(ctx context.Context, arg CreateUserParams) (User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (User, error)
	GetUserByPhone(ctx context.Context, phone string) (User, error)
	GetActiveMarketerByCode(ctx context.Context, code string) (User, error)
	CreateSession(ctx context.Context, arg CreateSessionParams) (Session, error)
	GetUserBySessionToken(ctx context.Context, token string) (User, error)
	DeleteSession(ctx context.Context, token string) error
	DeleteExpiredSessions(ctx context.Context, before time.Time) (int64, error)
	AddWalletBalance(ctx context.Context, arg BalanceChangeParams) (int64, error)
	DebitWalletBalance(ctx context.Context, arg BalanceChangeParams) (int64, error)
	AddCommissionBalance(ctx context.Context, arg BalanceChangeParams) (int64, error)
	WithdrawCommissionBalance(ctx context.Context, arg BalanceChangeParams) (WithdrawCommissionBalanceRow, error)

	// Catalog
	GetCourse(ctx context.Context, id uuid.UUID) (Course, error)
	ListCoursesByIDs(ctx context.Context, ids []uuid.UUID) ([]Course, error)
	ListActiveCourses(ctx context.Context) ([]Course, error)
	IncrementCourseBuyCount(ctx context.Context, id uuid.UUID) error
	IncrementCourseViewCount(ctx context.Context, id uuid.UUID) error
	GetCommission(ctx context.Context, id uuid.UUID) (Commission, error)

	// Discounts
	GetLatestScopedDiscount(ctx context.Context, arg GetLatestScopedDiscountParams) (Discount, error)
	GetActiveDiscountByCode(ctx context.Context, arg GetActiveDiscountByCodeParams) (Discount, error)
	CreateDiscount(ctx context.Context, arg CreateDiscountParams) (Discount, error)
	ListDiscounts(ctx context.Context) ([]Discount, error)
	DeactivateDiscount(ctx context.Context, id uuid.UUID) (int64, error)

	// Bundles and roadmaps
	GetBundle(ctx context.Context, id uuid.UUID) (Bundle, error)
	ListBundleCourses(ctx context.Context, bundleID uuid.UUID) ([]BundleCourse, error)
	GetActiveUserRoadmap(ctx context.Context, userID uuid.UUID) (UserRoadmap, error)
	HasFinishedRoadmap(ctx context.Context, arg UserBundleParams) (bool, error)
	CreateUserRoadmap(ctx context.Context, arg CreateUserRoadmapParams) (UserRoadmap, error)
	StartRoadmapCourse(ctx context.Context, arg StartRoadmapCourseParams) (int64, error)
	AdvanceUserRoadmap(ctx context.Context, arg AdvanceUserRoadmapParams) (UserRoadmap, error)
	FinishUserRoadmap(ctx context.Context, arg FinishUserRoadmapParams) (UserRoadmap, error)
	CancelUserRoadmap(ctx context.Context, userID uuid.UUID) (int64, error)

	// Purchases
	ListOwnedCourseIDs(ctx context.Context, arg ListOwnedCourseIDsParams) ([]uuid.UUID, error)
	CreateUserCourses(ctx context.Context, args []CreateUserCourseParams) ([]UserCourse, error)
	ListUserCoursesByAuthority(ctx context.Context, authority string) ([]UserCourse, error)
	ListPaidUserCourses(ctx context.Context, userID uuid.UUID) ([]UserCourse, error)
	ClaimUserCourse(ctx context.Context, arg ClaimUserCourseParams) (UserCourse, error)
	FailUserCourses(ctx context.Context, arg FailPaymentParams) (int64, error)
	ExpireUserCourses(ctx context.Context, before time.Time) (int64, error)

	// Wallet
	CreateWalletTransaction(ctx context.Context, arg CreateWalletTransactionParams) (WalletTransaction, error)
	GetWalletTransactionByAuthority(ctx context.Context, authority string) (WalletTransaction, error)
	ClaimWalletTransaction(ctx context.Context, arg ClaimWalletTransactionParams) (WalletTransaction, error)
	FailWalletTransaction(ctx context.Context, arg FailPaymentParams) (int64, error)
	ExpireWalletTransactions(ctx context.Context, before time.Time) (int64, error)

	// Marketing, commissions and analytics
	GetActiveMarketerCourse(ctx context.Context, arg GetActiveMarketerCourseParams) (MarketerCourse, error)
	GetActiveMarketerCourseByCode(ctx context.Context, code string) (MarketerCourse, error)
	CreateCommissionPayment(ctx context.Context, arg CreateCommissionPaymentParams) (CommissionPayment, error)
	ListCommissionPayments(ctx context.Context, userID uuid.UUID) ([]CommissionPayment, error)
	IncrementAnalytic(ctx context.Context, arg IncrementAnalyticParams) error
	ListAnalytics(ctx context.Context, arg ListAnalyticsParams) ([]Analytic, error)

	// Settings
	GetSetting(ctx context.Context, key string) (string, error)
	UpsertSetting(ctx context.Context, arg UpsertSettingParams) error
	CreateSettlementAudit(ctx context.Context, arg CreateSettlementAuditParams) error
}
