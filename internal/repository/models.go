package repository

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

type User struct {
	ID                      uuid.UUID
	Name                    string
	Phone                   string
	Email                   pgtype.Text
	PasswordHash            string
	Role                    string
	Status                  string
	WalletBalance           int64
	CommissionBalance       int64
	CommissionID            pgtype.UUID
	MarketingCode           pgtype.Text
	RegisteredWith          pgtype.UUID
	RegisteredWithExpiresAt pgtype.Timestamptz
	CreatedAt               time.Time
	UpdatedAt               time.Time
}

type Session struct {
	Token     string
	UserID    uuid.UUID
	ExpiresAt time.Time
	CreatedAt time.Time
}

type Commission struct {
	ID         uuid.UUID
	Name       string
	Amount     int64
	AmountType string
	CreatedAt  time.Time
}

type Course struct {
	ID           uuid.UUID
	Title        string
	Price        int64
	Status       string
	TeacherID    uuid.UUID
	GroupIDs     []uuid.UUID
	CommissionID pgtype.UUID
	ShowInNew    bool
	BuyCount     int64
	ViewCount    int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Discount struct {
	ID         uuid.UUID
	Code       pgtype.Text
	Amount     int64
	AmountType string
	Type       string
	Status     string
	StartDate  time.Time
	EndDate    time.Time
	EmmitTo    string
	EmmitToID  pgtype.UUID
	SingleUse  bool
	CreatedAt  time.Time
}

type Bundle struct {
	ID               uuid.UUID
	Title            string
	Status           string
	DiscountPercent  int64
	GiftCodePercent  int64
	GiftCodeDeadline int64
	CreatedAt        time.Time
}

type BundleCourse struct {
	BundleID          uuid.UUID
	CourseID          uuid.UUID
	Position          int32
	MinimumTimeNeeded int64
}

type UserCourse struct {
	ID                 uuid.UUID
	UserID             uuid.UUID
	CourseID           uuid.UUID
	BundleID           pgtype.UUID
	MarketerID         pgtype.UUID
	TeacherCut         int64
	MarketerCut        int64
	CoursePrice        int64
	CoursePayablePrice int64
	TotalPrice         int64
	PaidAmount         int64
	Authority          string
	Method             string
	CouponCode         pgtype.Text
	Status             string
	TransactionCode    pgtype.Text
	GatewayError       []byte
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type WalletTransaction struct {
	ID              uuid.UUID
	UserID          uuid.UUID
	ChargeAmount    int64
	PaidAmount      int64
	Authority       string
	Method          string
	Status          string
	TransactionCode pgtype.Text
	GatewayError    []byte
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type CommissionPayment struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	BalanceBefore int64
	Amount        int64
	BalanceAfter  int64
	Description   string
	CreatedAt     time.Time
}

type MarketerCourse struct {
	ID         uuid.UUID
	MarketerID uuid.UUID
	CourseID   uuid.UUID
	Amount     int64
	AmountType string
	Code       string
	Status     string
	CreatedAt  time.Time
}

type Analytic struct {
	MarketerID uuid.UUID
	TeacherID  uuid.UUID
	InfoName   string
	ForGroup   string
	Type       string
	Date       time.Time
	Count      int64
}

type UserRoadmap struct {
	ID                     uuid.UUID
	UserID                 uuid.UUID
	BundleID               uuid.UUID
	CurrentCourseID        uuid.UUID
	CurrentCourseStartDate pgtype.Timestamptz
	FinishedCourses        []uuid.UUID
	Status                 string
	CreatedAt              time.Time
	UpdatedAt              time.Time
}
