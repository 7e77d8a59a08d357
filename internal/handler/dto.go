package handler

import (
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/dukerupert/academy/internal/domain"
	"github.com/dukerupert/academy/internal/repository"
	"github.com/dukerupert/academy/internal/service"
)

// Response shapes. Repository rows carry pgtype wrappers and secrets
// (password hashes, gateway payloads), so they are never encoded directly.

type UserResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Phone string    `json:"phone"`
	Email string    `json:"email,omitempty"`
	Role  string    `json:"role"`
}

func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Phone: u.Phone, Email: u.Email, Role: u.Role}
}

type DiscountResponse struct {
	ID         uuid.UUID  `json:"id"`
	Code       string     `json:"code,omitempty"`
	Amount     int64      `json:"amount"`
	AmountType string     `json:"amount_type"`
	Type       string     `json:"type"`
	Status     string     `json:"status"`
	StartDate  time.Time  `json:"start_date"`
	EndDate    time.Time  `json:"end_date"`
	EmmitTo    string     `json:"emmit_to"`
	EmmitToID  *uuid.UUID `json:"emmit_to_id,omitempty"`
	SingleUse  bool       `json:"single_use"`
}

func NewDiscountResponse(d repository.Discount) DiscountResponse {
	return DiscountResponse{
		ID:         d.ID,
		Code:       d.Code.String,
		Amount:     d.Amount,
		AmountType: d.AmountType,
		Type:       d.Type,
		Status:     d.Status,
		StartDate:  d.StartDate,
		EndDate:    d.EndDate,
		EmmitTo:    d.EmmitTo,
		EmmitToID:  uuidPtr(d.EmmitToID),
		SingleUse:  d.SingleUse,
	}
}

type RoadmapResponse struct {
	ID                     uuid.UUID   `json:"id"`
	BundleID               uuid.UUID   `json:"bundle_id"`
	CurrentCourseID        uuid.UUID   `json:"current_course_id"`
	CurrentCourseStartDate *time.Time  `json:"current_course_start_date"`
	FinishedCourses        []uuid.UUID `json:"finished_courses"`
	Status                 string      `json:"status"`
}

func NewRoadmapResponse(r repository.UserRoadmap) RoadmapResponse {
	finished := r.FinishedCourses
	if finished == nil {
		finished = []uuid.UUID{}
	}
	return RoadmapResponse{
		ID:                     r.ID,
		BundleID:               r.BundleID,
		CurrentCourseID:        r.CurrentCourseID,
		CurrentCourseStartDate: timePtr(r.CurrentCourseStartDate),
		FinishedCourses:        finished,
		Status:                 r.Status,
	}
}

type RoadmapStepResponse struct {
	CourseID          uuid.UUID `json:"course_id"`
	MinimumTimeNeeded int64     `json:"minimum_time_needed"`
}

type RoadmapViewResponse struct {
	Roadmap RoadmapResponse       `json:"roadmap"`
	Bundle  BundleResponse        `json:"bundle"`
	Courses []RoadmapStepResponse `json:"courses"`
}

type BundleResponse struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	DiscountPercent  int64     `json:"discount_percent"`
	GiftCodePercent  int64     `json:"gift_code_percent"`
	GiftCodeDeadline int64     `json:"gift_code_deadline"`
}

func NewRoadmapViewResponse(v *service.RoadmapView) RoadmapViewResponse {
	steps := make([]RoadmapStepResponse, len(v.Courses))
	for i, c := range v.Courses {
		steps[i] = RoadmapStepResponse{CourseID: c.CourseID, MinimumTimeNeeded: c.MinimumTimeNeeded}
	}
	return RoadmapViewResponse{
		Roadmap: NewRoadmapResponse(v.Roadmap),
		Bundle: BundleResponse{
			ID:               v.Bundle.ID,
			Title:            v.Bundle.Title,
			DiscountPercent:  v.Bundle.DiscountPercent,
			GiftCodePercent:  v.Bundle.GiftCodePercent,
			GiftCodeDeadline: v.Bundle.GiftCodeDeadline,
		},
		Courses: steps,
	}
}

type OwnedCourseResponse struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	PaidAmount  int64     `json:"paid_amount"`
	Method      string    `json:"method"`
	PurchasedAt time.Time `json:"purchased_at"`
}

func NewOwnedCourseResponse(c service.OwnedCourse) OwnedCourseResponse {
	return OwnedCourseResponse{
		ID:          c.Course.ID,
		Title:       c.Course.Title,
		PaidAmount:  c.PaidAmount,
		Method:      c.Method,
		PurchasedAt: c.PurchasedAt,
	}
}

type CommissionPaymentResponse struct {
	ID            uuid.UUID `json:"id"`
	UserID        uuid.UUID `json:"user_id"`
	BalanceBefore int64     `json:"balance_before"`
	Amount        int64     `json:"amount"`
	BalanceAfter  int64     `json:"balance_after"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewCommissionPaymentResponse(p repository.CommissionPayment) CommissionPaymentResponse {
	return CommissionPaymentResponse{
		ID:            p.ID,
		UserID:        p.UserID,
		BalanceBefore: p.BalanceBefore,
		Amount:        p.Amount,
		BalanceAfter:  p.BalanceAfter,
		Description:   p.Description,
		CreatedAt:     p.CreatedAt,
	}
}

type AnalyticResponse struct {
	MarketerID *uuid.UUID `json:"marketer_id,omitempty"`
	TeacherID  *uuid.UUID `json:"teacher_id,omitempty"`
	InfoName   string     `json:"info_name"`
	ForGroup   string     `json:"for_group"`
	Type       string     `json:"type"`
	Date       string     `json:"date"`
	Count      int64      `json:"count"`
}

func NewAnalyticResponse(a repository.Analytic) AnalyticResponse {
	out := AnalyticResponse{
		InfoName: a.InfoName,
		ForGroup: a.ForGroup,
		Type:     a.Type,
		Date:     a.Date.Format(time.DateOnly),
		Count:    a.Count,
	}
	if a.MarketerID != uuid.Nil {
		out.MarketerID = &a.MarketerID
	}
	if a.TeacherID != uuid.Nil {
		out.TeacherID = &a.TeacherID
	}
	return out
}

// MapSlice converts every element of in with fn.
func MapSlice[T, R any](in []T, fn func(T) R) []R {
	out := make([]R, len(in))
	for i, v := range in {
		out[i] = fn(v)
	}
	return out
}

func uuidPtr(id pgtype.UUID) *uuid.UUID {
	if !id.Valid {
		return nil
	}
	u := uuid.UUID(id.Bytes)
	return &u
}

func timePtr(t pgtype.Timestamptz) *time.Time {
	if !t.Valid {
		return nil
	}
	return &t.Time
}
