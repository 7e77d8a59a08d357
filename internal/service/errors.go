package service

import (
	"github.com/dukerupert/academy/internal/domain"
)

// Checkout and wallet errors
var (
	ErrPaymentsDisabled    = &domain.Error{Code: domain.EPAYMENT, Message: "Payments are temporarily disabled"}
	ErrInsufficientBalance = &domain.Error{Code: domain.EPAYMENT, Message: "Insufficient wallet balance"}
	ErrNothingToBuy        = &domain.Error{Code: domain.ECONFLICT, Message: "All requested courses are already owned"}
	ErrGatewayIdentifier   = &domain.Error{Code: domain.EUNPROCESSABLE, Message: "Could not start the payment, please try again"}
	ErrCourseNotFound      = &domain.Error{Code: domain.ENOTFOUND, Message: "Course not found"}
	ErrBundleNotFound      = &domain.Error{Code: domain.ENOTFOUND, Message: "Bundle not found"}
)

// Roadmap errors
var (
	ErrNoActiveRoadmap        = &domain.Error{Code: domain.ENOTFOUND, Message: "No active roadmap"}
	ErrActiveRoadmapExists    = &domain.Error{Code: domain.ECONFLICT, Message: "Another roadmap is already active"}
	ErrRoadmapAlreadyFinished = &domain.Error{Code: domain.ECONFLICT, Message: "This roadmap has already been finished"}
	ErrRoadmapChanged         = &domain.Error{Code: domain.ECONFLICT, Message: "Roadmap changed, please reload"}
	ErrEmptyBundle            = &domain.Error{Code: domain.ECONFLICT, Message: "Bundle has no courses"}
	ErrNoNextCourse           = &domain.Error{Code: domain.ECONFLICT, Message: "Current course is the last course of the roadmap"}
	ErrNotLastCourse          = &domain.Error{Code: domain.ECONFLICT, Message: "Finish the remaining courses first"}
	ErrMinimumTimeNotElapsed  = &domain.Error{Code: domain.ECONFLICT, Message: "Minimum time for the current course has not passed"}
)

// Account errors
var (
	ErrInvalidCredentials = &domain.Error{Code: domain.EUNAUTHORIZED, Message: "Invalid phone or password"}
	ErrPhoneTaken         = &domain.Error{Code: domain.ECONFLICT, Message: "Phone number is already registered"}
	ErrAccountDisabled    = &domain.Error{Code: domain.EFORBIDDEN, Message: "Account is disabled"}
	ErrSessionNotFound    = &domain.Error{Code: domain.EUNAUTHORIZED, Message: "Session expired, please log in again"}
	ErrMarketingLink      = &domain.Error{Code: domain.ENOTFOUND, Message: "Marketing link not found"}
)

// Commission and admin errors
var (
	ErrInsufficientCommission = &domain.Error{Code: domain.ECONFLICT, Message: "Commission balance is lower than the payout amount"}
	ErrDiscountNotFound       = &domain.Error{Code: domain.ENOTFOUND, Message: "Discount not found"}
	ErrUserNotFound           = &domain.Error{Code: domain.ENOTFOUND, Message: "User not found"}
)

// invalidCoupon is a fresh validation error so callers can add fields to it.
func invalidCoupon(op string) error {
	return domain.NewValidationError(op, "code", "invalid coupon")
}
