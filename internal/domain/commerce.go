package domain

// User roles.
const (
	RoleUser     = "user"
	RoleTeacher  = "teacher"
	RoleMarketer = "marketer"
	RoleAdmin    = "admin"
)

// Generic record status used by courses, discounts, bundles, users and marketer links.
const (
	StatusActive   = "active"
	StatusDeactive = "deactive"
)

// Amount types shared by discounts, commissions and marketer links.
const (
	AmountPercent = "percent"
	AmountNumber  = "number"
)

// Discount kinds. onCourse discounts apply automatically; code discounts are coupons.
const (
	DiscountTypeCode     = "code"
	DiscountTypeOnCourse = "onCourse"
)

// Emmit-to scopes: the target a discount or coupon applies to.
const (
	ScopeAllCourses     = "allCourses"
	ScopeCourse         = "course"
	ScopeCourseGroup    = "courseGroup"
	ScopeTeacherCourses = "teacherCourses"
	ScopeSingleUser     = "singleUser"
)

// Payment row states. waiting_for_payment is the only non-terminal state.
const (
	PaymentWaiting = "waiting_for_payment"
	PaymentOK      = "ok"
	PaymentCancel  = "cancel"
	PaymentError   = "error"
)

// Roadmap states.
const (
	RoadmapActive   = "active"
	RoadmapFinished = "finished"
	RoadmapCanceled = "canceled"
)

// Analytic info names and buckets.
const (
	InfoIncome    = "income"
	InfoSells     = "sells"
	InfoBuyCount  = "buyCount"
	InfoSignup    = "signup"
	InfoLinkClick = "linkClick"

	GroupAdmin    = "admin"
	GroupTeacher  = "teacher"
	GroupMarketer = "marketer"

	AnalyticDay   = "day"
	AnalyticMonth = "month"
)

// Payment methods that are not backed by an external gateway.
const (
	MethodWallet = "wallet"
	MethodFree   = "free"
)

// SettingPaymentsDisabled blocks checkout for non-admin users when set to "true".
const SettingPaymentsDisabled = "payments_disabled"

// MinWalletCharge is the smallest accepted wallet top-up.
const MinWalletCharge = 10000
