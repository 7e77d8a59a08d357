// Package pricing holds the pure price arithmetic for courses and carts:
// per-scope discount resolution, coupon application, cart aggregation and
// display tags. Nothing here touches storage; callers gather the candidate
// discounts and pass them in.
package pricing

import (
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dukerupert/academy/internal/domain"
)

// Course is the subset of a course needed to price it.
type Course struct {
	ID        uuid.UUID   `json:"id"`
	Title     string      `json:"title"`
	Price     int64       `json:"price"`
	TeacherID uuid.UUID   `json:"teacher_id"`
	GroupIDs  []uuid.UUID `json:"group_ids"`
	ShowInNew bool        `json:"show_in_new"`
}

// FirstGroup returns the course's first group, or uuid.Nil when it has none.
func (c Course) FirstGroup() uuid.UUID {
	if len(c.GroupIDs) == 0 {
		return uuid.Nil
	}
	return c.GroupIDs[0]
}

// Discount is a discount or coupon record. EmmitToID is uuid.Nil for the
// allCourses scope.
type Discount struct {
	ID         uuid.UUID
	Code       string
	Amount     int64
	AmountType string
	EmmitTo    string
	EmmitToID  uuid.UUID
	Status     string
	StartDate  time.Time
	EndDate    time.Time
	SingleUse  bool
}

// ValidAt reports whether the discount is active and inside its window.
// The window is half-open: [StartDate, EndDate).
func (d *Discount) ValidAt(now time.Time) bool {
	if d == nil || d.Status != domain.StatusActive {
		return false
	}
	return !now.Before(d.StartDate) && now.Before(d.EndDate)
}

// Covers reports whether the discount's scope includes the course for viewer.
// courseGroup matches any of the course's groups.
func (d *Discount) Covers(c Course, viewerID uuid.UUID) bool {
	switch d.EmmitTo {
	case domain.ScopeAllCourses:
		return true
	case domain.ScopeCourse:
		return d.EmmitToID == c.ID
	case domain.ScopeCourseGroup:
		for _, g := range c.GroupIDs {
			if g == d.EmmitToID {
				return true
			}
		}
		return false
	case domain.ScopeTeacherCourses:
		return d.EmmitToID == c.TeacherID
	case domain.ScopeSingleUser:
		return viewerID != uuid.Nil && d.EmmitToID == viewerID
	}
	return false
}

// Apply returns price reduced by amount. Percent amounts are rounded half-up
// to a whole unit. The result never goes below zero.
func Apply(price, amount int64, amountType string) int64 {
	var out int64
	switch amountType {
	case domain.AmountPercent:
		off := decimal.NewFromInt(price).
			Mul(decimal.NewFromInt(amount)).
			Div(decimal.NewFromInt(100)).
			Round(0)
		out = price - off.IntPart()
	case domain.AmountNumber:
		out = price - amount
	default:
		out = price
	}
	if out < 0 {
		return 0
	}
	return out
}

// ScopedDiscount pairs a scope with the discount found for it, if any.
type ScopedDiscount struct {
	Scope    string
	Discount *Discount
}

// Resolution is the priced outcome for one course.
type Resolution struct {
	DiscountAmount  int64     `json:"discount_amount"`
	DiscountType    string    `json:"discount_type,omitempty"`
	DiscountedPrice int64     `json:"discounted_price"`
	Tag             string    `json:"tag,omitempty"`
	Scope           string    `json:"-"`
	DiscountID      uuid.UUID `json:"-"`
}

// Resolve picks the candidate giving the lowest price. Nil candidates and
// candidates not valid at now are skipped; on ties the earlier candidate wins.
func Resolve(c Course, candidates []ScopedDiscount, now time.Time) Resolution {
	res := Resolution{DiscountedPrice: c.Price}
	found := false
	for _, cand := range candidates {
		if !cand.Discount.ValidAt(now) {
			continue
		}
		p := Apply(c.Price, cand.Discount.Amount, cand.Discount.AmountType)
		if found && p >= res.DiscountedPrice {
			continue
		}
		found = true
		res.DiscountedPrice = p
		res.DiscountAmount = cand.Discount.Amount
		res.DiscountType = cand.Discount.AmountType
		res.Scope = cand.Scope
		res.DiscountID = cand.Discount.ID
	}
	res.Tag = Tag(c.Price, c.ShowInNew, res.DiscountAmount, res.DiscountType)
	return res
}

// Tag derives the display tag. Each check overwrites the previous one, so a
// discount beats "new" and "new" beats "free".
func Tag(price int64, showInNew bool, discountAmount int64, discountType string) string {
	tag := ""
	if price == 0 {
		tag = "free"
	}
	if showInNew {
		tag = "new"
	}
	if discountAmount > 0 {
		if discountType == domain.AmountPercent {
			tag = strconv.FormatInt(discountAmount, 10) + "%"
		} else {
			tag = strconv.FormatInt(discountAmount, 10) + "toman"
		}
	}
	return tag
}
