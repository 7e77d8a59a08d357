package pricing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dukerupert/academy/internal/domain"
)

// Item is a priced cart line.
type Item struct {
	Course Course `json:"course"`
	Resolution
}

// Totals is the cart breakdown.
type Totals struct {
	TotalPrice           int64  `json:"total_price"`
	TotalDiscount        int64  `json:"total_discount"`
	TotalDiscountPercent int64  `json:"total_discount_percent"`
	PayablePrice         int64  `json:"payable_price"`
	Courses              []Item `json:"courses"`
}

// ApplyCoupon returns a copy of items where every course covered by the coupon
// keeps the lower of its current price and the coupon price. A coupon that is
// nil or not valid at now leaves the items unchanged.
func ApplyCoupon(items []Item, coupon *Discount, viewerID uuid.UUID, now time.Time) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	if !coupon.ValidAt(now) {
		return out
	}
	for i := range out {
		it := &out[i]
		if !coupon.Covers(it.Course, viewerID) {
			continue
		}
		p := Apply(it.Course.Price, coupon.Amount, coupon.AmountType)
		if p >= it.DiscountedPrice {
			continue
		}
		it.DiscountedPrice = p
		it.DiscountAmount = coupon.Amount
		it.DiscountType = coupon.AmountType
		it.DiscountID = coupon.ID
		it.Scope = coupon.EmmitTo
		it.Tag = Tag(it.Course.Price, it.Course.ShowInNew, it.DiscountAmount, it.DiscountType)
	}
	return out
}

// ApplyPercentOff reduces every line's discounted price by percent, as used by
// bundle checkouts.
func ApplyPercentOff(items []Item, percent int64) []Item {
	out := make([]Item, len(items))
	copy(out, items)
	if percent <= 0 {
		return out
	}
	for i := range out {
		out[i].DiscountedPrice = Apply(out[i].DiscountedPrice, percent, domain.AmountPercent)
	}
	return out
}

// Total sums the lines. The discount percent is 0 for an empty or free cart.
func Total(items []Item) Totals {
	t := Totals{Courses: items}
	for _, it := range items {
		t.TotalPrice += it.Course.Price
		t.PayablePrice += it.DiscountedPrice
	}
	t.TotalDiscount = t.TotalPrice - t.PayablePrice
	t.TotalDiscountPercent = DiscountPercent(t.TotalPrice, t.PayablePrice)
	return t
}

// DiscountPercent returns 100 - round(payable/total*100), or 0 when total is 0.
func DiscountPercent(total, payable int64) int64 {
	if total == 0 {
		return 0
	}
	ratio := decimal.NewFromInt(payable).
		Div(decimal.NewFromInt(total)).
		Mul(decimal.NewFromInt(100)).
		Round(0)
	return 100 - ratio.IntPart()
}
