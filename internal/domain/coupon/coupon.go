// Package coupon implements discount codes with validity windows and usage caps.
package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

var (
	// ErrNotFound is returned when no coupon exists for a code.
	ErrNotFound = errors.New("coupon not found")
	// ErrExhausted is returned by Redeem when the coupon is inactive or its
	// usage cap has been reached.
	ErrExhausted = errors.New("coupon exhausted")
)

// Coupon is a discount code. A fixed amount and a percentage can both be set;
// the fixed amount takes priority when positive.
type Coupon struct {
	Code            string
	DiscountPercent decimal.Decimal
	DiscountAmount  decimal.Decimal
	Active          bool
	ValidFrom       time.Time
	ValidUntil      time.Time
	MaxUses         int
	TimesUsed       int
}

// IsValid reports whether the coupon can be applied at the given time:
// active, inside its validity window, and under its usage cap.
func (c *Coupon) IsValid(now time.Time) bool {
	if !c.Active {
		return false
	}
	if now.Before(c.ValidFrom) || now.After(c.ValidUntil) {
		return false
	}
	return c.TimesUsed < c.MaxUses
}

// Discount computes the discount for the given order total. It returns zero
// when the coupon is invalid or the total is not positive. A fixed amount is
// capped at the total so the discount can never exceed what is being paid.
func (c *Coupon) Discount(total decimal.Decimal, now time.Time) decimal.Decimal {
	if !c.IsValid(now) || !total.IsPositive() {
		return decimal.Zero
	}

	switch {
	case c.DiscountAmount.IsPositive():
		return decimal.Min(c.DiscountAmount, total).Round(2)
	case c.DiscountPercent.IsPositive():
		return total.Mul(c.DiscountPercent).Div(hundred).Round(2)
	default:
		return decimal.Zero
	}
}

// Repository provides lookup and redemption of coupons.
//
// Redeem must increment the usage counter atomically and fail with
// ErrExhausted when the coupon is inactive or already at its cap, so two
// concurrent checkouts cannot both redeem the last remaining use.
type Repository interface {
	// FindByCode looks up a coupon by exact (case-sensitive) code match.
	FindByCode(ctx context.Context, code string) (*Coupon, error)
	Redeem(ctx context.Context, code string) error
}
