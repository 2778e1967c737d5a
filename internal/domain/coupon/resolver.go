package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Resolver turns a coupon code held in session state into a concrete discount.
type Resolver struct {
	repo Repository
	now  func() time.Time
}

// NewResolver creates a Resolver backed by the given Repository.
func NewResolver(repo Repository) *Resolver {
	return &Resolver{repo: repo, now: time.Now}
}

// Resolve looks up the code and computes its discount against the subtotal.
// A code that is unknown, inactive, expired, or exhausted resolves to no
// coupon (nil coupon, zero discount) rather than an error: stale codes left
// in a session are treated as absence. Only storage failures are reported.
func (r *Resolver) Resolve(ctx context.Context, code string, subtotal decimal.Decimal) (*Coupon, decimal.Decimal, error) {
	if code == "" {
		return nil, decimal.Zero, nil
	}

	c, err := r.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, decimal.Zero, nil
		}
		return nil, decimal.Zero, errors.Wrap(err, "lookup coupon")
	}

	now := r.now()
	if !c.IsValid(now) {
		return nil, decimal.Zero, nil
	}
	return c, c.Discount(subtotal, now), nil
}
