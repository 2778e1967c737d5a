package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saffron-restaurant/api/internal/domain/coupon"
)

const (
	getCouponByCodeSQL = `SELECT code, discount_percent, discount_amount, is_active,
		valid_from, valid_until, max_uses, times_used
		FROM coupons WHERE code = $1`

	// The WHERE clause re-checks activity and the usage cap inside the row
	// lock, so two concurrent redemptions of the last use cannot both win.
	redeemCouponSQL = `UPDATE coupons
		SET times_used = times_used + 1,
		    is_active  = times_used + 1 < max_uses
		WHERE code = $1 AND is_active AND times_used < max_uses`
)

var _ coupon.Repository = (*CouponRepository)(nil)

// CouponRepository implements coupon.Repository backed by PostgreSQL.
type CouponRepository struct {
	pool *pgxpool.Pool
}

// NewCouponRepository returns a CouponRepository that uses the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// FindByCode looks up a coupon by exact code match. Returns coupon.ErrNotFound
// when no such coupon exists.
func (r *CouponRepository) FindByCode(ctx context.Context, code string) (*coupon.Coupon, error) {
	rows, err := r.pool.Query(ctx, getCouponByCodeSQL, code)
	if err != nil {
		return nil, fmt.Errorf("finding coupon %q: %w", code, err)
	}
	c, err := pgx.CollectExactlyOneRow(rows, scanCoupon)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, coupon.ErrNotFound
		}
		return nil, fmt.Errorf("finding coupon %q: %w", code, err)
	}
	return &c, nil
}

// Redeem consumes one use of the coupon. The increment and the cap check run
// in a single conditional UPDATE; when no row matches, the coupon is either
// unknown, inactive, or out of uses, and Redeem returns coupon.ErrExhausted.
func (r *CouponRepository) Redeem(ctx context.Context, code string) error {
	tag, err := r.pool.Exec(ctx, redeemCouponSQL, code)
	if err != nil {
		return fmt.Errorf("redeeming coupon %q: %w", code, err)
	}
	if tag.RowsAffected() == 0 {
		return coupon.ErrExhausted
	}
	return nil
}

func scanCoupon(row pgx.CollectableRow) (coupon.Coupon, error) {
	var (
		c       coupon.Coupon
		maxUses int32
		used    int32
	)
	err := row.Scan(
		&c.Code, &c.DiscountPercent, &c.DiscountAmount, &c.Active,
		&c.ValidFrom, &c.ValidUntil, &maxUses, &used,
	)
	c.MaxUses = int(maxUses)
	c.TimesUsed = int(used)
	return c, err
}
