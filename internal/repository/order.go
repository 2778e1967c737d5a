package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saffron-restaurant/api/internal/domain/order"
	"github.com/saffron-restaurant/api/internal/domain/pricing"
)

const (
	createOrderSQL = `INSERT INTO orders (id, customer_name, phone_number, delivery_address,
		status, delivery_method, payment_method,
		subtotal, discount, delivery_cost, total,
		coupon_code, code_hash, code_sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	createOrderLineSQL = `INSERT INTO order_lines (order_id, item_id, quantity, price, name)
		VALUES ($1, $2, $3, $4, $5)`

	getOrderSQL = `SELECT id, customer_name, phone_number, delivery_address,
		status, delivery_method, payment_method,
		subtotal, discount, delivery_cost, total,
		coupon_code, is_confirmed, code_hash, code_sent_at, created_at, updated_at
		FROM orders WHERE id = $1`

	getOrderLinesSQL = `SELECT id, order_id, item_id, quantity, price, name
		FROM order_lines WHERE order_id = $1 ORDER BY id`

	// The is_confirmed guard makes confirmation exactly-once: a raced second
	// confirmation matches no row.
	confirmOrderSQL = `UPDATE orders
		SET is_confirmed = TRUE, status = 'confirmed', updated_at = now()
		WHERE id = $1 AND NOT is_confirmed`

	updateOrderStatusSQL = `UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists the order and its line snapshots in one transaction, so a
// failed line insert never leaves a headless order behind.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order, lines []order.Line) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning order transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // rollback after commit is a no-op

	var couponCode *string
	if o.CouponCode != "" {
		couponCode = &o.CouponCode
	}
	_, err = tx.Exec(ctx, createOrderSQL,
		o.ID, o.CustomerName, o.PhoneNumber, o.DeliveryAddress,
		string(o.Status), string(o.DeliveryMethod), string(o.PaymentMethod),
		o.Subtotal, o.Discount, o.DeliveryCost, o.Total,
		couponCode, o.CodeHash, o.CodeSentAt,
	)
	if err != nil {
		return fmt.Errorf("creating order %s: %w", o.ID, err)
	}

	for _, l := range lines {
		_, err = tx.Exec(ctx, createOrderLineSQL, o.ID, l.ItemID, l.Quantity, l.Price, l.Name)
		if err != nil {
			return fmt.Errorf("creating order line for %s: %w", o.ID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing order %s: %w", o.ID, err)
	}
	return nil
}

// GetByID returns one order. Returns order.ErrNotFound when it does not exist.
func (r *OrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting order %s: %w", id, err)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %s: %w", id, err)
	}
	return &o, nil
}

// Lines returns the order's line snapshots in insertion order.
func (r *OrderRepository) Lines(ctx context.Context, orderID uuid.UUID) ([]order.Line, error) {
	rows, err := r.pool.Query(ctx, getOrderLinesSQL, orderID)
	if err != nil {
		return nil, fmt.Errorf("getting lines for order %s: %w", orderID, err)
	}
	lines, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Line, error) {
		var l order.Line
		err := row.Scan(&l.ID, &l.OrderID, &l.ItemID, &l.Quantity, &l.Price, &l.Name)
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("getting lines for order %s: %w", orderID, err)
	}
	return lines, nil
}

// Confirm marks the order confirmed if it was not already. The returned bool
// reports whether this call performed the transition.
func (r *OrderRepository) Confirm(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, confirmOrderSQL, id)
	if err != nil {
		return false, fmt.Errorf("confirming order %s: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

// UpdateStatus writes the new status. Transition legality is checked by the
// service layer; the repository only records.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status order.Status) error {
	tag, err := r.pool.Exec(ctx, updateOrderStatusSQL, id, string(status))
	if err != nil {
		return fmt.Errorf("updating status of order %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o              order.Order
		status         string
		deliveryMethod string
		paymentMethod  string
		couponCode     *string
		codeHash       *string
		codeSentAt     *time.Time
	)
	err := row.Scan(
		&o.ID, &o.CustomerName, &o.PhoneNumber, &o.DeliveryAddress,
		&status, &deliveryMethod, &paymentMethod,
		&o.Subtotal, &o.Discount, &o.DeliveryCost, &o.Total,
		&couponCode, &o.Confirmed, &codeHash, &codeSentAt, &o.CreatedAt, &o.UpdatedAt,
	)
	o.Status = order.Status(status)
	o.DeliveryMethod = pricing.DeliveryMethod(deliveryMethod)
	o.PaymentMethod = order.PaymentMethod(paymentMethod)
	if couponCode != nil {
		o.CouponCode = *couponCode
	}
	if codeHash != nil {
		o.CodeHash = *codeHash
	}
	if codeSentAt != nil {
		o.CodeSentAt = *codeSentAt
	}
	return o, err
}
