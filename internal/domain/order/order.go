// Package order implements checkout, SMS confirmation, and the order
// status lifecycle.
package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/saffron-restaurant/api/internal/domain/pricing"
)

// Status is the lifecycle state of an order.
type Status string

const (
	StatusNew        Status = "new"
	StatusConfirmed  Status = "confirmed"
	StatusPreparing  Status = "preparing"
	StatusDelivering Status = "delivering"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// transitions is the explicit state machine. Cancellation is reachable from
// every non-terminal state; completed and cancelled are terminal.
var transitions = map[Status][]Status{
	StatusNew:        {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusPreparing, StatusCancelled},
	StatusPreparing:  {StatusDelivering, StatusCancelled},
	StatusDelivering: {StatusCompleted, StatusCancelled},
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusConfirmed, StatusPreparing, StatusDelivering, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// CanTransitionTo reports whether the state machine permits moving from s
// to next.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PaymentMethod selects how the customer pays.
type PaymentMethod string

const (
	PaymentCash PaymentMethod = "cash"
	PaymentCard PaymentMethod = "card"
)

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	return m == PaymentCash || m == PaymentCard
}

// PickupAddress is stored as the delivery address for pickup orders.
const PickupAddress = "Pickup at the restaurant"

// Order is a checked-out, priced collection of cart lines.
type Order struct {
	ID              uuid.UUID
	CustomerName    string
	PhoneNumber     string
	DeliveryAddress string
	Status          Status
	DeliveryMethod  pricing.DeliveryMethod
	PaymentMethod   PaymentMethod
	Subtotal        decimal.Decimal
	Discount        decimal.Decimal
	DeliveryCost    decimal.Decimal
	Total           decimal.Decimal
	CouponCode      string
	Confirmed       bool
	CodeHash        string
	CodeSentAt      time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Line is a snapshot of one cart line taken at checkout. Price and name are
// copied from the cart so later menu edits never change historical orders.
type Line struct {
	ID       int64
	OrderID  uuid.UUID
	ItemID   int64
	Quantity int
	Price    decimal.Decimal
	Name     string
}

// Total returns price * quantity for this line.
func (l Line) Total() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create persists the order and its lines atomically.
	Create(ctx context.Context, o *Order, lines []Line) error
	GetByID(ctx context.Context, id uuid.UUID) (*Order, error)
	Lines(ctx context.Context, orderID uuid.UUID) ([]Line, error)
	// Confirm flips is_confirmed and moves the order to confirmed, but only
	// when it has not been confirmed yet. It reports whether a row actually
	// transitioned, so a raced double confirmation is detected.
	Confirm(ctx context.Context, id uuid.UUID) (bool, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error
}
