// Package pricing computes delivery costs and order totals.
package pricing

import (
	"github.com/shopspring/decimal"
)

// DeliveryMethod selects how an order reaches the customer.
type DeliveryMethod string

const (
	DeliveryCourier DeliveryMethod = "courier"
	DeliveryPickup  DeliveryMethod = "pickup"
)

// Valid reports whether m is a known delivery method.
func (m DeliveryMethod) Valid() bool {
	return m == DeliveryCourier || m == DeliveryPickup
}

// Config holds the delivery pricing rules.
type Config struct {
	// DeliveryFee is the flat courier fee charged below the free threshold.
	DeliveryFee decimal.Decimal
	// FreeDeliveryThreshold is the discounted subtotal at which courier
	// delivery becomes free.
	FreeDeliveryThreshold decimal.Decimal
}

// DefaultConfig returns the standard fee schedule: flat 5, free from 100.
func DefaultConfig() Config {
	return Config{
		DeliveryFee:           decimal.NewFromInt(5),
		FreeDeliveryThreshold: decimal.NewFromInt(100),
	}
}

// Quote is a fully priced order breakdown.
type Quote struct {
	Subtotal           decimal.Decimal
	Discount           decimal.Decimal
	DiscountedSubtotal decimal.Decimal
	DeliveryCost       decimal.Decimal
	Total              decimal.Decimal
}

// DeliveryCost returns the delivery fee for the given method and discounted
// subtotal: zero for pickup, zero at or above the free threshold, otherwise
// the flat fee.
func (c Config) DeliveryCost(method DeliveryMethod, discountedSubtotal decimal.Decimal) decimal.Decimal {
	if method == DeliveryPickup {
		return decimal.Zero
	}
	if discountedSubtotal.GreaterThanOrEqual(c.FreeDeliveryThreshold) {
		return decimal.Zero
	}
	return c.DeliveryFee
}

// Price computes the full quote. The discount is applied first and the
// discounted subtotal is floored at zero before the delivery fee is added,
// so a large discount can never produce a negative pre-delivery amount.
func (c Config) Price(subtotal, discount decimal.Decimal, method DeliveryMethod) Quote {
	discounted := subtotal.Sub(discount)
	if discounted.IsNegative() {
		discounted = decimal.Zero
	}
	delivery := c.DeliveryCost(method, discounted)

	return Quote{
		Subtotal:           subtotal.Round(2),
		Discount:           discount.Round(2),
		DiscountedSubtotal: discounted.Round(2),
		DeliveryCost:       delivery.Round(2),
		Total:              discounted.Add(delivery).Round(2),
	}
}
