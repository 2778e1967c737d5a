package notify

import (
	"fmt"
	"strings"

	"github.com/saffron-restaurant/api/internal/domain/order"
	"github.com/saffron-restaurant/api/internal/domain/reservation"
	"github.com/saffron-restaurant/api/internal/domain/review"
)

// shortID abbreviates an order ID for admin messages.
func shortID(id fmt.Stringer) string {
	s := strings.ReplaceAll(id.String(), "-", "")
	if len(s) > 8 {
		s = s[:8]
	}
	return s
}

func formatOrderConfirmed(o *order.Order, lines []order.Line) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Order #%s\n", shortID(o.ID))
	fmt.Fprintf(&b, "Customer: %s\n", o.CustomerName)
	fmt.Fprintf(&b, "Phone: %s\n", o.PhoneNumber)
	fmt.Fprintf(&b, "Payment: %s\n", o.PaymentMethod)
	fmt.Fprintf(&b, "Delivery: %s (%s)\n", o.DeliveryMethod, o.DeliveryAddress)
	b.WriteString("\nItems:\n")

	if len(lines) == 0 {
		b.WriteString("- none -\n")
	}
	for _, l := range lines {
		fmt.Fprintf(&b, "- %s x%d = %s\n", l.Name, l.Quantity, l.Total().StringFixed(2))
	}

	fmt.Fprintf(&b, "\nSubtotal: %s\n", o.Subtotal.StringFixed(2))
	if o.Discount.IsPositive() {
		fmt.Fprintf(&b, "Discount: -%s (%s)\n", o.Discount.StringFixed(2), o.CouponCode)
	}
	fmt.Fprintf(&b, "Delivery cost: %s\n", o.DeliveryCost.StringFixed(2))
	fmt.Fprintf(&b, "Total: %s\n", o.Total.StringFixed(2))

	return b.String()
}

func formatReservationCreated(r *reservation.Reservation) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Name: %s\n", r.Name)
	fmt.Fprintf(&b, "Phone: %s\n", r.Phone)
	fmt.Fprintf(&b, "Email: %s\n", r.Email)
	fmt.Fprintf(&b, "Guests: %d\n", r.Guests)
	fmt.Fprintf(&b, "Date: %s at %s\n", r.VisitDate.Format("02.01.2006"), r.VisitTime)

	if r.SpecialRequest != "" {
		fmt.Fprintf(&b, "\nSpecial request:\n%s\n", r.SpecialRequest)
	}
	return b.String()
}

func formatReviewCreated(r *review.Review) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Author: %s\n", r.Author)
	fmt.Fprintf(&b, "Rating: %d/5\n", r.Rating)
	fmt.Fprintf(&b, "\n%s\n", r.Body)

	return b.String()
}
