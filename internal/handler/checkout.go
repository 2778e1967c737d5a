package handler

import (
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/saffron-restaurant/api/internal/domain/order"
	"github.com/saffron-restaurant/api/internal/domain/pricing"
)

// Checkout handles POST /checkout/. On success the order awaits SMS
// verification; its id is stashed in the session and the cart stays intact
// until the code is confirmed.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	if r.FormValue("agree") == "" {
		writeFail(w, r, "Please agree to the Terms and Privacy Policy")
		return
	}

	req := order.CheckoutRequest{
		CustomerName:    strings.TrimSpace(r.FormValue("customer_name")),
		PhoneNumber:     strings.TrimSpace(r.FormValue("phone_number")),
		DeliveryAddress: strings.TrimSpace(r.FormValue("delivery_address")),
		DeliveryMethod:  pricing.DeliveryMethod(r.FormValue("delivery_method")),
		PaymentMethod:   order.PaymentMethod(r.FormValue("payment_method")),
	}

	o, err := h.orders.Checkout(r.Context(), sess.Cart, req)
	if err != nil {
		var vErr *order.ValidationError
		switch {
		case errors.Is(err, order.ErrEmptyCart):
			writeFail(w, r, "Your cart is empty")
		case errors.As(err, &vErr):
			writeFail(w, r, checkoutFieldMessage(vErr))
		case errors.Is(err, order.ErrInvalidDelivery):
			writeFail(w, r, "Unknown delivery method")
		case errors.Is(err, order.ErrInvalidPayment):
			writeFail(w, r, "Unknown payment method")
		default:
			writeError(w, r, http.StatusInternalServerError, "Error creating order", err)
		}
		return
	}

	// The coupon was consumed at checkout; keep it out of future carts.
	sess.Cart.AppliedCoupon = ""
	sess.PendingOrderID = o.ID
	if !h.saveSession(w, r, sess) {
		return
	}

	writeOK(w, r, envelope{
		"message":  "SMS code sent to your phone",
		"order_id": o.ID.String(),
	})
}

func checkoutFieldMessage(err *order.ValidationError) string {
	switch err.Field {
	case "customer_name":
		return "Please enter your name"
	case "phone_number":
		return "Please enter your phone number"
	case "delivery_address":
		return "Please enter delivery address"
	default:
		return err.Error()
	}
}

// VerifySMS handles POST /verify-sms/. A correct code confirms the pending
// order exactly once, then clears the cart and the pending marker.
func (h *Handler) VerifySMS(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	code := strings.TrimSpace(r.FormValue("sms_code"))
	if code == "" || sess.PendingOrderID == uuid.Nil {
		writeFail(w, r, "Invalid code")
		return
	}

	_, err := h.orders.VerifyCode(r.Context(), sess.PendingOrderID, code)
	if err != nil {
		switch {
		case errors.Is(err, order.ErrInvalidCode):
			writeFail(w, r, "Please enter a valid 4-digit code")
		case errors.Is(err, order.ErrCodeExpired):
			writeFail(w, r, "Code expired, please order again")
		case errors.Is(err, order.ErrAlreadyConfirmed):
			writeFail(w, r, "Order already confirmed")
		case errors.Is(err, order.ErrNotFound):
			writeFail(w, r, "Order not found")
		default:
			writeError(w, r, http.StatusInternalServerError, "verifying code", err)
		}
		return
	}

	sess.Cart.Clear()
	sess.PendingOrderID = uuid.Nil
	if !h.saveSession(w, r, sess) {
		return
	}

	writeOK(w, r, envelope{"message": "Order confirmed successfully!"})
}
