package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/saffron-restaurant/api/internal/domain/pricing"
	"github.com/saffron-restaurant/api/internal/session"
)

// cartTotals resolves the session's applied coupon against the current
// subtotal and prices the cart for courier delivery, the default the cart
// pages display. A coupon that is gone or no longer valid is silently
// dropped from the session, matching how the site has always behaved.
func (h *Handler) cartTotals(r *http.Request, sess *session.Session) (pricing.Quote, bool, error) {
	subtotal := sess.Cart.Subtotal()

	dropped := false
	discount := decimal.Zero
	if code := sess.Cart.AppliedCoupon; code != "" {
		c, d, err := h.coupons.Resolve(r.Context(), code, subtotal)
		if err != nil {
			return pricing.Quote{}, false, err
		}
		if c == nil {
			sess.Cart.AppliedCoupon = ""
			dropped = true
		} else {
			discount = d
		}
	}

	return h.cfg.Pricing.Price(subtotal, discount, pricing.DeliveryCourier), dropped, nil
}

func totalsFields(q pricing.Quote, cfg pricing.Config) envelope {
	return envelope{
		"subtotal":                q.Subtotal.InexactFloat64(),
		"discount":                q.Discount.InexactFloat64(),
		"cart_subtotal":           q.DiscountedSubtotal.InexactFloat64(),
		"delivery_cost":           q.DeliveryCost.InexactFloat64(),
		"order_total":             q.Total.InexactFloat64(),
		"free_delivery_threshold": cfg.FreeDeliveryThreshold.InexactFloat64(),
		"fixed_delivery_cost":     cfg.DeliveryFee.InexactFloat64(),
	}
}

// CartDetail handles GET /cart/: the full line listing plus totals.
func (h *Handler) CartDetail(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	details, err := sess.Cart.Details(r.Context(), h.catalog)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "loading cart", err)
		return
	}

	quote, dropped, err := h.cartTotals(r, sess)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "pricing cart", err)
		return
	}
	if dropped && !h.saveSession(w, r, sess) {
		return
	}

	items := make([]envelope, 0, len(details))
	for _, d := range details {
		items = append(items, envelope{
			"dish_id":      d.ItemID,
			"name":         d.Name,
			"description":  d.Description,
			"quantity":     d.Quantity,
			"price":        d.Price.InexactFloat64(),
			"total_price":  d.Total().InexactFloat64(),
			"cooking_time": d.CookingTime,
			"image":        h.imageURL(d.Item.Image),
		})
	}

	body := totalsFields(quote, h.cfg.Pricing)
	body["items"] = items
	body["applied_coupon"] = sess.Cart.AppliedCoupon
	body["item_count"] = sess.Cart.ItemCount()
	body["is_empty"] = sess.Cart.IsEmpty()
	writeOK(w, r, body)
}

// CartUpdate handles POST /cart/update/: quantity changes and removals
// posted by the cart page. Expects form fields dish_id, quantity, action.
func (h *Handler) CartUpdate(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	dishID, err := strconv.ParseInt(r.FormValue("dish_id"), 10, 64)
	if err != nil {
		writeFail(w, r, "Item not found")
		return
	}

	action := r.FormValue("action")
	removed := false
	switch {
	case action == "remove":
		if _, exists := sess.Cart.Line(dishID); !exists {
			writeFail(w, r, "Item not found in cart")
			return
		}
		sess.Cart.Remove(dishID)
		removed = true

	default:
		qty, err := strconv.Atoi(r.FormValue("quantity"))
		if err != nil || qty < 0 {
			writeFail(w, r, "Invalid quantity")
			return
		}
		if !sess.Cart.UpdateQuantity(dishID, qty) {
			writeFail(w, r, "Item not found in cart")
			return
		}
		removed = qty == 0
	}

	if !h.saveSession(w, r, sess) {
		return
	}

	body := envelope{
		"item_removed":    removed,
		"cart_item_count": sess.Cart.ItemCount(),
		"cart_total":      sess.Cart.Subtotal().InexactFloat64(),
	}
	if line, exists := sess.Cart.Line(dishID); exists {
		body["quantity"] = line.Quantity
		body["item_total"] = line.Total().InexactFloat64()
	}
	writeOK(w, r, body)
}

// ApplyCoupon handles POST /cart/apply-coupon/.
func (h *Handler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	code := strings.TrimSpace(r.FormValue("coupon_code"))
	if code == "" {
		writeFail(w, r, "Please enter a coupon code")
		return
	}

	c, _, err := h.coupons.Resolve(r.Context(), code, sess.Cart.Subtotal())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "checking coupon", err)
		return
	}
	if c == nil {
		writeFail(w, r, "Invalid coupon code")
		return
	}

	sess.Cart.AppliedCoupon = c.Code
	if !h.saveSession(w, r, sess) {
		return
	}
	writeOK(w, r, envelope{})
}

// UpdateTotals handles POST /cart/update-totals/: the totals block the cart
// page refreshes after every change.
func (h *Handler) UpdateTotals(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	quote, dropped, err := h.cartTotals(r, sess)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "pricing cart", err)
		return
	}
	if dropped && !h.saveSession(w, r, sess) {
		return
	}
	writeOK(w, r, totalsFields(quote, h.cfg.Pricing))
}

// CartSummary handles GET /cart/summary/: the compact header widget state.
func (h *Handler) CartSummary(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	quote, dropped, err := h.cartTotals(r, sess)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "pricing cart", err)
		return
	}
	if dropped && !h.saveSession(w, r, sess) {
		return
	}

	body := totalsFields(quote, h.cfg.Pricing)
	body["item_count"] = sess.Cart.ItemCount()
	body["unique_item_count"] = sess.Cart.UniqueCount()
	body["is_empty"] = sess.Cart.IsEmpty()
	writeOK(w, r, body)
}

// CartClear handles POST /cart/clear/. Clearing also forgets the applied
// coupon.
func (h *Handler) CartClear(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.loadSession(w, r)
	if !ok {
		return
	}

	sess.Cart.Clear()
	if !h.saveSession(w, r, sess) {
		return
	}
	writeOK(w, r, envelope{"message": "Cart cleared"})
}
