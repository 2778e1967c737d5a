// Package handler exposes the HTTP surface: menu browsing, the session
// cart, checkout with SMS verification, reservations, reviews, and the
// admin order endpoints.
//
// Cart and checkout endpoints answer with the JSON envelope the site's
// frontend consumes: {"success": bool, "message": string, ...} with money
// fields as plain numbers.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/saffron-restaurant/api/internal/domain/coupon"
	"github.com/saffron-restaurant/api/internal/domain/menu"
	"github.com/saffron-restaurant/api/internal/domain/order"
	"github.com/saffron-restaurant/api/internal/domain/pricing"
	"github.com/saffron-restaurant/api/internal/domain/reservation"
	"github.com/saffron-restaurant/api/internal/domain/review"
	"github.com/saffron-restaurant/api/internal/session"
)

// Config holds non-dependency handler settings.
type Config struct {
	// Pricing feeds the totals blocks returned by the cart endpoints.
	Pricing pricing.Config
	// ImageBaseURL is prepended to relative menu image paths. Empty leaves
	// paths as stored.
	ImageBaseURL string
}

// Handler routes HTTP requests to the domain services.
type Handler struct {
	cfg          Config
	catalog      menu.Repository
	coupons      *coupon.Resolver
	orders       *order.Service
	reservations *reservation.Service
	reviews      *review.Service
	sessions     *session.Manager
}

// New constructs a Handler with the required domain dependencies.
func New(
	cfg Config,
	catalog menu.Repository,
	coupons *coupon.Resolver,
	orders *order.Service,
	reservations *reservation.Service,
	reviews *review.Service,
	sessions *session.Manager,
) *Handler {
	return &Handler{
		cfg:          cfg,
		catalog:      catalog,
		coupons:      coupons,
		orders:       orders,
		reservations: reservations,
		reviews:      reviews,
		sessions:     sessions,
	}
}

// Routes registers every customer-facing endpoint on mux. Admin routes are
// registered separately so they can sit behind API key auth.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/menu", h.MenuList)
	mux.HandleFunc("GET /api/menu/categories", h.MenuCategories)

	mux.HandleFunc("GET /menu/add-to-cart/{id}", h.AddToCart)
	mux.HandleFunc("GET /menu/remove-from-cart/{id}", h.RemoveFromCart)

	mux.HandleFunc("GET /cart/", h.CartDetail)
	mux.HandleFunc("POST /cart/update/", h.CartUpdate)
	mux.HandleFunc("POST /cart/apply-coupon/", h.ApplyCoupon)
	mux.HandleFunc("POST /cart/update-totals/", h.UpdateTotals)
	mux.HandleFunc("GET /cart/summary/", h.CartSummary)
	mux.HandleFunc("POST /cart/clear/", h.CartClear)

	mux.HandleFunc("POST /checkout/", h.Checkout)
	mux.HandleFunc("POST /verify-sms/", h.VerifySMS)

	mux.HandleFunc("POST /reservations/", h.CreateReservation)
	mux.HandleFunc("GET /reviews/", h.ListReviews)
	mux.HandleFunc("POST /reviews/", h.CreateReview)
}

// AdminRoutes registers the API-key protected endpoints on mux.
func (h *Handler) AdminRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /admin/orders/{id}/status", h.UpdateOrderStatus)
}

// envelope is the common AJAX response shape.
type envelope map[string]any

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		zctx.From(r.Context()).Warn("encoding response", zap.Error(err))
	}
}

func writeOK(w http.ResponseWriter, r *http.Request, body envelope) {
	if _, ok := body["success"]; !ok {
		body["success"] = true
	}
	writeJSON(w, r, http.StatusOK, body)
}

// writeFail reports an expected, user-facing failure. The frontend keys off
// the success flag, so these still travel with status 200.
func writeFail(w http.ResponseWriter, r *http.Request, message string) {
	writeJSON(w, r, http.StatusOK, envelope{"success": false, "message": message})
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	if err != nil {
		zctx.From(r.Context()).Error(message, zap.Error(err))
	}
	writeJSON(w, r, status, envelope{"success": false, "message": message})
}

// loadSession wraps session loading with a uniform error response.
func (h *Handler) loadSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := h.sessions.Load(w, r)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "session unavailable", err)
		return nil, false
	}
	return sess, true
}

// saveSession persists the session, logging on failure. Mutating endpoints
// must persist before answering or the change is lost.
func (h *Handler) saveSession(w http.ResponseWriter, r *http.Request, sess *session.Session) bool {
	if err := h.sessions.Save(r.Context(), sess); err != nil {
		writeError(w, r, http.StatusInternalServerError, "saving session", err)
		return false
	}
	return true
}
