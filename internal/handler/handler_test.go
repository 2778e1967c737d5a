package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/saffron-restaurant/api/internal/domain/coupon"
	"github.com/saffron-restaurant/api/internal/domain/menu"
	"github.com/saffron-restaurant/api/internal/domain/order"
	"github.com/saffron-restaurant/api/internal/domain/pricing"
	"github.com/saffron-restaurant/api/internal/domain/reservation"
	"github.com/saffron-restaurant/api/internal/domain/review"
	"github.com/saffron-restaurant/api/internal/session"
)

// --- Mock implementations ---

type mockCatalog struct {
	byID map[int64]menu.Item
}

func (m *mockCatalog) List(context.Context) ([]menu.Item, error) {
	items := make([]menu.Item, 0, len(m.byID))
	for _, item := range m.byID {
		items = append(items, item)
	}
	return items, nil
}

func (m *mockCatalog) ListCategories(context.Context) ([]menu.Category, error) {
	return []menu.Category{{ID: 1, Name: "Mains"}}, nil
}

func (m *mockCatalog) GetByID(_ context.Context, id int64) (*menu.Item, error) {
	item, ok := m.byID[id]
	if !ok {
		return nil, menu.ErrNotFound
	}
	return &item, nil
}

func (m *mockCatalog) GetByIDs(_ context.Context, ids []int64) ([]menu.Item, error) {
	var items []menu.Item
	for _, id := range ids {
		if item, ok := m.byID[id]; ok {
			items = append(items, item)
		}
	}
	return items, nil
}

type mockCouponRepo struct {
	byCode   map[string]*coupon.Coupon
	redeemed []string
}

func (m *mockCouponRepo) FindByCode(_ context.Context, code string) (*coupon.Coupon, error) {
	c, ok := m.byCode[code]
	if !ok {
		return nil, coupon.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockCouponRepo) Redeem(_ context.Context, code string) error {
	m.redeemed = append(m.redeemed, code)
	return nil
}

type mockOrderRepo struct {
	orders map[uuid.UUID]*order.Order
	lines  map[uuid.UUID][]order.Line
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{
		orders: make(map[uuid.UUID]*order.Order),
		lines:  make(map[uuid.UUID][]order.Line),
	}
}

func (m *mockOrderRepo) Create(_ context.Context, o *order.Order, lines []order.Line) error {
	cp := *o
	m.orders[o.ID] = &cp
	m.lines[o.ID] = lines
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id uuid.UUID) (*order.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepo) Lines(_ context.Context, id uuid.UUID) ([]order.Line, error) {
	return m.lines[id], nil
}

func (m *mockOrderRepo) Confirm(_ context.Context, id uuid.UUID) (bool, error) {
	o, ok := m.orders[id]
	if !ok || o.Confirmed {
		return false, nil
	}
	o.Confirmed = true
	o.Status = order.StatusConfirmed
	return true, nil
}

func (m *mockOrderRepo) UpdateStatus(_ context.Context, id uuid.UUID, status order.Status) error {
	o, ok := m.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	o.Status = status
	return nil
}

type mockSMS struct {
	lastPhone string
	lastCode  string
}

func (m *mockSMS) SendCode(_ context.Context, phone, code string) error {
	m.lastPhone = phone
	m.lastCode = code
	return nil
}

type nopPublisher struct{}

func (nopPublisher) OrderConfirmed(*order.Order, []order.Line)   {}
func (nopPublisher) ReservationCreated(*reservation.Reservation) {}
func (nopPublisher) ReviewCreated(*review.Review)                {}

type memSessionRepo struct {
	byToken map[uuid.UUID]*session.Session
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{byToken: make(map[uuid.UUID]*session.Session)}
}

func (m *memSessionRepo) Get(_ context.Context, token uuid.UUID) (*session.Session, error) {
	s, ok := m.byToken[token]
	if !ok {
		return nil, session.ErrNotFound
	}
	return s, nil
}

func (m *memSessionRepo) Save(_ context.Context, s *session.Session) error {
	m.byToken[s.Token] = s
	return nil
}

type mockReservationRepo struct{ last *reservation.Reservation }

func (m *mockReservationRepo) Create(_ context.Context, r *reservation.Reservation) error {
	r.ID = 7
	m.last = r
	return nil
}

type mockReviewRepo struct {
	created   []*review.Review
	published []review.Review
}

func (m *mockReviewRepo) Create(_ context.Context, r *review.Review) error {
	r.ID = int64(len(m.created) + 1)
	m.created = append(m.created, r)
	return nil
}

func (m *mockReviewRepo) ListPublished(context.Context) ([]review.Review, error) {
	return m.published, nil
}

// --- Fixture ---

type fixture struct {
	handler  *Handler
	mux      *http.ServeMux
	sessions *memSessionRepo
	coupons  *mockCouponRepo
	orders   *mockOrderRepo
	sms      *mockSMS
}

func price(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func validCoupon(code, percent, amount string) *coupon.Coupon {
	return &coupon.Coupon{
		Code:            code,
		DiscountPercent: price(percent),
		DiscountAmount:  price(amount),
		Active:          true,
		ValidFrom:       time.Now().Add(-time.Hour),
		ValidUntil:      time.Now().Add(time.Hour),
		MaxUses:         10,
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	catalog := &mockCatalog{byID: map[int64]menu.Item{
		1: {ID: 1, Name: "Pilaf", Price: price("20.00"), CookingTime: 25},
		2: {ID: 2, Name: "Lagman", Price: price("15.00"), CookingTime: 20},
	}}
	coupons := &mockCouponRepo{byCode: map[string]*coupon.Coupon{}}
	orders := newMockOrderRepo()
	sms := &mockSMS{}
	sessions := newMemSessionRepo()

	orderSvc := order.NewService(order.Config{
		Pricing:    pricing.DefaultConfig(),
		CodePepper: []byte("test-pepper"),
	}, catalog, coupons, orders, sms, nopPublisher{}, zap.NewNop())

	h := New(
		Config{Pricing: pricing.DefaultConfig()},
		catalog,
		coupon.NewResolver(coupons),
		orderSvc,
		reservation.NewService(&mockReservationRepo{}, nopPublisher{}),
		review.NewService(&mockReviewRepo{}, nopPublisher{}),
		session.NewManager(sessions, false),
	)

	mux := http.NewServeMux()
	h.Routes(mux)
	h.AdminRoutes(mux)

	return &fixture{
		handler:  h,
		mux:      mux,
		sessions: sessions,
		coupons:  coupons,
		orders:   orders,
		sms:      sms,
	}
}

// do performs a request carrying the session cookie, returning the response
// and the decoded JSON body.
func (f *fixture) do(t *testing.T, method, target string, form url.Values, cookie *http.Cookie) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), "body: %s", w.Body.String())
	return w, body
}

func sessionCookie(t *testing.T, w *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range w.Result().Cookies() {
		if c.Name == session.CookieName {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

// --- Tests ---

func TestAddToCart(t *testing.T) {
	f := newFixture(t)

	w, body := f.do(t, http.MethodGet, "/menu/add-to-cart/1?quantity=2", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(2), body["cart_item_count"])
	assert.Equal(t, 40.0, body["cart_total"])

	// The response sets a session cookie that carries the cart forward.
	cookie := sessionCookie(t, w)
	_, body = f.do(t, http.MethodGet, "/menu/add-to-cart/2", nil, cookie)
	assert.Equal(t, float64(3), body["cart_item_count"])
	assert.Equal(t, 55.0, body["cart_total"])
}

func TestAddToCart_UnknownItem(t *testing.T) {
	f := newFixture(t)

	_, body := f.do(t, http.MethodGet, "/menu/add-to-cart/99", nil, nil)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Item not found", body["message"])
}

func TestRemoveFromCart(t *testing.T) {
	f := newFixture(t)

	w, _ := f.do(t, http.MethodGet, "/menu/add-to-cart/1", nil, nil)
	cookie := sessionCookie(t, w)

	_, body := f.do(t, http.MethodGet, "/menu/remove-from-cart/1", nil, cookie)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(0), body["cart_item_count"])
}

func TestCartUpdate_SetQuantity(t *testing.T) {
	f := newFixture(t)

	w, _ := f.do(t, http.MethodGet, "/menu/add-to-cart/1", nil, nil)
	cookie := sessionCookie(t, w)

	_, body := f.do(t, http.MethodPost, "/cart/update/", url.Values{
		"dish_id":  {"1"},
		"quantity": {"5"},
	}, cookie)

	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(5), body["quantity"])
	assert.Equal(t, 100.0, body["item_total"])
	assert.Equal(t, false, body["item_removed"])
}

func TestCartUpdate_ZeroRemoves(t *testing.T) {
	f := newFixture(t)

	w, _ := f.do(t, http.MethodGet, "/menu/add-to-cart/1", nil, nil)
	cookie := sessionCookie(t, w)

	_, body := f.do(t, http.MethodPost, "/cart/update/", url.Values{
		"dish_id":  {"1"},
		"quantity": {"0"},
	}, cookie)

	assert.Equal(t, true, body["success"])
	assert.Equal(t, true, body["item_removed"])
	assert.Equal(t, float64(0), body["cart_item_count"])
}

func TestCartUpdate_RemoveAction(t *testing.T) {
	f := newFixture(t)

	w, _ := f.do(t, http.MethodGet, "/menu/add-to-cart/1", nil, nil)
	cookie := sessionCookie(t, w)

	_, body := f.do(t, http.MethodPost, "/cart/update/", url.Values{
		"dish_id": {"1"},
		"action":  {"remove"},
	}, cookie)
	assert.Equal(t, true, body["item_removed"])

	_, body = f.do(t, http.MethodPost, "/cart/update/", url.Values{
		"dish_id": {"1"},
		"action":  {"remove"},
	}, cookie)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Item not found in cart", body["message"])
}

func TestApplyCoupon(t *testing.T) {
	f := newFixture(t)
	f.coupons.byCode["SAVE10"] = validCoupon("SAVE10", "10", "0")

	w, _ := f.do(t, http.MethodGet, "/menu/add-to-cart/1", nil, nil)
	cookie := sessionCookie(t, w)

	_, body := f.do(t, http.MethodPost, "/cart/apply-coupon/", url.Values{
		"coupon_code": {"SAVE10"},
	}, cookie)
	assert.Equal(t, true, body["success"])

	_, body = f.do(t, http.MethodPost, "/cart/apply-coupon/", url.Values{
		"coupon_code": {"NOPE"},
	}, cookie)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Invalid coupon code", body["message"])
}

func TestUpdateTotals_DeliveryFee(t *testing.T) {
	f := newFixture(t)

	// Pilaf x2 + Lagman = 55.00, below the free delivery threshold.
	w, _ := f.do(t, http.MethodGet, "/menu/add-to-cart/1?quantity=2", nil, nil)
	cookie := sessionCookie(t, w)
	f.do(t, http.MethodGet, "/menu/add-to-cart/2", nil, cookie)

	_, body := f.do(t, http.MethodPost, "/cart/update-totals/", nil, cookie)
	assert.Equal(t, 55.0, body["subtotal"])
	assert.Equal(t, 0.0, body["discount"])
	assert.Equal(t, 5.0, body["delivery_cost"])
	assert.Equal(t, 60.0, body["order_total"])
}

func TestUpdateTotals_PercentCoupon(t *testing.T) {
	f := newFixture(t)
	f.coupons.byCode["TEN"] = validCoupon("TEN", "10", "0")

	w, _ := f.do(t, http.MethodGet, "/menu/add-to-cart/1?quantity=2", nil, nil)
	cookie := sessionCookie(t, w)
	f.do(t, http.MethodGet, "/menu/add-to-cart/2", nil, cookie)
	f.do(t, http.MethodPost, "/cart/apply-coupon/", url.Values{"coupon_code": {"TEN"}}, cookie)

	_, body := f.do(t, http.MethodPost, "/cart/update-totals/", nil, cookie)
	assert.Equal(t, 5.5, body["discount"])
	assert.Equal(t, 49.5, body["cart_subtotal"])
	assert.Equal(t, 54.5, body["order_total"])
}

func TestUpdateTotals_StaleCouponDropped(t *testing.T) {
	f := newFixture(t)
	f.coupons.byCode["GONE"] = validCoupon("GONE", "10", "0")

	w, _ := f.do(t, http.MethodGet, "/menu/add-to-cart/1", nil, nil)
	cookie := sessionCookie(t, w)
	f.do(t, http.MethodPost, "/cart/apply-coupon/", url.Values{"coupon_code": {"GONE"}}, cookie)

	// The coupon disappears between apply and the next totals refresh.
	delete(f.coupons.byCode, "GONE")

	_, body := f.do(t, http.MethodPost, "/cart/update-totals/", nil, cookie)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, 0.0, body["discount"])

	// Dropped for good, not just for this response.
	_, body = f.do(t, http.MethodGet, "/cart/", nil, cookie)
	assert.Equal(t, "", body["applied_coupon"])
}

func TestCartDetail(t *testing.T) {
	f := newFixture(t)

	w, _ := f.do(t, http.MethodGet, "/menu/add-to-cart/1?quantity=2", nil, nil)
	cookie := sessionCookie(t, w)

	_, body := f.do(t, http.MethodGet, "/cart/", nil, cookie)
	require.Equal(t, true, body["success"])

	items, ok := body["items"].([]any)
	require.True(t, ok)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "Pilaf", item["name"])
	assert.Equal(t, float64(2), item["quantity"])
	assert.Equal(t, 40.0, item["total_price"])
}

func TestCartClear(t *testing.T) {
	f := newFixture(t)
	f.coupons.byCode["TEN"] = validCoupon("TEN", "10", "0")

	w, _ := f.do(t, http.MethodGet, "/menu/add-to-cart/1", nil, nil)
	cookie := sessionCookie(t, w)
	f.do(t, http.MethodPost, "/cart/apply-coupon/", url.Values{"coupon_code": {"TEN"}}, cookie)

	_, body := f.do(t, http.MethodPost, "/cart/clear/", nil, cookie)
	assert.Equal(t, true, body["success"])

	_, body = f.do(t, http.MethodGet, "/cart/summary/", nil, cookie)
	assert.Equal(t, true, body["is_empty"])
	assert.Equal(t, 0.0, body["subtotal"])
}

func TestCartSummary(t *testing.T) {
	f := newFixture(t)

	w, body := f.do(t, http.MethodGet, "/cart/summary/", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["is_empty"])
	assert.Equal(t, float64(0), body["item_count"])

	cookie := sessionCookie(t, w)
	f.do(t, http.MethodGet, "/menu/add-to-cart/1?quantity=3", nil, cookie)

	_, body = f.do(t, http.MethodGet, "/cart/summary/", nil, cookie)
	assert.Equal(t, false, body["is_empty"])
	assert.Equal(t, float64(3), body["item_count"])
	assert.Equal(t, float64(1), body["unique_item_count"])
}
