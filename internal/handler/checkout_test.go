package handler

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/saffron-restaurant/api/internal/domain/auth"
	"github.com/saffron-restaurant/api/internal/domain/order"
	"github.com/saffron-restaurant/api/pkg/httpmiddleware"
)

func checkoutForm() url.Values {
	return url.Values{
		"agree":            {"on"},
		"customer_name":    {"Aziza"},
		"phone_number":     {"+998901234567"},
		"delivery_address": {"12 Navoi St"},
		"delivery_method":  {"courier"},
		"payment_method":   {"cash"},
	}
}

func TestCheckout_EmptyCart(t *testing.T) {
	f := newFixture(t)

	_, body := f.do(t, http.MethodPost, "/checkout/", checkoutForm(), nil)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Your cart is empty", body["message"])
}

func TestCheckout_RequiresAgreement(t *testing.T) {
	f := newFixture(t)

	w, _ := f.do(t, http.MethodGet, "/menu/add-to-cart/1", nil, nil)
	cookie := sessionCookie(t, w)

	form := checkoutForm()
	form.Del("agree")
	_, body := f.do(t, http.MethodPost, "/checkout/", form, cookie)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Please agree to the Terms and Privacy Policy", body["message"])
}

func TestCheckout_MissingName(t *testing.T) {
	f := newFixture(t)

	w, _ := f.do(t, http.MethodGet, "/menu/add-to-cart/1", nil, nil)
	cookie := sessionCookie(t, w)

	form := checkoutForm()
	form.Set("customer_name", "")
	_, body := f.do(t, http.MethodPost, "/checkout/", form, cookie)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Please enter your name", body["message"])
}

func TestCheckout_Success(t *testing.T) {
	f := newFixture(t)

	// Pilaf x2 + Lagman = 55.00 → total 60.00 with delivery.
	w, _ := f.do(t, http.MethodGet, "/menu/add-to-cart/1?quantity=2", nil, nil)
	cookie := sessionCookie(t, w)
	f.do(t, http.MethodGet, "/menu/add-to-cart/2", nil, cookie)

	_, body := f.do(t, http.MethodPost, "/checkout/", checkoutForm(), cookie)
	require.Equal(t, true, body["success"], "body: %v", body)
	assert.Equal(t, "SMS code sent to your phone", body["message"])

	orderID, err := uuid.Parse(body["order_id"].(string))
	require.NoError(t, err)

	stored := f.orders.orders[orderID]
	require.NotNil(t, stored)
	assert.Equal(t, "60", stored.Total.String())
	assert.Equal(t, order.StatusNew, stored.Status)
	assert.False(t, stored.Confirmed)

	// Code went out but never into the response or the order row.
	require.Len(t, f.sms.lastCode, 4)
	assert.NotContains(t, body, "sms_code")
	assert.NotEqual(t, f.sms.lastCode, stored.CodeHash)

	// The cart survives until verification.
	_, summary := f.do(t, http.MethodGet, "/cart/summary/", nil, cookie)
	assert.Equal(t, false, summary["is_empty"])
}

func TestVerifySMS_ConfirmsAndClearsCart(t *testing.T) {
	f := newFixture(t)

	w, _ := f.do(t, http.MethodGet, "/menu/add-to-cart/1", nil, nil)
	cookie := sessionCookie(t, w)
	_, body := f.do(t, http.MethodPost, "/checkout/", checkoutForm(), cookie)
	require.Equal(t, true, body["success"])
	orderID := uuid.MustParse(body["order_id"].(string))

	_, body = f.do(t, http.MethodPost, "/verify-sms/", url.Values{
		"sms_code": {f.sms.lastCode},
	}, cookie)
	require.Equal(t, true, body["success"], "body: %v", body)
	assert.Equal(t, "Order confirmed successfully!", body["message"])

	assert.True(t, f.orders.orders[orderID].Confirmed)
	assert.Equal(t, order.StatusConfirmed, f.orders.orders[orderID].Status)

	_, summary := f.do(t, http.MethodGet, "/cart/summary/", nil, cookie)
	assert.Equal(t, true, summary["is_empty"])

	// Second attempt finds no pending order in the session.
	_, body = f.do(t, http.MethodPost, "/verify-sms/", url.Values{
		"sms_code": {f.sms.lastCode},
	}, cookie)
	assert.Equal(t, false, body["success"])
}

func TestVerifySMS_WrongCode(t *testing.T) {
	f := newFixture(t)

	w, _ := f.do(t, http.MethodGet, "/menu/add-to-cart/1", nil, nil)
	cookie := sessionCookie(t, w)
	_, body := f.do(t, http.MethodPost, "/checkout/", checkoutForm(), cookie)
	require.Equal(t, true, body["success"])
	orderID := uuid.MustParse(body["order_id"].(string))

	wrong := "1234"
	if f.sms.lastCode == wrong {
		wrong = "4321"
	}
	_, body = f.do(t, http.MethodPost, "/verify-sms/", url.Values{
		"sms_code": {wrong},
	}, cookie)
	assert.Equal(t, false, body["success"])
	assert.False(t, f.orders.orders[orderID].Confirmed)

	// The cart is untouched so the customer can retry.
	_, summary := f.do(t, http.MethodGet, "/cart/summary/", nil, cookie)
	assert.Equal(t, false, summary["is_empty"])
}

func TestVerifySMS_NoPendingOrder(t *testing.T) {
	f := newFixture(t)

	_, body := f.do(t, http.MethodPost, "/verify-sms/", url.Values{
		"sms_code": {"1234"},
	}, nil)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Invalid code", body["message"])
}

func TestCreateReservation(t *testing.T) {
	f := newFixture(t)

	_, body := f.do(t, http.MethodPost, "/reservations/", url.Values{
		"name":       {"Bobur"},
		"email":      {"bobur@example.com"},
		"phone":      {"+998901112233"},
		"guests":     {"4"},
		"visit_date": {"2031-05-20"},
		"visit_time": {"19:00"},
	}, nil)
	require.Equal(t, true, body["success"], "body: %v", body)
	assert.Equal(t, float64(7), body["reservation_id"])
}

func TestCreateReservation_TooManyGuests(t *testing.T) {
	f := newFixture(t)

	_, body := f.do(t, http.MethodPost, "/reservations/", url.Values{
		"name":       {"Bobur"},
		"email":      {"bobur@example.com"},
		"phone":      {"+998901112233"},
		"guests":     {"12"},
		"visit_date": {"2031-05-20"},
		"visit_time": {"19:00"},
	}, nil)
	assert.Equal(t, false, body["success"])
}

func TestCreateReview(t *testing.T) {
	f := newFixture(t)

	_, body := f.do(t, http.MethodPost, "/reviews/", url.Values{
		"author": {"Dilnoza"},
		"text":   {"Best pilaf in town"},
		"rating": {"5"},
	}, nil)
	require.Equal(t, true, body["success"], "body: %v", body)

	_, body = f.do(t, http.MethodPost, "/reviews/", url.Values{
		"author": {"Dilnoza"},
		"text":   {"meh"},
		"rating": {"9"},
	}, nil)
	assert.Equal(t, false, body["success"])
}

// --- Admin status endpoint ---

type mockKeyRepo struct {
	byHash map[string]*auth.APIKeyInfo
}

func (m *mockKeyRepo) FindByHash(_ context.Context, hash string) (*auth.APIKeyInfo, error) {
	info, ok := m.byHash[hash]
	if !ok {
		return nil, auth.ErrKeyNotFound
	}
	return info, nil
}

func keyHash(pepper []byte, key string) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(key))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestUpdateOrderStatus(t *testing.T) {
	f := newFixture(t)

	pepper := []byte("pepper")
	hash := keyHash(pepper, "admin-key")
	keys := &mockKeyRepo{byHash: map[string]*auth.APIKeyInfo{
		hash: {ID: "k1", KeyHash: hash, Name: "admin"},
	}}

	adminMux := http.NewServeMux()
	f.handler.AdminRoutes(adminMux)
	protected := httpmiddleware.Wrap(adminMux, APIKeyAuth(keys, pepper))

	// Place and confirm an order first.
	w, _ := f.do(t, http.MethodGet, "/menu/add-to-cart/1", nil, nil)
	cookie := sessionCookie(t, w)
	_, body := f.do(t, http.MethodPost, "/checkout/", checkoutForm(), cookie)
	require.Equal(t, true, body["success"])
	orderID := uuid.MustParse(body["order_id"].(string))
	f.do(t, http.MethodPost, "/verify-sms/", url.Values{"sms_code": {f.sms.lastCode}}, cookie)

	post := func(apiKey, status string) *httptest.ResponseRecorder {
		form := url.Values{"status": {status}}
		req := httptest.NewRequest(http.MethodPost,
			"/admin/orders/"+orderID.String()+"/status",
			strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if apiKey != "" {
			req.Header.Set("X-API-Key", apiKey)
		}
		w := httptest.NewRecorder()
		protected.ServeHTTP(w, req)
		return w
	}

	// No key.
	assert.Equal(t, http.StatusUnauthorized, post("", "preparing").Code)
	// Wrong key.
	assert.Equal(t, http.StatusUnauthorized, post("nope", "preparing").Code)

	// Legal transition.
	w2 := post("admin-key", "preparing")
	require.Equal(t, http.StatusOK, w2.Code, "body: %s", w2.Body.String())
	assert.Equal(t, order.StatusPreparing, f.orders.orders[orderID].Status)

	// Illegal transition.
	w3 := post("admin-key", "completed")
	assert.Equal(t, http.StatusUnprocessableEntity, w3.Code)
	assert.Equal(t, order.StatusPreparing, f.orders.orders[orderID].Status)
}
