package order

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/saffron-restaurant/api/internal/domain/cart"
	"github.com/saffron-restaurant/api/internal/domain/coupon"
	"github.com/saffron-restaurant/api/internal/domain/menu"
	"github.com/saffron-restaurant/api/internal/domain/pricing"
)

// Sentinel errors for checkout and verification.
var (
	ErrEmptyCart         = errors.New("cart is empty")
	ErrNotFound          = errors.New("order not found")
	ErrInvalidCode       = errors.New("invalid verification code")
	ErrCodeExpired       = errors.New("verification code expired")
	ErrAlreadyConfirmed  = errors.New("order already confirmed")
	ErrInvalidTransition = errors.New("status transition not allowed")
	ErrInvalidDelivery   = errors.New("unknown delivery method")
	ErrInvalidPayment    = errors.New("unknown payment method")
)

// ValidationError reports missing or malformed checkout fields.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// CodeSender delivers a one-time verification code to a phone number.
// Delivery is best-effort: a failed send is logged, never surfaced.
type CodeSender interface {
	SendCode(ctx context.Context, phone, code string) error
}

// Publisher receives domain events for best-effort delivery to admins.
type Publisher interface {
	OrderConfirmed(o *Order, lines []Line)
}

// Config holds checkout tunables.
type Config struct {
	Pricing pricing.Config
	// CodeTTL bounds how long a verification code stays valid. Zero disables
	// expiry.
	CodeTTL time.Duration
	// CodePepper keys the HMAC used to hash verification codes at rest.
	CodePepper []byte
}

// CheckoutRequest holds the customer-supplied checkout fields.
type CheckoutRequest struct {
	CustomerName    string
	PhoneNumber     string
	DeliveryAddress string
	DeliveryMethod  pricing.DeliveryMethod
	PaymentMethod   PaymentMethod
}

// Service encapsulates checkout, verification, and status transitions.
type Service struct {
	cfg      Config
	catalog  menu.Repository
	coupons  coupon.Repository
	resolver *coupon.Resolver
	orders   Repository
	sms      CodeSender
	events   Publisher
	lg       *zap.Logger

	now     func() time.Time
	genCode func() (string, error)
}

// NewService creates an order Service with the required collaborators.
func NewService(
	cfg Config,
	catalog menu.Repository,
	coupons coupon.Repository,
	orders Repository,
	sms CodeSender,
	events Publisher,
	lg *zap.Logger,
) *Service {
	return &Service{
		cfg:      cfg,
		catalog:  catalog,
		coupons:  coupons,
		resolver: coupon.NewResolver(coupons),
		orders:   orders,
		sms:      sms,
		events:   events,
		lg:       lg,
		now:      time.Now,
		genCode:  generateCode,
	}
}

// Checkout validates the cart and customer fields, prices the order with any
// applied coupon, persists the order with one line per cart entry, and sends
// a verification code to the customer's phone. The code itself is never
// returned; only its HMAC hash is stored.
func (s *Service) Checkout(ctx context.Context, crt *cart.Cart, req CheckoutRequest) (*Order, error) {
	details, err := crt.Details(ctx, s.catalog)
	if err != nil {
		return nil, errors.Wrap(err, "resolve cart")
	}
	if len(details) == 0 {
		return nil, ErrEmptyCart
	}

	if req.DeliveryMethod == "" {
		req.DeliveryMethod = pricing.DeliveryCourier
	}
	if req.PaymentMethod == "" {
		req.PaymentMethod = PaymentCash
	}
	if err := validateCheckout(req); err != nil {
		return nil, err
	}

	subtotal := decimal.Zero
	for _, dt := range details {
		subtotal = subtotal.Add(dt.Total())
	}

	// Resolve and redeem the applied coupon. Invalid or stale codes resolve
	// to no discount; losing the redeem race downgrades to no discount too.
	applied, discount, err := s.resolver.Resolve(ctx, crt.AppliedCoupon, subtotal)
	if err != nil {
		return nil, err
	}
	couponCode := ""
	if applied != nil {
		switch err := s.coupons.Redeem(ctx, applied.Code); {
		case err == nil:
			couponCode = applied.Code
		case errors.Is(err, coupon.ErrExhausted), errors.Is(err, coupon.ErrNotFound):
			discount = decimal.Zero
		default:
			return nil, errors.Wrap(err, "redeem coupon")
		}
	}

	quote := s.cfg.Pricing.Price(subtotal, discount, req.DeliveryMethod)

	address := req.DeliveryAddress
	if req.DeliveryMethod == pricing.DeliveryPickup && address == "" {
		address = PickupAddress
	}

	code, err := s.genCode()
	if err != nil {
		return nil, errors.Wrap(err, "generate verification code")
	}

	now := s.now()
	o := &Order{
		ID:              uuid.New(),
		CustomerName:    req.CustomerName,
		PhoneNumber:     req.PhoneNumber,
		DeliveryAddress: address,
		Status:          StatusNew,
		DeliveryMethod:  req.DeliveryMethod,
		PaymentMethod:   req.PaymentMethod,
		Subtotal:        quote.Subtotal,
		Discount:        quote.Discount,
		DeliveryCost:    quote.DeliveryCost,
		Total:           quote.Total,
		CouponCode:      couponCode,
		CodeHash:        s.hashCode(code),
		CodeSentAt:      now,
		CreatedAt:       now,
	}

	lines := make([]Line, len(details))
	for i, dt := range details {
		lines[i] = Line{
			OrderID:  o.ID,
			ItemID:   dt.ItemID,
			Quantity: dt.Quantity,
			Price:    dt.Price,
			Name:     dt.Item.Name,
		}
	}

	if err := s.orders.Create(ctx, o, lines); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	if err := s.sms.SendCode(ctx, o.PhoneNumber, code); err != nil {
		s.lg.Error("send verification code",
			zap.String("order_id", o.ID.String()),
			zap.Error(err),
		)
	}

	return o, nil
}

// VerifyCode checks a submitted verification code against the stored hash and
// confirms the order on match. Confirmation happens exactly once: a second
// submission, with any code, fails with ErrAlreadyConfirmed and mutates
// nothing. On success the confirmed order is announced to admins.
func (s *Service) VerifyCode(ctx context.Context, orderID uuid.UUID, code string) (*Order, error) {
	if !isFourDigits(code) {
		return nil, ErrInvalidCode
	}

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrap(err, "load order")
	}
	if o.Confirmed {
		return nil, ErrAlreadyConfirmed
	}

	if s.cfg.CodeTTL > 0 && s.now().After(o.CodeSentAt.Add(s.cfg.CodeTTL)) {
		return nil, ErrCodeExpired
	}

	if !hmac.Equal([]byte(s.hashCode(code)), []byte(o.CodeHash)) {
		return nil, ErrInvalidCode
	}

	confirmed, err := s.orders.Confirm(ctx, orderID)
	if err != nil {
		return nil, errors.Wrap(err, "confirm order")
	}
	if !confirmed {
		return nil, ErrAlreadyConfirmed
	}
	o.Confirmed = true
	o.Status = StatusConfirmed

	lines, err := s.orders.Lines(ctx, orderID)
	if err != nil {
		s.lg.Error("load order lines for notification",
			zap.String("order_id", orderID.String()),
			zap.Error(err),
		)
	}
	s.events.OrderConfirmed(o, lines)

	return o, nil
}

// UpdateStatus moves an order to the next status, enforcing the transition
// table.
func (s *Service) UpdateStatus(ctx context.Context, orderID uuid.UUID, next Status) (*Order, error) {
	if !next.Valid() {
		return nil, errors.Wrapf(ErrInvalidTransition, "unknown status %q", next)
	}

	o, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !o.Status.CanTransitionTo(next) {
		return nil, errors.Wrapf(ErrInvalidTransition, "%s -> %s", o.Status, next)
	}

	if err := s.orders.UpdateStatus(ctx, orderID, next); err != nil {
		return nil, errors.Wrap(err, "update status")
	}
	o.Status = next
	return o, nil
}

func validateCheckout(req CheckoutRequest) error {
	if req.CustomerName == "" {
		return &ValidationError{Field: "customer_name", Reason: "required"}
	}
	if req.PhoneNumber == "" {
		return &ValidationError{Field: "phone_number", Reason: "required"}
	}
	if !req.DeliveryMethod.Valid() {
		return ErrInvalidDelivery
	}
	if !req.PaymentMethod.Valid() {
		return ErrInvalidPayment
	}
	if req.DeliveryMethod == pricing.DeliveryCourier && req.DeliveryAddress == "" {
		return &ValidationError{Field: "delivery_address", Reason: "required for courier delivery"}
	}
	return nil
}

// hashCode returns the hex HMAC-SHA256 of a verification code under the
// configured pepper.
func (s *Service) hashCode(code string) string {
	mac := hmac.New(sha256.New, s.cfg.CodePepper)
	mac.Write([]byte(code))
	return hex.EncodeToString(mac.Sum(nil))
}

// generateCode produces a uniformly random 4-digit code, 1000-9999.
func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%04d", n.Int64()+1000), nil
}

func isFourDigits(code string) bool {
	if len(code) != 4 {
		return false
	}
	for i := range len(code) {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}
