// Package session manages the browser session holding the cart and the
// pending-order marker.
//
// Sessions are identified by an opaque cookie token and persisted server-side,
// so nothing in the cart is trusted from the client.
package session

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/saffron-restaurant/api/internal/domain/cart"
)

// CookieName is the session cookie set on every response that creates a
// session.
const CookieName = "saffron_session"

// ErrNotFound is returned when no session exists for a token.
var ErrNotFound = errors.New("session not found")

// Session is one browser session's server-side state.
type Session struct {
	Token uuid.UUID
	Cart  *cart.Cart
	// PendingOrderID points at an order awaiting SMS verification.
	// uuid.Nil means none.
	PendingOrderID uuid.UUID
}

// Repository persists sessions.
type Repository interface {
	Get(ctx context.Context, token uuid.UUID) (*Session, error)
	// Save upserts the whole session state.
	Save(ctx context.Context, s *Session) error
}

// Manager loads and saves sessions via the cookie protocol.
type Manager struct {
	repo   Repository
	secure bool
}

// NewManager creates a session Manager. secure controls the cookie's Secure
// attribute and should be true behind TLS.
func NewManager(repo Repository, secure bool) *Manager {
	return &Manager{repo: repo, secure: secure}
}

// Load returns the session for the request's cookie, creating a fresh one
// (and setting the cookie) when the cookie is missing, malformed, or stale.
func (m *Manager) Load(w http.ResponseWriter, r *http.Request) (*Session, error) {
	if c, err := r.Cookie(CookieName); err == nil {
		if token, err := uuid.Parse(c.Value); err == nil {
			s, err := m.repo.Get(r.Context(), token)
			if err == nil {
				return s, nil
			}
			if !errors.Is(err, ErrNotFound) {
				return nil, errors.Wrap(err, "load session")
			}
		}
	}

	s := &Session{Token: uuid.New(), Cart: cart.New()}
	if err := m.repo.Save(r.Context(), s); err != nil {
		return nil, errors.Wrap(err, "create session")
	}
	m.setCookie(w, s.Token)
	return s, nil
}

// Save persists the session after a mutation.
func (m *Manager) Save(ctx context.Context, s *Session) error {
	return m.repo.Save(ctx, s)
}

func (m *Manager) setCookie(w http.ResponseWriter, token uuid.UUID) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token.String(),
		Path:     "/",
		MaxAge:   14 * 24 * 60 * 60,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
