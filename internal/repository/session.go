package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saffron-restaurant/api/internal/domain/cart"
	"github.com/saffron-restaurant/api/internal/session"
)

const (
	getSessionSQL = `SELECT token, cart, pending_order_id FROM sessions WHERE token = $1`

	saveSessionSQL = `INSERT INTO sessions (token, cart, pending_order_id, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (token) DO UPDATE
		SET cart = EXCLUDED.cart,
		    pending_order_id = EXCLUDED.pending_order_id,
		    updated_at = now()`

	deleteStaleSessionsSQL = `DELETE FROM sessions WHERE updated_at < $1`
)

var _ session.Repository = (*SessionRepository)(nil)

// SessionRepository implements session.Repository backed by PostgreSQL.
// The cart is stored as JSONB so a session survives server restarts.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository returns a SessionRepository that uses the given pool.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Get loads one session. Returns session.ErrNotFound when the token is
// unknown, which the manager treats as a stale cookie.
func (r *SessionRepository) Get(ctx context.Context, token uuid.UUID) (*session.Session, error) {
	var (
		s        session.Session
		cartJSON []byte
		pending  *uuid.UUID
	)
	err := r.pool.QueryRow(ctx, getSessionSQL, token).Scan(&s.Token, &cartJSON, &pending)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, session.ErrNotFound
		}
		return nil, fmt.Errorf("getting session %s: %w", token, err)
	}

	s.Cart = cart.New()
	if len(cartJSON) > 0 {
		if err := json.Unmarshal(cartJSON, s.Cart); err != nil {
			// A cart we cannot decode is unrecoverable; start the
			// customer over rather than failing every request.
			s.Cart = cart.New()
		}
	}
	if pending != nil {
		s.PendingOrderID = *pending
	}
	return &s, nil
}

// Save upserts the whole session state.
func (r *SessionRepository) Save(ctx context.Context, s *session.Session) error {
	cartJSON, err := json.Marshal(s.Cart)
	if err != nil {
		return fmt.Errorf("marshaling cart: %w", err)
	}
	var pending *uuid.UUID
	if s.PendingOrderID != uuid.Nil {
		pending = &s.PendingOrderID
	}
	if _, err := r.pool.Exec(ctx, saveSessionSQL, s.Token, cartJSON, pending); err != nil {
		return fmt.Errorf("saving session %s: %w", s.Token, err)
	}
	return nil
}

// DeleteStale removes sessions idle since before the cutoff.
func (r *SessionRepository) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, deleteStaleSessionsSQL, cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting stale sessions: %w", err)
	}
	return tag.RowsAffected(), nil
}
