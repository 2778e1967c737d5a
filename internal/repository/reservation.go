package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saffron-restaurant/api/internal/domain/reservation"
)

const createReservationSQL = `INSERT INTO reservations
	(name, email, phone, guests, visit_date, visit_time, special_request, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id`

var _ reservation.Repository = (*ReservationRepository)(nil)

// ReservationRepository implements reservation.Repository backed by PostgreSQL.
type ReservationRepository struct {
	pool *pgxpool.Pool
}

// NewReservationRepository returns a ReservationRepository that uses the given pool.
func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

// Create persists a booking request and fills in its generated ID.
func (r *ReservationRepository) Create(ctx context.Context, res *reservation.Reservation) error {
	err := r.pool.QueryRow(ctx, createReservationSQL,
		res.Name, res.Email, res.Phone, res.Guests,
		res.VisitDate, res.VisitTime, res.SpecialRequest, res.CreatedAt,
	).Scan(&res.ID)
	if err != nil {
		return fmt.Errorf("creating reservation: %w", err)
	}
	return nil
}
