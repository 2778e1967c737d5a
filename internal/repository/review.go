package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/saffron-restaurant/api/internal/domain/review"
)

const (
	createReviewSQL = `INSERT INTO reviews (author, body, rating, is_published, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	listPublishedReviewsSQL = `SELECT id, author, body, rating, is_published, created_at
		FROM reviews WHERE is_published ORDER BY created_at DESC`
)

var _ review.Repository = (*ReviewRepository)(nil)

// ReviewRepository implements review.Repository backed by PostgreSQL.
type ReviewRepository struct {
	pool *pgxpool.Pool
}

// NewReviewRepository returns a ReviewRepository that uses the given pool.
func NewReviewRepository(pool *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create persists a review and fills in its generated ID.
func (r *ReviewRepository) Create(ctx context.Context, rev *review.Review) error {
	err := r.pool.QueryRow(ctx, createReviewSQL,
		rev.Author, rev.Body, rev.Rating, rev.Published, rev.CreatedAt,
	).Scan(&rev.ID)
	if err != nil {
		return fmt.Errorf("creating review: %w", err)
	}
	return nil
}

// ListPublished returns published reviews, newest first.
func (r *ReviewRepository) ListPublished(ctx context.Context) ([]review.Review, error) {
	rows, err := r.pool.Query(ctx, listPublishedReviewsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	reviews, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (review.Review, error) {
		var rev review.Review
		err := row.Scan(&rev.ID, &rev.Author, &rev.Body, &rev.Rating, &rev.Published, &rev.CreatedAt)
		return rev, err
	})
	if err != nil {
		return nil, fmt.Errorf("listing reviews: %w", err)
	}
	return reviews, nil
}
