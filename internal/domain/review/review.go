// Package review implements customer reviews with moderation.
package review

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
)

// Review is a customer review. New reviews are published immediately;
// moderation happens by unsetting Published afterwards.
type Review struct {
	ID        int64
	Author    string
	Body      string
	Rating    int
	Published bool
	CreatedAt time.Time
}

// ValidationError reports a missing or malformed review field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Repository defines persistence operations for reviews.
type Repository interface {
	Create(ctx context.Context, r *Review) error
	// ListPublished returns published reviews, newest first.
	ListPublished(ctx context.Context) ([]Review, error)
}

// Publisher receives review events for best-effort admin notification.
type Publisher interface {
	ReviewCreated(r *Review)
}

// Service validates and records reviews.
type Service struct {
	repo   Repository
	events Publisher
	now    func() time.Time
}

// NewService creates a review Service.
func NewService(repo Repository, events Publisher) *Service {
	return &Service{repo: repo, events: events, now: time.Now}
}

// Create validates the review, persists it, and announces it to admins.
func (s *Service) Create(ctx context.Context, r *Review) error {
	switch {
	case r.Author == "":
		return &ValidationError{Field: "author", Reason: "required"}
	case r.Body == "":
		return &ValidationError{Field: "text", Reason: "required"}
	case r.Rating < 1 || r.Rating > 5:
		return &ValidationError{Field: "rating", Reason: "must be between 1 and 5"}
	}

	r.Published = true
	r.CreatedAt = s.now()
	if err := s.repo.Create(ctx, r); err != nil {
		return errors.Wrap(err, "create review")
	}

	s.events.ReviewCreated(r)
	return nil
}

// ListPublished returns all published reviews, newest first.
func (s *Service) ListPublished(ctx context.Context) ([]Review, error) {
	return s.repo.ListPublished(ctx)
}
