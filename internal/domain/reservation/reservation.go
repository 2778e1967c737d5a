// Package reservation implements table booking requests.
package reservation

import (
	"context"
	"fmt"
	"time"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested reservation does not exist.
var ErrNotFound = errors.New("reservation not found")

// MaxGuests caps how many guests a single booking may request.
const MaxGuests = 8

// Reservation is a table booking request awaiting staff confirmation.
type Reservation struct {
	ID             int64
	Name           string
	Email          string
	Phone          string
	Guests         int
	VisitDate      time.Time
	VisitTime      string
	SpecialRequest string
	Confirmed      bool
	Processed      bool
	CreatedAt      time.Time
}

// ValidationError reports a missing or malformed booking field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Repository defines persistence operations for reservations.
type Repository interface {
	Create(ctx context.Context, r *Reservation) error
}

// Publisher receives booking events for best-effort admin notification.
type Publisher interface {
	ReservationCreated(r *Reservation)
}

// Service validates and records bookings.
type Service struct {
	repo   Repository
	events Publisher
	now    func() time.Time
}

// NewService creates a reservation Service.
func NewService(repo Repository, events Publisher) *Service {
	return &Service{repo: repo, events: events, now: time.Now}
}

// Create validates the booking, persists it, and announces it to admins.
func (s *Service) Create(ctx context.Context, r *Reservation) error {
	if err := s.validate(r); err != nil {
		return err
	}

	r.CreatedAt = s.now()
	if err := s.repo.Create(ctx, r); err != nil {
		return errors.Wrap(err, "create reservation")
	}

	s.events.ReservationCreated(r)
	return nil
}

func (s *Service) validate(r *Reservation) error {
	switch {
	case r.Name == "":
		return &ValidationError{Field: "name", Reason: "required"}
	case r.Email == "":
		return &ValidationError{Field: "email", Reason: "required"}
	case r.Phone == "":
		return &ValidationError{Field: "phone", Reason: "required"}
	case r.Guests < 1 || r.Guests > MaxGuests:
		return &ValidationError{Field: "guests", Reason: fmt.Sprintf("must be between 1 and %d", MaxGuests)}
	case r.VisitTime == "":
		return &ValidationError{Field: "visit_time", Reason: "required"}
	}

	today := s.now().Truncate(24 * time.Hour)
	if r.VisitDate.Before(today) {
		return &ValidationError{Field: "visit_date", Reason: "must not be in the past"}
	}
	return nil
}
