// Package notify delivers best-effort admin notifications.
//
// Domain services publish events onto a buffered channel; a single worker
// formats each event and fans it out to the configured transports. Delivery
// failures are logged and never reach the request that produced the event.
package notify

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/saffron-restaurant/api/internal/domain/order"
	"github.com/saffron-restaurant/api/internal/domain/reservation"
	"github.com/saffron-restaurant/api/internal/domain/review"
)

// Mailer sends a plain-text email to the admin address.
type Mailer interface {
	Send(ctx context.Context, subject, body string) error
}

// Messenger sends a chat message to the admin channel.
type Messenger interface {
	Send(ctx context.Context, text string) error
}

// message is a formatted notification ready for transport.
type message struct {
	subject string
	body    string
}

// Dispatcher queues domain events and delivers them from a background worker.
// It implements the Publisher interfaces of the order, reservation, and
// review packages.
type Dispatcher struct {
	mailer  Mailer
	chat    Messenger
	lg      *zap.Logger
	queue   chan message
	timeout time.Duration
}

var (
	_ order.Publisher       = (*Dispatcher)(nil)
	_ reservation.Publisher = (*Dispatcher)(nil)
	_ review.Publisher      = (*Dispatcher)(nil)
)

// NewDispatcher creates a Dispatcher with the given transports and queue
// capacity. Pass nil for a transport to disable that channel.
func NewDispatcher(mailer Mailer, chat Messenger, lg *zap.Logger, buffer int) *Dispatcher {
	if buffer <= 0 {
		buffer = 64
	}
	return &Dispatcher{
		mailer:  mailer,
		chat:    chat,
		lg:      lg,
		queue:   make(chan message, buffer),
		timeout: 10 * time.Second,
	}
}

// Run consumes the queue until ctx is cancelled. Call it from its own
// goroutine.
func (d *Dispatcher) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-d.queue:
			d.deliver(ctx, msg)
		}
	}
}

// OrderConfirmed announces an order that just passed SMS verification.
func (d *Dispatcher) OrderConfirmed(o *order.Order, lines []order.Line) {
	d.enqueue(message{
		subject: "New confirmed order",
		body:    formatOrderConfirmed(o, lines),
	})
}

// ReservationCreated announces a new table booking.
func (d *Dispatcher) ReservationCreated(r *reservation.Reservation) {
	d.enqueue(message{
		subject: "New table reservation",
		body:    formatReservationCreated(r),
	})
}

// ReviewCreated announces a new customer review.
func (d *Dispatcher) ReviewCreated(r *review.Review) {
	d.enqueue(message{
		subject: "New customer review",
		body:    formatReviewCreated(r),
	})
}

// enqueue adds a message without blocking the caller. When the queue is full
// the message is dropped with a log line; notifications are best-effort.
func (d *Dispatcher) enqueue(msg message) {
	select {
	case d.queue <- msg:
	default:
		d.lg.Warn("notification queue full, dropping event",
			zap.String("subject", msg.subject),
		)
	}
}

// deliver fans the message out to every configured transport in parallel.
// Each transport failure is logged; none is propagated.
func (d *Dispatcher) deliver(ctx context.Context, msg message) {
	sendCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	g, sendCtx := errgroup.WithContext(sendCtx)

	if d.mailer != nil {
		g.Go(func() error {
			if err := d.mailer.Send(sendCtx, msg.subject, msg.body); err != nil {
				d.lg.Error("email notification",
					zap.String("subject", msg.subject),
					zap.Error(err),
				)
			}
			return nil
		})
	}
	if d.chat != nil {
		g.Go(func() error {
			if err := d.chat.Send(sendCtx, msg.subject+"\n"+msg.body); err != nil {
				d.lg.Error("chat notification",
					zap.String("subject", msg.subject),
					zap.Error(err),
				)
			}
			return nil
		})
	}

	_ = g.Wait()
}
