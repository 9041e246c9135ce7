// Package events publishes domain events to Kafka.
package events

import (
	"context"
	"time"
)

const (
	TopicBooking    = "booking-events"
	TopicPayment    = "payment-events"
	TopicWallet     = "wallet-events"
	TopicInvoice    = "invoice-events"
	TopicSettlement = "settlement-events"
)

const (
	BookingCreated       = "booking.created"
	BookingStatusUpdated = "booking.status_updated"
	BookingCancelled     = "booking.cancelled"
	BookingCompleted     = "booking.completed"
	PaymentUpdated       = "payment.status_updated"
	WalletToppedUp       = "wallet.topped_up"
	WalletTransferred    = "wallet.transferred"
	InvoiceGenerated     = "invoice.generated"
	SettlementReleased   = "settlement.released"
)

type Event struct {
	Type       string      `json:"type"`
	Key        string      `json:"-"`
	OccurredAt time.Time   `json:"occurred_at"`
	Data       interface{} `json:"data"`
}

func New(eventType, key string, data interface{}) Event {
	return Event{Type: eventType, Key: key, OccurredAt: time.Now().UTC(), Data: data}
}

type Publisher interface {
	Publish(ctx context.Context, topic string, e Event) error
}

// PublishAll sends events and logs rather than returns failures: by the time
// events go out the database change is already committed.
func PublishAll(ctx context.Context, p Publisher, topic string, evts ...Event) {
	for _, e := range evts {
		_ = p.Publish(ctx, topic, e)
	}
}
