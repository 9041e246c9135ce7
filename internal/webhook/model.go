// Package webhook ingests Tap charge notifications and applies them to
// payment transactions, bookings and wallets.
package webhook

import (
	"encoding/json"
	"errors"

	"marketplace/internal/booking"
	"marketplace/internal/payment"
	"marketplace/internal/wallet"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
)

const (
	SignatureHeader = "X-Tap-Signature"

	EventAuthorized = "charge.authorized"
	EventCaptured   = "charge.captured"
	EventFailed     = "charge.failed"
	EventVoided     = "charge.voided"
	EventRefunded   = "charge.refunded"

	OutcomeProcessed = "processed"
	OutcomeDuplicate = "duplicate"
	OutcomeIgnored   = "ignored"
)

var (
	ErrMalformedPayload = errors.New("malformed webhook payload")
	ErrMissingChargeID  = errors.New("webhook payload has no charge id")
)

var chargeStatuses = map[string]string{
	EventAuthorized: payment.StatusAuthorized,
	EventCaptured:   payment.StatusCaptured,
	EventFailed:     payment.StatusFailed,
	EventVoided:     payment.StatusVoided,
	EventRefunded:   payment.StatusRefunded,
}

// Notification is the part of a Tap webhook body the platform acts on.
type Notification struct {
	Type         string
	ChargeID     string
	Amount       decimal.Decimal
	Currency     string
	MetadataType string
	TopUpAmount  string
	Raw          json.RawMessage
}

// Parse reads a webhook body. Unknown event types parse fine; only a body
// that is not JSON or carries no charge id is rejected.
func Parse(body []byte) (Notification, error) {
	if !gjson.ValidBytes(body) {
		return Notification{}, ErrMalformedPayload
	}

	doc := gjson.ParseBytes(body)
	n := Notification{
		Type:         doc.Get("type").String(),
		ChargeID:     doc.Get("data.id").String(),
		Currency:     doc.Get("data.currency").String(),
		MetadataType: doc.Get("data.metadata.type").String(),
		TopUpAmount:  doc.Get("data.metadata.topup_amount").String(),
		Raw:          json.RawMessage(body),
	}
	if n.Type == "" {
		return Notification{}, ErrMalformedPayload
	}
	if n.ChargeID == "" {
		return Notification{}, ErrMissingChargeID
	}

	if amount, err := decimal.NewFromString(doc.Get("data.amount").String()); err == nil {
		n.Amount = amount
	}

	return n, nil
}

func (n Notification) dedupeKey() string {
	return "webhook:" + n.ChargeID + ":" + n.Type
}

type Result struct {
	Outcome     string               `json:"outcome"`
	Transaction *payment.Transaction `json:"transaction,omitempty"`
	Bookings    []booking.Booking    `json:"bookings,omitempty"`
	TopUp       *wallet.Transaction  `json:"topup,omitempty"`
}
