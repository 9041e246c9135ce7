package payment

import "context"

// Gateway is an external card processor.
type Gateway interface {
	CreateCharge(ctx context.Context, req ChargeRequest) (*Charge, error)
	CreateRefund(ctx context.Context, req RefundRequest) (*Refund, error)
}
