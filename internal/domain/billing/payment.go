package billing

import (
	"fmt"
	"time"

	"tickets/internal/domain/ident"
)

type PaymentMethod string

const PaymentMethodStripe PaymentMethod = "stripe"

type PaymentStatus string

const (
	PaymentSuccessful PaymentStatus = "successful"
	PaymentFailed     PaymentStatus = "failed"
	PaymentErrored    PaymentStatus = "errored"
	PaymentRefunded   PaymentStatus = "refunded"
	PaymentChargeback PaymentStatus = "chargeback"
)

// Payment is one charge attempt against an invoice. Failed and errored
// attempts are kept as audit rows, only a successful payment settles the
// invoice.
type Payment struct {
	ID        int64
	InvoiceID int64
	Method    PaymentMethod
	Status    PaymentStatus

	// Gateway charge reference. Set for successful and errored payments,
	// and for declines where the gateway created a partial charge.
	ChargeID      string
	ChargeCreated time.Time

	FailureReason string
	AmountPence   int64
}

func (p Payment) ExternalID() (string, error) {
	return ident.Payments.Forward(p.ID)
}

// CanTransitionTo enforces the forward-only status lattice: a settled
// payment can move to refunded or chargeback, nothing else ever changes.
func (p Payment) CanTransitionTo(next PaymentStatus) bool {
	if p.Status != PaymentSuccessful {
		return false
	}
	return next == PaymentRefunded || next == PaymentChargeback
}

// Transition returns the payment in its new status or an error if the move
// is not allowed.
func (p Payment) Transition(next PaymentStatus) (Payment, error) {
	if !p.CanTransitionTo(next) {
		return Payment{}, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, p.Status, next)
	}
	p.Status = next
	return p, nil
}
