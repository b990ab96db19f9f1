package clients

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v78"
	"github.com/stripe/stripe-go/v78/client"

	"tickets/internal/observability"
)

// maxStatementDescriptorLen is Stripe's hard limit. Exceeding it is a
// configuration bug, so it is checked before any network call.
const maxStatementDescriptorLen = 22

// Charge is the result of a successful gateway charge.
type Charge struct {
	ID          string
	AmountPence int64
	Created     time.Time
}

// CardDeclinedError is the expected-failure half of the gateway contract:
// the customer's card was declined and they should try another one. ChargeID
// is set when Stripe created a charge object for the failed attempt.
type CardDeclinedError struct {
	Reason   string
	ChargeID string
}

func (e CardDeclinedError) Error() string {
	return fmt.Sprintf("card declined: %s", e.Reason)
}

// Small slices of the Stripe SDK, so tests can inject fakes.
type chargeAPI interface {
	New(params *stripe.ChargeParams) (*stripe.Charge, error)
}

type refundAPI interface {
	New(params *stripe.RefundParams) (*stripe.Refund, error)
}

// StripeGateway charges cards and refunds charges. It holds its own API
// client with its own key. Nothing here touches the SDK's global state.
type StripeGateway struct {
	charges chargeAPI
	refunds refundAPI
}

func NewStripeGateway(secretKey string) StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)

	return StripeGateway{
		charges: api.Charges,
		refunds: api.Refunds,
	}
}

// CreateCharge charges the card token for the given amount in pence. It is
// called outside any database transaction; the caller owns reconciling the
// outcome with local state.
func (g StripeGateway) CreateCharge(
	ctx context.Context,
	amountPence int64,
	description string,
	statementDescriptor string,
	cardToken string,
) (Charge, error) {
	if len(statementDescriptor) > maxStatementDescriptorLen {
		return Charge{}, fmt.Errorf(
			"statement descriptor %q is %d chars, limit is %d",
			statementDescriptor, len(statementDescriptor), maxStatementDescriptorLen,
		)
	}

	params := &stripe.ChargeParams{
		Params:              stripe.Params{Context: ctx},
		Amount:              stripe.Int64(amountPence),
		Currency:            stripe.String(string(stripe.CurrencyGBP)),
		Description:         stripe.String(description),
		StatementDescriptor: stripe.String(statementDescriptor),
	}
	if err := params.SetSource(cardToken); err != nil {
		return Charge{}, fmt.Errorf("setting charge source: %w", err)
	}

	charge, err := g.charges.New(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			return Charge{}, CardDeclinedError{
				Reason:   stripeErr.Msg,
				ChargeID: stripeErr.ChargeID,
			}
		}
		return Charge{}, fmt.Errorf("creating charge: %w", err)
	}

	return Charge{
		ID:          charge.ID,
		AmountPence: charge.Amount,
		Created:     time.Unix(charge.Created, 0),
	}, nil
}

// RefundCharge refunds the whole charge. A charge that was already refunded
// counts as success, so retries are idempotent.
func (g StripeGateway) RefundCharge(ctx context.Context, chargeID string) error {
	_, err := g.refunds.New(&stripe.RefundParams{
		Params: stripe.Params{Context: ctx},
		Charge: stripe.String(chargeID),
	})
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Code == stripe.ErrorCodeChargeAlreadyRefunded {
			observability.FromContext(ctx).
				WithField("charge_id", chargeID).
				Info("Charge already refunded")
			return nil
		}
		return fmt.Errorf("refunding charge %s: %w", chargeID, err)
	}
	return nil
}
