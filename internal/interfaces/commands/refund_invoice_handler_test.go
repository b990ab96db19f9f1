package commands_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickets/internal/domain/billing"
	"tickets/internal/entities"
	"tickets/internal/interfaces/commands"
)

type refundCall struct {
	invoiceID int64
	reason    string
}

type fakeRefunds struct {
	calls []refundCall
	err   error
}

func (f *fakeRefunds) RefundInvoice(_ context.Context, invoiceID int64, reason string) (int64, error) {
	f.calls = append(f.calls, refundCall{invoiceID: invoiceID, reason: reason})
	if f.err != nil {
		return 0, f.err
	}
	return 42, nil
}

func handleRefund(t *testing.T, refunds *fakeRefunds, command *entities.RefundInvoice_v1) error {
	t.Helper()
	handler := commands.NewHandler(refunds).RefundInvoiceHandler()
	return handler.Handle(context.Background(), command)
}

func TestRefundInvoiceHandler(t *testing.T) {
	refunds := &fakeRefunds{}

	err := handleRefund(t, refunds, &entities.RefundInvoice_v1{
		Header:    entities.NewEventHeader(),
		InvoiceID: 7,
		Reason:    "requested by customer",
	})
	require.NoError(t, err)

	require.Len(t, refunds.calls, 1)
	assert.Equal(t, int64(7), refunds.calls[0].invoiceID)
	assert.Equal(t, "requested by customer", refunds.calls[0].reason)
}

func TestRefundInvoiceHandlerSwallowsRedelivery(t *testing.T) {
	refunds := &fakeRefunds{
		err: fmt.Errorf("%w: payment already refunded", billing.ErrInvalidStatusTransition),
	}

	err := handleRefund(t, refunds, &entities.RefundInvoice_v1{
		Header:    entities.NewEventHeader(),
		InvoiceID: 7,
		Reason:    "requested by customer",
	})
	assert.NoError(t, err, "a second delivery must not fail the subscription")
}

func TestRefundInvoiceHandlerPropagatesErrors(t *testing.T) {
	refunds := &fakeRefunds{err: fmt.Errorf("gateway down")}

	err := handleRefund(t, refunds, &entities.RefundInvoice_v1{
		Header:    entities.NewEventHeader(),
		InvoiceID: 7,
	})
	assert.Error(t, err)
}
