package billing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickets/internal/domain/billing"
)

func TestInvoiceTotals(t *testing.T) {
	inv := billing.Invoice{
		ID: 1,
		Rows: []billing.InvoiceRow{
			{Item: billing.ItemRef{Kind: billing.ItemTicket, ID: 1}, TotalExVATPence: 5500, VATRate: billing.VATStandard20},
			{Item: billing.ItemRef{Kind: billing.ItemTicket, ID: 2}, TotalExVATPence: 7500, VATRate: billing.VATStandard20},
			{Item: billing.ItemRef{Kind: billing.ItemChildTicket, ID: 1}, TotalExVATPence: 500, VATRate: billing.VATZero},
		},
	}

	assert.Equal(t, int64(13500), inv.TotalExVATPence())
	assert.Equal(t, int64(2600), inv.TotalVATPence())
	assert.Equal(t, int64(16100), inv.TotalIncVATPence())
}

func TestCreditNoteNegatesTotals(t *testing.T) {
	rows := []billing.InvoiceRow{
		{Item: billing.ItemRef{Kind: billing.ItemTicket, ID: 1}, TotalExVATPence: 5500, VATRate: billing.VATStandard20},
	}

	inv := billing.Invoice{ID: 1, Rows: rows}
	credit := billing.Invoice{ID: 2, IsCredit: true, Rows: rows}

	assert.Equal(t, int64(6600), inv.TotalIncVATPence())
	assert.Equal(t, int64(-6600), credit.TotalIncVATPence())
	assert.Equal(t, int64(-5500), credit.TotalExVATPence())
	assert.Equal(t, int64(-1100), credit.TotalVATPence())
	assert.False(t, credit.PaymentRequired())
}

func TestZeroRatedRowCarriesNoVAT(t *testing.T) {
	row := billing.InvoiceRow{TotalExVATPence: 500, VATRate: billing.VATZero}

	assert.Zero(t, row.TotalVATPence())
	assert.Equal(t, int64(500), row.TotalIncVATPence())
}

func TestSuccessfulPayment(t *testing.T) {
	inv := billing.Invoice{
		ID: 1,
		Payments: []billing.Payment{
			{ID: 1, Status: billing.PaymentFailed, FailureReason: "Your card was declined."},
			{ID: 2, Status: billing.PaymentSuccessful, ChargeID: "ch_123", AmountPence: 6600},
		},
	}

	payment, ok := inv.SuccessfulPayment()
	require.True(t, ok)
	assert.Equal(t, int64(2), payment.ID)
	assert.False(t, inv.PaymentRequired())
	assert.True(t, inv.HasPayments())
}

func TestFailedAttemptsLeaveInvoicePayable(t *testing.T) {
	inv := billing.Invoice{
		ID: 1,
		Payments: []billing.Payment{
			{ID: 1, Status: billing.PaymentFailed},
			{ID: 2, Status: billing.PaymentErrored},
		},
	}

	_, ok := inv.SuccessfulPayment()
	assert.False(t, ok)
	assert.True(t, inv.PaymentRequired())
	assert.True(t, inv.HasPayments())
}

func TestRefundedPaymentStillSettlesInvoice(t *testing.T) {
	inv := billing.Invoice{
		ID:       1,
		Payments: []billing.Payment{{ID: 1, Status: billing.PaymentRefunded}},
	}

	_, ok := inv.SuccessfulPayment()
	assert.True(t, ok)
	assert.False(t, inv.PaymentRequired())
}

func TestContainsItem(t *testing.T) {
	inv := billing.Invoice{
		Rows: []billing.InvoiceRow{
			{Item: billing.ItemRef{Kind: billing.ItemTicket, ID: 7}},
		},
	}

	assert.True(t, inv.ContainsItem(billing.ItemRef{Kind: billing.ItemTicket, ID: 7}))
	assert.False(t, inv.ContainsItem(billing.ItemRef{Kind: billing.ItemChildTicket, ID: 7}))
	assert.False(t, inv.ContainsItem(billing.ItemRef{Kind: billing.ItemTicket, ID: 8}))
}

func TestPaymentStatusTransitions(t *testing.T) {
	successful := billing.Payment{Status: billing.PaymentSuccessful}

	refunded, err := successful.Transition(billing.PaymentRefunded)
	require.NoError(t, err)
	assert.Equal(t, billing.PaymentRefunded, refunded.Status)

	chargeback, err := successful.Transition(billing.PaymentChargeback)
	require.NoError(t, err)
	assert.Equal(t, billing.PaymentChargeback, chargeback.Status)

	_, err = refunded.Transition(billing.PaymentChargeback)
	assert.ErrorIs(t, err, billing.ErrInvalidStatusTransition)

	failed := billing.Payment{Status: billing.PaymentFailed}
	_, err = failed.Transition(billing.PaymentSuccessful)
	assert.ErrorIs(t, err, billing.ErrInvalidStatusTransition)
}

func TestValidateCompanyDetails(t *testing.T) {
	assert.NoError(t, billing.ValidateCompanyDetails("", ""))
	assert.NoError(t, billing.ValidateCompanyDetails("ACME Ltd", "1 High St"))
	assert.ErrorIs(t, billing.ValidateCompanyDetails("ACME Ltd", ""), billing.ErrInvalidCompanyDetails)
	assert.ErrorIs(t, billing.ValidateCompanyDetails("", "1 High St"), billing.ErrInvalidCompanyDetails)
}

func TestInvoiceReference(t *testing.T) {
	created := time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)

	inv := billing.Invoice{ID: 1, CreatedAt: created}
	ref, err := inv.Reference()
	require.NoError(t, err)
	assert.Regexp(t, `^S-2025-[0-9A-F]{4}$`, ref)

	credit := billing.Invoice{ID: 1, IsCredit: true, CreatedAt: created}
	creditRef, err := credit.Reference()
	require.NoError(t, err)
	assert.Regexp(t, `^R-2025-[0-9A-F]{4}$`, creditRef)
	assert.NotEqual(t, ref, creditRef)
}
