package billing

import "errors"

var (
	// ErrInvoiceHasPayments guards the ledger: once any payment attempt has
	// been recorded against an invoice its rows are frozen.
	ErrInvoiceHasPayments = errors.New("invoice already has payments")

	ErrItemAlreadyInvoiced = errors.New("item already on invoice")
	ErrItemNotOnInvoice    = errors.New("item not on invoice")

	ErrInvoiceAlreadyPaid = errors.New("invoice already paid")
	ErrInvoiceNotPaid     = errors.New("invoice has no successful payment")

	ErrInvalidCompanyDetails = errors.New("company name and address must be given together")

	ErrNotFound = errors.New("invoice not found")

	// ErrPaymentErrored is surfaced when a charge succeeded at the gateway
	// but could not be recorded locally, so a compensating refund was
	// issued. The customer's card is not left charged.
	ErrPaymentErrored = errors.New("payment errored and was refunded")

	ErrInvalidStatusTransition = errors.New("invalid payment status transition")
)
