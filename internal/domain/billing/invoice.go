// Package billing is the money side of the service: invoices, their ledger
// rows, payments, and credit notes. All amounts are int64 pence. Rows
// snapshot prices at the moment of invoicing, so later price-table changes
// never move an issued invoice.
package billing

import (
	"fmt"
	"time"

	"tickets/internal/domain/ident"
)

// VATRate is the VAT treatment of a single invoice row. Adult tickets are
// standard-rated, children's tickets zero-rated.
type VATRate int

const (
	VATStandard20 VATRate = 20
	VATZero       VATRate = 0
)

func (r VATRate) Valid() bool {
	return r == VATStandard20 || r == VATZero
}

type Invoice struct {
	ID          int64
	PurchaserID int64
	InvoiceTo   string // free-text addressee printed on the invoice

	// Company details come as a pair or not at all. Corporate-rate orders
	// must carry them.
	CompanyName    string
	CompanyAddress string

	// Credit-note fields. A credit note mirrors another invoice with
	// negated totals.
	IsCredit          bool
	CreditReason      string
	CreditedInvoiceID *int64

	// TotalPence is materialized on row changes and checked against the
	// sum of rows. Inc VAT; negative on credit notes.
	TotalPence int64

	Rows      []InvoiceRow
	Payments  []Payment
	CreatedAt time.Time
}

// InvoiceRow bills one item. Totals are snapshotted, not derived from the
// current price table.
type InvoiceRow struct {
	ID              int64
	InvoiceID       int64
	Item            ItemRef
	TotalExVATPence int64
	VATRate         VATRate
}

func (r InvoiceRow) sign(isCredit bool) int64 {
	if isCredit {
		return -1
	}
	return 1
}

// TotalVATPence is exact by construction: standard-rated prices are validated
// to be whole pence inclusive of VAT before they ever reach a row.
func (r InvoiceRow) TotalVATPence() int64 {
	return r.TotalExVATPence * int64(r.VATRate) / 100
}

func (r InvoiceRow) TotalIncVATPence() int64 {
	return r.TotalExVATPence + r.TotalVATPence()
}

// ExternalID is the token used for this invoice in URLs, mails, and the
// Stripe statement descriptor.
func (inv Invoice) ExternalID() (string, error) {
	if inv.IsCredit {
		return ident.CreditNotes.Forward(inv.ID)
	}
	return ident.Invoices.Forward(inv.ID)
}

// Reference is the human-facing invoice number, e.g. "S-2025-92AD" for
// invoices and "R-2025-92AD" for credit notes.
func (inv Invoice) Reference() (string, error) {
	extID, err := inv.ExternalID()
	if err != nil {
		return "", err
	}
	prefix := "S"
	if inv.IsCredit {
		prefix = "R"
	}
	return fmt.Sprintf("%s-%d-%s", prefix, inv.CreatedAt.Year(), extID), nil
}

func (inv Invoice) TotalExVATPence() int64 {
	var total int64
	for _, row := range inv.Rows {
		total += row.sign(inv.IsCredit) * row.TotalExVATPence
	}
	return total
}

func (inv Invoice) TotalVATPence() int64 {
	var total int64
	for _, row := range inv.Rows {
		total += row.sign(inv.IsCredit) * row.TotalVATPence()
	}
	return total
}

func (inv Invoice) TotalIncVATPence() int64 {
	var total int64
	for _, row := range inv.Rows {
		total += row.sign(inv.IsCredit) * row.TotalIncVATPence()
	}
	return total
}

// SuccessfulPayment returns the payment that settled this invoice, if any.
// Refunded and charged-back payments still count as settled for the purpose
// of "has this invoice ever been paid".
func (inv Invoice) SuccessfulPayment() (Payment, bool) {
	for _, p := range inv.Payments {
		switch p.Status {
		case PaymentSuccessful, PaymentRefunded, PaymentChargeback:
			return p, true
		}
	}
	return Payment{}, false
}

// PaymentRequired reports whether the invoice still needs paying.
func (inv Invoice) PaymentRequired() bool {
	if inv.IsCredit {
		return false
	}
	_, paid := inv.SuccessfulPayment()
	return !paid
}

// HasPayments reports whether any payment attempt, including failed ones,
// has been recorded. Rows are frozen from the first attempt onwards.
func (inv Invoice) HasPayments() bool {
	return len(inv.Payments) > 0
}

// ContainsItem reports whether the item is already billed on this invoice.
func (inv Invoice) ContainsItem(item ItemRef) bool {
	for _, row := range inv.Rows {
		if row.Item == item {
			return true
		}
	}
	return false
}

// ValidateCompanyDetails enforces the both-or-neither rule.
func ValidateCompanyDetails(name, address string) error {
	if (name == "") != (address == "") {
		return ErrInvalidCompanyDetails
	}
	return nil
}
