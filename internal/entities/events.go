package entities

import "time"

type Event interface {
	IsInternal() bool
}

// InvoicePaid_v1 is published in the same transaction that records the
// successful payment. Handlers send the receipt mail, the invitation mails,
// and the Slack notification.
type InvoicePaid_v1 struct {
	Header EventHeader `json:"header"`

	InvoiceID        string    `json:"invoice_id"`
	InvoiceReference string    `json:"invoice_reference"`
	PurchaserEmail   string    `json:"purchaser_email"`
	PurchaserName    string    `json:"purchaser_name"`
	AmountPence      int64     `json:"amount_pence"`
	ChargeID         string    `json:"charge_id"`
	PaidAt           time.Time `json:"paid_at"`
}

func (e InvoicePaid_v1) IsInternal() bool {
	return false
}

// InvoiceRefunded_v1 is published when an admin refund completes.
type InvoiceRefunded_v1 struct {
	Header EventHeader `json:"header"`

	InvoiceID       string    `json:"invoice_id"`
	CreditNoteID    string    `json:"credit_note_id"`
	PurchaserEmail  string    `json:"purchaser_email"`
	PurchaserName   string    `json:"purchaser_name"`
	AmountPence     int64     `json:"amount_pence"`
	Reason          string    `json:"reason"`
	RefundedAt      time.Time `json:"refunded_at"`
}

func (e InvoiceRefunded_v1) IsInternal() bool {
	return false
}

// TicketAssigned_v1 is published when a ticket's invitation is ready to be
// claimed: once the invoice is paid for ordered tickets, and immediately on
// free-ticket creation and reassignment. The handler mails the claim link.
type TicketAssigned_v1 struct {
	Header EventHeader `json:"header"`

	TicketID     string `json:"ticket_id"`
	InviteeEmail string `json:"invitee_email"`
	ClaimToken   string `json:"claim_token"`
	Days         string `json:"days"`
	FreeTicket   bool   `json:"free_ticket"`
}

func (e TicketAssigned_v1) IsInternal() bool {
	return false
}
