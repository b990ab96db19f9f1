// Package tickets models conference tickets and the invitation workflow used
// to hand a ticket to somebody else. A ticket is held either by a user (its
// owner) or by an outstanding invitation, never both.
package tickets

import (
	"tickets/internal/domain/ident"
	"tickets/internal/domain/pricing"
)

type Ticket struct {
	ID      int64
	OwnerID *int64 // nil while an invitation is outstanding
	Rate    pricing.Rate
	Days    []Day

	// Pot records which allocation a free ticket came from
	// ("Conference organiser", "Financial assistance", ...). Empty for
	// paid tickets.
	Pot string
}

// ExternalID is the opaque token used for this ticket in URLs and mails.
func (t Ticket) ExternalID() (string, error) {
	return ident.Tickets.Forward(t.ID)
}

func (t Ticket) IsFree() bool {
	return t.Rate == pricing.RateFree
}

// Incomplete reports whether a free ticket still needs its days choosing.
// Free tickets are created without days; the recipient picks them on claim.
func (t Ticket) Incomplete() bool {
	return t.IsFree() && len(t.Days) == 0
}

func (t Ticket) NumDays() int {
	return len(t.Days)
}

// CostExclVAT is the VAT-exclusive price in pence snapshotted onto the
// invoice row when the ticket is ordered.
func (t Ticket) CostExclVAT() (int64, error) {
	return pricing.CostExclVAT(t.Rate, t.NumDays())
}

func (t Ticket) CostInclVAT() (int64, error) {
	return pricing.CostInclVAT(t.Rate, t.NumDays())
}
