// Package children models tickets for the children's day. They are bought by
// an adult, priced flat, zero-rated for VAT, and capacity-limited.
package children

import (
	"errors"
	"strings"
	"time"

	"tickets/internal/domain/ident"
)

// TicketPricePence is the flat price of one children's-day place.
const TicketPricePence = 500

var (
	ErrSoldOut         = errors.New("children's day sold out")
	ErrNoAttendees     = errors.New("no attendees given")
	ErrInvalidAttendee = errors.New("attendee needs a name and date of birth")
	ErrMissingContact  = errors.New("adult contact details required")
	ErrNotFound        = errors.New("child ticket not found")
)

// Attendee is one child on the order form.
type Attendee struct {
	Name        string
	DateOfBirth time.Time
}

// Ticket is one child's place, always attached to an invoice bought by an
// adult. The adult's contact details live on the order, not the ticket.
type Ticket struct {
	ID          int64
	InvoiceID   int64
	Name        string
	DateOfBirth time.Time
}

func (t Ticket) ExternalID() (string, error) {
	return ident.ChildTickets.Forward(t.ID)
}

// OrderDetails is the adult contact record for a children's order. Children
// do not get accounts; everything goes through the purchasing adult.
type OrderDetails struct {
	InvoiceID  int64
	AdultName  string
	AdultEmail string
	AdultPhone string
}

// ValidateOrder checks the order form before any rows are written.
func ValidateOrder(details OrderDetails, attendees []Attendee) error {
	if strings.TrimSpace(details.AdultName) == "" ||
		strings.TrimSpace(details.AdultEmail) == "" ||
		strings.TrimSpace(details.AdultPhone) == "" {
		return ErrMissingContact
	}
	if len(attendees) == 0 {
		return ErrNoAttendees
	}
	for _, a := range attendees {
		if strings.TrimSpace(a.Name) == "" || a.DateOfBirth.IsZero() {
			return ErrInvalidAttendee
		}
	}
	return nil
}
