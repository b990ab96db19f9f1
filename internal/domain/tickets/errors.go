package tickets

import "errors"

var (
	ErrUnknownDay     = errors.New("unknown conference day")
	ErrNoDaysSelected = errors.New("no days selected")

	// ErrAlreadyClaimed is returned when an invitation token is claimed a
	// second time. The first claim wins.
	ErrAlreadyClaimed = errors.New("invitation already claimed")

	// ErrTicketLocked is returned when a ticket on a paid invoice is
	// modified. Paid tickets are immutable.
	ErrTicketLocked = errors.New("ticket belongs to a paid invoice")

	ErrNotFound = errors.New("ticket not found")
)
