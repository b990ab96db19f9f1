package services

import (
	"context"
	"errors"

	"tickets/internal/domain/billing"
	"tickets/internal/domain/pricing"
	"tickets/internal/domain/tickets"
	"tickets/internal/observability"
)

type TicketsService struct {
	tickets   TicketsRepo
	invoices  InvoicesRepo
	users     UsersRepo
	publisher EventPublisher
	txm       TxManager
}

func NewTicketsService(
	ticketsRepo TicketsRepo,
	invoices InvoicesRepo,
	usersRepo UsersRepo,
	publisher EventPublisher,
	txm TxManager,
) *TicketsService {
	return &TicketsService{
		tickets:   ticketsRepo,
		invoices:  invoices,
		users:     usersRepo,
		publisher: publisher,
		txm:       txm,
	}
}

func (s *TicketsService) GetTicket(ctx context.Context, ticketID int64) (tickets.Ticket, error) {
	return s.tickets.GetByID(ctx, ticketID)
}

// GetTicketStatus returns the ticket together with its validity: free tickets
// are valid as soon as they exist, paid tickets once their invoice settled.
func (s *TicketsService) GetTicketStatus(ctx context.Context, ticketID int64) (tickets.Ticket, bool, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		return tickets.Ticket{}, false, err
	}
	if ticket.IsFree() {
		return ticket, true, nil
	}

	invoice, err := s.invoices.FindByItem(ctx, billing.ItemRef{Kind: billing.ItemTicket, ID: ticketID})
	if errors.Is(err, billing.ErrNotFound) {
		return ticket, false, nil
	}
	if err != nil {
		return tickets.Ticket{}, false, err
	}
	_, paid := invoice.SuccessfulPayment()
	return ticket, paid, nil
}

// Claim turns an invitation token into ticket ownership. The conditional
// claim update means a token can only ever be spent once, whoever gets
// there second sees ErrAlreadyClaimed.
func (s *TicketsService) Claim(ctx context.Context, token string, userID int64) (tickets.Ticket, error) {
	var claimed tickets.Ticket
	err := s.txm.Do(ctx, func(ctx context.Context) error {
		invitation, err := s.tickets.GetInvitationByToken(ctx, token)
		if err != nil {
			return err
		}
		if err := s.tickets.ClaimInvitation(ctx, token); err != nil {
			return err
		}
		if err := s.tickets.SetOwner(ctx, invitation.TicketID, &userID); err != nil {
			return err
		}
		claimed, err = s.tickets.GetByID(ctx, invitation.TicketID)
		return err
	})
	if err != nil {
		return tickets.Ticket{}, err
	}

	observability.FromContext(ctx).
		WithField("ticket_id", claimed.ID).
		WithField("user_id", userID).
		Info("Invitation claimed")
	return claimed, nil
}

// CreateFreeTicket creates an incomplete free ticket from the given pot and
// invites its recipient. The recipient picks days later.
func (s *TicketsService) CreateFreeTicket(ctx context.Context, email, pot string) (int64, error) {
	var ticketID int64
	err := s.txm.Do(ctx, func(ctx context.Context) error {
		ticket := tickets.Ticket{Rate: pricing.RateFree, Pot: pot}
		id, err := s.tickets.Create(ctx, ticket)
		if err != nil {
			return err
		}
		ticket.ID = id
		ticketID = id
		return s.inviteTo(ctx, ticket, email)
	})
	if err != nil {
		return 0, err
	}
	return ticketID, nil
}

// Reassign hands a ticket to somebody else: the current owner or
// outstanding invitation is dropped and a fresh invitation is mailed.
func (s *TicketsService) Reassign(ctx context.Context, ticketID int64, email string) error {
	return s.txm.Do(ctx, func(ctx context.Context) error {
		ticket, err := s.tickets.GetByID(ctx, ticketID)
		if err != nil {
			return err
		}
		if err := s.tickets.SetOwner(ctx, ticketID, nil); err != nil {
			return err
		}
		if err := s.tickets.DeleteInvitation(ctx, ticketID); err != nil {
			return err
		}
		ticket.OwnerID = nil
		return s.inviteTo(ctx, ticket, email)
	})
}

// UpdateDays changes a ticket's day selection. Tickets on an invoice with
// any payment attempt are locked; otherwise the ledger row snapshot is
// replaced to match the new price.
func (s *TicketsService) UpdateDays(ctx context.Context, ticketID int64, rawDays []string) error {
	days, err := tickets.ParseDays(rawDays)
	if err != nil {
		return err
	}

	return s.txm.Do(ctx, func(ctx context.Context) error {
		ticket, err := s.tickets.GetByID(ctx, ticketID)
		if err != nil {
			return err
		}

		item := billing.ItemRef{Kind: billing.ItemTicket, ID: ticketID}
		invoice, err := s.invoices.FindByItem(ctx, item)
		if errors.Is(err, billing.ErrNotFound) && ticket.IsFree() {
			// Free tickets have no invoice; completing their days is
			// always allowed.
			return s.tickets.UpdateDays(ctx, ticketID, days)
		}
		if err != nil {
			return err
		}

		if invoice.HasPayments() {
			return tickets.ErrTicketLocked
		}
		if err := s.invoices.DeleteRow(ctx, invoice.ID, item); err != nil {
			return err
		}
		ticket.Days = days
		cost, err := ticket.CostExclVAT()
		if err != nil {
			return err
		}
		_, err = s.invoices.AddRow(ctx, billing.InvoiceRow{
			InvoiceID:       invoice.ID,
			Item:            item,
			TotalExVATPence: cost,
			VATRate:         billing.VATStandard20,
		}, false)
		if err != nil {
			return err
		}

		return s.tickets.UpdateDays(ctx, ticketID, days)
	})
}

func (s *TicketsService) inviteTo(ctx context.Context, ticket tickets.Ticket, email string) error {
	return inviteToTicket(ctx, s.tickets, s.publisher, ticket, email)
}
