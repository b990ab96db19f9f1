// Package services orchestrates the ticketing flows: placing orders, taking
// payment, refunds, invitations, and children's-day orders. Services own the
// transaction boundaries; gateway calls happen outside them.
package services

import (
	"context"
	"errors"
	"fmt"

	"tickets/internal/domain/billing"
	"tickets/internal/domain/pricing"
	"tickets/internal/domain/tickets"
	"tickets/internal/domain/users"
	"tickets/internal/entities"
	"tickets/internal/idempotency"
	"tickets/internal/infrastructure/clients"
)

type InvoicesRepo interface {
	Create(ctx context.Context, invoice billing.Invoice) (int64, error)
	GetByID(ctx context.Context, id int64) (billing.Invoice, error)
	FindByItem(ctx context.Context, item billing.ItemRef) (billing.Invoice, error)
	AddRow(ctx context.Context, row billing.InvoiceRow, isCredit bool) (int64, error)
	DeleteRow(ctx context.Context, invoiceID int64, item billing.ItemRef) error
	CreatePayment(ctx context.Context, payment billing.Payment) (int64, error)
	GetPayment(ctx context.Context, id int64) (billing.Payment, error)
	TransitionPaymentStatus(ctx context.Context, id int64, from, to billing.PaymentStatus) error
}

type TicketsRepo interface {
	Create(ctx context.Context, ticket tickets.Ticket) (int64, error)
	GetByID(ctx context.Context, id int64) (tickets.Ticket, error)
	UpdateDays(ctx context.Context, id int64, days []tickets.Day) error
	SetOwner(ctx context.Context, id int64, ownerID *int64) error
	Delete(ctx context.Context, id int64) error
	CreateInvitation(ctx context.Context, invitation tickets.Invitation) (int64, error)
	GetInvitationByToken(ctx context.Context, token string) (tickets.Invitation, error)
	GetInvitationByTicket(ctx context.Context, ticketID int64) (tickets.Invitation, error)
	ClaimInvitation(ctx context.Context, token string) error
	DeleteInvitation(ctx context.Context, ticketID int64) error
}

type UsersRepo interface {
	GetByID(ctx context.Context, id int64) (users.User, error)
}

type PaymentGateway interface {
	CreateCharge(ctx context.Context, amountPence int64, description, statementDescriptor, cardToken string) (clients.Charge, error)
	RefundCharge(ctx context.Context, chargeID string) error
}

// EventPublisher publishes through the transactional outbox; it must be
// called inside a TxManager transaction.
type EventPublisher interface {
	Publish(ctx context.Context, event entities.Event) error
}

type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

var (
	ErrUnpayableRate = errors.New("rate cannot be ordered")
	ErrEmptyOrder    = errors.New("order has no tickets")
)

// TicketRequest is one requested ticket: either for the purchaser (Email
// empty) or for somebody to invite.
type TicketRequest struct {
	Email string
	Days  []string
}

type CreateOrderRequest struct {
	PurchaserID    int64
	Rate           pricing.Rate
	Self           *TicketRequest // nil when the purchaser is not attending
	Others         []TicketRequest
	CompanyName    string
	CompanyAddress string
}

type OrdersService struct {
	invoices  InvoicesRepo
	tickets   TicketsRepo
	users     UsersRepo
	gateway   PaymentGateway
	publisher EventPublisher
	txm       TxManager

	// eventName prefixes the card statement descriptor, so it is capped
	// at 17 chars to leave room for the 4-hex invoice token.
	eventName string
}

func NewOrdersService(
	invoices InvoicesRepo,
	ticketsRepo TicketsRepo,
	usersRepo UsersRepo,
	gateway PaymentGateway,
	publisher EventPublisher,
	txm TxManager,
	eventName string,
) *OrdersService {
	return &OrdersService{
		invoices:  invoices,
		tickets:   ticketsRepo,
		users:     usersRepo,
		gateway:   gateway,
		publisher: publisher,
		txm:       txm,
		eventName: eventName,
	}
}

// CreateOrder places a ticket order: one invoice, one ticket for the
// purchaser if they attend, one invited ticket per other attendee, one
// ledger row per ticket. Everything commits or nothing does.
func (s *OrdersService) CreateOrder(ctx context.Context, req CreateOrderRequest) (int64, error) {
	if req.Rate != pricing.RateIndividual && req.Rate != pricing.RateCorporate {
		return 0, fmt.Errorf("%w: %q", ErrUnpayableRate, req.Rate)
	}
	if err := billing.ValidateCompanyDetails(req.CompanyName, req.CompanyAddress); err != nil {
		return 0, err
	}
	if req.Rate == pricing.RateCorporate && req.CompanyName == "" {
		return 0, fmt.Errorf("%w: corporate orders need company details", billing.ErrInvalidCompanyDetails)
	}
	if req.Self == nil && len(req.Others) == 0 {
		return 0, ErrEmptyOrder
	}

	var invoiceID int64
	err := s.txm.Do(ctx, func(ctx context.Context) error {
		purchaser, err := s.users.GetByID(ctx, req.PurchaserID)
		if err != nil {
			return err
		}

		invoiceTo := purchaser.Name
		if req.CompanyName != "" {
			invoiceTo = req.CompanyName
		}

		invoiceID, err = s.invoices.Create(ctx, billing.Invoice{
			PurchaserID:    purchaser.ID,
			InvoiceTo:      invoiceTo,
			CompanyName:    req.CompanyName,
			CompanyAddress: req.CompanyAddress,
		})
		if err != nil {
			return err
		}

		if req.Self != nil {
			if _, err := s.createOrderTicket(ctx, invoiceID, req.Rate, *req.Self, &purchaser.ID); err != nil {
				return err
			}
		}
		for _, other := range req.Others {
			if _, err := s.createOrderTicket(ctx, invoiceID, req.Rate, other, nil); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return invoiceID, nil
}

// createOrderTicket creates one ticket with its ledger row, and an
// invitation when the ticket is for somebody else.
func (s *OrdersService) createOrderTicket(
	ctx context.Context,
	invoiceID int64,
	rate pricing.Rate,
	req TicketRequest,
	ownerID *int64,
) (int64, error) {
	days, err := tickets.ParseDays(req.Days)
	if err != nil {
		return 0, err
	}

	ticket := tickets.Ticket{OwnerID: ownerID, Rate: rate, Days: days}
	ticketID, err := s.tickets.Create(ctx, ticket)
	if err != nil {
		return 0, err
	}
	ticket.ID = ticketID

	cost, err := ticket.CostExclVAT()
	if err != nil {
		return 0, err
	}
	_, err = s.invoices.AddRow(ctx, billing.InvoiceRow{
		InvoiceID:       invoiceID,
		Item:            billing.ItemRef{Kind: billing.ItemTicket, ID: ticketID},
		TotalExVATPence: cost,
		VATRate:         billing.VATStandard20,
	}, false)
	if err != nil {
		return 0, err
	}

	if ownerID == nil {
		// The claim mail waits for a successful payment; only the
		// invitation record is created here.
		if _, err := createInvitation(ctx, s.tickets, ticket.ID, req.Email); err != nil {
			return 0, err
		}
	}
	return ticketID, nil
}

// createInvitation attaches a fresh invitation to the ticket.
func createInvitation(ctx context.Context, repo TicketsRepo, ticketID int64, email string) (tickets.Invitation, error) {
	invitation := tickets.Invitation{
		TicketID: ticketID,
		Email:    email,
		Token:    tickets.NewToken(),
		Status:   tickets.InvitationUnclaimed,
	}
	id, err := repo.CreateInvitation(ctx, invitation)
	if err != nil {
		return tickets.Invitation{}, err
	}
	invitation.ID = id
	return invitation, nil
}

// publishTicketAssigned publishes the event whose handler mails the claim
// link for the invitation.
func publishTicketAssigned(ctx context.Context, publisher EventPublisher, ticket tickets.Ticket, invitation tickets.Invitation) error {
	ticketExtID, err := ticket.ExternalID()
	if err != nil {
		return err
	}
	return publisher.Publish(ctx, entities.TicketAssigned_v1{
		Header:       entities.NewEventHeaderWithIdempotencyKey(idempotency.GetKey(ctx) + invitation.Token),
		TicketID:     ticketExtID,
		InviteeEmail: invitation.Email,
		ClaimToken:   invitation.Token,
		Days:         tickets.FormatDays(ticket.Days),
		FreeTicket:   ticket.IsFree(),
	})
}

// inviteToTicket creates an invitation and mails the claim link right away.
// It is for tickets with no payment to wait on: free tickets and
// reassignments.
func inviteToTicket(ctx context.Context, repo TicketsRepo, publisher EventPublisher, ticket tickets.Ticket, email string) error {
	invitation, err := createInvitation(ctx, repo, ticket.ID, email)
	if err != nil {
		return err
	}
	return publishTicketAssigned(ctx, publisher, ticket, invitation)
}

// UpdateOrder reshapes an unpaid order: existing tickets and rows are
// replaced with the requested ones. Orders with any payment attempt are
// frozen.
func (s *OrdersService) UpdateOrder(ctx context.Context, invoiceID int64, req CreateOrderRequest) error {
	if req.Rate != pricing.RateIndividual && req.Rate != pricing.RateCorporate {
		return fmt.Errorf("%w: %q", ErrUnpayableRate, req.Rate)
	}

	return s.txm.Do(ctx, func(ctx context.Context) error {
		invoice, err := s.invoices.GetByID(ctx, invoiceID)
		if err != nil {
			return err
		}
		if invoice.HasPayments() {
			return billing.ErrInvoiceHasPayments
		}
		if invoice.PurchaserID != req.PurchaserID {
			return billing.ErrNotFound
		}

		for _, row := range invoice.Rows {
			if row.Item.Kind != billing.ItemTicket {
				continue
			}
			if err := s.invoices.DeleteRow(ctx, invoiceID, row.Item); err != nil {
				return err
			}
			if err := s.tickets.DeleteInvitation(ctx, row.Item.ID); err != nil {
				return err
			}
			if err := s.tickets.Delete(ctx, row.Item.ID); err != nil {
				return err
			}
		}

		purchaser, err := s.users.GetByID(ctx, invoice.PurchaserID)
		if err != nil {
			return err
		}
		if req.Self != nil {
			if _, err := s.createOrderTicket(ctx, invoiceID, req.Rate, *req.Self, &purchaser.ID); err != nil {
				return err
			}
		}
		for _, other := range req.Others {
			if _, err := s.createOrderTicket(ctx, invoiceID, req.Rate, other, nil); err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *OrdersService) GetOrder(ctx context.Context, invoiceID int64) (billing.Invoice, error) {
	return s.invoices.GetByID(ctx, invoiceID)
}
