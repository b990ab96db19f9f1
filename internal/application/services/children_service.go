package services

import (
	"context"
	"fmt"

	"tickets/internal/domain/billing"
	"tickets/internal/domain/children"
	"tickets/internal/observability"
)

type ChildrenRepo interface {
	CountTickets(ctx context.Context) (int, error)
	CreateTicket(ctx context.Context, ticket children.Ticket) (int64, error)
	CreateOrderDetails(ctx context.Context, details children.OrderDetails) error
}

type ChildrenService struct {
	children ChildrenRepo
	invoices InvoicesRepo
	users    UsersRepo
	txm      TxManager

	// capacity is the number of children's-day places on sale.
	capacity int
}

func NewChildrenService(
	childrenRepo ChildrenRepo,
	invoices InvoicesRepo,
	usersRepo UsersRepo,
	txm TxManager,
	capacity int,
) *ChildrenService {
	return &ChildrenService{
		children: childrenRepo,
		invoices: invoices,
		users:    usersRepo,
		txm:      txm,
		capacity: capacity,
	}
}

// CreateOrder places a children's-day order: one invoice with one zero-rated
// flat-price row per child, plus the adult contact record. The capacity
// check and the inserts share a transaction, so the sold count can never
// pass the configured capacity silently.
func (s *ChildrenService) CreateOrder(
	ctx context.Context,
	purchaserID int64,
	details children.OrderDetails,
	attendees []children.Attendee,
) (int64, error) {
	if err := children.ValidateOrder(details, attendees); err != nil {
		return 0, err
	}

	var invoiceID int64
	err := s.txm.Do(ctx, func(ctx context.Context) error {
		sold, err := s.children.CountTickets(ctx)
		if err != nil {
			return err
		}
		if sold+len(attendees) > s.capacity {
			return fmt.Errorf("%w: %d of %d places sold", children.ErrSoldOut, sold, s.capacity)
		}

		purchaser, err := s.users.GetByID(ctx, purchaserID)
		if err != nil {
			return err
		}

		invoiceID, err = s.invoices.Create(ctx, billing.Invoice{
			PurchaserID: purchaser.ID,
			InvoiceTo:   details.AdultName,
		})
		if err != nil {
			return err
		}

		details.InvoiceID = invoiceID
		if err := s.children.CreateOrderDetails(ctx, details); err != nil {
			return err
		}

		for _, attendee := range attendees {
			ticketID, err := s.children.CreateTicket(ctx, children.Ticket{
				InvoiceID:   invoiceID,
				Name:        attendee.Name,
				DateOfBirth: attendee.DateOfBirth,
			})
			if err != nil {
				return err
			}
			_, err = s.invoices.AddRow(ctx, billing.InvoiceRow{
				InvoiceID:       invoiceID,
				Item:            billing.ItemRef{Kind: billing.ItemChildTicket, ID: ticketID},
				TotalExVATPence: children.TicketPricePence,
				VATRate:         billing.VATZero,
			}, false)
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	observability.FromContext(ctx).
		WithField("invoice_id", invoiceID).
		WithField("attendees", len(attendees)).
		Info("Children's order placed")
	return invoiceID, nil
}
