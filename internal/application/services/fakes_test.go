package services_test

import (
	"context"
	"fmt"
	"time"

	"tickets/internal/domain/billing"
	"tickets/internal/domain/children"
	"tickets/internal/domain/tickets"
	"tickets/internal/domain/users"
	"tickets/internal/entities"
	"tickets/internal/infrastructure/clients"
)

// fakeStore is an in-memory stand-in for the repositories. It implements
// the same not-found and conflict semantics as the Postgres versions.
type fakeStore struct {
	nextID int64

	users        map[int64]users.User
	invoices     map[int64]*billing.Invoice
	tickets      map[int64]*tickets.Ticket
	invitations  map[int64]*tickets.Invitation
	childTickets map[int64]*children.Ticket
	orderDetails map[int64]children.OrderDetails
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:        map[int64]users.User{},
		invoices:     map[int64]*billing.Invoice{},
		tickets:      map[int64]*tickets.Ticket{},
		invitations:  map[int64]*tickets.Invitation{},
		childTickets: map[int64]*children.Ticket{},
		orderDetails: map[int64]children.OrderDetails{},
	}
}

func (f *fakeStore) id() int64 {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) addUser(name, email string) users.User {
	user := users.User{ID: f.id(), Name: name, Email: email}
	f.users[user.ID] = user
	return user
}

func (f *fakeStore) GetByID(ctx context.Context, id int64) (users.User, error) {
	user, ok := f.users[id]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return user, nil
}

// invoicesRepo and ticketsRepo expose the store under the two repository
// interfaces, mirroring how the real repos share one database.
type invoicesRepo struct{ *fakeStore }

func (r invoicesRepo) Create(ctx context.Context, invoice billing.Invoice) (int64, error) {
	invoice.ID = r.id()
	invoice.CreatedAt = time.Now()
	r.invoices[invoice.ID] = &invoice
	return invoice.ID, nil
}

func (r invoicesRepo) GetByID(ctx context.Context, id int64) (billing.Invoice, error) {
	invoice, ok := r.invoices[id]
	if !ok {
		return billing.Invoice{}, billing.ErrNotFound
	}
	copied := *invoice
	copied.Rows = append([]billing.InvoiceRow(nil), invoice.Rows...)
	copied.Payments = append([]billing.Payment(nil), invoice.Payments...)
	return copied, nil
}

func (r invoicesRepo) FindByItem(ctx context.Context, item billing.ItemRef) (billing.Invoice, error) {
	var bestID int64
	for id, invoice := range r.invoices {
		if invoice.ContainsItem(item) && (bestID == 0 || id < bestID) {
			bestID = id
		}
	}
	if bestID == 0 {
		return billing.Invoice{}, billing.ErrNotFound
	}
	return r.GetByID(ctx, bestID)
}

func (r invoicesRepo) AddRow(ctx context.Context, row billing.InvoiceRow, isCredit bool) (int64, error) {
	invoice, ok := r.invoices[row.InvoiceID]
	if !ok {
		return 0, billing.ErrNotFound
	}
	if invoice.ContainsItem(row.Item) {
		return 0, billing.ErrItemAlreadyInvoiced
	}
	row.ID = r.id()
	invoice.Rows = append(invoice.Rows, row)

	delta := row.TotalIncVATPence()
	if isCredit {
		delta = -delta
	}
	invoice.TotalPence += delta
	return row.ID, nil
}

func (r invoicesRepo) DeleteRow(ctx context.Context, invoiceID int64, item billing.ItemRef) error {
	invoice, ok := r.invoices[invoiceID]
	if !ok {
		return billing.ErrNotFound
	}
	for i, row := range invoice.Rows {
		if row.Item == item {
			invoice.TotalPence -= row.TotalIncVATPence()
			invoice.Rows = append(invoice.Rows[:i], invoice.Rows[i+1:]...)
			return nil
		}
	}
	return billing.ErrItemNotOnInvoice
}

func (r invoicesRepo) CreatePayment(ctx context.Context, payment billing.Payment) (int64, error) {
	invoice, ok := r.invoices[payment.InvoiceID]
	if !ok {
		return 0, billing.ErrNotFound
	}
	payment.ID = r.id()
	invoice.Payments = append(invoice.Payments, payment)
	return payment.ID, nil
}

func (r invoicesRepo) GetPayment(ctx context.Context, id int64) (billing.Payment, error) {
	for _, invoice := range r.invoices {
		for _, payment := range invoice.Payments {
			if payment.ID == id {
				return payment, nil
			}
		}
	}
	return billing.Payment{}, billing.ErrNotFound
}

func (r invoicesRepo) TransitionPaymentStatus(ctx context.Context, id int64, from, to billing.PaymentStatus) error {
	for _, invoice := range r.invoices {
		for i, payment := range invoice.Payments {
			if payment.ID == id && payment.Status == from {
				invoice.Payments[i].Status = to
				return nil
			}
		}
	}
	return fmt.Errorf("%w: %s -> %s", billing.ErrInvalidStatusTransition, from, to)
}

type ticketsRepo struct{ *fakeStore }

func (r ticketsRepo) Create(ctx context.Context, ticket tickets.Ticket) (int64, error) {
	ticket.ID = r.id()
	r.tickets[ticket.ID] = &ticket
	return ticket.ID, nil
}

func (r ticketsRepo) GetByID(ctx context.Context, id int64) (tickets.Ticket, error) {
	ticket, ok := r.tickets[id]
	if !ok {
		return tickets.Ticket{}, tickets.ErrNotFound
	}
	return *ticket, nil
}

func (r ticketsRepo) UpdateDays(ctx context.Context, id int64, days []tickets.Day) error {
	ticket, ok := r.tickets[id]
	if !ok {
		return tickets.ErrNotFound
	}
	ticket.Days = days
	return nil
}

func (r ticketsRepo) SetOwner(ctx context.Context, id int64, ownerID *int64) error {
	ticket, ok := r.tickets[id]
	if !ok {
		return tickets.ErrNotFound
	}
	ticket.OwnerID = ownerID
	return nil
}

func (r ticketsRepo) Delete(ctx context.Context, id int64) error {
	delete(r.tickets, id)
	return nil
}

func (r ticketsRepo) CreateInvitation(ctx context.Context, invitation tickets.Invitation) (int64, error) {
	invitation.ID = r.id()
	r.invitations[invitation.ID] = &invitation
	return invitation.ID, nil
}

func (r ticketsRepo) GetInvitationByToken(ctx context.Context, token string) (tickets.Invitation, error) {
	for _, invitation := range r.invitations {
		if invitation.Token == token {
			return *invitation, nil
		}
	}
	return tickets.Invitation{}, tickets.ErrNotFound
}

func (r ticketsRepo) GetInvitationByTicket(ctx context.Context, ticketID int64) (tickets.Invitation, error) {
	for _, invitation := range r.invitations {
		if invitation.TicketID == ticketID {
			return *invitation, nil
		}
	}
	return tickets.Invitation{}, tickets.ErrNotFound
}

func (r ticketsRepo) ClaimInvitation(ctx context.Context, token string) error {
	for _, invitation := range r.invitations {
		if invitation.Token == token && invitation.Status == tickets.InvitationUnclaimed {
			invitation.Status = tickets.InvitationClaimed
			return nil
		}
	}
	return tickets.ErrAlreadyClaimed
}

func (r ticketsRepo) DeleteInvitation(ctx context.Context, ticketID int64) error {
	for id, invitation := range r.invitations {
		if invitation.TicketID == ticketID {
			delete(r.invitations, id)
		}
	}
	return nil
}

type childrenRepo struct{ *fakeStore }

func (r childrenRepo) CountTickets(ctx context.Context) (int, error) {
	return len(r.childTickets), nil
}

func (r childrenRepo) CreateTicket(ctx context.Context, ticket children.Ticket) (int64, error) {
	ticket.ID = r.id()
	r.childTickets[ticket.ID] = &ticket
	return ticket.ID, nil
}

func (r childrenRepo) CreateOrderDetails(ctx context.Context, details children.OrderDetails) error {
	r.orderDetails[details.InvoiceID] = details
	return nil
}

// fakeTxm runs the function directly. With err set it refuses the
// transaction, which is how the commit-failure path is exercised.
type fakeTxm struct {
	err error
}

func (f fakeTxm) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if f.err != nil {
		return f.err
	}
	return fn(ctx)
}

type fakePublisher struct {
	events []entities.Event
}

func (f *fakePublisher) Publish(ctx context.Context, event entities.Event) error {
	f.events = append(f.events, event)
	return nil
}

func (f *fakePublisher) assigned() []entities.TicketAssigned_v1 {
	var out []entities.TicketAssigned_v1
	for _, event := range f.events {
		if e, ok := event.(entities.TicketAssigned_v1); ok {
			out = append(out, e)
		}
	}
	return out
}

type fakeGateway struct {
	charge    clients.Charge
	chargeErr error
	refundErr error

	chargeCalls []chargeCall
	refunded    []string
}

type chargeCall struct {
	amountPence         int64
	description         string
	statementDescriptor string
	cardToken           string
}

func (f *fakeGateway) CreateCharge(ctx context.Context, amountPence int64, description, statementDescriptor, cardToken string) (clients.Charge, error) {
	f.chargeCalls = append(f.chargeCalls, chargeCall{
		amountPence:         amountPence,
		description:         description,
		statementDescriptor: statementDescriptor,
		cardToken:           cardToken,
	})
	if f.chargeErr != nil {
		return clients.Charge{}, f.chargeErr
	}
	return f.charge, nil
}

func (f *fakeGateway) RefundCharge(ctx context.Context, chargeID string) error {
	if f.refundErr != nil {
		return f.refundErr
	}
	f.refunded = append(f.refunded, chargeID)
	return nil
}
