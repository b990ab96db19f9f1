package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickets/internal/application/services"
	"tickets/internal/domain/billing"
	"tickets/internal/domain/children"
	"tickets/internal/domain/tickets"
	"tickets/internal/domain/users"
	"tickets/internal/entities"
)

type fakeOrders struct {
	invoice      billing.Invoice
	payment      billing.Payment
	payErr       error
	chargebackID int64
}

func (f *fakeOrders) CreateOrder(_ context.Context, _ services.CreateOrderRequest) (int64, error) {
	return f.invoice.ID, nil
}

func (f *fakeOrders) UpdateOrder(_ context.Context, _ int64, _ services.CreateOrderRequest) error {
	return nil
}

func (f *fakeOrders) GetOrder(_ context.Context, invoiceID int64) (billing.Invoice, error) {
	if invoiceID != f.invoice.ID {
		return billing.Invoice{}, billing.ErrNotFound
	}
	return f.invoice, nil
}

func (f *fakeOrders) PayInvoice(_ context.Context, _ int64, _ string) (billing.Payment, error) {
	return f.payment, f.payErr
}

func (f *fakeOrders) RecordChargeback(_ context.Context, paymentID int64) error {
	f.chargebackID = paymentID
	return nil
}

type fakeTickets struct {
	ticket   tickets.Ticket
	valid    bool
	claimErr error
}

func (f *fakeTickets) GetTicketStatus(_ context.Context, ticketID int64) (tickets.Ticket, bool, error) {
	if ticketID != f.ticket.ID {
		return tickets.Ticket{}, false, tickets.ErrNotFound
	}
	return f.ticket, f.valid, nil
}

func (f *fakeTickets) Claim(_ context.Context, _ string, _ int64) (tickets.Ticket, error) {
	if f.claimErr != nil {
		return tickets.Ticket{}, f.claimErr
	}
	return f.ticket, nil
}

func (f *fakeTickets) CreateFreeTicket(_ context.Context, _, _ string) (int64, error) {
	return f.ticket.ID, nil
}

func (f *fakeTickets) Reassign(_ context.Context, _ int64, _ string) error {
	return nil
}

func (f *fakeTickets) UpdateDays(_ context.Context, _ int64, _ []string) error {
	return nil
}

type fakeChildren struct {
	invoiceID int64
	err       error
}

func (f *fakeChildren) CreateOrder(_ context.Context, _ int64, _ children.OrderDetails, _ []children.Attendee) (int64, error) {
	return f.invoiceID, f.err
}

type fakeUsers struct {
	known map[string]users.User
}

func (f *fakeUsers) Create(_ context.Context, user users.User) (int64, error) {
	return int64(len(f.known) + 1), nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (users.User, error) {
	user, ok := f.known[email]
	if !ok {
		return users.User{}, users.ErrNotFound
	}
	return user, nil
}

type fakeCommandBus struct {
	sent []any
}

func (f *fakeCommandBus) Send(_ context.Context, command any) error {
	f.sent = append(f.sent, command)
	return nil
}

type serverFixture struct {
	server     *Server
	orders     *fakeOrders
	tickets    *fakeTickets
	commandBus *fakeCommandBus
}

func newServerFixture() serverFixture {
	orders := &fakeOrders{
		invoice: billing.Invoice{
			ID:          1,
			PurchaserID: 1,
			InvoiceTo:   "Pat Smith",
			Rows: []billing.InvoiceRow{{
				InvoiceID:       1,
				Item:            billing.ItemRef{Kind: billing.ItemTicket, ID: 1},
				TotalExVATPence: 5500,
				VATRate:         billing.VATStandard20,
			}},
		},
	}
	ticketsFake := &fakeTickets{
		ticket: tickets.Ticket{ID: 1, Rate: "individual", Days: []tickets.Day{tickets.Thursday}},
		valid:  true,
	}
	commandBus := &fakeCommandBus{}
	server := NewServer(
		echo.New(),
		orders,
		ticketsFake,
		&fakeChildren{invoiceID: 1},
		&fakeUsers{known: map[string]users.User{}},
		commandBus,
		func() bool { return true },
	)
	return serverFixture{
		server:     server,
		orders:     orders,
		tickets:    ticketsFake,
		commandBus: commandBus,
	}
}

func doRequest(fixture serverFixture, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	fixture.server.e.ServeHTTP(rec, req)
	return rec
}

func externalInvoiceID(t *testing.T, id int64) string {
	t.Helper()
	extID, err := invoiceExternalID(id)
	require.NoError(t, err)
	return extID
}

func TestCreateOrderEndpoint(t *testing.T) {
	fixture := newServerFixture()

	rec := doRequest(fixture, http.MethodPost, "/orders", `{
		"purchaser": {"name": "Pat Smith", "email": "pat@example.com"},
		"rate": "individual",
		"self": {"days": ["thu", "fri"]}
	}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var response CreateOrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Regexp(t, `^[0-9A-F]{4}$`, response.OrderID)
}

func TestGetOrderEndpoint(t *testing.T) {
	fixture := newServerFixture()

	rec := doRequest(fixture, http.MethodGet, "/orders/"+externalInvoiceID(t, 1), "")
	require.Equal(t, http.StatusOK, rec.Code)

	var response OrderResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "Pat Smith", response.InvoiceTo)
	assert.Equal(t, int64(6600), response.TotalIncVATPence)
	assert.True(t, response.PaymentRequired)
}

func TestGetOrderMalformedID(t *testing.T) {
	fixture := newServerFixture()

	assert.Equal(t, http.StatusNotFound, doRequest(fixture, http.MethodGet, "/orders/zz", "").Code)
	assert.Equal(t, http.StatusNotFound, doRequest(fixture, http.MethodGet, "/orders/"+externalInvoiceID(t, 999), "").Code)
}

func TestPayInvoiceEndpointDeclined(t *testing.T) {
	fixture := newServerFixture()
	fixture.orders.payment = billing.Payment{
		ID:            1,
		Status:        billing.PaymentFailed,
		FailureReason: "insufficient funds",
		AmountPence:   6600,
	}

	rec := doRequest(fixture, http.MethodPost, "/orders/"+externalInvoiceID(t, 1)+"/payments", `{"card_token": "tok_visa"}`)
	require.Equal(t, http.StatusPaymentRequired, rec.Code)

	var response PayInvoiceResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "insufficient funds", response.FailureReason)
}

func TestPayInvoiceEndpointAlreadyPaid(t *testing.T) {
	fixture := newServerFixture()
	fixture.orders.payErr = billing.ErrInvoiceAlreadyPaid

	rec := doRequest(fixture, http.MethodPost, "/orders/"+externalInvoiceID(t, 1)+"/payments", `{"card_token": "tok_visa"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPayInvoiceEndpointRequiresToken(t *testing.T) {
	fixture := newServerFixture()

	rec := doRequest(fixture, http.MethodPost, "/orders/"+externalInvoiceID(t, 1)+"/payments", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestClaimInvitationEndpointConflict(t *testing.T) {
	fixture := newServerFixture()
	fixture.tickets.claimErr = tickets.ErrAlreadyClaimed

	rec := doRequest(fixture, http.MethodPost, "/invitations/sometoken/claim", `{"name": "Sam", "email": "sam@example.com"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRefundInvoiceEndpoint(t *testing.T) {
	fixture := newServerFixture()

	rec := doRequest(fixture, http.MethodPost, "/invoices/"+externalInvoiceID(t, 1)+"/refund", `{"reason": "requested by customer"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)

	require.Len(t, fixture.commandBus.sent, 1)
	command, ok := fixture.commandBus.sent[0].(*entities.RefundInvoice_v1)
	require.True(t, ok)
	assert.Equal(t, int64(1), command.InvoiceID)
	assert.Equal(t, "requested by customer", command.Reason)
}

func TestRefundInvoiceEndpointUnknownInvoice(t *testing.T) {
	fixture := newServerFixture()

	rec := doRequest(fixture, http.MethodPost, "/invoices/"+externalInvoiceID(t, 999)+"/refund", `{"reason": "requested by customer"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, fixture.commandBus.sent)
}

func TestHealthEndpoint(t *testing.T) {
	fixture := newServerFixture()

	assert.Equal(t, http.StatusOK, doRequest(fixture, http.MethodGet, "/health", "").Code)
}
