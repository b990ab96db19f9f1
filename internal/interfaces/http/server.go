// Package http is the JSON API. Every identifier that crosses this boundary
// is a scrambled 4-hex token; internal integer keys never leave the process.
package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tickets/internal/application/services"
	"tickets/internal/domain/billing"
	"tickets/internal/domain/children"
	"tickets/internal/domain/tickets"
	"tickets/internal/domain/users"
	"tickets/internal/idempotency"
	"tickets/internal/observability"
)

type OrdersAPI interface {
	CreateOrder(ctx context.Context, req services.CreateOrderRequest) (int64, error)
	UpdateOrder(ctx context.Context, invoiceID int64, req services.CreateOrderRequest) error
	GetOrder(ctx context.Context, invoiceID int64) (billing.Invoice, error)
	PayInvoice(ctx context.Context, invoiceID int64, cardToken string) (billing.Payment, error)
	RecordChargeback(ctx context.Context, paymentID int64) error
}

type TicketsAPI interface {
	GetTicketStatus(ctx context.Context, ticketID int64) (tickets.Ticket, bool, error)
	Claim(ctx context.Context, token string, userID int64) (tickets.Ticket, error)
	CreateFreeTicket(ctx context.Context, email, pot string) (int64, error)
	Reassign(ctx context.Context, ticketID int64, email string) error
	UpdateDays(ctx context.Context, ticketID int64, rawDays []string) error
}

type ChildrenAPI interface {
	CreateOrder(ctx context.Context, purchaserID int64, details children.OrderDetails, attendees []children.Attendee) (int64, error)
}

type UsersAPI interface {
	Create(ctx context.Context, user users.User) (int64, error)
	GetByEmail(ctx context.Context, email string) (users.User, error)
}

type CommandSender interface {
	Send(ctx context.Context, command any) error
}

type Server struct {
	e *echo.Echo

	orders     OrdersAPI
	tickets    TicketsAPI
	children   ChildrenAPI
	users      UsersAPI
	commandBus CommandSender
}

func NewServer(
	e *echo.Echo,
	orders OrdersAPI,
	ticketsAPI TicketsAPI,
	childrenAPI ChildrenAPI,
	usersAPI UsersAPI,
	commandBus CommandSender,
	routerIsRunning func() bool,
) *Server {
	srv := &Server{
		e:          e,
		orders:     orders,
		tickets:    ticketsAPI,
		children:   childrenAPI,
		users:      usersAPI,
		commandBus: commandBus,
	}

	e.Use(echomiddleware.Recover())
	e.Use(idempotencyKeyMiddleware)
	e.Use(requestLoggingMiddleware)

	e.POST("/orders", srv.CreateOrderHandler)
	e.PUT("/orders/:invoice_id", srv.UpdateOrderHandler)
	e.GET("/orders/:invoice_id", srv.GetOrderHandler)
	e.POST("/orders/:invoice_id/payments", srv.PayInvoiceHandler)

	e.GET("/tickets/:ticket_id", srv.GetTicketHandler)
	e.POST("/tickets/:ticket_id/days", srv.UpdateTicketDaysHandler)
	e.POST("/tickets/:ticket_id/reassign", srv.ReassignTicketHandler)
	e.POST("/free-tickets", srv.CreateFreeTicketHandler)
	e.POST("/invitations/:token/claim", srv.ClaimInvitationHandler)

	e.POST("/children/orders", srv.CreateChildrenOrderHandler)

	e.POST("/invoices/:invoice_id/refund", srv.RefundInvoiceHandler)
	e.POST("/payments/:payment_id/chargeback", srv.ChargebackHandler)

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/health", func(c echo.Context) error {
		if !routerIsRunning() {
			return c.String(http.StatusServiceUnavailable, "router is not running")
		}
		return c.String(http.StatusOK, "ok")
	})

	return srv
}

func (s *Server) Start(addr string) error {
	err := s.e.Start(addr)
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

// idempotencyKeyMiddleware lets clients retry mutating requests safely: the
// key ends up in the headers of every event the request publishes.
func idempotencyKeyMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if key := c.Request().Header.Get("Idempotency-Key"); key != "" {
			ctx := idempotency.WithKey(c.Request().Context(), key)
			c.SetRequest(c.Request().WithContext(ctx))
		}
		return next(c)
	}
}

func requestLoggingMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		observability.FromContext(c.Request().Context()).
			WithField("method", c.Request().Method).
			WithField("path", c.Request().URL.Path).
			Debug("Handling a request")

		err := next(c)
		if err != nil {
			observability.FromContext(c.Request().Context()).
				WithField("path", c.Request().URL.Path).
				WithError(err).
				Error("Request handling error")
		}
		return err
	}
}

// findOrCreateUser resolves the acting user by email. There is no auth layer;
// callers identify themselves in the request body.
func (s *Server) findOrCreateUser(ctx context.Context, name, email string) (users.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, users.ErrNotFound) {
		return users.User{}, err
	}

	user = users.User{Name: name, Email: email}
	user.ID, err = s.users.Create(ctx, user)
	return user, err
}
