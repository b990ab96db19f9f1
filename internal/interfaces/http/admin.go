package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"tickets/internal/domain/ident"
	"tickets/internal/entities"
	"tickets/internal/idempotency"
)

type RefundInvoiceRequest struct {
	Reason string `json:"reason"`
}

// RefundInvoiceHandler accepts the refund and hands it to the command bus.
// The gateway call happens in the command handler, off the request path.
func (s *Server) RefundInvoiceHandler(c echo.Context) error {
	ctx := c.Request().Context()

	invoiceID, err := parseInvoiceID(c.Param("invoice_id"))
	if err != nil {
		return mapError(err)
	}

	var request RefundInvoiceRequest
	if err := c.Bind(&request); err != nil {
		return err
	}
	if request.Reason == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "reason is required")
	}

	// The invoice must exist before the command is accepted; the handler
	// itself runs too late to report a 404.
	if _, err := s.orders.GetOrder(ctx, invoiceID); err != nil {
		return mapError(err)
	}

	err = s.commandBus.Send(ctx, &entities.RefundInvoice_v1{
		Header:    entities.NewEventHeaderWithIdempotencyKey(idempotency.GetKey(ctx)),
		InvoiceID: invoiceID,
		Reason:    request.Reason,
	})
	if err != nil {
		return err
	}
	return c.NoContent(http.StatusAccepted)
}

func (s *Server) ChargebackHandler(c echo.Context) error {
	paymentID, err := ident.Payments.Backward(c.Param("payment_id"))
	if err != nil {
		return mapError(err)
	}

	if err := s.orders.RecordChargeback(c.Request().Context(), paymentID); err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
