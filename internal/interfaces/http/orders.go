package http

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"tickets/internal/application/services"
	"tickets/internal/domain/billing"
	"tickets/internal/domain/pricing"
)

type PurchaserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type OrderTicketRequest struct {
	Email string   `json:"email,omitempty"`
	Days  []string `json:"days"`
}

type CreateOrderRequest struct {
	Purchaser      PurchaserRequest     `json:"purchaser"`
	Rate           string               `json:"rate"`
	Self           *OrderTicketRequest  `json:"self,omitempty"`
	Others         []OrderTicketRequest `json:"others,omitempty"`
	CompanyName    string               `json:"company_name,omitempty"`
	CompanyAddress string               `json:"company_address,omitempty"`
}

type CreateOrderResponse struct {
	OrderID string `json:"order_id"`
}

func (s *Server) CreateOrderHandler(c echo.Context) error {
	ctx := c.Request().Context()

	var request CreateOrderRequest
	if err := c.Bind(&request); err != nil {
		return err
	}

	purchaser, err := s.findOrCreateUser(ctx, request.Purchaser.Name, request.Purchaser.Email)
	if err != nil {
		return mapError(err)
	}

	invoiceID, err := s.orders.CreateOrder(ctx, toServiceOrderRequest(purchaser.ID, request))
	if err != nil {
		return mapError(err)
	}

	extID, err := invoiceExternalID(invoiceID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, CreateOrderResponse{OrderID: extID})
}

func (s *Server) UpdateOrderHandler(c echo.Context) error {
	ctx := c.Request().Context()

	invoiceID, err := parseInvoiceID(c.Param("invoice_id"))
	if err != nil {
		return mapError(err)
	}

	var request CreateOrderRequest
	if err := c.Bind(&request); err != nil {
		return err
	}

	purchaser, err := s.users.GetByEmail(ctx, request.Purchaser.Email)
	if err != nil {
		return mapError(err)
	}

	err = s.orders.UpdateOrder(ctx, invoiceID, toServiceOrderRequest(purchaser.ID, request))
	if err != nil {
		return mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) GetOrderHandler(c echo.Context) error {
	invoiceID, err := parseInvoiceID(c.Param("invoice_id"))
	if err != nil {
		return mapError(err)
	}

	invoice, err := s.orders.GetOrder(c.Request().Context(), invoiceID)
	if err != nil {
		return mapError(err)
	}

	response, err := toOrderResponse(invoice)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, response)
}

type PayInvoiceRequest struct {
	CardToken string `json:"card_token"`
}

type PayInvoiceResponse struct {
	PaymentID     string `json:"payment_id"`
	Status        string `json:"status"`
	AmountPence   int64  `json:"amount_pence"`
	FailureReason string `json:"failure_reason,omitempty"`
}

func (s *Server) PayInvoiceHandler(c echo.Context) error {
	ctx := c.Request().Context()

	invoiceID, err := parseInvoiceID(c.Param("invoice_id"))
	if err != nil {
		return mapError(err)
	}

	var request PayInvoiceRequest
	if err := c.Bind(&request); err != nil {
		return err
	}
	if request.CardToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "card_token is required")
	}

	payment, err := s.orders.PayInvoice(ctx, invoiceID, request.CardToken)
	if err != nil {
		return mapError(err)
	}

	response, err := toPaymentResponse(payment)
	if err != nil {
		return err
	}
	// A declined card is a recorded outcome, not a server error.
	if payment.Status == billing.PaymentFailed {
		return c.JSON(http.StatusPaymentRequired, response)
	}
	return c.JSON(http.StatusCreated, response)
}

func toServiceOrderRequest(purchaserID int64, request CreateOrderRequest) services.CreateOrderRequest {
	out := services.CreateOrderRequest{
		PurchaserID:    purchaserID,
		Rate:           pricing.Rate(request.Rate),
		CompanyName:    request.CompanyName,
		CompanyAddress: request.CompanyAddress,
	}
	if request.Self != nil {
		out.Self = &services.TicketRequest{Days: request.Self.Days}
	}
	for _, other := range request.Others {
		out.Others = append(out.Others, services.TicketRequest{
			Email: other.Email,
			Days:  other.Days,
		})
	}
	return out
}
