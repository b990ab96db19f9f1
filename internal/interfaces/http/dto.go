package http

import (
	"fmt"

	"tickets/internal/domain/billing"
	"tickets/internal/domain/ident"
)

type OrderRowResponse struct {
	ItemKind         string `json:"item_kind"`
	ItemID           string `json:"item_id"`
	TotalExVATPence  int64  `json:"total_ex_vat_pence"`
	VATRatePercent   int    `json:"vat_rate_percent"`
	TotalIncVATPence int64  `json:"total_inc_vat_pence"`
}

type OrderPaymentResponse struct {
	PaymentID     string `json:"payment_id"`
	Status        string `json:"status"`
	AmountPence   int64  `json:"amount_pence"`
	FailureReason string `json:"failure_reason,omitempty"`
}

type OrderResponse struct {
	OrderID          string                 `json:"order_id"`
	Reference        string                 `json:"reference"`
	InvoiceTo        string                 `json:"invoice_to"`
	CompanyName      string                 `json:"company_name,omitempty"`
	CompanyAddress   string                 `json:"company_address,omitempty"`
	Rows             []OrderRowResponse     `json:"rows"`
	TotalExVATPence  int64                  `json:"total_ex_vat_pence"`
	TotalVATPence    int64                  `json:"total_vat_pence"`
	TotalIncVATPence int64                  `json:"total_inc_vat_pence"`
	PaymentRequired  bool                   `json:"payment_required"`
	Payments         []OrderPaymentResponse `json:"payments,omitempty"`
}

func parseInvoiceID(token string) (int64, error) {
	return ident.Invoices.Backward(token)
}

func invoiceExternalID(invoiceID int64) (string, error) {
	return ident.Invoices.Forward(invoiceID)
}

func itemExternalID(item billing.ItemRef) (string, error) {
	switch item.Kind {
	case billing.ItemTicket:
		return ident.Tickets.Forward(item.ID)
	case billing.ItemChildTicket:
		return ident.ChildTickets.Forward(item.ID)
	default:
		return "", fmt.Errorf("unknown item kind %q", item.Kind)
	}
}

func toOrderResponse(invoice billing.Invoice) (OrderResponse, error) {
	extID, err := invoice.ExternalID()
	if err != nil {
		return OrderResponse{}, err
	}
	reference, err := invoice.Reference()
	if err != nil {
		return OrderResponse{}, err
	}

	response := OrderResponse{
		OrderID:          extID,
		Reference:        reference,
		InvoiceTo:        invoice.InvoiceTo,
		CompanyName:      invoice.CompanyName,
		CompanyAddress:   invoice.CompanyAddress,
		TotalExVATPence:  invoice.TotalExVATPence(),
		TotalVATPence:    invoice.TotalVATPence(),
		TotalIncVATPence: invoice.TotalIncVATPence(),
		PaymentRequired:  invoice.PaymentRequired(),
	}

	for _, row := range invoice.Rows {
		itemID, err := itemExternalID(row.Item)
		if err != nil {
			return OrderResponse{}, err
		}
		response.Rows = append(response.Rows, OrderRowResponse{
			ItemKind:         string(row.Item.Kind),
			ItemID:           itemID,
			TotalExVATPence:  row.TotalExVATPence,
			VATRatePercent:   int(row.VATRate),
			TotalIncVATPence: row.TotalIncVATPence(),
		})
	}
	for _, payment := range invoice.Payments {
		paymentResponse, err := toPaymentResponse(payment)
		if err != nil {
			return OrderResponse{}, err
		}
		response.Payments = append(response.Payments, OrderPaymentResponse(paymentResponse))
	}
	return response, nil
}

func toPaymentResponse(payment billing.Payment) (PayInvoiceResponse, error) {
	extID, err := ident.Payments.Forward(payment.ID)
	if err != nil {
		return PayInvoiceResponse{}, err
	}
	return PayInvoiceResponse{
		PaymentID:     extID,
		Status:        string(payment.Status),
		AmountPence:   payment.AmountPence,
		FailureReason: payment.FailureReason,
	}, nil
}
