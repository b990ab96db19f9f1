package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/components/cqrs"

	"tickets/internal/domain/billing"
	"tickets/internal/entities"
	"tickets/internal/idempotency"
	"tickets/internal/observability"
)

type RefundsService interface {
	RefundInvoice(ctx context.Context, invoiceID int64, reason string) (int64, error)
}

type Handler struct {
	refunds RefundsService
}

func NewHandler(refunds RefundsService) *Handler {
	return &Handler{refunds: refunds}
}

func (h *Handler) All() []cqrs.CommandHandler {
	return []cqrs.CommandHandler{
		h.RefundInvoiceHandler(),
	}
}

func (h *Handler) RefundInvoiceHandler() cqrs.CommandHandler {
	return cqrs.NewCommandHandler(
		"refund_invoice",
		func(ctx context.Context, command *entities.RefundInvoice_v1) error {
			logger := observability.FromContext(ctx).WithField("invoice_id", command.InvoiceID)
			logger.Info("Refunding invoice")

			if command.Header.IdempotencyKey != "" {
				ctx = idempotency.WithKey(ctx, command.Header.IdempotencyKey)
			}

			creditNoteID, err := h.refunds.RefundInvoice(ctx, command.InvoiceID, command.Reason)
			if errors.Is(err, billing.ErrInvalidStatusTransition) {
				// A redelivery after the refund already landed.
				logger.Info("Invoice already refunded, skipping")
				return nil
			}
			if err != nil {
				return fmt.Errorf("refunding invoice %d: %w", command.InvoiceID, err)
			}

			logger.WithField("credit_note_id", creditNoteID).Info("Invoice refunded")
			return nil
		},
	)
}
