package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tickets/internal/domain/billing"
	"tickets/internal/domain/tickets"
	"tickets/internal/entities"
	"tickets/internal/idempotency"
	"tickets/internal/infrastructure/clients"
	"tickets/internal/observability"
)

// PayInvoice charges the card token for the invoice total. The charge runs
// outside any database transaction; its outcome is reconciled with local
// state afterwards:
//
//   - card declined: a failed payment row is recorded and the invoice stays
//     payable. The returned payment carries the decline reason.
//   - charge succeeded: the successful payment, the InvoicePaid event, and
//     the claim-mail events for the invoice's unclaimed invitations commit
//     in one transaction.
//   - charge succeeded but the commit failed: the charge is refunded, an
//     errored payment row is recorded, and ErrPaymentErrored is returned.
func (s *OrdersService) PayInvoice(ctx context.Context, invoiceID int64, cardToken string) (billing.Payment, error) {
	invoice, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return billing.Payment{}, err
	}
	if !invoice.PaymentRequired() {
		return billing.Payment{}, billing.ErrInvoiceAlreadyPaid
	}

	extID, err := invoice.ExternalID()
	if err != nil {
		return billing.Payment{}, err
	}
	amount := invoice.TotalIncVATPence()

	charge, err := s.gateway.CreateCharge(
		ctx,
		amount,
		fmt.Sprintf("Conference invoice %s", extID),
		fmt.Sprintf("%s %s", s.eventName, extID),
		cardToken,
	)

	var declined clients.CardDeclinedError
	if errors.As(err, &declined) {
		payment := billing.Payment{
			InvoiceID:     invoiceID,
			Method:        billing.PaymentMethodStripe,
			Status:        billing.PaymentFailed,
			ChargeID:      declined.ChargeID,
			FailureReason: declined.Reason,
			AmountPence:   amount,
		}
		payment.ID, err = s.invoices.CreatePayment(ctx, payment)
		if err != nil {
			return billing.Payment{}, fmt.Errorf("recording failed payment: %w", err)
		}
		observability.PaymentAttempts.WithLabelValues(string(billing.PaymentFailed)).Inc()
		return payment, nil
	}
	if err != nil {
		return billing.Payment{}, fmt.Errorf("charging invoice %s: %w", extID, err)
	}

	payment := billing.Payment{
		InvoiceID:     invoiceID,
		Method:        billing.PaymentMethodStripe,
		Status:        billing.PaymentSuccessful,
		ChargeID:      charge.ID,
		ChargeCreated: charge.Created,
		AmountPence:   charge.AmountPence,
	}

	err = s.txm.Do(ctx, func(ctx context.Context) error {
		payment.ID, err = s.invoices.CreatePayment(ctx, payment)
		if err != nil {
			return err
		}

		purchaser, err := s.users.GetByID(ctx, invoice.PurchaserID)
		if err != nil {
			return err
		}
		reference, err := invoice.Reference()
		if err != nil {
			return err
		}
		err = s.publisher.Publish(ctx, entities.InvoicePaid_v1{
			Header:           entities.NewEventHeaderWithIdempotencyKey(idempotency.GetKey(ctx) + charge.ID),
			InvoiceID:        extID,
			InvoiceReference: reference,
			PurchaserEmail:   purchaser.Email,
			PurchaserName:    purchaser.Name,
			AmountPence:      charge.AmountPence,
			ChargeID:         charge.ID,
			PaidAt:           time.Now().UTC(),
		})
		if err != nil {
			return err
		}

		return s.publishInvitations(ctx, invoice)
	})
	if err != nil {
		return s.compensateCharge(ctx, invoiceID, charge, err)
	}

	observability.PaymentAttempts.WithLabelValues(string(billing.PaymentSuccessful)).Inc()
	return payment, nil
}

// publishInvitations mails the claim links for the invoice's invited
// tickets. Invitations are created when the order is placed, but the mails
// only go out once the invoice is paid, so a declined or abandoned order
// never invites anybody.
func (s *OrdersService) publishInvitations(ctx context.Context, invoice billing.Invoice) error {
	for _, row := range invoice.Rows {
		if row.Item.Kind != billing.ItemTicket {
			continue
		}
		invitation, err := s.tickets.GetInvitationByTicket(ctx, row.Item.ID)
		if errors.Is(err, tickets.ErrNotFound) {
			// The purchaser's own ticket has no invitation.
			continue
		}
		if err != nil {
			return err
		}
		if invitation.Claimed() {
			continue
		}

		ticket, err := s.tickets.GetByID(ctx, row.Item.ID)
		if err != nil {
			return err
		}
		if err := publishTicketAssigned(ctx, s.publisher, ticket, invitation); err != nil {
			return err
		}
	}
	return nil
}

// compensateCharge unwinds a charge whose local bookkeeping failed: the
// customer is refunded and the attempt is kept as an errored audit row.
func (s *OrdersService) compensateCharge(ctx context.Context, invoiceID int64, charge clients.Charge, cause error) (billing.Payment, error) {
	logger := observability.FromContext(ctx).
		WithField("invoice_id", invoiceID).
		WithField("charge_id", charge.ID)
	logger.WithError(cause).Error("Recording payment failed, refunding charge")

	if err := s.gateway.RefundCharge(ctx, charge.ID); err != nil {
		// The charge stands and the invoice shows no successful payment.
		// This needs a human, which is why it is logged at this level.
		logger.WithError(err).Error("Compensating refund failed, charge needs manual review")
	}

	payment := billing.Payment{
		InvoiceID:     invoiceID,
		Method:        billing.PaymentMethodStripe,
		Status:        billing.PaymentErrored,
		ChargeID:      charge.ID,
		ChargeCreated: charge.Created,
		FailureReason: cause.Error(),
		AmountPence:   charge.AmountPence,
	}
	paymentID, err := s.invoices.CreatePayment(ctx, payment)
	if err != nil {
		logger.WithError(err).Error("Recording errored payment failed")
	} else {
		payment.ID = paymentID
	}

	observability.PaymentAttempts.WithLabelValues(string(billing.PaymentErrored)).Inc()
	return payment, fmt.Errorf("%w: %v", billing.ErrPaymentErrored, cause)
}

// RefundInvoice refunds a paid invoice in full: the gateway refund first,
// then the payment transition, mirroring credit note, and the
// InvoiceRefunded event in one transaction. Gateway refunds are idempotent,
// so a retry after a failed commit is safe.
func (s *OrdersService) RefundInvoice(ctx context.Context, invoiceID int64, reason string) (int64, error) {
	invoice, err := s.invoices.GetByID(ctx, invoiceID)
	if err != nil {
		return 0, err
	}
	payment, ok := invoice.SuccessfulPayment()
	if !ok {
		return 0, billing.ErrInvoiceNotPaid
	}
	if payment.Status != billing.PaymentSuccessful {
		return 0, fmt.Errorf("%w: payment already %s", billing.ErrInvalidStatusTransition, payment.Status)
	}

	if err := s.gateway.RefundCharge(ctx, payment.ChargeID); err != nil {
		return 0, err
	}

	var creditNoteID int64
	err = s.txm.Do(ctx, func(ctx context.Context) error {
		err := s.invoices.TransitionPaymentStatus(ctx, payment.ID, billing.PaymentSuccessful, billing.PaymentRefunded)
		if err != nil {
			return err
		}

		creditNoteID, err = s.invoices.Create(ctx, billing.Invoice{
			PurchaserID:       invoice.PurchaserID,
			InvoiceTo:         invoice.InvoiceTo,
			CompanyName:       invoice.CompanyName,
			CompanyAddress:    invoice.CompanyAddress,
			IsCredit:          true,
			CreditReason:      reason,
			CreditedInvoiceID: &invoice.ID,
		})
		if err != nil {
			return err
		}
		for _, row := range invoice.Rows {
			_, err = s.invoices.AddRow(ctx, billing.InvoiceRow{
				InvoiceID:       creditNoteID,
				Item:            row.Item,
				TotalExVATPence: row.TotalExVATPence,
				VATRate:         row.VATRate,
			}, true)
			if err != nil {
				return err
			}
		}

		purchaser, err := s.users.GetByID(ctx, invoice.PurchaserID)
		if err != nil {
			return err
		}
		invoiceExtID, err := invoice.ExternalID()
		if err != nil {
			return err
		}
		creditNote := billing.Invoice{ID: creditNoteID, IsCredit: true}
		creditNoteExtID, err := creditNote.ExternalID()
		if err != nil {
			return err
		}
		return s.publisher.Publish(ctx, entities.InvoiceRefunded_v1{
			Header:         entities.NewEventHeaderWithIdempotencyKey(idempotency.GetKey(ctx) + payment.ChargeID),
			InvoiceID:      invoiceExtID,
			CreditNoteID:   creditNoteExtID,
			PurchaserEmail: purchaser.Email,
			PurchaserName:  purchaser.Name,
			AmountPence:    payment.AmountPence,
			Reason:         reason,
			RefundedAt:     time.Now().UTC(),
		})
	})
	if err != nil {
		return 0, err
	}

	observability.Refunds.Inc()
	return creditNoteID, nil
}

// RecordChargeback marks a successful payment as charged back. It is pure
// bookkeeping, the money already moved at the card network's initiative.
func (s *OrdersService) RecordChargeback(ctx context.Context, paymentID int64) error {
	return s.txm.Do(ctx, func(ctx context.Context) error {
		return s.invoices.TransitionPaymentStatus(ctx, paymentID, billing.PaymentSuccessful, billing.PaymentChargeback)
	})
}
