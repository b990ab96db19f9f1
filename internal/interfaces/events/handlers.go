package events

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/components/cqrs"

	"tickets/internal/domain/billing"
	"tickets/internal/entities"
)

type MailSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

type SlackPoster interface {
	Post(ctx context.Context, text string) error
}

// Handlers owns the notification side effects triggered by domain events.
type Handlers struct {
	mail      MailSender
	slack     SlackPoster
	eventName string
	domainURL string
}

func NewHandlers(mail MailSender, slack SlackPoster, eventName, domainURL string) Handlers {
	return Handlers{
		mail:      mail,
		slack:     slack,
		eventName: eventName,
		domainURL: domainURL,
	}
}

func (h Handlers) All() []cqrs.EventHandler {
	return []cqrs.EventHandler{
		cqrs.NewEventHandler("SendReceiptMail", h.SendReceiptMail),
		cqrs.NewEventHandler("NotifySlackInvoicePaid", h.NotifySlackInvoicePaid),
		cqrs.NewEventHandler("SendInvitationMail", h.SendInvitationMail),
		cqrs.NewEventHandler("SendRefundMail", h.SendRefundMail),
		cqrs.NewEventHandler("NotifySlackInvoiceRefunded", h.NotifySlackInvoiceRefunded),
	}
}

func (h Handlers) SendReceiptMail(ctx context.Context, event *entities.InvoicePaid_v1) error {
	subject := fmt.Sprintf("Your %s receipt (%s)", h.eventName, event.InvoiceReference)
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\n"+
			"Thanks for your payment of %s for %s.\r\n"+
			"Invoice reference: %s\r\n\r\n"+
			"See you there!\r\n",
		event.PurchaserName,
		billing.FormatPence(event.AmountPence),
		h.eventName,
		event.InvoiceReference,
	)
	return h.mail.Send(ctx, event.PurchaserEmail, subject, body)
}

func (h Handlers) NotifySlackInvoicePaid(ctx context.Context, event *entities.InvoicePaid_v1) error {
	return h.slack.Post(ctx, fmt.Sprintf(
		":moneybag: %s paid %s (invoice %s)",
		event.PurchaserName,
		billing.FormatPence(event.AmountPence),
		event.InvoiceReference,
	))
}

func (h Handlers) SendInvitationMail(ctx context.Context, event *entities.TicketAssigned_v1) error {
	claimURL := fmt.Sprintf("%s/invitations/%s/claim", h.domainURL, event.ClaimToken)

	subject := fmt.Sprintf("Your %s ticket", h.eventName)
	body := fmt.Sprintf(
		"Hi,\r\n\r\n"+
			"You have a ticket for %s (%s).\r\n"+
			"Claim it here: %s\r\n",
		h.eventName,
		event.Days,
		claimURL,
	)
	return h.mail.Send(ctx, event.InviteeEmail, subject, body)
}

func (h Handlers) SendRefundMail(ctx context.Context, event *entities.InvoiceRefunded_v1) error {
	subject := fmt.Sprintf("Your %s refund", h.eventName)
	body := fmt.Sprintf(
		"Hi %s,\r\n\r\n"+
			"We've refunded %s for your %s order.\r\n"+
			"The money should reach your card within a few days.\r\n",
		event.PurchaserName,
		billing.FormatPence(event.AmountPence),
		h.eventName,
	)
	return h.mail.Send(ctx, event.PurchaserEmail, subject, body)
}

func (h Handlers) NotifySlackInvoiceRefunded(ctx context.Context, event *entities.InvoiceRefunded_v1) error {
	return h.slack.Post(ctx, fmt.Sprintf(
		":leftwards_arrow_with_hook: refunded %s to %s (%s)",
		billing.FormatPence(event.AmountPence),
		event.PurchaserName,
		event.Reason,
	))
}
