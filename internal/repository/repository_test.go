// Integration tests against live Postgres; set POSTGRES_URL to enable them.
package repository_test

import (
	"context"
	"os"
	"testing"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tickets/internal/domain/billing"
	"tickets/internal/domain/pricing"
	"tickets/internal/domain/tickets"
	"tickets/internal/domain/users"
	"tickets/internal/repository"
)

func testDB(t *testing.T) *sqlx.DB {
	t.Helper()
	url := os.Getenv("POSTGRES_URL")
	if url == "" {
		t.Skip("POSTGRES_URL is required for repository tests")
	}
	db, err := sqlx.Connect("postgres", url)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, repository.InitializeDBSchema(db))
	return db
}

func createUser(t *testing.T, repo *repository.UsersRepo) users.User {
	t.Helper()
	user := users.User{Name: "Pat Smith", Email: uuid.NewString() + "@example.com"}
	id, err := repo.Create(context.Background(), user)
	require.NoError(t, err)
	user.ID = id
	return user
}

func TestUsersRoundTrip(t *testing.T) {
	db := testDB(t)
	repo := repository.NewUsersRepo(db, trmsqlx.DefaultCtxGetter)
	ctx := context.Background()

	created := createUser(t, repo)

	byID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created, byID)

	byEmail, err := repo.GetByEmail(ctx, created.Email)
	require.NoError(t, err)
	assert.Equal(t, created, byEmail)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, users.ErrNotFound)
}

func TestTicketDayFlagsRoundTrip(t *testing.T) {
	db := testDB(t)
	repo := repository.NewTicketsRepo(db, trmsqlx.DefaultCtxGetter)
	ctx := context.Background()

	id, err := repo.Create(ctx, tickets.Ticket{
		Rate: pricing.RateIndividual,
		Days: []tickets.Day{tickets.Saturday, tickets.Thursday},
	})
	require.NoError(t, err)

	ticket, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []tickets.Day{tickets.Thursday, tickets.Saturday}, ticket.Days)

	require.NoError(t, repo.UpdateDays(ctx, id, []tickets.Day{tickets.Monday}))
	ticket, err = repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, []tickets.Day{tickets.Monday}, ticket.Days)
}

func TestInvitationClaimedOnce(t *testing.T) {
	db := testDB(t)
	repo := repository.NewTicketsRepo(db, trmsqlx.DefaultCtxGetter)
	ctx := context.Background()

	ticketID, err := repo.Create(ctx, tickets.Ticket{
		Rate: pricing.RateIndividual,
		Days: []tickets.Day{tickets.Thursday},
	})
	require.NoError(t, err)

	token := tickets.NewToken()
	_, err = repo.CreateInvitation(ctx, tickets.Invitation{
		TicketID: ticketID,
		Email:    "sam@example.com",
		Token:    token,
		Status:   tickets.InvitationUnclaimed,
	})
	require.NoError(t, err)

	require.NoError(t, repo.ClaimInvitation(ctx, token))
	assert.ErrorIs(t, repo.ClaimInvitation(ctx, token), tickets.ErrAlreadyClaimed)

	invitation, err := repo.GetInvitationByToken(ctx, token)
	require.NoError(t, err)
	assert.True(t, invitation.Claimed())
}

func TestInvoiceLedger(t *testing.T) {
	db := testDB(t)
	getter := trmsqlx.DefaultCtxGetter
	usersRepo := repository.NewUsersRepo(db, getter)
	ticketsRepo := repository.NewTicketsRepo(db, getter)
	invoicesRepo := repository.NewInvoicesRepo(db, getter)
	ctx := context.Background()

	purchaser := createUser(t, usersRepo)
	ticketID, err := ticketsRepo.Create(ctx, tickets.Ticket{
		OwnerID: &purchaser.ID,
		Rate:    pricing.RateIndividual,
		Days:    []tickets.Day{tickets.Thursday, tickets.Friday},
	})
	require.NoError(t, err)

	invoiceID, err := invoicesRepo.Create(ctx, billing.Invoice{
		PurchaserID: purchaser.ID,
		InvoiceTo:   purchaser.Name,
	})
	require.NoError(t, err)

	item := billing.ItemRef{Kind: billing.ItemTicket, ID: ticketID}
	_, err = invoicesRepo.AddRow(ctx, billing.InvoiceRow{
		InvoiceID:       invoiceID,
		Item:            item,
		TotalExVATPence: 5500,
		VATRate:         billing.VATStandard20,
	}, false)
	require.NoError(t, err)

	// The same item cannot be billed twice on one invoice.
	_, err = invoicesRepo.AddRow(ctx, billing.InvoiceRow{
		InvoiceID:       invoiceID,
		Item:            item,
		TotalExVATPence: 5500,
		VATRate:         billing.VATStandard20,
	}, false)
	assert.ErrorIs(t, err, billing.ErrItemAlreadyInvoiced)

	invoice, err := invoicesRepo.GetByID(ctx, invoiceID)
	require.NoError(t, err)
	assert.Equal(t, int64(6600), invoice.TotalPence)
	assert.Equal(t, int64(6600), invoice.TotalIncVATPence())

	found, err := invoicesRepo.FindByItem(ctx, item)
	require.NoError(t, err)
	assert.Equal(t, invoiceID, found.ID)

	require.NoError(t, invoicesRepo.DeleteRow(ctx, invoiceID, item))
	assert.ErrorIs(t, invoicesRepo.DeleteRow(ctx, invoiceID, item), billing.ErrItemNotOnInvoice)

	invoice, err = invoicesRepo.GetByID(ctx, invoiceID)
	require.NoError(t, err)
	assert.Zero(t, invoice.TotalPence)
}

func TestPaymentTransitions(t *testing.T) {
	db := testDB(t)
	getter := trmsqlx.DefaultCtxGetter
	usersRepo := repository.NewUsersRepo(db, getter)
	invoicesRepo := repository.NewInvoicesRepo(db, getter)
	ctx := context.Background()

	purchaser := createUser(t, usersRepo)
	invoiceID, err := invoicesRepo.Create(ctx, billing.Invoice{
		PurchaserID: purchaser.ID,
		InvoiceTo:   purchaser.Name,
	})
	require.NoError(t, err)

	paymentID, err := invoicesRepo.CreatePayment(ctx, billing.Payment{
		InvoiceID:   invoiceID,
		Method:      billing.PaymentMethodStripe,
		Status:      billing.PaymentSuccessful,
		ChargeID:    "ch_" + uuid.NewString(),
		AmountPence: 6600,
	})
	require.NoError(t, err)

	err = invoicesRepo.TransitionPaymentStatus(ctx, paymentID, billing.PaymentSuccessful, billing.PaymentRefunded)
	require.NoError(t, err)

	// The conditional update rejects a second transition from the old status.
	err = invoicesRepo.TransitionPaymentStatus(ctx, paymentID, billing.PaymentSuccessful, billing.PaymentChargeback)
	assert.ErrorIs(t, err, billing.ErrInvalidStatusTransition)

	payment, err := invoicesRepo.GetPayment(ctx, paymentID)
	require.NoError(t, err)
	assert.Equal(t, billing.PaymentRefunded, payment.Status)
}
