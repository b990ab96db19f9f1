package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tickets/internal/domain/tickets"
)

type invitationRow struct {
	ID       int64  `db:"id"`
	TicketID int64  `db:"ticket_id"`
	Email    string `db:"email"`
	Token    string `db:"token"`
	Status   string `db:"status"`
}

func (row invitationRow) toDomain() tickets.Invitation {
	return tickets.Invitation{
		ID:       row.ID,
		TicketID: row.TicketID,
		Email:    row.Email,
		Token:    row.Token,
		Status:   tickets.InvitationStatus(row.Status),
	}
}

func (r *TicketsRepo) CreateInvitation(ctx context.Context, invitation tickets.Invitation) (int64, error) {
	var id int64
	err := r.getter.DefaultTrOrDB(ctx, r.db).QueryRowxContext(ctx, `
		INSERT INTO ticket_invitations (ticket_id, email, token, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, invitation.TicketID, invitation.Email, invitation.Token, invitation.Status).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert invitation: %w", err)
	}
	return id, nil
}

func (r *TicketsRepo) GetInvitationByToken(ctx context.Context, token string) (tickets.Invitation, error) {
	var row invitationRow
	err := r.getter.DefaultTrOrDB(ctx, r.db).GetContext(ctx, &row, `
		SELECT id, ticket_id, email, token, status
		FROM ticket_invitations
		WHERE token = $1
	`, token)
	if errors.Is(err, sql.ErrNoRows) {
		return tickets.Invitation{}, tickets.ErrNotFound
	}
	if err != nil {
		return tickets.Invitation{}, fmt.Errorf("get invitation by token: %w", err)
	}
	return row.toDomain(), nil
}

func (r *TicketsRepo) GetInvitationByTicket(ctx context.Context, ticketID int64) (tickets.Invitation, error) {
	var row invitationRow
	err := r.getter.DefaultTrOrDB(ctx, r.db).GetContext(ctx, &row, `
		SELECT id, ticket_id, email, token, status
		FROM ticket_invitations
		WHERE ticket_id = $1
	`, ticketID)
	if errors.Is(err, sql.ErrNoRows) {
		return tickets.Invitation{}, tickets.ErrNotFound
	}
	if err != nil {
		return tickets.Invitation{}, fmt.Errorf("get invitation for ticket %d: %w", ticketID, err)
	}
	return row.toDomain(), nil
}

// ClaimInvitation flips unclaimed to claimed with a conditional update. The
// first claimer wins; everyone else gets ErrAlreadyClaimed.
func (r *TicketsRepo) ClaimInvitation(ctx context.Context, token string) error {
	result, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, `
		UPDATE ticket_invitations
		SET status = $2
		WHERE token = $1 AND status = $3
	`, token, tickets.InvitationClaimed, tickets.InvitationUnclaimed)
	if err != nil {
		return fmt.Errorf("claim invitation: %w", err)
	}
	return requireRowAffected(result, tickets.ErrAlreadyClaimed)
}

// DeleteInvitation removes a ticket's invitation ahead of reassignment.
func (r *TicketsRepo) DeleteInvitation(ctx context.Context, ticketID int64) error {
	_, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, `
		DELETE FROM ticket_invitations WHERE ticket_id = $1
	`, ticketID)
	if err != nil {
		return fmt.Errorf("delete invitation for ticket %d: %w", ticketID, err)
	}
	return nil
}
