package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/jmoiron/sqlx"

	"tickets/internal/domain/children"
)

type ChildrenRepo struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
}

func NewChildrenRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter) *ChildrenRepo {
	return &ChildrenRepo{db: db, getter: getter}
}

type childTicketRow struct {
	ID          int64     `db:"id"`
	InvoiceID   int64     `db:"invoice_id"`
	Name        string    `db:"name"`
	DateOfBirth time.Time `db:"date_of_birth"`
}

// CountTickets counts every child place ever sold. Capacity checks run
// inside the ordering transaction.
func (r *ChildrenRepo) CountTickets(ctx context.Context) (int, error) {
	var count int
	err := r.getter.DefaultTrOrDB(ctx, r.db).GetContext(ctx, &count, `
		SELECT COUNT(*) FROM child_tickets
	`)
	if err != nil {
		return 0, fmt.Errorf("count child tickets: %w", err)
	}
	return count, nil
}

func (r *ChildrenRepo) CreateTicket(ctx context.Context, ticket children.Ticket) (int64, error) {
	var id int64
	err := r.getter.DefaultTrOrDB(ctx, r.db).QueryRowxContext(ctx, `
		INSERT INTO child_tickets (invoice_id, name, date_of_birth)
		VALUES ($1, $2, $3)
		RETURNING id
	`, ticket.InvoiceID, ticket.Name, ticket.DateOfBirth).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert child ticket: %w", err)
	}
	return id, nil
}

func (r *ChildrenRepo) GetTicket(ctx context.Context, id int64) (children.Ticket, error) {
	var row childTicketRow
	err := r.getter.DefaultTrOrDB(ctx, r.db).GetContext(ctx, &row, `
		SELECT id, invoice_id, name, date_of_birth
		FROM child_tickets
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return children.Ticket{}, children.ErrNotFound
	}
	if err != nil {
		return children.Ticket{}, fmt.Errorf("get child ticket %d: %w", id, err)
	}
	return children.Ticket(row), nil
}

func (r *ChildrenRepo) CreateOrderDetails(ctx context.Context, details children.OrderDetails) error {
	_, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, `
		INSERT INTO children_order_details (invoice_id, adult_name, adult_email, adult_phone)
		VALUES ($1, $2, $3, $4)
	`, details.InvoiceID, details.AdultName, details.AdultEmail, details.AdultPhone)
	if err != nil {
		return fmt.Errorf("insert children order details: %w", err)
	}
	return nil
}

func (r *ChildrenRepo) GetOrderDetails(ctx context.Context, invoiceID int64) (children.OrderDetails, error) {
	var details children.OrderDetails
	err := r.getter.DefaultTrOrDB(ctx, r.db).QueryRowxContext(ctx, `
		SELECT invoice_id, adult_name, adult_email, adult_phone
		FROM children_order_details
		WHERE invoice_id = $1
	`, invoiceID).Scan(&details.InvoiceID, &details.AdultName, &details.AdultEmail, &details.AdultPhone)
	if errors.Is(err, sql.ErrNoRows) {
		return children.OrderDetails{}, children.ErrNotFound
	}
	if err != nil {
		return children.OrderDetails{}, fmt.Errorf("get children order details: %w", err)
	}
	return details, nil
}
