package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"tickets/internal/domain/billing"
)

const pqUniqueViolation = "23505"

type InvoicesRepo struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
}

func NewInvoicesRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter) *InvoicesRepo {
	return &InvoicesRepo{db: db, getter: getter}
}

type invoiceRow struct {
	ID                int64         `db:"id"`
	PurchaserID       int64         `db:"purchaser_id"`
	InvoiceTo         string        `db:"invoice_to"`
	CompanyName       string        `db:"company_name"`
	CompanyAddress    string        `db:"company_address"`
	IsCredit          bool          `db:"is_credit"`
	CreditReason      string        `db:"credit_reason"`
	CreditedInvoiceID sql.NullInt64 `db:"credited_invoice_id"`
	TotalPence        int64         `db:"total_pence"`
	CreatedAt         time.Time     `db:"created_at"`
}

type ledgerRow struct {
	ID              int64  `db:"id"`
	InvoiceID       int64  `db:"invoice_id"`
	ItemKind        string `db:"item_kind"`
	ItemID          int64  `db:"item_id"`
	TotalExVATPence int64  `db:"total_ex_vat_pence"`
	VATRate         int    `db:"vat_rate"`
}

func (r *InvoicesRepo) Create(ctx context.Context, invoice billing.Invoice) (int64, error) {
	var creditedID sql.NullInt64
	if invoice.CreditedInvoiceID != nil {
		creditedID = sql.NullInt64{Int64: *invoice.CreditedInvoiceID, Valid: true}
	}

	var id int64
	err := r.getter.DefaultTrOrDB(ctx, r.db).QueryRowxContext(ctx, `
		INSERT INTO invoices (
			purchaser_id, invoice_to, company_name, company_address,
			is_credit, credit_reason, credited_invoice_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`,
		invoice.PurchaserID,
		invoice.InvoiceTo,
		invoice.CompanyName,
		invoice.CompanyAddress,
		invoice.IsCredit,
		invoice.CreditReason,
		creditedID,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert invoice: %w", err)
	}
	return id, nil
}

// GetByID loads the invoice with its rows and payments.
func (r *InvoicesRepo) GetByID(ctx context.Context, id int64) (billing.Invoice, error) {
	tr := r.getter.DefaultTrOrDB(ctx, r.db)

	var row invoiceRow
	err := tr.GetContext(ctx, &row, `
		SELECT id, purchaser_id, invoice_to, company_name, company_address,
			is_credit, credit_reason, credited_invoice_id, total_pence, created_at
		FROM invoices
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return billing.Invoice{}, billing.ErrNotFound
	}
	if err != nil {
		return billing.Invoice{}, fmt.Errorf("get invoice %d: %w", id, err)
	}

	invoice := billing.Invoice{
		ID:             row.ID,
		PurchaserID:    row.PurchaserID,
		InvoiceTo:      row.InvoiceTo,
		CompanyName:    row.CompanyName,
		CompanyAddress: row.CompanyAddress,
		IsCredit:       row.IsCredit,
		CreditReason:   row.CreditReason,
		TotalPence:     row.TotalPence,
		CreatedAt:      row.CreatedAt,
	}
	if row.CreditedInvoiceID.Valid {
		creditedID := row.CreditedInvoiceID.Int64
		invoice.CreditedInvoiceID = &creditedID
	}

	var rows []ledgerRow
	err = tr.SelectContext(ctx, &rows, `
		SELECT id, invoice_id, item_kind, item_id, total_ex_vat_pence, vat_rate
		FROM invoice_rows
		WHERE invoice_id = $1
		ORDER BY id
	`, id)
	if err != nil {
		return billing.Invoice{}, fmt.Errorf("get invoice %d rows: %w", id, err)
	}
	for _, lr := range rows {
		invoice.Rows = append(invoice.Rows, billing.InvoiceRow{
			ID:        lr.ID,
			InvoiceID: lr.InvoiceID,
			Item: billing.ItemRef{
				Kind: billing.ItemKind(lr.ItemKind),
				ID:   lr.ItemID,
			},
			TotalExVATPence: lr.TotalExVATPence,
			VATRate:         billing.VATRate(lr.VATRate),
		})
	}

	payments, err := r.paymentsForInvoice(ctx, id)
	if err != nil {
		return billing.Invoice{}, err
	}
	invoice.Payments = payments

	return invoice, nil
}

// FindByItem loads the invoice billing the given item.
func (r *InvoicesRepo) FindByItem(ctx context.Context, item billing.ItemRef) (billing.Invoice, error) {
	var invoiceID int64
	err := r.getter.DefaultTrOrDB(ctx, r.db).GetContext(ctx, &invoiceID, `
		SELECT invoice_id
		FROM invoice_rows
		WHERE item_kind = $1 AND item_id = $2
		ORDER BY invoice_id
		LIMIT 1
	`, item.Kind, item.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return billing.Invoice{}, billing.ErrNotFound
	}
	if err != nil {
		return billing.Invoice{}, fmt.Errorf("find invoice for %s: %w", item, err)
	}
	return r.GetByID(ctx, invoiceID)
}

// AddRow appends a ledger row and bumps the materialized total in the same
// statement pair. Duplicate items surface as ErrItemAlreadyInvoiced via the
// unique constraint, payments freezing the ledger is the service's check.
func (r *InvoicesRepo) AddRow(ctx context.Context, row billing.InvoiceRow, isCredit bool) (int64, error) {
	tr := r.getter.DefaultTrOrDB(ctx, r.db)

	var id int64
	err := tr.QueryRowxContext(ctx, `
		INSERT INTO invoice_rows (invoice_id, item_kind, item_id, total_ex_vat_pence, vat_rate)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`,
		row.InvoiceID,
		row.Item.Kind,
		row.Item.ID,
		row.TotalExVATPence,
		int(row.VATRate),
	).Scan(&id)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pqUniqueViolation {
		return 0, billing.ErrItemAlreadyInvoiced
	}
	if err != nil {
		return 0, fmt.Errorf("insert invoice row: %w", err)
	}

	delta := row.TotalExVATPence + row.TotalExVATPence*int64(row.VATRate)/100
	if isCredit {
		delta = -delta
	}
	_, err = tr.ExecContext(ctx, `
		UPDATE invoices SET total_pence = total_pence + $2 WHERE id = $1
	`, row.InvoiceID, delta)
	if err != nil {
		return 0, fmt.Errorf("update invoice %d total: %w", row.InvoiceID, err)
	}
	return id, nil
}

// DeleteRow removes a ledger row and decrements the total.
func (r *InvoicesRepo) DeleteRow(ctx context.Context, invoiceID int64, item billing.ItemRef) error {
	tr := r.getter.DefaultTrOrDB(ctx, r.db)

	var row ledgerRow
	err := tr.GetContext(ctx, &row, `
		DELETE FROM invoice_rows
		WHERE invoice_id = $1 AND item_kind = $2 AND item_id = $3
		RETURNING id, invoice_id, item_kind, item_id, total_ex_vat_pence, vat_rate
	`, invoiceID, item.Kind, item.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return billing.ErrItemNotOnInvoice
	}
	if err != nil {
		return fmt.Errorf("delete invoice row: %w", err)
	}

	delta := row.TotalExVATPence + row.TotalExVATPence*int64(row.VATRate)/100
	_, err = tr.ExecContext(ctx, `
		UPDATE invoices SET total_pence = total_pence - $2 WHERE id = $1
	`, invoiceID, delta)
	if err != nil {
		return fmt.Errorf("update invoice %d total: %w", invoiceID, err)
	}
	return nil
}
