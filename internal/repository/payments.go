package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"tickets/internal/domain/billing"
)

type paymentRow struct {
	ID            int64        `db:"id"`
	InvoiceID     int64        `db:"invoice_id"`
	Method        string       `db:"method"`
	Status        string       `db:"status"`
	ChargeID      string       `db:"charge_id"`
	ChargeCreated sql.NullTime `db:"charge_created"`
	FailureReason string       `db:"failure_reason"`
	AmountPence   int64        `db:"amount_pence"`
}

func (row paymentRow) toDomain() billing.Payment {
	payment := billing.Payment{
		ID:            row.ID,
		InvoiceID:     row.InvoiceID,
		Method:        billing.PaymentMethod(row.Method),
		Status:        billing.PaymentStatus(row.Status),
		ChargeID:      row.ChargeID,
		FailureReason: row.FailureReason,
		AmountPence:   row.AmountPence,
	}
	if row.ChargeCreated.Valid {
		payment.ChargeCreated = row.ChargeCreated.Time
	}
	return payment
}

// CreatePayment writes one charge attempt, successful or not.
func (r *InvoicesRepo) CreatePayment(ctx context.Context, payment billing.Payment) (int64, error) {
	var chargeCreated sql.NullTime
	if !payment.ChargeCreated.IsZero() {
		chargeCreated = sql.NullTime{Time: payment.ChargeCreated, Valid: true}
	}

	var id int64
	err := r.getter.DefaultTrOrDB(ctx, r.db).QueryRowxContext(ctx, `
		INSERT INTO payments (
			invoice_id, method, status, charge_id, charge_created, failure_reason, amount_pence
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`,
		payment.InvoiceID,
		payment.Method,
		payment.Status,
		payment.ChargeID,
		chargeCreated,
		payment.FailureReason,
		payment.AmountPence,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert payment: %w", err)
	}
	return id, nil
}

func (r *InvoicesRepo) GetPayment(ctx context.Context, id int64) (billing.Payment, error) {
	var row paymentRow
	err := r.getter.DefaultTrOrDB(ctx, r.db).GetContext(ctx, &row, `
		SELECT id, invoice_id, method, status, charge_id, charge_created, failure_reason, amount_pence
		FROM payments
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return billing.Payment{}, billing.ErrNotFound
	}
	if err != nil {
		return billing.Payment{}, fmt.Errorf("get payment %d: %w", id, err)
	}
	return row.toDomain(), nil
}

// TransitionPaymentStatus moves a payment from one status to another with a
// conditional update, so concurrent transitions cannot double-apply.
func (r *InvoicesRepo) TransitionPaymentStatus(ctx context.Context, id int64, from, to billing.PaymentStatus) error {
	result, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, `
		UPDATE payments SET status = $3 WHERE id = $1 AND status = $2
	`, id, from, to)
	if err != nil {
		return fmt.Errorf("transition payment %d: %w", id, err)
	}
	return requireRowAffected(result, fmt.Errorf("%w: %s -> %s", billing.ErrInvalidStatusTransition, from, to))
}

func (r *InvoicesRepo) paymentsForInvoice(ctx context.Context, invoiceID int64) ([]billing.Payment, error) {
	var rows []paymentRow
	err := r.getter.DefaultTrOrDB(ctx, r.db).SelectContext(ctx, &rows, `
		SELECT id, invoice_id, method, status, charge_id, charge_created, failure_reason, amount_pence
		FROM payments
		WHERE invoice_id = $1
		ORDER BY id
	`, invoiceID)
	if err != nil {
		return nil, fmt.Errorf("get invoice %d payments: %w", invoiceID, err)
	}

	payments := make([]billing.Payment, 0, len(rows))
	for _, row := range rows {
		payments = append(payments, row.toDomain())
	}
	return payments, nil
}
