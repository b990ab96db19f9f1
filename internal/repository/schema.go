package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// InitializeDBSchema creates the tables on startup. Statements are
// idempotent, so every instance can run them.
func InitializeDBSchema(db *sqlx.DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id SERIAL PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			email VARCHAR(255) NOT NULL UNIQUE
		)`,
		`CREATE TABLE IF NOT EXISTS invoices (
			id SERIAL PRIMARY KEY,
			purchaser_id INTEGER NOT NULL REFERENCES users (id),
			invoice_to TEXT NOT NULL,
			company_name VARCHAR(255) NOT NULL DEFAULT '',
			company_address TEXT NOT NULL DEFAULT '',
			is_credit BOOLEAN NOT NULL DEFAULT FALSE,
			credit_reason TEXT NOT NULL DEFAULT '',
			credited_invoice_id INTEGER REFERENCES invoices (id),
			total_pence BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS tickets (
			id SERIAL PRIMARY KEY,
			owner_id INTEGER REFERENCES users (id),
			rate VARCHAR(16) NOT NULL,
			pot VARCHAR(64) NOT NULL DEFAULT '',
			thu BOOLEAN NOT NULL DEFAULT FALSE,
			fri BOOLEAN NOT NULL DEFAULT FALSE,
			sat BOOLEAN NOT NULL DEFAULT FALSE,
			sun BOOLEAN NOT NULL DEFAULT FALSE,
			mon BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS ticket_invitations (
			id SERIAL PRIMARY KEY,
			ticket_id INTEGER NOT NULL UNIQUE REFERENCES tickets (id),
			email VARCHAR(255) NOT NULL,
			token VARCHAR(32) NOT NULL UNIQUE,
			status VARCHAR(16) NOT NULL DEFAULT 'unclaimed'
		)`,
		`CREATE TABLE IF NOT EXISTS invoice_rows (
			id SERIAL PRIMARY KEY,
			invoice_id INTEGER NOT NULL REFERENCES invoices (id),
			item_kind VARCHAR(16) NOT NULL,
			item_id INTEGER NOT NULL,
			total_ex_vat_pence BIGINT NOT NULL,
			vat_rate INTEGER NOT NULL,
			UNIQUE (invoice_id, item_kind, item_id)
		)`,
		`CREATE TABLE IF NOT EXISTS payments (
			id SERIAL PRIMARY KEY,
			invoice_id INTEGER NOT NULL REFERENCES invoices (id),
			method VARCHAR(16) NOT NULL,
			status VARCHAR(16) NOT NULL,
			charge_id VARCHAR(255) NOT NULL DEFAULT '',
			charge_created TIMESTAMP WITH TIME ZONE,
			failure_reason TEXT NOT NULL DEFAULT '',
			amount_pence BIGINT NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS child_tickets (
			id SERIAL PRIMARY KEY,
			invoice_id INTEGER NOT NULL REFERENCES invoices (id),
			name VARCHAR(255) NOT NULL,
			date_of_birth DATE NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS children_order_details (
			invoice_id INTEGER PRIMARY KEY REFERENCES invoices (id),
			adult_name VARCHAR(255) NOT NULL,
			adult_email VARCHAR(255) NOT NULL,
			adult_phone VARCHAR(64) NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS events (
			event_id UUID PRIMARY KEY,
			published_at TIMESTAMP WITH TIME ZONE NOT NULL,
			event_name VARCHAR(255) NOT NULL,
			event_payload JSONB NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(context.Background(), stmt); err != nil {
			return fmt.Errorf("initializing schema: %w", err)
		}
	}
	return nil
}
