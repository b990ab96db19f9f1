package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/jmoiron/sqlx"

	"tickets/internal/domain/pricing"
	"tickets/internal/domain/tickets"
)

type TicketsRepo struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
}

func NewTicketsRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter) *TicketsRepo {
	return &TicketsRepo{db: db, getter: getter}
}

// ticketRow stores the day selection as one boolean column per conference
// day, which keeps per-day attendance queries trivial.
type ticketRow struct {
	ID      int64          `db:"id"`
	OwnerID sql.NullInt64  `db:"owner_id"`
	Rate    string         `db:"rate"`
	Pot     string         `db:"pot"`
	Thu     bool           `db:"thu"`
	Fri     bool           `db:"fri"`
	Sat     bool           `db:"sat"`
	Sun     bool           `db:"sun"`
	Mon     bool           `db:"mon"`
}

func (row ticketRow) toDomain() tickets.Ticket {
	ticket := tickets.Ticket{
		ID:   row.ID,
		Rate: pricing.Rate(row.Rate),
		Pot:  row.Pot,
	}
	if row.OwnerID.Valid {
		ownerID := row.OwnerID.Int64
		ticket.OwnerID = &ownerID
	}
	for day, selected := range map[tickets.Day]bool{
		tickets.Thursday: row.Thu,
		tickets.Friday:   row.Fri,
		tickets.Saturday: row.Sat,
		tickets.Sunday:   row.Sun,
		tickets.Monday:   row.Mon,
	} {
		if selected {
			ticket.Days = append(ticket.Days, day)
		}
	}
	sortDays(ticket.Days)
	return ticket
}

func sortDays(days []tickets.Day) {
	order := map[tickets.Day]int{}
	for i, day := range tickets.AllDays() {
		order[day] = i
	}
	for i := 1; i < len(days); i++ {
		for j := i; j > 0 && order[days[j]] < order[days[j-1]]; j-- {
			days[j], days[j-1] = days[j-1], days[j]
		}
	}
}

func dayFlags(days []tickets.Day) map[tickets.Day]bool {
	flags := make(map[tickets.Day]bool, len(days))
	for _, day := range days {
		flags[day] = true
	}
	return flags
}

func (r *TicketsRepo) Create(ctx context.Context, ticket tickets.Ticket) (int64, error) {
	flags := dayFlags(ticket.Days)

	var ownerID sql.NullInt64
	if ticket.OwnerID != nil {
		ownerID = sql.NullInt64{Int64: *ticket.OwnerID, Valid: true}
	}

	var id int64
	err := r.getter.DefaultTrOrDB(ctx, r.db).QueryRowxContext(ctx, `
		INSERT INTO tickets (owner_id, rate, pot, thu, fri, sat, sun, mon)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`,
		ownerID,
		ticket.Rate,
		ticket.Pot,
		flags[tickets.Thursday],
		flags[tickets.Friday],
		flags[tickets.Saturday],
		flags[tickets.Sunday],
		flags[tickets.Monday],
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert ticket: %w", err)
	}
	return id, nil
}

func (r *TicketsRepo) GetByID(ctx context.Context, id int64) (tickets.Ticket, error) {
	var row ticketRow
	err := r.getter.DefaultTrOrDB(ctx, r.db).GetContext(ctx, &row, `
		SELECT id, owner_id, rate, pot, thu, fri, sat, sun, mon
		FROM tickets
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return tickets.Ticket{}, tickets.ErrNotFound
	}
	if err != nil {
		return tickets.Ticket{}, fmt.Errorf("get ticket %d: %w", id, err)
	}
	return row.toDomain(), nil
}

func (r *TicketsRepo) UpdateDays(ctx context.Context, id int64, days []tickets.Day) error {
	flags := dayFlags(days)
	result, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, `
		UPDATE tickets
		SET thu = $2, fri = $3, sat = $4, sun = $5, mon = $6
		WHERE id = $1
	`,
		id,
		flags[tickets.Thursday],
		flags[tickets.Friday],
		flags[tickets.Saturday],
		flags[tickets.Sunday],
		flags[tickets.Monday],
	)
	if err != nil {
		return fmt.Errorf("update ticket %d days: %w", id, err)
	}
	return requireRowAffected(result, tickets.ErrNotFound)
}

func (r *TicketsRepo) SetOwner(ctx context.Context, id int64, ownerID *int64) error {
	var owner sql.NullInt64
	if ownerID != nil {
		owner = sql.NullInt64{Int64: *ownerID, Valid: true}
	}
	result, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, `
		UPDATE tickets SET owner_id = $2 WHERE id = $1
	`, id, owner)
	if err != nil {
		return fmt.Errorf("set ticket %d owner: %w", id, err)
	}
	return requireRowAffected(result, tickets.ErrNotFound)
}

func (r *TicketsRepo) Delete(ctx context.Context, id int64) error {
	_, err := r.getter.DefaultTrOrDB(ctx, r.db).ExecContext(ctx, `
		DELETE FROM tickets WHERE id = $1
	`, id)
	if err != nil {
		return fmt.Errorf("delete ticket %d: %w", id, err)
	}
	return nil
}

func requireRowAffected(result sql.Result, notFound error) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
