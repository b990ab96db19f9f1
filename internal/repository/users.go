package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	trmsqlx "github.com/avito-tech/go-transaction-manager/drivers/sqlx/v2"
	"github.com/jmoiron/sqlx"

	"tickets/internal/domain/users"
)

type UsersRepo struct {
	db     *sqlx.DB
	getter *trmsqlx.CtxGetter
}

func NewUsersRepo(db *sqlx.DB, getter *trmsqlx.CtxGetter) *UsersRepo {
	return &UsersRepo{db: db, getter: getter}
}

type userRow struct {
	ID    int64  `db:"id"`
	Name  string `db:"name"`
	Email string `db:"email"`
}

func (r *UsersRepo) Create(ctx context.Context, user users.User) (int64, error) {
	var id int64
	err := r.getter.DefaultTrOrDB(ctx, r.db).QueryRowxContext(ctx, `
		INSERT INTO users (name, email)
		VALUES ($1, $2)
		RETURNING id
	`, user.Name, user.Email).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return id, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id int64) (users.User, error) {
	var row userRow
	err := r.getter.DefaultTrOrDB(ctx, r.db).GetContext(ctx, &row, `
		SELECT id, name, email
		FROM users
		WHERE id = $1
	`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return users.User{}, users.ErrNotFound
	}
	if err != nil {
		return users.User{}, fmt.Errorf("get user %d: %w", id, err)
	}
	return users.User(row), nil
}

func (r *UsersRepo) GetByEmail(ctx context.Context, email string) (users.User, error) {
	var row userRow
	err := r.getter.DefaultTrOrDB(ctx, r.db).GetContext(ctx, &row, `
		SELECT id, name, email
		FROM users
		WHERE email = $1
	`, email)
	if errors.Is(err, sql.ErrNoRows) {
		return users.User{}, users.ErrNotFound
	}
	if err != nil {
		return users.User{}, fmt.Errorf("get user by email: %w", err)
	}
	return users.User(row), nil
}
