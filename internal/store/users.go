package store

import (
	"context"

	"github.com/vvka-141/budgetbuddy/internal/gateway"
)

const userColumns = `id, name, email, password, created_at`

// Users persists accounts. Passwords are stored as given; hash them first.
type Users struct {
	q gateway.Querier
}

// Create inserts a user. A taken email fails with budgetbuddy.ErrDuplicateRecord.
func (r *Users) Create(ctx context.Context, name, email, passwordHash string) (*User, error) {
	return gateway.CollectOne[User](ctx, r.q,
		`INSERT INTO users (name, email, password) VALUES ($1, $2, $3) RETURNING `+userColumns,
		name, email, passwordHash)
}

func (r *Users) Get(ctx context.Context, id int) (*User, error) {
	return gateway.CollectOne[User](ctx, r.q, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *Users) GetByEmail(ctx context.Context, email string) (*User, error) {
	return gateway.CollectOne[User](ctx, r.q, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

// UpdateProfile changes the name and email of a user.
func (r *Users) UpdateProfile(ctx context.Context, id int, name, email string) (*User, error) {
	return gateway.CollectOne[User](ctx, r.q,
		`UPDATE users SET name = $1, email = $2 WHERE id = $3 RETURNING `+userColumns,
		name, email, id)
}

func (r *Users) UpdatePassword(ctx context.Context, id int, passwordHash string) error {
	return expectOne(gateway.Exec(ctx, r.q, `UPDATE users SET password = $1 WHERE id = $2`, passwordHash, id))
}

// Delete removes the user and, by cascade, everything they own.
func (r *Users) Delete(ctx context.Context, id int) error {
	return expectOne(gateway.Exec(ctx, r.q, `DELETE FROM users WHERE id = $1`, id))
}
