package admin

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinic/clinic/internal/platform/db"
)

type pgRepo struct {
	pool *pgxpool.Pool
}

func NewPGRepo(pool *pgxpool.Pool) UserRepository {
	return &pgRepo{pool: pool}
}

func (r *pgRepo) Create(ctx context.Context, u *User) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO admin_users (username, password_hash, name)
		VALUES ($1, $2, $3)`,
		u.Username, u.Password, u.Name,
	)
	return err
}

func (r *pgRepo) GetByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT username, password_hash, name FROM admin_users WHERE username = $1`, username,
	).Scan(&u.Username, &u.Password, &u.Name)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *pgRepo) UpdatePassword(ctx context.Context, username, hash string) error {
	tag, err := db.Conn(ctx, r.pool).Exec(ctx,
		`UPDATE admin_users SET password_hash = $2, updated_at = NOW() WHERE username = $1`, username, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *pgRepo) Count(ctx context.Context) (int, error) {
	var n int
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM admin_users`).Scan(&n)
	return n, err
}
