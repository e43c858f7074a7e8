package admin

import "context"

// UserRepository defines the persistence interface for administrator accounts.
type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByUsername(ctx context.Context, username string) (*User, error)
	UpdatePassword(ctx context.Context, username, hash string) error
	Count(ctx context.Context) (int, error)
}
