package admin

import (
	"context"
	"fmt"

	"github.com/clinic/clinic/internal/platform/csvstore"
)

type csvRepo struct {
	table *csvstore.Table[User]
}

// NewCSVRepo stores administrator accounts in the CSV file at path.
func NewCSVRepo(path string) (UserRepository, error) {
	t, err := csvstore.Open[User](path)
	if err != nil {
		return nil, err
	}
	return &csvRepo{table: t}, nil
}

func (r *csvRepo) Create(_ context.Context, u *User) error {
	return r.table.Update(func(rows []User) ([]User, error) {
		for _, row := range rows {
			if row.Username == u.Username {
				return nil, fmt.Errorf("admin user %q already exists", u.Username)
			}
		}
		return append(rows, *u), nil
	})
}

func (r *csvRepo) GetByUsername(_ context.Context, username string) (*User, error) {
	rows, err := r.table.All()
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].Username == username {
			return &rows[i], nil
		}
	}
	return nil, ErrNotFound
}

func (r *csvRepo) UpdatePassword(_ context.Context, username, hash string) error {
	return r.table.Update(func(rows []User) ([]User, error) {
		for i := range rows {
			if rows[i].Username == username {
				rows[i].Password = hash
				return rows, nil
			}
		}
		return nil, ErrNotFound
	})
}

func (r *csvRepo) Count(_ context.Context) (int, error) {
	rows, err := r.table.All()
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}
