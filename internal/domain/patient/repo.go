package patient

import "context"

// Repository defines the persistence interface for patients.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id string) (*Patient, error)
	FindByLogin(ctx context.Context, identifier, contact string) (*Patient, error)
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
	IDs(ctx context.Context) (map[string]bool, error)
	Stats(ctx context.Context) (*Stats, error)
}
