package patient

import (
	"context"
	"fmt"

	"github.com/clinic/clinic/internal/platform/csvstore"
)

type csvRepo struct {
	table *csvstore.Table[Patient]
}

// NewCSVRepo stores patients in the CSV file at path.
func NewCSVRepo(path string) (Repository, error) {
	t, err := csvstore.Open[Patient](path)
	if err != nil {
		return nil, err
	}
	return &csvRepo{table: t}, nil
}

func (r *csvRepo) Create(_ context.Context, p *Patient) error {
	return r.table.Update(func(rows []Patient) ([]Patient, error) {
		for _, row := range rows {
			if NormalizeID(row.PatientID) == p.PatientID {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateID, p.PatientID)
			}
		}
		return append(rows, *p), nil
	})
}

func (r *csvRepo) GetByID(_ context.Context, id string) (*Patient, error) {
	rows, err := r.table.All()
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if NormalizeID(rows[i].PatientID) == id {
			rows[i].PatientID = id
			return &rows[i], nil
		}
	}
	return nil, ErrNotFound
}

func (r *csvRepo) FindByLogin(_ context.Context, identifier, contact string) (*Patient, error) {
	rows, err := r.table.All()
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if rows[i].matchesLogin(identifier, contact) {
			rows[i].PatientID = NormalizeID(rows[i].PatientID)
			return &rows[i], nil
		}
	}
	return nil, ErrNotFound
}

func (r *csvRepo) List(_ context.Context, limit, offset int) ([]*Patient, int, error) {
	rows, err := r.table.All()
	if err != nil {
		return nil, 0, err
	}
	total := len(rows)
	if offset >= total {
		return []*Patient{}, total, nil
	}
	end := min(offset+limit, total)
	out := make([]*Patient, 0, end-offset)
	for i := offset; i < end; i++ {
		rows[i].PatientID = NormalizeID(rows[i].PatientID)
		out = append(out, &rows[i])
	}
	return out, total, nil
}

func (r *csvRepo) IDs(_ context.Context) (map[string]bool, error) {
	rows, err := r.table.All()
	if err != nil {
		return nil, err
	}
	ids := make(map[string]bool, len(rows))
	for _, row := range rows {
		ids[NormalizeID(row.PatientID)] = true
	}
	return ids, nil
}

func (r *csvRepo) Stats(_ context.Context) (*Stats, error) {
	rows, err := r.table.All()
	if err != nil {
		return nil, err
	}
	s := &Stats{Total: len(rows)}
	for _, row := range rows {
		switch row.Gender {
		case "Male":
			s.Male++
		case "Female":
			s.Female++
		}
	}
	return s, nil
}
