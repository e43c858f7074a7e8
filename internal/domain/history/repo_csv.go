package history

import (
	"context"

	"github.com/clinic/clinic/internal/platform/csvstore"
)

type csvRepo struct {
	table *csvstore.Table[Record]
}

// NewCSVRepo stores history in the CSV file at path.
func NewCSVRepo(path string) (Repository, error) {
	t, err := csvstore.Open[Record](path)
	if err != nil {
		return nil, err
	}
	return &csvRepo{table: t}, nil
}

func (r *csvRepo) Append(_ context.Context, rec *Record) error {
	return r.table.Append(*rec)
}

func (r *csvRepo) ListByPatient(_ context.Context, patientID string) ([]*Record, error) {
	rows, err := r.table.All()
	if err != nil {
		return nil, err
	}
	var out []*Record
	for i := range rows {
		if rows[i].PatientID == patientID {
			out = append(out, &rows[i])
		}
	}
	return out, nil
}
