package history

import "context"

// Repository is an append-only store of prediction records.
type Repository interface {
	Append(ctx context.Context, rec *Record) error
	ListByPatient(ctx context.Context, patientID string) ([]*Record, error)
}
