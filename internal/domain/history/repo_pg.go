package history

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinic/clinic/internal/platform/db"
)

type pgRepo struct {
	pool *pgxpool.Pool
}

func NewPGRepo(pool *pgxpool.Pool) Repository {
	return &pgRepo{pool: pool}
}

func (r *pgRepo) Append(ctx context.Context, rec *Record) error {
	at, err := time.ParseInLocation(DateLayout, rec.Date, time.Local)
	if err != nil {
		return err
	}
	_, err = db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO prediction_history (id, patient_id, disease, risk_score, recorded_at, inputs)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, rec.PatientID, rec.Disease, rec.RiskScore, at, rec.Inputs,
	)
	return err
}

func (r *pgRepo) ListByPatient(ctx context.Context, patientID string) ([]*Record, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `
		SELECT id, patient_id, disease, risk_score, recorded_at, inputs
		FROM prediction_history
		WHERE patient_id = $1
		ORDER BY seq`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Record
	for rows.Next() {
		var rec Record
		var at time.Time
		if err := rows.Scan(&rec.ID, &rec.PatientID, &rec.Disease, &rec.RiskScore, &at, &rec.Inputs); err != nil {
			return nil, err
		}
		rec.Date = at.In(time.Local).Format(DateLayout)
		out = append(out, &rec)
	}
	return out, rows.Err()
}
