package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/clinic/clinic/internal/platform/db"
)

const patientColumns = `patient_id, name, age, gender, blood_group, contact, city, medical_history`

type pgRepo struct {
	pool *pgxpool.Pool
}

func NewPGRepo(pool *pgxpool.Pool) Repository {
	return &pgRepo{pool: pool}
}

func (r *pgRepo) Create(ctx context.Context, p *Patient) error {
	_, err := db.Conn(ctx, r.pool).Exec(ctx, `
		INSERT INTO patients (`+patientColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.PatientID, p.Name, p.Age, p.Gender, p.BloodGroup, p.Contact, p.City, p.MedicalHistory,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return fmt.Errorf("%w: %s", ErrDuplicateID, p.PatientID)
	}
	return err
}

func (r *pgRepo) scan(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.PatientID, &p.Name, &p.Age, &p.Gender, &p.BloodGroup, &p.Contact, &p.City, &p.MedicalHistory)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *pgRepo) GetByID(ctx context.Context, id string) (*Patient, error) {
	return r.scan(db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT `+patientColumns+` FROM patients WHERE patient_id = $1`, id))
}

func (r *pgRepo) FindByLogin(ctx context.Context, identifier, contact string) (*Patient, error) {
	return r.scan(db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT `+patientColumns+` FROM patients
		WHERE (patient_id = $1 OR LOWER(name) = LOWER($1)) AND contact = $2
		ORDER BY created_at
		LIMIT 1`, identifier, contact))
}

func (r *pgRepo) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := db.Conn(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM patients`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := db.Conn(ctx, r.pool).Query(ctx,
		`SELECT `+patientColumns+` FROM patients ORDER BY created_at LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := []*Patient{}
	for rows.Next() {
		p, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}

func (r *pgRepo) IDs(ctx context.Context) (map[string]bool, error) {
	rows, err := db.Conn(ctx, r.pool).Query(ctx, `SELECT patient_id FROM patients`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids[id] = true
	}
	return ids, rows.Err()
}

func (r *pgRepo) Stats(ctx context.Context) (*Stats, error) {
	var s Stats
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE gender = 'Male'),
		       COUNT(*) FILTER (WHERE gender = 'Female')
		FROM patients`).Scan(&s.Total, &s.Male, &s.Female)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
