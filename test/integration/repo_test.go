package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinic/clinic/internal/domain/admin"
	"github.com/clinic/clinic/internal/domain/history"
	"github.com/clinic/clinic/internal/domain/patient"
	"github.com/clinic/clinic/internal/platform/db"
)

func TestMigrations(t *testing.T) {
	ctx := context.Background()
	pool := newSchemaPool(t, ctx)

	m := db.NewMigrator(pool, globalDB.MigrationsDir)
	n, err := m.Up(ctx)
	if err != nil {
		t.Fatalf("second Up: %v", err)
	}
	if n != 0 {
		t.Errorf("expected no pending migrations, applied %d", n)
	}
	statuses, err := m.Status(ctx)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, s := range statuses {
		if !s.Applied || s.AppliedAt == nil {
			t.Errorf("migration %s not applied", s.Name)
		}
	}
}

func TestPatientRepoPG(t *testing.T) {
	ctx := context.Background()
	pool := newSchemaPool(t, ctx)
	repo := patient.NewPGRepo(pool)

	p := &patient.Patient{PatientID: "1500", Name: "Asha Verma", Age: 34, Gender: "Female", Contact: "9876543210", City: "Pune"}
	if err := repo.Create(ctx, p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.Create(ctx, p); !errors.Is(err, patient.ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
	if err := repo.Create(ctx, &patient.Patient{PatientID: "1501", Name: "Ravi", Gender: "Male", Contact: "1"}); err != nil {
		t.Fatalf("create second: %v", err)
	}

	t.Run("GetByID", func(t *testing.T) {
		got, err := repo.GetByID(ctx, "1500")
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Name != "Asha Verma" || got.City != "Pune" {
			t.Errorf("unexpected patient %+v", got)
		}
		if _, err := repo.GetByID(ctx, "1999"); !errors.Is(err, patient.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("FindByLogin", func(t *testing.T) {
		if _, err := repo.FindByLogin(ctx, "asha verma", "9876543210"); err != nil {
			t.Errorf("login by name: %v", err)
		}
		if _, err := repo.FindByLogin(ctx, "1500", "9876543210"); err != nil {
			t.Errorf("login by id: %v", err)
		}
		if _, err := repo.FindByLogin(ctx, "1500", "0"); !errors.Is(err, patient.ErrNotFound) {
			t.Errorf("expected ErrNotFound for wrong contact, got %v", err)
		}
	})

	t.Run("ListAndStats", func(t *testing.T) {
		list, total, err := repo.List(ctx, 1, 0)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if total != 2 || len(list) != 1 || list[0].PatientID != "1500" {
			t.Errorf("unexpected page total=%d list=%+v", total, list)
		}
		stats, err := repo.Stats(ctx)
		if err != nil {
			t.Fatalf("stats: %v", err)
		}
		if stats.Total != 2 || stats.Male != 1 || stats.Female != 1 {
			t.Errorf("unexpected stats %+v", stats)
		}
		ids, err := repo.IDs(ctx)
		if err != nil || !ids["1500"] || !ids["1501"] {
			t.Errorf("unexpected ids %v (err %v)", ids, err)
		}
	})
}

func TestAdminRepoPG(t *testing.T) {
	ctx := context.Background()
	repo := admin.NewPGRepo(newSchemaPool(t, ctx))

	if n, err := repo.Count(ctx); err != nil || n != 0 {
		t.Fatalf("expected empty table, got %d (err %v)", n, err)
	}
	if err := repo.Create(ctx, &admin.User{Username: "admin", Password: "hash", Name: "Administrator"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := repo.UpdatePassword(ctx, "admin", "hash2"); err != nil {
		t.Fatalf("update: %v", err)
	}
	u, err := repo.GetByUsername(ctx, "admin")
	if err != nil || u.Password != "hash2" {
		t.Errorf("unexpected user %+v (err %v)", u, err)
	}
	if err := repo.UpdatePassword(ctx, "ghost", "x"); !errors.Is(err, admin.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestHistoryRepoPG(t *testing.T) {
	ctx := context.Background()
	pool := newSchemaPool(t, ctx)
	if err := patient.NewPGRepo(pool).Create(ctx, &patient.Patient{PatientID: "1500", Name: "Asha", Contact: "1"}); err != nil {
		t.Fatalf("create patient: %v", err)
	}
	repo := history.NewPGRepo(pool)

	now := time.Now().Format(history.DateLayout)
	for _, disease := range []string{"Diabetes", "Healthy", "Asthma"} {
		rec := &history.Record{ID: uuid.New(), PatientID: "1500", Disease: disease, RiskScore: 81.25, Date: now, Inputs: "Age:45.0"}
		if err := repo.Append(ctx, rec); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	recs, err := repo.ListByPatient(ctx, "1500")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(recs) != 3 || recs[0].Disease != "Diabetes" || recs[2].Disease != "Asthma" {
		t.Fatalf("expected append order, got %+v", recs)
	}
	if recs[0].RiskScore != 81.25 || recs[0].Date != now {
		t.Errorf("unexpected round trip %+v", recs[0])
	}
}

func TestWithTxRollback(t *testing.T) {
	ctx := context.Background()
	pool := newSchemaPool(t, ctx)
	repo := patient.NewPGRepo(pool)

	err := db.WithTx(ctx, pool, func(ctx context.Context) error {
		if err := repo.Create(ctx, &patient.Patient{PatientID: "1600", Name: "Temp", Contact: "1"}); err != nil {
			return err
		}
		return errors.New("abort")
	})
	if err == nil {
		t.Fatal("expected error from WithTx")
	}
	if _, err := repo.GetByID(ctx, "1600"); !errors.Is(err, patient.ErrNotFound) {
		t.Errorf("expected rollback, got %v", err)
	}
}
