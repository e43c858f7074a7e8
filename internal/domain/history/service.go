package history

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Record appends a prediction for patientID. probability is the classifier's
// argmax probability in [0,1]; it is stored as a percentage rounded to two
// decimals.
func (s *Service) Record(ctx context.Context, patientID, disease string, probability float64, inputs string) (*Record, error) {
	if patientID == "" {
		return nil, fmt.Errorf("patient id is required")
	}
	if disease == "" {
		return nil, fmt.Errorf("disease is required")
	}
	rec := &Record{
		ID:        uuid.New(),
		PatientID: patientID,
		Disease:   disease,
		RiskScore: RiskScore(probability),
		Date:      s.now().Format(DateLayout),
		Inputs:    inputs,
	}
	if err := s.repo.Append(ctx, rec); err != nil {
		return nil, fmt.Errorf("append history: %w", err)
	}
	return rec, nil
}

// RiskScore converts a probability in [0,1] to a percentage rounded to two
// decimals.
func RiskScore(probability float64) float64 {
	return math.Round(probability*100*100) / 100
}

// ForPatient returns a patient's predictions in the order they were made.
func (s *Service) ForPatient(ctx context.Context, patientID string) ([]*Record, error) {
	return s.repo.ListByPatient(ctx, patientID)
}
