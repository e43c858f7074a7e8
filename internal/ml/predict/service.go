package predict

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/domain/history"
	"github.com/clinic/clinic/internal/platform/auth"
)

// ErrModelUnavailable is returned for every request when no bundle was loaded.
var ErrModelUnavailable = errors.New("model unavailable, train the model first")

// Result is a prediction as returned to the client.
type Result struct {
	*Prediction
	// RiskScore is the probability as a percentage rounded to two decimals,
	// the value stored in patient history.
	RiskScore float64 `json:"risk_score"`
	Recorded  bool    `json:"recorded"`
}

// Status describes the loaded bundle.
type Status struct {
	Available bool       `json:"available"`
	RunID     string     `json:"run_id,omitempty"`
	TrainedAt *time.Time `json:"trained_at,omitempty"`
	Classes   []string   `json:"classes,omitempty"`
}

// Service answers prediction requests from one bundle fixed at construction.
// A nil bundle puts the service in the unavailable state.
type Service struct {
	bundle  *Bundle
	history *history.Service
	logger  zerolog.Logger
}

func NewService(bundle *Bundle, hist *history.Service, logger zerolog.Logger) *Service {
	return &Service{bundle: bundle, history: hist, logger: logger}
}

// Load reads the bundle from dir. A missing or mismatched artifact set is
// logged and yields nil so the server still starts.
func Load(dir string, logger zerolog.Logger) *Bundle {
	b, err := LoadBundle(dir)
	if err != nil {
		ev := logger.Error()
		if errors.Is(err, ErrMissingArtifact) {
			ev = logger.Warn()
		}
		ev.Err(err).Str("dir", dir).Msg("prediction model not loaded, run the train command")
		return nil
	}
	logger.Info().Str("run_id", b.RunID).Time("trained_at", b.TrainedAt).Msg("prediction model loaded")
	return b
}

func (s *Service) Status() Status {
	if s.bundle == nil {
		return Status{}
	}
	t := s.bundle.TrainedAt
	return Status{Available: true, RunID: s.bundle.RunID, TrainedAt: &t, Classes: s.bundle.Model.Classes}
}

// Predict classifies one submitted form. Patient sessions get the result
// appended to their history; if that append fails the request fails.
func (s *Service) Predict(ctx context.Context, in *Input, session *auth.Session) (*Result, error) {
	if s.bundle == nil {
		return nil, ErrModelUnavailable
	}
	rec, err := in.Record()
	if err != nil {
		return nil, err
	}
	p, err := s.bundle.Predict(rec)
	if err != nil {
		return nil, err
	}

	res := &Result{Prediction: p}
	if session != nil && session.IsPatient() && s.history != nil {
		stored, err := s.history.Record(ctx, session.PatientID, p.Label, p.Probability, Summary(rec))
		if err != nil {
			return nil, fmt.Errorf("record prediction history: %w", err)
		}
		res.RiskScore = stored.RiskScore
		res.Recorded = true
	} else {
		res.RiskScore = history.RiskScore(p.Probability)
	}
	return res, nil
}
