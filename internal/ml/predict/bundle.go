// Package predict loads the persisted artifact triple (model, scaler,
// encoders) as one immutable Bundle and serves single-vector predictions
// from it.
package predict

import (
	"encoding/gob"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/clinic/clinic/internal/ml/dataset"
	"github.com/clinic/clinic/internal/ml/forest"
	"github.com/clinic/clinic/internal/ml/preprocess"
)

// Artifact file names inside the artifact directory.
const (
	ModelFile    = "unified_model.gob"
	ScalerFile   = "unified_scaler.json"
	EncodersFile = "unified_encoders.json"
)

var (
	// ErrMissingArtifact means at least one of the three artifact files is absent.
	ErrMissingArtifact = errors.New("model artifacts missing")
	// ErrArtifactMismatch means the artifact files come from different training runs
	// or disagree on the column contract.
	ErrArtifactMismatch = errors.New("model artifacts do not form a matched set")
)

// Bundle is a matched artifact set from one training run. It is never
// mutated after construction and is safe for concurrent use.
type Bundle struct {
	RunID     string
	TrainedAt time.Time
	Columns   []string
	Model     *forest.Forest
	Scaler    *preprocess.StandardScaler
	Encoders  preprocess.EncoderSet
}

type modelArtifact struct {
	RunID     string
	TrainedAt time.Time
	Columns   []string
	Forest    *forest.Forest
}

type scalerArtifact struct {
	RunID string `json:"run_id"`
	*preprocess.StandardScaler
}

type encodersArtifact struct {
	RunID    string                `json:"run_id"`
	Encoders preprocess.EncoderSet `json:"encoders"`
}

// NewBundle assembles and validates an in-memory bundle.
func NewBundle(runID string, trainedAt time.Time, model *forest.Forest, scaler *preprocess.StandardScaler, encoders preprocess.EncoderSet) (*Bundle, error) {
	b := &Bundle{
		RunID:     runID,
		TrainedAt: trainedAt,
		Columns:   append([]string(nil), scaler.Columns...),
		Model:     model,
		Scaler:    scaler,
		Encoders:  encoders,
	}
	if err := b.validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Bundle) validate() error {
	if b.Model == nil || b.Scaler == nil || b.Encoders == nil {
		return fmt.Errorf("%w: incomplete bundle", ErrArtifactMismatch)
	}
	if !slices.Equal(b.Columns, dataset.FeatureColumns) {
		return fmt.Errorf("%w: columns %v do not match the feature contract", ErrArtifactMismatch, b.Columns)
	}
	if b.Model.NumFeatures != len(b.Columns) || len(b.Scaler.Means) != len(b.Columns) {
		return fmt.Errorf("%w: model expects %d features, scaler %d, columns %d",
			ErrArtifactMismatch, b.Model.NumFeatures, len(b.Scaler.Means), len(b.Columns))
	}
	if err := b.Encoders.Validate(dataset.CategoricalColumns); err != nil {
		return fmt.Errorf("%w: %v", ErrArtifactMismatch, err)
	}
	return nil
}

// Save persists the three artifacts into dir. Every file is first written to
// a staging file; the staged files replace the live ones only after all
// three were written, so a failed save leaves earlier artifacts untouched.
func (b *Bundle) Save(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create artifact directory: %w", err)
	}

	writers := []struct {
		name  string
		write func(io.Writer) error
	}{
		{ModelFile, func(w io.Writer) error {
			return gob.NewEncoder(w).Encode(modelArtifact{
				RunID: b.RunID, TrainedAt: b.TrainedAt, Columns: b.Columns, Forest: b.Model,
			})
		}},
		{ScalerFile, func(w io.Writer) error {
			return json.NewEncoder(w).Encode(scalerArtifact{RunID: b.RunID, StandardScaler: b.Scaler})
		}},
		{EncodersFile, func(w io.Writer) error {
			return json.NewEncoder(w).Encode(encodersArtifact{RunID: b.RunID, Encoders: b.Encoders})
		}},
	}

	staged := make([]string, 0, len(writers))
	cleanup := func() {
		for _, p := range staged {
			os.Remove(p)
		}
	}
	for _, w := range writers {
		p, err := stage(dir, w.name, w.write)
		if err != nil {
			cleanup()
			return fmt.Errorf("write %s: %w", w.name, err)
		}
		staged = append(staged, p)
	}
	for i, w := range writers {
		if err := os.Rename(staged[i], filepath.Join(dir, w.name)); err != nil {
			cleanup()
			return fmt.Errorf("publish %s: %w", w.name, err)
		}
	}
	return nil
}

func stage(dir, name string, write func(io.Writer) error) (string, error) {
	f, err := os.CreateTemp(dir, "."+name+".*.tmp")
	if err != nil {
		return "", err
	}
	if err := write(f); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

// LoadBundle reads a matched artifact set from dir.
func LoadBundle(dir string) (*Bundle, error) {
	var missing []string
	for _, name := range []string{ModelFile, ScalerFile, EncodersFile} {
		if _, err := os.Stat(filepath.Join(dir, name)); errors.Is(err, os.ErrNotExist) {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w in %s: %v", ErrMissingArtifact, dir, missing)
	}

	var model modelArtifact
	if err := readFile(filepath.Join(dir, ModelFile), func(r io.Reader) error {
		return gob.NewDecoder(r).Decode(&model)
	}); err != nil {
		return nil, err
	}
	scaler := scalerArtifact{StandardScaler: &preprocess.StandardScaler{}}
	if err := readFile(filepath.Join(dir, ScalerFile), func(r io.Reader) error {
		return json.NewDecoder(r).Decode(&scaler)
	}); err != nil {
		return nil, err
	}
	var encoders encodersArtifact
	if err := readFile(filepath.Join(dir, EncodersFile), func(r io.Reader) error {
		return json.NewDecoder(r).Decode(&encoders)
	}); err != nil {
		return nil, err
	}

	if model.RunID == "" || model.RunID != scaler.RunID || model.RunID != encoders.RunID {
		return nil, fmt.Errorf("%w: run ids model=%q scaler=%q encoders=%q",
			ErrArtifactMismatch, model.RunID, scaler.RunID, encoders.RunID)
	}
	if model.Forest == nil {
		return nil, fmt.Errorf("%w: model file holds no forest", ErrArtifactMismatch)
	}
	if !slices.Equal(model.Columns, scaler.Columns) {
		return nil, fmt.Errorf("%w: model and scaler column order differ", ErrArtifactMismatch)
	}

	b := &Bundle{
		RunID:     model.RunID,
		TrainedAt: model.TrainedAt,
		Columns:   model.Columns,
		Model:     model.Forest,
		Scaler:    scaler.StandardScaler,
		Encoders:  encoders.Encoders,
	}
	if err := b.validate(); err != nil {
		return nil, err
	}
	return b, nil
}

func readFile(path string, decode func(io.Reader) error) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()
	if err := decode(f); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return nil
}

// Prediction is the classifier output for one Feature Vector.
type Prediction struct {
	Label        string             `json:"label"`
	Probability  float64            `json:"probability"`
	Distribution map[string]float64 `json:"distribution"`
	RunID        string             `json:"run_id"`
}

// Predict encodes, scales and classifies one record. Categorical values go
// through EncodeWithFallback, so an unseen category never fails.
func (b *Bundle) Predict(r dataset.Record) (*Prediction, error) {
	raw := r.Vector(b.Encoders.EncodeWithFallback)
	scaled, err := b.Scaler.Transform(raw)
	if err != nil {
		return nil, fmt.Errorf("scale input: %w", err)
	}
	label, p, dist, err := b.Model.Predict(scaled)
	if err != nil {
		return nil, fmt.Errorf("classify input: %w", err)
	}
	out := &Prediction{
		Label:        label,
		Probability:  p,
		Distribution: make(map[string]float64, len(dist)),
		RunID:        b.RunID,
	}
	for i, c := range b.Model.Classes {
		out.Distribution[c] = dist[i]
	}
	return out, nil
}
