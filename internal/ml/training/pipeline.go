// Package training turns a generated dataset into a persisted artifact
// bundle: encode categoricals, scale, split, fit the forest, report held-out
// metrics, then save model, scaler and encoders as one matched set.
package training

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/ml/dataset"
	"github.com/clinic/clinic/internal/ml/forest"
	"github.com/clinic/clinic/internal/ml/metrics"
	"github.com/clinic/clinic/internal/ml/predict"
	"github.com/clinic/clinic/internal/ml/preprocess"
)

// ErrDatasetMissing aborts a run whose dataset file does not exist.
var ErrDatasetMissing = errors.New("dataset not found, run the generate command first")

// Config controls one training run.
type Config struct {
	DatasetPath string
	ArtifactDir string
	TestSize    float64
	Seed        int64
	Trees       int
	Workers     int
}

// DefaultConfig returns an 80/20 split and a 100-tree forest, both seeded with 42.
func DefaultConfig() Config {
	return Config{
		DatasetPath: "data/disease_dataset.csv",
		ArtifactDir: "models",
		TestSize:    0.2,
		Seed:        42,
		Trees:       100,
	}
}

// Result describes a finished run.
type Result struct {
	RunID     string
	Bundle    *predict.Bundle
	Report    *metrics.Report
	TrainRows int
	TestRows  int
	Duration  time.Duration
}

// Run executes the full pipeline. Nothing is written to cfg.ArtifactDir
// unless every step before persistence succeeded.
func Run(ctx context.Context, cfg Config, logger zerolog.Logger) (*Result, error) {
	start := time.Now()
	if cfg.TestSize <= 0 || cfg.TestSize >= 1 {
		return nil, fmt.Errorf("test size must be in (0,1), got %v", cfg.TestSize)
	}

	samples, err := dataset.ReadFile(cfg.DatasetPath)
	if err != nil {
		if errors.Is(err, dataset.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrDatasetMissing, cfg.DatasetPath)
		}
		return nil, err
	}
	if len(samples) < 2 {
		return nil, fmt.Errorf("dataset %s has %d rows, need at least 2", cfg.DatasetPath, len(samples))
	}
	logger.Info().Int("rows", len(samples)).Str("path", cfg.DatasetPath).Msg("dataset loaded")

	encoders := FitEncoders(samples)
	x := make([][]float64, len(samples))
	y := make([]string, len(samples))
	for i, s := range samples {
		x[i] = s.Vector(encoders.EncodeWithFallback)
		y[i] = s.Label
	}

	scaler, err := preprocess.FitStandardScaler(dataset.FeatureColumns, x)
	if err != nil {
		return nil, err
	}
	xs, err := scaler.TransformAll(x)
	if err != nil {
		return nil, err
	}

	trainIdx, testIdx := Split(len(xs), cfg.TestSize, cfg.Seed)
	xTrain, yTrain := gather(xs, y, trainIdx)
	xTest, yTest := gather(xs, y, testIdx)

	logger.Info().
		Int("train_rows", len(trainIdx)).
		Int("test_rows", len(testIdx)).
		Int("trees", cfg.Trees).
		Msg("fitting random forest")

	model, err := forest.Fit(ctx, xTrain, yTrain, forest.Config{
		Trees:           cfg.Trees,
		MinSamplesSplit: 2,
		Seed:            cfg.Seed,
		Workers:         cfg.Workers,
	})
	if err != nil {
		return nil, err
	}

	pred, err := model.PredictAll(xTest)
	if err != nil {
		return nil, err
	}
	report, err := metrics.Evaluate(yTest, pred)
	if err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	bundle, err := predict.NewBundle(runID, time.Now().UTC(), model, scaler, encoders)
	if err != nil {
		return nil, err
	}
	if err := bundle.Save(cfg.ArtifactDir); err != nil {
		return nil, fmt.Errorf("persist artifacts: %w", err)
	}

	res := &Result{
		RunID:     runID,
		Bundle:    bundle,
		Report:    report,
		TrainRows: len(trainIdx),
		TestRows:  len(testIdx),
		Duration:  time.Since(start),
	}
	logger.Info().
		Str("run_id", runID).
		Float64("accuracy", report.Accuracy).
		Str("artifact_dir", cfg.ArtifactDir).
		Dur("duration", res.Duration).
		Msg("training complete")
	return res, nil
}

// FitEncoders fits one label encoder per categorical column over every
// observed value.
func FitEncoders(samples []dataset.Sample) preprocess.EncoderSet {
	set := make(preprocess.EncoderSet, len(dataset.CategoricalColumns))
	values := make([]string, len(samples))
	for _, col := range dataset.CategoricalColumns {
		for i, s := range samples {
			values[i], _ = s.Category(col)
		}
		set[col] = preprocess.FitLabelEncoder(col, values)
	}
	return set
}

// Split shuffles row indices with seed and holds out ceil(testSize*n) of them,
// keeping at least one row on each side.
func Split(n int, testSize float64, seed int64) (train, test []int) {
	perm := rand.New(rand.NewSource(seed)).Perm(n)
	nTest := int(math.Ceil(testSize * float64(n)))
	nTest = min(max(nTest, 1), n-1)
	return perm[nTest:], perm[:nTest]
}

func gather(x [][]float64, y []string, idx []int) ([][]float64, []string) {
	xs := make([][]float64, len(idx))
	ys := make([]string, len(idx))
	for i, j := range idx {
		xs[i] = x[j]
		ys[i] = y[j]
	}
	return xs, ys
}
