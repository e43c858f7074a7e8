package predict_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clinic/clinic/internal/ml/dataset"
	"github.com/clinic/clinic/internal/ml/generator"
	"github.com/clinic/clinic/internal/ml/predict"
	"github.com/clinic/clinic/internal/ml/training"
)

func TestGenerateTrainPredict(t *testing.T) {
	dir := t.TempDir()
	res, err := generator.Generate(generator.Config{Rows: 500, Seed: 42})
	require.NoError(t, err)
	path := filepath.Join(dir, "disease_dataset.csv")
	require.NoError(t, dataset.WriteFile(path, res.Samples))

	cfg := training.DefaultConfig()
	cfg.DatasetPath = path
	cfg.ArtifactDir = filepath.Join(dir, "models")
	_, err = training.Run(context.Background(), cfg, zerolog.Nop())
	require.NoError(t, err)

	b := predict.Load(cfg.ArtifactDir, zerolog.Nop())
	require.NotNil(t, b)
	svc := predict.NewService(b, nil, zerolog.Nop())

	in := &predict.Input{
		Age: "45", Gender: "Male", BMI: "32", SystolicBP: "110", DiastolicBP: "70",
		Glucose: "180", Cholesterol: "180", Smoking: "Never", Alcohol: "None",
		Activity: "Low", Diet: "Poor", SleepHours: "7", FamilyHistory: "Diabetes",
	}
	out, err := svc.Predict(context.Background(), in, nil)
	require.NoError(t, err)
	assert.Equal(t, dataset.LabelDiabetes, out.Label)
	assert.Greater(t, out.Probability, 0.5)
}

func TestLoad_MissingArtifactsLeavesServiceUnavailable(t *testing.T) {
	b := predict.Load(t.TempDir(), zerolog.Nop())
	assert.Nil(t, b)
	_, err := predict.NewService(b, nil, zerolog.Nop()).Predict(context.Background(), &predict.Input{}, nil)
	assert.ErrorIs(t, err, predict.ErrModelUnavailable)
}
