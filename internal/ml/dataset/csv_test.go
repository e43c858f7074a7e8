package dataset

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRows() []Sample {
	return []Sample{
		{
			Record: Record{
				Age: 45, Gender: "Male", BMI: 22.4, SystolicBP: 110, DiastolicBP: 70,
				Glucose: 85, Cholesterol: 180, Smoking: "Never", Alcohol: "None",
				Activity: "Moderate", Diet: "Good", SleepHours: 7.5, FamilyHistory: "None",
			},
			Label: LabelHealthy,
		},
		{
			Record: Record{
				Age: 61, Gender: "Female", BMI: 33.1, SystolicBP: 112, DiastolicBP: 74,
				Glucose: 201, Cholesterol: 150, Smoking: "Never", Alcohol: "None",
				Activity: "Low", Diet: "Poor", SleepHours: 6.2, FamilyHistory: "Diabetes",
			},
			Label: LabelDiabetes,
		},
	}
}

func TestWrite_HeaderOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleRows()))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	want := strings.Join(append(append([]string{}, FeatureColumns...), ColTargetLabel), ",")
	assert.Equal(t, want, lines[0])
	assert.Equal(t, "45,Male,22.4,110,70,85,180,Never,None,Moderate,Good,7.5,None,Healthy", lines[1])
}

func TestReadWrite_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "disease_dataset.csv")
	rows := sampleRows()
	require.NoError(t, WriteFile(path, rows))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, rows, got)
}

func TestReadFile_Missing(t *testing.T) {
	_, err := ReadFile(filepath.Join(t.TempDir(), "absent.csv"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestRead_MissingColumn(t *testing.T) {
	in := "Age,Gender,TargetLabel\n40,Male,Healthy\n"
	_, err := Read(strings.NewReader(in))
	require.Error(t, err)
	assert.Contains(t, err.Error(), ColBMI)
}

func TestRead_UnknownLabel(t *testing.T) {
	var buf bytes.Buffer
	rows := sampleRows()
	rows[1].Label = "Flu"
	require.NoError(t, Write(&buf, rows))

	_, err := Read(&buf)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Flu")
}

func TestRecord_Vector(t *testing.T) {
	r := sampleRows()[1].Record
	codes := map[string]int{"Female": 7, "Diabetes": 3}
	vec := r.Vector(func(col, v string) int { return codes[v] })

	require.Len(t, vec, len(FeatureColumns))
	assert.Equal(t, 61.0, vec[0])
	assert.Equal(t, 7.0, vec[1])
	assert.Equal(t, 201.0, vec[5])
	assert.Equal(t, 3.0, vec[12])
}

func TestIsCategorical(t *testing.T) {
	assert.True(t, IsCategorical(ColFamilyHistory))
	assert.False(t, IsCategorical(ColGlucose))
}
