package preprocess

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// StandardScaler centers each column on its training mean and divides by its
// population standard deviation. A constant column gets scale 1.
type StandardScaler struct {
	Columns []string  `json:"columns"`
	Means   []float64 `json:"means"`
	Scales  []float64 `json:"scales"`
}

// FitStandardScaler computes per-column mean and standard deviation over rows.
func FitStandardScaler(columns []string, rows [][]float64) (*StandardScaler, error) {
	if len(rows) == 0 {
		return nil, errors.New("cannot fit scaler on zero rows")
	}
	width := len(columns)
	s := &StandardScaler{
		Columns: append([]string(nil), columns...),
		Means:   make([]float64, width),
		Scales:  make([]float64, width),
	}
	col := make([]float64, len(rows))
	for j := 0; j < width; j++ {
		for i, row := range rows {
			if len(row) != width {
				return nil, fmt.Errorf("row %d has %d values, want %d", i, len(row), width)
			}
			col[i] = row[j]
		}
		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 {
			std = 1
		}
		s.Means[j] = mean
		s.Scales[j] = std
	}
	return s, nil
}

// Transform returns the scaled copy of x.
func (s *StandardScaler) Transform(x []float64) ([]float64, error) {
	if len(x) != len(s.Means) {
		return nil, fmt.Errorf("scaler expects %d values, got %d", len(s.Means), len(x))
	}
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - s.Means[j]) / s.Scales[j]
	}
	return out, nil
}

// TransformAll scales every row.
func (s *StandardScaler) TransformAll(rows [][]float64) ([][]float64, error) {
	out := make([][]float64, len(rows))
	for i, row := range rows {
		t, err := s.Transform(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = t
	}
	return out, nil
}

// InverseTransform undoes Transform.
func (s *StandardScaler) InverseTransform(z []float64) ([]float64, error) {
	if len(z) != len(s.Means) {
		return nil, fmt.Errorf("scaler expects %d values, got %d", len(s.Means), len(z))
	}
	out := make([]float64, len(z))
	for j, v := range z {
		out[j] = v*s.Scales[j] + s.Means[j]
	}
	return out, nil
}
