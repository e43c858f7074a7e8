package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/gocarina/gocsv"
)

// ErrNotFound is returned by ReadFile when the dataset file does not exist.
var ErrNotFound = errors.New("dataset file not found")

// Write encodes samples as CSV with a header row in FeatureColumns order
// followed by TargetLabel.
func Write(w io.Writer, samples []Sample) error {
	if err := gocsv.Marshal(samples, w); err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	return nil
}

// WriteFile writes samples to path, creating parent directories as needed.
func WriteFile(path string, samples []Sample) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dataset directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create dataset file: %w", err)
	}
	if err := Write(f, samples); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Read decodes a dataset. The header must name every feature column and the
// label column; extra columns are ignored.
func Read(r io.Reader) ([]Sample, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read dataset: %w", err)
	}
	header, err := csv.NewReader(bytes.NewReader(data)).Read()
	if err != nil {
		return nil, fmt.Errorf("read dataset header: %w", err)
	}
	if err := checkHeader(header); err != nil {
		return nil, err
	}

	var samples []Sample
	if err := gocsv.UnmarshalBytes(data, &samples); err != nil {
		return nil, fmt.Errorf("decode dataset: %w", err)
	}
	for i, s := range samples {
		if !IsLabel(s.Label) {
			return nil, fmt.Errorf("row %d: unknown target label %q", i+2, s.Label)
		}
	}
	return samples, nil
}

// ReadFile opens and decodes the dataset at path. A missing file yields an
// error wrapping ErrNotFound.
func ReadFile(path string) ([]Sample, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()
	return Read(f)
}

func checkHeader(header []string) error {
	seen := make(map[string]bool, len(header))
	for _, h := range header {
		seen[h] = true
	}
	var missing []string
	for _, col := range append(append([]string{}, FeatureColumns...), ColTargetLabel) {
		if !seen[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("dataset header is missing columns %v", missing)
	}
	return nil
}
