// Package preprocess holds the fitted transforms applied to a Feature Vector
// before it reaches the classifier: one label encoder per categorical column
// and a standard scaler over all columns.
package preprocess

import (
	"fmt"
	"sort"
)

// LabelEncoder maps the observed values of one categorical column to dense
// integer codes. Codes follow the sorted order of Classes.
type LabelEncoder struct {
	Column  string   `json:"column"`
	Classes []string `json:"classes"`
}

// FitLabelEncoder records the sorted unique values of a column.
func FitLabelEncoder(column string, values []string) *LabelEncoder {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	classes := make([]string, 0, len(set))
	for v := range set {
		classes = append(classes, v)
	}
	sort.Strings(classes)
	return &LabelEncoder{Column: column, Classes: classes}
}

// Encode returns the code of value, or false if the encoder never saw it.
func (e *LabelEncoder) Encode(value string) (int, bool) {
	i := sort.SearchStrings(e.Classes, value)
	if i < len(e.Classes) && e.Classes[i] == value {
		return i, true
	}
	return 0, false
}

// Decode maps a code back to its original value.
func (e *LabelEncoder) Decode(code int) (string, error) {
	if code < 0 || code >= len(e.Classes) {
		return "", fmt.Errorf("%s: code %d out of range [0,%d)", e.Column, code, len(e.Classes))
	}
	return e.Classes[code], nil
}

// EncoderSet is the per-column encoder collection persisted with a model.
type EncoderSet map[string]*LabelEncoder

// EncodeWithFallback is the inference-time policy for categorical input: a
// column without an encoder or a value the encoder never saw maps to code 0.
// It never fails.
func (s EncoderSet) EncodeWithFallback(column, value string) int {
	enc, ok := s[column]
	if !ok {
		return 0
	}
	code, ok := enc.Encode(value)
	if !ok {
		return 0
	}
	return code
}

// Validate checks that every listed column has a usable encoder.
func (s EncoderSet) Validate(columns []string) error {
	for _, col := range columns {
		enc, ok := s[col]
		if !ok {
			return fmt.Errorf("no encoder for column %q", col)
		}
		if len(enc.Classes) == 0 {
			return fmt.Errorf("encoder for column %q has no classes", col)
		}
		if !sort.StringsAreSorted(enc.Classes) {
			return fmt.Errorf("encoder for column %q has unsorted classes", col)
		}
	}
	return nil
}
