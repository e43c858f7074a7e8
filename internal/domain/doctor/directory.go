// Package doctor serves the read-only doctor directory loaded from a CSV file
// maintained outside the application.
package doctor

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/gocarina/gocsv"
	"golang.org/x/text/encoding/charmap"
)

const (
	ColLocation       = "Hospital Location"
	ColSpecialization = "Doctor Specialization"

	// Values the search form submits when nothing was chosen.
	placeholderCity           = "Select City"
	placeholderSpecialization = "Select Specialization"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Doctor is one directory row, keyed by the file's own column names.
type Doctor map[string]string

// Options lists the distinct values offered by the search form.
type Options struct {
	Cities          []string `json:"cities"`
	Specializations []string `json:"specializations"`
}

// Directory reads the doctor file on every call so edits show up without a
// restart.
type Directory struct {
	path string
}

func NewDirectory(path string) *Directory {
	return &Directory{path: path}
}

// load returns every row, or nil when the file does not exist.
func (d *Directory) load() ([]Doctor, error) {
	data, err := os.ReadFile(d.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read doctor directory: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		data, err = charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return nil, fmt.Errorf("decode doctor directory: %w", err)
		}
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	maps, err := gocsv.CSVToMaps(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse doctor directory: %w", err)
	}
	rows := make([]Doctor, len(maps))
	for i, m := range maps {
		rows[i] = Doctor(m)
	}
	return rows, nil
}

// Options returns sorted unique non-empty hospital locations and
// specializations.
func (d *Directory) Options() (*Options, error) {
	rows, err := d.load()
	if err != nil {
		return nil, err
	}
	return &Options{
		Cities:          distinct(rows, ColLocation),
		Specializations: distinct(rows, ColSpecialization),
	}, nil
}

func distinct(rows []Doctor, col string) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, r := range rows {
		v := strings.TrimSpace(r[col])
		if v == "" || seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// Search filters by exact city and specialization. Empty values and the form
// placeholders do not filter.
func (d *Directory) Search(city, specialization string) ([]Doctor, error) {
	rows, err := d.load()
	if err != nil {
		return nil, err
	}
	city = activeFilter(city, placeholderCity)
	specialization = activeFilter(specialization, placeholderSpecialization)

	out := []Doctor{}
	for _, r := range rows {
		if city != "" && strings.TrimSpace(r[ColLocation]) != city {
			continue
		}
		if specialization != "" && strings.TrimSpace(r[ColSpecialization]) != specialization {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func activeFilter(v, placeholder string) string {
	v = strings.TrimSpace(v)
	if v == placeholder {
		return ""
	}
	return v
}
