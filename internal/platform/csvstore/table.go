// Package csvstore keeps a slice of gocsv-tagged structs in a flat CSV file
// with a header row. Writes rewrite the whole file through a temporary file
// and a rename, so readers never observe a half-written table.
package csvstore

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gocarina/gocsv"
)

// Table is a CSV file holding rows of type T. A Table serializes its own
// reads and writes; it does not coordinate with other processes.
type Table[T any] struct {
	path string
	mu   sync.Mutex
}

// Open returns the table at path, creating the file with only a header row
// when it does not exist.
func Open[T any](path string) (*Table[T], error) {
	t := &Table[T]{path: path}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := t.write(nil); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	return t, nil
}

func (t *Table[T]) Path() string { return t.path }

// All returns every row in file order.
func (t *Table[T]) All() ([]T, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.read()
}

// Append adds rows at the end of the table.
func (t *Table[T]) Append(rows ...T) error {
	return t.Update(func(cur []T) ([]T, error) {
		return append(cur, rows...), nil
	})
}

// Update replaces the table with the result of fn applied to its current
// rows. Nothing is written when fn fails.
func (t *Table[T]) Update(fn func([]T) ([]T, error)) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	cur, err := t.read()
	if err != nil {
		return err
	}
	next, err := fn(cur)
	if err != nil {
		return err
	}
	return t.write(next)
}

func (t *Table[T]) read() ([]T, error) {
	data, err := os.ReadFile(t.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", t.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	var rows []T
	if err := gocsv.UnmarshalBytes(data, &rows); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(t.path), err)
	}
	return rows, nil
}

func (t *Table[T]) write(rows []T) error {
	dir := filepath.Dir(t.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	if rows == nil {
		rows = []T{}
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(t.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("stage %s: %w", t.path, err)
	}
	if err := gocsv.Marshal(rows, f); err != nil {
		f.Close()
		os.Remove(f.Name())
		return fmt.Errorf("encode %s: %w", filepath.Base(t.path), err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return err
	}
	if err := os.Rename(f.Name(), t.path); err != nil {
		os.Remove(f.Name())
		return fmt.Errorf("replace %s: %w", t.path, err)
	}
	return nil
}
