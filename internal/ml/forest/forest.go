// Package forest implements a seeded random-forest classifier: bootstrap
// sampled CART trees split on gini impurity with a random feature subset per
// node, averaged into a class probability distribution.
package forest

import (
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// Config holds the forest hyperparameters.
type Config struct {
	Trees int
	// MaxFeatures is the number of features examined per split. Zero means
	// floor(sqrt(numFeatures)).
	MaxFeatures     int
	MaxDepth        int
	MinSamplesSplit int
	Seed            int64
	Workers         int
}

// DefaultConfig returns 100 fully grown trees with seed 42.
func DefaultConfig() Config {
	return Config{Trees: 100, MinSamplesSplit: 2, Seed: 42}
}

// Forest is a fitted classifier. Classes are sorted; probability vectors are
// aligned with them.
type Forest struct {
	Classes     []string
	NumFeatures int
	Trees       []Tree
}

// Fit grows cfg.Trees trees in parallel. Each tree draws from its own source
// seeded from cfg.Seed, so the result does not depend on scheduling.
func Fit(ctx context.Context, x [][]float64, y []string, cfg Config) (*Forest, error) {
	if len(x) == 0 {
		return nil, errors.New("cannot fit forest on zero rows")
	}
	if len(x) != len(y) {
		return nil, fmt.Errorf("got %d rows but %d labels", len(x), len(y))
	}
	if cfg.Trees <= 0 {
		return nil, fmt.Errorf("tree count must be positive, got %d", cfg.Trees)
	}
	width := len(x[0])
	for i, row := range x {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has %d values, want %d", i, len(row), width)
		}
	}

	classes, yi := indexLabels(y)
	maxFeatures := cfg.MaxFeatures
	if maxFeatures <= 0 {
		maxFeatures = int(math.Sqrt(float64(width)))
	}
	maxFeatures = min(max(maxFeatures, 1), width)
	minSplit := max(cfg.MinSamplesSplit, 2)

	master := rand.New(rand.NewSource(cfg.Seed))
	seeds := make([]int64, cfg.Trees)
	for i := range seeds {
		seeds[i] = master.Int63()
	}

	f := &Forest{Classes: classes, NumFeatures: width, Trees: make([]Tree, cfg.Trees)}

	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for t := range f.Trees {
		t := t
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(seeds[t]))
			b := &builder{
				x:           x,
				y:           yi,
				numClasses:  len(classes),
				maxFeatures: maxFeatures,
				maxDepth:    cfg.MaxDepth,
				minSplit:    minSplit,
				rng:         rng,
			}
			b.build(bootstrap(rng, len(x)), 0)
			f.Trees[t] = Tree{Nodes: b.nodes}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fit forest: %w", err)
	}
	return f, nil
}

func indexLabels(y []string) ([]string, []int) {
	set := make(map[string]struct{})
	for _, l := range y {
		set[l] = struct{}{}
	}
	classes := make([]string, 0, len(set))
	for l := range set {
		classes = append(classes, l)
	}
	sort.Strings(classes)

	pos := make(map[string]int, len(classes))
	for i, c := range classes {
		pos[c] = i
	}
	yi := make([]int, len(y))
	for i, l := range y {
		yi[i] = pos[l]
	}
	return classes, yi
}

func bootstrap(rng *rand.Rand, n int) []int {
	idx := make([]int, n)
	for i := range idx {
		idx[i] = rng.Intn(n)
	}
	return idx
}

// PredictProba averages the leaf distributions of every tree.
func (f *Forest) PredictProba(x []float64) ([]float64, error) {
	if len(x) != f.NumFeatures {
		return nil, fmt.Errorf("model expects %d features, got %d", f.NumFeatures, len(x))
	}
	sum := make([]float64, len(f.Classes))
	for i := range f.Trees {
		floats.Add(sum, f.Trees[i].proba(x))
	}
	floats.Scale(1/float64(len(f.Trees)), sum)
	return sum, nil
}

// Predict returns the most probable class, its probability, and the full
// distribution. Ties go to the class that sorts first.
func (f *Forest) Predict(x []float64) (string, float64, []float64, error) {
	p, err := f.PredictProba(x)
	if err != nil {
		return "", 0, nil, err
	}
	best := floats.MaxIdx(p)
	return f.Classes[best], p[best], p, nil
}

// PredictAll returns the predicted class of every row.
func (f *Forest) PredictAll(rows [][]float64) ([]string, error) {
	out := make([]string, len(rows))
	for i, row := range rows {
		label, _, _, err := f.Predict(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out[i] = label
	}
	return out, nil
}

// Encode writes the forest in gob format.
func (f *Forest) Encode(w io.Writer) error {
	return gob.NewEncoder(w).Encode(f)
}

// Decode reads a forest written by Encode.
func Decode(r io.Reader) (*Forest, error) {
	var f Forest
	if err := gob.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode forest: %w", err)
	}
	if len(f.Trees) == 0 || len(f.Classes) == 0 {
		return nil, errors.New("decode forest: empty model")
	}
	return &f, nil
}
