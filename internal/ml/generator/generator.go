// Package generator produces the synthetic, labeled disease-risk dataset used
// to train the unified classifier. Every row starts from a healthy baseline
// and is then pushed into a label-characteristic profile so that each label
// carries a learnable signal. Output is reproducible for a given seed.
package generator

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/clinic/clinic/internal/ml/dataset"
)

// Config controls dataset size and reproducibility.
type Config struct {
	Rows int   `json:"rows"`
	Seed int64 `json:"seed"`
}

// DefaultConfig mirrors the offline batch defaults.
func DefaultConfig() Config {
	return Config{Rows: 5000, Seed: 42}
}

// Result summarizes a generation run.
type Result struct {
	Samples     []dataset.Sample `json:"-"`
	Requested   int              `json:"requested"`
	Removed     int              `json:"duplicates_removed"`
	LabelCounts map[string]int   `json:"label_counts"`
	Duration    time.Duration    `json:"duration"`
}

// Unique is the number of rows kept after duplicate removal. It can be lower
// than Requested; no backfill happens.
func (r *Result) Unique() int { return len(r.Samples) }

// labelWeights is the categorical distribution the target label is drawn from,
// aligned with dataset.Labels.
var labelWeights = []float64{0.35, 0.1, 0.1, 0.1, 0.05, 0.1, 0.1, 0.1}

var smokingStatuses = []string{"Never", "Former", "Current"}

// DataGenerator draws synthetic samples from a seeded source.
type DataGenerator struct {
	rng *rand.Rand
}

// NewDataGenerator returns a generator seeded for reproducibility. Every seed,
// including 0, yields the same stream on every run.
func NewDataGenerator(seed int64) *DataGenerator {
	return &DataGenerator{rng: rand.New(rand.NewSource(seed))}
}

// intn returns an integer in [lo, hi).
func (g *DataGenerator) intn(lo, hi int) float64 {
	return float64(lo + g.rng.Intn(hi-lo))
}

func (g *DataGenerator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

func (g *DataGenerator) chance(p float64) bool {
	return g.rng.Float64() < p
}

func (g *DataGenerator) pick(pool []string) string {
	return pool[g.rng.Intn(len(pool))]
}

// weighted picks from pool according to weights, which must sum to 1.
func (g *DataGenerator) weighted(pool []string, weights []float64) string {
	u := g.rng.Float64()
	acc := 0.0
	for i, w := range weights {
		acc += w
		if u < acc {
			return pool[i]
		}
	}
	return pool[len(pool)-1]
}

// either returns a with probability p, otherwise b.
func (g *DataGenerator) either(a string, p float64, b string) string {
	if g.chance(p) {
		return a
	}
	return b
}

// baseline draws a healthy feature vector.
func (g *DataGenerator) baseline() dataset.Record {
	return dataset.Record{
		Age:           g.intn(18, 90),
		Gender:        g.pick([]string{"Male", "Female"}),
		BMI:           g.uniform(18.5, 24.9),
		SystolicBP:    g.intn(90, 119),
		DiastolicBP:   g.intn(60, 79),
		Glucose:       g.intn(70, 99),
		Cholesterol:   g.intn(125, 199),
		Smoking:       "Never",
		Alcohol:       "None",
		Activity:      "Moderate",
		Diet:          "Good",
		SleepHours:    g.uniform(6, 9),
		FamilyHistory: "None",
	}
}

// GenerateSample draws one labeled row.
func (g *DataGenerator) GenerateSample() dataset.Sample {
	r := g.baseline()
	label := g.weighted(dataset.Labels, labelWeights)

	profiles[label](g, &r)

	// Noise on non-critical fields keeps the classifier from memorizing the
	// override rules alone.
	if g.chance(0.1) {
		r.Smoking = g.pick(smokingStatuses)
	}
	if g.chance(0.1) {
		r.SleepHours = g.uniform(4, 10)
	}

	r.BMI = round1(r.BMI)
	r.SleepHours = round1(r.SleepHours)
	return dataset.Sample{Record: r, Label: label}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Generate draws cfg.Rows samples, then drops exact duplicates keeping the
// first occurrence.
func Generate(cfg Config) (*Result, error) {
	if cfg.Rows <= 0 {
		return nil, fmt.Errorf("rows must be positive, got %d", cfg.Rows)
	}
	start := time.Now()
	g := NewDataGenerator(cfg.Seed)

	rows := make([]dataset.Sample, 0, cfg.Rows)
	for i := 0; i < cfg.Rows; i++ {
		rows = append(rows, g.GenerateSample())
	}

	unique := Deduplicate(rows)
	result := &Result{
		Samples:     unique,
		Requested:   cfg.Rows,
		Removed:     len(rows) - len(unique),
		LabelCounts: CountLabels(unique),
	}
	result.Duration = time.Since(start)
	return result, nil
}

// Deduplicate removes rows equal in every column to an earlier row.
func Deduplicate(rows []dataset.Sample) []dataset.Sample {
	seen := make(map[dataset.Sample]struct{}, len(rows))
	out := make([]dataset.Sample, 0, len(rows))
	for _, s := range rows {
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

// CountLabels tallies samples per target label.
func CountLabels(rows []dataset.Sample) map[string]int {
	counts := make(map[string]int, len(dataset.Labels))
	for _, s := range rows {
		counts[s.Label]++
	}
	return counts
}
