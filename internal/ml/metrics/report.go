// Package metrics scores a classifier on held-out data.
package metrics

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ClassScore holds the one-vs-rest scores of a single label.
type ClassScore struct {
	Label     string  `json:"label"`
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Support   int     `json:"support"`
}

// Report is the classification report produced after training.
type Report struct {
	Accuracy    float64      `json:"accuracy"`
	Classes     []ClassScore `json:"classes"`
	MacroAvg    ClassScore   `json:"macro_avg"`
	WeightedAvg ClassScore   `json:"weighted_avg"`
	Total       int          `json:"total"`
}

// Evaluate compares predictions with ground truth. Labels appearing in either
// slice get a row; a label never predicted scores precision 0.
func Evaluate(truth, pred []string) (*Report, error) {
	if len(truth) != len(pred) {
		return nil, fmt.Errorf("got %d labels but %d predictions", len(truth), len(pred))
	}
	if len(truth) == 0 {
		return nil, errors.New("nothing to evaluate")
	}

	tp := map[string]int{}
	fp := map[string]int{}
	fn := map[string]int{}
	support := map[string]int{}
	labels := map[string]struct{}{}
	correct := 0
	for i := range truth {
		t, p := truth[i], pred[i]
		labels[t] = struct{}{}
		labels[p] = struct{}{}
		support[t]++
		if t == p {
			tp[t]++
			correct++
		} else {
			fp[p]++
			fn[t]++
		}
	}

	names := make([]string, 0, len(labels))
	for l := range labels {
		names = append(names, l)
	}
	sort.Strings(names)

	r := &Report{
		Accuracy: float64(correct) / float64(len(truth)),
		Total:    len(truth),
	}
	for _, l := range names {
		s := ClassScore{
			Label:     l,
			Precision: ratio(tp[l], tp[l]+fp[l]),
			Recall:    ratio(tp[l], tp[l]+fn[l]),
			Support:   support[l],
		}
		if s.Precision+s.Recall > 0 {
			s.F1 = 2 * s.Precision * s.Recall / (s.Precision + s.Recall)
		}
		r.Classes = append(r.Classes, s)

		r.MacroAvg.Precision += s.Precision
		r.MacroAvg.Recall += s.Recall
		r.MacroAvg.F1 += s.F1
		w := float64(s.Support)
		r.WeightedAvg.Precision += w * s.Precision
		r.WeightedAvg.Recall += w * s.Recall
		r.WeightedAvg.F1 += w * s.F1
	}

	k, n := float64(len(r.Classes)), float64(r.Total)
	r.MacroAvg = ClassScore{Label: "macro avg", Precision: r.MacroAvg.Precision / k, Recall: r.MacroAvg.Recall / k, F1: r.MacroAvg.F1 / k, Support: r.Total}
	r.WeightedAvg = ClassScore{Label: "weighted avg", Precision: r.WeightedAvg.Precision / n, Recall: r.WeightedAvg.Recall / n, F1: r.WeightedAvg.F1 / n, Support: r.Total}
	return r, nil
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}

// Class returns the score row for label.
func (r *Report) Class(label string) (ClassScore, bool) {
	for _, c := range r.Classes {
		if c.Label == label {
			return c, true
		}
	}
	return ClassScore{}, false
}

// String renders the report as an aligned text table.
func (r *Report) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-14s %9s %9s %9s %9s\n", "", "precision", "recall", "f1-score", "support")
	for _, c := range r.Classes {
		writeRow(&b, c)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%-14s %9s %9s %9.2f %9d\n", "accuracy", "", "", r.Accuracy, r.Total)
	writeRow(&b, r.MacroAvg)
	writeRow(&b, r.WeightedAvg)
	return b.String()
}

func writeRow(b *strings.Builder, c ClassScore) {
	fmt.Fprintf(b, "%-14s %9.2f %9.2f %9.2f %9d\n", c.Label, c.Precision, c.Recall, c.F1, c.Support)
}
