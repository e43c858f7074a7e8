package metrics

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluate(t *testing.T) {
	truth := []string{"a", "a", "a", "b", "b", "c"}
	pred := []string{"a", "a", "b", "b", "b", "a"}

	r, err := Evaluate(truth, pred)
	require.NoError(t, err)

	assert.InDelta(t, 4.0/6.0, r.Accuracy, 1e-12)
	assert.Equal(t, 6, r.Total)
	require.Len(t, r.Classes, 3)

	a, ok := r.Class("a")
	require.True(t, ok)
	assert.InDelta(t, 2.0/3.0, a.Precision, 1e-12)
	assert.InDelta(t, 2.0/3.0, a.Recall, 1e-12)
	assert.Equal(t, 3, a.Support)

	b, _ := r.Class("b")
	assert.InDelta(t, 2.0/3.0, b.Precision, 1e-12)
	assert.InDelta(t, 1.0, b.Recall, 1e-12)
	assert.InDelta(t, 0.8, b.F1, 1e-12)

	c, _ := r.Class("c")
	assert.Zero(t, c.Precision)
	assert.Zero(t, c.Recall)
	assert.Zero(t, c.F1)

	assert.InDelta(t, (2.0/3.0+1+0)/3, r.MacroAvg.Recall, 1e-12)
	assert.InDelta(t, (3*(2.0/3.0)+2*1.0+0)/6, r.WeightedAvg.Recall, 1e-12)
}

func TestEvaluate_Errors(t *testing.T) {
	_, err := Evaluate([]string{"a"}, nil)
	assert.Error(t, err)
	_, err = Evaluate(nil, nil)
	assert.Error(t, err)
}

func TestReport_String(t *testing.T) {
	r, err := Evaluate([]string{"Healthy", "Asthma"}, []string{"Healthy", "Asthma"})
	require.NoError(t, err)

	out := r.String()
	assert.Contains(t, out, "precision")
	assert.Contains(t, out, "Healthy")
	assert.Contains(t, out, "accuracy")
	assert.True(t, strings.Contains(out, "1.00"))
}
