package htauplot

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decibelcooper/htauplot/binned"
)

func TestArrayFlags(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	orders := NewIntArrayFlags(0, 1, 2, 3, 4)
	vars := NewStringArrayFlags("HTT_m_vis")
	fs.Var(orders, "order", "fit orders")
	fs.Var(vars, "var", "variables")

	require.NoError(t, fs.Parse([]string{"-order", "1,2", "-order", "3"}))
	assert.Equal(t, []int{1, 2, 3}, orders.Array)
	assert.True(t, orders.IsSet())
	assert.Equal(t, []string{"HTT_m_vis"}, vars.Array, "unset flags keep defaults")
	assert.False(t, vars.IsSet())
	assert.Equal(t, "[1 2 3]", orders.String())

	assert.Error(t, fs.Parse([]string{"-order", "x"}))
	assert.Error(t, fs.Parse([]string{"-var", "a,,b"}))
}

func TestEdgeTicks(t *testing.T) {
	edges := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}
	ticks := EdgeTicks{Edges: edges}.Ticks(0, 10)
	require.Len(t, ticks, 11)
	var labels []string
	for _, tk := range ticks {
		if tk.Label != "" {
			labels = append(labels, tk.Label)
		}
	}
	assert.Equal(t, []string{"0", "3", "6", "9", "10"}, labels)

	ticks = EdgeTicks{Edges: []float64{0, 0.95, 0.96, 0.97, 0.98, 0.99, 1}, NSuggestedTicks: 7}.Ticks(0, 1)
	assert.Equal(t, "0.95", ticks[1].Label)

	assert.NotEmpty(t, EdgeTicks{}.Ticks(0, 10))
}

func TestIndexTicks(t *testing.T) {
	edges := []float64{0, 45, 80, 120, 200, 350, 450, 600}
	ticks := IndexTicks{Edges: edges, NSuggestedTicks: 8}.Ticks(0, 7)
	require.Len(t, ticks, 8)
	for i, tk := range ticks {
		assert.Equal(t, float64(i), tk.Value)
	}
	assert.Equal(t, "45", ticks[1].Label)
	assert.Equal(t, "600", ticks[7].Label)

	ticks = IndexTicks{Edges: []float64{-2, -1.5, -1}}.Ticks(0, 2)
	assert.Equal(t, "-1.5", ticks[1].Label)
}

func TestLabelPrecision(t *testing.T) {
	tests := []struct {
		edges []float64
		want  int
	}{
		{[]float64{0, 3, 6}, 0},
		{[]float64{-3.2, -3.0, -2.8}, 1},
		{[]float64{0, 0.01, 0.02}, 2},
		{[]float64{0, 0.004, 0.008}, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, labelPrecision(tt.edges), tt.edges)
	}
}

func TestErrorPoints(t *testing.T) {
	h := binned.Hist{Edges: []float64{0, 2, 6}, Values: []float64{5, 0}, Errors: []float64{1, 0.5}}
	ep := ErrorPoints(h)
	require.Len(t, ep.XYs, 2)
	assert.Equal(t, 1.0, ep.XYs[0].X)
	assert.Equal(t, 4.0, ep.XYs[1].X)
	assert.Equal(t, 2.0, ep.XErrors[1].Low)
	assert.Equal(t, 0.5, ep.YErrors[1].High)

	lo, hi, ok := Range(h)
	assert.True(t, ok)
	assert.Equal(t, 1.0, lo)
	assert.Equal(t, 1.0, hi)
	_, _, ok = Range(binned.Zero([]float64{0, 1}))
	assert.False(t, ok)
}

func TestOrderColor(t *testing.T) {
	assert.Equal(t, OrderColors[0], OrderColor(5))
	assert.NotEqual(t, OrderColor(0), OrderColor(1))
}
