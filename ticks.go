package htauplot

import (
	"math"
	"strconv"

	"gonum.org/v1/plot"
)

// EdgeTicks puts a minor tick on every bin edge and labels about
// NSuggestedTicks of them. Without edges it falls back to plot.DefaultTicks.
type EdgeTicks struct {
	Edges           []float64
	NSuggestedTicks int
}

func (t EdgeTicks) Ticks(min, max float64) []plot.Tick {
	if len(t.Edges) < 2 {
		return plot.DefaultTicks{}.Ticks(min, max)
	}
	if t.NSuggestedTicks == 0 {
		t.NSuggestedTicks = 5
	}

	var inRange []float64
	for _, e := range t.Edges {
		if e >= min && e <= max {
			inRange = append(inRange, e)
		}
	}
	stride := int(math.Ceil(float64(len(inRange)-1) / float64(t.NSuggestedTicks-1)))
	if stride < 1 {
		stride = 1
	}

	prec := labelPrecision(t.Edges)
	ticks := make([]plot.Tick, 0, len(inRange))
	for i, e := range inRange {
		tick := plot.Tick{Value: e}
		if i%stride == 0 || i == len(inRange)-1 {
			tick.Label = strconv.FormatFloat(round(e, prec), 'f', prec, 64)
		}
		ticks = append(ticks, tick)
	}
	return ticks
}

// IndexTicks labels a plot drawn in bin-index space, where bin i spans
// [i, i+1), with the bin edges the indices stand for.
type IndexTicks struct {
	Edges           []float64
	NSuggestedTicks int
}

func (t IndexTicks) Ticks(min, max float64) []plot.Tick {
	idx := make([]float64, len(t.Edges))
	for i := range idx {
		idx[i] = float64(i)
	}
	ticks := EdgeTicks{Edges: idx, NSuggestedTicks: t.NSuggestedTicks}.Ticks(min, max)
	if len(t.Edges) < 2 {
		return ticks
	}
	prec := labelPrecision(t.Edges)
	for i := range ticks {
		if ticks[i].Label == "" {
			continue
		}
		e := t.Edges[int(ticks[i].Value)]
		ticks[i].Label = strconv.FormatFloat(round(e, prec), 'f', prec, 64)
	}
	return ticks
}

// labelPrecision is the number of decimals needed to tell the narrowest
// bin's edges apart.
func labelPrecision(edges []float64) int {
	narrowest := math.Inf(1)
	for i := 1; i < len(edges); i++ {
		if w := edges[i] - edges[i-1]; w > 0 && w < narrowest {
			narrowest = w
		}
	}
	if math.IsInf(narrowest, 1) || narrowest >= 1 {
		return 0
	}
	return int(math.Ceil(-math.Log10(narrowest) - 1e-6))
}

func round(x float64, prec int) float64 {
	if x == 0 {
		// Make sure zero is returned
		// without the negative bit set.
		return 0
	}
	pow := math.Pow10(prec)
	intermed := x * pow
	if math.IsInf(intermed, 0) {
		return x
	}
	if x < 0 {
		x = math.Ceil(intermed - 0.5)
	} else {
		x = math.Floor(intermed + 0.5)
	}
	if x == 0 {
		return 0
	}
	return x / pow
}
