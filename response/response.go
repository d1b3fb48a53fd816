// Package response compares reconstructed signal quantities with their
// generator-level values and derives binned corrections from the
// comparison.
package response

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/decibelcooper/htauplot/binned"
)

// ErrLength is returned when reconstructed and generator values do not pair
// up.
var ErrLength = errors.New("reco and gen lengths differ")

var (
	// CorrectionEdges are the reconstructed Higgs pT bins the corrections are
	// derived in. Values past the last edge share the last correction.
	CorrectionEdges = []float64{0, 10, 20, 30, 40, 60, 80, 120, 200, 350, 450, 600}
	// PtEdges and JetEdges bin the response matrices.
	PtEdges  = []float64{0, 45, 80, 120, 200, 350, 450, 600}
	JetEdges = []float64{0, 1, 2, 3, 4}
	// DiffEdges bin (reco-gen)/gen.
	DiffEdges = linspace(-2, 2, 100)
	// RatioEdges bin reco/gen.
	RatioEdges = linspace(0, 5, 51)
)

func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	floats.Span(out, lo, hi)
	return out
}

func paired(reco, gen []float64) error {
	if len(reco) != len(gen) {
		return fmt.Errorf("%w: %d vs %d", ErrLength, len(reco), len(gen))
	}
	return nil
}

// NormedDiff is (reco-gen)/gen per event, NaN where gen is zero.
func NormedDiff(reco, gen []float64) ([]float64, error) {
	if err := paired(reco, gen); err != nil {
		return nil, err
	}
	out := make([]float64, len(reco))
	for i := range out {
		if gen[i] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = (reco[i] - gen[i]) / gen[i]
	}
	return out, nil
}

// Ratio is reco/gen per event, NaN where gen is zero.
func Ratio(reco, gen []float64) ([]float64, error) {
	if err := paired(reco, gen); err != nil {
		return nil, err
	}
	out := make([]float64, len(reco))
	for i := range out {
		if gen[i] == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = reco[i] / gen[i]
	}
	return out, nil
}

// PeakNormalized histograms values on edges and scales the result so the
// highest bin is one. An empty histogram stays at zero.
func PeakNormalized(values, edges []float64) binned.Hist {
	h := binned.FromH1D(binned.Fill(values, nil, edges), edges)
	if len(h.Values) == 0 {
		return h
	}
	peak := floats.Max(h.Values)
	if peak <= 0 {
		return h
	}
	floats.Scale(1/peak, h.Values)
	floats.Scale(1/peak, h.Errors)
	return h
}

// Digitize returns i such that edges[i-1] <= x < edges[i]: zero below the
// first edge and len(edges) at or above the last.
func Digitize(x float64, edges []float64) int {
	return sort.Search(len(edges), func(i int) bool { return edges[i] > x })
}

// Correction holds one multiplicative factor per reconstructed bin. Factor
// i covers [Edges[i], Edges[i+1]), the last one everything from the last
// edge up.
type Correction struct {
	Edges   []float64
	Factors []float64
}

// Factor is the correction for a reconstructed value, NaN below the first
// edge.
func (c Correction) Factor(reco float64) float64 {
	i := Digitize(reco, c.Edges) - 1
	if i < 0 || i >= len(c.Factors) {
		return math.NaN()
	}
	return c.Factors[i]
}

// Apply returns the corrected copy of reco.
func (c Correction) Apply(reco []float64) []float64 {
	out := make([]float64, len(reco))
	for i, v := range reco {
		out[i] = v * c.Factor(v)
	}
	return out
}

// inBins groups event indices by reconstructed bin, the last group holding
// the overflow.
func inBins(reco, edges []float64) [][]int {
	out := make([][]int, len(edges))
	for i, v := range reco {
		k := Digitize(v, edges) - 1
		if k < 0 || math.IsNaN(v) {
			continue
		}
		out[k] = append(out[k], i)
	}
	return out
}

func pick(vs []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for i, k := range idx {
		out[i] = vs[k]
	}
	return out
}

// MeanRatio corrects each reconstructed bin, overflow included, by
// mean(gen)/mean(reco) of its events. Bins without events get one.
func MeanRatio(reco, gen, edges []float64) (Correction, error) {
	if err := paired(reco, gen); err != nil {
		return Correction{}, err
	}
	c := Correction{Edges: append([]float64(nil), edges...), Factors: make([]float64, len(edges))}
	for k, idx := range inBins(reco, edges) {
		c.Factors[k] = 1
		if len(idx) == 0 {
			continue
		}
		r := stat.Mean(pick(reco, idx), nil)
		if r == 0 {
			continue
		}
		c.Factors[k] = stat.Mean(pick(gen, idx), nil) / r
	}
	return c, nil
}

// Peak corrects each reconstructed bin by 1/(x+1), x being the center of
// the most populated DiffEdges bin of (reco-gen)/gen. The overflow reuses
// the factor of the last bin. Bins without events get one.
func Peak(reco, gen, edges []float64) (Correction, error) {
	diff, err := NormedDiff(reco, gen)
	if err != nil {
		return Correction{}, err
	}
	n := len(edges) - 1
	if n < 1 {
		return Correction{}, fmt.Errorf("peak correction: %d edges", len(edges))
	}
	c := Correction{Edges: append([]float64(nil), edges...), Factors: make([]float64, n+1)}
	mids := binned.Midpoints(DiffEdges)
	groups := inBins(reco, edges)
	for k := 0; k < n; k++ {
		c.Factors[k] = 1
		h := PeakNormalized(pick(diff, groups[k]), DiffEdges)
		if len(groups[k]) == 0 || floats.Max(h.Values) == 0 {
			continue
		}
		x := mids[floats.MaxIdx(h.Values)]
		c.Factors[k] = 1 / (x + 1)
	}
	c.Factors[n] = c.Factors[n-1]
	return c, nil
}
