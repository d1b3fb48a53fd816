package binned

import (
	"errors"
	"fmt"
	"math"

	"go-hep.org/x/hep/hbook"

	"github.com/decibelcooper/htauplot/branches"
	"github.com/decibelcooper/htauplot/dataset"
	"github.com/decibelcooper/htauplot/event"
)

// ErrNoNormalization is returned for simulated samples without a generator
// weight sum.
var ErrNoNormalization = errors.New("sample has no NWEvents")

// Hist is the per-bin content of a histogram.
type Hist struct {
	Edges  []float64
	Values []float64
	Errors []float64
}

// Len is the number of bins.
func (h Hist) Len() int { return len(h.Values) }

// Fill histograms values with weights (nil weights count events). NaN
// values, such as jets an event does not have, are skipped.
func Fill(values, weights []float64, edges []float64) *hbook.H1D {
	h := hbook.NewH1DFromEdges(edges)
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		w := 1.0
		if weights != nil {
			w = weights[i]
		}
		h.Fill(v, w)
	}
	return h
}

// FromH1D reads the bin sums and sqrt(sum w^2) errors of h. Under and
// overflow are not included.
func FromH1D(h *hbook.H1D, edges []float64) Hist {
	bins := h.Binning.Bins
	out := Hist{
		Edges:  append([]float64(nil), edges...),
		Values: make([]float64, len(bins)),
		Errors: make([]float64, len(bins)),
	}
	for i := range bins {
		out.Values[i] = bins[i].SumW()
		out.Errors[i] = math.Sqrt(bins[i].SumW2())
	}
	return out
}

// Weights returns the per-event weight of an entry. Simulation is scaled to
// lumi (in fb^-1) with xsec[pb] * lumi * 1000 / NWEvents times the product
// of its event weights. Data counts events, or applies FF_weight when
// useFF is set.
func Weights(e *dataset.Entry, lumi float64, useFF bool) (event.Floats, error) {
	n := e.Len()
	w := make(event.Floats, n)
	for i := range w {
		w[i] = 1
	}
	if e.Meta.Role == branches.Data {
		if !useFF {
			return w, nil
		}
		ff, ok := e.Weights[dataset.FFWeightBranch]
		if !ok {
			return nil, fmt.Errorf("%s: %w: %s", e.Meta.Name, event.ErrMissingBranch, dataset.FFWeightBranch)
		}
		copy(w, ff)
		return w, nil
	}

	if e.Meta.NWEvents == 0 {
		return nil, fmt.Errorf("%s: %w", e.Meta.Name, ErrNoNormalization)
	}
	norm := e.Meta.XSec * lumi * 1000 / e.Meta.NWEvents
	for _, name := range dataset.MCWeights {
		sf, ok := e.Weights[name]
		if !ok {
			continue
		}
		for i := range w {
			w[i] *= sf[i]
		}
	}
	for i := range w {
		w[i] *= norm
	}
	return w, nil
}

// FillEntry histograms one plotted variable of an accumulated dataset.
func FillEntry(e *dataset.Entry, variable string, edges []float64, lumi float64, useFF bool) (Hist, error) {
	vals, ok := e.PlotEvents[Branch(variable)]
	if !ok {
		return Hist{}, fmt.Errorf("%s: %w: %s", e.Meta.Name, event.ErrMissingBranch, variable)
	}
	w, err := Weights(e, lumi, useFF)
	if err != nil {
		return Hist{}, err
	}
	return FromH1D(Fill(vals, w, edges), edges), nil
}

// Zero is an empty histogram on edges.
func Zero(edges []float64) Hist {
	n := len(edges) - 1
	if n < 0 {
		n = 0
	}
	return Hist{
		Edges:  append([]float64(nil), edges...),
		Values: make([]float64, n),
		Errors: make([]float64, n),
	}
}

// Sum adds histograms on identical edges, with errors in quadrature.
func Sum(edges []float64, hs ...Hist) (Hist, error) {
	out := Zero(edges)
	for _, h := range hs {
		if h.Len() != out.Len() {
			return Hist{}, fmt.Errorf("sum: %d bins vs %d", h.Len(), out.Len())
		}
		for i := range out.Values {
			out.Values[i] += h.Values[i]
			out.Errors[i] = math.Hypot(out.Errors[i], h.Errors[i])
		}
	}
	return out, nil
}

// Subtract returns a-b with errors in quadrature, e.g. data minus the
// summed backgrounds.
func Subtract(a, b Hist) (Hist, error) {
	if a.Len() != b.Len() {
		return Hist{}, fmt.Errorf("subtract: %d bins vs %d", a.Len(), b.Len())
	}
	out := Zero(a.Edges)
	for i := range out.Values {
		out.Values[i] = a.Values[i] - b.Values[i]
		out.Errors[i] = math.Hypot(a.Errors[i], b.Errors[i])
	}
	return out, nil
}

// Stack fills every entry and returns the individual histograms along with
// their sum.
func Stack(entries []*dataset.Entry, variable string, edges []float64, lumi float64, useFF bool) ([]Hist, Hist, error) {
	hs := make([]Hist, 0, len(entries))
	for _, e := range entries {
		h, err := FillEntry(e, variable, edges, lumi, useFF)
		if err != nil {
			return nil, Hist{}, err
		}
		hs = append(hs, h)
	}
	total, err := Sum(edges, hs...)
	if err != nil {
		return nil, Hist{}, err
	}
	return hs, total, nil
}
