package binned

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decibelcooper/htauplot/branches"
	"github.com/decibelcooper/htauplot/dataset"
	"github.com/decibelcooper/htauplot/event"
)

func TestEdges(t *testing.T) {
	edges, err := Edges("FS_mu_pt")
	require.NoError(t, err)
	require.Len(t, edges, 41)
	assert.Equal(t, 0.0, edges[0])
	assert.InDelta(t, 3.0, edges[1], 1e-12)
	assert.Equal(t, 120.0, edges[40])

	edges, err = Edges("FS_tau_rawPNetVSmu")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0.95, 0.96, 0.97, 0.98, 0.99, 1}, edges)
	edges[0] = -1
	again, _ := Edges("FS_tau_rawPNetVSmu")
	assert.Equal(t, 0.0, again[0])

	sf, err := Edges("HTT_m_vis-SFbinning")
	require.NoError(t, err)
	assert.Len(t, sf, 41)
	assert.Equal(t, 200.0, sf[40])

	_, err = Edges("Tau_nope")
	assert.Error(t, err)
}

func TestBranch(t *testing.T) {
	assert.Equal(t, "HTT_m_vis", Branch("HTT_m_vis-SFbinning"))
	assert.Equal(t, "FS_mu_pt", Branch("FS_mu_pt"))
}

func TestMidpoints(t *testing.T) {
	assert.Equal(t, []float64{0.5, 2}, Midpoints([]float64{0, 1, 3}))
	assert.Nil(t, Midpoints([]float64{1}))
}

func TestFill(t *testing.T) {
	edges := []float64{0, 1, 2}
	h := FromH1D(Fill(
		[]float64{0.5, 1.5, 1.7, math.NaN(), 5},
		[]float64{1, 2, 2, 1, 1},
		edges,
	), edges)
	assert.Equal(t, []float64{1, 4}, h.Values)
	assert.InDeltaSlice(t, []float64{1, math.Sqrt(8)}, h.Errors, 1e-12)

	h = FromH1D(Fill([]float64{0.2, 0.3, 1.5}, nil, edges), edges)
	assert.Equal(t, []float64{2, 1}, h.Values)
}

func mcEntry() *dataset.Entry {
	return &dataset.Entry{
		Meta:       dataset.Metadata{Name: "DYJetsToLL_M-50_0JNLO", Role: branches.Background, NWEvents: 1000, XSec: 2},
		PlotEvents: map[string]event.Floats{"HTT_m_vis": {50, 150}},
		Weights:    map[string]event.Floats{"Generator_weight": {1, -1}, "PUweight": {1, 1}},
	}
}

func TestWeights(t *testing.T) {
	w, err := Weights(mcEntry(), 10, false)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{20, -20}, w, 1e-12)

	e := mcEntry()
	e.Meta.NWEvents = 0
	_, err = Weights(e, 10, false)
	assert.True(t, errors.Is(err, ErrNoNormalization))

	data := &dataset.Entry{
		Meta:       dataset.Metadata{Name: "DataMuon", Role: branches.Data},
		PlotEvents: map[string]event.Floats{"HTT_m_vis": {50, 150}},
		Weights:    map[string]event.Floats{},
	}
	w, err = Weights(data, 10, false)
	require.NoError(t, err)
	assert.Equal(t, event.Floats{1, 1}, w)
	_, err = Weights(data, 10, true)
	assert.True(t, errors.Is(err, event.ErrMissingBranch))

	data.Weights[dataset.FFWeightBranch] = event.Floats{0.2, 0.5}
	w, err = Weights(data, 10, true)
	require.NoError(t, err)
	assert.Equal(t, event.Floats{0.2, 0.5}, w)
}

func TestFillEntry(t *testing.T) {
	edges := []float64{0, 100, 200}
	h, err := FillEntry(mcEntry(), "HTT_m_vis-KSUbinning", edges, 10, false)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{20, -20}, h.Values, 1e-12)
	assert.InDeltaSlice(t, []float64{20, 20}, h.Errors, 1e-12)

	_, err = FillEntry(mcEntry(), "FS_mu_pt", edges, 10, false)
	assert.True(t, errors.Is(err, event.ErrMissingBranch))
}

func TestSumSubtract(t *testing.T) {
	edges := []float64{0, 1, 2}
	a := Hist{Edges: edges, Values: []float64{10, 5}, Errors: []float64{3, 4}}
	b := Hist{Edges: edges, Values: []float64{4, 1}, Errors: []float64{4, 3}}

	sum, err := Sum(edges, a, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{14, 6}, sum.Values)
	assert.InDeltaSlice(t, []float64{5, 5}, sum.Errors, 1e-12)

	diff, err := Subtract(a, b)
	require.NoError(t, err)
	assert.Equal(t, []float64{6, 4}, diff.Values)
	assert.InDeltaSlice(t, []float64{5, 5}, diff.Errors, 1e-12)

	empty, err := Sum(edges)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0}, empty.Values)

	_, err = Subtract(a, Zero([]float64{0, 1}))
	assert.Error(t, err)
	_, err = Sum(edges, Zero([]float64{0, 1}))
	assert.Error(t, err)
}

func TestStack(t *testing.T) {
	edges := []float64{0, 100, 200}
	hs, total, err := Stack([]*dataset.Entry{mcEntry(), mcEntry()}, "HTT_m_vis", edges, 10, false)
	require.NoError(t, err)
	require.Len(t, hs, 2)
	assert.InDeltaSlice(t, []float64{40, -40}, total.Values, 1e-12)
}
