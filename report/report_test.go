package report

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decibelcooper/htauplot/binned"
	"github.com/decibelcooper/htauplot/branches"
	"github.com/decibelcooper/htauplot/dataset"
	"github.com/decibelcooper/htauplot/event"
	"github.com/decibelcooper/htauplot/fakefactor"
)

func lineOutcome() fakefactor.Outcome {
	in := fakefactor.Input{Variable: "FS_mt"}
	for i := 0; i < 4; i++ {
		x := float64(10 + 20*i)
		in.Centers = append(in.Centers, x)
		in.Ratio = append(in.Ratio, 0.5+0.001*x)
		in.Err = append(in.Err, 0.05)
	}
	o := fakefactor.NewOrchestrator()
	return o.Fit(in)
}

func TestFits(t *testing.T) {
	orders := fakefactor.NewOrchestrator().Orders
	fits := Fits(lineOutcome(), orders)
	require.Len(t, fits, 5)
	assert.Len(t, fits[1].Coeffs, 2)
	assert.Equal(t, 2, fits[1].NDOF)
	assert.Contains(t, fits[1].Label, "x^1")
	assert.Empty(t, fits[1].Error)
	assert.NotEmpty(t, fits[4].Error, "four points cannot fit five coefficients")
	assert.Empty(t, fits[4].Coeffs)
}

func TestRoundTrip(t *testing.T) {
	h := binned.Hist{Edges: []float64{0, 1, 2}, Values: []float64{3, 4}, Errors: []float64{1, 2}}
	r := &Report{
		FinalState: "mutau",
		Era:        "2022 EFG",
		JetMode:    "Inclusive",
		Lumi:       26.67,
		Yields:     []Yield{{Process: "DataMuon", Role: "data", Events: 7, Weighted: 7}},
		Histograms: []Histogram{NewHistogram("FS_mt", "DRsr_aiso", "data-mc", h)},
		Fits:       Fits(lineOutcome(), []int{0, 1, 2, 3, 4}),
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, r))
	got, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, r, got)

	path := filepath.Join(t.TempDir(), "report.json.zst")
	require.NoError(t, WriteFile(path, r))
	got, err = ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, r.Histograms, got.Histograms)
}

func TestReadRejectsPlainJSON(t *testing.T) {
	_, err := Read(bytes.NewBufferString(`{"era": "2022 EFG"}`))
	assert.Error(t, err)
}

func TestYields(t *testing.T) {
	e := &dataset.Entry{
		Meta:       dataset.Metadata{Name: "DYJetsToLL_M-50_0JNLO", Role: branches.Background},
		PlotEvents: map[string]event.Floats{"FS_mt": {1, 2, 3}},
	}
	y := YieldOf(e, event.Floats{10, 10, 10})
	assert.Equal(t, Yield{Process: "DYJetsToLL_M-50_0JNLO", Role: "background", Events: 3, Weighted: 30}, y)

	var buf bytes.Buffer
	require.NoError(t, WriteYields(&buf, []Yield{
		y,
		{Process: "DataMuon", Role: "data", Events: 35, Weighted: 35},
		{Process: "VBF_TauTau", Role: "signal", Events: 2, Weighted: 1.5},
	}))
	out := buf.String()
	assert.Contains(t, out, "DYJetsToLL_M-50_0JNLO")
	assert.Contains(t, out, "30.00")
	assert.Contains(t, out, "31.50", "total simulation includes signal")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("DataMuon")), bytes.Index(buf.Bytes(), []byte("VBF_TauTau")))
}

func TestWriteFits(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFits(&buf, []fakefactor.Outcome{lineOutcome()}, []int{0, 1, 2, 3, 4}))
	assert.Contains(t, buf.String(), "FS_mt")
	assert.Contains(t, buf.String(), "x^1")
}

func TestYieldsFromAccumulator(t *testing.T) {
	acc := dataset.NewAccumulator()
	require.NoError(t, acc.Add(&dataset.Entry{
		Meta:       dataset.Metadata{Name: "TTTo2L2Nu", Role: branches.Background, NWEvents: 1000, XSec: 1},
		PlotEvents: map[string]event.Floats{"FS_mt": {1, 2}},
		Weights:    map[string]event.Floats{"Generator_weight": {1, 1}},
	}))
	ys, err := Yields(acc, 10)
	require.NoError(t, err)
	require.Len(t, ys, 1)
	assert.InDelta(t, 20.0, ys[0].Weighted, 1e-9)

	require.NoError(t, acc.Add(&dataset.Entry{
		Meta:       dataset.Metadata{Name: "TTToSemiLeptonic", Role: branches.Background},
		PlotEvents: map[string]event.Floats{"FS_mt": {1}},
	}))
	_, err = Yields(acc, 10)
	assert.Error(t, err, "missing normalization")
}
