package fakefactor

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRatio(t *testing.T) {
	tests := []struct {
		name                 string
		num, numErr          float64
		den, denErr          float64
		wantRatio, wantError float64
	}{
		{"quotient", 10, 3, 5, 1, 2, 2 * math.Sqrt(0.3*0.3+0.2*0.2)},
		{"zero denominator", 10, 3, 0, 1, 0, 0},
		{"zero numerator", 0, 2, 4, 1, 0, 0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, e := Ratio(tt.num, tt.numErr, tt.den, tt.denErr)
			assert.InDelta(t, tt.wantRatio, r, 1e-12)
			assert.InDelta(t, tt.wantError, e, 1e-12)
		})
	}
	_, e := Ratio(10, 3, 5, 1)
	assert.InDelta(t, 0.7211, e, 1e-4)
}

func TestDegenerateBins(t *testing.T) {
	got := DegenerateBins([]float64{0, 0, 1, 0, 2, 0, 0})
	assert.Equal(t, []bool{true, true, false, false, false, true, true}, got)

	assert.Equal(t, []bool{false}, DegenerateBins([]float64{0}))
	assert.Equal(t, []bool{true, true}, DegenerateBins([]float64{0, 0}))
	assert.Empty(t, DegenerateBins(nil))
}

func linearInput(variable string) Input {
	in := Input{Variable: variable}
	for x := 10.0; x <= 150; x += 20 {
		in.Centers = append(in.Centers, x)
		in.Ratio = append(in.Ratio, 0.5+0.001*x)
		in.Err = append(in.Err, 0.01)
	}
	return in
}

func TestFitPolynomialRecoversLine(t *testing.T) {
	in := linearInput("HTT_m_vis")
	require.Len(t, in.Centers, 8)

	r, err := FitPolynomial(in.Centers, in.Ratio, in.Err, 1)
	require.NoError(t, err)
	require.Len(t, r.Coeffs, 2)
	assert.InDelta(t, 0.001, r.Coeffs[0], 1e-9)
	assert.InDelta(t, 0.5, r.Coeffs[1], 1e-9)
	assert.Equal(t, 6, r.NDOF)
	assert.InDelta(t, 0, r.ReducedChi2(), 1e-9)
	assert.InDelta(t, 0.6, r.Eval(100), 1e-9)
	assert.Equal(t, "y = +1.00e-03*x^1 +5.00e-01  chi2/ndof = 0.00/6 = 0.00", r.Label())
}

func TestFitPolynomialHigherOrders(t *testing.T) {
	in := linearInput("HTT_m_vis")
	for order := 0; order <= 4; order++ {
		r, err := FitPolynomial(in.Centers, in.Ratio, in.Err, order)
		require.NoError(t, err, "order %d", order)
		assert.Len(t, r.Coeffs, order+1)
		assert.Equal(t, 8-order-1, r.NDOF)
		if order >= 1 {
			assert.InDelta(t, 0, r.Chi2, 1e-6, "order %d", order)
		}
	}

	// a constant fit to a line: mean weighted value, chi2 > 0
	r, err := FitPolynomial(in.Centers, in.Ratio, in.Err, 0)
	require.NoError(t, err)
	assert.InDelta(t, 0.58, r.Coeffs[0], 1e-9)
	assert.Greater(t, r.Chi2, 1.0)
}

func TestFitPolynomialDegenerate(t *testing.T) {
	_, err := FitPolynomial([]float64{1, 2}, []float64{1, 2}, []float64{1, 1}, 1)
	var dfe *DegenerateFitError
	require.True(t, errors.As(err, &dfe))
	assert.Equal(t, 1, dfe.Order)
	assert.Equal(t, 2, dfe.Points)
}

func TestOrchestratorWindow(t *testing.T) {
	o := NewOrchestrator()

	p := o.Select(linearInput("HTT_m_vis"))
	assert.Equal(t, 8, p.Len())

	p = o.Select(linearInput("FS_tau_pt"))
	assert.Equal(t, []float64{50, 70, 90, 110, 130}, p.X)
}

func TestOrchestratorDropsDegenerateAndUnweightedBins(t *testing.T) {
	in := Input{
		Variable: "FS_mu_pt",
		Centers:  []float64{1, 2, 3, 4, 5, 6, 7},
		Ratio:    []float64{0, 0, 1, 0, 2, 3, 4},
		Err:      []float64{0, 0, 0.1, 0, 0.1, math.Inf(1), 0.1},
	}
	p := NewOrchestrator().Select(in)
	// bin 3 is an isolated zero but has no uncertainty to weight it
	assert.Equal(t, []float64{3, 5, 7}, p.X)
}

func TestOrchestratorFit(t *testing.T) {
	out := NewOrchestrator().Fit(linearInput("FS_tau_pt"))
	require.Len(t, out.Errs, 5)
	assert.Len(t, out.Results, 4, "order 4 has no degrees of freedom on 5 points")

	var dfe *DegenerateFitError
	require.True(t, errors.As(out.Errs[4], &dfe))
	assert.Equal(t, 4, dfe.Order)
	assert.Error(t, out.Err())
	for i := 0; i < 4; i++ {
		assert.NoError(t, out.Errs[i])
	}

	line := out.Results[1]
	assert.InDelta(t, 0.001, line.Coeffs[0], 1e-9)
	assert.InDelta(t, 0.5, line.Coeffs[1], 1e-9)
}
