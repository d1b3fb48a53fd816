// Package fakefactor turns numerator and denominator region histograms into
// fake factor ratios and fits them with low order polynomials.
package fakefactor

import "math"

// Ratio divides two measurements with uncorrelated uncertainties. A zero
// denominator yields a zero ratio and error.
func Ratio(num, numErr, den, denErr float64) (ratio, err float64) {
	if den == 0 {
		return 0, 0
	}
	ratio = num / den
	// sigma_r^2 = (sigma_n/d)^2 + (n sigma_d/d^2)^2, the quadrature sum of
	// relative errors without dividing by n
	err = math.Hypot(numErr/den, num*denErr/(den*den))
	return ratio, err
}

// Ratios applies Ratio bin by bin. All slices must have the same length.
func Ratios(num, numErr, den, denErr []float64) (ratio, err []float64) {
	ratio = make([]float64, len(num))
	err = make([]float64, len(num))
	for i := range num {
		ratio[i], err[i] = Ratio(num[i], numErr[i], den[i], denErr[i])
	}
	return ratio, err
}

// DegenerateBins flags bins whose ratio is exactly zero next to another
// zero bin. An isolated zero is kept.
func DegenerateBins(ratio []float64) []bool {
	out := make([]bool, len(ratio))
	for i, v := range ratio {
		if v != 0 {
			continue
		}
		left := i > 0 && ratio[i-1] == 0
		right := i < len(ratio)-1 && ratio[i+1] == 0
		out[i] = left || right
	}
	return out
}

// Window keeps bin centers strictly between Min and Max.
type Window struct {
	Min, Max float64
}

func (w Window) Contains(x float64) bool { return w.Min < x && x < w.Max }

// DefaultWindows restricts the tau momentum fits to the well populated
// region.
func DefaultWindows() map[string]Window {
	return map[string]Window{
		"FS_t1_pt":  {Min: 40, Max: 150},
		"FS_tau_pt": {Min: 40, Max: 150},
	}
}
