package fakefactor

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// DegenerateFitError reports a polynomial order with no degrees of freedom
// left.
type DegenerateFitError struct {
	Order  int
	Points int
}

func (e *DegenerateFitError) Error() string {
	return fmt.Sprintf("order %d fit needs more than %d points, have %d", e.Order, e.Order+1, e.Points)
}

// Result is one polynomial fit.
type Result struct {
	Order int
	// Coeffs are highest order first.
	Coeffs []float64
	Chi2   float64
	NDOF   int
}

// ReducedChi2 is Chi2/NDOF.
func (r Result) ReducedChi2() float64 { return r.Chi2 / float64(r.NDOF) }

// Eval evaluates the polynomial at x.
func (r Result) Eval(x float64) float64 {
	var y float64
	for _, c := range r.Coeffs {
		y = y*x + c
	}
	return y
}

// Label is the legend text of the fit, e.g.
// "y = +1.00e-03*x^1 +5.00e-01  chi2/ndof = 0.00/6 = 0.00".
func (r Result) Label() string {
	var b strings.Builder
	b.WriteString("y =")
	for i, c := range r.Coeffs {
		fmt.Fprintf(&b, " %+.2e", c)
		if p := len(r.Coeffs) - i - 1; p > 0 {
			fmt.Fprintf(&b, "*x^%d", p)
		}
	}
	fmt.Fprintf(&b, "  chi2/ndof = %.2f/%d = %.2f", r.Chi2, r.NDOF, r.ReducedChi2())
	return b.String()
}

// FitPolynomial fits a polynomial of the given order to (x, y) weighted by
// 1/sigma^2. Every sigma must be positive.
func FitPolynomial(x, y, sigma []float64, order int) (Result, error) {
	if order < 0 {
		return Result{}, fmt.Errorf("negative polynomial order %d", order)
	}
	if len(y) != len(x) || len(sigma) != len(x) {
		return Result{}, fmt.Errorf("fit: %d x, %d y, %d sigma", len(x), len(y), len(sigma))
	}
	npar := order + 1
	ndof := len(x) - npar
	if ndof <= 0 {
		return Result{}, &DegenerateFitError{Order: order, Points: len(x)}
	}

	// fit in u = x/scale to keep the design matrix well conditioned
	scale := math.Max(math.Abs(floats.Max(x)), math.Abs(floats.Min(x)))
	if scale == 0 {
		scale = 1
	}
	a := mat.NewDense(len(x), npar, nil)
	b := mat.NewDense(len(x), 1, nil)
	for i := range x {
		u := x[i] / scale
		for j := 0; j < npar; j++ {
			a.Set(i, j, math.Pow(u, float64(order-j))/sigma[i])
		}
		b.Set(i, 0, y[i]/sigma[i])
	}

	var qr mat.QR
	qr.Factorize(a)
	var sol mat.Dense
	if err := qr.SolveTo(&sol, false, b); err != nil {
		return Result{}, fmt.Errorf("order %d fit: %w", order, err)
	}

	res := Result{Order: order, Coeffs: make([]float64, npar), NDOF: ndof}
	for j := 0; j < npar; j++ {
		res.Coeffs[j] = sol.At(j, 0) / math.Pow(scale, float64(order-j))
	}
	for i := range x {
		r := (y[i] - res.Eval(x[i])) / sigma[i]
		res.Chi2 += r * r
	}
	return res, nil
}

// Input is one plotted variable's ratio histogram.
type Input struct {
	Variable string
	Centers  []float64
	Ratio    []float64
	Err      []float64
}

// Points are the bins that enter the fits.
type Points struct {
	X, Y, Err []float64
}

func (p Points) Len() int { return len(p.X) }

// Outcome holds the fits of every requested order. Errs is parallel to the
// requested orders and nil where the fit succeeded.
type Outcome struct {
	Variable string
	Points   Points
	Results  []Result
	Errs     []error
}

// Err joins the per-order failures.
func (o Outcome) Err() error { return errors.Join(o.Errs...) }

// Orchestrator drops degenerate bins, applies the variable's window if it
// has one and fits each order independently.
type Orchestrator struct {
	Windows map[string]Window
	Orders  []int
}

// NewOrchestrator fits orders 0 through 4 with the default windows.
func NewOrchestrator() *Orchestrator {
	return &Orchestrator{Windows: DefaultWindows(), Orders: []int{0, 1, 2, 3, 4}}
}

// Select returns the bins of in that can be fitted.
func (o *Orchestrator) Select(in Input) Points {
	degenerate := DegenerateBins(in.Ratio)
	w, windowed := o.Windows[in.Variable]
	var p Points
	for i, x := range in.Centers {
		if degenerate[i] || (windowed && !w.Contains(x)) {
			continue
		}
		if e := in.Err[i]; !(e > 0) || math.IsInf(e, 0) {
			slog.Info("bin without usable uncertainty left out of fit",
				"variable", in.Variable, "center", x, "ratio", in.Ratio[i], "error", e)
			continue
		}
		p.X = append(p.X, x)
		p.Y = append(p.Y, in.Ratio[i])
		p.Err = append(p.Err, in.Err[i])
	}
	return p
}

// Fit runs every order. A failing order does not stop the others.
func (o *Orchestrator) Fit(in Input) Outcome {
	out := Outcome{Variable: in.Variable, Points: o.Select(in)}
	for _, order := range o.Orders {
		r, err := FitPolynomial(out.Points.X, out.Points.Y, out.Points.Err, order)
		if err != nil {
			slog.Warn("fit failed", "variable", in.Variable, "order", order, "err", err)
			out.Errs = append(out.Errs, err)
			continue
		}
		out.Results = append(out.Results, r)
		out.Errs = append(out.Errs, nil)
	}
	return out
}
