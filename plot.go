// Package htauplot holds the plotting and flag helpers shared by the
// analysis commands.
package htauplot

import (
	"image/color"
	"math"

	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/decibelcooper/htauplot/binned"
	"github.com/decibelcooper/htauplot/fakefactor"
)

// OrderColors colors fit curves by polynomial order.
var OrderColors = []color.Color{
	color.RGBA{B: 255, A: 255},
	color.RGBA{R: 255, A: 255},
	color.RGBA{G: 160, A: 255},
	color.RGBA{R: 255, G: 105, B: 180, A: 255},
	color.RGBA{R: 128, B: 128, A: 255},
}

// OrderColor wraps around for orders past the palette.
func OrderColor(order int) color.Color { return OrderColors[order%len(OrderColors)] }

// ErrorPoints places a histogram's values at its bin centers with the bin
// half-width as x error.
func ErrorPoints(h binned.Hist) plotutil.ErrorPoints {
	n := h.Len()
	points := make(plotter.XYs, n)
	xErrors := make(plotter.XErrors, n)
	yErrors := make(plotter.YErrors, n)
	mids := binned.Midpoints(h.Edges)
	for i := range points {
		points[i].X = mids[i]
		points[i].Y = h.Values[i]
		halfWidth := (h.Edges[i+1] - h.Edges[i]) / 2
		xErrors[i].Low = halfWidth
		xErrors[i].High = halfWidth
		yErrors[i].Low = h.Errors[i]
		yErrors[i].High = h.Errors[i]
	}
	return plotutil.ErrorPoints{XYs: points, XErrors: xErrors, YErrors: yErrors}
}

// AddPoints draws h as markers with error bars.
func AddPoints(p *plot.Plot, h binned.Hist, c color.Color, label string) error {
	errPoints := ErrorPoints(h)
	scatter, err := plotter.NewScatter(errPoints)
	if err != nil {
		return err
	}
	xerr, err := plotter.NewXErrorBars(errPoints)
	if err != nil {
		return err
	}
	yerr, err := plotter.NewYErrorBars(errPoints)
	if err != nil {
		return err
	}
	scatter.GlyphStyle.Color = c
	scatter.GlyphStyle.Radius = vg.Points(2)
	xerr.LineStyle.Color = c
	yerr.LineStyle.Color = c

	p.Add(scatter, xerr, yerr)
	if label != "" {
		p.Legend.Add(label, scatter)
	}
	return nil
}

// AddFit draws r over [min, max].
func AddFit(p *plot.Plot, r fakefactor.Result, min, max float64, label string) error {
	const n = 100
	xys := make(plotter.XYs, n+1)
	for i := range xys {
		x := min + (max-min)*float64(i)/n
		xys[i].X = x
		xys[i].Y = r.Eval(x)
	}
	line, err := plotter.NewLine(xys)
	if err != nil {
		return err
	}
	line.LineStyle.Color = OrderColor(r.Order)
	line.LineStyle.Width = vg.Points(1.5)
	p.Add(line)
	p.Legend.Add(label, line)
	return nil
}

// Stack draws simulated histograms on top of each other, first at the
// bottom.
func Stack(p *hplot.Plot, hs []binned.Hist, labels []string, colors []color.Color) {
	if len(hs) == 0 {
		return
	}
	stacked := make([]*hplot.H1D, len(hs))
	for i, h := range hs {
		stacked[i] = hplot.NewH1D(binned.Fill(binned.Midpoints(h.Edges), h.Values, h.Edges))
		stacked[i].FillColor = colors[i%len(colors)]
		stacked[i].LineStyle.Width = 0
		p.Legend.Add(labels[i], stacked[i])
	}
	p.Add(hplot.NewHStack(stacked))
}

// Save writes prefix.pdf and prefix.png.
func Save(p *plot.Plot, prefix string) error {
	for _, ext := range []string{".pdf", ".png"} {
		if err := p.Save(6*vg.Inch, 4*vg.Inch, prefix+ext); err != nil {
			return err
		}
	}
	return nil
}

// Range returns the span of the points in h that have a value; ok is false
// when none do.
func Range(h binned.Hist) (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	mids := binned.Midpoints(h.Edges)
	for i, v := range h.Values {
		if v == 0 || math.IsNaN(v) {
			continue
		}
		lo = math.Min(lo, mids[i])
		hi = math.Max(hi, mids[i])
	}
	return lo, hi, lo <= hi
}
