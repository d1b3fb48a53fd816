package response

import (
	"math"

	"go-hep.org/x/hep/hbook"
)

// Normalization selects how a response matrix is scaled to unity.
type Normalization int

const (
	// Raw leaves the weighted counts.
	Raw Normalization = iota
	// Row scales every reconstructed bin to one, showing which generator
	// bins feed it.
	Row
	// Column scales every generator bin to one, showing how it smears over
	// reconstructed bins.
	Column
)

func (n Normalization) String() string {
	switch n {
	case Row:
		return "row"
	case Column:
		return "column"
	default:
		return "raw"
	}
}

// Matrix is a generator (x) versus reconstructed (y) histogram. It
// satisfies plotter.GridXYZ with bins indexed by column and row.
type Matrix struct {
	h    *hbook.H2D
	Norm Normalization
}

// NewMatrix books a matrix with generator bins xEdges and reconstructed
// bins yEdges.
func NewMatrix(xEdges, yEdges []float64) *Matrix {
	return &Matrix{h: hbook.NewH2DFromEdges(xEdges, yEdges)}
}

// Fill adds one event. Events with a NaN coordinate are skipped, values
// outside the edges land in the histogram's outflow and are not shown.
func (m *Matrix) Fill(gen, reco, w float64) {
	if math.IsNaN(gen) || math.IsNaN(reco) {
		return
	}
	m.h.Fill(gen, reco, w)
}

// FillN fills paired generator and reconstructed values; nil weights count
// events.
func (m *Matrix) FillN(gen, reco, ws []float64) error {
	if err := paired(reco, gen); err != nil {
		return err
	}
	for i := range gen {
		w := 1.0
		if ws != nil {
			w = ws[i]
		}
		m.Fill(gen[i], reco[i], w)
	}
	return nil
}

// Normalized shares the counts of m under another normalization.
func (m *Matrix) Normalized(n Normalization) *Matrix {
	return &Matrix{h: m.h, Norm: n}
}

// Integral is the weighted count inside the edges.
func (m *Matrix) Integral() float64 {
	nx, ny := m.Dims()
	var sum float64
	for i := 0; i < nx; i++ {
		for j := 0; j < ny; j++ {
			sum += m.count(i, j)
		}
	}
	return sum
}

func (m *Matrix) Dims() (c, r int) { return m.h.GridXYZ().Dims() }

func (m *Matrix) count(c, r int) float64 { return m.h.GridXYZ().Z(c, r) }

// Z is the content of generator bin c and reconstructed bin r under Norm.
// Rows or columns without entries are zero.
func (m *Matrix) Z(c, r int) float64 {
	v := m.count(c, r)
	nx, ny := m.Dims()
	var total float64
	switch m.Norm {
	case Row:
		for i := 0; i < nx; i++ {
			total += m.count(i, r)
		}
	case Column:
		for j := 0; j < ny; j++ {
			total += m.count(c, j)
		}
	default:
		return v
	}
	if total == 0 {
		return 0
	}
	return v / total
}

// X and Y return bin indices centered in their cells, so uneven bins
// draw as equal squares.
func (m *Matrix) X(c int) float64 { return float64(c) + 0.5 }

func (m *Matrix) Y(r int) float64 { return float64(r) + 0.5 }
