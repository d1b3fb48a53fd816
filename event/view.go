package event

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// View is a read-only subset of the rows of a base table. Several views can
// share one base without copying it.
type View struct {
	base *Table
	rows *roaring.Bitmap
}

// NewView selects rows of base. Rows outside the table are ignored.
func NewView(base *Table, rows Mask) View {
	b := rows.Bitmap()
	b.RemoveRange(uint64(base.Len()), uint64(1)<<32)
	return View{base: base, rows: b}
}

func (v View) Len() int { return int(v.rows.GetCardinality()) }

// Rows lists the selected rows of the base table.
func (v View) Rows() Mask { return MaskFromBitmap(v.rows) }

// Materialize copies the selected rows into an independent table. Masks of
// the base table are renumbered; an empty view yields ErrEmptySelection.
func (v View) Materialize(protected []string) (*Table, error) {
	const name = "pass_view"
	t := v.base.Clone()
	return Select(t, name, v.Rows(), protected)
}
