package event

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

// Mask is an ascending list of row indices of a table that pass a selection.
type Mask []int

// FullMask selects every row of an n-row table.
func FullMask(n int) Mask {
	m := make(Mask, n)
	for i := range m {
		m[i] = i
	}
	return m
}

// MaskOf builds a mask from arbitrary row indices, sorting and de-duplicating.
func MaskOf(rows ...int) Mask {
	b := roaring.New()
	for _, r := range rows {
		b.Add(uint32(r))
	}
	return MaskFromBitmap(b)
}

// MaskFromBitmap lists the rows set in b.
func MaskFromBitmap(b *roaring.Bitmap) Mask {
	vals := b.ToArray()
	m := make(Mask, len(vals))
	for i, v := range vals {
		m[i] = int(v)
	}
	return m
}

// Bitmap returns the mask as a roaring bitmap.
func (m Mask) Bitmap() *roaring.Bitmap {
	b := roaring.New()
	for _, r := range m {
		b.Add(uint32(r))
	}
	return b
}

func (m Mask) Len() int { return len(m) }

// Contains reports whether row is selected.
func (m Mask) Contains(row int) bool {
	i := sort.SearchInts(m, row)
	return i < len(m) && m[i] == row
}

// Union returns the rows selected by any of the masks.
func Union(masks ...Mask) Mask {
	bs := make([]*roaring.Bitmap, len(masks))
	for i, m := range masks {
		bs[i] = m.Bitmap()
	}
	return MaskFromBitmap(roaring.FastOr(bs...))
}

// Intersect returns the rows selected by both masks.
func Intersect(a, b Mask) Mask {
	return MaskFromBitmap(roaring.And(a.Bitmap(), b.Bitmap()))
}

// remap expresses the rows of m that survive sel in sel's numbering: row
// sel[k] becomes k.
func remap(m, sel Mask) Mask {
	out := make(Mask, 0, len(m))
	i, j := 0, 0
	for i < len(m) && j < len(sel) {
		switch {
		case m[i] == sel[j]:
			out = append(out, j)
			i++
			j++
		case m[i] < sel[j]:
			i++
		default:
			j++
		}
	}
	return out
}
