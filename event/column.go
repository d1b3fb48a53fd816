package event

import (
	"fmt"
)

// Column is one branch of an event table: one entry per event.
type Column interface {
	Len() int
	// Take returns a new column holding the entries at idx, in idx order.
	Take(idx []int) Column
	// Append returns a new column with other's entries after the receiver's.
	Append(other Column) (Column, error)
}

type Floats []float64
type Ints []int64
type Bools []bool
type Strings []string
type FloatArrays [][]float64
type IntArrays [][]int64

func (c Floats) Len() int      { return len(c) }
func (c Ints) Len() int        { return len(c) }
func (c Bools) Len() int       { return len(c) }
func (c Strings) Len() int     { return len(c) }
func (c FloatArrays) Len() int { return len(c) }
func (c IntArrays) Len() int   { return len(c) }

func (c Floats) Take(idx []int) Column      { return take(c, idx) }
func (c Ints) Take(idx []int) Column        { return take(c, idx) }
func (c Bools) Take(idx []int) Column       { return take(c, idx) }
func (c Strings) Take(idx []int) Column     { return take(c, idx) }
func (c FloatArrays) Take(idx []int) Column { return take(c, idx) }
func (c IntArrays) Take(idx []int) Column   { return take(c, idx) }

func (c Floats) Append(o Column) (Column, error)      { return appendCol(c, o) }
func (c Ints) Append(o Column) (Column, error)        { return appendCol(c, o) }
func (c Bools) Append(o Column) (Column, error)       { return appendCol(c, o) }
func (c Strings) Append(o Column) (Column, error)     { return appendCol(c, o) }
func (c FloatArrays) Append(o Column) (Column, error) { return appendCol(c, o) }
func (c IntArrays) Append(o Column) (Column, error)   { return appendCol(c, o) }

// AsFloats converts numeric scalar columns to float64 values, which is what
// histograms are filled with.
func AsFloats(c Column) (Floats, error) {
	switch c := c.(type) {
	case Floats:
		return c, nil
	case Ints:
		out := make(Floats, len(c))
		for i, v := range c {
			out[i] = float64(v)
		}
		return out, nil
	case Bools:
		out := make(Floats, len(c))
		for i, v := range c {
			if v {
				out[i] = 1
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("column of type %T is not a numeric scalar", c)
	}
}

func take[S ~[]E, E any](s S, idx []int) Column {
	out := make(S, len(idx))
	for i, j := range idx {
		out[i] = s[j]
	}
	return any(out).(Column)
}

func appendCol[S ~[]E, E any](s S, o Column) (Column, error) {
	other, ok := o.(S)
	if !ok {
		return nil, fmt.Errorf("cannot append %T to %T", o, s)
	}
	out := make(S, 0, len(s)+len(other))
	out = append(out, s...)
	out = append(out, other...)
	return any(out).(Column), nil
}
