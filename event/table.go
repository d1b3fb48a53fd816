// Package event holds the in-memory columnar event table, its row masks and
// the row filter that applies a mask to every branch.
package event

import (
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrMissingBranch is returned when a requested branch is not loaded.
	ErrMissingBranch = errors.New("missing branch")
	// ErrBranchType is returned when a branch holds a different column kind.
	ErrBranchType = errors.New("unexpected branch type")
	// ErrEmptySelection means a cut removed every event; the dataset should
	// be skipped.
	ErrEmptySelection = errors.New("all events removed by selection")
)

// Table maps branch names to columns. Columns normally hold N entries; the
// exception is derived branches added by a selection that are aligned with
// a mask which has not been applied yet.
type Table struct {
	n     int
	cols  map[string]Column
	order []string
	masks map[string]Mask
}

// NewTable returns an empty table of n events.
func NewTable(n int) *Table {
	return &Table{
		n:     n,
		cols:  make(map[string]Column),
		masks: make(map[string]Mask),
	}
}

// Len is the number of events.
func (t *Table) Len() int { return t.n }

// Branches lists branch names in insertion order.
func (t *Table) Branches() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}

func (t *Table) Has(name string) bool {
	_, ok := t.cols[name]
	return ok
}

// Set adds or replaces a branch. No length check is made; see Validate.
func (t *Table) Set(name string, c Column) {
	if _, ok := t.cols[name]; !ok {
		t.order = append(t.order, name)
	}
	t.cols[name] = c
}

// Delete removes a branch.
func (t *Table) Delete(name string) {
	if _, ok := t.cols[name]; !ok {
		return
	}
	delete(t.cols, name)
	for i, n := range t.order {
		if n == name {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// Column returns a branch of any kind.
func (t *Table) Column(name string) (Column, error) {
	c, ok := t.cols[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingBranch, name)
	}
	return c, nil
}

func lookup[C Column](t *Table, name string) (C, error) {
	var zero C
	c, ok := t.cols[name]
	if !ok {
		return zero, fmt.Errorf("%w: %s", ErrMissingBranch, name)
	}
	typed, ok := c.(C)
	if !ok {
		return zero, fmt.Errorf("%w: %s is %T, want %T", ErrBranchType, name, c, zero)
	}
	return typed, nil
}

func (t *Table) Floats(name string) (Floats, error)           { return lookup[Floats](t, name) }
func (t *Table) Ints(name string) (Ints, error)               { return lookup[Ints](t, name) }
func (t *Table) Bools(name string) (Bools, error)             { return lookup[Bools](t, name) }
func (t *Table) Strings(name string) (Strings, error)         { return lookup[Strings](t, name) }
func (t *Table) FloatArrays(name string) (FloatArrays, error) { return lookup[FloatArrays](t, name) }
func (t *Table) IntArrays(name string) (IntArrays, error)     { return lookup[IntArrays](t, name) }

// SetMask stores a named row mask.
func (t *Table) SetMask(name string, m Mask) { t.masks[name] = m }

// Mask returns a stored mask.
func (t *Table) Mask(name string) (Mask, bool) {
	m, ok := t.masks[name]
	return m, ok
}

// Masks lists stored mask names, sorted.
func (t *Table) Masks() []string {
	out := make([]string, 0, len(t.masks))
	for name := range t.masks {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Validate reports every branch whose length differs from the event count.
func (t *Table) Validate() error {
	var errs []error
	for _, name := range t.order {
		if l := t.cols[name].Len(); l != t.n {
			errs = append(errs, &MisalignedError{Branch: name, Len: l, Want: t.n})
		}
	}
	return errors.Join(errs...)
}

// Clone returns a shallow copy: branch and mask maps are copied, column data
// is shared. Columns are never modified in place, so this is safe.
func (t *Table) Clone() *Table {
	c := NewTable(t.n)
	for _, name := range t.order {
		c.Set(name, t.cols[name])
	}
	for name, m := range t.masks {
		c.masks[name] = m
	}
	return c
}

// Concat appends the events of other, which must carry the same branches.
// Masks are dropped.
func (t *Table) Concat(other *Table) (*Table, error) {
	if len(t.order) != len(other.order) {
		return nil, fmt.Errorf("concat: %d branches vs %d", len(t.order), len(other.order))
	}
	out := NewTable(t.n + other.n)
	for _, name := range t.order {
		oc, ok := other.cols[name]
		if !ok {
			return nil, fmt.Errorf("concat: %w: %s", ErrMissingBranch, name)
		}
		c, err := t.cols[name].Append(oc)
		if err != nil {
			return nil, fmt.Errorf("concat %s: %w", name, err)
		}
		out.Set(name, c)
	}
	return out, nil
}

// MisalignedError reports a branch whose length does not match the rows it
// should describe.
type MisalignedError struct {
	Branch string
	Len    int
	Want   int
}

func (e *MisalignedError) Error() string {
	return fmt.Sprintf("branch %s has %d entries, want %d", e.Branch, e.Len, e.Want)
}
