package event

import (
	"fmt"
	"log/slog"
)

// Filter keeps only the rows listed in the mask named maskName.
//
// Branches named in protected are left as they are and must already hold
// one entry per selected row. The consumed mask is dropped and every other
// stored mask is renumbered to the new rows. An empty mask returns
// ErrEmptySelection and leaves t untouched.
func Filter(t *Table, maskName string, protected []string) (*Table, error) {
	m, ok := t.Mask(maskName)
	if !ok {
		return nil, fmt.Errorf("filter: %w: mask %s", ErrMissingBranch, maskName)
	}
	if len(m) == 0 {
		slog.Info("all events removed, sample deleted", "mask", maskName, "events", t.n)
		return nil, fmt.Errorf("%s: %w", maskName, ErrEmptySelection)
	}

	keep := make(map[string]bool, len(protected))
	for _, name := range protected {
		keep[name] = true
	}

	out := NewTable(len(m))
	for _, name := range t.order {
		c := t.cols[name]
		if keep[name] {
			if c.Len() != len(m) {
				return nil, fmt.Errorf("filter %s: %w", maskName, &MisalignedError{Branch: name, Len: c.Len(), Want: len(m)})
			}
			out.Set(name, c)
			continue
		}
		if c.Len() != t.n {
			return nil, fmt.Errorf("filter %s: %w", maskName, &MisalignedError{Branch: name, Len: c.Len(), Want: t.n})
		}
		slog.Debug("cutting branch", "branch", name)
		out.Set(name, c.Take(m))
	}
	for name, other := range t.masks {
		if name == maskName {
			continue
		}
		out.masks[name] = remap(other, m)
	}
	return out, nil
}

// Select stores m under maskName and filters by it.
func Select(t *Table, maskName string, m Mask, protected []string) (*Table, error) {
	t.SetMask(maskName, m)
	return Filter(t, maskName, protected)
}
