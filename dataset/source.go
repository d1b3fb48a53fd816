// Package dataset loads skimmed samples into event tables and collects the
// selected events of every sample for histogramming.
package dataset

import (
	"context"
	"errors"
	"fmt"

	"github.com/decibelcooper/htauplot/branches"
	"github.com/decibelcooper/htauplot/event"
)

// ErrNotFound is returned when no file matches a dataset. A dataset whose
// files hold no events is not an error.
var ErrNotFound = errors.New("dataset not found")

// Source loads the named dataset, reading only the given branches and
// keeping only events passing sel (nil keeps everything).
type Source interface {
	Load(ctx context.Context, name string, bs []branches.Branch, sel *Selection) (*event.Table, Metadata, error)
}

// Metadata describes one dataset. It is built once when the dataset is
// loaded and not modified afterwards.
type Metadata struct {
	Name string
	Role branches.Role
	// NWEvents is the sum of generator weights before skimming.
	NWEvents float64
	// XSec is the cross section in pb.
	XSec float64
}

// Branches holding the normalization of simulated samples. They are
// constant per sample and removed from the table once read.
const (
	nwEventsBranch = "NWEvents"
	xsecBranch     = "XSecMCweight"
)

// ExtractMetadata reads the normalization of a simulated sample from its
// first event and removes the per-event copies from t.
func ExtractMetadata(name string, t *event.Table) (Metadata, error) {
	m := Metadata{Name: name, Role: branches.RoleOf(name)}
	if m.Role == branches.Data {
		return m, nil
	}
	nw, err := firstValue(t, nwEventsBranch)
	if err != nil {
		return m, fmt.Errorf("%s: %w", name, err)
	}
	xsec, err := firstValue(t, xsecBranch)
	if err != nil {
		return m, fmt.Errorf("%s: %w", name, err)
	}
	m.NWEvents, m.XSec = nw, xsec
	t.Delete(nwEventsBranch)
	t.Delete(xsecBranch)
	return m, nil
}

func firstValue(t *event.Table, name string) (float64, error) {
	c, err := t.Column(name)
	if err != nil {
		return 0, err
	}
	v, err := event.AsFloats(c)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if len(v) == 0 {
		return 0, nil
	}
	return v[0], nil
}
