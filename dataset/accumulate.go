package dataset

import (
	"fmt"
	"log/slog"

	"github.com/decibelcooper/htauplot/branches"
	"github.com/decibelcooper/htauplot/event"
)

// MCWeights multiply into the per-event weight of simulated samples.
var MCWeights = []string{
	"Generator_weight", "Weight_TTbar_NNLO", "TauSFweight", "MuSFweight",
	"ElSFweight", "BTagSFfull", "PUweight", "Weight_DY_Zpt",
}

// FFWeightBranch is the fake factor weight some data samples carry.
const FFWeightBranch = "FF_weight"

// Entry is what is kept of one dataset after all cuts: the plotted
// variables, the weights and the masks still stored on the table.
type Entry struct {
	Meta       Metadata
	PlotEvents map[string]event.Floats
	// Weights holds MCWeights for simulation and FFWeightBranch for data
	// when present.
	Weights map[string]event.Floats
	Cuts    map[string]event.Mask
	// Flavor is set when the table carried an event_flavor branch.
	Flavor event.Strings
}

// Len is the number of events.
func (e *Entry) Len() int {
	for _, v := range e.PlotEvents {
		return len(v)
	}
	return 0
}

// NewEntry copies vars from a filtered table. Missing simulation weights
// are taken as one.
func NewEntry(meta Metadata, t *event.Table, vars []string) (*Entry, error) {
	e := &Entry{
		Meta:       meta,
		PlotEvents: make(map[string]event.Floats, len(vars)),
		Weights:    make(map[string]event.Floats),
		Cuts:       make(map[string]event.Mask),
	}
	for _, v := range vars {
		c, err := t.Column(v)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", meta.Name, err)
		}
		f, err := event.AsFloats(c)
		if err != nil {
			return nil, fmt.Errorf("%s: %s: %w", meta.Name, v, err)
		}
		e.PlotEvents[v] = f
	}

	if meta.Role == branches.Data {
		if w, err := t.Floats(FFWeightBranch); err == nil {
			e.Weights[FFWeightBranch] = w
		}
	} else {
		for _, name := range MCWeights {
			w, err := t.Floats(name)
			if err != nil {
				slog.Debug("weight missing, using one", "dataset", meta.Name, "weight", name)
				w = ones(t.Len())
			}
			e.Weights[name] = w
		}
	}

	for _, name := range t.Masks() {
		m, _ := t.Mask(name)
		e.Cuts[name] = m
	}
	if f, err := t.Strings("event_flavor"); err == nil {
		e.Flavor = f
	}
	return e, nil
}

func ones(n int) event.Floats {
	w := make(event.Floats, n)
	for i := range w {
		w[i] = 1
	}
	return w
}

// Accumulator collects the entries of every processed dataset in the order
// they were added.
type Accumulator struct {
	entries []*Entry
	names   map[string]bool
}

func NewAccumulator() *Accumulator {
	return &Accumulator{names: make(map[string]bool)}
}

// Add stores e under its dataset name, which must be new.
func (a *Accumulator) Add(e *Entry) error {
	if a.names[e.Meta.Name] {
		return fmt.Errorf("dataset %s accumulated twice", e.Meta.Name)
	}
	a.names[e.Meta.Name] = true
	a.entries = append(a.entries, e)
	return nil
}

func (a *Accumulator) Len() int { return len(a.entries) }

// Entries returns every entry in insertion order.
func (a *Accumulator) Entries() []*Entry { return a.entries }

// Sort splits the entries into data, background and signal.
func (a *Accumulator) Sort() (data, background, signal []*Entry) {
	for _, e := range a.entries {
		switch e.Meta.Role {
		case branches.Data:
			data = append(data, e)
		case branches.Signal:
			signal = append(signal, e)
		default:
			background = append(background, e)
		}
	}
	return data, background, signal
}
