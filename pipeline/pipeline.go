// Package pipeline runs the per-dataset chain shared by the commands: load,
// run cut, final-state cuts, region, jet multiplicity, Drell-Yan flavor
// split and accumulation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/decibelcooper/htauplot/branches"
	"github.com/decibelcooper/htauplot/dataset"
	"github.com/decibelcooper/htauplot/event"
	"github.com/decibelcooper/htauplot/jets"
	"github.com/decibelcooper/htauplot/selection"
)

// Options describe one pass over the datasets.
type Options struct {
	FinalState branches.FinalState
	Era        string
	DeepTau    branches.DeepTauVersion
	JetMode    branches.JetMode
	// Processes are the dataset names to run over, in order.
	Processes []string
	// Selection is applied while loading, Region after the final-state
	// cuts. Either may be nil.
	Selection *dataset.Selection
	Region    *dataset.Selection
	GoodRuns  []uint32
	// VsJetMin, when positive, replaces the vs-jet working point of the
	// final-state taus.
	VsJetMin int64
	// Vars are the plotted variables kept in each entry.
	Vars []string
}

// Runner owns the source the datasets are loaded from.
type Runner struct {
	Source dataset.Source
}

// Run processes every dataset of opts. Datasets that are missing, fail, or
// keep no events are logged and skipped.
func (r *Runner) Run(ctx context.Context, opts Options) (*dataset.Accumulator, error) {
	use, _, err := dataset.DatasetsFor(opts.FinalState)
	if err != nil {
		return nil, err
	}
	acc := dataset.NewAccumulator()
	for _, process := range opts.Processes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if branches.RoleOf(process) == branches.Data && process != use {
			slog.Debug("skipping data stream", "dataset", process, "final_state", opts.FinalState)
			continue
		}
		entries, err := r.Process(ctx, opts, process)
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil, err
		case errors.Is(err, dataset.ErrNotFound):
			slog.Warn("dataset not found", "dataset", process)
			continue
		case errors.Is(err, event.ErrEmptySelection):
			slog.Info("no events left", "dataset", process, "err", err)
			continue
		case err != nil:
			slog.Error("dataset skipped", "dataset", process, "err", err)
			continue
		}
		for _, e := range entries {
			if err := acc.Add(e); err != nil {
				return nil, err
			}
		}
	}
	return acc, nil
}

// Process runs the chain for one dataset. Drell-Yan samples of channels
// with taus come back as one entry per flavor, named like
// "DYGen_DYJetsToLL_M-50_0JNLO".
func (r *Runner) Process(ctx context.Context, opts Options, process string) ([]*dataset.Entry, error) {
	cat, err := branches.New(branches.Params{
		FinalState: opts.FinalState,
		Era:        opts.Era,
		DeepTau:    opts.DeepTau,
		Process:    process,
		Extra:      Extra(opts.Selection, opts.Region),
	})
	if err != nil {
		return nil, err
	}

	t, meta, err := r.Source.Load(ctx, process, cat.Branches(), opts.Selection)
	if err != nil {
		return nil, err
	}
	if t.Len() == 0 {
		return nil, fmt.Errorf("%s: loading selection: %w", process, event.ErrEmptySelection)
	}
	if meta.Role == branches.Data && len(opts.GoodRuns) > 0 {
		if t, err = selection.ApplyRunCut(t, opts.GoodRuns); err != nil {
			return nil, err
		}
	}
	var fsOpts []selection.Option
	if opts.VsJetMin > 0 {
		fsOpts = append(fsOpts, selection.VsJetMin(opts.VsJetMin))
	}
	if t, err = selection.ApplyFinalState(t, opts.FinalState, opts.DeepTau, fsOpts...); err != nil {
		return nil, err
	}
	if opts.Region != nil {
		if t, err = opts.Region.Apply(t); err != nil {
			return nil, err
		}
		if t.Len() == 0 {
			return nil, fmt.Errorf("%s: region %q: %w", process, opts.Region, event.ErrEmptySelection)
		}
	}
	if t, err = jets.Apply(t, opts.JetMode); err != nil {
		return nil, err
	}

	split := meta.Role != branches.Data && opts.FinalState.HasTau()
	if split {
		if err := selection.AppendFlavor(t, opts.FinalState); err != nil {
			return nil, err
		}
	}
	if !split || !strings.Contains(process, "DY") {
		e, err := dataset.NewEntry(meta, t, opts.Vars)
		if err != nil {
			return nil, err
		}
		return []*dataset.Entry{e}, nil
	}

	views, err := selection.SplitByFlavor(t)
	if err != nil {
		return nil, err
	}
	var out []*dataset.Entry
	for _, flavor := range []string{selection.DYGen, selection.DYLep, selection.DYJet} {
		v := views[flavor]
		if v.Len() == 0 {
			slog.Info("empty flavor", "dataset", process, "flavor", flavor)
			continue
		}
		ft, err := v.Materialize(nil)
		if err != nil {
			return nil, err
		}
		m := meta
		m.Name = flavor + "_" + process
		e, err := dataset.NewEntry(m, ft, opts.Vars)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// Extra lists the source branches the selections read. Names that are not
// source branches, such as derived FS_* columns, are left out.
func Extra(sels ...*dataset.Selection) []branches.Branch {
	seen := map[string]bool{}
	var out []branches.Branch
	for _, s := range sels {
		if s == nil {
			continue
		}
		for _, name := range s.Branches() {
			b := branches.Branch(name)
			if seen[name] || !branches.Known(b) {
				continue
			}
			seen[name] = true
			out = append(out, b)
		}
	}
	return out
}

// Processes returns the dataset names of a file map in a stable order,
// data first.
func Processes(fileMap map[string]string, only []string) []string {
	if len(only) > 0 {
		return append([]string(nil), only...)
	}
	names := make([]string, 0, len(fileMap))
	for name := range fileMap {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		di := branches.RoleOf(names[i]) == branches.Data
		dj := branches.RoleOf(names[j]) == branches.Data
		if di != dj {
			return di
		}
		return names[i] < names[j]
	})
	return names
}

var groups = []struct{ prefix, group string }{
	{selection.DYGen, selection.DYGen},
	{selection.DYLep, selection.DYLep},
	{selection.DYJet, selection.DYJet},
	{"DY", "DY"},
	{"TT", "TT"},
	{"ST_", "ST"},
	{"WJets", "WJ"},
	{"WW", "VV"},
	{"WZ", "VV"},
	{"ZZ", "VV"},
}

// Group is the stack entry a dataset is drawn in.
func Group(name string) string {
	for _, g := range groups {
		if strings.HasPrefix(name, g.prefix) {
			return g.group
		}
	}
	return name
}
