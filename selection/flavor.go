package selection

import (
	"fmt"

	"github.com/decibelcooper/htauplot/branches"
	"github.com/decibelcooper/htauplot/event"
)

// FlavorBranch holds one of the Flavor values per event.
const FlavorBranch = "event_flavor"

// Flavor is the generator-level origin of the selected tau candidates.
type Flavor string

const (
	Genuine Flavor = "G"
	LepFake Flavor = "L"
	JetFake Flavor = "J"
)

// Tau_genPartFlav codes.
const (
	unmatchT = 0
	genuineT = 5
)

// flavorOf combines Tau_genPartFlav codes: any unmatched candidate makes the
// event a jet fake, all genuine taus make it genuine, anything else is a
// lepton faking a tau.
func flavorOf(codes ...int64) Flavor {
	genuine := true
	for _, c := range codes {
		if c == unmatchT {
			return JetFake
		}
		if c != genuineT {
			genuine = false
		}
	}
	if genuine {
		return Genuine
	}
	return LepFake
}

// AppendFlavor adds FlavorBranch to a table that has passed ApplyFinalState
// for a channel with tau candidates. Data has no Tau_genPartFlav and fails.
func AppendFlavor(t *event.Table, fs branches.FinalState) error {
	if !fs.HasTau() {
		return fmt.Errorf("flavor: final state %v has no tau candidates", fs)
	}
	flav, err := t.IntArrays("Tau_genPartFlav")
	if err != nil {
		return fmt.Errorf("flavor: %w", err)
	}

	var taus func(row int) ([]int64, bool)
	if fs == branches.Ditau {
		tauIdx, err := t.IntArrays(TauRole.Source)
		if err != nil {
			return err
		}
		l1, err := t.Ints(L1Index)
		if err != nil {
			return err
		}
		l2, err := t.Ints(L2Index)
		if err != nil {
			return err
		}
		taus = func(row int) ([]int64, bool) {
			b1, ok1 := intAt(tauIdx[row], l1[row])
			b2, ok2 := intAt(tauIdx[row], l2[row])
			return []int64{b1, b2}, ok1 && ok2
		}
	} else {
		idx, err := t.Ints(TauRole.IndexBranch())
		if err != nil {
			return err
		}
		taus = func(row int) ([]int64, bool) { return []int64{idx[row]}, idx[row] != NoMatch }
	}

	out := make(event.Strings, t.Len())
	for i := range out {
		idx, ok := taus(i)
		if !ok {
			return fmt.Errorf("flavor: event %d has no resolved tau", i)
		}
		codes := make([]int64, len(idx))
		for k, b := range idx {
			c, ok := intAt(flav[i], b)
			if !ok {
				return fmt.Errorf("flavor: event %d: tau %d outside Tau_genPartFlav", i, b)
			}
			codes[k] = c
		}
		out[i] = string(flavorOf(codes...))
	}
	t.Set(FlavorBranch, out)
	return nil
}

// Flavor views of one Drell-Yan sample.
const (
	DYGen = "DYGen"
	DYLep = "DYLep"
	DYJet = "DYJet"
)

// SplitByFlavor partitions t by FlavorBranch into views keyed DYGen, DYLep
// and DYJet. The views share t, which must not be modified while they are
// in use.
func SplitByFlavor(t *event.Table) (map[string]event.View, error) {
	flav, err := t.Strings(FlavorBranch)
	if err != nil {
		return nil, err
	}
	rows := map[Flavor][]int{}
	for i, f := range flav {
		rows[Flavor(f)] = append(rows[Flavor(f)], i)
	}
	return map[string]event.View{
		DYGen: event.NewView(t, rows[Genuine]),
		DYLep: event.NewView(t, rows[LepFake]),
		DYJet: event.NewView(t, rows[JetFake]),
	}, nil
}
