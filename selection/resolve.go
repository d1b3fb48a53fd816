package selection

import (
	"fmt"
	"log/slog"

	"github.com/decibelcooper/htauplot/event"
)

// NoMatch marks a lepton slot that is not the object a role asks for, both
// in the Lepton_*Idx source branches and in resolved index branches.
const NoMatch = -1

// Resolved index branches.
const (
	L1Index = "l1_index"
	L2Index = "l2_index"
)

// AppendLeptonIndices splits the FSLeptons pair of every event into the
// l1_index and l2_index branches. Rows with more than two entries are
// reported and use the first two; rows with fewer get NoMatch.
func AppendLeptonIndices(t *event.Table) error {
	pairs, err := t.IntArrays("FSLeptons")
	if err != nil {
		return err
	}
	l1 := make(event.Ints, len(pairs))
	l2 := make(event.Ints, len(pairs))
	for i, pair := range pairs {
		l1[i], l2[i] = NoMatch, NoMatch
		switch {
		case len(pair) > 2:
			slog.Warn("more than one final-state pair", "row", i, "FSLeptons", pair)
			fallthrough
		case len(pair) == 2:
			l1[i], l2[i] = pair[0], pair[1]
		default:
			slog.Warn("incomplete final-state pair", "row", i, "FSLeptons", pair)
		}
	}
	t.Set(L1Index, l1)
	t.Set(L2Index, l2)
	return nil
}

// Role names an object type that one of the two final-state leptons must
// be, and the branch mapping lepton slots to that object's own branches.
type Role struct {
	Name   string
	Source string
}

var (
	TauRole      = Role{Name: "tau", Source: "Lepton_tauIdx"}
	MuonRole     = Role{Name: "muon", Source: "Lepton_muIdx"}
	ElectronRole = Role{Name: "electron", Source: "Lepton_elIdx"}
)

// SlotBranch holds, per event, the lepton slot that plays the role.
func (r Role) SlotBranch() string { return r.Name + "_slot" }

// IndexBranch holds, per event, the position of the role's object in its
// own branches (Tau_*, Muon_*, Electron_*).
func (r Role) IndexBranch() string { return r.Name + "_branch_index" }

// ResolveRoles decides which of the two final-state leptons plays role a and
// which plays role b. Exactly one assignment must match; events where none
// or both do are left unresolved (NoMatch everywhere) and fail every
// selection. It returns the number of unresolved events.
func ResolveRoles(t *event.Table, a, b Role) (int, error) {
	l1, err := t.Ints(L1Index)
	if err != nil {
		return 0, fmt.Errorf("resolve roles: %w (call AppendLeptonIndices first)", err)
	}
	l2, err := t.Ints(L2Index)
	if err != nil {
		return 0, err
	}
	aIdx, err := t.IntArrays(a.Source)
	if err != nil {
		return 0, err
	}
	bIdx, err := t.IntArrays(b.Source)
	if err != nil {
		return 0, err
	}

	n := t.Len()
	aSlot, aBranch := make(event.Ints, n), make(event.Ints, n)
	bSlot, bBranch := make(event.Ints, n), make(event.Ints, n)
	unresolved := 0
	for i := 0; i < n; i++ {
		aSlot[i], aBranch[i], bSlot[i], bBranch[i] = NoMatch, NoMatch, NoMatch, NoMatch
		fwd := matches(aIdx[i], l1[i]) && matches(bIdx[i], l2[i])
		rev := matches(aIdx[i], l2[i]) && matches(bIdx[i], l1[i])
		switch {
		case fwd && !rev:
			aSlot[i], bSlot[i] = l1[i], l2[i]
		case rev && !fwd:
			aSlot[i], bSlot[i] = l2[i], l1[i]
		default:
			unresolved++
			continue
		}
		aBranch[i] = aIdx[i][aSlot[i]]
		bBranch[i] = bIdx[i][bSlot[i]]
	}
	if unresolved > 0 {
		slog.Warn("events with ambiguous lepton roles fail selection",
			"roles", a.Name+"/"+b.Name, "unresolved", unresolved, "events", n)
	}

	t.Set(a.SlotBranch(), aSlot)
	t.Set(a.IndexBranch(), aBranch)
	t.Set(b.SlotBranch(), bSlot)
	t.Set(b.IndexBranch(), bBranch)
	return unresolved, nil
}

func matches(idx []int64, slot int64) bool {
	return slot >= 0 && slot < int64(len(idx)) && idx[slot] != NoMatch
}
