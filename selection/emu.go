package selection

import (
	"github.com/decibelcooper/htauplot/branches"
	"github.com/decibelcooper/htauplot/event"
)

// EMuCuts selects an electron and a muon.
type EMuCuts struct {
	IsoMax float64
	// First is the electron, Second the muon.
	Legs []TriggerLeg
}

// NewEMuCuts: Mu8Ele23 or Mu23Ele12 with the matching pT plateaus,
// |eta_e| < 2.5, |eta_mu| < 2.4, both isolations below 0.15.
func NewEMuCuts() EMuCuts {
	return EMuCuts{
		IsoMax: 0.15,
		Legs: []TriggerLeg{
			{Path: branches.Mu8Ele23, First: Window{PtMin: 24, EtaMax: 2.5}, Second: &Window{PtMin: 13, EtaMax: 2.4}},
			{Path: branches.Mu23Ele12, First: Window{PtMin: 13, EtaMax: 2.5}, Second: &Window{PtMin: 24, EtaMax: 2.4}},
		},
	}
}

// Evaluate expects ResolveRoles(t, ElectronRole, MuonRole) to have run.
func (c EMuCuts) Evaluate(t *event.Table) (Result, error) {
	if t.Len() == 0 {
		return emptyResult(), nil
	}
	cols := &columns{t: t}
	pt := cols.floatArrays("Lepton_pt")
	eta := cols.floatArrays("Lepton_eta")
	phi := cols.floatArrays("Lepton_phi")
	iso := cols.floatArrays("Lepton_iso")
	elDxy := cols.floatArrays("Electron_dxy")
	elDz := cols.floatArrays("Electron_dz")
	muDxy := cols.floatArrays("Muon_dxy")
	muDz := cols.floatArrays("Muon_dz")
	elSlot := cols.ints(ElectronRole.SlotBranch())
	elBranch := cols.ints(ElectronRole.IndexBranch())
	muSlot := cols.ints(MuonRole.SlotBranch())
	muBranch := cols.ints(MuonRole.IndexBranch())
	trig := cols.triggers(c.Legs)
	if cols.err != nil {
		return Result{}, cols.err
	}

	d := newDerived(branches.Protected(branches.EMu))
	mask := event.Mask{}
	for i := 0; i < t.Len(); i++ {
		if elSlot[i] == NoMatch {
			continue
		}
		el, ok1 := leptonAt(pt, eta, phi, iso, elDxy, elDz, i, elSlot[i], elBranch[i])
		mu, ok2 := leptonAt(pt, eta, phi, iso, muDxy, muDz, i, muSlot[i], muBranch[i])
		if !ok1 || !ok2 {
			continue
		}
		if !(el.iso < c.IsoMax && mu.iso < c.IsoMax) {
			continue
		}
		passTrigger := false
		for k, leg := range c.Legs {
			if leg.pass(trig[k][i], el.pt, el.eta, mu.pt, mu.eta) {
				passTrigger = true
				break
			}
		}
		if !passTrigger {
			continue
		}
		mask = append(mask, i)
		d.addLepton("FS_el", el, true)
		d.addLepton("FS_mu", mu, true)
	}
	return d.result(mask), nil
}
