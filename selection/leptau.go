package selection

import (
	"github.com/decibelcooper/htauplot/branches"
	"github.com/decibelcooper/htauplot/event"
)

// LepTauCuts selects one light lepton and one hadronic tau.
type LepTauCuts struct {
	FinalState branches.FinalState
	DeepTau    branches.DeepTauVersion
	Lepton     Role
	// Prefix of the light lepton's derived branches, e.g. FS_mu.
	Prefix string
	// Lepton impact parameter branches, indexed by the role's branch index.
	Dxy, Dz string

	MTMax float64
	Tau   Window
	WP    WorkingPoints
	// Legs are OR'd; First is the light lepton, Second the tau.
	Legs []TriggerLeg
}

// NewMuTauCuts: mT < 50, tau pT > 30 and |eta| < 2.3, Medium vs jet, Tight
// vs muon, VVVLoose vs electron, single muon or cross trigger.
func NewMuTauCuts(v branches.DeepTauVersion) LepTauCuts {
	return LepTauCuts{
		FinalState: branches.MuTau,
		DeepTau:    v,
		Lepton:     MuonRole,
		Prefix:     "FS_mu",
		Dxy:        "Muon_dxy",
		Dz:         "Muon_dz",
		MTMax:      50,
		Tau:        Window{PtMin: 30, EtaMax: 2.3},
		WP:         WorkingPoints{VsJet: 5, VsMu: 4, VsE: 1},
		Legs: []TriggerLeg{
			{Path: branches.IsoMu24, First: Window{PtMin: 25, EtaMax: 2.4}},
			{Path: branches.IsoMu27, First: Window{PtMin: 28, EtaMax: 2.4}},
			{
				Path:   branches.MuTauCross,
				First:  Window{PtMin: 21, PtMax: 25, EtaMax: 2.1},
				Second: &Window{PtMin: 32, EtaMax: 2.1},
			},
		},
	}
}

// NewETauCuts: mT < 50, tau pT > 30 and |eta| < 2.3, Medium vs jet, VLoose
// vs muon, Tight vs electron, single electron or cross trigger.
func NewETauCuts(v branches.DeepTauVersion) LepTauCuts {
	return LepTauCuts{
		FinalState: branches.ETau,
		DeepTau:    v,
		Lepton:     ElectronRole,
		Prefix:     "FS_el",
		Dxy:        "Electron_dxy",
		Dz:         "Electron_dz",
		MTMax:      50,
		Tau:        Window{PtMin: 30, EtaMax: 2.3},
		WP:         WorkingPoints{VsJet: 5, VsMu: 1, VsE: 6},
		Legs: []TriggerLeg{
			{Path: branches.Ele32, First: Window{PtMin: 33, EtaMax: 2.1}},
			{Path: branches.Ele35, First: Window{PtMin: 36, EtaMax: 2.1}},
			{
				// upper bound moves if a lower single electron trigger is added
				Path:   branches.ETauCross,
				First:  Window{PtMin: 25, PtMax: 33, EtaMax: 2.1},
				Second: &Window{PtMin: 35, EtaMax: 2.1},
			},
		},
	}
}

// Evaluate expects ResolveRoles(t, TauRole, c.Lepton) to have run.
func (c LepTauCuts) Evaluate(t *event.Table) (Result, error) {
	if t.Len() == 0 {
		return emptyResult(), nil
	}
	cols := &columns{t: t}
	pt := cols.floatArrays("Lepton_pt")
	eta := cols.floatArrays("Lepton_eta")
	phi := cols.floatArrays("Lepton_phi")
	iso := cols.floatArrays("Lepton_iso")
	lepDxy := cols.floatArrays(c.Dxy)
	lepDz := cols.floatArrays(c.Dz)
	tauDxy := cols.floatArrays("Tau_dxy")
	tauDz := cols.floatArrays("Tau_dz")
	metPt := cols.floats("PuppiMET_pt")
	metPhi := cols.floats("PuppiMET_phi")
	tauSlot := cols.ints(TauRole.SlotBranch())
	tauBranch := cols.ints(TauRole.IndexBranch())
	lepSlot := cols.ints(c.Lepton.SlotBranch())
	lepBranch := cols.ints(c.Lepton.IndexBranch())
	trig := cols.triggers(c.Legs)
	dt := loadDeepTau(cols, c.DeepTau)
	if cols.err != nil {
		return Result{}, cols.err
	}

	d := newDerived(branches.Protected(c.FinalState))
	mask := event.Mask{}
	for i := 0; i < t.Len(); i++ {
		if tauSlot[i] == NoMatch {
			continue
		}
		lep, ok1 := leptonAt(pt, eta, phi, iso, lepDxy, lepDz, i, lepSlot[i], lepBranch[i])
		tau, ok2 := leptonAt(pt, eta, phi, nil, tauDxy, tauDz, i, tauSlot[i], tauBranch[i])
		if !ok1 || !ok2 {
			continue
		}

		mt := TransverseMass(lep.pt, lep.phi, metPt[i], metPhi[i])
		if !(mt < c.MTMax) || !c.Tau.Contains(tau.pt, tau.eta) {
			continue
		}
		passTrigger := false
		for k, leg := range c.Legs {
			if leg.pass(trig[k][i], lep.pt, lep.eta, tau.pt, tau.eta) {
				passTrigger = true
				break
			}
		}
		if !passTrigger || !dt.pass(c.WP, i, tauBranch[i]) {
			continue
		}

		mask = append(mask, i)
		d.addLepton(c.Prefix, lep, true)
		d.addLepton("FS_tau", tau, false)
		d.add("FS_tau_vsJet", dt.score(i, tauBranch[i]))
		d.add("FS_mt", mt)
	}
	return d.result(mask), nil
}
