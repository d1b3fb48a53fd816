package selection

import (
	"github.com/decibelcooper/htauplot/branches"
	"github.com/decibelcooper/htauplot/event"
)

// DitauCuts selects two hadronic taus.
type DitauCuts struct {
	DeepTau branches.DeepTauVersion
	PtMin   float64
	WP      WorkingPoints
}

// NewDitauCuts: both taus pT >= 40, Medium vs jet, VLoose vs muon, VVVLoose
// vs electron.
func NewDitauCuts(v branches.DeepTauVersion) DitauCuts {
	return DitauCuts{DeepTau: v, PtMin: 40, WP: WorkingPoints{VsJet: 5, VsMu: 1, VsE: 1}}
}

func (c DitauCuts) Evaluate(t *event.Table) (Result, error) {
	if t.Len() == 0 {
		return emptyResult(), nil
	}
	cols := &columns{t: t}
	pt := cols.floatArrays("Lepton_pt")
	eta := cols.floatArrays("Lepton_eta")
	phi := cols.floatArrays("Lepton_phi")
	tauIdx := cols.intArrays(TauRole.Source)
	dxy := cols.floatArrays("Tau_dxy")
	dz := cols.floatArrays("Tau_dz")
	l1 := cols.ints(L1Index)
	l2 := cols.ints(L2Index)
	dt := loadDeepTau(cols, c.DeepTau)
	if cols.err != nil {
		return Result{}, cols.err
	}

	d := newDerived(branches.Protected(branches.Ditau))
	mask := event.Mask{}
	for i := 0; i < t.Len(); i++ {
		b1, ok1 := intAt(tauIdx[i], l1[i])
		b2, ok2 := intAt(tauIdx[i], l2[i])
		if !ok1 || !ok2 || b1 == NoMatch || b2 == NoMatch {
			continue
		}
		t1, ok1 := leptonAt(pt, eta, phi, nil, dxy, dz, i, l1[i], b1)
		t2, ok2 := leptonAt(pt, eta, phi, nil, dxy, dz, i, l2[i], b2)
		if !ok1 || !ok2 {
			continue
		}
		passKinematics := t1.pt >= c.PtMin && t2.pt >= c.PtMin
		if !passKinematics || !dt.pass(c.WP, i, b1) || !dt.pass(c.WP, i, b2) {
			continue
		}
		mask = append(mask, i)
		d.addLepton("FS_t1", t1, false)
		d.addLepton("FS_t2", t2, false)
		d.add("FS_t1_vsJet", dt.score(i, b1))
		d.add("FS_t2_vsJet", dt.score(i, b2))
	}
	return d.result(mask), nil
}
