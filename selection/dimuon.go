package selection

import (
	"log/slog"

	"github.com/decibelcooper/htauplot/branches"
	"github.com/decibelcooper/htauplot/event"
)

// DimuonVetoMask is the mask name stored by DimuonVeto.
const DimuonVetoMask = "pass_manual_lepton_veto"

// DimuonVeto rejects events with an isolated electron or more than two
// isolated muons (iso < 0.3). Events without leptons fail. Taus are not
// counted.
func DimuonVeto(t *event.Table) (event.Mask, error) {
	const isoMax = 0.3
	pdg, err := t.IntArrays("Lepton_pdgId")
	if err != nil {
		return nil, err
	}
	iso, err := t.FloatArrays("Lepton_iso")
	if err != nil {
		return nil, err
	}
	mask := event.Mask{}
	for i := range pdg {
		if len(pdg[i]) == 0 {
			continue
		}
		nEle, nMu := 0, 0
		for k, id := range pdg[i] {
			isolated := k < len(iso[i]) && iso[i][k] < isoMax
			switch {
			case !isolated:
			case id == 11 || id == -11:
				nEle++
			case id == 13 || id == -13:
				nMu++
			}
		}
		if nEle == 0 && nMu <= 2 {
			mask = append(mask, i)
		}
	}
	slog.Info("dimuon lepton veto", "before", t.Len(), "after", len(mask))
	return mask, nil
}

// DimuonCuts selects two isolated muons near the Z peak.
type DimuonCuts struct {
	LeadPtMin, SubleadPtMin float64
	MvisMin, MvisMax        float64
	IsoMax                  float64
}

// NewDimuonCuts: leading muon pT > 26, subleading > 20, 70 < m_vis < 130,
// both isolations below 0.15.
func NewDimuonCuts() DimuonCuts {
	return DimuonCuts{LeadPtMin: 26, SubleadPtMin: 20, MvisMin: 70, MvisMax: 130, IsoMax: 0.15}
}

// Evaluate expects AppendLeptonIndices and the DimuonVeto filter to have run.
func (c DimuonCuts) Evaluate(t *event.Table) (Result, error) {
	if t.Len() == 0 {
		return emptyResult(), nil
	}
	cols := &columns{t: t}
	pt := cols.floatArrays("Lepton_pt")
	eta := cols.floatArrays("Lepton_eta")
	phi := cols.floatArrays("Lepton_phi")
	iso := cols.floatArrays("Lepton_iso")
	muIdx := cols.intArrays(MuonRole.Source)
	dxy := cols.floatArrays("Muon_dxy")
	dz := cols.floatArrays("Muon_dz")
	mvis := cols.floats("HTT_m_vis")
	l1 := cols.ints(L1Index)
	l2 := cols.ints(L2Index)
	if cols.err != nil {
		return Result{}, cols.err
	}

	d := newDerived(branches.Protected(branches.Dimuon))
	mask := event.Mask{}
	for i := 0; i < t.Len(); i++ {
		b1, ok1 := intAt(muIdx[i], l1[i])
		b2, ok2 := intAt(muIdx[i], l2[i])
		if !ok1 || !ok2 {
			continue
		}
		m1, ok1 := leptonAt(pt, eta, phi, iso, dxy, dz, i, l1[i], b1)
		m2, ok2 := leptonAt(pt, eta, phi, iso, dxy, dz, i, l2[i], b2)
		if !ok1 || !ok2 {
			continue
		}
		passKinematics := m1.pt > c.LeadPtMin && m2.pt > c.SubleadPtMin &&
			c.MvisMin < mvis[i] && mvis[i] < c.MvisMax
		passIso := m1.iso < c.IsoMax && m2.iso < c.IsoMax
		if !passKinematics || !passIso {
			continue
		}
		mask = append(mask, i)
		d.addLepton("FS_m1", m1, true)
		d.addLepton("FS_m2", m2, true)
	}
	return d.result(mask), nil
}
