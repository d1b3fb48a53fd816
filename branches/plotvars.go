package branches

import "fmt"

// JetMode selects which jet multiplicity bucket is kept.
type JetMode string

const (
	Inclusive JetMode = "Inclusive"
	ZeroJet   JetMode = "0j"
	OneJet    JetMode = "1j"
	TwoJet    JetMode = "2j"
	ThreeJet  JetMode = "3j"
	GTE2Jet   JetMode = "GTE2j"
)

// ParseJetMode validates a jet mode name.
func ParseJetMode(s string) (JetMode, error) {
	switch m := JetMode(s); m {
	case Inclusive, ZeroJet, OneJet, TwoJet, ThreeJet, GTE2Jet:
		return m, nil
	}
	return "", fmt.Errorf("unknown jet mode %q (want Inclusive, 0j, 1j, 2j, 3j or GTE2j)", s)
}

// Derived branches filled by the selection of each final state, one entry
// per passing event.
var derived = map[FinalState][]string{
	Ditau: {
		"FS_t1_pt", "FS_t1_eta", "FS_t1_phi", "FS_t1_dxy", "FS_t1_dz",
		"FS_t2_pt", "FS_t2_eta", "FS_t2_phi", "FS_t2_dxy", "FS_t2_dz",
		"FS_t1_vsJet", "FS_t2_vsJet",
	},
	MuTau: {
		"FS_mu_pt", "FS_mu_eta", "FS_mu_phi", "FS_mu_iso", "FS_mu_dxy", "FS_mu_dz",
		"FS_tau_pt", "FS_tau_eta", "FS_tau_phi", "FS_tau_dxy", "FS_tau_dz",
		"FS_tau_vsJet", "FS_mt",
	},
	ETau: {
		"FS_el_pt", "FS_el_eta", "FS_el_phi", "FS_el_iso", "FS_el_dxy", "FS_el_dz",
		"FS_tau_pt", "FS_tau_eta", "FS_tau_phi", "FS_tau_dxy", "FS_tau_dz",
		"FS_tau_vsJet", "FS_mt",
	},
	EMu: {
		"FS_el_pt", "FS_el_eta", "FS_el_phi", "FS_el_iso", "FS_el_dxy", "FS_el_dz",
		"FS_mu_pt", "FS_mu_eta", "FS_mu_phi", "FS_mu_iso", "FS_mu_dxy", "FS_mu_dz",
	},
	Dimuon: {
		"FS_m1_pt", "FS_m1_eta", "FS_m1_phi", "FS_m1_iso", "FS_m1_dxy", "FS_m1_dz",
		"FS_m2_pt", "FS_m2_eta", "FS_m2_phi", "FS_m2_iso", "FS_m2_dxy", "FS_m2_dz",
	},
}

// Protected returns the branches a final-state cut derives; they must not be
// cut again when its mask is applied.
func Protected(fs FinalState) []string {
	out := make([]string, len(derived[fs]))
	copy(out, derived[fs])
	return out
}

var jetPlotVars = map[JetMode][]string{
	Inclusive: {
		"nCleanJetGT30",
		"CleanJetGT30_pt_1", "CleanJetGT30_eta_1",
		"CleanJetGT30_pt_2", "CleanJetGT30_eta_2",
		"CleanJetGT30_pt_3", "CleanJetGT30_eta_3",
	},
	ZeroJet: {},
	OneJet:  {"CleanJetGT30_pt_1", "CleanJetGT30_eta_1"},
	TwoJet: {
		"CleanJetGT30_pt_1", "CleanJetGT30_eta_1",
		"CleanJetGT30_pt_2", "CleanJetGT30_eta_2",
	},
	ThreeJet: {
		"CleanJetGT30_pt_1", "CleanJetGT30_eta_1",
		"CleanJetGT30_pt_2", "CleanJetGT30_eta_2",
		"CleanJetGT30_pt_3", "CleanJetGT30_eta_3",
	},
	GTE2Jet: {
		"nCleanJetGT30", "HTT_DiJet_dEta_fromLeadingJets", "HTT_DiJet_MassInv_fromLeadingJets",
		"CleanJetGT30_pt_1", "CleanJetGT30_eta_1",
		"CleanJetGT30_pt_2", "CleanJetGT30_eta_2",
		"CleanJetGT30_pt_3", "CleanJetGT30_eta_3",
	},
}

// PlotVariables lists the variables kept for plotting after all cuts.
func PlotVariables(fs FinalState, mode JetMode) []string {
	vars := []string{"HTT_m_vis", "HTT_dR"}
	vars = append(vars, derived[fs]...)
	if fs != Ditau && fs != Dimuon {
		vars = append(vars, "PuppiMET_pt")
	}
	vars = append(vars, jetPlotVars[mode]...)
	return vars
}
