// Package branches knows which columns each final state reads from the
// skimmed samples, which ones it derives, and which ones it plots.
package branches

import (
	"errors"
	"fmt"
	"strings"
)

// Branch is the name of a column in a source dataset or a derived column.
type Branch string

var commonBranches = []Branch{
	"run", "luminosityBlock", "event", "Generator_weight", "NWEvents", "XSecMCweight",
	"TauSFweight", "MuSFweight", "ElSFweight", "BTagSFfull",
	"Weight_DY_Zpt", "PUweight", "Weight_TTbar_NNLO",
	"FSLeptons", "Lepton_pt", "Lepton_eta", "Lepton_phi", "Lepton_iso",
	"Tau_genPartFlav", "Tau_decayMode",
	"nCleanJet", "CleanJet_pt", "CleanJet_eta", "CleanJet_phi", "CleanJet_mass",
	"HTT_m_vis", "HTT_dR", "HTT_pT_l1l2",
	"FastMTT_mT", "FastMTT_mass",
	"HTT_pdgId",
	"PV_npvs", "Pileup_nPU",
	"HTT_H_pt", "HTT_mT_l1l2met",
	"HTT_DiJet_dEta_fromLeadingJets", "HTT_DiJet_MassInv_fromLeadingJets",
}

var finalStateBranches = map[FinalState][]Branch{
	Ditau: {
		"Lepton_tauIdx", "Lepton_mass", "Tau_dxy", "Tau_dz", "Tau_charge",
		"PuppiMET_pt", "PuppiMET_phi",
	},
	MuTau: {
		"Muon_dxy", "Muon_dz", "Muon_charge", "Muon_mass", "Muon_tightId",
		"Lepton_mass", "Tau_dxy", "Tau_dz", "Tau_charge",
		"Lepton_tauIdx", "Lepton_muIdx",
		"PuppiMET_pt", "PuppiMET_phi", "CleanJet_btagWP", "HTT_mT_lmet",
	},
	ETau: {
		"Electron_dxy", "Electron_dz", "Electron_charge", "Electron_mass",
		"Lepton_mass", "Tau_dxy", "Tau_dz", "Tau_charge",
		"Lepton_tauIdx", "Lepton_elIdx",
		"PuppiMET_pt", "PuppiMET_phi", "CleanJet_btagWP", "HTT_mT_lmet",
	},
	Dimuon: {
		"Lepton_pdgId", "Lepton_muIdx",
		"Muon_dxy", "Muon_dz", "Muon_charge",
		"PuppiMET_pt", "PuppiMET_phi", "CleanJet_btagWP",
	},
	EMu: {
		"Electron_dxy", "Electron_dz", "Electron_charge",
		"Muon_dxy", "Muon_dz", "Muon_charge",
		"Lepton_elIdx", "Lepton_muIdx",
		"PuppiMET_pt", "PuppiMET_phi", "Lepton_tauIdx",
		"Electron_mass", "Muon_mass",
		"CleanJet_btagWP", "HTT_DZeta", "HTT_mT_l1l2met",
	},
}

var signalBranches = []Branch{
	"Gen_HTT_FS",
	"Gen_pT_l1", "Gen_eta_l1", "Gen_phi_l1",
	"Gen_pT_l2", "Gen_eta_l2", "Gen_phi_l2",
	"Gen_H_pT", "Gen_H_pT_fidMET",
	"Gen_pT_ll", "Gen_m_ll",
	"Gen_mT", "Gen_mT_fidMET",
	"Gen_DZeta", "Gen_DZeta_fidMET",
	"Gen_deltaR_ll", "Gen_deltaEta_ll", "Gen_deltaPhi_ll",
	"Gen_nCleanJet",
	"Gen_pT_j1", "Gen_eta_j1", "Gen_phi_j1",
	"Gen_pT_j2", "Gen_eta_j2", "Gen_phi_j2",
	"Gen_pT_j3", "Gen_eta_j3", "Gen_phi_j3",
	"Gen_mjj", "Gen_deltaEta_jj",
}

// notInData are simulation-only branches.
var notInData = map[Branch]bool{
	"Generator_weight": true, "NWEvents": true, "XSecMCweight": true,
	"Tau_genPartFlav": true, "Weight_DY_Zpt": true,
	"TauSFweight": true, "MuSFweight": true, "ElSFweight": true, "BTagSFfull": true,
	"PUweight": true, "Weight_TTbar_NNLO": true, "Pileup_nPU": true,
}

// Extra branches that some samples carry and commands may request.
var optionalBranches = []Branch{
	"METfilters", "LeptonVeto", "JetMapVeto_EE_30GeV", "JetMapVeto_HotCold_30GeV",
	"Trigger_ditau", "Trigger_mutau", "Trigger_etau", "Trigger_emu",
	"FFweight", "FFweight_QCD", "FFweight_WJ", "FFweight_FractionQCD", "FF_weight",
	"Tau_rawPNetVSjet", "Tau_rawPNetVSmu", "Tau_rawPNetVSe",
	"MET_pt", "HTT_DiJet_dEta_fromHighestMjj", "HTT_DiJet_MassInv_fromHighestMjj",
}

var schema = buildSchema()

func buildSchema() map[Branch]bool {
	s := make(map[Branch]bool)
	add := func(bs []Branch) {
		for _, b := range bs {
			s[b] = true
		}
	}
	add(commonBranches)
	add(signalBranches)
	add(optionalBranches)
	for _, bs := range finalStateBranches {
		add(bs)
	}
	for _, byFS := range triggers {
		for _, paths := range byFS {
			for _, p := range paths {
				s[p] = true
			}
		}
	}
	for _, v := range []DeepTauVersion{DeepTau2p1, DeepTau2p5} {
		j, m, e, _ := v.IDBranches()
		add([]Branch{j, m, e})
	}
	return s
}

// Known reports whether b is a recognized source branch.
func Known(b Branch) bool { return schema[b] }

// Params identifies what a catalog is built for.
type Params struct {
	FinalState FinalState
	Era        string
	DeepTau    DeepTauVersion
	Process    string
	// Extra branches requested on top of the standard set, e.g. the ones a
	// selection expression reads.
	Extra []Branch
}

// Catalog is the validated, ordered list of branches to read for one dataset.
type Catalog struct {
	params   Params
	branches []Branch
}

// New builds the branch list for params, failing on unknown final states,
// eras, DeepTau versions or extra branch names.
func New(params Params) (*Catalog, error) {
	fsBranches, ok := finalStateBranches[params.FinalState]
	if !ok {
		return nil, fmt.Errorf("no branches for final state %v", params.FinalState)
	}
	year, err := Year(params.Era)
	if err != nil {
		return nil, err
	}

	c := &Catalog{params: params}
	seen := make(map[Branch]bool)
	c.add(seen, commonBranches...)
	c.add(seen, fsBranches...)
	if params.FinalState.HasTau() {
		j, m, e, err := params.DeepTau.IDBranches()
		if err != nil {
			return nil, err
		}
		c.add(seen, j, m, e)
	}
	c.add(seen, triggers[year][params.FinalState]...)
	if strings.Contains(params.Process, "_TauTau") {
		c.add(seen, signalBranches...)
	}

	var errs []error
	for _, b := range params.Extra {
		if !Known(b) {
			errs = append(errs, fmt.Errorf("unknown branch %q", b))
			continue
		}
		c.add(seen, b)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	if RoleOf(params.Process) == Data {
		kept := c.branches[:0]
		for _, b := range c.branches {
			if !notInData[b] {
				kept = append(kept, b)
			}
		}
		c.branches = kept
	}
	return c, nil
}

func (c *Catalog) add(seen map[Branch]bool, bs ...Branch) {
	for _, b := range bs {
		if seen[b] {
			continue
		}
		seen[b] = true
		c.branches = append(c.branches, b)
	}
}

func (c *Catalog) Params() Params { return c.params }

// Branches returns the ordered branch list.
func (c *Catalog) Branches() []Branch {
	out := make([]Branch, len(c.branches))
	copy(out, c.branches)
	return out
}

// Names returns the branch list as plain strings.
func (c *Catalog) Names() []string {
	out := make([]string, len(c.branches))
	for i, b := range c.branches {
		out[i] = string(b)
	}
	return out
}

// Triggers returns the trigger decision branches for the catalog's channel.
func (c *Catalog) Triggers() []Branch {
	year, _ := Year(c.params.Era)
	return triggers[year][c.params.FinalState]
}
