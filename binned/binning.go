// Package binned fills histograms from accumulated datasets and does the
// per-bin arithmetic between them.
package binned

import (
	"fmt"
	"strings"
)

// Binning is either uniform (N bins from Min to Max) or explicit Edges.
type Binning struct {
	N        int
	Min, Max float64
	Edges    []float64
}

func uniform(n int, min, max float64) Binning { return Binning{N: n, Min: min, Max: max} }

// BinEdges returns the N+1 bin edges.
func (b Binning) BinEdges() []float64 {
	if len(b.Edges) > 0 {
		out := make([]float64, len(b.Edges))
		copy(out, b.Edges)
		return out
	}
	out := make([]float64, b.N+1)
	w := (b.Max - b.Min) / float64(b.N)
	for i := range out {
		out[i] = b.Min + float64(i)*w
	}
	out[b.N] = b.Max
	return out
}

var pnetEdges = []float64{0, 0.95, 0.96, 0.97, 0.98, 0.99, 1}

var table = map[string]Binning{
	"FS_t1_pt":  uniform(36, 0, 180),
	"FS_t1_eta": uniform(30, -3, 3),
	"FS_t1_phi": uniform(32, -3.2, 3.2),
	"FS_t1_dxy": uniform(50, 0, 0.20),
	"FS_t1_dz":  uniform(50, 0, 0.25),
	"FS_t2_pt":  uniform(24, 0, 120),
	"FS_t2_eta": uniform(30, -3, 3),
	"FS_t2_phi": uniform(32, -3.2, 3.2),
	"FS_t2_dxy": uniform(50, 0, 0.20),
	"FS_t2_dz":  uniform(50, 0, 0.25),

	"FS_mu_pt":  uniform(40, 0, 120),
	"FS_mu_eta": uniform(30, -3, 3),
	"FS_mu_phi": uniform(32, -3.2, 3.2),
	"FS_mu_iso": uniform(25, 0, 1),
	"FS_mu_dxy": uniform(50, 0, 0.05),
	"FS_mu_dz":  uniform(50, 0, 0.25),
	"FS_el_pt":  uniform(40, 0, 120),
	"FS_el_eta": uniform(30, -3, 3),
	"FS_el_phi": uniform(32, -3.2, 3.2),
	"FS_el_iso": uniform(25, 0, 1),
	"FS_el_dxy": uniform(50, 0, 0.05),
	"FS_el_dz":  uniform(50, 0, 0.25),

	"FS_tau_pt":  uniform(36, 0, 180),
	"FS_tau_eta": uniform(30, -3, 3),
	"FS_tau_phi": uniform(32, -3.2, 3.2),
	"FS_tau_dxy": uniform(50, 0, 0.20),
	"FS_tau_dz":  uniform(50, 0, 0.25),

	// DeepTau vs-jet working point index of the selected taus
	"FS_t1_vsJet":  uniform(8, 0, 8),
	"FS_t2_vsJet":  uniform(8, 0, 8),
	"FS_tau_vsJet": uniform(8, 0, 8),

	"FS_tau_rawPNetVSjet": uniform(50, 0, 1),
	"FS_tau_rawPNetVSmu":  {Edges: pnetEdges},
	"FS_tau_rawPNetVSe":   {Edges: pnetEdges},

	"FS_m1_pt":  uniform(60, 0, 300),
	"FS_m1_eta": uniform(99, -2.5, 2.5),
	"FS_m1_phi": uniform(64, -3.2, 3.2),
	"FS_m1_iso": uniform(25, 0, 1),
	"FS_m1_dxy": uniform(50, 0, 0.05),
	"FS_m1_dz":  uniform(50, 0, 0.25),
	"FS_m2_pt":  uniform(60, 0, 300),
	"FS_m2_eta": uniform(99, -2.5, 2.5),
	"FS_m2_phi": uniform(64, -3.2, 3.2),
	"FS_m2_iso": uniform(25, 0, 1),
	"FS_m2_dxy": uniform(50, 0, 0.05),
	"FS_m2_dz":  uniform(50, 0, 0.25),

	"FS_mt":              uniform(40, 0, 200),
	"nCleanJetGT30":      uniform(8, 0, 8),
	"CleanJetGT30_pt_1":  uniform(60, 0, 300),
	"CleanJetGT30_pt_2":  uniform(60, 0, 300),
	"CleanJetGT30_pt_3":  uniform(60, 0, 300),
	"CleanJetGT30_eta_1": uniform(50, -5, 5),
	"CleanJetGT30_eta_2": uniform(50, -5, 5),
	"CleanJetGT30_eta_3": uniform(50, -5, 5),

	"MET_pt":                            uniform(30, 0, 150),
	"PuppiMET_pt":                       uniform(50, 0, 150),
	"HTT_DiJet_MassInv_fromHighestMjj":  uniform(30, 0, 1500),
	"HTT_DiJet_dEta_fromHighestMjj":     uniform(35, 0, 7),
	"HTT_DiJet_MassInv_fromLeadingJets": uniform(30, 0, 1500),
	"HTT_DiJet_dEta_fromLeadingJets":    uniform(35, 0, 7),
	"HTT_dR":                            uniform(60, 0, 6),
	"HTT_m_vis":                         uniform(30, 0, 300),
	"HTT_m_vis-KSUbinning":              uniform(30, 0, 300),
	"HTT_m_vis-SFbinning":               uniform(40, 0, 200),
	"HTT_pT_l1l2":                       uniform(30, 0, 150),
	"PV_npvs":                           uniform(30, 0, 90),

	"HTT_H_pt":           uniform(40, 0, 400),
	"HTT_H_pt_corr":      uniform(40, 0, 400),
	"HTT_H_pt_corr_Run2": uniform(40, 0, 400),

	// generator level, signal only
	"Gen_H_pT":        uniform(40, 0, 400),
	"Gen_H_pT_fidMET": uniform(40, 0, 400),
	"Gen_pT_l1":       uniform(36, 0, 180),
	"Gen_eta_l1":      uniform(30, -3, 3),
	"Gen_phi_l1":      uniform(32, -3.2, 3.2),
	"Gen_pT_l2":       uniform(24, 0, 120),
	"Gen_eta_l2":      uniform(30, -3, 3),
	"Gen_phi_l2":      uniform(32, -3.2, 3.2),
	"Gen_pT_ll":       uniform(30, 0, 150),
	"Gen_m_ll":        uniform(30, 0, 300),
	"Gen_mT":          uniform(40, 0, 200),
	"Gen_deltaR_ll":   uniform(60, 0, 6),
	"Gen_nCleanJet":   uniform(8, 0, 8),
	"Gen_pT_j1":       uniform(60, 0, 300),
	"Gen_pT_j2":       uniform(60, 0, 300),
	"Gen_eta_j1":      uniform(50, -5, 5),
	"Gen_eta_j2":      uniform(50, -5, 5),
	"Gen_mjj":         uniform(30, 0, 1500),
	"Gen_deltaEta_jj": uniform(35, 0, 7),
}

// Edges returns the bin edges of a plotted variable. Variants such as
// HTT_m_vis-SFbinning bin the same branch differently.
func Edges(variable string) ([]float64, error) {
	b, ok := table[variable]
	if !ok {
		return nil, fmt.Errorf("no binning for %s", variable)
	}
	return b.BinEdges(), nil
}

// Branch strips a binning variant suffix from a plotted variable.
func Branch(variable string) string {
	if i := strings.IndexByte(variable, '-'); i > 0 {
		return variable[:i]
	}
	return variable
}

// Midpoints returns the centers of the bins between edges.
func Midpoints(edges []float64) []float64 {
	if len(edges) < 2 {
		return nil
	}
	out := make([]float64, len(edges)-1)
	for i := range out {
		out[i] = (edges[i] + edges[i+1]) / 2
	}
	return out
}
