package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/decibelcooper/htauplot/branches"
	"github.com/decibelcooper/htauplot/config"
	"github.com/decibelcooper/htauplot/dataset"
	"github.com/decibelcooper/htauplot/event"
)

// mutauEvents passes the mutau cuts for all four events. Muon isolation is
// {0.05, 0.2, 0.3, 0.05}, tau flavors are G, J, G, L and the events have
// 0, 1, 2 and 0 jets above threshold.
func mutauEvents() *event.Table {
	const n = 4
	t := event.NewTable(n)
	muIso := []float64{0.05, 0.2, 0.3, 0.05}
	var (
		fsl, tauIdx, muIdx, flav     event.IntArrays
		pt, eta, phi, iso            event.FloatArrays
		tauDxy, tauDz, muDxy, muDz   event.FloatArrays
		vsJet, vsMu, vsE             event.IntArrays
		single24, single27, cross    event.Bools
		metPt, metPhi, mvis, dR, gen event.Floats
	)
	for i := 0; i < n; i++ {
		fsl = append(fsl, []int64{0, 1})
		tauIdx = append(tauIdx, []int64{0, -1})
		muIdx = append(muIdx, []int64{-1, 0})
		pt = append(pt, []float64{40, 30})
		eta = append(eta, []float64{0.5, -0.5})
		phi = append(phi, []float64{1, 0})
		iso = append(iso, []float64{0.9, muIso[i]})
		tauDxy = append(tauDxy, []float64{-0.01})
		tauDz = append(tauDz, []float64{0.02})
		muDxy = append(muDxy, []float64{-0.003})
		muDz = append(muDz, []float64{0.004})
		vsJet = append(vsJet, []int64{6})
		vsMu = append(vsMu, []int64{4})
		vsE = append(vsE, []int64{2})
		single24 = append(single24, true)
		single27 = append(single27, false)
		cross = append(cross, false)
		metPt = append(metPt, 10)
		metPhi = append(metPhi, 0)
		mvis = append(mvis, 60+float64(i))
		dR = append(dR, 2)
		gen = append(gen, 1)
	}
	flav = event.IntArrays{{5}, {0}, {5}, {1}}

	t.Set("run", event.Ints{1, 2, 3, 4})
	t.Set("FSLeptons", fsl)
	t.Set("Lepton_tauIdx", tauIdx)
	t.Set("Lepton_muIdx", muIdx)
	t.Set("Lepton_pt", pt)
	t.Set("Lepton_eta", eta)
	t.Set("Lepton_phi", phi)
	t.Set("Lepton_iso", iso)
	t.Set("Tau_dxy", tauDxy)
	t.Set("Tau_dz", tauDz)
	t.Set("Muon_dxy", muDxy)
	t.Set("Muon_dz", muDz)
	t.Set("Tau_idDeepTau2018v2p5VSjet", vsJet)
	t.Set("Tau_idDeepTau2018v2p5VSmu", vsMu)
	t.Set("Tau_idDeepTau2018v2p5VSe", vsE)
	t.Set("Tau_genPartFlav", flav)
	t.Set(string(branches.IsoMu24), single24)
	t.Set(string(branches.IsoMu27), single27)
	t.Set(string(branches.MuTauCross), cross)
	t.Set("PuppiMET_pt", metPt)
	t.Set("PuppiMET_phi", metPhi)
	t.Set("HTT_m_vis", mvis)
	t.Set("HTT_dR", dR)
	t.Set("Generator_weight", gen)
	t.Set("nCleanJet", event.Ints{0, 1, 2, 1})
	t.Set("CleanJet_pt", event.FloatArrays{{}, {50}, {50, 40}, {20}})
	t.Set("CleanJet_eta", event.FloatArrays{{}, {0}, {0, 1}, {0}})
	return t
}

type memSource map[string]*event.Table

func (s memSource) Load(ctx context.Context, name string, _ []branches.Branch, sel *dataset.Selection) (*event.Table, dataset.Metadata, error) {
	t, ok := s[name]
	if !ok {
		return nil, dataset.Metadata{}, dataset.ErrNotFound
	}
	out, err := sel.Apply(t.Clone())
	if err != nil {
		return nil, dataset.Metadata{}, err
	}
	return out, dataset.Metadata{Name: name, Role: branches.RoleOf(name), NWEvents: 100, XSec: 1}, nil
}

func testRunner() *Runner {
	return &Runner{Source: memSource{
		"DataMuon":              mutauEvents(),
		"DataTau":               mutauEvents(),
		"DYJetsToLL_M-50_0JNLO": mutauEvents(),
		"TTTo2L2Nu":             mutauEvents(),
	}}
}

func mutauOptions(t *testing.T, region string) Options {
	opts := Options{
		FinalState: branches.MuTau,
		Era:        "2022 EFG",
		DeepTau:    branches.DeepTau2p5,
		JetMode:    branches.Inclusive,
		Vars:       branches.PlotVariables(branches.MuTau, branches.Inclusive),
	}
	if region != "" {
		sel, err := dataset.ParseSelection(region)
		require.NoError(t, err)
		opts.Region = sel
	}
	return opts
}

func TestRun(t *testing.T) {
	opts := mutauOptions(t, "FS_mu_iso < 0.25")
	opts.Processes = []string{"DataMuon", "DataTau", "DYJetsToLL_M-50_0JNLO", "TTTo2L2Nu", "WZTo3LNu"}
	opts.GoodRuns = []uint32{1, 2}

	acc, err := testRunner().Run(context.Background(), opts)
	require.NoError(t, err)
	require.Equal(t, 5, acc.Len())

	data, bkg, sig := acc.Sort()
	require.Len(t, data, 1)
	assert.Empty(t, sig)
	assert.Equal(t, 2, data[0].Len(), "good runs and region")
	assert.Nil(t, data[0].Flavor)

	names := map[string]int{}
	for _, e := range bkg {
		names[e.Meta.Name] = e.Len()
	}
	assert.Equal(t, map[string]int{
		"DYGen_DYJetsToLL_M-50_0JNLO": 1,
		"DYLep_DYJetsToLL_M-50_0JNLO": 1,
		"DYJet_DYJetsToLL_M-50_0JNLO": 1,
		"TTTo2L2Nu":                   3,
	}, names)

	for _, e := range bkg {
		if e.Meta.Name == "TTTo2L2Nu" {
			assert.Equal(t, event.Strings{"G", "J", "L"}, e.Flavor)
			assert.Equal(t, event.Floats{60, 61, 63}, e.PlotEvents["HTT_m_vis"])
			assert.Equal(t, 100.0, e.Meta.NWEvents)
		}
	}
}

func TestProcessJetMode(t *testing.T) {
	opts := mutauOptions(t, "")
	opts.JetMode = branches.OneJet
	entries, err := testRunner().Process(context.Background(), opts, "TTTo2L2Nu")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 1, entries[0].Len())
	assert.Equal(t, event.Floats{61}, entries[0].PlotEvents["HTT_m_vis"])
}

func TestProcessEmptyRegion(t *testing.T) {
	opts := mutauOptions(t, "FS_mu_iso > 1")
	_, err := testRunner().Process(context.Background(), opts, "TTTo2L2Nu")
	assert.True(t, errors.Is(err, event.ErrEmptySelection))

	acc, err := testRunner().Run(context.Background(), Options{
		FinalState: opts.FinalState, Era: opts.Era, DeepTau: opts.DeepTau, JetMode: opts.JetMode,
		Region: opts.Region, Vars: opts.Vars, Processes: []string{"TTTo2L2Nu"},
	})
	require.NoError(t, err)
	assert.Zero(t, acc.Len())
}

func TestFakeFactorRegions(t *testing.T) {
	events := mutauEvents()
	events.Set("Lepton_iso", event.FloatArrays{{0.9, 0.2}, {0.9, 0.3}, {0.9, 0.4}, {0.9, 0.2}})
	events.Set("Tau_idDeepTau2018v2p5VSjet", event.IntArrays{{6}, {3}, {5}, {1}})
	r := &Runner{Source: memSource{"TTTo2L2Nu": events}}
	ff := config.Default().FakeFactor

	mvis := map[string]event.Floats{}
	for _, region := range []config.Region{ff.Numerator, ff.Denominator} {
		opts := mutauOptions(t, region.Selection)
		opts.VsJetMin = ff.VsJetMin
		entries, err := r.Process(context.Background(), opts, "TTTo2L2Nu")
		require.NoError(t, err, region.Name)
		require.Len(t, entries, 1)
		mvis[region.Name] = entries[0].PlotEvents["HTT_m_vis"]
	}
	assert.Equal(t, event.Floats{60, 62}, mvis[ff.Numerator.Name])
	assert.Equal(t, event.Floats{61, 63}, mvis[ff.Denominator.Name])

	// the nominal working point leaves nothing failing vs jet
	_, err := r.Process(context.Background(), mutauOptions(t, ff.Denominator.Selection), "TTTo2L2Nu")
	assert.True(t, errors.Is(err, event.ErrEmptySelection))
}

func TestRunCancelled(t *testing.T) {
	opts := mutauOptions(t, "")
	opts.Processes = []string{"TTTo2L2Nu"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := testRunner().Run(ctx, opts)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestExtra(t *testing.T) {
	a, err := dataset.ParseSelection("METfilters && FS_mu_iso < 0.2")
	require.NoError(t, err)
	b, err := dataset.ParseSelection("METfilters && LeptonVeto == 0")
	require.NoError(t, err)
	assert.Equal(t, []branches.Branch{"METfilters", "LeptonVeto"}, Extra(a, nil, b))
}

func TestProcesses(t *testing.T) {
	m := map[string]string{"TTTo2L2Nu": "", "DataMuon": "", "DYJetsToLL_M-50_0JNLO": "", "DataTau": ""}
	assert.Equal(t, []string{"DataMuon", "DataTau", "DYJetsToLL_M-50_0JNLO", "TTTo2L2Nu"}, Processes(m, nil))
	assert.Equal(t, []string{"TTTo2L2Nu"}, Processes(m, []string{"TTTo2L2Nu"}))
}

func TestGroup(t *testing.T) {
	tests := map[string]string{
		"DYGen_DYJetsToLL_M-50_0JNLO": "DYGen",
		"DYJetsToLL_M10to50NLO":       "DY",
		"TTToSemiLeptonic":            "TT",
		"ST_t-channel_T":              "ST",
		"WJetsToLNu_1JNLO":            "WJ",
		"WZTo3LNu":                    "VV",
		"VBF_TauTau":                  "VBF_TauTau",
	}
	for name, want := range tests {
		assert.Equal(t, want, Group(name), name)
	}
}
