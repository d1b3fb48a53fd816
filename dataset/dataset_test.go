package dataset

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-hep.org/x/hep/groot"
	"go-hep.org/x/hep/groot/rtree"

	"github.com/decibelcooper/htauplot/branches"
	"github.com/decibelcooper/htauplot/event"
)

type fixtureEvent struct {
	run   uint32
	pt    []float32
	flav  []uint8
	met   float32
	clean bool
}

func writeFixture(t *testing.T, fname string, events []fixtureEvent) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(fname), 0o755))
	f, err := groot.Create(fname)
	require.NoError(t, err)
	defer f.Close()

	var (
		run     uint32
		nLepton int32
		pt      []float32
		nTau    int32
		flav    []uint8
		met     float32
		clean   bool
		nw      = 1000.0
		xsec    = 6000.0
	)
	wvars := []rtree.WriteVar{
		{Name: "run", Value: &run},
		{Name: "nLepton", Value: &nLepton},
		{Name: "Lepton_pt", Value: &pt, Count: "nLepton"},
		{Name: "nTau", Value: &nTau},
		{Name: "Tau_genPartFlav", Value: &flav, Count: "nTau"},
		{Name: "PuppiMET_pt", Value: &met},
		{Name: "METfilters", Value: &clean},
		{Name: "NWEvents", Value: &nw},
		{Name: "XSecMCweight", Value: &xsec},
	}
	w, err := rtree.NewWriter(f, "Events", wvars)
	require.NoError(t, err)
	for _, e := range events {
		run, pt, flav, met, clean = e.run, e.pt, e.flav, e.met, e.clean
		nLepton, nTau = int32(len(pt)), int32(len(flav))
		_, err := w.Write()
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
}

var fixtureBranches = []branches.Branch{
	"run", "Lepton_pt", "Tau_genPartFlav", "PuppiMET_pt", "METfilters", "NWEvents", "XSecMCweight",
}

func testSource(t *testing.T) *ROOTSource {
	dir := t.TempDir()
	writeFixture(t, filepath.Join(dir, "DY", "DY0JetsToLL_M-50_NLO_a.root"), []fixtureEvent{
		{run: 1, pt: []float32{30, 40}, flav: []uint8{5}, met: 20, clean: true},
		{run: 1, pt: []float32{35}, flav: []uint8{0, 5}, met: 5, clean: true},
	})
	writeFixture(t, filepath.Join(dir, "DY", "DY0JetsToLL_M-50_NLO_b.root"), []fixtureEvent{
		{run: 2, pt: []float32{50, 60, 70}, flav: nil, met: 30, clean: false},
		{run: 3, pt: []float32{45, 25}, flav: []uint8{1}, met: 40, clean: true},
	})
	return &ROOTSource{Dir: dir, FileMap: MCFileMap}
}

func TestROOTSourceLoad(t *testing.T) {
	src := testSource(t)
	tbl, meta, err := src.Load(context.Background(), "DYJetsToLL_M-50_0JNLO", fixtureBranches, nil)
	require.NoError(t, err)
	require.NoError(t, tbl.Validate())
	assert.Equal(t, 4, tbl.Len())

	run, err := tbl.Ints("run")
	require.NoError(t, err)
	assert.Equal(t, event.Ints{1, 1, 2, 3}, run)
	pt, err := tbl.FloatArrays("Lepton_pt")
	require.NoError(t, err)
	assert.Equal(t, event.FloatArrays{{30, 40}, {35}, {50, 60, 70}, {45, 25}}, pt)
	flav, err := tbl.IntArrays("Tau_genPartFlav")
	require.NoError(t, err)
	assert.Equal(t, []int64{0, 5}, flav[1])
	assert.Empty(t, flav[2])
	clean, err := tbl.Bools("METfilters")
	require.NoError(t, err)
	assert.Equal(t, event.Bools{true, true, false, true}, clean)

	assert.Equal(t, branches.Background, meta.Role)
	assert.Equal(t, 1000.0, meta.NWEvents)
	assert.Equal(t, 6000.0, meta.XSec)
	assert.False(t, tbl.Has("NWEvents"), "normalization branches are removed")
}

func TestROOTSourceSelection(t *testing.T) {
	src := testSource(t)
	sel, err := ParseSelection("METfilters && PuppiMET_pt > 10")
	require.NoError(t, err)
	assert.Equal(t, []string{"METfilters", "PuppiMET_pt"}, sel.Branches())

	tbl, _, err := src.Load(context.Background(), "DYJetsToLL_M-50_0JNLO", fixtureBranches, sel)
	require.NoError(t, err)
	run, err := tbl.Ints("run")
	require.NoError(t, err)
	assert.Equal(t, event.Ints{1, 3}, run)
}

func TestROOTSourceNotFound(t *testing.T) {
	src := testSource(t)
	_, _, err := src.Load(context.Background(), "WZTo3LNu", fixtureBranches, nil)
	assert.True(t, errors.Is(err, ErrNotFound))
	_, _, err = src.Load(context.Background(), "NoSuchProcess", fixtureBranches, nil)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestROOTSourceMissingBranch(t *testing.T) {
	src := testSource(t)
	_, _, err := src.Load(context.Background(), "DYJetsToLL_M-50_0JNLO", []branches.Branch{"run", "Tau_dxy"}, nil)
	assert.True(t, errors.Is(err, event.ErrMissingBranch))
}

func TestROOTSourceCancelled(t *testing.T) {
	src := testSource(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err := src.Load(ctx, "DYJetsToLL_M-50_0JNLO", fixtureBranches, nil)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestSelection(t *testing.T) {
	tbl := event.NewTable(4)
	tbl.Set("METfilters", event.Bools{true, true, false, true})
	tbl.Set("LeptonVeto", event.Ints{0, 1, 0, 0})
	tbl.Set("HTT_pdgId", event.Ints{-195, -195, 195, 165})

	tests := []struct {
		src  string
		want event.Mask
	}{
		{"", event.Mask{0, 1, 2, 3}},
		{"METfilters", event.Mask{0, 1, 3}},
		{"METfilters && LeptonVeto == 0", event.Mask{0, 3}},
		{"METfilters && LeptonVeto == 0 && abs(HTT_pdgId) == 13*15", event.Mask{0}},
		{"HTT_pdgId > 0 || LeptonVeto == 1", event.Mask{1, 2, 3}},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			sel, err := ParseSelection(tt.src)
			require.NoError(t, err)
			m, err := sel.Mask(tbl)
			require.NoError(t, err)
			assert.Equal(t, tt.want, m)
		})
	}
}

func TestSelectionErrors(t *testing.T) {
	_, err := ParseSelection("METfilters &&")
	assert.Error(t, err)

	tbl := event.NewTable(1)
	tbl.Set("Lepton_pt", event.FloatArrays{{1}})
	sel, err := ParseSelection("Lepton_pt > 0")
	require.NoError(t, err)
	_, err = sel.Mask(tbl)
	assert.True(t, errors.Is(err, event.ErrBranchType))

	sel, err = ParseSelection("METfliters")
	require.NoError(t, err)
	_, err = sel.Mask(tbl)
	assert.True(t, errors.Is(err, event.ErrMissingBranch))
}

func TestSelectionApplyNoneKept(t *testing.T) {
	tbl := event.NewTable(2)
	tbl.Set("PuppiMET_pt", event.Floats{1, 2})
	sel, err := ParseSelection("PuppiMET_pt > 100")
	require.NoError(t, err)
	out, err := sel.Apply(tbl)
	require.NoError(t, err)
	assert.Zero(t, out.Len())
	assert.True(t, out.Has("PuppiMET_pt"))
}

func TestExtractMetadata(t *testing.T) {
	tbl := event.NewTable(2)
	tbl.Set("NWEvents", event.Floats{5e6, 5e6})
	tbl.Set("XSecMCweight", event.Floats{88.36, 88.36})
	meta, err := ExtractMetadata("TTTo2L2Nu", tbl)
	require.NoError(t, err)
	assert.Equal(t, Metadata{Name: "TTTo2L2Nu", Role: branches.Background, NWEvents: 5e6, XSec: 88.36}, meta)
	assert.Empty(t, tbl.Branches())

	meta, err = ExtractMetadata("DataMuon", event.NewTable(0))
	require.NoError(t, err)
	assert.Equal(t, branches.Data, meta.Role)

	_, err = ExtractMetadata("VBF_TauTau", event.NewTable(0))
	assert.True(t, errors.Is(err, event.ErrMissingBranch))
}

func TestAccumulator(t *testing.T) {
	tbl := event.NewTable(3)
	tbl.Set("HTT_m_vis", event.Floats{50, 60, 70})
	tbl.Set("nCleanJetGT30", event.Ints{0, 1, 2})
	tbl.Set("Generator_weight", event.Floats{1, -1, 1})
	tbl.SetMask("pass_1j_cuts", event.Mask{1})
	vars := []string{"HTT_m_vis", "nCleanJetGT30"}

	acc := NewAccumulator()
	for _, name := range []string{"DataMuon", "DYJetsToLL_M-50_0JNLO", "VBF_TauTau", "ggH_TauTau"} {
		e, err := NewEntry(Metadata{Name: name, Role: branches.RoleOf(name)}, tbl, vars)
		require.NoError(t, err)
		require.NoError(t, acc.Add(e))
	}
	e, err := NewEntry(Metadata{Name: "DataMuon", Role: branches.Data}, tbl, vars)
	require.NoError(t, err)
	assert.Error(t, acc.Add(e))

	data, bkg, sig := acc.Sort()
	require.Len(t, data, 1)
	require.Len(t, bkg, 1)
	require.Len(t, sig, 2)
	assert.Equal(t, "VBF_TauTau", sig[0].Meta.Name)

	dy := bkg[0]
	assert.Equal(t, 3, dy.Len())
	assert.Equal(t, event.Floats{0, 1, 2}, dy.PlotEvents["nCleanJetGT30"])
	assert.Equal(t, event.Floats{1, -1, 1}, dy.Weights["Generator_weight"])
	assert.Equal(t, event.Floats{1, 1, 1}, dy.Weights["PUweight"])
	assert.Equal(t, event.Mask{1}, dy.Cuts["pass_1j_cuts"])
	assert.Empty(t, data[0].Weights)

	_, err = NewEntry(Metadata{Name: "x"}, tbl, []string{"FS_mu_pt"})
	assert.True(t, errors.Is(err, event.ErrMissingBranch))
}

func TestDatasetsFor(t *testing.T) {
	use, reject, err := DatasetsFor(branches.Dimuon)
	require.NoError(t, err)
	assert.Equal(t, "DataMuon", use)
	assert.Equal(t, []string{"DataTau", "DataElectron", "DataEMu"}, reject)
}

func TestFileMap(t *testing.T) {
	tests := []struct {
		era, dataMuon string
		vbf           bool
	}{
		{"2022 C", "Data/Muon_Run2022C*", false},
		{"2022 EFG", "Data/Muon_Run2022*", false},
		{"2023 C", "Data/Muon_Run2023*", true},
	}
	for _, tt := range tests {
		m, err := FileMap(tt.era)
		require.NoError(t, err)
		assert.Equal(t, tt.dataMuon, m["DataMuon"], tt.era)
		_, ok := m["DataVBF"]
		assert.Equal(t, tt.vbf, ok, tt.era)
		assert.Equal(t, "VV/WZTo3LNu*", m["WZTo3LNu"])
	}
	_, err := FileMap("2024")
	assert.Error(t, err)
}
