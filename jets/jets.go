// Package jets counts the clean jets of each event and splits events by jet
// multiplicity.
package jets

import (
	"fmt"
	"log/slog"
	"math"

	"github.com/decibelcooper/htauplot/branches"
	"github.com/decibelcooper/htauplot/event"
)

// Qualifying jets have pT > PtMin and |eta| < EtaMax.
const (
	PtMin  = 30.0
	EtaMax = 4.7
)

// Derived branches. The per-jet branches are NaN when the event has fewer
// jets.
const (
	CountBranch = "nCleanJetGT30"
)

var (
	ptBranches  = [3]string{"CleanJetGT30_pt_1", "CleanJetGT30_pt_2", "CleanJetGT30_pt_3"}
	etaBranches = [3]string{"CleanJetGT30_eta_1", "CleanJetGT30_eta_2", "CleanJetGT30_eta_3"}
)

// Multiplicity masks. The first five are disjoint and cover every event;
// GTE2j is the union of 2j, 3j and GTE4j.
const (
	Pass0j    = "pass_0j_cuts"
	Pass1j    = "pass_1j_cuts"
	Pass2j    = "pass_2j_cuts"
	Pass3j    = "pass_3j_cuts"
	PassGTE4j = "pass_GTE4j_cuts"
	PassGTE2j = "pass_GTE2j_cuts"
)

var modeMasks = map[branches.JetMode]string{
	branches.ZeroJet:  Pass0j,
	branches.OneJet:   Pass1j,
	branches.TwoJet:   Pass2j,
	branches.ThreeJet: Pass3j,
	branches.GTE2Jet:  PassGTE2j,
}

// Classify counts qualifying jets, appends the count and the pT and eta of
// the three leading qualifying jets, and stores the multiplicity masks.
// Events with four or more jets keep only their leading three.
func Classify(t *event.Table) error {
	nJet, err := t.Ints("nCleanJet")
	if err != nil {
		return err
	}
	pt, err := t.FloatArrays("CleanJet_pt")
	if err != nil {
		return err
	}
	eta, err := t.FloatArrays("CleanJet_eta")
	if err != nil {
		return err
	}

	n := t.Len()
	count := make(event.Ints, n)
	var jetPt, jetEta [3]event.Floats
	for k := range jetPt {
		jetPt[k] = make(event.Floats, n)
		jetEta[k] = make(event.Floats, n)
	}
	masks := make([]event.Mask, 5)
	for i := 0; i < n; i++ {
		for k := range jetPt {
			jetPt[k][i], jetEta[k][i] = math.NaN(), math.NaN()
		}
		stop := int(nJet[i])
		if stop > len(pt[i]) || stop > len(eta[i]) {
			stop = min(len(pt[i]), len(eta[i]))
		}
		passing := 0
		for j := 0; j < stop; j++ {
			if !(pt[i][j] > PtMin && math.Abs(eta[i][j]) < EtaMax) {
				continue
			}
			if passing < len(jetPt) {
				jetPt[passing][i] = pt[i][j]
				jetEta[passing][i] = eta[i][j]
			}
			passing++
		}
		count[i] = int64(passing)
		b := min(passing, 4)
		masks[b] = append(masks[b], i)
	}

	t.Set(CountBranch, count)
	for k := range jetPt {
		t.Set(ptBranches[k], jetPt[k])
		t.Set(etaBranches[k], jetEta[k])
	}
	for b, name := range []string{Pass0j, Pass1j, Pass2j, Pass3j, PassGTE4j} {
		if masks[b] == nil {
			masks[b] = event.Mask{}
		}
		t.SetMask(name, masks[b])
	}
	t.SetMask(PassGTE2j, event.Union(masks[2], masks[3], masks[4]))

	slog.Info("jet multiplicity", "events", n,
		"0j", len(masks[0]), "1j", len(masks[1]), "2j", len(masks[2]),
		"3j", len(masks[3]), "GTE4j", len(masks[4]))
	return nil
}

// Apply classifies t and keeps the events of mode. Inclusive keeps all
// events.
func Apply(t *event.Table, mode branches.JetMode) (*event.Table, error) {
	if err := Classify(t); err != nil {
		return nil, err
	}
	if mode == branches.Inclusive {
		return t, nil
	}
	name, ok := modeMasks[mode]
	if !ok {
		return nil, fmt.Errorf("unknown jet mode %q", mode)
	}
	return event.Filter(t, name, nil)
}
