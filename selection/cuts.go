// Package selection resolves the roles of the final-state leptons and
// applies the per-channel event selections.
package selection

import (
	"math"

	"github.com/decibelcooper/htauplot/branches"
	"github.com/decibelcooper/htauplot/event"
)

// Window is a trigger efficiency plateau: PtMin < pT (< PtMax when PtMax is
// set) and |eta| < EtaMax.
type Window struct {
	PtMin, PtMax float64
	EtaMax       float64
}

func (w Window) Contains(pt, eta float64) bool {
	if !(pt > w.PtMin) {
		return false
	}
	if w.PtMax > 0 && !(pt < w.PtMax) {
		return false
	}
	return math.Abs(eta) < w.EtaMax
}

// TriggerLeg is one trigger path and the plateau its objects must sit on.
// Second is only set for cross triggers with a requirement on the second
// object.
type TriggerLeg struct {
	Path   branches.Branch
	First  Window
	Second *Window
}

func (l TriggerLeg) pass(fired bool, pt1, eta1, pt2, eta2 float64) bool {
	if !fired || !l.First.Contains(pt1, eta1) {
		return false
	}
	return l.Second == nil || l.Second.Contains(pt2, eta2)
}

// WorkingPoints are minimum DeepTau working point indices against jets,
// muons and electrons.
type WorkingPoints struct {
	VsJet, VsMu, VsE int64
}

type deepTau struct {
	vsJet, vsMu, vsE event.IntArrays
}

func loadDeepTau(c *columns, v branches.DeepTauVersion) deepTau {
	j, m, e, err := v.IDBranches()
	if err != nil {
		c.fail(err)
		return deepTau{}
	}
	return deepTau{
		vsJet: c.intArrays(string(j)),
		vsMu:  c.intArrays(string(m)),
		vsE:   c.intArrays(string(e)),
	}
}

// pass checks tau number tau of event row against every axis.
func (d deepTau) pass(wp WorkingPoints, row int, tau int64) bool {
	j, ok1 := intAt(d.vsJet[row], tau)
	m, ok2 := intAt(d.vsMu[row], tau)
	e, ok3 := intAt(d.vsE[row], tau)
	return ok1 && ok2 && ok3 && j >= wp.VsJet && m >= wp.VsMu && e >= wp.VsE
}

// score returns the vs-jet working point of tau number tau, NaN when the
// event has no such tau.
func (d deepTau) score(row int, tau int64) float64 {
	j, ok := intAt(d.vsJet[row], tau)
	if !ok {
		return math.NaN()
	}
	return float64(j)
}

// TransverseMass of a lepton and the missing transverse momentum.
func TransverseMass(pt, phi, metPt, metPhi float64) float64 {
	return math.Sqrt(2 * pt * metPt * (1 - math.Cos(phi-metPhi)))
}

// Result is the outcome of a selection: the passing rows and the branches
// derived for them, one entry per passing row.
type Result struct {
	Mask    event.Mask
	Derived map[string]event.Column
	// Names lists derived branches in a stable order.
	Names []string
}

// Evaluator is one channel's selection.
type Evaluator interface {
	Evaluate(t *event.Table) (Result, error)
}

// derivedSet collects per-passing-event values of derived branches.
type derivedSet struct {
	names []string
	vals  map[string]event.Floats
}

func newDerived(names []string) *derivedSet {
	d := &derivedSet{names: names, vals: make(map[string]event.Floats, len(names))}
	for _, n := range names {
		d.vals[n] = event.Floats{}
	}
	return d
}

func (d *derivedSet) add(name string, v float64) { d.vals[name] = append(d.vals[name], v) }

func (d *derivedSet) result(mask event.Mask) Result {
	r := Result{Mask: mask, Derived: make(map[string]event.Column, len(d.names)), Names: d.names}
	for _, n := range d.names {
		r.Derived[n] = d.vals[n]
	}
	return r
}

// emptyResult is returned for tables without events.
func emptyResult() Result { return Result{Mask: event.Mask{}, Derived: map[string]event.Column{}} }

// columns fetches branches, remembering the first error so evaluators can
// load everything up front and check once.
type columns struct {
	t   *event.Table
	err error
}

func (c *columns) fail(err error) {
	if c.err == nil {
		c.err = err
	}
}

func (c *columns) floats(name string) event.Floats {
	v, err := c.t.Floats(name)
	c.fail(err)
	return v
}

func (c *columns) ints(name string) event.Ints {
	v, err := c.t.Ints(name)
	c.fail(err)
	return v
}

func (c *columns) bools(name string) event.Bools {
	v, err := c.t.Bools(name)
	c.fail(err)
	return v
}

func (c *columns) floatArrays(name string) event.FloatArrays {
	v, err := c.t.FloatArrays(name)
	c.fail(err)
	return v
}

func (c *columns) intArrays(name string) event.IntArrays {
	v, err := c.t.IntArrays(name)
	c.fail(err)
	return v
}

func (c *columns) triggers(legs []TriggerLeg) []event.Bools {
	out := make([]event.Bools, len(legs))
	for i, l := range legs {
		out[i] = c.bools(string(l.Path))
	}
	return out
}

func floatAt(s []float64, i int64) (float64, bool) {
	if i < 0 || i >= int64(len(s)) {
		return 0, false
	}
	return s[i], true
}

func intAt(s []int64, i int64) (int64, bool) {
	if i < 0 || i >= int64(len(s)) {
		return 0, false
	}
	return s[i], true
}

// lepton is one resolved final-state object.
type lepton struct {
	pt, eta, phi, iso float64
	dxy, dz           float64
}

// leptonAt reads the lepton in slot of row, with dxy/dz taken from the
// object's own branches at branchIdx. iso may be nil for channels that do
// not need it.
func leptonAt(pt, eta, phi, iso, dxy, dz event.FloatArrays, row int, slot, branchIdx int64) (lepton, bool) {
	var l lepton
	var ok [5]bool
	l.pt, ok[0] = floatAt(pt[row], slot)
	l.eta, ok[1] = floatAt(eta[row], slot)
	l.phi, ok[2] = floatAt(phi[row], slot)
	l.dxy, ok[3] = floatAt(dxy[row], branchIdx)
	l.dz, ok[4] = floatAt(dz[row], branchIdx)
	if iso != nil {
		var isoOK bool
		l.iso, isoOK = floatAt(iso[row], slot)
		if !isoOK {
			return l, false
		}
	}
	l.dxy = math.Abs(l.dxy)
	return l, ok[0] && ok[1] && ok[2] && ok[3] && ok[4]
}

func (d *derivedSet) addLepton(prefix string, l lepton, withIso bool) {
	d.add(prefix+"_pt", l.pt)
	d.add(prefix+"_eta", l.eta)
	d.add(prefix+"_phi", l.phi)
	if withIso {
		d.add(prefix+"_iso", l.iso)
	}
	d.add(prefix+"_dxy", l.dxy)
	d.add(prefix+"_dz", l.dz)
}
