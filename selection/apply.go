package selection

import (
	"fmt"
	"log/slog"

	"github.com/decibelcooper/htauplot/branches"
	"github.com/decibelcooper/htauplot/event"
)

// CutsMask is the mask name the final-state selection is stored under.
const CutsMask = "pass_cuts"

// EvaluatorFor returns the selection of final state fs and the lepton roles
// it resolves first. Single-role channels return zero roles.
func EvaluatorFor(fs branches.FinalState, v branches.DeepTauVersion) (Evaluator, []Role, error) {
	switch fs {
	case branches.Ditau:
		return NewDitauCuts(v), nil, nil
	case branches.MuTau:
		return NewMuTauCuts(v), []Role{TauRole, MuonRole}, nil
	case branches.ETau:
		return NewETauCuts(v), []Role{TauRole, ElectronRole}, nil
	case branches.EMu:
		return NewEMuCuts(), []Role{ElectronRole, MuonRole}, nil
	case branches.Dimuon:
		return NewDimuonCuts(), nil, nil
	}
	return nil, nil, fmt.Errorf("no selection for final state %v", fs)
}

// Option adjusts the selection used by ApplyFinalState.
type Option func(Evaluator) Evaluator

// VsJetMin replaces the vs-jet working point the taus must reach. Channels
// without taus are unchanged.
func VsJetMin(wp int64) Option {
	return func(e Evaluator) Evaluator {
		switch c := e.(type) {
		case DitauCuts:
			c.WP.VsJet = wp
			return c
		case LepTauCuts:
			c.WP.VsJet = wp
			return c
		}
		return e
	}
}

// ApplyFinalState resolves the final-state leptons of t, evaluates the
// selection of fs and keeps only passing events, with the derived FS_*
// branches attached. A table without events is returned as is; a selection
// removing every event returns an error wrapping event.ErrEmptySelection.
func ApplyFinalState(t *event.Table, fs branches.FinalState, v branches.DeepTauVersion, opts ...Option) (*event.Table, error) {
	eval, roles, err := EvaluatorFor(fs, v)
	if err != nil {
		return nil, err
	}
	if t.Len() == 0 {
		return t, nil
	}
	for _, opt := range opts {
		eval = opt(eval)
	}
	if err := AppendLeptonIndices(t); err != nil {
		return nil, err
	}
	if len(roles) == 2 {
		if _, err := ResolveRoles(t, roles[0], roles[1]); err != nil {
			return nil, err
		}
	}
	if fs == branches.Dimuon {
		m, err := DimuonVeto(t)
		if err != nil {
			return nil, err
		}
		if t, err = event.Select(t, DimuonVetoMask, m, nil); err != nil {
			return nil, err
		}
	}

	res, err := eval.Evaluate(t)
	if err != nil {
		return nil, fmt.Errorf("%v cuts: %w", fs, err)
	}
	slog.Info("final state cuts", "final_state", fs, "before", t.Len(), "after", len(res.Mask))
	for _, name := range res.Names {
		t.Set(name, res.Derived[name])
	}
	return event.Select(t, CutsMask, res.Mask, res.Names)
}
