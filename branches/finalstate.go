package branches

import (
	"fmt"
	"strings"
)

// FinalState is the decay channel hypothesis that decides which selection
// and which branches apply.
type FinalState int

const (
	Ditau FinalState = iota
	MuTau
	ETau
	EMu
	Dimuon
)

var finalStateNames = map[FinalState]string{
	Ditau:  "ditau",
	MuTau:  "mutau",
	ETau:   "etau",
	EMu:    "emu",
	Dimuon: "dimuon",
}

func (fs FinalState) String() string {
	if s, ok := finalStateNames[fs]; ok {
		return s
	}
	return fmt.Sprintf("FinalState(%d)", int(fs))
}

// ParseFinalState accepts the channel names used on the command line.
func ParseFinalState(s string) (FinalState, error) {
	for fs, name := range finalStateNames {
		if name == s {
			return fs, nil
		}
	}
	return 0, fmt.Errorf("unknown final state %q (want ditau, mutau, etau, emu or dimuon)", s)
}

// UnmarshalText lets configuration files carry final states by name.
func (fs *FinalState) UnmarshalText(b []byte) error {
	v, err := ParseFinalState(string(b))
	if err != nil {
		return err
	}
	*fs = v
	return nil
}

func (fs FinalState) MarshalText() ([]byte, error) { return []byte(fs.String()), nil }

// HasTau reports whether the channel selects hadronic tau candidates, which
// is when DeepTau branches are needed.
func (fs FinalState) HasTau() bool {
	return fs == Ditau || fs == MuTau || fs == ETau
}

// DeepTauVersion selects the tau identification discriminant generation.
type DeepTauVersion string

const (
	DeepTau2p1 DeepTauVersion = "2p1"
	DeepTau2p5 DeepTauVersion = "2p5"
)

// IDBranches returns the vsJet, vsMu and vsE working point branches.
func (v DeepTauVersion) IDBranches() (vsJet, vsMu, vsE Branch, err error) {
	switch v {
	case DeepTau2p1:
		return "Tau_idDeepTau2017v2p1VSjet", "Tau_idDeepTau2017v2p1VSmu", "Tau_idDeepTau2017v2p1VSe", nil
	case DeepTau2p5:
		return "Tau_idDeepTau2018v2p5VSjet", "Tau_idDeepTau2018v2p5VSmu", "Tau_idDeepTau2018v2p5VSe", nil
	}
	return "", "", "", fmt.Errorf("unknown DeepTau version %q, try 2p1 or 2p5", string(v))
}

// Year maps a luminosity era label such as "2022 EFG" to its data-taking
// year, which keys the trigger table.
func Year(era string) (string, error) {
	switch {
	case strings.Contains(era, "2022"):
		return "2022", nil
	case strings.Contains(era, "2023"):
		return "2023", nil
	}
	return "", fmt.Errorf("era %q is neither 2022 nor 2023", era)
}

// Role is how a dataset enters a plot.
type Role int

const (
	Background Role = iota
	Data
	Signal
)

func (r Role) String() string {
	switch r {
	case Data:
		return "data"
	case Signal:
		return "signal"
	}
	return "background"
}

// RoleOf classifies a dataset by naming convention.
func RoleOf(process string) Role {
	switch {
	case strings.Contains(process, "Data"):
		return Data
	case strings.Contains(process, "VBF"), strings.Contains(process, "ggH"):
		return Signal
	}
	return Background
}
