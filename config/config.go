// Package config holds the analysis configuration read from TOML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"

	"github.com/decibelcooper/htauplot/branches"
	"github.com/decibelcooper/htauplot/dataset"
	"github.com/decibelcooper/htauplot/fakefactor"
)

// Config is one analysis setup.
type Config struct {
	Analysis   AnalysisConfig     `toml:"analysis"`
	Data       DataConfig         `toml:"data"`
	Luminosity map[string]float64 `toml:"luminosity"`
	FakeFactor FakeFactorConfig   `toml:"fake_factor"`
	Output     OutputConfig       `toml:"output"`
}

// AnalysisConfig selects the channel and the base event selection.
type AnalysisConfig struct {
	FinalState branches.FinalState     `toml:"final_state"`
	Era        string                  `toml:"era"`
	DeepTau    branches.DeepTauVersion `toml:"deeptau"`
	JetMode    branches.JetMode        `toml:"jet_mode"`
	// Selection is applied while loading. Empty means the default for the
	// final state.
	Selection string   `toml:"selection"`
	GoodRuns  []uint32 `toml:"good_runs"`
}

// DataConfig locates the skimmed samples.
type DataConfig struct {
	Dir  string `toml:"dir"`
	Tree string `toml:"tree"`
	// Processes restricts the run to these datasets when not empty.
	Processes []string `toml:"processes"`
}

// Region is a named selection applied after the final-state cuts.
type Region struct {
	Name      string `toml:"name"`
	Selection string `toml:"selection"`
}

// Window is a fit range over bin midpoints.
type Window struct {
	Min float64 `toml:"min"`
	Max float64 `toml:"max"`
}

type FakeFactorConfig struct {
	Numerator   Region `toml:"numerator"`
	Denominator Region `toml:"denominator"`
	// VsJetMin is the loosened tau vs-jet working point of both regions;
	// they split on the derived vsJet branches instead.
	VsJetMin int64             `toml:"vsjet_min"`
	Orders   []int             `toml:"orders"`
	Windows  map[string]Window `toml:"windows"`
}

type OutputConfig struct {
	Dir string `toml:"dir"`
	// Report is the name of the compressed JSON report written to Dir.
	Report string `toml:"report"`
}

// Integrated luminosities in fb^-1.
var defaultLuminosity = map[string]float64{
	"2022 C":   4.95,
	"2022 D":   2.92,
	"2022 CD":  7.98,
	"2022 E":   5.81,
	"2022 F":   17.78,
	"2022 G":   3.08,
	"2022 EFG": 26.67,
	"2023 C":   17.79,
	"2023 D":   9.45,
}

var commonSelection = "METfilters && LeptonVeto == 0 && JetMapVeto_EE_30GeV && JetMapVeto_HotCold_30GeV"

var finalStateSelection = map[branches.FinalState]string{
	branches.Ditau:  " && abs(HTT_pdgId) == 15*15 && Trigger_ditau",
	branches.MuTau:  " && abs(HTT_pdgId) == 13*15 && Trigger_mutau",
	branches.ETau:   " && abs(HTT_pdgId) == 11*15 && Trigger_etau",
	branches.EMu:    " && abs(HTT_pdgId) == 11*13 && Trigger_emu",
	branches.Dimuon: "",
}

// DefaultSelection is the loading selection of a final state.
func DefaultSelection(fs branches.FinalState) string {
	return commonSelection + finalStateSelection[fs]
}

// Default returns the mutau setup for 2022 EFG.
func Default() *Config {
	lumi := make(map[string]float64, len(defaultLuminosity))
	for k, v := range defaultLuminosity {
		lumi[k] = v
	}
	windows := make(map[string]Window)
	for k, w := range fakefactor.DefaultWindows() {
		windows[k] = Window{Min: w.Min, Max: w.Max}
	}
	return &Config{
		Analysis: AnalysisConfig{
			FinalState: branches.MuTau,
			Era:        "2022 EFG",
			DeepTau:    branches.DeepTau2p5,
			JetMode:    branches.Inclusive,
		},
		Data: DataConfig{
			Dir:  "samples/mutau",
			Tree: "Events",
		},
		Luminosity: lumi,
		FakeFactor: FakeFactorConfig{
			Numerator:   Region{Name: "DRsr_aiso", Selection: "FS_mu_iso > 0.15 && FS_mu_iso < 0.5 && FS_tau_vsJet >= 5"},
			Denominator: Region{Name: "DRar_aiso", Selection: "FS_mu_iso > 0.15 && FS_mu_iso < 0.5 && FS_tau_vsJet < 5"},
			VsJetMin:    1,
			Orders:      []int{0, 1, 2, 3, 4},
			Windows:     windows,
		},
		Output: OutputConfig{
			Dir:    "plots",
			Report: "report.json.zst",
		},
	}
}

// Load reads path over the defaults and validates the result.
func Load(path string) (*Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	if err := toml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	if _, err := branches.Year(c.Analysis.Era); err != nil {
		errs = append(errs, err)
	}
	if _, ok := c.Luminosity[c.Analysis.Era]; !ok {
		errs = append(errs, fmt.Errorf("no luminosity for era %q", c.Analysis.Era))
	}
	if c.Analysis.FinalState.HasTau() {
		if _, _, _, err := c.Analysis.DeepTau.IDBranches(); err != nil {
			errs = append(errs, err)
		}
	}
	if _, err := branches.ParseJetMode(string(c.Analysis.JetMode)); err != nil {
		errs = append(errs, err)
	}
	if _, err := dataset.ParseSelection(c.Selection()); err != nil {
		errs = append(errs, fmt.Errorf("analysis.selection: %w", err))
	}
	if c.Data.Dir == "" {
		errs = append(errs, errors.New("data.dir is required"))
	}
	for _, r := range []Region{c.FakeFactor.Numerator, c.FakeFactor.Denominator} {
		if r.Name == "" {
			errs = append(errs, errors.New("fake factor regions need a name"))
		}
		if _, err := dataset.ParseSelection(r.Selection); err != nil {
			errs = append(errs, fmt.Errorf("region %s: %w", r.Name, err))
		}
	}
	if c.FakeFactor.Numerator.Name != "" && c.FakeFactor.Numerator.Name == c.FakeFactor.Denominator.Name {
		errs = append(errs, fmt.Errorf("numerator and denominator are both %q", c.FakeFactor.Numerator.Name))
	}
	if c.FakeFactor.VsJetMin < 0 {
		errs = append(errs, fmt.Errorf("negative fake_factor.vsjet_min %d", c.FakeFactor.VsJetMin))
	}
	for _, o := range c.FakeFactor.Orders {
		if o < 0 {
			errs = append(errs, fmt.Errorf("negative fit order %d", o))
		}
	}
	for _, name := range sortedKeys(c.FakeFactor.Windows) {
		if w := c.FakeFactor.Windows[name]; w.Min >= w.Max {
			errs = append(errs, fmt.Errorf("window %s: min %g is not below max %g", name, w.Min, w.Max))
		}
	}
	return errors.Join(errs...)
}

// Selection is the loading selection, falling back to the final-state
// default.
func (c *Config) Selection() string {
	if c.Analysis.Selection != "" {
		return c.Analysis.Selection
	}
	return DefaultSelection(c.Analysis.FinalState)
}

// Lumi is the luminosity of the configured era.
func (c *Config) Lumi() float64 { return c.Luminosity[c.Analysis.Era] }

// Orchestrator builds the fit orchestrator for the configured orders and
// windows.
func (c *Config) Orchestrator() *fakefactor.Orchestrator {
	o := fakefactor.NewOrchestrator()
	if len(c.FakeFactor.Orders) > 0 {
		o.Orders = append([]int(nil), c.FakeFactor.Orders...)
	}
	o.Windows = make(map[string]fakefactor.Window, len(c.FakeFactor.Windows))
	for k, w := range c.FakeFactor.Windows {
		o.Windows[k] = fakefactor.Window{Min: w.Min, Max: w.Max}
	}
	return o
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set overrides one setting by its command-line flag name.
func (c *Config) Set(key, value string) error {
	switch key {
	case "final_state":
		return c.Analysis.FinalState.UnmarshalText([]byte(value))
	case "era":
		c.Analysis.Era = value
	case "deeptau":
		c.Analysis.DeepTau = branches.DeepTauVersion(value)
	case "jet_mode":
		m, err := branches.ParseJetMode(value)
		if err != nil {
			return err
		}
		c.Analysis.JetMode = m
	case "selection":
		c.Analysis.Selection = value
	case "dir":
		c.Data.Dir = value
	case "out":
		c.Output.Dir = value
	default:
		return fmt.Errorf("unknown setting %q", key)
	}
	return nil
}
