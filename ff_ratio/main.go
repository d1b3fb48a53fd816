package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"log"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pkg/profile"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/gonum/floats"

	"github.com/decibelcooper/htauplot"
	"github.com/decibelcooper/htauplot/binned"
	"github.com/decibelcooper/htauplot/branches"
	"github.com/decibelcooper/htauplot/config"
	"github.com/decibelcooper/htauplot/dataset"
	"github.com/decibelcooper/htauplot/fakefactor"
	"github.com/decibelcooper/htauplot/pipeline"
	"github.com/decibelcooper/htauplot/report"
)

var (
	configFile = flag.String("config", "", "TOML analysis configuration")
	finalState = flag.String("final_state", "mutau", "ditau, mutau, etau, emu or dimuon")
	era        = flag.String("era", "2022 EFG", "luminosity era")
	deepTau    = flag.String("deeptau", "2p5", "DeepTau version, 2p1 or 2p5")
	jetMode    = flag.String("jet_mode", "Inclusive", "Inclusive, 0j, 1j, 2j, 3j or GTE2j")
	sampleDir  = flag.String("dir", "", "directory holding the skimmed samples")
	outDir     = flag.String("out", "plots", "output directory")
	orders     = htauplot.NewIntArrayFlags()
	variables  = htauplot.NewStringArrayFlags()
	title      = flag.String("title", "", "plot title (default era and luminosity)")
	doProfile  = flag.Bool("profile", false, "write a CPU profile to the output directory")
	verbose    = flag.Bool("v", false, "debug logging")
)

// settings are the flags that override the configuration file.
var settings = []struct {
	key   string
	value *string
}{
	{"final_state", finalState},
	{"era", era},
	{"deeptau", deepTau},
	{"jet_mode", jetMode},
	{"dir", sampleDir},
	{"out", outDir},
}

func init() {
	flag.Var(orders, "order", "fit order, repeatable or comma separated (default 0,1,2,3,4)")
	flag.Var(variables, "var", "variable to plot, repeatable or comma separated")
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: `+os.Args[0]+` [options]

Fake factor ratios between the numerator and denominator regions, with
polynomial fits of each ratio.

options:
`,
	)
	flag.PrintDefaults()
}

func main() {
	flag.Usage = printUsage
	flag.Parse()
	if flag.NArg() != 0 {
		printUsage()
		log.Fatal("Invalid arguments")
	}
	if *verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	cfg, err := loadConfig()
	if err != nil {
		log.Fatal(err)
	}
	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		log.Fatal(err)
	}
	if *doProfile {
		defer profile.Start(profile.ProfilePath(cfg.Output.Dir)).Stop()
	}

	fileMap, err := dataset.FileMap(cfg.Analysis.Era)
	if err != nil {
		log.Fatal(err)
	}
	sel, err := dataset.ParseSelection(cfg.Selection())
	if err != nil {
		log.Fatal(err)
	}
	vars := ffVariables(cfg.Analysis.FinalState, cfg.Analysis.JetMode)
	if variables.IsSet() {
		vars = variables.Array
	}

	runner := &pipeline.Runner{Source: &dataset.ROOTSource{Dir: cfg.Data.Dir, FileMap: fileMap, Tree: cfg.Data.Tree}}
	opts := pipeline.Options{
		FinalState: cfg.Analysis.FinalState,
		Era:        cfg.Analysis.Era,
		DeepTau:    cfg.Analysis.DeepTau,
		JetMode:    cfg.Analysis.JetMode,
		Processes:  pipeline.Processes(fileMap, cfg.Data.Processes),
		Selection:  sel,
		GoodRuns:   cfg.Analysis.GoodRuns,
		VsJetMin:   cfg.FakeFactor.VsJetMin,
		Vars:       plottedBranches(vars),
	}

	regions := []config.Region{cfg.FakeFactor.Numerator, cfg.FakeFactor.Denominator}
	accs := make([]*dataset.Accumulator, len(regions))
	for i, region := range regions {
		if opts.Region, err = dataset.ParseSelection(region.Selection); err != nil {
			log.Fatal(err)
		}
		slog.Info("processing region", "region", region.Name, "selection", region.Selection)
		if accs[i], err = runner.Run(context.Background(), opts); err != nil {
			log.Fatal(err)
		}
	}

	lumi := cfg.Lumi()
	rep := &report.Report{
		FinalState: cfg.Analysis.FinalState.String(),
		Era:        cfg.Analysis.Era,
		JetMode:    string(cfg.Analysis.JetMode),
		Lumi:       lumi,
	}
	for i, acc := range accs {
		ys, err := report.Yields(acc, lumi)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("Yields in %s\n", regions[i].Name)
		if err := report.WriteYields(os.Stdout, ys); err != nil {
			log.Fatal(err)
		}
		rep.Yields = append(rep.Yields, ys...)
	}

	plotTitle := *title
	if plotTitle == "" {
		plotTitle = fmt.Sprintf("%s, %.2f fb^-1", cfg.Analysis.Era, lumi)
	}
	orch := cfg.Orchestrator()
	if orders.IsSet() {
		orch.Orders = orders.Array
	}

	var outcomes []fakefactor.Outcome
	for _, v := range vars {
		slog.Info("plotting", "variable", v)
		edges, err := binned.Edges(v)
		if err != nil {
			log.Fatal(err)
		}

		diffs := make([]binned.Hist, len(regions))
		for i, acc := range accs {
			if diffs[i], err = dataMinusMC(acc, v, edges, lumi); err != nil {
				log.Fatal(err)
			}
			rep.Histograms = append(rep.Histograms, report.NewHistogram(v, regions[i].Name, "data-mc", diffs[i]))
		}
		prefix := filepath.Join(cfg.Output.Dir, v+"_"+regions[0].Name+"_"+regions[1].Name)
		if err := plotCompare(diffs, regions, edges, v, plotTitle, prefix+"_compare"); err != nil {
			log.Fatal(err)
		}

		num, den := diffs[0], diffs[1]
		ratio, ratioErr := fakefactor.Ratios(num.Values, num.Errors, den.Values, den.Errors)
		ratioHist := binned.Hist{Edges: edges, Values: ratio, Errors: ratioErr}
		rep.Histograms = append(rep.Histograms, report.NewHistogram(v, "", "ratio", ratioHist))

		outcome := orch.Fit(fakefactor.Input{
			Variable: v,
			Centers:  binned.Midpoints(edges),
			Ratio:    ratio,
			Err:      ratioErr,
		})
		outcomes = append(outcomes, outcome)
		rep.Fits = append(rep.Fits, report.Fits(outcome, orch.Orders)...)

		fmt.Println("FIT COEFFICIENTS", v)
		for _, r := range outcome.Results {
			fmt.Printf("order %d: %s\n", r.Order, r.Label())
		}
		label := regions[0].Name + " / " + regions[1].Name
		if err := plotRatio(ratioHist, outcome, edges, v, label, plotTitle, prefix+"_ratio"); err != nil {
			log.Fatal(err)
		}
	}

	if err := report.WriteFits(os.Stdout, outcomes, orch.Orders); err != nil {
		log.Fatal(err)
	}
	if err := report.WriteFile(filepath.Join(cfg.Output.Dir, cfg.Output.Report), rep); err != nil {
		log.Fatal(err)
	}
}

func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			return nil, err
		}
	}
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })
	for _, s := range settings {
		if !set[s.key] && *configFile != "" {
			continue
		}
		if err := cfg.Set(s.key, *s.value); err != nil {
			return nil, err
		}
	}
	if cfg.Data.Dir == "" {
		return nil, fmt.Errorf("no sample directory, use -dir or data.dir")
	}
	return cfg, cfg.Validate()
}

// ffVariables are the distributions the ratios are taken of.
func ffVariables(fs branches.FinalState, mode branches.JetMode) []string {
	var vars []string
	switch fs {
	case branches.Ditau:
		vars = []string{"HTT_m_vis-KSUbinning",
			"FS_t1_pt", "FS_t1_eta", "FS_t1_phi",
			"FS_t2_pt", "FS_t2_eta", "FS_t2_phi", "PuppiMET_pt"}
	case branches.MuTau:
		vars = []string{"HTT_m_vis-KSUbinning",
			"FS_tau_pt", "FS_tau_eta", "FS_tau_phi",
			"FS_mu_pt", "FS_mu_eta", "FS_mu_phi", "PuppiMET_pt", "FS_mt"}
	default:
		for _, v := range branches.PlotVariables(fs, branches.Inclusive) {
			if v == "HTT_m_vis" {
				v = "HTT_m_vis-KSUbinning"
			}
			if _, err := binned.Edges(v); err == nil {
				vars = append(vars, v)
			}
		}
		return vars
	}
	if mode == branches.OneJet || mode == branches.GTE2Jet {
		vars = append(vars, "CleanJetGT30_pt_1")
	}
	if mode == branches.GTE2Jet {
		vars = append(vars, "CleanJetGT30_pt_2")
	}
	return vars
}

func plottedBranches(vars []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, v := range vars {
		b := binned.Branch(v)
		if !seen[b] {
			seen[b] = true
			out = append(out, b)
		}
	}
	return out
}

func dataMinusMC(acc *dataset.Accumulator, v string, edges []float64, lumi float64) (binned.Hist, error) {
	data, bkg, _ := acc.Sort()
	_, d, err := binned.Stack(data, v, edges, lumi, false)
	if err != nil {
		return binned.Hist{}, err
	}
	_, mc, err := binned.Stack(bkg, v, edges, lumi, false)
	if err != nil {
		return binned.Hist{}, err
	}
	return binned.Subtract(d, mc)
}

func plotCompare(diffs []binned.Hist, regions []config.Region, edges []float64, v, plotTitle, prefix string) error {
	p := hplot.New()
	p.Title.Text = plotTitle
	p.X.Label.Text = v
	p.Y.Label.Text = "Events/Bin"
	p.X.Tick.Marker = htauplot.EdgeTicks{Edges: edges}

	colors := []color.Color{color.Black, color.RGBA{G: 160, A: 255}}
	for i, h := range diffs {
		if err := htauplot.AddPoints(p.Plot, h, colors[i%len(colors)], regions[i].Name+" : Data-MC"); err != nil {
			return err
		}
	}
	return htauplot.Save(p.Plot, prefix)
}

func plotRatio(ratio binned.Hist, outcome fakefactor.Outcome, edges []float64, v, label, plotTitle, prefix string) error {
	p := hplot.New()
	p.Title.Text = plotTitle
	p.X.Label.Text = v
	p.Y.Label.Text = "Fake Factor Ratio and Fit"
	p.X.Tick.Marker = htauplot.EdgeTicks{Edges: edges}

	if err := htauplot.AddPoints(p.Plot, ratio, color.Black, label); err != nil {
		return err
	}
	if pts := outcome.Points; pts.Len() > 0 {
		lo, hi := floats.Min(pts.X), floats.Max(pts.X)
		for _, r := range outcome.Results {
			if err := htauplot.AddFit(p.Plot, r, lo, hi, fmt.Sprintf("order %d", r.Order)); err != nil {
				return err
			}
		}
	}
	p.Y.Min, p.Y.Max = 0, 1
	return htauplot.Save(p.Plot, prefix)
}
