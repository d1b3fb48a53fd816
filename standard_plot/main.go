package main

import (
	"context"
	"flag"
	"fmt"
	"image/color"
	"log"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/pkg/profile"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot/plotutil"

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
	region     = flag.String("region", "", "selection applied after the final-state cuts")
	variables  = htauplot.NewStringArrayFlags()
	hideYields = flag.Bool("hide_yields", false, "do not print the yield table")
	doProfile  = flag.Bool("profile", false, "write a CPU profile to the output directory")
	verbose    = flag.Bool("v", false, "debug logging")
)

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
	flag.Var(variables, "var", "variable to plot, repeatable or comma separated")
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: `+os.Args[0]+` [options]

Data compared with stacked simulation for every plotted variable.

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
	var regionSel *dataset.Selection
	if *region != "" {
		if regionSel, err = dataset.ParseSelection(*region); err != nil {
			log.Fatal(err)
		}
	}

	fs, mode := cfg.Analysis.FinalState, cfg.Analysis.JetMode
	vars := plotVariables(fs, mode)
	if variables.IsSet() {
		vars = variables.Array
	}
	branchNames := make([]string, 0, len(vars))
	for _, v := range vars {
		branchNames = append(branchNames, binned.Branch(v))
	}

	runner := &pipeline.Runner{Source: &dataset.ROOTSource{Dir: cfg.Data.Dir, FileMap: fileMap, Tree: cfg.Data.Tree}}
	acc, err := runner.Run(context.Background(), pipeline.Options{
		FinalState: fs,
		Era:        cfg.Analysis.Era,
		DeepTau:    cfg.Analysis.DeepTau,
		JetMode:    mode,
		Processes:  pipeline.Processes(fileMap, cfg.Data.Processes),
		Selection:  sel,
		Region:     regionSel,
		GoodRuns:   cfg.Analysis.GoodRuns,
		Vars:       branchNames,
	})
	if err != nil {
		log.Fatal(err)
	}
	data, bkg, sig := acc.Sort()
	if len(data) == 0 {
		log.Fatal("no data events passed the selection")
	}

	lumi := cfg.Lumi()
	rep := &report.Report{
		FinalState: fs.String(),
		Era:        cfg.Analysis.Era,
		JetMode:    string(mode),
		Lumi:       lumi,
	}
	if rep.Yields, err = report.Yields(acc, lumi); err != nil {
		log.Fatal(err)
	}
	if !*hideYields {
		if err := report.WriteYields(os.Stdout, rep.Yields); err != nil {
			log.Fatal(err)
		}
	}

	plotTitle := fmt.Sprintf("%s, %s, %s, %.2f fb^-1", fs, mode, cfg.Analysis.Era, lumi)
	for _, v := range vars {
		slog.Info("plotting", "variable", v)
		edges, err := binned.Edges(v)
		if err != nil {
			log.Fatal(err)
		}
		_, hData, err := binned.Stack(data, v, edges, lumi, false)
		if err != nil {
			log.Fatal(err)
		}
		groups, labels, hMC, err := groupedBackgrounds(bkg, v, edges, lumi)
		if err != nil {
			log.Fatal(err)
		}
		hSig, _, err := binned.Stack(sig, v, edges, lumi, false)
		if err != nil {
			log.Fatal(err)
		}

		rep.Histograms = append(rep.Histograms, report.NewHistogram(v, *region, "data", hData))
		for i, h := range groups {
			rep.Histograms = append(rep.Histograms, report.NewHistogram(v, *region, labels[i], h))
		}
		for i, h := range hSig {
			rep.Histograms = append(rep.Histograms, report.NewHistogram(v, *region, sig[i].Meta.Name, h))
		}

		prefix := filepath.Join(cfg.Output.Dir, v)
		if err := plotStack(hData, groups, labels, hSig, sig, edges, v, plotTitle, prefix); err != nil {
			log.Fatal(err)
		}
		if err := plotDataOverMC(hData, hMC, edges, v, plotTitle, prefix+"_ratio"); err != nil {
			log.Fatal(err)
		}

		if binned.Branch(v) == "HTT_m_vis" {
			z, err := significance(edges, hSig, hMC)
			if err != nil {
				log.Fatal(err)
			}
			fmt.Printf("S/sqrt(B) for %s: %.3f\n", v, z)
		}
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

func plotVariables(fs branches.FinalState, mode branches.JetMode) []string {
	var vars []string
	for _, v := range branches.PlotVariables(fs, mode) {
		if _, err := binned.Edges(v); err != nil {
			slog.Debug("no binning, not plotted", "variable", v)
			continue
		}
		vars = append(vars, v)
	}
	return vars
}

// groupedBackgrounds sums the backgrounds into their stack groups, in order
// of first appearance, and returns the total as well.
func groupedBackgrounds(bkg []*dataset.Entry, v string, edges []float64, lumi float64) ([]binned.Hist, []string, binned.Hist, error) {
	hs, total, err := binned.Stack(bkg, v, edges, lumi, false)
	if err != nil {
		return nil, nil, binned.Hist{}, err
	}
	index := map[string]int{}
	var groups []binned.Hist
	var labels []string
	for i, e := range bkg {
		g := pipeline.Group(e.Meta.Name)
		k, ok := index[g]
		if !ok {
			k = len(groups)
			index[g] = k
			groups = append(groups, binned.Zero(edges))
			labels = append(labels, g)
		}
		if groups[k], err = binned.Sum(edges, groups[k], hs[i]); err != nil {
			return nil, nil, binned.Hist{}, err
		}
	}
	return groups, labels, total, nil
}

func plotStack(hData binned.Hist, groups []binned.Hist, labels []string, hSig []binned.Hist, sig []*dataset.Entry, edges []float64, v, plotTitle, prefix string) error {
	p := hplot.New()
	p.Title.Text = plotTitle
	p.X.Label.Text = v
	p.Y.Label.Text = "Events/Bin"
	p.X.Tick.Marker = htauplot.EdgeTicks{Edges: edges}

	colors := make([]color.Color, len(groups))
	for i := range colors {
		colors[i] = plotutil.SoftColors[i%len(plotutil.SoftColors)]
	}
	htauplot.Stack(p, groups, labels, colors)

	for i, h := range hSig {
		line := hplot.NewH1D(binned.Fill(binned.Midpoints(h.Edges), h.Values, h.Edges))
		line.LineStyle.Color = plotutil.DarkColors[i%len(plotutil.DarkColors)]
		line.LineStyle.Width = 2
		p.Add(line)
		p.Legend.Add(sig[i].Meta.Name, line)
	}
	if err := htauplot.AddPoints(p.Plot, hData, color.Black, "Data"); err != nil {
		return err
	}
	p.Y.Min = 0
	return htauplot.Save(p.Plot, prefix)
}

func plotDataOverMC(hData, hMC binned.Hist, edges []float64, v, plotTitle, prefix string) error {
	ratio, ratioErr := fakefactor.Ratios(hData.Values, hData.Errors, hMC.Values, hMC.Errors)
	p := hplot.New()
	p.Title.Text = plotTitle
	p.X.Label.Text = v
	p.Y.Label.Text = "Data/MC"
	p.X.Tick.Marker = htauplot.EdgeTicks{Edges: edges}
	if err := htauplot.AddPoints(p.Plot, binned.Hist{Edges: edges, Values: ratio, Errors: ratioErr}, color.Black, ""); err != nil {
		return err
	}
	p.Y.Min, p.Y.Max = 0.5, 1.5
	return htauplot.Save(p.Plot, prefix)
}

// significance is the summed signal over the square root of the total
// background, zero without background.
func significance(edges []float64, sig []binned.Hist, bkg binned.Hist) (float64, error) {
	s, err := binned.Sum(edges, sig...)
	if err != nil {
		return 0, err
	}
	if s.Len() != bkg.Len() {
		return 0, fmt.Errorf("significance: %d signal bins, %d background bins", s.Len(), bkg.Len())
	}
	var sumS, sumB float64
	for i := range s.Values {
		sumS += s.Values[i]
		sumB += bkg.Values[i]
	}
	if sumB <= 0 {
		return 0, nil
	}
	return sumS / math.Sqrt(sumB), nil
}
