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
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette/moreland"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/decibelcooper/htauplot"
	"github.com/decibelcooper/htauplot/binned"
	"github.com/decibelcooper/htauplot/config"
	"github.com/decibelcooper/htauplot/dataset"
	"github.com/decibelcooper/htauplot/pipeline"
	"github.com/decibelcooper/htauplot/response"
)

var (
	configFile = flag.String("config", "", "TOML analysis configuration")
	finalState = flag.String("final_state", "mutau", "ditau, mutau, etau, emu or dimuon")
	era        = flag.String("era", "2022 EFG", "luminosity era")
	deepTau    = flag.String("deeptau", "2p5", "DeepTau version, 2p1 or 2p5")
	jetMode    = flag.String("jet_mode", "Inclusive", "Inclusive, 0j, 1j, 2j, 3j or GTE2j")
	sampleDir  = flag.String("dir", "", "directory holding the skimmed samples")
	outDir     = flag.String("out", "signal_response_plots", "output directory")
	processes  = htauplot.NewStringArrayFlags("ggH_TauTau")
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
	flag.Var(processes, "process", "signal dataset, repeatable or comma separated")
}

const (
	recoPt   = "HTT_H_pt"
	genPt    = "Gen_H_pT"
	recoJets = "nCleanJetGT30"
	genJets  = "Gen_nCleanJet"

	peakCorrected = "HTT_H_pt_corr_Run2"
	meanCorrected = "HTT_H_pt_corr"
)

// pairs are the reconstructed variables compared with their generator
// value in the response matrices.
var pairs = []struct {
	reco, gen string
	edges     []float64
}{
	{peakCorrected, genPt, response.PtEdges},
	{meanCorrected, genPt, response.PtEdges},
	{recoPt, genPt, response.PtEdges},
	{recoJets, genJets, response.JetEdges},
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `Usage: `+os.Args[0]+` [options]

Reconstructed against generator-level Higgs pT and jet multiplicity of the
signal, the binned pT corrections derived from them and the response
matrices.

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

	procs := processes.Array
	if !processes.IsSet() && len(cfg.Data.Processes) > 0 {
		procs = cfg.Data.Processes
	}

	runner := &pipeline.Runner{Source: &dataset.ROOTSource{Dir: cfg.Data.Dir, FileMap: fileMap, Tree: cfg.Data.Tree}}
	acc, err := runner.Run(context.Background(), pipeline.Options{
		FinalState: cfg.Analysis.FinalState,
		Era:        cfg.Analysis.Era,
		DeepTau:    cfg.Analysis.DeepTau,
		JetMode:    cfg.Analysis.JetMode,
		Processes:  procs,
		Selection:  sel,
		Vars:       []string{recoPt, genPt, recoJets, genJets},
	})
	if err != nil {
		log.Fatal(err)
	}
	_, _, sig := acc.Sort()
	if len(sig) == 0 {
		log.Fatal("no signal events passed the selection")
	}

	for _, e := range sig {
		prefix := filepath.Join(cfg.Output.Dir, cfg.Analysis.FinalState.String()+"_"+e.Meta.Name)
		title := fmt.Sprintf("%s : %s", cfg.Analysis.FinalState, e.Meta.Name)
		slog.Info("signal response", "dataset", e.Meta.Name, "events", e.Len())

		if err := plotResponse(e, title, prefix); err != nil {
			log.Fatal(err)
		}
		peak, mean, err := correct(e)
		if err != nil {
			log.Fatal(err)
		}
		fmt.Printf("%s corrections\n", e.Meta.Name)
		for i := range peak.Edges {
			fmt.Printf("reco pT >= %5.0f: peak %.3f mean %.3f\n", peak.Edges[i], peak.Factors[i], mean.Factors[i])
		}
		if err := plotCorrections(peak, mean, title, prefix+"_corrections"); err != nil {
			log.Fatal(err)
		}
		corrDiff, err := response.NormedDiff(e.PlotEvents[meanCorrected], e.PlotEvents[genPt])
		if err != nil {
			log.Fatal(err)
		}
		if err := plotDiff(corrDiff, "H_pT (Reco*Correction - Gen) / Gen", title, prefix+"_normed_diff_corrected"); err != nil {
			log.Fatal(err)
		}
		ptEdges, err := binned.Edges(recoPt)
		if err != nil {
			log.Fatal(err)
		}
		m := response.NewMatrix(ptEdges, response.DiffEdges)
		if err := m.FillN(e.PlotEvents[recoPt], corrDiff, nil); err != nil {
			log.Fatal(err)
		}
		if err := plotMatrix(m, ptEdges, response.DiffEdges, "Reco H_pT", "H_pT (Reco*Correction - Gen) / Gen", title, prefix+"_2D_corrected"); err != nil {
			log.Fatal(err)
		}

		for _, norm := range []response.Normalization{response.Row, response.Column} {
			ms, err := matrices(e, norm)
			if err != nil {
				log.Fatal(err)
			}
			for i, m := range ms {
				p := pairs[i]
				name := fmt.Sprintf("%s_%s_%s_%s", e.Meta.Name, cfg.Analysis.FinalState, norm, p.reco)
				mTitle := fmt.Sprintf("%s %s unity normalization response", e.Meta.Name, norm)
				if err := plotMatrix(m, p.edges, p.edges, p.gen, p.reco, mTitle, filepath.Join(cfg.Output.Dir, name)); err != nil {
					log.Fatal(err)
				}
			}
		}
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

// correct derives both pT corrections of a signal entry and stores the
// corrected pT next to the reconstructed one.
func correct(e *dataset.Entry) (peak, mean response.Correction, err error) {
	reco, gen := e.PlotEvents[recoPt], e.PlotEvents[genPt]
	if peak, err = response.Peak(reco, gen, response.CorrectionEdges); err != nil {
		return peak, mean, fmt.Errorf("%s: %w", e.Meta.Name, err)
	}
	if mean, err = response.MeanRatio(reco, gen, response.CorrectionEdges); err != nil {
		return peak, mean, fmt.Errorf("%s: %w", e.Meta.Name, err)
	}
	e.PlotEvents[peakCorrected] = peak.Apply(reco)
	e.PlotEvents[meanCorrected] = mean.Apply(reco)
	return peak, mean, nil
}

// matrices fills one response matrix per pair, in order. The corrected
// variables must have been stored by correct.
func matrices(e *dataset.Entry, norm response.Normalization) ([]*response.Matrix, error) {
	out := make([]*response.Matrix, 0, len(pairs))
	for _, p := range pairs {
		reco, ok := e.PlotEvents[p.reco]
		if !ok {
			return nil, fmt.Errorf("%s: no %s", e.Meta.Name, p.reco)
		}
		m := response.NewMatrix(p.edges, p.edges)
		if err := m.FillN(e.PlotEvents[p.gen], reco, nil); err != nil {
			return nil, fmt.Errorf("%s: %s: %w", e.Meta.Name, p.reco, err)
		}
		out = append(out, m.Normalized(norm))
	}
	return out, nil
}

// plotResponse draws the uncorrected comparison: the normalized difference
// overall and per reconstructed bin, the raw ratio and the difference
// against reconstructed pT.
func plotResponse(e *dataset.Entry, title, prefix string) error {
	reco, gen := e.PlotEvents[recoPt], e.PlotEvents[genPt]
	diff, err := response.NormedDiff(reco, gen)
	if err != nil {
		return err
	}
	if err := plotDiff(diff, "H_pT (Reco - Gen) / Gen", title, prefix+"_normed_diff"); err != nil {
		return err
	}

	p := hplot.New()
	p.Title.Text = title
	p.X.Label.Text = "H_pT (Reco - Gen) / Gen"
	p.Y.Label.Text = "Normalized Events"
	edges := response.CorrectionEdges
	for k := 0; k+1 < len(edges); k++ {
		var inBin []float64
		for i, v := range reco {
			if v >= edges[k] && v < edges[k+1] {
				inBin = append(inBin, diff[i])
			}
		}
		h := response.PeakNormalized(inBin, response.DiffEdges)
		line := hplot.NewH1D(binned.Fill(binned.Midpoints(h.Edges), h.Values, h.Edges))
		line.LineStyle.Color = plotutil.Color(k)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("[%.0f - %.0f]", edges[k], edges[k+1]), line)
	}
	if err := htauplot.Save(p.Plot, prefix+"_normed_diff_unrolled"); err != nil {
		return err
	}

	ratio, err := response.Ratio(reco, gen)
	if err != nil {
		return err
	}
	hRatio := binned.FromH1D(binned.Fill(ratio, nil, response.RatioEdges), response.RatioEdges)
	p = hplot.New()
	p.Title.Text = title
	p.X.Label.Text = "H_pT Reco/Gen"
	p.Y.Label.Text = "Events"
	if err := htauplot.AddPoints(p.Plot, hRatio, color.RGBA{B: 255, A: 255}, e.Meta.Name); err != nil {
		return err
	}
	if err := htauplot.Save(p.Plot, prefix+"_raw_ratio"); err != nil {
		return err
	}

	ptEdges, err := binned.Edges(recoPt)
	if err != nil {
		return err
	}
	m := response.NewMatrix(ptEdges, response.DiffEdges)
	if err := m.FillN(reco, diff, nil); err != nil {
		return err
	}
	return plotMatrix(m, ptEdges, response.DiffEdges, "Reco H_pT", "H_pT (Reco - Gen) / Gen", title, prefix+"_2D")
}

func plotDiff(diff []float64, xLabel, title, prefix string) error {
	p := hplot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = "Normalized Events"
	h := response.PeakNormalized(diff, response.DiffEdges)
	if err := htauplot.AddPoints(p.Plot, h, color.RGBA{B: 255, A: 255}, ""); err != nil {
		return err
	}
	zero, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 0, Y: 1.1}})
	if err != nil {
		return err
	}
	zero.LineStyle.Color = color.Gray{Y: 128}
	zero.LineStyle.Dashes = plotutil.Dashes(1)
	p.Add(zero)
	p.Y.Min, p.Y.Max = 0, 1.1
	return htauplot.Save(p.Plot, prefix)
}

func plotCorrections(peak, mean response.Correction, title, prefix string) error {
	p := hplot.New()
	p.Title.Text = title
	p.X.Label.Text = "Reco H_pT"
	p.Y.Label.Text = "Correction"
	p.X.Tick.Marker = htauplot.EdgeTicks{Edges: peak.Edges}
	n := len(peak.Edges) - 1
	zeros := make([]float64, n)
	for i, c := range []response.Correction{peak, mean} {
		h := binned.Hist{Edges: c.Edges, Values: c.Factors[:n], Errors: zeros}
		label := "1/(peak+1)"
		if i == 1 {
			label = "mean gen / mean reco"
		}
		if err := htauplot.AddPoints(p.Plot, h, htauplot.OrderColor(i), label); err != nil {
			return err
		}
	}
	return htauplot.Save(p.Plot, prefix)
}

// plotMatrix draws m as a heat map with a color bar on the right, the bins
// labeled with their edges.
func plotMatrix(m *response.Matrix, xEdges, yEdges []float64, xLabel, yLabel, title, prefix string) error {
	p := hplot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.X.Tick.Marker = htauplot.IndexTicks{Edges: xEdges}
	p.Y.Tick.Marker = htauplot.IndexTicks{Edges: yEdges}

	zMax := 1.0
	if m.Norm == response.Raw {
		nx, ny := m.Dims()
		zs := make([]float64, 0, nx*ny)
		for i := 0; i < nx; i++ {
			for j := 0; j < ny; j++ {
				zs = append(zs, m.Z(i, j))
			}
		}
		if zMax = floats.Max(zs); zMax <= 0 {
			zMax = 1
		}
	}

	img := vgimg.New(670, 400)
	dc := draw.New(img)
	dc0 := draw.Crop(dc, 0, -70, 0, 0)
	dc1 := draw.Crop(dc, 620, 0, 0, 0)

	colorMap := moreland.ExtendedBlackBody()
	colorMap.SetMin(0)
	colorMap.SetMax(zMax)
	heatMap := plotter.NewHeatMap(m, colorMap.Palette(1000))
	heatMap.Min = 0
	heatMap.Max = zMax
	p.Add(heatMap)
	p.Draw(dc0)

	bar := plot.New()
	colorBar := &plotter.ColorBar{ColorMap: colorMap}
	colorBar.Vertical = true
	bar.Add(colorBar)
	bar.HideX()
	bar.Y.Padding = 0
	bar.Draw(dc1)

	w, err := os.Create(prefix + ".png")
	if err != nil {
		return err
	}
	defer w.Close()
	png := vgimg.PngCanvas{Canvas: img}
	_, err = png.WriteTo(w)
	return err
}
