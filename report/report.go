// Package report writes yield tables and the compressed JSON record of the
// histograms and fits of a run.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/zstd"

	"github.com/decibelcooper/htauplot/binned"
	"github.com/decibelcooper/htauplot/fakefactor"
)

// Report is everything a run produced.
type Report struct {
	FinalState string      `json:"final_state"`
	Era        string      `json:"era"`
	JetMode    string      `json:"jet_mode"`
	Lumi       float64     `json:"lumi_fb"`
	Yields     []Yield     `json:"yields,omitempty"`
	Histograms []Histogram `json:"histograms,omitempty"`
	Fits       []Fit       `json:"fits,omitempty"`
}

// Histogram is one binned distribution.
type Histogram struct {
	Variable string    `json:"variable"`
	Region   string    `json:"region,omitempty"`
	Name     string    `json:"name"`
	Edges    []float64 `json:"edges"`
	Values   []float64 `json:"values"`
	Errors   []float64 `json:"errors"`
}

// NewHistogram records h under name.
func NewHistogram(variable, region, name string, h binned.Hist) Histogram {
	return Histogram{
		Variable: variable,
		Region:   region,
		Name:     name,
		Edges:    h.Edges,
		Values:   h.Values,
		Errors:   h.Errors,
	}
}

// Fit is one polynomial order of one variable. Failed orders carry Error
// and no coefficients.
type Fit struct {
	Variable string    `json:"variable"`
	Order    int       `json:"order"`
	Coeffs   []float64 `json:"coeffs,omitempty"`
	Chi2     float64   `json:"chi2"`
	NDOF     int       `json:"ndof"`
	Label    string    `json:"label,omitempty"`
	Error    string    `json:"error,omitempty"`
}

// Fits flattens an outcome, one record per requested order.
func Fits(o fakefactor.Outcome, orders []int) []Fit {
	var out []Fit
	ri := 0
	for i, order := range orders {
		f := Fit{Variable: o.Variable, Order: order}
		if i < len(o.Errs) && o.Errs[i] != nil {
			f.Error = o.Errs[i].Error()
		} else if ri < len(o.Results) {
			r := o.Results[ri]
			ri++
			f.Coeffs = r.Coeffs
			f.Chi2 = r.Chi2
			f.NDOF = r.NDOF
			f.Label = r.Label()
		}
		out = append(out, f)
	}
	return out
}

// Write encodes r as zstd-compressed JSON.
func Write(w io.Writer, r *Report) error {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("failed to create compressor: %w", err)
	}
	if err := json.NewEncoder(enc).Encode(r); err != nil {
		_ = enc.Close()
		return fmt.Errorf("encoding report: %w", err)
	}
	return enc.Close()
}

// Read decodes a report written by Write.
func Read(r io.Reader) (*Report, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to create decompressor: %w", err)
	}
	defer dec.Close()
	var out Report
	if err := json.NewDecoder(dec).Decode(&out); err != nil {
		return nil, fmt.Errorf("decoding report: %w", err)
	}
	return &out, nil
}

func WriteFile(path string, r *Report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, r); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func ReadFile(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}
