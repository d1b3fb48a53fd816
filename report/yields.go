package report

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/decibelcooper/htauplot/binned"
	"github.com/decibelcooper/htauplot/dataset"
	"github.com/decibelcooper/htauplot/event"
	"github.com/decibelcooper/htauplot/fakefactor"
)

// Yield is the event count of one dataset after all cuts.
type Yield struct {
	Process  string  `json:"process"`
	Role     string  `json:"role"`
	Events   int     `json:"events"`
	Weighted float64 `json:"weighted"`
}

// YieldOf sums the weights w of an accumulated dataset.
func YieldOf(e *dataset.Entry, w event.Floats) Yield {
	y := Yield{Process: e.Meta.Name, Role: e.Meta.Role.String(), Events: e.Len()}
	for _, v := range w {
		y.Weighted += v
	}
	return y
}

// Yields weights every entry of acc to lumi (in fb^-1).
func Yields(acc *dataset.Accumulator, lumi float64) ([]Yield, error) {
	var ys []Yield
	for _, e := range acc.Entries() {
		w, err := binned.Weights(e, lumi, false)
		if err != nil {
			return nil, err
		}
		ys = append(ys, YieldOf(e, w))
	}
	return ys, nil
}

// WriteYields prints one row per dataset, largest weighted yield first
// within each role, followed by the total simulation.
func WriteYields(w io.Writer, ys []Yield) error {
	rows := append([]Yield(nil), ys...)
	rank := map[string]int{"data": 0, "background": 1, "signal": 2}
	sort.SliceStable(rows, func(i, j int) bool {
		if rank[rows[i].Role] != rank[rows[j].Role] {
			return rank[rows[i].Role] < rank[rows[j].Role]
		}
		return rows[i].Weighted > rows[j].Weighted
	})

	table := tablewriter.NewWriter(w)
	table.Header("Process", "Role", "Events", "Weighted")
	var mc float64
	for _, y := range rows {
		if y.Role != "data" {
			mc += y.Weighted
		}
		if err := table.Append([]string{y.Process, y.Role, strconv.Itoa(y.Events), fmt.Sprintf("%.2f", y.Weighted)}); err != nil {
			return err
		}
	}
	if err := table.Append([]string{"Total MC", "", "", fmt.Sprintf("%.2f", mc)}); err != nil {
		return err
	}
	return table.Render()
}

// WriteFits prints the label of every order of every outcome.
func WriteFits(w io.Writer, outcomes []fakefactor.Outcome, orders []int) error {
	table := tablewriter.NewWriter(w)
	table.Header("Variable", "Order", "Points", "Fit")
	for _, o := range outcomes {
		for _, f := range Fits(o, orders) {
			text := f.Label
			if f.Error != "" {
				text = f.Error
			}
			row := []string{f.Variable, strconv.Itoa(f.Order), strconv.Itoa(o.Points.Len()), text}
			if err := table.Append(row); err != nil {
				return err
			}
		}
	}
	return table.Render()
}
