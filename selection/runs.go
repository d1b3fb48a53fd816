package selection

import (
	"log/slog"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/decibelcooper/htauplot/event"
)

// RunCutMask is the mask name stored by ApplyRunCut.
const RunCutMask = "pass_run_cut"

// RunCut returns the events whose run number is in goodRuns.
func RunCut(t *event.Table, goodRuns []uint32) (event.Mask, error) {
	runs, err := t.Ints("run")
	if err != nil {
		return nil, err
	}
	good := roaring.BitmapOf(goodRuns...)
	if good.IsEmpty() {
		return event.Mask{}, nil
	}
	first, last := int64(good.Minimum()), int64(good.Maximum())
	slog.Debug("run cut", "first_run", first, "last_run", last)

	mask := event.Mask{}
	for i, r := range runs {
		if r < first || r > last {
			continue
		}
		if good.Contains(uint32(r)) {
			mask = append(mask, i)
		}
	}
	return mask, nil
}

// ApplyRunCut keeps only events from goodRuns.
func ApplyRunCut(t *event.Table, goodRuns []uint32) (*event.Table, error) {
	m, err := RunCut(t, goodRuns)
	if err != nil {
		return nil, err
	}
	return event.Select(t, RunCutMask, m, nil)
}
