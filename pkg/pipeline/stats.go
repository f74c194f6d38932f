package pipeline

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/matzehuels/lightbox/pkg/gallery"
	"github.com/matzehuels/lightbox/pkg/layout"
)

// ComputeStats summarises a layout. Timings are left zero.
// The trailing uncommitted row is counted in Rows and Height but excluded
// from the row height distribution, since it is never scaled.
func ComputeStats(l gallery.Layout, opts Options) Stats {
	opts.SetLayoutDefaults()
	s := Stats{
		Rows:    len(l.Rows),
		Skipped: l.Skipped,
		Height:  l.Height(opts.Gap),
	}

	ideal := layout.IdealHeight(l.Width, layout.WithDivisor(opts.Divisor))
	var heights, errs []float64
	for _, r := range l.Rows {
		s.Images += r.Len()
		if !r.Committed {
			continue
		}
		heights = append(heights, r.Height)
		errs = append(errs, math.Abs(r.Height-ideal))
	}
	if len(heights) == 0 {
		return s
	}

	s.RowHeightMean, s.RowHeightStdDev = stat.MeanStdDev(heights, nil)
	if len(heights) == 1 {
		s.RowHeightStdDev = 0
	}
	s.RowHeightMin = floats.Min(heights)
	s.RowHeightMax = floats.Max(heights)
	s.MeanIdealError = stat.Mean(errs, nil)
	return s
}
