package cstack

import (
	"fmt"
	"math"

	log "github.com/sirupsen/logrus"
	"github.com/skypies/util/histogram"

	"github.com/awray/chromastack/pkg/fgrid"
)

// StretchOptions control how a band's linear dynamic range is
// compressed into [0,255].
type StretchOptions struct {
	LowPercentile  float64 // robust black point, e.g. 0.1
	HighPercentile float64 // robust white point, e.g. 99.9
	Gamma          float64 // power-law stretch exponent; <1 boosts faint features
	LogStretch     bool    // use a logarithmic stretch instead of the power law
	SliceRows      int     // rows per processing slice; <=0 processes the whole grid at once
}

// logStretchScale sets how hard the log stretch lifts the faint end.
const logStretchScale = 1000.0

// AdjustContrast rescales a grid of linear intensities, in place, to
// integer values in [0,255]. The percentile clip bounds are computed
// once, globally, over the finite pixels; the rescale is then applied
// slice-by-slice so a single huge mosaic never needs a second
// full-size working buffer. Computing bounds per slice instead would
// put visible seams at the slice boundaries - don't.
//
// NaN/Inf pixels (frame edges) are excluded from the bounds and come
// out as 0. The output has no NaNs.
func AdjustContrast(g *fgrid.FloatGrid, opt StretchOptions) error {
	lo, hi, ok := g.PercentileBounds(opt.LowPercentile, opt.HighPercentile)
	if !ok {
		return fmt.Errorf("percentiles undefined, no finite pixels: %w", ErrData)
	}

	span := hi - lo
	if span == 0 {
		span = 1 // constant image; everything maps to 0
	}

	sliceRows := opt.SliceRows
	if sliceRows <= 0 {
		sliceRows = g.Dy()
	}

	hist := histogram.Histogram{NumBuckets: 256, ValMin: 0, ValMax: 256}

	for y0 := 0; y0 < g.Dy(); y0 += sliceRows {
		y1 := y0 + sliceRows
		if y1 > g.Dy() {
			y1 = g.Dy()
		}
		for y := y0; y < y1; y++ {
			row := g.Row(y)
			for i, v := range row {
				row[i] = stretchValue(v, lo, span, opt)
				hist.Add(histogram.ScalarVal(int(row[i])))
			}
		}
	}

	log.Debugf("contrast: bounds [%g, %g] at percentiles (%g, %g), output %v",
		lo, hi, opt.LowPercentile, opt.HighPercentile, hist)
	return nil
}

func stretchValue(v, lo, span float64, opt StretchOptions) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	n := (v - lo) / span
	if n < 0 {
		n = 0
	} else if n > 1 {
		n = 1
	}

	switch {
	case opt.LogStretch:
		n = math.Log1p(n*logStretchScale) / math.Log1p(logStretchScale)
	case opt.Gamma > 0 && opt.Gamma != 1:
		n = math.Pow(n, opt.Gamma)
	}

	return math.Round(n * 255.0)
}
