package fgrid

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"sort"

	"github.com/fogleman/gg"
	"gonum.org/v1/gonum/stat"
)

// A FloatGrid is a 2-D grid of float64 intensities, stored row-major.
// NaN/Inf values are legal in a grid (they show up at mosaic frame
// edges) - the stats helpers skip them.
type FloatGrid struct {
	stride int
	values []float64
}

func New(w, h int) *FloatGrid {
	return &FloatGrid{
		stride: w,
		values: make([]float64, w*h),
	}
}

// FromValues wraps an existing row-major slice. The slice is owned by
// the grid afterwards.
func FromValues(w, h int, values []float64) (*FloatGrid, error) {
	if len(values) != w*h {
		return nil, fmt.Errorf("fgrid: %d values for %dx%d grid", len(values), w, h)
	}
	return &FloatGrid{stride: w, values: values}, nil
}

func (fg *FloatGrid) Dx() int                 { return fg.stride }
func (fg *FloatGrid) Dy() int                 { return len(fg.values) / fg.stride }
func (fg *FloatGrid) Set(x, y int, v float64) { fg.values[fg.stride*y+x] = v }
func (fg *FloatGrid) Get(x, y int) float64    { return fg.values[fg.stride*y+x] }

// Row returns one row of the grid, as a mutable slice.
func (fg *FloatGrid) Row(y int) []float64 { return fg.values[fg.stride*y : fg.stride*(y+1)] }

func (fg *FloatGrid) NewFromThis() *FloatGrid { return New(fg.Dx(), fg.Dy()) }

func (fg *FloatGrid) Copy() *FloatGrid {
	g2 := &FloatGrid{stride: fg.stride, values: make([]float64, len(fg.values))}
	copy(g2.values, fg.values)
	return g2
}

// FiniteValues returns a sorted copy of all the finite values in the
// grid; NaN and Inf are skipped. The result may be empty.
func (fg *FloatGrid) FiniteValues() []float64 {
	vals := make([]float64, 0, len(fg.values))
	for _, v := range fg.values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			vals = append(vals, v)
		}
	}
	sort.Float64s(vals)
	return vals
}

// PercentileBounds returns the values at the given percentiles
// (expressed [0,100]) over the finite subset of the grid. The second
// return is false if the grid has no finite values to take a
// percentile of.
func (fg *FloatGrid) PercentileBounds(loPrct, hiPrct float64) (float64, float64, bool) {
	vals := fg.FiniteValues()
	if len(vals) == 0 {
		return 0, 0, false
	}
	lo := stat.Quantile(loPrct/100.0, stat.Empirical, vals, nil)
	hi := stat.Quantile(hiPrct/100.0, stat.Empirical, vals, nil)
	return lo, hi, true
}

func (fg *FloatGrid) Stats() string {
	min, max := math.MaxFloat64, -math.MaxFloat64
	nonFinite := 0
	for _, v := range fg.values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			nonFinite++
			continue
		}
		if v > max {
			max = v
		}
		if v < min {
			min = v
		}
	}
	return fmt.Sprintf("fg[%dx%d, vals{%g,%g}, %d non-finite]", fg.Dx(), fg.Dy(), min, max, nonFinite)
}

// ToImg saves a simple grayscale preview of the grid, min-max scaled
// and sRGB gamma expanded so it looks normal for human vision, with a
// caption so you can tell the dumps apart.
func (fg *FloatGrid) ToImg(title, filename string) error {
	vals := fg.FiniteValues()
	if len(vals) == 0 {
		return fmt.Errorf("fgrid: preview of grid with no finite values")
	}
	min, max := vals[0], vals[len(vals)-1]
	span := max - min
	if span == 0 {
		span = 1
	}

	img := image.NewRGBA(image.Rect(0, 0, fg.Dx(), fg.Dy()))
	for y := 0; y < fg.Dy(); y++ {
		for x := 0; x < fg.Dx(); x++ {
			v := fg.Get(x, y)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				v = min
			}
			gray := GammaExpand((v - min) / span)
			c := uint8(gray * 255.0)
			img.Set(x, y, color.RGBA{c, c, c, 0xff})
		}
	}

	dc := gg.NewContextForImage(img)
	dc.SetRGB(1, 1, 1)
	dc.DrawString(title, 10, 20)
	return dc.SavePNG(filename)
}

// GammaExpand applies the standard sRGB gamma expansion to a [0,1] value.
// https://www.sjbrown.co.uk/posts/gamma-correct-rendering/
func GammaExpand(f float64) float64 {
	if f <= 0.0031308 {
		return 12.92 * f
	}
	return 1.055*math.Pow(f, 1.0/2.4) - 0.055
}
