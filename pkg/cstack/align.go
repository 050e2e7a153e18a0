package cstack

import (
	"fmt"
	"math"

	"github.com/awray/chromastack/pkg/fgrid"
)

// Interpolation orders for Reproject.
const (
	InterpNearest  = 0
	InterpBilinear = 1
)

// Reproject resamples a band onto the reference grid: for every
// reference pixel, find the sky position, find where that lands in
// the source band, and interpolate the source intensity there.
//
// Reference pixels outside the source band's footprint come out as 0
// (not NaN), so downstream stages never have to NaN-handle. A band
// whose grid already equals the reference passes through unchanged -
// bit-exact, no resampling.
func Reproject(b Band, ref WCS, order int) (Band, error) {
	if order != InterpNearest && order != InterpBilinear {
		return Band{}, fmt.Errorf("interpolation order %d: %w", order, ErrConfig)
	}

	if b.Grid.Equal(ref) {
		return b, nil // identity: this band defines (or matches) the reference frame
	}

	skyToPix, err := b.Grid.SkyToPixelFunc()
	if err != nil {
		return Band{}, fmt.Errorf("band %s: %w", b.Filter, err)
	}
	if ref.CD == ([4]float64{}) {
		return Band{}, fmt.Errorf("reference grid has no CD matrix: %w", ErrAlignment)
	}

	out := fgrid.New(ref.NAxis1, ref.NAxis2)
	w, h := b.Pixels.Dx(), b.Pixels.Dy()

	for y := 0; y < ref.NAxis2; y++ {
		for x := 0; x < ref.NAxis1; x++ {
			ra, dec := ref.PixelToSky(float64(x), float64(y))
			sx, sy := skyToPix(ra, dec)

			if sx < 0 || sy < 0 || sx > float64(w-1) || sy > float64(h-1) {
				continue // outside the source footprint, stays 0
			}

			if order == InterpNearest {
				out.Set(x, y, b.Pixels.Get(int(math.Round(sx)), int(math.Round(sy))))
			} else {
				out.Set(x, y, bilinear(b.Pixels, sx, sy))
			}
		}
	}

	return Band{
		LoadFilename: b.LoadFilename,
		Filter:       b.Filter,
		Wavelength:   b.Wavelength,
		Grid:         ref,
		Pixels:       out,
	}, nil
}

func bilinear(g *fgrid.FloatGrid, x, y float64) float64 {
	x0, y0 := int(math.Floor(x)), int(math.Floor(y))
	x1, y1 := x0+1, y0+1
	if x1 > g.Dx()-1 {
		x1 = g.Dx() - 1
	}
	if y1 > g.Dy()-1 {
		y1 = g.Dy() - 1
	}
	fx, fy := x-float64(x0), y-float64(y0)

	top := g.Get(x0, y0)*(1-fx) + g.Get(x1, y0)*fx
	bot := g.Get(x0, y1)*(1-fx) + g.Get(x1, y1)*fx
	return top*(1-fy) + bot*fy
}
