package cstack

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// A WCS is a linear world-coordinate mapping between pixel positions
// and sky positions (degrees), in the usual FITS keyword vocabulary:
// sky = CRVAL + CD * (pixel - CRPIX). Good enough for the small
// tangent-plane fields this pipeline composites; there is no spherical
// projection term.
type WCS struct {
	NAxis1 int `yaml:"naxis1"` // pixel columns
	NAxis2 int `yaml:"naxis2"` // pixel rows

	Crpix1 float64 `yaml:"crpix1"`
	Crpix2 float64 `yaml:"crpix2"`
	Crval1 float64 `yaml:"crval1"` // degrees
	Crval2 float64 `yaml:"crval2"` // degrees

	// Row-major 2x2 transform, degrees per pixel. Zero value means
	// "no coordinate system" and fails alignment.
	CD [4]float64 `yaml:"cd,flow"`
}

// IdentityWCS returns a WCS whose pixel and sky coordinates coincide,
// handy as a reference frame for synthetic data.
func IdentityWCS(w, h int) WCS {
	return WCS{NAxis1: w, NAxis2: h, CD: [4]float64{1, 0, 0, 1}}
}

func (w WCS) Equal(o WCS) bool {
	return w == o
}

// PixelToSky maps a (possibly fractional) pixel position to sky
// coordinates.
func (w WCS) PixelToSky(x, y float64) (float64, float64) {
	dx, dy := x-w.Crpix1, y-w.Crpix2
	ra := w.Crval1 + w.CD[0]*dx + w.CD[1]*dy
	dec := w.Crval2 + w.CD[2]*dx + w.CD[3]*dy
	return ra, dec
}

// SkyToPixelFunc inverts the CD matrix once and returns the sky->pixel
// mapping. A missing or singular CD matrix means the band cannot be
// placed on the sky at all.
func (w WCS) SkyToPixelFunc() (func(ra, dec float64) (float64, float64), error) {
	cd := mat.NewDense(2, 2, []float64{w.CD[0], w.CD[1], w.CD[2], w.CD[3]})
	var inv mat.Dense
	if err := inv.Inverse(cd); err != nil {
		return nil, fmt.Errorf("CD matrix %v not invertible: %w", w.CD, ErrAlignment)
	}

	i00, i01 := inv.At(0, 0), inv.At(0, 1)
	i10, i11 := inv.At(1, 0), inv.At(1, 1)

	return func(ra, dec float64) (float64, float64) {
		da, dd := ra-w.Crval1, dec-w.Crval2
		return w.Crpix1 + i00*da + i01*dd, w.Crpix2 + i10*da + i11*dd
	}, nil
}

func (w WCS) String() string {
	return fmt.Sprintf("wcs[%dx%d, crpix(%.1f,%.1f), crval(%.4f,%.4f)]",
		w.NAxis1, w.NAxis2, w.Crpix1, w.Crpix2, w.Crval1, w.Crval2)
}
