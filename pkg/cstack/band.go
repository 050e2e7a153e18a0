package cstack

import (
	"fmt"
	"image"
	"path/filepath"

	"github.com/awray/chromastack/pkg/fgrid"
)

// A Band is one calibrated observation in one instrument filter:
// a grid of linear physical intensities, the filter's wavelength, and
// the mapping from pixels to sky coordinates.
type Band struct {
	LoadFilename string
	Filter       string
	Wavelength   float64 // micrometers
	Grid         WCS
	Pixels       *fgrid.FloatGrid
}

func (b Band) String() string {
	return fmt.Sprintf("%s: filter %s, %.2fum, %s", b.Filename(), b.Filter, b.Wavelength, b.Pixels.Stats())
}

func (b Band) Filename() string {
	return filepath.Base(b.LoadFilename)
}

// Validate checks the band invariants before the numeric pipeline
// touches it: a positive wavelength, and pixel dimensions that agree
// with the shape the coordinate grid declares.
func (b Band) Validate() error {
	if b.Pixels == nil || b.Pixels.Dx() == 0 || b.Pixels.Dy() == 0 {
		return fmt.Errorf("band %s has no pixels: %w", b.Filter, ErrData)
	}
	if b.Wavelength <= 0 {
		return fmt.Errorf("band %s wavelength %g: %w", b.Filter, b.Wavelength, ErrData)
	}
	if b.Grid.NAxis1 != b.Pixels.Dx() || b.Grid.NAxis2 != b.Pixels.Dy() {
		return fmt.Errorf("band %s pixels %dx%d vs grid %dx%d: %w",
			b.Filter, b.Pixels.Dx(), b.Pixels.Dy(), b.Grid.NAxis1, b.Grid.NAxis2, ErrData)
	}
	return nil
}

// A Layer is a band after colorization: an aligned 8-bit RGB image,
// plus the HSV assignment that produced it, kept for reproducibility
// (override ranges are sampled once per run, and this records what
// came out).
type Layer struct {
	Filter     string
	Wavelength float64
	Hue        float64 // degrees
	Saturation float64 // percent
	Value      float64 // percent
	Image      *image.NRGBA
}

func (l Layer) String() string {
	b := l.Image.Bounds()
	return fmt.Sprintf("%s: %dx%d, hsv(%.1f, %.1f, %.1f)", l.Filter, b.Dx(), b.Dy(), l.Hue, l.Saturation, l.Value)
}
