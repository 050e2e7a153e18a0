package cstack

import (
	"fmt"
	"image"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// A Stack of bands to be composited. Band order is preserved from
// input: it decides the default alignment reference and the blend
// fold order, so the same inputs always produce the same composite.
type Stack struct {
	Bands []Band
	Configuration

	Layers    []Layer
	Composite *image.NRGBA
}

func NewStack() Stack {
	return Stack{
		Bands:         []Band{},
		Configuration: NewConfiguration(),
	}
}

func (s Stack) String() string {
	str := "Stack[\n"
	for _, b := range s.Bands {
		str += fmt.Sprintf("  %s\n", b)
	}
	return str + "]\n"
}

func (s *Stack) Add(b Band) {
	s.Bands = append(s.Bands, b)
}

// WavelengthRange is the span over all bands in the stack. It has to
// be computed before any band is colorized: the hue S-curve maps each
// wavelength relative to the full range.
func (s *Stack) WavelengthRange() (float64, float64) {
	min, max := s.Bands[0].Wavelength, s.Bands[0].Wavelength
	for _, b := range s.Bands[1:] {
		if b.Wavelength < min {
			min = b.Wavelength
		}
		if b.Wavelength > max {
			max = b.Wavelength
		}
	}
	return min, max
}

// ReferenceGrid picks the grid every other band gets resampled onto:
// the explicitly configured reference filter, or the first band.
func (s *Stack) ReferenceGrid() (WCS, error) {
	if name := s.Rendering.ReferenceFilter; name != "" {
		for _, b := range s.Bands {
			if b.Filter == name {
				return b.Grid, nil
			}
		}
		return WCS{}, fmt.Errorf("reference filter '%s' not in band set: %w", name, ErrConfig)
	}
	return s.Bands[0].Grid, nil
}

// checkOverrides rejects color overrides naming filters that aren't
// in the band set. This runs before any array processing: it signals
// a caller mistake upstream, and there is no point burning minutes of
// reprojection first.
func (s *Stack) checkOverrides() error {
	for filter := range s.ResolvedColors {
		found := false
		for _, b := range s.Bands {
			if b.Filter == filter {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("color override for filter '%s' not in band set: %w", filter, ErrConfig)
		}
	}
	return nil
}

// Compose runs the whole pipeline: per band contrast-adjust, align to
// the reference grid, colorize; then fold all the layers into one
// composite, in input band order.
//
// Any single-band failure aborts the run. Excluding a band would
// silently change the hue normalization of every other band, so a
// partial composite is worse than none.
func (s *Stack) Compose() error {
	if s.ResolvedColors == nil {
		if err := s.FinalizeConfiguration(); err != nil {
			return err
		}
	}
	if len(s.Bands) == 0 {
		return fmt.Errorf("no bands to compose: %w", ErrData)
	}
	if err := s.checkOverrides(); err != nil {
		return err
	}

	ref, err := s.ReferenceGrid()
	if err != nil {
		return err
	}
	minWl, maxWl := s.WavelengthRange()
	log.Infof("composing %d bands, wavelengths %.2f-%.2fum, reference %s",
		len(s.Bands), minWl, maxWl, ref)

	// Bands are independent until the blend, so they may run on
	// parallel workers; layers land in an order-indexed slice so the
	// fold below is deterministic regardless of completion order.
	s.Layers = make([]Layer, len(s.Bands))
	var g errgroup.Group
	g.SetLimit(s.Rendering.Workers)

	for i := range s.Bands {
		i := i
		g.Go(func() error {
			layer, err := s.processBand(i, ref, minWl, maxWl)
			if err != nil {
				return err
			}
			s.Layers[i] = layer
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	return s.blend()
}

// ComposeLayers blends pre-made layers (e.g. reloaded from a layer
// checkpoint directory) without any contrast, alignment or
// colorization work.
func (s *Stack) ComposeLayers() error {
	return s.blend()
}

func (s *Stack) blend() error {
	comp, err := ScreenBlend(s.Layers)
	if err != nil {
		return fmt.Errorf("blend: %w", err)
	}
	s.Composite = comp
	log.Infof("composite %v built from %d layers", comp.Bounds(), len(s.Layers))
	return nil
}

func (s *Stack) processBand(i int, ref WCS, minWl, maxWl float64) (Layer, error) {
	b := s.Bands[i]

	if err := b.Validate(); err != nil {
		return Layer{}, err
	}

	if err := AdjustContrast(b.Pixels, s.StretchOptions()); err != nil {
		return Layer{}, fmt.Errorf("band %s: contrast: %w", b.Filter, err)
	}

	aligned, err := Reproject(b, ref, s.Rendering.InterpolationOrder)
	if err != nil {
		return Layer{}, fmt.Errorf("band %s: align: %w", b.Filter, err)
	}
	s.Bands[i] = aligned

	hsv, overridden := s.ResolvedColors[aligned.Filter]
	if !overridden {
		hsv = HSV{
			H: HueForWavelength(aligned.Wavelength, minWl, maxWl, s.Rendering.MinHue, s.Rendering.MaxHue),
			S: 100,
			V: 100,
		}
	}

	layer := Colorize(aligned, hsv)
	log.Debugf("band %s: %s", aligned.Filter, layer)
	return layer, nil
}
