package cstack

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two synthetic 4x4 bands on identical identity grids, stretched with
// (0, 100, gamma 1) so contrast is pure min-max scaling. The
// red-shifted band's hot pixels must come out stronger in the warm
// channel than pixels lit only by the short-wavelength band.
func TestComposeTwoBands(t *testing.T) {
	grid := IdentityWCS(4, 4)

	short := testBand(t, "F200W", 2.0, grid, []float64{
		100, 0, 0, 0,
		0, 0, 0, 0,
		0, 0, 0, 0,
		0, 0, 0, 0,
	})
	long := testBand(t, "F444W", 4.4, grid, []float64{
		0, 0, 0, 0,
		0, 0, 0, 0,
		0, 0, 0, 0,
		0, 0, 0, 50,
	})

	s := NewStack()
	s.Rendering.LowPercentile = 0
	s.Rendering.HighPercentile = 100
	s.Rendering.Gamma = 1
	s.Add(short)
	s.Add(long)

	require.NoError(t, s.Compose())
	require.NotNil(t, s.Composite)
	assert.Equal(t, 4, s.Composite.Bounds().Dx())
	assert.Equal(t, 4, s.Composite.Bounds().Dy())

	// F444W sits at the long end of the range: hue 0 (red).
	// F200W sits at the short end: hue 270.
	require.Len(t, s.Layers, 2)
	assert.Equal(t, 270.0, s.Layers[0].Hue)
	assert.Equal(t, 0.0, s.Layers[1].Hue)

	redAt := func(x, y int) uint8 { return s.Composite.Pix[s.Composite.PixOffset(x, y)] }
	blueAt := func(x, y int) uint8 { return s.Composite.Pix[s.Composite.PixOffset(x, y)+2] }

	assert.Greater(t, redAt(3, 3), redAt(0, 0),
		"pure long-band pixel must beat pure short-band pixel in the red channel")
	assert.Greater(t, blueAt(0, 0), blueAt(3, 3))
	assert.Equal(t, uint8(0), redAt(1, 1), "unlit pixels stay black")
}

func TestComposeParallelWorkersDeterministic(t *testing.T) {
	grid := IdentityWCS(4, 4)
	mk := func() *Stack {
		s := NewStack()
		s.Rendering.LowPercentile = 0
		s.Rendering.HighPercentile = 100
		s.Rendering.Gamma = 1
		s.Add(testBand(t, "F090W", 0.9, grid, ramp(16, 1)))
		s.Add(testBand(t, "F200W", 2.0, grid, ramp(16, 3)))
		s.Add(testBand(t, "F356W", 3.56, grid, ramp(16, 7)))
		s.Add(testBand(t, "F444W", 4.4, grid, ramp(16, 11)))
		return &s
	}

	serial := mk()
	require.NoError(t, serial.Compose())

	parallel := mk()
	parallel.Rendering.Workers = 4
	require.NoError(t, parallel.Compose())

	assert.Equal(t, serial.Composite.Pix, parallel.Composite.Pix,
		"worker completion order must not change the fold")
}

func ramp(n int, step float64) []float64 {
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = float64(i) * step
	}
	return vals
}

// An override naming a filter that isn't in the band set is a caller
// mistake, caught before any array processing happens.
func TestComposeUnknownOverrideFilter(t *testing.T) {
	grid := IdentityWCS(2, 2)
	b := testBand(t, "F200W", 2.0, grid, []float64{1, 2, 3, 4})

	s := NewStack()
	s.Colors["F999W"] = ColorSpec{H: Fixed(120), S: Fixed(100), V: Fixed(100)}
	s.Add(b)

	err := s.Compose()
	assert.True(t, errors.Is(err, ErrConfig))

	// Nothing touched the band.
	assert.Equal(t, 1.0, s.Bands[0].Pixels.Get(0, 0))
	assert.Equal(t, 4.0, s.Bands[0].Pixels.Get(1, 1))
	assert.Nil(t, s.Composite)
}

func TestComposeOverrideApplied(t *testing.T) {
	grid := IdentityWCS(2, 2)

	s := NewStack()
	s.Rendering.LowPercentile = 0
	s.Rendering.HighPercentile = 100
	s.Rendering.Gamma = 1
	s.Colors["F200W"] = ColorSpec{H: Fixed(120), S: Range(40, 60), V: Fixed(100)}
	s.Add(testBand(t, "F200W", 2.0, grid, []float64{0, 1, 2, 3}))

	require.NoError(t, s.Compose())
	require.Len(t, s.Layers, 1)

	l := s.Layers[0]
	assert.Equal(t, 120.0, l.Hue, "override replaces the wavelength hue outright")
	assert.GreaterOrEqual(t, l.Saturation, 40.0)
	assert.LessOrEqual(t, l.Saturation, 60.0)
	assert.Equal(t, 100.0, l.Value)
}

func TestComposeReferenceFilter(t *testing.T) {
	refGrid := IdentityWCS(3, 3)
	otherGrid := IdentityWCS(3, 3)
	otherGrid.Crpix1 = -1

	s := NewStack()
	s.Rendering.LowPercentile = 0
	s.Rendering.HighPercentile = 100
	s.Rendering.Gamma = 1
	s.Rendering.ReferenceFilter = "F444W"
	s.Add(testBand(t, "F200W", 2.0, otherGrid, ramp(9, 2)))
	s.Add(testBand(t, "F444W", 4.4, refGrid, ramp(9, 5)))

	require.NoError(t, s.Compose())

	// Both bands now live on the designated reference grid.
	assert.Equal(t, refGrid, s.Bands[0].Grid)
	assert.Equal(t, refGrid, s.Bands[1].Grid)

	s2 := NewStack()
	s2.Rendering.ReferenceFilter = "F770W"
	s2.Add(testBand(t, "F200W", 2.0, refGrid, ramp(9, 2)))
	assert.True(t, errors.Is(s2.Compose(), ErrConfig))
}

func TestComposeNoBands(t *testing.T) {
	s := NewStack()
	assert.True(t, errors.Is(s.Compose(), ErrData))
}

func TestComposeFailsFastOnBadBand(t *testing.T) {
	grid := IdentityWCS(2, 2)
	bad := testBand(t, "F200W", -1, grid, []float64{1, 2, 3, 4})

	s := NewStack()
	s.Add(bad)
	assert.True(t, errors.Is(s.Compose(), ErrData))
}

// The layers-only entry point: blend pre-made layers, no numeric
// reprocessing.
func TestComposeLayers(t *testing.T) {
	a := layerFromPix("A", 2, 1, []uint8{100, 0, 0, 0, 100, 0})
	b := layerFromPix("B", 2, 1, []uint8{0, 0, 100, 100, 0, 0})

	s := NewStack()
	s.Layers = []Layer{a, b}
	require.NoError(t, s.ComposeLayers())

	want, err := ScreenBlend([]Layer{a, b})
	require.NoError(t, err)
	assert.Equal(t, want.Pix, s.Composite.Pix)
}

func TestExportAndReloadLayers(t *testing.T) {
	grid := IdentityWCS(2, 2)

	s := NewStack()
	s.Rendering.LowPercentile = 0
	s.Rendering.HighPercentile = 100
	s.Rendering.Gamma = 1
	s.Add(testBand(t, "F200W", 2.0, grid, []float64{0, 10, 20, 30}))
	s.Add(testBand(t, "F444W", 4.4, grid, []float64{30, 20, 10, 0}))
	require.NoError(t, s.Compose())

	dir := t.TempDir()
	require.NoError(t, s.ExportLayers(dir))

	layers, err := LoadLayers(dir)
	require.NoError(t, err)
	require.Len(t, layers, 2)

	for i := range layers {
		assert.Equal(t, s.Layers[i].Filter, layers[i].Filter)
		assert.Equal(t, s.Layers[i].Hue, layers[i].Hue)
		assert.Equal(t, s.Layers[i].Image.Pix, layers[i].Image.Pix)
	}

	// Rerunning from the checkpoint reproduces the composite.
	s2 := NewStack()
	s2.Layers = layers
	require.NoError(t, s2.ComposeLayers())
	assert.Equal(t, s.Composite.Pix, s2.Composite.Pix)
}
