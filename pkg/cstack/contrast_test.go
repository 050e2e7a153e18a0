package cstack

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/awray/chromastack/pkg/fgrid"
)

func gridFrom(t *testing.T, w, h int, values []float64) *fgrid.FloatGrid {
	t.Helper()
	g, err := fgrid.FromValues(w, h, values)
	require.NoError(t, err)
	return g
}

func TestAdjustContrastRange(t *testing.T) {
	g := gridFrom(t, 4, 2, []float64{
		-3.5, 0, 12.25, 100,
		7, 42, 99.9, 1e6,
	})

	err := AdjustContrast(g, StretchOptions{LowPercentile: 0, HighPercentile: 100, Gamma: 0.5})
	require.NoError(t, err)

	assert.Equal(t, 4, g.Dx())
	assert.Equal(t, 2, g.Dy())
	for y := 0; y < g.Dy(); y++ {
		for x := 0; x < g.Dx(); x++ {
			v := g.Get(x, y)
			assert.Equal(t, math.Trunc(v), v, "output must be integer-valued")
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 255.0)
		}
	}
}

func TestAdjustContrastNonFinitePixels(t *testing.T) {
	nan, inf := math.NaN(), math.Inf(1)
	g := gridFrom(t, 3, 2, []float64{
		nan, 10, 20,
		30, inf, 40,
	})

	err := AdjustContrast(g, StretchOptions{LowPercentile: 0, HighPercentile: 100, Gamma: 1})
	require.NoError(t, err)

	// Non-finite pixels map to 0 and must not have skewed the bounds:
	// the finite values 10..40 still stretch over the full range.
	assert.Equal(t, 0.0, g.Get(0, 0))
	assert.Equal(t, 0.0, g.Get(1, 1))
	assert.Equal(t, 0.0, g.Get(1, 0)) // 10 is the low bound
	assert.Equal(t, 255.0, g.Get(2, 1))
}

func TestAdjustContrastDegenerateInput(t *testing.T) {
	g := gridFrom(t, 2, 2, []float64{math.NaN(), math.NaN(), math.NaN(), math.NaN()})
	err := AdjustContrast(g, StretchOptions{LowPercentile: 0.1, HighPercentile: 99.9, Gamma: 1})
	assert.True(t, errors.Is(err, ErrData))
}

// A fully-stretched image re-stretched over its own full range is
// unchanged.
func TestAdjustContrastIdempotent(t *testing.T) {
	g := gridFrom(t, 4, 1, []float64{3, 7, 11, 200})
	opt := StretchOptions{LowPercentile: 0, HighPercentile: 100, Gamma: 1}

	require.NoError(t, AdjustContrast(g, opt))
	first := g.Copy()
	require.NoError(t, AdjustContrast(g, opt))

	for x := 0; x < g.Dx(); x++ {
		assert.Equal(t, first.Get(x, 0), g.Get(x, 0))
	}
}

// Clip bounds are global; applying them slice-by-slice must be
// byte-identical to a single-slice run even when the slices have very
// different local statistics. Per-slice bounds would put a visible
// seam at the boundary.
func TestAdjustContrastSliceSeams(t *testing.T) {
	values := []float64{
		1, 2, 3, 4,
		2, 3, 1, 2,
		500, 900, 700, 1000,
		600, 800, 950, 550,
	}
	whole := gridFrom(t, 4, 4, append([]float64{}, values...))
	sliced := gridFrom(t, 4, 4, append([]float64{}, values...))

	opt := StretchOptions{LowPercentile: 0.1, HighPercentile: 99.9, Gamma: 0.5}
	require.NoError(t, AdjustContrast(whole, opt))

	opt.SliceRows = 2
	require.NoError(t, AdjustContrast(sliced, opt))

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			assert.Equal(t, whole.Get(x, y), sliced.Get(x, y), "seam at (%d,%d)", x, y)
		}
	}
}

func TestAdjustContrastLogStretch(t *testing.T) {
	g := gridFrom(t, 4, 1, []float64{0, 10, 100, 1000})
	err := AdjustContrast(g, StretchOptions{LowPercentile: 0, HighPercentile: 100, LogStretch: true})
	require.NoError(t, err)

	// Log stretch lifts faint values well above their linear position.
	assert.Equal(t, 0.0, g.Get(0, 0))
	assert.Equal(t, 255.0, g.Get(3, 0))
	assert.Greater(t, g.Get(1, 0), 10.0/1000.0*255.0)
}
