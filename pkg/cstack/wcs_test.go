package cstack

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWCSRoundTrip(t *testing.T) {
	w := WCS{
		NAxis1: 2048, NAxis2: 2048,
		Crpix1: 1024, Crpix2: 1024,
		Crval1: 83.8221, Crval2: -5.3911,
		CD: [4]float64{-1.7e-5, 2.1e-7, 2.1e-7, 1.7e-5},
	}

	skyToPix, err := w.SkyToPixelFunc()
	require.NoError(t, err)

	for _, p := range [][2]float64{{0, 0}, {1024, 1024}, {17.5, 2047}} {
		ra, dec := w.PixelToSky(p[0], p[1])
		x, y := skyToPix(ra, dec)
		assert.InDelta(t, p[0], x, 1e-6)
		assert.InDelta(t, p[1], y, 1e-6)
	}
}

func TestWCSSingular(t *testing.T) {
	w := IdentityWCS(16, 16)
	w.CD = [4]float64{2, 4, 1, 2}

	_, err := w.SkyToPixelFunc()
	assert.True(t, errors.Is(err, ErrAlignment))
}

func TestIdentityWCS(t *testing.T) {
	w := IdentityWCS(8, 4)
	ra, dec := w.PixelToSky(3, 2)
	assert.Equal(t, 3.0, ra)
	assert.Equal(t, 2.0, dec)
	assert.True(t, w.Equal(IdentityWCS(8, 4)))
	assert.False(t, w.Equal(IdentityWCS(4, 8)))
}
