package cstack

import (
	"image"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// An HSV is one concrete color assignment for a whole layer: hue in
// degrees, saturation and value in percent.
type HSV struct {
	H float64 `yaml:"h"`
	S float64 `yaml:"s"`
	V float64 `yaml:"v"`
}

// HueForWavelength maps a wavelength onto [minHue, maxHue], inverted
// so the shortest wavelength gets the highest hue (blue end) and the
// longest the lowest (red end).
//
// The raw proportion through the wavelength range is pushed through a
// logistic S-curve, 1/(1+(p/(1-p))^-2), which compresses the middle
// of the range - otherwise mid-spectrum bands pile up in green and
// dominate the composite. The curve is singular at p==0 and p==1, so
// the two endpoints map straight to maxHue and minHue.
func HueForWavelength(wl, minWl, maxWl, minHue, maxHue float64) float64 {
	if maxWl <= minWl {
		return maxHue // single-band run; no range to spread over
	}

	p := (wl - minWl) / (maxWl - minWl)
	switch {
	case p <= 0:
		return maxHue
	case p >= 1:
		return minHue
	}

	r := p / (1 - p)
	adj := 1 / (1 + 1/(r*r))
	return maxHue - adj*(maxHue-minHue)
}

// Colorize tints a contrast-adjusted, aligned band into an RGB layer.
// The band's pixels must already be integer-valued in [0,255]. Hue
// and saturation are constant across the layer; the value channel is
// modulated per pixel by the band's normalized intensity.
func Colorize(b Band, hsv HSV) Layer {
	base := colorful.Hsv(hsv.H, hsv.S/100.0, hsv.V/100.0)

	w, h := b.Pixels.Dx(), b.Pixels.Dy()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := b.Pixels.Get(x, y) / 255.0
			o := img.PixOffset(x, y)
			img.Pix[o+0] = uint8(base.R*i*255.0 + 0.5)
			img.Pix[o+1] = uint8(base.G*i*255.0 + 0.5)
			img.Pix[o+2] = uint8(base.B*i*255.0 + 0.5)
			img.Pix[o+3] = 0xff
		}
	}

	return Layer{
		Filter:     b.Filter,
		Wavelength: b.Wavelength,
		Hue:        hsv.H,
		Saturation: hsv.S,
		Value:      hsv.V,
		Image:      img,
	}
}
