package cstack

import (
	"fmt"
	"image"
)

// ScreenBlendPixel is the light-additive compositing operator for one
// 8-bit channel value pair: 255 - (255-a)(255-b)/255, with the
// division truncating like all 8-bit integer arithmetic. Commutative,
// bounded in [0,255] for bounded inputs, and blending with 0 is a
// no-op.
func ScreenBlendPixel(a, b uint8) uint8 {
	return 255 - uint8((int(255-a)*int(255-b))/255)
}

// ScreenBlend folds an ordered list of layers into one composite.
//
// Truncation makes the operator not exactly associative, so the fold
// order is fixed: left to right, in layer list order, starting from
// an all-black accumulator (the identity element). Callers that
// process layers concurrently must still present them here in input
// order.
func ScreenBlend(layers []Layer) (*image.NRGBA, error) {
	if len(layers) == 0 {
		return nil, fmt.Errorf("no layers to blend: %w", ErrData)
	}

	bounds := layers[0].Image.Bounds()
	for _, l := range layers {
		if l.Image.Bounds() != bounds {
			return nil, fmt.Errorf("layer %s is %v, composite is %v: %w",
				l.Filter, l.Image.Bounds(), bounds, ErrShape)
		}
	}

	comp := image.NewNRGBA(bounds)
	for i := 3; i < len(comp.Pix); i += 4 {
		comp.Pix[i] = 0xff
	}

	for _, l := range layers {
		for i := 0; i < len(comp.Pix); i += 4 {
			comp.Pix[i+0] = ScreenBlendPixel(comp.Pix[i+0], l.Image.Pix[i+0])
			comp.Pix[i+1] = ScreenBlendPixel(comp.Pix[i+1], l.Image.Pix[i+1])
			comp.Pix[i+2] = ScreenBlendPixel(comp.Pix[i+2], l.Image.Pix[i+2])
		}
	}

	return comp, nil
}
