// Package pixel implements the per-pixel transforms applied by the
// parallel engine. Every function here is pure: the result for a pixel
// only depends on that pixel.
package pixel

import (
	"fmt"
	"image"
	"image/color"
)

// RGB is an 8 bit per channel pixel value.
type RGB struct {
	R, G, B uint8
}

// Clamp returns v limited to the [lo, hi] range.
func Clamp(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

// Grayscale returns the unweighted average of the pixel channels,
// truncated, on all three channels.
func Grayscale(p RGB) RGB {
	g := uint8((int(p.R) + int(p.G) + int(p.B)) / 3)
	return RGB{g, g, g}
}

// Brightness adds delta to every channel, clamping to [0, 255].
func Brightness(p RGB, delta int) RGB {
	// Any offset beyond one full channel range gives the same result
	delta = Clamp(delta, -255, 255)
	return RGB{
		R: uint8(Clamp(int(p.R)+delta, 0, 255)),
		G: uint8(Clamp(int(p.G)+delta, 0, 255)),
		B: uint8(Clamp(int(p.B)+delta, 0, 255)),
	}
}

// Op is a single pixel operation.
type Op interface {
	Apply(RGB) RGB
	String() string
}

// GrayscaleOp converts pixels with Grayscale.
type GrayscaleOp struct{}

// Apply implements Op.
func (GrayscaleOp) Apply(p RGB) RGB {
	return Grayscale(p)
}

func (GrayscaleOp) String() string {
	return "grayscale"
}

// BrightnessOp shifts pixels with Brightness.
type BrightnessOp struct {
	Delta int
}

// Apply implements Op.
func (o BrightnessOp) Apply(p RGB) RGB {
	return Brightness(p, o.Delta)
}

func (o BrightnessOp) String() string {
	return fmt.Sprintf("brightness(%+d)", o.Delta)
}

// At returns the unpremultiplied color and alpha of the pixel at (x, y).
func At(m image.Image, x, y int) (RGB, uint8) {
	switch src := m.(type) {
	case *image.Gray:
		v := src.GrayAt(x, y).Y
		return RGB{v, v, v}, 0xff
	case *image.NRGBA:
		c := src.NRGBAAt(x, y)
		return RGB{c.R, c.G, c.B}, c.A
	}

	c := color.NRGBAModel.Convert(m.At(x, y)).(color.NRGBA)
	return RGB{c.R, c.G, c.B}, c.A
}
