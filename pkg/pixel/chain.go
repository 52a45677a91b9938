package pixel

import (
	"image"
	"image/color"
	"image/draw"
	"sort"
	"strings"
)

// Chain is an ordered list of operations applied to each pixel.
type Chain []Op

// NewChain returns a Chain holding the given operations. Grayscale
// always runs before brightness, whatever the argument order is.
func NewChain(ops ...Op) Chain {
	res := make(Chain, 0, len(ops))
	for _, op := range ops {
		if op != nil {
			res = append(res, op)
		}
	}
	sort.SliceStable(res, func(i, j int) bool {
		return rank(res[i]) < rank(res[j])
	})
	return res
}

func rank(op Op) int {
	switch op.(type) {
	case GrayscaleOp, *GrayscaleOp:
		return 0
	case BrightnessOp, *BrightnessOp:
		return 1
	}
	return 2
}

// Apply runs every operation of the chain on p.
func (c Chain) Apply(p RGB) RGB {
	for _, op := range c {
		p = op.Apply(p)
	}
	return p
}

// Gray returns true when the chain produces single channel pixels.
func (c Chain) Gray() bool {
	for _, op := range c {
		if rank(op) == 0 {
			return true
		}
	}
	return false
}

func (c Chain) String() string {
	if len(c) == 0 {
		return "identity"
	}
	s := make([]string, len(c))
	for i, op := range c {
		s[i] = op.String()
	}
	return strings.Join(s, "+")
}

// NewOutput allocates the destination image for applying the chain on
// src over the rectangle r. Grayscale chains and gray sources produce
// an *image.Gray, anything else an *image.NRGBA.
func (c Chain) NewOutput(src image.Image, r image.Rectangle) draw.Image {
	if _, ok := src.(*image.Gray); ok || c.Gray() {
		return image.NewGray(r)
	}
	return image.NewNRGBA(r)
}

// ApplyRow transforms the pixels of row y, from src into dst. dst must
// have been allocated by NewOutput and contain the row.
func (c Chain) ApplyRow(dst draw.Image, src image.Image, y int) {
	b := src.Bounds()
	switch out := dst.(type) {
	case *image.Gray:
		i := out.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x++ {
			p, _ := At(src, x, y)
			out.Pix[i] = c.Apply(p).R
			i++
		}
	case *image.NRGBA:
		i := out.PixOffset(b.Min.X, y)
		for x := b.Min.X; x < b.Max.X; x++ {
			p, a := At(src, x, y)
			p = c.Apply(p)
			out.Pix[i+0] = p.R
			out.Pix[i+1] = p.G
			out.Pix[i+2] = p.B
			out.Pix[i+3] = a
			i += 4
		}
	default:
		for x := b.Min.X; x < b.Max.X; x++ {
			p, a := At(src, x, y)
			p = c.Apply(p)
			dst.Set(x, y, color.NRGBA{R: p.R, G: p.G, B: p.B, A: a})
		}
	}
}
