// Package picture holds the pictures the inter search reads: padded luma
// planes for the current and reference pictures, the reference picture lists
// of the current slice, and the per-picture motion field through which
// already-decided neighbouring blocks expose their motion.
package picture

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/deepteams/motion/internal/dsp"
	"github.com/deepteams/motion/internal/mv"
)

// ErrInvalidPicture reports unusable plane dimensions or bit depth.
var ErrInvalidPicture = errors.New("picture: invalid picture")

// DefaultMargin is the replicated border around each plane. It must cover the
// largest block plus the interpolation support so that any MV clamped to the
// legal range can be predicted without bounds checks.
const DefaultMargin = mv.MaxBlockSize + 16

// Plane is a luma sample plane with a replicated border of Margin samples on
// every side. Sample (x, y) lives at Pix[Offset(x, y)] for
// -Margin <= x < Width+Margin.
type Plane struct {
	Width, Height int
	Margin        int
	Stride        int
	BitDepth      int
	POC           int

	Pix    []uint16
	origin int
}

// NewPlane allocates a zeroed plane.
func NewPlane(width, height, margin, bitDepth int) (*Plane, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: dimensions %dx%d", ErrInvalidPicture, width, height)
	}
	if bitDepth < 8 || bitDepth > 12 {
		return nil, fmt.Errorf("%w: bit depth %d outside [8,12]", ErrInvalidPicture, bitDepth)
	}
	if margin < dsp.NumTaps {
		return nil, fmt.Errorf("%w: margin %d below filter support", ErrInvalidPicture, margin)
	}
	stride := width + 2*margin
	p := &Plane{
		Width:    width,
		Height:   height,
		Margin:   margin,
		Stride:   stride,
		BitDepth: bitDepth,
		Pix:      make([]uint16, stride*(height+2*margin)),
		origin:   margin*stride + margin,
	}
	return p, nil
}

// FromImage builds an 8-bit plane from the luma of img and extends its
// borders. YCbCr and Gray images are read directly; other models go through
// color.GrayModel.
func FromImage(img image.Image, margin int) (*Plane, error) {
	b := img.Bounds()
	p, err := NewPlane(b.Dx(), b.Dy(), margin, 8)
	if err != nil {
		return nil, err
	}
	switch src := img.(type) {
	case *image.YCbCr:
		for y := 0; y < p.Height; y++ {
			for x := 0; x < p.Width; x++ {
				p.Pix[p.Offset(x, y)] = uint16(src.Y[src.YOffset(b.Min.X+x, b.Min.Y+y)])
			}
		}
	case *image.Gray:
		for y := 0; y < p.Height; y++ {
			row := src.Pix[src.PixOffset(b.Min.X, b.Min.Y+y):]
			for x := 0; x < p.Width; x++ {
				p.Pix[p.Offset(x, y)] = uint16(row[x])
			}
		}
	default:
		for y := 0; y < p.Height; y++ {
			for x := 0; x < p.Width; x++ {
				g := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
				p.Pix[p.Offset(x, y)] = uint16(g.Y)
			}
		}
	}
	p.ExtendBorders()
	return p, nil
}

// Offset returns the index of sample (x, y).
func (p *Plane) Offset(x, y int) int {
	return p.origin + y*p.Stride + x
}

// At returns sample (x, y); coordinates may reach into the margin.
func (p *Plane) At(x, y int) uint16 {
	return p.Pix[p.Offset(x, y)]
}

// Set writes sample (x, y) inside the picture area.
func (p *Plane) Set(x, y int, v uint16) {
	p.Pix[p.Offset(x, y)] = v
}

// MaxValue returns the largest representable sample.
func (p *Plane) MaxValue() uint16 {
	return uint16(1)<<p.BitDepth - 1
}

// ExtendBorders replicates the outermost picture samples into the margin.
// It must run after the picture area is written and before the plane is
// used as a reference.
func (p *Plane) ExtendBorders() {
	for y := 0; y < p.Height; y++ {
		row := p.Pix[p.Offset(-p.Margin, y) : p.Offset(p.Width+p.Margin, y)]
		left := row[p.Margin]
		right := row[p.Margin+p.Width-1]
		for x := 0; x < p.Margin; x++ {
			row[x] = left
			row[p.Margin+p.Width+x] = right
		}
	}
	top := p.Pix[p.Offset(-p.Margin, 0):p.Offset(-p.Margin, 1)]
	bottom := p.Pix[p.Offset(-p.Margin, p.Height-1):p.Offset(-p.Margin, p.Height)]
	for y := 1; y <= p.Margin; y++ {
		copy(p.Pix[p.Offset(-p.Margin, -y):], top)
		copy(p.Pix[p.Offset(-p.Margin, p.Height-1+y):], bottom)
	}
}

// CopyBlock copies the w×h block at (x, y) into dst with stride w.
func (p *Plane) CopyBlock(dst []uint16, x, y, w, h int) {
	for r := 0; r < h; r++ {
		off := p.Offset(x, y+r)
		copy(dst[r*w:r*w+w], p.Pix[off:off+w])
	}
}

// MVBounds returns the integer MV displacements for which a w×h block at
// (x, y), with the interpolation support of any fractional phase and one
// extra sample for the refinement neighbourhood, stays inside the padded
// plane.
func (p *Plane) MVBounds(x, y, w, h int) mv.Range {
	before := dsp.TapsBefore + 1
	after := dsp.TapsAfter
	return mv.Range{
		Left:   -p.Margin - x + before,
		Right:  p.Width + p.Margin - x - w - after,
		Top:    -p.Margin - y + before,
		Bottom: p.Height + p.Margin - y - h - after,
	}
}

// Legal reports whether v keeps the w×h block at (x, y) inside the plane.
func (p *Plane) Legal(x, y, w, h int, v mv.MV) bool {
	return p.MVBounds(x, y, w, h).Contains(v)
}
