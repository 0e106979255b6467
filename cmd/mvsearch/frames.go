package main

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/deepteams/motion"
)

// loadFrame decodes the image at path and extracts its luma. When maxWidth
// is positive and the image is wider, it is downscaled with Catmull-Rom
// first, keeping the aspect ratio.
func loadFrame(path string, maxWidth, poc int) (*motion.Plane, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	img = downscale(img, maxWidth)
	p, err := motion.PlaneFromImage(img)
	if err != nil {
		return nil, fmt.Errorf("%s (%s): %w", path, format, err)
	}
	p.POC = poc
	return p, nil
}

func downscale(img image.Image, maxWidth int) image.Image {
	b := img.Bounds()
	if maxWidth <= 0 || b.Dx() <= maxWidth {
		return img
	}
	h := max(1, b.Dy()*maxWidth/b.Dx())
	dst := image.NewGray(image.Rect(0, 0, maxWidth, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}

// tile covers a w×h picture with blocks in raster order: size×size blocks
// where they fit, then the largest power-of-two sizes (at least 4) along the
// right and bottom edges. Samples in a final strip narrower than 4 are not
// covered.
func tile(w, h, size int) []motion.Block {
	cols, rows := spans(w, size), spans(h, size)
	blocks := make([]motion.Block, 0, len(cols)*len(rows))
	y := 0
	for _, bh := range rows {
		x := 0
		for _, bw := range cols {
			blocks = append(blocks, motion.Block{X: x, Y: y, W: bw, H: bh})
			x += bw
		}
		y += bh
	}
	return blocks
}

// spans splits n into runs of size followed by descending powers of two.
func spans(n, size int) []int {
	var out []int
	for ; n >= size; n -= size {
		out = append(out, size)
	}
	for s := size / 2; s >= 4; s /= 2 {
		if n >= s {
			out = append(out, s)
			n -= s
		}
	}
	return out
}
