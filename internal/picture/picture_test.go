package picture

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/deepteams/motion/internal/mv"
)

func TestNewPlaneValidation(t *testing.T) {
	tests := []struct {
		name             string
		w, h, margin, bd int
	}{
		{"zero width", 0, 8, 32, 8},
		{"negative height", 8, -1, 32, 8},
		{"low bit depth", 8, 8, 32, 7},
		{"high bit depth", 8, 8, 32, 14},
		{"tiny margin", 8, 8, 2, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPlane(tt.w, tt.h, tt.margin, tt.bd)
			if !errors.Is(err, ErrInvalidPicture) {
				t.Errorf("err = %v, want ErrInvalidPicture", err)
			}
		})
	}
}

func TestExtendBorders(t *testing.T) {
	p, err := NewPlane(4, 3, 8, 8)
	if err != nil {
		t.Fatal(err)
	}
	for y := 0; y < 3; y++ {
		for x := 0; x < 4; x++ {
			p.Set(x, y, uint16(10*y+x))
		}
	}
	p.ExtendBorders()
	tests := []struct {
		x, y int
		want uint16
	}{
		{-8, -8, 0},
		{-1, 1, 10},
		{11, 1, 13},
		{2, -5, 2},
		{2, 10, 22},
		{11, 10, 23},
	}
	for _, tt := range tests {
		if got := p.At(tt.x, tt.y); got != tt.want {
			t.Errorf("At(%d,%d) = %d, want %d", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestFromImageGray(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 5, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 5; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8(x * y * 10)})
		}
	}
	p, err := FromImage(img, DefaultMargin)
	if err != nil {
		t.Fatal(err)
	}
	if p.At(4, 3) != 120 || p.At(100, 100) != 120 {
		t.Errorf("At(4,3) = %d, border = %d, want 120", p.At(4, 3), p.At(100, 100))
	}
}

func TestMVBoundsFootprint(t *testing.T) {
	p, err := NewPlane(64, 48, 32, 8)
	if err != nil {
		t.Fatal(err)
	}
	const x, y, w, h = 16, 8, 16, 8
	r := p.MVBounds(x, y, w, h)
	// Leftmost legal vector: the refinement reads one sample plus the filter
	// support to the left of the block.
	if got := x + r.Left - 4; got != -p.Margin {
		t.Errorf("left reach = %d, want %d", got, -p.Margin)
	}
	if got := x + r.Right + w - 1 + 4; got != p.Width+p.Margin-1 {
		t.Errorf("right reach = %d, want %d", got, p.Width+p.Margin-1)
	}
	if got := y + r.Top - 4; got != -p.Margin {
		t.Errorf("top reach = %d, want %d", got, -p.Margin)
	}
	if got := y + r.Bottom + h - 1 + 4; got != p.Height+p.Margin-1 {
		t.Errorf("bottom reach = %d, want %d", got, p.Height+p.Margin-1)
	}
	if !p.Legal(x, y, w, h, mv.FromInt(r.Right, r.Bottom).Add(mv.MV{X: 3, Y: 3})) {
		t.Error("fractional vector at the bottom-right bound should be legal")
	}
	if p.Legal(x, y, w, h, mv.FromInt(r.Left, 0).Sub(mv.MV{X: 1})) {
		t.Error("vector left of the bound should be illegal")
	}
}

func TestMotionField(t *testing.T) {
	f := NewMotionField(32, 32)
	f.Reset(8, [2][]int{{4}, {12}})
	if _, ok := f.At(0, 0); ok {
		t.Fatal("empty field reports motion")
	}
	m := mv.Motion{Dir: mv.DirL0, MV: [2]mv.MV{{X: 4, Y: -8}}}
	f.Store(8, 8, 8, 8, m)
	if got, ok := f.At(15, 15); !ok || got.MV[0] != m.MV[0] {
		t.Errorf("At(15,15) = %+v, %v", got, ok)
	}
	if _, ok := f.At(16, 8); ok {
		t.Error("unit right of the stored block reports motion")
	}
	f.Store(0, 0, 8, 8, mv.Motion{})
	if _, ok := f.At(0, 0); ok {
		t.Error("intra unit reports motion")
	}
	if !f.Decided(0, 0) {
		t.Error("intra unit should be decided")
	}
	if _, ok := f.At(-1, 0); ok {
		t.Error("outside position reports motion")
	}
	if f.RefPOC(mv.L1, 0) != 12 {
		t.Errorf("RefPOC(L1,0) = %d, want 12", f.RefPOC(mv.L1, 0))
	}
}

func TestRefLists(t *testing.T) {
	a, _ := NewPlane(16, 16, 16, 8)
	b, _ := NewPlane(16, 16, 16, 8)
	a.POC, b.POC = 4, 12
	r := RefLists{L: [2][]*Plane{{a, b}, {b, a}}}
	if !r.IsB() {
		t.Error("IsB() = false")
	}
	if got := r.L0Twin(0); got != 1 {
		t.Errorf("L0Twin(0) = %d, want 1", got)
	}
	pocs := r.POCs()
	if pocs[1][1] != 4 {
		t.Errorf("POCs()[1][1] = %d, want 4", pocs[1][1])
	}
}
