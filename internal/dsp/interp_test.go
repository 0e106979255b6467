package dsp

import (
	"math/rand"
	"testing"
)

const testMargin = 8

// paddedPlane is a random w×h plane with testMargin samples of slack on
// every side, addressed through its origin offset.
type paddedPlane struct {
	buf    []uint16
	stride int
	origin int
}

func newPaddedPlane(rng *rand.Rand, w, h, bitDepth int) paddedPlane {
	stride := w + 2*testMargin
	buf := makeRandSamples(rng, stride*(h+2*testMargin), bitDepth)
	return paddedPlane{buf: buf, stride: stride, origin: testMargin*stride + testMargin}
}

func TestInterpolateIdentityPhase(t *testing.T) {
	rng := rand.New(rand.NewSource(50))
	p := newPaddedPlane(rng, 16, 16, 8)
	dst := make([]uint16, 16*16)
	Interpolate(dst, 16, p.buf, p.stride, p.origin, 16, 16, 0, 0, 8, nil)
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if got, want := dst[y*16+x], p.buf[p.origin+y*p.stride+x]; got != want {
				t.Fatalf("(%d,%d): got %d, want %d", x, y, got, want)
			}
		}
	}
}

func TestInterpolateFlat(t *testing.T) {
	const v = 173
	buf := make([]uint16, 32*32)
	for i := range buf {
		buf[i] = v
	}
	dst := make([]uint16, 8*8)
	for fy := 0; fy < 4; fy++ {
		for fx := 0; fx < 4; fx++ {
			Interpolate(dst, 8, buf, 32, 8*32+8, 8, 8, fx, fy, 8, nil)
			for i, got := range dst {
				if got != v {
					t.Fatalf("phase (%d,%d) sample %d = %d, want %d", fx, fy, i, got, v)
				}
			}
		}
	}
}

func TestInterpolateHalfOnRamp(t *testing.T) {
	// The half-sample filter is symmetric with first moment 1/2, so a linear
	// ramp interpolates to the exact midpoint.
	const stride = 32
	buf := make([]uint16, stride*32)
	for y := 0; y < 32; y++ {
		for x := 0; x < stride; x++ {
			buf[y*stride+x] = uint16(4 * x)
		}
	}
	dst := make([]uint16, 4*4)
	off := 8*stride + 8
	Interpolate(dst, 4, buf, stride, off, 4, 4, 2, 0, 8, nil)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if got, want := dst[y*4+x], uint16(4*(8+x)+2); got != want {
				t.Fatalf("(%d,%d) = %d, want %d", x, y, got, want)
			}
		}
	}
	Interpolate(dst, 4, buf, stride, off, 4, 4, 2, 2, 8, nil)
	for x := 0; x < 4; x++ {
		if got, want := dst[x], uint16(4*(8+x)+2); got != want {
			t.Fatalf("2-D half (%d,0) = %d, want %d", x, got, want)
		}
	}
}

func TestUpsamplerMatchesInterpolate(t *testing.T) {
	for _, bd := range []int{8, 10} {
		rng := rand.New(rand.NewSource(int64(51 + bd)))
		for _, sz := range [][2]int{{8, 8}, {16, 8}, {4, 16}} {
			w, h := sz[0], sz[1]
			p := newPaddedPlane(rng, w, h, bd)
			var u Upsampler
			u.Reset(p.buf, p.stride, p.origin, w, h, bd)
			u.PrepareHalf()
			u.PrepareQuarter()
			got := make([]uint16, w*h)
			want := make([]uint16, w*h)
			for dy := -3; dy <= 3; dy++ {
				for dx := -3; dx <= 3; dx++ {
					u.Predict(got, w, dx, dy)
					off := p.origin + (dy>>2)*p.stride + dx>>2
					Interpolate(want, w, p.buf, p.stride, off, w, h, dx&3, dy&3, bd, nil)
					for i := range got {
						if got[i] != want[i] {
							t.Fatalf("bd=%d %dx%d d=(%d,%d) sample %d: upsampler=%d direct=%d",
								bd, w, h, dx, dy, i, got[i], want[i])
						}
					}
				}
			}
			u.Release()
		}
	}
}

func TestUpsamplerHalfStageOnly(t *testing.T) {
	rng := rand.New(rand.NewSource(60))
	p := newPaddedPlane(rng, 8, 8, 8)
	var u Upsampler
	defer u.Release()
	u.Reset(p.buf, p.stride, p.origin, 8, 8, 8)
	u.PrepareHalf()
	dst := make([]uint16, 64)
	u.Predict(dst, 8, -2, 2)
	defer func() {
		if recover() == nil {
			t.Fatal("Predict at an unprepared quarter phase did not panic")
		}
	}()
	u.Predict(dst, 8, 1, 0)
}

func TestWeightedAverageAndResidualTarget(t *testing.T) {
	org := []uint16{100, 120, 140, 160}
	other := []uint16{90, 130, 140, 150}
	target := make([]uint16, 4)
	ResidualTarget(target, 4, org, 4, other, 4, 4, 1, 1, 1, 1, 8)
	avg := make([]uint16, 4)
	WeightedAverage(avg, 4, target, 4, other, 4, 4, 1, 1, 1, 1, 8)
	for i := range org {
		if avg[i] != org[i] {
			t.Errorf("sample %d: blend(target, other) = %d, want %d", i, avg[i], org[i])
		}
	}

	// Generalized weights 3/8 and 5/8.
	ResidualTarget(target, 4, org, 4, other, 4, 4, 1, 5, 3, 3, 8)
	WeightedAverage(avg, 4, other, 4, target, 4, 4, 1, 3, 5, 3, 8)
	for i := range org {
		d := int(avg[i]) - int(org[i])
		if d < -1 || d > 1 {
			t.Errorf("gbi sample %d: blend = %d, want %d±1", i, avg[i], org[i])
		}
	}
}

func TestGradientsOnRamp(t *testing.T) {
	const w, h = 8, 8
	src := make([]uint16, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			src[y*w+x] = uint16(3*x + 7*y)
		}
	}
	gx := make([]int32, w*h)
	gy := make([]int32, w*h)
	Gradients(src, w, w, h, gx, gy)
	for i := range gx {
		if gx[i] != 3*8 {
			t.Fatalf("gx[%d] = %d, want 24", i, gx[i])
		}
		if gy[i] != 7*8 {
			t.Fatalf("gy[%d] = %d, want 56", i, gy[i])
		}
	}
}

func BenchmarkInterpolate16x16Quarter(b *testing.B) {
	rng := rand.New(rand.NewSource(3))
	p := newPaddedPlane(rng, 16, 16, 8)
	dst := make([]uint16, 256)
	tmp := make([]int16, 23*16)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		Interpolate(dst, 16, p.buf, p.stride, p.origin, 16, 16, 1, 3, 8, tmp)
	}
}
