package dsp

import "github.com/deepteams/motion/internal/pool"

// Upsampler serves the fractional refinement around one integer position.
// It keeps one widened horizontal intermediate per horizontal phase, covering
// one extra column and row on the top-left so that every displacement in
// [-3, 3] quarter samples around the centre can be produced.
//
// The half-sample stage fills phases 0 and 2; the quarter stage adds phases
// 1 and 3 and reuses the half-stage rows for its vertical pass. Predict output
// is bit-identical to Interpolate at the same vector.
//
// An Upsampler is owned by a single search call and is not safe for
// concurrent use.
type Upsampler struct {
	ref       []uint16
	refStride int
	base      int
	w, h      int
	bitDepth  int
	headRoom  int
	maxVal    int32

	stride int
	rows   int
	hor    [4][]int16
	have   [4]bool
}

// Reset points the upsampler at the integer position ref[base] for a w×h
// block and drops all cached intermediates.
func (u *Upsampler) Reset(ref []uint16, refStride, base, w, h, bitDepth int) {
	u.ref = ref
	u.refStride = refStride
	u.base = base
	u.w, u.h = w, h
	u.bitDepth = bitDepth
	u.headRoom = internalPrec - bitDepth
	u.maxVal = int32(1)<<bitDepth - 1
	u.stride = w + 1
	u.rows = h + NumTaps
	need := u.stride * u.rows
	for i := range u.hor {
		if cap(u.hor[i]) < need {
			if u.hor[i] != nil {
				pool.PutInt16(u.hor[i])
			}
			u.hor[i] = pool.GetInt16(need)
		}
		u.hor[i] = u.hor[i][:need]
		u.have[i] = false
	}
}

// Release hands the intermediate buffers back to the pool.
func (u *Upsampler) Release() {
	for i := range u.hor {
		if u.hor[i] != nil {
			pool.PutInt16(u.hor[i])
			u.hor[i] = nil
		}
		u.have[i] = false
	}
}

// PrepareHalf computes the integer and half-sample horizontal intermediates.
func (u *Upsampler) PrepareHalf() {
	u.ensure(0)
	u.ensure(2)
}

// PrepareQuarter computes the quarter-sample horizontal intermediates.
// PrepareHalf must have run first; its rows are shared with this stage.
func (u *Upsampler) PrepareQuarter() {
	if !u.have[0] || !u.have[2] {
		panic("dsp: quarter stage before half stage")
	}
	u.ensure(1)
	u.ensure(3)
}

func (u *Upsampler) ensure(fx int) {
	if u.have[fx] {
		return
	}
	// Column 0 of the intermediate is one sample left of the block, row 0 is
	// one row above minus the filter support.
	off := u.base - (TapsBefore+1)*u.refStride - 1
	filterFirst(u.hor[fx], u.stride, u.ref, u.refStride, off, u.w+1, u.rows, fx, u.headRoom)
	u.have[fx] = true
}

// Predict writes the block displaced by (dx, dy) quarter samples from the
// integer centre. Both components must lie in [-3, 3] and the horizontal
// phase must have been prepared.
func (u *Upsampler) Predict(dst []uint16, dstStride, dx, dy int) {
	if dx < -3 || dx > 3 || dy < -3 || dy > 3 {
		panic("dsp: upsampler displacement out of range")
	}
	ix, fx := dx>>2, dx&3
	iy, fy := dy>>2, dy&3
	if !u.have[fx] {
		panic("dsp: upsampler phase not prepared")
	}
	col := ix + 1
	if fy == 0 {
		row := iy + 1 + TapsBefore
		copyLast(dst, dstStride, u.hor[fx], u.stride, row*u.stride+col, u.w, u.h, u.headRoom, u.maxVal)
		return
	}
	row := iy + 1
	filterLast(dst, dstStride, u.hor[fx], u.stride, row*u.stride+col, u.w, u.h, &LumaFilter[fy], u.headRoom, u.maxVal)
}
