package picture

import "github.com/deepteams/motion/internal/mv"

// UnitSize is the granularity of the motion field in luma samples.
const UnitSize = 4

// MotionField stores the committed motion of a picture per 4×4 unit. Units
// that have not been decided yet, or were intra coded, report no motion, so
// causal neighbour availability follows directly from coding order.
//
// A field is written by one block at a time and is not safe for concurrent
// use.
type MotionField struct {
	Width, Height int
	POC           int
	RefPOCs       [2][]int

	w4, h4  int
	units   []mv.Motion
	decided []bool
}

// NewMotionField allocates an empty field for a width×height picture.
func NewMotionField(width, height int) *MotionField {
	w4 := (width + UnitSize - 1) / UnitSize
	h4 := (height + UnitSize - 1) / UnitSize
	return &MotionField{
		Width:   width,
		Height:  height,
		w4:      w4,
		h4:      h4,
		units:   make([]mv.Motion, w4*h4),
		decided: make([]bool, w4*h4),
	}
}

// Reset clears every unit and records the POCs of the picture the field now
// belongs to.
func (f *MotionField) Reset(poc int, refPOCs [2][]int) {
	clear(f.units)
	clear(f.decided)
	f.POC = poc
	f.RefPOCs = refPOCs
}

// Inside reports whether luma position (x, y) lies in the picture.
func (f *MotionField) Inside(x, y int) bool {
	return x >= 0 && y >= 0 && x < f.Width && y < f.Height
}

// At returns the motion covering luma position (x, y). ok is false outside
// the picture, for undecided units and for intra units.
func (f *MotionField) At(x, y int) (m mv.Motion, ok bool) {
	if !f.Inside(x, y) {
		return mv.Motion{}, false
	}
	i := (y/UnitSize)*f.w4 + x/UnitSize
	if !f.decided[i] {
		return mv.Motion{}, false
	}
	m = f.units[i]
	return m, m.Inter()
}

// Decided reports whether the unit covering (x, y) has been committed,
// whether inter or intra.
func (f *MotionField) Decided(x, y int) bool {
	if !f.Inside(x, y) {
		return false
	}
	return f.decided[(y/UnitSize)*f.w4+x/UnitSize]
}

// Store commits m to every unit of the w×h block at (x, y).
func (f *MotionField) Store(x, y, w, h int, m mv.Motion) {
	x0, y0 := x/UnitSize, y/UnitSize
	x1 := min((x+w+UnitSize-1)/UnitSize, f.w4)
	y1 := min((y+h+UnitSize-1)/UnitSize, f.h4)
	for uy := y0; uy < y1; uy++ {
		for ux := x0; ux < x1; ux++ {
			f.units[uy*f.w4+ux] = m
			f.decided[uy*f.w4+ux] = true
		}
	}
}

// RefPOC returns the POC referenced by refIdx of list l in this picture.
func (f *MotionField) RefPOC(l mv.List, refIdx int) int {
	return f.RefPOCs[l][refIdx]
}
