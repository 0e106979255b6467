package mv

import "math/bits"

// affineShift is the fixed-point precision of the per-sample affine
// gradients.
const affineShift = 7

// SubblockSize is the side of the sub-blocks an affine block is motion
// compensated in.
const SubblockSize = 4

// AffineModel is the motion field of a W×H block described by control-point
// vectors at its top-left, top-right and (6-parameter only) bottom-left
// corners.
type AffineModel struct {
	Type AffineType
	CP   [3]MV
	W, H int
}

// NewAffineModel returns a model; for the 4-parameter type CP[2] is ignored.
func NewAffineModel(t AffineType, cp [3]MV, w, h int) AffineModel {
	return AffineModel{Type: t, CP: cp, W: w, H: h}
}

// gradients returns the horizontal and vertical MV derivatives scaled by
// 1<<affineShift.
func (a AffineModel) gradients() (dHorX, dVerX, dHorY, dVerY int) {
	log2W := bits.TrailingZeros(uint(a.W))
	dHorX = (a.CP[1].X - a.CP[0].X) << (affineShift - log2W)
	dVerX = (a.CP[1].Y - a.CP[0].Y) << (affineShift - log2W)
	if a.Type == Affine6 {
		log2H := bits.TrailingZeros(uint(a.H))
		dHorY = (a.CP[2].X - a.CP[0].X) << (affineShift - log2H)
		dVerY = (a.CP[2].Y - a.CP[0].Y) << (affineShift - log2H)
	} else {
		dHorY = -dVerX
		dVerY = dHorX
	}
	return dHorX, dVerX, dHorY, dVerY
}

// At returns the model vector at sample (x, y) relative to the block's
// top-left corner. Positions outside the block extrapolate the model.
func (a AffineModel) At(x, y int) MV {
	dHorX, dVerX, dHorY, dVerY := a.gradients()
	mx := a.CP[0].X<<affineShift + dHorX*x + dHorY*y
	my := a.CP[0].Y<<affineShift + dVerX*x + dVerY*y
	return MV{X: RoundShift(mx, affineShift), Y: RoundShift(my, affineShift)}.Clip()
}

// Subblock returns the vector of sub-block (sx, sy), taken at its centre.
func (a AffineModel) Subblock(sx, sy int) MV {
	const half = SubblockSize / 2
	return a.At(sx*SubblockSize+half, sy*SubblockSize+half)
}

// CornersFor evaluates the model at the corners of another block whose
// top-left corner sits at (dx, dy) relative to this model's block, giving the
// control points that block inherits.
func (a AffineModel) CornersFor(dx, dy, w, h int) [3]MV {
	return [3]MV{
		a.At(dx, dy),
		a.At(dx+w, dy),
		a.At(dx, dy+h),
	}
}

// Translational reports whether every control point carries the same vector,
// in which case the model degenerates into plain translation.
func (a AffineModel) Translational() bool {
	if a.CP[1] != a.CP[0] {
		return false
	}
	return a.Type != Affine6 || a.CP[2] == a.CP[0]
}
