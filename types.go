package motion

import (
	"image"

	"github.com/deepteams/motion/internal/inter"
	"github.com/deepteams/motion/internal/mv"
	"github.com/deepteams/motion/internal/picture"
)

// Value types shared with the search packages.
type (
	// MV is a motion vector in quarter samples.
	MV = mv.MV
	// Block is a prediction block: position, size and partition.
	Block = mv.Block
	// PartMode is the partition shape of the coding unit a block belongs
	// to.
	PartMode = mv.PartMode
	// Motion is the committed motion of a block.
	Motion = mv.Motion
	// BitEstimator supplies coded lengths of motion syntax.
	BitEstimator = mv.BitEstimator

	// Plane is a padded luma picture.
	Plane = picture.Plane
	// RefLists are the two reference picture lists of a picture.
	RefLists = picture.RefLists
	// MotionField stores committed motion per 4×4 unit.
	MotionField = picture.MotionField

	// Decision is the outcome for one block.
	Decision = inter.Decision
	// Mode is the coding mode of a decision.
	Mode = inter.Mode
)

const (
	ModeMerge  = inter.ModeMerge
	ModeUni    = inter.ModeUni
	ModeBi     = inter.ModeBi
	ModeAffine = inter.ModeAffine
)

// Partition shapes.
const (
	Part2Nx2N = mv.Part2Nx2N
	Part2NxN  = mv.Part2NxN
	PartNx2N  = mv.PartNx2N
	PartNxN   = mv.PartNxN
)

// NewPlane allocates a zeroed plane with the default border.
func NewPlane(width, height, bitDepth int) (*Plane, error) {
	return picture.NewPlane(width, height, picture.DefaultMargin, bitDepth)
}

// PlaneFromImage extracts the luma of img into an 8-bit plane with extended
// borders.
func PlaneFromImage(img image.Image) (*Plane, error) {
	return picture.FromImage(img, picture.DefaultMargin)
}

// NewMotionField allocates a motion field for a width×height picture.
func NewMotionField(width, height int) *MotionField {
	return picture.NewMotionField(width, height)
}
