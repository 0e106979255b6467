package mv

// AffineType is the number of parameters of an affine motion model.
type AffineType int

const (
	Affine4 AffineType = 4
	Affine6 AffineType = 6
)

// NumCP returns the number of control points of the model.
func (t AffineType) NumCP() int {
	if t == Affine6 {
		return 3
	}
	return 2
}

// Motion is the inter motion of one decided block, as stored in the motion
// field and read back by candidate derivation of later blocks.
type Motion struct {
	Dir    Dir
	RefIdx [2]int
	MV     [2]MV

	// Affine blocks keep their control points and geometry so that later
	// blocks can inherit the model.
	Affine     bool
	AffineType AffineType
	CP         [2][3]MV
	BX, BY     int
	BW, BH     int

	GBiIdx int
}

// Inter reports whether m carries motion.
func (m Motion) Inter() bool { return m.Dir != DirNone }

// SameMotion reports whether a and b predict identically for candidate
// pruning: same direction, and same reference and vector on each used list.
func SameMotion(a, b Motion) bool {
	if a.Dir != b.Dir {
		return false
	}
	for l := L0; l <= L1; l++ {
		if !a.Dir.Uses(l) {
			continue
		}
		if a.RefIdx[l] != b.RefIdx[l] || a.MV[l] != b.MV[l] {
			return false
		}
	}
	return true
}
