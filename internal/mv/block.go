package mv

import "math/bits"

// Block size limits for a prediction block.
const (
	MinBlockSize = 4
	MaxBlockSize = 128
)

// PartMode is the partitioning of the coding unit a prediction block belongs to.
type PartMode int

const (
	Part2Nx2N PartMode = iota
	Part2NxN
	PartNx2N
	PartNxN
)

func (p PartMode) String() string {
	switch p {
	case Part2Nx2N:
		return "2Nx2N"
	case Part2NxN:
		return "2NxN"
	case PartNx2N:
		return "Nx2N"
	case PartNxN:
		return "NxN"
	default:
		return "unknown"
	}
}

// NumParts returns the number of prediction blocks of partitioning p.
func (p PartMode) NumParts() int {
	switch p {
	case Part2NxN, PartNx2N:
		return 2
	case PartNxN:
		return 4
	default:
		return 1
	}
}

// Block is one prediction block. Its geometry is fixed for the whole search.
type Block struct {
	X, Y    int // luma position in the picture
	W, H    int
	Part    PartMode
	PartIdx int
}

// Valid reports whether the block has power-of-two dimensions within the
// codec limits and a partition index in range.
func (b Block) Valid() bool {
	if b.W < MinBlockSize || b.H < MinBlockSize || b.W > MaxBlockSize || b.H > MaxBlockSize {
		return false
	}
	if b.W&(b.W-1) != 0 || b.H&(b.H-1) != 0 {
		return false
	}
	return b.PartIdx >= 0 && b.PartIdx < b.Part.NumParts()
}

// Log2W returns log2 of the block width.
func (b Block) Log2W() int { return bits.TrailingZeros(uint(b.W)) }

// Log2H returns log2 of the block height.
func (b Block) Log2H() int { return bits.TrailingZeros(uint(b.H)) }

// Area returns W*H.
func (b Block) Area() int { return b.W * b.H }

// CU returns the geometry of the coding unit containing b, derived from its
// partitioning and partition index.
func (b Block) CU() (x, y, w, h int) {
	x, y, w, h = b.X, b.Y, b.W, b.H
	switch b.Part {
	case Part2NxN:
		h *= 2
		y -= b.PartIdx * b.H
	case PartNx2N:
		w *= 2
		x -= b.PartIdx * b.W
	case PartNxN:
		w *= 2
		h *= 2
		x -= (b.PartIdx & 1) * b.W
		y -= (b.PartIdx >> 1) * b.H
	}
	return x, y, w, h
}

// List selects reference picture list 0 or 1.
type List int

const (
	L0 List = 0
	L1 List = 1
)

// Other returns the opposite list.
func (l List) Other() List { return 1 - l }

// Dir is the prediction direction of a block: a bit set of used lists.
type Dir int

const (
	DirNone Dir = 0
	DirL0   Dir = 1
	DirL1   Dir = 2
	DirBi   Dir = 3
)

// DirOf returns the uni direction using list l.
func DirOf(l List) Dir { return Dir(1 << l) }

// Uses reports whether d predicts from list l.
func (d Dir) Uses(l List) bool { return d&(1<<l) != 0 }

func (d Dir) String() string {
	switch d {
	case DirL0:
		return "L0"
	case DirL1:
		return "L1"
	case DirBi:
		return "BI"
	default:
		return "none"
	}
}
