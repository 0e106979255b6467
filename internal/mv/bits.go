package mv

// BitEstimator supplies the coded length of the syntax elements the search
// has to price. It is owned by the entropy coder; the search only queries it.
type BitEstimator interface {
	// MVDBits returns the length of an MV difference, expressed in units of
	// the block's MV precision.
	MVDBits(mvd MV) int
	// MVPIdxBits returns the length of a predictor index among num candidates.
	MVPIdxBits(idx, num int) int
	// RefIdxBits returns the length of a reference index among numRef pictures.
	RefIdxBits(refIdx, numRef int) int
	// DirBits returns the length of the prediction direction for a partition.
	// bPicture reports whether list 1 exists; biAllowed whether the block
	// may be bi-predicted.
	DirBits(d Dir, part PartMode, bPicture, biAllowed bool) int
	// MergeBits returns the length of the merge flag plus merge index.
	MergeBits(idx, num int) int
	// AffineBits returns the length of the affine flag and type.
	AffineBits(affine bool, t AffineType, sixAllowed bool) int
	// GBiBits returns the length of a generalized bi-prediction weight index.
	GBiBits(idx int) int
}

// ComponentBits returns the exp-Golomb style length of one MVD component:
// a signed value is mapped to 2|v| or 2|v|+1 and costs 2*floor(log2)+1 bits.
func ComponentBits(v int) int {
	length := 1
	var t int
	if v <= 0 {
		t = (-v << 1) + 1
	} else {
		t = v << 1
	}
	for t != 1 {
		t >>= 1
		length += 2
	}
	return length
}

// TruncUnaryBits returns the length of idx in truncated unary code with
// num symbols.
func TruncUnaryBits(idx, num int) int {
	if num <= 1 {
		return 0
	}
	if idx < num-1 {
		return idx + 1
	}
	return idx
}

// GolombEstimator is the default bit oracle: exp-Golomb MVD lengths,
// truncated unary indices and fixed direction costs per partition shape.
type GolombEstimator struct{}

// MVDBits implements BitEstimator.
func (GolombEstimator) MVDBits(mvd MV) int {
	return ComponentBits(mvd.X) + ComponentBits(mvd.Y)
}

// MVPIdxBits implements BitEstimator.
func (GolombEstimator) MVPIdxBits(idx, num int) int { return TruncUnaryBits(idx, num) }

// RefIdxBits implements BitEstimator.
func (GolombEstimator) RefIdxBits(refIdx, numRef int) int { return TruncUnaryBits(refIdx, numRef) }

// DirBits implements BitEstimator.
func (GolombEstimator) DirBits(d Dir, part PartMode, bPicture, biAllowed bool) int {
	if !bPicture {
		// P pictures only ever code list 0.
		if d == DirL0 {
			if part == Part2Nx2N {
				return 1
			}
			return 3
		}
		return 0
	}
	if !biAllowed {
		// Small B blocks code a single L0/L1 bin.
		switch d {
		case DirL0, DirL1:
			return 1
		}
		return 0
	}
	if part == Part2Nx2N {
		switch d {
		case DirL0, DirL1:
			return 3
		case DirBi:
			return 5
		}
		return 0
	}
	switch d {
	case DirL0:
		return 5
	case DirL1, DirBi:
		return 7
	}
	return 0
}

// MergeBits implements BitEstimator.
func (GolombEstimator) MergeBits(idx, num int) int { return 1 + TruncUnaryBits(idx, num) }

// AffineBits implements BitEstimator.
func (GolombEstimator) AffineBits(affine bool, t AffineType, sixAllowed bool) int {
	if !affine {
		return 1
	}
	if sixAllowed {
		return 2
	}
	return 1
}

// gbiCodingOrder lists weight indices in the order their codes get longer.
var gbiCodingOrder = [NumGBi]int{GBiDefault, 3, 1, 4, 0}

// GBiBits implements BitEstimator.
func (GolombEstimator) GBiBits(idx int) int {
	for pos, i := range gbiCodingOrder {
		if i == idx {
			return TruncUnaryBits(pos, NumGBi)
		}
	}
	panic("mv: gbi index out of range")
}

// Generalized bi-prediction weights applied to list 1 out of GBiDenom; list 0
// gets GBiDenom minus that.
const (
	NumGBi     = 5
	GBiDefault = 2
	GBiShift   = 3
	GBiDenom   = 1 << GBiShift
)

// GBiWeights is the list-1 weight per GBi index.
var GBiWeights = [NumGBi]int{-2, 3, 4, 5, 10}

// WeightDist scales a distortion measured against a bi-prediction residual
// target by |w|/GBiDenom, rounding to nearest. A zero weight leaves d as is.
func WeightDist(d uint64, w int) uint64 {
	if w == 0 {
		return d
	}
	if w < 0 {
		w = -w
	}
	return (d*uint64(w) + GBiDenom/2) >> GBiShift
}

// GBiPair returns the (list0, list1) weights for a GBi index.
func GBiPair(idx int) (w0, w1 int) {
	w1 = GBiWeights[idx]
	return GBiDenom - w1, w1
}
