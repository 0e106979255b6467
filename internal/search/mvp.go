package search

import "github.com/deepteams/motion/internal/mv"

// MVPChoice is the predictor a vector is coded against, with the total bits
// and cost of the candidate that carries it.
type MVPChoice struct {
	Idx  int
	Bits int
	Cost uint64
}

// CheckBestMVP re-prices the final vector v against every predictor in
// preds and switches to the one with the fewest MV difference plus index
// bits. The vector itself never changes; Bits and Cost are adjusted by the
// bit difference.
func CheckBestMVP(v mv.MV, preds []mv.MV, cur MVPChoice, prec mv.Precision, be mv.BitEstimator, cm mv.CostModel) MVPChoice {
	if cur.Idx < 0 || cur.Idx >= len(preds) {
		panic("search: predictor index out of range")
	}
	if len(preds) < 2 {
		return cur
	}
	shift := prec.Shift()
	mvBits := func(i int) int {
		return be.MVDBits(v.Sub(preds[i].RoundTo(prec)).Shr(shift)) + be.MVPIdxBits(i, len(preds))
	}
	orig := mvBits(cur.Idx)
	bestIdx, best := cur.Idx, orig
	for i := range preds {
		if i == cur.Idx {
			continue
		}
		if b := mvBits(i); b < best {
			bestIdx, best = i, b
		}
	}
	if bestIdx == cur.Idx {
		return cur
	}
	bits := cur.Bits - orig + best
	cost := cur.Cost - cm.BitCost(cur.Bits) + cm.BitCost(bits)
	return MVPChoice{Idx: bestIdx, Bits: bits, Cost: cost}
}
