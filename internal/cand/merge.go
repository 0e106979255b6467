package cand

import "github.com/deepteams/motion/internal/mv"

// DeriveMerge returns up to maxCand merge candidates for b, in coding order:
// spatial A1, B1, B0, A0 and B2 with pairwise pruning, the temporal
// candidate, the pairwise average of the first two entries, then zero
// candidates with increasing reference index. Partition rules drop the
// neighbour that lies in the sibling prediction block of the same CU, and
// 8×4/4×8 blocks are restricted to uni-prediction.
func (e *Env) DeriveMerge(b mv.Block, maxCand int) []mv.Motion {
	if maxCand < 1 || maxCand > MaxMerge {
		panic("cand: merge list size out of range")
	}
	out := make([]mv.Motion, 0, maxCand)
	full := func() bool { return len(out) >= maxCand }

	a1, okA1 := e.at(b, posA1(b))
	if b.PartIdx == 1 && b.Part == mv.PartNx2N {
		okA1 = false
	}
	b1, okB1 := e.at(b, posB1(b))
	if b.PartIdx == 1 && b.Part == mv.Part2NxN {
		okB1 = false
	}
	b0, okB0 := e.at(b, posB0(b))
	a0, okA0 := e.at(b, posA0(b))
	b2, okB2 := e.at(b, posB2(b))

	if okB1 && okA1 && mv.SameMotion(a1, b1) {
		okB1 = false
	}
	if okB0 && okB1 && mv.SameMotion(b1, b0) {
		okB0 = false
	}
	if okA0 && okA1 && mv.SameMotion(a1, a0) {
		okA0 = false
	}
	if okB2 && ((okA1 && mv.SameMotion(a1, b2)) || (okB1 && mv.SameMotion(b1, b2))) {
		okB2 = false
	}

	spatial := []struct {
		m  mv.Motion
		ok bool
	}{{a1, okA1}, {b1, okB1}, {b0, okB0}, {a0, okA0}}
	for _, s := range spatial {
		if s.ok && !full() {
			out = append(out, translational(s.m))
		}
	}
	if okB2 && len(out) < 4 && !full() {
		out = append(out, translational(b2))
	}

	if e.Temporal && !full() {
		if t, ok := e.temporalMerge(b); ok {
			out = append(out, t)
		}
	}

	if len(out) >= 2 && !full() {
		out = append(out, pairwiseAverage(out[0], out[1]))
	}

	e.zeroFill(&out, maxCand)

	if b.W+b.H == 12 {
		for i := range out {
			if out[i].Dir == mv.DirBi {
				out[i].Dir = mv.DirL0
				out[i].RefIdx[mv.L1] = 0
				out[i].MV[mv.L1] = mv.Zero
				out[i].GBiIdx = mv.GBiDefault
			}
		}
	}
	return out
}

// translational strips a neighbour down to the motion a merged block
// inherits: direction, references, vectors and GBi weight.
func translational(m mv.Motion) mv.Motion {
	out := mv.Motion{Dir: m.Dir, RefIdx: m.RefIdx, MV: m.MV, GBiIdx: m.GBiIdx}
	if out.Dir != mv.DirBi {
		out.GBiIdx = mv.GBiDefault
	}
	return out
}

// temporalMerge builds the collocated candidate with reference index zero
// on each list.
func (e *Env) temporalMerge(b mv.Block) (mv.Motion, bool) {
	m := mv.Motion{GBiIdx: mv.GBiDefault}
	for _, l := range [2]mv.List{mv.L0, mv.L1} {
		if e.numRef(l) == 0 {
			continue
		}
		v, ok := e.temporal(b, l, e.refPOC(l, 0))
		if !ok {
			continue
		}
		m.Dir |= mv.DirOf(l)
		m.MV[l] = v
	}
	return m, m.Dir != mv.DirNone
}

// pairwiseAverage averages the vectors of two candidates per list. A list
// used by only one of them is copied from it; the reference index follows
// the first candidate.
func pairwiseAverage(p, q mv.Motion) mv.Motion {
	out := mv.Motion{GBiIdx: mv.GBiDefault}
	for _, l := range [2]mv.List{mv.L0, mv.L1} {
		switch {
		case p.Dir.Uses(l) && q.Dir.Uses(l):
			out.RefIdx[l] = p.RefIdx[l]
			sum := p.MV[l].Add(q.MV[l])
			out.MV[l] = mv.MV{X: mv.RoundShift(sum.X, 1), Y: mv.RoundShift(sum.Y, 1)}
		case p.Dir.Uses(l):
			out.RefIdx[l], out.MV[l] = p.RefIdx[l], p.MV[l]
		case q.Dir.Uses(l):
			out.RefIdx[l], out.MV[l] = q.RefIdx[l], q.MV[l]
		default:
			continue
		}
		out.Dir |= mv.DirOf(l)
	}
	return out
}

// zeroFill pads the list with zero-vector candidates. The reference index
// increases with each entry while both lists have that many pictures.
func (e *Env) zeroFill(out *[]mv.Motion, maxCand int) {
	n0, n1 := e.numRef(mv.L0), e.numRef(mv.L1)
	bi := n1 > 0
	numRef := n0
	if bi {
		numRef = min(n0, n1)
	}
	for zero := 0; len(*out) < maxCand; zero++ {
		ref := 0
		if zero < numRef {
			ref = zero
		}
		m := mv.Motion{Dir: mv.DirL0, GBiIdx: mv.GBiDefault}
		m.RefIdx[mv.L0] = ref
		if bi {
			m.Dir = mv.DirBi
			m.RefIdx[mv.L1] = ref
		}
		*out = append(*out, m)
	}
}
