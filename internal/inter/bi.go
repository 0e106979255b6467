package inter

import (
	"slices"

	"github.com/deepteams/motion/internal/dsp"
	"github.com/deepteams/motion/internal/mv"
	"github.com/deepteams/motion/internal/search"
)

// GBi indices tried after the default weight, in coding order.
var (
	gbiOrder     = []int{3, 1, 4, 0}
	gbiOrderFast = []int{3, 1}
)

// biLoop drives the joint bi-prediction loop. The loop itself only knows
// about predictions and bits; the per-list search is supplied by the
// translational or affine caller.
type biLoop struct {
	refs     [2]int
	motBits  [2]int
	uniCost  [2]uint64
	gbiIdx   int
	baseBits int

	// search refines reference ref of list l against target, writes the
	// resulting prediction into out and returns its motion bits.
	search func(l mv.List, ref int, target []uint16, weight int, out []uint16) int
	// commit records that list l now predicts from its latest result for
	// ref.
	commit func(l mv.List, ref int)
}

// biOutcome is the joint result of runBi.
type biOutcome struct {
	dist       uint64
	bits       int
	cost       uint64
	iterations int
}

// runBi alternates between the lists. Each iteration holds the other list's
// prediction fixed, derives the residual target for the active list and
// searches every reference of that list against it. The starting pair sets
// the initial joint cost. An iteration without a joint cost improvement ends
// the loop; accepted improvements are kept.
//
// The caller must have written the starting predictions of list 0 and list
// 1 into s.bufs[0] and s.bufs[1].
func (s *Searcher) runBi(blk *Block, sp *biLoop) biOutcome {
	n := blk.Area()
	preds := [2][]uint16{s.bufs[0][:n], s.bufs[1][:n]}
	target, out, mix := s.bufs[2][:n], s.bufs[3][:n], s.bufs[4][:n]
	w0, w1 := mv.GBiPair(sp.gbiIdx)
	weights := [2]int{w0, w1}

	numIter := s.cfg.BiIterations
	if s.cfg.FastBi {
		numIter = 1
	}
	blend(mix, preds[mv.L0], preds[mv.L1], blk.Block, sp.gbiIdx, s.cur.BitDepth)
	res := biOutcome{dist: satd(blk, mix), bits: sp.baseBits + sp.motBits[mv.L0] + sp.motBits[mv.L1]}
	res.cost = s.cfg.Costs.Motion.Cost(res.bits, res.dist)
	for iter := 0; iter < numIter; iter++ {
		res.iterations++
		l := mv.List(iter % 2)
		if s.cfg.FastBi {
			// Refine the list whose uni-prediction was worse.
			if sp.uniCost[mv.L0] <= sp.uniCost[mv.L1] {
				l = mv.L1
			} else {
				l = mv.L0
			}
		}
		o := l.Other()
		dsp.ResidualTarget(target, blk.W, blk.Org, blk.W, preds[o], blk.W, blk.W, blk.H,
			weights[l], weights[o], mv.GBiShift, s.cur.BitDepth)

		changed := false
		for ref := 0; ref < s.refs.Num(l); ref++ {
			mot := sp.search(l, ref, target, weights[l], out)
			if l == mv.L0 {
				blend(mix, out, preds[mv.L1], blk.Block, sp.gbiIdx, s.cur.BitDepth)
			} else {
				blend(mix, preds[mv.L0], out, blk.Block, sp.gbiIdx, s.cur.BitDepth)
			}
			d := satd(blk, mix)
			bits := sp.baseBits + mot + sp.motBits[o]
			cost := s.cfg.Costs.Motion.Cost(bits, d)
			if cost < res.cost {
				changed = true
				res.cost, res.dist, res.bits = cost, d, bits
				sp.refs[l] = ref
				sp.motBits[l] = mot
				copy(preds[l], out)
				sp.commit(l, ref)
			}
		}
		if !changed {
			break
		}
	}
	return res
}

// gbiBits prices the weight index when the block signals one.
func (s *Searcher) gbiBits(blk *Block, idx int) int {
	if !s.gbiAllowed(blk) {
		return 0
	}
	return s.cfg.Bits.GBiBits(idx)
}

// Bi runs the bi-prediction search with GBi weight gbiIdx at the precision
// of uni. Both lists start from init when given, otherwise from the best
// uni-prediction results; when those two are the same picture, list 1
// starts from its best distinct picture instead.
func (s *Searcher) Bi(blk *Block, uni *UniResult, gbiIdx int, init *Candidate) (Candidate, bool) {
	if !blk.biAllowed || uni.Best[mv.L0] < 0 || uni.Best[mv.L1] < 0 {
		return Candidate{}, false
	}
	if gbiIdx != mv.GBiDefault && !s.gbiAllowed(blk) {
		panic("inter: GBi weight on a block that cannot signal it")
	}
	prec := uni.Prec
	cur := [2][]RefResult{slices.Clone(uni.Refs[mv.L0]), slices.Clone(uni.Refs[mv.L1])}

	var refs [2]int
	if init != nil {
		refs = init.Motion.RefIdx
		for l := mv.L0; l <= mv.L1; l++ {
			v, idx := init.Motion.MV[l], init.MVPIdx[l]
			bits := s.cfg.Bits.RefIdxBits(refs[l], s.refs.Num(l)) +
				s.mvdBits(v, s.AMVP(blk, l, refs[l])[idx], prec) +
				s.cfg.Bits.MVPIdxBits(idx, len(s.AMVP(blk, l, refs[l])))
			cur[l][refs[l]] = RefResult{MV: v, MVPIdx: idx, Bits: bits}
		}
	} else {
		refs = uni.Best
		if uni.ValidL1 >= 0 && s.refs.L0Twin(refs[mv.L1]) == refs[mv.L0] {
			refs[mv.L1] = uni.ValidL1
		}
	}
	for l := mv.L0; l <= mv.L1; l++ {
		s.predict(s.bufs[l], s.refs.Get(l, refs[l]), blk.Block, cur[l][refs[l]].MV)
	}

	var chosen [2]RefResult
	chosen[mv.L0], chosen[mv.L1] = cur[mv.L0][refs[mv.L0]], cur[mv.L1][refs[mv.L1]]
	sp := &biLoop{
		refs:     refs,
		motBits:  [2]int{chosen[mv.L0].Bits, chosen[mv.L1].Bits},
		uniCost:  [2]uint64{uni.Refs[mv.L0][uni.Best[mv.L0]].Cost, uni.Refs[mv.L1][uni.Best[mv.L1]].Cost},
		gbiIdx:   gbiIdx,
		baseBits: s.modeBits(blk, mv.DirBi, false, 0, prec) + s.gbiBits(blk, gbiIdx),
		search: func(l mv.List, ref int, target []uint16, weight int, out []uint16) int {
			r := s.biRef(blk, l, ref, cur[l][ref], target, weight, prec)
			cur[l][ref] = r
			s.predict(out, s.refs.Get(l, ref), blk.Block, r.MV)
			return r.Bits
		},
		commit: func(l mv.List, ref int) { chosen[l] = cur[l][ref] },
	}
	out := s.runBi(blk, sp)

	c := Candidate{Mode: ModeBi, Prec: prec, Dist: out.dist, Bits: out.bits, Cost: out.cost, Iterations: out.iterations}
	c.Motion.Dir = mv.DirBi
	c.Motion.GBiIdx = gbiIdx
	for l := mv.L0; l <= mv.L1; l++ {
		r := chosen[l]
		c.Motion.RefIdx[l] = sp.refs[l]
		c.Motion.MV[l] = r.MV
		c.MVPIdx[l] = r.MVPIdx
		c.MVD[l] = r.MV.Sub(s.AMVP(blk, l, sp.refs[l])[r.MVPIdx].RoundTo(prec)).Shr(prec.Shift())
	}
	return c, true
}

// biRef searches one reference against the residual target: a full search
// in the bi-prediction window around the current vector, then refinement.
func (s *Searcher) biRef(blk *Block, l mv.List, ref int, start RefResult, target []uint16, weight int, prec mv.Precision) RefResult {
	plane := s.refs.Get(l, ref)
	preds := s.AMVP(blk, l, ref)
	idx := start.MVPIdx
	lim := bounds(plane, blk.Block)
	p := &search.Problem{
		Org:       target,
		OrgStride: blk.W,
		W:         blk.W,
		H:         blk.H,
		Ref:       plane,
		X:         blk.X,
		Y:         blk.Y,
		Start:     start.MV,
		Pred:      preds[idx].RoundTo(prec),
		Range:     mv.Around(lim.Clamp(start.MV), s.cfg.BipredRange).Intersect(lim),
		Radius:    s.cfg.BipredRange,
		Metric:    dsp.MetricSAD,
		Weight:    weight,
		Cost:      s.cfg.Costs.Motion,
		Bits:      s.cfg.Bits,
		Prec:      prec,
	}
	integer := search.Full{}.Search(p)
	return s.refine(p, integer.MV, preds, idx, s.cfg.Bits.RefIdxBits(ref, s.refs.Num(l)))
}
