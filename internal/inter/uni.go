package inter

import (
	"github.com/deepteams/motion/internal/dsp"
	"github.com/deepteams/motion/internal/mv"
	"github.com/deepteams/motion/internal/search"
)

// RefResult is the uni-prediction outcome for one reference picture. Bits
// cover the reference index, MV difference and predictor index; Cost is
// Dist plus the motion lambda times Bits.
type RefResult struct {
	MV     mv.MV
	MVPIdx int
	Bits   int
	Dist   uint64
	Cost   uint64
}

// UniResult collects uni-prediction results of a block at one precision.
type UniResult struct {
	Prec mv.Precision
	Refs [2][]RefResult
	// Best is the cheapest reference index per list, -1 for an unused list.
	Best [2]int
	// ValidL1 is the cheapest list-1 reference whose picture does not also
	// appear in list 0, -1 if there is none.
	ValidL1 int
}

// Uni searches every reference picture of every list at precision prec.
// List-1 references that duplicate a list-0 picture reuse the list-0
// vector instead of searching again, and quarter-sample results are served
// from the per-picture uni buffer when the block was searched before.
func (s *Searcher) Uni(blk *Block, prec mv.Precision) *UniResult {
	res := &UniResult{Prec: prec, Best: [2]int{-1, -1}, ValidL1: -1}
	validCost := uint64(mv.MaxCost)
	for _, l := range s.lists() {
		n := s.refs.Num(l)
		res.Refs[l] = make([]RefResult, n)
		bestCost := uint64(mv.MaxCost)
		for ref := 0; ref < n; ref++ {
			r := s.uniRef(blk, res, l, ref, prec)
			res.Refs[l][ref] = r
			if r.Cost < bestCost {
				bestCost = r.Cost
				res.Best[l] = ref
			}
			if l == mv.L1 && r.Cost < validCost && s.refs.L0Twin(ref) < 0 {
				validCost = r.Cost
				res.ValidL1 = ref
			}
		}
	}
	return res
}

func (s *Searcher) uniRef(blk *Block, res *UniResult, l mv.List, ref int, prec mv.Precision) RefResult {
	if prec == mv.Quarter {
		if e, ok := s.cache.Uni(blk.Block, l, ref); ok {
			return RefResult{MV: e.MV, MVPIdx: e.MVPIdx, Bits: e.Bits, Dist: e.Dist, Cost: e.Cost}
		}
	}
	twin := -1
	if l == mv.L1 {
		twin = s.refs.L0Twin(ref)
	}
	var r RefResult
	if twin >= 0 {
		r = s.reuseTwin(blk, res.Refs[mv.L0][twin], ref, prec)
	} else {
		r = s.searchRef(blk, l, ref, prec)
	}
	if prec == mv.Quarter {
		s.cache.StoreUni(blk.Block, l, ref, search.UniEntry{MV: r.MV, MVPIdx: r.MVPIdx, Bits: r.Bits, Dist: r.Dist, Cost: r.Cost})
	}
	return r
}

// reuseTwin prices the list-0 result of the same picture as a list-1
// result: only the bits change.
func (s *Searcher) reuseTwin(blk *Block, l0 RefResult, ref int, prec mv.Precision) RefResult {
	preds := s.AMVP(blk, mv.L1, ref)
	plane := s.refs.Get(mv.L1, ref)
	idx := s.estimateMVP(blk, plane, preds, prec)
	bits := s.cfg.Bits.RefIdxBits(ref, s.refs.Num(mv.L1)) +
		s.mvdBits(l0.MV, preds[idx], prec) +
		s.cfg.Bits.MVPIdxBits(idx, len(preds))
	ch := search.CheckBestMVP(l0.MV, preds,
		search.MVPChoice{Idx: idx, Bits: bits, Cost: s.cfg.Costs.Motion.Cost(bits, l0.Dist)},
		prec, s.cfg.Bits, s.cfg.Costs.Motion)
	return RefResult{MV: l0.MV, MVPIdx: ch.Idx, Bits: ch.Bits, Dist: l0.Dist, Cost: ch.Cost}
}

// searchRef runs predictor estimation, the integer search and the
// refinement for one reference picture.
func (s *Searcher) searchRef(blk *Block, l mv.List, ref int, prec mv.Precision) RefResult {
	plane := s.refs.Get(l, ref)
	preds := s.AMVP(blk, l, ref)
	idx := s.estimateMVP(blk, plane, preds, prec)
	pred := preds[idx].RoundTo(prec)
	lim := bounds(plane, blk.Block)

	p := &search.Problem{
		Org:       blk.Org,
		OrgStride: blk.W,
		W:         blk.W,
		H:         blk.H,
		Ref:       plane,
		X:         blk.X,
		Y:         blk.Y,
		Start:     pred,
		Pred:      pred,
		Range:     mv.Around(lim.Clamp(pred), s.cfg.SearchRange).Intersect(lim),
		Radius:    s.cfg.SearchRange,
		Metric:    dsp.MetricSAD,
		Cost:      s.cfg.Costs.Motion,
		Bits:      s.cfg.Bits,
		Prec:      prec,
	}
	for i, c := range preds {
		if i != idx {
			p.Candidates = append(p.Candidates, c.RoundTo(prec))
		}
	}
	if seed, ok := s.cache.Integer(blk.Block, l, ref); ok {
		p.Seeds = append(p.Seeds, seed)
	}
	integer := s.cfg.Strategy.Search(p)
	s.cache.StoreInteger(blk.Block, l, ref, integer.MV)
	return s.refine(p, integer.MV, preds, idx, s.cfg.Bits.RefIdxBits(ref, s.refs.Num(l)))
}

// refine turns an integer search result into a coded vector: fractional
// refinement and predictor re-selection at quarter precision, lattice
// refinement otherwise. extraBits are added to the vector's bits.
func (s *Searcher) refine(p *search.Problem, integer mv.MV, preds []mv.MV, idx, extraBits int) RefResult {
	if p.Prec != mv.Quarter {
		lr := search.RefineIntegerLattice(p, integer, preds)
		bits := lr.Bits + extraBits
		return RefResult{MV: lr.MV, MVPIdx: lr.MVPIdx, Bits: bits, Dist: lr.Dist, Cost: p.Cost.Cost(bits, lr.Dist)}
	}
	fr := search.RefineFractional(p, integer)
	bits := fr.Bits + s.cfg.Bits.MVPIdxBits(idx, len(preds)) + extraBits
	ch := search.CheckBestMVP(fr.MV, preds,
		search.MVPChoice{Idx: idx, Bits: bits, Cost: p.Cost.Cost(bits, fr.Dist)},
		p.Prec, s.cfg.Bits, p.Cost)
	return RefResult{MV: fr.MV, MVPIdx: ch.Idx, Bits: ch.Bits, Dist: fr.Dist, Cost: ch.Cost}
}

// uniCandidate turns the best result of list l into a mode candidate.
func (s *Searcher) uniCandidate(blk *Block, res *UniResult, l mv.List) (Candidate, bool) {
	ref := res.Best[l]
	if ref < 0 {
		return Candidate{}, false
	}
	r := res.Refs[l][ref]
	c := Candidate{Mode: ModeUni, Prec: res.Prec}
	c.Motion.Dir = mv.DirOf(l)
	c.Motion.RefIdx[l] = ref
	c.Motion.MV[l] = r.MV
	c.Motion.GBiIdx = mv.GBiDefault
	c.MVPIdx[l] = r.MVPIdx
	c.MVD[l] = r.MV.Sub(s.AMVP(blk, l, ref)[r.MVPIdx].RoundTo(res.Prec)).Shr(res.Prec.Shift())
	c.Dist = r.Dist
	c.Bits = r.Bits + s.modeBits(blk, c.Motion.Dir, false, 0, res.Prec)
	c.Cost = s.cfg.Costs.Motion.Cost(c.Bits, c.Dist)
	return c, true
}
