package inter

import (
	"slices"

	"github.com/deepteams/motion/internal/cand"
	"github.com/deepteams/motion/internal/dsp"
	"github.com/deepteams/motion/internal/mv"
	"github.com/deepteams/motion/internal/picture"
	"github.com/deepteams/motion/internal/pool"
)

// Gradient iterations per affine search.
const (
	affineRoundsUni  = 7
	affineRoundsBi   = 5
	affineRoundsFast = 3
)

// AffineRef is the affine outcome for one reference picture. Bits cover the
// reference index, the control point differences and the predictor index.
type AffineRef struct {
	CP     [3]mv.MV
	MVPIdx int
	Bits   int
	Dist   uint64
	Cost   uint64
}

// AffineResult collects the affine uni-prediction results of a block for
// one model type.
type AffineResult struct {
	Type  mv.AffineType
	Refs  [2][]AffineRef
	Preds [2][][]cand.AffineCand
	Best  [2]int
}

// affinePredict motion compensates blk from ref sub-block by sub-block,
// each sub-block using the model vector at its centre clamped into its own
// legal range.
func (s *Searcher) affinePredict(dst []uint16, ref *picture.Plane, b mv.Block, m mv.AffineModel) {
	const sb = mv.SubblockSize
	for sy := 0; sy < b.H/sb; sy++ {
		for sx := 0; sx < b.W/sb; sx++ {
			x, y := b.X+sx*sb, b.Y+sy*sb
			v := ref.MVBounds(x, y, sb, sb).Clamp(m.Subblock(sx, sy))
			ix, iy := v.Int()
			fx, fy := v.Frac()
			dsp.Interpolate(dst[sy*sb*b.W+sx*sb:], b.W, ref.Pix, ref.Stride, ref.Offset(x+ix, y+iy),
				sb, sb, fx, fy, ref.BitDepth, s.interp)
		}
	}
}

// clampCP moves every coded control point into lim. The third control
// point of a 4-parameter model is re-derived from the first two.
func clampCP(lim mv.Range, cp [3]mv.MV, t mv.AffineType, w, h int) [3]mv.MV {
	for i := 0; i < t.NumCP(); i++ {
		cp[i] = lim.Clamp(cp[i])
	}
	if t == mv.Affine4 {
		cp[2] = mv.NewAffineModel(t, cp, w, h).At(0, h)
	}
	return cp
}

// cpMVDs returns the coded control point differences: the first relative to
// its predictor, the others relative to their predictor and the first
// difference.
func cpMVDs(cp [3]mv.MV, pred cand.AffineCand, t mv.AffineType) [3]mv.MV {
	var d [3]mv.MV
	d[0] = cp[0].Sub(pred[0])
	for i := 1; i < t.NumCP(); i++ {
		d[i] = cp[i].Sub(pred[i]).Sub(d[0])
	}
	return d
}

func (s *Searcher) cpBits(cp [3]mv.MV, pred cand.AffineCand, t mv.AffineType) int {
	d := cpMVDs(cp, pred, t)
	bits := 0
	for i := 0; i < t.NumCP(); i++ {
		bits += s.cfg.Bits.MVDBits(d[i])
	}
	return bits
}

// affineProblem is one gradient search: fit the model of type t so that the
// prediction from ref matches target.
type affineProblem struct {
	blk    *Block
	target []uint16
	ref    *picture.Plane
	t      mv.AffineType
	preds  []cand.AffineCand
	idx    int
	// weight scales the distortion of a residual target; zero for a plain
	// original.
	weight    int
	rounds    int
	extraBits int
}

func (ap *affineProblem) model(cp [3]mv.MV) mv.AffineModel {
	return mv.NewAffineModel(ap.t, cp, ap.blk.W, ap.blk.H)
}

func (ap *affineProblem) scale(d uint64) uint64 { return mv.WeightDist(d, ap.weight) }

// affineME runs the gradient search from start. Each round solves for a
// control point update, applies it, clamps the result and re-evaluates;
// the cheapest model seen is returned after the predictor index has been
// re-checked. A zero update or a clamp that changes nothing ends the
// search early.
func (s *Searcher) affineME(ap *affineProblem, start [3]mv.MV) AffineRef {
	blk := ap.blk
	n := blk.Area()
	pred := pool.GetUint16(n)
	errs := pool.GetInt32(n)
	gx := pool.GetInt32(n)
	gy := pool.GetInt32(n)
	defer func() {
		pool.PutUint16(pred)
		pool.PutInt32(errs)
		pool.PutInt32(gx)
		pool.PutInt32(gy)
	}()

	lim := bounds(ap.ref, blk.Block)
	eval := func(cp [3]mv.MV) AffineRef {
		s.affinePredict(pred, ap.ref, blk.Block, ap.model(cp))
		d := ap.scale(dsp.SATD(ap.target, blk.W, pred, blk.W, blk.W, blk.H))
		bits := s.cpBits(cp, ap.preds[ap.idx], ap.t) +
			s.cfg.Bits.MVPIdxBits(ap.idx, len(ap.preds)) + ap.extraBits
		return AffineRef{CP: cp, MVPIdx: ap.idx, Bits: bits, Dist: d, Cost: s.cfg.Costs.Motion.Cost(bits, d)}
	}

	cp := clampCP(lim, start, ap.t, blk.W, blk.H)
	best := eval(cp)
	for round := 0; round < ap.rounds; round++ {
		// pred holds the prediction of cp here.
		dsp.Difference(errs, ap.target, blk.W, pred, blk.W, blk.W, blk.H)
		dsp.Gradients(pred, blk.W, blk.W, blk.H, gx, gy)
		delta := solveAffine(errs, gx, gy, blk.W, blk.H, ap.t)
		if delta == ([3]mv.MV{}) {
			break
		}
		var next [3]mv.MV
		for i := range next {
			next[i] = cp[i].Add(delta[i]).Clip()
		}
		next = clampCP(lim, next, ap.t, blk.W, blk.H)
		if next == cp {
			break
		}
		cp = next
		if r := eval(cp); r.Cost < best.Cost {
			best = r
		}
	}
	return s.checkBestAffineMVP(ap, best)
}

// checkBestAffineMVP re-prices the final control points against every
// other predictor and switches when that codes them in fewer bits.
func (s *Searcher) checkBestAffineMVP(ap *affineProblem, r AffineRef) AffineRef {
	for i, p := range ap.preds {
		if i == r.MVPIdx {
			continue
		}
		bits := s.cpBits(r.CP, p, ap.t) + s.cfg.Bits.MVPIdxBits(i, len(ap.preds)) + ap.extraBits
		if bits < r.Bits {
			r.MVPIdx, r.Bits = i, bits
			r.Cost = s.cfg.Costs.Motion.Cost(bits, r.Dist)
		}
	}
	return r
}

// affineStart picks where the gradient search begins: the cheapest
// predictor by template cost (SATD of its prediction plus index bits),
// unless one of the seeds predicts better.
func (s *Searcher) affineStart(blk *Block, ref *picture.Plane, preds []cand.AffineCand, t mv.AffineType, seeds ...[3]mv.MV) ([3]mv.MV, int) {
	pred := pool.GetUint16(blk.Area())
	defer pool.PutUint16(pred)
	lim := bounds(ref, blk.Block)
	template := func(cp [3]mv.MV, idx int) uint64 {
		s.affinePredict(pred, ref, blk.Block, mv.NewAffineModel(t, cp, blk.W, blk.H))
		return s.cfg.Costs.Motion.Cost(s.cfg.Bits.MVPIdxBits(idx, len(preds)), satd(blk, pred))
	}

	var best [3]mv.MV
	idx, bestCost := 0, uint64(mv.MaxCost)
	for i, c := range preds {
		cp := clampCP(lim, c, t, blk.W, blk.H)
		if cost := template(cp, i); cost < bestCost {
			best, idx, bestCost = cp, i, cost
		}
	}
	for _, seed := range seeds {
		cp := clampCP(lim, seed, t, blk.W, blk.H)
		if cost := template(cp, idx); cost < bestCost {
			best, bestCost = cp, cost
		}
	}
	return best, idx
}

// Affine searches affine motion of type t on every reference picture, then
// jointly for bi-prediction, and returns the cheapest affine candidate. uni
// must be the quarter-sample uni-prediction result of the block; its
// vectors seed the search. For the 6-parameter type, four carries the
// 4-parameter results whose models are tried as extra seeds.
func (s *Searcher) Affine(blk *Block, uni *UniResult, t mv.AffineType, four *AffineResult) (*AffineResult, Candidate, bool) {
	if uni == nil || uni.Prec != mv.Quarter || !s.affineAllowed(blk) {
		return nil, Candidate{}, false
	}
	rounds := affineRoundsUni
	if s.cfg.FastAffine {
		rounds = affineRoundsFast
	}
	res := &AffineResult{Type: t, Best: [2]int{-1, -1}}
	for _, l := range s.lists() {
		n := s.refs.Num(l)
		res.Refs[l] = make([]AffineRef, n)
		res.Preds[l] = make([][]cand.AffineCand, n)
		bestCost := uint64(mv.MaxCost)
		for ref := 0; ref < n; ref++ {
			plane := s.refs.Get(l, ref)
			preds := s.env.DeriveAffineAMVP(blk.Block, l, ref, t)
			res.Preds[l][ref] = preds

			v := uni.Refs[l][ref].MV
			seeds := [][3]mv.MV{{v, v, v}}
			if four != nil {
				seeds = append(seeds, four.Refs[l][ref].CP)
			}
			start, idx := s.affineStart(blk, plane, preds, t, seeds...)
			r := s.affineME(&affineProblem{
				blk:       blk,
				target:    blk.Org,
				ref:       plane,
				t:         t,
				preds:     preds,
				idx:       idx,
				rounds:    rounds,
				extraBits: s.cfg.Bits.RefIdxBits(ref, n),
			}, start)
			res.Refs[l][ref] = r
			if r.Cost < bestCost {
				bestCost = r.Cost
				res.Best[l] = ref
			}
		}
	}

	cands := make([]Candidate, 0, 3)
	for _, l := range s.lists() {
		if ref := res.Best[l]; ref >= 0 {
			var refs [2]int
			var rs [2]AffineRef
			refs[l], rs[l] = ref, res.Refs[l][ref]
			r := rs[l]
			c := s.affineCandidate(blk, res, mv.DirOf(l), refs, rs)
			c.Dist = r.Dist
			c.Bits = r.Bits + s.modeBits(blk, c.Motion.Dir, true, t, mv.Quarter)
			c.Cost = s.cfg.Costs.Motion.Cost(c.Bits, c.Dist)
			cands = append(cands, c)
		}
	}
	if c, ok := s.affineBi(blk, res); ok {
		cands = append(cands, c)
	}
	if len(cands) == 0 {
		return res, Candidate{}, false
	}
	best, _ := Decide(cands)
	return res, best, true
}

// affineBi runs the joint bi-prediction loop over affine models with equal
// weights, starting from the best affine uni-prediction of each list.
func (s *Searcher) affineBi(blk *Block, res *AffineResult) (Candidate, bool) {
	if !blk.biAllowed || res.Best[mv.L0] < 0 || res.Best[mv.L1] < 0 {
		return Candidate{}, false
	}
	t := res.Type
	rounds := affineRoundsBi
	if s.cfg.FastAffine {
		rounds = affineRoundsFast
	}
	cur := [2][]AffineRef{slices.Clone(res.Refs[mv.L0]), slices.Clone(res.Refs[mv.L1])}
	refs := res.Best
	var chosen [2]AffineRef
	for l := mv.L0; l <= mv.L1; l++ {
		chosen[l] = cur[l][refs[l]]
		s.affinePredict(s.bufs[l], s.refs.Get(l, refs[l]), blk.Block, mv.NewAffineModel(t, chosen[l].CP, blk.W, blk.H))
	}

	sp := &biLoop{
		refs:     refs,
		motBits:  [2]int{chosen[mv.L0].Bits, chosen[mv.L1].Bits},
		uniCost:  [2]uint64{chosen[mv.L0].Cost, chosen[mv.L1].Cost},
		gbiIdx:   mv.GBiDefault,
		baseBits: s.modeBits(blk, mv.DirBi, true, t, mv.Quarter) + s.gbiBits(blk, mv.GBiDefault),
		search: func(l mv.List, ref int, target []uint16, weight int, out []uint16) int {
			plane := s.refs.Get(l, ref)
			r := s.affineME(&affineProblem{
				blk:       blk,
				target:    target,
				ref:       plane,
				t:         t,
				preds:     res.Preds[l][ref],
				idx:       cur[l][ref].MVPIdx,
				weight:    weight,
				rounds:    rounds,
				extraBits: s.cfg.Bits.RefIdxBits(ref, s.refs.Num(l)),
			}, cur[l][ref].CP)
			cur[l][ref] = r
			s.affinePredict(out, plane, blk.Block, mv.NewAffineModel(t, r.CP, blk.W, blk.H))
			return r.Bits
		},
		commit: func(l mv.List, ref int) { chosen[l] = cur[l][ref] },
	}
	out := s.runBi(blk, sp)

	c := s.affineCandidate(blk, res, mv.DirBi, sp.refs, chosen)
	c.Dist, c.Bits, c.Cost, c.Iterations = out.dist, out.bits, out.cost, out.iterations
	return c, true
}

// affineCandidate fills the motion and coded differences of an affine
// candidate; the caller sets its cost.
func (s *Searcher) affineCandidate(blk *Block, res *AffineResult, d mv.Dir, refs [2]int, rs [2]AffineRef) Candidate {
	c := Candidate{Mode: ModeAffine, Prec: mv.Quarter}
	c.Motion.Dir = d
	c.Motion.Affine = true
	c.Motion.AffineType = res.Type
	c.Motion.GBiIdx = mv.GBiDefault
	c.Motion.BX, c.Motion.BY = blk.X, blk.Y
	c.Motion.BW, c.Motion.BH = blk.W, blk.H
	for l := mv.L0; l <= mv.L1; l++ {
		if !d.Uses(l) {
			continue
		}
		r := rs[l]
		c.Motion.RefIdx[l] = refs[l]
		c.Motion.CP[l] = r.CP
		c.Motion.MV[l] = r.CP[0]
		c.MVPIdx[l] = r.MVPIdx
		c.CPMVD[l] = cpMVDs(r.CP, res.Preds[l][refs[l]][r.MVPIdx], res.Type)
	}
	return c
}
