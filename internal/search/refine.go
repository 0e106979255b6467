package search

import (
	"github.com/deepteams/motion/internal/dsp"
	"github.com/deepteams/motion/internal/mv"
	"github.com/deepteams/motion/internal/pool"
)

// Refinement neighbourhoods in visit order. The centre comes first so that
// it wins ties.
var (
	halfPattern = [9]mv.MV{
		{X: 0, Y: 0}, {X: 0, Y: -1}, {X: 0, Y: 1}, {X: -1, Y: 0}, {X: 1, Y: 0},
		{X: -1, Y: -1}, {X: 1, Y: -1}, {X: -1, Y: 1}, {X: 1, Y: 1},
	}
	quarterPattern = [9]mv.MV{
		{X: 0, Y: 0}, {X: 0, Y: -1}, {X: 0, Y: 1}, {X: -1, Y: -1}, {X: 1, Y: -1},
		{X: -1, Y: 0}, {X: 1, Y: 0}, {X: -1, Y: 1}, {X: 1, Y: 1},
	}
)

// RefineFractional refines the integer vector best to quarter-sample
// precision: the 3×3 half-sample neighbourhood first, then the 3×3
// quarter-sample neighbourhood of the best half-sample point. Points are
// scored with SATD plus MV bits; points outside the legal footprint are
// skipped. The quarter-sample stage interpolates from the half-sample
// intermediates.
func RefineFractional(p *Problem, best mv.MV) Result {
	if !best.IsInt() {
		panic("search: fractional refinement from a fractional vector")
	}
	if p.Prec != mv.Quarter {
		panic("search: fractional refinement at integer precision")
	}
	ix, iy := best.Int()
	var up dsp.Upsampler
	up.Reset(p.Ref.Pix, p.Ref.Stride, p.Ref.Offset(p.X+ix, p.Y+iy), p.W, p.H, p.Ref.BitDepth)
	defer up.Release()
	pred := pool.GetUint16(p.W * p.H)
	defer pool.PutUint16(pred)

	up.PrepareHalf()
	half, _ := refineStage(p, &up, pred, best, mv.Zero, 1, &halfPattern)
	up.PrepareQuarter()
	_, res := refineStage(p, &up, pred, best, half, 0, &quarterPattern)
	return res
}

// refineStage scores centre + pattern[i]<<shift (quarter-sample offsets
// from the integer vector base) and returns the best offset.
func refineStage(p *Problem, up *dsp.Upsampler, pred []uint16, base, centre mv.MV, shift int, pattern *[9]mv.MV) (mv.MV, Result) {
	bestOff := centre
	res := Result{MV: base.Add(centre), Cost: mv.MaxCost}
	for _, d := range pattern {
		off := centre.Add(d.Shl(shift))
		v := base.Add(off)
		if !p.Ref.Legal(p.X, p.Y, p.W, p.H, v) {
			continue
		}
		up.Predict(pred, p.W, off.X, off.Y)
		dist := p.scale(dsp.SATD(p.Org, p.OrgStride, pred, p.W, p.W, p.H))
		bits := p.MVBits(v)
		cost := p.Cost.Cost(bits, dist)
		if cost < res.Cost {
			res = Result{MV: v, Cost: cost, Dist: dist, Bits: bits}
			bestOff = off
		}
		if p.Observer != nil {
			p.Observer(State{BestCost: res.Cost, BestDist: res.Dist, BestBits: res.Bits})
		}
	}
	return bestOff, res
}

// LatticeResult is the outcome of RefineIntegerLattice: the refined vector
// and the predictor index it is coded against. Bits include the predictor
// index.
type LatticeResult struct {
	Result
	MVPIdx int
}

// RefineIntegerLattice replaces fractional refinement for blocks coded at
// integer or four-sample precision. It rounds best onto the precision
// lattice and scores that point and its eight lattice neighbours against
// every distinct predictor, pricing the MV difference in lattice units plus
// the predictor index.
func RefineIntegerLattice(p *Problem, best mv.MV, preds []mv.MV) LatticeResult {
	if p.Prec == mv.Quarter {
		panic("search: lattice refinement at quarter precision")
	}
	if len(preds) == 0 {
		panic("search: empty predictor list")
	}
	shift := p.Prec.Shift()
	rounded := make([]mv.MV, len(preds))
	for i, c := range preds {
		rounded[i] = c.RoundTo(p.Prec)
	}
	base := best.RoundTo(p.Prec)
	out := LatticeResult{Result: Result{Cost: mv.MaxCost}}
	for _, d := range halfPattern {
		v := base.Add(d.Shl(shift))
		if !p.Ref.Legal(p.X, p.Y, p.W, p.H, v) {
			continue
		}
		x, y := v.Int()
		off := p.Ref.Offset(p.X+x, p.Y+y)
		dist := p.scale(dsp.SATD(p.Org, p.OrgStride, p.Ref.Pix[off:], p.Ref.Stride, p.W, p.H))
		for i, c := range rounded {
			if i > 0 && c == rounded[0] {
				continue
			}
			bits := p.Bits.MVDBits(v.Sub(c).Shr(shift)) + p.Bits.MVPIdxBits(i, len(rounded))
			cost := p.Cost.Cost(bits, dist)
			if cost < out.Cost {
				out = LatticeResult{Result: Result{MV: v, Cost: cost, Dist: dist, Bits: bits}, MVPIdx: i}
			}
		}
	}
	if out.Cost == mv.MaxCost {
		panic("search: no legal lattice point")
	}
	return out
}
