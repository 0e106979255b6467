// Package search implements the block matcher of the inter search: the
// integer motion search strategies, the fractional and integer-lattice
// refiners, the predictor index check and the per-picture search cache.
//
// Every search is deterministic. Points are scored as distortion plus the
// lambda-weighted bit cost of the MV difference to the predictor, and a
// point only replaces the current best when it is strictly cheaper, so ties
// go to the point visited first.
package search

import (
	"github.com/deepteams/motion/internal/dsp"
	"github.com/deepteams/motion/internal/mv"
	"github.com/deepteams/motion/internal/picture"
)

// Problem is one integer motion search: match the w×h block Org against the
// reference plane around (X, Y).
type Problem struct {
	Org       []uint16
	OrgStride int
	W, H      int

	Ref  *picture.Plane
	X, Y int

	// Start is where the pattern search begins and Pred is the predictor the
	// MV difference is priced against. Both are quarter-sample vectors.
	Start mv.MV
	Pred  mv.MV
	// Range is the integer window, already clipped to the legal footprint.
	Range mv.Range
	// Radius is the configured search radius; it bounds the diamond step.
	Radius int

	Metric dsp.Metric
	// Weight, when non-zero, scales distortion by |Weight|/8. Searches
	// against a bi-prediction residual target pass the active list's
	// blending weight.
	Weight int
	Cost   mv.CostModel
	Bits   mv.BitEstimator
	Prec   mv.Precision

	// Seeds are extra start candidates tried by every strategy; Candidates
	// are the other AMVP predictors, tried by the extended strategies.
	Seeds      []mv.MV
	Candidates []mv.MV

	// Observer, if set, sees the search state after every scored point.
	Observer func(State)
}

// Result is the outcome of a search or refinement.
type Result struct {
	MV   mv.MV
	Cost uint64
	Dist uint64
	Bits int
}

// State is the bookkeeping of one search call. BestCost never increases.
type State struct {
	BestX, BestY int
	BestCost     uint64
	BestDist     uint64
	BestBits     int
	// BestRound counts diamond rounds since the last improvement.
	BestRound int
	// BestDistance is the step size at which the best point was found.
	BestDistance int
	// PointNr is the diamond position of the best point, 1..8 around the
	// centre in raster order, 0 when unknown.
	PointNr   int
	Evaluated int
}

// Best returns the best point as a quarter-sample vector.
func (s *State) Best() mv.MV { return mv.FromInt(s.BestX, s.BestY) }

// scale applies the blending weight to a distortion.
func (p *Problem) scale(d uint64) uint64 { return mv.WeightDist(d, p.Weight) }

// MVBits returns the bit cost of v against the predictor at the problem's
// precision.
func (p *Problem) MVBits(v mv.MV) int {
	return p.Bits.MVDBits(v.Sub(p.Pred).Shr(p.Prec.Shift()))
}

func (p *Problem) validate() {
	if p.W <= 0 || p.H <= 0 || len(p.Org) < (p.H-1)*p.OrgStride+p.W {
		panic("search: original block does not match its dimensions")
	}
	if p.Range.Empty() {
		panic("search: empty search range")
	}
	if p.Ref.MVBounds(p.X, p.Y, p.W, p.H).Intersect(p.Range) != p.Range {
		panic("search: range exceeds the reference footprint")
	}
}

// matcher scores integer points of one Problem.
type matcher struct {
	p     *Problem
	state State
}

func newMatcher(p *Problem) *matcher {
	p.validate()
	return &matcher{p: p, state: State{BestCost: mv.MaxCost}}
}

// distortion measures the block at integer displacement (x, y).
func (m *matcher) distortion(x, y int) uint64 {
	p := m.p
	off := p.Ref.Offset(p.X+x, p.Y+y)
	return p.scale(dsp.Distortion(p.Metric, p.Org, p.OrgStride, p.Ref.Pix[off:], p.Ref.Stride, p.W, p.H))
}

// check scores (x, y) and adopts it when strictly cheaper. Points outside the
// range are skipped before scoring.
func (m *matcher) check(x, y, pointNr, dist int) {
	p := m.p
	if !p.Range.ContainsInt(x, y) {
		return
	}
	d := m.distortion(x, y)
	bits := p.MVBits(mv.FromInt(x, y))
	cost := p.Cost.Cost(bits, d)
	s := &m.state
	s.Evaluated++
	if cost < s.BestCost {
		s.BestX, s.BestY = x, y
		s.BestCost = cost
		s.BestDist = d
		s.BestBits = bits
		s.BestDistance = dist
		s.BestRound = 0
		s.PointNr = pointNr
	}
	if p.Observer != nil {
		p.Observer(*s)
	}
}

// checkMV scores the integer point nearest to quarter-sample vector v.
func (m *matcher) checkMV(v mv.MV, pointNr, dist int) {
	x, y := toInt(v)
	x, y = m.p.Range.ClampInt(x, y)
	m.check(x, y, pointNr, dist)
}

func (m *matcher) result() Result {
	s := m.state
	return Result{MV: s.Best(), Cost: s.BestCost, Dist: s.BestDist, Bits: s.BestBits}
}

// toInt rounds a quarter-sample vector to the nearest integer displacement.
func toInt(v mv.MV) (int, int) {
	return mv.RoundShift(v.X, mv.FracBits), mv.RoundShift(v.Y, mv.FracBits)
}
