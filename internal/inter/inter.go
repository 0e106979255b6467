// Package inter runs the per-block inter search: uni-prediction over every
// reference picture, the iterative bi-prediction search, generalized
// bi-prediction weights, the affine search with its gradient solver, merge
// candidate evaluation and the final mode decision.
//
// A Searcher serves one picture. It reads the current picture, the
// reference lists and the motion already committed to the picture's motion
// field; it owns its scratch buffers, so a Searcher must not be shared
// between goroutines.
package inter

import (
	"github.com/deepteams/motion/internal/cand"
	"github.com/deepteams/motion/internal/dsp"
	"github.com/deepteams/motion/internal/mv"
	"github.com/deepteams/motion/internal/picture"
	"github.com/deepteams/motion/internal/search"
)

// Config is the resolved search configuration of a sequence.
type Config struct {
	Strategy     search.Strategy
	SearchRange  int
	BipredRange  int
	BiIterations int

	FastBi     bool
	FastAffine bool
	FastMerge  bool

	Affine  bool
	Affine6 bool
	GBi     bool
	// Precisions lists the MV resolutions to try; the first must be
	// mv.Quarter.
	Precisions   []mv.Precision
	MaxMergeCand int

	Costs mv.Costs
	Bits  mv.BitEstimator
}

const (
	// affineMinSize is the smallest block side that may use affine motion.
	affineMinSize = 8
	// gbiMinArea is the smallest block area that may signal a GBi weight.
	gbiMinArea = 256
	// mergeFlagBits prices the merge flag of a block coded with AMVP.
	mergeFlagBits = 1
)

// Searcher evaluates blocks of one picture.
type Searcher struct {
	cfg   Config
	cur   *picture.Plane
	refs  *picture.RefLists
	env   *cand.Env
	cache *search.Cache

	// scratch prediction buffers, MaxBlockSize² samples each
	bufs   [6][]uint16
	interp []int16
}

// NewSearcher returns a searcher for the picture cur. env must describe the
// same picture and cache must be scoped to it.
func NewSearcher(cfg Config, cur *picture.Plane, refs *picture.RefLists, env *cand.Env, cache *search.Cache) *Searcher {
	if len(cfg.Precisions) == 0 {
		cfg.Precisions = []mv.Precision{mv.Quarter}
	}
	if cfg.Precisions[0] != mv.Quarter {
		panic("inter: quarter precision must be tried first")
	}
	if cfg.Bits == nil {
		cfg.Bits = mv.GolombEstimator{}
	}
	if cfg.BiIterations <= 0 {
		cfg.BiIterations = 4
	}
	s := &Searcher{cfg: cfg, cur: cur, refs: refs, env: env, cache: cache}
	const n = mv.MaxBlockSize * mv.MaxBlockSize
	for i := range s.bufs {
		s.bufs[i] = make([]uint16, n)
	}
	s.interp = make([]int16, (mv.MaxBlockSize+dsp.NumTaps-1)*mv.MaxBlockSize)
	return s
}

// Block is a prediction block prepared for searching: its geometry, a copy
// of its original samples and lazily derived AMVP lists.
type Block struct {
	mv.Block
	Org []uint16

	biAllowed bool
	amvp      [2][][]mv.MV
}

// Prepare copies the original samples of b. Invalid geometry is a
// programming error.
func (s *Searcher) Prepare(b mv.Block) *Block {
	if !b.Valid() {
		panic("inter: invalid block geometry")
	}
	if b.X < 0 || b.Y < 0 || b.X+b.W > s.cur.Width || b.Y+b.H > s.cur.Height {
		panic("inter: block outside the picture")
	}
	blk := &Block{Block: b, Org: make([]uint16, b.W*b.H)}
	s.cur.CopyBlock(blk.Org, b.X, b.Y, b.W, b.H)
	blk.biAllowed = s.refs.IsB() && b.W+b.H > 12
	for l := range blk.amvp {
		blk.amvp[l] = make([][]mv.MV, s.refs.Num(mv.List(l)))
	}
	return blk
}

// AMVP returns the predictor list of list l and refIdx for blk.
func (s *Searcher) AMVP(blk *Block, l mv.List, refIdx int) []mv.MV {
	if blk.amvp[l][refIdx] == nil {
		blk.amvp[l][refIdx] = s.env.DeriveAMVP(blk.Block, l, refIdx)
	}
	return blk.amvp[l][refIdx]
}

// lists returns the reference lists a block of this picture may use.
func (s *Searcher) lists() []mv.List {
	if s.refs.Num(mv.L1) > 0 {
		return []mv.List{mv.L0, mv.L1}
	}
	return []mv.List{mv.L0}
}

func (s *Searcher) affineAllowed(blk *Block) bool {
	return s.cfg.Affine && blk.W >= affineMinSize && blk.H >= affineMinSize
}

func (s *Searcher) gbiAllowed(blk *Block) bool {
	return s.cfg.GBi && blk.biAllowed && blk.Area() >= gbiMinArea
}

// modeBits prices the syntax shared by AMVP-coded blocks: merge flag,
// affine flag, direction and precision.
func (s *Searcher) modeBits(blk *Block, d mv.Dir, affine bool, t mv.AffineType, prec mv.Precision) int {
	bits := mergeFlagBits + s.cfg.Bits.DirBits(d, blk.Part, s.refs.IsB(), blk.biAllowed)
	if s.affineAllowed(blk) {
		bits += s.cfg.Bits.AffineBits(affine, t, s.cfg.Affine6)
	}
	if !affine && len(s.cfg.Precisions) > 1 {
		for i, p := range s.cfg.Precisions {
			if p == prec {
				bits += mv.TruncUnaryBits(i, len(s.cfg.Precisions))
			}
		}
	}
	return bits
}

// bounds returns the legal integer displacements of blk in ref.
func bounds(ref *picture.Plane, b mv.Block) mv.Range {
	return ref.MVBounds(b.X, b.Y, b.W, b.H)
}

// predict writes the uni-prediction of blk from ref at v into dst (stride
// b.W). v must be legal.
func (s *Searcher) predict(dst []uint16, ref *picture.Plane, b mv.Block, v mv.MV) {
	if !ref.Legal(b.X, b.Y, b.W, b.H, v) {
		panic("inter: prediction from an illegal vector")
	}
	ix, iy := v.Int()
	fx, fy := v.Frac()
	dsp.Interpolate(dst, b.W, ref.Pix, ref.Stride, ref.Offset(b.X+ix, b.Y+iy), b.W, b.H, fx, fy, ref.BitDepth, s.interp)
}

// blend writes the weighted bi-prediction of two uni-predictions.
func blend(dst, p0, p1 []uint16, b mv.Block, gbiIdx, bitDepth int) {
	w0, w1 := mv.GBiPair(gbiIdx)
	dsp.WeightedAverage(dst, b.W, p0, b.W, p1, b.W, b.W, b.H, w0, w1, mv.GBiShift, bitDepth)
}

// satd measures a prediction against the original block.
func satd(blk *Block, pred []uint16) uint64 {
	return dsp.SATD(blk.Org, blk.W, pred, blk.W, blk.W, blk.H)
}

// mvdBits prices v against predictor pred at precision prec.
func (s *Searcher) mvdBits(v, pred mv.MV, prec mv.Precision) int {
	return s.cfg.Bits.MVDBits(v.Sub(pred.RoundTo(prec)).Shr(prec.Shift()))
}

// estimateMVP picks the predictor whose own prediction is cheapest: SAD of
// the motion-compensated block plus the index bits.
func (s *Searcher) estimateMVP(blk *Block, ref *picture.Plane, preds []mv.MV, prec mv.Precision) int {
	if len(preds) == 0 {
		panic("inter: empty predictor list")
	}
	if len(preds) == 1 {
		return 0
	}
	lim := bounds(ref, blk.Block)
	pred := s.bufs[5]
	best, bestCost := 0, uint64(mv.MaxCost)
	for i, c := range preds {
		if i > 0 && c == preds[0] {
			continue
		}
		s.predict(pred, ref, blk.Block, lim.Clamp(c.RoundTo(prec)))
		d := dsp.SAD(blk.Org, blk.W, pred, blk.W, blk.W, blk.H)
		cost := s.cfg.Costs.Motion.Cost(s.cfg.Bits.MVPIdxBits(i, len(preds)), d)
		if cost < bestCost {
			best, bestCost = i, cost
		}
	}
	return best
}
