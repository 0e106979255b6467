package inter

import (
	"github.com/deepteams/motion/internal/dsp"
	"github.com/deepteams/motion/internal/mv"
)

// Mode is the coding mode of a candidate.
type Mode int

const (
	ModeMerge Mode = iota
	ModeUni
	ModeBi
	ModeAffine
)

func (m Mode) String() string {
	switch m {
	case ModeMerge:
		return "merge"
	case ModeUni:
		return "uni"
	case ModeBi:
		return "bi"
	case ModeAffine:
		return "affine"
	}
	return "unknown"
}

// Candidate is one fully priced way of predicting a block.
type Candidate struct {
	Mode   Mode
	Motion mv.Motion
	Prec   mv.Precision

	// MVPIdx and MVD are the coded predictor index and vector difference
	// (in units of Prec) per used list of an AMVP-coded candidate; CPMVD
	// holds the control point differences of an affine one.
	MVPIdx   [2]int
	MVD      [2]mv.MV
	CPMVD    [2][3]mv.MV
	MergeIdx int

	Dist uint64
	Bits int
	Cost uint64
	// Iterations counts the joint bi-prediction rounds that ran.
	Iterations int
}

// Decide returns the cheapest candidate and its index. Equal costs keep the
// earlier candidate. cands must not be empty.
func Decide(cands []Candidate) (Candidate, int) {
	if len(cands) == 0 {
		panic("inter: no candidate to decide between")
	}
	best := 0
	for i := 1; i < len(cands); i++ {
		if cands[i].Cost < cands[best].Cost {
			best = i
		}
	}
	return cands[best], best
}

// Decision is the outcome for one block: the winning candidate, its final
// prediction and the distortion the mode decision of an encoder would see.
type Decision struct {
	Block mv.Block
	Candidate

	// SSE is the squared error of Pred against the original and RDCost is
	// SSE plus the mode lambda times the candidate's bits.
	SSE    uint64
	RDCost uint64
	Pred   []uint16
	// Considered is the number of candidates compared.
	Considered int
}

// Search evaluates every mode available to b and returns the cheapest. The
// order is merge, then for each precision uni-prediction per list and
// bi-prediction (with the GBi weights at quarter precision), then the
// 4-parameter and 6-parameter affine models.
func (s *Searcher) Search(b mv.Block) Decision {
	blk := s.Prepare(b)
	cands := make([]Candidate, 0, 16)
	// Merge is tried for every partition shape, 2Nx2N included.
	if c, ok := s.Merge(blk); ok {
		cands = append(cands, c)
	}

	var quarter *UniResult
	for _, prec := range s.cfg.Precisions {
		uni := s.Uni(blk, prec)
		if prec == mv.Quarter {
			quarter = uni
		}
		for _, l := range s.lists() {
			if c, ok := s.uniCandidate(blk, uni, l); ok {
				cands = append(cands, c)
			}
		}
		bi, ok := s.Bi(blk, uni, mv.GBiDefault, nil)
		if !ok {
			continue
		}
		cands = append(cands, bi)
		if prec != mv.Quarter || !s.gbiAllowed(blk) {
			continue
		}
		order := gbiOrder
		if s.cfg.FastBi {
			order = gbiOrderFast
		}
		for _, idx := range order {
			if c, ok := s.Bi(blk, uni, idx, &bi); ok {
				cands = append(cands, c)
			}
		}
	}

	if s.affineAllowed(blk) {
		bestSoFar := uint64(mv.MaxCost)
		if len(cands) > 0 {
			c, _ := Decide(cands)
			bestSoFar = c.Cost
		}
		four, c4, ok := s.Affine(blk, quarter, mv.Affine4, nil)
		if ok {
			cands = append(cands, c4)
		}
		if ok && s.cfg.Affine6 && !(s.cfg.FastAffine && skipAffine6(c4.Cost, bestSoFar)) {
			if _, c6, ok := s.Affine(blk, quarter, mv.Affine6, four); ok {
				cands = append(cands, c6)
			}
		}
	}

	best, _ := Decide(cands)
	return s.finalize(blk, best, len(cands))
}

// skipAffine6 reports whether the 4-parameter result is more than 5% worse
// than the best non-affine candidate.
func skipAffine6(cost4, bestNonAffine uint64) bool {
	if bestNonAffine == mv.MaxCost {
		return false
	}
	return cost4*20 > bestNonAffine*21
}

func (s *Searcher) finalize(blk *Block, c Candidate, considered int) Decision {
	pred := make([]uint16, blk.Area())
	s.predictMotion(pred, blk, c.Motion)
	sse := dsp.SSE(blk.Org, blk.W, pred, blk.W, blk.W, blk.H)
	return Decision{
		Block:      blk.Block,
		Candidate:  c,
		SSE:        sse,
		RDCost:     s.cfg.Costs.Mode.Cost(c.Bits, sse),
		Pred:       pred,
		Considered: considered,
	}
}

// Commit stores the decided motion in the picture's motion field so that
// later blocks see it as a neighbour. Affine blocks store the vector of
// each 4×4 sub-block along with the model.
func (s *Searcher) Commit(d Decision) {
	b, m := d.Block, d.Motion
	if !m.Affine {
		s.env.Field.Store(b.X, b.Y, b.W, b.H, m)
		return
	}
	var models [2]mv.AffineModel
	for l := mv.L0; l <= mv.L1; l++ {
		if m.Dir.Uses(l) {
			models[l] = mv.NewAffineModel(m.AffineType, m.CP[l], b.W, b.H)
		}
	}
	const sb = mv.SubblockSize
	for sy := 0; sy < b.H/sb; sy++ {
		for sx := 0; sx < b.W/sb; sx++ {
			sub := m
			for l := mv.L0; l <= mv.L1; l++ {
				if m.Dir.Uses(l) {
					sub.MV[l] = models[l].Subblock(sx, sy)
				}
			}
			s.env.Field.Store(b.X+sx*sb, b.Y+sy*sb, sb, sb, sub)
		}
	}
}
