package inter

import (
	"github.com/deepteams/motion/internal/mv"
	"github.com/deepteams/motion/internal/pool"
)

// Merge evaluates the merge list of blk and returns its cheapest entry by
// SATD plus merge index bits. Entries whose vectors leave the legal range
// are skipped. With FastMerge only the first half of the list is tried.
func (s *Searcher) Merge(blk *Block) (Candidate, bool) {
	if s.cfg.MaxMergeCand <= 0 {
		return Candidate{}, false
	}
	list := s.env.DeriveMerge(blk.Block, s.cfg.MaxMergeCand)
	n := len(list)
	if s.cfg.FastMerge {
		n = (n + 1) / 2
	}
	pred := pool.GetUint16(blk.Area())
	defer pool.PutUint16(pred)

	best := Candidate{Cost: mv.MaxCost}
	found := false
	for i := 0; i < n; i++ {
		m := list[i]
		if !s.legalMotion(blk, m) {
			continue
		}
		s.predictMotion(pred, blk, m)
		d := satd(blk, pred)
		bits := s.cfg.Bits.MergeBits(i, len(list))
		if cost := s.cfg.Costs.Motion.Cost(bits, d); cost < best.Cost {
			best = Candidate{Mode: ModeMerge, Motion: m, Prec: mv.Quarter, MergeIdx: i, Dist: d, Bits: bits, Cost: cost}
			found = true
		}
	}
	return best, found
}

// legalMotion reports whether every used list of m points at an existing
// reference within the legal range.
func (s *Searcher) legalMotion(blk *Block, m mv.Motion) bool {
	if !m.Inter() {
		return false
	}
	for l := mv.L0; l <= mv.L1; l++ {
		if !m.Dir.Uses(l) {
			continue
		}
		if m.RefIdx[l] < 0 || m.RefIdx[l] >= s.refs.Num(l) {
			return false
		}
		if !m.Affine && !s.refs.Get(l, m.RefIdx[l]).Legal(blk.X, blk.Y, blk.W, blk.H, m.MV[l]) {
			return false
		}
	}
	return true
}

// predictMotion writes the final prediction of m for blk into dst.
func (s *Searcher) predictMotion(dst []uint16, blk *Block, m mv.Motion) {
	n := blk.Area()
	var p [2][]uint16
	for l := mv.L0; l <= mv.L1; l++ {
		if !m.Dir.Uses(l) {
			continue
		}
		p[l] = pool.GetUint16(n)
		ref := s.refs.Get(l, m.RefIdx[l])
		if m.Affine {
			s.affinePredict(p[l], ref, blk.Block, mv.NewAffineModel(m.AffineType, m.CP[l], blk.W, blk.H))
		} else {
			s.predict(p[l], ref, blk.Block, m.MV[l])
		}
	}
	switch m.Dir {
	case mv.DirL0:
		copy(dst[:n], p[mv.L0])
	case mv.DirL1:
		copy(dst[:n], p[mv.L1])
	case mv.DirBi:
		blend(dst, p[mv.L0], p[mv.L1], blk.Block, m.GBiIdx, s.cur.BitDepth)
	}
	for _, b := range p {
		if b != nil {
			pool.PutUint16(b)
		}
	}
}
