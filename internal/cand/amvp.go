package cand

import "github.com/deepteams/motion/internal/mv"

// DeriveAMVP returns the two MV predictors for coding a vector of list l
// referencing refIdx. The list is never empty: missing entries are filled
// with the zero vector.
//
// The left predictor comes from A0 then A1, the above predictor from B0, B1
// then B2. A neighbour referencing the same picture is used as is; failing
// that, the first inter neighbour is scaled by POC distance. The temporal
// predictor is consulted only when the spatial ones do not fill the list.
func (e *Env) DeriveAMVP(b mv.Block, l mv.List, refIdx int) []mv.MV {
	target := e.refPOC(l, refIdx)
	out := make([]mv.MV, 0, NumAMVP)

	left := []pos{posA0(b), posA1(b)}
	above := []pos{posB0(b), posB1(b), posB2(b)}

	// isScaled is set when any left neighbour is available; it gates whether
	// the above neighbours may be scaled.
	isScaled := false
	for _, p := range left {
		if _, ok := e.at(b, p); ok {
			isScaled = true
			break
		}
	}

	mvA, okA := e.firstSameRef(b, left, l, target)
	if !okA {
		mvA, okA = e.firstScaled(b, left, l, target)
	}

	mvB, okB := e.firstSameRef(b, above, l, target)
	if !isScaled {
		if okB && !okA {
			mvA, okA = mvB, true
		}
		mvB, okB = e.firstScaled(b, above, l, target)
	}

	if okA {
		out = append(out, mvA)
	}
	if okB && !(okA && mvA == mvB) {
		out = append(out, mvB)
	}
	if len(out) < NumAMVP && e.Temporal {
		if t, ok := e.temporal(b, l, target); ok {
			out = append(out, t)
		}
	}
	for len(out) < NumAMVP {
		out = append(out, mv.Zero)
	}
	return out
}

// firstSameRef scans ps for a neighbour predicting from the target picture,
// checking list l before the other list of each neighbour.
func (e *Env) firstSameRef(b mv.Block, ps []pos, l mv.List, target int) (mv.MV, bool) {
	for _, p := range ps {
		m, ok := e.at(b, p)
		if !ok {
			continue
		}
		for _, k := range [2]mv.List{l, l.Other()} {
			if m.Dir.Uses(k) && e.neighbourPOC(m, k) == target {
				return m.MV[k], true
			}
		}
	}
	return mv.Zero, false
}

// firstScaled takes the first inter neighbour in ps and scales its vector
// to the target picture distance.
func (e *Env) firstScaled(b mv.Block, ps []pos, l mv.List, target int) (mv.MV, bool) {
	for _, p := range ps {
		m, ok := e.at(b, p)
		if !ok {
			continue
		}
		for _, k := range [2]mv.List{l, l.Other()} {
			if !m.Dir.Uses(k) {
				continue
			}
			tb := e.POC - target
			td := e.POC - e.neighbourPOC(m, k)
			return m.MV[k].Scale(tb, td), true
		}
	}
	return mv.Zero, false
}

// temporal returns the collocated predictor: the bottom-right position when
// it stays in the picture and the current CTU row, else the block centre.
// Positions are snapped to the 16×16 grid of the stored field.
func (e *Env) temporal(b mv.Block, l mv.List, target int) (mv.MV, bool) {
	if e.Col == nil {
		return mv.Zero, false
	}
	ctu := e.CTUSize
	if ctu <= 0 {
		ctu = DefaultCTUSize
	}
	br := pos{b.X + b.W, b.Y + b.H}
	if br.y/ctu == b.Y/ctu && e.Col.Inside(br.x, br.y) {
		if v, ok := e.collocated(br, l, target); ok {
			return v, true
		}
	}
	return e.collocated(pos{b.X + b.W/2, b.Y + b.H/2}, l, target)
}

func (e *Env) collocated(p pos, l mv.List, target int) (mv.MV, bool) {
	m, ok := e.Col.At(p.x>>4<<4, p.y>>4<<4)
	if !ok {
		return mv.Zero, false
	}
	var k mv.List
	switch m.Dir {
	case mv.DirL0:
		k = mv.L0
	case mv.DirL1:
		k = mv.L1
	default:
		if e.noBackwardPred() {
			k = l
		} else if e.ColFromL0 {
			k = mv.L1
		} else {
			k = mv.L0
		}
	}
	colPOC := e.Col.POC
	colRef := e.Col.RefPOC(k, m.RefIdx[k])
	return m.MV[k].Scale(e.POC-target, colPOC-colRef), true
}

// noBackwardPred reports whether no reference picture follows the current
// one in output order.
func (e *Env) noBackwardPred() bool {
	for _, pocs := range e.RefPOC {
		for _, p := range pocs {
			if p > e.POC {
				return false
			}
		}
	}
	return true
}
