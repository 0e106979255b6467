package cand

import "github.com/deepteams/motion/internal/mv"

// AffineCand is one affine AMVP entry: control-point vectors at the
// top-left, top-right and bottom-left corners of the block.
type AffineCand [3]mv.MV

// DeriveAffineAMVP returns exactly two control-point predictors for an
// affine block of type t coding list l with refIdx. Entries are taken in
// order from: the model of the first affine left neighbour (A0, A1), the
// model of the first affine above neighbour (B0, B1, B2), the candidate
// constructed from corner neighbours, single corner vectors copied to every
// control point (bottom-left, top-right, top-left), and finally the
// translational AMVP list.
func (e *Env) DeriveAffineAMVP(b mv.Block, l mv.List, refIdx int, t mv.AffineType) []AffineCand {
	target := e.refPOC(l, refIdx)
	out := make([]AffineCand, 0, NumAMVP)

	if c, ok := e.inherited(b, []pos{posA0(b), posA1(b)}, l, target); ok {
		out = append(out, c)
	}
	if c, ok := e.inherited(b, []pos{posB0(b), posB1(b), posB2(b)}, l, target); ok {
		if len(out) == 0 || !sameCP(out[0], c, t) {
			out = append(out, c)
		}
	}

	corners := [3][]pos{
		{posB2(b), {b.X, b.Y - 1}, {b.X - 1, b.Y}},
		{posB1(b), posB0(b)},
		{posA1(b), posA0(b)},
	}
	var cp [3]mv.MV
	var have [3]bool
	for i, ps := range corners {
		cp[i], have[i] = e.firstSameRef(b, ps, l, target)
	}

	if len(out) < NumAMVP {
		constructed := have[0] && have[1]
		if t == mv.Affine6 {
			constructed = constructed && have[2]
		}
		if constructed {
			out = append(out, AffineCand(cp))
		}
	}
	for i := 2; i >= 0 && len(out) < NumAMVP; i-- {
		if have[i] {
			out = append(out, AffineCand{cp[i], cp[i], cp[i]})
		}
	}
	if len(out) < NumAMVP {
		for _, v := range e.DeriveAMVP(b, l, refIdx) {
			if len(out) == NumAMVP {
				break
			}
			out = append(out, AffineCand{v, v, v})
		}
	}
	if t == mv.Affine4 {
		// The third control point of a 4-parameter model follows from the
		// first two.
		for i := range out {
			m := mv.NewAffineModel(mv.Affine4, out[i], b.W, b.H)
			out[i][2] = m.At(0, b.H)
		}
	}
	return out
}

// inherited extrapolates the model of the first affine neighbour in ps that
// references the target picture to the corners of b.
func (e *Env) inherited(b mv.Block, ps []pos, l mv.List, target int) (AffineCand, bool) {
	for _, p := range ps {
		m, ok := e.at(b, p)
		if !ok || !m.Affine {
			continue
		}
		for _, k := range [2]mv.List{l, l.Other()} {
			if !m.Dir.Uses(k) || e.neighbourPOC(m, k) != target {
				continue
			}
			model := mv.NewAffineModel(m.AffineType, m.CP[k], m.BW, m.BH)
			return AffineCand(model.CornersFor(b.X-m.BX, b.Y-m.BY, b.W, b.H)), true
		}
	}
	return AffineCand{}, false
}

func sameCP(a, b AffineCand, t mv.AffineType) bool {
	for i := 0; i < t.NumCP(); i++ {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
