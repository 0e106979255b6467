// Package cand derives the predictor lists of a prediction block from the
// motion of already decided neighbours: the two-entry AMVP list, the merge
// list and the affine AMVP list. Candidate order is part of the bitstream
// contract, so every derivation follows a fixed neighbour visit order.
package cand

import (
	"github.com/deepteams/motion/internal/mv"
	"github.com/deepteams/motion/internal/picture"
)

// NumAMVP is the length of every AMVP and affine AMVP list.
const NumAMVP = 2

// MaxMerge bounds the merge list length.
const MaxMerge = 6

// DefaultCTUSize is the coding tree unit size used for the temporal
// bottom-right availability rule.
const DefaultCTUSize = 64

// Env is the neighbourhood of the current picture that candidate derivation
// reads. Field holds the motion committed so far in coding order; Col, when
// set, is the motion field of the collocated picture.
type Env struct {
	Field  *picture.MotionField
	POC    int
	RefPOC [2][]int

	Col       *picture.MotionField
	ColFromL0 bool
	Temporal  bool

	CTUSize int
}

// NewEnv returns an environment for the picture that owns field. The
// collocated picture is left unset.
func NewEnv(field *picture.MotionField) *Env {
	return &Env{
		Field:   field,
		POC:     field.POC,
		RefPOC:  field.RefPOCs,
		CTUSize: DefaultCTUSize,
	}
}

func (e *Env) numRef(l mv.List) int { return len(e.RefPOC[l]) }

func (e *Env) refPOC(l mv.List, refIdx int) int {
	if refIdx < 0 || refIdx >= len(e.RefPOC[l]) {
		panic("cand: reference index out of range")
	}
	return e.RefPOC[l][refIdx]
}

// neighbour positions around a w×h block at (x, y).
type pos struct{ x, y int }

func posA0(b mv.Block) pos { return pos{b.X - 1, b.Y + b.H} }
func posA1(b mv.Block) pos { return pos{b.X - 1, b.Y + b.H - 1} }
func posB0(b mv.Block) pos { return pos{b.X + b.W, b.Y - 1} }
func posB1(b mv.Block) pos { return pos{b.X + b.W - 1, b.Y - 1} }
func posB2(b mv.Block) pos { return pos{b.X - 1, b.Y - 1} }

// at returns the committed inter motion at p. Positions in the current block
// itself are never available.
func (e *Env) at(b mv.Block, p pos) (mv.Motion, bool) {
	if p.x >= b.X && p.x < b.X+b.W && p.y >= b.Y && p.y < b.Y+b.H {
		return mv.Motion{}, false
	}
	return e.Field.At(p.x, p.y)
}

// neighbourPOC is the POC referenced by list l of a neighbour in the current
// picture.
func (e *Env) neighbourPOC(m mv.Motion, l mv.List) int {
	return e.refPOC(l, m.RefIdx[l])
}
