package picture

import "github.com/deepteams/motion/internal/mv"

// MaxRefs bounds the number of pictures per reference list.
const MaxRefs = 16

// RefLists are the two reference picture lists of the current slice. A slice
// with an empty list 1 is a P slice.
type RefLists struct {
	L [2][]*Plane
}

// Num returns the number of pictures in list l.
func (r *RefLists) Num(l mv.List) int {
	return len(r.L[l])
}

// Get returns picture refIdx of list l. Indices outside the list are a
// programming error.
func (r *RefLists) Get(l mv.List, refIdx int) *Plane {
	if refIdx < 0 || refIdx >= len(r.L[l]) {
		panic("picture: reference index out of range")
	}
	return r.L[l][refIdx]
}

// POC returns the picture order count of picture refIdx of list l.
func (r *RefLists) POC(l mv.List, refIdx int) int {
	return r.Get(l, refIdx).POC
}

// POCs returns the picture order counts of both lists.
func (r *RefLists) POCs() [2][]int {
	var out [2][]int
	for l := range r.L {
		out[l] = make([]int, len(r.L[l]))
		for i, p := range r.L[l] {
			out[l][i] = p.POC
		}
	}
	return out
}

// IsB reports whether both lists are populated.
func (r *RefLists) IsB() bool {
	return len(r.L[0]) > 0 && len(r.L[1]) > 0
}

// L0Twin returns the list-0 index holding the same picture as list-1 entry
// refIdx, or -1. Twin pictures yield identical uni-prediction motion, so
// their list-1 search can reuse list-0 results.
func (r *RefLists) L0Twin(refIdx int) int {
	p := r.Get(mv.L1, refIdx)
	for i, q := range r.L[0] {
		if q == p || q.POC == p.POC {
			return i
		}
	}
	return -1
}
