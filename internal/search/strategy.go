package search

import "fmt"

// Strategy is an integer motion search algorithm.
type Strategy interface {
	Search(p *Problem) Result
	Name() string
}

// Method names a Strategy.
type Method int

const (
	MethodFull Method = iota
	MethodDiamond
	MethodEnhancedDiamond
	MethodSelective
)

func (m Method) String() string {
	switch m {
	case MethodFull:
		return "full"
	case MethodDiamond:
		return "diamond"
	case MethodEnhancedDiamond:
		return "enhanced-diamond"
	case MethodSelective:
		return "selective"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// ParseMethod maps a method name to a Method.
func ParseMethod(s string) (Method, error) {
	for m := MethodFull; m <= MethodSelective; m++ {
		if m.String() == s {
			return m, nil
		}
	}
	return 0, fmt.Errorf("search: unknown method %q", s)
}

// New returns the strategy for m. firstSearchRounds is handed to the
// test-zone strategies and ignored by the others.
func New(m Method, firstSearchRounds int) Strategy {
	switch m {
	case MethodFull:
		return Full{}
	case MethodDiamond:
		return Diamond{FirstSearchRounds: firstSearchRounds}
	case MethodEnhancedDiamond:
		return EnhancedDiamond{FirstSearchRounds: firstSearchRounds}
	case MethodSelective:
		return Selective{}
	default:
		panic(fmt.Sprintf("search: unknown method %d", int(m)))
	}
}

// Full scores every integer point of the range in raster order and returns
// the global minimum.
type Full struct{}

// Name implements Strategy.
func (Full) Name() string { return MethodFull.String() }

// Search implements Strategy.
func (Full) Search(p *Problem) Result {
	m := newMatcher(p)
	r := p.Range
	for y := r.Top; y <= r.Bottom; y++ {
		for x := r.Left; x <= r.Right; x++ {
			m.check(x, y, 0, 0)
		}
	}
	return m.result()
}

// Diamond is the test-zone search: an expanding 8-point diamond from the
// best start candidate, a 2-point completion, a raster pass when the best
// point is far away, and star refinement until no step improves.
type Diamond struct {
	// FirstSearchRounds ends the expanding diamond after that many rounds
	// without improvement. Zero runs it out to the search radius.
	FirstSearchRounds int
}

// Name implements Strategy.
func (Diamond) Name() string { return MethodDiamond.String() }

// Search implements Strategy.
func (d Diamond) Search(p *Problem) Result {
	return tzSearch(p, tzOptions{firstSearchRounds: d.FirstSearchRounds})
}

// EnhancedDiamond extends Diamond with the other AMVP predictors as start
// candidates, corner points at unit distance and an unconditional raster
// pass with a step adapted to the window size.
type EnhancedDiamond struct {
	FirstSearchRounds int
}

// Name implements Strategy.
func (EnhancedDiamond) Name() string { return MethodEnhancedDiamond.String() }

// Search implements Strategy.
func (d EnhancedDiamond) Search(p *Problem) Result {
	return tzSearch(p, tzOptions{
		firstSearchRounds: d.FirstSearchRounds,
		otherPredictors:   true,
		cornersDist1:      true,
		alwaysRaster:      true,
		adaptiveRaster:    true,
	})
}

// Selective samples a coarse grid around the best start candidate with small
// diamonds at every grid point, then either scans the whole window when the
// result drifted far from the start or refines it with the star pattern.
type Selective struct{}

// Name implements Strategy.
func (Selective) Name() string { return MethodSelective.String() }

// Search implements Strategy.
func (Selective) Search(p *Problem) Result {
	return selectiveSearch(p)
}
