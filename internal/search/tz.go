package search

import "github.com/deepteams/motion/internal/mv"

const (
	tzRaster      = 5
	selStep       = 4
	selDistThresh = 8
)

type tzOptions struct {
	firstSearchRounds int
	otherPredictors   bool
	cornersDist1      bool
	alwaysRaster      bool
	adaptiveRaster    bool
}

// startCandidates scores the predictor-derived start points: the start
// vector, optionally the other predictors, the zero vector and the seeds.
func (m *matcher) startCandidates(others bool) {
	p := m.p
	m.checkMV(p.Start, 0, 0)
	if others {
		for _, c := range p.Candidates {
			m.checkMV(c, 0, 0)
		}
	}
	if !p.Start.IsZero() && (m.state.BestX != 0 || m.state.BestY != 0) {
		m.check(0, 0, 0, 0)
	}
	for _, s := range p.Seeds {
		m.checkMV(s, 0, 0)
	}
}

func tzSearch(p *Problem, o tzOptions) Result {
	m := newMatcher(p)
	m.startCandidates(o.otherPredictors)
	s := &m.state

	cx, cy := s.BestX, s.BestY
	s.BestRound = 0
	for dist := 1; dist <= p.Radius; dist *= 2 {
		m.diamond(cx, cy, dist, o.cornersDist1)
		if o.firstSearchRounds > 0 && s.BestRound >= o.firstSearchRounds {
			break
		}
	}

	if s.BestDistance == 1 {
		s.BestDistance = 0
		m.twoPoint()
	}

	raster := tzRaster
	if o.adaptiveRaster {
		raster = adaptRaster(p.Range)
	}
	if s.BestDistance > raster || o.alwaysRaster {
		s.BestDistance = raster
		r := p.Range
		for y := r.Top; y <= r.Bottom; y += raster {
			for x := r.Left; x <= r.Right; x += raster {
				m.check(x, y, 0, raster)
			}
		}
	}

	m.starRefinement(o.cornersDist1)
	return m.result()
}

// adaptRaster shrinks the raster step for windows too small to hold two
// steps in each direction.
func adaptRaster(r mv.Range) int {
	step := tzRaster
	for step > 1 && (r.Width() < 2*step || r.Height() < 2*step) {
		step--
	}
	return step
}

// starRefinement restarts the expanding diamond from the current best until
// a whole pass yields no improvement.
func (m *matcher) starRefinement(corners bool) {
	s := &m.state
	for s.BestDistance > 0 {
		cx, cy := s.BestX, s.BestY
		s.BestDistance = 0
		s.PointNr = 0
		for dist := 1; dist < m.p.Radius+1; dist *= 2 {
			m.diamond(cx, cy, dist, corners)
		}
		if s.BestDistance == 1 {
			s.BestDistance = 0
			if s.PointNr != 0 {
				m.twoPoint()
			}
		}
	}
}

// diamond scores the 8-point diamond of radius dist around (cx, cy). Point
// numbers follow the 3×3 raster layout
//
//	1 2 3
//	4 0 5
//	6 7 8
//
// Beyond distance 8 the diamond is sparse: the four axis points plus three
// points along each diagonal edge.
func (m *matcher) diamond(cx, cy, dist int, corners bool) {
	m.state.BestRound++
	top, bottom := cy-dist, cy+dist
	left, right := cx-dist, cx+dist

	if dist == 1 {
		if corners {
			m.check(left, top, 1, dist)
		}
		m.check(cx, top, 2, dist)
		if corners {
			m.check(right, top, 3, dist)
		}
		m.check(left, cy, 4, dist)
		m.check(right, cy, 5, dist)
		if corners {
			m.check(left, bottom, 6, dist)
		}
		m.check(cx, bottom, 7, dist)
		if corners {
			m.check(right, bottom, 8, dist)
		}
		return
	}

	if dist <= 8 {
		half := dist >> 1
		m.check(cx, top, 2, dist)
		m.check(cx-half, cy-half, 1, half)
		m.check(cx+half, cy-half, 3, half)
		m.check(left, cy, 4, dist)
		m.check(right, cy, 5, dist)
		m.check(cx-half, cy+half, 6, half)
		m.check(cx+half, cy+half, 8, half)
		m.check(cx, bottom, 7, dist)
		return
	}

	m.check(cx, top, 0, dist)
	m.check(left, cy, 0, dist)
	m.check(right, cy, 0, dist)
	m.check(cx, bottom, 0, dist)
	q := dist >> 2
	for i := 1; i < 4; i++ {
		yt, yb := top+q*i, bottom-q*i
		xl, xr := cx-q*i, cx+q*i
		m.check(xl, yt, 0, dist)
		m.check(xr, yt, 0, dist)
		m.check(xl, yb, 0, dist)
		m.check(xr, yb, 0, dist)
	}
}

// twoPoint scores the two neighbours of the best unit-distance point that
// the diamond around the previous centre did not cover.
func (m *matcher) twoPoint() {
	s := &m.state
	x, y := s.BestX, s.BestY
	switch s.PointNr {
	case 1:
		m.check(x-1, y, 0, 2)
		m.check(x, y-1, 0, 2)
	case 2:
		m.check(x-1, y-1, 0, 2)
		m.check(x+1, y-1, 0, 2)
	case 3:
		m.check(x, y-1, 0, 2)
		m.check(x+1, y, 0, 2)
	case 4:
		m.check(x-1, y+1, 0, 2)
		m.check(x-1, y-1, 0, 2)
	case 5:
		m.check(x+1, y-1, 0, 2)
		m.check(x+1, y+1, 0, 2)
	case 6:
		m.check(x-1, y, 0, 2)
		m.check(x, y+1, 0, 2)
	case 7:
		m.check(x-1, y+1, 0, 2)
		m.check(x+1, y+1, 0, 2)
	case 8:
		m.check(x+1, y, 0, 2)
		m.check(x, y+1, 0, 2)
	}
}

func selectiveSearch(p *Problem) Result {
	m := newMatcher(p)
	m.startCandidates(true)
	s := &m.state

	bx, by := s.BestX, s.BestY
	initial := p.Radius >> 2
	grid := p.Range.Intersect(mv.Range{
		Left: bx - initial, Right: bx + initial,
		Top: by - initial, Bottom: by + initial,
	})
	for y := grid.Top; y <= grid.Bottom; y += selStep {
		for x := grid.Left; x <= grid.Right; x += selStep {
			m.check(x, y, 0, 0)
			m.diamond(x, y, 1, false)
			m.diamond(x, y, 2, false)
		}
	}

	far := abs(s.BestX-bx) > selDistThresh || abs(s.BestY-by) > selDistThresh
	if far {
		r := p.Range
		for y := r.Top; y <= r.Bottom; y++ {
			for x := r.Left; x <= r.Right; x++ {
				m.check(x, y, 0, 1)
			}
		}
		return m.result()
	}
	m.starRefinement(false)
	return m.result()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
