package inter

import (
	"math/rand"
	"reflect"
	"testing"

	"github.com/deepteams/motion/internal/cand"
	"github.com/deepteams/motion/internal/mv"
	"github.com/deepteams/motion/internal/picture"
	"github.com/deepteams/motion/internal/search"
)

const picSize = 64

// texture is a fixed random field addressed with an offset so that shifted
// copies can be built without running off its edge.
type texture struct {
	pix  []uint16
	size int
}

func newTexture(seed int64) *texture {
	const size = picSize + 64
	rng := rand.New(rand.NewSource(seed))
	t := &texture{pix: make([]uint16, size*size), size: size}
	for i := range t.pix {
		t.pix[i] = uint16(rng.Intn(256))
	}
	return t
}

func (t *texture) at(x, y int) uint16 { return t.pix[(y+32)*t.size+x+32] }

func newPlane(tb testing.TB, poc int, fill func(x, y int) uint16) *picture.Plane {
	tb.Helper()
	p, err := picture.NewPlane(picSize, picSize, picture.DefaultMargin, 8)
	if err != nil {
		tb.Fatal(err)
	}
	p.POC = poc
	for y := 0; y < picSize; y++ {
		for x := 0; x < picSize; x++ {
			p.Set(x, y, fill(x, y))
		}
	}
	p.ExtendBorders()
	return p
}

func testConfig() Config {
	return Config{
		Strategy:     search.Full{},
		SearchRange:  8,
		BipredRange:  4,
		BiIterations: 4,
		Affine:       true,
		Affine6:      true,
		GBi:          true,
		Precisions:   []mv.Precision{mv.Quarter},
		MaxMergeCand: 5,
		Costs:        mv.NewCosts(4),
		Bits:         mv.GolombEstimator{},
	}
}

func newTestSearcher(cfg Config, cur *picture.Plane, refs *picture.RefLists) *Searcher {
	field := picture.NewMotionField(cur.Width, cur.Height)
	field.Reset(cur.POC, refs.POCs())
	return NewSearcher(cfg, cur, refs, cand.NewEnv(field), search.NewCache())
}

// shiftedScene returns a P picture whose content is its reference moved by
// (3, -2) samples.
func shiftedScene(tb testing.TB) (*picture.Plane, *picture.RefLists) {
	tex := newTexture(11)
	ref := newPlane(tb, 0, tex.at)
	cur := newPlane(tb, 1, func(x, y int) uint16 { return tex.at(x+3, y-2) })
	return cur, &picture.RefLists{L: [2][]*picture.Plane{{ref}}}
}

// biScene returns a B picture with one reference on each side.
func biScene(tb testing.TB) (*picture.Plane, *picture.RefLists) {
	a, b := newTexture(3), newTexture(4)
	ref0 := newPlane(tb, 0, a.at)
	ref1 := newPlane(tb, 4, b.at)
	cur := newPlane(tb, 2, func(x, y int) uint16 {
		return (a.at(x+2, y) + b.at(x-1, y+1) + 1) >> 1
	})
	return cur, &picture.RefLists{L: [2][]*picture.Plane{{ref0}, {ref1}}}
}

var testBlock = mv.Block{X: 16, Y: 16, W: 16, H: 16}

func TestUniFindsDisplacement(t *testing.T) {
	cur, refs := shiftedScene(t)
	s := newTestSearcher(testConfig(), cur, refs)
	blk := s.Prepare(testBlock)
	res := s.Uni(blk, mv.Quarter)

	if res.Best != [2]int{0, -1} {
		t.Fatalf("Best = %v, want [0 -1]", res.Best)
	}
	r := res.Refs[mv.L0][0]
	if want := mv.FromInt(3, -2); r.MV != want {
		t.Errorf("MV = %v, want %v", r.MV, want)
	}
	if r.Dist != 0 {
		t.Errorf("Dist = %d, want 0", r.Dist)
	}
	if r.Cost != s.cfg.Costs.Motion.Cost(r.Bits, r.Dist) {
		t.Errorf("Cost %d does not match bits %d and dist %d", r.Cost, r.Bits, r.Dist)
	}
}

func TestUniServedFromBuffer(t *testing.T) {
	cur, refs := shiftedScene(t)
	s := newTestSearcher(testConfig(), cur, refs)
	first := s.Uni(s.Prepare(testBlock), mv.Quarter)
	_, misses := s.cache.Stats()
	second := s.Uni(s.Prepare(testBlock), mv.Quarter)
	hits, misses2 := s.cache.Stats()
	if !reflect.DeepEqual(first, second) {
		t.Errorf("second search differs: %+v vs %+v", second, first)
	}
	if hits == 0 || misses2 != misses {
		t.Errorf("hits=%d misses %d->%d, want the repeat served from the buffer", hits, misses, misses2)
	}
}

func TestUniTwinReuse(t *testing.T) {
	tex := newTexture(11)
	ref := newPlane(t, 0, tex.at)
	cur := newPlane(t, 1, func(x, y int) uint16 { return tex.at(x+3, y-2) })
	refs := &picture.RefLists{L: [2][]*picture.Plane{{ref}, {ref}}}
	s := newTestSearcher(testConfig(), cur, refs)
	res := s.Uni(s.Prepare(testBlock), mv.Quarter)

	if res.Refs[mv.L1][0].MV != res.Refs[mv.L0][0].MV {
		t.Errorf("twin MV = %v, want list-0 MV %v", res.Refs[mv.L1][0].MV, res.Refs[mv.L0][0].MV)
	}
	if res.Refs[mv.L1][0].Dist != res.Refs[mv.L0][0].Dist {
		t.Errorf("twin Dist = %d, want %d", res.Refs[mv.L1][0].Dist, res.Refs[mv.L0][0].Dist)
	}
	if res.ValidL1 != -1 {
		t.Errorf("ValidL1 = %d, want -1 with every list-1 picture in list 0", res.ValidL1)
	}
}

// checkPredictor verifies that every used list of c is coded as a valid
// predictor index plus the difference scaled to the candidate's precision.
func checkPredictor(t *testing.T, s *Searcher, blk *Block, c Candidate) {
	t.Helper()
	for l := mv.L0; l <= mv.L1; l++ {
		if !c.Motion.Dir.Uses(l) {
			continue
		}
		preds := s.AMVP(blk, l, c.Motion.RefIdx[l])
		idx := c.MVPIdx[l]
		if idx < 0 || idx >= len(preds) {
			t.Errorf("%v list %d: MVPIdx %d outside AMVP list of %d", c.Mode, l, idx, len(preds))
			continue
		}
		want := preds[idx].RoundTo(c.Prec).Add(c.MVD[l].Shl(c.Prec.Shift()))
		if c.Motion.MV[l] != want {
			t.Errorf("%v list %d at %v: MV %v != predictor %v + MVD %v", c.Mode, l, c.Prec, c.Motion.MV[l], preds[idx], c.MVD[l])
		}
	}
}

func TestPredictorConsistency(t *testing.T) {
	cur, refs := biScene(t)
	cfg := testConfig()
	cfg.Precisions = []mv.Precision{mv.Quarter, mv.Integer, mv.Four}
	s := newTestSearcher(cfg, cur, refs)
	blk := s.Prepare(testBlock)

	for _, prec := range cfg.Precisions {
		uni := s.Uni(blk, prec)
		for _, l := range s.lists() {
			c, ok := s.uniCandidate(blk, uni, l)
			if !ok {
				t.Fatalf("%v: no uni candidate for list %d", prec, l)
			}
			checkPredictor(t, s, blk, c)
		}
		bi, ok := s.Bi(blk, uni, mv.GBiDefault, nil)
		if !ok {
			t.Fatalf("%v: bi-prediction unavailable", prec)
		}
		checkPredictor(t, s, blk, bi)
		if prec == mv.Quarter {
			gbi, ok := s.Bi(blk, uni, 3, &bi)
			if !ok {
				t.Fatal("GBi pass unavailable")
			}
			checkPredictor(t, s, blk, gbi)
		}
	}
}

func TestBiLoopTerminates(t *testing.T) {
	for _, fast := range []bool{false, true} {
		cur, refs := biScene(t)
		cfg := testConfig()
		cfg.FastBi = fast
		s := newTestSearcher(cfg, cur, refs)
		blk := s.Prepare(testBlock)
		uni := s.Uni(blk, mv.Quarter)
		c, ok := s.Bi(blk, uni, mv.GBiDefault, nil)
		if !ok {
			t.Fatal("bi-prediction unavailable")
		}
		limit := cfg.BiIterations
		if fast {
			limit = 1
		}
		if c.Iterations < 1 || c.Iterations > limit {
			t.Errorf("fast=%v: %d iterations, want 1..%d", fast, c.Iterations, limit)
		}
		if c.Motion.Dir != mv.DirBi {
			t.Fatalf("fast=%v: Dir = %v", fast, c.Motion.Dir)
		}
		for l := mv.L0; l <= mv.L1; l++ {
			ref := refs.Get(l, c.Motion.RefIdx[l])
			if !ref.Legal(blk.X, blk.Y, blk.W, blk.H, c.Motion.MV[l]) {
				t.Errorf("fast=%v list %d: illegal MV %v", fast, l, c.Motion.MV[l])
			}
		}
		// The reported distortion is that of the blended prediction.
		pred := make([]uint16, blk.Area())
		s.predictMotion(pred, blk, c.Motion)
		if d := satd(blk, pred); d != c.Dist {
			t.Errorf("fast=%v: Dist %d, blended prediction measures %d", fast, c.Dist, d)
		}
	}
}

func TestBiUnavailableOnP(t *testing.T) {
	cur, refs := shiftedScene(t)
	s := newTestSearcher(testConfig(), cur, refs)
	blk := s.Prepare(testBlock)
	if _, ok := s.Bi(blk, s.Uni(blk, mv.Quarter), mv.GBiDefault, nil); ok {
		t.Error("bi-prediction offered on a P picture")
	}
}

func TestSmallBlockDirectionBitsOnB(t *testing.T) {
	tex := newTexture(7)
	ref0 := newPlane(t, 0, tex.at)
	ref1 := newPlane(t, 4, tex.at)
	cur := newPlane(t, 2, tex.at)
	refs := &picture.RefLists{L: [2][]*picture.Plane{{ref0}, {ref1}}}
	cfg := testConfig()
	cfg.MaxMergeCand = 0
	s := newTestSearcher(cfg, cur, refs)
	blk := s.Prepare(mv.Block{X: 16, Y: 16, W: 8, H: 4})
	if blk.biAllowed {
		t.Fatal("8x4 block allowed to bi-predict")
	}

	l0 := s.modeBits(blk, mv.DirL0, false, 0, mv.Quarter)
	l1 := s.modeBits(blk, mv.DirL1, false, 0, mv.Quarter)
	if l0 != l1 {
		t.Errorf("modeBits L0=%d L1=%d, want equal", l0, l1)
	}

	d := s.Search(blk.Block)
	if d.Mode != ModeUni || d.Motion.Dir != mv.DirL0 {
		t.Errorf("decision = %v %v, want uni L0", d.Mode, d.Motion.Dir)
	}
	if d.Dist != 0 {
		t.Errorf("Dist = %d, want 0", d.Dist)
	}
}

func TestAffineStillContentStopsAtZero(t *testing.T) {
	tex := newTexture(5)
	ref := newPlane(t, 0, tex.at)
	cur := newPlane(t, 1, tex.at)
	refs := &picture.RefLists{L: [2][]*picture.Plane{{ref}}}
	s := newTestSearcher(testConfig(), cur, refs)
	blk := s.Prepare(testBlock)
	uni := s.Uni(blk, mv.Quarter)

	res, c, ok := s.Affine(blk, uni, mv.Affine4, nil)
	if !ok {
		t.Fatal("affine search unavailable")
	}
	r := res.Refs[mv.L0][0]
	if r.CP != ([3]mv.MV{}) || r.Dist != 0 {
		t.Errorf("CP = %v dist %d, want zero motion and distortion", r.CP, r.Dist)
	}
	if c.Mode != ModeAffine || !c.Motion.Affine || c.Motion.AffineType != mv.Affine4 {
		t.Errorf("candidate = %+v, want a 4-parameter affine candidate", c)
	}
	if c.Motion.BW != blk.W || c.Motion.BH != blk.H || c.Motion.BX != blk.X || c.Motion.BY != blk.Y {
		t.Errorf("candidate geometry %d,%d %dx%d, want the block's", c.Motion.BX, c.Motion.BY, c.Motion.BW, c.Motion.BH)
	}
}

func TestAffineSmallBlockUnavailable(t *testing.T) {
	cur, refs := shiftedScene(t)
	s := newTestSearcher(testConfig(), cur, refs)
	blk := s.Prepare(mv.Block{X: 16, Y: 16, W: 8, H: 4, Part: mv.Part2Nx2N})
	if _, _, ok := s.Affine(blk, s.Uni(blk, mv.Quarter), mv.Affine4, nil); ok {
		t.Error("affine offered on an 8x4 block")
	}
}

func TestCPMVDs(t *testing.T) {
	pred := cand.AffineCand{{X: 4, Y: 4}, {X: 8, Y: 0}, {X: 0, Y: 8}}
	cp := [3]mv.MV{{X: 6, Y: 4}, {X: 12, Y: 1}, {X: 3, Y: 8}}
	got := cpMVDs(cp, pred, mv.Affine6)
	want := [3]mv.MV{{X: 2, Y: 0}, {X: 2, Y: 1}, {X: 1, Y: 0}}
	if got != want {
		t.Errorf("cpMVDs = %v, want %v", got, want)
	}
	got = cpMVDs(cp, pred, mv.Affine4)
	want[2] = mv.MV{}
	if got != want {
		t.Errorf("4-parameter cpMVDs = %v, want %v", got, want)
	}
}

func TestMergeSkipsIllegalCandidates(t *testing.T) {
	cur, refs := shiftedScene(t)
	s := newTestSearcher(testConfig(), cur, refs)
	far := mv.Motion{Dir: mv.DirL0, MV: [2]mv.MV{{X: 4000}}, GBiIdx: mv.GBiDefault}
	s.env.Field.Store(0, 16, 16, 16, far)

	c, ok := s.Merge(s.Prepare(testBlock))
	if !ok {
		t.Fatal("no merge candidate")
	}
	if c.MergeIdx != 1 || c.Motion.MV[mv.L0] != mv.Zero {
		t.Errorf("merge idx %d MV %v, want the zero candidate at index 1", c.MergeIdx, c.Motion.MV[mv.L0])
	}
}

func TestMergeDisabled(t *testing.T) {
	cur, refs := shiftedScene(t)
	cfg := testConfig()
	cfg.MaxMergeCand = 0
	s := newTestSearcher(cfg, cur, refs)
	if _, ok := s.Merge(s.Prepare(testBlock)); ok {
		t.Error("merge offered with an empty merge list")
	}
}

func TestDecideTieKeepsFirst(t *testing.T) {
	cands := []Candidate{{Mode: ModeMerge, Cost: 9}, {Mode: ModeUni, Cost: 5}, {Mode: ModeBi, Cost: 5}}
	c, i := Decide(cands)
	if i != 1 || c.Mode != ModeUni {
		t.Errorf("Decide = %v at %d, want uni at 1", c.Mode, i)
	}
}

func TestDecidePanicsOnEmpty(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("no panic for an empty candidate list")
		}
	}()
	Decide(nil)
}

func TestSearchPicksDisplacement(t *testing.T) {
	cur, refs := shiftedScene(t)
	s := newTestSearcher(testConfig(), cur, refs)
	d := s.Search(testBlock)

	if d.Mode != ModeUni {
		t.Fatalf("Mode = %v, want uni", d.Mode)
	}
	if want := mv.FromInt(3, -2); d.Motion.MV[mv.L0] != want {
		t.Errorf("MV = %v, want %v", d.Motion.MV[mv.L0], want)
	}
	if d.SSE != 0 {
		t.Errorf("SSE = %d, want 0", d.SSE)
	}
	if d.RDCost != s.cfg.Costs.Mode.Cost(d.Bits, d.SSE) {
		t.Errorf("RDCost = %d, want SSE plus mode lambda times bits", d.RDCost)
	}
	if d.Considered < 3 {
		t.Errorf("only %d candidates considered", d.Considered)
	}
}

func TestSearchDeterministic(t *testing.T) {
	run := func() Decision {
		cur, refs := biScene(t)
		return newTestSearcher(testConfig(), cur, refs).Search(testBlock)
	}
	a, b := run(), run()
	if !reflect.DeepEqual(a, b) {
		t.Errorf("decisions differ:\n%+v\n%+v", a.Candidate, b.Candidate)
	}
}

func TestCommitAffineSubblocks(t *testing.T) {
	cur, refs := shiftedScene(t)
	s := newTestSearcher(testConfig(), cur, refs)
	cp := [3]mv.MV{{X: 0, Y: 0}, {X: 16, Y: 0}, {X: 0, Y: 16}}
	d := Decision{Block: testBlock}
	d.Motion = mv.Motion{Dir: mv.DirL0, Affine: true, AffineType: mv.Affine4, GBiIdx: mv.GBiDefault}
	d.Motion.CP[mv.L0] = cp
	d.Motion.MV[mv.L0] = cp[0]
	s.Commit(d)

	model := mv.NewAffineModel(mv.Affine4, cp, testBlock.W, testBlock.H)
	for sy := 0; sy < testBlock.H/mv.SubblockSize; sy++ {
		for sx := 0; sx < testBlock.W/mv.SubblockSize; sx++ {
			m, ok := s.env.Field.At(testBlock.X+sx*mv.SubblockSize, testBlock.Y+sy*mv.SubblockSize)
			if !ok {
				t.Fatalf("sub-block %d,%d not stored", sx, sy)
			}
			if want := model.Subblock(sx, sy); m.MV[mv.L0] != want {
				t.Errorf("sub-block %d,%d MV = %v, want %v", sx, sy, m.MV[mv.L0], want)
			}
			if !m.Affine || m.CP[mv.L0] != cp {
				t.Errorf("sub-block %d,%d lost its model", sx, sy)
			}
		}
	}
}

func TestSkipAffine6(t *testing.T) {
	tests := []struct {
		cost4, best uint64
		want        bool
	}{
		{100, 100, false},
		{105, 100, false},
		{106, 100, true},
		{1 << 40, mv.MaxCost, false},
	}
	for _, tt := range tests {
		if got := skipAffine6(tt.cost4, tt.best); got != tt.want {
			t.Errorf("skipAffine6(%d, %d) = %v, want %v", tt.cost4, tt.best, got, tt.want)
		}
	}
}

func TestNewSearcherRejectsNonQuarterFirst(t *testing.T) {
	cur, refs := shiftedScene(t)
	cfg := testConfig()
	cfg.Precisions = []mv.Precision{mv.Integer, mv.Quarter}
	defer func() {
		if recover() == nil {
			t.Error("no panic for integer precision first")
		}
	}()
	newTestSearcher(cfg, cur, refs)
}

func BenchmarkSearch(b *testing.B) {
	cur, refs := biScene(b)
	cfg := testConfig()
	cfg.Strategy = search.New(search.MethodDiamond, 0)
	b.ReportAllocs()
	for b.Loop() {
		newTestSearcher(cfg, cur, refs).Search(testBlock)
	}
}

func TestAffineWeightedDistRounds(t *testing.T) {
	for _, w := range []int{-2, 3, 5, 10} {
		ap := &affineProblem{weight: w}
		for d := uint64(0); d < 64; d++ {
			if got, want := ap.scale(d), mv.WeightDist(d, w); got != want {
				t.Fatalf("weight %d: scale(%d) = %d, want %d", w, d, got, want)
			}
		}
	}
	if got := (&affineProblem{weight: 3}).scale(5); got != 2 {
		t.Errorf("scale(5) at weight 3 = %d, want 2", got)
	}
}
