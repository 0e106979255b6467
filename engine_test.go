package motion

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/deepteams/motion/internal/search"
)

const testSize = 64

// shifted builds a reference of random samples and a current picture whose
// content is that reference moved by (dx, dy) samples.
func shifted(t testing.TB, seed int64, dx, dy int) (cur *Plane, refs *RefLists) {
	t.Helper()
	const size = testSize + 64
	rng := rand.New(rand.NewSource(seed))
	tex := make([]uint16, size*size)
	for i := range tex {
		tex[i] = uint16(rng.Intn(256))
	}
	at := func(x, y int) uint16 { return tex[(y+32)*size+x+32] }

	build := func(poc, ox, oy int) *Plane {
		p, err := NewPlane(testSize, testSize, 8)
		if err != nil {
			t.Fatal(err)
		}
		p.POC = poc
		for y := 0; y < testSize; y++ {
			for x := 0; x < testSize; x++ {
				p.Set(x, y, at(x+ox, y+oy))
			}
		}
		p.ExtendBorders()
		return p
	}
	ref := build(0, 0, 0)
	cur = build(1, dx, dy)
	return cur, &RefLists{L: [2][]*Plane{{ref}}}
}

func testEngine(t testing.TB) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.SearchMethod = SearchFull
	cfg.SearchRange = 8
	eng, err := NewEngine(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return eng
}

func TestNewEngineNilConfig(t *testing.T) {
	eng, err := NewEngine(nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := eng.Config(); got.SearchRange != DefaultConfig().SearchRange {
		t.Errorf("SearchRange = %d, want the default", got.SearchRange)
	}
}

func TestBeginPictureValidation(t *testing.T) {
	eng := testEngine(t)
	cur, refs := shifted(t, 1, 0, 0)
	field := NewMotionField(testSize, testSize)
	other, _ := NewPlane(32, 32, 8)
	deep, _ := NewPlane(testSize, testSize, 10)

	tests := []struct {
		name  string
		cur   *Plane
		refs  *RefLists
		field *MotionField
	}{
		{"nil picture", nil, refs, field},
		{"bit depth", deep, refs, field},
		{"no references", cur, &RefLists{}, field},
		{"nil reference", cur, &RefLists{L: [2][]*Plane{{nil}}}, field},
		{"reference size", cur, &RefLists{L: [2][]*Plane{{other}}}, field},
		{"reference POC", cur, &RefLists{L: [2][]*Plane{{cur}}}, field},
		{"field size", cur, refs, NewMotionField(32, 32)},
		{"nil field", cur, refs, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := eng.BeginPicture(tt.cur, tt.refs, tt.field); !errors.Is(err, ErrInvalidPicture) {
				t.Errorf("BeginPicture() = %v, want ErrInvalidPicture", err)
			}
		})
	}
}

func TestDecideFindsDisplacement(t *testing.T) {
	eng := testEngine(t)
	cur, refs := shifted(t, 7, 3, -2)
	field := NewMotionField(testSize, testSize)
	sess, err := eng.BeginPicture(cur, refs, field)
	if err != nil {
		t.Fatal(err)
	}
	defer sess.Close()

	want := MV{X: 12, Y: -8}
	for y := 0; y < testSize; y += 16 {
		for x := 0; x < testSize; x += 16 {
			d, err := sess.Decide(Block{X: x, Y: y, W: 16, H: 16})
			if err != nil {
				t.Fatal(err)
			}
			m, ok := field.At(x, y)
			if !ok || m.Dir != d.Motion.Dir || (!d.Motion.Affine && m.MV != d.Motion.MV) {
				t.Errorf("block (%d,%d): committed %+v, decided %+v", x, y, m, d.Motion)
			}
			// Blocks touching the top or right edge see replicated
			// reference samples rather than the moved content.
			if y == 0 || x == testSize-16 {
				continue
			}
			if d.Motion.MV[0] != want || d.SSE != 0 {
				t.Errorf("block (%d,%d): %v MV %v SSE %d, want %v with SSE 0", x, y, d.Mode, d.Motion.MV[0], d.SSE, want)
			}
		}
	}
	st := sess.Stats()
	if st.Blocks != 16 {
		t.Errorf("Blocks = %d, want 16", st.Blocks)
	}
	total := 0
	for _, n := range st.Modes {
		total += n
	}
	if total != st.Blocks {
		t.Errorf("mode histogram sums to %d, want %d", total, st.Blocks)
	}
}

func TestFirstSearchRounds(t *testing.T) {
	tests := []struct {
		method SearchMethod
		rounds int
		want   search.Strategy
	}{
		{SearchDiamond, 0, search.Diamond{}},
		{SearchDiamond, 2, search.Diamond{FirstSearchRounds: 2}},
		{SearchEnhancedDiamond, 3, search.EnhancedDiamond{FirstSearchRounds: 3}},
		{SearchFull, 3, search.Full{}},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.SearchMethod = tt.method
		cfg.SearchRange = 8
		cfg.FirstSearchRounds = tt.rounds
		eng, err := NewEngine(cfg)
		if err != nil {
			t.Fatal(err)
		}
		if eng.search.Strategy != tt.want {
			t.Errorf("%v with %d rounds: strategy %#v, want %#v", tt.method, tt.rounds, eng.search.Strategy, tt.want)
		}

		cur, refs := shifted(t, 5, 2, 1)
		sess, err := eng.BeginPicture(cur, refs, NewMotionField(testSize, testSize))
		if err != nil {
			t.Fatal(err)
		}
		for y := 0; y < testSize; y += 16 {
			for x := 0; x < testSize; x += 16 {
				d, err := sess.Decide(Block{X: x, Y: y, W: 16, H: 16})
				if err != nil {
					t.Fatal(err)
				}
				if d.Considered < 1 || len(d.Pred) != 16*16 {
					t.Errorf("block (%d,%d): %d candidates, %d samples", x, y, d.Considered, len(d.Pred))
				}
			}
		}
		sess.Close()
	}
	if ConfigForPreset(PresetFast).FirstSearchRounds == 0 {
		t.Error("fast preset runs the diamond without an early stop")
	}
}

func TestDecideErrors(t *testing.T) {
	eng := testEngine(t)
	cur, refs := shifted(t, 2, 0, 0)
	sess, err := eng.BeginPicture(cur, refs, NewMotionField(testSize, testSize))
	if err != nil {
		t.Fatal(err)
	}
	for _, b := range []Block{
		{X: 0, Y: 0, W: 12, H: 16},
		{X: 0, Y: 0, W: 16, H: 16, PartIdx: 1},
		{X: 56, Y: 0, W: 16, H: 16},
		{X: -4, Y: 0, W: 8, H: 8},
	} {
		if _, err := sess.Decide(b); !errors.Is(err, ErrInvalidBlock) {
			t.Errorf("Decide(%+v) = %v, want ErrInvalidBlock", b, err)
		}
	}
	sess.Close()
	sess.Close()
	if _, err := sess.Decide(Block{W: 8, H: 8}); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Decide after Close = %v, want ErrSessionClosed", err)
	}
}

func TestSetCollocated(t *testing.T) {
	eng := testEngine(t)
	cur, refs := shifted(t, 3, 1, 1)
	field := NewMotionField(testSize, testSize)
	sess, err := eng.BeginPicture(cur, refs, field)
	if err != nil {
		t.Fatal(err)
	}
	defer sess.Close()
	if err := sess.SetCollocated(field, true); !errors.Is(err, ErrInvalidPicture) {
		t.Errorf("own field accepted as collocated: %v", err)
	}
	if err := sess.SetCollocated(NewMotionField(16, 16), true); !errors.Is(err, ErrInvalidPicture) {
		t.Errorf("mismatched collocated field accepted: %v", err)
	}
	if err := sess.SetCollocated(NewMotionField(testSize, testSize), true); err != nil {
		t.Errorf("SetCollocated() = %v", err)
	}
}

func BenchmarkDecidePicture(b *testing.B) {
	eng, err := NewEngine(DefaultConfig())
	if err != nil {
		b.Fatal(err)
	}
	cur, refs := shifted(b, 9, 5, 3)
	field := NewMotionField(testSize, testSize)
	b.ReportAllocs()
	for b.Loop() {
		sess, err := eng.BeginPicture(cur, refs, field)
		if err != nil {
			b.Fatal(err)
		}
		for y := 0; y < testSize; y += 16 {
			for x := 0; x < testSize; x += 16 {
				if _, err := sess.Decide(Block{X: x, Y: y, W: 16, H: 16}); err != nil {
					b.Fatal(err)
				}
			}
		}
		sess.Close()
	}
}
