package motion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/deepteams/motion/internal/cand"
	"github.com/deepteams/motion/internal/dsp"
	"github.com/deepteams/motion/internal/inter"
	"github.com/deepteams/motion/internal/logging"
	"github.com/deepteams/motion/internal/mv"
	"github.com/deepteams/motion/internal/picture"
	"github.com/deepteams/motion/internal/search"
)

// Engine holds the resolved configuration of a sequence. It is immutable
// once built, so sessions for independent pictures may be opened and run
// from different goroutines.
type Engine struct {
	cfg    Config
	search inter.Config
	log    *logging.Logger
}

// NewEngine validates cfg and resolves it. A nil cfg uses DefaultConfig.
func NewEngine(cfg *Config) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:    *cfg,
		search: cfg.searchConfig(),
		log:    logging.Global().For("motion"),
	}
	e.log.Debug("engine configured",
		"method", cfg.SearchMethod.String(),
		"range", cfg.SearchRange,
		"first_search_rounds", cfg.FirstSearchRounds,
		"bipred_range", cfg.BipredSearchRange,
		"lambda", cfg.lambda(),
		"affine", cfg.Affine,
		"gbi", cfg.GBi,
		"imv", int(cfg.IMV),
		"backend", dsp.ActiveBackend().String())
	return e, nil
}

// Config returns a copy of the engine's configuration.
func (e *Engine) Config() Config { return e.cfg }

// Stats summarises the decisions of a session.
type Stats struct {
	Blocks int
	// Modes counts decisions per Mode.
	Modes [4]int
	// Samples is the area covered by the decided blocks; SSE is measured
	// over it.
	Samples int
	SSE     uint64
	Bits    int
	// CacheHits and CacheMisses count lookups of the per-picture motion
	// cache.
	CacheHits   int
	CacheMisses int
}

// Session searches the blocks of one picture. It owns the picture's motion
// cache and scratch buffers and must not be used from several goroutines.
type Session struct {
	eng      *Engine
	cur      *Plane
	field    *MotionField
	env      *cand.Env
	cache    *search.Cache
	searcher *inter.Searcher
	stats    Stats
	closed   bool
}

// BeginPicture opens a session for the picture cur predicted from refs.
// field receives the motion of every decided block; it is cleared first and
// must not be shared with another open session or used as a collocated
// field at the same time.
func (e *Engine) BeginPicture(cur *Plane, refs *RefLists, field *MotionField) (*Session, error) {
	if err := e.checkPicture(cur, refs, field); err != nil {
		return nil, err
	}
	field.Reset(cur.POC, refs.POCs())
	env := cand.NewEnv(field)
	cache := search.NewCache()
	s := &Session{
		eng:      e,
		cur:      cur,
		field:    field,
		env:      env,
		cache:    cache,
		searcher: inter.NewSearcher(e.search, cur, refs, env, cache),
	}
	e.log.Debug("picture opened",
		"poc", cur.POC,
		"width", cur.Width,
		"height", cur.Height,
		"refs_l0", refs.Num(mv.L0),
		"refs_l1", refs.Num(mv.L1))
	return s, nil
}

func (e *Engine) checkPicture(cur *Plane, refs *RefLists, field *MotionField) error {
	if cur == nil {
		return fmt.Errorf("%w: no current picture", ErrInvalidPicture)
	}
	if cur.BitDepth != e.cfg.BitDepth {
		return fmt.Errorf("%w: bit depth %d, engine configured for %d", ErrInvalidPicture, cur.BitDepth, e.cfg.BitDepth)
	}
	if refs == nil || refs.Num(mv.L0) == 0 {
		return fmt.Errorf("%w: no list-0 reference", ErrInvalidPicture)
	}
	for l := mv.L0; l <= mv.L1; l++ {
		if n := refs.Num(l); n > picture.MaxRefs {
			return fmt.Errorf("%w: %d list-%d references (max %d)", ErrInvalidPicture, n, l, picture.MaxRefs)
		}
		for i, r := range refs.L[l] {
			switch {
			case r == nil:
				return fmt.Errorf("%w: list-%d reference %d is nil", ErrInvalidPicture, l, i)
			case r.Width != cur.Width || r.Height != cur.Height:
				return fmt.Errorf("%w: list-%d reference %d is %dx%d, picture is %dx%d",
					ErrInvalidPicture, l, i, r.Width, r.Height, cur.Width, cur.Height)
			case r.BitDepth != cur.BitDepth:
				return fmt.Errorf("%w: list-%d reference %d has bit depth %d", ErrInvalidPicture, l, i, r.BitDepth)
			case r.POC == cur.POC:
				return fmt.Errorf("%w: list-%d reference %d shares POC %d with the picture", ErrInvalidPicture, l, i, cur.POC)
			}
		}
	}
	if field == nil || field.Width != cur.Width || field.Height != cur.Height {
		return fmt.Errorf("%w: motion field does not match the picture", ErrInvalidPicture)
	}
	return nil
}

// SetCollocated supplies the motion field of the collocated picture for
// temporal candidates. fromL0 reports whether that picture was taken from
// list 0. It has no effect when TemporalMVP is disabled.
func (s *Session) SetCollocated(col *MotionField, fromL0 bool) error {
	if col == nil || col.Width != s.cur.Width || col.Height != s.cur.Height {
		return fmt.Errorf("%w: collocated field does not match the picture", ErrInvalidPicture)
	}
	if col == s.field {
		return fmt.Errorf("%w: collocated field is the picture's own field", ErrInvalidPicture)
	}
	if !s.eng.cfg.TemporalMVP {
		return nil
	}
	s.env.Col = col
	s.env.ColFromL0 = fromL0
	s.env.Temporal = true
	return nil
}

// Decide searches block b, commits the winner to the motion field and
// returns it. Blocks must arrive in coding order.
func (s *Session) Decide(b Block) (Decision, error) {
	if s.closed {
		return Decision{}, ErrSessionClosed
	}
	if !b.Valid() {
		return Decision{}, fmt.Errorf("%w: %dx%d %v part %d", ErrInvalidBlock, b.W, b.H, b.Part, b.PartIdx)
	}
	if b.X < 0 || b.Y < 0 || b.X+b.W > s.cur.Width || b.Y+b.H > s.cur.Height {
		return Decision{}, fmt.Errorf("%w: %dx%d at (%d,%d) outside %dx%d picture",
			ErrInvalidBlock, b.W, b.H, b.X, b.Y, s.cur.Width, s.cur.Height)
	}

	d := s.searcher.Search(b)
	s.searcher.Commit(d)

	s.stats.Blocks++
	s.stats.Modes[d.Mode]++
	s.stats.Samples += d.Block.Area()
	s.stats.SSE += d.SSE
	s.stats.Bits += d.Bits

	if s.eng.log.Enabled(context.Background(), slog.LevelDebug) {
		s.eng.log.Debug("block decided",
			"x", b.X, "y", b.Y, "w", b.W, "h", b.H,
			"mode", d.Mode.String(),
			"dir", d.Motion.Dir.String(),
			"mv0", d.Motion.MV[mv.L0].String(),
			"mv1", d.Motion.MV[mv.L1].String(),
			"cost", d.Cost,
			"sse", d.SSE)
	}
	return d, nil
}

// Stats returns the running totals of the session.
func (s *Session) Stats() Stats {
	st := s.stats
	st.CacheHits, st.CacheMisses = s.cache.Stats()
	return st
}

// Close ends the session and drops its cache. The motion field keeps the
// committed motion and may serve as the collocated field of a later
// picture. Closing twice is a no-op.
func (s *Session) Close() {
	if s.closed {
		return
	}
	st := s.Stats()
	s.closed = true
	s.cache.Reset()
	s.eng.log.Debug("picture closed",
		"poc", s.cur.POC,
		"blocks", st.Blocks,
		"cache_hits", st.CacheHits,
		"cache_misses", st.CacheMisses)
}
