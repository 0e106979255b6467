package search

import "github.com/deepteams/motion/internal/mv"

// Key identifies a block geometry, reference list and reference index.
type Key struct {
	X, Y, W, H int
	List       mv.List
	RefIdx     int
}

// UniEntry is a buffered uni-prediction search outcome.
type UniEntry struct {
	MV     mv.MV
	MVPIdx int
	Bits   int
	Dist   uint64
	Cost   uint64
}

// Cache is the per-picture search memory. It maps a coding unit to the
// integer vector its 2Nx2N search found, which seeds the searches of the
// unit's other partitions, and keeps uni-prediction results per exact block
// so that repeated passes over the same block skip the search.
//
// A Cache belongs to one picture and one goroutine; create it when the
// picture starts and drop it when the picture is done.
type Cache struct {
	integer map[Key]mv.MV
	uni     map[Key]UniEntry

	hits, misses int
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{
		integer: make(map[Key]mv.MV),
		uni:     make(map[Key]UniEntry),
	}
}

// Reset empties the cache for the next picture.
func (c *Cache) Reset() {
	clear(c.integer)
	clear(c.uni)
	c.hits, c.misses = 0, 0
}

func cuKey(b mv.Block, l mv.List, refIdx int) Key {
	x, y, w, h := b.CU()
	return Key{X: x, Y: y, W: w, H: h, List: l, RefIdx: refIdx}
}

func blockKey(b mv.Block, l mv.List, refIdx int) Key {
	return Key{X: b.X, Y: b.Y, W: b.W, H: b.H, List: l, RefIdx: refIdx}
}

// StoreInteger records the integer vector found for a 2Nx2N block. Other
// partition shapes are ignored.
func (c *Cache) StoreInteger(b mv.Block, l mv.List, refIdx int, v mv.MV) {
	if b.Part != mv.Part2Nx2N {
		return
	}
	c.integer[cuKey(b, l, refIdx)] = v
}

// Integer returns the integer vector recorded for the coding unit that
// contains b. A 2Nx2N block never seeds itself.
func (c *Cache) Integer(b mv.Block, l mv.List, refIdx int) (mv.MV, bool) {
	if b.Part == mv.Part2Nx2N {
		return mv.Zero, false
	}
	v, ok := c.integer[cuKey(b, l, refIdx)]
	c.count(ok)
	return v, ok
}

// StoreUni buffers a uni-prediction result for exactly block b.
func (c *Cache) StoreUni(b mv.Block, l mv.List, refIdx int, e UniEntry) {
	c.uni[blockKey(b, l, refIdx)] = e
}

// Uni returns the buffered uni-prediction result for block b.
func (c *Cache) Uni(b mv.Block, l mv.List, refIdx int) (UniEntry, bool) {
	e, ok := c.uni[blockKey(b, l, refIdx)]
	c.count(ok)
	return e, ok
}

func (c *Cache) count(hit bool) {
	if hit {
		c.hits++
	} else {
		c.misses++
	}
}

// Stats returns the lookup hit and miss counts since the last Reset.
func (c *Cache) Stats() (hits, misses int) { return c.hits, c.misses }
